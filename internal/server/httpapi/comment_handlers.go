package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/burblyhq/burbly/internal/server/services"
)

func (s *Server) listPostComments(c *gin.Context) {
	postID, ok := pathID(c, "postId")
	if !ok {
		return
	}
	page, limit := pageParams(c)
	result, pagination, err := s.comments.ListForPost(c.Request.Context(), postID, page, limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": result, "pagination": pagination})
}

func (s *Server) listReplies(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, limit := pageParams(c)
	result, pagination, err := s.comments.ListReplies(c.Request.Context(), id, page, limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"replies": result, "pagination": pagination})
}

type commentRequest struct {
	PostID   string `json:"postId"`
	ParentID string `json:"parentId"`
	Content  string `json:"content"`
}

func (s *Server) createComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	comment, err := s.comments.Create(c.Request.Context(), currentUser(c).ID, services.CommentInput{
		PostID:   req.PostID,
		ParentID: req.ParentID,
		Content:  req.Content,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

type commentPatchRequest struct {
	Content string `json:"content"`
}

func (s *Server) updateComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req commentPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	comment, err := s.comments.Update(c.Request.Context(), currentUser(c).ID, id, req.Content)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (s *Server) deleteComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.comments.Delete(c.Request.Context(), currentUser(c).ID, id); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

func (s *Server) likeComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	likes, err := s.comments.Like(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": likes})
}

func (s *Server) listMyComments(c *gin.Context) {
	page, limit := pageParams(c)
	result, pagination, err := s.comments.ListMine(c.Request.Context(), currentUser(c).ID, page, limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": result, "pagination": pagination})
}
