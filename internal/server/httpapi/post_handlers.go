package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/burblyhq/burbly/internal/server/services"
)

// pageParams reads the page/limit query parameters; zero means "use the
// service default".
func pageParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.Query("page"))
	limit, _ = strconv.Atoi(c.Query("limit"))
	return page, limit
}

func (s *Server) listPosts(c *gin.Context) {
	page, limit := pageParams(c)
	result, pagination, err := s.posts.ListPublished(c.Request.Context(), services.ListQuery{
		Search:   c.Query("search"),
		Tag:      c.Query("tag"),
		AuthorID: c.Query("authorId"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": result, "pagination": pagination})
}

func (s *Server) getPost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	post, err := s.posts.GetPost(c.Request.Context(), id, s.optionalUser(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

type postRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Tags        string `json:"tags"`
	IsPublished bool   `json:"isPublished"`
}

func (s *Server) createPost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	post, err := s.posts.CreatePost(c.Request.Context(), currentUser(c).ID, services.PostInput{
		Title:       req.Title,
		Content:     req.Content,
		Tags:        req.Tags,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

type postPatchRequest struct {
	Title       *string `json:"title"`
	Content     *string `json:"content"`
	Tags        *string `json:"tags"`
	IsPublished *bool   `json:"isPublished"`
}

func (s *Server) updatePost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req postPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	post, err := s.posts.UpdatePost(c.Request.Context(), currentUser(c), id, services.PostPatch{
		Title:       req.Title,
		Content:     req.Content,
		Tags:        req.Tags,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) deletePost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.posts.DeletePost(c.Request.Context(), currentUser(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

func (s *Server) likePost(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	likes, err := s.posts.LikePost(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": likes})
}

func (s *Server) listMyPosts(c *gin.Context) {
	page, limit := pageParams(c)
	result, pagination, err := s.posts.ListMine(c.Request.Context(), currentUser(c).ID, page, limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": result, "pagination": pagination})
}

func (s *Server) listUserPosts(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	page, limit := pageParams(c)
	result, pagination, err := s.posts.ListByUser(c.Request.Context(), userID, page, limit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": result, "pagination": pagination})
}
