package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/burblyhq/burbly/internal/server/services"
)

func (s *Server) listUsers(c *gin.Context) {
	result, err := s.users.ListUsers(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) getUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := s.users.GetUser(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type userPatchRequest struct {
	Email          *string `json:"email"`
	ProfilePicture *string `json:"profilePicture"`
	Role           *string `json:"role"`
	Password       *string `json:"password"`
}

func (s *Server) updateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req userPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := s.users.UpdateUser(c.Request.Context(), currentUser(c), id, services.UpdateUserParams{
		Email:          req.Email,
		ProfilePicture: req.ProfilePicture,
		Role:           req.Role,
		Password:       req.Password,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
