package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/burblyhq/burbly/internal/server/models"
)

type signupRequest struct {
	Email string `json:"email"`
}

func (s *Server) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := s.users.Signup(c.Request.Context(), req.Email)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":          result.UserID,
		"message":     "Verification email sent. Please verify your email with /verify-otp",
		"requiresOtp": result.RequiresOTP,
	})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (s *Server) verifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := s.users.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":          "Email successfully verified! You can now set your password.",
		"userId":           result.UserID,
		"email":            result.Email,
		"requiresPassword": result.RequiresPassword,
	})
}

type setPasswordRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (s *Server) setPassword(c *gin.Context) {
	var req setPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	userID, err := s.users.SetPassword(c.Request.Context(), req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Password set successfully. You can now login with email and password.",
		"userId":  userID,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": result.Token, "user": result.User})
}

type googleSignInRequest struct {
	IDToken string `json:"idToken"`
}

func (s *Server) googleSignIn(c *gin.Context) {
	var req googleSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.IDToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no ID token provided"})
		return
	}

	result, err := s.users.GoogleSignIn(c.Request.Context(), req.IDToken)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": result.Token, "user": result.User})
}

type resetRequestRequest struct {
	Email string `json:"email"`
}

func (s *Server) requestPasswordReset(c *gin.Context) {
	var req resetRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := s.users.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset email sent. Please check your email."})
}

type resetPasswordRequest struct {
	Email           string `json:"email"`
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (s *Server) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err := s.users.ResetPassword(c.Request.Context(), req.Email, req.Token, req.Password, req.ConfirmPassword)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully. You can now login with your new password."})
}

// logout clears the legacy session cookie. Bearer tokens are stateless;
// the client just drops its copy.
func (s *Server) logout(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// meResponse flattens the public projection with account metadata.
type meResponse struct {
	*models.PublicUser
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Accounts  []*models.Account `json:"accounts"`
}

func (s *Server) me(c *gin.Context) {
	user := currentUser(c)

	current, err := s.users.Me(c.Request.Context(), user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": meResponse{
		PublicUser: current.User,
		CreatedAt:  current.CreatedAt,
		UpdatedAt:  current.UpdatedAt,
		Accounts:   current.Accounts,
	}})
}
