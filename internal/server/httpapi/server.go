// Package httpapi exposes the REST surface of the Burbly backend over
// gin: auth flows, posts, comments, users and health endpoints.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/burblyhq/burbly/internal/logging"
	"github.com/burblyhq/burbly/internal/server/models"
	"github.com/burblyhq/burbly/internal/server/services"
)

// UsersService is the slice of the users service the handlers need.
type UsersService interface {
	Signup(ctx context.Context, email string) (*services.SignupResult, error)
	VerifyOTP(ctx context.Context, email, code string) (*services.VerifyResult, error)
	SetPassword(ctx context.Context, email, password, confirm string) (string, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	GoogleSignIn(ctx context.Context, idToken string) (*services.LoginResult, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, token, password, confirm string) error
	ResolveUser(ctx context.Context, userID string) (*models.User, error)
	Me(ctx context.Context, userID string) (*services.CurrentUser, error)
	ListUsers(ctx context.Context) ([]*models.PublicUser, error)
	GetUser(ctx context.Context, id string) (*models.PublicUser, error)
	UpdateUser(ctx context.Context, actor *models.User, targetID string, params services.UpdateUserParams) (*models.PublicUser, error)
}

// PostsService is the slice of the post service the handlers need.
type PostsService interface {
	ListPublished(ctx context.Context, q services.ListQuery) ([]*models.Post, services.Pagination, error)
	GetPost(ctx context.Context, id string, viewer *models.User) (*models.Post, error)
	CreatePost(ctx context.Context, authorID string, input services.PostInput) (*models.Post, error)
	UpdatePost(ctx context.Context, actor *models.User, id string, patch services.PostPatch) (*models.Post, error)
	DeletePost(ctx context.Context, actor *models.User, id string) error
	LikePost(ctx context.Context, id string) (int64, error)
	ListMine(ctx context.Context, authorID string, page, limit int) ([]*models.Post, services.Pagination, error)
	ListByUser(ctx context.Context, authorID string, page, limit int) ([]*models.Post, services.Pagination, error)
}

// CommentsService is the slice of the comment service the handlers need.
type CommentsService interface {
	ListForPost(ctx context.Context, postID string, page, limit int) ([]*models.Comment, services.Pagination, error)
	ListReplies(ctx context.Context, commentID string, page, limit int) ([]*models.Comment, services.Pagination, error)
	Create(ctx context.Context, authorID string, input services.CommentInput) (*models.Comment, error)
	Update(ctx context.Context, actorID, id, content string) (*models.Comment, error)
	Delete(ctx context.Context, actorID, id string) error
	Like(ctx context.Context, id string) (int64, error)
	ListMine(ctx context.Context, authorID string, page, limit int) ([]*models.Comment, services.Pagination, error)
}

// Pinger reports database connectivity for the detailed health check.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server wires the services into a gin router.
type Server struct {
	users     UsersService
	posts     PostsService
	comments  CommentsService
	db        Pinger
	jwtSecret string
	logger    logging.Logger
}

// NewServer constructs a Server over the given services.
func NewServer(users UsersService, posts PostsService, comments CommentsService,
	db Pinger, jwtSecret string, logger logging.Logger) *Server {
	return &Server{
		users:     users,
		posts:     posts,
		comments:  comments,
		db:        db,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.Identify())

	api := r.Group("/api")

	api.GET("/health", s.health)
	api.GET("/health/detailed", s.healthDetailed)

	api.POST("/signup", s.signup)
	api.POST("/signup/set-password", s.setPassword)
	api.POST("/verify-otp", s.verifyOTP)
	api.POST("/login", s.login)
	api.POST("/auth/google", s.googleSignIn)
	api.POST("/password-reset/request", s.requestPasswordReset)
	api.POST("/password-reset/reset", s.resetPassword)
	api.POST("/logout", s.logout)
	api.GET("/me", s.RequireUser(), s.me)

	users := api.Group("/users", s.RequireUser())
	users.GET("", s.listUsers)
	users.GET("/:id", s.getUser)
	users.PATCH("/:id", s.updateUser)

	posts := api.Group("/posts")
	posts.GET("", s.listPosts)
	posts.GET("/user/me", s.RequireUser(), s.RequireVerified(), s.listMyPosts)
	posts.GET("/user/:userId", s.listUserPosts)
	posts.GET("/:id", s.getPost)
	posts.POST("", s.RequireUser(), s.RequireVerified(), s.createPost)
	posts.PATCH("/:id", s.RequireUser(), s.RequireVerified(), s.updatePost)
	posts.DELETE("/:id", s.RequireUser(), s.RequireVerified(), s.deletePost)
	posts.POST("/:id/like", s.RequireUser(), s.RequireVerified(), s.likePost)

	comments := api.Group("/comments")
	comments.GET("/post/:postId", s.listPostComments)
	comments.GET("/user/me", s.RequireUser(), s.RequireVerified(), s.listMyComments)
	comments.GET("/:id/replies", s.listReplies)
	comments.POST("", s.RequireUser(), s.RequireVerified(), s.createComment)
	comments.PATCH("/:id", s.RequireUser(), s.RequireVerified(), s.updateComment)
	comments.DELETE("/:id", s.RequireUser(), s.RequireVerified(), s.deleteComment)
	comments.POST("/:id/like", s.RequireUser(), s.RequireVerified(), s.likeComment)

	return r
}

// pathID validates a uuid path parameter. A false return means the
// request was already answered with 400.
func pathID(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformatted id"})
		return "", false
	}
	return id, true
}
