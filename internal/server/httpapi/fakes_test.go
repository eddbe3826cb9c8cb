package httpapi

import (
	"context"
	"fmt"

	"github.com/burblyhq/burbly/internal/common"
	"github.com/burblyhq/burbly/internal/server/models"
	"github.com/burblyhq/burbly/internal/server/services"
)

// fakeUsers is a scripted users service: handlers are exercised against
// canned results, identity resolution against an in-memory map.
type fakeUsers struct {
	byID map[string]*models.User

	signupResult *services.SignupResult
	verifyResult *services.VerifyResult
	loginResult  *services.LoginResult
	currentUser  *services.CurrentUser
	publicUsers  []*models.PublicUser
	err          error

	lastEmail string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[string]*models.User)}
}

func (f *fakeUsers) add(u *models.User) *models.User {
	f.byID[u.ID] = u
	return u
}

func (f *fakeUsers) Signup(_ context.Context, email string) (*services.SignupResult, error) {
	f.lastEmail = email
	return f.signupResult, f.err
}

func (f *fakeUsers) VerifyOTP(_ context.Context, email, _ string) (*services.VerifyResult, error) {
	f.lastEmail = email
	return f.verifyResult, f.err
}

func (f *fakeUsers) SetPassword(_ context.Context, email, _, _ string) (string, error) {
	f.lastEmail = email
	if f.err != nil {
		return "", f.err
	}
	return "u-1", nil
}

func (f *fakeUsers) Login(_ context.Context, email, _ string) (*services.LoginResult, error) {
	f.lastEmail = email
	return f.loginResult, f.err
}

func (f *fakeUsers) GoogleSignIn(context.Context, string) (*services.LoginResult, error) {
	return f.loginResult, f.err
}

func (f *fakeUsers) RequestPasswordReset(_ context.Context, email string) error {
	f.lastEmail = email
	return f.err
}

func (f *fakeUsers) ResetPassword(context.Context, string, string, string, string) error {
	return f.err
}

func (f *fakeUsers) ResolveUser(_ context.Context, userID string) (*models.User, error) {
	user, ok := f.byID[userID]
	if !ok {
		return nil, fmt.Errorf("%w: invalid user", common.ErrorUnauthorized)
	}
	return user, nil
}

func (f *fakeUsers) Me(context.Context, string) (*services.CurrentUser, error) {
	return f.currentUser, f.err
}

func (f *fakeUsers) ListUsers(context.Context) ([]*models.PublicUser, error) {
	return f.publicUsers, f.err
}

func (f *fakeUsers) GetUser(context.Context, string) (*models.PublicUser, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.publicUsers) == 0 {
		return nil, fmt.Errorf("%w: user not found", common.ErrorNotFound)
	}
	return f.publicUsers[0], nil
}

func (f *fakeUsers) UpdateUser(_ context.Context, actor *models.User, targetID string,
	_ services.UpdateUserParams) (*models.PublicUser, error) {
	if f.err != nil {
		return nil, f.err
	}
	if actor.ID != targetID && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: access denied", common.ErrorForbidden)
	}
	if len(f.publicUsers) == 0 {
		return nil, fmt.Errorf("%w: user not found", common.ErrorNotFound)
	}
	return f.publicUsers[0], nil
}

// fakePosts records the arguments of the last call alongside canned
// results.
type fakePosts struct {
	post       *models.Post
	list       []*models.Post
	pagination services.Pagination
	likes      int64
	err        error

	lastQuery  services.ListQuery
	lastViewer *models.User
	lastAuthor string
	lastInput  services.PostInput
	lastPatch  services.PostPatch
	lastID     string
}

func (f *fakePosts) ListPublished(_ context.Context, q services.ListQuery) ([]*models.Post, services.Pagination, error) {
	f.lastQuery = q
	return f.list, f.pagination, f.err
}

func (f *fakePosts) GetPost(_ context.Context, id string, viewer *models.User) (*models.Post, error) {
	f.lastID, f.lastViewer = id, viewer
	return f.post, f.err
}

func (f *fakePosts) CreatePost(_ context.Context, authorID string, input services.PostInput) (*models.Post, error) {
	f.lastAuthor, f.lastInput = authorID, input
	return f.post, f.err
}

func (f *fakePosts) UpdatePost(_ context.Context, actor *models.User, id string, patch services.PostPatch) (*models.Post, error) {
	f.lastViewer, f.lastID, f.lastPatch = actor, id, patch
	return f.post, f.err
}

func (f *fakePosts) DeletePost(_ context.Context, actor *models.User, id string) error {
	f.lastViewer, f.lastID = actor, id
	return f.err
}

func (f *fakePosts) LikePost(_ context.Context, id string) (int64, error) {
	f.lastID = id
	return f.likes, f.err
}

func (f *fakePosts) ListMine(_ context.Context, authorID string, page, limit int) ([]*models.Post, services.Pagination, error) {
	f.lastAuthor = authorID
	f.lastQuery = services.ListQuery{Page: page, Limit: limit}
	return f.list, f.pagination, f.err
}

func (f *fakePosts) ListByUser(_ context.Context, authorID string, page, limit int) ([]*models.Post, services.Pagination, error) {
	f.lastAuthor = authorID
	f.lastQuery = services.ListQuery{Page: page, Limit: limit}
	return f.list, f.pagination, f.err
}

type fakeComments struct {
	comment    *models.Comment
	list       []*models.Comment
	pagination services.Pagination
	likes      int64
	err        error

	lastActor string
	lastID    string
	lastInput services.CommentInput
}

func (f *fakeComments) ListForPost(_ context.Context, postID string, _, _ int) ([]*models.Comment, services.Pagination, error) {
	f.lastID = postID
	return f.list, f.pagination, f.err
}

func (f *fakeComments) ListReplies(_ context.Context, commentID string, _, _ int) ([]*models.Comment, services.Pagination, error) {
	f.lastID = commentID
	return f.list, f.pagination, f.err
}

func (f *fakeComments) Create(_ context.Context, authorID string, input services.CommentInput) (*models.Comment, error) {
	f.lastActor, f.lastInput = authorID, input
	return f.comment, f.err
}

func (f *fakeComments) Update(_ context.Context, actorID, id, _ string) (*models.Comment, error) {
	f.lastActor, f.lastID = actorID, id
	return f.comment, f.err
}

func (f *fakeComments) Delete(_ context.Context, actorID, id string) error {
	f.lastActor, f.lastID = actorID, id
	return f.err
}

func (f *fakeComments) Like(_ context.Context, id string) (int64, error) {
	f.lastID = id
	return f.likes, f.err
}

func (f *fakeComments) ListMine(_ context.Context, authorID string, _, _ int) ([]*models.Comment, services.Pagination, error) {
	f.lastActor = authorID
	return f.list, f.pagination, f.err
}

type fakePinger struct {
	err error
}

func (f *fakePinger) PingContext(context.Context) error { return f.err }
