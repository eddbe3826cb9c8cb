package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/burblyhq/burbly/internal/common"
	"github.com/burblyhq/burbly/internal/dbx"
	"github.com/burblyhq/burbly/internal/mail"
	"github.com/burblyhq/burbly/internal/server/google"
	"github.com/burblyhq/burbly/internal/server/models"
	accountsrepo "github.com/burblyhq/burbly/internal/server/repositories/accounts"
	commentsrepo "github.com/burblyhq/burbly/internal/server/repositories/comments"
	otpsrepo "github.com/burblyhq/burbly/internal/server/repositories/otps"
	postsrepo "github.com/burblyhq/burbly/internal/server/repositories/posts"
	resettokensrepo "github.com/burblyhq/burbly/internal/server/repositories/resettokens"
	usersrepo "github.com/burblyhq/burbly/internal/server/repositories/users"
)

// --- in-memory fakes ---

type fakeUsersRepo struct {
	mu     sync.Mutex
	users  map[string]*models.User
	nextID int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: map[string]*models.User{}}
}

func (f *fakeUsersRepo) add(u *models.User) *models.User {
	f.nextID++
	u.ID = fmt.Sprintf("u-%d", f.nextID)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	f.users[u.ID] = u
	return u
}

func (f *fakeUsersRepo) findByEmail(email string) *models.User {
	for _, u := range f.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (f *fakeUsersRepo) CreateUnverified(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u := f.findByEmail(email); u != nil {
		return u, nil
	}
	return f.add(&models.User{Email: email, IsActive: true, Role: models.RoleUser}), nil
}

func (f *fakeUsersRepo) CreateVerified(ctx context.Context, email string, profilePicture *string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u := f.findByEmail(email); u != nil {
		u.IsVerified = true
		return u, nil
	}
	return f.add(&models.User{Email: email, IsVerified: true, IsActive: true,
		Role: models.RoleUser, ProfilePicture: profilePicture}), nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u := f.findByEmail(email); u != nil {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) List(ctx context.Context) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]*models.User, 0, len(f.users))
	for _, u := range f.users {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakeUsersRepo) SetVerified(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.IsVerified = true
	}
	return nil
}

func (f *fakeUsersRepo) SetPasswordHash(ctx context.Context, id string, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		u.PasswordHash = &hash
	}
	return nil
}

func (f *fakeUsersRepo) Update(ctx context.Context, id string, params usersrepo.UpdateParams) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if params.Email == nil && params.ProfilePicture == nil && params.Role == nil && params.PasswordHash == nil {
		return nil, fmt.Errorf("%w: no fields to update", common.ErrorValidation)
	}
	if params.Email != nil {
		u.Email = *params.Email
	}
	if params.ProfilePicture != nil {
		u.ProfilePicture = params.ProfilePicture
	}
	if params.Role != nil {
		u.Role = *params.Role
	}
	if params.PasswordHash != nil {
		u.PasswordHash = params.PasswordHash
	}
	return u, nil
}

type fakeOTPsRepo struct {
	mu   sync.Mutex
	otps map[string]*models.OTP
}

func newFakeOTPsRepo() *fakeOTPsRepo { return &fakeOTPsRepo{otps: map[string]*models.OTP{}} }

func (f *fakeOTPsRepo) Upsert(ctx context.Context, userID, code string, validity time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.otps[userID] = &models.OTP{UserID: userID, Code: code, ExpiresAt: time.Now().Add(validity)}
	return nil
}

func (f *fakeOTPsRepo) Find(ctx context.Context, userID string) (*models.OTP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if otp, ok := f.otps[userID]; ok {
		return otp, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeOTPsRepo) DeleteAllForUser(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.otps, userID)
	return nil
}

type fakeResetTokensRepo struct {
	mu     sync.Mutex
	tokens map[string]*models.ResetToken
}

func newFakeResetTokensRepo() *fakeResetTokensRepo {
	return &fakeResetTokensRepo{tokens: map[string]*models.ResetToken{}}
}

func (f *fakeResetTokensRepo) Upsert(ctx context.Context, identifier, token string, validity time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[identifier] = &models.ResetToken{
		Identifier: identifier, Token: token, ExpiresAt: time.Now().Add(validity),
	}
	return nil
}

func (f *fakeResetTokensRepo) Find(ctx context.Context, identifier string) (*models.ResetToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tokens[identifier]; ok {
		return t, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeResetTokensRepo) Delete(ctx context.Context, identifier string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, identifier)
	return nil
}

type fakeAccountsRepo struct {
	mu       sync.Mutex
	accounts []*models.Account
}

func newFakeAccountsRepo() *fakeAccountsRepo { return &fakeAccountsRepo{} }

func (f *fakeAccountsRepo) Link(ctx context.Context, userID, provider, providerAccountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Provider == provider && a.ProviderAccountID == providerAccountID {
			return nil
		}
	}
	f.accounts = append(f.accounts, &models.Account{
		ID: fmt.Sprintf("a-%d", len(f.accounts)+1), UserID: userID,
		Provider: provider, ProviderAccountID: providerAccountID, CreatedAt: time.Now(),
	})
	return nil
}

func (f *fakeAccountsRepo) ListForUser(ctx context.Context, userID string) ([]*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.Account
	for _, a := range f.accounts {
		if a.UserID == userID {
			result = append(result, a)
		}
	}
	return result, nil
}

type fakePostsRepo struct {
	mu        sync.Mutex
	posts     map[string]*models.Post
	nextID    int
	listCalls int
}

func newFakePostsRepo() *fakePostsRepo { return &fakePostsRepo{posts: map[string]*models.Post{}} }

func (f *fakePostsRepo) seed(p *models.Post) *models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = fmt.Sprintf("p-%d", f.nextID)
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	f.posts[p.ID] = p
	return p
}

func (f *fakePostsRepo) List(ctx context.Context, filter postsrepo.ListFilter) ([]*models.Post, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	var matched []*models.Post
	for _, p := range f.posts {
		if filter.OnlyPublished && !p.IsPublished {
			continue
		}
		if filter.AuthorID != "" && p.AuthorID != filter.AuthorID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(filter.Search)) &&
			!strings.Contains(strings.ToLower(p.Content), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Tag != "" && !strings.Contains(p.Tags, filter.Tag) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f *fakePostsRepo) Get(ctx context.Context, id string) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.posts[id]; ok {
		return p, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakePostsRepo) Create(ctx context.Context, params postsrepo.CreateParams) (*models.Post, error) {
	return f.seed(&models.Post{
		AuthorID:    params.AuthorID,
		Title:       params.Title,
		Content:     params.Content,
		Tags:        params.Tags,
		IsPublished: params.IsPublished,
	}), nil
}

func (f *fakePostsRepo) Update(ctx context.Context, id string, params postsrepo.UpdateParams) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if params.Title == nil && params.Content == nil && params.Tags == nil && params.IsPublished == nil {
		return nil, fmt.Errorf("%w: no fields to update", common.ErrorValidation)
	}
	if params.Title != nil {
		p.Title = *params.Title
	}
	if params.Content != nil {
		p.Content = *params.Content
	}
	if params.Tags != nil {
		p.Tags = *params.Tags
	}
	if params.IsPublished != nil {
		p.IsPublished = *params.IsPublished
	}
	return p, nil
}

func (f *fakePostsRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.posts, id)
	return nil
}

func (f *fakePostsRepo) IncrementViews(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.posts[id]; ok {
		p.Views++
	}
	return nil
}

func (f *fakePostsRepo) IncrementLikes(ctx context.Context, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	p.Likes++
	return p.Likes, nil
}

type fakeCommentsRepo struct {
	mu       sync.Mutex
	comments map[string]*models.Comment
	nextID   int
}

func newFakeCommentsRepo() *fakeCommentsRepo {
	return &fakeCommentsRepo{comments: map[string]*models.Comment{}}
}

func (f *fakeCommentsRepo) seed(c *models.Comment) *models.Comment {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = fmt.Sprintf("c-%d", f.nextID)
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	f.comments[c.ID] = c
	return c
}

func (f *fakeCommentsRepo) list(match func(*models.Comment) bool, page commentsrepo.Page) ([]*models.Comment, int64) {
	var matched []*models.Comment
	for _, c := range f.comments {
		if match(c) {
			matched = append(matched, c)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := int64(len(matched))
	start := (page.Page - 1) * page.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total
}

func (f *fakeCommentsRepo) ListForPost(ctx context.Context, postID string, page commentsrepo.Page) ([]*models.Comment, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result, total := f.list(func(c *models.Comment) bool {
		return c.PostID == postID && c.ParentID == nil
	}, page)
	return result, total, nil
}

func (f *fakeCommentsRepo) ListReplies(ctx context.Context, parentID string, page commentsrepo.Page) ([]*models.Comment, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result, total := f.list(func(c *models.Comment) bool {
		return c.ParentID != nil && *c.ParentID == parentID
	}, page)
	return result, total, nil
}

func (f *fakeCommentsRepo) ListForAuthor(ctx context.Context, authorID string, page commentsrepo.Page) ([]*models.Comment, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result, total := f.list(func(c *models.Comment) bool {
		return c.AuthorID == authorID
	}, page)
	return result, total, nil
}

func (f *fakeCommentsRepo) Get(ctx context.Context, id string) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.comments[id]; ok {
		return c, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeCommentsRepo) Create(ctx context.Context, params commentsrepo.CreateParams) (*models.Comment, error) {
	return f.seed(&models.Comment{
		PostID:   params.PostID,
		AuthorID: params.AuthorID,
		ParentID: params.ParentID,
		Content:  params.Content,
	}), nil
}

func (f *fakeCommentsRepo) Update(ctx context.Context, id string, content string) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c.Content = content
	return c, nil
}

func (f *fakeCommentsRepo) DeleteWithReplies(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.comments[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.comments, id)
	for cid, c := range f.comments {
		if c.ParentID != nil && *c.ParentID == id {
			delete(f.comments, cid)
		}
	}
	return nil
}

func (f *fakeCommentsRepo) IncrementLikes(ctx context.Context, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	c.Likes++
	return c.Likes, nil
}

type fakeRepoManager struct {
	users       *fakeUsersRepo
	otps        *fakeOTPsRepo
	resetTokens *fakeResetTokensRepo
	accounts    *fakeAccountsRepo
	posts       *fakePostsRepo
	comments    *fakeCommentsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:       newFakeUsersRepo(),
		otps:        newFakeOTPsRepo(),
		resetTokens: newFakeResetTokensRepo(),
		accounts:    newFakeAccountsRepo(),
		posts:       newFakePostsRepo(),
		comments:    newFakeCommentsRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error        { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository              { return m.users }
func (m *fakeRepoManager) OTPs(db dbx.DBTX) otpsrepo.Repository                { return m.otps }
func (m *fakeRepoManager) ResetTokens(db dbx.DBTX) resettokensrepo.Repository  { return m.resetTokens }
func (m *fakeRepoManager) Accounts(db dbx.DBTX) accountsrepo.Repository        { return m.accounts }
func (m *fakeRepoManager) Posts(db dbx.DBTX) postsrepo.Repository              { return m.posts }
func (m *fakeRepoManager) Comments(db dbx.DBTX) commentsrepo.Repository        { return m.comments }

// --- side-effect fakes ---

type fakeSender struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) last() *mail.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return &f.sent[len(f.sent)-1]
}

type fakeVerifier struct {
	payload *google.Payload
	err     error
}

func (f *fakeVerifier) Verify(ctx context.Context, rawIDToken string) (*google.Payload, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

type fakeCache struct {
	mu     sync.Mutex
	values map[string][]byte
}

func newFakeCache() *fakeCache { return &fakeCache{values: map[string][]byte{}} }

func (f *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}
