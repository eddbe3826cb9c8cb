// Package services contains server-side business logic. This file implements
// UserService: signup with email verification, password management, login,
// Google sign-in, and the user-facing account operations.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/burblyhq/burbly/internal/common"
	"github.com/burblyhq/burbly/internal/dbx"
	"github.com/burblyhq/burbly/internal/mail"
	"github.com/burblyhq/burbly/internal/server/auth"
	"github.com/burblyhq/burbly/internal/server/config"
	"github.com/burblyhq/burbly/internal/server/google"
	"github.com/burblyhq/burbly/internal/server/models"
	"github.com/burblyhq/burbly/internal/server/repositories/repomanager"
	"github.com/burblyhq/burbly/internal/server/repositories/users"
)

const resetTokenBytes = 32

// SignupResult reports the outcome of a signup request.
type SignupResult struct {
	UserID      string
	RequiresOTP bool
}

// VerifyResult reports the outcome of OTP verification.
type VerifyResult struct {
	UserID           string
	Email            string
	RequiresPassword bool
}

// LoginResult bundles a signed token with the public user projection.
type LoginResult struct {
	Token string
	User  *models.PublicUser
}

// CurrentUser is the /me projection: the public user plus timestamps and
// linked identity providers.
type CurrentUser struct {
	User      *models.PublicUser
	CreatedAt time.Time
	UpdatedAt time.Time
	Accounts  []*models.Account
}

// UpdateUserParams carries the mutable user fields for the PATCH
// operation; nil fields are left untouched. Password is hashed before it
// reaches the store.
type UpdateUserParams struct {
	Email          *string
	ProfilePicture *string
	Role           *string
	Password       *string
}

// UserService implements the account lifecycle: OTP signup, verification,
// password set/login/reset, and Google sign-in.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sender      mail.Sender
	verifier    google.IDTokenVerifier

	jwtSecret      []byte
	accessTokenTTL time.Duration
	googleTokenTTL time.Duration
	otpTTL         time.Duration
	resetTokenTTL  time.Duration
	frontendURL    string
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, sender mail.Sender,
	verifier google.IDTokenVerifier, cfg *config.Config) *UserService {
	return &UserService{
		db:             db,
		repomanager:    m,
		sender:         sender,
		verifier:       verifier,
		jwtSecret:      []byte(cfg.SecretKey),
		accessTokenTTL: cfg.AccessTokenValidityDuration,
		googleTokenTTL: cfg.GoogleTokenValidityDuration,
		otpTTL:         cfg.OTPValidityDuration,
		resetTokenTTL:  cfg.ResetTokenValidityDuration,
		frontendURL:    cfg.FrontendBaseURL,
	}
}

// Signup registers email for verification. A verified account is a
// conflict; an unverified one is reused with a fresh code. The
// verification mail is awaited: delivery failure fails the call.
func (s *UserService) Signup(ctx context.Context, email string) (*SignupResult, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", common.ErrorValidation)
	}

	// Upsert-returning resolves two racing signups to the same row.
	user, err := s.repomanager.Users(s.db).CreateUnverified(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %v", err)
	}
	if user.IsVerified {
		return nil, fmt.Errorf("%w: email already registered and verified", common.ErrorConflict)
	}

	code, err := common.MakeOTPCode()
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.repomanager.OTPs(s.db).Upsert(ctx, user.ID, code, s.otpTTL); err != nil {
		return nil, fmt.Errorf("error storing otp: %v", err)
	}

	if err := s.sender.Send(ctx, mail.VerificationMessage(email, code)); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorMailDelivery, err)
	}
	return &SignupResult{UserID: user.ID, RequiresOTP: true}, nil
}

// VerifyOTP checks the emailed code and, on success, marks the user
// verified and consumes every outstanding code for the account.
func (s *UserService) VerifyOTP(ctx context.Context, email, code string) (*VerifyResult, error) {
	if email == "" || code == "" {
		return nil, fmt.Errorf("%w: otp and email are required", common.ErrorValidation)
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil || user.IsVerified {
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInternal
		}
		return nil, fmt.Errorf("%w: user not found or already verified", common.ErrorNotFound)
	}

	otp, err := s.repomanager.OTPs(s.db).Find(ctx, user.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: invalid otp", common.ErrorValidation)
		}
		return nil, common.ErrorInternal
	}
	if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(code)) != 1 {
		return nil, fmt.Errorf("%w: invalid otp", common.ErrorValidation)
	}
	if otp.ExpiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("%w: please sign up again to get a new code", common.ErrOTPExpired)
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).SetVerified(ctx, user.ID); err != nil {
			return err
		}
		return s.repomanager.OTPs(tx).DeleteAllForUser(ctx, user.ID)
	}); err != nil {
		return nil, fmt.Errorf("error verifying user: %v", err)
	}

	return &VerifyResult{
		UserID:           user.ID,
		Email:            user.Email,
		RequiresPassword: user.PasswordHash == nil,
	}, nil
}

func validateNewPassword(password, confirm string) error {
	if password == "" || confirm == "" {
		return fmt.Errorf("%w: password and confirm password are required", common.ErrorValidation)
	}
	if password != confirm {
		return fmt.Errorf("%w: passwords do not match", common.ErrorValidation)
	}
	if len(password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters long", common.ErrorValidation)
	}
	return nil
}

// SetPassword establishes the first password of a verified account.
func (s *UserService) SetPassword(ctx context.Context, email, password, confirm string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("%w: email is required", common.ErrorValidation)
	}
	if err := validateNewPassword(password, confirm); err != nil {
		return "", err
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil || !user.IsVerified {
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorInternal
		}
		return "", fmt.Errorf("%w: user not found or not verified", common.ErrorNotFound)
	}
	if user.PasswordHash != nil {
		return "", fmt.Errorf("%w: password already set for this account", common.ErrorConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", common.ErrorInternal
	}
	if err := s.repomanager.Users(s.db).SetPasswordHash(ctx, user.ID, string(hash)); err != nil {
		return "", fmt.Errorf("error setting password: %v", err)
	}
	return user.ID, nil
}

// Login verifies credentials and issues a short-lived token. Unknown
// email and wrong password produce the same message.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrorValidation)
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: email or password incorrect", common.ErrorUnauthorized)
		}
		return nil, common.ErrorInternal
	}
	if !user.IsVerified {
		return nil, fmt.Errorf("%w: please verify your email before logging in", common.ErrorForbidden)
	}
	if user.PasswordHash == nil {
		return nil, fmt.Errorf("%w: this account was created with Google, please use Google login instead", common.ErrorValidation)
	}
	if bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)) != nil {
		return nil, fmt.Errorf("%w: email or password incorrect", common.ErrorUnauthorized)
	}

	token, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.accessTokenTTL)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &LoginResult{Token: token, User: user.Public()}, nil
}

// GoogleSignIn verifies a Google ID token and signs the holder in,
// creating a pre-verified account or linking the Google identity to an
// existing one. Correlation is by email.
func (s *UserService) GoogleSignIn(ctx context.Context, idToken string) (*LoginResult, error) {
	if idToken == "" {
		return nil, fmt.Errorf("%w: no id token provided", common.ErrorValidation)
	}
	if s.verifier == nil {
		return nil, fmt.Errorf("%w: google sign-in is not configured", common.ErrorValidation)
	}

	payload, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid google token", common.ErrorUnauthorized)
	}

	var user *models.User
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var picture *string
		if payload.Picture != "" {
			picture = &payload.Picture
		}
		var txErr error
		user, txErr = s.repomanager.Users(tx).CreateVerified(ctx, payload.Email, picture)
		if txErr != nil {
			return txErr
		}
		return s.repomanager.Accounts(tx).Link(ctx, user.ID, "google", payload.Subject)
	}); err != nil {
		return nil, fmt.Errorf("error during google sign-in: %v", err)
	}

	token, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.googleTokenTTL)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &LoginResult{Token: token, User: user.Public()}, nil
}

// RequestPasswordReset stores a fresh single-use token and emails the
// reset link. Only verified, active accounts with a password qualify.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", common.ErrorValidation)
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: user not found", common.ErrorNotFound)
		}
		return common.ErrorInternal
	}
	if !user.IsVerified {
		return fmt.Errorf("%w: please verify your email before resetting password", common.ErrorValidation)
	}
	if user.PasswordHash == nil {
		return fmt.Errorf("%w: this account was created with Google, please use Google login instead", common.ErrorValidation)
	}
	if !user.IsActive {
		return fmt.Errorf("%w: account is deactivated", common.ErrorForbidden)
	}

	token, err := common.MakeRandHexString(resetTokenBytes)
	if err != nil {
		return common.ErrorInternal
	}
	if err := s.repomanager.ResetTokens(s.db).Upsert(ctx, email, token, s.resetTokenTTL); err != nil {
		return fmt.Errorf("error storing reset token: %v", err)
	}

	if err := s.sender.Send(ctx, mail.PasswordResetMessage(email, token, s.frontendURL)); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorMailDelivery, err)
	}
	return nil
}

// ResetPassword validates the emailed token and replaces the password.
// The token is single-use: it is deleted in the same transaction.
func (s *UserService) ResetPassword(ctx context.Context, email, token, password, confirm string) error {
	if email == "" || token == "" {
		return fmt.Errorf("%w: email and token are required", common.ErrorValidation)
	}
	if err := validateNewPassword(password, confirm); err != nil {
		return err
	}

	stored, err := s.repomanager.ResetTokens(s.db).Find(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: invalid reset token", common.ErrorValidation)
		}
		return common.ErrorInternal
	}
	if subtle.ConstantTimeCompare([]byte(stored.Token), []byte(token)) != 1 {
		return fmt.Errorf("%w: invalid reset token", common.ErrorValidation)
	}
	if stored.ExpiresAt.Before(time.Now()) {
		return fmt.Errorf("%w: reset token has expired", common.ErrResetTokenExpired)
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: user not found", common.ErrorNotFound)
		}
		return common.ErrorInternal
	}
	if !user.IsActive {
		return fmt.Errorf("%w: account is deactivated", common.ErrorForbidden)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return common.ErrorInternal
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).SetPasswordHash(ctx, user.ID, string(hash)); err != nil {
			return err
		}
		return s.repomanager.ResetTokens(tx).Delete(ctx, email)
	}); err != nil {
		return fmt.Errorf("error resetting password: %v", err)
	}
	return nil
}

// ResolveUser loads the full user record backing a token's claims. Used
// by request middleware; identity always comes from the store, not the
// token.
func (s *UserService) ResolveUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: invalid user", common.ErrorUnauthorized)
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}

// Me returns the current user with linked provider accounts. Deactivated
// accounts are rejected.
func (s *UserService) Me(ctx context.Context, userID string) (*CurrentUser, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: user not found", common.ErrorNotFound)
		}
		return nil, common.ErrorInternal
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is deactivated", common.ErrorForbidden)
	}

	accounts, err := s.repomanager.Accounts(s.db).ListForUser(ctx, userID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &CurrentUser{
		User:      user.Public(),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
		Accounts:  accounts,
	}, nil
}

// ListUsers returns the public projection of every user.
func (s *UserService) ListUsers(ctx context.Context) ([]*models.PublicUser, error) {
	users, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, common.ErrorInternal
	}
	result := make([]*models.PublicUser, 0, len(users))
	for _, u := range users {
		result = append(result, u.Public())
	}
	return result, nil
}

// GetUser returns one user's public projection.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.PublicUser, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: user not found", common.ErrorNotFound)
		}
		return nil, common.ErrorInternal
	}
	return user.Public(), nil
}

func userUpdateParams(p UpdateUserParams) users.UpdateParams {
	return users.UpdateParams{
		Email:          p.Email,
		ProfilePicture: p.ProfilePicture,
		Role:           p.Role,
	}
}

// UpdateUser applies a partial update to the target account. Only the
// account owner or an admin may update.
func (s *UserService) UpdateUser(ctx context.Context, actor *models.User, targetID string, params UpdateUserParams) (*models.PublicUser, error) {
	if actor.ID != targetID && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: access denied", common.ErrorForbidden)
	}

	repoParams := userUpdateParams(params)
	if params.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*params.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, common.ErrorInternal
		}
		h := string(hash)
		repoParams.PasswordHash = &h
	}

	user, err := s.repomanager.Users(s.db).Update(ctx, targetID, repoParams)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorValidation):
			return nil, fmt.Errorf("%w: no valid fields to update", common.ErrorValidation)
		case errors.Is(err, common.ErrorNotFound):
			return nil, fmt.Errorf("%w: user not found", common.ErrorNotFound)
		}
		return nil, common.ErrorInternal
	}
	return user.Public(), nil
}
