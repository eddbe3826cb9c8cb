package models

import "time"

// Roles assignable to a user.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the local identity record. PasswordHash is nil until the user
// sets a password; OAuth-only accounts never have one.
type User struct {
	ID             string
	Email          string
	PasswordHash   *string
	IsVerified     bool
	IsActive       bool
	Role           string
	ProfilePicture *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PublicUser is the projection returned to clients. It never carries the
// password hash.
type PublicUser struct {
	ID             string  `json:"id"`
	Email          string  `json:"email"`
	ProfilePicture *string `json:"profilePicture"`
	Role           string  `json:"role"`
	IsVerified     bool    `json:"isVerified"`
	IsActive       bool    `json:"isActive,omitempty"`
}

// Public returns the client-facing projection of u.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:             u.ID,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
		Role:           u.Role,
		IsVerified:     u.IsVerified,
		IsActive:       u.IsActive,
	}
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
