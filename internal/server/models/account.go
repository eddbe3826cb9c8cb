package models

import "time"

// Account links a local user to an external identity provider subject.
// (Provider, ProviderAccountID) identifies at most one user; a user may
// hold one account per provider.
type Account struct {
	ID                string    `json:"id,omitempty"`
	UserID            string    `json:"-"`
	Provider          string    `json:"provider"`
	ProviderAccountID string    `json:"providerAccountId"`
	CreatedAt         time.Time `json:"-"`
}
