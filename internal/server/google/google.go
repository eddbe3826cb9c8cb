// Package google verifies Google-issued ID tokens for the sign-in flow.
package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

const issuerURL = "https://accounts.google.com"

// Payload is the identity extracted from a verified Google ID token.
type Payload struct {
	Subject       string
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
}

// IDTokenVerifier validates a raw ID token and returns the identity it
// asserts.
type IDTokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*Payload, error)
}

// Verifier checks tokens against Google's published keys, with the
// configured OAuth client ID as the required audience.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier fetches Google's OIDC discovery document and constructs a
// verifier bound to clientID.
func NewVerifier(ctx context.Context, clientID string) (*Verifier, error) {
	if clientID == "" {
		return nil, errors.New("google client id is required")
	}
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to init google oidc provider: %w", err)
	}
	return &Verifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

func (v *Verifier) Verify(ctx context.Context, rawIDToken string) (*Payload, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("google id_token verification failed: %w", err)
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("google id_token claims parse failed: %w", err)
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, errors.New("google id_token missing required claims")
	}

	return &Payload{
		Subject:       claims.Subject,
		Email:         claims.Email,
		Name:          claims.Name,
		Picture:       claims.Picture,
		EmailVerified: claims.EmailVerified,
	}, nil
}
