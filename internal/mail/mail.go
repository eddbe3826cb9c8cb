// Package mail sends transactional email through the SendGrid v3 API.
package mail

import (
	"context"
	"fmt"
	"net/url"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers messages. Implementations must not return until the
// message is accepted or delivery has definitively failed.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// VerificationMessage builds the signup OTP email.
func VerificationMessage(to, code string) Message {
	return Message{
		To:      to,
		Subject: "Email Verification - Burbly",
		Text:    fmt.Sprintf("Your verification code is: %s. This code will expire in 5 minutes.", code),
		HTML:    fmt.Sprintf("<strong>Your verification code is: %s</strong><br><p>This code will expire in 5 minutes.</p>", code),
	}
}

// PasswordResetMessage builds the password-reset email. baseURL is the
// frontend origin the reset link points at.
func PasswordResetMessage(to, token, baseURL string) Message {
	link := fmt.Sprintf("%s/reset-password?token=%s&email=%s",
		baseURL, url.QueryEscape(token), url.QueryEscape(to))
	return Message{
		To:      to,
		Subject: "Password Reset - Burbly",
		Text:    fmt.Sprintf("Click the following link to reset your password: %s. This link will expire in 15 minutes.", link),
		HTML:    fmt.Sprintf(`<p>Click the following link to reset your password:</p><a href="%s">Reset Password</a><p>This link will expire in 15 minutes.</p>`, link),
	}
}
