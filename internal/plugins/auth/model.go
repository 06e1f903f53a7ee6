// Package auth handles user identity for OuiSite: signup with email
// verification, local email+password login, Redis-backed sessions, and the
// one-time-token flows (verify email, reset password).
//
// This is a CORE plugin -- always enabled, cannot be disabled.
package auth

import (
	"time"
)

// User represents a registered OuiSite user. This is the domain model used
// throughout the application. Database scanning and JSON marshaling use this
// struct directly.
type User struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  *string `json:"last_name,omitempty"`

	// PasswordHash is nil for accounts created through an external identity
	// provider; those cannot use the local login strategy.
	PasswordHash *string `json:"-"` // Never expose in JSON responses.

	// EmailVerifiedAt is nil until the verification link is used. Set
	// exactly once.
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`

	// IsAdmin marks platform-level superusers who bypass tenant role checks.
	IsAdmin bool `json:"is_admin"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsVerified reports whether the user completed email verification.
func (u *User) IsVerified() bool {
	return u.EmailVerifiedAt != nil
}

// --- One-time tokens ---

// TokenType identifies the purpose of an AuthToken. A token only validates
// against the operation matching its type.
type TokenType string

const (
	// TokenTypeEmailVerification tokens confirm ownership of the signup email.
	TokenTypeEmailVerification TokenType = "email_verification"

	// TokenTypePasswordReset tokens authorize a one-time password overwrite.
	TokenTypePasswordReset TokenType = "password_reset"
)

// AuthToken is a one-time-use secret tied to a user and a purpose. Only the
// SHA-256 hash of the secret is stored; the raw value travels in the email
// link and is never persisted.
type AuthToken struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	TokenHash string     `json:"-"` // Never expose.
	Type      TokenType  `json:"type"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsValid reports whether the token is unconsumed and unexpired at now.
// Type matching is the caller's responsibility -- the same mechanism serves
// both purposes, so every lookup must also pin the expected type.
func (t *AuthToken) IsValid(now time.Time) bool {
	return t.UsedAt == nil && t.ExpiresAt.After(now)
}

// --- Session ---

// Session is the server-held principal restored on each request. The opaque
// session token is the Redis key; this struct is the JSON-encoded value.
// Nothing sensitive lives in the cookie itself beyond the opaque token.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// --- Request DTOs (bound from HTTP requests) ---

// SignupRequest holds the data submitted by the signup form.
type SignupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// LoginRequest holds the data submitted by the login form.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// EmailRequest holds a bare email, used by resend-verification and
// forgot-password.
type EmailRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest holds the raw token from the emailed link and the
// replacement password.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// --- Service Input DTOs (passed from handler to service) ---

// SignupInput is the validated input for creating a new user.
type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Credentials is the input to an authentication strategy.
type Credentials struct {
	Email    string
	Password string
}
