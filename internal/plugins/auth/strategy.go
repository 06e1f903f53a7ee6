package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/ouisite/ouisite/internal/apperror"
)

// Strategy verifies credentials and returns the authenticated user. The
// session layer and the guards depend on this interface, not on the local
// implementation, so alternate strategies (OAuth, SSO) can be added without
// touching either.
type Strategy interface {
	Authenticate(ctx context.Context, creds Credentials) (*User, error)
}

// localStrategy authenticates against the credential store with argon2id
// password verification.
type localStrategy struct {
	users UserRepository
}

// NewLocalStrategy creates the email+password strategy.
func NewLocalStrategy(users UserRepository) Strategy {
	return &localStrategy{users: users}
}

// Authenticate runs the login state machine. Unknown email, password-less
// account, and wrong password all collapse into the same generic rejection
// so responses never reveal whether an email is registered. An unverified
// account with the correct password is the one deliberate exception: the
// caller already proved password knowledge, and the client needs the
// distinct signal to offer "resend verification".
func (s *localStrategy) Authenticate(ctx context.Context, creds Credentials) (*User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(creds.Email))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid email or password")
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	// External-identity accounts have no local password to check.
	if user.PasswordHash == nil {
		return nil, apperror.NewUnauthorized("invalid email or password")
	}

	if !verifyPassword(creds.Password, *user.PasswordHash) {
		return nil, apperror.NewUnauthorized("invalid email or password")
	}

	if !user.IsVerified() {
		return nil, apperror.NewForbidden("account not verified").
			WithReason(apperror.ReasonEmailUnverified)
	}

	return user, nil
}

// normalizeEmail lowercases and trims an email for case-insensitive compare.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
