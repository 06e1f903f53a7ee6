package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ouisite/ouisite/internal/apperror"
	"github.com/ouisite/ouisite/internal/mailer"
)

// mailTimeout bounds the outbound email call. Dispatch is fire-and-forget
// relative to the HTTP response, so this only affects how soon a hung
// provider shows up in the logs.
const mailTimeout = 15 * time.Second

// invalidLinkMessage is the single message for every token failure mode.
// Expired, consumed, wrong-type, and unknown tokens are deliberately
// indistinguishable to the caller.
const invalidLinkMessage = "invalid or expired link"

// AuthService defines the business logic contract for authentication.
// Handlers call these methods -- they never touch the repositories directly.
type AuthService interface {
	Signup(ctx context.Context, input SignupInput) (*User, error)
	Login(ctx context.Context, creds Credentials) (token string, user *User, err error)
	VerifyEmail(ctx context.Context, rawToken string) error
	ResendVerification(ctx context.Context, email string) error
	InitiatePasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, rawToken, newPassword string) error
	ValidateSession(ctx context.Context, token string) (*Session, error)
	DestroySession(ctx context.Context, token string) error
	Me(ctx context.Context, userID string) (*User, error)
}

// authService implements AuthService.
type authService struct {
	users    UserRepository
	tokens   TokenRepository
	sessions SessionStore
	strategy Strategy
	mail     mailer.Mailer

	baseURL         string
	verificationTTL time.Duration
	resetTTL        time.Duration
}

// NewAuthService creates a new auth service with the given dependencies.
func NewAuthService(
	users UserRepository,
	tokens TokenRepository,
	sessions SessionStore,
	strategy Strategy,
	mail mailer.Mailer,
	baseURL string,
	verificationTTL, resetTTL time.Duration,
) AuthService {
	return &authService{
		users:           users,
		tokens:          tokens,
		sessions:        sessions,
		strategy:        strategy,
		mail:            mail,
		baseURL:         baseURL,
		verificationTTL: verificationTTL,
		resetTTL:        resetTTL,
	}
}

// Signup creates a new unverified user account and dispatches the
// verification email. The user is NOT logged in; login stays blocked until
// the emailed link is used.
func (s *authService) Signup(ctx context.Context, input SignupInput) (*User, error) {
	email := normalizeEmail(input.Email)

	// Check for duplicates before doing expensive hashing. Signup leaks
	// account existence by nature -- it has to tell you the address is
	// taken -- which is an accepted asymmetry with login.
	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if exists {
		return nil, apperror.NewBadRequest("email already in use")
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	now := time.Now().UTC()
	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		FirstName:    input.FirstName,
		PasswordHash: &hash,
		IsAdmin:      false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if input.LastName != "" {
		lastName := input.LastName
		user.LastName = &lastName
	}

	if err := s.users.Create(ctx, user); err != nil {
		// A duplicate-key loss against a concurrent signup arrives from
		// the repository as the 400; everything else is internal.
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	if err := s.issueVerification(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("user signed up",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login authenticates credentials through the configured strategy. On
// success it creates a new server-side session and returns the opaque
// token for the cookie.
func (s *authService) Login(ctx context.Context, creds Credentials) (string, *User, error) {
	user, err := s.strategy.Authenticate(ctx, creds)
	if err != nil {
		return "", nil, err
	}

	session := &Session{
		UserID:    user.ID,
		Email:     user.Email,
		IsAdmin:   user.IsAdmin,
		CreatedAt: time.Now().UTC(),
	}

	token, err := s.sessions.Save(ctx, session)
	if err != nil {
		return "", nil, apperror.NewInternal(fmt.Errorf("creating session: %w", err))
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
	)

	return token, user, nil
}

// VerifyEmail consumes a verification token and marks the owner verified.
// Consumption and the verified stamp are one transaction in the repository,
// and re-presenting the same raw token always fails with the same generic
// message.
func (s *authService) VerifyEmail(ctx context.Context, rawToken string) error {
	userID, err := s.tokens.ConsumeAndVerifyEmail(ctx, hashToken(rawToken))
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewBadRequest(invalidLinkMessage)
		}
		return apperror.NewInternal(fmt.Errorf("verifying email: %w", err))
	}

	slog.Info("email verified", slog.String("user_id", userID))
	return nil
}

// ResendVerification issues a fresh verification token for an unverified
// account. Unknown and already-verified emails are silently ignored -- the
// handler returns the same generic success either way, so the endpoint
// can't be used to probe for accounts.
func (s *authService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}
	if user.IsVerified() {
		return nil
	}

	return s.issueVerification(ctx, user)
}

// InitiatePasswordReset issues a short-lived reset token and emails the
// link. The caller's response is identical whether or not the email is
// registered; only the log knows.
func (s *authService) InitiatePasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	raw, hash, err := generateToken()
	if err != nil {
		return apperror.NewInternal(err)
	}

	now := time.Now().UTC()
	token := &AuthToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: hash,
		Type:      TokenTypePasswordReset,
		ExpiresAt: now.Add(s.resetTTL),
		CreatedAt: now,
	}
	if err := s.tokens.Issue(ctx, token); err != nil {
		return apperror.NewInternal(fmt.Errorf("issuing reset token: %w", err))
	}

	link := s.baseURL + "/reset-password?token=" + raw
	s.dispatchMail("password_reset", user.ID, func(ctx context.Context) error {
		return s.mail.SendPasswordReset(ctx, user.Email, link)
	})

	slog.Info("password reset initiated", slog.String("user_id", user.ID))
	return nil
}

// ResetPassword consumes a reset token and overwrites the owner's password
// hash. Does not log the user in.
func (s *authService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	tokenHash := hashToken(rawToken)

	// Cheap validity probe before the expensive argon2id hash. The consume
	// below re-checks validity atomically, so a token racing to consumption
	// between these two calls still fails closed.
	if _, err := s.tokens.FindValid(ctx, tokenHash, TokenTypePasswordReset); err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewBadRequest(invalidLinkMessage)
		}
		return apperror.NewInternal(fmt.Errorf("finding reset token: %w", err))
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	userID, err := s.tokens.ConsumeAndSetPassword(ctx, tokenHash, hash)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewBadRequest(invalidLinkMessage)
		}
		return apperror.NewInternal(fmt.Errorf("resetting password: %w", err))
	}

	slog.Info("password reset completed", slog.String("user_id", userID))
	return nil
}

// ValidateSession restores the principal for a session token.
func (s *authService) ValidateSession(ctx context.Context, token string) (*Session, error) {
	return s.sessions.Load(ctx, token)
}

// DestroySession logs the session out.
func (s *authService) DestroySession(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}

// Me returns the current user record for the authenticated principal.
func (s *authService) Me(ctx context.Context, userID string) (*User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}
	return user, nil
}

// issueVerification creates a fresh email_verification token (revoking any
// prior live ones) and dispatches the verification email.
func (s *authService) issueVerification(ctx context.Context, user *User) error {
	raw, hash, err := generateToken()
	if err != nil {
		return apperror.NewInternal(err)
	}

	now := time.Now().UTC()
	token := &AuthToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: hash,
		Type:      TokenTypeEmailVerification,
		ExpiresAt: now.Add(s.verificationTTL),
		CreatedAt: now,
	}
	if err := s.tokens.Issue(ctx, token); err != nil {
		return apperror.NewInternal(fmt.Errorf("issuing verification token: %w", err))
	}

	link := s.baseURL + "/verify-email?token=" + raw
	s.dispatchMail("email_verification", user.ID, func(ctx context.Context) error {
		return s.mail.SendVerification(ctx, user.Email, user.FirstName, link)
	})

	return nil
}

// dispatchMail sends an email in the background with its own bounded
// context. The HTTP response never waits on delivery, and a provider
// failure is logged rather than surfaced -- turning it into a user-facing
// error would both break the operation and leak account existence.
func (s *authService) dispatchMail(operation, userID string, send func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()

		if err := send(ctx); err != nil {
			slog.Error("email dispatch failed",
				slog.String("operation", operation),
				slog.String("user_id", userID),
				slog.Any("error", err),
			)
		}
	}()
}
