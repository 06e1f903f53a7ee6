package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ouisite/ouisite/internal/apperror"
)

// --- Mocks ---

// mockUserRepo implements UserRepository for testing.
type mockUserRepo struct {
	createFn      func(ctx context.Context, user *User) error
	findByIDFn    func(ctx context.Context, id string) (*User, error)
	findByEmailFn func(ctx context.Context, email string) (*User, error)
	emailExistsFn func(ctx context.Context, email string) (bool, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.emailExistsFn != nil {
		return m.emailExistsFn(ctx, email)
	}
	return false, nil
}

// mockTokenRepo implements TokenRepository for testing.
type mockTokenRepo struct {
	issueFn                 func(ctx context.Context, token *AuthToken) error
	findValidFn             func(ctx context.Context, tokenHash string, tokenType TokenType) (*AuthToken, error)
	consumeAndVerifyFn      func(ctx context.Context, tokenHash string) (string, error)
	consumeAndSetPasswordFn func(ctx context.Context, tokenHash, passwordHash string) (string, error)
}

func (m *mockTokenRepo) Issue(ctx context.Context, token *AuthToken) error {
	if m.issueFn != nil {
		return m.issueFn(ctx, token)
	}
	return nil
}

func (m *mockTokenRepo) FindValid(ctx context.Context, tokenHash string, tokenType TokenType) (*AuthToken, error) {
	if m.findValidFn != nil {
		return m.findValidFn(ctx, tokenHash, tokenType)
	}
	return nil, apperror.NewNotFound("token not found")
}

func (m *mockTokenRepo) ConsumeAndVerifyEmail(ctx context.Context, tokenHash string) (string, error) {
	if m.consumeAndVerifyFn != nil {
		return m.consumeAndVerifyFn(ctx, tokenHash)
	}
	return "", apperror.NewNotFound("token not found")
}

func (m *mockTokenRepo) ConsumeAndSetPassword(ctx context.Context, tokenHash, passwordHash string) (string, error) {
	if m.consumeAndSetPasswordFn != nil {
		return m.consumeAndSetPasswordFn(ctx, tokenHash, passwordHash)
	}
	return "", apperror.NewNotFound("token not found")
}

// mockSessionStore implements SessionStore for testing.
type mockSessionStore struct {
	saveFn    func(ctx context.Context, session *Session) (string, error)
	loadFn    func(ctx context.Context, token string) (*Session, error)
	destroyFn func(ctx context.Context, token string) error
}

func (m *mockSessionStore) Save(ctx context.Context, session *Session) (string, error) {
	if m.saveFn != nil {
		return m.saveFn(ctx, session)
	}
	return "test-session-token", nil
}

func (m *mockSessionStore) Load(ctx context.Context, token string) (*Session, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx, token)
	}
	return nil, apperror.NewUnauthorized("session expired or invalid")
}

func (m *mockSessionStore) Destroy(ctx context.Context, token string) error {
	if m.destroyFn != nil {
		return m.destroyFn(ctx, token)
	}
	return nil
}

// mockMailer implements mailer.Mailer for testing. Dispatch is async, so
// tests that assert on mail use channels inside the function fields.
type mockMailer struct {
	sendVerificationFn  func(ctx context.Context, to, name, link string) error
	sendPasswordResetFn func(ctx context.Context, to, link string) error
}

func (m *mockMailer) SendVerification(ctx context.Context, to, name, link string) error {
	if m.sendVerificationFn != nil {
		return m.sendVerificationFn(ctx, to, name, link)
	}
	return nil
}

func (m *mockMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	if m.sendPasswordResetFn != nil {
		return m.sendPasswordResetFn(ctx, to, link)
	}
	return nil
}

// --- Helpers ---

type serviceMocks struct {
	users    *mockUserRepo
	tokens   *mockTokenRepo
	sessions *mockSessionStore
	mail     *mockMailer
}

func newTestService(m serviceMocks) AuthService {
	if m.users == nil {
		m.users = &mockUserRepo{}
	}
	if m.tokens == nil {
		m.tokens = &mockTokenRepo{}
	}
	if m.sessions == nil {
		m.sessions = &mockSessionStore{}
	}
	if m.mail == nil {
		m.mail = &mockMailer{}
	}
	return NewAuthService(
		m.users, m.tokens, m.sessions,
		NewLocalStrategy(m.users), m.mail,
		"http://localhost:5173",
		24*time.Hour, time.Hour,
	)
}

func verifiedUser(t *testing.T, password string) *User {
	t.Helper()
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	verifiedAt := time.Now().UTC().Add(-time.Hour)
	return &User{
		ID:              "user-1",
		Email:           "alice@example.com",
		FirstName:       "Alice",
		PasswordHash:    &hash,
		EmailVerifiedAt: &verifiedAt,
	}
}

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// --- Signup ---

func TestSignup_Success(t *testing.T) {
	var createdUser *User
	var issuedToken *AuthToken
	mailLinks := make(chan string, 1)

	users := &mockUserRepo{
		createFn: func(ctx context.Context, user *User) error {
			createdUser = user
			return nil
		},
	}
	tokens := &mockTokenRepo{
		issueFn: func(ctx context.Context, token *AuthToken) error {
			issuedToken = token
			return nil
		},
	}
	mail := &mockMailer{
		sendVerificationFn: func(ctx context.Context, to, name, link string) error {
			mailLinks <- link
			return nil
		},
	}

	svc := newTestService(serviceMocks{users: users, tokens: tokens, mail: mail})

	user, err := svc.Signup(context.Background(), SignupInput{
		Email:     "alice@example.com",
		Password:  "password123",
		FirstName: "Alice",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if createdUser == nil {
		t.Fatal("expected user to be created")
	}
	if createdUser.EmailVerifiedAt != nil {
		t.Error("new user should start unverified")
	}
	if createdUser.PasswordHash == nil || !strings.HasPrefix(*createdUser.PasswordHash, "$argon2id$") {
		t.Error("expected argon2id password hash")
	}
	if user.ID != createdUser.ID {
		t.Errorf("returned user ID %q does not match created %q", user.ID, createdUser.ID)
	}

	if issuedToken == nil {
		t.Fatal("expected verification token to be issued")
	}
	if issuedToken.Type != TokenTypeEmailVerification {
		t.Errorf("expected type %q, got %q", TokenTypeEmailVerification, issuedToken.Type)
	}
	ttl := time.Until(issuedToken.ExpiresAt)
	if ttl < 23*time.Hour || ttl > 25*time.Hour {
		t.Errorf("expected ~24h token TTL, got %v", ttl)
	}

	select {
	case link := <-mailLinks:
		if !strings.Contains(link, "/verify-email?token=") {
			t.Errorf("unexpected verification link %q", link)
		}
		// The link must carry the raw token; the stored value is its hash.
		rawToken := link[strings.Index(link, "token=")+len("token="):]
		if hashToken(rawToken) != issuedToken.TokenHash {
			t.Error("stored hash does not match the emailed raw token")
		}
		if rawToken == issuedToken.TokenHash {
			t.Error("raw token must never be stored directly")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("verification email was never dispatched")
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	users := &mockUserRepo{
		emailExistsFn: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}
	svc := newTestService(serviceMocks{users: users})

	_, err := svc.Signup(context.Background(), SignupInput{
		Email:     "alice@example.com",
		Password:  "password123",
		FirstName: "Alice",
	})
	assertAppError(t, err, 400)
}

// Two concurrent signups can both pass the existence check; the loser of
// the insert race gets the same 400 as a plain duplicate, not a 500.
func TestSignup_DuplicateRaceOnInsert(t *testing.T) {
	users := &mockUserRepo{
		emailExistsFn: func(ctx context.Context, email string) (bool, error) {
			return false, nil
		},
		createFn: func(ctx context.Context, user *User) error {
			return apperror.NewBadRequest("email already in use")
		},
	}
	svc := newTestService(serviceMocks{users: users})

	_, err := svc.Signup(context.Background(), SignupInput{
		Email:     "alice@example.com",
		Password:  "password123",
		FirstName: "Alice",
	})
	assertAppError(t, err, 400)

	var appErr *apperror.AppError
	errors.As(err, &appErr)
	if appErr.Message != "email already in use" {
		t.Errorf("unexpected message: %q", appErr.Message)
	}
}

func TestSignup_EmailNormalization(t *testing.T) {
	var checkedEmail, createdEmail string
	users := &mockUserRepo{
		emailExistsFn: func(ctx context.Context, email string) (bool, error) {
			checkedEmail = email
			return false, nil
		},
		createFn: func(ctx context.Context, user *User) error {
			createdEmail = user.Email
			return nil
		},
	}
	svc := newTestService(serviceMocks{users: users})

	_, err := svc.Signup(context.Background(), SignupInput{
		Email:     "  Alice@EXAMPLE.com ",
		Password:  "password123",
		FirstName: "Alice",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if checkedEmail != "alice@example.com" {
		t.Errorf("duplicate check used %q, want normalized", checkedEmail)
	}
	if createdEmail != "alice@example.com" {
		t.Errorf("user stored with %q, want normalized", createdEmail)
	}
}

func TestSignup_CreateError(t *testing.T) {
	users := &mockUserRepo{
		createFn: func(ctx context.Context, user *User) error {
			return errors.New("db down")
		},
	}
	svc := newTestService(serviceMocks{users: users})

	_, err := svc.Signup(context.Background(), SignupInput{
		Email:     "alice@example.com",
		Password:  "password123",
		FirstName: "Alice",
	})
	assertAppError(t, err, 500)
}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	user := verifiedUser(t, "password123")
	var savedSession *Session

	users := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			if email != user.Email {
				return nil, apperror.NewNotFound("user not found")
			}
			return user, nil
		},
	}
	sessions := &mockSessionStore{
		saveFn: func(ctx context.Context, session *Session) (string, error) {
			savedSession = session
			return "opaque-token", nil
		},
	}
	svc := newTestService(serviceMocks{users: users, sessions: sessions})

	token, got, err := svc.Login(context.Background(), Credentials{
		Email:    "Alice@Example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "opaque-token" {
		t.Errorf("expected session token, got %q", token)
	}
	if got.ID != user.ID {
		t.Errorf("expected user %q, got %q", user.ID, got.ID)
	}
	if savedSession == nil || savedSession.UserID != user.ID {
		t.Error("session was not saved for the authenticated user")
	}
}

// Unknown email, wrong password, and passwordless accounts must be
// indistinguishable: same code, same message.
func TestLogin_GenericFailures(t *testing.T) {
	user := verifiedUser(t, "password123")
	external := &User{
		ID:              "user-2",
		Email:           "bob@example.com",
		FirstName:       "Bob",
		EmailVerifiedAt: user.EmailVerifiedAt,
	}

	users := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			switch email {
			case user.Email:
				return user, nil
			case external.Email:
				return external, nil
			}
			return nil, apperror.NewNotFound("user not found")
		},
	}
	svc := newTestService(serviceMocks{users: users})

	cases := []struct {
		name  string
		creds Credentials
	}{
		{"unknown email", Credentials{Email: "nobody@example.com", Password: "password123"}},
		{"wrong password", Credentials{Email: "alice@example.com", Password: "wrong-password"}},
		{"passwordless account", Credentials{Email: "bob@example.com", Password: "password123"}},
	}

	var messages []string
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Login(context.Background(), tc.creds)
			assertAppError(t, err, 401)
			var appErr *apperror.AppError
			errors.As(err, &appErr)
			messages = append(messages, appErr.Message)
		})
	}

	for i := 1; i < len(messages); i++ {
		if messages[i] != messages[0] {
			t.Errorf("failure messages differ: %q vs %q", messages[0], messages[i])
		}
	}
}

func TestLogin_UnverifiedEmail(t *testing.T) {
	hash, err := hashPassword("password123")
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	unverified := &User{
		ID:           "user-3",
		Email:        "carol@example.com",
		FirstName:    "Carol",
		PasswordHash: &hash,
	}
	users := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return unverified, nil
		},
	}
	svc := newTestService(serviceMocks{users: users})

	_, _, err = svc.Login(context.Background(), Credentials{
		Email:    "carol@example.com",
		Password: "password123",
	})
	assertAppError(t, err, 403)

	var appErr *apperror.AppError
	errors.As(err, &appErr)
	if appErr.Reason != apperror.ReasonEmailUnverified {
		t.Errorf("expected reason %q, got %q", apperror.ReasonEmailUnverified, appErr.Reason)
	}
}

// An unverified account with a WRONG password must get the generic 401, not
// the 403. Anything else confirms the password for an attacker.
func TestLogin_UnverifiedWrongPassword(t *testing.T) {
	hash, err := hashPassword("password123")
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	unverified := &User{
		ID:           "user-3",
		Email:        "carol@example.com",
		PasswordHash: &hash,
	}
	users := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return unverified, nil
		},
	}
	svc := newTestService(serviceMocks{users: users})

	_, _, err = svc.Login(context.Background(), Credentials{
		Email:    "carol@example.com",
		Password: "wrong-password",
	})
	assertAppError(t, err, 401)
}

// --- Email verification ---

func TestVerifyEmail_Success(t *testing.T) {
	raw, storedHash, err := generateToken()
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}

	tokens := &mockTokenRepo{
		consumeAndVerifyFn: func(ctx context.Context, tokenHash string) (string, error) {
			if tokenHash != storedHash {
				return "", apperror.NewNotFound("token not found")
			}
			return "user-1", nil
		},
	}
	svc := newTestService(serviceMocks{tokens: tokens})

	if err := svc.VerifyEmail(context.Background(), raw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVerifyEmail_InvalidToken(t *testing.T) {
	svc := newTestService(serviceMocks{})
	err := svc.VerifyEmail(context.Background(), "deadbeef")
	assertAppError(t, err, 400)
}

// --- Resend verification ---

func TestResendVerification_UnknownEmailSilent(t *testing.T) {
	issued := false
	tokens := &mockTokenRepo{
		issueFn: func(ctx context.Context, token *AuthToken) error {
			issued = true
			return nil
		},
	}
	svc := newTestService(serviceMocks{tokens: tokens})

	if err := svc.ResendVerification(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("unknown email must not error, got: %v", err)
	}
	if issued {
		t.Error("no token should be issued for unknown emails")
	}
}

func TestResendVerification_AlreadyVerifiedSilent(t *testing.T) {
	user := verifiedUser(t, "password123")
	issued := false

	users := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return user, nil
		},
	}
	tokens := &mockTokenRepo{
		issueFn: func(ctx context.Context, token *AuthToken) error {
			issued = true
			return nil
		},
	}
	svc := newTestService(serviceMocks{users: users, tokens: tokens})

	if err := svc.ResendVerification(context.Background(), user.Email); err != nil {
		t.Fatalf("verified account must not error, got: %v", err)
	}
	if issued {
		t.Error("no token should be issued for verified accounts")
	}
}

func TestResendVerification_IssuesFreshToken(t *testing.T) {
	unverified := &User{ID: "user-3", Email: "carol@example.com", FirstName: "Carol"}
	var issuedToken *AuthToken

	users := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return unverified, nil
		},
	}
	tokens := &mockTokenRepo{
		issueFn: func(ctx context.Context, token *AuthToken) error {
			issuedToken = token
			return nil
		},
	}
	svc := newTestService(serviceMocks{users: users, tokens: tokens})

	if err := svc.ResendVerification(context.Background(), unverified.Email); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if issuedToken == nil {
		t.Fatal("expected a fresh token")
	}
	if issuedToken.Type != TokenTypeEmailVerification {
		t.Errorf("expected type %q, got %q", TokenTypeEmailVerification, issuedToken.Type)
	}
}

// --- Password reset ---

func TestInitiatePasswordReset_Success(t *testing.T) {
	user := verifiedUser(t, "password123")
	var issuedToken *AuthToken
	mailLinks := make(chan string, 1)

	users := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return user, nil
		},
	}
	tokens := &mockTokenRepo{
		issueFn: func(ctx context.Context, token *AuthToken) error {
			issuedToken = token
			return nil
		},
	}
	mail := &mockMailer{
		sendPasswordResetFn: func(ctx context.Context, to, link string) error {
			mailLinks <- link
			return nil
		},
	}
	svc := newTestService(serviceMocks{users: users, tokens: tokens, mail: mail})

	if err := svc.InitiatePasswordReset(context.Background(), user.Email); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if issuedToken == nil {
		t.Fatal("expected reset token to be issued")
	}
	if issuedToken.Type != TokenTypePasswordReset {
		t.Errorf("expected type %q, got %q", TokenTypePasswordReset, issuedToken.Type)
	}
	ttl := time.Until(issuedToken.ExpiresAt)
	if ttl < 55*time.Minute || ttl > 65*time.Minute {
		t.Errorf("expected ~1h token TTL, got %v", ttl)
	}

	select {
	case link := <-mailLinks:
		if !strings.Contains(link, "/reset-password?token=") {
			t.Errorf("unexpected reset link %q", link)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reset email was never dispatched")
	}
}

func TestInitiatePasswordReset_UnknownEmailSilent(t *testing.T) {
	svc := newTestService(serviceMocks{})
	if err := svc.InitiatePasswordReset(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("unknown email must not error, got: %v", err)
	}
}

func TestResetPassword_Success(t *testing.T) {
	raw, storedHash, err := generateToken()
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}
	var newHash string

	tokens := &mockTokenRepo{
		findValidFn: func(ctx context.Context, tokenHash string, tokenType TokenType) (*AuthToken, error) {
			if tokenHash != storedHash || tokenType != TokenTypePasswordReset {
				return nil, apperror.NewNotFound("token not found")
			}
			return &AuthToken{UserID: "user-1", TokenHash: tokenHash, Type: tokenType}, nil
		},
		consumeAndSetPasswordFn: func(ctx context.Context, tokenHash, passwordHash string) (string, error) {
			if tokenHash != storedHash {
				return "", apperror.NewNotFound("token not found")
			}
			newHash = passwordHash
			return "user-1", nil
		},
	}
	svc := newTestService(serviceMocks{tokens: tokens})

	if err := svc.ResetPassword(context.Background(), raw, "new-password-42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !verifyPassword("new-password-42", newHash) {
		t.Error("stored hash does not verify the new password")
	}
}

func TestResetPassword_InvalidToken(t *testing.T) {
	svc := newTestService(serviceMocks{})
	err := svc.ResetPassword(context.Background(), "deadbeef", "new-password-42")
	assertAppError(t, err, 400)
}

func TestResetPassword_ConsumedRace(t *testing.T) {
	raw, storedHash, err := generateToken()
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}

	// FindValid still sees the token but the consume loses the race.
	tokens := &mockTokenRepo{
		findValidFn: func(ctx context.Context, tokenHash string, tokenType TokenType) (*AuthToken, error) {
			return &AuthToken{UserID: "user-1", TokenHash: storedHash, Type: tokenType}, nil
		},
		consumeAndSetPasswordFn: func(ctx context.Context, tokenHash, passwordHash string) (string, error) {
			return "", apperror.NewNotFound("token not found")
		},
	}
	svc := newTestService(serviceMocks{tokens: tokens})

	err = svc.ResetPassword(context.Background(), raw, "new-password-42")
	assertAppError(t, err, 400)
}

// --- Password hashing ---

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := hashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("expected argon2id PHC hash, got %q", hash)
	}

	if !verifyPassword("correct horse battery staple", hash) {
		t.Error("correct password failed verification")
	}
	if verifyPassword("wrong password", hash) {
		t.Error("wrong password passed verification")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	for _, hash := range []string{
		"",
		"not-a-hash",
		"$argon2id$v=19$m=65536",
		"$bcrypt$whatever",
	} {
		if verifyPassword("password", hash) {
			t.Errorf("malformed hash %q verified a password", hash)
		}
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	h1, err := hashPassword("same password")
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	h2, err := hashPassword("same password")
	if err != nil {
		t.Fatalf("hashPassword: %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password must differ (random salt)")
	}
}

// --- Token helpers ---

func TestGenerateToken(t *testing.T) {
	raw, hash, err := generateToken()
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}
	if len(raw) != 64 {
		t.Errorf("expected 64 hex chars of raw token, got %d", len(raw))
	}
	if hashToken(raw) != hash {
		t.Error("returned hash does not match hashToken(raw)")
	}
	if raw == hash {
		t.Error("raw and hash must differ")
	}
}

func TestAuthTokenValidity(t *testing.T) {
	now := time.Now().UTC()
	used := now.Add(-time.Minute)

	cases := []struct {
		name  string
		token AuthToken
		want  bool
	}{
		{"live", AuthToken{ExpiresAt: now.Add(time.Hour)}, true},
		{"expired", AuthToken{ExpiresAt: now.Add(-time.Minute)}, false},
		{"consumed", AuthToken{ExpiresAt: now.Add(time.Hour), UsedAt: &used}, false},
		{"consumed and expired", AuthToken{ExpiresAt: now.Add(-time.Minute), UsedAt: &used}, false},
	}
	for _, tc := range cases {
		if got := tc.token.IsValid(now); got != tc.want {
			t.Errorf("%s: IsValid = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestHashToken_Deterministic(t *testing.T) {
	if hashToken("abc") != hashToken("abc") {
		t.Error("hashToken must be deterministic")
	}
	if hashToken("abc") == hashToken("abd") {
		t.Error("different inputs must hash differently")
	}
	if len(hashToken("abc")) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(hashToken("abc")))
	}
}
