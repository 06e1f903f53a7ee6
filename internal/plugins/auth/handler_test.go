package auth

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ouisite/ouisite/internal/apperror"
)

// mockAuthService implements AuthService for handler and middleware tests.
type mockAuthService struct {
	signupFn          func(ctx context.Context, input SignupInput) (*User, error)
	loginFn           func(ctx context.Context, creds Credentials) (string, *User, error)
	verifyEmailFn     func(ctx context.Context, rawToken string) error
	resendFn          func(ctx context.Context, email string) error
	initiateResetFn   func(ctx context.Context, email string) error
	resetPasswordFn   func(ctx context.Context, rawToken, newPassword string) error
	validateSessionFn func(ctx context.Context, token string) (*Session, error)
	destroySessionFn  func(ctx context.Context, token string) error
	meFn              func(ctx context.Context, userID string) (*User, error)
}

func (m *mockAuthService) Signup(ctx context.Context, input SignupInput) (*User, error) {
	if m.signupFn != nil {
		return m.signupFn(ctx, input)
	}
	return nil, apperror.NewInternal(nil)
}

func (m *mockAuthService) Login(ctx context.Context, creds Credentials) (string, *User, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, creds)
	}
	return "", nil, apperror.NewUnauthorized("invalid email or password")
}

func (m *mockAuthService) VerifyEmail(ctx context.Context, rawToken string) error {
	if m.verifyEmailFn != nil {
		return m.verifyEmailFn(ctx, rawToken)
	}
	return apperror.NewBadRequest("invalid or expired link")
}

func (m *mockAuthService) ResendVerification(ctx context.Context, email string) error {
	if m.resendFn != nil {
		return m.resendFn(ctx, email)
	}
	return nil
}

func (m *mockAuthService) InitiatePasswordReset(ctx context.Context, email string) error {
	if m.initiateResetFn != nil {
		return m.initiateResetFn(ctx, email)
	}
	return nil
}

func (m *mockAuthService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if m.resetPasswordFn != nil {
		return m.resetPasswordFn(ctx, rawToken, newPassword)
	}
	return apperror.NewBadRequest("invalid or expired link")
}

func (m *mockAuthService) ValidateSession(ctx context.Context, token string) (*Session, error) {
	if m.validateSessionFn != nil {
		return m.validateSessionFn(ctx, token)
	}
	return nil, apperror.NewUnauthorized("invalid session")
}

func (m *mockAuthService) DestroySession(ctx context.Context, token string) error {
	if m.destroySessionFn != nil {
		return m.destroySessionFn(ctx, token)
	}
	return nil
}

func (m *mockAuthService) Me(ctx context.Context, userID string) (*User, error) {
	if m.meFn != nil {
		return m.meFn(ctx, userID)
	}
	return nil, apperror.NewNotFound("user not found")
}

// postJSON runs a handler against a JSON POST and returns the recorder.
// The handler must not error; these endpoints answer 200 on every input.
func postJSON(t *testing.T, h echo.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

// The forgot-password response must be byte-identical for registered and
// unregistered addresses, or the endpoint becomes an account oracle.
func TestForgotPassword_ResponsesIndistinguishable(t *testing.T) {
	service := &mockAuthService{
		initiateResetFn: func(ctx context.Context, email string) error {
			// Silent for unknown addresses, same as the real service.
			return nil
		},
	}
	h := NewHandler(service)

	known := postJSON(t, h.ForgotPassword, "/api/auth/forgot-password",
		`{"email":"alice@example.com"}`)
	unknown := postJSON(t, h.ForgotPassword, "/api/auth/forgot-password",
		`{"email":"nobody@example.com"}`)

	if known.Code != http.StatusOK || unknown.Code != http.StatusOK {
		t.Fatalf("expected 200 for both, got %d and %d", known.Code, unknown.Code)
	}
	if !bytes.Equal(known.Body.Bytes(), unknown.Body.Bytes()) {
		t.Errorf("bodies differ:\n  known:   %s\n  unknown: %s",
			known.Body.String(), unknown.Body.String())
	}
}

// Same property for resend-verification: unknown and already-verified
// addresses read exactly like a successful resend.
func TestResendVerification_ResponsesIndistinguishable(t *testing.T) {
	h := NewHandler(&mockAuthService{})

	known := postJSON(t, h.ResendVerification, "/api/auth/resend-verification",
		`{"email":"alice@example.com"}`)
	unknown := postJSON(t, h.ResendVerification, "/api/auth/resend-verification",
		`{"email":"nobody@example.com"}`)

	if known.Code != http.StatusOK || unknown.Code != http.StatusOK {
		t.Fatalf("expected 200 for both, got %d and %d", known.Code, unknown.Code)
	}
	if !bytes.Equal(known.Body.Bytes(), unknown.Body.Bytes()) {
		t.Errorf("bodies differ:\n  known:   %s\n  unknown: %s",
			known.Body.String(), unknown.Body.String())
	}
}
