package auth

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ouisite/ouisite/internal/apperror"
)

const (
	sessionCookieName = "ouisite_session"
	sessionCookieAge  = 7 * 24 * time.Hour

	minPasswordLength = 8
	maxPasswordLength = 128
)

// Handler exposes the auth endpoints.
type Handler struct {
	service AuthService
}

// NewHandler creates a new auth handler.
func NewHandler(service AuthService) *Handler {
	return &Handler{service: service}
}

// Signup handles POST /api/auth/signup.
func (h *Handler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	if err := validateSignupRequest(&req); err != nil {
		return err
	}

	user, err := h.service.Signup(c.Request().Context(), SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message": "account created, check your email to verify your address",
		"user": map[string]string{
			"id":    user.ID,
			"email": user.Email,
		},
	})
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return apperror.NewValidation("email and password are required")
	}

	token, user, err := h.service.Login(c.Request().Context(), Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		// Unverified accounts with valid credentials get an actionable
		// response so the frontend can offer the resend flow. Every other
		// failure stays generic.
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Reason == apperror.ReasonEmailUnverified {
			return c.JSON(http.StatusForbidden, map[string]any{
				"message":   appErr.Message,
				"reason":    appErr.Reason,
				"canResend": true,
				"email":     normalizeEmail(req.Email),
			})
		}
		return err
	}

	setSessionCookie(c, token)

	return c.JSON(http.StatusOK, map[string]any{
		"message": "logged in",
		"user":    user,
	})
}

// Logout handles POST /api/auth/logout. Destroys the server-side session
// and clears the cookie; succeeds even without a valid session.
func (h *Handler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		// An already-gone session still logs out cleanly; only a store
		// failure surfaces, since the server-side session would survive it.
		if err := h.service.DestroySession(c.Request().Context(), cookie.Value); err != nil {
			return err
		}
	}

	clearSessionCookie(c)

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
	})
}

// VerifyEmail handles GET /api/auth/verify-email?token=...
func (h *Handler) VerifyEmail(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return apperror.NewBadRequest("token is required")
	}

	if err := h.service.VerifyEmail(c.Request().Context(), token); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "email verified, you can now log in",
	})
}

// ResendVerification handles POST /api/auth/resend-verification. Always
// returns the same 200 body regardless of whether the email exists or is
// already verified.
func (h *Handler) ResendVerification(c echo.Context) error {
	var req EmailRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	if err := validateEmail(req.Email); err != nil {
		return err
	}

	if err := h.service.ResendVerification(c.Request().Context(), req.Email); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "if the account exists and is unverified, a new link has been sent",
	})
}

// ForgotPassword handles POST /api/auth/forgot-password. The response never
// reveals whether the email is registered.
func (h *Handler) ForgotPassword(c echo.Context) error {
	var req EmailRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	if err := validateEmail(req.Email); err != nil {
		return err
	}

	if err := h.service.InitiatePasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "if the account exists, a reset link has been sent",
	})
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *Handler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	if req.Token == "" {
		return apperror.NewValidation("token is required")
	}
	if err := validatePassword(req.Password); err != nil {
		return err
	}

	if err := h.service.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "password updated, you can now log in",
	})
}

// Me handles GET /api/auth/me. Never errors: without a valid session it
// returns {"user": null} so the frontend can render the logged-out state
// from a single call.
func (h *Handler) Me(c echo.Context) error {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusOK, map[string]any{"user": nil})
	}

	session, err := h.service.ValidateSession(c.Request().Context(), cookie.Value)
	if err != nil {
		clearSessionCookie(c)
		return c.JSON(http.StatusOK, map[string]any{"user": nil})
	}

	user, err := h.service.Me(c.Request().Context(), session.UserID)
	if err != nil {
		clearSessionCookie(c)
		return c.JSON(http.StatusOK, map[string]any{"user": nil})
	}

	return c.JSON(http.StatusOK, map[string]any{"user": user})
}

func setSessionCookie(c echo.Context, token string) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionCookieAge.Seconds()),
		HttpOnly: true,
		Secure:   isSecureRequest(c),
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isSecureRequest(c),
		SameSite: http.SameSiteLaxMode,
	})
}

// isSecureRequest reports whether the request arrived over TLS, directly or
// via a proxy that set X-Forwarded-Proto.
func isSecureRequest(c echo.Context) bool {
	if c.Request().TLS != nil {
		return true
	}
	return c.Request().Header.Get("X-Forwarded-Proto") == "https"
}

func validateSignupRequest(req *SignupRequest) error {
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	if err := validatePassword(req.Password); err != nil {
		return err
	}
	if strings.TrimSpace(req.FirstName) == "" {
		return apperror.NewValidation("first name is required")
	}
	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperror.NewValidation("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperror.NewValidation("invalid email address")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperror.NewValidation("password must be at least 8 characters")
	}
	if len(password) > maxPasswordLength {
		return apperror.NewValidation("password must be at most 128 characters")
	}
	return nil
}
