package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/ouisite/ouisite/internal/apperror"
)

// sessionContextKey is the Echo context key under which RequireAuth stores
// the restored session.
const sessionContextKey = "auth.session"

// RequireAuth rejects requests without a valid session cookie. On success
// the session is attached to the Echo context for downstream handlers.
func RequireAuth(service AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				return apperror.NewUnauthorized("authentication required")
			}

			session, err := service.ValidateSession(c.Request().Context(), cookie.Value)
			if err != nil {
				return err
			}

			SetSession(c, session)
			return next(c)
		}
	}
}

// AttachSession restores the session when the request carries a valid
// session cookie, and otherwise lets the request through anonymously.
// Routes behind it stack their own guard for the principal check, so
// resolution steps that come before the guard (tenant lookup by slug)
// can answer 404 for an unknown resource without demanding a login first.
func AttachSession(service AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			// An invalid or expired cookie is treated the same as no
			// cookie at all; the guards decide whether anonymous is ok.
			if session, err := service.ValidateSession(c.Request().Context(), cookie.Value); err == nil {
				SetSession(c, session)
			}
			return next(c)
		}
	}
}

// SetSession attaches a session to the Echo context. Called by the auth
// middlewares; exported so other packages' tests can inject a principal
// without running the full middleware chain.
func SetSession(c echo.Context, session *Session) {
	c.Set(sessionContextKey, session)
}

// GetSession returns the session attached by RequireAuth, or nil when the
// request went through no auth middleware.
func GetSession(c echo.Context) *Session {
	session, ok := c.Get(sessionContextKey).(*Session)
	if !ok {
		return nil
	}
	return session
}

// GetUserID returns the authenticated user's ID, or the empty string for
// anonymous requests.
func GetUserID(c echo.Context) string {
	if session := GetSession(c); session != nil {
		return session.UserID
	}
	return ""
}
