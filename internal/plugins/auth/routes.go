package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ouisite/ouisite/internal/middleware"
)

// RegisterRoutes sets up all auth endpoints under /api/auth. These routes
// are public (no session required); RequireAuth is exported separately for
// other plugins to guard their own groups.
//
// Every POST endpoint that touches credentials or sends email is
// rate-limited per IP to blunt brute-force and mail-bombing: 10 login
// attempts per minute, 5 signups, 3 for each email-sending endpoint.
func RegisterRoutes(e *echo.Echo, h *Handler, limits middleware.CounterStore) {
	g := e.Group("/api/auth")

	g.POST("/signup", h.Signup, middleware.RateLimit(limits, 5, time.Minute))
	g.POST("/login", h.Login, middleware.RateLimit(limits, 10, time.Minute))
	g.POST("/logout", h.Logout)

	g.GET("/verify-email", h.VerifyEmail)
	g.POST("/resend-verification", h.ResendVerification, middleware.RateLimit(limits, 3, time.Minute))
	g.POST("/forgot-password", h.ForgotPassword, middleware.RateLimit(limits, 3, time.Minute))
	g.POST("/reset-password", h.ResetPassword, middleware.RateLimit(limits, 3, time.Minute))

	g.GET("/me", h.Me)
}
