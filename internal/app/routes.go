package app

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ouisite/ouisite/internal/mailer"
	"github.com/ouisite/ouisite/internal/middleware"
	"github.com/ouisite/ouisite/internal/plugins/auth"
	"github.com/ouisite/ouisite/internal/plugins/weddings"
)

// RegisterRoutes builds every plugin's dependency graph and registers all
// application routes. This is the single place where the plugins are wired
// together; a plugin never constructs another plugin's repositories.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// Health check endpoint for container orchestration.
	e.GET("/healthz", func(c echo.Context) error {
		if err := a.DB.PingContext(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "db unreachable"})
		}
		if err := a.Redis.Ping(c.Request().Context()).Err(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "redis unreachable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Rate limit counters live in Redis so horizontally scaled instances
	// share one budget per IP.
	limits := middleware.NewRedisStore(a.Redis)

	// --- auth plugin ---
	userRepo := auth.NewUserRepository(a.DB)
	tokenRepo := auth.NewTokenRepository(a.DB)
	sessions := auth.NewRedisSessionStore(a.Redis, a.Config.Auth.SessionTTL)

	var mail mailer.Mailer
	if a.Config.SMTP.Host != "" {
		mail = mailer.NewSMTPMailer(a.Config.SMTP)
	} else {
		mail = mailer.NewDevMailer()
	}

	authService := auth.NewAuthService(
		userRepo, tokenRepo, sessions,
		auth.NewLocalStrategy(userRepo), mail,
		a.Config.BaseURL,
		a.Config.Auth.VerificationTokenTTL,
		a.Config.Auth.ResetTokenTTL,
	)
	auth.RegisterRoutes(e, auth.NewHandler(authService), limits)

	requireAuth := auth.RequireAuth(authService)
	attachSession := auth.AttachSession(authService)

	// --- weddings plugin ---
	weddingRepo := weddings.NewWeddingRepository(a.DB)
	weddingService := weddings.NewWeddingService(weddingRepo, weddings.NewUserFinderAdapter(userRepo))
	weddings.RegisterRoutes(e, weddings.NewHandler(weddingService), weddingService, requireAuth, attachSession)
}
