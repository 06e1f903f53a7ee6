package weddings

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up the wedding endpoints. Everything requires an
// authenticated session; the tenant-scoped group additionally resolves the
// wedding before any handler runs, so guards always act on a concrete
// tenant.
func RegisterRoutes(e *echo.Echo, h *Handler, service WeddingService, requireAuth, attachSession echo.MiddlewareFunc) {
	// Unscoped: create and list the caller's own weddings.
	e.POST("/api/weddings", h.Create, requireAuth)
	e.GET("/api/weddings", h.ListMine, requireAuth)

	// Tenant-scoped: everything under /api/wedding acts on the resolved
	// wedding. The session is attached without being required, then the
	// resolver runs, then the per-route guards. The guards own the 401,
	// which keeps an unknown slug a 404 even for anonymous callers.
	g := e.Group("/api/wedding", attachSession, ResolveWedding(service))

	g.GET("", h.Get, RequireRole(RoleViewer, RoleEditor))
	g.PATCH("", h.Update, RequireRole(RoleEditor))

	g.GET("/members", h.ListMembers, RequireRole())
	g.POST("/members", h.AddMember, RequireRole())
	g.PATCH("/members/:userID", h.UpdateMemberRole, RequireRole())
	g.DELETE("/members/:userID", h.RemoveMember, RequireRole())

	g.GET("/export", h.Export, RequireRole(RoleViewer, RoleEditor), RequirePremium())
}
