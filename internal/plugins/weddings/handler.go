package weddings

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ouisite/ouisite/internal/apperror"
	"github.com/ouisite/ouisite/internal/plugins/auth"
)

// Handler exposes the wedding endpoints.
type Handler struct {
	service WeddingService
}

// NewHandler creates a new weddings handler.
func NewHandler(service WeddingService) *Handler {
	return &Handler{service: service}
}

// Create handles POST /api/weddings.
func (h *Handler) Create(c echo.Context) error {
	var req CreateWeddingRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	wedding, err := h.service.Create(c.Request().Context(), auth.GetUserID(c), req.Title)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, wedding)
}

// ListMine handles GET /api/weddings.
func (h *Handler) ListMine(c echo.Context) error {
	weddings, err := h.service.ListMine(c.Request().Context(), auth.GetUserID(c))
	if err != nil {
		return err
	}
	if weddings == nil {
		weddings = []Wedding{}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"weddings": weddings,
	})
}

// Get handles GET /api/wedding. The tenant is already resolved; the
// response includes the caller's standing so the frontend can gate its UI.
func (h *Handler) Get(c echo.Context) error {
	wc := GetWeddingContext(c)

	return c.JSON(http.StatusOK, map[string]any{
		"wedding":  wc.Wedding,
		"is_owner": wc.IsOwner,
		"role":     wc.MemberRole.String(),
	})
}

// Update handles PATCH /api/wedding.
func (h *Handler) Update(c echo.Context) error {
	var req UpdateWeddingRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	wc := GetWeddingContext(c)
	wedding, err := h.service.Update(c.Request().Context(), wc.Wedding.ID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, wedding)
}

// ListMembers handles GET /api/wedding/members.
func (h *Handler) ListMembers(c echo.Context) error {
	wc := GetWeddingContext(c)

	members, err := h.service.ListMembers(c.Request().Context(), wc.Wedding.ID)
	if err != nil {
		return err
	}
	if members == nil {
		members = []Member{}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"members": members,
	})
}

// AddMember handles POST /api/wedding/members.
func (h *Handler) AddMember(c echo.Context) error {
	var req AddMemberRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}
	if req.Email == "" {
		return apperror.NewValidation("email is required")
	}

	role := RoleFromString(req.Role)
	if req.Role == "" {
		role = RoleViewer
	}

	wc := GetWeddingContext(c)
	if err := h.service.AddMember(c.Request().Context(), wc.Wedding, req.Email, role); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message": "member added",
	})
}

// UpdateMemberRole handles PATCH /api/wedding/members/:userID.
func (h *Handler) UpdateMemberRole(c echo.Context) error {
	var req UpdateRoleRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request body")
	}

	wc := GetWeddingContext(c)
	userID := c.Param("userID")

	if err := h.service.UpdateMemberRole(c.Request().Context(), wc.Wedding.ID, userID, RoleFromString(req.Role)); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "role updated",
	})
}

// RemoveMember handles DELETE /api/wedding/members/:userID.
func (h *Handler) RemoveMember(c echo.Context) error {
	wc := GetWeddingContext(c)
	userID := c.Param("userID")

	if err := h.service.RemoveMember(c.Request().Context(), wc.Wedding.ID, userID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "member removed",
	})
}

// Export handles GET /api/wedding/export. Premium only; returns the
// wedding's full data for download.
func (h *Handler) Export(c echo.Context) error {
	wc := GetWeddingContext(c)

	members, err := h.service.ListMembers(c.Request().Context(), wc.Wedding.ID)
	if err != nil {
		return err
	}
	if members == nil {
		members = []Member{}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"wedding": wc.Wedding,
		"members": members,
	})
}
