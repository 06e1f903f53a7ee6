package weddings

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/ouisite/ouisite/internal/apperror"
	"github.com/ouisite/ouisite/internal/plugins/auth"
)

// slugHeader is the request header carrying the tenant slug.
const slugHeader = "x-wedding-slug"

// contextKeyWedding is the Echo context key for the resolved wedding context.
const contextKeyWedding = "wedding_context"

// ResolveWedding returns middleware that resolves the tenant wedding for
// the request and injects a *WeddingContext. There is no unscoped mode:
// a scoped route without a resolvable wedding never reaches its handler.
//
// Resolution order:
//   - x-wedding-slug header present → lookup by slug. An unknown slug is a
//     404 whether or not the caller is logged in; tenant existence is not
//     gated on authentication.
//   - no header → the authenticated owner's weddings: exactly one → use
//     it, several → 400 WEDDING_SLUG_REQUIRED, none → 404. This path
//     requires a session (401 without one).
//
// An anonymous request with a known slug resolves successfully and stands
// in the context with no principal; the role guards reject it with 401.
//
// Must be applied AFTER auth.AttachSession.
func ResolveWedding(service WeddingService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session := auth.GetSession(c)

			var wedding *Wedding
			var err error
			if slug := c.Request().Header.Get(slugHeader); slug != "" {
				wedding, err = service.GetBySlug(c.Request().Context(), slug)
			} else {
				// The owner fallback needs a principal to look up
				// weddings for.
				if session == nil {
					return apperror.NewUnauthorized("authentication required")
				}
				wedding, err = resolveOwned(c, service, session.UserID)
			}
			if err != nil {
				return err
			}

			wc := &WeddingContext{
				Wedding:    wedding,
				MemberRole: RoleNone,
			}
			if session != nil {
				wc.IsOwner = wedding.OwnerID == session.UserID
				wc.IsSiteAdmin = session.IsAdmin

				// Membership lookup is skipped for the owner; ownership
				// already outranks any role.
				if !wc.IsOwner {
					member, err := service.GetMember(c.Request().Context(), wedding.ID, session.UserID)
					if err == nil {
						wc.MemberRole = member.Role
					} else if !apperror.IsNotFound(err) {
						return apperror.NewInternal(fmt.Errorf("resolving membership: %w", err))
					}
				}
			}

			c.Set(contextKeyWedding, wc)
			return next(c)
		}
	}
}

// resolveOwned picks the wedding from the set the user owns. The fallback
// only fires when it is unambiguous.
func resolveOwned(c echo.Context, service WeddingService, userID string) (*Wedding, error) {
	owned, err := service.ListMine(c.Request().Context(), userID)
	if err != nil {
		return nil, err
	}
	switch len(owned) {
	case 0:
		return nil, apperror.NewNotFound("wedding not found")
	case 1:
		return &owned[0], nil
	default:
		return nil, apperror.NewBadRequest("multiple weddings; pass the x-wedding-slug header").
			WithReason(apperror.ReasonSlugRequired)
	}
}

// RequireRole returns middleware that checks the caller's standing in the
// resolved wedding. Site admins and the owner always pass; other users
// need a membership role in the allowed set.
//
// Must be applied AFTER ResolveWedding.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if auth.GetSession(c) == nil {
				return apperror.NewUnauthorized("authentication required")
			}

			wc := GetWeddingContext(c)
			if wc == nil {
				return apperror.NewNotFound("wedding not found")
			}

			if !wc.HasRole(roles...) {
				return apperror.NewForbidden("insufficient permissions")
			}

			return next(c)
		}
	}
}

// RequirePremium returns middleware that gates a route on the premium
// plan. The 403 carries the PREMIUM_REQUIRED reason so the client can
// route to an upsell flow.
//
// Must be applied AFTER ResolveWedding.
func RequirePremium() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			wc := GetWeddingContext(c)
			if wc == nil {
				return apperror.NewNotFound("wedding not found")
			}

			if !wc.Wedding.IsPremium() {
				return apperror.NewForbidden("this feature requires the premium plan").
					WithReason(apperror.ReasonPremiumRequired)
			}

			return next(c)
		}
	}
}

// GetWeddingContext retrieves the wedding context from the Echo context.
// Returns nil if ResolveWedding middleware was not applied.
func GetWeddingContext(c echo.Context) *WeddingContext {
	wc, ok := c.Get(contextKeyWedding).(*WeddingContext)
	if !ok {
		return nil
	}
	return wc
}
