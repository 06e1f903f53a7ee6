// Package weddings manages wedding sites and their role-based membership.
// A wedding is the tenant unit: every piece of site content belongs to
// exactly one wedding, and all scoped routes resolve the wedding before any
// handler runs.
package weddings

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// --- Plans ---

// Plan is a wedding's billing tier. Stored as a string in the database.
type Plan string

const (
	// PlanFree is the default tier for every new wedding.
	PlanFree Plan = "free"

	// PlanPremium unlocks the paid features (guest export and friends).
	// Set by the billing flow through Service.UpgradePlan.
	PlanPremium Plan = "premium"
)

// IsValid reports whether p is a known plan.
func (p Plan) IsValid() bool {
	return p == PlanFree || p == PlanPremium
}

// --- Role System ---

// Role represents a collaborator's permission level within a wedding.
// Higher numeric values indicate more permissions. Use >= comparisons:
//
//	if role >= RoleEditor { /* allow content edits */ }
//
// The wedding owner is NOT a member. Ownership lives on the weddings row
// and always outranks any role.
type Role int

const (
	// RoleNone indicates no membership in the wedding.
	RoleNone Role = 0

	// RoleViewer grants read access to the wedding's management views.
	// Default role for new members.
	RoleViewer Role = 1

	// RoleEditor grants create/edit access to the wedding's content.
	RoleEditor Role = 2
)

// RoleFromString converts a database role string to a Role constant.
func RoleFromString(s string) Role {
	switch s {
	case "editor":
		return RoleEditor
	case "viewer":
		return RoleViewer
	default:
		return RoleNone
	}
}

// String returns the database-safe string representation of a Role.
func (r Role) String() string {
	switch r {
	case RoleEditor:
		return "editor"
	case RoleViewer:
		return "viewer"
	default:
		return ""
	}
}

// IsValid returns true if this is a valid membership role.
func (r Role) IsValid() bool {
	return r == RoleViewer || r == RoleEditor
}

// --- Domain Models ---

// Wedding represents one couple's wedding site, the tenant unit.
type Wedding struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Plan      Plan      `json:"plan"`
	Settings  string    `json:"settings"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPremium reports whether the wedding is on the paid tier.
func (w *Wedding) IsPremium() bool {
	return w.Plan == PlanPremium
}

// Member represents a collaborator's membership in a wedding.
type Member struct {
	WeddingID string    `json:"wedding_id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`

	// Joined from users table for display purposes.
	Email     string  `json:"email,omitempty"`
	FirstName string  `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// WeddingContext holds the resolved wedding and the requesting user's
// effective standing in it. Injected into the Echo context by the
// ResolveWedding middleware; every scoped handler reads it instead of
// re-deriving tenancy.
type WeddingContext struct {
	Wedding     *Wedding
	IsOwner     bool // True if the session user owns the weddings row.
	IsSiteAdmin bool // True if user has users.is_admin flag.
	MemberRole  Role // Membership role, or RoleNone if not a member.
}

// HasRole reports whether the user clears the guard for the given roles.
// Site admins and the owner always pass; everyone else needs a membership
// role in the allowed set.
func (wc *WeddingContext) HasRole(roles ...Role) bool {
	if wc.IsSiteAdmin || wc.IsOwner {
		return true
	}
	for _, role := range roles {
		if wc.MemberRole == role {
			return true
		}
	}
	return false
}

// --- Cross-Plugin Interfaces ---

// UserFinder finds users for membership operations. Avoids importing the
// auth plugin's types directly; implemented by UserFinderAdapter.
type UserFinder interface {
	FindUserByEmail(ctx context.Context, email string) (*MemberUser, error)
	FindUserByID(ctx context.Context, id string) (*MemberUser, error)
}

// MemberUser is the minimal user info needed for membership operations.
type MemberUser struct {
	ID        string
	Email     string
	FirstName string
}

// --- Request DTOs (bound from HTTP requests) ---

// CreateWeddingRequest holds the data for creating a wedding.
type CreateWeddingRequest struct {
	Title string `json:"title"`
}

// UpdateWeddingRequest holds the data for updating a wedding. Nil fields
// are left untouched.
type UpdateWeddingRequest struct {
	Title    *string `json:"title"`
	Settings *string `json:"settings"`
}

// AddMemberRequest holds the data for adding a member by email.
type AddMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UpdateRoleRequest holds the data for changing a member's role.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// --- Slug Generation ---

// slugPattern matches one or more non-alphanumeric characters for replacement.
var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify creates a URL-safe slug from a title. Lowercase, replace
// non-alphanumeric characters with hyphens, trim leading/trailing hyphens.
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugPattern.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "wedding"
	}
	return slug
}
