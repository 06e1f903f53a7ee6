package weddings

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ouisite/ouisite/internal/apperror"
)

// maxSlugAttempts is how many numeric suffixes to try before falling back
// to a random one.
const maxSlugAttempts = 20

// WeddingService handles business logic for wedding operations. It owns
// slug generation, membership rules, and the plan upgrade hook.
type WeddingService interface {
	// Wedding CRUD
	Create(ctx context.Context, ownerID, title string) (*Wedding, error)
	GetByID(ctx context.Context, id string) (*Wedding, error)
	GetBySlug(ctx context.Context, slug string) (*Wedding, error)
	ListMine(ctx context.Context, ownerID string) ([]Wedding, error)
	Update(ctx context.Context, weddingID string, req UpdateWeddingRequest) (*Wedding, error)

	// UpgradePlan flips a wedding to the premium tier. Called by the
	// billing flow after payment clears, never directly by a handler.
	UpgradePlan(ctx context.Context, weddingID string) error

	// Membership
	GetMember(ctx context.Context, weddingID, userID string) (*Member, error)
	AddMember(ctx context.Context, wedding *Wedding, email string, role Role) error
	RemoveMember(ctx context.Context, weddingID, userID string) error
	UpdateMemberRole(ctx context.Context, weddingID, userID string, role Role) error
	ListMembers(ctx context.Context, weddingID string) ([]Member, error)
}

// weddingService implements WeddingService.
type weddingService struct {
	repo  WeddingRepository
	users UserFinder
}

// NewWeddingService creates a new wedding service with the given dependencies.
func NewWeddingService(repo WeddingRepository, users UserFinder) WeddingService {
	return &weddingService{repo: repo, users: users}
}

// --- Wedding CRUD ---

// Create creates a new wedding on the free plan with empty settings. The
// creator becomes the owner; ownership lives on the row, not in the
// members table.
func (s *weddingService) Create(ctx context.Context, ownerID, title string) (*Wedding, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.NewValidation("title is required")
	}
	if len(title) > 200 {
		return nil, apperror.NewValidation("title must be at most 200 characters")
	}

	slug, err := s.generateSlug(ctx, title)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("generating slug: %w", err))
	}

	now := time.Now().UTC()
	wedding := &Wedding{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Slug:      slug,
		Title:     title,
		Plan:      PlanFree,
		Settings:  "{}",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, wedding); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating wedding: %w", err))
	}

	slog.Info("wedding created",
		slog.String("wedding_id", wedding.ID),
		slog.String("slug", wedding.Slug),
		slog.String("owner_id", ownerID),
	)
	return wedding, nil
}

// GetByID retrieves a wedding by its UUID.
func (s *weddingService) GetByID(ctx context.Context, id string) (*Wedding, error) {
	return s.repo.FindByID(ctx, id)
}

// GetBySlug retrieves a wedding by its URL slug.
func (s *weddingService) GetBySlug(ctx context.Context, slug string) (*Wedding, error) {
	return s.repo.FindBySlug(ctx, slug)
}

// ListMine returns the weddings the user owns.
func (s *weddingService) ListMine(ctx context.Context, ownerID string) ([]Wedding, error) {
	weddings, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing weddings: %w", err))
	}
	return weddings, nil
}

// Update applies partial changes to title and settings.
func (s *weddingService) Update(ctx context.Context, weddingID string, req UpdateWeddingRequest) (*Wedding, error) {
	wedding, err := s.repo.FindByID(ctx, weddingID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperror.NewValidation("title cannot be empty")
		}
		if len(title) > 200 {
			return nil, apperror.NewValidation("title must be at most 200 characters")
		}
		wedding.Title = title
	}

	if req.Settings != nil {
		// Settings are stored opaque, but must at least be a JSON object.
		if !json.Valid([]byte(*req.Settings)) {
			return nil, apperror.NewValidation("settings must be valid JSON")
		}
		wedding.Settings = *req.Settings
	}

	if err := s.repo.Update(ctx, wedding); err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("updating wedding: %w", err))
	}

	wedding.UpdatedAt = time.Now().UTC()
	return wedding, nil
}

// UpgradePlan flips the wedding to premium.
func (s *weddingService) UpgradePlan(ctx context.Context, weddingID string) error {
	if err := s.repo.UpdatePlan(ctx, weddingID, PlanPremium); err != nil {
		if apperror.IsNotFound(err) {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("upgrading plan: %w", err))
	}

	slog.Info("wedding upgraded to premium", slog.String("wedding_id", weddingID))
	return nil
}

// --- Membership ---

// GetMember retrieves a user's membership in a wedding.
func (s *weddingService) GetMember(ctx context.Context, weddingID, userID string) (*Member, error) {
	return s.repo.FindMember(ctx, weddingID, userID)
}

// AddMember adds a collaborator by email. The owner cannot be added as a
// member; ownership already outranks every role.
func (s *weddingService) AddMember(ctx context.Context, wedding *Wedding, email string, role Role) error {
	if !role.IsValid() {
		return apperror.NewBadRequest("invalid role")
	}

	user, err := s.users.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return apperror.NewBadRequest("no user found with that email")
	}

	if user.ID == wedding.OwnerID {
		return apperror.NewBadRequest("the owner cannot be added as a member")
	}

	if _, err := s.repo.FindMember(ctx, wedding.ID, user.ID); err == nil {
		return apperror.NewConflict("user is already a member of this wedding")
	}

	member := &Member{
		WeddingID: wedding.ID,
		UserID:    user.ID,
		Role:      role,
		JoinedAt:  time.Now().UTC(),
	}
	if err := s.repo.AddMember(ctx, member); err != nil {
		return apperror.NewInternal(fmt.Errorf("adding member: %w", err))
	}

	slog.Info("member added to wedding",
		slog.String("wedding_id", wedding.ID),
		slog.String("user_id", user.ID),
		slog.String("role", role.String()),
	)
	return nil
}

// RemoveMember removes a collaborator.
func (s *weddingService) RemoveMember(ctx context.Context, weddingID, userID string) error {
	if err := s.repo.RemoveMember(ctx, weddingID, userID); err != nil {
		if apperror.IsNotFound(err) {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("removing member: %w", err))
	}

	slog.Info("member removed from wedding",
		slog.String("wedding_id", weddingID),
		slog.String("user_id", userID),
	)
	return nil
}

// UpdateMemberRole changes a collaborator's role.
func (s *weddingService) UpdateMemberRole(ctx context.Context, weddingID, userID string, role Role) error {
	if !role.IsValid() {
		return apperror.NewBadRequest("invalid role")
	}

	if err := s.repo.UpdateMemberRole(ctx, weddingID, userID, role); err != nil {
		if apperror.IsNotFound(err) {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("updating member role: %w", err))
	}
	return nil
}

// ListMembers returns all collaborators of a wedding.
func (s *weddingService) ListMembers(ctx context.Context, weddingID string) ([]Member, error) {
	members, err := s.repo.ListMembers(ctx, weddingID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing members: %w", err))
	}
	return members, nil
}

// generateSlug derives a unique slug from the title, trying numeric
// suffixes before falling back to a random one.
func (s *weddingService) generateSlug(ctx context.Context, title string) (string, error) {
	base := Slugify(title)
	slug := base

	for i := 2; i < maxSlugAttempts+2; i++ {
		exists, err := s.repo.SlugExists(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("checking slug: %w", err)
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}

	// Fallback: append random suffix to guarantee uniqueness.
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random slug suffix: %w", err)
	}
	return fmt.Sprintf("%s-%s", base, hex.EncodeToString(b)), nil
}
