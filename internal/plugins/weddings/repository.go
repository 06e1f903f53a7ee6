package weddings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ouisite/ouisite/internal/apperror"
)

// WeddingRepository defines the data access contract for wedding and
// membership operations. All SQL lives in the concrete implementation.
type WeddingRepository interface {
	// Wedding CRUD
	Create(ctx context.Context, wedding *Wedding) error
	FindByID(ctx context.Context, id string) (*Wedding, error)
	FindBySlug(ctx context.Context, slug string) (*Wedding, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Wedding, error)
	Update(ctx context.Context, wedding *Wedding) error
	UpdatePlan(ctx context.Context, id string, plan Plan) error
	SlugExists(ctx context.Context, slug string) (bool, error)

	// Membership
	AddMember(ctx context.Context, member *Member) error
	RemoveMember(ctx context.Context, weddingID, userID string) error
	FindMember(ctx context.Context, weddingID, userID string) (*Member, error)
	ListMembers(ctx context.Context, weddingID string) ([]Member, error)
	UpdateMemberRole(ctx context.Context, weddingID, userID string, role Role) error
}

// weddingRepository implements WeddingRepository with MySQL queries.
type weddingRepository struct {
	db *sql.DB
}

// NewWeddingRepository creates a new repository backed by the given DB pool.
func NewWeddingRepository(db *sql.DB) WeddingRepository {
	return &weddingRepository{db: db}
}

const weddingColumns = `id, owner_id, slug, title, plan, settings, created_at, updated_at`

// --- Wedding CRUD ---

// Create inserts a new wedding row.
func (r *weddingRepository) Create(ctx context.Context, wedding *Wedding) error {
	query := `INSERT INTO weddings (` + weddingColumns + `)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		wedding.ID, wedding.OwnerID, wedding.Slug, wedding.Title,
		string(wedding.Plan), wedding.Settings, wedding.CreatedAt, wedding.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting wedding: %w", err)
	}
	return nil
}

// FindByID retrieves a wedding by its UUID.
func (r *weddingRepository) FindByID(ctx context.Context, id string) (*Wedding, error) {
	query := `SELECT ` + weddingColumns + ` FROM weddings WHERE id = ?`
	return scanWedding(r.db.QueryRowContext(ctx, query, id))
}

// FindBySlug retrieves a wedding by its URL slug.
func (r *weddingRepository) FindBySlug(ctx context.Context, slug string) (*Wedding, error) {
	query := `SELECT ` + weddingColumns + ` FROM weddings WHERE slug = ?`
	return scanWedding(r.db.QueryRowContext(ctx, query, slug))
}

// ListByOwner returns all weddings owned by a user, newest first.
func (r *weddingRepository) ListByOwner(ctx context.Context, ownerID string) ([]Wedding, error) {
	query := `SELECT ` + weddingColumns + ` FROM weddings
	          WHERE owner_id = ? ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying weddings by owner: %w", err)
	}
	defer rows.Close()

	var weddings []Wedding
	for rows.Next() {
		var w Wedding
		var plan string
		if err := rows.Scan(&w.ID, &w.OwnerID, &w.Slug, &w.Title, &plan,
			&w.Settings, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning wedding row: %w", err)
		}
		w.Plan = Plan(plan)
		weddings = append(weddings, w)
	}
	return weddings, rows.Err()
}

// Update persists title and settings changes.
func (r *weddingRepository) Update(ctx context.Context, wedding *Wedding) error {
	query := `UPDATE weddings SET title = ?, settings = ?, updated_at = NOW() WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, wedding.Title, wedding.Settings, wedding.ID)
	if err != nil {
		return fmt.Errorf("updating wedding: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFound("wedding not found")
	}
	return nil
}

// UpdatePlan changes only the billing tier. Called by the billing flow.
func (r *weddingRepository) UpdatePlan(ctx context.Context, id string, plan Plan) error {
	query := `UPDATE weddings SET plan = ?, updated_at = NOW() WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, string(plan), id)
	if err != nil {
		return fmt.Errorf("updating wedding plan: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFound("wedding not found")
	}
	return nil
}

// SlugExists checks whether a slug is already taken.
func (r *weddingRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM weddings WHERE slug = ?`, slug).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking slug existence: %w", err)
	}
	return count > 0, nil
}

// scanWedding scans a single wedding row.
func scanWedding(row *sql.Row) (*Wedding, error) {
	w := &Wedding{}
	var plan string
	err := row.Scan(&w.ID, &w.OwnerID, &w.Slug, &w.Title, &plan,
		&w.Settings, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("wedding not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scanning wedding: %w", err)
	}
	w.Plan = Plan(plan)
	return w, nil
}

// --- Membership ---

// AddMember inserts a membership row.
func (r *weddingRepository) AddMember(ctx context.Context, member *Member) error {
	query := `INSERT INTO wedding_members (wedding_id, user_id, role, joined_at)
	          VALUES (?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		member.WeddingID, member.UserID, member.Role.String(), member.JoinedAt)
	if err != nil {
		return fmt.Errorf("inserting member: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership row.
func (r *weddingRepository) RemoveMember(ctx context.Context, weddingID, userID string) error {
	query := `DELETE FROM wedding_members WHERE wedding_id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, weddingID, userID)
	if err != nil {
		return fmt.Errorf("deleting member: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFound("member not found")
	}
	return nil
}

// FindMember retrieves a user's membership in a wedding.
func (r *weddingRepository) FindMember(ctx context.Context, weddingID, userID string) (*Member, error) {
	query := `SELECT wedding_id, user_id, role, joined_at
	          FROM wedding_members WHERE wedding_id = ? AND user_id = ?`

	m := &Member{}
	var role string
	err := r.db.QueryRowContext(ctx, query, weddingID, userID).Scan(
		&m.WeddingID, &m.UserID, &role, &m.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("member not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying member: %w", err)
	}
	m.Role = RoleFromString(role)
	return m, nil
}

// ListMembers returns all members of a wedding with display info joined
// from the users table.
func (r *weddingRepository) ListMembers(ctx context.Context, weddingID string) ([]Member, error) {
	query := `SELECT m.wedding_id, m.user_id, m.role, m.joined_at,
	                 u.email, u.first_name, u.last_name
	          FROM wedding_members m
	          JOIN users u ON u.id = m.user_id
	          WHERE m.wedding_id = ?
	          ORDER BY m.joined_at ASC`

	rows, err := r.db.QueryContext(ctx, query, weddingID)
	if err != nil {
		return nil, fmt.Errorf("querying members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		var role string
		if err := rows.Scan(&m.WeddingID, &m.UserID, &role, &m.JoinedAt,
			&m.Email, &m.FirstName, &m.LastName); err != nil {
			return nil, fmt.Errorf("scanning member row: %w", err)
		}
		m.Role = RoleFromString(role)
		members = append(members, m)
	}
	return members, rows.Err()
}

// UpdateMemberRole changes a member's role.
func (r *weddingRepository) UpdateMemberRole(ctx context.Context, weddingID, userID string, role Role) error {
	query := `UPDATE wedding_members SET role = ? WHERE wedding_id = ? AND user_id = ?`

	result, err := r.db.ExecContext(ctx, query, role.String(), weddingID, userID)
	if err != nil {
		return fmt.Errorf("updating member role: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFound("member not found")
	}
	return nil
}
