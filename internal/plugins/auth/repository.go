package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/ouisite/ouisite/internal/apperror"
)

// mysqlDupEntry is MySQL error 1062 (ER_DUP_ENTRY), raised when an insert
// violates a unique index.
const mysqlDupEntry = 1062

// UserRepository defines the data access contract for user records.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// TokenRepository defines the data access contract for one-time tokens.
// The consume operations are transactional units: a crash can never leave a
// verified user with a reusable token, or a consumed token with an
// unapplied effect.
type TokenRepository interface {
	// Issue inserts a new token and, in the same transaction, revokes any
	// prior unconsumed tokens of the same type for the same user, so only
	// one link of each kind is live at a time.
	Issue(ctx context.Context, token *AuthToken) error

	// FindValid returns the unconsumed, unexpired token with this hash and
	// type. Returns a not-found error for unknown, consumed, expired, or
	// wrong-type hashes alike.
	FindValid(ctx context.Context, tokenHash string, tokenType TokenType) (*AuthToken, error)

	// ConsumeAndVerifyEmail atomically consumes a valid email_verification
	// token and stamps the owner's email_verified_at. The consumption is a
	// single conditional UPDATE, so of two concurrent presentations of the
	// same raw token at most one succeeds. Returns the verified user's ID.
	ConsumeAndVerifyEmail(ctx context.Context, tokenHash string) (string, error)

	// ConsumeAndSetPassword atomically consumes a valid password_reset
	// token and overwrites the owner's password hash. Returns the user's ID.
	ConsumeAndSetPassword(ctx context.Context, tokenHash, passwordHash string) (string, error)
}

// --- MySQL implementations ---

// userRepository implements UserRepository with hand-written MySQL queries.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository backed by the given DB pool.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, first_name, last_name, password_hash,
	email_verified_at, is_admin, created_at, updated_at`

// Create inserts a new user row into the users table.
func (r *userRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (id, email, first_name, last_name, password_hash, is_admin, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.IsAdmin,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		// The signup flow pre-checks the email, but two concurrent signups
		// can both pass that check. The unique index on email is the
		// arbiter; its verdict maps to the same 400 the pre-check gives.
		if isDuplicateEntry(err) {
			return apperror.NewBadRequest("email already in use")
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// isDuplicateEntry reports whether err is a MySQL unique-constraint
// violation.
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDupEntry
}

// FindByID retrieves a user by their UUID.
// Returns a not-found error if no user exists with this ID.
func (r *userRepository) FindByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// FindByEmail retrieves a user by their email address. Emails are stored
// lowercased, so callers must normalize before lookup.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// EmailExists returns true if a user with the given email already exists.
// Used during signup to check for duplicates before hashing the password.
func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}

	return exists, nil
}

// scanUser scans a single user row.
func scanUser(row *sql.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.EmailVerifiedAt,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return user, nil
}

// tokenRepository implements TokenRepository with hand-written MySQL queries.
type tokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new token repository backed by the given DB pool.
func NewTokenRepository(db *sql.DB) TokenRepository {
	return &tokenRepository{db: db}
}

// Issue revokes prior unconsumed tokens of the same type and inserts the
// new one, in one transaction.
func (r *tokenRepository) Issue(ctx context.Context, token *AuthToken) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	revoke := `UPDATE auth_tokens SET used_at = NOW()
	           WHERE user_id = ? AND type = ? AND used_at IS NULL`
	if _, err := tx.ExecContext(ctx, revoke, token.UserID, token.Type); err != nil {
		return fmt.Errorf("revoking prior tokens: %w", err)
	}

	insert := `INSERT INTO auth_tokens (id, user_id, token_hash, type, expires_at, created_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insert,
		token.ID, token.UserID, token.TokenHash, token.Type, token.ExpiresAt, token.CreatedAt,
	); err != nil {
		return fmt.Errorf("inserting token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing token issue: %w", err)
	}
	return nil
}

// FindValid returns the live token with this hash and type, if any.
func (r *tokenRepository) FindValid(ctx context.Context, tokenHash string, tokenType TokenType) (*AuthToken, error) {
	query := `SELECT id, user_id, token_hash, type, expires_at, used_at, created_at
	          FROM auth_tokens
	          WHERE token_hash = ? AND type = ? AND used_at IS NULL AND expires_at > NOW()`

	token := &AuthToken{}
	err := r.db.QueryRowContext(ctx, query, tokenHash, tokenType).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.Type,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("token not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying token: %w", err)
	}

	return token, nil
}

// ConsumeAndVerifyEmail consumes a valid verification token and marks the
// owner verified, as one transaction.
func (r *tokenRepository) ConsumeAndVerifyEmail(ctx context.Context, tokenHash string) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	userID, err := consumeToken(ctx, tx, tokenHash, TokenTypeEmailVerification)
	if err != nil {
		return "", err
	}

	// email_verified_at is set exactly once; a token issued before an
	// earlier verification completes must not move the timestamp.
	verify := `UPDATE users SET email_verified_at = NOW(), updated_at = NOW()
	           WHERE id = ? AND email_verified_at IS NULL`
	if _, err := tx.ExecContext(ctx, verify, userID); err != nil {
		return "", fmt.Errorf("marking user verified: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing verification: %w", err)
	}
	return userID, nil
}

// ConsumeAndSetPassword consumes a valid reset token and overwrites the
// owner's password hash, as one transaction.
func (r *tokenRepository) ConsumeAndSetPassword(ctx context.Context, tokenHash, passwordHash string) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	userID, err := consumeToken(ctx, tx, tokenHash, TokenTypePasswordReset)
	if err != nil {
		return "", err
	}

	update := `UPDATE users SET password_hash = ?, updated_at = NOW() WHERE id = ?`
	if _, err := tx.ExecContext(ctx, update, passwordHash, userID); err != nil {
		return "", fmt.Errorf("updating password: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing password reset: %w", err)
	}
	return userID, nil
}

// consumeToken marks a token used with a single conditional UPDATE. The
// WHERE clause re-checks validity inside the write, so a concurrent second
// presentation of the same raw token observes zero affected rows instead of
// double-consuming (no check-then-set race).
func consumeToken(ctx context.Context, tx *sql.Tx, tokenHash string, tokenType TokenType) (string, error) {
	consume := `UPDATE auth_tokens SET used_at = NOW()
	            WHERE token_hash = ? AND type = ? AND used_at IS NULL AND expires_at > NOW()`

	result, err := tx.ExecContext(ctx, consume, tokenHash, tokenType)
	if err != nil {
		return "", fmt.Errorf("consuming token: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return "", apperror.NewNotFound("token not found")
	}

	var userID string
	query := `SELECT user_id FROM auth_tokens WHERE token_hash = ?`
	if err := tx.QueryRowContext(ctx, query, tokenHash).Scan(&userID); err != nil {
		return "", fmt.Errorf("reading token owner: %w", err)
	}
	return userID, nil
}
