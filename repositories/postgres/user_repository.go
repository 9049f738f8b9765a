package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/farmersheaven/backend/models"
	"github.com/farmersheaven/backend/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const userColumns = `id, username, email, mobile, first_name, middle_name, last_name, password_hash,
	is_superuser, is_staff, is_active, is_separated, date_joined, last_login, updated_at`

// UserRepository implements the repositories.UserRepository interface
type UserRepository struct {
	db     *DB
	tx     repositories.Transaction
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB, logger *zap.Logger) repositories.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var lastLogin sql.NullTime
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Mobile,
		&user.FirstName,
		&user.MiddleName,
		&user.LastName,
		&user.PasswordHash,
		&user.IsSuperUser,
		&user.IsStaff,
		&user.IsActive,
		&user.IsSeparated,
		&user.DateJoined,
		&lastLogin,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	return user, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, mobile, first_name, middle_name, last_name, password_hash,
			is_superuser, is_staff, is_active, is_separated, date_joined, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.exec(ctx).ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.Mobile,
		user.FirstName,
		user.MiddleName,
		user.LastName,
		user.PasswordHash,
		user.IsSuperUser,
		user.IsStaff,
		user.IsActive,
		user.IsSeparated,
		user.DateJoined,
		user.UpdatedAt,
	)
	if err != nil {
		return translateError(err, "failed to create user")
	}

	r.logger.Debug("user created", zap.String("id", user.ID.String()), zap.String("username", user.Username))
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.exec(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError(err, "failed to get user %s", id)
	}
	return user, nil
}

// FindActiveByEmail retrieves an active user by email
func (r *UserRepository) FindActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findActive(ctx, "LOWER(email) = LOWER($1)", strings.TrimSpace(email))
}

// FindActiveByUsername retrieves an active user by username
func (r *UserRepository) FindActiveByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findActive(ctx, "LOWER(username) = LOWER($1)", strings.TrimSpace(username))
}

// FindActiveByMobile retrieves an active user by mobile number
func (r *UserRepository) FindActiveByMobile(ctx context.Context, mobile string) (*models.User, error) {
	return r.findActive(ctx, "mobile = $1", strings.TrimSpace(mobile))
}

func (r *UserRepository) findActive(ctx context.Context, where, value string) (*models.User, error) {
	if value == "" {
		return nil, fmt.Errorf("empty lookup value: %w", repositories.ErrNotFound)
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` AND is_active = true
		ORDER BY date_joined ASC LIMIT 1`

	user, err := scanUser(r.exec(ctx).QueryRowContext(ctx, query, value))
	if err != nil {
		return nil, translateError(err, "failed to find user")
	}
	return user, nil
}

// List retrieves users ordered by join date with a total count
func (r *UserRepository) List(ctx context.Context, search string, limit, offset int) ([]*models.User, int, error) {
	limit, offset = page(limit, offset)
	pattern := "%" + strings.TrimSpace(search) + "%"
	where := `($1 = '%%' OR username ILIKE $1 OR email ILIKE $1 OR mobile ILIKE $1 OR first_name ILIKE $1 OR last_name ILIKE $1)`

	executor := r.exec(ctx)

	var total int
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE `+where, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + `
		ORDER BY date_joined DESC LIMIT $2 OFFSET $3`
	rows, err := executor.QueryContext(ctx, query, pattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating users: %w", err)
	}
	return users, total, nil
}

// Update updates a user's profile and flags
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET username = $2, email = $3, mobile = $4, first_name = $5, middle_name = $6, last_name = $7,
			is_superuser = $8, is_staff = $9, is_active = $10, is_separated = $11, updated_at = $12
		WHERE id = $1
	`

	user.UpdatedAt = time.Now()
	result, err := r.exec(ctx).ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.Mobile,
		user.FirstName,
		user.MiddleName,
		user.LastName,
		user.IsSuperUser,
		user.IsStaff,
		user.IsActive,
		user.IsSeparated,
		user.UpdatedAt,
	)
	if err != nil {
		return translateError(err, "failed to update user")
	}
	return expectAffected(result, "user %s", user.ID)
}

// SetPassword replaces the password hash
func (r *UserRepository) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`

	result, err := r.exec(ctx).ExecContext(ctx, query, id, passwordHash, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}
	return expectAffected(result, "user %s", id)
}

// TouchLastLogin records a successful sign in
func (r *UserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE users SET last_login = $2 WHERE id = $1`

	if _, err := r.exec(ctx).ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// Delete deletes a user
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.exec(ctx).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if err := expectAffected(result, "user %s", id); err != nil {
		return err
	}

	r.logger.Debug("user deleted", zap.String("id", id.String()))
	return nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *UserRepository) WithTx(tx repositories.Transaction) repositories.UserRepository {
	return &UserRepository{
		db:     r.db,
		tx:     tx,
		logger: r.logger,
	}
}

func (r *UserRepository) exec(ctx context.Context) Executor {
	return boundExecutor(ctx, r.db, r.tx)
}
