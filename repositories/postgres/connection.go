package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/farmersheaven/backend/config"
	"github.com/farmersheaven/backend/repositories"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return Wrap(db, logger), nil
}

// Wrap adopts an existing pool
func Wrap(db *sql.DB, logger *zap.Logger) *DB {
	return &DB{DB: db, logger: logger}
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// InitSchema creates the application tables when they do not exist
func (db *DB) InitSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema+activitySchema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}

// InitActivitySchema creates only the activity log table, without foreign
// keys. Used when activity logs live in a separate database.
func (db *DB) InitActivitySchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, activitySchema); err != nil {
		return fmt.Errorf("failed to initialize activity schema: %w", err)
	}
	db.logger.Info("activity schema initialized successfully")
	return nil
}

const schema = `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username VARCHAR(150) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL DEFAULT '',
		mobile VARCHAR(20) NOT NULL DEFAULT '',
		first_name VARCHAR(150) NOT NULL DEFAULT '',
		middle_name VARCHAR(150) NOT NULL DEFAULT '',
		last_name VARCHAR(150) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL DEFAULT '',
		is_superuser BOOLEAN NOT NULL DEFAULT false,
		is_staff BOOLEAN NOT NULL DEFAULT false,
		is_active BOOLEAN NOT NULL DEFAULT true,
		is_separated BOOLEAN NOT NULL DEFAULT false,
		date_joined TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_login TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS otp_logins (
		id UUID PRIMARY KEY,
		mobile VARCHAR(20) NOT NULL,
		otp VARCHAR(10) NOT NULL,
		counter INTEGER NOT NULL DEFAULT 25,
		resend_counter INTEGER NOT NULL DEFAULT 25,
		is_active BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS countries (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE,
		country_code VARCHAR(10) NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT true,
		created_by UUID REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS states (
		id UUID PRIMARY KEY,
		country_id UUID NOT NULL REFERENCES countries(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		state_code VARCHAR(10) NOT NULL DEFAULT '',
		is_territorial BOOLEAN NOT NULL DEFAULT false,
		is_active BOOLEAN NOT NULL DEFAULT true,
		created_by UUID REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(country_id, name)
	);

	CREATE TABLE IF NOT EXISTS cities (
		id UUID PRIMARY KEY,
		state_id UUID NOT NULL REFERENCES states(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT true,
		created_by UUID REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(state_id, name)
	);

	CREATE TABLE IF NOT EXISTS dynamic_settings (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		parent_id UUID REFERENCES dynamic_settings(id) ON DELETE CASCADE,
		is_active BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category_id UUID REFERENCES dynamic_settings(id) ON DELETE SET NULL,
		images TEXT[] NOT NULL DEFAULT '{}',
		price NUMERIC(12, 2) NOT NULL DEFAULT 0,
		stock INTEGER NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT true,
		created_by UUID REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS uploaded_documents (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		model VARCHAR(100) NOT NULL,
		path VARCHAR(1024) NOT NULL UNIQUE,
		content_type VARCHAR(255) NOT NULL DEFAULT '',
		size BIGINT NOT NULL DEFAULT 0,
		created_by UUID REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));
	CREATE INDEX IF NOT EXISTS idx_users_mobile ON users(mobile);
	CREATE INDEX IF NOT EXISTS idx_otp_logins_mobile ON otp_logins(mobile);
	CREATE INDEX IF NOT EXISTS idx_states_country_id ON states(country_id);
	CREATE INDEX IF NOT EXISTS idx_cities_state_id ON cities(state_id);
	CREATE INDEX IF NOT EXISTS idx_products_category_id ON products(category_id);
	CREATE INDEX IF NOT EXISTS idx_uploaded_documents_model ON uploaded_documents(model);
`

const activitySchema = `
	CREATE TABLE IF NOT EXISTS activity_logs (
		id UUID PRIMARY KEY,
		record_by UUID,
		user_id UUID,
		category VARCHAR(100) NOT NULL,
		sub_category VARCHAR(100) NOT NULL DEFAULT '',
		action_type VARCHAR(50) NOT NULL,
		action_on VARCHAR(255) NOT NULL DEFAULT '',
		db_table VARCHAR(100) NOT NULL DEFAULT '',
		change_fields TEXT[] NOT NULL DEFAULT '{}',
		previous_data JSONB,
		new_data JSONB,
		ip_address VARCHAR(45),
		user_agent TEXT,
		request_id VARCHAR(255),
		timestamp TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_activity_logs_category ON activity_logs(category);
	CREATE INDEX IF NOT EXISTS idx_activity_logs_user_id ON activity_logs(user_id);
	CREATE INDEX IF NOT EXISTS idx_activity_logs_timestamp ON activity_logs(timestamp);
`

// uniqueViolation is the PostgreSQL error code for unique_violation
const uniqueViolation = "23505"

// translateError maps driver errors to repository sentinels
func translateError(err error, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", msg, repositories.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", msg, repositories.ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// expectAffected returns ErrNotFound when a statement touched no rows
func expectAffected(result sql.Result, format string, args ...interface{}) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), repositories.ErrNotFound)
	}
	return nil
}

// page clamps pagination arguments
func page(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
