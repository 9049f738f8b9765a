package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/farmersheaven/backend/models"
	"github.com/farmersheaven/backend/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const otpColumns = `id, mobile, otp, counter, resend_counter, is_active, created_at, updated_at`

// OTPRepository implements the repositories.OTPRepository interface
type OTPRepository struct {
	db     *DB
	tx     repositories.Transaction
	logger *zap.Logger
}

// NewOTPRepository creates a new OTP repository
func NewOTPRepository(db *DB, logger *zap.Logger) repositories.OTPRepository {
	return &OTPRepository{db: db, logger: logger}
}

func (r *OTPRepository) exec(ctx context.Context) Executor {
	return boundExecutor(ctx, r.db, r.tx)
}

func scanOTP(row rowScanner) (*models.OTPLogin, error) {
	otp := &models.OTPLogin{}
	err := row.Scan(
		&otp.ID,
		&otp.Mobile,
		&otp.OTP,
		&otp.Counter,
		&otp.ResendCounter,
		&otp.IsActive,
		&otp.CreatedAt,
		&otp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return otp, nil
}

// GetLatest retrieves the most recently updated record for a mobile number
func (r *OTPRepository) GetLatest(ctx context.Context, mobile string) (*models.OTPLogin, error) {
	query := `SELECT ` + otpColumns + ` FROM otp_logins WHERE mobile = $1 ORDER BY updated_at DESC LIMIT 1`

	otp, err := scanOTP(r.exec(ctx).QueryRowContext(ctx, query, mobile))
	if err != nil {
		return nil, translateError(err, "failed to get otp for %s", mobile)
	}
	return otp, nil
}

// GetActive retrieves the active record matching mobile and code
func (r *OTPRepository) GetActive(ctx context.Context, mobile, code string) (*models.OTPLogin, error) {
	query := `SELECT ` + otpColumns + ` FROM otp_logins
		WHERE mobile = $1 AND otp = $2 AND is_active = true
		ORDER BY updated_at DESC LIMIT 1`

	otp, err := scanOTP(r.exec(ctx).QueryRowContext(ctx, query, mobile, code))
	if err != nil {
		return nil, translateError(err, "failed to get active otp")
	}
	return otp, nil
}

// Upsert creates or updates a record
func (r *OTPRepository) Upsert(ctx context.Context, otp *models.OTPLogin) error {
	query := `
		INSERT INTO otp_logins (id, mobile, otp, counter, resend_counter, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			otp = EXCLUDED.otp,
			counter = EXCLUDED.counter,
			resend_counter = EXCLUDED.resend_counter,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.exec(ctx).ExecContext(ctx, query,
		otp.ID,
		otp.Mobile,
		otp.OTP,
		otp.Counter,
		otp.ResendCounter,
		otp.IsActive,
		otp.CreatedAt,
		otp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save otp: %w", err)
	}
	return nil
}

// Deactivate marks a record as used
func (r *OTPRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE otp_logins SET is_active = false, updated_at = $2 WHERE id = $1`

	result, err := r.exec(ctx).ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to deactivate otp: %w", err)
	}
	return expectAffected(result, "otp %s", id)
}

// PurgeBefore removes records for mobile last updated before the given time
func (r *OTPRepository) PurgeBefore(ctx context.Context, mobile string, before time.Time) error {
	query := `DELETE FROM otp_logins WHERE mobile = $1 AND updated_at < $2`

	result, err := r.exec(ctx).ExecContext(ctx, query, mobile, before)
	if err != nil {
		return fmt.Errorf("failed to purge otps: %w", err)
	}
	if n, _ := result.RowsAffected(); n > 0 {
		r.logger.Debug("purged stale otps", zap.String("mobile", mobile), zap.Int64("count", n))
	}
	return nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *OTPRepository) WithTx(tx repositories.Transaction) repositories.OTPRepository {
	return &OTPRepository{db: r.db, tx: tx, logger: r.logger}
}
