package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/farmersheaven/backend/models"
	"github.com/farmersheaven/backend/repositories"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const activityColumns = `id, record_by, user_id, category, sub_category, action_type, action_on, db_table,
	change_fields, previous_data, new_data, ip_address, user_agent, request_id, timestamp`

// ActivityRepository implements the repositories.ActivityRepository interface.
// It may run against a dedicated activity database.
type ActivityRepository struct {
	db     *DB
	tx     repositories.Transaction
	logger *zap.Logger
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *DB, logger *zap.Logger) repositories.ActivityRepository {
	return &ActivityRepository{db: db, logger: logger}
}

func (r *ActivityRepository) exec(ctx context.Context) Executor {
	return boundExecutor(ctx, r.db, r.tx)
}

// jsonArg maps an empty payload to SQL NULL
func jsonArg(data json.RawMessage) interface{} {
	if len(data) == 0 {
		return nil
	}
	return []byte(data)
}

func scanActivity(row rowScanner) (*models.ActivityLog, error) {
	log := &models.ActivityLog{}
	var fields pq.StringArray
	var previous, next []byte
	err := row.Scan(
		&log.ID,
		&log.RecordBy,
		&log.UserID,
		&log.Category,
		&log.SubCategory,
		&log.ActionType,
		&log.ActionOn,
		&log.DBTable,
		&fields,
		&previous,
		&next,
		&log.IPAddress,
		&log.UserAgent,
		&log.RequestID,
		&log.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	log.ChangeFields = []string(fields)
	if log.ChangeFields == nil {
		log.ChangeFields = []string{}
	}
	if len(previous) > 0 {
		log.PreviousData = append(json.RawMessage(nil), previous...)
	}
	if len(next) > 0 {
		log.NewData = append(json.RawMessage(nil), next...)
	}
	return log, nil
}

// Insert inserts a new activity log entry
func (r *ActivityRepository) Insert(ctx context.Context, log *models.ActivityLog) error {
	query := `INSERT INTO activity_logs (` + activityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.exec(ctx).ExecContext(ctx, query,
		log.ID,
		log.RecordBy,
		log.UserID,
		log.Category,
		log.SubCategory,
		log.ActionType,
		log.ActionOn,
		log.DBTable,
		pq.Array(log.ChangeFields),
		jsonArg(log.PreviousData),
		jsonArg(log.NewData),
		log.IPAddress,
		log.UserAgent,
		log.RequestID,
		log.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity log: %w", err)
	}

	r.logger.Debug("activity log inserted", zap.String("id", log.ID.String()), zap.String("action", string(log.ActionType)))
	return nil
}

// GetByID retrieves an activity log by ID
func (r *ActivityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ActivityLog, error) {
	query := `SELECT ` + activityColumns + ` FROM activity_logs WHERE id = $1`

	log, err := scanActivity(r.exec(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError(err, "failed to get activity log %s", id)
	}
	return log, nil
}

// List retrieves activity logs matching the filter, newest first
func (r *ActivityRepository) List(ctx context.Context, filter models.ActivityFilter) ([]*models.ActivityLog, error) {
	clauses := []string{"1=1"}
	args := []interface{}{}
	if filter.Category != "" {
		args = append(args, filter.Category)
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.ActionType != "" {
		args = append(args, filter.ActionType)
		clauses = append(clauses, fmt.Sprintf("action_type = $%d", len(args)))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		clauses = append(clauses, fmt.Sprintf("timestamp >= $%d", len(args)))
	}

	limit, offset := page(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM activity_logs WHERE %s ORDER BY timestamp DESC LIMIT $%d OFFSET $%d`,
		activityColumns, strings.Join(clauses, " AND "), len(args)+1, len(args)+2)

	rows, err := r.exec(ctx).QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*models.ActivityLog, 0)
	for rows.Next() {
		log, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity log: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity logs: %w", err)
	}
	return logs, nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *ActivityRepository) WithTx(tx repositories.Transaction) repositories.ActivityRepository {
	return &ActivityRepository{db: r.db, tx: tx, logger: r.logger}
}
