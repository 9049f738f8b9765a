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

const documentColumns = `id, name, model, path, content_type, size, created_by, created_at, updated_at`

// DocumentRepository implements the repositories.DocumentRepository interface
type DocumentRepository struct {
	db     *DB
	tx     repositories.Transaction
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *DB, logger *zap.Logger) repositories.DocumentRepository {
	return &DocumentRepository{db: db, logger: logger}
}

func (r *DocumentRepository) exec(ctx context.Context) Executor {
	return boundExecutor(ctx, r.db, r.tx)
}

func scanDocument(row rowScanner) (*models.UploadedDocument, error) {
	d := &models.UploadedDocument{}
	if err := row.Scan(&d.ID, &d.Name, &d.Model, &d.Path, &d.ContentType, &d.Size, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return d, nil
}

// Create stores document metadata
func (r *DocumentRepository) Create(ctx context.Context, d *models.UploadedDocument) error {
	query := `INSERT INTO uploaded_documents (` + documentColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.exec(ctx).ExecContext(ctx, query,
		d.ID, d.Name, d.Model, d.Path, d.ContentType, d.Size, d.CreatedBy, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return translateError(err, "failed to create document")
	}

	r.logger.Debug("document created", zap.String("id", d.ID.String()), zap.String("path", d.Path))
	return nil
}

// GetByID retrieves document metadata by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UploadedDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM uploaded_documents WHERE id = $1`

	d, err := scanDocument(r.exec(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError(err, "failed to get document %s", id)
	}
	return d, nil
}

// GetByPath retrieves document metadata by storage path
func (r *DocumentRepository) GetByPath(ctx context.Context, path string) (*models.UploadedDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM uploaded_documents WHERE path = $1`

	d, err := scanDocument(r.exec(ctx).QueryRowContext(ctx, query, path))
	if err != nil {
		return nil, translateError(err, "failed to get document at %s", path)
	}
	return d, nil
}

// List retrieves documents newest first, optionally for one model
func (r *DocumentRepository) List(ctx context.Context, model string, limit, offset int) ([]*models.UploadedDocument, int, error) {
	limit, offset = page(limit, offset)
	executor := r.exec(ctx)

	var total int
	if err := executor.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM uploaded_documents WHERE ($1 = '' OR model = $1)`, model).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	query := `SELECT ` + documentColumns + ` FROM uploaded_documents WHERE ($1 = '' OR model = $1)
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := executor.QueryContext(ctx, query, model, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]*models.UploadedDocument, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating documents: %w", err)
	}
	return docs, total, nil
}

// Update updates the mutable metadata of a document
func (r *DocumentRepository) Update(ctx context.Context, d *models.UploadedDocument) error {
	query := `UPDATE uploaded_documents SET name = $2, model = $3, updated_at = $4 WHERE id = $1`

	d.UpdatedAt = time.Now()
	result, err := r.exec(ctx).ExecContext(ctx, query, d.ID, d.Name, d.Model, d.UpdatedAt)
	if err != nil {
		return translateError(err, "failed to update document")
	}
	return expectAffected(result, "document %s", d.ID)
}

// Delete removes document metadata
func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.exec(ctx).ExecContext(ctx, `DELETE FROM uploaded_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return expectAffected(result, "document %s", id)
}

// WithTx returns a new repository instance bound to the transaction
func (r *DocumentRepository) WithTx(tx repositories.Transaction) repositories.DocumentRepository {
	return &DocumentRepository{db: r.db, tx: tx, logger: r.logger}
}
