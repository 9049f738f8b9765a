package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/farmersheaven/backend/models"
	"github.com/farmersheaven/backend/repositories"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const productColumns = `id, name, description, category_id, images, price, stock, is_active, created_by, created_at, updated_at`

// ProductRepository implements the repositories.ProductRepository interface
type ProductRepository struct {
	db     *DB
	tx     repositories.Transaction
	logger *zap.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *DB, logger *zap.Logger) repositories.ProductRepository {
	return &ProductRepository{db: db, logger: logger}
}

func (r *ProductRepository) exec(ctx context.Context) Executor {
	return boundExecutor(ctx, r.db, r.tx)
}

func scanProduct(row rowScanner) (*models.Product, error) {
	p := &models.Product{}
	var images pq.StringArray
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.CategoryID,
		&images,
		&p.Price,
		&p.Stock,
		&p.IsActive,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Images = []string(images)
	if p.Images == nil {
		p.Images = []string{}
	}
	return p, nil
}

// Create creates a new product
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	query := `INSERT INTO products (` + productColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.exec(ctx).ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.CategoryID,
		pq.Array(p.Images),
		p.Price,
		p.Stock,
		p.IsActive,
		p.CreatedBy,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return translateError(err, "failed to create product")
	}

	r.logger.Debug("product created", zap.String("id", p.ID.String()), zap.String("name", p.Name))
	return nil
}

// GetByID retrieves a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.exec(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError(err, "failed to get product %s", id)
	}
	return p, nil
}

// List retrieves products ordered by name
func (r *ProductRepository) List(ctx context.Context, filter models.ProductFilter) ([]*models.Product, int, error) {
	clauses := []string{"1=1"}
	args := []interface{}{}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		clauses = append(clauses, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id = $%d", len(args)))
	}
	where := strings.Join(clauses, " AND ")

	executor := r.exec(ctx)

	var total int
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	limit, offset := page(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM products WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)+1, len(args)+2)
	rows, err := executor.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]*models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}
	return products, total, nil
}

// Update updates a product
func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, category_id = $4, images = $5, price = $6, stock = $7, is_active = $8, updated_at = $9
		WHERE id = $1
	`

	p.UpdatedAt = time.Now()
	result, err := r.exec(ctx).ExecContext(ctx, query,
		p.ID, p.Name, p.Description, p.CategoryID, pq.Array(p.Images), p.Price, p.Stock, p.IsActive, p.UpdatedAt)
	if err != nil {
		return translateError(err, "failed to update product")
	}
	return expectAffected(result, "product %s", p.ID)
}

// Delete deletes a product
func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.exec(ctx).ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return expectAffected(result, "product %s", id)
}

// ListActiveSettings retrieves active dynamic settings under parentID, or the roots when nil
func (r *ProductRepository) ListActiveSettings(ctx context.Context, parentID *uuid.UUID) ([]*models.DynamicSetting, error) {
	query := `SELECT id, name, parent_id, is_active, created_at FROM dynamic_settings
		WHERE is_active = true AND parent_id IS NULL ORDER BY name`
	args := []interface{}{}
	if parentID != nil {
		query = `SELECT id, name, parent_id, is_active, created_at FROM dynamic_settings
			WHERE is_active = true AND parent_id = $1 ORDER BY name`
		args = append(args, *parentID)
	}

	rows, err := r.exec(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	settings := make([]*models.DynamicSetting, 0)
	for rows.Next() {
		s := &models.DynamicSetting{}
		if err := rows.Scan(&s.ID, &s.Name, &s.ParentID, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings = append(settings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings: %w", err)
	}
	return settings, nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *ProductRepository) WithTx(tx repositories.Transaction) repositories.ProductRepository {
	return &ProductRepository{db: r.db, tx: tx, logger: r.logger}
}
