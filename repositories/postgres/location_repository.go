package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/farmersheaven/backend/models"
	"github.com/farmersheaven/backend/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LocationRepository implements the repositories.LocationRepository interface
type LocationRepository struct {
	db     *DB
	tx     repositories.Transaction
	logger *zap.Logger
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(db *DB, logger *zap.Logger) repositories.LocationRepository {
	return &LocationRepository{db: db, logger: logger}
}

func (r *LocationRepository) exec(ctx context.Context) Executor {
	return boundExecutor(ctx, r.db, r.tx)
}

// locationWhere builds the shared filter clause. parentColumn is empty for countries.
func locationWhere(filter models.LocationFilter, parentColumn string) (string, []interface{}) {
	clauses := []string{"1=1"}
	args := []interface{}{}

	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		clauses = append(clauses, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		clauses = append(clauses, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if parentColumn != "" && filter.ParentID != nil {
		args = append(args, *filter.ParentID)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", parentColumn, len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func (r *LocationRepository) count(ctx context.Context, table, where string, args []interface{}) (int, error) {
	var total int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, table, where)
	if err := r.exec(ctx).QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return total, nil
}

// Countries

const countryColumns = `id, name, country_code, is_active, created_by, created_at, updated_at`

func scanCountry(row rowScanner) (*models.Country, error) {
	c := &models.Country{}
	if err := row.Scan(&c.ID, &c.Name, &c.CountryCode, &c.IsActive, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateCountry creates a new country
func (r *LocationRepository) CreateCountry(ctx context.Context, c *models.Country) error {
	query := `INSERT INTO countries (` + countryColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx).ExecContext(ctx, query, c.ID, c.Name, c.CountryCode, c.IsActive, c.CreatedBy, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return translateError(err, "failed to create country")
	}
	r.logger.Debug("country created", zap.String("id", c.ID.String()), zap.String("name", c.Name))
	return nil
}

// GetCountry retrieves a country by ID
func (r *LocationRepository) GetCountry(ctx context.Context, id uuid.UUID) (*models.Country, error) {
	query := `SELECT ` + countryColumns + ` FROM countries WHERE id = $1`

	c, err := scanCountry(r.exec(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError(err, "failed to get country %s", id)
	}
	return c, nil
}

// ListCountries retrieves countries ordered by name
func (r *LocationRepository) ListCountries(ctx context.Context, filter models.LocationFilter) ([]*models.Country, int, error) {
	where, args := locationWhere(filter, "")
	total, err := r.count(ctx, "countries", where, args)
	if err != nil {
		return nil, 0, err
	}

	limit, offset := page(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM countries WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		countryColumns, where, len(args)+1, len(args)+2)
	rows, err := r.exec(ctx).QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list countries: %w", err)
	}
	defer rows.Close()

	countries := make([]*models.Country, 0)
	for rows.Next() {
		c, err := scanCountry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan country: %w", err)
		}
		countries = append(countries, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating countries: %w", err)
	}
	return countries, total, nil
}

// UpdateCountry updates a country
func (r *LocationRepository) UpdateCountry(ctx context.Context, c *models.Country) error {
	query := `UPDATE countries SET name = $2, country_code = $3, is_active = $4, updated_at = $5 WHERE id = $1`

	c.UpdatedAt = time.Now()
	result, err := r.exec(ctx).ExecContext(ctx, query, c.ID, c.Name, c.CountryCode, c.IsActive, c.UpdatedAt)
	if err != nil {
		return translateError(err, "failed to update country")
	}
	return expectAffected(result, "country %s", c.ID)
}

// States

const stateColumns = `id, country_id, name, state_code, is_territorial, is_active, created_by, created_at, updated_at`

func scanState(row rowScanner) (*models.State, error) {
	s := &models.State{}
	if err := row.Scan(&s.ID, &s.CountryID, &s.Name, &s.StateCode, &s.IsTerritorial, &s.IsActive, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

// CreateState creates a new state
func (r *LocationRepository) CreateState(ctx context.Context, s *models.State) error {
	query := `INSERT INTO states (` + stateColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.exec(ctx).ExecContext(ctx, query,
		s.ID, s.CountryID, s.Name, s.StateCode, s.IsTerritorial, s.IsActive, s.CreatedBy, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return translateError(err, "failed to create state")
	}
	return nil
}

// GetState retrieves a state by ID
func (r *LocationRepository) GetState(ctx context.Context, id uuid.UUID) (*models.State, error) {
	query := `SELECT ` + stateColumns + ` FROM states WHERE id = $1`

	s, err := scanState(r.exec(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError(err, "failed to get state %s", id)
	}
	return s, nil
}

// ListStates retrieves states ordered by name, optionally within a country
func (r *LocationRepository) ListStates(ctx context.Context, filter models.LocationFilter) ([]*models.State, int, error) {
	where, args := locationWhere(filter, "country_id")
	total, err := r.count(ctx, "states", where, args)
	if err != nil {
		return nil, 0, err
	}

	limit, offset := page(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM states WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		stateColumns, where, len(args)+1, len(args)+2)
	rows, err := r.exec(ctx).QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list states: %w", err)
	}
	defer rows.Close()

	states := make([]*models.State, 0)
	for rows.Next() {
		s, err := scanState(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan state: %w", err)
		}
		states = append(states, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating states: %w", err)
	}
	return states, total, nil
}

// UpdateState updates a state
func (r *LocationRepository) UpdateState(ctx context.Context, s *models.State) error {
	query := `UPDATE states SET country_id = $2, name = $3, state_code = $4, is_territorial = $5, is_active = $6, updated_at = $7
		WHERE id = $1`

	s.UpdatedAt = time.Now()
	result, err := r.exec(ctx).ExecContext(ctx, query, s.ID, s.CountryID, s.Name, s.StateCode, s.IsTerritorial, s.IsActive, s.UpdatedAt)
	if err != nil {
		return translateError(err, "failed to update state")
	}
	return expectAffected(result, "state %s", s.ID)
}

// Cities

const cityColumns = `id, state_id, name, is_active, created_by, created_at, updated_at`

func scanCity(row rowScanner) (*models.City, error) {
	c := &models.City{}
	if err := row.Scan(&c.ID, &c.StateID, &c.Name, &c.IsActive, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateCity creates a new city
func (r *LocationRepository) CreateCity(ctx context.Context, c *models.City) error {
	query := `INSERT INTO cities (` + cityColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx).ExecContext(ctx, query, c.ID, c.StateID, c.Name, c.IsActive, c.CreatedBy, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return translateError(err, "failed to create city")
	}
	return nil
}

// GetCity retrieves a city by ID
func (r *LocationRepository) GetCity(ctx context.Context, id uuid.UUID) (*models.City, error) {
	query := `SELECT ` + cityColumns + ` FROM cities WHERE id = $1`

	c, err := scanCity(r.exec(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translateError(err, "failed to get city %s", id)
	}
	return c, nil
}

// ListCities retrieves cities ordered by name, optionally within a state
func (r *LocationRepository) ListCities(ctx context.Context, filter models.LocationFilter) ([]*models.City, int, error) {
	where, args := locationWhere(filter, "state_id")
	total, err := r.count(ctx, "cities", where, args)
	if err != nil {
		return nil, 0, err
	}

	limit, offset := page(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM cities WHERE %s ORDER BY name LIMIT $%d OFFSET $%d`,
		cityColumns, where, len(args)+1, len(args)+2)
	rows, err := r.exec(ctx).QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cities: %w", err)
	}
	defer rows.Close()

	cities := make([]*models.City, 0)
	for rows.Next() {
		c, err := scanCity(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan city: %w", err)
		}
		cities = append(cities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating cities: %w", err)
	}
	return cities, total, nil
}

// UpdateCity updates a city
func (r *LocationRepository) UpdateCity(ctx context.Context, c *models.City) error {
	query := `UPDATE cities SET state_id = $2, name = $3, is_active = $4, updated_at = $5 WHERE id = $1`

	c.UpdatedAt = time.Now()
	result, err := r.exec(ctx).ExecContext(ctx, query, c.ID, c.StateID, c.Name, c.IsActive, c.UpdatedAt)
	if err != nil {
		return translateError(err, "failed to update city")
	}
	return expectAffected(result, "city %s", c.ID)
}

// WithTx returns a new repository instance bound to the transaction
func (r *LocationRepository) WithTx(tx repositories.Transaction) repositories.LocationRepository {
	return &LocationRepository{db: r.db, tx: tx, logger: r.logger}
}
