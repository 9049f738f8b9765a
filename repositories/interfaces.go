package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/farmersheaven/backend/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique constraint is violated
	ErrDuplicate = errors.New("record already exists")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// FindActiveByEmail retrieves an active user by email, case-insensitively
	FindActiveByEmail(ctx context.Context, email string) (*models.User, error)

	// FindActiveByUsername retrieves an active user by username, case-insensitively
	FindActiveByUsername(ctx context.Context, username string) (*models.User, error)

	// FindActiveByMobile retrieves an active user by mobile number
	FindActiveByMobile(ctx context.Context, mobile string) (*models.User, error)

	// List retrieves users with pagination
	List(ctx context.Context, search string, limit, offset int) ([]*models.User, int, error)

	// Update updates a user's profile and flags
	Update(ctx context.Context, user *models.User) error

	// SetPassword replaces the password hash
	SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	// TouchLastLogin records a successful sign in
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error

	// Delete deletes a user
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) UserRepository
}

// OTPRepository handles one-time password records
type OTPRepository interface {
	// GetLatest retrieves the most recent record for a mobile number
	GetLatest(ctx context.Context, mobile string) (*models.OTPLogin, error)

	// GetActive retrieves the active record matching mobile and code
	GetActive(ctx context.Context, mobile, otp string) (*models.OTPLogin, error)

	// Upsert creates or updates a record
	Upsert(ctx context.Context, otp *models.OTPLogin) error

	// Deactivate marks a record as used
	Deactivate(ctx context.Context, id uuid.UUID) error

	// PurgeBefore removes records for mobile last updated before the given time
	PurgeBefore(ctx context.Context, mobile string, before time.Time) error

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) OTPRepository
}

// LocationRepository handles countries, states and cities
type LocationRepository interface {
	CreateCountry(ctx context.Context, country *models.Country) error
	GetCountry(ctx context.Context, id uuid.UUID) (*models.Country, error)
	ListCountries(ctx context.Context, filter models.LocationFilter) ([]*models.Country, int, error)
	UpdateCountry(ctx context.Context, country *models.Country) error

	CreateState(ctx context.Context, state *models.State) error
	GetState(ctx context.Context, id uuid.UUID) (*models.State, error)
	ListStates(ctx context.Context, filter models.LocationFilter) ([]*models.State, int, error)
	UpdateState(ctx context.Context, state *models.State) error

	CreateCity(ctx context.Context, city *models.City) error
	GetCity(ctx context.Context, id uuid.UUID) (*models.City, error)
	ListCities(ctx context.Context, filter models.LocationFilter) ([]*models.City, int, error)
	UpdateCity(ctx context.Context, city *models.City) error

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) LocationRepository
}

// ProductRepository handles products and dynamic settings
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filter models.ProductFilter) ([]*models.Product, int, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ListActiveSettings retrieves active dynamic settings names for dropdowns
	ListActiveSettings(ctx context.Context, parentID *uuid.UUID) ([]*models.DynamicSetting, error)

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) ProductRepository
}

// DocumentRepository handles uploaded document metadata
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.UploadedDocument) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.UploadedDocument, error)
	GetByPath(ctx context.Context, path string) (*models.UploadedDocument, error)
	List(ctx context.Context, model string, limit, offset int) ([]*models.UploadedDocument, int, error)
	Update(ctx context.Context, doc *models.UploadedDocument) error
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) DocumentRepository
}

// ActivityRepository handles activity log entries
type ActivityRepository interface {
	// Insert inserts a new activity log entry
	Insert(ctx context.Context, log *models.ActivityLog) error

	// GetByID retrieves an activity log by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.ActivityLog, error)

	// List retrieves activity logs matching the filter, newest first
	List(ctx context.Context, filter models.ActivityFilter) ([]*models.ActivityLog, error)

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) ActivityRepository
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users      UserRepository
	OTPs       OTPRepository
	Locations  LocationRepository
	Products   ProductRepository
	Documents  DocumentRepository
	Activities ActivityRepository
}
