package postgres

import (
	"context"

	"github.com/farmersheaven/backend/config"
	"github.com/farmersheaven/backend/repositories"
	"go.uber.org/zap"
)

// RepositoryFactory creates and manages all repositories
type RepositoryFactory struct {
	db         *DB
	activityDB *DB // Optional: separate DB for activity logs
	logger     *zap.Logger
}

// NewRepositoryFactory opens the configured databases
func NewRepositoryFactory(cfg *config.Config, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := NewDB(cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	f := &RepositoryFactory{db: db, logger: logger}

	if cfg.ActivityDatabase != nil {
		activityDB, err := NewDB(*cfg.ActivityDatabase, logger)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		f.activityDB = activityDB
	}

	return f, nil
}

// NewRepositoryFactoryFromDB builds a factory around an open pool
func NewRepositoryFactoryFromDB(db *DB, logger *zap.Logger) *RepositoryFactory {
	return &RepositoryFactory{db: db, logger: logger}
}

// InitSchema creates the tables of every configured database
func (f *RepositoryFactory) InitSchema(ctx context.Context) error {
	if err := f.db.InitSchema(ctx); err != nil {
		return err
	}
	if f.activityDB != nil {
		return f.activityDB.InitActivitySchema(ctx)
	}
	return nil
}

// NewRepositories creates all repository instances
func (f *RepositoryFactory) NewRepositories() *repositories.Repositories {
	activityDB := f.db
	if f.activityDB != nil {
		activityDB = f.activityDB
	}
	return &repositories.Repositories{
		Users:      NewUserRepository(f.db, f.logger),
		OTPs:       NewOTPRepository(f.db, f.logger),
		Locations:  NewLocationRepository(f.db, f.logger),
		Products:   NewProductRepository(f.db, f.logger),
		Documents:  NewDocumentRepository(f.db, f.logger),
		Activities: NewActivityRepository(activityDB, f.logger),
	}
}

// GetTransactionManager returns a transaction manager
func (f *RepositoryFactory) GetTransactionManager() repositories.TransactionManager {
	return NewTransactionManager(f.db, f.logger)
}

// GetDB returns the database connection
func (f *RepositoryFactory) GetDB() *DB {
	return f.db
}

// GetActivityDB returns the separate activity database, or nil when activity
// logs share the main database
func (f *RepositoryFactory) GetActivityDB() *DB {
	return f.activityDB
}

// Close closes the database connection(s)
func (f *RepositoryFactory) Close() error {
	if f.activityDB != nil {
		_ = f.activityDB.Close()
	}
	return f.db.Close()
}
