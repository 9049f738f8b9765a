package app

import (
	"context"
	"fmt"
	"time"

	"github.com/farmersheaven/backend/config"
	"github.com/farmersheaven/backend/handlers"
	"github.com/farmersheaven/backend/middleware"
	"github.com/farmersheaven/backend/permissions"
	"github.com/farmersheaven/backend/repositories"
	"github.com/farmersheaven/backend/repositories/postgres"
	"github.com/farmersheaven/backend/services/accounts"
	"github.com/farmersheaven/backend/services/audit"
	"github.com/farmersheaven/backend/services/documents"
	"github.com/farmersheaven/backend/services/notify"
	"github.com/farmersheaven/backend/services/principal"
	"github.com/farmersheaven/backend/services/settings"
	"github.com/farmersheaven/backend/services/tokens"
	"go.uber.org/zap"
)

const (
	principalCacheTTL      = 5 * time.Minute
	principalCleanupPeriod = time.Minute
	activityDrainTimeout   = 10 * time.Second
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Repos     *repositories.Repositories
	TxManager repositories.TransactionManager

	// Permissions
	Registry *permissions.Registry

	// Services
	Activity       *audit.Service
	Issuer         *tokens.Issuer
	PrincipalCache *principal.Cache
	Resolver       *principal.Resolver
	Accounts       *accounts.Service
	Settings       *settings.Service
	Documents      *documents.Service

	// Middleware
	AuthMiddleware   *middleware.AuthMiddleware
	PolicyMiddleware *middleware.PolicyEnforcementMiddleware

	stopCleanup chan struct{}
}

// NewDependencies opens the databases, ensures the schema and wires every
// service on top of them
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := factory.InitSchema(ctx); err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := NewDependenciesWithFactory(cfg, factory, logger)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// NewDependenciesWithFactory wires the services on an already opened factory
func NewDependenciesWithFactory(cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
		stopCleanup: make(chan struct{}),
	}

	deps.initRepositories()

	registry, err := LoadRegistry(cfg.Policy)
	if err != nil {
		return nil, fmt.Errorf("failed to load permission policies: %w", err)
	}
	deps.Registry = registry

	if err := deps.initServices(); err != nil {
		return nil, err
	}
	deps.initMiddleware()

	return deps, nil
}

// LoadRegistry returns the policies of cfg.File, or the built-in policies when unset
func LoadRegistry(cfg config.PolicyConfig) (*permissions.Registry, error) {
	if cfg.File == "" {
		return permissions.DefaultRegistry(), nil
	}
	return permissions.LoadPolicyFile(cfg.File, permissions.NewCatalog())
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	d.Repos = d.RepoFactory.NewRepositories()
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

func (d *Dependencies) initServices() error {
	cfg := d.Config

	d.Activity = audit.NewService(d.Repos.Activities, d.Logger, audit.DefaultConfig())
	if err := d.Activity.Start(); err != nil {
		return fmt.Errorf("failed to start activity log: %w", err)
	}

	d.Issuer = tokens.NewIssuer(tokens.Config{
		Secret:     cfg.Auth.JWTSecret,
		Issuer:     cfg.Auth.Issuer,
		AccessTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTTL: cfg.Auth.RefreshTokenTTL,
		ResetTTL:   cfg.Auth.PasswordResetTTL,
	})

	if cfg.Auth.PrincipalCache > 0 {
		cache, err := principal.NewCache(cfg.Auth.PrincipalCache, principalCacheTTL)
		if err != nil {
			return fmt.Errorf("failed to create principal cache: %w", err)
		}
		d.PrincipalCache = cache
		go cache.StartCleanupWorker(principalCleanupPeriod, d.stopCleanup)
	}
	d.Resolver = principal.NewResolver(d.Repos.Users, d.PrincipalCache)

	d.Accounts = accounts.NewService(accounts.Deps{
		Users:     d.Repos.Users,
		OTPs:      d.Repos.OTPs,
		TxManager: d.TxManager,
		Issuer:    d.Issuer,
		Mailer:    notify.NewMailer(cfg.Mail, d.Logger),
		SMS:       notify.NewLogSMSSender(cfg.OTP.SenderID, d.Logger),
		Resolver:  d.Resolver,
		Activity:  d.Activity,
	}, accounts.NewConfig(cfg), d.Logger)

	d.Settings = settings.NewService(d.Repos.Locations, d.Repos.Products, d.Activity, d.Logger)

	store, err := documents.NewLocalStore(cfg.Storage.Root)
	if err != nil {
		return fmt.Errorf("failed to open document storage: %w", err)
	}
	d.Documents = documents.NewService(d.Repos.Documents, store, d.Activity, cfg.Storage, d.Logger)

	d.Logger.Info("services initialized",
		zap.Int("policies", len(d.Registry.Names())),
		zap.Bool("principal_cache", d.PrincipalCache != nil))
	return nil
}

func (d *Dependencies) initMiddleware() {
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Issuer, d.Resolver, d.Logger)
	d.PolicyMiddleware = middleware.NewPolicyEnforcementMiddleware(d.Registry, d.Activity, d.Logger)
}

// HealthChecks returns the dependencies checked by the readiness endpoint
func (d *Dependencies) HealthChecks() map[string]handlers.HealthChecker {
	checks := make(map[string]handlers.HealthChecker)
	if d.DB != nil {
		checks["database"] = d.DB
	}
	if d.RepoFactory != nil {
		if activityDB := d.RepoFactory.GetActivityDB(); activityDB != nil {
			checks["activity_database"] = activityDB
		}
	}
	return checks
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.stopCleanup != nil {
		close(d.stopCleanup)
		d.stopCleanup = nil
	}

	// Drain queued activity before the database goes away
	if d.Activity != nil {
		timeout := activityDrainTimeout
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.Activity.Stop(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop activity log: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
