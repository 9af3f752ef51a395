package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/corporatepay/console-api/auth"
	"github.com/corporatepay/console-api/config"
	"github.com/corporatepay/console-api/middleware"
	"github.com/corporatepay/console-api/repositories"
	"github.com/corporatepay/console-api/repositories/postgres"
	"github.com/corporatepay/console-api/services/apikey"
	"github.com/corporatepay/console-api/services/audit"
	"github.com/corporatepay/console-api/services/chargeback"
	"github.com/corporatepay/console-api/services/invite"
	"github.com/corporatepay/console-api/services/modules"
	"github.com/corporatepay/console-api/services/policy"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repositories
	Repos     *repositories.Repositories
	TxManager repositories.TransactionManager

	// Domain services
	PolicyCache   *policy.EffectiveCache
	PolicySvc     *policy.Service
	ChargebackSvc *chargeback.Service
	ModuleSvc     *modules.Service
	InviteSvc     *invite.Service
	APIKeySvc     *apikey.Service
	AuditSvc      *audit.Service

	// Auth
	TokenIssuer    *auth.TokenIssuer
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initServices(cfg)
	deps.initAuth(cfg)

	if cfg.IsDevelopment() && cfg.Seed.File != "" {
		if err := ApplySeed(ctx, cfg.Seed.File, deps.Repos, logger); err != nil {
			return nil, fmt.Errorf("failed to apply seed data: %w", err)
		}
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase opens the PostgreSQL connection, applies the schema and builds
// the repositories.
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.NewDB(cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	d.DB = db

	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if err := db.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.Repos = postgres.NewRepositories(db, d.Logger)
	d.TxManager = postgres.NewTransactionManager(db, d.Logger)

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))
	return nil
}

// initServices builds the domain services on top of the repositories.
func (d *Dependencies) initServices(cfg *config.Config) {
	d.PolicyCache = policy.NewEffectiveCache(cfg.Cache.MaxSize, cfg.Cache.TTL)
	d.PolicySvc = policy.NewService(d.Repos.Policies, d.Repos.Groups, d.Repos.Users, d.PolicyCache, d.Logger)
	d.ChargebackSvc = chargeback.NewService(d.Repos.ChargebackRules, d.Logger)
	d.ModuleSvc = modules.NewService(d.Repos.ModuleSettings, d.Logger)
	d.InviteSvc = invite.NewService(d.Repos.Invites, d.Repos.Users, d.Repos.Groups, d.TxManager, cfg.Invites.TTL, d.Logger)
	d.APIKeySvc = apikey.NewService(d.Repos.APIKeys, d.Logger)
	d.AuditSvc = audit.NewService(d.Repos.AuditLogs, d.Logger)

	d.Logger.Info("services initialized")
}

func (d *Dependencies) initAuth(cfg *config.Config) {
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		// Development fallback; Validate rejects an empty secret in production.
		secret = "dev-only-insecure-secret"
		d.Logger.Warn("AUTH_JWT_SECRET not set, using development secret")
	}
	d.TokenIssuer = auth.NewTokenIssuer(secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, d.Logger)
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.TokenIssuer, d.Logger)
}

// StartCacheWorker launches the background sweep of expired cache entries.
// Returns a stop function.
func (d *Dependencies) StartCacheWorker() func() {
	stopCh := make(chan struct{})
	go d.PolicyCache.StartCleanupWorker(d.Config.Cache.CleanupInterval, stopCh)
	return func() { close(stopCh) }
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
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
