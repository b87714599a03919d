// Package di wires the application graph: infrastructure first, then
// domain services, then HTTP handlers.
package di

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/rampa-cash/rampa-cash-api-sub002/internal/api/handlers"
	apperrors "github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/errors"
	"github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/services/balance"
	"github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/services/transfer"
	"github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/services/wallet"
	"github.com/rampa-cash/rampa-cash-api-sub002/internal/infrastructure/cache"
	"github.com/rampa-cash/rampa-cash-api-sub002/internal/infrastructure/config"
	"github.com/rampa-cash/rampa-cash-api-sub002/internal/infrastructure/database"
	"github.com/rampa-cash/rampa-cash-api-sub002/internal/infrastructure/repositories"
	"github.com/rampa-cash/rampa-cash-api-sub002/internal/infrastructure/solana"
	"github.com/rampa-cash/rampa-cash-api-sub002/pkg/metrics"
	"github.com/rampa-cash/rampa-cash-api-sub002/pkg/retry"
)

// Container holds every wired component of the application.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *sqlx.DB
	Redis   cache.RedisClient
	Metrics *metrics.Metrics

	WalletRepo  *repositories.WalletRepository
	BalanceRepo *repositories.BalanceRepository
	Chain       *solana.Client

	Reconciler   *balance.Reconciler
	BalanceCache *balance.Cache
	Scheduler    *balance.Scheduler
	Provisioner  *wallet.Provisioner
	Builder      *transfer.Builder

	WalletHandler   *handlers.WalletHandler
	BalanceHandler  *handlers.BalanceHandler
	TransferHandler *handlers.TransferHandler
}

// NewContainer builds the full application graph from configuration.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger, Metrics: metrics.New()}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = db

	if err := database.RunMigrations(db, cfg.Database.MigrationsPath); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	c.WalletRepo = repositories.NewWalletRepository(db, logger)
	c.BalanceRepo = repositories.NewBalanceRepository(db, logger)
	c.Chain = solana.NewClient(cfg.Solana, c.Metrics, logger)

	var store balance.CacheStore = balance.NewMemoryStore()
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(&cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		c.Redis = redisClient
		store = balance.NewRedisStore(redisClient)
	}

	c.Reconciler = balance.NewReconciler(c.Chain, c.WalletRepo, c.BalanceRepo, c.Metrics, logger)
	c.BalanceCache = balance.NewCache(c.Reconciler, store, cfg.BalanceCache.TTL, c.Metrics, logger)

	activity := balance.NewActivityTracker()
	c.Scheduler = balance.NewScheduler(c.Reconciler, c.BalanceCache, c.WalletRepo, activity, cfg.Scheduler, c.Metrics, logger)

	executor := retry.NewExecutor(retry.Policy{
		MaxAttempts:   cfg.Provisioning.MaxAttempts,
		BaseDelay:     cfg.Provisioning.BaseBackoff,
		MaxDelay:      cfg.Provisioning.MaxBackoff,
		RetryableFunc: apperrors.ShouldRetry,
	}, logger)
	c.Provisioner = wallet.NewProvisioner(c.WalletRepo, executor, c.Scheduler, c.Metrics, logger)

	c.Builder = transfer.NewBuilder(c.Chain, logger)

	c.WalletHandler = handlers.NewWalletHandler(c.Provisioner, c.WalletRepo, c.BalanceRepo, logger)
	c.BalanceHandler = handlers.NewBalanceHandler(c.BalanceCache, c.Scheduler, logger)
	c.TransferHandler = handlers.NewTransferHandler(c.Builder, logger)

	return c, nil
}

// Close releases infrastructure resources.
func (c *Container) Close() error {
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
