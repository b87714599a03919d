package balance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/entities"
	"github.com/rampa-cash/rampa-cash-api-sub002/internal/infrastructure/config"
	"github.com/rampa-cash/rampa-cash-api-sub002/pkg/metrics"
)

// refresher re-reconciles every token of one wallet.
type refresher interface {
	GetAllBalances(ctx context.Context, walletID uuid.UUID) ([]Balance, error)
}

// invalidator drops cached entries for one wallet.
type invalidator interface {
	Invalidate(ctx context.Context, walletID uuid.UUID, tokens ...entities.TokenKind) error
}

// WalletLister enumerates wallets eligible for the slow sweep.
type WalletLister interface {
	ListActive(ctx context.Context) ([]*entities.Wallet, error)
}

// Scheduler runs two background refresh cadences: a fast sweep over
// recently active wallets and a slow sweep over every active wallet.
// Each sweep re-reconciles and then invalidates the cache so the next
// read serves fresh data.
type Scheduler struct {
	refresher   refresher
	invalidator invalidator
	wallets     WalletLister
	activity    *ActivityTracker
	cfg         config.SchedulerConfig
	metrics     *metrics.Metrics
	logger      *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a refresh scheduler. Start must be called before
// any sweeps run.
func NewScheduler(r refresher, inv invalidator, wallets WalletLister, activity *ActivityTracker, cfg config.SchedulerConfig, m *metrics.Metrics, logger *zap.Logger) *Scheduler {
	if cfg.SweepWorkers < 1 {
		// A sweep with no workers would block forever on the job channel.
		cfg.SweepWorkers = 1
	}
	return &Scheduler{
		refresher:   r,
		invalidator: inv,
		wallets:     wallets,
		activity:    activity,
		cfg:         cfg,
		metrics:     m,
		logger:      logger,
	}
}

// MarkActive records request activity for a wallet, feeding the fast
// sweep's target set.
func (s *Scheduler) MarkActive(walletID uuid.UUID) {
	s.activity.MarkActive(walletID)
}

// Start launches both sweep loops. Calling Start on a running scheduler
// is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logger.Debug("Refresh scheduler already running")
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})

	s.wg.Add(2)
	go s.runSweepLoop(ctx, "fast", s.cfg.FastInterval)
	go s.runSweepLoop(ctx, "slow", s.cfg.SlowInterval)

	s.logger.Info("Refresh scheduler started",
		zap.Duration("fast_interval", s.cfg.FastInterval),
		zap.Duration("slow_interval", s.cfg.SlowInterval),
		zap.Duration("activity_window", s.cfg.ActivityWindow),
		zap.Int("sweep_workers", s.cfg.SweepWorkers))
}

// Stop halts both loops and waits for any in-flight sweep to finish.
// Calling Stop on a stopped scheduler is a no-op.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Refresh scheduler stopped")
	return nil
}

// IsRunning reports whether the sweep loops are active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) runSweepLoop(ctx context.Context, cadence string, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runSweep(ctx, cadence)
		}
	}
}

// runSweep executes one pass of the given cadence. Exported only through
// the ticker loops; tests drive it via Start with short intervals.
func (s *Scheduler) runSweep(ctx context.Context, cadence string) {
	start := time.Now()

	targets, err := s.sweepTargets(ctx, cadence)
	if err != nil {
		s.logger.Error("Failed to resolve sweep targets",
			zap.String("cadence", cadence),
			zap.Error(err))
		return
	}
	if len(targets) == 0 {
		return
	}

	jobs := make(chan uuid.UUID)
	var wg sync.WaitGroup
	for i := 0; i < s.cfg.SweepWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for walletID := range jobs {
				s.refreshWallet(ctx, cadence, walletID)
			}
		}()
	}
	for _, walletID := range targets {
		jobs <- walletID
	}
	close(jobs)
	wg.Wait()

	elapsed := time.Since(start)
	s.metrics.SweepDuration.WithLabelValues(cadence).Observe(elapsed.Seconds())
	s.logger.Debug("Sweep completed",
		zap.String("cadence", cadence),
		zap.Int("wallets", len(targets)),
		zap.Duration("elapsed", elapsed))
}

func (s *Scheduler) sweepTargets(ctx context.Context, cadence string) ([]uuid.UUID, error) {
	if cadence == "fast" {
		return s.activity.ActiveWithin(s.cfg.ActivityWindow), nil
	}
	wallets, err := s.wallets.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(wallets))
	for _, w := range wallets {
		ids = append(ids, w.ID)
	}
	return ids, nil
}

// refreshWallet re-reconciles one wallet and drops its cache entries.
// Failures are logged and skipped so one wallet never stalls a sweep.
func (s *Scheduler) refreshWallet(ctx context.Context, cadence string, walletID uuid.UUID) {
	wctx, cancel := context.WithTimeout(ctx, s.cfg.SweepTimeout)
	defer cancel()

	if _, err := s.refresher.GetAllBalances(wctx, walletID); err != nil {
		s.metrics.SweepWalletErrs.WithLabelValues(cadence).Inc()
		s.logger.Warn("Sweep refresh failed for wallet",
			zap.String("cadence", cadence),
			zap.String("wallet_id", walletID.String()),
			zap.Error(err))
		return
	}
	if err := s.invalidator.Invalidate(wctx, walletID); err != nil {
		s.metrics.SweepWalletErrs.WithLabelValues(cadence).Inc()
		s.logger.Warn("Sweep invalidation failed for wallet",
			zap.String("cadence", cadence),
			zap.String("wallet_id", walletID.String()),
			zap.Error(err))
	}
}
