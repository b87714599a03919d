// Package wallet implements wallet provisioning: atomic, idempotent
// creation of a wallet row plus its zero balance seeds, with bounded
// retries and operational counters.
package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/entities"
	apperrors "github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/errors"
	"github.com/rampa-cash/rampa-cash-api-sub002/pkg/metrics"
	"github.com/rampa-cash/rampa-cash-api-sub002/pkg/retry"
)

// Store is the persistence surface the provisioner needs.
type Store interface {
	GetByOwner(ctx context.Context, ownerUserID uuid.UUID) (*entities.Wallet, error)
	GetByPrimaryAddress(ctx context.Context, address string) (*entities.Wallet, error)
	CreateWithBalances(ctx context.Context, wallet *entities.Wallet, tokens []entities.TokenKind) error
}

// ActivityRecorder marks a wallet as recently active so the fast refresh
// sweep picks it up right after creation.
type ActivityRecorder interface {
	MarkActive(walletID uuid.UUID)
}

// Metrics holds the provisioner's operational counters. All fields are
// safe for concurrent use.
type Metrics struct {
	mu               sync.Mutex
	attempts         int64
	successes        int64
	failures         int64
	retries          int64
	totalSuccessTime time.Duration
}

// MetricsSnapshot is a point-in-time copy of the provisioning counters.
type MetricsSnapshot struct {
	Attempts          int64         `json:"attempts"`
	Successes         int64         `json:"successes"`
	Failures          int64         `json:"failures"`
	Retries           int64         `json:"retries"`
	AvgSuccessLatency time.Duration `json:"avg_success_latency"`
}

func (m *Metrics) recordSuccess(res retry.Result) {
	m.mu.Lock()
	m.attempts += int64(res.Attempts)
	m.retries += int64(res.Retries)
	m.successes++
	m.totalSuccessTime += res.TotalLatency
	m.mu.Unlock()
}

func (m *Metrics) recordFailure(res retry.Result) {
	m.mu.Lock()
	m.attempts += int64(res.Attempts)
	m.retries += int64(res.Retries)
	m.failures++
	m.mu.Unlock()
}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := MetricsSnapshot{
		Attempts:  m.attempts,
		Successes: m.successes,
		Failures:  m.failures,
		Retries:   m.retries,
	}
	if m.successes > 0 {
		snap.AvgSuccessLatency = m.totalSuccessTime / time.Duration(m.successes)
	}
	return snap
}

// Provisioner creates wallets atomically with their zero balance rows.
type Provisioner struct {
	store    Store
	executor *retry.Executor
	activity ActivityRecorder
	counters *Metrics
	prom     *metrics.Metrics
	logger   *zap.Logger
}

// NewProvisioner creates a wallet provisioner. activity may be nil when
// no refresh scheduler is wired.
func NewProvisioner(store Store, executor *retry.Executor, activity ActivityRecorder, prom *metrics.Metrics, logger *zap.Logger) *Provisioner {
	return &Provisioner{
		store:    store,
		executor: executor,
		activity: activity,
		counters: &Metrics{},
		prom:     prom,
		logger:   logger,
	}
}

// Metrics returns a snapshot of the provisioning counters.
func (p *Provisioner) Metrics() MetricsSnapshot {
	return p.counters.Snapshot()
}

// Provision creates a wallet for the user with zero balances for every
// supported token, in one transaction. A second call for the same user
// returns the existing wallet unchanged. An address already claimed by a
// different user is a conflict, never silently rebound.
func (p *Provisioner) Provision(ctx context.Context, ownerUserID uuid.UUID, addressesByCurve map[entities.Curve]string) (*entities.Wallet, error) {
	existing, err := p.store.GetByOwner(ctx, ownerUserID)
	if err == nil {
		p.logger.Debug("Wallet already provisioned for user",
			zap.String("owner_user_id", ownerUserID.String()),
			zap.String("wallet_id", existing.ID.String()))
		return existing, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, apperrors.Wrap(err, "failed to check existing wallet")
	}

	primary, err := entities.SelectPrimaryAddress(addressesByCurve)
	if err != nil {
		return nil, apperrors.ValidationError("addresses_by_curve", err.Error())
	}

	// Validate the full address set before touching uniqueness: a request
	// with a malformed address is rejected as invalid even when its
	// primary is already claimed.
	now := time.Now()
	wallet := &entities.Wallet{
		ID:               uuid.New(),
		OwnerUserID:      ownerUserID,
		PrimaryAddress:   primary,
		AddressesByCurve: addressesByCurve,
		Status:           entities.WalletStatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := wallet.Validate(); err != nil {
		return nil, apperrors.ValidationError("addresses_by_curve", err.Error())
	}

	if claimed, err := p.store.GetByPrimaryAddress(ctx, primary); err == nil {
		if claimed.OwnerUserID != ownerUserID {
			return nil, apperrors.ConflictError("wallet", "primary address already belongs to another wallet")
		}
		return claimed, nil
	} else if !apperrors.IsNotFound(err) {
		return nil, apperrors.Wrap(err, "failed to check address ownership")
	}

	res, err := p.executor.Do(ctx, func(ctx context.Context) error {
		return p.store.CreateWithBalances(ctx, wallet, entities.SupportedTokens())
	})
	p.prom.ProvisioningAttempts.Add(float64(res.Attempts))
	p.prom.ProvisioningRetries.Add(float64(res.Retries))

	if err != nil {
		p.counters.recordFailure(res)
		p.prom.ProvisioningFailures.Inc()
		if apperrors.IsConflict(err) {
			// Lost a race for the same owner: the winner's wallet is the
			// answer.
			if winner, getErr := p.store.GetByOwner(ctx, ownerUserID); getErr == nil {
				return winner, nil
			}
			return nil, err
		}
		p.logger.Error("Wallet provisioning failed",
			zap.String("owner_user_id", ownerUserID.String()),
			zap.Int("attempts", res.Attempts),
			zap.Error(err))
		return nil, apperrors.ProvisioningError(res.Attempts, err)
	}

	p.counters.recordSuccess(res)
	p.prom.ProvisioningSuccesses.Inc()
	p.prom.ProvisioningLatency.Observe(res.TotalLatency.Seconds())

	if p.activity != nil {
		p.activity.MarkActive(wallet.ID)
	}

	p.logger.Info("Wallet provisioned",
		zap.String("owner_user_id", ownerUserID.String()),
		zap.String("wallet_id", wallet.ID.String()),
		zap.String("primary_address", wallet.PrimaryAddress),
		zap.Int("attempts", res.Attempts))
	return wallet, nil
}
