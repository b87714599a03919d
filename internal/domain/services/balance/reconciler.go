// Package balance implements the balance reconciliation and caching
// core: live-vs-stored resolution with stale fallback, the read-through
// TTL cache in front of it, and the background refresh scheduler.
package balance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/entities"
	apperrors "github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/errors"
	"github.com/rampa-cash/rampa-cash-api-sub002/pkg/metrics"
)

// ChainSource is the opaque ledger client the reconciler reads from.
type ChainSource interface {
	GetNativeBalance(ctx context.Context, address string) (uint64, error)
	GetTokenBalance(ctx context.Context, address, mint string) (uint64, error)
}

// WalletStore resolves wallets from persistence.
type WalletStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error)
}

// BalanceStore reads and writes stored balance snapshots.
type BalanceStore interface {
	Get(ctx context.Context, walletID uuid.UUID, token entities.TokenKind) (*entities.BalanceRecord, error)
	UpsertSnapshot(ctx context.Context, record *entities.BalanceRecord) error
}

// Balance is one resolved wallet/token balance. Stale marks values served
// from the stored fallback rather than a fresh chain observation.
type Balance struct {
	WalletID         uuid.UUID          `json:"wallet_id"`
	Token            entities.TokenKind `json:"token"`
	AmountMinorUnits uint64             `json:"amount_minor_units"`
	Stale            bool               `json:"stale"`
	ObservedAt       time.Time          `json:"observed_at"`
}

// DisplayAmount returns the amount as a human decimal string. Conversion
// happens only here, at the presentation boundary.
func (b Balance) DisplayAmount() string {
	return b.Token.DisplayAmount(b.AmountMinorUnits)
}

// Reconciler resolves live-vs-stored balances per token with fallback.
type Reconciler struct {
	chain    ChainSource
	wallets  WalletStore
	balances BalanceStore
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewReconciler creates a balance reconciler.
func NewReconciler(chain ChainSource, wallets WalletStore, balances BalanceStore, m *metrics.Metrics, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		chain:    chain,
		wallets:  wallets,
		balances: balances,
		metrics:  m,
		logger:   logger,
	}
}

// GetBalance resolves one wallet/token balance. Chain failures never
// surface to the caller: the last stored snapshot is returned instead,
// flagged stale. Errors are raised only for an unknown wallet or an
// unsupported token.
func (r *Reconciler) GetBalance(ctx context.Context, walletID uuid.UUID, token entities.TokenKind) (Balance, error) {
	if !token.IsValid() {
		return Balance{}, apperrors.UnsupportedTokenError(string(token))
	}

	wallet, err := r.wallets.GetByID(ctx, walletID)
	if err != nil {
		return Balance{}, err
	}

	return r.reconcile(ctx, wallet, token)
}

// GetAllBalances fans out one reconciliation per supported token
// concurrently. Failures are isolated per token: one token's chain error
// does not block or fail the others.
func (r *Reconciler) GetAllBalances(ctx context.Context, walletID uuid.UUID) ([]Balance, error) {
	wallet, err := r.wallets.GetByID(ctx, walletID)
	if err != nil {
		return nil, err
	}

	tokens := entities.SupportedTokens()
	results := make([]Balance, len(tokens))
	errs := make([]error, len(tokens))

	var wg sync.WaitGroup
	for i, token := range tokens {
		wg.Add(1)
		go func(i int, token entities.TokenKind) {
			defer wg.Done()
			results[i], errs[i] = r.reconcile(ctx, wallet, token)
		}(i, token)
	}
	wg.Wait()

	balances := make([]Balance, 0, len(tokens))
	for i, token := range tokens {
		if errs[i] != nil {
			// Store-level failure for one token; the rest still count.
			r.logger.Warn("Skipping token during balance fan-out",
				zap.String("wallet_id", walletID.String()),
				zap.String("token", string(token)),
				zap.Error(errs[i]))
			continue
		}
		balances = append(balances, results[i])
	}
	return balances, nil
}

func (r *Reconciler) reconcile(ctx context.Context, wallet *entities.Wallet, token entities.TokenKind) (Balance, error) {
	live, chainErr := r.fetchLive(ctx, wallet, token)
	if chainErr == nil {
		record := &entities.BalanceRecord{
			WalletID:         wallet.ID,
			Token:            token,
			AmountMinorUnits: live,
			LastUpdatedAt:    time.Now(),
		}
		// Write-through; a failed snapshot write does not invalidate the
		// fresh observation we already hold.
		if err := r.balances.UpsertSnapshot(ctx, record); err != nil {
			r.logger.Warn("Failed to persist balance snapshot",
				zap.String("wallet_id", wallet.ID.String()),
				zap.String("token", string(token)),
				zap.Error(err))
		}
		return Balance{
			WalletID:         wallet.ID,
			Token:            token,
			AmountMinorUnits: live,
			Stale:            false,
			ObservedAt:       record.LastUpdatedAt,
		}, nil
	}

	r.logger.Warn("Chain source unavailable, falling back to stored balance",
		zap.String("wallet_id", wallet.ID.String()),
		zap.String("token", string(token)),
		zap.Error(chainErr))

	stored, err := r.balances.Get(ctx, wallet.ID, token)
	if err != nil {
		if apperrors.IsNotFound(err) {
			// Never seeded; zero is the only honest answer.
			r.metrics.StaleReads.Inc()
			return Balance{
				WalletID: wallet.ID,
				Token:    token,
				Stale:    true,
			}, nil
		}
		return Balance{}, err
	}

	r.metrics.StaleReads.Inc()
	return Balance{
		WalletID:         wallet.ID,
		Token:            token,
		AmountMinorUnits: stored.AmountMinorUnits,
		Stale:            true,
		ObservedAt:       stored.LastUpdatedAt,
	}, nil
}

func (r *Reconciler) fetchLive(ctx context.Context, wallet *entities.Wallet, token entities.TokenKind) (uint64, error) {
	if token.IsNative() {
		return r.chain.GetNativeBalance(ctx, wallet.PrimaryAddress)
	}
	return r.chain.GetTokenBalance(ctx, wallet.PrimaryAddress, token.Mint())
}
