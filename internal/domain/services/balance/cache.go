package balance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rampa-cash/rampa-cash-api-sub002/internal/domain/entities"
	"github.com/rampa-cash/rampa-cash-api-sub002/pkg/metrics"
)

// balanceResolver is the slice of the reconciler the cache fills misses
// from.
type balanceResolver interface {
	GetBalance(ctx context.Context, walletID uuid.UUID, token entities.TokenKind) (Balance, error)
}

// Cache is the read-through TTL cache in front of the reconciler. A hit
// within the TTL is served as-is; a miss triggers one reconciliation and
// caches the result, stale flag included.
type Cache struct {
	resolver balanceResolver
	store    CacheStore
	ttl      time.Duration
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewCache creates a balance cache with the given TTL.
func NewCache(resolver balanceResolver, store CacheStore, ttl time.Duration, m *metrics.Metrics, logger *zap.Logger) *Cache {
	return &Cache{
		resolver: resolver,
		store:    store,
		ttl:      ttl,
		metrics:  m,
		logger:   logger,
	}
}

func cacheKey(walletID uuid.UUID, token entities.TokenKind) string {
	return fmt.Sprintf("balance:%s:%s", walletID, token)
}

// Get returns the cached balance for one wallet/token pair, reconciling
// on a miss.
func (c *Cache) Get(ctx context.Context, walletID uuid.UUID, token entities.TokenKind) (Balance, error) {
	key := cacheKey(walletID, token)

	cached, ok, err := c.store.Get(ctx, key)
	if err != nil {
		// A broken cache store degrades to a plain reconciler read.
		c.logger.Warn("Cache store read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		c.metrics.CacheHits.Inc()
		return cached, nil
	}
	c.metrics.CacheMisses.Inc()

	resolved, err := c.resolver.GetBalance(ctx, walletID, token)
	if err != nil {
		return Balance{}, err
	}

	if err := c.store.Set(ctx, key, resolved, c.ttl); err != nil {
		c.logger.Warn("Cache store write failed", zap.String("key", key), zap.Error(err))
	}
	return resolved, nil
}

// GetAll returns cached balances for every supported token, filling
// misses individually so warm tokens stay served from cache.
func (c *Cache) GetAll(ctx context.Context, walletID uuid.UUID) ([]Balance, error) {
	tokens := entities.SupportedTokens()
	balances := make([]Balance, 0, len(tokens))
	for _, token := range tokens {
		b, err := c.Get(ctx, walletID, token)
		if err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, nil
}

// Invalidate drops cached entries for the given tokens, or for every
// supported token when none are named. The next read reconciles fresh.
func (c *Cache) Invalidate(ctx context.Context, walletID uuid.UUID, tokens ...entities.TokenKind) error {
	if len(tokens) == 0 {
		tokens = entities.SupportedTokens()
	}
	keys := make([]string, 0, len(tokens))
	for _, token := range tokens {
		keys = append(keys, cacheKey(walletID, token))
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to invalidate balance cache: %w", err)
	}
	return nil
}
