package balance

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rampa-cash/rampa-cash-api-sub002/internal/infrastructure/cache"
)

// CacheStore is the pluggable backing store for the balance cache.
// Entries expire after the TTL handed to Set.
type CacheStore interface {
	Get(ctx context.Context, key string) (Balance, bool, error)
	Set(ctx context.Context, key string, value Balance, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type memoryEntry struct {
	value     Balance
	expiresAt time.Time
}

// MemoryStore is the default in-process cache store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-process cache store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the cached value for key if present and not expired.
func (s *MemoryStore) Get(_ context.Context, key string) (Balance, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || s.now().After(entry.expiresAt) {
		return Balance{}, false, nil
	}
	return entry.value, true, nil
}

// Set stores value under key for ttl.
func (s *MemoryStore) Set(_ context.Context, key string, value Balance, ttl time.Duration) error {
	s.mu.Lock()
	s.entries[key] = memoryEntry{value: value, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

// Delete removes the given keys. Missing keys are not an error.
func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, key := range keys {
		delete(s.entries, key)
	}
	s.mu.Unlock()
	return nil
}

// RedisStore backs the balance cache with Redis, for deployments with
// more than one API instance.
type RedisStore struct {
	client cache.RedisClient
}

// NewRedisStore creates a Redis-backed cache store.
func NewRedisStore(client cache.RedisClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (Balance, bool, error) {
	var value Balance
	if err := s.client.Get(ctx, key, &value); err != nil {
		if errors.Is(err, cache.ErrKeyNotFound) {
			return Balance{}, false, nil
		}
		return Balance{}, false, err
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value Balance, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl)
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...)
}
