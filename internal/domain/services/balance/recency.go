package balance

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ActivityTracker records the last time each wallet was touched by a
// request, so the fast sweep can target recently active wallets only.
// State is in-process and resets on restart.
type ActivityTracker struct {
	mu       sync.Mutex
	lastSeen map[uuid.UUID]time.Time
	now      func() time.Time
}

// NewActivityTracker creates an empty activity tracker.
func NewActivityTracker() *ActivityTracker {
	return &ActivityTracker{
		lastSeen: make(map[uuid.UUID]time.Time),
		now:      time.Now,
	}
}

// MarkActive records activity for a wallet.
func (t *ActivityTracker) MarkActive(walletID uuid.UUID) {
	t.mu.Lock()
	t.lastSeen[walletID] = t.now()
	t.mu.Unlock()
}

// ActiveWithin returns the wallets seen inside the window, pruning
// entries that have aged out.
func (t *ActivityTracker) ActiveWithin(window time.Duration) []uuid.UUID {
	cutoff := t.now().Add(-window)

	t.mu.Lock()
	defer t.mu.Unlock()

	active := make([]uuid.UUID, 0, len(t.lastSeen))
	for id, seen := range t.lastSeen {
		if seen.Before(cutoff) {
			delete(t.lastSeen, id)
			continue
		}
		active = append(active, id)
	}
	return active
}
