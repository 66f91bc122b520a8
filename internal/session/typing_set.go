package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// TypingSet is the locally rendered "currently typing" set. Entries expire
// ttl after their last refresh whether or not an explicit stop signal ever
// arrives, so a peer that disconnects mid-type disappears on its own.
type TypingSet struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[uuid.UUID]time.Time
}

func NewTypingSet(ttl time.Duration, now func() time.Time) *TypingSet {
	return &TypingSet{
		ttl:     ttl,
		now:     now,
		entries: make(map[uuid.UUID]time.Time),
	}
}

// Mark refreshes a user's typing signal; a fresh signal overwrites any prior
// one.
func (t *TypingSet) Mark(userID uuid.UUID) {
	t.mu.Lock()
	t.entries[userID] = t.now()
	t.mu.Unlock()
}

// Clear removes a user's signal (an explicit stop).
func (t *TypingSet) Clear(userID uuid.UUID) {
	t.mu.Lock()
	delete(t.entries, userID)
	t.mu.Unlock()
}

// Active returns the users whose signals are still fresh, pruning the rest.
func (t *TypingSet) Active() []uuid.UUID {
	cutoff := t.now().Add(-t.ttl)

	t.mu.Lock()
	defer t.mu.Unlock()

	var active []uuid.UUID
	for id, at := range t.entries {
		if at.After(cutoff) {
			active = append(active, id)
		} else {
			delete(t.entries, id)
		}
	}
	return active
}
