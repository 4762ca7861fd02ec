package delivery

import (
	"context"
	"sync"
	"time"

	"github.com/selivandex/portfolio-digest/pkg/models"
)

// MemoryStore keeps the delivery log in process, for dry runs and tests
type MemoryStore struct {
	mu      sync.RWMutex
	entries []models.DeliveryEntry
}

// NewMemoryStore creates an empty in-memory delivery log
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record appends one delivery outcome
func (m *MemoryStore) Record(_ context.Context, entry models.DeliveryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, entry)
	return nil
}

// HasSent reports whether a successful delivery exists for the day bucket
func (m *MemoryStore) HasSent(_ context.Context, key models.DeliveryKey) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.entries {
		if e.Status == models.StatusSent && e.Key() == key {
			return true, nil
		}
	}
	return false, nil
}

// DeleteOlderThan removes entries sent before cutoff
func (m *MemoryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.entries[:0]
	var deleted int64
	for _, e := range m.entries {
		if e.SentAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return deleted, nil
}

// Entries returns a copy of everything recorded
func (m *MemoryStore) Entries() []models.DeliveryEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.DeliveryEntry, len(m.entries))
	copy(out, m.entries)
	return out
}
