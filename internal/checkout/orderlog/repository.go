package orderlog

import (
	"context"
	"sync"
)

// Repository persists order log entries. Save appends; it never updates.
type Repository interface {
	Save(ctx context.Context, entry *Entry) error
	GetLatest(ctx context.Context, orderID string) (*Entry, error)
}

// MemoryRepository keeps entries in memory. Used with the memory store backend and in tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Save(_ context.Context, entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *MemoryRepository) GetLatest(_ context.Context, orderID string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].OrderID == orderID {
			e := r.entries[i]
			return &e, nil
		}
	}
	return nil, ErrNotFound
}

// History returns every entry for orderID in insertion order.
func (r *MemoryRepository) History(orderID string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Entry
	for _, e := range r.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out
}
