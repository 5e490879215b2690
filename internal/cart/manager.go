// Package cart owns the customer's cart: an ordered list of lines with no
// duplicate products, persisted to the local key-value store after every
// change and announced to observers so the view can redraw.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront-cart/internal/catalog"
	"github.com/jcmexdev/storefront-cart/internal/pkg/kvstore"
)

// Observer receives the cart after each change.
type Observer func(Snapshot)

type Manager struct {
	mu        sync.Mutex
	lines     []Line
	revision  uint64
	store     kvstore.Store
	observers []Observer
}

func NewManager(store kvstore.Store) *Manager {
	return &Manager{store: store}
}

// Observe registers fn. Observers run after the change is persisted, outside
// the manager's lock, so concurrent changes may arrive out of order; compare
// Snapshot.Revision to keep the newest.
func (m *Manager) Observe(fn Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// AddItem bumps the quantity of p's line, or appends a new line with quantity 1.
func (m *Manager) AddItem(ctx context.Context, p catalog.Product) error {
	return m.mutate(ctx, func() bool {
		if i := m.indexOf(p.ID); i >= 0 {
			m.lines[i].Quantity++
			return true
		}
		m.lines = append(m.lines, Line{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Category:  p.Category,
			Quantity:  1,
		})
		return true
	})
}

// RemoveItem drops the line for id. Absent ids are a no-op.
func (m *Manager) RemoveItem(ctx context.Context, id catalog.ProductID) error {
	return m.mutate(ctx, func() bool {
		return m.remove(id)
	})
}

// SetQuantity sets the quantity of an existing line. A quantity of zero or
// less removes the line; an absent id is a no-op.
func (m *Manager) SetQuantity(ctx context.Context, id catalog.ProductID, quantity int) error {
	return m.mutate(ctx, func() bool {
		if quantity <= 0 {
			return m.remove(id)
		}
		i := m.indexOf(id)
		if i < 0 {
			return false
		}
		m.lines[i].Quantity = quantity
		return true
	})
}

// Clear empties the cart and persists the empty list.
func (m *Manager) Clear(ctx context.Context) error {
	return m.mutate(ctx, func() bool {
		m.lines = nil
		return true
	})
}

// Total is the exact sum of price × quantity over all lines.
func (m *Manager) Total() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return total(m.lines)
}

func (m *Manager) ItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return itemCount(m.lines)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lines)
}

// Lines returns a copy of the lines in insertion order.
func (m *Manager) Lines() []Line {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copyLines()
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Persist writes the current lines to the store.
func (m *Manager) Persist(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.persistLocked(ctx)
}

// Restore loads the saved cart. A missing or malformed value leaves the cart
// empty and is not an error; only a failing store is.
func (m *Manager) Restore(ctx context.Context) error {
	raw, err := m.store.Get(ctx, StorageKey)
	if err != nil {
		return fmt.Errorf("cart: restore: %w", err)
	}

	var lines []Line
	if raw != "" {
		lines, err = decodeLines(raw)
		if errors.Is(err, errMalformed) {
			slog.WarnContext(ctx, "discarding saved cart", "error", err)
			lines = nil
		}
	}

	m.mu.Lock()
	m.lines = lines
	m.revision++
	snap := m.snapshotLocked()
	observers := append([]Observer(nil), m.observers...)
	m.mu.Unlock()

	notify(observers, snap)
	return nil
}

// mutate applies change under the lock. When change reports a modification
// the cart is persisted and observers are notified.
func (m *Manager) mutate(ctx context.Context, change func() bool) error {
	m.mu.Lock()
	if !change() {
		m.mu.Unlock()
		return nil
	}
	m.revision++
	err := m.persistLocked(ctx)
	snap := m.snapshotLocked()
	observers := append([]Observer(nil), m.observers...)
	m.mu.Unlock()

	notify(observers, snap)
	return err
}

func (m *Manager) persistLocked(ctx context.Context) error {
	raw, err := encodeLines(m.lines)
	if err != nil {
		return err
	}
	if err := m.store.Set(ctx, StorageKey, raw); err != nil {
		return fmt.Errorf("cart: persist: %w", err)
	}
	return nil
}

func (m *Manager) remove(id catalog.ProductID) bool {
	i := m.indexOf(id)
	if i < 0 {
		return false
	}
	m.lines = append(m.lines[:i], m.lines[i+1:]...)
	return true
}

func (m *Manager) indexOf(id catalog.ProductID) int {
	for i, l := range m.lines {
		if l.ProductID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) copyLines() []Line {
	out := make([]Line, len(m.lines))
	copy(out, m.lines)
	return out
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		Lines:     m.copyLines(),
		Total:     total(m.lines),
		ItemCount: itemCount(m.lines),
		Revision:  m.revision,
	}
}

func notify(observers []Observer, snap Snapshot) {
	for _, fn := range observers {
		fn(snap)
	}
}
