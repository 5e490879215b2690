package cart

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront-cart/internal/catalog"
	"github.com/jcmexdev/storefront-cart/internal/pkg/kvstore"
)

var (
	coxinha = catalog.Product{ID: "1", Name: "Coxinha de Frango", Price: decimal.RequireFromString("25.00"), Category: "coxinhas"}
	suco    = catalog.Product{ID: "2", Name: "Suco Natural", Price: decimal.RequireFromString("10.00"), Category: "drinks"}
	lata    = catalog.Product{ID: "3", Name: "Refrigerante Lata", Price: decimal.RequireFromString("4.99"), Category: "drinks"}
)

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) (string, error) { return "", f.err }
func (f failingStore) Set(context.Context, string, string) error   { return f.err }

func TestAddItemSameProductKeepsOneLine(t *testing.T) {
	ctx := context.Background()
	m := NewManager(kvstore.NewMemory())

	for i := 0; i < 5; i++ {
		if err := m.AddItem(ctx, coxinha); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	lines := m.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", lines[0].Quantity)
	}
}

func TestTotalsForMixedLines(t *testing.T) {
	ctx := context.Background()
	m := NewManager(kvstore.NewMemory())

	_ = m.AddItem(ctx, coxinha)
	_ = m.AddItem(ctx, coxinha)
	_ = m.AddItem(ctx, suco)

	if !m.Total().Equal(decimal.NewFromInt(60)) {
		t.Fatalf("expected total 60, got %s", m.Total())
	}
	if m.ItemCount() != 3 {
		t.Fatalf("expected 3 items, got %d", m.ItemCount())
	}
}

func TestInsertionOrder(t *testing.T) {
	ctx := context.Background()
	m := NewManager(kvstore.NewMemory())

	_ = m.AddItem(ctx, suco)
	_ = m.AddItem(ctx, coxinha)
	_ = m.AddItem(ctx, suco)

	lines := m.Lines()
	if lines[0].ProductID != suco.ID || lines[1].ProductID != coxinha.ID {
		t.Fatalf("unexpected order: %+v", lines)
	}
}

func TestSetQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("zero removes the line", func(t *testing.T) {
		m := NewManager(kvstore.NewMemory())
		_ = m.AddItem(ctx, coxinha)
		_ = m.AddItem(ctx, suco)

		before := m.Len()
		if err := m.SetQuantity(ctx, coxinha.ID, 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.Len() != before-1 {
			t.Fatalf("expected %d lines, got %d", before-1, m.Len())
		}
		if m.Lines()[0].ProductID != suco.ID {
			t.Fatalf("expected suco to remain, got %+v", m.Lines())
		}
	})

	t.Run("negative removes the line", func(t *testing.T) {
		m := NewManager(kvstore.NewMemory())
		_ = m.AddItem(ctx, coxinha)
		_ = m.SetQuantity(ctx, coxinha.ID, -3)
		if m.Len() != 0 {
			t.Fatalf("expected empty cart, got %d lines", m.Len())
		}
	})

	t.Run("positive sets the quantity", func(t *testing.T) {
		m := NewManager(kvstore.NewMemory())
		_ = m.AddItem(ctx, coxinha)
		_ = m.SetQuantity(ctx, coxinha.ID, 4)
		if m.ItemCount() != 4 {
			t.Fatalf("expected 4 items, got %d", m.ItemCount())
		}
	})

	t.Run("absent id creates nothing", func(t *testing.T) {
		m := NewManager(kvstore.NewMemory())
		_ = m.SetQuantity(ctx, "404", 2)
		if m.Len() != 0 {
			t.Fatalf("expected empty cart, got %d lines", m.Len())
		}
	})
}

func TestRemoveItemAbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	m := NewManager(store)
	_ = m.AddItem(ctx, coxinha)

	calls := 0
	m.Observe(func(Snapshot) { calls++ })

	if err := m.RemoveItem(ctx, "404"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 line, got %d", m.Len())
	}
	if calls != 0 {
		t.Fatalf("expected no notification for a no-op, got %d", calls)
	}
}

func TestTotalInvariantUnderRandomOperations(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	products := []catalog.Product{coxinha, suco, lata}
	m := NewManager(kvstore.NewMemory())

	for i := 0; i < 500; i++ {
		p := products[rng.Intn(len(products))]
		switch rng.Intn(4) {
		case 0, 1:
			_ = m.AddItem(ctx, p)
		case 2:
			_ = m.SetQuantity(ctx, p.ID, rng.Intn(5)-1)
		case 3:
			_ = m.RemoveItem(ctx, p.ID)
		}

		want := decimal.Zero
		count := 0
		seen := map[catalog.ProductID]bool{}
		for _, l := range m.Lines() {
			if l.Quantity < 1 {
				t.Fatalf("step %d: line %s has quantity %d", i, l.ProductID, l.Quantity)
			}
			if seen[l.ProductID] {
				t.Fatalf("step %d: duplicate line %s", i, l.ProductID)
			}
			seen[l.ProductID] = true
			want = want.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
			count += l.Quantity
		}
		if !m.Total().Equal(want) {
			t.Fatalf("step %d: total %s, want %s", i, m.Total(), want)
		}
		if m.ItemCount() != count {
			t.Fatalf("step %d: count %d, want %d", i, m.ItemCount(), count)
		}
	}
}

func TestTotalKeepsFullPrecision(t *testing.T) {
	ctx := context.Background()
	m := NewManager(kvstore.NewMemory())
	third := catalog.Product{ID: "x", Name: "x", Price: decimal.RequireFromString("0.333")}
	for i := 0; i < 3; i++ {
		_ = m.AddItem(ctx, third)
	}
	if !m.Total().Equal(decimal.RequireFromString("0.999")) {
		t.Fatalf("expected 0.999, got %s", m.Total())
	}
}

func TestPersistAndRestore(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()

	m := NewManager(store)
	_ = m.AddItem(ctx, coxinha)
	_ = m.AddItem(ctx, coxinha)
	_ = m.AddItem(ctx, suco)

	restored := NewManager(store)
	if err := restored.Restore(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if restored.ItemCount() != 3 || !restored.Total().Equal(decimal.NewFromInt(60)) {
		t.Fatalf("restored cart differs: count=%d total=%s", restored.ItemCount(), restored.Total())
	}
	if restored.Lines()[0].Name != coxinha.Name {
		t.Fatalf("expected name to survive, got %q", restored.Lines()[0].Name)
	}
}

func TestClearPersistsEmptyList(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	m := NewManager(store)
	_ = m.AddItem(ctx, coxinha)

	if err := m.Clear(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw, _ := store.Get(ctx, StorageKey)
	if raw != "[]" {
		t.Fatalf("expected stored empty list, got %q", raw)
	}
}

func TestRestoreMalformedYieldsEmptyCart(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"not json":       `{{{`,
		"object":         `{"id":"1"}`,
		"zero quantity":  `[{"id":"1","name":"x","price":"1","quantity":0}]`,
		"missing id":     `[{"name":"x","price":"1","quantity":1}]`,
		"negative price": `[{"id":"1","name":"x","price":"-1","quantity":1}]`,
		"duplicate":      `[{"id":"1","name":"x","price":"1","quantity":1},{"id":"1","name":"x","price":"1","quantity":2}]`,
		"bad price":      `[{"id":"1","name":"x","price":"abc","quantity":1}]`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			store := kvstore.NewMemory()
			m := NewManager(store)
			if err := m.AddItem(ctx, coxinha); err != nil {
				t.Fatal(err)
			}
			// restore must replace the lines already in memory
			if err := store.Set(ctx, StorageKey, raw); err != nil {
				t.Fatal(err)
			}
			if err := m.Restore(ctx); err != nil {
				t.Fatalf("expected soft failure, got %v", err)
			}
			if m.Len() != 0 {
				t.Fatalf("expected empty cart, got %d lines", m.Len())
			}
		})
	}
}

func TestRestoreAcceptsNumericIDs(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()
	_ = store.Set(ctx, StorageKey, `[{"id":1,"name":"Coxinha","price":5,"category":"coxinhas","quantity":2}]`)

	m := NewManager(store)
	if err := m.Restore(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ItemCount() != 2 || m.Lines()[0].ProductID != "1" {
		t.Fatalf("unexpected cart %+v", m.Lines())
	}
}

func TestStoreFailuresPropagate(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	m := NewManager(failingStore{err: boom})

	if err := m.AddItem(ctx, coxinha); !errors.Is(err, boom) {
		t.Fatalf("expected persist error, got %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("expected in-memory change to stand, got %d lines", m.Len())
	}
	if err := m.Restore(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected restore error, got %v", err)
	}
}

func TestObserversSeeEveryChange(t *testing.T) {
	ctx := context.Background()
	m := NewManager(kvstore.NewMemory())

	var snaps []Snapshot
	m.Observe(func(s Snapshot) { snaps = append(snaps, s) })

	_ = m.AddItem(ctx, coxinha)
	_ = m.AddItem(ctx, suco)
	_ = m.SetQuantity(ctx, coxinha.ID, 3)
	_ = m.Clear(ctx)

	if len(snaps) != 4 {
		t.Fatalf("expected 4 notifications, got %d", len(snaps))
	}
	if snaps[2].ItemCount != 4 {
		t.Fatalf("expected 4 items after set quantity, got %d", snaps[2].ItemCount)
	}
	if !snaps[3].Empty() {
		t.Fatal("expected empty snapshot after clear")
	}
}

func TestSnapshotRevisionGrowsWithEachChange(t *testing.T) {
	ctx := context.Background()
	m := NewManager(kvstore.NewMemory())

	var revs []uint64
	m.Observe(func(s Snapshot) { revs = append(revs, s.Revision) })

	_ = m.AddItem(ctx, coxinha)
	_ = m.AddItem(ctx, suco)
	_ = m.RemoveItem(ctx, "missing") // no-op, no notification
	_ = m.SetQuantity(ctx, suco.ID, 3)
	_ = m.Clear(ctx)

	if len(revs) != 4 {
		t.Fatalf("expected 4 notifications, got %d", len(revs))
	}
	for i := 1; i < len(revs); i++ {
		if revs[i] <= revs[i-1] {
			t.Fatalf("expected increasing revisions, got %v", revs)
		}
	}
	if m.Snapshot().Revision != revs[len(revs)-1] {
		t.Fatalf("expected current revision %d, got %d", revs[len(revs)-1], m.Snapshot().Revision)
	}
}
