package view

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront-cart/internal/cart"
	"github.com/jcmexdev/storefront-cart/internal/catalog"
	"github.com/jcmexdev/storefront-cart/internal/checkout"
	"github.com/jcmexdev/storefront-cart/internal/order"
	"github.com/jcmexdev/storefront-cart/internal/pkg/kvstore"
)

var (
	coxinha = catalog.Product{ID: "1", Name: "Coxinha de Frango", Price: decimal.RequireFromString("25.00"), Category: "coxinhas"}
	suco    = catalog.Product{ID: "2", Name: "Suco Natural", Price: decimal.RequireFromString("10.00"), Category: "drinks"}
)

func alwaysValid(snap cart.Snapshot) order.Validity {
	return order.Validate(snap.Total, len(snap.Lines), order.Form{Name: "Ana", Address: "Rua A, 1"})
}

func TestPresenterRendersEmptyCart(t *testing.T) {
	p := NewPresenter(cart.Snapshot{}, alwaysValid, time.Hour)
	defer p.Stop()

	v := p.View()
	assert.Equal(t, 0, v.Count)
	assert.False(t, v.CountVisible)
	assert.Empty(t, v.Lines)
	require.NotNil(t, v.Empty)
	assert.Equal(t, EmptyTitle, v.Empty.Title)
	assert.Equal(t, EmptySubtitle, v.Empty.Subtitle)
	assert.Equal(t, "0,00", v.Total)
	assert.False(t, v.FormVisible)
	assert.False(t, v.CheckoutEnabled)
}

func TestPresenterFollowsCart(t *testing.T) {
	ctx := context.Background()
	m := cart.NewManager(kvstore.NewMemory())
	p := NewPresenter(m.Snapshot(), alwaysValid, time.Hour)
	defer p.Stop()
	m.Observe(p.Update)

	require.NoError(t, m.AddItem(ctx, coxinha))
	require.NoError(t, m.AddItem(ctx, coxinha))
	require.NoError(t, m.AddItem(ctx, suco))

	v := p.View()
	assert.Equal(t, 3, v.Count)
	assert.True(t, v.CountVisible)
	assert.Nil(t, v.Empty)
	assert.Equal(t, "60,00", v.Total)
	assert.True(t, v.FormVisible)
	assert.True(t, v.CheckoutEnabled)

	require.Len(t, v.Lines, 2)
	assert.Equal(t, LineView{
		ProductID: "1",
		Name:      "Coxinha de Frango",
		Price:     "R$ 25,00",
		Subtotal:  "R$ 50,00",
		Quantity:  2,
		Decrement: 1,
		Increment: 3,
	}, v.Lines[0])
}

func TestPresenterCheckoutNeedsValidForm(t *testing.T) {
	var form atomic.Value
	form.Store(order.Form{})
	validity := func(snap cart.Snapshot) order.Validity {
		return order.Validate(snap.Total, len(snap.Lines), form.Load().(order.Form))
	}

	snap := cart.Snapshot{
		Lines:     []cart.Line{{ProductID: "1", Name: "Coxinha", Price: decimal.NewFromInt(25), Quantity: 1}},
		Total:     decimal.NewFromInt(25),
		ItemCount: 1,
	}
	p := NewPresenter(snap, validity, time.Hour)
	defer p.Stop()

	v := p.View()
	assert.False(t, v.CheckoutEnabled)
	assert.Equal(t, order.ReasonMissingName, v.Validity.Reason)

	form.Store(order.Form{Name: "Ana", Address: "Rua A"})
	p.Redraw()
	assert.True(t, p.View().CheckoutEnabled)
}

func TestPresenterToggleAndClose(t *testing.T) {
	p := NewPresenter(cart.Snapshot{}, nil, time.Hour)
	defer p.Stop()

	assert.True(t, p.Toggle().CartOpen)
	assert.False(t, p.Toggle().CartOpen)

	p.Toggle()
	assert.False(t, p.Close().CartOpen)

	before := p.View().Revision
	p.Close()
	assert.Equal(t, before, p.View().Revision, "closing a closed cart should not redraw")
}

func TestPresenterSubscribe(t *testing.T) {
	p := NewPresenter(cart.Snapshot{}, nil, time.Hour)
	defer p.Stop()

	ch, cancel := p.Subscribe()
	first := <-ch
	assert.False(t, first.CartOpen)

	p.Toggle()
	select {
	case v := <-ch:
		assert.True(t, v.CartOpen)
	case <-time.After(time.Second):
		t.Fatal("expected a view after toggle")
	}

	cancel()
	cancel()
	p.Toggle()
	select {
	case v := <-ch:
		t.Fatalf("unexpected view after cancel: %+v", v)
	default:
	}
}

func TestPresenterRefreshIsDebounced(t *testing.T) {
	p := NewPresenter(cart.Snapshot{}, nil, 20*time.Millisecond)
	defer p.Stop()
	start := p.View().Revision

	for i := 0; i < 10; i++ {
		p.Refresh()
	}

	require.Eventually(t, func() bool { return p.View().Revision == start+1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, start+1, p.View().Revision)
}

func TestDebouncerReplacesPendingCall(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func() { calls.Add(1) })

	d.Trigger()
	time.Sleep(10 * time.Millisecond)
	d.Trigger()
	time.Sleep(10 * time.Millisecond)
	d.Trigger()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDebouncerStop(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(10*time.Millisecond, func() { calls.Add(1) })

	d.Trigger()
	d.Stop()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestNoticesConfirmationExpires(t *testing.T) {
	n := NewNotices(30*time.Millisecond, time.Hour)
	defer n.Stop()

	var changes atomic.Int32
	n.OnChange(func() { changes.Add(1) })

	notice := n.Confirm()
	assert.Equal(t, "Pedido Enviado!", notice.Title)

	got, ok := n.Confirmation()
	require.True(t, ok)
	assert.Equal(t, notice, got)

	require.Eventually(t, func() bool {
		_, ok := n.Confirmation()
		return !ok
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(2), changes.Load())
}

func TestNoticesProductFeedback(t *testing.T) {
	n := NewNotices(time.Hour, 30*time.Millisecond)
	defer n.Stop()

	n.Added("2")
	n.Added("1")
	assert.Equal(t, []catalog.ProductID{"1", "2"}, n.RecentlyAdded())

	require.Eventually(t, func() bool { return len(n.RecentlyAdded()) == 0 }, time.Second, 5*time.Millisecond)
}

func TestNoticesAddedAgainRestartsTimer(t *testing.T) {
	n := NewNotices(time.Hour, 40*time.Millisecond)
	defer n.Stop()

	n.Added("1")
	time.Sleep(25 * time.Millisecond)
	n.Added("1")
	time.Sleep(25 * time.Millisecond)

	assert.Equal(t, []catalog.ProductID{"1"}, n.RecentlyAdded())
	require.Eventually(t, func() bool { return len(n.RecentlyAdded()) == 0 }, time.Second, 5*time.Millisecond)
}

func TestBindRunsCheckoutThroughTheView(t *testing.T) {
	ctx := context.Background()
	m := cart.NewManager(kvstore.NewMemory())
	o := checkout.NewOrchestrator(m, order.NewFormatter("COXINHAS DELIVERY", time.UTC), "5598985197515", nil, nil)
	p := NewPresenter(m.Snapshot(), o.ValidityFor, time.Hour)
	defer p.Stop()
	n := NewNotices(time.Hour, time.Hour)
	defer n.Stop()
	Bind(m, o, p, n)

	require.NoError(t, m.AddItem(ctx, coxinha))
	p.Toggle()
	assert.False(t, p.View().CheckoutEnabled)

	o.UpdateForm(order.Form{Name: "Ana", Address: "Rua A, 1", Change: order.ChangeNo})
	assert.True(t, p.View().CheckoutEnabled, "form edits should redraw the view")

	_, err := o.Checkout(ctx)
	require.NoError(t, err)

	v := p.View()
	assert.False(t, v.CartOpen)
	assert.Equal(t, 0, v.Count)
	assert.NotNil(t, v.Empty)
	assert.False(t, v.CheckoutEnabled)

	_, ok := n.Confirmation()
	assert.True(t, ok)
}

func TestPresenterIgnoresStaleSnapshot(t *testing.T) {
	p := NewPresenter(cart.Snapshot{}, nil, time.Hour)
	defer p.Stop()

	newer := cart.Snapshot{
		Lines:     []cart.Line{{ProductID: "1", Name: "Coxinha", Price: decimal.NewFromInt(25), Quantity: 2}},
		Total:     decimal.NewFromInt(50),
		ItemCount: 2,
		Revision:  2,
	}
	older := cart.Snapshot{
		Lines:     []cart.Line{{ProductID: "1", Name: "Coxinha", Price: decimal.NewFromInt(25), Quantity: 1}},
		Total:     decimal.NewFromInt(25),
		ItemCount: 1,
		Revision:  1,
	}

	p.Update(newer)
	p.Update(older)

	v := p.View()
	assert.Equal(t, 2, v.Count)
	assert.Equal(t, "50,00", v.Total)
}

func TestPresenterCloseSubscribers(t *testing.T) {
	p := NewPresenter(cart.Snapshot{}, nil, time.Hour)
	defer p.Stop()

	ch, cancel := p.Subscribe()
	defer cancel()
	<-ch

	p.CloseSubscribers()
	_, ok := <-ch
	assert.False(t, ok, "subscription should be closed")

	late, _ := p.Subscribe()
	_, ok = <-late
	assert.False(t, ok, "subscribing after close yields a closed channel")

	p.Toggle()
}
