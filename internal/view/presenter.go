// Package view renders cart state into the data the storefront page draws:
// the badge count, the line list, the total and whether checkout is allowed.
package view

import (
	"sync"
	"time"

	"github.com/jcmexdev/storefront-cart/internal/cart"
	"github.com/jcmexdev/storefront-cart/internal/catalog"
	"github.com/jcmexdev/storefront-cart/internal/order"
	"github.com/jcmexdev/storefront-cart/internal/pkg/money"
)

const (
	ResizeDelay = 250 * time.Millisecond

	EmptyTitle    = "Seu carrinho está vazio"
	EmptySubtitle = "Adicione alguns produtos deliciosos!"

	subscriberBuffer = 8
)

type LineView struct {
	ProductID catalog.ProductID `json:"id"`
	Name      string            `json:"name"`
	Price     string            `json:"price"`
	Subtotal  string            `json:"subtotal"`
	Quantity  int               `json:"quantity"`
	Decrement int               `json:"decrement"`
	Increment int               `json:"increment"`
}

type EmptyView struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

type View struct {
	Count           int            `json:"count"`
	CountVisible    bool           `json:"count_visible"`
	Lines           []LineView     `json:"lines"`
	Empty           *EmptyView     `json:"empty,omitempty"`
	Total           string         `json:"total"`
	CheckoutEnabled bool           `json:"checkout_enabled"`
	FormVisible     bool           `json:"form_visible"`
	CartOpen        bool           `json:"cart_open"`
	Validity        order.Validity `json:"validity"`
	Revision        uint64         `json:"revision"`
}

// ValidityFunc reports whether the current draft form would validate
// against snap.
type ValidityFunc func(snap cart.Snapshot) order.Validity

// Presenter keeps the latest rendered View and pushes every new one to its
// subscribers. Hook Update to the cart manager as an observer.
type Presenter struct {
	validity ValidityFunc
	resize   *Debouncer

	mu       sync.Mutex
	snap     cart.Snapshot
	open     bool
	current  View
	revision uint64
	nextSub  int
	subs     map[int]chan View
	closed   bool
}

func NewPresenter(initial cart.Snapshot, validity ValidityFunc, resizeDelay time.Duration) *Presenter {
	p := &Presenter{
		validity: validity,
		snap:     initial,
		subs:     make(map[int]chan View),
	}
	p.resize = NewDebouncer(resizeDelay, p.Redraw)
	p.mu.Lock()
	p.current = p.renderLocked()
	p.mu.Unlock()
	return p
}

// Update renders snap. It has the cart.Observer signature. A snapshot older
// than the one already drawn is ignored.
func (p *Presenter) Update(snap cart.Snapshot) {
	p.mu.Lock()
	if snap.Revision < p.snap.Revision {
		p.mu.Unlock()
		return
	}
	p.snap = snap
	p.publishLocked()
	p.mu.Unlock()
}

// Redraw renders the last snapshot again, e.g. after the form changed.
func (p *Presenter) Redraw() {
	p.mu.Lock()
	p.publishLocked()
	p.mu.Unlock()
}

// Refresh schedules a redraw once resize events settle.
func (p *Presenter) Refresh() {
	p.resize.Trigger()
}

func (p *Presenter) Toggle() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open = !p.open
	p.publishLocked()
	return p.current
}

// Close hides the cart panel. Closing a closed cart changes nothing.
func (p *Presenter) Close() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.open {
		p.open = false
		p.publishLocked()
	}
	return p.current
}

func (p *Presenter) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Subscribe returns a channel receiving every rendered view, starting with
// the current one. A subscriber that falls behind misses intermediate views.
// The channel is closed by CloseSubscribers.
func (p *Presenter) Subscribe() (<-chan View, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan View, subscriberBuffer)
	if p.closed {
		close(ch)
		return ch, func() {}
	}

	id := p.nextSub
	p.nextSub++
	ch <- p.current
	p.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
	return ch, cancel
}

// CloseSubscribers closes every subscription channel and refuses new ones.
func (p *Presenter) CloseSubscribers() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for id, ch := range p.subs {
		close(ch)
		delete(p.subs, id)
	}
}

func (p *Presenter) Stop() {
	p.resize.Stop()
}

func (p *Presenter) publishLocked() {
	p.revision++
	p.current = p.renderLocked()
	for _, ch := range p.subs {
		select {
		case ch <- p.current:
		default:
		}
	}
}

func (p *Presenter) renderLocked() View {
	s := p.snap
	v := View{
		Count:        s.ItemCount,
		CountVisible: s.ItemCount > 0,
		Lines:        make([]LineView, 0, len(s.Lines)),
		Total:        money.Plain(s.Total),
		FormVisible:  !s.Empty(),
		CartOpen:     p.open,
		Revision:     p.revision,
	}
	for _, l := range s.Lines {
		v.Lines = append(v.Lines, LineView{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     money.BRL(l.Price),
			Subtotal:  money.BRL(l.Subtotal()),
			Quantity:  l.Quantity,
			Decrement: l.Quantity - 1,
			Increment: l.Quantity + 1,
		})
	}
	if s.Empty() {
		v.Empty = &EmptyView{Title: EmptyTitle, Subtitle: EmptySubtitle}
	}
	if p.validity != nil {
		v.Validity = p.validity(s)
	}
	v.CheckoutEnabled = !s.Empty() && v.Validity.Valid
	return v
}
