package view

import (
	"sort"
	"sync"
	"time"

	"github.com/jcmexdev/storefront-cart/internal/catalog"
)

const (
	ConfirmationDuration = 3 * time.Second
	FeedbackDuration     = 1500 * time.Millisecond
)

type Notice struct {
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	ExpiresAt time.Time `json:"expires_at"`
}

var orderSent = Notice{
	Title: "Pedido Enviado!",
	Body:  "Seu pedido foi enviado para o WhatsApp. Aguarde o contato para confirmação!",
}

// Notices holds the transient messages the page shows: the order
// confirmation and the "Adicionado!" mark on a product's add button. Each
// disappears on its own after a fixed time.
type Notices struct {
	mu           sync.Mutex
	confirmFor   time.Duration
	feedbackFor  time.Duration
	confirmation *Notice
	confirmTimer *time.Timer
	added        map[catalog.ProductID]*time.Timer
	onChange     func()
}

func NewNotices(confirmFor, feedbackFor time.Duration) *Notices {
	return &Notices{
		confirmFor:  confirmFor,
		feedbackFor: feedbackFor,
		added:       make(map[catalog.ProductID]*time.Timer),
	}
}

// OnChange sets fn to run whenever a notice appears or expires.
func (n *Notices) OnChange(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onChange = fn
}

// Confirm shows the order confirmation, replacing one already on screen.
func (n *Notices) Confirm() Notice {
	n.mu.Lock()
	notice := orderSent
	notice.ExpiresAt = time.Now().Add(n.confirmFor)
	n.confirmation = &notice
	if n.confirmTimer != nil {
		n.confirmTimer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(n.confirmFor, func() {
		n.mu.Lock()
		if n.confirmTimer != timer {
			n.mu.Unlock()
			return
		}
		n.confirmation = nil
		n.confirmTimer = nil
		n.mu.Unlock()
		n.changed()
	})
	n.confirmTimer = timer
	n.mu.Unlock()

	n.changed()
	return notice
}

func (n *Notices) Confirmation() (Notice, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.confirmation == nil {
		return Notice{}, false
	}
	return *n.confirmation, true
}

// Added marks id as just added. Adding again restarts its timer.
func (n *Notices) Added(id catalog.ProductID) {
	n.mu.Lock()
	if t, ok := n.added[id]; ok {
		t.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(n.feedbackFor, func() {
		n.mu.Lock()
		if n.added[id] == timer {
			delete(n.added, id)
		}
		n.mu.Unlock()
		n.changed()
	})
	n.added[id] = timer
	n.mu.Unlock()

	n.changed()
}

// RecentlyAdded lists the products still showing feedback, sorted.
func (n *Notices) RecentlyAdded() []catalog.ProductID {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]catalog.ProductID, 0, len(n.added))
	for id := range n.added {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Stop cancels every pending expiry.
func (n *Notices) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.confirmTimer != nil {
		n.confirmTimer.Stop()
	}
	for _, t := range n.added {
		t.Stop()
	}
}

func (n *Notices) changed() {
	n.mu.Lock()
	fn := n.onChange
	n.mu.Unlock()
	if fn != nil {
		fn()
	}
}
