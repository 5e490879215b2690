// Package checkout turns the cart and the delivery form into an order
// handed off to WhatsApp, moving through Idle → Validating → Rejected or
// Submitting → Completed.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jcmexdev/storefront-cart/internal/cart"
	"github.com/jcmexdev/storefront-cart/internal/checkout/orderlog"
	"github.com/jcmexdev/storefront-cart/internal/order"
)

const tracerName = "github.com/jcmexdev/storefront-cart/internal/checkout"

// RejectedMessage is the single notice shown when the form does not validate.
const RejectedMessage = "Por favor, preencha todos os campos obrigatórios corretamente."

var (
	ErrRejected = errors.New("checkout: order form is not valid")
	ErrHandoff  = errors.New("checkout: hand-off failed")
)

type State string

const (
	StateIdle       State = "IDLE"
	StateValidating State = "VALIDATING"
	StateRejected   State = "REJECTED"
	StateSubmitting State = "SUBMITTING"
	StateCompleted  State = "COMPLETED"
	StateFailed     State = "FAILED"
)

// Opener invokes the hand-off link. No response is awaited.
type Opener interface {
	Open(ctx context.Context, link string) error
}

type OpenerFunc func(ctx context.Context, link string) error

func (f OpenerFunc) Open(ctx context.Context, link string) error { return f(ctx, link) }

// ClientOpener leaves opening to the page: the link travels back in the
// checkout response and the browser opens it in a new tab.
var ClientOpener = OpenerFunc(func(context.Context, string) error { return nil })

// CompletedHook runs after a checkout completes.
type CompletedHook func(ctx context.Context, res Result)

// FormHook runs whenever the draft form changes.
type FormHook func(f order.Form)

type Result struct {
	OrderID    string         `json:"order_id"`
	State      State          `json:"state"`
	Validity   order.Validity `json:"validity"`
	Message    string         `json:"message,omitempty"`
	HandoffURL string         `json:"handoff_url,omitempty"`
}

// Orchestrator owns the transient order form and runs checkouts one at a time.
type Orchestrator struct {
	cart      *cart.Manager
	formatter *order.Formatter
	number    string
	opener    Opener
	log       orderlog.Repository // nil-safe: transitions are not recorded if nil
	newID     func() string

	run sync.Mutex // serializes checkouts

	mu          sync.Mutex
	form        order.Form
	state       State
	onCompleted []CompletedHook
	onForm      []FormHook
}

func NewOrchestrator(c *cart.Manager, f *order.Formatter, number string, opener Opener, log orderlog.Repository) *Orchestrator {
	if opener == nil {
		opener = ClientOpener
	}
	return &Orchestrator{
		cart:      c,
		formatter: f,
		number:    number,
		opener:    opener,
		log:       log,
		newID:     uuid.NewString,
		state:     StateIdle,
	}
}

// OnCompleted registers fn to run after a successful checkout.
func (o *Orchestrator) OnCompleted(fn CompletedHook) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onCompleted = append(o.onCompleted, fn)
}

// OnFormChanged registers fn to run whenever the draft form changes.
func (o *Orchestrator) OnFormChanged(fn FormHook) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onForm = append(o.onForm, fn)
}

// UpdateForm replaces the draft form and reports whether checkout may proceed.
func (o *Orchestrator) UpdateForm(f order.Form) order.Validity {
	f = f.Normalize()

	o.mu.Lock()
	o.form = f
	hooks := append([]FormHook(nil), o.onForm...)
	o.mu.Unlock()

	for _, fn := range hooks {
		fn(f)
	}
	return o.Validity()
}

func (o *Orchestrator) Form() order.Form {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.form
}

// Validity validates the draft form against the current cart.
func (o *Orchestrator) Validity() order.Validity {
	return o.ValidityFor(o.cart.Snapshot())
}

// ValidityFor validates the draft form against snap.
func (o *Orchestrator) ValidityFor(snap cart.Snapshot) order.Validity {
	return order.Validate(snap.Total, len(snap.Lines), o.Form())
}

// State is the state the last checkout ended in.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Checkout validates the draft form, formats the order message, invokes the
// hand-off and then clears the cart and the form. A rejected form returns
// ErrRejected and changes nothing. A failed hand-off returns ErrHandoff and
// leaves the cart intact; it is not retried.
func (o *Orchestrator) Checkout(ctx context.Context) (Result, error) {
	o.run.Lock()
	defer o.run.Unlock()

	a := &attempt{
		orderID:  o.newID(),
		snapshot: o.cart.Snapshot(),
		form:     o.Form(),
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "checkout")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", a.orderID),
		attribute.Int("order.items", a.snapshot.ItemCount),
	)

	steps := []Step{
		validateStep{},
		formatStep{formatter: o.formatter, number: o.number},
		handoffStep{opener: o.opener},
		completeStep{o: o},
	}

	current := StateIdle
	for _, step := range steps {
		if step.State() != current {
			current = step.State()
			o.setState(current)
			if current == StateValidating {
				o.record(ctx, a.orderID, orderlog.StatusValidating, step.Name(), "", nil)
			}
		}

		slog.DebugContext(ctx, "executing checkout step", "order_id", a.orderID, "step", step.Name())
		if err := step.Execute(ctx, a); err != nil {
			final := StateFailed
			if errors.Is(err, ErrRejected) {
				final = StateRejected
			}
			o.setState(final)
			o.record(ctx, a.orderID, logStatus(final), step.Name(), "", []string{err.Error()})

			if final == StateRejected {
				span.SetAttributes(attribute.String("order.rejected_reason", string(a.validity.Reason)))
				slog.InfoContext(ctx, "checkout rejected", "order_id", a.orderID, "reason", a.validity.Reason)
			} else {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				slog.ErrorContext(ctx, "checkout failed", "order_id", a.orderID, "step", step.Name(), "error", err)
			}
			return o.result(a, final), err
		}

		if _, ok := step.(formatStep); ok {
			o.record(ctx, a.orderID, orderlog.StatusSubmitting, step.Name(), a.message, nil)
		}
	}

	o.setState(StateCompleted)
	o.record(ctx, a.orderID, orderlog.StatusCompleted, "complete", "", nil)
	slog.InfoContext(ctx, "order handed off", "order_id", a.orderID, "items", a.snapshot.ItemCount, "total", a.snapshot.Total.StringFixed(2))

	res := o.result(a, StateCompleted)
	o.mu.Lock()
	hooks := append([]CompletedHook(nil), o.onCompleted...)
	o.mu.Unlock()
	for _, fn := range hooks {
		fn(ctx, res)
	}
	return res, nil
}

func (o *Orchestrator) result(a *attempt, s State) Result {
	return Result{
		OrderID:    a.orderID,
		State:      s,
		Validity:   a.validity,
		Message:    a.message,
		HandoffURL: a.link,
	}
}

func (o *Orchestrator) record(ctx context.Context, orderID string, status orderlog.Status, step, payload string, errs []string) {
	if o.log == nil {
		return
	}
	entry := orderlog.NewEntry(ctx, orderID, status, step, payload, errs)
	if err := o.log.Save(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "failed to save order log entry", "order_id", orderID, "status", status, "error", err)
	}
}

func logStatus(s State) orderlog.Status {
	switch s {
	case StateValidating:
		return orderlog.StatusValidating
	case StateRejected:
		return orderlog.StatusRejected
	case StateSubmitting:
		return orderlog.StatusSubmitting
	case StateCompleted:
		return orderlog.StatusCompleted
	default:
		return orderlog.StatusFailed
	}
}
