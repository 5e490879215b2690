package checkout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jcmexdev/storefront-cart/internal/cart"
	"github.com/jcmexdev/storefront-cart/internal/order"
)

// attempt carries one checkout through its steps.
type attempt struct {
	orderID  string
	snapshot cart.Snapshot
	form     order.Form
	validity order.Validity
	message  string
	link     string
}

// Step is a single unit of work in a checkout. Steps run in order and the
// first failure stops the checkout; nothing is retried.
type Step interface {
	Name() string
	State() State
	Execute(ctx context.Context, a *attempt) error
}

// --- validateStep ---

type validateStep struct{}

func (validateStep) Name() string { return "validate_form" }
func (validateStep) State() State { return StateValidating }

func (validateStep) Execute(_ context.Context, a *attempt) error {
	a.validity = order.Validate(a.snapshot.Total, len(a.snapshot.Lines), a.form)
	if !a.validity.Valid {
		return fmt.Errorf("%w (%s)", ErrRejected, a.validity.Reason)
	}
	return nil
}

// --- formatStep ---

type formatStep struct {
	formatter *order.Formatter
	number    string
}

func (s formatStep) Name() string { return "format_message" }
func (s formatStep) State() State { return StateSubmitting }

func (s formatStep) Execute(_ context.Context, a *attempt) error {
	a.message = s.formatter.Format(a.snapshot.Lines, a.snapshot.Total, a.form)
	a.link = order.HandoffLink(s.number, a.message)
	return nil
}

// --- handoffStep ---

type handoffStep struct {
	opener Opener
}

func (s handoffStep) Name() string { return "handoff" }
func (s handoffStep) State() State { return StateSubmitting }

func (s handoffStep) Execute(ctx context.Context, a *attempt) error {
	if err := s.opener.Open(ctx, a.link); err != nil {
		return fmt.Errorf("%w: %v", ErrHandoff, err)
	}
	return nil
}

// --- completeStep ---

type completeStep struct {
	o *Orchestrator
}

func (s completeStep) Name() string { return "complete" }
func (s completeStep) State() State { return StateSubmitting }

// Execute never fails: the order has already been handed off, so a cart
// that cannot be persisted empty is logged and the checkout still completes.
func (s completeStep) Execute(ctx context.Context, a *attempt) error {
	if err := s.o.cart.Clear(ctx); err != nil {
		slog.ErrorContext(ctx, "order handed off but the emptied cart was not saved",
			"order_id", a.orderID, "error", err)
	}
	s.o.UpdateForm(order.Form{})
	return nil
}
