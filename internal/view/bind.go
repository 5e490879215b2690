package view

import (
	"context"

	"github.com/jcmexdev/storefront-cart/internal/cart"
	"github.com/jcmexdev/storefront-cart/internal/checkout"
	"github.com/jcmexdev/storefront-cart/internal/order"
)

// Bind connects the presenter and notices to the cart and the checkout:
// cart changes and form edits redraw the view, and a completed order shows
// the confirmation and closes the cart.
func Bind(c *cart.Manager, o *checkout.Orchestrator, p *Presenter, n *Notices) {
	c.Observe(p.Update)
	o.OnFormChanged(func(order.Form) { p.Redraw() })
	o.OnCompleted(func(context.Context, checkout.Result) {
		n.Confirm()
		p.Close()
	})
}
