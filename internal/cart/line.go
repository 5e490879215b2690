package cart

import (
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront-cart/internal/catalog"
)

// Line is one product in the cart and how many of it the customer wants.
// The price is copied from the catalog when the line is created.
type Line struct {
	ProductID catalog.ProductID `json:"id"`
	Name      string            `json:"name"`
	Price     decimal.Decimal   `json:"price"`
	Category  string            `json:"category,omitempty"`
	Quantity  int               `json:"quantity"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is a point-in-time copy of the cart handed to observers.
type Snapshot struct {
	Lines     []Line
	Total     decimal.Decimal
	ItemCount int
	// Revision grows with every change to the cart.
	Revision uint64
}

func (s Snapshot) Empty() bool {
	return len(s.Lines) == 0
}

func total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

func itemCount(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}
