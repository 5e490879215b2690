// Package catalog holds the read-only product menu the storefront sells and
// the category filter that decides which products are on display.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("catalog: product not found")

// ProductID is the stable identifier of a product. Menu pages embed it as a
// JSON number, so both numbers and strings are accepted when decoding.
type ProductID string

func (id *ProductID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ProductID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("catalog: product id must be a string or number: %w", err)
	}
	*id = ProductID(n.String())
	return nil
}

type Product struct {
	ID       ProductID       `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`

	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

func (p Product) validate() error {
	if p.ID == "" {
		return errors.New("catalog: product id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("catalog: product %s has no name", p.ID)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("catalog: product %s has a negative price", p.ID)
	}
	return nil
}

// Catalog is the ordered menu. It is never mutated after construction.
type Catalog struct {
	products []Product
	byID     map[ProductID]int
}

func New(products []Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		byID:     make(map[ProductID]int, len(products)),
	}
	for _, p := range products {
		if err := p.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate product id %s", p.ID)
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c, nil
}

// Products returns a copy of the menu in display order.
func (c *Catalog) Products() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Lookup(id ProductID) (Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return c.products[i], nil
}

// Categories lists the distinct category tags in first-seen order.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range c.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out
}
