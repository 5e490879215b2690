// Package templates renders the storefront page.
package templates

import (
	"embed"
	"encoding/json"
	"html/template"
	"io"

	"github.com/jcmexdev/storefront-cart/internal/catalog"
	"github.com/jcmexdev/storefront-cart/internal/pkg/money"
	"github.com/jcmexdev/storefront-cart/internal/view"
)

//go:embed index.html
var files embed.FS

var index = template.Must(template.ParseFS(files, "index.html"))

// Card is one product card. DataProduct is what the add button posts back.
type Card struct {
	ID          catalog.ProductID
	Name        string
	Description string
	Image       string
	PriceLabel  string
	Category    string
	DataProduct string
	Visible     bool
}

type Page struct {
	StoreName string
	Buttons   []catalog.Button
	Products  []Card
	View      view.View
}

func NewCard(p catalog.Product, visible bool) (Card, error) {
	data, err := json.Marshal(struct {
		ID       catalog.ProductID `json:"id"`
		Name     string            `json:"name"`
		Price    json.Number       `json:"price"`
		Category string            `json:"category"`
	}{p.ID, p.Name, json.Number(p.Price.StringFixed(2)), p.Category})
	if err != nil {
		return Card{}, err
	}
	return Card{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Image:       p.Image,
		PriceLabel:  money.BRL(p.Price),
		Category:    p.Category,
		DataProduct: string(data),
		Visible:     visible,
	}, nil
}

func Render(w io.Writer, page Page) error {
	return index.Execute(w, page)
}
