package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

//go:embed default_menu.html
var defaultMenu string

// LoadHTML reads the products embedded in a rendered menu page. Each
// .product-card carries data-category and its .add-btn carries the product
// as JSON in data-product. The card's first paragraph and image fill in a
// missing description and image.
func LoadHTML(r io.Reader) (*Catalog, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse html: %w", err)
	}

	var (
		products []Product
		parseErr error
	)
	doc.Find(".product-card").EachWithBreak(func(i int, card *goquery.Selection) bool {
		raw, ok := card.Find(".add-btn").First().Attr("data-product")
		if !ok {
			parseErr = fmt.Errorf("catalog: product card %d has no data-product", i)
			return false
		}
		var p Product
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			parseErr = fmt.Errorf("catalog: product card %d: %w", i, err)
			return false
		}
		if p.Category == "" {
			p.Category = strings.TrimSpace(card.AttrOr("data-category", ""))
		}
		if p.Description == "" {
			p.Description = strings.TrimSpace(card.Find("p").First().Text())
		}
		if p.Image == "" {
			img := card.Find("img").First()
			p.Image = img.AttrOr("data-src", img.AttrOr("src", ""))
		}
		products = append(products, p)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("catalog: no .product-card entries found")
	}
	return New(products)
}

// Default returns the menu shipped with the binary.
func Default() (*Catalog, error) {
	return LoadHTML(strings.NewReader(defaultMenu))
}
