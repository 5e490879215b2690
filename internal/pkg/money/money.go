// Package money renders decimal amounts the way the storefront shows them
// to Brazilian customers: two fixed decimals and a comma separator.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Plain formats d as "60,00".
func Plain(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}

// BRL formats d as "R$ 60,00".
func BRL(d decimal.Decimal) string {
	return "R$ " + Plain(d)
}

// Parse reads a customer-typed amount. Surrounding spaces are ignored and a
// comma is accepted as the decimal separator.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}
