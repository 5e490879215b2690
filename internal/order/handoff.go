package order

import (
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

const handoffBase = "https://wa.me/"

// ChangeDue is what the courier hands back when the customer pays with amount.
func ChangeDue(amount, total decimal.Decimal) decimal.Decimal {
	return amount.Sub(total)
}

// HandoffLink builds the WhatsApp link that carries message to number. The
// message is percent-encoded with spaces as %20.
func HandoffLink(number, message string) string {
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return handoffBase + url.PathEscape(number) + "?text=" + text
}
