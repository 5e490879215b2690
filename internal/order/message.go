package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront-cart/internal/cart"
	"github.com/jcmexdev/storefront-cart/internal/pkg/money"
)

// dateLayout matches the pt-BR locale rendering, e.g. "19/10/2026, 14:05:09".
const dateLayout = "02/01/2006, 15:04:05"

type Formatter struct {
	StoreName string
	Location  *time.Location
	Now       func() time.Time
}

func NewFormatter(storeName string, loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.Local
	}
	return &Formatter{StoreName: storeName, Location: loc, Now: time.Now}
}

// Format builds the order message. Sections always appear in the same order;
// the payment section is left out when the customer did not answer the
// change question, and observations are appended last only when present.
func (f *Formatter) Format(lines []cart.Line, total decimal.Decimal, form Form) string {
	form = form.Normalize()

	items := make([]string, len(lines))
	for i, l := range lines {
		items[i] = fmt.Sprintf("• %dx %s - %s", l.Quantity, l.Name, money.BRL(l.Subtotal()))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🍗 *PEDIDO - %s*\n\n", f.StoreName)
	fmt.Fprintf(&b, "📅 Data: %s\n\n", f.Now().In(f.Location).Format(dateLayout))
	b.WriteString("👤 *CLIENTE:*\n")
	fmt.Fprintf(&b, "Nome: %s\n", form.Name)
	fmt.Fprintf(&b, "📍 Endereço: %s\n\n", form.Address)
	b.WriteString("📋 *ITENS:*\n")
	b.WriteString(strings.Join(items, "\n"))
	fmt.Fprintf(&b, "\n\n💰 *TOTAL: %s*", money.BRL(total))

	if payment := paymentSection(total, form); payment != "" {
		b.WriteString("\n\n💵 *PAGAMENTO:*\n")
		b.WriteString(payment)
	}

	if form.Observations != "" {
		b.WriteString("\n\n📝 *OBSERVAÇÕES:*\n")
		b.WriteString(form.Observations)
	}

	return b.String()
}

func paymentSection(total decimal.Decimal, form Form) string {
	switch form.Change {
	case ChangeYes:
		amount, err := money.Parse(form.ChangeAmount)
		if err != nil {
			return ""
		}
		return fmt.Sprintf("Precisa de troco para: %s\nTroco: %s", money.BRL(amount), money.BRL(ChangeDue(amount, total)))
	case ChangeNo:
		return "Não precisa de troco"
	default:
		return ""
	}
}
