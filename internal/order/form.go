// Package order validates the delivery form and turns a cart plus form into
// the text message handed off to WhatsApp.
package order

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/storefront-cart/internal/pkg/money"
)

// Change is the tri-state answer to "do you need change?".
type Change int

const (
	ChangeUnset Change = iota
	ChangeYes
	ChangeNo
)

func (c Change) String() string {
	switch c {
	case ChangeYes:
		return "yes"
	case ChangeNo:
		return "no"
	default:
		return ""
	}
}

func ParseChange(s string) (Change, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ChangeUnset, nil
	case "yes":
		return ChangeYes, nil
	case "no":
		return ChangeNo, nil
	default:
		return ChangeUnset, fmt.Errorf("order: invalid change choice %q", s)
	}
}

func (c Change) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Change) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseChange(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Form is the delivery form as the customer typed it.
type Form struct {
	Name         string `json:"name"`
	Address      string `json:"address"`
	Change       Change `json:"change"`
	ChangeAmount string `json:"change_amount"`
	Observations string `json:"observations"`
}

// Normalize trims the text fields. Answering "no" to change discards any amount.
func (f Form) Normalize() Form {
	f.Name = strings.TrimSpace(f.Name)
	f.Address = strings.TrimSpace(f.Address)
	f.Observations = strings.TrimSpace(f.Observations)
	f.ChangeAmount = strings.TrimSpace(f.ChangeAmount)
	if f.Change != ChangeYes {
		f.ChangeAmount = ""
	}
	return f
}

// Reason names the first rule a form breaks.
type Reason string

const (
	ReasonOK                  Reason = ""
	ReasonEmptyCart           Reason = "empty_cart"
	ReasonMissingName         Reason = "missing_name"
	ReasonMissingAddress      Reason = "missing_address"
	ReasonMissingChangeAmount Reason = "missing_change_amount"
	ReasonInvalidChangeAmount Reason = "invalid_change_amount"
	ReasonChangeNotAboveTotal Reason = "change_not_above_total"
)

type Validity struct {
	Valid  bool   `json:"valid"`
	Reason Reason `json:"reason,omitempty"`
}

// Validate checks the form against the cart. The customer must hand over
// strictly more than the total for change to make sense.
func Validate(total decimal.Decimal, lines int, f Form) Validity {
	f = f.Normalize()

	reason := func() Reason {
		switch {
		case lines == 0:
			return ReasonEmptyCart
		case f.Name == "":
			return ReasonMissingName
		case f.Address == "":
			return ReasonMissingAddress
		}
		if f.Change != ChangeYes {
			return ReasonOK
		}
		if f.ChangeAmount == "" {
			return ReasonMissingChangeAmount
		}
		amount, err := money.Parse(f.ChangeAmount)
		if err != nil {
			return ReasonInvalidChangeAmount
		}
		if !amount.GreaterThan(total) {
			return ReasonChangeNotAboveTotal
		}
		return ReasonOK
	}()

	return Validity{Valid: reason == ReasonOK, Reason: reason}
}
