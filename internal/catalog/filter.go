package catalog

import (
	"errors"
	"fmt"
	"sync"
)

// All is the wildcard tag that shows every product.
const All = "all"

var ErrUnknownCategory = errors.New("catalog: unknown category")

type Button struct {
	Tag    string `json:"tag"`
	Active bool   `json:"active"`
}

type Visibility struct {
	Product Product `json:"product"`
	Visible bool    `json:"visible"`
}

// Filter tracks the category buttons. Exactly one button is active at any time.
type Filter struct {
	mu      sync.RWMutex
	buttons []Button
}

// NewFilter creates the buttons for the given categories, with All first and active.
func NewFilter(categories []string) *Filter {
	buttons := []Button{{Tag: All, Active: true}}
	for _, c := range categories {
		if c == All {
			continue
		}
		buttons = append(buttons, Button{Tag: c})
	}
	return &Filter{buttons: buttons}
}

// Select makes tag the only active button. An unknown tag leaves the current
// selection untouched.
func (f *Filter) Select(tag string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := -1
	for i, b := range f.buttons {
		if b.Tag == tag {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, tag)
	}

	for i := range f.buttons {
		f.buttons[i].Active = false
	}
	f.buttons[idx].Active = true
	return nil
}

func (f *Filter) Active() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, b := range f.buttons {
		if b.Active {
			return b.Tag
		}
	}
	return All
}

func (f *Filter) Buttons() []Button {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Button, len(f.buttons))
	copy(out, f.buttons)
	return out
}

func (f *Filter) Visible(p Product) bool {
	return Matches(f.Active(), p)
}

func (f *Filter) Apply(products []Product) []Visibility {
	tag := f.Active()
	out := make([]Visibility, len(products))
	for i, p := range products {
		out[i] = Visibility{Product: p, Visible: Matches(tag, p)}
	}
	return out
}

// Matches reports whether p is shown under tag.
func Matches(tag string, p Product) bool {
	return tag == All || p.Category == tag
}
