package cart

import (
	"encoding/json"
	"errors"
	"fmt"
)

// StorageKey is the fixed key the cart lives under in the key-value store.
const StorageKey = "coxinhas-cart"

var errMalformed = errors.New("cart: malformed stored cart")

func encodeLines(lines []Line) (string, error) {
	if lines == nil {
		lines = []Line{}
	}
	b, err := json.Marshal(lines)
	if err != nil {
		return "", fmt.Errorf("cart: encode: %w", err)
	}
	return string(b), nil
}

// decodeLines parses a stored cart. Anything that is not a list of valid,
// distinct lines is reported as errMalformed.
func decodeLines(raw string) ([]Line, error) {
	var lines []Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}

	seen := make(map[string]bool, len(lines))
	for i, l := range lines {
		switch {
		case l.ProductID == "":
			return nil, fmt.Errorf("%w: line %d has no product id", errMalformed, i)
		case l.Quantity < 1:
			return nil, fmt.Errorf("%w: line %d has quantity %d", errMalformed, i, l.Quantity)
		case l.Price.IsNegative():
			return nil, fmt.Errorf("%w: line %d has a negative price", errMalformed, i)
		case seen[string(l.ProductID)]:
			return nil, fmt.Errorf("%w: product %s appears twice", errMalformed, l.ProductID)
		}
		seen[string(l.ProductID)] = true
	}
	return lines, nil
}
