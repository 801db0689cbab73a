package checkout

import (
	"fmt"
	"strconv"
	"strings"
)

// multiplyAmount multiplies a decimal money string by a quantity using cent
// arithmetic. Floats would drift on repeated multiplication.
func multiplyAmount(price string, qty int) (string, error) {
	cents, err := parseCents(price)
	if err != nil {
		return "", err
	}
	if qty < 1 {
		return "", fmt.Errorf("quantity must be positive, got %d", qty)
	}
	total := cents * int64(qty)
	return fmt.Sprintf("%d.%02d", total/100, total%100), nil
}

func parseCents(price string) (int64, error) {
	whole, frac, _ := strings.Cut(strings.TrimSpace(price), ".")
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units < 0 {
		return 0, fmt.Errorf("invalid amount %q", price)
	}
	switch len(frac) {
	case 0:
		return units * 100, nil
	case 1:
		frac += "0"
	case 2:
	default:
		return 0, fmt.Errorf("invalid amount %q: too many decimal places", price)
	}
	centPart, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", price)
	}
	return units*100 + centPart, nil
}
