package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatUSD renders a dollar amount with a magnitude suffix (K, M, B).
// Zero and absent values render "$0.00".
func FormatUSD(amount float64) string {
	if amount == 0 {
		return "$0.00"
	}
	abs := math.Abs(amount)
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("$%.2fB", amount/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("$%.2fM", amount/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("$%.2fK", amount/1e3)
	default:
		return fmt.Sprintf("$%.2f", amount)
	}
}

// GroupDigits renders an integer with comma thousands separators.
func GroupDigits(n int) string {
	s := strconv.Itoa(n)
	start := 0
	if n < 0 {
		start = 1
	}
	digits := len(s) - start
	if digits <= 3 {
		return s
	}

	var b strings.Builder
	b.WriteString(s[:start])
	lead := digits % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[start : start+lead])
	for i := start + lead; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
