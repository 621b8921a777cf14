package tariff

import (
	"fmt"
	"math"
	"strings"

	"github.com/raterudder/billcompare/pkg/types"
	"github.com/shopspring/decimal"
)

// FormatDollars rounds to cents, half away from zero. Negative amounts put
// the sign before the currency symbol. Non-finite amounts, which decimal
// cannot represent, render as "NaN", "+Inf" or "-Inf".
func FormatDollars(v float64) string {
	if s, ok := nonFinite(v); ok {
		return s
	}
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// Summary renders one "Scheme: $x.xx" line per bill in display order.
func Summary(c types.Comparison) string {
	lines := make([]string, 0, len(c.Bills))
	for _, b := range c.Ordered() {
		lines = append(lines, fmt.Sprintf("%s: %s", b.Scheme, FormatDollars(b.Cost)))
	}
	return strings.Join(lines, "\n")
}

// Costs returns each scheme's cost formatted to two decimals, without the
// currency sign.
func Costs(c types.Comparison) map[types.Scheme]string {
	out := make(map[types.Scheme]string, len(c.Bills))
	for s, b := range c.Bills {
		if str, ok := nonFinite(b.Cost); ok {
			out[s] = str
			continue
		}
		out[s] = decimal.NewFromFloat(b.Cost).StringFixed(2)
	}
	return out
}

func nonFinite(v float64) (string, bool) {
	switch {
	case math.IsNaN(v):
		return "NaN", true
	case math.IsInf(v, 1):
		return "+Inf", true
	case math.IsInf(v, -1):
		return "-Inf", true
	}
	return "", false
}
