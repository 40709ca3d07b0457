// Package money rounds and formats currency amounts the way the seller sees them.
package money

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 rounds v half away from zero to two decimal places.
// NaN and infinities collapse to 0.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Price validates a monetary input: negative or non-finite values become 0,
// everything else is rounded to cents.
func Price(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return Round2(v)
}

// FormatBRL formats an amount as "R$ 1234,56".
func FormatBRL(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	s := decimal.NewFromFloat(v).StringFixed(2)
	return "R$ " + strings.Replace(s, ".", ",", 1)
}

// FormatPercent formats a percentage with one decimal, e.g. "25,6%".
func FormatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	s := decimal.NewFromFloat(v).StringFixed(1)
	return strings.Replace(s, ".", ",", 1) + "%"
}
