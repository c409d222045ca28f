// Package money rounds engine amounts to cents for storage and display.
// The pricing engine itself works in float64; rounding happens only here.
package money

import "github.com/shopspring/decimal"

// Cents rounds v to two decimal places, half away from zero.
func Cents(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// Round is Cents as a float64.
func Round(v float64) float64 {
	return Cents(v).InexactFloat64()
}

// Format renders v with exactly two decimals, e.g. "26.25".
func Format(v float64) string {
	return Cents(v).StringFixed(2)
}
