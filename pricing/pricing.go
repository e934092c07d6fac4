// Package pricing does money arithmetic for orders in decimal so that
// client-computed and server-verified prices agree to the cent.
package pricing

import "github.com/shopspring/decimal"

// Total is quantity * unit price, rounded to cents.
func Total(unit float64, quantity int) float64 {
	return decimal.NewFromFloat(unit).
		Mul(decimal.NewFromInt(int64(quantity))).
		Round(2).
		InexactFloat64()
}

// Matches reports whether two prices are equal once rounded to cents.
func Matches(a, b float64) bool {
	return decimal.NewFromFloat(a).Round(2).Equal(decimal.NewFromFloat(b).Round(2))
}

// DiscountPercentage is the whole-number percentage saved off original.
func DiscountPercentage(original, discounted float64) float64 {
	o := decimal.NewFromFloat(original)
	d := decimal.NewFromFloat(discounted)
	if !o.IsPositive() || d.GreaterThanOrEqual(o) {
		return 0
	}
	return o.Sub(d).Div(o).Mul(decimal.NewFromInt(100)).Round(0).InexactFloat64()
}
