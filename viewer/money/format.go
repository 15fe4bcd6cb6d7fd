package money

import "github.com/shopspring/decimal"

// Display precision is a presentation rule only; callers keep the full
// precision decimals for any further computation such as ranking.
const (
	amountDisplayPlaces = 4
	fiatDisplayPlaces   = 2
)

// FormatAmount renders a decimal asset amount with 4 fractional digits,
// rounding ties away from zero.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(amountDisplayPlaces)
}

// FormatFiat renders a fiat value with 2 fractional digits, rounding ties
// away from zero.
func FormatFiat(d decimal.Decimal) string {
	return d.StringFixed(fiatDisplayPlaces)
}
