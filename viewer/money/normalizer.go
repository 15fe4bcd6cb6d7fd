// Package money converts raw integer ledger amounts into decimal and fiat
// denominated values. All arithmetic is arbitrary-precision decimal; ledger
// amounts routinely exceed the 53-bit float-safe range (18-decimal tokens),
// so nothing here goes through a binary float.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMalformedAmount marks a numeric field that could not be parsed.
// It indicates an upstream data defect and is not retryable.
var ErrMalformedAmount = errors.New("malformed amount")

// maxExponent bounds the token decimals accepted from upstream. No real
// asset exceeds a few dozen; anything larger would also overflow the int32
// shift below.
const maxExponent = 77

// ToDecimal parses raw as an arbitrary-precision integer and scales it down
// by 10^exponent.
func ToDecimal(raw string, exponent int) (decimal.Decimal, error) {
	if exponent < 0 || exponent > maxExponent {
		return decimal.Decimal{}, fmt.Errorf("%w: exponent %d out of range", ErrMalformedAmount, exponent)
	}

	trimmed := strings.TrimSpace(raw)
	if !isIntegerLiteral(trimmed) {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is not an integer", ErrMalformedAmount, raw)
	}

	n, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrMalformedAmount, raw)
	}

	return n.Shift(int32(-exponent)), nil
}

// ToFiat returns amount * rate, or nil when the rate is absent or not
// positive. A nil result means "unpriced" and must never be conflated with a
// zero value.
func ToFiat(amount decimal.Decimal, rate *decimal.Decimal) *decimal.Decimal {
	if rate == nil || rate.Sign() <= 0 {
		return nil
	}
	fiat := amount.Mul(*rate)
	return &fiat
}

// ParseRate parses an exchange rate string from the explorer. An empty string
// means the asset is unpriced and yields (nil, nil); anything else must be a
// valid decimal.
func ParseRate(s string) (*decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, nil
	}
	rate, err := decimal.NewFromString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange rate %q", ErrMalformedAmount, s)
	}
	return &rate, nil
}

func isIntegerLiteral(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
