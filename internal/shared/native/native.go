// Package native handles amounts of the chain's native value unit. Amounts
// are arbitrary-precision decimals capped at 18 fractional digits, the
// smallest denomination the ledger accounts in.
package native

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxFractionalDigits is the finest sub-unit resolution native value has.
const MaxFractionalDigits = 18

var (
	ErrMalformedAmount = errors.New("malformed native amount")
	ErrTooPrecise      = errors.New("native amount exceeds 18 fractional digits")
)

// Parse converts a decimal string into a native amount. Sign is preserved;
// callers enforce their own sign rules.
func Parse(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, ErrMalformedAmount
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, ErrMalformedAmount
	}
	if amount.Exponent() < -MaxFractionalDigits {
		return decimal.Zero, ErrTooPrecise
	}
	return amount, nil
}

// Format renders an amount the way Parse accepts it back.
func Format(amount decimal.Decimal) string {
	return amount.String()
}
