package util

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmountCent bounds a single amount so that sums over a ledger can never
// overflow int64.
const MaxAmountCent int64 = 1_000_000_000_000_000

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrAmountTooBig  = errors.New("amount too large")
)

// ToCents converts a decimal amount to cents, rounding half away from zero
// on the third decimal place.
func ToCents(d decimal.Decimal) (int64, error) {
	c := d.Round(2).Shift(2)
	if c.Abs().GreaterThan(decimal.NewFromInt(MaxAmountCent)) {
		return 0, ErrAmountTooBig
	}
	return c.IntPart(), nil
}

// ParseAmount parses a decimal string such as "12.34" or "12,34" to cents.
func ParseAmount(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return ToCents(d)
}

// FromCents converts cents back to a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// FormatCents renders cents as a plain two-decimal string, e.g. "12.34".
func FormatCents(cents int64) string {
	return FromCents(cents).StringFixed(2)
}
