// Package core provides money parsing and handling utilities.
//
// Amounts travel through the system as integer cents. The store hands out
// decimal text ("45.5", "120,00"), which is parsed with shopspring/decimal
// and rounded half-up to two places.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to Money.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Zero is a valid
// amount; negative values and malformed strings return ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")  -> {1234}, nil
//	ParseAmount("12,345") -> {1235}, nil (half-up)
//	ParseAmount("0")      -> {0}, nil
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Round(2).Shift(2)
	if !cents.IsInteger() || cents.GreaterThan(decimal.NewFromInt(1<<62)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// FormatAmount renders cents with two decimals and a comma separator,
// e.g. 4550 -> "45,50". There is no thousands grouping.
func FormatAmount(m Money) string {
	return strings.Replace(m.Decimal().StringFixed(2), ".", ",", 1)
}

// Decimal returns the amount as a decimal value in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}
