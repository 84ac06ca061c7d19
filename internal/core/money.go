// Package core provides money rounding and formatting utilities.
//
// Amounts are carried as float64 during accumulation and rounded only when
// they are placed in an output structure.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// Round2 rounds v to two decimal places, half away from zero.
//
// Examples:
//
//	Round2(43.3333) -> 43.33
//	Round2(0.125)   -> 0.13
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Round1 rounds v to one decimal place, half away from zero.
func Round1(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(1).Float64()
	return f
}

// FormatAmount renders an amount with its currency code, e.g. "USD 15.99".
func FormatAmount(currency string, v float64) string {
	return currency + " " + decimal.NewFromFloat(v).StringFixed(2)
}

// ParseAmount parses a non-negative decimal string, accepting a comma as the
// decimal separator.
func ParseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return 0, ErrInvalidAmount
	}
	f, _ := d.Float64()
	return f, nil
}
