// Package core holds the domain types shared by the ledger and loan
// engines: businesses, cash flows, loans, repayments and the Money
// value type they all compute with.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact two-decimal currency amount. It wraps a fixed-point
// decimal so repeated additions and interest multiplications never drift
// the way binary floats do. The zero value is 0.00.
type Money struct {
	d decimal.Decimal
}

// NewMoney builds a Money from a decimal, rounding half-up to two places.
func NewMoney(d decimal.Decimal) Money {
	return Money{d: d.Round(2)}
}

// MoneyFromInt builds a Money from a whole-unit integer amount.
func MoneyFromInt(units int64) Money {
	return Money{d: decimal.NewFromInt(units)}
}

// ParseMoney parses a decimal string into Money. It accepts both dot
// (12.34) and comma (12,34) separators and rounds half-up on the third
// decimal place. Negative values are rejected; record amounts are never
// negative, the sign is applied by cash-flow type.
func ParseMoney(s string) (Money, error) {
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
	return Money{d: d.Round(2)}, nil
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{d: m.d.Add(other.d)}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{d: m.d.Sub(other.d)}
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{d: m.d.Neg()}
}

// Mul multiplies by an arbitrary decimal factor (interest rate, period)
// and rounds the result back to two places.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{d: m.d.Mul(factor).Round(2)}
}

// Cmp compares exactly: -1 if m < other, 0 if equal, 1 if m > other.
func (m Money) Cmp(other Money) int {
	return m.d.Cmp(other.d)
}

// GreaterThan reports whether m > other.
func (m Money) GreaterThan(other Money) bool {
	return m.d.GreaterThan(other.d)
}

// Equal reports exact equality, no epsilon.
func (m Money) Equal(other Money) bool {
	return m.d.Equal(other.d)
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.d.IsZero()
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.d.IsNegative()
}

// Decimal exposes the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.d
}

// String formats the amount with exactly two decimal places.
func (m Money) String() string {
	return m.d.StringFixed(2)
}

// MarshalJSON encodes the amount as a quoted fixed-point string so
// clients never round-trip it through a float.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.d.StringFixed(2) + `"`), nil
}

// UnmarshalJSON accepts both quoted strings and bare JSON numbers.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ErrInvalidAmount
	}
	m.d = d.Round(2)
	return nil
}
