// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents so sums are exact. Conversion from and to
// decimal text goes through shopspring/decimal, rounding half away from zero
// at the second fractional digit.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

// FromUnits builds a Money from a whole number of currency units.
func FromUnits(units int64) Money {
	return Money{Cents: units * 100}
}

// ParseAmount converts a decimal string to Money with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. The
// result is always strictly positive; zero, negative or non-numeric input
// returns ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,345") -> 1235 cents
func ParseAmount(s string) (Money, error) {
	m, err := parseDecimal(s)
	if err != nil {
		return Money{}, err
	}
	if m.Cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// ParseLimit is ParseAmount for budget limits, where zero is allowed.
func ParseLimit(s string) (Money, error) {
	m, err := parseDecimal(s)
	if err != nil {
		return Money{}, err
	}
	if m.Cents < 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

func parseDecimal(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// MaxAmount is the largest magnitude accepted, in currency units. Sums of
// many such amounts still fit in int64 cents.
var MaxAmount = decimal.New(1, 13)

// FromDecimal rounds d to cents. Magnitudes above MaxAmount return
// ErrInvalidAmount.
func FromDecimal(d decimal.Decimal) (Money, error) {
	if d.Abs().GreaterThan(MaxAmount) {
		return Money{}, fmt.Errorf("%w: exceeds %s", ErrInvalidAmount, MaxAmount)
	}
	return Money{Cents: d.Round(2).Shift(2).IntPart()}, nil
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

func (m Money) IsNegative() bool {
	return m.Cents < 0
}

// String formats the amount with exactly two fractional digits.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Format prefixes the two-digit amount with a currency code, keeping the
// sign in front: "GHS 12.50", "-GHS 3.00".
func (m Money) Format(currency string) string {
	if m.Cents < 0 {
		return "-" + currency + " " + Money{Cents: -m.Cents}.String()
	}
	return currency + " " + m.String()
}

// MarshalJSON writes the amount as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*m = Money{}
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	v, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
