/*
Package generic provides the primitives shared by every receipt-engine component.

PURPOSE:
  Holds the small value types that cross component boundaries: money with
  minor-unit precision, calendar dates without time zones, time-of-day
  values and the randomness seam used by the sampling algorithms.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: a non-negative currency quantity stored at 2 fractional digits
  - MinorUnit: the smallest representable increment (0.01)
  - Random: injectable source of uniform integers

DESIGN PRINCIPLES:
  1. Precision: Money wraps decimal.Decimal and converts to integer minor
     units for arithmetic that must sum exactly.
  2. Purity: nothing here owns mutable state across calls.

USAGE:
  total := generic.MustParseMoney("100.00")
  cents := total.Cents() // 10000

SEE ALSO:
  - time.go: Date and TimeOfDay
  - errors.go: error taxonomy
*/
package generic

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Currency quantity at minor-unit precision
// =============================================================================

// MoneyPlaces is the number of fractional digits kept for currency values.
const MoneyPlaces = 2

// Money is a currency amount rounded to MoneyPlaces.
type Money struct {
	Value decimal.Decimal
}

// MinorUnit is the smallest currency increment.
var MinorUnit = NewMoneyFromCents(1)

// MaxMoney is the largest amount the engine accepts. Its value in minor
// units fits in int64 with room to spare.
var MaxMoney = NewMoneyFromCents(100_000_000_000_000) // 1,000,000,000,000.00

// InRange reports whether m is within [0, MaxMoney].
func (m Money) InRange() bool {
	return !m.IsNegative() && m.LessThanOrEqual(MaxMoney)
}

// NewMoney rounds value to 2 decimal places.
func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value).Round(MoneyPlaces)}
}

func NewMoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Value: d.Round(MoneyPlaces)}
}

// NewMoneyFromCents builds a Money from an integer count of minor units.
func NewMoneyFromCents(cents int64) Money {
	return Money{Value: decimal.New(cents, -MoneyPlaces)}
}

// ParseMoney parses a plain decimal literal. Currency symbols are not accepted.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return NewMoneyFromDecimal(d), nil
}

// MustParseMoney is ParseMoney for literals known to be valid; it panics otherwise.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Cents returns the amount in minor units.
func (m Money) Cents() int64 { return m.Value.Shift(MoneyPlaces).Round(0).IntPart() }

func (m Money) Add(b Money) Money               { return NewMoneyFromDecimal(m.Value.Add(b.Value)) }
func (m Money) Sub(b Money) Money               { return NewMoneyFromDecimal(m.Value.Sub(b.Value)) }
func (m Money) MulInt(n int) Money              { return NewMoneyFromDecimal(m.Value.Mul(decimal.NewFromInt(int64(n)))) }
func (m Money) IsZero() bool                    { return m.Value.IsZero() }
func (m Money) IsPositive() bool                { return m.Value.IsPositive() }
func (m Money) IsNegative() bool                { return m.Value.IsNegative() }
func (m Money) Equal(b Money) bool              { return m.Value.Equal(b.Value) }
func (m Money) GreaterThan(b Money) bool        { return m.Value.GreaterThan(b.Value) }
func (m Money) LessThan(b Money) bool           { return m.Value.LessThan(b.Value) }
func (m Money) LessThanOrEqual(b Money) bool    { return m.Value.LessThanOrEqual(b.Value) }
func (m Money) GreaterThanOrEqual(b Money) bool { return m.Value.GreaterThanOrEqual(b.Value) }

// String renders the amount with exactly two fractional digits.
func (m Money) String() string { return m.Value.StringFixed(MoneyPlaces) }

// MarshalJSON renders Money as a bare JSON number with two fractional digits.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal literal.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// SumMoney adds amounts in minor units so that no rounding drift accumulates.
func SumMoney(amounts []Money) Money {
	var cents int64
	for _, a := range amounts {
		cents += a.Cents()
	}
	return NewMoneyFromCents(cents)
}

// =============================================================================
// RANDOMNESS
// =============================================================================

// Random yields uniform integers in [0, n). *rand.Rand from math/rand/v2
// satisfies it; tests substitute deterministic implementations.
type Random interface {
	Int64N(n int64) int64
}

type globalRandom struct{}

func (globalRandom) Int64N(n int64) int64 { return rand.Int64N(n) }

// DefaultRandom is backed by the math/rand/v2 top-level functions and is
// safe for concurrent use.
var DefaultRandom Random = globalRandom{}

// RandomOrDefault returns r, or DefaultRandom when r is nil.
func RandomOrDefault(r Random) Random {
	if r == nil {
		return DefaultRandom
	}
	return r
}
