// Package pricing holds the decimal-safe monetary primitives every other
// component computes through. All operations round to 2 decimal places using
// round-half-up semantics; values that arrive through float64 conversions
// (gateway payloads, legacy imports) are nudged by a tiny epsilon before
// rounding so binary drift cannot flip a half-cent the wrong way.
package pricing

import "github.com/shopspring/decimal"

// epsilon counteracts binary floating-point drift on values that passed
// through a float64 at some point (e.g. 2.675 arriving as 2.67499999…).
var epsilon = decimal.New(1, -9) // 1e-9

var hundred = decimal.NewFromInt(100)

// Round2 rounds to 2 decimal places, half-up, after the epsilon nudge.
// Negative amounts are nudged toward zero so the same |value| always rounds
// to the same |result|.
func Round2(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return d.Sub(epsilon).Round(2)
	}
	return d.Add(epsilon).Round(2)
}

// FromFloat converts a float64 amount into a rounded monetary decimal.
func FromFloat(f float64) decimal.Decimal {
	return Round2(decimal.NewFromFloat(f))
}

// Add returns a+b rounded to cents.
func Add(a, b decimal.Decimal) decimal.Decimal { return Round2(a.Add(b)) }

// Sub returns a-b rounded to cents.
func Sub(a, b decimal.Decimal) decimal.Decimal { return Round2(a.Sub(b)) }

// MulQty returns unit price × quantity rounded to cents.
func MulQty(unit decimal.Decimal, qty int) decimal.Decimal {
	return Round2(unit.Mul(decimal.NewFromInt(int64(qty))))
}

// PercentOf returns pct% of value, rounded to cents.
func PercentOf(value, pct decimal.Decimal) decimal.Decimal {
	return Round2(value.Mul(pct).Div(hundred))
}

// ApplyPercentDiscount returns value reduced by pct%, rounded to cents.
// The discount itself is rounded first so value - discount - remainder
// always reconciles exactly.
func ApplyPercentDiscount(value, pct decimal.Decimal) decimal.Decimal {
	return Round2(value.Sub(PercentOf(value, pct)))
}
