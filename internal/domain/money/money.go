// Package money holds the fixed-point helpers shared by the financial engine.
// Amounts carry two decimal places and round half away from zero, which matches
// the HALF_UP mode used for every persisted money column.
package money

import (
	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places kept for amounts and rates.
const Scale int32 = 2

var hundred = decimal.NewFromInt(100)

// Zero is the canonical zero amount.
var Zero = decimal.Zero

// Round rounds d to Scale places, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Percent returns round(base × pct / 100).
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return Round(base.Mul(pct).Div(hundred))
}

// Ratio returns numerator / denominator × 100 rounded to Scale places,
// or zero when the denominator is zero.
func Ratio(numerator, denominator decimal.Decimal) decimal.Decimal {
	if denominator.IsZero() {
		return Zero
	}
	return numerator.Mul(hundred).DivRound(denominator, Scale)
}

// Sum adds all values.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// OrZero unwraps a nullable decimal.
func OrZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return Zero
	}
	return d.Decimal
}

// Null wraps d as a valid nullable decimal.
func Null(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// MustParse parses a literal amount and panics on malformed input.
// Intended for constants and tests.
func MustParse(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
