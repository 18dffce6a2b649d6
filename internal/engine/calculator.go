package engine

import (
	"github.com/shopspring/decimal"
)

// DefaultTolerance is the maximum acceptable absolute difference between
// declared and calculated amounts still counted as a match (R$ 0.01).
var DefaultTolerance = decimal.New(1, -2)

// Amount applies a rate to a monetary base and rounds the result to
// 2 decimal places rounding half up. This rule is fixed for the whole
// system: declared-vs-calculated comparisons depend on it being bit-exact.
// decimal.Round rounds half away from zero, which is half-up for the
// non-negative bases and rates the engine accepts.
func Amount(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Round(2)
}

// ParseAmount parses a positive monetary value from its decimal-string
// boundary representation. Amounts must be positive; rejected values
// never reach the calculator.
func ParseAmount(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, &InvalidAmountError{Field: field, Value: value}
	}
	if d.Sign() <= 0 {
		return decimal.Zero, &InvalidAmountError{Field: field, Value: value}
	}
	return d, nil
}

// ParseDeclared parses a declared tax total. Unlike ParseAmount, zero is
// acceptable here: an invoice may legitimately declare no tax.
func ParseDeclared(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, &InvalidAmountError{Field: field, Value: value}
	}
	if d.Sign() < 0 {
		return decimal.Zero, &InvalidAmountError{Field: field, Value: value}
	}
	return d, nil
}
