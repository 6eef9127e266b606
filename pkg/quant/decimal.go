// Package quant holds the fixed-point helpers shared by the protocol model.
// Amounts follow the on-chain convention of 18 decimal places.
package quant

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Precision is the number of decimal places carried by every amount.
const Precision int32 = 18

var (
	// One is 1.0.
	One = decimal.NewFromInt(1)

	// Infinity stands in for an unbounded ratio (e.g. collateral with zero debt).
	// It is the largest uint256 expressed with 18 decimals, so every real
	// amount compares below it.
	Infinity = decimal.NewFromBigInt(
		new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)),
		-Precision,
	)

	// ErrNegative is returned by Parse for amounts below zero.
	ErrNegative = errors.New("amount must not be negative")
)

// Truncate drops everything past Precision.
func Truncate(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(Precision)
}

// Mul returns a*b truncated to Precision.
func Mul(a, b decimal.Decimal) decimal.Decimal {
	return Truncate(a.Mul(b))
}

// MulDiv returns a*b/c truncated to Precision. The product is exact.
// A zero divisor yields Infinity.
func MulDiv(a, b, c decimal.Decimal) decimal.Decimal {
	if c.IsZero() {
		return Infinity
	}
	q, _ := a.Mul(b).QuoRem(c, Precision)
	return q
}

// DivCeil returns a/b rounded up at Precision. A zero divisor yields Infinity.
func DivCeil(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return Infinity
	}
	q, r := a.QuoRem(b, Precision)
	if !r.IsZero() && a.Sign() == b.Sign() {
		q = q.Add(decimal.New(1, -Precision))
	}
	return q
}

// IsInfinite reports whether d is at or above Infinity.
func IsInfinite(d decimal.Decimal) bool {
	return d.GreaterThanOrEqual(Infinity)
}

// Parse reads a non-negative amount and truncates it to Precision.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, ErrNegative)
	}
	return Truncate(d), nil
}

// MustParse is Parse for constants; it panics on bad input.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Max returns the larger of a and b.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// SubFloor returns a-b, or zero when b exceeds a.
func SubFloor(a, b decimal.Decimal) decimal.Decimal {
	if b.GreaterThanOrEqual(a) {
		return decimal.Zero
	}
	return a.Sub(b)
}

// Prettify truncates d to at most places decimals, without rounding, and
// renders it with thousands separators and trailing zeros trimmed.
// Infinity renders as "∞".
func Prettify(d decimal.Decimal, places int32) string {
	if IsInfinite(d) {
		return "∞"
	}
	s := d.Truncate(places).String()
	intPart, frac, _ := strings.Cut(s, ".")
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
