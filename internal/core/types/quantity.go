// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Quantity is a stock quantity with full decimal precision.
// Uses decimal.Decimal to avoid floating-point errors; the database stores
// NUMERIC(14,2) and all presentation rounds to two places.
type Quantity = decimal.Decimal

// Money represents a monetary value (unit cost, sale price).
// Informational only to the ledger; never used in balance math.
type Money = decimal.Decimal

// QuantityScale is the number of fractional digits carried by stored
// quantities and all rounded intermediate results.
const QuantityScale = 2

// NewQuantityFromString parses a quantity from its canonical string form.
// This is the preferred constructor; floats lose precision.
func NewQuantityFromString(s string) (Quantity, error) {
	return decimal.NewFromString(s)
}

// MustQuantity parses a quantity string, panicking on error.
// Use only for constants and tests.
func MustQuantity(s string) Quantity {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// NewQuantityFromInt creates a whole-unit quantity.
func NewQuantityFromInt(n int64) Quantity {
	return decimal.NewFromInt(n)
}

// ZeroQuantity returns the zero quantity.
func ZeroQuantity() Quantity {
	return decimal.Zero
}

// RoundQuantity rounds to the stored scale using standard half-up rounding,
// mirroring NUMERIC(14,2) semantics.
func RoundQuantity(q Quantity) Quantity {
	return q.Round(QuantityScale)
}
