package models

import (
	"github.com/shopspring/decimal"
)

const (
	// AmountScale is the number of fractional digits a transfer amount may carry.
	AmountScale = 2
	// MaxAmountIntegerDigits keeps amounts inside the numeric(19,4) columns.
	MaxAmountIntegerDigits = 15

	maxAmountExponent = 64
	maxAmountBits     = 256
)

var maxAmount = decimal.New(1, MaxAmountIntegerDigits)

// ValidAmount reports whether d is a positive amount with at most
// AmountScale fractional digits and at most MaxAmountIntegerDigits integer
// digits. Exponent and coefficient size are checked before any arithmetic.
func ValidAmount(d decimal.Decimal) bool {
	if !d.IsPositive() {
		return false
	}
	exp := d.Exponent()
	if exp > MaxAmountIntegerDigits || exp < -maxAmountExponent {
		return false
	}
	if d.Coefficient().BitLen() > maxAmountBits {
		return false
	}
	if !d.Equal(d.Truncate(AmountScale)) {
		return false
	}
	return d.LessThan(maxAmount)
}
