// Package money provides fixed-point rupiah arithmetic and display formatting.
package money

import (
	"errors"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ErrInvalidAmount is returned for negative or non-finite monetary input.
var ErrInvalidAmount = errors.New("invalid amount")

// Amount is a whole-rupiah monetary value. IDR carries no minor units here,
// so one Amount unit is one rupiah.
type Amount = int64

var printer = message.NewPrinter(language.Indonesian)

// New validates v as a monetary amount.
func New(v int64) (Amount, error) {
	if v < 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// FromFloat converts a float input (e.g. a decoded JSON number) into an
// Amount, rejecting negative and non-finite values. Fractional rupiah are
// rounded half up.
func FromFloat(v float64) (Amount, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, ErrInvalidAmount
	}
	return Amount(math.Floor(v + 0.5)), nil
}

// Add sums two amounts.
func Add(a, b Amount) Amount {
	return a + b
}

// MulQty multiplies a unit price by a line quantity. Non-positive quantities
// contribute nothing.
func MulQty(unit Amount, qty int) Amount {
	if qty <= 0 {
		return 0
	}
	return unit * Amount(qty)
}

// RoundDiv divides num by den rounding half up. It is the single rounding
// rule for all percentage math; call sites must not round independently.
// Both arguments must be non-negative and den must be positive.
func RoundDiv(num, den int64) int64 {
	return (num + den/2) / den
}

// Format renders an amount as Indonesian-locale currency text,
// e.g. Format(249000) == "Rp 249.000".
func Format(a Amount) string {
	return printer.Sprintf("Rp %v", number.Decimal(a))
}
