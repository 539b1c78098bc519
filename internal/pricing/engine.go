// Package pricing computes cart totals from an immutable snapshot. The engine
// is pure: no I/O, no shared state, safe for concurrent use.
package pricing

import (
	"fmt"

	"github.com/noah-isme/warung-api/internal/money"
)

// DefaultTaxRateBps is the PPN rate applied after discount, in basis points.
const DefaultTaxRateBps = 1100

// Discount is the flat percentage taken off the subtotal. It is a closed
// enumeration: the only values that exist are the menu entries below, and
// ParseDiscount is the sole way to obtain one from external input.
type Discount int

const (
	// DiscountNone applies no reduction.
	DiscountNone Discount = 0
	// DiscountTen takes 10% off the subtotal.
	DiscountTen Discount = 10
	// DiscountFifteen takes 15% off the subtotal.
	DiscountFifteen Discount = 15
)

// Menu lists the selectable discounts in display order.
func Menu() []Discount {
	return []Discount{DiscountNone, DiscountTen, DiscountFifteen}
}

// ParseDiscount validates a raw percentage against the menu. Boundary code
// must call this before handing the value to Compute.
func ParseDiscount(percent int) (Discount, error) {
	switch Discount(percent) {
	case DiscountNone, DiscountTen, DiscountFifteen:
		return Discount(percent), nil
	}
	return DiscountNone, fmt.Errorf("discount %d%% is not on the menu", percent)
}

// Percent returns the discount as a whole percentage.
func (d Discount) Percent() int64 { return int64(d) }

// Item is one cart line for pricing purposes.
type Item struct {
	Qty       int
	UnitPrice money.Amount
}

// Breakdown is the derived price summary. It is recomputed on every request
// and never stored. Total carries the exact pre-rounding sum; RoundedTotal is
// what the customer pays.
type Breakdown struct {
	Subtotal     money.Amount `json:"subtotal"`
	Discount     money.Amount `json:"discount"`
	Tax          money.Amount `json:"tax"`
	Total        money.Amount `json:"total"`
	RoundedTotal money.Amount `json:"roundedTotal"`
}

// Compute runs the fixed pipeline: subtotal, discount off the raw subtotal,
// tax on the discounted subtotal, then rounding of the final total to the
// nearest 100 rupiah. Intermediates are carried as exact scaled integers;
// nothing is rounded until the very end.
func Compute(items []Item, d Discount, taxBps int) Breakdown {
	if taxBps < 0 {
		taxBps = 0
	}
	var subtotal money.Amount
	for _, it := range items {
		subtotal += money.MulQty(it.UnitPrice, it.Qty)
	}

	// Numerators below share the denominators noted alongside them.
	pct := d.Percent()
	discountNum := subtotal * pct                    // /100
	taxableNum := subtotal*100 - discountNum         // /100, >= 0 for pct <= 100
	taxNum := taxableNum * int64(taxBps)             // /1_000_000
	totalNum := taxableNum * (10000 + int64(taxBps)) // /1_000_000

	return Breakdown{
		Subtotal:     subtotal,
		Discount:     money.RoundDiv(discountNum, 100),
		Tax:          money.RoundDiv(taxNum, 1_000_000),
		Total:        money.RoundDiv(totalNum, 1_000_000),
		RoundedTotal: money.RoundDiv(totalNum, 100_000_000) * 100,
	}
}
