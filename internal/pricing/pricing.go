// Package pricing holds the price, discount and rounding rules shared by the
// sales, dispatch and receiving workflows. Every function here is pure.
package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

// Line is the pricing view of one document line.
type Line struct {
	Qty        float64 `json:"qty"`
	BasePrice  float64 `json:"base_price"`
	FinalPrice float64 `json:"final_price"`
}

// Totals aggregates a document. Total always equals Subtotal - DiscountTotal.
type Totals struct {
	Subtotal      float64 `json:"subtotal"`
	DiscountTotal float64 `json:"discount_total"`
	Total         float64 `json:"total"`
}

// Round2 rounds to cents, half away from zero. Non-finite input yields 0.
func Round2(x float64) float64 {
	return dec(x).Round(2).InexactFloat64()
}

// ClampFinalToBase bounds an operator price to [0, base]. Without a reference
// price (base <= 0) there is no ceiling.
func ClampFinalToBase(final, base float64) float64 {
	f := math.Max(0, finite(final))
	b := finite(base)
	if b <= 0 {
		return Round2(f)
	}
	return Round2(math.Min(f, b))
}

// DiscountPerUnit is the non-negative per-unit difference between base and final.
func DiscountPerUnit(base, final float64) float64 {
	d := dec(base).Sub(dec(final))
	if d.IsNegative() {
		return 0
	}
	return d.Round(2).InexactFloat64()
}

// DiscountPercent returns (base-final)/base*100, or 0 when base <= 0.
func DiscountPercent(base, final float64) float64 {
	b := finite(base)
	if b <= 0 {
		return 0
	}
	return (b - finite(final)) / b * 100
}

// LineTotal is qty x final rounded to cents.
func LineTotal(qty, final float64) float64 {
	return dec(qty).Mul(dec(final)).Round(2).InexactFloat64()
}

// ComputeTotals prices the subtotal against the base price and reconciles the
// operator prices through the discount total. Lines without a base price
// contribute their final price to the subtotal and nothing to the discount.
func ComputeTotals(lines []Line) Totals {
	subtotal := decimal.Zero
	discount := decimal.Zero

	for _, l := range lines {
		final := ClampFinalToBase(l.FinalPrice, l.BasePrice)
		ref := finite(l.BasePrice)
		if ref <= 0 {
			ref = final
		}
		qty := dec(l.Qty)
		subtotal = subtotal.Add(qty.Mul(dec(ref)).Round(2))
		discount = discount.Add(qty.Mul(dec(DiscountPerUnit(ref, final))).Round(2))
	}

	return Totals{
		Subtotal:      subtotal.Round(2).InexactFloat64(),
		DiscountTotal: discount.Round(2).InexactFloat64(),
		Total:         subtotal.Sub(discount).Round(2).InexactFloat64(),
	}
}

// Sum adds already rounded amounts without float drift.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(dec(v))
	}
	return total.Round(2).InexactFloat64()
}

func dec(x float64) decimal.Decimal {
	return decimal.NewFromFloat(finite(x))
}

func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}
