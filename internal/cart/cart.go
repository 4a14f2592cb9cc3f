// Package cart keeps the operator's draft sale: one line per product, most
// recently touched first. A Draft is intent only; nothing in it is committed
// until a submission workflow writes it.
package cart

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"blameja-pos/internal/models"
	"blameja-pos/internal/pricing"
)

var ErrLineNotFound = errors.New("cart line not found")

// Product is the snapshot of a catalog product taken when it was carted.
type Product struct {
	ID           string      `json:"id"`
	PLU          *string     `json:"plu"`
	Barcode      *string     `json:"barcode"`
	Name         string      `json:"name"`
	Unit         models.Unit `json:"unit"`
	BasePrice    float64     `json:"selling_price"`
	CategoryName *string     `json:"category_name"`
}

// Line holds the final price as entered. Blank means "not priced yet" and
// counts as 0.
type Line struct {
	Product    Product `json:"product"`
	Qty        float64 `json:"qty"`
	FinalPrice string  `json:"final_price"`
}

// Final returns the clamped operator price.
func (l Line) Final() float64 {
	return pricing.ClampFinalToBase(pricing.PriceOrZero(l.FinalPrice), l.Product.BasePrice)
}

func (l Line) Total() float64 {
	return pricing.LineTotal(l.Qty, l.Final())
}

// StockWarning is returned when a product is carted beyond its on-hand stock.
// It never blocks the operation.
type StockWarning struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Available float64 `json:"available"`
	InCart    float64 `json:"in_cart"`
}

func (w StockWarning) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %v, in cart %v", w.Name, w.Available, w.InCart)
}

type Draft struct {
	ID        string    `json:"id"`
	Lines     []Line    `json:"lines"`
	Note      string    `json:"note,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func New(id string) *Draft {
	return &Draft{ID: id, Lines: []Line{}, UpdatedAt: time.Now()}
}

// ProductFromStock normalizes a product_stock row into a cart snapshot.
func ProductFromStock(row models.ProductStock) Product {
	name := strings.TrimSpace(row.Name)
	if name == "" {
		name = "—"
	}
	return Product{
		ID:           row.ProductID,
		PLU:          row.PLU,
		Barcode:      row.Barcode,
		Name:         name,
		Unit:         models.ParseUnit(string(row.Unit)),
		BasePrice:    pricing.Round2(row.SellingPrice),
		CategoryName: row.CategoryName,
	}
}

// AddOrIncrement puts a new product at the head with qty 1 priced at its base
// price, or bumps an existing line by one and moves it to the head. When the
// snapshot shows no stock left for this cart a warning is returned as well.
func (d *Draft) AddOrIncrement(row models.ProductStock) *StockWarning {
	p := ProductFromStock(row)

	var warning *StockWarning
	inCart := 0.0
	if i := d.index(p.ID); i >= 0 {
		inCart = d.Lines[i].Qty
	}
	if row.QtyOnHand-inCart <= 0 {
		warning = &StockWarning{ProductID: p.ID, Name: p.Name, Available: row.QtyOnHand, InCart: inCart}
	}

	i := d.index(p.ID)
	if i < 0 {
		price := ""
		if p.BasePrice > 0 {
			price = formatPrice(p.BasePrice)
		}
		d.Lines = append([]Line{{Product: p, Qty: 1, FinalPrice: price}}, d.Lines...)
	} else {
		line := d.Lines[i]
		line.Qty++
		d.Lines = append(d.Lines[:i], d.Lines[i+1:]...)
		d.Lines = append([]Line{line}, d.Lines...)
	}
	d.touch()
	return warning
}

// ChangeQuantity sets a typed quantity. Piece units are floored; kg and m keep
// fractions. The result is never below 1 and non-finite input means 1.
func (d *Draft) ChangeQuantity(productID string, next float64) error {
	i := d.index(productID)
	if i < 0 {
		return ErrLineNotFound
	}
	if math.IsNaN(next) || math.IsInf(next, 0) {
		next = 1
	}
	if !d.Lines[i].Product.Unit.Fractional() {
		next = math.Floor(next)
	}
	d.Lines[i].Qty = math.Max(1, next)
	d.touch()
	return nil
}

// Step applies a stepper click: integer result, at least 1.
func (d *Draft) Step(productID string, delta int) error {
	i := d.index(productID)
	if i < 0 {
		return ErrLineNotFound
	}
	d.Lines[i].Qty = math.Max(1, math.Floor(d.Lines[i].Qty+float64(delta)))
	d.touch()
	return nil
}

// SetFinalPrice sanitizes the operator input and stores it clamped to the base price.
func (d *Draft) SetFinalPrice(productID, raw string) error {
	i := d.index(productID)
	if i < 0 {
		return ErrLineNotFound
	}
	s := pricing.SanitizePriceInput(strings.TrimSpace(raw))
	if s == "" {
		d.Lines[i].FinalPrice = ""
	} else {
		d.Lines[i].FinalPrice = formatPrice(pricing.ClampFinalToBase(pricing.PriceOrZero(s), d.Lines[i].Product.BasePrice))
	}
	d.touch()
	return nil
}

// SetDiscountPercent derives the final price from a 0..100 percentage of the
// base price. Lines without a base price are left untouched.
func (d *Draft) SetDiscountPercent(productID, raw string) error {
	i := d.index(productID)
	if i < 0 {
		return ErrLineNotFound
	}
	base := d.Lines[i].Product.BasePrice
	if base <= 0 {
		return nil
	}
	pct := float64(pricing.PercentOrZero(raw))
	d.Lines[i].FinalPrice = formatPrice(pricing.ClampFinalToBase(base*(100-pct)/100, base))
	d.touch()
	return nil
}

func (d *Draft) RemoveLine(productID string) error {
	i := d.index(productID)
	if i < 0 {
		return ErrLineNotFound
	}
	d.Lines = append(d.Lines[:i], d.Lines[i+1:]...)
	d.touch()
	return nil
}

func (d *Draft) Reset() {
	d.Lines = []Line{}
	d.Note = ""
	d.touch()
}

func (d *Draft) IsEmpty() bool {
	return len(d.Lines) == 0
}

// Line returns a copy of the line for productID.
func (d *Draft) Line(productID string) (Line, bool) {
	i := d.index(productID)
	if i < 0 {
		return Line{}, false
	}
	return d.Lines[i], true
}

// QtyOf returns the carted quantity of a product, 0 when absent.
func (d *Draft) QtyOf(productID string) float64 {
	if l, ok := d.Line(productID); ok {
		return l.Qty
	}
	return 0
}

func (d *Draft) PricingLines() []pricing.Line {
	out := make([]pricing.Line, 0, len(d.Lines))
	for _, l := range d.Lines {
		out = append(out, pricing.Line{Qty: l.Qty, BasePrice: l.Product.BasePrice, FinalPrice: l.Final()})
	}
	return out
}

func (d *Draft) Totals() pricing.Totals {
	return pricing.ComputeTotals(d.PricingLines())
}

func (d *Draft) index(productID string) int {
	for i := range d.Lines {
		if d.Lines[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func (d *Draft) touch() {
	d.UpdatedAt = time.Now()
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
