package models

import (
	"time"
)

// Unit of measure. Values are stored exactly as printed on documents.
type Unit string

const (
	UnitPiece    Unit = "пар"
	UnitKilogram Unit = "кг"
	UnitMeter    Unit = "м"
)

func (u Unit) Valid() bool {
	switch u {
	case UnitPiece, UnitKilogram, UnitMeter:
		return true
	}
	return false
}

// Fractional reports whether typed quantities may carry decimals.
func (u Unit) Fractional() bool {
	return u == UnitKilogram || u == UnitMeter
}

// ParseUnit falls back to UnitPiece for anything outside the closed set.
func ParseUnit(s string) Unit {
	u := Unit(s)
	if u.Valid() {
		return u
	}
	return UnitPiece
}

// StoreNo scopes a product to one of the two shop counters.
type StoreNo int

const (
	StoreMain   StoreNo = 20
	StoreSecond StoreNo = 30
)

func (s StoreNo) Valid() bool {
	return s == StoreMain || s == StoreSecond
}

// ParseStoreNo defaults to StoreMain.
func ParseStoreNo(n int) StoreNo {
	s := StoreNo(n)
	if s.Valid() {
		return s
	}
	return StoreMain
}

var TaxGroups = []int{5, 10, 18}

func ValidTaxGroup(n int) bool {
	for _, tg := range TaxGroups {
		if tg == n {
			return true
		}
	}
	return false
}

// Product is a row of the products table. PLU is digits-only text; leading
// zeros are significant.
type Product struct {
	ID           string    `json:"id" db:"id"`
	PLU          *string   `json:"plu" db:"plu"`
	Barcode      *string   `json:"barcode" db:"barcode"`
	Name         string    `json:"name" db:"name"`
	Description  *string   `json:"description" db:"description"`
	Unit         Unit      `json:"unit" db:"unit"`
	SellingPrice float64   `json:"selling_price" db:"selling_price"`
	TaxGroup     *int      `json:"tax_group" db:"tax_group"`
	CategoryID   *string   `json:"category_id" db:"category_id"`
	StoreNo      StoreNo   `json:"store_no" db:"store_no"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// ProductStock is a row of the product_stock view: a product with its category
// name and the on-hand quantity summed from stock movements.
type ProductStock struct {
	ProductID    string  `json:"product_id" db:"product_id"`
	PLU          *string `json:"plu" db:"plu"`
	Barcode      *string `json:"barcode" db:"barcode"`
	Name         string  `json:"name" db:"name"`
	SellingPrice float64 `json:"selling_price" db:"selling_price"`
	CategoryName *string `json:"category_name" db:"category_name"`
	Unit         Unit    `json:"unit" db:"unit"`
	StoreNo      StoreNo `json:"store_no" db:"store_no"`
	QtyOnHand    float64 `json:"qty_on_hand" db:"qty_on_hand"`
}

// Code is the identifier printed on documents: PLU, else barcode.
func (p ProductStock) Code() string {
	if p.PLU != nil && *p.PLU != "" {
		return *p.PLU
	}
	if p.Barcode != nil {
		return *p.Barcode
	}
	return ""
}

// ProductChoice is a receiving-form suggestion scoped by category.
type ProductChoice struct {
	ProductID    string  `json:"product_id" db:"product_id"`
	Name         string  `json:"name" db:"name"`
	PLU          *string `json:"plu" db:"plu"`
	Barcode      *string `json:"barcode" db:"barcode"`
	SellingPrice float64 `json:"selling_price" db:"selling_price"`
	TaxGroup     *int    `json:"tax_group" db:"tax_group"`
	CategoryID   *string `json:"category_id" db:"category_id"`
	CategoryName *string `json:"category_name" db:"category_name"`
	Unit         Unit    `json:"unit" db:"unit"`
	StoreNo      StoreNo `json:"store_no" db:"store_no"`
}

type Category struct {
	ID   string `json:"id" db:"id"`
	Code string `json:"code" db:"code"`
	Name string `json:"name" db:"name"`
}

type Supplier struct {
	ID      string  `json:"id" db:"id"`
	Name    string  `json:"name" db:"name"`
	Address *string `json:"address" db:"address"`
}

type BuyerSource string

const (
	BuyerPerson   BuyerSource = "PERSON"
	BuyerSupplier BuyerSource = "SUPPLIER"
)

// Buyer is a dispatch recipient: a registered person or a supplier.
type Buyer struct {
	Key     string      `json:"key" db:"key"`
	Name    string      `json:"name" db:"name"`
	Address *string     `json:"address" db:"address"`
	Source  BuyerSource `json:"source" db:"source"`
}
