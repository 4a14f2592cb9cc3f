package models

import (
	"time"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "CASH"
	PaymentCard PaymentMethod = "CARD"
)

func (p PaymentMethod) Label() string {
	if p == PaymentCash {
		return "Cash"
	}
	return "Card"
}

type DocType string

const (
	DocSale     DocType = "SALE"
	DocDispatch DocType = "DISPATCH"
)

// SalesReceipt is the header of a sale or dispatch document. Payment and
// CashReceived are nil for dispatches; CashReceived is nil for card sales.
type SalesReceipt struct {
	ID            string         `json:"id" db:"id"`
	ReceiptNo     int64          `json:"receipt_no" db:"receipt_no"`
	DocType       DocType        `json:"doc_type" db:"doc_type"`
	ExternalDocNo *string        `json:"external_doc_no,omitempty" db:"external_doc_no"`
	Payment       *PaymentMethod `json:"payment" db:"payment"`
	Total         float64        `json:"total" db:"total"`
	CashReceived  *float64       `json:"cash_received" db:"cash_received"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}

// SalesItem stores the clamped final price and the per-unit discount.
type SalesItem struct {
	ReceiptID string  `json:"receipt_id" db:"receipt_id"`
	ProductID string  `json:"product_id" db:"product_id"`
	Qty       float64 `json:"qty" db:"qty"`
	BasePrice float64 `json:"base_price" db:"base_price"`
	Price     float64 `json:"price" db:"price"`
	Discount  float64 `json:"discount" db:"discount"`
}

// DailySales is one day of the finance series.
type DailySales struct {
	Day           string  `json:"day" db:"day"`
	ReceiptsCount int     `json:"receipts_count" db:"receipts_count"`
	Total         float64 `json:"total" db:"total"`
}

type TopProduct struct {
	ProductID string  `json:"product_id" db:"product_id"`
	PLU       *string `json:"plu" db:"plu"`
	Name      string  `json:"name" db:"name"`
	Qty       float64 `json:"qty" db:"qty"`
	Revenue   float64 `json:"revenue" db:"revenue"`
}
