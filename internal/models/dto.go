package models

// ===== REQUEST DTOs =====

// Money and quantity fields the operator types stay strings; the services
// parse them so that blank and malformed input can be told apart.

// CartScanRequest adds a product by scanned barcode or typed PLU.
type CartScanRequest struct {
	Code string `json:"code" validate:"required"`
}

type CartAddRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

// CartLineUpdateRequest changes one line. Exactly one field is expected;
// when several are sent they apply in field order.
type CartLineUpdateRequest struct {
	Qty             *string `json:"qty"`
	Step            *int    `json:"step" validate:"omitempty,oneof=-1 1"`
	FinalPrice      *string `json:"final_price"`
	DiscountPercent *string `json:"discount_percent"`
}

type CartNoteRequest struct {
	Note string `json:"note" validate:"max=500"`
}

type CheckoutRequest struct {
	Payment      string `json:"payment" validate:"required,oneof=CASH CARD"`
	CashReceived string `json:"cash_received"`
}

// SaleLineRequest is a cart line sent whole, for clients that keep their own
// cart. The base price is always read from the catalog.
type SaleLineRequest struct {
	ProductID  string  `json:"product_id" validate:"required"`
	Name       string  `json:"name"`
	Qty        float64 `json:"qty" validate:"gt=0"`
	FinalPrice string  `json:"final_price"`
}

type SaleRequest struct {
	Lines        []SaleLineRequest `json:"lines" validate:"required,min=1,dive"`
	Payment      string            `json:"payment" validate:"required,oneof=CASH CARD"`
	CashReceived string            `json:"cash_received"`
	Note         string            `json:"note" validate:"max=500"`
}

type DispatchLineRequest struct {
	ProductID  string  `json:"product_id"`
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Unit       string  `json:"unit"`
	Qty        float64 `json:"qty" validate:"gte=0"`
	BasePrice  float64 `json:"base_price" validate:"gte=0"`
	FinalPrice float64 `json:"final_price" validate:"gte=0"`
}

type DispatchRequest struct {
	DocNo        string                `json:"doc_no" validate:"required,max=64"`
	DocDate      string                `json:"doc_date"`
	Buyer        string                `json:"buyer"`
	BuyerAddress string                `json:"buyer_address"`
	Note         string                `json:"note"`
	Lines        []DispatchLineRequest `json:"lines" validate:"dive"`
}

type ReceiveRequest struct {
	PLU             string `json:"plu" validate:"required"`
	Name            string `json:"name" validate:"required"`
	CategoryID      string `json:"category_id"`
	Qty             string `json:"qty" validate:"required"`
	Barcode         string `json:"barcode"`
	SellingPrice    string `json:"selling_price"`
	UnitCost        string `json:"unit_cost"`
	Description     string `json:"description"`
	Note            string `json:"note" validate:"max=500"`
	TaxGroup        string `json:"tax_group" validate:"required"`
	Unit            string `json:"unit"`
	StoreNo         int    `json:"store_no" validate:"omitempty,oneof=20 30"`
	SupplierID      string `json:"supplier_id"`
	SupplierAddress string `json:"supplier_address"`
}

type AdjustStockRequest struct {
	Target string `json:"target" validate:"required"`
	Reason string `json:"reason" validate:"required,max=500"`
}

type ProductUpdateRequest struct {
	Name         string `json:"name" validate:"required"`
	PLU          string `json:"plu"`
	Barcode      string `json:"barcode"`
	SellingPrice string `json:"selling_price" validate:"required"`
	CategoryID   string `json:"category_id"`
}

type CategoryCreateRequest struct {
	Code string `json:"code" validate:"required,max=16"`
	Name string `json:"name" validate:"required"`
}

type CacheInvalidateRequest struct {
	Codes []string `json:"codes" validate:"required,min=1,dive,required"`
}

type PreloadRequest struct {
	Limit int `json:"limit" validate:"gte=0,lte=50"`
}

// SearchQuery is one live-search keystroke on the WebSocket.
type SearchQuery struct {
	Term string `json:"term"`
}
