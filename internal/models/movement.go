package models

import (
	"time"
)

type MovementType string

const (
	MovementIn     MovementType = "IN"
	MovementOut    MovementType = "OUT"
	MovementAdjust MovementType = "ADJUST"
)

func (t MovementType) Valid() bool {
	return t == MovementIn || t == MovementOut || t == MovementAdjust
}

type AdjustDirection string

const (
	AdjustPlus  AdjustDirection = "PLUS"
	AdjustMinus AdjustDirection = "MINUS"
)

// StockMovement is the header of a stock-changing event.
type StockMovement struct {
	ID         string       `json:"id" db:"id"`
	Type       MovementType `json:"type" db:"type"`
	Note       *string      `json:"note" db:"note"`
	SupplierID *string      `json:"supplier_id,omitempty" db:"supplier_id"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
}

// StockMovementItem always carries qty, unit cost and unit price. Qty is
// unsigned; ADJUST items carry their sign in AdjustDirection.
type StockMovementItem struct {
	MovementID      string           `json:"movement_id" db:"movement_id"`
	ProductID       string           `json:"product_id" db:"product_id"`
	Qty             float64          `json:"qty" db:"qty"`
	UnitCost        float64          `json:"unit_cost" db:"unit_cost"`
	UnitPrice       float64          `json:"unit_price" db:"unit_price"`
	AdjustDirection *AdjustDirection `json:"adjust_direction,omitempty" db:"adjust_direction"`
}

// MovementLine is one item of the movement history joined with its header.
type MovementLine struct {
	MovementID      string           `json:"movement_id" db:"movement_id"`
	Type            MovementType     `json:"type" db:"type"`
	Note            *string          `json:"note" db:"note"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	ProductID       string           `json:"product_id" db:"product_id"`
	ProductName     string           `json:"product_name" db:"product_name"`
	Qty             float64          `json:"qty" db:"qty"`
	UnitCost        float64          `json:"unit_cost" db:"unit_cost"`
	UnitPrice       float64          `json:"unit_price" db:"unit_price"`
	AdjustDirection *AdjustDirection `json:"adjust_direction,omitempty" db:"adjust_direction"`
}

// MovementFilter narrows the movement history.
type MovementFilter struct {
	Type      *MovementType `json:"type,omitempty"`
	ProductID *string       `json:"product_id,omitempty"`
	From      *time.Time    `json:"from,omitempty"`
	To        *time.Time    `json:"to,omitempty"`
	Limit     int           `json:"limit,omitempty"`
	Offset    int           `json:"offset,omitempty"`
}
