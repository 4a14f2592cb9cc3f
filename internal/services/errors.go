package services

import (
	"errors"
	"fmt"
)

var ErrProductNotFound = errors.New("product not found")

// ValidationError is returned before any write was attempted.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Submission steps, in write order.
const (
	StepProduct       = "product"
	StepHeader        = "header"
	StepItems         = "items"
	StepMovement      = "movement"
	StepMovementItems = "movement_items"
)

// Committed lists the identifiers already written when a submission stopped.
type Committed struct {
	ProductID  string `json:"product_id,omitempty"`
	ReceiptID  string `json:"receipt_id,omitempty"`
	ReceiptNo  int64  `json:"receipt_no,omitempty"`
	MovementID string `json:"movement_id,omitempty"`
}

// PartialSubmissionError means step Step failed after earlier steps were
// committed. Nothing is rolled back; the operator reconciles by hand.
type PartialSubmissionError struct {
	Kind      string
	Step      string
	Committed Committed
	Err       error
}

func (e *PartialSubmissionError) Error() string {
	return fmt.Sprintf("%s submission stopped at %s after partial commit: %v", e.Kind, e.Step, e.Err)
}

func (e *PartialSubmissionError) Unwrap() error {
	return e.Err
}
