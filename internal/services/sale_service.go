package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"blameja-pos/internal/cart"
	"blameja-pos/internal/metrics"
	"blameja-pos/internal/models"
	"blameja-pos/internal/pricing"
	"blameja-pos/internal/repository"
)

const kindSale = "sale"

type SaleRequest struct {
	Lines   []cart.Line
	Payment models.PaymentMethod
	// CashTendered is the raw amount typed by the operator; ignored for card.
	CashTendered string
	Note         string
}

// CommittedSale is what the database holds after a successful sale.
type CommittedSale struct {
	ReceiptID    string               `json:"receipt_id"`
	ReceiptNo    int64                `json:"receipt_no"`
	MovementID   string               `json:"movement_id"`
	Payment      models.PaymentMethod `json:"payment"`
	Totals       pricing.Totals       `json:"totals"`
	CashReceived *float64             `json:"cash_received"`
	Change       *float64             `json:"change"`
	Warnings     []cart.StockWarning  `json:"warnings,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

type SaleService interface {
	Submit(ctx context.Context, req SaleRequest) (*CommittedSale, error)
}

type saleService struct {
	products repository.ProductRepository
	receipts repository.ReceiptRepository
	stock    repository.StockRepository
	cache    Invalidator
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewSaleService(products repository.ProductRepository, receipts repository.ReceiptRepository, stock repository.StockRepository,
	cache Invalidator, m *metrics.Metrics, logger *zap.Logger) SaleService {
	return &saleService{
		products: products,
		receipts: receipts,
		stock:    stock,
		cache:    cache,
		metrics:  m,
		logger:   logger,
	}
}

// validateLines runs before any remote call.
func validateLines(req SaleRequest) error {
	if len(req.Lines) == 0 {
		return invalid("lines", "cart is empty")
	}
	for _, l := range req.Lines {
		if strings.TrimSpace(l.Product.ID) == "" {
			return invalid("lines", "line %q has no catalog product", l.Product.Name)
		}
		if !validQty(l.Qty) {
			return invalid("lines", "quantity of %q must be greater than 0", l.Product.Name)
		}
	}

	switch req.Payment {
	case models.PaymentCard, models.PaymentCash:
		return nil
	default:
		return invalid("payment", "unknown payment method %q", req.Payment)
	}
}

// validateCash returns the tendered cash, nil for card. Blank counts as 0.
func validateCash(req SaleRequest, total float64) (*float64, error) {
	if req.Payment != models.PaymentCash {
		return nil, nil
	}
	cash, err := pricing.ParseAmount(req.CashTendered)
	if errors.Is(err, pricing.ErrEmptyNumber) {
		cash, err = 0, nil
	}
	if err != nil {
		return nil, &ValidationError{Field: "cash_received", Message: "enter the cash received", Err: err}
	}
	cash = pricing.Round2(cash)
	if cash < total {
		return nil, invalid("cash_received", "cash received %s is less than total %s",
			pricing.FormatMoney(cash), pricing.FormatMoney(total))
	}
	return &cash, nil
}

// withCatalogPrices replaces the product snapshot of every line with the
// current catalog row, so base prices never come from the caller.
func withCatalogPrices(lines []cart.Line, rows []models.ProductStock) ([]cart.Line, error) {
	catalog := make(map[string]models.ProductStock, len(rows))
	for _, r := range rows {
		catalog[r.ProductID] = r
	}
	out := make([]cart.Line, 0, len(lines))
	for _, l := range lines {
		row, ok := catalog[l.Product.ID]
		if !ok {
			return nil, invalid("lines", "product %q is not in the catalog", l.Product.Name)
		}
		l.Product = cart.ProductFromStock(row)
		out = append(out, l)
	}
	return out, nil
}

func (s *saleService) Submit(ctx context.Context, req SaleRequest) (*CommittedSale, error) {
	logger := s.logger.With(
		zap.String("operation", "submit_sale"),
		zap.String("payment", string(req.Payment)),
		zap.Int("lines", len(req.Lines)),
	)
	reject := func(err error) (*CommittedSale, error) {
		s.metrics.Submission(kindSale, metrics.OutcomeInvalid)
		logger.Info("sale rejected", zap.Error(err))
		return nil, err
	}

	if err := validateLines(req); err != nil {
		return reject(err)
	}

	check := make([]stockLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		check = append(check, stockLine{productID: l.Product.ID, name: l.Product.Name, qty: l.Qty})
	}
	rows, err := s.products.StockByIDs(ctx, stockIDs(check))
	if err != nil {
		s.metrics.Submission(kindSale, metrics.OutcomeFailed)
		return nil, fmt.Errorf("failed to read catalog rows: %w", err)
	}
	lines, err := withCatalogPrices(req.Lines, rows)
	if err != nil {
		return reject(err)
	}
	req.Lines = lines

	pricingLines := make([]pricing.Line, 0, len(req.Lines))
	for _, l := range req.Lines {
		pricingLines = append(pricingLines, pricing.Line{Qty: l.Qty, BasePrice: l.Product.BasePrice, FinalPrice: l.Final()})
	}
	totals := pricing.ComputeTotals(pricingLines)

	cash, err := validateCash(req, totals.Total)
	if err != nil {
		return reject(err)
	}

	warnings := stockWarnings(rows, check)
	for _, w := range warnings {
		s.metrics.StockWarning(kindSale)
		logger.Warn("selling beyond on-hand stock",
			zap.String("product_id", w.ProductID),
			zap.Float64("available", w.Available),
			zap.Float64("qty", w.InCart))
	}

	payment := req.Payment
	receipt := &models.SalesReceipt{
		DocType:      models.DocSale,
		Payment:      &payment,
		Total:        totals.Total,
		CashReceived: cash,
	}
	if err := s.receipts.CreateReceipt(ctx, receipt); err != nil {
		s.metrics.Submission(kindSale, metrics.OutcomeFailed)
		logger.Error("failed to create receipt", zap.Error(err))
		return nil, fmt.Errorf("failed to create receipt: %w", err)
	}
	committed := Committed{ReceiptID: receipt.ID, ReceiptNo: receipt.ReceiptNo}
	logger = logger.With(zap.Int64("receipt_no", receipt.ReceiptNo))

	partial := func(step string, err error) error {
		s.metrics.Submission(kindSale, metrics.OutcomePartial)
		logger.Error("sale partially committed", zap.String("step", step), zap.Error(err))
		return &PartialSubmissionError{Kind: kindSale, Step: step, Committed: committed, Err: err}
	}

	items := make([]models.SalesItem, 0, len(req.Lines))
	for _, l := range req.Lines {
		final := l.Final()
		items = append(items, models.SalesItem{
			ReceiptID: receipt.ID,
			ProductID: l.Product.ID,
			Qty:       l.Qty,
			BasePrice: l.Product.BasePrice,
			Price:     final,
			Discount:  pricing.DiscountPerUnit(l.Product.BasePrice, final),
		})
	}
	if err := s.receipts.CreateItems(ctx, items); err != nil {
		return nil, partial(StepItems, err)
	}

	note := strings.TrimSpace(req.Note)
	if note == "" {
		note = fmt.Sprintf("Internal sale #%d (%s)", receipt.ReceiptNo, req.Payment.Label())
	}
	movement := &models.StockMovement{Type: models.MovementOut, Note: &note}
	if err := s.stock.CreateMovement(ctx, movement); err != nil {
		return nil, partial(StepMovement, err)
	}
	committed.MovementID = movement.ID

	movementItems := make([]models.StockMovementItem, 0, len(req.Lines))
	for _, l := range req.Lines {
		movementItems = append(movementItems, models.StockMovementItem{
			MovementID: movement.ID,
			ProductID:  l.Product.ID,
			Qty:        l.Qty,
			UnitCost:   0,
			UnitPrice:  l.Final(),
		})
	}
	if err := s.stock.CreateMovementItems(ctx, movementItems); err != nil {
		return nil, partial(StepMovementItems, err)
	}

	var codes []string
	for _, l := range req.Lines {
		codes = append(codes, codesOf(l.Product.PLU, l.Product.Barcode)...)
	}
	invalidate(ctx, s.cache, logger, codes)

	result := &CommittedSale{
		ReceiptID:    receipt.ID,
		ReceiptNo:    receipt.ReceiptNo,
		MovementID:   movement.ID,
		Payment:      req.Payment,
		Totals:       totals,
		CashReceived: cash,
		Warnings:     warnings,
		CreatedAt:    receipt.CreatedAt,
	}
	if cash != nil {
		change := pricing.Round2(*cash - totals.Total)
		result.Change = &change
	}

	s.metrics.Submission(kindSale, metrics.OutcomeCommitted)
	logger.Info("sale committed", zap.Float64("total", totals.Total), zap.Int("warnings", len(warnings)))
	return result, nil
}
