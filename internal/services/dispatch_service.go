package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"blameja-pos/internal/cart"
	"blameja-pos/internal/dispatchnote"
	"blameja-pos/internal/metrics"
	"blameja-pos/internal/models"
	"blameja-pos/internal/pricing"
	"blameja-pos/internal/repository"
)

const (
	kindDispatch = "dispatch"

	maxMovementNote = 500
)

// DispatchLine is a dispatch-note row bound to a catalog product.
type DispatchLine struct {
	ProductID string `json:"product_id"`
	dispatchnote.Row
}

type DispatchRequest struct {
	DocNo        string
	DocDate      string
	Buyer        string
	BuyerAddress string
	Lines        []DispatchLine
	Note         string
}

func (r DispatchRequest) Document() dispatchnote.Document {
	rows := make([]dispatchnote.Row, 0, len(r.Lines))
	for _, l := range r.Lines {
		rows = append(rows, l.Row)
	}
	return dispatchnote.Document{
		No:           strings.TrimSpace(r.DocNo),
		Date:         strings.TrimSpace(r.DocDate),
		Buyer:        strings.TrimSpace(r.Buyer),
		BuyerAddress: strings.TrimSpace(r.BuyerAddress),
		Rows:         rows,
	}
}

type CommittedDispatch struct {
	ReceiptID  string              `json:"receipt_id"`
	ReceiptNo  int64               `json:"receipt_no"`
	MovementID string              `json:"movement_id"`
	Total      float64             `json:"total"`
	Warnings   []cart.StockWarning `json:"warnings,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

type DispatchService interface {
	Submit(ctx context.Context, req DispatchRequest) (*CommittedDispatch, error)
	// Note renders the printable document and its download file name.
	Note(req DispatchRequest) ([]byte, string, error)
}

type dispatchService struct {
	products repository.ProductRepository
	receipts repository.ReceiptRepository
	stock    repository.StockRepository
	renderer *dispatchnote.Renderer
	cache    Invalidator
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewDispatchService(products repository.ProductRepository, receipts repository.ReceiptRepository, stock repository.StockRepository,
	renderer *dispatchnote.Renderer, cache Invalidator, m *metrics.Metrics, logger *zap.Logger) DispatchService {
	return &dispatchService{
		products: products,
		receipts: receipts,
		stock:    stock,
		renderer: renderer,
		cache:    cache,
		metrics:  m,
		logger:   logger,
	}
}

func validateDispatch(req DispatchRequest) error {
	if len(req.Lines) == 0 {
		return invalid("lines", "no lines to save")
	}
	for _, l := range req.Lines {
		if strings.TrimSpace(l.ProductID) == "" {
			return invalid("lines", "line %q (code %s) has no catalog product, pick one from the suggestions", l.Name, l.Code)
		}
		if !validQty(l.Qty) {
			return invalid("lines", "quantity of %q must be greater than 0", l.Name)
		}
	}
	return nil
}

func (s *dispatchService) Submit(ctx context.Context, req DispatchRequest) (*CommittedDispatch, error) {
	docNo := strings.TrimSpace(req.DocNo)
	logger := s.logger.With(
		zap.String("operation", "submit_dispatch"),
		zap.String("doc_no", docNo),
		zap.Int("lines", len(req.Lines)),
	)

	if err := validateDispatch(req); err != nil {
		s.metrics.Submission(kindDispatch, metrics.OutcomeInvalid)
		logger.Info("dispatch rejected", zap.Error(err))
		return nil, err
	}

	finals := make([]float64, len(req.Lines))
	amounts := make([]float64, len(req.Lines))
	check := make([]stockLine, 0, len(req.Lines))
	for i, l := range req.Lines {
		finals[i] = pricing.ClampFinalToBase(l.FinalPrice, l.BasePrice)
		amounts[i] = pricing.LineTotal(l.Qty, finals[i])
		check = append(check, stockLine{productID: l.ProductID, name: l.Name, qty: l.Qty})
	}
	total := pricing.Sum(amounts...)

	warnings, err := checkStock(ctx, s.products, check)
	if err != nil {
		s.metrics.Submission(kindDispatch, metrics.OutcomeFailed)
		return nil, err
	}
	for _, w := range warnings {
		s.metrics.StockWarning(kindDispatch)
		logger.Warn("dispatching beyond on-hand stock",
			zap.String("product_id", w.ProductID),
			zap.Float64("available", w.Available),
			zap.Float64("qty", w.InCart))
	}

	receipt := &models.SalesReceipt{DocType: models.DocDispatch, Total: total}
	if docNo != "" {
		receipt.ExternalDocNo = &docNo
	}
	if err := s.receipts.CreateReceipt(ctx, receipt); err != nil {
		s.metrics.Submission(kindDispatch, metrics.OutcomeFailed)
		logger.Error("failed to create dispatch header", zap.Error(err))
		return nil, fmt.Errorf("failed to create dispatch header: %w", err)
	}
	committed := Committed{ReceiptID: receipt.ID, ReceiptNo: receipt.ReceiptNo}

	partial := func(step string, err error) error {
		s.metrics.Submission(kindDispatch, metrics.OutcomePartial)
		logger.Error("dispatch partially committed", zap.String("step", step), zap.Error(err))
		return &PartialSubmissionError{Kind: kindDispatch, Step: step, Committed: committed, Err: err}
	}

	items := make([]models.SalesItem, 0, len(req.Lines))
	for i, l := range req.Lines {
		items = append(items, models.SalesItem{
			ReceiptID: receipt.ID,
			ProductID: l.ProductID,
			Qty:       l.Qty,
			BasePrice: l.BasePrice,
			Price:     finals[i],
			Discount:  pricing.DiscountPerUnit(l.BasePrice, finals[i]),
		})
	}
	if err := s.receipts.CreateItems(ctx, items); err != nil {
		return nil, partial(StepItems, err)
	}

	note := strings.TrimSpace(req.Note)
	if note == "" {
		note = fmt.Sprintf("ИСПРАТНИЦА бр. %s (%s)", docNo, strings.TrimSpace(req.DocDate))
	}
	note = truncateRunes(note, maxMovementNote)
	movement := &models.StockMovement{Type: models.MovementOut, Note: &note}
	if err := s.stock.CreateMovement(ctx, movement); err != nil {
		return nil, partial(StepMovement, err)
	}
	committed.MovementID = movement.ID

	movementItems := make([]models.StockMovementItem, 0, len(req.Lines))
	for i, l := range req.Lines {
		movementItems = append(movementItems, models.StockMovementItem{
			MovementID: movement.ID,
			ProductID:  l.ProductID,
			Qty:        l.Qty,
			UnitCost:   0,
			UnitPrice:  finals[i],
		})
	}
	if err := s.stock.CreateMovementItems(ctx, movementItems); err != nil {
		return nil, partial(StepMovementItems, err)
	}

	var codes []string
	for _, l := range req.Lines {
		if c := strings.TrimSpace(l.Code); c != "" {
			codes = append(codes, c)
		}
	}
	invalidate(ctx, s.cache, logger, codes)

	s.metrics.Submission(kindDispatch, metrics.OutcomeCommitted)
	logger.Info("dispatch committed", zap.Int64("receipt_no", receipt.ReceiptNo), zap.Float64("total", total))
	return &CommittedDispatch{
		ReceiptID:  receipt.ID,
		ReceiptNo:  receipt.ReceiptNo,
		MovementID: movement.ID,
		Total:      total,
		Warnings:   warnings,
		CreatedAt:  receipt.CreatedAt,
	}, nil
}

func (s *dispatchService) Note(req DispatchRequest) ([]byte, string, error) {
	doc := req.Document()
	body, err := s.renderer.RenderBytes(doc)
	if err != nil {
		return nil, "", err
	}
	return body, dispatchnote.FileName(doc.No), nil
}
