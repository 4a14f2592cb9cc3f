package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"blameja-pos/internal/metrics"
	"blameja-pos/internal/models"
	"blameja-pos/internal/pricing"
	"blameja-pos/internal/repository"
)

const kindAdjust = "adjust"

type AdjustRequest struct {
	ProductID string
	// Target is the desired absolute on-hand quantity, as typed.
	Target string
	Reason string
}

type CommittedAdjustment struct {
	MovementID string `json:"movement_id"`
	pricing.Adjustment
}

// ProductUpdate is the stock page edit form. Blank PLU and barcode clear the
// stored codes.
type ProductUpdate struct {
	Name         string
	PLU          string
	Barcode      string
	SellingPrice string
	CategoryID   string
}

type InventoryService interface {
	ListStock(ctx context.Context, term string) ([]models.ProductStock, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	AdjustToTarget(ctx context.Context, req AdjustRequest) (*CommittedAdjustment, error)
	UpdateProduct(ctx context.Context, id string, upd ProductUpdate) error
	DeactivateProduct(ctx context.Context, id string, clearCodes bool) error
	Movements(ctx context.Context, filter models.MovementFilter) ([]models.MovementLine, error)
}

type inventoryService struct {
	products repository.ProductRepository
	stock    repository.StockRepository
	cache    Invalidator
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewInventoryService(products repository.ProductRepository, stock repository.StockRepository,
	cache Invalidator, m *metrics.Metrics, logger *zap.Logger) InventoryService {
	return &inventoryService{
		products: products,
		stock:    stock,
		cache:    cache,
		metrics:  m,
		logger:   logger,
	}
}

func (s *inventoryService) ListStock(ctx context.Context, term string) ([]models.ProductStock, error) {
	return s.products.ListStock(ctx, term)
}

func (s *inventoryService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.products.GetProduct(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	return p, err
}

func (s *inventoryService) AdjustToTarget(ctx context.Context, req AdjustRequest) (*CommittedAdjustment, error) {
	logger := s.logger.With(
		zap.String("operation", "adjust_stock"),
		zap.String("product_id", req.ProductID),
	)

	reason := strings.TrimSpace(req.Reason)
	target, err := pricing.ParseNumber(req.Target)
	switch {
	case strings.TrimSpace(req.ProductID) == "":
		err = invalid("product_id", "no product selected")
	case err != nil:
		err = &ValidationError{Field: "target", Message: "enter the counted quantity", Err: err}
	case target < 0:
		err = invalid("target", "quantity must not be negative")
	case reason == "":
		err = invalid("reason", "a reason is required")
	}
	if err != nil {
		s.metrics.Submission(kindAdjust, metrics.OutcomeInvalid)
		return nil, err
	}

	product, err := s.products.GetProduct(ctx, req.ProductID)
	if errors.Is(err, repository.ErrNotFound) {
		s.metrics.Submission(kindAdjust, metrics.OutcomeInvalid)
		return nil, ErrProductNotFound
	}
	if err != nil {
		s.metrics.Submission(kindAdjust, metrics.OutcomeFailed)
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	current, err := s.stock.OnHand(ctx, req.ProductID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.metrics.Submission(kindAdjust, metrics.OutcomeFailed)
		return nil, fmt.Errorf("failed to read on-hand stock: %w", err)
	}

	adj, err := pricing.ComputeAdjustment(current, target)
	if err != nil {
		s.metrics.Submission(kindAdjust, metrics.OutcomeInvalid)
		return nil, &ValidationError{Field: "target", Message: "no change", Err: err}
	}

	movement := &models.StockMovement{Type: models.MovementAdjust, Note: &reason}
	if err := s.stock.CreateMovement(ctx, movement); err != nil {
		s.metrics.Submission(kindAdjust, metrics.OutcomeFailed)
		logger.Error("failed to create adjustment", zap.Error(err))
		return nil, fmt.Errorf("failed to create adjustment: %w", err)
	}

	direction := models.AdjustDirection(adj.Direction)
	item := models.StockMovementItem{
		MovementID:      movement.ID,
		ProductID:       product.ID,
		Qty:             adj.Magnitude,
		UnitCost:        0,
		UnitPrice:       product.SellingPrice,
		AdjustDirection: &direction,
	}
	if err := s.stock.CreateMovementItems(ctx, []models.StockMovementItem{item}); err != nil {
		s.metrics.Submission(kindAdjust, metrics.OutcomePartial)
		logger.Error("adjustment partially committed", zap.Error(err))
		return nil, &PartialSubmissionError{
			Kind:      kindAdjust,
			Step:      StepMovementItems,
			Committed: Committed{ProductID: product.ID, MovementID: movement.ID},
			Err:       err,
		}
	}

	invalidate(ctx, s.cache, logger, codesOf(product.PLU, product.Barcode))
	s.metrics.Submission(kindAdjust, metrics.OutcomeCommitted)
	logger.Info("stock adjusted",
		zap.Float64("current", adj.Current),
		zap.Float64("target", adj.Target),
		zap.String("direction", string(adj.Direction)))

	return &CommittedAdjustment{MovementID: movement.ID, Adjustment: adj}, nil
}

func (s *inventoryService) UpdateProduct(ctx context.Context, id string, upd ProductUpdate) error {
	logger := s.logger.With(zap.String("operation", "update_product"), zap.String("product_id", id))

	name := strings.TrimSpace(upd.Name)
	if name == "" {
		return invalid("name", "name is required")
	}
	price, err := pricing.ParseNumber(upd.SellingPrice)
	if err != nil || price < 0 {
		return &ValidationError{Field: "selling_price", Message: "selling price must be a number >= 0", Err: err}
	}
	plu := strings.TrimSpace(upd.PLU)
	if plu != "" && !pricing.IsDigits(plu) {
		return invalid("plu", "PLU must contain digits only")
	}

	before, err := s.products.GetProduct(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load product: %w", err)
	}

	patch := repository.NewProductPatch().
		Set("name", name).
		Set("plu", nullIfBlank(plu)).
		Set("barcode", nullIfBlank(upd.Barcode)).
		Set("selling_price", price).
		Set("category_id", nullIfBlank(upd.CategoryID))
	if err := s.products.UpdateProduct(ctx, id, patch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		logger.Error("failed to update product", zap.Error(err))
		return fmt.Errorf("failed to update product: %w", err)
	}

	invalidate(ctx, s.cache, logger, append(codesOf(before.PLU, before.Barcode), plu, strings.TrimSpace(upd.Barcode)))
	logger.Info("product updated")
	return nil
}

func (s *inventoryService) DeactivateProduct(ctx context.Context, id string, clearCodes bool) error {
	logger := s.logger.With(zap.String("operation", "deactivate_product"), zap.String("product_id", id))

	before, err := s.products.GetProduct(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load product: %w", err)
	}

	if err := s.products.DeactivateProduct(ctx, id, clearCodes); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to deactivate product: %w", err)
	}

	invalidate(ctx, s.cache, logger, codesOf(before.PLU, before.Barcode))
	logger.Info("product deactivated", zap.Bool("clear_codes", clearCodes))
	return nil
}

func (s *inventoryService) Movements(ctx context.Context, filter models.MovementFilter) ([]models.MovementLine, error) {
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, invalid("type", "unknown movement type %q", *filter.Type)
	}
	return s.stock.ListMovements(ctx, filter)
}

func nullIfBlank(s string) any {
	if t := strings.TrimSpace(s); t != "" {
		return t
	}
	return nil
}
