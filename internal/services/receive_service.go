package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"blameja-pos/internal/metrics"
	"blameja-pos/internal/models"
	"blameja-pos/internal/pricing"
	"blameja-pos/internal/repository"
)

const (
	kindReceive = "receive"

	defaultReceiveNote = "Прием на стока"
)

// ReceiveRequest is the receiving form as typed. Numeric fields stay text so
// that blank and invalid can be told apart.
type ReceiveRequest struct {
	PLU             string
	Name            string
	CategoryID      string
	Qty             string
	Barcode         string
	SellingPrice    string
	UnitCost        string
	Description     string
	Note            string
	TaxGroup        string
	Unit            string
	StoreNo         int
	SupplierID      string
	SupplierAddress string
}

type CommittedReceive struct {
	ProductID  string   `json:"product_id"`
	Created    bool     `json:"created"`
	MovementID string   `json:"movement_id"`
	Qty        float64  `json:"qty"`
	Warnings   []string `json:"warnings,omitempty"`
}

type ReceiveService interface {
	Submit(ctx context.Context, req ReceiveRequest) (*CommittedReceive, error)
}

type receiveService struct {
	products repository.ProductRepository
	catalog  repository.CatalogRepository
	stock    repository.StockRepository
	cache    Invalidator
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewReceiveService(products repository.ProductRepository, catalog repository.CatalogRepository, stock repository.StockRepository,
	cache Invalidator, m *metrics.Metrics, logger *zap.Logger) ReceiveService {
	return &receiveService{
		products: products,
		catalog:  catalog,
		stock:    stock,
		cache:    cache,
		metrics:  m,
		logger:   logger,
	}
}

// receiveInput is the validated form.
type receiveInput struct {
	plu          string
	name         string
	categoryID   string
	qty          float64
	barcode      string
	sellingPrice *float64
	unitCost     float64
	description  string
	note         string
	taxGroup     int
	unit         models.Unit
	storeNo      models.StoreNo
	supplierID   string
}

// optionalAmount returns nil for blank input.
func optionalAmount(field, raw string) (*float64, error) {
	v, err := pricing.ParseNumber(raw)
	if errors.Is(err, pricing.ErrEmptyNumber) {
		return nil, nil
	}
	if err != nil {
		return nil, &ValidationError{Field: field, Message: "not a valid number", Err: err}
	}
	if v < 0 {
		return nil, invalid(field, "must not be negative")
	}
	return &v, nil
}

func parseReceive(req ReceiveRequest) (receiveInput, error) {
	in := receiveInput{
		name:        strings.TrimSpace(req.Name),
		categoryID:  strings.TrimSpace(req.CategoryID),
		barcode:     strings.TrimSpace(req.Barcode),
		description: strings.TrimSpace(req.Description),
		note:        strings.TrimSpace(req.Note),
		unit:        models.ParseUnit(req.Unit),
		storeNo:     models.ParseStoreNo(req.StoreNo),
		supplierID:  strings.TrimSpace(req.SupplierID),
	}

	plu := strings.TrimSpace(req.PLU)
	if plu == "" {
		return in, invalid("plu", "PLU is required")
	}
	if !pricing.IsDigits(plu) {
		return in, invalid("plu", "PLU must contain digits only")
	}
	in.plu = plu

	if in.name == "" {
		return in, invalid("name", "product name is required")
	}

	qty, err := pricing.ParseNumber(req.Qty)
	if err != nil && !errors.Is(err, pricing.ErrEmptyNumber) {
		return in, &ValidationError{Field: "qty", Message: "not a valid number", Err: err}
	}
	if err != nil || qty <= 0 {
		return in, invalid("qty", "quantity must be greater than 0")
	}
	in.qty = qty

	taxGroup, err := strconv.Atoi(strings.TrimSpace(req.TaxGroup))
	if err != nil || !models.ValidTaxGroup(taxGroup) {
		return in, invalid("tax_group", "tax group must be one of 5, 10, 18")
	}
	in.taxGroup = taxGroup

	cost, err := optionalAmount("unit_cost", req.UnitCost)
	if err != nil {
		return in, err
	}
	if cost != nil {
		in.unitCost = *cost
	}

	if in.sellingPrice, err = optionalAmount("selling_price", req.SellingPrice); err != nil {
		return in, err
	}
	return in, nil
}

func (s *receiveService) Submit(ctx context.Context, req ReceiveRequest) (*CommittedReceive, error) {
	logger := s.logger.With(
		zap.String("operation", "submit_receive"),
		zap.String("plu", strings.TrimSpace(req.PLU)),
	)

	in, err := parseReceive(req)
	if err != nil {
		s.metrics.Submission(kindReceive, metrics.OutcomeInvalid)
		logger.Info("receive rejected", zap.Error(err))
		return nil, err
	}

	result := &CommittedReceive{Qty: in.qty}

	var supplier *models.Supplier
	if in.supplierID != "" {
		supplier, err = s.catalog.GetSupplier(ctx, in.supplierID)
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.Submission(kindReceive, metrics.OutcomeInvalid)
			return nil, invalid("supplier_id", "unknown supplier")
		}
		if err != nil {
			s.metrics.Submission(kindReceive, metrics.OutcomeFailed)
			return nil, fmt.Errorf("failed to load supplier: %w", err)
		}
	}

	existing, err := s.products.FindActiveByPLUOrBarcode(ctx, in.plu, in.barcode)
	if err != nil {
		s.metrics.Submission(kindReceive, metrics.OutcomeFailed)
		return nil, fmt.Errorf("failed to look up product: %w", err)
	}

	var (
		productID string
		unitPrice float64
		codes     = []string{in.plu, in.barcode}
	)
	if existing == nil {
		product := &models.Product{
			PLU:          &in.plu,
			Name:         in.name,
			Unit:         in.unit,
			TaxGroup:     &in.taxGroup,
			StoreNo:      in.storeNo,
			SellingPrice: 0,
		}
		if in.barcode != "" {
			product.Barcode = &in.barcode
		}
		if in.description != "" {
			product.Description = &in.description
		}
		if in.categoryID != "" {
			product.CategoryID = &in.categoryID
		}
		if in.sellingPrice != nil {
			product.SellingPrice = *in.sellingPrice
		}
		if err := s.products.CreateProduct(ctx, product); err != nil {
			s.metrics.Submission(kindReceive, metrics.OutcomeFailed)
			logger.Error("failed to create product", zap.Error(err))
			return nil, fmt.Errorf("failed to create product: %w", err)
		}
		productID, unitPrice = product.ID, product.SellingPrice
		result.Created = true
	} else {
		productID, unitPrice = existing.ID, existing.SellingPrice
		codes = append(codes, codesOf(existing.PLU, existing.Barcode)...)

		patch := receivePatch(in)
		if in.sellingPrice != nil {
			unitPrice = *in.sellingPrice
		}
		if err := s.products.UpdateProduct(ctx, productID, patch); err != nil {
			s.metrics.Submission(kindReceive, metrics.OutcomeFailed)
			logger.Error("failed to update product", zap.String("product_id", productID), zap.Error(err))
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}
	result.ProductID = productID
	logger = logger.With(zap.String("product_id", productID), zap.Bool("created", result.Created))

	committed := Committed{ProductID: productID}
	partial := func(step string, err error) error {
		s.metrics.Submission(kindReceive, metrics.OutcomePartial)
		logger.Error("receive partially committed", zap.String("step", step), zap.Error(err))
		return &PartialSubmissionError{Kind: kindReceive, Step: step, Committed: committed, Err: err}
	}

	note := in.note
	if note == "" {
		note = defaultReceiveNote
	}
	movement := &models.StockMovement{Type: models.MovementIn, Note: &note}
	if in.supplierID != "" {
		movement.SupplierID = &in.supplierID
	}
	if err := s.stock.CreateMovement(ctx, movement); err != nil {
		return nil, partial(StepMovement, err)
	}
	committed.MovementID = movement.ID
	result.MovementID = movement.ID

	item := models.StockMovementItem{
		MovementID: movement.ID,
		ProductID:  productID,
		Qty:        in.qty,
		UnitCost:   in.unitCost,
		UnitPrice:  unitPrice,
	}
	if err := s.stock.CreateMovementItems(ctx, []models.StockMovementItem{item}); err != nil {
		return nil, partial(StepMovementItems, err)
	}

	invalidate(ctx, s.cache, logger, codes)

	if supplier != nil {
		result.Warnings = s.updateSupplierAddress(ctx, logger, supplier, req.SupplierAddress)
	}

	s.metrics.Submission(kindReceive, metrics.OutcomeCommitted)
	logger.Info("receive committed", zap.Float64("qty", in.qty))
	return result, nil
}

// receivePatch overwrites only what the operator filled in. Blank barcode,
// description, category and price keep the stored values.
func receivePatch(in receiveInput) *repository.ProductPatch {
	patch := repository.NewProductPatch().
		Set("is_active", true).
		Set("plu", in.plu).
		Set("name", in.name).
		Set("tax_group", in.taxGroup).
		Set("unit", string(in.unit)).
		Set("store_no", int(in.storeNo))
	if in.categoryID != "" {
		patch.Set("category_id", in.categoryID)
	}
	if in.barcode != "" {
		patch.Set("barcode", in.barcode)
	}
	if in.description != "" {
		patch.Set("description", in.description)
	}
	if in.sellingPrice != nil {
		patch.Set("selling_price", *in.sellingPrice)
	}
	return patch
}

// updateSupplierAddress never fails the receive; problems become warnings.
func (s *receiveService) updateSupplierAddress(ctx context.Context, logger *zap.Logger, supplier *models.Supplier, address string) []string {
	address = strings.TrimSpace(address)
	if address == "" {
		if supplier.Address == nil {
			return []string{fmt.Sprintf("supplier %s has no address", supplier.Name)}
		}
		return nil
	}
	if supplier.Address != nil && *supplier.Address == address {
		return nil
	}
	if err := s.catalog.UpdateSupplierAddress(ctx, supplier.ID, address); err != nil {
		logger.Warn("failed to update supplier address", zap.String("supplier_id", supplier.ID), zap.Error(err))
		return []string{fmt.Sprintf("address of supplier %s was not saved", supplier.Name)}
	}
	return nil
}
