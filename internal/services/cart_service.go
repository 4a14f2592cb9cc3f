package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blameja-pos/internal/cart"
	"blameja-pos/internal/metrics"
	"blameja-pos/internal/models"
	"blameja-pos/internal/pricing"
	"blameja-pos/internal/repository"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrCartBusy     = errors.New("cart is being checked out")
)

// CheckoutRequest completes the sale of a stored draft.
type CheckoutRequest struct {
	Payment      models.PaymentMethod
	CashTendered string
}

// CartService keeps draft carts between requests. Every mutation returns the
// recomputed summary.
type CartService interface {
	Create(ctx context.Context) (*cart.Summary, error)
	Get(ctx context.Context, id string) (*cart.Summary, error)
	AddByCode(ctx context.Context, id, code string) (*cart.Summary, error)
	AddProduct(ctx context.Context, id, productID string) (*cart.Summary, error)
	SetQuantity(ctx context.Context, id, productID, raw string) (*cart.Summary, error)
	Step(ctx context.Context, id, productID string, delta int) (*cart.Summary, error)
	SetPrice(ctx context.Context, id, productID, raw string) (*cart.Summary, error)
	SetDiscountPercent(ctx context.Context, id, productID, raw string) (*cart.Summary, error)
	RemoveLine(ctx context.Context, id, productID string) (*cart.Summary, error)
	SetNote(ctx context.Context, id, note string) (*cart.Summary, error)
	Delete(ctx context.Context, id string) error
	// Checkout submits the draft as a sale. The draft is dropped only when
	// the sale committed; on any failure it stays as it was.
	Checkout(ctx context.Context, id string, req CheckoutRequest) (*CommittedSale, error)
}

type cartService struct {
	store    repository.CartStore
	products repository.ProductRepository
	search   SearchService
	sales    SaleService
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewCartService(store repository.CartStore, products repository.ProductRepository, search SearchService,
	sales SaleService, m *metrics.Metrics, logger *zap.Logger) CartService {
	return &cartService{
		store:    store,
		products: products,
		search:   search,
		sales:    sales,
		metrics:  m,
		logger:   logger,
	}
}

func (s *cartService) load(ctx context.Context, id string) (*cart.Draft, error) {
	d, err := s.store.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart %s: %w", id, err)
	}
	return d, nil
}

func (s *cartService) save(ctx context.Context, d *cart.Draft) (*cart.Summary, error) {
	if err := s.store.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to save cart %s: %w", d.ID, err)
	}
	sum := d.Summary()
	return &sum, nil
}

// mutate applies fn to the stored draft atomically. Errors from fn are
// returned as they are; store errors are translated.
func (s *cartService) mutate(ctx context.Context, id string, fn func(d *cart.Draft) error) (*cart.Summary, error) {
	var fnErr error
	d, err := s.store.Update(ctx, id, func(d *cart.Draft) error {
		fnErr = fn(d)
		return fnErr
	})
	if err != nil {
		if fnErr != nil && errors.Is(err, fnErr) {
			if errors.Is(fnErr, cart.ErrLineNotFound) {
				return nil, invalid("product_id", "product is not in the cart")
			}
			return nil, fnErr
		}
		return nil, s.storeError(id, err)
	}
	sum := d.Summary()
	return &sum, nil
}

func (s *cartService) storeError(id string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrCartNotFound
	case errors.Is(err, repository.ErrCartLocked):
		return ErrCartBusy
	}
	return fmt.Errorf("failed to update cart %s: %w", id, err)
}

func (s *cartService) Create(ctx context.Context) (*cart.Summary, error) {
	d := cart.New(uuid.NewString())
	return s.save(ctx, d)
}

func (s *cartService) Get(ctx context.Context, id string) (*cart.Summary, error) {
	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	sum := d.Summary()
	return &sum, nil
}

func (s *cartService) AddByCode(ctx context.Context, id, code string) (*cart.Summary, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	row, err := s.search.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.add(ctx, id, *row)
}

// AddProduct adds a picked suggestion. The on-hand snapshot is read fresh so
// the warning reflects current stock.
func (s *cartService) AddProduct(ctx context.Context, id, productID string) (*cart.Summary, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.products.StockByIDs(ctx, []string{productID})
	if err != nil {
		return nil, fmt.Errorf("failed to load product %s: %w", productID, err)
	}
	if len(rows) == 0 {
		return nil, ErrProductNotFound
	}
	return s.add(ctx, id, rows[0])
}

func (s *cartService) add(ctx context.Context, id string, row models.ProductStock) (*cart.Summary, error) {
	var warning *cart.StockWarning
	sum, err := s.mutate(ctx, id, func(d *cart.Draft) error {
		warning = d.AddOrIncrement(row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if warning != nil {
		s.metrics.StockWarning("cart")
		s.logger.Debug("product added without stock",
			zap.String("cart_id", id),
			zap.String("product_id", warning.ProductID),
			zap.Float64("available", warning.Available))
		sum.Warnings = []cart.StockWarning{*warning}
	}
	return sum, nil
}

func (s *cartService) SetQuantity(ctx context.Context, id, productID, raw string) (*cart.Summary, error) {
	qty, err := pricing.ParseNumber(raw)
	if err != nil {
		qty = math.NaN()
	}
	return s.mutate(ctx, id, func(d *cart.Draft) error {
		return d.ChangeQuantity(productID, qty)
	})
}

func (s *cartService) Step(ctx context.Context, id, productID string, delta int) (*cart.Summary, error) {
	return s.mutate(ctx, id, func(d *cart.Draft) error {
		return d.Step(productID, delta)
	})
}

func (s *cartService) SetPrice(ctx context.Context, id, productID, raw string) (*cart.Summary, error) {
	return s.mutate(ctx, id, func(d *cart.Draft) error {
		return d.SetFinalPrice(productID, raw)
	})
}

func (s *cartService) SetDiscountPercent(ctx context.Context, id, productID, raw string) (*cart.Summary, error) {
	return s.mutate(ctx, id, func(d *cart.Draft) error {
		return d.SetDiscountPercent(productID, raw)
	})
}

func (s *cartService) RemoveLine(ctx context.Context, id, productID string) (*cart.Summary, error) {
	return s.mutate(ctx, id, func(d *cart.Draft) error {
		return d.RemoveLine(productID)
	})
}

func (s *cartService) SetNote(ctx context.Context, id, note string) (*cart.Summary, error) {
	return s.mutate(ctx, id, func(d *cart.Draft) error {
		d.Note = strings.TrimSpace(note)
		return nil
	})
}

func (s *cartService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func (s *cartService) Checkout(ctx context.Context, id string, req CheckoutRequest) (*CommittedSale, error) {
	token, err := s.store.Claim(ctx, id)
	if err != nil {
		return nil, s.storeError(id, err)
	}

	d, err := s.load(ctx, id)
	if err != nil {
		s.release(ctx, id, token)
		return nil, err
	}

	sale, err := s.sales.Submit(ctx, SaleRequest{
		Lines:        d.Lines,
		Payment:      req.Payment,
		CashTendered: req.CashTendered,
		Note:         d.Note,
	})
	if err != nil {
		s.release(ctx, id, token)
		return nil, err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		s.logger.Warn("sale committed but cart was not cleared",
			zap.String("cart_id", id),
			zap.Int64("receipt_no", sale.ReceiptNo),
			zap.Error(err))
	}
	return sale, nil
}

// release hands the cart back after a failed checkout. It runs even when the
// request context is already cancelled.
func (s *cartService) release(ctx context.Context, id, token string) {
	if err := s.store.Release(context.WithoutCancel(ctx), id, token); err != nil {
		s.logger.Warn("failed to unlock cart after checkout", zap.String("cart_id", id), zap.Error(err))
	}
}
