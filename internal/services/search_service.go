package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"blameja-pos/internal/cache"
	"blameja-pos/internal/models"
	"blameja-pos/internal/repository"
	"blameja-pos/internal/search"
)

// ProductLookupCache is the part of the product cache the search path uses.
type ProductLookupCache interface {
	Get(ctx context.Context, code string) (*models.ProductStock, error)
	Set(ctx context.Context, code string, p models.ProductStock) error
}

type SearchService interface {
	// FindByCode resolves a scanned or typed code exactly; ErrProductNotFound when nothing matches.
	FindByCode(ctx context.Context, code string) (*models.ProductStock, error)
	SaleSuggestions(ctx context.Context, raw string, limit int) ([]models.ProductStock, error)
	DispatchSuggestions(ctx context.Context, raw string, limit int) ([]models.Product, error)
	Suppliers(ctx context.Context, raw string, limit int) ([]models.Supplier, error)
	Buyers(ctx context.Context, raw string, limit int) ([]models.Buyer, error)
	ProductChoices(ctx context.Context, categoryID string, storeNo int, raw string, limit int) ([]models.ProductChoice, error)
	Frequent(ctx context.Context, limit int) ([]models.ProductStock, error)
}

type searchService struct {
	products     repository.ProductRepository
	catalog      repository.CatalogRepository
	cache        ProductLookupCache
	productLimit int
	logger       *zap.Logger
}

func NewSearchService(products repository.ProductRepository, catalog repository.CatalogRepository, cache ProductLookupCache,
	productLimit int, logger *zap.Logger) SearchService {
	if productLimit <= 0 {
		productLimit = search.DefaultProductLimit
	}
	return &searchService{
		products:     products,
		catalog:      catalog,
		cache:        cache,
		productLimit: productLimit,
		logger:       logger,
	}
}

func (s *searchService) FindByCode(ctx context.Context, code string) (*models.ProductStock, error) {
	term, ok := search.Term(code)
	if !ok {
		return nil, invalid("code", "enter a barcode or PLU")
	}

	if s.cache != nil {
		if p, err := s.cache.Get(ctx, term); err == nil {
			return p, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("product cache lookup failed", zap.String("code", term), zap.Error(err))
		}
	}

	start := time.Now()
	p, err := s.products.FindStockByCode(ctx, term)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	s.logger.Debug("product resolved from database", zap.String("code", term), zap.Duration("latency", time.Since(start)))

	if s.cache != nil {
		if err := s.cache.Set(ctx, term, *p); err != nil {
			s.logger.Warn("failed to cache product", zap.String("code", term), zap.Error(err))
		}
	}
	return p, nil
}

// SaleSuggestions runs the exact PLU and substring queries concurrently and
// ranks the substring hits by on-hand stock.
func (s *searchService) SaleSuggestions(ctx context.Context, raw string, limit int) ([]models.ProductStock, error) {
	term, ok := search.Term(raw)
	if !ok {
		return []models.ProductStock{}, nil
	}
	limit = search.ClampLimit(limit, s.productLimit)

	var exact, substring []models.ProductStock
	g, gctx := errgroup.WithContext(ctx)
	if plu, ok := search.ExactCode(term); ok {
		g.Go(func() error {
			rows, err := s.products.StockByPLU(gctx, plu, limit)
			exact = rows
			return err
		})
	}
	g.Go(func() error {
		rows, err := s.products.SearchStock(gctx, term, limit)
		substring = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	out := search.RankByStock(exact, substring, limit)
	if out == nil {
		out = []models.ProductStock{}
	}
	return out, nil
}

// DispatchSuggestions searches the products table, exact PLU hits first.
func (s *searchService) DispatchSuggestions(ctx context.Context, raw string, limit int) ([]models.Product, error) {
	term, ok := search.Term(raw)
	if !ok {
		return []models.Product{}, nil
	}
	limit = search.ClampLimit(limit, s.productLimit)

	var exact, substring []models.Product
	g, gctx := errgroup.WithContext(ctx)
	if plu, ok := search.ExactCode(term); ok {
		g.Go(func() error {
			rows, err := s.products.ProductsByPLU(gctx, plu, limit)
			exact = rows
			return err
		})
	}
	g.Go(func() error {
		rows, err := s.products.SearchProducts(gctx, term, limit)
		substring = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	out := search.ExactFirst(func(p models.Product) string { return p.ID }, exact, substring, limit)
	if out == nil {
		out = []models.Product{}
	}
	return out, nil
}

// Suppliers with an empty term browses the first suppliers by name.
func (s *searchService) Suppliers(ctx context.Context, raw string, limit int) ([]models.Supplier, error) {
	term, _ := search.Term(raw)
	return s.catalog.SearchSuppliers(ctx, term, search.ClampLimit(limit, search.DefaultSupplierLimit))
}

func (s *searchService) Buyers(ctx context.Context, raw string, limit int) ([]models.Buyer, error) {
	if _, ok := search.Term(raw); !ok {
		return []models.Buyer{}, nil
	}
	all, err := s.catalog.AllBuyers(ctx)
	if err != nil {
		return nil, err
	}
	return search.FilterBuyers(all, raw, search.ClampLimit(limit, search.DefaultSupplierLimit)), nil
}

func (s *searchService) ProductChoices(ctx context.Context, categoryID string, storeNo int, raw string, limit int) ([]models.ProductChoice, error) {
	term, _ := search.Term(raw)
	return s.catalog.ProductChoices(ctx, categoryID, storeNo, term, search.ClampLimit(limit, search.DefaultChoiceLimit))
}

func (s *searchService) Frequent(ctx context.Context, limit int) ([]models.ProductStock, error) {
	return s.products.FrequentProducts(ctx, search.ClampLimit(limit, s.productLimit))
}
