package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"blameja-pos/internal/models"
)

const defaultWarmupLimit = 50

// Preloader fills the product cache in bulk.
type Preloader interface {
	Preload(ctx context.Context, rows []models.ProductStock) error
}

// CacheWarmer loads the most sold products into the product cache so that the
// first scans of the day skip the database.
type CacheWarmer struct {
	search SearchService
	cache  Preloader
	logger *zap.Logger
}

func NewCacheWarmer(search SearchService, cache Preloader, logger *zap.Logger) *CacheWarmer {
	return &CacheWarmer{search: search, cache: cache, logger: logger}
}

// Warm returns the number of products loaded.
func (w *CacheWarmer) Warm(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = defaultWarmupLimit
	}
	rows, err := w.search.Frequent(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to load frequent products: %w", err)
	}
	if err := w.cache.Preload(ctx, rows); err != nil {
		return 0, fmt.Errorf("failed to preload products: %w", err)
	}
	w.logger.Info("product cache warmed", zap.Int("products", len(rows)))
	return len(rows), nil
}
