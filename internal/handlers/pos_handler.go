package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"blameja-pos/internal/cache"
	"blameja-pos/internal/cart"
	"blameja-pos/internal/models"
	"blameja-pos/internal/services"
)

// ProductCacheAdmin is the administrative side of the product cache.
type ProductCacheAdmin interface {
	Stats() cache.Stats
	Invalidate(ctx context.Context, codes ...string) error
}

type CacheWarmer interface {
	Warm(ctx context.Context, limit int) (int, error)
}

// POSHandler serves the sales counter: code lookup, suggestions and sales
// submitted with the whole cart in the body.
type POSHandler struct {
	search    services.SearchService
	sales     services.SaleService
	cache     ProductCacheAdmin
	warmer    CacheWarmer
	validator *validator.Validate
	logger    *zap.Logger
}

func NewPOSHandler(search services.SearchService, sales services.SaleService, productCache ProductCacheAdmin,
	warmer CacheWarmer, logger *zap.Logger) *POSHandler {
	return &POSHandler{
		search:    search,
		sales:     sales,
		cache:     productCache,
		warmer:    warmer,
		validator: validator.New(),
		logger:    logger,
	}
}

// ProductByCode resolves a scanned barcode or typed PLU.
func (h *POSHandler) ProductByCode(c *gin.Context) {
	start := time.Now()
	code := c.Param("code")

	logger := h.logger.With(
		zap.String("handler", "product_by_code"),
		zap.String("code", code),
	)

	product, err := h.search.FindByCode(c.Request.Context(), code)
	if err != nil {
		respondError(c, logger, "product not found", err)
		return
	}

	logger.Debug("product resolved", zap.Duration("latency", time.Since(start)))
	respondOK(c, http.StatusOK, "product found", gin.H{
		"product":    product,
		"latency_ms": time.Since(start).Milliseconds(),
	})
}

func (h *POSHandler) SaleSuggestions(c *gin.Context) {
	rows, err := h.search.SaleSuggestions(c.Request.Context(), c.Query("q"), queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, h.logger, "search failed", err)
		return
	}
	respondOK(c, http.StatusOK, "suggestions", rows)
}

func (h *POSHandler) Frequent(c *gin.Context) {
	rows, err := h.search.Frequent(c.Request.Context(), queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, h.logger, "failed to load frequent products", err)
		return
	}
	respondOK(c, http.StatusOK, "frequent products", rows)
}

func (h *POSHandler) SubmitSale(c *gin.Context) {
	var req models.SaleRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}

	logger := h.logger.With(
		zap.String("handler", "submit_sale"),
		zap.Int("lines", len(req.Lines)),
		zap.String("payment", req.Payment),
	)

	lines := make([]cart.Line, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, cart.Line{
			Product:    cart.Product{ID: l.ProductID, Name: l.Name},
			Qty:        l.Qty,
			FinalPrice: l.FinalPrice,
		})
	}

	sale, err := h.sales.Submit(c.Request.Context(), services.SaleRequest{
		Lines:        lines,
		Payment:      models.PaymentMethod(req.Payment),
		CashTendered: req.CashReceived,
		Note:         req.Note,
	})
	if err != nil {
		respondError(c, logger, "sale was not completed", err)
		return
	}

	logger.Info("sale completed", zap.Int64("receipt_no", sale.ReceiptNo))
	respondOK(c, http.StatusCreated, "sale completed", sale)
}

// PreloadFrequent warms the product cache with the most sold products.
func (h *POSHandler) PreloadFrequent(c *gin.Context) {
	var req models.PreloadRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, h.validator, &req) {
		return
	}

	n, err := h.warmer.Warm(c.Request.Context(), req.Limit)
	if err != nil {
		respondError(c, h.logger, "failed to preload products", err)
		return
	}
	respondOK(c, http.StatusOK, "products preloaded", gin.H{
		"products":    n,
		"cache_stats": h.cache.Stats(),
	})
}

func (h *POSHandler) CacheStats(c *gin.Context) {
	st := h.cache.Stats()
	respondOK(c, http.StatusOK, "cache stats", gin.H{
		"hits":           st.Hits,
		"misses":         st.Misses,
		"total_requests": st.TotalRequests,
		"total_keys":     st.TotalKeys,
		"hit_rate":       st.HitRate(),
	})
}

func (h *POSHandler) InvalidateCache(c *gin.Context) {
	var req models.CacheInvalidateRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}
	if err := h.cache.Invalidate(c.Request.Context(), req.Codes...); err != nil {
		respondError(c, h.logger, "failed to invalidate cache", err)
		return
	}
	h.logger.Info("product cache invalidated", zap.Strings("codes", req.Codes))
	respondOK(c, http.StatusOK, "cache invalidated", gin.H{"codes": len(req.Codes)})
}
