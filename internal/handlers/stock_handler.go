package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"blameja-pos/internal/models"
	"blameja-pos/internal/services"
)

// StockHandler serves receiving, the stock list, adjustments, product
// maintenance and the movement history.
type StockHandler struct {
	inventory services.InventoryService
	receive   services.ReceiveService
	validator *validator.Validate
	logger    *zap.Logger
}

func NewStockHandler(inventory services.InventoryService, receive services.ReceiveService, logger *zap.Logger) *StockHandler {
	return &StockHandler{
		inventory: inventory,
		receive:   receive,
		validator: validator.New(),
		logger:    logger,
	}
}

func (h *StockHandler) Receive(c *gin.Context) {
	start := time.Now()

	var req models.ReceiveRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}

	logger := h.logger.With(
		zap.String("handler", "receive"),
		zap.String("plu", req.PLU),
	)

	res, err := h.receive.Submit(c.Request.Context(), services.ReceiveRequest{
		PLU:             req.PLU,
		Name:            req.Name,
		CategoryID:      req.CategoryID,
		Qty:             req.Qty,
		Barcode:         req.Barcode,
		SellingPrice:    req.SellingPrice,
		UnitCost:        req.UnitCost,
		Description:     req.Description,
		Note:            req.Note,
		TaxGroup:        req.TaxGroup,
		Unit:            req.Unit,
		StoreNo:         req.StoreNo,
		SupplierID:      req.SupplierID,
		SupplierAddress: req.SupplierAddress,
	})
	if err != nil {
		respondError(c, logger, "goods were not received", err)
		return
	}

	logger.Info("goods received",
		zap.String("product_id", res.ProductID),
		zap.Bool("created", res.Created),
		zap.Duration("latency", time.Since(start)))
	respondOK(c, http.StatusCreated, "goods received", res)
}

func (h *StockHandler) ListStock(c *gin.Context) {
	rows, err := h.inventory.ListStock(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, h.logger, "failed to list stock", err)
		return
	}
	respondOK(c, http.StatusOK, "stock", rows)
}

func (h *StockHandler) GetProduct(c *gin.Context) {
	p, err := h.inventory.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "failed to load product", err)
		return
	}
	respondOK(c, http.StatusOK, "product", p)
}

func (h *StockHandler) Adjust(c *gin.Context) {
	var req models.AdjustStockRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}

	logger := h.logger.With(
		zap.String("handler", "adjust_stock"),
		zap.String("product_id", c.Param("id")),
	)

	res, err := h.inventory.AdjustToTarget(c.Request.Context(), services.AdjustRequest{
		ProductID: c.Param("id"),
		Target:    req.Target,
		Reason:    req.Reason,
	})
	if err != nil {
		respondError(c, logger, "stock was not adjusted", err)
		return
	}
	respondOK(c, http.StatusCreated, "stock adjusted", res)
}

func (h *StockHandler) UpdateProduct(c *gin.Context) {
	var req models.ProductUpdateRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}

	err := h.inventory.UpdateProduct(c.Request.Context(), c.Param("id"), services.ProductUpdate{
		Name:         req.Name,
		PLU:          req.PLU,
		Barcode:      req.Barcode,
		SellingPrice: req.SellingPrice,
		CategoryID:   req.CategoryID,
	})
	if err != nil {
		respondError(c, h.logger, "product was not updated", err)
		return
	}
	respondOK(c, http.StatusOK, "product updated", nil)
}

// DeactivateProduct hides a product from sales and search. With
// clear_codes=true its PLU and barcode are released for reuse.
func (h *StockHandler) DeactivateProduct(c *gin.Context) {
	clearCodes := c.Query("clear_codes") == "true"
	if err := h.inventory.DeactivateProduct(c.Request.Context(), c.Param("id"), clearCodes); err != nil {
		respondError(c, h.logger, "product was not deactivated", err)
		return
	}
	respondOK(c, http.StatusOK, "product deactivated", nil)
}

func (h *StockHandler) Movements(c *gin.Context) {
	filter := models.MovementFilter{
		Limit:  queryInt(c, "limit", 0),
		Offset: queryInt(c, "offset", 0),
	}
	if t := strings.ToUpper(strings.TrimSpace(c.Query("type"))); t != "" {
		mt := models.MovementType(t)
		filter.Type = &mt
	}
	if p := strings.TrimSpace(c.Query("product_id")); p != "" {
		filter.ProductID = &p
	}
	for key, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := strings.TrimSpace(c.Query(key))
		if raw == "" {
			continue
		}
		t, dateOnly, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "invalid request",
				"error":   key + " must be YYYY-MM-DD or RFC3339",
			})
			return
		}
		if dateOnly && key == "to" {
			// a plain date includes that whole day
			t = t.AddDate(0, 0, 1)
		}
		*dst = &t
	}

	rows, err := h.inventory.Movements(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, "failed to list movements", err)
		return
	}
	respondOK(c, http.StatusOK, "movements", rows)
}

func parseDate(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	return t, false, err
}
