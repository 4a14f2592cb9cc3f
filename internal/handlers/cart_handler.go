package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"blameja-pos/internal/cart"
	"blameja-pos/internal/models"
	"blameja-pos/internal/services"
)

// CartHandler serves the draft cart of the sales screen.
type CartHandler struct {
	carts     services.CartService
	validator *validator.Validate
	logger    *zap.Logger
}

func NewCartHandler(carts services.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		carts:     carts,
		validator: validator.New(),
		logger:    logger,
	}
}

func (h *CartHandler) reply(c *gin.Context, status int, sum *cart.Summary, err error) {
	if err != nil {
		respondError(c, h.logger, "cart update failed", err)
		return
	}
	respondOK(c, status, "cart updated", sum)
}

func (h *CartHandler) Create(c *gin.Context) {
	sum, err := h.carts.Create(c.Request.Context())
	h.reply(c, http.StatusCreated, sum, err)
}

func (h *CartHandler) Get(c *gin.Context) {
	sum, err := h.carts.Get(c.Request.Context(), c.Param("id"))
	h.reply(c, http.StatusOK, sum, err)
}

func (h *CartHandler) Delete(c *gin.Context) {
	if err := h.carts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, "failed to delete cart", err)
		return
	}
	respondOK(c, http.StatusOK, "cart deleted", nil)
}

func (h *CartHandler) Scan(c *gin.Context) {
	var req models.CartScanRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}
	sum, err := h.carts.AddByCode(c.Request.Context(), c.Param("id"), req.Code)
	h.reply(c, http.StatusOK, sum, err)
}

func (h *CartHandler) AddProduct(c *gin.Context) {
	var req models.CartAddRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}
	sum, err := h.carts.AddProduct(c.Request.Context(), c.Param("id"), req.ProductID)
	h.reply(c, http.StatusOK, sum, err)
}

func (h *CartHandler) UpdateLine(c *gin.Context) {
	var req models.CartLineUpdateRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}

	ctx := c.Request.Context()
	id, productID := c.Param("id"), c.Param("productId")

	var (
		sum *cart.Summary
		err error
	)
	switch {
	case req.Qty != nil:
		sum, err = h.carts.SetQuantity(ctx, id, productID, *req.Qty)
	case req.Step != nil:
		sum, err = h.carts.Step(ctx, id, productID, *req.Step)
	case req.FinalPrice != nil:
		sum, err = h.carts.SetPrice(ctx, id, productID, *req.FinalPrice)
	case req.DiscountPercent != nil:
		sum, err = h.carts.SetDiscountPercent(ctx, id, productID, *req.DiscountPercent)
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "invalid request",
			"error":   "one of qty, step, final_price or discount_percent is required",
		})
		return
	}
	h.reply(c, http.StatusOK, sum, err)
}

func (h *CartHandler) RemoveLine(c *gin.Context) {
	sum, err := h.carts.RemoveLine(c.Request.Context(), c.Param("id"), c.Param("productId"))
	h.reply(c, http.StatusOK, sum, err)
}

func (h *CartHandler) SetNote(c *gin.Context) {
	var req models.CartNoteRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}
	sum, err := h.carts.SetNote(c.Request.Context(), c.Param("id"), req.Note)
	h.reply(c, http.StatusOK, sum, err)
}

func (h *CartHandler) Checkout(c *gin.Context) {
	var req models.CheckoutRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}

	logger := h.logger.With(
		zap.String("handler", "checkout"),
		zap.String("cart_id", c.Param("id")),
		zap.String("payment", req.Payment),
	)

	sale, err := h.carts.Checkout(c.Request.Context(), c.Param("id"), services.CheckoutRequest{
		Payment:      models.PaymentMethod(req.Payment),
		CashTendered: req.CashReceived,
	})
	if err != nil {
		respondError(c, logger, "sale was not completed", err)
		return
	}

	logger.Info("sale completed", zap.Int64("receipt_no", sale.ReceiptNo))
	respondOK(c, http.StatusCreated, "sale completed", sale)
}
