package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"blameja-pos/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type FinanceHandler struct {
	finance services.FinanceService
	logger  *zap.Logger
}

func NewFinanceHandler(finance services.FinanceService, logger *zap.Logger) *FinanceHandler {
	return &FinanceHandler{finance: finance, logger: logger}
}

// dateRange reads from and to as YYYY-MM-DD. On failure the 400 response has
// already been written.
func dateRange(c *gin.Context) (time.Time, time.Time, bool) {
	from, errFrom := time.Parse(time.DateOnly, strings.TrimSpace(c.Query("from")))
	to, errTo := time.Parse(time.DateOnly, strings.TrimSpace(c.Query("to")))
	if errFrom != nil || errTo != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "invalid request",
			"error":   "from and to must be dates as YYYY-MM-DD",
		})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func (h *FinanceHandler) DailySales(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	rows, err := h.finance.DailySales(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, h.logger, "failed to load daily sales", err)
		return
	}
	respondOK(c, http.StatusOK, "daily sales", rows)
}

func (h *FinanceHandler) TopProducts(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	rows, err := h.finance.TopProducts(c.Request.Context(), from, to, queryInt(c, "limit", services.DefaultTopProducts))
	if err != nil {
		respondError(c, h.logger, "failed to load top products", err)
		return
	}
	respondOK(c, http.StatusOK, "top products", rows)
}

func (h *FinanceHandler) Overview(c *gin.Context) {
	out, err := h.finance.Overview(c.Request.Context(), queryInt(c, "days", services.DefaultFinanceDays))
	if err != nil {
		respondError(c, h.logger, "failed to load finance overview", err)
		return
	}
	respondOK(c, http.StatusOK, "finance overview", out)
}

func (h *FinanceHandler) Export(c *gin.Context) {
	body, name, err := h.finance.Export(c.Request.Context(), queryInt(c, "days", services.DefaultFinanceDays))
	if err != nil {
		respondError(c, h.logger, "failed to export sales", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, body)
}
