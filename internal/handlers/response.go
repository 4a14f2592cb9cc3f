package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"blameja-pos/internal/services"
)

// bindJSON decodes and validates the body. On failure the 400 response has
// already been written.
func bindJSON(c *gin.Context, v *validator.Validate, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "malformed request body",
			"error":   err.Error(),
		})
		return false
	}
	if err := v.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "invalid request",
			"error":   err.Error(),
		})
		return false
	}
	return true
}

func respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// respondError maps service errors to status codes. A partially committed
// submission is a 500 that still reports what was written.
func respondError(c *gin.Context, logger *zap.Logger, message string, err error) {
	var (
		validation *services.ValidationError
		partial    *services.PartialSubmissionError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": message,
			"error":   validation.Error(),
			"field":   validation.Field,
		})
	case errors.Is(err, services.ErrProductNotFound), errors.Is(err, services.ErrCartNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": message,
			"error":   err.Error(),
		})
	case errors.Is(err, services.ErrCartBusy):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"message": message,
			"error":   err.Error(),
		})
	case errors.As(err, &partial):
		logger.Error(message, zap.String("step", partial.Step), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"message":   message,
			"error":     err.Error(),
			"partial":   true,
			"step":      partial.Step,
			"committed": partial.Committed,
		})
	default:
		logger.Error(message, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": message,
			"error":   err.Error(),
		})
	}
}

func queryInt(c *gin.Context, key string, def int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return def
}
