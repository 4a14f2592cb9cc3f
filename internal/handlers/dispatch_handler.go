package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"blameja-pos/internal/dispatchnote"
	"blameja-pos/internal/models"
	"blameja-pos/internal/services"
)

type DispatchHandler struct {
	dispatch  services.DispatchService
	validator *validator.Validate
	logger    *zap.Logger
}

func NewDispatchHandler(dispatch services.DispatchService, logger *zap.Logger) *DispatchHandler {
	return &DispatchHandler{
		dispatch:  dispatch,
		validator: validator.New(),
		logger:    logger,
	}
}

func toDispatchRequest(req models.DispatchRequest) services.DispatchRequest {
	lines := make([]services.DispatchLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, services.DispatchLine{
			ProductID: l.ProductID,
			Row: dispatchnote.Row{
				Code:       l.Code,
				Name:       l.Name,
				Unit:       models.ParseUnit(l.Unit),
				Qty:        l.Qty,
				BasePrice:  l.BasePrice,
				FinalPrice: l.FinalPrice,
			},
		})
	}
	return services.DispatchRequest{
		DocNo:        req.DocNo,
		DocDate:      req.DocDate,
		Buyer:        req.Buyer,
		BuyerAddress: req.BuyerAddress,
		Lines:        lines,
		Note:         req.Note,
	}
}

func (h *DispatchHandler) Submit(c *gin.Context) {
	var req models.DispatchRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}

	logger := h.logger.With(
		zap.String("handler", "submit_dispatch"),
		zap.String("doc_no", req.DocNo),
	)

	res, err := h.dispatch.Submit(c.Request.Context(), toDispatchRequest(req))
	if err != nil {
		respondError(c, logger, "dispatch was not saved", err)
		return
	}
	respondOK(c, http.StatusCreated, "dispatch saved", res)
}

// Note returns the printable dispatch note as an HTML download. Nothing is
// written to the database.
func (h *DispatchHandler) Note(c *gin.Context) {
	var req models.DispatchRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}

	body, name, err := h.dispatch.Note(toDispatchRequest(req))
	if err != nil {
		respondError(c, h.logger, "failed to render dispatch note", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}
