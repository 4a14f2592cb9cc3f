package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"blameja-pos/internal/models"
	"blameja-pos/internal/repository"
	"blameja-pos/internal/services"
)

// CatalogHandler serves the lookup lists of the receiving and dispatch forms.
type CatalogHandler struct {
	catalog   repository.CatalogRepository
	search    services.SearchService
	validator *validator.Validate
	logger    *zap.Logger
}

func NewCatalogHandler(catalog repository.CatalogRepository, search services.SearchService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog:   catalog,
		search:    search,
		validator: validator.New(),
		logger:    logger,
	}
}

func (h *CatalogHandler) Categories(c *gin.Context) {
	rows, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "failed to list categories", err)
		return
	}
	respondOK(c, http.StatusOK, "categories", rows)
}

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req models.CategoryCreateRequest
	if !bindJSON(c, h.validator, &req) {
		return
	}
	cat, err := h.catalog.CreateCategory(c.Request.Context(), req.Code, req.Name)
	if err != nil {
		respondError(c, h.logger, "category was not created", err)
		return
	}
	respondOK(c, http.StatusCreated, "category created", cat)
}

func (h *CatalogHandler) Suppliers(c *gin.Context) {
	rows, err := h.search.Suppliers(c.Request.Context(), c.Query("q"), queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, h.logger, "failed to search suppliers", err)
		return
	}
	respondOK(c, http.StatusOK, "suppliers", rows)
}

func (h *CatalogHandler) Buyers(c *gin.Context) {
	rows, err := h.search.Buyers(c.Request.Context(), c.Query("q"), queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, h.logger, "failed to search buyers", err)
		return
	}
	respondOK(c, http.StatusOK, "buyers", rows)
}

func (h *CatalogHandler) ProductChoices(c *gin.Context) {
	rows, err := h.search.ProductChoices(c.Request.Context(),
		c.Query("category_id"), queryInt(c, "store_no", 0), c.Query("q"), queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, h.logger, "failed to search products", err)
		return
	}
	respondOK(c, http.StatusOK, "product choices", rows)
}

// DispatchSuggestions searches the catalog for dispatch-note rows.
func (h *CatalogHandler) DispatchSuggestions(c *gin.Context) {
	rows, err := h.search.DispatchSuggestions(c.Request.Context(), c.Query("q"), queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, h.logger, "failed to search products", err)
		return
	}
	respondOK(c, http.StatusOK, "suggestions", rows)
}
