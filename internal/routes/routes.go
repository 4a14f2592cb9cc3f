package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"blameja-pos/internal/handlers"
	"blameja-pos/internal/metrics"
	"blameja-pos/internal/middleware"
)

// Handlers groups everything the route table needs.
type Handlers struct {
	Cart       *handlers.CartHandler
	POS        *handlers.POSHandler
	Dispatch   *handlers.DispatchHandler
	Stock      *handlers.StockHandler
	Catalog    *handlers.CatalogHandler
	Finance    *handlers.FinanceHandler
	LiveSearch *handlers.LiveSearchHandler
	Monitoring *handlers.MonitoringHandler
	Health     *middleware.HealthChecker
}

// SetupRoutes registers the API, health and metrics routes.
func SetupRoutes(router *gin.Engine, h Handlers, m *metrics.Metrics, version string) {
	v1 := router.Group("/api/v1")
	{
		carts := v1.Group("/carts")
		{
			carts.POST("", h.Cart.Create)
			carts.GET("/:id", h.Cart.Get)
			carts.DELETE("/:id", h.Cart.Delete)
			carts.POST("/:id/scan", h.Cart.Scan)
			carts.POST("/:id/lines", h.Cart.AddProduct)
			carts.PATCH("/:id/lines/:productId", h.Cart.UpdateLine)
			carts.DELETE("/:id/lines/:productId", h.Cart.RemoveLine)
			carts.PUT("/:id/note", h.Cart.SetNote)
			carts.POST("/:id/checkout", h.Cart.Checkout)
		}

		pos := v1.Group("/pos")
		{
			pos.GET("/products/code/:code", h.POS.ProductByCode)
			pos.GET("/products/search", h.POS.SaleSuggestions)
			pos.GET("/products/frequent", h.POS.Frequent)
			pos.POST("/sales", h.POS.SubmitSale)

			pos.GET("/cache/stats", h.POS.CacheStats)
			pos.POST("/cache/preload", h.POS.PreloadFrequent)
			pos.POST("/cache/invalidate", h.POS.InvalidateCache)
		}

		dispatches := v1.Group("/dispatches")
		{
			dispatches.POST("", h.Dispatch.Submit)
			dispatches.POST("/note", h.Dispatch.Note)
			dispatches.GET("/products/search", h.Catalog.DispatchSuggestions)
		}

		stock := v1.Group("/stock")
		{
			stock.GET("", h.Stock.ListStock)
			stock.POST("/receive", h.Stock.Receive)
			stock.GET("/movements", h.Stock.Movements)
		}

		products := v1.Group("/products")
		{
			products.GET("/choices", h.Catalog.ProductChoices)
			products.GET("/:id", h.Stock.GetProduct)
			products.PUT("/:id", h.Stock.UpdateProduct)
			products.DELETE("/:id", h.Stock.DeactivateProduct)
			products.POST("/:id/adjust", h.Stock.Adjust)
		}

		v1.GET("/categories", h.Catalog.Categories)
		v1.POST("/categories", h.Catalog.CreateCategory)
		v1.GET("/suppliers", h.Catalog.Suppliers)
		v1.GET("/buyers", h.Catalog.Buyers)
		v1.GET("/search/ws", h.LiveSearch.Serve)

		finance := v1.Group("/finance")
		{
			finance.GET("/daily", h.Finance.DailySales)
			finance.GET("/top-products", h.Finance.TopProducts)
			finance.GET("/overview", h.Finance.Overview)
			finance.GET("/export", h.Finance.Export)
		}

		monitoring := v1.Group("/monitoring")
		{
			monitoring.GET("/metrics", h.Monitoring.GetMetrics)
			monitoring.GET("/metrics/summary", h.Monitoring.GetMetricsSummary)
			monitoring.GET("/ws", h.Monitoring.WebSocketMetrics)
		}
	}

	router.GET("/health", h.Health.HealthCheck)
	router.GET("/health/monitoring", h.Monitoring.HealthCheck)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Blameja POS API",
			"version": version,
			"status":  "running",
			"endpoints": gin.H{
				"health":     "/health",
				"metrics":    "/metrics",
				"api":        "/api/v1",
				"carts":      "/api/v1/carts",
				"pos":        "/api/v1/pos",
				"dispatches": "/api/v1/dispatches",
				"stock":      "/api/v1/stock",
				"products":   "/api/v1/products",
				"finance":    "/api/v1/finance",
			},
		})
	})
}
