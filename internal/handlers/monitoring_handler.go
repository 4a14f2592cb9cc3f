package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"blameja-pos/internal/models"
	"blameja-pos/internal/services"
)

const monitoringPushInterval = 10 * time.Second

type MonitoringHandler struct {
	monitoringService services.MonitoringService
	logger            *zap.Logger
}

func NewMonitoringHandler(monitoringService services.MonitoringService, logger *zap.Logger) *MonitoringHandler {
	return &MonitoringHandler{
		monitoringService: monitoringService,
		logger:            logger,
	}
}

func (h *MonitoringHandler) GetMetrics(c *gin.Context) {
	snapshot := h.monitoringService.Snapshot(c.Request.Context())

	h.logger.Debug("monitoring snapshot served",
		zap.Int64("total_requests", snapshot.Requests.TotalRequests),
		zap.Int("endpoints", snapshot.Requests.Endpoints))

	c.JSON(http.StatusOK, snapshot)
}

// The shop terminals and the API share an origin behind the reverse proxy.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketMetrics pushes a snapshot every monitoringPushInterval until the
// client disconnects.
func (h *MonitoringHandler) WebSocketMetrics(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "websocket_metrics"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()

	// drain client frames so close messages are noticed
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(monitoringPushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			snapshot := h.monitoringService.Snapshot(ctx)
			if err := conn.WriteJSON(snapshot); err != nil {
				logger.Warn("failed to push monitoring snapshot", zap.Error(err))
				return
			}
		case <-closed:
			return
		case <-ctx.Done():
			return
		}
	}
}

var unmonitoredPaths = map[string]bool{
	"/api/v1/monitoring/metrics":         true,
	"/api/v1/monitoring/metrics/summary": true,
	"/api/v1/monitoring/ws":              true,
	"/health/monitoring":                 true,
	"/health":                            true,
	"/metrics":                           true,
	"/":                                  true,
}

// RecordRequestMiddleware feeds finished requests into the monitoring service.
func (h *MonitoringHandler) RecordRequestMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if unmonitoredPaths[path] {
			return
		}

		h.monitoringService.RecordRequest(models.RequestData{
			Endpoint:   path,
			Method:     c.Request.Method,
			Duration:   time.Since(start),
			StatusCode: c.Writer.Status(),
			Timestamp:  time.Now(),
		})
	}
}

func (h *MonitoringHandler) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	redis := h.monitoringService.RedisStats(ctx)
	db := h.monitoringService.DatabaseStats(ctx)
	cache := h.monitoringService.CacheStats()

	status := "healthy"
	if !redis.Connected || db.Status != "online" {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services": gin.H{
			"database": db.Status,
			"redis":    redis.Status,
			"cache":    cache.Status,
		},
	})
}

func (h *MonitoringHandler) GetMetricsSummary(c *gin.Context) {
	m := h.monitoringService.Snapshot(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"requests": gin.H{
			"total":         m.Requests.TotalRequests,
			"endpoints":     m.Requests.Endpoints,
			"errors":        m.Requests.ErrorsCount,
			"slow_requests": m.Requests.SlowRequestsCount,
		},
		"performance": m.Performance,
		"cache": gin.H{
			"hit_rate":   m.Cache.HitRatePercentage,
			"total_keys": m.Cache.TotalKeys,
			"status":     m.Cache.Status,
		},
		"database": gin.H{
			"open_connections": m.Database.OpenConnections,
			"in_use":           m.Database.InUse,
			"status":           m.Database.Status,
		},
		"system": gin.H{
			"heap_used": m.System.HeapUsedMB,
			"uptime":    m.System.UptimeHours,
			"platform":  m.System.Platform,
		},
		"redis": gin.H{
			"connected": m.Redis.Connected,
			"keys":      m.Redis.Keys,
			"memory":    m.Redis.MemoryMB,
			"status":    m.Redis.Status,
		},
		"timestamp": m.Timestamp,
	})
}
