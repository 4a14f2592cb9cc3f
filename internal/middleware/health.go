package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"blameja-pos/internal/database"
)

const healthTimeout = 5 * time.Second

type HealthChecker struct {
	postgresDB *database.PostgresDB
	redisDB    *database.RedisDB
	version    string
	logger     *zap.Logger
}

func NewHealthChecker(postgresDB *database.PostgresDB, redisDB *database.RedisDB, version string, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		postgresDB: postgresDB,
		redisDB:    redisDB,
		version:    version,
		logger:     logger,
	}
}

// HealthCheck answers 503 when Postgres or Redis does not respond.
func (h *HealthChecker) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	healthy := true

	postgresStatus := "healthy"
	if err := h.postgresDB.Ping(ctx); err != nil {
		postgresStatus = "unhealthy"
		healthy = false
		h.logger.Error("PostgreSQL health check failed", zap.Error(err))
	}
	pg := h.postgresDB.GetStats()

	redisStatus := "healthy"
	if err := h.redisDB.Ping(ctx); err != nil {
		redisStatus = "unhealthy"
		healthy = false
		h.logger.Error("Redis health check failed", zap.Error(err))
	}
	redisStats, err := h.redisDB.GetStats(ctx)
	if err != nil {
		redisStats = "unavailable"
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"version":   h.version,
		"timestamp": time.Now().Format(time.RFC3339),
		"services": gin.H{
			"postgresql": gin.H{
				"status": postgresStatus,
				"stats": gin.H{
					"max_open_connections": pg.MaxOpenConnections,
					"open_connections":     pg.OpenConnections,
					"in_use":               pg.InUse,
					"idle":                 pg.Idle,
				},
			},
			"redis": gin.H{
				"status": redisStatus,
				"stats":  redisStats,
			},
		},
	})
}
