package services

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"blameja-pos/internal/cache"
	"blameja-pos/internal/config"
	"blameja-pos/internal/models"
)

const (
	slowRequestThreshold = time.Second
	maxKeptRequests      = 100
	topEndpointsLimit    = 10
)

const (
	statusOnline  = "online"
	statusOffline = "offline"
)

// CacheStatter reports product cache counters.
type CacheStatter interface {
	Stats() cache.Stats
}

type MonitoringService interface {
	Snapshot(ctx context.Context) *models.MonitoringSnapshot
	RecordRequest(data models.RequestData)
	CacheStats() models.CacheMetrics
	DatabaseStats(ctx context.Context) models.DatabaseMetrics
	SystemStats() models.SystemMetrics
	RedisStats(ctx context.Context) models.RedisMetrics
}

type monitoringService struct {
	logger       *zap.Logger
	config       *config.Config
	redisClient  *redis.Client
	db           *sql.DB
	productCache CacheStatter

	mu            sync.RWMutex
	requests      map[string]*models.EndpointMetrics
	slowRequests  []models.SlowRequest
	errors        []models.RequestError
	totalRequests int64
	minMs         int64

	startTime time.Time
}

func NewMonitoringService(logger *zap.Logger, cfg *config.Config, redisClient *redis.Client, db *sql.DB,
	productCache CacheStatter) MonitoringService {
	return &monitoringService{
		logger:       logger,
		config:       cfg,
		redisClient:  redisClient,
		db:           db,
		productCache: productCache,
		requests:     make(map[string]*models.EndpointMetrics),
		minMs:        math.MaxInt64,
		startTime:    time.Now(),
	}
}

func (s *monitoringService) RecordRequest(data models.RequestData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := data.Method + " " + data.Endpoint
	m, ok := s.requests[key]
	if !ok {
		m = &models.EndpointMetrics{}
		s.requests[key] = m
	}

	ms := data.Duration.Milliseconds()
	m.Count++
	m.TotalMs += ms
	m.AvgTimeMs = float64(m.TotalMs) / float64(m.Count)
	if ms > m.MaxMs {
		m.MaxMs = ms
	}
	if ms < s.minMs {
		s.minMs = ms
	}
	s.totalRequests++

	if data.Duration > slowRequestThreshold {
		s.slowRequests = appendCapped(s.slowRequests, models.SlowRequest{
			Endpoint:   key,
			DurationMs: ms,
			Timestamp:  data.Timestamp,
		})
	}
	if data.StatusCode >= 400 {
		s.errors = appendCapped(s.errors, models.RequestError{
			Endpoint:   key,
			StatusCode: data.StatusCode,
			Timestamp:  data.Timestamp,
		})
	}
}

// appendCapped keeps the newest maxKeptRequests entries.
func appendCapped[T any](list []T, v T) []T {
	list = append(list, v)
	if len(list) > maxKeptRequests {
		list = list[len(list)-maxKeptRequests:]
	}
	return list
}

func (s *monitoringService) Snapshot(ctx context.Context) *models.MonitoringSnapshot {
	s.mu.RLock()
	requests := s.requestMetrics()
	performance := s.performanceMetrics()
	s.mu.RUnlock()

	return &models.MonitoringSnapshot{
		Requests:    requests,
		Performance: performance,
		Cache:       s.CacheStats(),
		Database:    s.DatabaseStats(ctx),
		System:      s.SystemStats(),
		Redis:       s.RedisStats(ctx),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Version:     s.config.Server.Version,
	}
}

func (s *monitoringService) requestMetrics() models.RequestMetrics {
	keys := make([]string, 0, len(s.requests))
	byEndpoint := make(map[string]models.EndpointMetrics, len(s.requests))
	for k, m := range s.requests {
		keys = append(keys, k)
		byEndpoint[k] = *m
	}
	sort.Slice(keys, func(i, j int) bool {
		ci, cj := s.requests[keys[i]].Count, s.requests[keys[j]].Count
		if ci != cj {
			return ci > cj
		}
		return keys[i] < keys[j]
	})

	top := make([]models.TopEndpoint, 0, topEndpointsLimit)
	for i, k := range keys {
		if i >= topEndpointsLimit {
			break
		}
		m := s.requests[k]
		top = append(top, models.TopEndpoint{
			Endpoint:  k,
			Count:     m.Count,
			AvgTimeMs: fmt.Sprintf("%.2fms", m.AvgTimeMs),
		})
	}

	return models.RequestMetrics{
		Endpoints:         len(s.requests),
		ByEndpoint:        byEndpoint,
		SlowRequests:      append([]models.SlowRequest{}, s.slowRequests...),
		Errors:            append([]models.RequestError{}, s.errors...),
		TotalRequests:     s.totalRequests,
		SlowRequestsCount: len(s.slowRequests),
		ErrorsCount:       len(s.errors),
		TopEndpoints:      top,
	}
}

func (s *monitoringService) performanceMetrics() models.PerformanceMetrics {
	var total, maxMs int64
	var count int
	for _, m := range s.requests {
		total += m.TotalMs
		count += m.Count
		if m.MaxMs > maxMs {
			maxMs = m.MaxMs
		}
	}
	out := models.PerformanceMetrics{MaxResponseMs: maxMs}
	if count > 0 {
		out.AvgResponseMs = float64(total) / float64(count)
		out.MinResponseMs = s.minMs
	}
	return out
}

func (s *monitoringService) CacheStats() models.CacheMetrics {
	if s.productCache == nil {
		return models.CacheMetrics{Status: statusOffline}
	}
	st := s.productCache.Stats()
	rate := st.HitRate()
	return models.CacheMetrics{
		TotalKeys:         st.TotalKeys,
		HitRate:           rate,
		HitRatePercentage: fmt.Sprintf("%.2f%%", rate*100),
		TotalHits:         st.Hits,
		TotalMisses:       st.Misses,
		TotalRequests:     st.TotalRequests,
		Status:            statusOnline,
	}
}

func (s *monitoringService) DatabaseStats(ctx context.Context) models.DatabaseMetrics {
	if s.db == nil {
		return models.DatabaseMetrics{Status: statusOffline}
	}
	status := statusOnline
	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn("database ping failed", zap.Error(err))
		status = statusOffline
	}
	st := s.db.Stats()
	return models.DatabaseMetrics{
		Status:             status,
		MaxOpenConnections: st.MaxOpenConnections,
		OpenConnections:    st.OpenConnections,
		InUse:              st.InUse,
		Idle:               st.Idle,
		WaitCount:          st.WaitCount,
	}
}

func (s *monitoringService) SystemStats() models.SystemMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(s.startTime).Seconds()
	environment := "production"
	if s.config.Server.GinMode == "debug" {
		environment = "development"
	}

	return models.SystemMetrics{
		HeapUsedMB:  megabytes(m.HeapAlloc),
		HeapTotalMB: megabytes(m.HeapSys),
		SysMB:       megabytes(m.Sys),
		Goroutines:  runtime.NumGoroutine(),
		Uptime:      uptime,
		UptimeHours: fmt.Sprintf("%.2fh", uptime/3600),
		GoVersion:   runtime.Version(),
		Platform:    runtime.GOOS,
		Environment: environment,
	}
}

func (s *monitoringService) RedisStats(ctx context.Context) models.RedisMetrics {
	if s.redisClient == nil {
		return models.RedisMetrics{Status: statusOffline}
	}
	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		s.logger.Warn("redis ping failed", zap.Error(err))
		return models.RedisMetrics{Status: statusOffline}
	}

	out := models.RedisMetrics{Connected: true, Status: statusOnline}
	if keys, err := s.redisClient.DBSize(ctx).Result(); err == nil {
		out.Keys = keys
	}
	if info, err := s.redisClient.Info(ctx, "memory").Result(); err == nil {
		out.Memory = usedMemory(info)
		if b, err := strconv.ParseUint(out.Memory, 10, 64); err == nil {
			out.MemoryMB = megabytes(b)
		}
	}
	return out
}

// usedMemory extracts used_memory from an INFO memory reply.
func usedMemory(info string) string {
	for _, line := range strings.Split(info, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), "used_memory:"); ok {
			return v
		}
	}
	return ""
}

func megabytes(b uint64) string {
	return fmt.Sprintf("%.2f MB", float64(b)/1024/1024)
}
