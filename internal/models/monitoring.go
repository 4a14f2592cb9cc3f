package models

import "time"

// MonitoringSnapshot is the full monitoring payload served over HTTP and the
// live WebSocket stream.
type MonitoringSnapshot struct {
	Requests    RequestMetrics     `json:"requests"`
	Performance PerformanceMetrics `json:"performance"`
	Cache       CacheMetrics       `json:"cache"`
	Database    DatabaseMetrics    `json:"database"`
	System      SystemMetrics      `json:"system"`
	Redis       RedisMetrics       `json:"redis"`
	Timestamp   string             `json:"timestamp"`
	Version     string             `json:"version"`
}

type RequestMetrics struct {
	Endpoints         int                        `json:"endpoints"`
	ByEndpoint        map[string]EndpointMetrics `json:"by_endpoint"`
	SlowRequests      []SlowRequest              `json:"slow_requests"`
	Errors            []RequestError             `json:"errors"`
	TotalRequests     int64                      `json:"total_requests"`
	SlowRequestsCount int                        `json:"slow_requests_count"`
	ErrorsCount       int                        `json:"errors_count"`
	TopEndpoints      []TopEndpoint              `json:"top_endpoints"`
}

type EndpointMetrics struct {
	Count     int     `json:"count"`
	AvgTimeMs float64 `json:"avg_time_ms"`
	TotalMs   int64   `json:"total_ms"`
	MaxMs     int64   `json:"max_ms"`
}

type SlowRequest struct {
	Endpoint   string    `json:"endpoint"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

type RequestError struct {
	Endpoint   string    `json:"endpoint"`
	StatusCode int       `json:"status_code"`
	Timestamp  time.Time `json:"timestamp"`
}

type TopEndpoint struct {
	Endpoint  string `json:"endpoint"`
	Count     int    `json:"count"`
	AvgTimeMs string `json:"avg_time_ms"`
}

type PerformanceMetrics struct {
	AvgResponseMs float64 `json:"avg_response_ms"`
	MaxResponseMs int64   `json:"max_response_ms"`
	MinResponseMs int64   `json:"min_response_ms"`
}

type CacheMetrics struct {
	TotalKeys         int     `json:"total_keys"`
	HitRate           float64 `json:"hit_rate"`
	HitRatePercentage string  `json:"hit_rate_percentage"`
	TotalHits         int64   `json:"total_hits"`
	TotalMisses       int64   `json:"total_misses"`
	TotalRequests     int64   `json:"total_requests"`
	Status            string  `json:"status"`
}

type DatabaseMetrics struct {
	Status             string `json:"status"`
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
}

type SystemMetrics struct {
	HeapUsedMB  string  `json:"heap_used_mb"`
	HeapTotalMB string  `json:"heap_total_mb"`
	SysMB       string  `json:"sys_mb"`
	Goroutines  int     `json:"goroutines"`
	Uptime      float64 `json:"uptime_seconds"`
	UptimeHours string  `json:"uptime_hours"`
	GoVersion   string  `json:"go_version"`
	Platform    string  `json:"platform"`
	Environment string  `json:"environment"`
}

type RedisMetrics struct {
	Connected bool   `json:"connected"`
	Keys      int64  `json:"keys"`
	Memory    string `json:"memory"`
	MemoryMB  string `json:"memory_mb"`
	Status    string `json:"status"`
}

// RequestData is one finished HTTP request.
type RequestData struct {
	Endpoint   string
	Method     string
	Duration   time.Duration
	StatusCode int
	Timestamp  time.Time
}
