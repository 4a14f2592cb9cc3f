package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"blameja-pos/internal/config"
	"blameja-pos/internal/metrics"
	"blameja-pos/internal/models"
)

var ErrCacheMiss = errors.New("product not cached")

const keyPrefix = "product:"

type Stats struct {
	Hits          int64
	Misses        int64
	TotalRequests int64
	TotalKeys     int
}

func (s Stats) HitRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.TotalRequests)
}

type entry struct {
	product models.ProductStock
	expires time.Time
}

// ProductCache is a two-level cache of product_stock rows keyed by scanned
// code (PLU or barcode): an in-process L1 map in front of Redis.
type ProductCache struct {
	l1      map[string]entry
	l1Mutex sync.RWMutex

	redisClient *redis.Client

	maxL1Size int
	l1TTL     time.Duration
	l2TTL     time.Duration

	logger  *zap.Logger
	metrics *metrics.Metrics

	hits   atomic.Int64
	misses atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
}

// NewProductCache starts the L1 cleanup loop; call Stop to end it. A nil
// redis client disables L2.
func NewProductCache(redisClient *redis.Client, cfg config.CacheConfig, m *metrics.Metrics, logger *zap.Logger) *ProductCache {
	pc := &ProductCache{
		l1:          make(map[string]entry),
		redisClient: redisClient,
		maxL1Size:   max(cfg.L1MaxEntries, 1),
		l1TTL:       cfg.L1TTL,
		l2TTL:       cfg.L2TTL,
		logger:      logger,
		metrics:     m,
		stop:        make(chan struct{}),
	}

	period := cfg.CleanupPeriod
	if period <= 0 {
		period = time.Minute
	}
	go pc.cleanupL1(period)

	return pc
}

func normalizeCode(code string) string {
	return strings.TrimSpace(code)
}

func (pc *ProductCache) Stats() Stats {
	pc.l1Mutex.RLock()
	totalKeys := len(pc.l1)
	pc.l1Mutex.RUnlock()

	hits, misses := pc.hits.Load(), pc.misses.Load()
	return Stats{
		Hits:          hits,
		Misses:        misses,
		TotalRequests: hits + misses,
		TotalKeys:     totalKeys,
	}
}

// Get returns ErrCacheMiss when neither level holds the code.
func (pc *ProductCache) Get(ctx context.Context, code string) (*models.ProductStock, error) {
	code = normalizeCode(code)
	start := time.Now()

	if p := pc.getFromL1(code); p != nil {
		pc.hits.Add(1)
		pc.metrics.CacheLookup("l1", "hit")
		pc.logger.Debug("L1 cache hit", zap.String("code", code), zap.Duration("latency", time.Since(start)))
		return p, nil
	}

	if p, err := pc.getFromL2(ctx, code); err == nil && p != nil {
		pc.setToL1(code, *p)
		pc.hits.Add(1)
		pc.metrics.CacheLookup("l2", "hit")
		pc.logger.Debug("L2 cache hit", zap.String("code", code), zap.Duration("latency", time.Since(start)))
		return p, nil
	} else if err != nil && !errors.Is(err, redis.Nil) {
		pc.logger.Warn("L2 cache read failed", zap.String("code", code), zap.Error(err))
	}

	pc.misses.Add(1)
	pc.metrics.CacheLookup("all", "miss")
	return nil, ErrCacheMiss
}

// Set stores the row under code and under its own PLU and barcode.
func (pc *ProductCache) Set(ctx context.Context, code string, p models.ProductStock) error {
	keys := codesOf(p)
	if c := normalizeCode(code); c != "" {
		keys = appendUnique(keys, c)
	}

	var err error
	for _, k := range keys {
		pc.setToL1(k, p)
		err = multierr.Append(err, pc.setToL2(ctx, k, p))
	}
	return err
}

// Invalidate drops the given codes from both levels.
func (pc *ProductCache) Invalidate(ctx context.Context, codes ...string) error {
	keys := make([]string, 0, len(codes))
	pc.l1Mutex.Lock()
	for _, c := range codes {
		c = normalizeCode(c)
		if c == "" {
			continue
		}
		delete(pc.l1, c)
		keys = append(keys, keyPrefix+c)
	}
	pc.l1Mutex.Unlock()

	if pc.redisClient == nil || len(keys) == 0 {
		return nil
	}
	if err := pc.redisClient.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate %d cached products: %w", len(keys), err)
	}
	return nil
}

// Preload stores rows under their own codes, used by the warm-up job.
func (pc *ProductCache) Preload(ctx context.Context, rows []models.ProductStock) error {
	var err error
	for _, p := range rows {
		err = multierr.Append(err, pc.Set(ctx, "", p))
	}
	return err
}

func (pc *ProductCache) Stop() {
	pc.stopOnce.Do(func() { close(pc.stop) })
}

func codesOf(p models.ProductStock) []string {
	var out []string
	if p.PLU != nil {
		out = appendUnique(out, normalizeCode(*p.PLU))
	}
	if p.Barcode != nil {
		out = appendUnique(out, normalizeCode(*p.Barcode))
	}
	return out
}

func appendUnique(list []string, s string) []string {
	if s == "" {
		return list
	}
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func (pc *ProductCache) getFromL1(code string) *models.ProductStock {
	pc.l1Mutex.RLock()
	e, ok := pc.l1[code]
	pc.l1Mutex.RUnlock()
	if !ok || time.Now().After(e.expires) {
		return nil
	}
	p := e.product
	return &p
}

func (pc *ProductCache) setToL1(code string, p models.ProductStock) {
	pc.l1Mutex.Lock()
	defer pc.l1Mutex.Unlock()

	if _, exists := pc.l1[code]; !exists && len(pc.l1) >= pc.maxL1Size {
		pc.evictOldest()
	}
	pc.l1[code] = entry{product: p, expires: time.Now().Add(pc.l1TTL)}
}

// evictOldest drops the entry closest to expiry. Caller holds l1Mutex.
func (pc *ProductCache) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
	)
	for k, e := range pc.l1 {
		if oldestKey == "" || e.expires.Before(oldest) {
			oldestKey, oldest = k, e.expires
		}
	}
	delete(pc.l1, oldestKey)
}

func (pc *ProductCache) getFromL2(ctx context.Context, code string) (*models.ProductStock, error) {
	if pc.redisClient == nil {
		return nil, redis.Nil
	}
	data, err := pc.redisClient.Get(ctx, keyPrefix+code).Bytes()
	if err != nil {
		return nil, err
	}

	var p models.ProductStock
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode cached product %s: %w", code, err)
	}
	return &p, nil
}

func (pc *ProductCache) setToL2(ctx context.Context, code string, p models.ProductStock) error {
	if pc.redisClient == nil {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode product %s: %w", code, err)
	}
	if err := pc.redisClient.Set(ctx, keyPrefix+code, data, pc.l2TTL).Err(); err != nil {
		return fmt.Errorf("failed to cache product %s: %w", code, err)
	}
	return nil
}

func (pc *ProductCache) cleanupL1(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-pc.stop:
			return
		case now := <-ticker.C:
			pc.l1Mutex.Lock()
			removed := 0
			for k, e := range pc.l1 {
				if now.After(e.expires) {
					delete(pc.l1, k)
					removed++
				}
			}
			remaining := len(pc.l1)
			pc.l1Mutex.Unlock()
			pc.logger.Debug("L1 cache cleanup", zap.Int("removed", removed), zap.Int("items", remaining))
		}
	}
}
