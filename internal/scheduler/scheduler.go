package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"blameja-pos/internal/config"
	"blameja-pos/internal/metrics"
	"blameja-pos/internal/models"
)

const (
	jobCacheWarmup  = "cache_warmup"
	jobDailySummary = "daily_summary"

	jobTimeout = 2 * time.Minute
)

type Warmer interface {
	Warm(ctx context.Context, limit int) (int, error)
}

type SalesReader interface {
	DailySales(ctx context.Context, from, to time.Time) ([]models.DailySales, error)
}

// Scheduler runs the periodic maintenance jobs: product cache warm-up and
// the end of day sales summary.
type Scheduler struct {
	cron    *cron.Cron
	cfg     config.SchedulerConfig
	warmer  Warmer
	sales   SalesReader
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewScheduler(cfg config.SchedulerConfig, warmer Warmer, sales SalesReader, m *metrics.Metrics, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:    cron.New(),
		cfg:     cfg,
		warmer:  warmer,
		sales:   sales,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Start registers the jobs and starts the cron loop. A bad spec is an error
// and nothing is started.
func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		s.logger.Info("scheduler disabled")
		return nil
	}

	jobs := []struct {
		name string
		spec string
		fn   func(context.Context) error
	}{
		{jobCacheWarmup, s.cfg.CacheWarmupSpec, s.warmCache},
		{jobDailySummary, s.cfg.DailySummarySpec, s.dailySummary},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(j.spec, s.wrap(j.name, j.fn)); err != nil {
			return fmt.Errorf("failed to schedule %s (%q): %w", j.name, j.spec, err)
		}
		s.logger.Info("job scheduled", zap.String("job", j.name), zap.String("spec", j.spec))
	}

	s.cron.Start()
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) wrap(name string, fn func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		err := fn(ctx)
		s.metrics.Job(name, time.Since(start), err)
		if err != nil {
			s.logger.Error("job failed", zap.String("job", name), zap.Error(err))
		}
	}
}

func (s *Scheduler) warmCache(ctx context.Context) error {
	_, err := s.warmer.Warm(ctx, 0)
	return err
}

func (s *Scheduler) dailySummary(ctx context.Context) error {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	rows, err := s.sales.DailySales(ctx, today, today)
	if err != nil {
		return fmt.Errorf("failed to load today's sales: %w", err)
	}

	var receipts int
	var total float64
	for _, r := range rows {
		receipts += r.ReceiptsCount
		total += r.Total
	}
	s.logger.Info("daily sales summary",
		zap.String("day", today.Format(time.DateOnly)),
		zap.Int("receipts", receipts),
		zap.Float64("total", total))
	return nil
}
