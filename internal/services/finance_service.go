package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"blameja-pos/internal/models"
	"blameja-pos/internal/pricing"
	"blameja-pos/internal/repository"
)

const (
	DefaultFinanceDays = 14
	DefaultTopProducts = 8

	sheetDaily = "Daily sales"
	sheetTop   = "Top products"
)

// FinanceDays are the selectable dashboard windows.
var FinanceDays = []int{7, 14, 30}

// Period is a window of calendar days ending today, both ends inclusive.
type Period struct {
	From time.Time
	To   time.Time
	Days int
}

// NewPeriod ends at the calendar day of now. Unknown window sizes fall back
// to the default.
func NewPeriod(now time.Time, days int) Period {
	valid := false
	for _, d := range FinanceDays {
		if d == days {
			valid = true
			break
		}
	}
	if !valid {
		days = DefaultFinanceDays
	}
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return Period{From: to.AddDate(0, 0, -(days - 1)), To: to, Days: days}
}

// Previous is the window of the same length right before p.
func (p Period) Previous() Period {
	to := p.From.AddDate(0, 0, -1)
	return Period{From: to.AddDate(0, 0, -(p.Days - 1)), To: to, Days: p.Days}
}

type FinanceOverview struct {
	From          string              `json:"from"`
	To            string              `json:"to"`
	Days          int                 `json:"days"`
	Daily         []models.DailySales `json:"daily"`
	Top           []models.TopProduct `json:"top"`
	Total         float64             `json:"total"`
	Average       float64             `json:"average"`
	BestDay       *models.DailySales  `json:"best_day"`
	WorstDay      *models.DailySales  `json:"worst_day"`
	TopProduct    *models.TopProduct  `json:"top_product"`
	PreviousTotal float64             `json:"previous_total"`
	// Growth is the change against the previous window in percent; nil when
	// the previous window had no sales.
	Growth *float64 `json:"growth"`
}

type FinanceService interface {
	DailySales(ctx context.Context, from, to time.Time) ([]models.DailySales, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]models.TopProduct, error)
	Overview(ctx context.Context, days int) (*FinanceOverview, error)
	// Export writes the overview window as an XLSX workbook.
	Export(ctx context.Context, days int) ([]byte, string, error)
}

type financeService struct {
	finance repository.FinanceRepository
	logger  *zap.Logger
	now     func() time.Time
}

func NewFinanceService(finance repository.FinanceRepository, logger *zap.Logger) FinanceService {
	return &financeService{finance: finance, logger: logger, now: time.Now}
}

func (s *financeService) DailySales(ctx context.Context, from, to time.Time) ([]models.DailySales, error) {
	if to.Before(from) {
		return nil, invalid("to", "end date is before start date")
	}
	return s.finance.DailySales(ctx, from, to)
}

func (s *financeService) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]models.TopProduct, error) {
	if to.Before(from) {
		return nil, invalid("to", "end date is before start date")
	}
	if limit <= 0 {
		limit = DefaultTopProducts
	}
	return s.finance.TopProducts(ctx, from, to, limit)
}

func (s *financeService) Overview(ctx context.Context, days int) (*FinanceOverview, error) {
	period := NewPeriod(s.now(), days)
	prev := period.Previous()

	var (
		daily, prevDaily []models.DailySales
		top              []models.TopProduct
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.finance.DailySales(gctx, period.From, period.To)
		daily = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.finance.DailySales(gctx, prev.From, prev.To)
		prevDaily = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.finance.TopProducts(gctx, period.From, period.To, DefaultTopProducts)
		top = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load finance overview: %w", err)
	}

	out := summarize(daily, prevDaily, top)
	out.From = period.From.Format(time.DateOnly)
	out.To = period.To.Format(time.DateOnly)
	out.Days = period.Days
	return out, nil
}

func summarize(daily, prevDaily []models.DailySales, top []models.TopProduct) *FinanceOverview {
	if daily == nil {
		daily = []models.DailySales{}
	}
	if top == nil {
		top = []models.TopProduct{}
	}
	out := &FinanceOverview{Daily: daily, Top: top}

	totals := make([]float64, 0, len(daily))
	for i := range daily {
		totals = append(totals, daily[i].Total)
		if out.BestDay == nil || daily[i].Total > out.BestDay.Total {
			out.BestDay = &daily[i]
		}
		if out.WorstDay == nil || daily[i].Total < out.WorstDay.Total {
			out.WorstDay = &daily[i]
		}
	}
	out.Total = pricing.Sum(totals...)
	if len(daily) > 0 {
		out.Average = pricing.Round2(out.Total / float64(len(daily)))
	}
	if len(top) > 0 {
		out.TopProduct = &top[0]
	}

	prevTotals := make([]float64, 0, len(prevDaily))
	for _, d := range prevDaily {
		prevTotals = append(prevTotals, d.Total)
	}
	out.PreviousTotal = pricing.Sum(prevTotals...)
	if out.PreviousTotal != 0 {
		g := pricing.Round2((out.Total - out.PreviousTotal) / out.PreviousTotal * 100)
		out.Growth = &g
	}
	return out
}

func (s *financeService) Export(ctx context.Context, days int) ([]byte, string, error) {
	overview, err := s.Overview(ctx, days)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("failed to close workbook", zap.Error(err))
		}
	}()

	f.SetSheetName("Sheet1", sheetDaily)
	if err := f.SetSheetRow(sheetDaily, "A1", &[]any{"Day", "Receipts", "Total"}); err != nil {
		return nil, "", fmt.Errorf("failed to write header: %w", err)
	}
	for i, d := range overview.Daily {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetDaily, cell, &[]any{d.Day, d.ReceiptsCount, d.Total}); err != nil {
			return nil, "", fmt.Errorf("failed to write day %s: %w", d.Day, err)
		}
	}
	totalCell, _ := excelize.CoordinatesToCellName(1, len(overview.Daily)+2)
	if err := f.SetSheetRow(sheetDaily, totalCell, &[]any{"Total", "", overview.Total}); err != nil {
		return nil, "", fmt.Errorf("failed to write total: %w", err)
	}

	if _, err := f.NewSheet(sheetTop); err != nil {
		return nil, "", fmt.Errorf("failed to add sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetTop, "A1", &[]any{"PLU", "Product", "Qty", "Revenue"}); err != nil {
		return nil, "", fmt.Errorf("failed to write header: %w", err)
	}
	for i, p := range overview.Top {
		plu := ""
		if p.PLU != nil {
			plu = *p.PLU
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetTop, cell, &[]any{plu, p.Name, p.Qty, p.Revenue}); err != nil {
			return nil, "", fmt.Errorf("failed to write product %s: %w", p.ProductID, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}
	name := fmt.Sprintf("sales-%s-%s.xlsx", overview.From, overview.To)
	return buf.Bytes(), name, nil
}
