package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"blameja-pos/internal/models"
)

// FinanceRepository reads the sales aggregates. Dates are calendar days in
// the shop's time zone, inclusive on both ends.
type FinanceRepository interface {
	DailySales(ctx context.Context, from, to time.Time) ([]models.DailySales, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]models.TopProduct, error)
}

type financeRepository struct {
	db    *sql.DB
	stmts map[string]*sql.Stmt
}

func NewFinanceRepository(db *sql.DB) (FinanceRepository, error) {
	repo := &financeRepository{
		db:    db,
		stmts: make(map[string]*sql.Stmt),
	}

	if err := repo.prepareStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return repo, nil
}

func (r *financeRepository) prepareStatements() error {
	statements := map[string]string{
		"daily_sales": `
			SELECT to_char(day, 'YYYY-MM-DD'), receipts_count, total
			FROM finance_daily_sales($1, $2)
		`,
		"top_products": `
			SELECT product_id, plu, name, qty, revenue
			FROM finance_top_products($1, $2, $3)
		`,
	}

	for name, query := range statements {
		stmt, err := r.db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare %s: %w", name, err)
		}
		r.stmts[name] = stmt
	}

	return nil
}

func isoDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

func (r *financeRepository) DailySales(ctx context.Context, from, to time.Time) ([]models.DailySales, error) {
	rows, err := r.stmts["daily_sales"].QueryContext(ctx, isoDate(from), isoDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to get daily sales: %w", err)
	}
	defer rows.Close()

	out := []models.DailySales{}
	for rows.Next() {
		var (
			d     models.DailySales
			count sql.NullInt64
			total sql.NullFloat64
		)
		if err := rows.Scan(&d.Day, &count, &total); err != nil {
			return nil, fmt.Errorf("failed to scan daily sales: %w", err)
		}
		d.ReceiptsCount = int(count.Int64)
		d.Total = number(total)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *financeRepository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]models.TopProduct, error) {
	rows, err := r.stmts["top_products"].QueryContext(ctx, isoDate(from), isoDate(to), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top products: %w", err)
	}
	defer rows.Close()

	out := []models.TopProduct{}
	for rows.Next() {
		var (
			p            models.TopProduct
			plu, name    sql.NullString
			qty, revenue sql.NullFloat64
		)
		if err := rows.Scan(&p.ProductID, &plu, &name, &qty, &revenue); err != nil {
			return nil, fmt.Errorf("failed to scan top product: %w", err)
		}
		p.PLU = nullableText(plu)
		p.Name = strings.TrimSpace(name.String)
		p.Qty = number(qty)
		p.Revenue = number(revenue)
		out = append(out, p)
	}
	return out, rows.Err()
}
