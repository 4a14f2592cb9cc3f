package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"blameja-pos/internal/cart"
	"blameja-pos/internal/models"
	"blameja-pos/internal/repository"
)

// Invalidator drops cached product rows by code after stock changed.
type Invalidator interface {
	Invalidate(ctx context.Context, codes ...string) error
}

type stockLine struct {
	productID string
	name      string
	qty       float64
}

// checkStock reads on-hand quantities right before a submission. Shortfalls
// become warnings; the submission proceeds regardless.
func checkStock(ctx context.Context, products repository.ProductRepository, lines []stockLine) ([]cart.StockWarning, error) {
	rows, err := products.StockByIDs(ctx, stockIDs(lines))
	if err != nil {
		return nil, fmt.Errorf("failed to read on-hand stock: %w", err)
	}
	return stockWarnings(rows, lines), nil
}

func stockIDs(lines []stockLine) []string {
	seen := make(map[string]bool, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if !seen[l.productID] {
			seen[l.productID] = true
			ids = append(ids, l.productID)
		}
	}
	return ids
}

func stockWarnings(rows []models.ProductStock, lines []stockLine) []cart.StockWarning {
	wanted := make(map[string]float64, len(lines))
	names := make(map[string]string, len(lines))
	for _, l := range lines {
		if _, seen := wanted[l.productID]; !seen {
			names[l.productID] = l.name
		}
		wanted[l.productID] += l.qty
	}
	onHand := make(map[string]float64, len(rows))
	for _, r := range rows {
		onHand[r.ProductID] = r.QtyOnHand
	}

	var warnings []cart.StockWarning
	for _, id := range stockIDs(lines) {
		if available := onHand[id]; available < wanted[id] {
			warnings = append(warnings, cart.StockWarning{
				ProductID: id,
				Name:      names[id],
				Available: available,
				InCart:    wanted[id],
			})
		}
	}
	return warnings
}

func validQty(q float64) bool {
	return q > 0 && !math.IsNaN(q) && !math.IsInf(q, 0)
}

func codesOf(plu, barcode *string) []string {
	var out []string
	if plu != nil {
		out = append(out, *plu)
	}
	if barcode != nil {
		out = append(out, *barcode)
	}
	return out
}

func invalidate(ctx context.Context, inv Invalidator, logger *zap.Logger, codes []string) {
	if inv == nil {
		return
	}
	codes = nonBlank(codes)
	if len(codes) == 0 {
		return
	}
	if err := inv.Invalidate(ctx, codes...); err != nil {
		logger.Warn("failed to invalidate product cache", zap.Strings("codes", codes), zap.Error(err))
	}
}

func nonBlank(codes []string) []string {
	out := codes[:0:0]
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
