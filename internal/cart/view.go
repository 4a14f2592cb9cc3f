package cart

import "blameja-pos/internal/pricing"

// LineView is a line with its derived prices, as shown to the operator.
type LineView struct {
	Line
	Final           float64 `json:"final"`
	DiscountPerUnit float64 `json:"discount_per_unit"`
	DiscountPercent float64 `json:"discount_percent"`
	LineTotal       float64 `json:"line_total"`
}

type Summary struct {
	ID       string         `json:"id"`
	Lines    []LineView     `json:"lines"`
	Note     string         `json:"note,omitempty"`
	Totals   pricing.Totals `json:"totals"`
	Warnings []StockWarning `json:"warnings,omitempty"`
}

func (d *Draft) Summary() Summary {
	lines := make([]LineView, 0, len(d.Lines))
	for _, l := range d.Lines {
		final := l.Final()
		lines = append(lines, LineView{
			Line:            l,
			Final:           final,
			DiscountPerUnit: pricing.DiscountPerUnit(l.Product.BasePrice, final),
			DiscountPercent: pricing.Round2(pricing.DiscountPercent(l.Product.BasePrice, final)),
			LineTotal:       pricing.LineTotal(l.Qty, final),
		})
	}
	return Summary{ID: d.ID, Lines: lines, Note: d.Note, Totals: d.Totals()}
}
