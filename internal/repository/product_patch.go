package repository

import (
	"fmt"
	"strings"
)

var patchableProductColumns = map[string]bool{
	"plu":           true,
	"barcode":       true,
	"name":          true,
	"description":   true,
	"unit":          true,
	"selling_price": true,
	"tax_group":     true,
	"category_id":   true,
	"store_no":      true,
	"is_active":     true,
}

// ProductPatch is an ordered set of column assignments for a partial update.
// Columns never set keep their stored value.
type ProductPatch struct {
	cols []string
	args []any
}

func NewProductPatch() *ProductPatch {
	return &ProductPatch{}
}

// Set assigns a column. A nil value writes NULL. Setting a column twice keeps
// the last value.
func (p *ProductPatch) Set(col string, value any) *ProductPatch {
	if !patchableProductColumns[col] {
		panic(fmt.Sprintf("repository: column %q is not patchable", col))
	}
	for i, c := range p.cols {
		if c == col {
			p.args[i] = value
			return p
		}
	}
	p.cols = append(p.cols, col)
	p.args = append(p.args, value)
	return p
}

func (p *ProductPatch) Empty() bool {
	return len(p.cols) == 0
}

func (p *ProductPatch) Columns() []string {
	return append([]string(nil), p.cols...)
}

// Value returns the assigned value and whether the column is set.
func (p *ProductPatch) Value(col string) (any, bool) {
	for i, c := range p.cols {
		if c == col {
			return p.args[i], true
		}
	}
	return nil, false
}

func (p *ProductPatch) build(id string) (string, []any) {
	sets := make([]string, 0, len(p.cols)+1)
	for i, c := range p.cols {
		sets = append(sets, fmt.Sprintf("%s = $%d", c, i+1))
	}
	sets = append(sets, "updated_at = NOW()")

	args := append(append([]any(nil), p.args...), id)
	query := fmt.Sprintf("UPDATE products SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	return query, args
}
