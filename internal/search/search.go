// Package search implements the suggestion policy shared by the product,
// buyer and supplier autocompletes: exact hits before substring hits,
// first-seen de-duplication, optional stock ranking and a result cap.
package search

import (
	"sort"
	"strings"

	"blameja-pos/internal/models"
	"blameja-pos/internal/pricing"
)

const (
	DefaultProductLimit  = 8
	DefaultSupplierLimit = 12
	DefaultChoiceLimit   = 10
	MaxLimit             = 50
)

// Term trims the raw input. ok is false when nothing is left to search for.
func Term(raw string) (term string, ok bool) {
	t := strings.TrimSpace(raw)
	return t, len(t) >= 1
}

// ExactCode returns the term when it can be an exact PLU (digits only).
func ExactCode(term string) (string, bool) {
	plu := pricing.ParseDigits(term)
	return plu, plu != ""
}

// ClampLimit keeps a caller supplied limit within 1..MaxLimit.
func ClampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, MaxLimit)
}

// EscapeLike escapes the ILIKE metacharacters so user input matches literally.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Merge concatenates groups and drops every item whose key was already seen.
// Earlier groups win ties.
func Merge[T any](key func(T) string, groups ...[]T) []T {
	seen := make(map[string]struct{})
	var out []T
	for _, g := range groups {
		for _, item := range g {
			k := key(item)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// RankByStock merges exact PLU hits with substring hits. Exact hits stay at
// the head; everything after them is ordered by on-hand quantity, highest first.
func RankByStock(exact, substring []models.ProductStock, limit int) []models.ProductStock {
	merged := Merge(func(p models.ProductStock) string { return p.ProductID }, exact, substring)

	head := len(Merge(func(p models.ProductStock) string { return p.ProductID }, exact))
	rest := merged[head:]
	sort.SliceStable(rest, func(i, j int) bool {
		return rest[i].QtyOnHand > rest[j].QtyOnHand
	})
	return truncate(merged, limit)
}

// ExactFirst merges without re-ranking.
func ExactFirst[T any](key func(T) string, exact, substring []T, limit int) []T {
	return truncate(Merge(key, exact, substring), limit)
}

// FilterBuyers matches buyers by case-insensitive substring on name and address.
func FilterBuyers(all []models.Buyer, raw string, limit int) []models.Buyer {
	term, ok := Term(raw)
	if !ok {
		return []models.Buyer{}
	}
	needle := strings.ToLower(term)

	out := make([]models.Buyer, 0, limit)
	for _, b := range all {
		addr := ""
		if b.Address != nil {
			addr = *b.Address
		}
		if strings.Contains(strings.ToLower(b.Name), needle) || strings.Contains(strings.ToLower(addr), needle) {
			out = append(out, b)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}
