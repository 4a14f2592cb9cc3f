package pricing

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyNumber   = errors.New("empty number")
	ErrInvalidNumber = errors.New("invalid number")
)

// SanitizePriceInput turns the first comma into a dot, drops every character
// that is not a digit or a dot and keeps only the first dot.
func SanitizePriceInput(raw string) string {
	v := strings.Replace(raw, ",", ".", 1)

	var b strings.Builder
	b.Grow(len(v))
	seenDot := false
	for _, r := range v {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' && !seenDot:
			seenDot = true
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseAmount sanitizes and parses an operator-entered amount. The result is
// never negative because the sanitizer strips the sign.
func ParseAmount(raw string) (float64, error) {
	s := SanitizePriceInput(strings.TrimSpace(raw))
	if s == "" || s == "." {
		return 0, ErrEmptyNumber
	}
	return parseFinite(s)
}

// PriceOrZero is the display variant of ParseAmount.
func PriceOrZero(raw string) float64 {
	v, err := ParseAmount(raw)
	if err != nil {
		return 0
	}
	return v
}

// ParseNumber parses a typed quantity or price without stripping characters:
// "" is ErrEmptyNumber, anything unparseable is ErrInvalidNumber.
func ParseNumber(raw string) (float64, error) {
	s := strings.Replace(strings.TrimSpace(raw), ",", ".", 1)
	if s == "" {
		return 0, ErrEmptyNumber
	}
	return parseFinite(s)
}

// ParseDigits returns the trimmed input when it is a non-empty run of digits.
func ParseDigits(raw string) string {
	t := strings.TrimSpace(raw)
	if !IsDigits(t) {
		return ""
	}
	return t
}

func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ClampPercent normalizes a typed percentage to an integer string in 0..100.
// Empty input stays empty so the field can be cleared while typing.
func ClampPercent(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	n, err := strconv.Atoi(leadingInt(s))
	if err != nil {
		return ""
	}
	return strconv.Itoa(min(100, max(0, n)))
}

// PercentOrZero reads a percentage, clamped to 0..100.
func PercentOrZero(raw string) int {
	s := ClampPercent(raw)
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}

// FormatMoney renders en-US grouping with exactly two decimals.
func FormatMoney(v float64) string {
	s := dec(v).Round(2).StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

func parseFinite(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidNumber
	}
	v := d.InexactFloat64()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidNumber
	}
	return v, nil
}

// leadingInt mimics parseInt: an optional sign followed by the leading digits.
func leadingInt(s string) string {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return ""
	}
	return s[:end]
}
