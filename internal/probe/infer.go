// Package probe classifies raw cell text into typed values and derives
// per-column descriptors (type, samples, cardinality, numeric range) from a
// parsed dataset.
package probe

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tiai1/tiai-solutions/internal/dataset"
)

// Infer converts one cell into a typed value. The order is fixed: number,
// boolean, date, text. "2024" is therefore a number, never a year.
func Infer(s string) dataset.Value {
	st := strings.TrimSpace(s)
	if f, ok := parseNumber(st); ok {
		return dataset.Number(f)
	}
	if b, ok := parseBool(st); ok {
		return dataset.Bool(b)
	}
	if t, ok := parseDate(st); ok {
		return dataset.Date(t)
	}
	return dataset.Text(st)
}

// parseNumber accepts finite decimal and exponent forms plus 0x/0o/0b integer
// literals. NaN and Inf spellings are text.
func parseNumber(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	if isPrefixedInt(s) {
		if i, err := strconv.ParseInt(s, 0, 64); err == nil {
			return float64(i), true
		}
	}
	return 0, false
}

func isPrefixedInt(s string) bool {
	s = strings.TrimLeft(s, "+-")
	if len(s) < 3 || s[0] != '0' {
		return false
	}
	switch s[1] {
	case 'x', 'X', 'o', 'O', 'b', 'B':
		return true
	}
	return false
}

func parseBool(s string) (bool, bool) {
	switch {
	case strings.EqualFold(s, "true"):
		return true, true
	case strings.EqualFold(s, "false"):
		return false, true
	}
	return false, false
}

// dateLayouts are tried in order; the first match wins. Month-first slash
// forms precede day-first dot forms.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"02.01.2006",
	"2.1.2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"02-Jan-2006",
	"2006-01",
	time.RFC1123,
	time.RFC1123Z,
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
