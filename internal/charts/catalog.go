package charts

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/tiai1/tiai-solutions/internal/dataset"
	"github.com/tiai1/tiai-solutions/internal/probe"
)

// Blueprint is one partial chart inside a template: no column bindings.
type Blueprint struct {
	Kind        Kind        `json:"type"`
	Title       string      `json:"title"`
	Aggregation Aggregation `json:"aggregation"`
}

// Template is a named, dataset-independent set of blueprints.
type Template struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Charts      []Blueprint `json:"charts"`
}

// Slug is the id prefix used for configurations built from t.
func (t Template) Slug() string { return Slugify(t.Name) }

var catalog = []Template{
	{
		Name:        "KPI Overview",
		Description: "Key metrics and performance indicators",
		Charts: []Blueprint{
			{Kind: KindBar, Title: "Performance by Category", Aggregation: AggSum},
			{Kind: KindLine, Title: "Trend Over Time", Aggregation: AggAverage},
			{Kind: KindPie, Title: "Distribution", Aggregation: AggCount},
		},
	},
	{
		Name:        "Category Breakdown",
		Description: "Detailed analysis by categories",
		Charts: []Blueprint{
			{Kind: KindStackedBar, Title: "Stacked Analysis", Aggregation: AggSum},
			{Kind: KindPie, Title: "Category Share", Aggregation: AggCount},
		},
	},
	{
		Name:        "Time Series Analysis",
		Description: "Time-based trends and patterns",
		Charts: []Blueprint{
			{Kind: KindLine, Title: "Time Trend", Aggregation: AggAverage},
			{Kind: KindArea, Title: "Cumulative View", Aggregation: AggSum},
		},
	},
}

// Templates returns a copy of the catalog in display order.
func Templates() []Template {
	out := make([]Template, len(catalog))
	for i, t := range catalog {
		out[i] = t
		out[i].Charts = append([]Blueprint(nil), t.Charts...)
	}
	return out
}

// LookupTemplate finds a template by display name (case-insensitive) or slug.
func LookupTemplate(nameOrSlug string) (Template, bool) {
	for _, t := range Templates() {
		if strings.EqualFold(t.Name, nameOrSlug) || t.Slug() == nameOrSlug {
			return t, true
		}
	}
	return Template{}, false
}

// lowCardinality is the exclusive upper bound on distinct values for a text
// column to be picked as groupBy.
const lowCardinality = 10

// BindTemplate instantiates every blueprint of t against the profiled
// columns. It is deterministic and reads nothing but its arguments:
//
//   - xAxis: first date column, else the first column
//   - yAxis: the first two numeric columns (fewer when unavailable)
//   - groupBy: first text column with fewer than 10 distinct values
func BindTemplate(t Template, cols []probe.Column) []Configuration {
	cs := probe.Columns(cols)

	var xAxis string
	if dates := cs.OfType(dataset.KindDate); len(dates) > 0 {
		xAxis = dates[0].Name
	} else if len(cs) > 0 {
		xAxis = cs[0].Name
	}

	metrics := cs.OfType(dataset.KindNumber).Names()
	if len(metrics) > 2 {
		metrics = metrics[:2]
	}

	var groupBy string
	for _, c := range cs.OfType(dataset.KindText) {
		if c.UniqueCount < lowCardinality {
			groupBy = c.Name
			break
		}
	}

	slug := t.Slug()
	out := make([]Configuration, 0, len(t.Charts))
	for i, bp := range t.Charts {
		out = append(out, Configuration{
			ID:          slug + "-" + strconv.Itoa(i),
			Kind:        bp.Kind,
			Title:       bp.Title,
			XAxis:       xAxis,
			YMetrics:    append([]string{}, metrics...),
			GroupBy:     groupBy,
			Aggregation: bp.Aggregation,
			Filters:     []Filter{},
		})
	}
	return out
}

// Slugify lower-cases s, folds accents, turns whitespace runs into '-' and
// drops everything that is not a letter, digit, '-' or '_'.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(folded)) {
		switch {
		case unicode.IsSpace(r):
			pendingDash = true
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		}
	}
	return b.String()
}
