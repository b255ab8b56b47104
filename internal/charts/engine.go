package charts

import (
	"math"
	"strconv"
	"strings"

	"github.com/tiai1/tiai-solutions/internal/dataset"
	"github.com/tiai1/tiai-solutions/internal/probe"
)

// Series is one metric's aggregated values, aligned with Categories.
type Series struct {
	Name string    `json:"name"`
	Type string    `json:"type"`
	Data []float64 `json:"data"`
}

// Specification is the evaluated, render-ready form of a configuration.
type Specification struct {
	ID         string   `json:"id,omitempty"`
	Title      string   `json:"title"`
	Kind       Kind     `json:"kind"`
	XAxis      string   `json:"xAxis,omitempty"`
	Categories []string `json:"categories"`
	Series     []Series `json:"series"`
}

// Empty reports whether there is nothing to draw.
func (s Specification) Empty() bool { return len(s.Categories) == 0 || len(s.Series) == 0 }

// SeriesType maps a chart kind to the renderer's series type.
func SeriesType(k Kind) string {
	switch k {
	case KindArea:
		return string(KindLine)
	case KindStackedBar:
		return string(KindBar)
	default:
		return string(k)
	}
}

// Evaluate filters, groups and aggregates ds according to cfg. It never
// fails: a configuration that references a column ds lacks yields an empty
// chart, and empty groups aggregate to 0. Non-numeric metric cells count as 0.
// The same inputs always produce the same output.
func Evaluate(cfg Configuration, ds dataset.Dataset) Specification {
	spec := Specification{
		ID:         cfg.ID,
		Title:      cfg.Title,
		Kind:       cfg.Kind,
		Categories: []string{},
		Series:     []Series{},
	}
	if len(ds.Columns) == 0 {
		return spec
	}
	for _, name := range cfg.Columns() {
		if !ds.HasColumn(name) {
			return spec
		}
	}

	xcol := cfg.XAxis
	if xcol == "" {
		xcol = ds.Columns[0]
	}
	spec.XAxis = xcol

	// Categories keep first-seen order.
	index := make(map[string]int)
	var groups [][]dataset.Row
	for _, r := range ds.Rows {
		if !matchAll(r, cfg.Filters) {
			continue
		}
		cat := r[xcol].String()
		i, ok := index[cat]
		if !ok {
			i = len(spec.Categories)
			index[cat] = i
			spec.Categories = append(spec.Categories, cat)
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], r)
	}

	typ := SeriesType(cfg.Kind)
	for _, metric := range cfg.YMetrics {
		s := Series{Name: metric, Type: typ, Data: make([]float64, len(groups))}
		for i, rows := range groups {
			vals := make([]float64, len(rows))
			for j, r := range rows {
				vals[j], _ = r[metric].Float()
			}
			s.Data[i] = Aggregate(cfg.Aggregation, vals)
		}
		spec.Series = append(spec.Series, s)
	}
	return spec
}

// EvaluateAll evaluates every configuration in order.
func EvaluateAll(cfgs []Configuration, ds dataset.Dataset) []Specification {
	out := make([]Specification, len(cfgs))
	for i, c := range cfgs {
		out[i] = Evaluate(c, ds)
	}
	return out
}

// Aggregate reduces vals. Average, min and max of an empty slice are 0.
// Unknown aggregations sum.
func Aggregate(agg Aggregation, vals []float64) float64 {
	switch agg {
	case AggCount:
		return float64(len(vals))
	case AggAverage:
		if len(vals) == 0 {
			return 0
		}
		return sum(vals) / float64(len(vals))
	case AggMin, AggMax:
		if len(vals) == 0 {
			return 0
		}
		out := vals[0]
		for _, v := range vals[1:] {
			if agg == AggMin {
				out = math.Min(out, v)
			} else {
				out = math.Max(out, v)
			}
		}
		return out
	default:
		return sum(vals)
	}
}

func sum(vals []float64) float64 {
	var t float64
	for _, v := range vals {
		t += v
	}
	return t
}

// ---- filters ----

func matchAll(r dataset.Row, filters []Filter) bool {
	for _, f := range filters {
		if !Match(r[f.Column], f) {
			return false
		}
	}
	return true
}

// Match applies one filter to a cell. Unknown operators match everything.
func Match(v dataset.Value, f Filter) bool {
	switch f.Operator {
	case OpEquals:
		if c, ok := compare(v, f.Value); ok {
			return c == 0
		}
		return v.String() == f.Value
	case OpContains:
		return strings.Contains(strings.ToLower(v.String()), strings.ToLower(f.Value))
	case OpGT:
		c, _ := compare(v, f.Value)
		return c > 0
	case OpLT:
		c, _ := compare(v, f.Value)
		return c < 0
	case OpBetween:
		lo, _ := compare(v, f.Value)
		hi, _ := compare(v, f.To)
		return lo >= 0 && hi <= 0
	default:
		return true
	}
}

// compare orders a cell against a literal. Numbers and dates compare by value
// when the literal parses as the same kind; everything else compares as
// text. ok reports a typed comparison.
func compare(v dataset.Value, lit string) (c int, ok bool) {
	lit = strings.TrimSpace(lit)
	switch v.Kind() {
	case dataset.KindNumber:
		f, _ := v.Float()
		if g, err := strconv.ParseFloat(lit, 64); err == nil {
			return cmpFloat(f, g), true
		}
	case dataset.KindDate:
		if o := probe.Infer(lit); o.Kind() == dataset.KindDate {
			return v.Time().Compare(o.Time()), true
		}
	case dataset.KindBool:
		if o := probe.Infer(lit); o.Kind() == dataset.KindBool {
			a, _ := v.BoolValue()
			b, _ := o.BoolValue()
			switch {
			case a == b:
				return 0, true
			case !a:
				return -1, true
			default:
				return 1, true
			}
		}
	}
	return strings.Compare(v.String(), lit), false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
