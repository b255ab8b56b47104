// Package charts holds the Live Dashboard chart model: configurations, the
// template catalog and column binding, the working set a user edits, and the
// evaluation engine that turns a configuration plus a dataset into
// render-ready series.
package charts

import (
	"fmt"
	"slices"
)

// Kind is the visual form of a chart.
type Kind string

const (
	KindLine       Kind = "line"
	KindBar        Kind = "bar"
	KindStackedBar Kind = "stackedBar"
	KindArea       Kind = "area"
	KindPie        Kind = "pie"
	KindScatter    Kind = "scatter"
	KindTable      Kind = "table"
)

// Kinds lists every supported chart kind.
var Kinds = []Kind{KindLine, KindBar, KindStackedBar, KindArea, KindPie, KindScatter, KindTable}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool { return slices.Contains(Kinds, k) }

// Aggregation reduces the metric values of one category to a number.
type Aggregation string

const (
	AggSum     Aggregation = "sum"
	AggAverage Aggregation = "average"
	AggCount   Aggregation = "count"
	AggMin     Aggregation = "min"
	AggMax     Aggregation = "max"
)

// Aggregations lists every supported aggregation.
var Aggregations = []Aggregation{AggSum, AggAverage, AggCount, AggMin, AggMax}

// Valid reports whether a is one of Aggregations.
func (a Aggregation) Valid() bool { return slices.Contains(Aggregations, a) }

// Operator is a filter comparison.
type Operator string

const (
	OpEquals   Operator = "equals"
	OpContains Operator = "contains"
	OpGT       Operator = "gt"
	OpLT       Operator = "lt"
	OpBetween  Operator = "between"
)

// Operators lists every supported filter operator.
var Operators = []Operator{OpEquals, OpContains, OpGT, OpLT, OpBetween}

// Valid reports whether o is one of Operators.
func (o Operator) Valid() bool { return slices.Contains(Operators, o) }

// Filter is a single row predicate. To is the inclusive upper bound for
// between; Value is the lower bound.
type Filter struct {
	Column   string   `json:"column"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
	To       string   `json:"to,omitempty"`
}

// Configuration is one user-editable chart.
type Configuration struct {
	ID          string      `json:"id"`
	Kind        Kind        `json:"type"`
	Title       string      `json:"title"`
	XAxis       string      `json:"xAxis,omitempty"`
	YMetrics    []string    `json:"yAxis"`
	GroupBy     string      `json:"groupBy,omitempty"`
	Aggregation Aggregation `json:"aggregation"`
	Filters     []Filter    `json:"filters"`
}

// Clone returns a deep copy; the copy shares no slices with c.
func (c Configuration) Clone() Configuration {
	out := c
	out.YMetrics = slices.Clone(c.YMetrics)
	out.Filters = slices.Clone(c.Filters)
	return out
}

// Columns returns every column name the configuration references.
func (c Configuration) Columns() []string {
	var out []string
	if c.XAxis != "" {
		out = append(out, c.XAxis)
	}
	out = append(out, c.YMetrics...)
	if c.GroupBy != "" {
		out = append(out, c.GroupBy)
	}
	for _, f := range c.Filters {
		out = append(out, f.Column)
	}
	return out
}

// Issue is an advisory problem found by Validate.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string { return i.Path + ": " + i.Message }

// Validate reports problems against the given column names. Evaluation never
// depends on it; a configuration with issues still evaluates to an empty
// chart.
func (c Configuration) Validate(columns []string) []Issue {
	var issues []Issue
	add := func(path, format string, args ...any) {
		issues = append(issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
	}
	if !c.Kind.Valid() {
		add("type", "unknown chart type %q", c.Kind)
	}
	if c.Aggregation != "" && !c.Aggregation.Valid() {
		add("aggregation", "unknown aggregation %q", c.Aggregation)
	}
	if len(c.YMetrics) == 0 {
		add("yAxis", "at least one metric column is required")
	}
	has := func(name string) bool { return slices.Contains(columns, name) }
	if c.XAxis != "" && !has(c.XAxis) {
		add("xAxis", "column %q not in dataset", c.XAxis)
	}
	for i, m := range c.YMetrics {
		if !has(m) {
			add(fmt.Sprintf("yAxis[%d]", i), "column %q not in dataset", m)
		}
	}
	if c.GroupBy != "" && !has(c.GroupBy) {
		add("groupBy", "column %q not in dataset", c.GroupBy)
	}
	for i, f := range c.Filters {
		p := fmt.Sprintf("filters[%d]", i)
		if !has(f.Column) {
			add(p+".column", "column %q not in dataset", f.Column)
		}
		if !f.Operator.Valid() {
			add(p+".operator", "unknown operator %q", f.Operator)
		}
		if f.Operator == OpBetween && f.To == "" {
			add(p+".to", "between requires an upper bound")
		}
	}
	return issues
}
