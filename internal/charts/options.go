package charts

// Options is the declarative payload an ECharts-compatible renderer consumes.
type Options struct {
	Title   TitleOption    `json:"title"`
	Tooltip TooltipOption  `json:"tooltip"`
	Legend  LegendOption   `json:"legend"`
	XAxis   *AxisOption    `json:"xAxis,omitempty"`
	YAxis   *AxisOption    `json:"yAxis,omitempty"`
	Series  []SeriesOption `json:"series"`
	Table   *TableOption   `json:"table,omitempty"`
}

// TitleOption is the chart heading.
type TitleOption struct {
	Text string `json:"text"`
	Left string `json:"left"`
}

type TooltipOption struct {
	Trigger string `json:"trigger"`
}

// LegendOption lists the series names shown under the chart.
type LegendOption struct {
	Data   []string `json:"data"`
	Bottom int      `json:"bottom"`
}

// AxisOption is a category or value axis. Data is set for category axes.
type AxisOption struct {
	Type string   `json:"type"`
	Data []string `json:"data,omitempty"`
}

// NamedValue is a pie slice.
type NamedValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// SeriesOption is one plotted series. Data is []NamedValue for pie and
// []float64 otherwise.
type SeriesOption struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Stack     string    `json:"stack,omitempty"`
	AreaStyle *struct{} `json:"areaStyle,omitempty"`
	Radius    string    `json:"radius,omitempty"`
}

// TableOption is the tabular fallback: one row per category.
type TableOption struct {
	Header []string `json:"header"`
	Rows   [][]any  `json:"rows"`
}

// BuildOptions synthesizes renderer options from an evaluated specification.
// Pie charts draw the first series as name/value slices; area becomes a line
// with a filled area; stacked bars share one stack.
func BuildOptions(spec Specification) Options {
	names := make([]string, len(spec.Series))
	for i, s := range spec.Series {
		names[i] = s.Name
	}
	o := Options{
		Title:   TitleOption{Text: spec.Title, Left: "center"},
		Tooltip: TooltipOption{Trigger: "axis"},
		Legend:  LegendOption{Data: names, Bottom: 0},
		Series:  []SeriesOption{},
	}

	switch spec.Kind {
	case KindPie:
		o.Tooltip.Trigger = "item"
		o.Legend.Data = append([]string{}, spec.Categories...)
		if len(spec.Series) > 0 {
			s := spec.Series[0]
			parts := make([]NamedValue, len(spec.Categories))
			for i, c := range spec.Categories {
				parts[i] = NamedValue{Name: c, Value: s.Data[i]}
			}
			o.Series = append(o.Series, SeriesOption{Name: s.Name, Type: "pie", Data: parts, Radius: "50%"})
		}
		return o
	case KindTable:
		header := append([]string{spec.XAxis}, names...)
		rows := make([][]any, len(spec.Categories))
		for i, c := range spec.Categories {
			row := []any{c}
			for _, s := range spec.Series {
				row = append(row, s.Data[i])
			}
			rows[i] = row
		}
		o.Table = &TableOption{Header: header, Rows: rows}
		return o
	}

	o.XAxis = &AxisOption{Type: "category", Data: append([]string{}, spec.Categories...)}
	o.YAxis = &AxisOption{Type: "value"}
	for _, s := range spec.Series {
		so := SeriesOption{Name: s.Name, Type: SeriesType(spec.Kind), Data: append([]float64{}, s.Data...)}
		switch spec.Kind {
		case KindArea:
			so.AreaStyle = &struct{}{}
		case KindStackedBar:
			so.Stack = "total"
		}
		o.Series = append(o.Series, so)
	}
	return o
}
