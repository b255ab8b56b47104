// Package render turns evaluated chart specifications into a standalone HTML
// page with go-echarts. Table specifications become plain HTML tables.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	dash "github.com/tiai1/tiai-solutions/internal/charts"
)

// DefaultTitle is the page title used when none is given.
const DefaultTitle = "Live Dashboard"

// Chart builds the go-echarts chart for spec. ok is false for tables, which
// go-echarts does not draw.
func Chart(spec dash.Specification) (c components.Charter, ok bool) {
	global := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{PageTitle: spec.Title, ChartID: chartID(spec)}),
		charts.WithTitleOpts(opts.Title{Title: spec.Title, Left: "center"}),
		charts.WithLegendOpts(opts.Legend{Bottom: "0"}),
	}

	switch spec.Kind {
	case dash.KindTable:
		return nil, false

	case dash.KindPie:
		pie := charts.NewPie()
		pie.SetGlobalOptions(append(global, charts.WithTooltipOpts(opts.Tooltip{Trigger: "item"}))...)
		if len(spec.Series) > 0 {
			s := spec.Series[0]
			items := make([]opts.PieData, len(spec.Categories))
			for i, cat := range spec.Categories {
				items[i] = opts.PieData{Name: cat, Value: s.Data[i]}
			}
			pie.AddSeries(s.Name, items, charts.WithPieChartOpts(opts.PieChart{Radius: "50%"}))
		}
		return pie, true

	case dash.KindLine, dash.KindArea:
		line := charts.NewLine()
		line.SetGlobalOptions(append(global, charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}))...)
		line.SetXAxis(spec.Categories)
		for _, s := range spec.Series {
			data := make([]opts.LineData, len(s.Data))
			for i, v := range s.Data {
				data[i] = opts.LineData{Value: v}
			}
			if spec.Kind == dash.KindArea {
				line.AddSeries(s.Name, data, charts.WithAreaStyleOpts(opts.AreaStyle{}))
			} else {
				line.AddSeries(s.Name, data)
			}
		}
		return line, true

	case dash.KindScatter:
		sc := charts.NewScatter()
		sc.SetGlobalOptions(append(global, charts.WithTooltipOpts(opts.Tooltip{Trigger: "item"}))...)
		sc.SetXAxis(spec.Categories)
		for _, s := range spec.Series {
			data := make([]opts.ScatterData, len(s.Data))
			for i, v := range s.Data {
				data[i] = opts.ScatterData{Value: v}
			}
			sc.AddSeries(s.Name, data)
		}
		return sc, true

	default: // bar, stackedBar and anything unknown
		bar := charts.NewBar()
		bar.SetGlobalOptions(append(global, charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}))...)
		bar.SetXAxis(spec.Categories)
		for _, s := range spec.Series {
			data := make([]opts.BarData, len(s.Data))
			for i, v := range s.Data {
				data[i] = opts.BarData{Value: v}
			}
			if spec.Kind == dash.KindStackedBar {
				bar.AddSeries(s.Name, data, charts.WithBarChartOpts(opts.BarChart{Stack: "total"}))
			} else {
				bar.AddSeries(s.Name, data)
			}
		}
		return bar, true
	}
}

func chartID(spec dash.Specification) string {
	if spec.ID == "" {
		return ""
	}
	return "chart_" + strings.NewReplacer("-", "_", " ", "_").Replace(spec.ID)
}

// Page writes one HTML document containing every specification in order of
// kind: the echarts charts first, then the tables.
func Page(w io.Writer, title string, specs []dash.Specification) error {
	if title == "" {
		title = DefaultTitle
	}
	page := components.NewPage()
	page.PageTitle = title

	var tables []dash.Specification
	for _, spec := range specs {
		c, ok := Chart(spec)
		if !ok {
			tables = append(tables, spec)
			continue
		}
		page.AddCharts(c)
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render: page: %w", err)
	}
	if len(tables) == 0 {
		_, err := w.Write(buf.Bytes())
		return err
	}

	var frag bytes.Buffer
	for _, t := range tables {
		if err := Table(&frag, t); err != nil {
			return err
		}
	}
	html := buf.String()
	if i := strings.LastIndex(html, "</body>"); i >= 0 {
		html = html[:i] + frag.String() + html[i:]
	} else {
		html += frag.String()
	}
	_, err := io.WriteString(w, html)
	return err
}

var tableTmpl = template.Must(template.New("table").Funcs(template.FuncMap{
	"num": formatNumber,
}).Parse(`<section class="dashboard-table">
<h3>{{.Title}}</h3>
<table>
<thead><tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr><td>{{.Category}}</td>{{range .Values}}<td>{{num .}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
</section>
`))

type tableRow struct {
	Category string
	Values   []float64
}

// Table writes spec as an HTML table fragment: one row per category, one
// column per series.
func Table(w io.Writer, spec dash.Specification) error {
	header := []string{spec.XAxis}
	for _, s := range spec.Series {
		header = append(header, s.Name)
	}
	rows := make([]tableRow, len(spec.Categories))
	for i, c := range spec.Categories {
		r := tableRow{Category: c}
		for _, s := range spec.Series {
			r.Values = append(r.Values, s.Data[i])
		}
		rows[i] = r
	}
	data := struct {
		Title  string
		Header []string
		Rows   []tableRow
	}{spec.Title, header, rows}
	if err := tableTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render: table %q: %w", spec.Title, err)
	}
	return nil
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%.2f", f)
}
