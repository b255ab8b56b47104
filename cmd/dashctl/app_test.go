package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tiai1/tiai-solutions/internal/charts"
	"github.com/tiai1/tiai-solutions/internal/dataset"
)

const salesCSV = "month,region,sales\nJan,North,10\nJan,South,5\nFeb,North,7\n"

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(contents), 0o600))
	return p
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := New().WithIO(strings.NewReader(stdin), &stdout, &stderr)
	err := app.ExecuteWithArgs(context.Background(), args)
	return stdout.String(), stderr.String(), err
}

func TestApp_Help(t *testing.T) {
	out, _, err := runCLI(t, "", "--help")
	require.NoError(t, err)
	for _, sub := range []string{"parse", "profile", "templates", "apply", "render", "convert", "session", "chart"} {
		require.Contains(t, out, sub)
	}
}

func TestParse(t *testing.T) {
	path := writeFile(t, "sales.csv", salesCSV)
	out, _, err := runCLI(t, "", "parse", path)
	require.NoError(t, err)

	var got struct {
		Columns []string         `json:"columns"`
		Rows    []map[string]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, []string{"month", "region", "sales"}, got.Columns)
	require.Len(t, got.Rows, 3)
	require.Equal(t, map[string]any{"month": "Jan", "region": "North", "sales": 10.0}, got.Rows[0])
}

func TestParse_Stdin(t *testing.T) {
	out, _, err := runCLI(t, "a;b\n1;x\n", "parse", "-", "--delimiter", ";")
	require.NoError(t, err)
	require.Contains(t, out, `"b": "x"`)
}

func TestParse_Gate(t *testing.T) {
	_, _, err := runCLI(t, "", "parse", writeFile(t, "book.xlsx", "not really"))
	require.ErrorIs(t, err, dataset.ErrUnsupportedFormat)
	require.Contains(t, err.Error(), "convert to CSV")

	_, _, err = runCLI(t, "", "parse", writeFile(t, "empty.csv", ""))
	require.ErrorIs(t, err, dataset.ErrParse)

	_, _, err = runCLI(t, "", "parse", writeFile(t, "a.csv", salesCSV), "--delimiter", "::")
	require.Error(t, err)
}

func TestProfile(t *testing.T) {
	out, _, err := runCLI(t, "", "profile", writeFile(t, "sales.csv", salesCSV))
	require.NoError(t, err)

	var cols []struct {
		Name        string `json:"name"`
		Type        string `json:"type"`
		UniqueCount int    `json:"uniqueCount"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &cols))
	require.Len(t, cols, 3)
	require.Equal(t, "sales", cols[2].Name)
	require.Equal(t, dataset.KindNumber.String(), cols[2].Type)
	require.Equal(t, 2, cols[1].UniqueCount)
}

func TestTemplates(t *testing.T) {
	out, _, err := runCLI(t, "", "templates")
	require.NoError(t, err)
	require.Contains(t, out, "kpi-overview")
	require.Contains(t, out, "Time Series Analysis")

	out, _, err = runCLI(t, "", "templates", "--json")
	require.NoError(t, err)
	var ts []charts.Template
	require.NoError(t, json.Unmarshal([]byte(out), &ts))
	require.Equal(t, charts.Templates(), ts)
}

func TestApply(t *testing.T) {
	path := writeFile(t, "sales.csv", salesCSV)

	out, _, err := runCLI(t, "", "apply", path, "--template", "KPI Overview")
	require.NoError(t, err)
	var specs []charts.Specification
	require.NoError(t, json.Unmarshal([]byte(out), &specs))
	require.Len(t, specs, 3)
	require.Equal(t, "Performance by Category", specs[0].Title)
	require.Equal(t, []string{"Jan", "Feb"}, specs[0].Categories)
	require.Equal(t, []float64{15, 7}, specs[0].Series[0].Data)

	out, _, err = runCLI(t, "", "apply", path, "-t", "kpi-overview", "--options")
	require.NoError(t, err)
	require.Contains(t, out, `"trigger": "item"`)

	_, _, err = runCLI(t, "", "apply", path, "--template", "nope")
	require.Error(t, err)

	_, _, err = runCLI(t, "", "apply", path)
	require.Error(t, err, "--template is required")
}

func TestRender(t *testing.T) {
	path := writeFile(t, "sales.csv", salesCSV)
	out := filepath.Join(t.TempDir(), "dash.html")

	_, stderr, err := runCLI(t, "", "render", path, "-t", "category-breakdown", "-o", out, "--title", "Q3 Sales")
	require.NoError(t, err)
	require.Contains(t, stderr, "wrote 2 charts")

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	html := string(b)
	require.Contains(t, html, "Q3 Sales")
	require.Contains(t, html, "Stacked Analysis")
	require.Contains(t, html, "Category Share")
}

func TestConvert(t *testing.T) {
	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "region"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "sales"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "North"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 10))
	book := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(book))

	out, _, err := runCLI(t, "", "convert", book)
	require.NoError(t, err)
	require.Equal(t, "region,sales\nNorth,10\n", out)

	_, _, err = runCLI(t, "", "convert", book, "--sheet", "Missing")
	require.Error(t, err)
}

func TestSession(t *testing.T) {
	db := filepath.Join(t.TempDir(), "session.db")
	path := writeFile(t, "sales.csv", salesCSV)

	out, _, err := runCLI(t, "", "session", "show", "--db", db)
	require.NoError(t, err)
	require.Equal(t, "no saved session\n", out)

	out, _, err = runCLI(t, "", "session", "save", path, "--db", db, "-t", "kpi-overview")
	require.NoError(t, err)
	require.Contains(t, out, "saved 3 rows, 3 columns, 3 charts")

	out, _, err = runCLI(t, "", "session", "show", "--db", db)
	require.NoError(t, err)
	var shown struct {
		Rows   int                    `json:"rows"`
		Charts []charts.Specification `json:"charts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	require.Equal(t, 3, shown.Rows)
	require.Len(t, shown.Charts, 3)

	out, _, err = runCLI(t, "", "session", "clear", "--db", db)
	require.NoError(t, err)
	require.Equal(t, "session cleared\n", out)

	out, _, err = runCLI(t, "", "session", "show", "--db", db)
	require.NoError(t, err)
	require.Equal(t, "no saved session\n", out)
}

func TestChart_NoSession(t *testing.T) {
	db := filepath.Join(t.TempDir(), "session.db")
	_, _, err := runCLI(t, "", "chart", "rm", "chart-1", "--db", db)
	require.ErrorIs(t, err, errNoSession)
}

func TestChart_Edit(t *testing.T) {
	db := filepath.Join(t.TempDir(), "session.db")
	_, _, err := runCLI(t, "", "session", "save", writeFile(t, "sales.csv", salesCSV), "--db", db)
	require.NoError(t, err)

	decode := func(out string) []charts.Configuration {
		t.Helper()
		var got []charts.Configuration
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		return got
	}

	out, _, err := runCLI(t, "", "chart", "add", "--db", db,
		"--kind", "bar", "--title", "Sales", "--x", "month", "--y", "sales")
	require.NoError(t, err)
	got := decode(out)
	require.Len(t, got, 1)
	id := got[0].ID
	require.Equal(t, charts.KindBar, got[0].Kind)
	require.Equal(t, []string{"sales"}, got[0].YMetrics)
	require.Equal(t, charts.AggSum, got[0].Aggregation)

	out, _, err = runCLI(t, "", "chart", "add", "--db", db,
		"--config", `{"type":"pie","title":"By region","xAxis":"region","yAxis":["sales"],"aggregation":"count"}`,
		"--title", "Regions")
	require.NoError(t, err)
	got = decode(out)
	require.Len(t, got, 2)
	require.Equal(t, charts.KindPie, got[1].Kind)
	require.Equal(t, "Regions", got[1].Title)
	require.Equal(t, charts.AggCount, got[1].Aggregation)

	out, _, err = runCLI(t, "", "chart", "dup", id, "--db", db)
	require.NoError(t, err)
	got = decode(out)
	require.Len(t, got, 3)
	require.Equal(t, "Sales", got[2].Title)
	require.NotEqual(t, id, got[2].ID)

	out, _, err = runCLI(t, "", "chart", "update", id, "--db", db, "--kind", "line", "--agg", "max")
	require.NoError(t, err)
	got = decode(out)
	require.Equal(t, charts.KindLine, got[0].Kind)
	require.Equal(t, charts.AggMax, got[0].Aggregation)
	require.Equal(t, "Sales", got[0].Title)
	require.Equal(t, "month", got[0].XAxis)

	_, _, err = runCLI(t, "", "chart", "update", "nope", "--db", db, "--title", "x")
	require.ErrorIs(t, err, charts.ErrNotFound)

	out, _, err = runCLI(t, "", "chart", "rm", id, "--db", db)
	require.NoError(t, err)
	require.Len(t, decode(out), 2)

	out, _, err = runCLI(t, "", "session", "show", "--db", db)
	require.NoError(t, err)
	var shown struct {
		Charts []charts.Specification `json:"charts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	require.Len(t, shown.Charts, 2)
}
