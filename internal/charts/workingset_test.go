package charts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWorkingSet_CreateAssignsUniqueIDs(t *testing.T) {
	t.Parallel()

	ws := NewWorkingSet()
	a := ws.Create(Configuration{Kind: KindBar, YMetrics: []string{"v"}})
	b := ws.Create(Configuration{Kind: KindBar, YMetrics: []string{"v"}})
	require.Equal(t, "chart-1", a.ID)
	require.Equal(t, "chart-2", b.ID)

	tpl, _ := LookupTemplate("KPI Overview")
	first := ws.AddAll(BindTemplate(tpl, nil))
	second := ws.AddAll(BindTemplate(tpl, nil))
	require.Equal(t, "kpi-overview-0", first[0].ID)
	require.Equal(t, "kpi-overview-0-2", second[0].ID)
	require.Equal(t, 8, ws.Len())
}

func TestWorkingSet_DuplicateIsolation(t *testing.T) {
	t.Parallel()

	ws := NewWorkingSet()
	orig := ws.Create(Configuration{
		ID: "c", Kind: KindLine, Title: "Original", YMetrics: []string{"v"},
		Filters: []Filter{{Column: "v", Operator: OpGT, Value: "1"}},
	})

	dup, err := ws.Duplicate(orig.ID)
	require.NoError(t, err)
	require.Equal(t, "c-copy-1", dup.ID)
	require.Equal(t, "Original", dup.Title)

	dup.Title = "changed"
	dup.Filters[0].Value = "99"
	dup.Filters = append(dup.Filters, Filter{Column: "v", Operator: OpLT, Value: "5"})
	dup.YMetrics[0] = "other"
	require.NoError(t, ws.Update(dup))

	got, ok := ws.Get("c")
	require.True(t, ok)
	require.Equal(t, "Original", got.Title)
	require.Equal(t, []Filter{{Column: "v", Operator: OpGT, Value: "1"}}, got.Filters)
	require.Equal(t, []string{"v"}, got.YMetrics)

	again, err := ws.Duplicate("c")
	require.NoError(t, err)
	require.Equal(t, "c-copy-2", again.ID)

	_, err = ws.Duplicate("missing")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestWorkingSet_ReturnedCopiesDoNotAlias(t *testing.T) {
	t.Parallel()

	ws := NewWorkingSet()
	c := ws.Create(Configuration{ID: "x", Kind: KindBar, YMetrics: []string{"a"}})
	c.YMetrics[0] = "mutated"
	list := ws.List()
	list[0].YMetrics[0] = "mutated"

	got, _ := ws.Get("x")
	require.Equal(t, []string{"a"}, got.YMetrics)
}

func TestWorkingSet_RemoveIsIdempotent(t *testing.T) {
	t.Parallel()

	ws := NewWorkingSet()
	ws.Create(Configuration{ID: "a", Kind: KindBar})
	ws.Create(Configuration{ID: "b", Kind: KindBar})

	ws.Remove("a")
	ws.Remove("a")
	ws.Remove("never")
	require.Equal(t, 1, ws.Len())
	require.Equal(t, "b", ws.List()[0].ID)

	require.ErrorIs(t, ws.Update(Configuration{ID: "a"}), ErrNotFound)
}

func TestWorkingSet_CopyCounterSurvivesReset(t *testing.T) {
	t.Parallel()

	ws := NewWorkingSet()
	ws.Create(Configuration{ID: "a", Kind: KindBar})
	d1, _ := ws.Duplicate("a")
	ws.Reset()
	ws.Create(Configuration{ID: "a", Kind: KindBar})
	d2, _ := ws.Duplicate("a")
	require.NotEqual(t, d1.ID, d2.ID)
}

func TestConfiguration_Validate(t *testing.T) {
	t.Parallel()

	cfg := Configuration{
		Kind: "donut", XAxis: "x", YMetrics: []string{"v", "zz"}, Aggregation: "median",
		Filters: []Filter{{Column: "v", Operator: OpBetween, Value: "1"}},
	}
	issues := cfg.Validate([]string{"x", "v"})
	paths := make([]string, len(issues))
	for i, is := range issues {
		paths[i] = is.Path
	}
	require.ElementsMatch(t, []string{"type", "aggregation", "yAxis[1]", "filters[0].to"}, paths)

	ok := Configuration{Kind: KindPie, XAxis: "x", YMetrics: []string{"v"}, Aggregation: AggCount}
	require.Empty(t, ok.Validate([]string{"x", "v"}))
}
