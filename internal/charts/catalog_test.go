package charts

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tiai1/tiai-solutions/internal/probe"
)

func TestTemplates_Catalog(t *testing.T) {
	t.Parallel()

	ts := Templates()
	require.Len(t, ts, 3)
	require.Equal(t, "KPI Overview", ts[0].Name)
	require.Len(t, ts[0].Charts, 3)
	require.Equal(t, KindStackedBar, ts[1].Charts[0].Kind)
	require.Equal(t, KindArea, ts[2].Charts[1].Kind)

	// Callers get copies.
	ts[0].Charts[0].Title = "mutated"
	require.Equal(t, "Performance by Category", Templates()[0].Charts[0].Title)
}

func TestLookupTemplate(t *testing.T) {
	t.Parallel()

	tpl, ok := LookupTemplate("time-series-analysis")
	require.True(t, ok)
	require.Equal(t, "Time Series Analysis", tpl.Name)

	_, ok = LookupTemplate("category breakdown")
	require.True(t, ok)

	_, ok = LookupTemplate("nope")
	require.False(t, ok)
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	require.Equal(t, "kpi-overview", Slugify("KPI Overview"))
	require.Equal(t, "prehled-trzeb", Slugify("  Přehled   tržeb "))
	require.Equal(t, "a-b", Slugify("a\t\nb!"))
}

func TestBindTemplate_Bindings(t *testing.T) {
	t.Parallel()

	cols := probe.Profile(mustParse(t,
		"region,day,revenue,cost,margin,notes\n"+
			"N,2024-01-01,10,4,6,x1\n"+
			"S,2024-01-02,20,5,15,x2\n"))
	tpl, _ := LookupTemplate("KPI Overview")
	cfgs := BindTemplate(tpl, cols)

	require.Len(t, cfgs, 3)
	for i, c := range cfgs {
		require.Equal(t, "day", c.XAxis)
		require.Equal(t, []string{"revenue", "cost"}, c.YMetrics)
		require.Equal(t, "region", c.GroupBy)
		require.Equal(t, tpl.Charts[i].Kind, c.Kind)
		require.Equal(t, tpl.Charts[i].Aggregation, c.Aggregation)
	}
	require.Equal(t, "kpi-overview-0", cfgs[0].ID)
	require.Equal(t, "kpi-overview-2", cfgs[2].ID)
}

func TestBindTemplate_Fallbacks(t *testing.T) {
	t.Parallel()

	var rows string
	for i := 0; i < 12; i++ {
		rows += "id" + string(rune('a'+i)) + ",7\n"
	}
	cols := probe.Profile(mustParse(t, "label,qty\n"+rows))
	cfgs := BindTemplate(Templates()[1], cols)

	require.Equal(t, "label", cfgs[0].XAxis, "no date column: first column")
	require.Equal(t, []string{"qty"}, cfgs[0].YMetrics)
	require.Empty(t, cfgs[0].GroupBy, "12 distinct labels is not low-cardinality")

	none := BindTemplate(Templates()[0], probe.Profile(mustParse(t, "a,b\nx,y\n")))
	require.Empty(t, none[0].YMetrics)
}

func TestBindTemplate_Deterministic(t *testing.T) {
	t.Parallel()

	cols := probe.Profile(mustParse(t, catRows))
	for _, tpl := range Templates() {
		a := BindTemplate(tpl, cols)
		b := BindTemplate(tpl, cols)
		require.Equal(t, a, b)
	}
}
