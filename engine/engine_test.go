package engine

import (
	"math"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func rec(dims map[string]string, meas map[string]float64) Record {
	return Record{Dimensions: dims, Measures: meas}
}

func sampleView() RecordView {
	return NewSliceView([]Record{
		rec(map[string]string{"persona": "Famiglia", "zona": "Nord", "id": "1"}, map[string]float64{"clv": 100, "churn": 0.8}),
		rec(map[string]string{"persona": "Senior", "zona": "Sud", "id": "2"}, map[string]float64{"clv": 300, "churn": 0.7}),
		rec(map[string]string{"persona": "Famiglia", "zona": "Sud", "id": "3"}, map[string]float64{"clv": 200, "churn": 0.1}),
		rec(map[string]string{"persona": "", "zona": "Nord", "id": "4"}, map[string]float64{"churn": math.NaN()}),
	})
}

// ── Filters ───────────────────────────────────────────────────────────────────

func TestApplyFiltersOrWithinAndAcross(t *testing.T) {
	v := sampleView()

	f := Filters{}.With("persona", "famiglia", "SENIOR")
	assert.Equal(t, ApplyFilters(v, f).Len(), 3)

	f = f.With("zona", "Sud")
	out := ApplyFilters(v, f)
	assert.Equal(t, out.Len(), 2)
	assert.Equal(t, out.Dimension(0, "id"), "2")
	assert.Equal(t, out.Dimension(1, "id"), "3")
}

func TestApplyFiltersEmptyReturnsSameView(t *testing.T) {
	v := sampleView()
	assert.Equal(t, ApplyFilters(v, Filters{}), v)
	assert.Equal(t, ApplyFilters(v, Filters{}.With("zona")), v)
}

func TestPresentDropsMissing(t *testing.T) {
	assert.Equal(t, Present(sampleView(), "persona").Len(), 3)
}

// ── Aggregation ───────────────────────────────────────────────────────────────

func TestAggregatesSkipMissing(t *testing.T) {
	v := sampleView()
	assert.Equal(t, SumMeasure(v, "clv"), 600.0)
	assert.Equal(t, AvgMeasure(v, "clv"), 200.0)
	assert.Equal(t, MinMeasure(v, "clv"), 100.0)
	assert.Equal(t, MaxMeasure(v, "clv"), 300.0)
	assert.Equal(t, CountValid(v, "clv"), 3)

	empty := NewSubView(v, nil)
	assert.Assert(t, math.IsNaN(AvgMeasure(empty, "clv")))
	assert.Assert(t, math.IsNaN(MaxMeasure(empty, "clv")))
	assert.Equal(t, SumMeasure(empty, "clv"), 0.0)
}

func TestQuantileLinearInterpolation(t *testing.T) {
	var records []Record
	for _, p := range []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10} {
		records = append(records, rec(nil, map[string]float64{"p": p}))
	}
	v := NewSliceView(records)

	assert.Assert(t, floatEq(Quantile(v, "p", 0.9), 9.1), "got %v", Quantile(v, "p", 0.9))
	assert.Equal(t, Quantile(v, "p", 0.5), 5.5)
	assert.Equal(t, Quantile(v, "p", 0), 1.0)
	assert.Equal(t, Quantile(v, "p", 1), 10.0)
	assert.Equal(t, CountWhere(v, MeasureAbove("p", Quantile(v, "p", 0.9))), 1)
}

func TestQuantileEmpty(t *testing.T) {
	assert.Assert(t, math.IsNaN(Quantile(NewSliceView(nil), "p", 0.9)))
}

func TestShareWhereCountsMissingInDenominator(t *testing.T) {
	v := sampleView()
	assert.Equal(t, ShareWhere(v, MeasureAtLeast("churn", 0.7)), 50.0)
	assert.Assert(t, math.IsNaN(ShareWhere(NewSubView(v, nil), MeasureAtLeast("churn", 0.7))))
}

func TestGroupAndAggregate(t *testing.T) {
	groups := GroupAndAggregate(sampleView(), Query{
		GroupBy:     []string{"persona"},
		Aggregation: "count",
		SortBy:      "value_desc",
	})
	assert.Equal(t, len(groups), 2, "rows without persona are dropped")
	assert.Equal(t, groups[0].Key, "Famiglia")
	assert.Equal(t, groups[0].Value, 2.0)

	groups = GroupAndAggregate(sampleView(), Query{
		GroupBy:     []string{"persona"},
		Measure:     "clv",
		Aggregation: "avg",
		SortBy:      "value_asc",
		Limit:       1,
	})
	assert.Equal(t, len(groups), 1)
	assert.Equal(t, groups[0].Key, "Famiglia")
	assert.Equal(t, groups[0].Value, 150.0)
}

func TestGroupAndAggregateAppliesQueryFilters(t *testing.T) {
	groups := GroupAndAggregate(sampleView(), Query{
		Filters:     Filters{}.With("zona", "sud"),
		GroupBy:     []string{"persona"},
		Measure:     "clv",
		Aggregation: "sum",
		SortBy:      "label_asc",
	})
	assert.Equal(t, len(groups), 2)
	assert.Equal(t, groups[0].Key, "Famiglia")
	assert.Equal(t, groups[0].Value, 200.0)
	assert.Equal(t, groups[1].Key, "Senior")
	assert.Equal(t, groups[1].Value, 300.0)

	assert.Assert(t, is.Len(GroupAndAggregate(sampleView(), Query{
		Filters:     Filters{}.With("zona", "Est"),
		GroupBy:     []string{"persona"},
		Aggregation: "count",
	}), 0))
}

func TestSortGroupsNaNLast(t *testing.T) {
	groups := []Group{{Key: "a", Value: math.NaN()}, {Key: "b", Value: 1}, {Key: "c", Value: 3}}
	SortGroups(groups, "value_desc")
	assert.Equal(t, groups[0].Key, "c")
	assert.Equal(t, groups[2].Key, "a")

	SortGroups(groups, "value_asc")
	assert.Equal(t, groups[0].Key, "b")
	assert.Equal(t, groups[2].Key, "a")
}

func TestSortByMeasureAndHead(t *testing.T) {
	sorted := SortByMeasure(sampleView(), "clv", true)
	assert.Equal(t, sorted.Dimension(0, "id"), "2")
	assert.Equal(t, sorted.Dimension(3, "id"), "4")

	top := Head(sorted, 2)
	assert.Equal(t, top.Len(), 2)
	assert.Equal(t, top.Dimension(1, "id"), "3")
	assert.Equal(t, Head(sorted, 10).Len(), 4)
}

// ── Views ─────────────────────────────────────────────────────────────────────

func TestJoinViewFirstMatch(t *testing.T) {
	names := NewSliceView([]Record{
		rec(map[string]string{"id": "1", "nome": "mario"}, nil),
		rec(map[string]string{"id": "1", "nome": "duplicate"}, nil),
		rec(map[string]string{"id": "3", "nome": "lucia"}, nil),
	})
	joined := NewJoinView(sampleView(), names, "id", "nome")

	assert.Equal(t, joined.Len(), 4)
	assert.Equal(t, joined.Dimension(0, "nome"), "mario")
	assert.Equal(t, joined.Dimension(1, "nome"), "")
	assert.Equal(t, joined.Dimension(2, "nome"), "lucia")
	assert.Equal(t, joined.Measure(0, "clv"), 100.0)
	assert.Assert(t, is.Contains(joined.DimensionKeys(), "nome"))
}

func TestDerivation(t *testing.T) {
	d := NewDerivation().
		Dimension("label", func(v RecordView, i int) string { return v.Dimension(i, "persona") + "/" + v.Dimension(i, "zona") }).
		Measure("clv_k", func(v RecordView, i int) float64 { return v.Measure(i, "clv") / 100 })

	view := d.Bind(sampleView())
	assert.Equal(t, view.Dimension(0, "label"), "Famiglia/Nord")
	assert.Equal(t, view.Measure(1, "clv_k"), 3.0)
	assert.Assert(t, math.IsNaN(view.Measure(3, "clv_k")))
	assert.Assert(t, is.Contains(view.MeasureKeys(), "clv_k"))

	filtered := ApplyFilters(view, Filters{}.With("label", "senior/sud"))
	assert.Equal(t, filtered.Len(), 1)
}

// ── Histogram ─────────────────────────────────────────────────────────────────

func TestHistogramSharedEdges(t *testing.T) {
	before := []float64{0, 1, 2, 3}
	after := []float64{4, math.NaN()}
	edges := HistogramEdges(4, before, after)
	assert.DeepEqual(t, edges, []float64{0, 1, 2, 3, 4})

	b := Histogram(before, edges)
	assert.Equal(t, len(b), 4)
	assert.Equal(t, b[0].Count, 1)
	assert.Equal(t, b[3].Count, 1)

	a := Histogram(after, edges)
	assert.Equal(t, a[3].Count, 1, "maximum lands in the closed last bin")
}

func TestHistogramDegenerate(t *testing.T) {
	assert.Assert(t, is.Nil(HistogramEdges(30)))
	edges := HistogramEdges(2, []float64{5, 5})
	assert.DeepEqual(t, edges, []float64{4.5, 5, 5.5})
	assert.Equal(t, Histogram([]float64{5, 5}, edges)[1].Count, 2)
}

// ── Builders ──────────────────────────────────────────────────────────────────

func TestBuildChartStackedFromTwoDimensions(t *testing.T) {
	q := Query{GroupBy: []string{"zona", "persona"}, Aggregation: "count", Title: "Clienti"}
	cfg := BuildChart(q, GroupAndAggregate(sampleView(), q))

	assert.Equal(t, cfg.ChartType, "stacked_bar")
	assert.Equal(t, len(cfg.Series), 2)
	assert.Equal(t, cfg.Series[0].Name, "Famiglia")
	assert.Equal(t, cfg.Series[0].Data[0].Label, "Nord")
	assert.Equal(t, cfg.Series[0].Data[0].Value, 1.0)
	assert.Equal(t, cfg.Series[1].Data[0].Value, 0.0)
}

func TestBuildChartNilOnNoGroups(t *testing.T) {
	assert.Assert(t, BuildChart(Query{}, nil) == nil)
	assert.Assert(t, (*ChartConfig)(nil).IsEmpty())
}

func TestBuildRecordTableFormats(t *testing.T) {
	tbl := BuildRecordTable("T", sampleView(), []ColumnSpec{
		{Key: "id", Label: "ID"},
		{Key: "clv", Label: "CLV", Format: "euro"},
		{Key: "churn", Label: "Churn", Format: "percent"},
	})
	assert.DeepEqual(t, tbl.Headers(), []string{"ID", "CLV", "Churn"})
	assert.DeepEqual(t, tbl.Rows[0], []string{"1", "€ 100", "80 %"})
	assert.DeepEqual(t, tbl.Rows[3], []string{"4", Missing, Missing})
	assert.Equal(t, tbl.Columns[1].Type, "currency")
}

func TestBuildProfileTable(t *testing.T) {
	groups := GroupAndAggregate(sampleView(), Query{GroupBy: []string{"persona"}, Aggregation: "count"})
	tbl := BuildProfileTable("Profili", "Persona", groups, []ColumnSpec{{Key: "churn", Label: "Churn", Format: "float2"}})
	assert.DeepEqual(t, tbl.Rows[0], []string{"Famiglia", "0.45"})
	assert.DeepEqual(t, tbl.Rows[1], []string{"Senior", "0.70"})
}

// ── Format ────────────────────────────────────────────────────────────────────

func TestFormatValue(t *testing.T) {
	cases := []struct {
		format string
		in     float64
		want   string
	}{
		{"euro", 1234567.6, "€ 1,234,568"},
		{"int", -4200, "-4,200"},
		{"float1", 3.14159, "3.1"},
		{"signed2", 0.5, "+0.50"},
		{"signed2", -0.25, "-0.25"},
		{"percent", 0.734, "73 %"},
		{"flag", 1, "Sì"},
		{"flag", 0, "No"},
		{"text", 17, "17"},
		{"euro", math.NaN(), Missing},
	}
	for _, tc := range cases {
		assert.Equal(t, FormatValue(tc.format, tc.in), tc.want, "%s(%v)", tc.format, tc.in)
	}
	assert.Equal(t, EuroSuffix(12500), "12,500 €")
	assert.Equal(t, Percent(66.6), "67%")
}

func floatEq(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
