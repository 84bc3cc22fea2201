package engine

import (
	"math"
	"sort"
)

// ============================================================================
// CHART BUILDER — Produces ChartConfig from Query + Groups or raw records
// ============================================================================
// Values are rounded to 2 decimals and missing values plot as 0, so the
// config is always safe to serialize.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4C78A8", "#72B7B2", "#F58518", "#E45756", "#54A24B",
	"#EECA3B", "#B279A2", "#FF9DA6", "#9D755D", "#BAB0AC",
}

// Palette returns the default series colors.
func Palette() []string {
	out := make([]string, len(defaultColors))
	copy(out, defaultColors)
	return out
}

// BuildChart produces a ChartConfig from a Query and aggregated groups.
func BuildChart(q Query, groups []Group) *ChartConfig {
	if len(groups) == 0 {
		return nil
	}

	chartType := q.Visualize
	if chartType == "" {
		chartType = "bar"
	}

	config := &ChartConfig{
		ChartType:  chartType,
		Title:      q.Title,
		XAxis:      q.XAxis,
		YAxis:      q.YAxis,
		ShowLegend: len(q.GroupBy) >= 2,
		ShowGrid:   true,
	}

	if len(q.GroupBy) >= 2 && hasSubGroups(groups) {
		config.ChartType = "stacked_bar"
		config.Series = buildMultiSeries(groups)
	} else {
		config.Series = buildSingleSeries(groups, q.Title)
	}

	config.Colors = assignColors(len(config.Series))
	return config
}

// RecordSeries builds one category point per record: label from a dimension,
// value from a measure. Used for "top N" bars where no grouping is needed.
func RecordSeries(view RecordView, name, labelDim, measure string) ChartSeries {
	points := make([]ChartPoint, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		points = append(points, ChartPoint{
			Label: view.Dimension(i, labelDim),
			Value: plotValue(view.Measure(i, measure)),
		})
	}
	return ChartSeries{Name: name, Data: points}
}

// ScatterSeries builds one point per record with X/Y from measures and
// optional size and weight measures ("" to omit). Records missing X or Y are skipped.
func ScatterSeries(view RecordView, name, labelDim, x, y, size, weight string) ChartSeries {
	points := make([]ChartPoint, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		xv, yv := view.Measure(i, x), view.Measure(i, y)
		if math.IsNaN(xv) || math.IsNaN(yv) {
			continue
		}
		p := ChartPoint{Label: view.Dimension(i, labelDim), X: xv, Value: yv}
		if size != "" {
			p.Size = plotValue(view.Measure(i, size))
		}
		if weight != "" {
			p.Weight = plotValue(view.Measure(i, weight))
		}
		points = append(points, p)
	}
	return ChartSeries{Name: name, Data: points}
}

// ============================================================================
// SERIES BUILDERS
// ============================================================================

func buildSingleSeries(groups []Group, seriesName string) []ChartSeries {
	if seriesName == "" {
		seriesName = "Valore"
	}

	points := make([]ChartPoint, 0, len(groups))
	for _, g := range groups {
		points = append(points, ChartPoint{
			Label: g.Label,
			Value: plotValue(g.Value),
		})
	}

	return []ChartSeries{{
		Name: seriesName,
		Data: points,
	}}
}

func buildMultiSeries(groups []Group) []ChartSeries {
	subKeySet := make(map[string]bool)
	for _, g := range groups {
		for _, sg := range g.SubGroups {
			subKeySet[sg.Key] = true
		}
	}

	subKeys := make([]string, 0, len(subKeySet))
	for k := range subKeySet {
		subKeys = append(subKeys, k)
	}
	sort.Strings(subKeys)

	seriesMap := make(map[string][]ChartPoint)
	for _, key := range subKeys {
		seriesMap[key] = make([]ChartPoint, 0, len(groups))
	}

	for _, g := range groups {
		sgLookup := make(map[string]float64)
		for _, sg := range g.SubGroups {
			sgLookup[sg.Key] = sg.Value
		}

		for _, key := range subKeys {
			seriesMap[key] = append(seriesMap[key], ChartPoint{
				Label: g.Label,
				Value: plotValue(sgLookup[key]),
			})
		}
	}

	series := make([]ChartSeries, 0, len(subKeys))
	for i, key := range subKeys {
		series = append(series, ChartSeries{
			Name:  key,
			Data:  seriesMap[key],
			Color: defaultColors[i%len(defaultColors)],
		})
	}

	return series
}

func hasSubGroups(groups []Group) bool {
	for _, g := range groups {
		if len(g.SubGroups) > 0 {
			return true
		}
	}
	return false
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}

func plotValue(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return RoundTo2(v)
}
