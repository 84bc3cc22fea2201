package engine

import (
	"math"
	"sort"
	"strings"
)

// ============================================================================
// AGGREGATORS — Grouping, Aggregation, and Sorting via RecordView
// ============================================================================
// All functions operate on RecordView — zero-copy access to any data source.
// Grouping produces SubViews (index lists into parent view).
// Missing measures (NaN) are skipped the way pandas skips them: a mean over
// nothing is NaN, a sum over nothing is 0.
// ============================================================================

// GroupAndAggregate is the main entry point for the aggregation pipeline.
// Pipeline: group → aggregate → sort → limit.
func GroupAndAggregate(view RecordView, q Query) []Group {
	view = ApplyFilters(view, q.Filters)
	if view.Len() == 0 {
		return nil
	}

	// 1. Group
	var groups []Group
	switch len(q.GroupBy) {
	case 0:
		groups = []Group{{
			Key:   "all",
			Label: "Totale",
			View:  view,
		}}
	case 1:
		groups = groupBySingle(view, q.GroupBy[0])
	default:
		groups = groupByMulti(view, q.GroupBy)
	}

	// 2. Aggregate
	for i := range groups {
		aggregateGroup(&groups[i], q.Measure, q.Aggregation)
		for j := range groups[i].SubGroups {
			aggregateGroup(&groups[i].SubGroups[j], q.Measure, q.Aggregation)
		}
	}

	// 3. Sort
	SortGroups(groups, q.SortBy)

	// 4. Limit
	if q.Limit > 0 && len(groups) > q.Limit {
		groups = groups[:q.Limit]
	}

	return groups
}

// ============================================================================
// GROUPING
// ============================================================================

// groupBySingle groups by one dimension in first-seen order.
// Rows with an empty dimension value are dropped, as pandas groupby does.
func groupBySingle(view RecordView, dimension string) []Group {
	grouped := make(map[string][]int)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		key := view.Dimension(i, dimension)
		if key == "" {
			continue
		}
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], i)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, Group{
			Key:   key,
			Label: key,
			View:  NewSubView(view, grouped[key]),
		})
	}
	return groups
}

func groupByMulti(view RecordView, dimensions []string) []Group {
	primaryGroups := groupBySingle(view, dimensions[0])
	for i := range primaryGroups {
		primaryGroups[i].SubGroups = groupBySingle(primaryGroups[i].View, dimensions[1])
	}
	return primaryGroups
}

// ============================================================================
// AGGREGATION
// ============================================================================

func aggregateGroup(group *Group, measure string, aggregation string) {
	group.Count = group.View.Len()
	if group.Count == 0 {
		return
	}

	switch aggregation {
	case "sum":
		group.Value = SumMeasure(group.View, measure)
	case "count":
		group.Value = float64(group.Count)
	case "count_valid":
		group.Value = float64(CountValid(group.View, measure))
	case "avg":
		group.Value = AvgMeasure(group.View, measure)
	case "max":
		group.Value = MaxMeasure(group.View, measure)
	case "min":
		group.Value = MinMeasure(group.View, measure)
	default:
		group.Value = SumMeasure(group.View, measure)
	}
}

// SumMeasure sums a named measure across a view, skipping missing values.
func SumMeasure(view RecordView, measure string) float64 {
	var total float64
	for i := 0; i < view.Len(); i++ {
		if v := view.Measure(i, measure); !math.IsNaN(v) {
			total += v
		}
	}
	return total
}

// CountValid counts the non-missing values of a measure.
func CountValid(view RecordView, measure string) int {
	n := 0
	for i := 0; i < view.Len(); i++ {
		if !math.IsNaN(view.Measure(i, measure)) {
			n++
		}
	}
	return n
}

// AvgMeasure computes the mean of the non-missing values of a measure.
// Returns NaN when there are none.
func AvgMeasure(view RecordView, measure string) float64 {
	var total float64
	n := 0
	for i := 0; i < view.Len(); i++ {
		if v := view.Measure(i, measure); !math.IsNaN(v) {
			total += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return total / float64(n)
}

// MaxMeasure returns the largest value of a named measure (NaN if none).
func MaxMeasure(view RecordView, measure string) float64 {
	m := math.NaN()
	for i := 0; i < view.Len(); i++ {
		v := view.Measure(i, measure)
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(m) || v > m {
			m = v
		}
	}
	return m
}

// MinMeasure returns the smallest value of a named measure (NaN if none).
func MinMeasure(view RecordView, measure string) float64 {
	m := math.NaN()
	for i := 0; i < view.Len(); i++ {
		v := view.Measure(i, measure)
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(m) || v < m {
			m = v
		}
	}
	return m
}

// Values returns the non-missing values of a measure in view order.
func Values(view RecordView, measure string) []float64 {
	out := make([]float64, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		if v := view.Measure(i, measure); !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Quantile returns the q-th quantile (0..1) of a measure using linear
// interpolation between closest ranks: h = (n-1)·q. NaN when empty.
func Quantile(view RecordView, measure string, q float64) float64 {
	vals := Values(view, measure)
	if len(vals) == 0 || q < 0 || q > 1 {
		return math.NaN()
	}
	sort.Float64s(vals)

	h := float64(len(vals)-1) * q
	lo := math.Floor(h)
	hi := math.Ceil(h)
	if lo == hi {
		return vals[int(lo)]
	}
	return vals[int(lo)] + (h-lo)*(vals[int(hi)]-vals[int(lo)])
}

// CountWhere counts rows for which pred returns true.
func CountWhere(view RecordView, pred func(v RecordView, i int) bool) int {
	n := 0
	for i := 0; i < view.Len(); i++ {
		if pred(view, i) {
			n++
		}
	}
	return n
}

// ShareWhere returns the percentage (0..100) of rows for which pred returns
// true. Every row counts in the denominator. NaN for an empty view.
func ShareWhere(view RecordView, pred func(v RecordView, i int) bool) float64 {
	if view.Len() == 0 {
		return math.NaN()
	}
	return float64(CountWhere(view, pred)) / float64(view.Len()) * 100
}

// MeasureAtLeast is a predicate on measure >= threshold. Missing values never match.
func MeasureAtLeast(measure string, threshold float64) func(RecordView, int) bool {
	return func(v RecordView, i int) bool {
		return v.Measure(i, measure) >= threshold
	}
}

// MeasureAbove is a predicate on measure > threshold. Missing values never match.
func MeasureAbove(measure string, threshold float64) func(RecordView, int) bool {
	return func(v RecordView, i int) bool {
		return v.Measure(i, measure) > threshold
	}
}

// MeasureBelow is a predicate on measure < threshold. Missing values never match.
func MeasureBelow(measure string, threshold float64) func(RecordView, int) bool {
	return func(v RecordView, i int) bool {
		return v.Measure(i, measure) < threshold
	}
}

// ============================================================================
// SORTING
// ============================================================================

// SortGroups sorts aggregate groups by the specified sort mode.
// NaN values sort last in either direction. Sorting is stable.
func SortGroups(groups []Group, sortBy string) {
	switch sortBy {
	case "value_desc":
		sort.SliceStable(groups, func(i, j int) bool { return valueLess(groups[i].Value, groups[j].Value, true) })
	case "value_asc":
		sort.SliceStable(groups, func(i, j int) bool { return valueLess(groups[i].Value, groups[j].Value, false) })
	case "label_asc":
		sort.SliceStable(groups, func(i, j int) bool { return strings.ToLower(groups[i].Key) < strings.ToLower(groups[j].Key) })
	case "label_desc":
		sort.SliceStable(groups, func(i, j int) bool { return strings.ToLower(groups[i].Key) > strings.ToLower(groups[j].Key) })
	default:
		// preserve grouping order
	}
}

// valueLess orders a before b in the requested direction with NaN last.
func valueLess(a, b float64, desc bool) bool {
	switch {
	case math.IsNaN(a):
		return false
	case math.IsNaN(b):
		return true
	case desc:
		return a > b
	default:
		return a < b
	}
}

// SortByMeasure returns view reordered by measure. Missing values go last.
// The sort is stable, so ties keep their input order.
func SortByMeasure(view RecordView, measure string, desc bool) RecordView {
	indices := make([]int, view.Len())
	vals := make([]float64, view.Len())
	for i := range indices {
		indices[i] = i
		vals[i] = view.Measure(i, measure)
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return valueLess(vals[indices[a]], vals[indices[b]], desc)
	})
	return NewSubView(view, indices)
}

// Head returns at most the first n records of view.
func Head(view RecordView, n int) RecordView {
	if n < 0 || view.Len() <= n {
		return view
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return NewSubView(view, indices)
}

// ============================================================================
// VALUE UTILITIES
// ============================================================================

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// UniqueValues returns distinct non-empty values for a dimension, sorted.
func UniqueValues(view RecordView, dimension string) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		val := view.Dimension(i, dimension)
		if val != "" && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	sort.Strings(result)
	return result
}
