package engine

import (
	"strings"
)

// ============================================================================
// FILTERS — Generic Dimension-Based Filtering via RecordView
// ============================================================================
// Single-pass filter: checks ALL dimension constraints per record in one loop.
// Returns a SubView (index list into parent) — zero data copy.
// ============================================================================

// ApplyFilters returns a view of records matching all dimension filters.
// Dimensions are AND-combined; values within a dimension are OR-combined.
// Empty filter = no restriction (returns original view).
func ApplyFilters(view RecordView, filters Filters) RecordView {
	if filters.IsEmpty() {
		return view
	}

	// Pre-build lowercase lookup sets for each dimension filter
	sets := make(map[string]map[string]bool)
	for dim, allowed := range filters.Dimensions {
		if len(allowed) > 0 {
			sets[dim] = toLowerSet(allowed)
		}
	}

	if len(sets) == 0 {
		return view
	}

	return Where(view, func(v RecordView, i int) bool {
		for dim, set := range sets {
			if !set[strings.ToLower(v.Dimension(i, dim))] {
				return false
			}
		}
		return true
	})
}

// Where returns a view of the records for which keep returns true.
func Where(view RecordView, keep func(v RecordView, i int) bool) RecordView {
	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if keep(view, i) {
			indices = append(indices, i)
		}
	}
	return NewSubView(view, indices)
}

// Present keeps records whose dimension is non-empty. Pandas-style "all
// values" selections are built from dropna().unique(), so rows with a missing
// value drop out even when nothing specific is selected.
func Present(view RecordView, dimension string) RecordView {
	return Where(view, func(v RecordView, i int) bool {
		return v.Dimension(i, dimension) != ""
	})
}

// toLowerSet converts a string slice to a lowercase lookup set.
func toLowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = true
	}
	return set
}
