package engine

import (
	"fmt"
	"math"
)

// ============================================================================
// HISTOGRAM — Equal-width binning shared across series
// ============================================================================
// Every series of one histogram shares the same edges so bars line up
// (before/after comparisons). Bins are [lo, hi) except the last, which is
// closed on the right so the maximum is counted.
// ============================================================================

// DefaultBins matches the dashboard's histogram resolution.
const DefaultBins = 30

// Bin is one histogram bucket.
type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// Mid returns the bucket centre.
func (b Bin) Mid() float64 { return (b.Lo + b.Hi) / 2 }

// Label returns a compact "lo–hi" bucket label.
func (b Bin) Label() string { return fmt.Sprintf("%.2f–%.2f", b.Lo, b.Hi) }

// HistogramEdges returns bins+1 equal-width edges spanning every value in
// series. NaN values are ignored. Returns nil when there is nothing to bin.
func HistogramEdges(bins int, series ...[]float64) []float64 {
	if bins <= 0 {
		bins = DefaultBins
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s {
			if math.IsNaN(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return nil
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	width := (hi - lo) / float64(bins)
	edges := make([]float64, bins+1)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[bins] = hi
	return edges
}

// Histogram counts values into the buckets described by edges.
func Histogram(values []float64, edges []float64) []Bin {
	if len(edges) < 2 {
		return nil
	}
	bins := make([]Bin, len(edges)-1)
	for i := range bins {
		bins[i] = Bin{Lo: edges[i], Hi: edges[i+1]}
	}
	lo, hi := edges[0], edges[len(edges)-1]
	width := (hi - lo) / float64(len(bins))
	for _, v := range values {
		if math.IsNaN(v) || v < lo || v > hi {
			continue
		}
		idx := int((v - lo) / width)
		if idx >= len(bins) {
			idx = len(bins) - 1
		}
		bins[idx].Count++
	}
	return bins
}

// HistogramSeries turns bins into a chart series (X = bucket centre).
func HistogramSeries(name, color string, bins []Bin) ChartSeries {
	points := make([]ChartPoint, len(bins))
	for i, b := range bins {
		points[i] = ChartPoint{
			Label: b.Label(),
			X:     b.Mid(),
			Value: float64(b.Count),
		}
	}
	return ChartSeries{Name: name, Data: points, Color: color}
}
