package render

import (
	"errors"
	"io"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/spektr-org/vitasicura/engine"
)

// ============================================================================
// CHARTS — engine.ChartConfig → PNG
// ============================================================================
// One renderer per chart type the pages produce. go-chart draws bars
// vertically only, so Horizontal configs come out as vertical bars with
// rotated category labels.
// ============================================================================

// ErrEmptyChart is returned for a chart with no data points.
var ErrEmptyChart = errors.New("chart has no data")

// Size is the pixel size of a rendered chart.
type Size struct {
	Width  int
	Height int
}

// DefaultSize is used when a dimension is zero.
var DefaultSize = Size{Width: 960, Height: 480}

func (s Size) orDefault() Size {
	if s.Width <= 0 {
		s.Width = DefaultSize.Width
	}
	if s.Height <= 0 {
		s.Height = DefaultSize.Height
	}
	return s
}

type renderer interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

// ChartPNG renders cfg as a PNG image.
func ChartPNG(w io.Writer, cfg *engine.ChartConfig, size Size) error {
	if cfg.IsEmpty() {
		return ErrEmptyChart
	}
	size = size.orDefault()

	var r renderer
	switch cfg.ChartType {
	case "stacked_bar":
		r = stackedChart(cfg, size)
	case "histogram":
		r = histogramChart(cfg, size)
	case "scatter":
		r = scatterChart(cfg, size)
	default:
		r = barChart(cfg, size)
	}
	if err := r.Render(chart.PNG, w); err != nil {
		return eris.Wrapf(err, "rendering chart %q", cfg.Title)
	}
	return nil
}

// ── Bars ──────────────────────────────────────────────────────────────────────

func barChart(cfg *engine.ChartConfig, size Size) *chart.BarChart {
	s := cfg.Series[0]
	base := seriesColor(cfg, 0)

	maxWeight := 0.0
	for _, p := range s.Data {
		maxWeight = math.Max(maxWeight, p.Weight)
	}

	bars := make([]chart.Value, len(s.Data))
	lo, hi := 0.0, 0.0
	for i, p := range s.Data {
		fill := base
		if maxWeight > 0 {
			fill = base.WithAlpha(uint8(90 + 165*p.Weight/maxWeight))
		}
		bars[i] = chart.Value{
			Label: shorten(p.Label, 18),
			Value: p.Value,
			Style: chart.Style{FillColor: fill, StrokeColor: base, StrokeWidth: 1},
		}
		lo, hi = math.Min(lo, p.Value), math.Max(hi, p.Value)
	}
	if hi == lo {
		hi = lo + 1
	}

	return &chart.BarChart{
		Title:      cfg.Title,
		Width:      size.Width,
		Height:     size.Height,
		BarWidth:   barWidth(size.Width, len(bars)),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 90}},
		XAxis:      chart.Style{TextRotationDegrees: 40},
		YAxis: chart.YAxis{
			Name:           valueAxisName(cfg),
			Range:          &chart.ContinuousRange{Min: lo, Max: hi * 1.05},
			ValueFormatter: numberFormatter,
		},
		Bars: bars,
	}
}

func stackedChart(cfg *engine.ChartConfig, size Size) *chart.StackedBarChart {
	categories := cfg.Series[0].Data
	bars := make([]chart.StackedBar, len(categories))
	for c, cat := range categories {
		values := make([]chart.Value, 0, len(cfg.Series))
		for i, s := range cfg.Series {
			if c >= len(s.Data) {
				continue
			}
			col := seriesColor(cfg, i)
			values = append(values, chart.Value{
				Label: s.Name,
				Value: s.Data[c].Value,
				Style: chart.Style{FillColor: col, StrokeColor: col},
			})
		}
		bars[c] = chart.StackedBar{Name: shorten(cat.Label, 14), Values: values}
	}

	return &chart.StackedBarChart{
		Title:      cfg.Title,
		Width:      size.Width,
		Height:     size.Height,
		BarSpacing: 12,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 40}},
		XAxis:      chart.Style{TextRotationDegrees: 40},
		Bars:       bars,
	}
}

// ── Continuous charts ─────────────────────────────────────────────────────────

// histogramChart draws each series as a filled line over bin centres so that
// overlapping distributions stay readable.
func histogramChart(cfg *engine.ChartConfig, size Size) *chart.Chart {
	var (
		series []chart.Series
		xs, ys []float64
	)
	for i, s := range cfg.Series {
		col := seriesColor(cfg, i)
		x := make([]float64, len(s.Data))
		y := make([]float64, len(s.Data))
		for j, p := range s.Data {
			x[j], y[j] = p.X, p.Value
		}
		xs, ys = append(xs, x...), append(ys, y...)
		series = append(series, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: x,
			YValues: y,
			Style:   chart.Style{StrokeColor: col, StrokeWidth: 2, FillColor: col.WithAlpha(70)},
		})
	}
	ys = append(ys, 0)

	c := &chart.Chart{
		Title:      cfg.Title,
		Width:      size.Width,
		Height:     size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: cfg.XAxis, Range: paddedRange(xs, 0), ValueFormatter: numberFormatter},
		YAxis:      chart.YAxis{Name: cfg.YAxis, Range: paddedRange(ys, 0.05), ValueFormatter: numberFormatter},
		Series:     series,
	}
	if cfg.ShowLegend {
		c.Elements = []chart.Renderable{chart.Legend(c)}
	}
	return c
}

// dotWidths are marker sizes for the small, medium and large Size terciles.
var dotWidths = [3]float64{4, 7, 11}

// scatterChart draws points sized by ChartPoint.Size, dashed guides and
// text annotations in data coordinates.
func scatterChart(cfg *engine.ChartConfig, size Size) *chart.Chart {
	col := seriesColor(cfg, 0)

	maxSize := 0.0
	for _, p := range cfg.Series[0].Data {
		maxSize = math.Max(maxSize, p.Size)
	}

	var classes [3]chart.ContinuousSeries
	var xs, ys []float64
	for _, p := range cfg.Series[0].Data {
		k := 1
		if maxSize > 0 {
			k = int(math.Min(2, 3*p.Size/maxSize))
		}
		classes[k].XValues = append(classes[k].XValues, p.X)
		classes[k].YValues = append(classes[k].YValues, p.Value)
		xs, ys = append(xs, p.X), append(ys, p.Value)
	}

	var series []chart.Series
	for k := range classes {
		if len(classes[k].XValues) == 0 {
			continue
		}
		classes[k].Style = chart.Style{
			StrokeColor: drawing.ColorTransparent,
			DotWidth:    dotWidths[k],
			DotColor:    col.WithAlpha(180),
		}
		series = append(series, classes[k])
	}

	for _, g := range cfg.Guides {
		switch g.Axis {
		case "x":
			xs = append(xs, g.Value)
		case "y":
			ys = append(ys, g.Value)
		}
	}
	for _, a := range cfg.Annotations {
		xs, ys = append(xs, a.X), append(ys, a.Y)
	}
	xr, yr := paddedRange(xs, 0.05), paddedRange(ys, 0.05)

	guide := chart.Style{StrokeColor: drawing.ColorFromHex("888888"), StrokeWidth: 1, StrokeDashArray: []float64{5, 5}}
	for _, g := range cfg.Guides {
		switch g.Axis {
		case "x":
			series = append(series, chart.ContinuousSeries{XValues: []float64{g.Value, g.Value}, YValues: []float64{yr.Min, yr.Max}, Style: guide})
		case "y":
			series = append(series, chart.ContinuousSeries{XValues: []float64{xr.Min, xr.Max}, YValues: []float64{g.Value, g.Value}, Style: guide})
		}
	}
	if len(cfg.Annotations) > 0 {
		notes := make([]chart.Value2, len(cfg.Annotations))
		for i, a := range cfg.Annotations {
			notes[i] = chart.Value2{XValue: a.X, YValue: a.Y, Label: a.Text}
		}
		series = append(series, chart.AnnotationSeries{Annotations: notes})
	}

	return &chart.Chart{
		Title:      cfg.Title,
		Width:      size.Width,
		Height:     size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 24, Bottom: 16}},
		XAxis:      chart.XAxis{Name: cfg.XAxis, Range: xr, ValueFormatter: numberFormatter},
		YAxis:      chart.YAxis{Name: cfg.YAxis, Range: yr, ValueFormatter: numberFormatter},
		Series:     series,
	}
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func seriesColor(cfg *engine.ChartConfig, i int) drawing.Color {
	hex := ""
	switch {
	case i < len(cfg.Series) && cfg.Series[i].Color != "":
		hex = cfg.Series[i].Color
	case i < len(cfg.Colors):
		hex = cfg.Colors[i]
	default:
		p := engine.Palette()
		hex = p[i%len(p)]
	}
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

// paddedRange spans values with pad (a fraction of the span) on both sides.
// A zero span is widened so go-chart never sees an empty range.
func paddedRange(values []float64, pad float64) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return &chart.ContinuousRange{Min: 0, Max: 1}
	}
	if hi == lo {
		d := math.Max(math.Abs(lo)*0.1, 1)
		return &chart.ContinuousRange{Min: lo - d, Max: hi + d}
	}
	d := (hi - lo) * pad
	return &chart.ContinuousRange{Min: lo - d, Max: hi + d}
}

func barWidth(width, n int) int {
	if n == 0 {
		return 40
	}
	w := (width - 80) / n * 2 / 3
	switch {
	case w < 8:
		return 8
	case w > 60:
		return 60
	}
	return w
}

// valueAxisName is the measure axis of a bar chart; horizontal configs name
// it on X.
func valueAxisName(cfg *engine.ChartConfig) string {
	if cfg.Horizontal {
		return cfg.XAxis
	}
	return cfg.YAxis
}

func numberFormatter(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return ""
	}
	if math.Abs(f) >= 1000 {
		return engine.Thousands(f)
	}
	return engine.Fixed(f, 2)
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
