package engine

// ============================================================================
// ENGINE TYPES — Aggregation over record views, render-ready output
// ============================================================================
// Pages describe what they want as a Query (filters, grouping, aggregation,
// ordering) and receive ChartConfig / TableData / Metric values that any
// surface (HTML, PNG, XLSX, terminal) can render without recomputing.
//
// Dependency: engine imports only go-humanize (number formatting).
// ============================================================================

// ============================================================================
// RECORD — Generic data row
// ============================================================================

// Record is a single data row with string dimensions and numeric measures.
type Record struct {
	Dimensions map[string]string  `json:"dimensions"`
	Measures   map[string]float64 `json:"measures"`
}

// ============================================================================
// QUERY — What a page asks the engine to compute
// ============================================================================

// Query defines a grouped aggregation and how to present it.
type Query struct {
	Filters     Filters  `json:"filters"`
	GroupBy     []string `json:"groupBy"`     // dimension keys; at most two are used
	Measure     string   `json:"measure"`     // measure to aggregate (ignored for count)
	Aggregation string   `json:"aggregation"` // "count", "count_valid", "sum", "avg", "min", "max"
	SortBy      string   `json:"sortBy"`      // "value_desc", "value_asc", "label_asc", "label_desc"
	Limit       int      `json:"limit"`       // 0 = all
	Visualize   string   `json:"visualize"`   // "bar", "stacked_bar", "histogram", "scatter"
	Title       string   `json:"title"`
	XAxis       string   `json:"xAxis,omitempty"`
	YAxis       string   `json:"yAxis,omitempty"`
}

// Filters define which records to include.
// Keys are dimension names. Values are allowed values.
// OR within a dimension, AND across dimensions. Empty = all.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions"`
}

// HasFilter returns true if a specific dimension filter is set.
func (f Filters) HasFilter(dimension string) bool {
	if f.Dimensions == nil {
		return false
	}
	vals, ok := f.Dimensions[dimension]
	return ok && len(vals) > 0
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	if f.Dimensions == nil {
		return true
	}
	for _, vals := range f.Dimensions {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// With returns a copy of f that also restricts dimension to values.
// An empty value list leaves f unchanged.
func (f Filters) With(dimension string, values ...string) Filters {
	if len(values) == 0 {
		return f
	}
	out := Filters{Dimensions: make(map[string][]string, len(f.Dimensions)+1)}
	for k, v := range f.Dimensions {
		out.Dimensions[k] = v
	}
	out.Dimensions[dimension] = values
	return out
}

// ============================================================================
// GROUP — Intermediate computation result
// ============================================================================

// Group represents a grouped/aggregated result.
// Builders convert these into ChartConfig or TableData.
type Group struct {
	Key       string     `json:"key"`
	Label     string     `json:"label"`
	Value     float64    `json:"value"`
	Count     int        `json:"count"`
	SubGroups []Group    `json:"subGroups,omitempty"`
	View      RecordView `json:"-"` // Sub-view for records in this group (zero-copy)
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType   string        `json:"chartType"` // "bar", "stacked_bar", "histogram", "scatter"
	Title       string        `json:"title"`
	XAxis       string        `json:"xAxis,omitempty"`
	YAxis       string        `json:"yAxis,omitempty"`
	Series      []ChartSeries `json:"series"`
	Colors      []string      `json:"colors,omitempty"`
	ShowLegend  bool          `json:"showLegend"`
	ShowGrid    bool          `json:"showGrid"`
	Horizontal  bool          `json:"horizontal,omitempty"`
	Guides      []Guide       `json:"guides,omitempty"`
	Annotations []Annotation  `json:"annotations,omitempty"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single data point.
// Category charts use Label/Value; scatter charts use X/Value with Size and
// Weight driving marker size and colour intensity.
type ChartPoint struct {
	Label  string  `json:"label"`
	Value  float64 `json:"value"`
	X      float64 `json:"x,omitempty"`
	Size   float64 `json:"size,omitempty"`
	Weight float64 `json:"weight,omitempty"`
}

// Guide is a dashed reference line across the plot.
type Guide struct {
	Axis  string  `json:"axis"` // "x" (vertical line) or "y" (horizontal line)
	Value float64 `json:"value"`
}

// Annotation is a text label placed at data coordinates.
type Annotation struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// IsEmpty reports whether the chart has no data points at all.
func (c *ChartConfig) IsEmpty() bool {
	if c == nil {
		return true
	}
	for _, s := range c.Series {
		if len(s.Data) > 0 {
			return false
		}
	}
	return true
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number", "currency"
	Align string `json:"align"` // "left", "center", "right"
}

// Summary provides totals or aggregations for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// Headers returns the column labels in order.
func (t *TableData) Headers() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Label
	}
	return out
}

// ============================================================================
// METRIC — Single headline figure
// ============================================================================

// Metric is a KPI tile: a label, its formatted value and the raw number.
// Raw may be NaN (mean of nothing) and is therefore not serialized.
type Metric struct {
	Label string  `json:"label"`
	Value string  `json:"value"`
	Raw   float64 `json:"-"`
}
