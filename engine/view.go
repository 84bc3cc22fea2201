package engine

import "math"

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access Interface
// ============================================================================
// The engine never owns dataset data. It reads through this interface.
//
// Implementations:
//   dataset.Table  — a loaded CSV (lives in the dataset package)
//   SliceView      — wraps []Record (ad-hoc rows, tests)
//   SubView        — filtered/reordered subset (indices into parent, zero-copy)
//   JoinView       — left join of lookup columns by a key dimension
//   DerivedView    — parent plus computed dimensions/measures
//
// Missing measures read as NaN; aggregators skip them.
// ============================================================================

// RecordView provides indexed access to a dataset.
// The engine calls Dimension/Measure in tight loops — keep implementations fast.
type RecordView interface {
	Len() int
	Dimension(index int, key string) string
	Measure(index int, key string) float64
	DimensionKeys() []string // available dimension keys
	MeasureKeys() []string   // available measure keys
}

// ============================================================================
// SLICE VIEW — wraps []Record
// ============================================================================

// SliceView wraps a []Record slice as a RecordView.
type SliceView struct {
	records []Record
	dimKeys []string
	mesKeys []string
}

// NewSliceView creates a RecordView from a []Record slice.
func NewSliceView(records []Record) RecordView {
	v := &SliceView{records: records}
	v.cacheKeys()
	return v
}

func (v *SliceView) cacheKeys() {
	dimSeen := make(map[string]bool)
	mesSeen := make(map[string]bool)
	for _, r := range v.records {
		for k := range r.Dimensions {
			if !dimSeen[k] {
				dimSeen[k] = true
				v.dimKeys = append(v.dimKeys, k)
			}
		}
		for k := range r.Measures {
			if !mesSeen[k] {
				mesSeen[k] = true
				v.mesKeys = append(v.mesKeys, k)
			}
		}
	}
}

func (v *SliceView) Len() int { return len(v.records) }

func (v *SliceView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.records) {
		return ""
	}
	return v.records[i].Dimensions[key]
}

func (v *SliceView) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.records) {
		return math.NaN()
	}
	m, ok := v.records[i].Measures[key]
	if !ok {
		return math.NaN()
	}
	return m
}

func (v *SliceView) DimensionKeys() []string { return v.dimKeys }
func (v *SliceView) MeasureKeys() []string   { return v.mesKeys }

// ============================================================================
// SUB VIEW — filtered subset (zero-copy)
// ============================================================================

// SubView is a filtered or reordered subset of a parent RecordView.
// Holds indices into the parent — no data copy.
type SubView struct {
	parent  RecordView
	indices []int
}

// NewSubView creates a view over parent rows at indices, in that order.
func NewSubView(parent RecordView, indices []int) RecordView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.indices) {
		return ""
	}
	return v.parent.Dimension(v.indices[i], key)
}

func (v *SubView) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.indices) {
		return math.NaN()
	}
	return v.parent.Measure(v.indices[i], key)
}

func (v *SubView) DimensionKeys() []string { return v.parent.DimensionKeys() }
func (v *SubView) MeasureKeys() []string   { return v.parent.MeasureKeys() }

// ============================================================================
// JOIN VIEW — left join of lookup columns (zero-copy)
// ============================================================================

// JoinView exposes every base row plus selected columns from the first
// lookup row sharing the same key value. Unmatched rows read "" / NaN for
// the joined columns.
type JoinView struct {
	base    RecordView
	lookup  RecordView
	columns map[string]bool
	match   []int
	dimKeys []string
	mesKeys []string
}

// NewJoinView left-joins columns from lookup onto base by the key dimension.
func NewJoinView(base, lookup RecordView, key string, columns ...string) RecordView {
	first := make(map[string]int, lookup.Len())
	for i := 0; i < lookup.Len(); i++ {
		k := lookup.Dimension(i, key)
		if k == "" {
			continue
		}
		if _, seen := first[k]; !seen {
			first[k] = i
		}
	}

	v := &JoinView{
		base:    base,
		lookup:  lookup,
		columns: make(map[string]bool, len(columns)),
		match:   make([]int, base.Len()),
	}
	for i := range v.match {
		v.match[i] = -1
		if idx, ok := first[base.Dimension(i, key)]; ok {
			v.match[i] = idx
		}
	}
	for _, c := range columns {
		v.columns[c] = true
	}
	v.dimKeys = appendMissing(base.DimensionKeys(), columns)
	v.mesKeys = base.MeasureKeys()
	return v
}

func (v *JoinView) Len() int { return v.base.Len() }

func (v *JoinView) Dimension(i int, key string) string {
	if v.columns[key] {
		if i < 0 || i >= len(v.match) || v.match[i] < 0 {
			return ""
		}
		return v.lookup.Dimension(v.match[i], key)
	}
	return v.base.Dimension(i, key)
}

func (v *JoinView) Measure(i int, key string) float64 {
	if v.columns[key] {
		if i < 0 || i >= len(v.match) || v.match[i] < 0 {
			return math.NaN()
		}
		return v.lookup.Measure(v.match[i], key)
	}
	return v.base.Measure(i, key)
}

func (v *JoinView) DimensionKeys() []string { return v.dimKeys }
func (v *JoinView) MeasureKeys() []string   { return v.mesKeys }

// ============================================================================
// DERIVATION — computed columns over any view
// ============================================================================
//
// Usage:
//
//	labelled := engine.NewDerivation().
//	    Dimension("cliente_label", func(v engine.RecordView, i int) string { ... }).
//	    Measure("delta_loss_ratio", func(v engine.RecordView, i int) float64 { ... }).
//	    Bind(table)
//
// ============================================================================

// Derivation declares computed columns. Declare once, bind many times.
type Derivation struct {
	dimOrder []string
	mesOrder []string
	dims     map[string]func(RecordView, int) string
	meas     map[string]func(RecordView, int) float64
}

// NewDerivation creates an empty Derivation.
func NewDerivation() *Derivation {
	return &Derivation{
		dims: make(map[string]func(RecordView, int) string),
		meas: make(map[string]func(RecordView, int) float64),
	}
}

// Dimension registers a computed dimension.
func (d *Derivation) Dimension(key string, fn func(RecordView, int) string) *Derivation {
	if _, exists := d.dims[key]; !exists {
		d.dimOrder = append(d.dimOrder, key)
	}
	d.dims[key] = fn
	return d
}

// Measure registers a computed measure.
func (d *Derivation) Measure(key string, fn func(RecordView, int) float64) *Derivation {
	if _, exists := d.meas[key]; !exists {
		d.mesOrder = append(d.mesOrder, key)
	}
	d.meas[key] = fn
	return d
}

// Bind wraps parent so the computed columns read alongside its own.
func (d *Derivation) Bind(parent RecordView) RecordView {
	return &DerivedView{
		parent:  parent,
		dims:    d.dims,
		meas:    d.meas,
		dimKeys: appendMissing(parent.DimensionKeys(), d.dimOrder),
		mesKeys: appendMissing(parent.MeasureKeys(), d.mesOrder),
	}
}

// DerivedView reads computed columns through registered functions.
type DerivedView struct {
	parent  RecordView
	dims    map[string]func(RecordView, int) string
	meas    map[string]func(RecordView, int) float64
	dimKeys []string
	mesKeys []string
}

func (v *DerivedView) Len() int { return v.parent.Len() }

func (v *DerivedView) Dimension(i int, key string) string {
	if fn, ok := v.dims[key]; ok {
		if i < 0 || i >= v.parent.Len() {
			return ""
		}
		return fn(v.parent, i)
	}
	return v.parent.Dimension(i, key)
}

func (v *DerivedView) Measure(i int, key string) float64 {
	if fn, ok := v.meas[key]; ok {
		if i < 0 || i >= v.parent.Len() {
			return math.NaN()
		}
		return fn(v.parent, i)
	}
	return v.parent.Measure(i, key)
}

func (v *DerivedView) DimensionKeys() []string { return v.dimKeys }
func (v *DerivedView) MeasureKeys() []string   { return v.mesKeys }

func appendMissing(base []string, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(base)+len(extra))
	for _, k := range base {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for _, k := range extra {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
