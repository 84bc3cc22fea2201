package dashboard

import (
	"encoding/binary"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/spektr-org/vitasicura/copilot"
	"github.com/spektr-org/vitasicura/dataset"
	"github.com/spektr-org/vitasicura/engine"
	"github.com/spektr-org/vitasicura/schema"
)

// ============================================================================
// DASHBOARD — One pure function per business view
// ============================================================================
// Each page takes the loaded datasets plus an immutable filter struct and
// returns a render-ready Page. Nothing is cached here: a filter change means
// calling the page function again, which only recomputes derived figures
// over the already-loaded tables.
// ============================================================================

// Datasets are the four tables every page reads from.
type Datasets struct {
	Clients   engine.RecordView
	NBA       engine.RecordView
	Pricing   engine.RecordView
	Territory engine.RecordView

	// Version changes whenever any underlying file changes.
	Version uint64
}

// Load reads (or reuses) every dataset through the loader.
func Load(l *dataset.Loader) (Datasets, error) {
	tables, err := l.LoadAll()
	if err != nil {
		return Datasets{}, err
	}
	return FromTables(tables), nil
}

// FromTables assembles Datasets from loaded tables keyed by dataset name.
func FromTables(tables map[string]*dataset.Table) Datasets {
	ds := Datasets{
		Clients:   tables[schema.Clients],
		NBA:       tables[schema.NBA],
		Pricing:   tables[schema.Pricing],
		Territory: tables[schema.Territory],
	}
	var sum [8 * 4]byte
	for i, name := range schema.Names() {
		if t := tables[name]; t != nil {
			binary.LittleEndian.PutUint64(sum[i*8:], t.Checksum)
		}
	}
	ds.Version = xxh3.Hash(sum[:])
	return ds
}

// Thresholds are the business cut-offs used across pages.
type Thresholds struct {
	PriorityQuantile float64 `json:"priorityQuantile" yaml:"priority_quantile"` // priority_score strictly above this quantile
	Churn            float64 `json:"churn" yaml:"churn"`                        // churn_score_model at or above = at risk
	HighPotential    float64 `json:"highPotential" yaml:"high_potential"`       // potential_score_casa at or above = priority town
}

// DefaultThresholds returns the cut-offs the consultants are used to.
func DefaultThresholds() Thresholds {
	return Thresholds{PriorityQuantile: 0.9, Churn: 0.7, HighPotential: 0.6}
}

// ============================================================================
// PAGE MODEL
// ============================================================================

// Page is the render-ready model of one dashboard view.
type Page struct {
	Slug     string                `json:"slug"`
	Title    string                `json:"title"`
	Caption  string                `json:"caption,omitempty"`
	Controls []Control             `json:"controls,omitempty"`
	Metrics  []engine.Metric       `json:"metrics"`
	Charts   []*engine.ChartConfig `json:"charts"`
	Tables   []*engine.TableData   `json:"tables"`
	Notes    []string              `json:"notes,omitempty"`

	// Client is set on the contacts page when exactly one client is selected.
	Client *copilot.ClientProfile `json:"client,omitempty"`
}

// Control is one sidebar filter with its options and current selection.
// An empty Selected means "all".
type Control struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	AllLabel string   `json:"allLabel,omitempty"` // "" = no "all" entry (radio)
	Options  []string `json:"options"`
	Selected []string `json:"selected,omitempty"`
	Multi    bool     `json:"multi,omitempty"`
}

// IsSelected reports whether option is currently selected.
func (c Control) IsSelected(option string) bool {
	for _, s := range c.Selected {
		if strings.EqualFold(s, option) {
			return true
		}
	}
	return false
}

func metric(label, value string, raw float64) engine.Metric {
	return engine.Metric{Label: label, Value: value, Raw: raw}
}

// columnSpecs maps dataset columns to table specs using registry labels and formats.
func columnSpecs(name string, keys ...string) []engine.ColumnSpec {
	cfg := schema.MustLookup(name)
	out := make([]engine.ColumnSpec, len(keys))
	for i, k := range keys {
		col := cfg.Column(k)
		out[i] = engine.ColumnSpec{Key: col.Key, Label: col.Label, Format: col.Format}
	}
	return out
}

func selected(v string) []string {
	if v == "" {
		return nil
	}
	return []string{v}
}
