package schema

// ============================================================================
// SCHEMA — Describes the shape of each analytics dataset
// ============================================================================
// The registry is the contract between the loader and every page:
// a dataset name maps to the ordered set of columns it must carry.
// Extra columns are allowed and pass through untouched.
// Display metadata (labels, formats) lives next to the contract so that
// pages, exports and the terminal view render the same column the same way.
// ============================================================================

// Dataset file names. Logical names are the file names themselves.
const (
	Clients   = "clienti_clusterizzati.csv"
	NBA       = "nba_scores_clienti.csv"
	Pricing   = "pricing_ai_output.csv"
	Territory = "potential_score_comuni.csv"
)

// ClientIDColumn is the informal join key shared by client-level datasets.
const ClientIDColumn = "codice_cliente"

// Column formats understood by engine.FormatValue.
const (
	FormatText    = "text"
	FormatInt     = "int"
	FormatFloat1  = "float1"
	FormatFloat2  = "float2"
	FormatEuro    = "euro"
	FormatPercent = "percent" // 0..1 rendered as "NN %"
	FormatFlag    = "flag"    // 0/1 rendered as No/Sì
	FormatSigned2 = "signed2"
)

// Config describes one dataset: its required columns and display metadata.
type Config struct {
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Required    []string     `json:"required" yaml:"required"`
	Columns     []ColumnMeta `json:"columns" yaml:"columns"`
}

// ColumnMeta describes how a column is labelled and formatted for display.
type ColumnMeta struct {
	Key    string `json:"key" yaml:"key"`
	Label  string `json:"label" yaml:"label"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Column returns the metadata for key, falling back to a text column labelled by its key.
func (c Config) Column(key string) ColumnMeta {
	for _, col := range c.Columns {
		if col.Key == key {
			return col
		}
	}
	return ColumnMeta{Key: key, Label: key, Format: FormatText}
}

// Label returns the business label of a column.
func (c Config) Label(key string) string {
	return c.Column(key).Label
}

// MissingColumns returns the required columns absent from present, in registry order.
func (c Config) MissingColumns(present []string) []string {
	have := make(map[string]bool, len(present))
	for _, p := range present {
		have[p] = true
	}
	var missing []string
	for _, req := range c.Required {
		if !have[req] {
			missing = append(missing, req)
		}
	}
	return missing
}
