package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/vitasicura/schema"
)

// ============================================================================
// TABLE — Validated, immutable in-memory form of one CSV dataset
// ============================================================================
// Cells are kept as trimmed strings. Columns whose non-missing values all
// parse as numbers are also held as float64 (NaN = missing), so the engine can
// aggregate without re-parsing. The client identifier is held as a nullable
// integer. A Table is never mutated after Parse returns; concurrent readers
// are safe.
//
// Table satisfies engine.RecordView.
// ============================================================================

// Table is a loaded dataset.
type Table struct {
	Name     string
	Columns  []string
	Encoding string // "utf-8" or "latin1"
	Checksum uint64 // xxh3 of the raw file bytes
	LoadedAt time.Time

	index   map[string]int
	cells   [][]string
	numbers [][]float64 // column-major; nil for text columns
	dimKeys []string
	mesKeys []string

	ids      []int64
	idsValid []bool
}

// missingTokens are cell values read as "missing", mirroring common CSV exports.
var missingTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"NaN":  true,
	"nan":  true,
	"null": true,
	"NULL": true,
	"<NA>": true,
	"None": true,
}

// IsMissing reports whether a raw cell counts as a missing value.
func IsMissing(cell string) bool {
	return missingTokens[strings.TrimSpace(cell)]
}

func newTable(name string, header []string, rows [][]string) *Table {
	t := &Table{
		Name:    name,
		Columns: header,
		index:   make(map[string]int, len(header)),
		cells:   rows,
		numbers: make([][]float64, len(header)),
	}
	for i, h := range header {
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}

	for c := range header {
		t.numbers[c] = parseNumericColumn(rows, c)
	}

	if c, ok := t.index[schema.ClientIDColumn]; ok {
		t.ids = make([]int64, len(rows))
		t.idsValid = make([]bool, len(rows))
		for r, row := range rows {
			t.ids[r], t.idsValid[r] = coerceClientID(cellAt(row, c))
		}
	}

	for c, h := range header {
		if t.index[h] != c {
			continue
		}
		if h == schema.ClientIDColumn {
			t.dimKeys = append(t.dimKeys, h)
			t.mesKeys = append(t.mesKeys, h)
			continue
		}
		if t.numbers[c] != nil {
			t.mesKeys = append(t.mesKeys, h)
		} else {
			t.dimKeys = append(t.dimKeys, h)
		}
	}
	return t
}

// parseNumericColumn returns the column as floats when every non-missing
// cell parses as a number, otherwise nil.
func parseNumericColumn(rows [][]string, c int) []float64 {
	out := make([]float64, len(rows))
	for r, row := range rows {
		cell := cellAt(row, c)
		if IsMissing(cell) {
			out[r] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil
		}
		out[r] = f
	}
	return out
}

// coerceClientID converts an identifier cell to an integer. Non-numeric or
// fractional values become missing instead of failing the load.
func coerceClientID(cell string) (int64, bool) {
	if IsMissing(cell) {
		return 0, false
	}
	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func cellAt(row []string, c int) string {
	if c < 0 || c >= len(row) {
		return ""
	}
	return row[c]
}

// ── Column access ───────────────────────────────────────────────────────────

// Has reports whether the table carries column key.
func (t *Table) Has(key string) bool {
	_, ok := t.index[key]
	return ok
}

// IsNumeric reports whether column key was parsed as numbers.
func (t *Table) IsNumeric(key string) bool {
	c, ok := t.index[key]
	return ok && t.numbers[c] != nil
}

// Cell returns the raw trimmed cell, or "" when out of range.
func (t *Table) Cell(i int, key string) string {
	c, ok := t.index[key]
	if !ok || i < 0 || i >= len(t.cells) {
		return ""
	}
	return cellAt(t.cells[i], c)
}

// Value returns the numeric value of a cell and whether it is present.
func (t *Table) Value(i int, key string) (float64, bool) {
	v := t.Measure(i, key)
	return v, !math.IsNaN(v)
}

// ClientID returns the coerced client identifier of row i.
func (t *Table) ClientID(i int) (int64, bool) {
	if t.ids == nil || i < 0 || i >= len(t.ids) {
		return 0, false
	}
	return t.ids[i], t.idsValid[i]
}

// ── engine.RecordView ───────────────────────────────────────────────────────

func (t *Table) Len() int { return len(t.cells) }

// Dimension returns the display string of a cell. Missing client ids are "".
func (t *Table) Dimension(i int, key string) string {
	if key == schema.ClientIDColumn && t.ids != nil {
		id, ok := t.ClientID(i)
		if !ok {
			return ""
		}
		return strconv.FormatInt(id, 10)
	}
	cell := t.Cell(i, key)
	if IsMissing(cell) {
		return ""
	}
	return cell
}

// Measure returns the numeric value of a cell, NaN when missing or non-numeric.
func (t *Table) Measure(i int, key string) float64 {
	if i < 0 || i >= len(t.cells) {
		return math.NaN()
	}
	if key == schema.ClientIDColumn && t.ids != nil {
		if !t.idsValid[i] {
			return math.NaN()
		}
		return float64(t.ids[i])
	}
	c, ok := t.index[key]
	if !ok || t.numbers[c] == nil {
		return math.NaN()
	}
	return t.numbers[c][i]
}

func (t *Table) DimensionKeys() []string { return t.dimKeys }
func (t *Table) MeasureKeys() []string   { return t.mesKeys }
