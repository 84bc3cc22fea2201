package engine

import (
	"fmt"
	"math"
	"strconv"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from records or groups
// ============================================================================
// All functions operate on RecordView — zero-copy access to any data source.
// Cells are formatted once here; every surface renders the same strings.
// ============================================================================

// ColumnSpec selects a column for a table and says how to render it.
// Format "text" (or "") reads the dimension; anything else reads the measure
// and formats it with FormatValue.
type ColumnSpec struct {
	Key    string
	Label  string
	Format string
}

func (c ColumnSpec) isText() bool { return c.Format == "" || c.Format == "text" }

func (c ColumnSpec) column() Column {
	if c.isText() {
		return Column{Key: c.Key, Label: c.Label, Type: "text", Align: "left"}
	}
	typ := "number"
	if c.Format == "euro" {
		typ = "currency"
	}
	return Column{Key: c.Key, Label: c.Label, Type: typ, Align: "right"}
}

// ============================================================================
// RECORD TABLE — Row per record
// ============================================================================

// BuildRecordTable renders one row per record of view, in view order.
func BuildRecordTable(title string, view RecordView, specs []ColumnSpec) *TableData {
	columns := make([]Column, len(specs))
	for i, s := range specs {
		columns[i] = s.column()
	}

	rows := make([][]string, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		row := make([]string, len(specs))
		for c, s := range specs {
			row[c] = formatCell(view, i, s)
		}
		rows = append(rows, row)
	}

	return &TableData{
		Title:   title,
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label:  fmt.Sprintf("Totale (%d righe)", view.Len()),
			Values: map[string]string{},
		},
	}
}

func formatCell(view RecordView, i int, s ColumnSpec) string {
	if s.isText() {
		return view.Dimension(i, s.Key)
	}
	return FormatValue(s.Format, view.Measure(i, s.Key))
}

// ============================================================================
// PROFILE TABLE — Group means per column
// ============================================================================

// BuildProfileTable renders one row per group with the mean of each measure
// column, rounded to 2 decimals before formatting.
func BuildProfileTable(title, groupLabel string, groups []Group, specs []ColumnSpec) *TableData {
	columns := make([]Column, 0, len(specs)+1)
	columns = append(columns, Column{Key: "group", Label: groupLabel, Type: "text", Align: "left"})
	for _, s := range specs {
		columns = append(columns, s.column())
	}

	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		row := make([]string, 0, len(columns))
		row = append(row, g.Label)
		for _, s := range specs {
			mean := AvgMeasure(g.View, s.Key)
			if !math.IsNaN(mean) {
				mean = RoundTo2(mean)
			}
			row = append(row, FormatValue(s.Format, mean))
		}
		rows = append(rows, row)
	}

	return &TableData{Title: title, Columns: columns, Rows: rows}
}

// ============================================================================
// AGGREGATED TABLE — Summary rows
// ============================================================================

// BuildTable renders aggregated groups as group / value / count rows.
func BuildTable(q Query, groups []Group, groupLabel, valueLabel, valueFormat string) *TableData {
	if len(groups) == 0 {
		return &TableData{
			Title:   q.Title,
			Columns: []Column{},
			Rows:    [][]string{},
		}
	}

	columns := []Column{
		{Key: "group", Label: groupLabel, Type: "text", Align: "left"},
		{Key: "value", Label: valueLabel, Type: "number", Align: "right"},
		{Key: "count", Label: "Clienti", Type: "number", Align: "center"},
	}

	rows := make([][]string, 0, len(groups))
	var totalCount int

	for _, g := range groups {
		rows = append(rows, []string{
			g.Label,
			FormatValue(valueFormat, g.Value),
			strconv.Itoa(g.Count),
		})
		totalCount += g.Count
	}

	return &TableData{
		Title:   q.Title,
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label: "Totale",
			Values: map[string]string{
				"count": strconv.Itoa(totalCount),
			},
		},
	}
}
