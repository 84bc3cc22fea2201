package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/vitasicura/engine"
)

// ErrNothingToExport is returned when no table carries a header.
var ErrNothingToExport = errors.New("no table to export")

const maxSheetName = 31

// WriteXLSX writes one worksheet per table: a bold header row followed by
// the display rows, exactly as the page shows them.
func WriteXLSX(w io.Writer, tables ...*engine.TableData) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E8EEF7"}},
	})
	if err != nil {
		return eris.Wrap(err, "creating header style")
	}

	used := make(map[string]bool)
	written := 0
	for i, t := range tables {
		headers := t.Headers()
		if len(headers) == 0 {
			continue
		}
		sheet := sheetName(t.Title, i, used)
		if written == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return eris.Wrapf(err, "naming sheet %q", sheet)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return eris.Wrapf(err, "adding sheet %q", sheet)
		}

		if err := writeRow(f, sheet, 1, headers); err != nil {
			return err
		}
		for r, row := range t.Rows {
			if err := writeRow(f, sheet, r+2, row); err != nil {
				return err
			}
		}

		last, err := excelize.ColumnNumberToName(len(headers))
		if err != nil {
			return eris.Wrap(err, "resolving last column")
		}
		if err := f.SetCellStyle(sheet, "A1", last+"1", header); err != nil {
			return eris.Wrapf(err, "styling header of %q", sheet)
		}
		if err := f.SetColWidth(sheet, "A", last, 22); err != nil {
			return eris.Wrapf(err, "sizing columns of %q", sheet)
		}
		written++
	}
	if written == 0 {
		return ErrNothingToExport
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "writing workbook")
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return eris.Wrapf(err, "row %d", row)
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return eris.Wrapf(err, "writing %s!%s", sheet, cell)
	}
	return nil
}

// sheetName derives a unique, Excel-safe worksheet name from a table title.
func sheetName(title string, i int, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '-'
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" {
		name = fmt.Sprintf("Tabella %d", i+1)
	}
	name = truncateRunes(name, maxSheetName)

	base := name
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		name = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
