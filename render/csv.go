package render

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/spektr-org/vitasicura/engine"
)

// WriteCSV writes a table's header and display rows as CSV.
func WriteCSV(w io.Writer, t *engine.TableData) error {
	headers := t.Headers()
	if len(headers) == 0 {
		return ErrNothingToExport
	}

	cw := csv.NewWriter(w)
	cw.Write(headers)
	for _, row := range t.Rows {
		cw.Write(row)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrapf(err, "writing %q as CSV", t.Title)
	}
	return nil
}
