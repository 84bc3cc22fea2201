package dataset

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/zeebo/xxh3"
	"golang.org/x/text/encoding/charmap"

	"github.com/spektr-org/vitasicura/schema"
)

// ============================================================================
// DECODE — bytes → validated Table
// ============================================================================
// UTF-8 first; anything that is not valid UTF-8 is read as ISO-8859-1, which
// maps every byte and therefore never fails. Exports from the scoring
// pipeline have been seen in both encodings.
// ============================================================================

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText returns the file contents as UTF-8 text and the encoding used.
func decodeText(data []byte) (string, string, error) {
	if utf8.Valid(data) {
		return string(bytes.TrimPrefix(data, utf8BOM)), "utf-8", nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", eris.Wrap(err, "latin1 fallback decode")
	}
	return string(out), "latin1", nil
}

// Parse decodes, normalizes and validates raw CSV bytes as dataset name.
// Unregistered names are parsed without column validation.
func Parse(name string, data []byte) (*Table, error) {
	text, enc, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.Errorf("[%s] empty file", name)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "[%s] reading CSV header", name)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "[%s] reading CSV rows", name)
		}
		if isBlankRow(row) {
			continue
		}
		// short rows are padded with missing cells; long rows have nowhere to go
		if len(row) > len(header) {
			line, _ := reader.FieldPos(0)
			return nil, eris.Errorf("[%s] expected %d fields in line %d, saw %d", name, len(header), line, len(row))
		}
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
		rows = append(rows, row)
	}

	if cfg, ok := schema.Lookup(name); ok {
		if missing := cfg.MissingColumns(header); len(missing) > 0 {
			return nil, &MissingColumnsError{Dataset: name, Missing: missing}
		}
	}

	t := newTable(name, header, rows)
	t.Encoding = enc
	t.Checksum = xxh3.Hash(data)
	return t, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
