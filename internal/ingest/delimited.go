package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/couchcryptid/water-quality-service/internal/domain"
)

// parseDelimited reads a header row followed by data rows. Quoted segments may
// contain the delimiter. Blank lines are ignored; rows whose field count does
// not match the header are skipped and reported, never fatal.
func parseDelimited(content []byte, delim rune, logger *slog.Logger) (Dataset, error) {
	if !validDelimiter(delim) {
		return Dataset{}, &FormatError{Format: FormatCSV, Err: fmt.Errorf("invalid delimiter %q", delim)}
	}

	r := csv.NewReader(bytes.NewReader(content))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	ds := Dataset{Format: FormatCSV}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Dataset{}, &FormatError{Format: FormatCSV, Err: err}
		}
		if isBlankRow(row) {
			continue
		}
		line, _ := r.FieldPos(0)

		if ds.Columns == nil {
			ds.Columns = make([]string, len(row))
			for i, h := range row {
				ds.Columns[i] = NormalizeKey(h)
			}
			continue
		}

		if len(row) != len(ds.Columns) {
			ds.Skipped = append(ds.Skipped, SkippedRow{Line: line, Fields: len(row), Want: len(ds.Columns)})
			if logger != nil {
				logger.Warn("skipping row: column count doesn't match headers",
					"line", line,
					"fields", len(row),
					"want", len(ds.Columns),
				)
			}
			continue
		}

		rec := domain.RawRecord{
			Line:   line,
			Keys:   ds.Columns,
			Values: make(map[string]string, len(row)),
		}
		for i, v := range row {
			rec.Values[ds.Columns[i]] = strings.TrimSpace(v)
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

// isBlankRow matches whitespace-only lines, which encoding/csv reports as a
// single field. A line of bare delimiters is not blank.
func isBlankRow(row []string) bool {
	return len(row) == 1 && strings.TrimSpace(row[0]) == ""
}

func validDelimiter(r rune) bool {
	return r != 0 && r != '"' && r != '\r' && r != '\n' && r != utf8.RuneError
}
