// Package export renders scored datasets and verdicts as downloadable files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/water-quality-service/internal/domain"
	"github.com/samber/lo"
)

// Header returns the CSV header: schema labels followed by Score and Classification.
func Header() []string {
	labels := lo.Map(domain.Schema(), func(f domain.Field, _ int) string { return f.Label() })
	return append(labels, "Score", "Classification")
}

// WriteCSV writes one row per scored record under Header. Numbers use the
// shortest representation that parses back to the same value, so the file
// re-ingests to identical records.
func WriteCSV(w io.Writer, records []domain.ScoredRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, r := range records {
		row := lo.Map(r.Values(), func(v float64, _ int) string { return formatNumber(v) })
		row = append(row, formatNumber(r.Score), string(r.Classification))
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// FileName builds a download name such as
// water_quality_analysis_2026-03-14T09-30-00-000Z.csv.
func FileName(prefix string, now time.Time, ext string) string {
	stamp := now.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return prefix + "_" + stamp + "." + strings.TrimPrefix(ext, ".")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
