package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/couchcryptid/water-quality-service/internal/domain"
	"github.com/couchcryptid/water-quality-service/internal/export"
	"github.com/couchcryptid/water-quality-service/internal/pipeline"
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printSummary(w io.Writer, name string, res pipeline.Result) error {
	v := res.Verdict
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "Input:\t%s\n", name)
	fmt.Fprintf(tw, "Records:\t%d\n", len(v.Records))
	fmt.Fprintf(tw, "Score:\t%.2f / %g\n", v.Score, domain.MaxScore)
	fmt.Fprintf(tw, "Classification:\t%s\n", v.Classification)
	fmt.Fprintf(tw, "Advice:\t%s\n", v.Classification.Advice())
	if n := len(res.Skipped); n > 0 {
		fmt.Fprintf(tw, "Skipped rows:\t%d\n", n)
	}
	if n := len(res.Coerced); n > 0 {
		fmt.Fprintf(tw, "Coerced values:\t%d\n", n)
	}
	return tw.Flush()
}

func printRecords(w io.Writer, records []domain.ScoredRecord) error {
	tw := newTabWriter(w)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, strings.Join(append([]string{"#"}, export.Header()...), "\t"))
	for i, r := range records {
		cols := make([]string, 0, len(domain.Schema())+3)
		cols = append(cols, strconv.Itoa(i+1))
		for _, v := range r.Values() {
			cols = append(cols, strconv.FormatFloat(v, 'f', -1, 64))
		}
		cols = append(cols, strconv.FormatFloat(r.Score, 'f', -1, 64), string(r.Classification))
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	return tw.Flush()
}

func printPreview(w io.Writer, p pipeline.Preview) error {
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "Format:\t%s\n", p.Format)
	fmt.Fprintf(tw, "Rows:\t%d\n", p.Total)
	if len(p.Missing) > 0 {
		missing := make([]string, len(p.Missing))
		for i, f := range p.Missing {
			missing[i] = string(f)
		}
		fmt.Fprintf(tw, "Missing fields:\t%s\n", strings.Join(missing, ", "))
	}
	if len(p.Skipped) > 0 {
		fmt.Fprintf(tw, "Skipped rows:\t%d\n", len(p.Skipped))
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, strings.Join(p.Columns, "\t"))
	for _, row := range p.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if p.Total > len(p.Rows) {
		fmt.Fprintf(tw, "... %d more\n", p.Total-len(p.Rows))
	}
	return tw.Flush()
}
