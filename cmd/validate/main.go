// Command validate checks the stream fixtures written by genmock against the
// source dataset and the live scoring code: row counts, reading values,
// scores, classifications and sample IDs.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -raw-json data/mock/raw_samples.json \
//	  -scored-json data/mock/scored_samples.json
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/water-quality-service/internal/dataset"
	"github.com/couchcryptid/water-quality-service/internal/domain"
	"github.com/couchcryptid/water-quality-service/internal/ingest"
	"github.com/jonboulle/clockwork"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const scoreTolerance = 1e-9

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	source := flag.String("source", "", "source CSV dataset; the built-in sample when empty")
	rawJSON := flag.String("raw-json", "", "path to the raw sample fixture")
	scoredJSON := flag.String("scored-json", "", "path to the scored sample fixture")
	flag.Parse()

	if *rawJSON == "" || *scoredJSON == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(os.Stdout, *source, *rawJSON, *scoredJSON); code != 0 {
		os.Exit(code)
	}
}

func run(w io.Writer, sourcePath, rawPath, scoredPath string) int {
	// Set a fixed clock matching genmock so scored_at agrees.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fmt.Fprintln(w, "=== Water Quality Fixture Validation ===")
	fmt.Fprintln(w)

	content := dataset.Default()
	if sourcePath != "" {
		b, err := os.ReadFile(sourcePath)
		if err != nil {
			fmt.Fprintf(w, "FATAL: load source CSV: %v\n", err)
			return 1
		}
		content = b
	}
	source, err := ingest.Parse(content, ingest.FormatCSV, ingest.Options{})
	if err != nil {
		fmt.Fprintf(w, "FATAL: parse source CSV: %v\n", err)
		return 1
	}

	rawSamples, err := loadJSON[jsoniter.RawMessage](rawPath)
	if err != nil {
		fmt.Fprintf(w, "FATAL: load raw JSON: %v\n", err)
		return 1
	}

	scored, err := loadJSON[domain.ScoredSample](scoredPath)
	if err != nil {
		fmt.Fprintf(w, "FATAL: load scored JSON: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateSourceParity(source.Records, rawSamples),
		validateScoring(rawSamples, scored),
		validateClassification(scored),
	}

	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Records: %d source CSV, %d raw JSON, %d scored JSON\n",
		len(source.Records), len(rawSamples), len(scored))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ── Phase 1: Source Parity ──

// validateSourceParity checks that every source row appears, in order, as a
// raw sample with the same readings. Generated samples may follow.
func validateSourceParity(source []domain.RawRecord, samples []jsoniter.RawMessage) *phase {
	p := &phase{name: "Source CSV -> raw samples"}

	if len(samples) < len(source) {
		p.errorf("raw fixture has %d samples, source has %d rows", len(samples), len(source))
		return p
	}

	for i, row := range source {
		sample, err := ingest.ParseObject(samples[i])
		if err != nil {
			p.errorf("sample %d: %v", i+1, err)
			continue
		}
		for _, f := range domain.Schema() {
			want, _ := row.Get(string(f))
			got, _ := sample.Get(string(f))
			if !sameReading(want, got) {
				p.errorf("sample %d (line %d): %s = %q, source %q", i+1, row.Line, f, got, want)
			}
		}
	}
	return p
}

// sameReading compares two reading strings numerically; two unparseable
// values are equal since both coerce to zero.
func sameReading(a, b string) bool {
	x, errA := strconv.ParseFloat(a, 64)
	y, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return (errA != nil) == (errB != nil)
	}
	return x == y
}

// ── Phase 2: Scoring ──

// validateScoring re-scores every raw sample and compares with the fixture.
func validateScoring(samples []jsoniter.RawMessage, scored []domain.ScoredSample) *phase {
	p := &phase{name: "Raw samples -> scored samples"}

	if len(samples) != len(scored) {
		p.errorf("raw fixture has %d samples, scored fixture has %d", len(samples), len(scored))
		return p
	}

	for i := range samples {
		raw, err := ingest.ParseObject(samples[i])
		if err != nil {
			p.errorf("sample %d: %v", i+1, err)
			continue
		}
		want := scored[i]
		got, err := domain.ScoreSample(raw, "", want.SampledAt, nil)
		if err != nil {
			p.errorf("sample %d: score: %v", i+1, err)
			continue
		}
		if got.ID != want.ID {
			p.errorf("sample %d: id %s, fixture %s", i+1, got.ID, want.ID)
		}
		if math.Abs(got.Score-want.Score) > scoreTolerance {
			p.errorf("sample %d: score %g, fixture %g", i+1, got.Score, want.Score)
		}
		if got.Classification != want.Classification {
			p.errorf("sample %d: classification %s, fixture %s", i+1, got.Classification, want.Classification)
		}
		if len(got.CoercedFields) != len(want.CoercedFields) {
			p.errorf("sample %d: %d coerced fields, fixture %d", i+1, len(got.CoercedFields), len(want.CoercedFields))
		}
	}
	return p
}

// ── Phase 3: Classification ──

// validateClassification checks each scored sample on its own: score range,
// threshold agreement and ID uniqueness among distinct readings.
func validateClassification(scored []domain.ScoredSample) *phase {
	p := &phase{name: "Scored sample consistency"}

	seen := make(map[string]domain.Record, len(scored))
	for i, s := range scored {
		if s.Score < 0 || s.Score > domain.MaxScore {
			p.errorf("sample %d: score %g outside 0..%g", i+1, s.Score, domain.MaxScore)
		}
		if c := domain.Classify(s.Score); c != s.Classification {
			p.errorf("sample %d: score %g classifies as %s, fixture says %s", i+1, s.Score, c, s.Classification)
		}
		if s.ID == "" {
			p.errorf("sample %d: empty id", i+1)
			continue
		}
		if prev, ok := seen[s.ID]; ok && prev != s.Record {
			p.errorf("sample %d: id %s reused for different readings", i+1, s.ID)
		}
		seen[s.ID] = s.Record
	}
	return p
}
