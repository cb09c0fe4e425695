// Command genmock builds stream test fixtures from a water quality dataset.
// Each row is run through the same scoring code as the stream scorer so the
// expected output matches real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -raw-out data/mock/raw_samples.json \
//	  -scored-out data/mock/scored_samples.json
//
// Without -in the built-in sample dataset is used. -synth N appends N
// generated samples drawn around typical reading ranges.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/couchcryptid/water-quality-service/internal/dataset"
	"github.com/couchcryptid/water-quality-service/internal/domain"
	"github.com/couchcryptid/water-quality-service/internal/ingest"
	"github.com/jonboulle/clockwork"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	baseDate  = time.Date(2024, time.April, 26, 0, 0, 0, 0, time.UTC)
	scoreDate = time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "CSV dataset to convert; the built-in sample when empty")
	rawOut := flag.String("raw-out", "", "output path for the raw sample fixture")
	scoredOut := flag.String("scored-out", "", "output path for the scored sample fixture")
	synth := flag.Int("synth", 0, "number of generated samples to append")
	seed := flag.Uint64("seed", 1, "seed for generated samples")
	flag.Parse()

	if *rawOut == "" || *scoredOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -raw-out, -scored-out")
	}

	content := dataset.Default()
	if *in != "" {
		b, err := os.ReadFile(*in)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		content = b
	}

	ds, err := ingest.Parse(content, ingest.FormatCSV, ingest.Options{})
	if err != nil {
		return fmt.Errorf("parse input: %w", err)
	}
	raws := ds.Records
	raws = append(raws, synthesize(*synth, *seed)...)

	// Set a fixed clock for reproducible scored_at timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(scoreDate))
	defer domain.SetClock(nil)

	samples, scored, err := buildFixtures(raws)
	if err != nil {
		return err
	}
	log.Printf("total: %d samples", len(samples))

	if err := writeJSON(*rawOut, samples); err != nil {
		return fmt.Errorf("writing raw fixture: %w", err)
	}
	log.Printf("wrote raw fixture: %s", *rawOut)

	if err := writeJSON(*scoredOut, scored); err != nil {
		return fmt.Errorf("writing scored fixture: %w", err)
	}
	log.Printf("wrote scored fixture: %s", *scoredOut)

	printStats(os.Stdout, scored)
	return nil
}

// buildFixtures converts raw rows into stream message bodies and their
// expected scored output. Blank readings are emitted as null.
func buildFixtures(raws []domain.RawRecord) ([]map[string]any, []domain.ScoredSample, error) {
	samples := make([]map[string]any, 0, len(raws))
	scored := make([]domain.ScoredSample, 0, len(raws))

	for i, raw := range raws {
		body := make(map[string]any, len(domain.Schema()))
		for _, f := range domain.Schema() {
			v, _ := raw.Get(string(f))
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				body[string(f)] = nil
				continue
			}
			body[string(f)] = n
		}
		samples = append(samples, body)

		s, err := domain.ScoreSample(raw, "", baseDate.Add(time.Duration(i)*time.Minute), nil)
		if err != nil {
			return nil, nil, fmt.Errorf("score row %d: %w", raw.Line, err)
		}
		scored = append(scored, s)
	}
	return samples, scored, nil
}

// readingRange is the spread synthetic values are drawn from for one field.
type readingRange struct {
	min, max float64
}

var synthRanges = map[domain.Field]readingRange{
	domain.FieldPH:              {4.5, 9.5},
	domain.FieldHardness:        {80, 330},
	domain.FieldSolids:          {300, 40000},
	domain.FieldChloramines:     {1, 11},
	domain.FieldSulfate:         {150, 480},
	domain.FieldConductivity:    {200, 750},
	domain.FieldOrganicCarbon:   {2, 25},
	domain.FieldTrihalomethanes: {20, 120},
	domain.FieldTurbidity:       {1, 7},
}

// synthesize draws n samples from a seeded generator so fixtures are stable.
func synthesize(n int, seed uint64) []domain.RawRecord {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	keys := make([]string, 0, len(domain.Schema()))
	for _, f := range domain.Schema() {
		keys = append(keys, string(f))
	}

	out := make([]domain.RawRecord, 0, n)
	for i := range n {
		rec := domain.RawRecord{Line: i + 1, Keys: keys, Values: make(map[string]string, len(keys))}
		for _, f := range domain.Schema() {
			r := synthRanges[f]
			v := r.min + rng.Float64()*(r.max-r.min)
			rec.Values[string(f)] = strconv.FormatFloat(v, 'f', 2, 64)
		}
		out = append(out, rec)
	}
	return out
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// statsResult holds aggregated counts for printStats reporting.
type statsResult struct {
	classCounts map[domain.Classification]int
	withCoerced int
	meanScore   float64
}

func collectStats(scored []domain.ScoredSample) statsResult {
	s := statsResult{classCounts: map[domain.Classification]int{}}
	if len(scored) == 0 {
		return s
	}
	var total float64
	for i := range scored {
		sc := &scored[i]
		s.classCounts[sc.Classification]++
		if len(sc.CoercedFields) > 0 {
			s.withCoerced++
		}
		total += sc.Score
	}
	s.meanScore = total / float64(len(scored))
	return s
}

func printStats(w io.Writer, scored []domain.ScoredSample) {
	stats := collectStats(scored)

	fmt.Fprintln(w, "\n=== Stats for updating test assertions ===")
	fmt.Fprintf(w, "Total: %d\n", len(scored))
	fmt.Fprintf(w, "By classification: good=%d, moderate=%d, poor=%d\n",
		stats.classCounts[domain.Good], stats.classCounts[domain.Moderate], stats.classCounts[domain.Poor])
	fmt.Fprintf(w, "With coerced fields: %d\n", stats.withCoerced)
	fmt.Fprintf(w, "Mean score: %.2f (%s)\n", stats.meanScore, domain.Classify(stats.meanScore))

	scores := make([]float64, len(scored))
	for i := range scored {
		scores[i] = scored[i].Score
	}
	sort.Float64s(scores)
	if len(scores) > 0 {
		fmt.Fprintf(w, "Score range: %g..%g, median %g\n", scores[0], scores[len(scores)-1], scores[len(scores)/2])
	}
}
