package main

import (
	"bytes"
	"testing"

	"github.com/couchcryptid/water-quality-service/internal/dataset"
	"github.com/couchcryptid/water-quality-service/internal/domain"
	"github.com/couchcryptid/water-quality-service/internal/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeIsDeterministic(t *testing.T) {
	a := synthesize(5, 42)
	b := synthesize(5, 42)
	require.Len(t, a, 5)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, synthesize(5, 43))

	for _, rec := range a {
		for _, f := range domain.Schema() {
			_, ok := rec.Get(string(f))
			assert.True(t, ok, f)
		}
	}
}

func TestBuildFixtures(t *testing.T) {
	ds, err := ingest.Parse(dataset.Default(), ingest.FormatCSV, ingest.Options{})
	require.NoError(t, err)

	samples, scored, err := buildFixtures(ds.Records)
	require.NoError(t, err)
	require.Len(t, samples, len(ds.Records))
	require.Len(t, scored, len(ds.Records))

	// Every message body re-ingests to the same score.
	for i, body := range samples {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		raw, err := ingest.ParseObject(data)
		require.NoError(t, err)
		again, err := domain.ScoreSample(raw, "", scored[i].SampledAt, nil)
		require.NoError(t, err)
		assert.Equal(t, scored[i].ID, again.ID)
		assert.InDelta(t, scored[i].Score, again.Score, 1e-9)
	}
}

func TestPrintStats(t *testing.T) {
	scored := []domain.ScoredSample{
		{ScoredRecord: domain.ScoredRecord{Score: 100, Classification: domain.Good}},
		{ScoredRecord: domain.ScoredRecord{Score: 40, Classification: domain.Poor}, CoercedFields: []domain.Field{domain.FieldPH}},
	}
	var buf bytes.Buffer
	printStats(&buf, scored)

	out := buf.String()
	assert.Contains(t, out, "Total: 2")
	assert.Contains(t, out, "good=1, moderate=0, poor=1")
	assert.Contains(t, out, "With coerced fields: 1")
	assert.Contains(t, out, "Mean score: 70.00")
}
