package export

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/water-quality-service/internal/domain"
	"github.com/couchcryptid/water-quality-service/internal/ingest"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func sampleRecords() []domain.Record {
	return []domain.Record{
		{PH: 7.2, Hardness: 204.89, Solids: 450.5, Chloramines: 3.1, Sulfate: 210, Conductivity: 420.25, OrganicCarbon: 8.9, Trihalomethanes: 56.3, Turbidity: 3.9},
		{PH: 5.1, Hardness: 98.4, Solids: 20791.3, Chloramines: 7.3, Sulfate: 368.5, Conductivity: 564.3, OrganicCarbon: 10.4, Trihalomethanes: 86.9, Turbidity: 2.96},
		{PH: 0.1 + 0.2, Hardness: 1e-7, Solids: 123456789.125, Chloramines: 0, Sulfate: 249.999, Conductivity: 800, OrganicCarbon: 9.99, Trihalomethanes: 79.9, Turbidity: 4.999},
	}
}

func TestHeader(t *testing.T) {
	assert.Equal(t, []string{
		"pH", "Hardness", "Solids", "Chloramines", "Sulfate", "Conductivity",
		"Organic Carbon", "Trihalomethanes", "Turbidity", "Score", "Classification",
	}, Header())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	scored := domain.ScoreAll(sampleRecords()[:1])

	require.NoError(t, WriteCSV(&buf, scored))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "pH,Hardness,Solids,Chloramines,Sulfate,Conductivity,Organic Carbon,Trihalomethanes,Turbidity,Score,Classification", lines[0])
	assert.Equal(t, "7.2,204.89,450.5,3.1,210,420.25,8.9,56.3,3.9,100,Good", lines[1])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, strings.Join(Header(), ",")+"\n", buf.String())
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	want := sampleRecords()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, domain.ScoreAll(want)))

	ds, err := ingest.Parse(buf.Bytes(), ingest.FormatCSV, ingest.Options{})
	require.NoError(t, err)
	require.Empty(t, ds.Skipped)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	got, coerced, err := domain.ValidateDataset(ds.Records, logger)
	require.NoError(t, err)
	assert.Empty(t, coerced)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFileName(t *testing.T) {
	got := FileName("water_quality_analysis", fixedTime.Add(123*time.Millisecond), "csv")
	assert.Equal(t, "water_quality_analysis_2026-03-14T09-30-00-123Z.csv", got)

	loc := time.FixedZone("UTC+2", 2*60*60)
	got = FileName("water_quality_data", fixedTime.In(loc), ".csv")
	assert.Equal(t, "water_quality_data_2026-03-14T09-30-00-000Z.csv", got)
}

func TestWritePDF(t *testing.T) {
	tests := []struct {
		name    string
		verdict func(t *testing.T) domain.Verdict
	}{
		{
			name: "form verdict",
			verdict: func(t *testing.T) domain.Verdict {
				return domain.SingleVerdict(sampleRecords()[0])
			},
		},
		{
			name: "dataset verdict",
			verdict: func(t *testing.T) domain.Verdict {
				v, err := domain.Aggregate(domain.ScoreAll(sampleRecords()))
				require.NoError(t, err)
				return v
			},
		},
		{
			name: "dataset spanning pages",
			verdict: func(t *testing.T) domain.Verdict {
				records := make([]domain.Record, 0, 120)
				for i := 0; i < 40; i++ {
					records = append(records, sampleRecords()...)
				}
				v, err := domain.Aggregate(domain.ScoreAll(records))
				require.NoError(t, err)
				return v
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WritePDF(&buf, tt.verdict(t), fixedTime))

			out := buf.Bytes()
			assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")), "missing PDF header")
			assert.Contains(t, string(out[len(out)-16:]), "%%EOF")
		})
	}
}

func TestWritePDF_Deterministic(t *testing.T) {
	v := domain.SingleVerdict(sampleRecords()[1])

	var a, b bytes.Buffer
	require.NoError(t, WritePDF(&a, v, fixedTime))
	require.NoError(t, WritePDF(&b, v, fixedTime))
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestUpperLabel(t *testing.T) {
	assert.Equal(t, "ORGANIC CARBON", upperLabel(domain.FieldOrganicCarbon))
	assert.Equal(t, "PH", upperLabel(domain.FieldPH))
}
