package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/water-quality-service/internal/domain"
	"github.com/couchcryptid/water-quality-service/internal/ingest"
	"github.com/couchcryptid/water-quality-service/internal/observability"
)

// SampleTransformer implements Transformer for streamed reading sets. It uses
// the dataset validation rules, so unparseable values become 0 rather than
// rejecting the message; only undecodable payloads and payloads missing
// schema keys fail.
type SampleTransformer struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates a SampleTransformer.
func NewTransformer(logger *slog.Logger, metrics *observability.Metrics) *SampleTransformer {
	return &SampleTransformer{
		logger:  logger,
		metrics: metrics,
	}
}

func (t *SampleTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	rec, err := ingest.ParseObject(raw.Value)
	if err != nil {
		t.metrics.Submissions.WithLabelValues(string(domain.SourceStream), Outcome(err)).Inc()
		return domain.OutputEvent{}, fmt.Errorf("decode sample: %w", err)
	}
	rec.Line = int(raw.Offset)

	logger := t.logger.With("partition", raw.Partition, "offset", raw.Offset)
	sample, err := domain.ScoreSample(rec, string(raw.Key), raw.Timestamp, logger)
	if err != nil {
		t.metrics.Submissions.WithLabelValues(string(domain.SourceStream), Outcome(err)).Inc()
		return domain.OutputEvent{}, fmt.Errorf("score sample: %w", err)
	}

	out, err := domain.SerializeScoredSample(sample)
	if err != nil {
		t.metrics.Submissions.WithLabelValues(string(domain.SourceStream), Outcome(err)).Inc()
		return domain.OutputEvent{}, err
	}

	t.metrics.Submissions.WithLabelValues(string(domain.SourceStream), "scored").Inc()
	t.metrics.Verdicts.WithLabelValues(string(sample.Classification)).Inc()
	t.metrics.RecordsScored.Inc()
	t.metrics.FieldsCoerced.Add(float64(len(sample.CoercedFields)))

	return out, nil
}
