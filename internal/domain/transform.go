package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ScoreSample validates a single streamed row with the lenient dataset rules
// and scores it. The ID is the message key when present, otherwise a
// deterministic hash of the readings so replays produce the same ID.
func ScoreSample(raw RawRecord, key string, sampledAt time.Time, logger *slog.Logger) (ScoredSample, error) {
	records, coerced, err := ValidateDataset([]RawRecord{raw}, logger)
	if err != nil {
		return ScoredSample{}, err
	}

	rec := records[0]
	id := strings.TrimSpace(key)
	if id == "" {
		id = generateID(rec)
	}

	return ScoredSample{
		ID:            id,
		ScoredRecord:  Score(rec),
		CoercedFields: lo.Map(coerced, func(c Coercion, _ int) Field { return c.Field }),
		SampledAt:     sampledAt.UTC(),
		ScoredAt:      Now(),
	}, nil
}

// SerializeScoredSample marshals a scored sample into an output event with
// classification and scored_at headers for downstream routing.
func SerializeScoredSample(sample ScoredSample) (OutputEvent, error) {
	data, err := json.Marshal(sample)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize scored sample: %w", err)
	}
	return OutputEvent{
		Key:   []byte(sample.ID),
		Value: data,
		Headers: map[string]string{
			"classification": string(sample.Classification),
			"scored_at":      sample.ScoredAt.Format(time.RFC3339),
		},
	}, nil
}

// generateID hashes the nine readings in schema order.
func generateID(r Record) string {
	parts := lo.Map(r.Values(), func(v float64, _ int) string {
		return strconv.FormatFloat(v, 'g', -1, 64)
	})
	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return "sample-" + hex.EncodeToString(hash[:8])
}
