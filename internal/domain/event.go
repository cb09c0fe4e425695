package domain

import (
	"context"
	"time"
)

// RawEvent represents an unprocessed message from the source topic. Its value
// is a single JSON object carrying the nine schema fields.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ScoredSample is the stream representation of a scored reading set.
type ScoredSample struct {
	ID string `json:"id"`
	ScoredRecord
	CoercedFields []Field   `json:"coerced_fields,omitempty"`
	SampledAt     time.Time `json:"sampled_at"`
	ScoredAt      time.Time `json:"scored_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
