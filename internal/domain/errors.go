package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyDataset is returned when a submission yields no records to score.
var ErrEmptyDataset = errors.New("no valid data found in dataset")

// Problem reasons reported by ValidationError.
const (
	ReasonMissing   = "missing"
	ReasonNotNumber = "must be a number"
)

// FieldProblem describes why a single field failed validation.
type FieldProblem struct {
	Field  Field  `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every offending field of a record, in Schema order.
type ValidationError struct {
	Problems []FieldProblem
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = fmt.Sprintf("%s (%s)", p.Field, p.Reason)
	}
	return "missing or invalid required fields: " + strings.Join(parts, ", ")
}

// Fields returns the offending field names in order.
func (e *ValidationError) Fields() []Field {
	out := make([]Field, len(e.Problems))
	for i, p := range e.Problems {
		out[i] = p.Field
	}
	return out
}
