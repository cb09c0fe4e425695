package domain

import (
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// Coercion records a dataset value that could not be parsed and was replaced by 0.
type Coercion struct {
	Line  int    `json:"line"`
	Field Field  `json:"field"`
	Raw   string `json:"raw"`
}

// ValidateForm checks a manual form entry. Every schema field must be present
// and parse as a finite number. All offending fields are reported together in
// a *ValidationError so the caller can show the complete list in one pass.
func ValidateForm(fields map[string]string) (Record, error) {
	var rec Record
	var problems []FieldProblem

	for _, f := range schema {
		raw, ok := fields[string(f)]
		if !ok || strings.TrimSpace(raw) == "" {
			problems = append(problems, FieldProblem{Field: f, Reason: ReasonMissing})
			continue
		}
		v, ok := parseReading(raw)
		if !ok {
			problems = append(problems, FieldProblem{Field: f, Reason: ReasonNotNumber})
			continue
		}
		rec.set(f, v)
	}

	if len(problems) > 0 {
		return Record{}, &ValidationError{Problems: problems}
	}
	return rec, nil
}

// ValidateDataset converts ingested rows into Records.
//
// Key presence is checked once, against the first row only; a dataset is
// assumed to be uniform. Values that are absent or unparseable in any row are
// coerced to 0 and reported as Coercions, each logged at warn level.
func ValidateDataset(raws []RawRecord, logger *slog.Logger) ([]Record, []Coercion, error) {
	if len(raws) == 0 {
		return nil, nil, ErrEmptyDataset
	}

	var missing []FieldProblem
	for _, f := range schema {
		if _, ok := raws[0].Get(string(f)); !ok {
			missing = append(missing, FieldProblem{Field: f, Reason: ReasonMissing})
		}
	}
	if len(missing) > 0 {
		return nil, nil, &ValidationError{Problems: missing}
	}

	records := make([]Record, len(raws))
	var coerced []Coercion
	for i, raw := range raws {
		for _, f := range schema {
			s, _ := raw.Get(string(f))
			v, ok := parseReading(s)
			if !ok {
				coerced = append(coerced, Coercion{Line: raw.Line, Field: f, Raw: s})
				if logger != nil {
					logger.Warn("unparseable value coerced to zero",
						"line", raw.Line,
						"field", string(f),
						"value", s,
					)
				}
				v = 0
			}
			records[i].set(f, v)
		}
	}
	return records, coerced, nil
}

// parseReading parses a trimmed decimal reading, rejecting NaN and ±Inf.
func parseReading(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
