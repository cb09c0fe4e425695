package domain

import "github.com/samber/lo"

// Aggregate reduces a scored dataset to one verdict: the arithmetic mean of
// the per-record scores, re-classified with the same thresholds as a single
// record. The input must not be empty.
func Aggregate(scored []ScoredRecord) (Verdict, error) {
	if len(scored) == 0 {
		return Verdict{}, ErrEmptyDataset
	}

	mean := lo.SumBy(scored, func(s ScoredRecord) float64 { return s.Score }) / float64(len(scored))

	return Verdict{
		Source:         SourceFile,
		Classification: Classify(mean),
		Score:          mean,
		Records:        scored,
		CreatedAt:      Now(),
	}, nil
}

// SingleVerdict scores one form entry. The record's own classification is the verdict.
func SingleVerdict(r Record) Verdict {
	s := Score(r)
	form := r
	return Verdict{
		Source:         SourceForm,
		Classification: s.Classification,
		Score:          s.Score,
		Form:           &form,
		Records:        []ScoredRecord{s},
		CreatedAt:      Now(),
	}
}

// ScoreAll scores every record, preserving order.
func ScoreAll(records []Record) []ScoredRecord {
	return lo.Map(records, func(r Record, _ int) ScoredRecord { return Score(r) })
}
