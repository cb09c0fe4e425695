package domain

import "math"

// Score bounds and classification thresholds.
const (
	MaxScore          = 100.0
	GoodThreshold     = 80.0
	ModerateThreshold = 50.0
)

// bandRule awards points when a single reading satisfies ok.
type bandRule struct {
	field  Field
	points float64
	ok     func(v float64) bool
}

// rules covers every field except pH, which has two tiers (see phPoints).
var rules = []bandRule{
	{FieldHardness, 10, func(v float64) bool { return between(v, 150, 300) }},
	{FieldSolids, 10, func(v float64) bool { return v < 600 }},
	{FieldChloramines, 10, func(v float64) bool { return v < 4 }},
	{FieldSulfate, 10, func(v float64) bool { return v < 250 }},
	{FieldConductivity, 10, func(v float64) bool { return between(v, 200, 800) }},
	{FieldOrganicCarbon, 10, func(v float64) bool { return v < 10 }},
	{FieldTrihalomethanes, 10, func(v float64) bool { return v < 80 }},
	{FieldTurbidity, 10, func(v float64) bool { return v < 5 }},
}

// Score grades a validated record. It is pure: the result depends only on
// the nine readings.
func Score(r Record) ScoredRecord {
	s := points(r)
	return ScoredRecord{
		Record:         r,
		Score:          s,
		Classification: Classify(s),
	}
}

// Classify maps a score (or a mean score) to its classification:
// >= 80 Good, >= 50 Moderate, otherwise Poor.
func Classify(score float64) Classification {
	switch {
	case score >= GoodThreshold:
		return Good
	case score >= ModerateThreshold:
		return Moderate
	default:
		return Poor
	}
}

func points(r Record) float64 {
	total := phPoints(r.PH)
	for _, rule := range rules {
		if rule.ok(r.Value(rule.field)) {
			total += rule.points
		}
	}
	return math.Min(total, MaxScore)
}

// phPoints gives 30 inside the optimal 6.5–8.5 band and 15 inside the
// tolerable 6.0–9.0 band.
func phPoints(ph float64) float64 {
	switch {
	case between(ph, 6.5, 8.5):
		return 30
	case between(ph, 6.0, 9.0):
		return 15
	default:
		return 0
	}
}

func between(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
