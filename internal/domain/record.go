package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Field names one of the nine water-quality parameters.
type Field string

const (
	FieldPH              Field = "ph"
	FieldHardness        Field = "hardness"
	FieldSolids          Field = "solids"
	FieldChloramines     Field = "chloramines"
	FieldSulfate         Field = "sulfate"
	FieldConductivity    Field = "conductivity"
	FieldOrganicCarbon   Field = "organic_carbon"
	FieldTrihalomethanes Field = "trihalomethanes"
	FieldTurbidity       Field = "turbidity"
)

var schema = [...]Field{
	FieldPH,
	FieldHardness,
	FieldSolids,
	FieldChloramines,
	FieldSulfate,
	FieldConductivity,
	FieldOrganicCarbon,
	FieldTrihalomethanes,
	FieldTurbidity,
}

// Schema returns the nine required fields in canonical order.
// The returned slice is a copy; mutating it does not affect the schema.
func Schema() []Field {
	s := schema
	return s[:]
}

// Label returns the human-readable column label used in exports,
// e.g. "organic_carbon" -> "Organic Carbon". pH keeps its chemistry casing.
func (f Field) Label() string {
	if f == FieldPH {
		return "pH"
	}
	return cases.Title(language.English).String(strings.ReplaceAll(string(f), "_", " "))
}

// Record holds one validated sample. Every value is a finite number.
type Record struct {
	PH              float64 `json:"ph" yaml:"ph"`
	Hardness        float64 `json:"hardness" yaml:"hardness"`
	Solids          float64 `json:"solids" yaml:"solids"`
	Chloramines     float64 `json:"chloramines" yaml:"chloramines"`
	Sulfate         float64 `json:"sulfate" yaml:"sulfate"`
	Conductivity    float64 `json:"conductivity" yaml:"conductivity"`
	OrganicCarbon   float64 `json:"organic_carbon" yaml:"organic_carbon"`
	Trihalomethanes float64 `json:"trihalomethanes" yaml:"trihalomethanes"`
	Turbidity       float64 `json:"turbidity" yaml:"turbidity"`
}

// Value returns the reading for f. Unknown fields return 0.
func (r Record) Value(f Field) float64 {
	switch f {
	case FieldPH:
		return r.PH
	case FieldHardness:
		return r.Hardness
	case FieldSolids:
		return r.Solids
	case FieldChloramines:
		return r.Chloramines
	case FieldSulfate:
		return r.Sulfate
	case FieldConductivity:
		return r.Conductivity
	case FieldOrganicCarbon:
		return r.OrganicCarbon
	case FieldTrihalomethanes:
		return r.Trihalomethanes
	case FieldTurbidity:
		return r.Turbidity
	default:
		return 0
	}
}

// Values returns the nine readings in Schema order.
func (r Record) Values() []float64 {
	out := make([]float64, len(schema))
	for i, f := range schema {
		out[i] = r.Value(f)
	}
	return out
}

func (r *Record) set(f Field, v float64) {
	switch f {
	case FieldPH:
		r.PH = v
	case FieldHardness:
		r.Hardness = v
	case FieldSolids:
		r.Solids = v
	case FieldChloramines:
		r.Chloramines = v
	case FieldSulfate:
		r.Sulfate = v
	case FieldConductivity:
		r.Conductivity = v
	case FieldOrganicCarbon:
		r.OrganicCarbon = v
	case FieldTrihalomethanes:
		r.Trihalomethanes = v
	case FieldTurbidity:
		r.Turbidity = v
	}
}

// RawRecord is an unvalidated row produced by ingestion. Keys keep their
// source order (duplicates included); Values holds the last value seen per key.
type RawRecord struct {
	Line   int // 1-based source line (CSV) or element position (JSON/YAML)
	Keys   []string
	Values map[string]string
}

// Get returns the raw value for key and whether the key was present.
func (r RawRecord) Get(key string) (string, bool) {
	v, ok := r.Values[key]
	return v, ok
}

// Classification is the three-level quality grade.
type Classification string

const (
	Good     Classification = "Good"
	Moderate Classification = "Moderate"
	Poor     Classification = "Poor"
)

// Advice is the user-facing sentence shown alongside a classification.
func (c Classification) Advice() string {
	switch c {
	case Good:
		return "The water quality is good and safe for consumption."
	case Moderate:
		return "The water quality is moderate. Some treatment may be required."
	default:
		return "The water quality is poor. Treatment is recommended before consumption."
	}
}

// ScoredRecord is a Record with its derived score and classification.
type ScoredRecord struct {
	Record
	Score          float64        `json:"score"`
	Classification Classification `json:"classification"`
}

// Source identifies which entry path produced a verdict.
type Source string

const (
	SourceForm   Source = "form"
	SourceFile   Source = "file"
	SourceStream Source = "stream"
)

// Verdict is the outcome of one submission: the overall classification and
// the scored rows it was derived from. Form submissions also carry the
// original Record for audit and export.
type Verdict struct {
	ID             string         `json:"id"`
	Source         Source         `json:"source"`
	Classification Classification `json:"classification"`
	Score          float64        `json:"score"`
	Form           *Record        `json:"form,omitempty"`
	Records        []ScoredRecord `json:"records"`
	CreatedAt      time.Time      `json:"created_at"`
}
