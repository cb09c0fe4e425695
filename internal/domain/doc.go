// Package domain models drinking-water quality samples and the fixed scoring
// rules used to grade them.
//
// # Sample Data
//
// A sample is a set of nine laboratory readings. Field names are the exact
// keys expected in form submissions, CSV headers and JSON/YAML objects:
//
//	ph               acidity, unitless (0–14)
//	hardness         calcium/magnesium content, mg/L
//	solids           total dissolved solids (TDS), ppm
//	chloramines      mg/L
//	sulfate          mg/L
//	conductivity     μS/cm
//	organic_carbon   total organic carbon, mg/L
//	trihalomethanes  μg/L
//	turbidity        NTU
//
// The order above is the [Schema] order and is used everywhere a stable
// column order is needed (validation messages, exports, previews).
//
// # Scoring
//
// Each reading earns points when it falls inside its acceptable band:
//
//	pH:              6.5–8.5 → 30, otherwise 6.0–9.0 → 15
//	hardness:        150–300 → 10
//	solids:          <600 → 10
//	chloramines:     <4 → 10
//	sulfate:         <250 → 10
//	conductivity:    200–800 → 10
//	organic_carbon:  <10 → 10
//	trihalomethanes: <80 → 10
//	turbidity:       <5 → 10
//
// Ranges are inclusive at both ends; "<" limits are strict. The table can
// reach 110 points; the score is capped at [MaxScore] (100).
//
// Classification of a score (or of the mean score of a dataset):
//
//	≥ 80       Good
//	50 – <80   Moderate
//	< 50       Poor
//
// # Validation Asymmetry
//
// Manual form entries are strict: every field must be present and a finite
// number, and all problems are reported at once. Uploaded datasets are
// lenient: only the first record is checked for the presence of every key,
// and unparseable values in any record are coerced to zero with a warning.
// See [ValidateForm] and [ValidateDataset].
package domain
