// Package dataset embeds the built-in sample dataset offered when a user has
// no file of their own to upload.
package dataset

import (
	_ "embed"
)

// FileName is the name the default dataset is presented under.
const FileName = "water_potability_sample.csv"

//go:embed water_potability_sample.csv
var sample []byte

// Default returns a copy of the embedded sample dataset in CSV form. Some
// readings are deliberately blank, as in field survey data.
func Default() []byte {
	out := make([]byte, len(sample))
	copy(out, sample)
	return out
}
