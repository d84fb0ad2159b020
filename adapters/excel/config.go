package excel

import (
	"gofacto/adapters/datareadiness/coercer"
)

// ReaderConfig holds configuration for reading an analysis table from a
// CSV or XLSX file
type ReaderConfig struct {
	Sheet          string                 `json:"sheet,omitempty" yaml:"sheet,omitempty"`                     // XLSX sheet, first sheet when empty
	RowNames       string                 `json:"row_names,omitempty" yaml:"row_names,omitempty"`             // header of the row-name column, auto-detected when empty
	NoRowNames     bool                   `json:"no_row_names,omitempty" yaml:"no_row_names,omitempty"`       // rows are numbered 1..n
	Frequency      []string               `json:"frequency,omitempty" yaml:"frequency,omitempty"`             // columns read as counts
	Categorical    []string               `json:"categorical,omitempty" yaml:"categorical,omitempty"`         // columns forced categorical
	AllFrequencies bool                   `json:"all_frequencies,omitempty" yaml:"all_frequencies,omitempty"` // every numeric column is a count (contingency tables)
	CoercionConfig coercer.CoercionConfig `json:"coercion_config" yaml:"coercion_config"`
}

// DefaultReaderConfig returns sensible defaults
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		CoercionConfig: coercer.DefaultCoercionConfig(),
	}
}
