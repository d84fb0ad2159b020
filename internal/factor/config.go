package factor

import (
	"gofacto/domain/core"
)

// GroupKind declares the column type of an MFA group
type GroupKind string

const (
	GroupContinuous  GroupKind = "continuous"
	GroupCategorical GroupKind = "categorical"
	GroupFrequency   GroupKind = "frequency"
	GroupMixed       GroupKind = "mixed"
)

// Group is a run of consecutive table columns analysed as one table in MFA
type Group struct {
	Name          string    `json:"name"`
	Size          int       `json:"size"`
	Kind          GroupKind `json:"kind"`
	Unscaled      bool      `json:"unscaled,omitempty"` // continuous columns centred only
	Supplementary bool      `json:"supplementary,omitempty"`
}

// Config is the construction-time configuration of an analysis. It is copied
// by the constructors and never modified afterwards.
type Config struct {
	// Components is the number of axes to retain; 0 keeps every non-trivial axis
	Components int `json:"components"`

	// Supplementary elements, as table row/column indices
	RowSup    []int `json:"row_sup,omitempty"`
	ColSup    []int `json:"col_sup,omitempty"`    // CA: supplementary frequency columns
	QualiSup  []int `json:"quali_sup,omitempty"`  // supplementary categorical variables
	QuantiSup []int `json:"quanti_sup,omitempty"` // supplementary continuous variables

	// Groups partition the table columns for MFA, in column order
	Groups []Group `json:"groups,omitempty"`

	// Excluded drops categories from the decomposition (specific MCA: variable
	// name -> levels; specific CA: column name -> nil) while keeping the margins
	// of the full table
	Excluded map[string][]string `json:"excluded,omitempty"`

	// RowWeights are per-table-row weights; only active rows are used and they
	// are renormalised to sum to 1. Nil means uniform.
	RowWeights []float64 `json:"row_weights,omitempty"`

	// ColWeights are per-active-column weights (PCA only). Nil means 1.
	ColWeights []float64 `json:"col_weights,omitempty"`

	// Unscaled centres continuous columns without reducing them (PCA)
	Unscaled bool `json:"unscaled,omitempty"`

	// Parallelize spreads independent per-group and per-variable work over
	// goroutines; results are identical to the sequential path
	Parallelize bool `json:"parallelize,omitempty"`
}

func (c Config) clone() Config {
	out := c
	out.RowSup = append([]int(nil), c.RowSup...)
	out.ColSup = append([]int(nil), c.ColSup...)
	out.QualiSup = append([]int(nil), c.QualiSup...)
	out.QuantiSup = append([]int(nil), c.QuantiSup...)
	out.Groups = append([]Group(nil), c.Groups...)
	out.RowWeights = append([]float64(nil), c.RowWeights...)
	out.ColWeights = append([]float64(nil), c.ColWeights...)
	if c.Excluded != nil {
		out.Excluded = make(map[string][]string, len(c.Excluded))
		for k, v := range c.Excluded {
			out.Excluded[k] = append([]string(nil), v...)
		}
	}
	return out
}

func (c Config) validateCommon() error {
	if c.Components < 0 {
		return core.NewConfigurationError("components must be >= 0, got %d", c.Components)
	}
	return nil
}
