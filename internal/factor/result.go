package factor

import (
	"gofacto/domain/core"

	"gonum.org/v1/gonum/mat"
)

// Section holds the results of one role (rows, columns, individuals,
// variables, categories). Matrices are element × axis. Contrib is nil for
// supplementary elements, VTest is set for categories only.
type Section struct {
	Labels  []string   `json:"labels"`
	Weights []float64  `json:"weights,omitempty"`
	Coord   *mat.Dense `json:"-"`
	Contrib *mat.Dense `json:"-"`
	Cos2    *mat.Dense `json:"-"`
	VTest   *mat.Dense `json:"-"`
	Dist2   []float64  `json:"dist2,omitempty"`
}

// Len is the number of elements in the section
func (s *Section) Len() int { return len(s.Labels) }

// LinkSection holds the squared link of whole variables with each axis:
// squared correlation for continuous variables, correlation ratio for
// categorical ones
type LinkSection struct {
	Labels  []string   `json:"labels"`
	Eta2    *mat.Dense `json:"-"`
	Contrib *mat.Dense `json:"-"`
}

// Len is the number of variables in the section
func (s *LinkSection) Len() int { return len(s.Labels) }

// Result is what every fitted analysis exposes
type Result interface {
	Variant() string
	RunID() core.RunID
	TableHash() core.Hash
	Config() Config
	Eigen() Eigen
	Components() int
	DimDesc(axis int, significance float64) (*AxisDescription, error)
	// Sections lists the available element sections in reporting order
	Sections() []NamedSection
}

// NamedSection pairs a section with its role name
type NamedSection struct {
	Name    string
	Section *Section
}

func appendSection(out []NamedSection, name string, s *Section) []NamedSection {
	if s == nil {
		return out
	}
	return append(out, NamedSection{Name: name, Section: s})
}

// fit is embedded by every analysis result
type fit struct {
	variant   string
	runID     core.RunID
	tableHash core.Hash
	config    Config
	eigen     Eigen
	desc      *descriptor
}

func newFit(variant string, tableHash core.Hash, cfg Config, a *axes) fit {
	return fit{
		variant:   variant,
		runID:     core.NewRunID(),
		tableHash: tableHash,
		config:    cfg,
		eigen:     a.eigen,
	}
}

// Variant names the analysis ("PCA", "CA", ...)
func (f *fit) Variant() string { return f.variant }

// RunID identifies this fit
func (f *fit) RunID() core.RunID { return f.runID }

// TableHash is the fingerprint of the fitted table
func (f *fit) TableHash() core.Hash { return f.tableHash }

// Config returns a copy of the construction-time configuration
func (f *fit) Config() Config { return f.config.clone() }

// Eigen returns the eigenvalue table of every non-trivial axis
func (f *fit) Eigen() Eigen { return f.eigen }

// Components is the number of retained axes
func (f *fit) Components() int {
	_, k := f.desc.coord.Dims()
	return k
}

// DimDesc describes axis (0-based) by the variables and categories
// significantly linked to it
func (f *fit) DimDesc(axis int, significance float64) (*AxisDescription, error) {
	return f.desc.describe(axis, significance)
}

func section(s *Section, name string) (*Section, error) {
	if s == nil {
		return nil, core.NewResultUnavailableError(name)
	}
	return s, nil
}

func linkSection(s *LinkSection, name string) (*LinkSection, error) {
	if s == nil {
		return nil, core.NewResultUnavailableError(name)
	}
	return s, nil
}

// activeSection builds the section of elements that define the axes
func activeSection(labels []string, weights []float64, coord *mat.Dense, dist2 []float64, a *axes) *Section {
	return &Section{
		Labels:  labels,
		Weights: weights,
		Coord:   coord,
		Contrib: contributions(coord, weights, a),
		Cos2:    squaredCosines(coord, dist2),
		Dist2:   dist2,
	}
}

// supplementarySection builds the section of projected elements
func supplementarySection(labels []string, coord *mat.Dense, dist2 []float64) *Section {
	return &Section{
		Labels: labels,
		Coord:  coord,
		Cos2:   squaredCosines(coord, dist2),
		Dist2:  dist2,
	}
}

var (
	_ Result = (*PCAResult)(nil)
	_ Result = (*CAResult)(nil)
	_ Result = (*MCAResult)(nil)
	_ Result = (*FAMDResult)(nil)
	_ Result = (*MFAResult)(nil)
)
