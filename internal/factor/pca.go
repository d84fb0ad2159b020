package factor

import (
	"math"

	"gofacto/domain/core"
	"gofacto/domain/table"
	"gofacto/internal"
)

var pcaRules = rules{
	variant:     "PCA",
	activeKinds: []table.ColumnKind{table.KindContinuous},
	quantiSup:   true,
	qualiSup:    true,
	colWeights:  true,
}

// PCA is principal component analysis of continuous columns
type PCA struct {
	cfg Config
}

// NewPCA configures a principal component analysis. Columns are standardised
// unless cfg.Unscaled is set.
func NewPCA(cfg Config) *PCA {
	return &PCA{cfg: cfg.clone()}
}

// PCAResult is an immutable PCA fit
type PCAResult struct {
	fit
	individuals  *Section
	variables    *Section
	indSup       *Section
	quantiSup    *Section
	qualiSup     *Section
	qualiSupEta2 *LinkSection
}

// Fit runs the analysis on tbl
func (p *PCA) Fit(tbl *table.Table) (*PCAResult, error) {
	cfg := p.cfg
	part, err := preprocess(tbl, cfg, pcaRules)
	if err != nil {
		return nil, err
	}
	if err := checkColumnWeights(cfg.ColWeights, len(part.activeCols)); err != nil {
		return nil, err
	}
	qualiSup, err := encodeAll(tbl, part.qualiSup, part, false)
	if err != nil {
		return nil, err
	}

	internal.DefaultLogger.Debug("[factor] PCA: %d active rows, %d active columns, table %s",
		part.numActive(), len(part.activeCols), tbl.Fingerprint().Short())

	d := newDesign(newScaledBlock(tbl, part.activeCols, part, part.rowWeights, !cfg.Unscaled, cfg.ColWeights))
	x := d.matrix(part.active)
	colWeights := d.weights()
	a, err := decompose(x, part.rowWeights, colWeights, decomposeOptions{
		components: cfg.Components,
		maxRank:    min(part.numActive()-1, len(part.activeCols)),
	})
	if err != nil {
		return nil, err
	}

	res := &PCAResult{fit: newFit("PCA", tbl.Fingerprint(), cfg, a)}
	res.individuals = activeSection(part.rowLabels(part.active), part.rowWeights, a.rowCoord, rowDistances(x, colWeights), a)
	res.variables = activeSection(d.labels(), colWeights, a.colCoord, columnDistances(x, part.rowWeights), a)

	if len(part.sup) > 0 {
		coord, dist2 := projectRows(d, part.sup, a)
		res.indSup = supplementarySection(part.rowLabels(part.sup), coord, dist2)
	}
	if len(part.quantiSup) > 0 {
		sb := newScaledBlock(tbl, part.quantiSup, part, part.rowWeights, !cfg.Unscaled, nil)
		coord, dist2 := projectColumns(sb, part.active, a)
		res.quantiSup = supplementarySection(sb.labels(), coord, dist2)
	}
	res.qualiSup, res.qualiSupEta2 = rowSpaceCategories(qualiSup, part, part.rowWeights, a, x, colWeights)

	res.desc = newDescriptor(part, part.rowWeights, a, cfg.Parallelize)
	res.desc.addContinuous(part, part.activeCols, false)
	res.desc.addContinuous(part, part.quantiSup, true)
	res.desc.addCategorical(qualiSup, true)

	internal.DefaultLogger.Debug("[factor] PCA: kept %d axes, %.2f%% of inertia", a.k(), res.eigen.Cumulative[a.k()-1])
	return res, nil
}

// Sections lists the available sections
func (r *PCAResult) Sections() []NamedSection {
	out := appendSection(nil, "individuals", r.individuals)
	out = appendSection(out, "variables", r.variables)
	out = appendSection(out, "supplementary individuals", r.indSup)
	out = appendSection(out, "supplementary continuous variables", r.quantiSup)
	return appendSection(out, "supplementary categories", r.qualiSup)
}

// Individuals returns the active rows
func (r *PCAResult) Individuals() *Section { return r.individuals }

// Variables returns the active columns; with standardised columns the
// coordinates are correlations with the axes
func (r *PCAResult) Variables() *Section { return r.variables }

// SupplementaryIndividuals returns the projected supplementary rows
func (r *PCAResult) SupplementaryIndividuals() (*Section, error) {
	return section(r.indSup, "supplementary individuals")
}

// SupplementaryQuantitative returns the projected supplementary continuous variables
func (r *PCAResult) SupplementaryQuantitative() (*Section, error) {
	return section(r.quantiSup, "supplementary continuous variables")
}

// SupplementaryCategories returns the levels of supplementary categorical variables
func (r *PCAResult) SupplementaryCategories() (*Section, error) {
	return section(r.qualiSup, "supplementary categorical variables")
}

// SupplementaryQualitative returns eta² of supplementary categorical variables
func (r *PCAResult) SupplementaryQualitative() (*LinkSection, error) {
	return linkSection(r.qualiSupEta2, "supplementary categorical variables")
}

func checkColumnWeights(w []float64, active int) error {
	if len(w) == 0 {
		return nil
	}
	if len(w) != active {
		return core.NewConfigurationError("column weights: got %d, want one per active column (%d)", len(w), active)
	}
	var total float64
	for j, v := range w {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return core.NewConfigurationError("column weight %d must be a non-negative number, got %v", j, v)
		}
		total += v
	}
	if total == 0 {
		return core.NewConfigurationError("column weights are all zero")
	}
	return nil
}
