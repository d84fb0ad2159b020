package factor

import (
	"fmt"

	"gofacto/domain/core"
	"gofacto/domain/table"
	"gofacto/internal"

	"gonum.org/v1/gonum/mat"
)

var famdRules = rules{
	variant:     "FAMD",
	activeKinds: []table.ColumnKind{table.KindContinuous, table.KindCategorical},
	quantiSup:   true,
	qualiSup:    true,
}

// FAMD is factor analysis of mixed data: standardised continuous columns
// and indicator columns weighted by their proportion share one metric
type FAMD struct {
	cfg Config
}

// NewFAMD configures a factor analysis of mixed data
func NewFAMD(cfg Config) *FAMD {
	return &FAMD{cfg: cfg.clone()}
}

// FAMDResult is an immutable FAMD fit
type FAMDResult struct {
	fit
	individuals  *Section
	quantitative *Section
	categories   *Section
	variables    *LinkSection
	indSup       *Section
	quantiSup    *Section
	qualiSup     *Section
	qualiSupEta2 *LinkSection
}

// Fit runs the analysis on tbl
func (f *FAMD) Fit(tbl *table.Table) (*FAMDResult, error) {
	cfg := f.cfg
	part, err := preprocess(tbl, cfg, famdRules)
	if err != nil {
		return nil, err
	}
	contCols := columnsOfKind(tbl, part.activeCols, table.KindContinuous)
	catCols := columnsOfKind(tbl, part.activeCols, table.KindCategorical)
	if len(contCols) == 0 || len(catCols) == 0 {
		return nil, fmt.Errorf("%w: FAMD needs both continuous and categorical active columns (got %d and %d), use PCA or MCA",
			core.ErrUnsupportedVariant, len(contCols), len(catCols))
	}
	vars, err := encodeAll(tbl, catCols, part, true)
	if err != nil {
		return nil, err
	}
	qualiSup, err := encodeAll(tbl, part.qualiSup, part, false)
	if err != nil {
		return nil, err
	}

	sb := newScaledBlock(tbl, contCols, part, part.rowWeights, true, nil)
	ib := newIndicatorBlock(vars, part, part.rowWeights, 1)
	d := newDesign(sb, ib)
	x := d.matrix(part.active)
	colWeights := d.weights()

	internal.DefaultLogger.Debug("[factor] FAMD: %d active rows, %d continuous and %d categorical variables",
		part.numActive(), len(contCols), len(vars))

	a, err := decompose(x, part.rowWeights, colWeights, decomposeOptions{
		components: cfg.Components,
		maxRank:    min(part.numActive()-1, len(contCols)+len(ib.props)-len(vars)),
	})
	if err != nil {
		return nil, err
	}

	res := &FAMDResult{fit: newFit("FAMD", tbl.Fingerprint(), cfg, a)}
	res.individuals = activeSection(part.rowLabels(part.active), part.rowWeights, a.rowCoord, rowDistances(x, colWeights), a)

	colDist := columnDistances(x, part.rowWeights)
	contEnd := len(contCols)
	res.quantitative = activeSection(sb.labels(), colWeights[:contEnd],
		rowsRange(a.colCoord, 0, contEnd), colDist[:contEnd], a)

	cats, catLinks := rowSpaceCategories(vars, part, part.rowWeights, a, x, colWeights)
	cats.Contrib = contributions(rowsRange(a.colCoord, contEnd, len(colWeights)), colWeights[contEnd:], a)
	res.categories = cats

	// squared correlations for continuous variables, eta² for categorical ones
	links := &LinkSection{
		Labels:  append(append([]string(nil), sb.labels()...), catLinks.Labels...),
		Eta2:    mat.NewDense(len(contCols)+len(vars), a.k(), nil),
		Contrib: mat.NewDense(len(contCols)+len(vars), a.k(), nil),
	}
	for j := 0; j < contEnd; j++ {
		links.Eta2.SetRow(j, res.quantitative.Cos2.RawRowView(j))
		links.Contrib.SetRow(j, res.quantitative.Contrib.RawRowView(j))
	}
	for v := range vars {
		links.Eta2.SetRow(contEnd+v, catLinks.Eta2.RawRowView(v))
		start := ib.offsets[v]
		for l := range vars[v].levels {
			for k := 0; k < a.k(); k++ {
				links.Contrib.Set(contEnd+v, k, links.Contrib.At(contEnd+v, k)+cats.Contrib.At(start+l, k))
			}
		}
	}
	res.variables = links

	if len(part.sup) > 0 {
		coord, dist2 := projectRows(d, part.sup, a)
		res.indSup = supplementarySection(part.rowLabels(part.sup), coord, dist2)
	}
	if len(part.quantiSup) > 0 {
		qb := newScaledBlock(tbl, part.quantiSup, part, part.rowWeights, true, nil)
		coord, dist2 := projectColumns(qb, part.active, a)
		res.quantiSup = supplementarySection(qb.labels(), coord, dist2)
	}
	res.qualiSup, res.qualiSupEta2 = rowSpaceCategories(qualiSup, part, part.rowWeights, a, x, colWeights)

	res.desc = newDescriptor(part, part.rowWeights, a, cfg.Parallelize)
	res.desc.addContinuous(part, contCols, false)
	res.desc.addContinuous(part, part.quantiSup, true)
	res.desc.addCategorical(vars, false)
	res.desc.addCategorical(qualiSup, true)

	return res, nil
}

// rowsRange copies rows [from, to) of m
func rowsRange(m *mat.Dense, from, to int) *mat.Dense {
	_, k := m.Dims()
	return mat.DenseCopyOf(m.Slice(from, to, 0, k))
}

// Sections lists the available sections
func (r *FAMDResult) Sections() []NamedSection {
	out := appendSection(nil, "individuals", r.individuals)
	out = appendSection(out, "continuous variables", r.quantitative)
	out = appendSection(out, "categories", r.categories)
	out = appendSection(out, "supplementary individuals", r.indSup)
	out = appendSection(out, "supplementary continuous variables", r.quantiSup)
	return appendSection(out, "supplementary categories", r.qualiSup)
}

// Individuals returns the active rows
func (r *FAMDResult) Individuals() *Section { return r.individuals }

// Quantitative returns the active continuous variables
func (r *FAMDResult) Quantitative() *Section { return r.quantitative }

// Categories returns the levels of the active categorical variables
func (r *FAMDResult) Categories() *Section { return r.categories }

// Variables returns the squared link and contribution of every active variable
func (r *FAMDResult) Variables() *LinkSection { return r.variables }

// SupplementaryIndividuals returns the projected supplementary rows
func (r *FAMDResult) SupplementaryIndividuals() (*Section, error) {
	return section(r.indSup, "supplementary individuals")
}

// SupplementaryQuantitative returns the projected supplementary continuous variables
func (r *FAMDResult) SupplementaryQuantitative() (*Section, error) {
	return section(r.quantiSup, "supplementary continuous variables")
}

// SupplementaryCategories returns the levels of supplementary categorical variables
func (r *FAMDResult) SupplementaryCategories() (*Section, error) {
	return section(r.qualiSup, "supplementary categorical variables")
}

// SupplementaryQualitative returns eta² of supplementary categorical variables
func (r *FAMDResult) SupplementaryQualitative() (*LinkSection, error) {
	return linkSection(r.qualiSupEta2, "supplementary categorical variables")
}
