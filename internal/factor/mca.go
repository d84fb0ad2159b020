package factor

import (
	"fmt"

	"gofacto/domain/core"
	"gofacto/domain/table"
	"gofacto/internal"

	"gonum.org/v1/gonum/mat"
)

var mcaRules = rules{
	variant:     "MCA",
	activeKinds: []table.ColumnKind{table.KindCategorical},
	quantiSup:   true,
	qualiSup:    true,
	exclusion:   true,
}

// MCA is multiple correspondence analysis of categorical columns. Levels
// listed in Config.Excluded give the specific analysis: they keep their
// weight in the margins but leave the decomposition.
type MCA struct {
	cfg Config
}

// NewMCA configures a multiple correspondence analysis
func NewMCA(cfg Config) *MCA {
	return &MCA{cfg: cfg.clone()}
}

// MCAResult is an immutable MCA fit
type MCAResult struct {
	fit
	individuals  *Section
	categories   *Section
	variables    *LinkSection
	indSup       *Section
	quantiSup    *Section
	qualiSup     *Section
	qualiSupEta2 *LinkSection
	associations []Association
}

// Fit runs the analysis on tbl
func (m *MCA) Fit(tbl *table.Table) (*MCAResult, error) {
	cfg := m.cfg
	part, err := preprocess(tbl, cfg, mcaRules)
	if err != nil {
		return nil, err
	}
	vars, err := encodeAll(tbl, part.activeCols, part, true)
	if err != nil {
		return nil, err
	}
	qualiSup, err := encodeAll(tbl, part.qualiSup, part, false)
	if err != nil {
		return nil, err
	}

	q := float64(len(vars))
	ib := newIndicatorBlock(vars, part, part.rowWeights, 1/q)
	keep, err := mcaKeptLevels(vars, ib, cfg.Excluded)
	if err != nil {
		return nil, err
	}

	var active block = ib
	levels := len(ib.props)
	maxRank := min(part.numActive()-1, levels-len(vars))
	if len(keep) < levels {
		active = &subsetBlock{inner: ib, keep: keep}
		maxRank = min(part.numActive()-1, len(keep))
	}

	internal.DefaultLogger.Debug("[factor] MCA: %d active rows, %d variables, %d categories (%d excluded)",
		part.numActive(), len(vars), levels, levels-len(keep))

	d := newDesign(active)
	x := d.matrix(part.active)
	colWeights := d.weights()
	a, err := decompose(x, part.rowWeights, colWeights, decomposeOptions{
		components: cfg.Components,
		maxRank:    maxRank,
	})
	if err != nil {
		return nil, err
	}

	res := &MCAResult{fit: newFit("MCA", tbl.Fingerprint(), cfg, a)}
	res.individuals = activeSection(part.rowLabels(part.active), part.rowWeights, a.rowCoord, rowDistances(x, colWeights), a)

	cats := activeSection(d.labels(), colWeights, a.colCoord, columnDistances(x, part.rowWeights), a)
	links := &LinkSection{
		Eta2:    mat.NewDense(len(vars), a.k(), nil),
		Contrib: mat.NewDense(len(vars), a.k(), nil),
	}
	var tests []*mat.Dense
	for v, cat := range vars {
		g := barycenters(cat, part.active, part.rowWeights, a.rowCoord)
		tests = append(tests, valueTests(g, part.numActive(), a.lambdas()))
		links.Labels = append(links.Labels, cat.name)
		links.Eta2.SetRow(v, correlationRatio(g, part.rowWeights, a.rowCoord))
	}
	cats.VTest = pickRows(stackRows(tests, a.k()), keep)
	for c, pos := range keep {
		v := variableOf(ib, pos)
		for k := 0; k < a.k(); k++ {
			links.Contrib.Set(v, k, links.Contrib.At(v, k)+cats.Contrib.At(c, k))
		}
	}
	res.categories = cats
	res.variables = links

	if len(part.sup) > 0 {
		coord, dist2 := projectRows(d, part.sup, a)
		res.indSup = supplementarySection(part.rowLabels(part.sup), coord, dist2)
	}
	res.qualiSup, res.qualiSupEta2 = columnSpaceCategories(qualiSup, part, part.rowWeights, a)
	res.quantiSup, err = continuousLinks(part, part.quantiSup, part.rowWeights, a, cfg.Parallelize)
	if err != nil {
		return nil, err
	}

	res.associations, err = associations(append(append([]*categorical(nil), vars...), qualiSup...), part.active, cfg.Parallelize)
	if err != nil {
		return nil, err
	}

	res.desc = newDescriptor(part, part.rowWeights, a, cfg.Parallelize)
	res.desc.addCategorical(vars, false)
	res.desc.addCategorical(qualiSup, true)
	res.desc.addContinuous(part, part.quantiSup, true)

	return res, nil
}

// mcaKeptLevels resolves the exclusion map into indicator column positions
func mcaKeptLevels(vars []*categorical, ib *indicatorBlock, excluded map[string][]string) ([]int, error) {
	drop := make(map[int]bool)
	for name, levels := range excluded {
		v := -1
		for k, cat := range vars {
			if cat.name == name {
				v = k
			}
		}
		if v < 0 {
			return nil, core.NewConfigurationError("MCA exclusion: %q is not an active variable", name)
		}
		if len(levels) == 0 {
			return nil, core.NewConfigurationError("MCA exclusion %q: no level given", name)
		}
		for _, level := range levels {
			l := indexOf(vars[v].levels, level)
			if l < 0 {
				return nil, core.NewConfigurationError("MCA exclusion: variable %q has no level %q", name, level)
			}
			drop[ib.offsets[v]+l] = true
		}
	}
	keep := make([]int, 0, len(ib.props))
	for k := range ib.props {
		if !drop[k] {
			keep = append(keep, k)
		}
	}
	if len(keep) < 2 {
		return nil, fmt.Errorf("%w: MCA keeps %d categories after exclusion", core.ErrTooFewElements, len(keep))
	}
	return keep, nil
}

// variableOf maps an indicator column position to its variable
func variableOf(ib *indicatorBlock, pos int) int {
	v := 0
	for k, off := range ib.offsets {
		if pos >= off {
			v = k
		}
	}
	return v
}

func indexOf(xs []string, s string) int {
	for i, x := range xs {
		if x == s {
			return i
		}
	}
	return -1
}

// pickRows keeps the given rows of m
func pickRows(m *mat.Dense, keep []int) *mat.Dense {
	_, k := m.Dims()
	out := mat.NewDense(len(keep), k, nil)
	for r, i := range keep {
		out.SetRow(r, m.RawRowView(i))
	}
	return out
}

// Associations tests every pair of categorical variables, active ones first
// then the supplementary ones
func (r *MCAResult) Associations() []Association { return r.associations }

// Sections lists the available sections
func (r *MCAResult) Sections() []NamedSection {
	out := appendSection(nil, "individuals", r.individuals)
	out = appendSection(out, "categories", r.categories)
	out = appendSection(out, "supplementary individuals", r.indSup)
	out = appendSection(out, "supplementary continuous variables", r.quantiSup)
	return appendSection(out, "supplementary categories", r.qualiSup)
}

// Individuals returns the active rows
func (r *MCAResult) Individuals() *Section { return r.individuals }

// Categories returns the active categories kept in the decomposition
func (r *MCAResult) Categories() *Section { return r.categories }

// Variables returns eta² and summed contributions of the active variables
func (r *MCAResult) Variables() *LinkSection { return r.variables }

// SupplementaryIndividuals returns the projected supplementary rows
func (r *MCAResult) SupplementaryIndividuals() (*Section, error) {
	return section(r.indSup, "supplementary individuals")
}

// SupplementaryQuantitative returns the correlations of supplementary continuous variables
func (r *MCAResult) SupplementaryQuantitative() (*Section, error) {
	return section(r.quantiSup, "supplementary continuous variables")
}

// SupplementaryCategories returns the levels of supplementary categorical variables
func (r *MCAResult) SupplementaryCategories() (*Section, error) {
	return section(r.qualiSup, "supplementary categorical variables")
}

// SupplementaryQualitative returns eta² of supplementary categorical variables
func (r *MCAResult) SupplementaryQualitative() (*LinkSection, error) {
	return linkSection(r.qualiSupEta2, "supplementary categorical variables")
}
