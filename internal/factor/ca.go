package factor

import (
	"fmt"
	"math"

	"gofacto/domain/core"
	"gofacto/domain/table"
	"gofacto/internal"
)

var caRules = rules{
	variant:        "CA",
	activeKinds:    []table.ColumnKind{table.KindFrequency, table.KindContinuous},
	colSup:         true,
	quantiSup:      true,
	qualiSup:       true,
	exclusion:      true,
	dataRowWeights: true,
}

// CA is correspondence analysis of a contingency table. Naming active
// columns in Config.Excluded (with no levels) gives the specific analysis:
// those columns keep their share of the margins but leave the decomposition.
type CA struct {
	cfg Config
}

// NewCA configures a correspondence analysis
func NewCA(cfg Config) *CA {
	return &CA{cfg: cfg.clone()}
}

// ChiSquareTest is the test of independence of the active table
type ChiSquareTest struct {
	Statistic float64 `json:"statistic" yaml:"statistic"`
	DOF       int     `json:"dof" yaml:"dof"`
	PValue    float64 `json:"p_value" yaml:"p_value"`
}

// CAResult is an immutable CA fit
type CAResult struct {
	fit
	rows         *Section
	cols         *Section
	rowSup       *Section
	colSup       *Section
	quantiSup    *Section
	qualiSup     *Section
	qualiSupEta2 *LinkSection
	chi2         ChiSquareTest
}

// Fit runs the analysis on tbl
func (c *CA) Fit(tbl *table.Table) (*CAResult, error) {
	cfg := c.cfg
	part, err := preprocess(tbl, cfg, caRules)
	if err != nil {
		return nil, err
	}
	for _, j := range part.activeCols {
		if err := checkCounts(tbl.Columns[j], part.active); err != nil {
			return nil, err
		}
	}
	keep, err := caKeptColumns(tbl, part, cfg.Excluded)
	if err != nil {
		return nil, err
	}
	qualiSup, err := encodeAll(tbl, part.qualiSup, part, false)
	if err != nil {
		return nil, err
	}

	rowTotal := func(i int) float64 {
		var t float64
		for _, j := range part.activeCols {
			if v := tbl.Columns[j].Values[i]; !math.IsNaN(v) {
				t += v
			}
		}
		return t
	}
	var grand float64
	rowMass := make([]float64, part.numActive())
	for k, i := range part.active {
		rowMass[k] = rowTotal(i)
		if rowMass[k] <= 0 {
			return nil, fmt.Errorf("%w: row %q has a zero total", core.ErrEmptyElement, tbl.RowNames[i])
		}
		grand += rowMass[k]
	}
	for k := range rowMass {
		rowMass[k] /= grand
	}

	full := newContingencyBlock(tbl, part.activeCols, part.active, rowTotal, grand)
	for k, m := range full.colMass {
		if m <= 0 {
			return nil, fmt.Errorf("%w: column %q has a zero total", core.ErrEmptyElement, full.names[k])
		}
	}

	var active block = full
	maxRank := min(part.numActive()-1, len(part.activeCols)-1)
	if len(keep) < len(part.activeCols) {
		active = &subsetBlock{inner: full, keep: keep}
		maxRank = min(part.numActive()-1, len(keep))
	}

	internal.DefaultLogger.Debug("[factor] CA: %d×%d active table, grand total %.6g, %d columns excluded",
		part.numActive(), len(part.activeCols), grand, len(part.activeCols)-len(keep))

	d := newDesign(active)
	x := d.matrix(part.active)
	colWeights := d.weights()
	a, err := decompose(x, rowMass, colWeights, decomposeOptions{
		components: cfg.Components,
		maxRank:    maxRank,
		allowNull:  true,
	})
	if err != nil {
		return nil, err
	}

	res := &CAResult{fit: newFit("CA", tbl.Fingerprint(), cfg, a)}
	res.rows = activeSection(part.rowLabels(part.active), rowMass, a.rowCoord, rowDistances(x, colWeights), a)
	res.cols = activeSection(d.labels(), colWeights, a.colCoord, columnDistances(x, rowMass), a)
	res.chi2 = independenceTest(tbl, part)

	if len(part.sup) > 0 {
		coord, dist2 := projectRows(d, part.sup, a)
		res.rowSup = supplementarySection(part.rowLabels(part.sup), coord, dist2)
	}
	if len(part.colSup) > 0 {
		sb := newContingencyBlock(tbl, part.colSup, part.active, rowTotal, grand)
		coord, dist2 := projectColumns(sb, part.active, a)
		res.colSup = supplementarySection(sb.labels(), coord, dist2)
	}
	res.quantiSup, err = continuousLinks(part, part.quantiSup, rowMass, a, cfg.Parallelize)
	if err != nil {
		return nil, err
	}
	res.qualiSup, res.qualiSupEta2 = rowSpaceCategories(qualiSup, part, rowMass, a, x, colWeights)

	res.desc = newDescriptor(part, rowMass, a, cfg.Parallelize)
	res.desc.addContinuous(part, part.quantiSup, true)
	res.desc.addCategorical(qualiSup, true)
	res.desc.rows = res.rows
	res.desc.cols = res.cols

	return res, nil
}

// caKeptColumns resolves the exclusion map of a specific CA into the
// positions of the active columns that stay in the decomposition
func caKeptColumns(tbl *table.Table, part *partition, excluded map[string][]string) ([]int, error) {
	drop := make(map[int]bool, len(excluded))
	for name, levels := range excluded {
		if len(levels) > 0 {
			return nil, core.NewConfigurationError("CA exclusion %q: columns are excluded whole, levels are not allowed", name)
		}
		found := false
		for k, j := range part.activeCols {
			if tbl.Columns[j].Name == name {
				drop[k] = true
				found = true
			}
		}
		if !found {
			return nil, core.NewConfigurationError("CA exclusion: %q is not an active column", name)
		}
	}
	keep := make([]int, 0, len(part.activeCols))
	for k := range part.activeCols {
		if !drop[k] {
			keep = append(keep, k)
		}
	}
	if len(keep) < 2 {
		return nil, fmt.Errorf("%w: CA keeps %d active columns after exclusion", core.ErrTooFewElements, len(keep))
	}
	return keep, nil
}

// independenceTest is Pearson's chi-square on the active rows and columns
func independenceTest(tbl *table.Table, part *partition) ChiSquareTest {
	rows := make([]float64, part.numActive())
	cols := make([]float64, len(part.activeCols))
	var grand float64
	for r, i := range part.active {
		for c, j := range part.activeCols {
			v := tbl.Columns[j].Values[i]
			rows[r] += v
			cols[c] += v
			grand += v
		}
	}
	var stat float64
	for r, i := range part.active {
		for c, j := range part.activeCols {
			e := rows[r] * cols[c] / grand
			if e == 0 {
				continue
			}
			diff := tbl.Columns[j].Values[i] - e
			stat += diff * diff / e
		}
	}
	dof := (len(rows) - 1) * (len(cols) - 1)
	return ChiSquareTest{Statistic: stat, DOF: dof, PValue: chiSquarePValue(stat, dof)}
}

// Sections lists the available sections
func (r *CAResult) Sections() []NamedSection {
	out := appendSection(nil, "rows", r.rows)
	out = appendSection(out, "columns", r.cols)
	out = appendSection(out, "supplementary rows", r.rowSup)
	out = appendSection(out, "supplementary columns", r.colSup)
	out = appendSection(out, "supplementary continuous variables", r.quantiSup)
	return appendSection(out, "supplementary categories", r.qualiSup)
}

// Rows returns the active rows
func (r *CAResult) Rows() *Section { return r.rows }

// Columns returns the active columns kept in the decomposition
func (r *CAResult) Columns() *Section { return r.cols }

// ChiSquare returns the independence test of the active table
func (r *CAResult) ChiSquare() ChiSquareTest { return r.chi2 }

// SupplementaryRows returns the projected supplementary rows
func (r *CAResult) SupplementaryRows() (*Section, error) {
	return section(r.rowSup, "supplementary rows")
}

// SupplementaryColumns returns the projected supplementary frequency columns
func (r *CAResult) SupplementaryColumns() (*Section, error) {
	return section(r.colSup, "supplementary columns")
}

// SupplementaryQuantitative returns the correlations of supplementary continuous variables
func (r *CAResult) SupplementaryQuantitative() (*Section, error) {
	return section(r.quantiSup, "supplementary continuous variables")
}

// SupplementaryCategories returns the levels of supplementary categorical variables
func (r *CAResult) SupplementaryCategories() (*Section, error) {
	return section(r.qualiSup, "supplementary categorical variables")
}

// SupplementaryQualitative returns eta² of supplementary categorical variables
func (r *CAResult) SupplementaryQualitative() (*LinkSection, error) {
	return linkSection(r.qualiSupEta2, "supplementary categorical variables")
}
