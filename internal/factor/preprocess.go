package factor

import (
	"fmt"
	"math"
	"strings"

	"gofacto/domain/core"
	"gofacto/domain/table"
	"gofacto/internal/linalg"
)

// rules describes which roles and column kinds a variant accepts
type rules struct {
	variant        string
	activeKinds    []table.ColumnKind
	colSup         bool
	quantiSup      bool
	qualiSup       bool
	groups         bool
	exclusion      bool
	colWeights     bool
	dataRowWeights bool // row masses come from the data (CA), RowWeights not accepted
}

// partition is the ElementSet of one fit: which table rows and columns are
// active and which supplementary class every other element belongs to
type partition struct {
	tbl        *table.Table
	active     []int
	sup        []int
	isActive   []bool
	activeCols []int
	colSup     []int
	quantiSup  []int
	qualiSup   []int
	rowWeights []float64 // over active rows, sums to 1
}

func (p *partition) numActive() int { return len(p.active) }

func (p *partition) rowLabels(rows []int) []string {
	out := make([]string, len(rows))
	for k, i := range rows {
		out[k] = p.tbl.RowNames[i]
	}
	return out
}

// preprocess validates cfg against tbl and splits the table into roles
func preprocess(tbl *table.Table, cfg Config, r rules) (*partition, error) {
	if tbl == nil || tbl.NumRows() == 0 || tbl.NumColumns() == 0 {
		return nil, core.NewConfigurationError("%s: empty table", r.variant)
	}
	if err := cfg.validateCommon(); err != nil {
		return nil, err
	}

	n, p := tbl.NumRows(), tbl.NumColumns()

	if len(cfg.ColSup) > 0 && !r.colSup {
		return nil, fmt.Errorf("%w: %s has no supplementary columns", core.ErrUnsupportedVariant, r.variant)
	}
	if len(cfg.QuantiSup) > 0 && !r.quantiSup {
		return nil, fmt.Errorf("%w: %s does not take supplementary continuous variables", core.ErrUnsupportedVariant, r.variant)
	}
	if len(cfg.QualiSup) > 0 && !r.qualiSup {
		return nil, fmt.Errorf("%w: %s does not take supplementary categorical variables", core.ErrUnsupportedVariant, r.variant)
	}
	if len(cfg.Groups) > 0 && !r.groups {
		return nil, fmt.Errorf("%w: %s does not take groups", core.ErrUnsupportedVariant, r.variant)
	}
	if len(cfg.Excluded) > 0 && !r.exclusion {
		return nil, fmt.Errorf("%w: %s does not take excluded categories", core.ErrUnsupportedVariant, r.variant)
	}
	if len(cfg.ColWeights) > 0 && !r.colWeights {
		return nil, fmt.Errorf("%w: %s does not take column weights", core.ErrUnsupportedVariant, r.variant)
	}
	if len(cfg.RowWeights) > 0 && r.dataRowWeights {
		return nil, fmt.Errorf("%w: %s row masses come from the table margins", core.ErrUnsupportedVariant, r.variant)
	}

	part := &partition{tbl: tbl, isActive: make([]bool, n)}

	seenRows := make(map[int]bool, len(cfg.RowSup))
	for _, i := range cfg.RowSup {
		if i < 0 || i >= n {
			return nil, core.NewIndexError("supplementary row", i, n)
		}
		if seenRows[i] {
			return nil, fmt.Errorf("%w: supplementary row %d", core.ErrDuplicate, i)
		}
		seenRows[i] = true
	}
	for i := 0; i < n; i++ {
		if seenRows[i] {
			part.sup = append(part.sup, i)
		} else {
			part.active = append(part.active, i)
			part.isActive[i] = true
		}
	}

	seenCols := make(map[int]string, p)
	claim := func(role string, idx []int) error {
		for _, j := range idx {
			if j < 0 || j >= p {
				return core.NewIndexError(role, j, p)
			}
			if prev, ok := seenCols[j]; ok {
				return fmt.Errorf("%w: column %q is both %s and %s", core.ErrDuplicate, tbl.Columns[j].Name, prev, role)
			}
			seenCols[j] = role
		}
		return nil
	}
	if err := claim("supplementary column", cfg.ColSup); err != nil {
		return nil, err
	}
	if err := claim("supplementary continuous variable", cfg.QuantiSup); err != nil {
		return nil, err
	}
	if err := claim("supplementary categorical variable", cfg.QualiSup); err != nil {
		return nil, err
	}
	part.colSup = append(part.colSup, cfg.ColSup...)
	part.quantiSup = append(part.quantiSup, cfg.QuantiSup...)
	part.qualiSup = append(part.qualiSup, cfg.QualiSup...)
	for j := 0; j < p; j++ {
		if _, ok := seenCols[j]; !ok {
			part.activeCols = append(part.activeCols, j)
		}
	}

	if len(part.active) < 2 {
		return nil, fmt.Errorf("%w: %s needs at least 2 active rows, got %d", core.ErrTooFewElements, r.variant, len(part.active))
	}
	if len(part.activeCols) < 2 && !r.groups {
		return nil, fmt.Errorf("%w: %s needs at least 2 active columns, got %d", core.ErrTooFewElements, r.variant, len(part.activeCols))
	}

	if !r.groups {
		for _, j := range part.activeCols {
			col := tbl.Columns[j]
			if !kindAllowed(col.Kind, r.activeKinds) {
				return nil, core.NewColumnKindError(col.Name, string(col.Kind), r.variant+" active column")
			}
		}
	}
	for _, j := range part.quantiSup {
		col := tbl.Columns[j]
		if !col.Kind.IsNumeric() {
			return nil, core.NewColumnKindError(col.Name, string(col.Kind), "supplementary continuous variable")
		}
	}
	for _, j := range part.qualiSup {
		col := tbl.Columns[j]
		if col.Kind != table.KindCategorical {
			return nil, core.NewColumnKindError(col.Name, string(col.Kind), "supplementary categorical variable")
		}
	}
	for _, j := range part.colSup {
		col := tbl.Columns[j]
		if !col.Kind.IsNumeric() {
			return nil, core.NewColumnKindError(col.Name, string(col.Kind), "supplementary frequency column")
		}
		if err := checkCounts(col, part.active); err != nil {
			return nil, err
		}
	}

	if !r.dataRowWeights {
		w, err := activeRowWeights(cfg.RowWeights, part.active, n)
		if err != nil {
			return nil, err
		}
		part.rowWeights = w
	}

	return part, nil
}

func kindAllowed(k table.ColumnKind, allowed []table.ColumnKind) bool {
	for _, a := range allowed {
		if a == k {
			return true
		}
	}
	return false
}

func activeRowWeights(weights []float64, active []int, n int) ([]float64, error) {
	if len(weights) == 0 {
		return linalg.Uniform(len(active)), nil
	}
	if len(weights) != n {
		return nil, core.NewConfigurationError("row weights: got %d, table has %d rows", len(weights), n)
	}
	out := make([]float64, len(active))
	for k, i := range active {
		w := weights[i]
		if !(w > 0) || math.IsInf(w, 0) {
			return nil, core.NewConfigurationError("row weight %d must be positive, got %v", i, w)
		}
		out[k] = w
	}
	return linalg.Normalize(out), nil
}

// checkCounts rejects negative or missing counts among active rows
func checkCounts(col table.Column, active []int) error {
	for _, i := range active {
		v := col.Values[i]
		if math.IsNaN(v) {
			return core.NewConfigurationError("column %q: missing count on active row %d", col.Name, i)
		}
		if v < 0 {
			return core.NewConfigurationError("column %q: negative count %v on row %d", col.Name, v, i)
		}
	}
	return nil
}

// categorical is an encoded categorical column. Levels are ordered by first
// appearance among active rows; codes hold the level of every table row, or
// -1 for missing values and levels never observed among active rows.
type categorical struct {
	name   string
	levels []string
	codes  []int
}

// encodeCategorical builds the level set from active rows. Active variables
// may not have missing cells.
func encodeCategorical(col table.Column, active []int, activeVariable bool) (*categorical, error) {
	c := &categorical{name: col.Name, codes: make([]int, len(col.Labels))}
	index := make(map[string]int)
	for _, i := range active {
		label := strings.TrimSpace(col.Labels[i])
		if label == "" {
			if activeVariable {
				return nil, core.NewConfigurationError("column %q: missing category on active row %d", col.Name, i)
			}
			continue
		}
		if _, ok := index[label]; !ok {
			index[label] = len(c.levels)
			c.levels = append(c.levels, label)
		}
	}
	if len(c.levels) < 2 {
		return nil, fmt.Errorf("%w: column %q has %d", core.ErrTooFewCategories, col.Name, len(c.levels))
	}
	for i, raw := range col.Labels {
		code, ok := index[strings.TrimSpace(raw)]
		if !ok {
			code = -1
		}
		c.codes[i] = code
	}
	return c, nil
}

// categoryLabels names the level columns "<variable>_<level>"
func (c *categorical) categoryLabels() []string {
	out := make([]string, len(c.levels))
	for k, l := range c.levels {
		out[k] = c.name + "_" + l
	}
	return out
}

// masses returns per-level weight and count over active rows
func (c *categorical) masses(active []int, rowWeights []float64) (weights, counts []float64) {
	weights = make([]float64, len(c.levels))
	counts = make([]float64, len(c.levels))
	for k, i := range active {
		if code := c.codes[i]; code >= 0 {
			weights[code] += rowWeights[k]
			counts[code]++
		}
	}
	return weights, counts
}

// encodeAll encodes several categorical columns
func encodeAll(tbl *table.Table, cols []int, part *partition, activeVariables bool) ([]*categorical, error) {
	out := make([]*categorical, 0, len(cols))
	for _, j := range cols {
		col := tbl.Columns[j]
		if col.Kind != table.KindCategorical {
			return nil, core.NewColumnKindError(col.Name, string(col.Kind), "categorical variable")
		}
		c, err := encodeCategorical(col, part.active, activeVariables)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// columnsOfKind filters column indices by kind
func columnsOfKind(tbl *table.Table, cols []int, kinds ...table.ColumnKind) []int {
	var out []int
	for _, j := range cols {
		if kindAllowed(tbl.Columns[j].Kind, kinds) {
			out = append(out, j)
		}
	}
	return out
}
