package factor

import (
	"fmt"
	"math"

	"gofacto/domain/core"
	"gofacto/domain/table"
	"gofacto/internal"

	"gonum.org/v1/gonum/mat"
)

var mfaRules = rules{
	variant: "MFA",
	groups:  true,
}

// MFA is multiple factor analysis of a table split into groups of columns.
// Each active group is weighted by the inverse first eigenvalue of its own
// separate analysis: PCA for continuous groups, MCA for categorical ones,
// FAMD for mixed ones and MFACT (global row margins) for frequency groups.
type MFA struct {
	cfg Config
}

// NewMFA configures a multiple factor analysis; cfg.Groups must cover every
// column of the table in order
func NewMFA(cfg Config) *MFA {
	return &MFA{cfg: cfg.clone()}
}

// MFAResult is an immutable MFA fit
type MFAResult struct {
	fit
	individuals       *Section
	partialInd        *PartialSection
	quantitative      *Section
	frequencies       *Section
	categories        *Section
	qualitative       *LinkSection
	partialCategories *PartialSection
	groups            *GroupSection
	coefficients      *Coefficients
	partialAxes       *PartialAxes

	indSup        *Section
	partialIndSup *PartialSection
	groupSup      *GroupSection
	quantiSup     *Section
	freqSup       *Section
	qualiSup      *Section
	qualiSupEta2  *LinkSection

	associations []Association
}

type mfaGroup struct {
	Group
	cols []int
	cont []int
	vars []*categorical
	blk  block
	x    *mat.Dense // transformed active rows
	w    []float64  // column weights before group balancing
	sep  *axes
}

// Fit runs the analysis on tbl
func (m *MFA) Fit(tbl *table.Table) (*MFAResult, error) {
	cfg := m.cfg
	if len(cfg.Groups) == 0 {
		return nil, core.NewConfigurationError("MFA needs at least one group")
	}
	part, err := preprocess(tbl, cfg, mfaRules)
	if err != nil {
		return nil, err
	}
	groups, err := resolveGroups(tbl, cfg.Groups)
	if err != nil {
		return nil, err
	}

	rowWeights := part.rowWeights
	var rowGrand func(int) float64
	var grand float64
	if groups[0].Kind == GroupFrequency {
		if len(cfg.RowWeights) > 0 {
			return nil, fmt.Errorf("%w: MFA on frequency groups takes its row masses from the table margins", core.ErrUnsupportedVariant)
		}
		rowWeights, rowGrand, grand, err = frequencyMargins(tbl, part, groups)
		if err != nil {
			return nil, err
		}
	}

	for _, g := range groups {
		if err := g.build(tbl, part, rowWeights, rowGrand, grand); err != nil {
			return nil, err
		}
	}

	err = forEach(len(groups), cfg.Parallelize, func(k int) error {
		g := groups[k]
		g.x = newDesign(g.blk).matrix(part.active)
		g.w = g.blk.weights()
		sep, err := decompose(g.x, rowWeights, g.w, decomposeOptions{})
		if err != nil {
			return fmt.Errorf("group %q: %w", g.Name, err)
		}
		g.sep = sep
		return nil
	})
	if err != nil {
		return nil, err
	}

	var active, sup []*mfaGroup
	for _, g := range groups {
		if g.Supplementary {
			sup = append(sup, g)
		} else {
			active = append(active, g)
		}
	}

	d := balancedDesign(active)
	x := d.matrix(part.active)
	colWeights := d.weights()

	internal.DefaultLogger.Debug("[factor] MFA: %d active rows, %d active groups, %d supplementary groups, %d active columns",
		part.numActive(), len(active), len(sup), len(colWeights))

	a, err := decompose(x, rowWeights, colWeights, decomposeOptions{
		components: cfg.Components,
		maxRank:    part.numActive() - 1,
	})
	if err != nil {
		return nil, err
	}

	res := &MFAResult{fit: newFit("MFA", tbl.Fingerprint(), cfg, a)}
	rowLabels := part.rowLabels(part.active)
	activeNames := groupNames(active)
	res.individuals = activeSection(rowLabels, rowWeights, a.rowCoord, rowDistances(x, colWeights), a)

	partial := partialRows(d, part.active, a)
	within, shares := withinInertia(a.rowCoord, partial, rowWeights)
	res.partialInd = &PartialSection{
		Labels:               rowLabels,
		Groups:               activeNames,
		Coord:                partial,
		WithinInertia:        within,
		WithinPartialInertia: shares,
	}

	cols := activeSection(d.labels(), colWeights, a.colCoord, columnDistances(x, rowWeights), a)
	contIdx, freqIdx, catIdx := columnRoles(d, active)
	res.quantitative = pickSection(cols, contIdx)
	res.frequencies = pickSection(cols, freqIdx)
	activeVars := groupVariables(active)
	res.categories, res.qualitative = rowSpaceCategories(activeVars, part, rowWeights, a, x, colWeights)
	if res.categories != nil {
		res.categories.Contrib = pickRows(cols.Contrib, catIdx)
		res.partialCategories = partialCategories(activeVars, part, rowWeights, partial, res.categories.Labels, activeNames)
	}

	// Lg and RV over active then supplementary groups
	all := append(append([]*mfaGroup(nil), active...), sup...)
	xs := make([]*mat.Dense, len(all))
	ws := make([][]float64, len(all))
	for k, g := range all {
		xs[k] = g.x
		ws[k] = scaleWeights(g.w, 1/g.sep.lambda(0))
	}
	res.coefficients, err = coefficients(groupNames(all), xs, ws, len(active), rowWeights, a.lambda(0), cfg.Parallelize)
	if err != nil {
		return nil, err
	}
	lgSelf := make([]float64, len(all))
	for k := range all {
		lgSelf[k] = res.coefficients.Lg.At(k, k)
	}

	res.groups = groupSection(activeNames,
		groupCoordinates(a.colCoord, colWeights, designSpans(d), a.k()),
		lgSelf[:len(active)], partial, a)
	res.partialAxes = partialAxes(activeNames, separateAxes(active), a)

	if len(part.sup) > 0 {
		coord, dist2 := projectRows(d, part.sup, a)
		res.indSup = supplementarySection(part.rowLabels(part.sup), coord, dist2)
		res.partialIndSup = &PartialSection{
			Labels: part.rowLabels(part.sup),
			Groups: activeNames,
			Coord:  partialRows(d, part.sup, a),
		}
	}

	if len(sup) > 0 {
		sd := balancedDesign(sup)
		coord, dist2 := projectColumns(sd, part.active, a)
		projected := supplementarySection(sd.labels(), coord, dist2)
		res.groupSup = groupSection(groupNames(sup),
			groupCoordinates(coord, sd.weights(), designSpans(sd), a.k()),
			lgSelf[len(active):], nil, a)

		contIdx, freqIdx, _ := columnRoles(sd, sup)
		res.quantiSup = pickSection(projected, contIdx)
		res.freqSup = pickSection(projected, freqIdx)
		res.qualiSup, res.qualiSupEta2 = rowSpaceCategories(groupVariables(sup), part, rowWeights, a, x, colWeights)
	}

	if vars := groupVariables(all); len(vars) >= 2 {
		if res.associations, err = associations(vars, part.active, cfg.Parallelize); err != nil {
			return nil, err
		}
	}

	res.desc = newDescriptor(part, rowWeights, a, cfg.Parallelize)
	for _, g := range all {
		res.desc.addContinuous(part, g.cont, g.Supplementary)
		res.desc.addCategorical(g.vars, g.Supplementary)
	}

	internal.DefaultLogger.Debug("[factor] MFA: kept %d axes, RV computed for %d groups", a.k(), len(all))
	return res, nil
}

// Associations tests every pair of categorical variables across the active
// then the supplementary groups; unavailable with fewer than two of them
func (r *MFAResult) Associations() ([]Association, error) {
	if r.associations == nil {
		return nil, core.NewResultUnavailableError("categorical associations")
	}
	return r.associations, nil
}

// resolveGroups checks group declarations against the table columns
func resolveGroups(tbl *table.Table, decl []Group) ([]*mfaGroup, error) {
	out := make([]*mfaGroup, 0, len(decl))
	names := make(map[string]bool, len(decl))
	next, activeCount, activeCols, frequency := 0, 0, 0, 0
	for k, g := range decl {
		if g.Name == "" {
			g.Name = fmt.Sprintf("G%d", k+1)
		}
		if names[g.Name] {
			return nil, fmt.Errorf("%w: group %q", core.ErrDuplicate, g.Name)
		}
		names[g.Name] = true
		if g.Size <= 0 {
			return nil, core.NewGroupError(g.Name, "a group needs at least one column")
		}
		if next+g.Size > tbl.NumColumns() {
			return nil, core.NewGroupError(g.Name, fmt.Sprintf("runs past the last column (%d columns)", tbl.NumColumns()))
		}

		mg := &mfaGroup{Group: g}
		for j := next; j < next+g.Size; j++ {
			col := tbl.Columns[j]
			if !groupAccepts(g.Kind, col.Kind) {
				if !knownGroupKind(g.Kind) {
					return nil, core.NewGroupError(g.Name, fmt.Sprintf("unknown kind %q", g.Kind))
				}
				return nil, core.NewColumnKindError(col.Name, string(col.Kind), fmt.Sprintf("column of %s group %q", g.Kind, g.Name))
			}
			mg.cols = append(mg.cols, j)
		}
		next += g.Size

		if g.Kind == GroupFrequency {
			frequency++
		}
		if !g.Supplementary {
			activeCount++
			activeCols += g.Size
		}
		out = append(out, mg)
	}
	if next != tbl.NumColumns() {
		return nil, core.NewConfigurationError("group sizes add up to %d, table has %d columns", next, tbl.NumColumns())
	}
	if activeCount == 0 {
		return nil, fmt.Errorf("%w: MFA needs at least one active group", core.ErrTooFewElements)
	}
	if activeCols < 2 {
		return nil, fmt.Errorf("%w: MFA needs at least 2 active columns, got %d", core.ErrTooFewElements, activeCols)
	}
	if frequency > 0 && frequency < len(out) {
		return nil, fmt.Errorf("%w: frequency groups cannot be mixed with other group kinds", core.ErrInvalidGroup)
	}
	return out, nil
}

func knownGroupKind(k GroupKind) bool {
	switch k {
	case GroupContinuous, GroupCategorical, GroupFrequency, GroupMixed:
		return true
	}
	return false
}

func groupAccepts(g GroupKind, c table.ColumnKind) bool {
	switch g {
	case GroupContinuous:
		return c == table.KindContinuous
	case GroupCategorical:
		return c == table.KindCategorical
	case GroupFrequency:
		return c.IsNumeric()
	case GroupMixed:
		return c == table.KindContinuous || c == table.KindCategorical
	}
	return false
}

// frequencyMargins derives row masses from the active frequency groups
func frequencyMargins(tbl *table.Table, part *partition, groups []*mfaGroup) ([]float64, func(int) float64, float64, error) {
	var activeCols []int
	for _, g := range groups {
		for _, j := range g.cols {
			if err := checkCounts(tbl.Columns[j], part.active); err != nil {
				return nil, nil, 0, err
			}
		}
		if !g.Supplementary {
			activeCols = append(activeCols, g.cols...)
		}
	}
	rowGrand := func(i int) float64 {
		var t float64
		for _, j := range activeCols {
			if v := tbl.Columns[j].Values[i]; !math.IsNaN(v) {
				t += v
			}
		}
		return t
	}
	weights := make([]float64, part.numActive())
	var grand float64
	for k, i := range part.active {
		weights[k] = rowGrand(i)
		if weights[k] <= 0 {
			return nil, nil, 0, fmt.Errorf("%w: row %q has a zero total", core.ErrEmptyElement, tbl.RowNames[i])
		}
		grand += weights[k]
	}
	for k := range weights {
		weights[k] /= grand
	}
	return weights, rowGrand, grand, nil
}

// build sets the transform of the group's columns
func (g *mfaGroup) build(tbl *table.Table, part *partition, rowWeights []float64, rowGrand func(int) float64, grand float64) error {
	switch g.Kind {
	case GroupContinuous:
		g.cont = g.cols
		g.blk = newScaledBlock(tbl, g.cols, part, rowWeights, !g.Unscaled, nil)
	case GroupCategorical:
		vars, err := encodeAll(tbl, g.cols, part, !g.Supplementary)
		if err != nil {
			return err
		}
		g.vars = vars
		g.blk = newIndicatorBlock(vars, part, rowWeights, 1/float64(len(vars)))
	case GroupMixed:
		g.cont = columnsOfKind(tbl, g.cols, table.KindContinuous)
		vars, err := encodeAll(tbl, columnsOfKind(tbl, g.cols, table.KindCategorical), part, !g.Supplementary)
		if err != nil {
			return err
		}
		g.vars = vars
		var blocks []block
		if len(g.cont) > 0 {
			blocks = append(blocks, newScaledBlock(tbl, g.cont, part, rowWeights, !g.Unscaled, nil))
		}
		if len(vars) > 0 {
			blocks = append(blocks, newIndicatorBlock(vars, part, rowWeights, 1))
		}
		g.blk = newDesign(blocks...)
	case GroupFrequency:
		for _, j := range g.cols {
			var total float64
			for _, i := range part.active {
				total += tbl.Columns[j].Values[i]
			}
			if total <= 0 && !g.Supplementary {
				return fmt.Errorf("%w: column %q has a zero total", core.ErrEmptyElement, tbl.Columns[j].Name)
			}
		}
		g.blk = newMFACTBlock(tbl, g.cols, part.active, rowGrand, grand)
	}
	return nil
}

// balancedDesign concatenates group blocks, each weighted by 1/λ₁ of its
// separate analysis
func balancedDesign(groups []*mfaGroup) *design {
	blocks := make([]block, len(groups))
	for k, g := range groups {
		blocks[k] = g.blk
	}
	d := newDesign(blocks...)
	for k, g := range groups {
		d.scale[k] = 1 / g.sep.lambda(0)
	}
	return d
}

// columnRoles splits design columns into continuous, frequency and
// indicator positions
func columnRoles(d *design, groups []*mfaGroup) (cont, freq, cat []int) {
	for k, g := range groups {
		from, to := d.span(k)
		switch g.Kind {
		case GroupContinuous:
			cont = appendRange(cont, from, to)
		case GroupFrequency:
			freq = appendRange(freq, from, to)
		case GroupCategorical:
			cat = appendRange(cat, from, to)
		case GroupMixed:
			cont = appendRange(cont, from, from+len(g.cont))
			cat = appendRange(cat, from+len(g.cont), to)
		}
	}
	return cont, freq, cat
}

func appendRange(xs []int, from, to int) []int {
	for j := from; j < to; j++ {
		xs = append(xs, j)
	}
	return xs
}

func designSpans(d *design) [][2]int {
	out := make([][2]int, len(d.blocks))
	for k := range d.blocks {
		from, to := d.span(k)
		out[k] = [2]int{from, to}
	}
	return out
}

func groupNames(groups []*mfaGroup) []string {
	out := make([]string, len(groups))
	for k, g := range groups {
		out[k] = g.Name
	}
	return out
}

func groupVariables(groups []*mfaGroup) []*categorical {
	var out []*categorical
	for _, g := range groups {
		out = append(out, g.vars...)
	}
	return out
}

func separateAxes(groups []*mfaGroup) []*axes {
	out := make([]*axes, len(groups))
	for k, g := range groups {
		out[k] = g.sep
	}
	return out
}

func scaleWeights(w []float64, factor float64) []float64 {
	out := make([]float64, len(w))
	for j, v := range w {
		out[j] = v * factor
	}
	return out
}

// pickSection keeps the given elements of s; nil when none are kept
func pickSection(s *Section, idx []int) *Section {
	if len(idx) == 0 {
		return nil
	}
	out := &Section{
		Labels: pick(s.Labels, idx),
		Coord:  pickRows(s.Coord, idx),
		Cos2:   pickRows(s.Cos2, idx),
		Dist2:  pickFloat(s.Dist2, idx),
	}
	if s.Weights != nil {
		out.Weights = pickFloat(s.Weights, idx)
	}
	if s.Contrib != nil {
		out.Contrib = pickRows(s.Contrib, idx)
	}
	return out
}

// partialCategories places each level at the barycentre of the partial
// individuals of every group
func partialCategories(vars []*categorical, part *partition, rowWeights []float64, partial []*mat.Dense, labels, groups []string) *PartialSection {
	out := &PartialSection{Labels: labels, Groups: groups, Coord: make([]*mat.Dense, len(partial))}
	for g, p := range partial {
		_, k := p.Dims()
		var bary []*mat.Dense
		for _, cat := range vars {
			bary = append(bary, barycenters(cat, part.active, rowWeights, p).bary)
		}
		out.Coord[g] = stackRows(bary, k)
	}
	return out
}

// Sections lists the available sections
func (r *MFAResult) Sections() []NamedSection {
	out := appendSection(nil, "individuals", r.individuals)
	out = appendSection(out, "continuous variables", r.quantitative)
	out = appendSection(out, "frequencies", r.frequencies)
	out = appendSection(out, "categories", r.categories)
	out = appendSection(out, "supplementary individuals", r.indSup)
	out = appendSection(out, "supplementary continuous variables", r.quantiSup)
	out = appendSection(out, "supplementary frequencies", r.freqSup)
	return appendSection(out, "supplementary categories", r.qualiSup)
}

// Individuals returns the active rows
func (r *MFAResult) Individuals() *Section { return r.individuals }

// PartialIndividuals returns the active rows seen from each active group
func (r *MFAResult) PartialIndividuals() *PartialSection { return r.partialInd }

// Groups returns the active groups
func (r *MFAResult) Groups() *GroupSection { return r.groups }

// Coefficients returns the Lg and RV matrices of all groups and the whole
func (r *MFAResult) Coefficients() *Coefficients { return r.coefficients }

// PartialAxes returns the separate-analysis axes of the active groups
func (r *MFAResult) PartialAxes() *PartialAxes { return r.partialAxes }

// Quantitative returns the continuous columns of active groups
func (r *MFAResult) Quantitative() (*Section, error) {
	return section(r.quantitative, "active continuous groups")
}

// Frequencies returns the frequency columns of active groups
func (r *MFAResult) Frequencies() (*Section, error) {
	return section(r.frequencies, "active frequency groups")
}

// Categories returns the levels of categorical columns of active groups
func (r *MFAResult) Categories() (*Section, error) {
	return section(r.categories, "active categorical groups")
}

// Qualitative returns eta² of categorical columns of active groups
func (r *MFAResult) Qualitative() (*LinkSection, error) {
	return linkSection(r.qualitative, "active categorical groups")
}

// PartialCategories returns the levels seen from each active group
func (r *MFAResult) PartialCategories() (*PartialSection, error) {
	if r.partialCategories == nil {
		return nil, core.NewResultUnavailableError("active categorical groups")
	}
	return r.partialCategories, nil
}

// SupplementaryIndividuals returns the projected supplementary rows
func (r *MFAResult) SupplementaryIndividuals() (*Section, error) {
	return section(r.indSup, "supplementary individuals")
}

// SupplementaryPartialIndividuals returns the supplementary rows seen from each active group
func (r *MFAResult) SupplementaryPartialIndividuals() (*PartialSection, error) {
	if r.partialIndSup == nil {
		return nil, core.NewResultUnavailableError("supplementary individuals")
	}
	return r.partialIndSup, nil
}

// SupplementaryGroups returns the projected supplementary groups
func (r *MFAResult) SupplementaryGroups() (*GroupSection, error) {
	if r.groupSup == nil {
		return nil, core.NewResultUnavailableError("supplementary groups")
	}
	return r.groupSup, nil
}

// SupplementaryQuantitative returns the continuous columns of supplementary groups
func (r *MFAResult) SupplementaryQuantitative() (*Section, error) {
	return section(r.quantiSup, "supplementary continuous groups")
}

// SupplementaryFrequencies returns the frequency columns of supplementary groups
func (r *MFAResult) SupplementaryFrequencies() (*Section, error) {
	return section(r.freqSup, "supplementary frequency groups")
}

// SupplementaryCategories returns the levels of supplementary categorical groups
func (r *MFAResult) SupplementaryCategories() (*Section, error) {
	return section(r.qualiSup, "supplementary categorical groups")
}

// SupplementaryQualitative returns eta² of supplementary categorical groups
func (r *MFAResult) SupplementaryQualitative() (*LinkSection, error) {
	return linkSection(r.qualiSupEta2, "supplementary categorical groups")
}
