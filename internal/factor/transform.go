package factor

import (
	"math"

	"gofacto/domain/table"
	"gofacto/internal"
	"gofacto/internal/linalg"

	"gonum.org/v1/gonum/mat"
)

// block is the polymorphic "matrix transform + weighting" step shared by
// every variant. A block turns the cells of some table columns into centred
// coordinates in the analysis metric; statistics are always those of the
// active rows, so supplementary rows are transformed the same way.
type block interface {
	labels() []string
	weights() []float64
	// row returns the transformed table row i; NaN marks missing cells
	row(i int) []float64
}

// scaledBlock centres (and optionally reduces) continuous columns
type scaledBlock struct {
	names    []string
	values   [][]float64
	mean     []float64
	std      []float64
	colW     []float64
	isActive []bool
}

func newScaledBlock(tbl *table.Table, cols []int, part *partition, rowWeights []float64, scale bool, colWeights []float64) *scaledBlock {
	b := &scaledBlock{
		names:    make([]string, len(cols)),
		values:   make([][]float64, len(cols)),
		mean:     make([]float64, len(cols)),
		std:      make([]float64, len(cols)),
		colW:     make([]float64, len(cols)),
		isActive: part.isActive,
	}
	for k, j := range cols {
		col := tbl.Columns[j]
		b.names[k] = col.Name
		b.values[k] = col.Values
		b.colW[k] = 1
		if len(colWeights) > 0 {
			b.colW[k] = colWeights[k]
		}

		xs := make([]float64, 0, len(part.active))
		ws := make([]float64, 0, len(part.active))
		for a, i := range part.active {
			if v := col.Values[i]; !math.IsNaN(v) {
				xs = append(xs, v)
				ws = append(ws, rowWeights[a])
			}
		}
		if len(xs) == 0 {
			b.std[k] = 0
			internal.DefaultLogger.Warn("[factor] column %q has no observed value among active rows", col.Name)
			continue
		}
		mean, sd := linalg.MeanStd(xs, ws)
		variance := sd * sd
		b.mean[k] = mean
		switch {
		case !scale:
			b.std[k] = 1
		case variance <= 1e-24:
			b.std[k] = 0
			internal.DefaultLogger.Warn("[factor] column %q has zero variance, it carries no inertia", col.Name)
		default:
			b.std[k] = math.Sqrt(variance)
		}
		if len(xs) < len(part.active) {
			internal.DefaultLogger.Warn("[factor] column %q: %d missing active cells replaced by the mean", col.Name, len(part.active)-len(xs))
		}
	}
	return b
}

func (b *scaledBlock) labels() []string   { return b.names }
func (b *scaledBlock) weights() []float64 { return b.colW }

func (b *scaledBlock) row(i int) []float64 {
	out := make([]float64, len(b.names))
	for k := range b.names {
		v := b.values[k][i]
		switch {
		case math.IsNaN(v) && b.isActive[i]:
			out[k] = 0
		case math.IsNaN(v):
			out[k] = math.NaN()
		case b.std[k] == 0:
			out[k] = 0
		default:
			out[k] = (v - b.mean[k]) / b.std[k]
		}
	}
	return out
}

// indicatorBlock codes categorical variables as x_k = z_k/p_k − 1 with column
// weight scale·p_k (scale = 1/Q for MCA, 1 for FAMD)
type indicatorBlock struct {
	vars    []*categorical
	offsets []int
	props   []float64
	counts  []float64
	scale   float64
	names   []string
}

func newIndicatorBlock(vars []*categorical, part *partition, rowWeights []float64, scale float64) *indicatorBlock {
	b := &indicatorBlock{vars: vars, scale: scale}
	for _, v := range vars {
		b.offsets = append(b.offsets, len(b.props))
		w, n := v.masses(part.active, rowWeights)
		b.props = append(b.props, w...)
		b.counts = append(b.counts, n...)
		b.names = append(b.names, v.categoryLabels()...)
	}
	return b
}

func (b *indicatorBlock) labels() []string { return b.names }

func (b *indicatorBlock) weights() []float64 {
	out := make([]float64, len(b.props))
	for k, p := range b.props {
		out[k] = b.scale * p
	}
	return out
}

func (b *indicatorBlock) row(i int) []float64 {
	out := make([]float64, len(b.props))
	for v, cat := range b.vars {
		off := b.offsets[v]
		code := cat.codes[i]
		for l := range cat.levels {
			k := off + l
			switch {
			case code < 0:
				out[k] = math.NaN()
			case l == code:
				out[k] = 1/b.props[k] - 1
			default:
				out[k] = -1
			}
		}
	}
	return out
}

// contingencyBlock is the chi-square transform of correspondence analysis:
// x_ij = n_ij / (n_i· c_j) − 1 with column masses c_j
type contingencyBlock struct {
	names    []string
	counts   [][]float64
	colMass  []float64
	rowTotal func(i int) float64
}

// newContingencyBlock builds the block for cols. rowTotal gives the row
// margin over the active columns and grand the active grand total.
func newContingencyBlock(tbl *table.Table, cols []int, active []int, rowTotal func(int) float64, grand float64) *contingencyBlock {
	b := &contingencyBlock{
		names:    make([]string, len(cols)),
		counts:   make([][]float64, len(cols)),
		colMass:  make([]float64, len(cols)),
		rowTotal: rowTotal,
	}
	for k, j := range cols {
		col := tbl.Columns[j]
		b.names[k] = col.Name
		b.counts[k] = col.Values
		var total float64
		for _, i := range active {
			total += col.Values[i]
		}
		if grand > 0 {
			b.colMass[k] = total / grand
		}
	}
	return b
}

func (b *contingencyBlock) labels() []string   { return b.names }
func (b *contingencyBlock) weights() []float64 { return b.colMass }

func (b *contingencyBlock) row(i int) []float64 {
	out := make([]float64, len(b.names))
	tot := b.rowTotal(i)
	for k := range b.names {
		v := b.counts[k][i]
		if tot <= 0 || math.IsNaN(v) || b.colMass[k] == 0 {
			out[k] = math.NaN()
			continue
		}
		out[k] = v/(tot*b.colMass[k]) - 1
	}
	return out
}

// mfactBlock is the frequency-group transform of multiple factor analysis for
// contingency tables: with global row margins n_i·· and grand total N,
// x_ij = N/n_i·· · (n_ij/n_·j − n_i·/N_t), column weight n_·j/N
type mfactBlock struct {
	names      []string
	counts     [][]float64
	colTotal   []float64
	colW       []float64
	groupTotal float64
	rowGrand   func(i int) float64
	grand      float64
}

func newMFACTBlock(tbl *table.Table, cols []int, active []int, rowGrand func(int) float64, grand float64) *mfactBlock {
	b := &mfactBlock{
		names:    make([]string, len(cols)),
		counts:   make([][]float64, len(cols)),
		colTotal: make([]float64, len(cols)),
		colW:     make([]float64, len(cols)),
		rowGrand: rowGrand,
		grand:    grand,
	}
	for k, j := range cols {
		col := tbl.Columns[j]
		b.names[k] = col.Name
		b.counts[k] = col.Values
		for _, i := range active {
			b.colTotal[k] += col.Values[i]
		}
		b.groupTotal += b.colTotal[k]
		if grand > 0 {
			b.colW[k] = b.colTotal[k] / grand
		}
	}
	return b
}

func (b *mfactBlock) labels() []string   { return b.names }
func (b *mfactBlock) weights() []float64 { return b.colW }

func (b *mfactBlock) row(i int) []float64 {
	out := make([]float64, len(b.names))
	g := b.rowGrand(i)
	var groupRow float64
	missing := false
	for k := range b.names {
		v := b.counts[k][i]
		if math.IsNaN(v) {
			missing = true
			continue
		}
		groupRow += v
	}
	for k := range b.names {
		v := b.counts[k][i]
		if g <= 0 || missing || b.colTotal[k] == 0 || b.groupTotal == 0 {
			out[k] = math.NaN()
			continue
		}
		out[k] = b.grand / g * (v/b.colTotal[k] - groupRow/b.groupTotal)
	}
	return out
}

// subsetBlock keeps only some columns of another block (specific variants)
type subsetBlock struct {
	inner block
	keep  []int
}

func (b *subsetBlock) labels() []string {
	return pick(b.inner.labels(), b.keep)
}

func (b *subsetBlock) weights() []float64 {
	return pickFloat(b.inner.weights(), b.keep)
}

func (b *subsetBlock) row(i int) []float64 {
	return pickFloat(b.inner.row(i), b.keep)
}

func pick(xs []string, keep []int) []string {
	out := make([]string, len(keep))
	for k, j := range keep {
		out[k] = xs[j]
	}
	return out
}

func pickFloat(xs []float64, keep []int) []float64 {
	out := make([]float64, len(keep))
	for k, j := range keep {
		out[k] = xs[j]
	}
	return out
}

// design concatenates blocks; scale multiplies each block's column weights
// (1/λ₁ of the group's separate analysis in MFA, 1 elsewhere)
type design struct {
	blocks []block
	scale  []float64
}

func newDesign(blocks ...block) *design {
	d := &design{blocks: blocks, scale: make([]float64, len(blocks))}
	for k := range d.scale {
		d.scale[k] = 1
	}
	return d
}

func (d *design) labels() []string {
	var out []string
	for _, b := range d.blocks {
		out = append(out, b.labels()...)
	}
	return out
}

func (d *design) weights() []float64 {
	var out []float64
	for k, b := range d.blocks {
		for _, w := range b.weights() {
			out = append(out, w*d.scale[k])
		}
	}
	return out
}

func (d *design) row(i int) []float64 {
	var out []float64
	for _, b := range d.blocks {
		out = append(out, b.row(i)...)
	}
	return out
}

// span returns the [start, end) column range of block k
func (d *design) span(k int) (int, int) {
	start := 0
	for b := 0; b < k; b++ {
		start += len(d.blocks[b].labels())
	}
	return start, start + len(d.blocks[k].labels())
}

// matrix stacks the transformed rows
func (d *design) matrix(rows []int) *mat.Dense {
	width := len(d.labels())
	if len(rows) == 0 || width == 0 {
		return nil
	}
	m := mat.NewDense(len(rows), width, nil)
	for r, i := range rows {
		m.SetRow(r, d.row(i))
	}
	return m
}
