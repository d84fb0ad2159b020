package factor

import (
	"math"

	"gofacto/internal/linalg"

	"gonum.org/v1/gonum/mat"
)

// rowTransition applies F_k = Σ_j c_j x_j G_jk / s_k over the columns
// [from, to) of x, scaled by factor. NaN cells are skipped.
func rowTransition(x, colWeights []float64, a *axes, from, to int, factor float64) []float64 {
	out := make([]float64, a.k())
	for k := range out {
		s := a.sv[k]
		if s == 0 {
			continue
		}
		var acc float64
		for j := from; j < to; j++ {
			if math.IsNaN(x[j]) {
				continue
			}
			acc += colWeights[j] * x[j] * a.colCoord.At(j, k)
		}
		out[k] = factor * acc / s
	}
	return out
}

// projectRows places table rows on the fixed axes using the statistics of
// the active rows, and returns their squared distance to the centre
func projectRows(b block, rows []int, a *axes) (*mat.Dense, []float64) {
	w := b.weights()
	coord := mat.NewDense(len(rows), a.k(), nil)
	dist2 := make([]float64, len(rows))
	for r, i := range rows {
		x := b.row(i)
		coord.SetRow(r, rowTransition(x, w, a, 0, len(x), 1))
		dist2[r] = linalg.WeightedSquaredNorm(x, w)
	}
	return coord, dist2
}

// projectColumn places a column, given as transformed values over the active
// rows, on the fixed axes: G_k = Σ_i r_i x_i F_ik / s_k
func projectColumn(x []float64, a *axes) ([]float64, float64) {
	out := make([]float64, a.k())
	for k := range out {
		s := a.sv[k]
		if s == 0 {
			continue
		}
		var acc float64
		for i, v := range x {
			if math.IsNaN(v) {
				continue
			}
			acc += a.rowWeights[i] * v * a.rowCoord.At(i, k)
		}
		out[k] = acc / s
	}
	return out, linalg.WeightedSquaredNorm(x, a.rowWeights)
}

// projectColumns projects every column of a block over the active rows
func projectColumns(b block, active []int, a *axes) (*mat.Dense, []float64) {
	x := activeColumns(b, active)
	coord := mat.NewDense(len(x), a.k(), nil)
	dist2 := make([]float64, len(x))
	for j, col := range x {
		c, d := projectColumn(col, a)
		coord.SetRow(j, c)
		dist2[j] = d
	}
	return coord, dist2
}

// activeColumns transposes the transformed active rows of b into columns
func activeColumns(b block, active []int) [][]float64 {
	width := len(b.labels())
	out := make([][]float64, width)
	for j := range out {
		out[j] = make([]float64, len(active))
	}
	for r, i := range active {
		for j, v := range b.row(i) {
			out[j][r] = v
		}
	}
	return out
}
