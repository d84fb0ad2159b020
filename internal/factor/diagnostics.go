package factor

import (
	"math"

	"gofacto/internal/linalg"

	"gonum.org/v1/gonum/mat"
)

// contributions returns 100·w_i·F_ik²/λ_k; axes with λ_k = 0 contribute 0
func contributions(coord *mat.Dense, weights []float64, a *axes) *mat.Dense {
	n, k := coord.Dims()
	out := mat.NewDense(n, k, nil)
	for c := 0; c < k; c++ {
		lambda := a.lambda(c)
		if lambda == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			f := coord.At(i, c)
			out.Set(i, c, 100*weights[i]*f*f/lambda)
		}
	}
	return out
}

// squaredCosines returns F_ik²/d_i², 0 for elements at the centre
func squaredCosines(coord *mat.Dense, dist2 []float64) *mat.Dense {
	n, k := coord.Dims()
	out := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		if dist2[i] <= 0 {
			continue
		}
		for c := 0; c < k; c++ {
			f := coord.At(i, c)
			out.Set(i, c, math.Min(1, f*f/dist2[i]))
		}
	}
	return out
}

// rowDistances returns Σ_j c_j x_ij² for every row of x
func rowDistances(x *mat.Dense, colWeights []float64) []float64 {
	n, _ := x.Dims()
	out := make([]float64, n)
	for i := range out {
		out[i] = linalg.WeightedSquaredNorm(x.RawRowView(i), colWeights)
	}
	return out
}

// columnDistances returns Σ_i r_i x_ij² for every column of x
func columnDistances(x *mat.Dense, rowWeights []float64) []float64 {
	_, p := x.Dims()
	out := make([]float64, p)
	for j := range out {
		out[j] = linalg.WeightedSquaredNorm(linalg.Column(x, j), rowWeights)
	}
	return out
}

// groupMeans holds the weighted mean coordinates of the levels of one
// categorical variable over the active rows
type groupMeans struct {
	bary    *mat.Dense // level × axis
	weights []float64  // level mass Σ r_i
	counts  []float64  // level size n_c
}

// barycenters averages the active row coordinates within each level
func barycenters(cat *categorical, active []int, rowWeights []float64, coord *mat.Dense) groupMeans {
	_, k := coord.Dims()
	g := groupMeans{
		bary:    mat.NewDense(len(cat.levels), k, nil),
		weights: make([]float64, len(cat.levels)),
		counts:  make([]float64, len(cat.levels)),
	}
	for r, i := range active {
		code := cat.codes[i]
		if code < 0 {
			continue
		}
		g.weights[code] += rowWeights[r]
		g.counts[code]++
		for c := 0; c < k; c++ {
			g.bary.Set(code, c, g.bary.At(code, c)+rowWeights[r]*coord.At(r, c))
		}
	}
	for l, w := range g.weights {
		if w == 0 {
			continue
		}
		for c := 0; c < k; c++ {
			g.bary.Set(l, c, g.bary.At(l, c)/w)
		}
	}
	return g
}

// levelProfiles returns the weighted mean transformed row of every level and
// the squared distance Σ_j c_j m_j² of that mean to the centre
func levelProfiles(cat *categorical, active []int, rowWeights []float64, x *mat.Dense, colWeights []float64) []float64 {
	_, p := x.Dims()
	sums := make([][]float64, len(cat.levels))
	mass := make([][]float64, len(cat.levels))
	for l := range sums {
		sums[l] = make([]float64, p)
		mass[l] = make([]float64, p)
	}
	for r, i := range active {
		code := cat.codes[i]
		if code < 0 {
			continue
		}
		for j := 0; j < p; j++ {
			v := x.At(r, j)
			if math.IsNaN(v) {
				continue
			}
			sums[code][j] += rowWeights[r] * v
			mass[code][j] += rowWeights[r]
		}
	}
	dist2 := make([]float64, len(cat.levels))
	for l := range dist2 {
		for j := 0; j < p; j++ {
			if mass[l][j] == 0 {
				continue
			}
			m := sums[l][j] / mass[l][j]
			dist2[l] += colWeights[j] * m * m
		}
	}
	return dist2
}

// valueTests standardises level means under the hypergeometric null:
// v = bary/√λ · √(n_c(n−1)/(n−n_c))
func valueTests(g groupMeans, n int, lambdas []float64) *mat.Dense {
	levels, k := g.bary.Dims()
	out := mat.NewDense(levels, k, nil)
	total := float64(n)
	for l := 0; l < levels; l++ {
		nc := g.counts[l]
		if nc >= total || nc == 0 {
			continue
		}
		factor := math.Sqrt(nc * (total - 1) / (total - nc))
		for c := 0; c < k; c++ {
			lambda := lambdas[c]
			if lambda == 0 {
				continue
			}
			out.Set(l, c, g.bary.At(l, c)/math.Sqrt(lambda)*factor)
		}
	}
	return out
}

// correlationRatio is eta² of a categorical variable with every axis:
// Σ_c w_c bary_ck² / Σ_i r_i F_ik²
func correlationRatio(g groupMeans, rowWeights []float64, coord *mat.Dense) []float64 {
	_, k := coord.Dims()
	out := make([]float64, k)
	for c := 0; c < k; c++ {
		total := linalg.WeightedSquaredNorm(linalg.Column(coord, c), rowWeights)
		if total == 0 {
			continue
		}
		var between float64
		for l, w := range g.weights {
			b := g.bary.At(l, c)
			between += w * b * b
		}
		out[c] = math.Min(1, between/total)
	}
	return out
}

// axisCorrelations returns the weighted correlation of x (over active rows)
// with every axis; rows where x is missing are left out
func axisCorrelations(x, rowWeights []float64, coord *mat.Dense) []float64 {
	_, k := coord.Dims()
	xs, ws, keep := observed(x, rowWeights)
	out := make([]float64, k)
	for c := 0; c < k; c++ {
		f := linalg.Column(coord, c)
		out[c] = linalg.Correlation(xs, pickFloat(f, keep), ws)
	}
	return out
}

func observed(x, w []float64) (xs, ws []float64, keep []int) {
	for i, v := range x {
		if math.IsNaN(v) {
			continue
		}
		xs = append(xs, v)
		ws = append(ws, w[i])
		keep = append(keep, i)
	}
	return xs, ws, keep
}

// squares returns the element-wise square of m
func squares(m *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.MulElem(m, m)
	return &out
}

// columnSums adds up each column of m
func columnSums(m *mat.Dense) []float64 {
	_, k := m.Dims()
	out := make([]float64, k)
	for c := range out {
		out[c] = mat.Sum(m.ColView(c))
	}
	return out
}
