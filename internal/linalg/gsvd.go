package linalg

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ErrNoConvergence is returned when the underlying SVD fails to factorize
var ErrNoConvergence = errors.New("singular value decomposition did not converge")

// GSVD is the generalized singular value decomposition of a matrix X under
// row metric D_r and column metric D_c:
//
//	D_r^{1/2} X D_c^{1/2} = U S Vᵀ
//
// Singular values are in non-increasing order; columns of U and V follow them.
type GSVD struct {
	Values     []float64 // singular values s_k
	U          *mat.Dense
	V          *mat.Dense
	RowWeights []float64
	ColWeights []float64
}

// Decompose computes the GSVD of x with the given row and column weights.
// All weights must be non-negative; zero-weight rows or columns simply carry
// no inertia.
func Decompose(x mat.Matrix, rowWeights, colWeights []float64) (*GSVD, error) {
	n, p := x.Dims()
	if len(rowWeights) != n {
		return nil, fmt.Errorf("row weights: got %d, want %d", len(rowWeights), n)
	}
	if len(colWeights) != p {
		return nil, fmt.Errorf("column weights: got %d, want %d", len(colWeights), p)
	}
	if n == 0 || p == 0 {
		return nil, fmt.Errorf("cannot decompose an empty %dx%d matrix", n, p)
	}

	sr := sqrtAll(rowWeights)
	sc := sqrtAll(colWeights)

	z := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			z.Set(i, j, x.At(i, j)*sr[i]*sc[j])
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(z, mat.SVDThin); !ok {
		return nil, ErrNoConvergence
	}

	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// LAPACK already returns descending values; the stable re-sort pins the
	// order of tied values to the factorization order.
	order := make([]int, len(values))
	for k := range order {
		order[k] = k
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] > values[order[b]] })

	k := len(values)
	out := &GSVD{
		Values:     make([]float64, k),
		U:          mat.NewDense(n, k, nil),
		V:          mat.NewDense(p, k, nil),
		RowWeights: append([]float64(nil), rowWeights...),
		ColWeights: append([]float64(nil), colWeights...),
	}
	for dst, src := range order {
		out.Values[dst] = values[src]
		sign := loadingSign(&v, src)
		for i := 0; i < n; i++ {
			out.U.Set(i, dst, sign*u.At(i, src))
		}
		for j := 0; j < p; j++ {
			out.V.Set(j, dst, sign*v.At(j, src))
		}
	}

	return out, nil
}

// Eigenvalues returns s_k² for every computed component
func (g *GSVD) Eigenvalues() []float64 {
	eig := make([]float64, len(g.Values))
	for k, s := range g.Values {
		eig[k] = s * s
	}
	return eig
}

// RowCoordinates returns F = D_r^{-1/2} U S restricted to the first k components.
// Rows with zero weight get zero coordinates.
func (g *GSVD) RowCoordinates(k int) *mat.Dense {
	return scaledFactors(g.U, g.RowWeights, g.Values, k)
}

// ColumnCoordinates returns G = D_c^{-1/2} V S restricted to the first k components
func (g *GSVD) ColumnCoordinates(k int) *mat.Dense {
	return scaledFactors(g.V, g.ColWeights, g.Values, k)
}

func scaledFactors(basis *mat.Dense, weights, values []float64, k int) *mat.Dense {
	n, _ := basis.Dims()
	out := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		if weights[i] <= 0 {
			continue
		}
		inv := 1 / math.Sqrt(weights[i])
		for c := 0; c < k; c++ {
			out.Set(i, c, basis.At(i, c)*values[c]*inv)
		}
	}
	return out
}

// loadingSign returns the sign that makes the largest-magnitude entry of
// column c positive (first entry wins ties).
func loadingSign(v *mat.Dense, c int) float64 {
	p, _ := v.Dims()
	best, bestAbs := 0.0, -1.0
	for j := 0; j < p; j++ {
		a := math.Abs(v.At(j, c))
		if a > bestAbs+1e-12 {
			best, bestAbs = v.At(j, c), a
		}
	}
	if best < 0 {
		return -1
	}
	return 1
}

func sqrtAll(w []float64) []float64 {
	out := make([]float64, len(w))
	for i, x := range w {
		if x > 0 {
			out[i] = math.Sqrt(x)
		}
	}
	return out
}
