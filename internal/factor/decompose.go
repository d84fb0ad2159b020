package factor

import (
	"fmt"
	"math"

	"gofacto/domain/core"
	"gofacto/internal"
	"gofacto/internal/linalg"

	"gonum.org/v1/gonum/mat"
)

// eigenTolerance is the relative threshold under which an eigenvalue is trivial
const eigenTolerance = 1e-12

// Eigen is the AxisSystem of a fit: every non-trivial eigenvalue in
// non-increasing order with its share of the total inertia
type Eigen struct {
	Values     []float64 `json:"values"`
	Difference []float64 `json:"difference"`
	Percent    []float64 `json:"percent"`
	Cumulative []float64 `json:"cumulative"`
}

// Total returns the total inertia
func (e Eigen) Total() float64 {
	var t float64
	for _, v := range e.Values {
		t += v
	}
	return t
}

func newEigen(values []float64) Eigen {
	e := Eigen{
		Values:     append([]float64(nil), values...),
		Difference: make([]float64, len(values)),
		Percent:    make([]float64, len(values)),
		Cumulative: make([]float64, len(values)),
	}
	total := e.Total()
	var cum float64
	for k, v := range values {
		if k+1 < len(values) {
			e.Difference[k] = v - values[k+1]
		}
		if total > 0 {
			e.Percent[k] = 100 * v / total
		}
		cum += e.Percent[k]
		e.Cumulative[k] = cum
	}
	return e
}

// axes holds the decomposition of the active table
type axes struct {
	eigen      Eigen
	sv         []float64 // singular values of the retained axes
	rowCoord   *mat.Dense
	colCoord   *mat.Dense
	rowWeights []float64
	colWeights []float64
}

func (a *axes) k() int { return len(a.sv) }

// lambda returns the eigenvalue of retained axis k
func (a *axes) lambda(k int) float64 { return a.sv[k] * a.sv[k] }

// lambdas returns the eigenvalues of the retained axes
func (a *axes) lambdas() []float64 {
	out := make([]float64, len(a.sv))
	for k := range out {
		out[k] = a.lambda(k)
	}
	return out
}

// decomposeOptions tune the Core Decomposer per variant
type decomposeOptions struct {
	components int
	maxRank    int  // upper bound on non-trivial axes (e.g. min(I−1, J−1) for CA)
	allowNull  bool // a zero-rank table yields one zero axis instead of an error
}

// decompose runs the GSVD of x and keeps the requested axes
func decompose(x *mat.Dense, rowWeights, colWeights []float64, opts decomposeOptions) (*axes, error) {
	if x == nil {
		return nil, core.NewDegeneracyError("no active cell to decompose")
	}
	g, err := linalg.Decompose(x, rowWeights, colWeights)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDegeneracy, err)
	}

	eig := g.Eigenvalues()
	tol := eigenTolerance * math.Max(1, eig[0])
	nontrivial := 0
	for _, v := range eig {
		if v > tol {
			nontrivial++
		}
	}
	if opts.maxRank > 0 && nontrivial > opts.maxRank {
		nontrivial = opts.maxRank
	}

	if nontrivial == 0 {
		if !opts.allowNull {
			return nil, core.ErrZeroRank
		}
		internal.DefaultLogger.Warn("[factor] active table has zero inertia, returning a single null axis")
		n, p := x.Dims()
		return &axes{
			eigen:      newEigen([]float64{0}),
			sv:         []float64{0},
			rowCoord:   mat.NewDense(n, 1, nil),
			colCoord:   mat.NewDense(p, 1, nil),
			rowWeights: rowWeights,
			colWeights: colWeights,
		}, nil
	}

	keep := nontrivial
	if opts.components > 0 && opts.components < keep {
		keep = opts.components
	}

	internal.DefaultLogger.Debug("[factor] decomposed %d non-trivial axes, keeping %d (λ₁=%.6g)", nontrivial, keep, eig[0])

	return &axes{
		eigen:      newEigen(eig[:nontrivial]),
		sv:         append([]float64(nil), g.Values[:keep]...),
		rowCoord:   g.RowCoordinates(keep),
		colCoord:   g.ColumnCoordinates(keep),
		rowWeights: rowWeights,
		colWeights: colWeights,
	}, nil
}
