package factor

import (
	"testing"

	"gofacto/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewEigen(t *testing.T) {
	e := newEigen([]float64{3, 1, 1})
	assert.Equal(t, []float64{2, 0, 0}, e.Difference)
	assert.InDeltaSlice(t, []float64{60, 20, 20}, e.Percent, 1e-12)
	assert.InDeltaSlice(t, []float64{60, 80, 100}, e.Cumulative, 1e-12)
	assert.Equal(t, 5.0, e.Total())

	zero := newEigen([]float64{0})
	assert.Equal(t, []float64{0}, zero.Percent)
}

func TestDecompose_KeepsRequestedAxes(t *testing.T) {
	x := mat.NewDense(4, 3, []float64{
		1, 2, -1,
		-1, 0, 2,
		0.5, -1, 0,
		-0.5, -1, -1,
	})
	rw := []float64{0.25, 0.25, 0.25, 0.25}
	cw := []float64{1, 1, 1}

	all, err := decompose(x, rw, cw, decomposeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.k())
	assert.Len(t, all.eigen.Values, 3)

	two, err := decompose(x, rw, cw, decomposeOptions{components: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, two.k())
	assert.Len(t, two.eigen.Values, 3, "the eigen table is not truncated")

	capped, err := decompose(x, rw, cw, decomposeOptions{maxRank: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, capped.k())
	assert.Len(t, capped.eigen.Values, 1)

	// Σ_i r_i F_ik² = λ_k
	for k := 0; k < all.k(); k++ {
		var s float64
		for i := 0; i < 4; i++ {
			f := all.rowCoord.At(i, k)
			s += rw[i] * f * f
		}
		assert.InDelta(t, all.lambda(k), s, 1e-10)
	}
}

func TestDecompose_ZeroRank(t *testing.T) {
	x := mat.NewDense(3, 2, nil)
	rw := []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}

	_, err := decompose(x, rw, []float64{1, 1}, decomposeOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrZeroRank)

	a, err := decompose(x, rw, []float64{1, 1}, decomposeOptions{allowNull: true})
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, a.eigen.Values)
	assert.Equal(t, 1, a.k())

	_, err = decompose(nil, rw, nil, decomposeOptions{})
	assert.True(t, core.IsDegeneracyError(err))
}
