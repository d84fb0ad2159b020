package factor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const tol = 1e-6

func assertEigenOrdered(t *testing.T, e Eigen) {
	t.Helper()
	require.NotEmpty(t, e.Values)
	for k, v := range e.Values {
		assert.GreaterOrEqual(t, v, 0.0, "eigenvalue %d", k)
		if k > 0 {
			assert.LessOrEqual(t, v, e.Values[k-1]+1e-12, "eigenvalue %d", k)
		}
	}
	if e.Total() > 0 {
		assert.InDelta(t, 100, e.Cumulative[len(e.Cumulative)-1], tol)
	}
}

// assertContributionsSum checks that every axis column of Contrib adds to 100
func assertContributionsSum(t *testing.T, s *Section) {
	t.Helper()
	require.NotNil(t, s.Contrib)
	for k, sum := range columnSums(s.Contrib) {
		assert.InDelta(t, 100, sum, tol, "axis %d", k)
	}
}

// assertCos2Complete checks that cos2 adds to 1 over all axes for every
// element away from the centre
func assertCos2Complete(t *testing.T, s *Section) {
	t.Helper()
	n, _ := s.Cos2.Dims()
	for i := 0; i < n; i++ {
		if s.Dist2[i] < 1e-12 {
			continue
		}
		assert.InDelta(t, 1, mat.Sum(s.Cos2.RowView(i)), tol, "element %s", s.Labels[i])
	}
}

func assertRowsEqual(t *testing.T, want, got *mat.Dense, wantRow, gotRow int) {
	t.Helper()
	_, k := want.Dims()
	for c := 0; c < k; c++ {
		assert.InDelta(t, want.At(wantRow, c), got.At(gotRow, c), tol, "axis %d", c)
	}
}

// labelIndex returns the position of label in s, or -1
func labelIndex(s *Section, label string) int {
	for i, l := range s.Labels {
		if l == label {
			return i
		}
	}
	return -1
}
