package factor

import (
	"math"
	"testing"

	"gofacto/domain/core"
	"gofacto/domain/table"
	"gofacto/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func athletesConfig() Config {
	return Config{
		RowSup:    []int{10, 11},
		QuantiSup: []int{4},
		QualiSup:  []int{5},
	}
}

func TestPCA_AxisProperties(t *testing.T) {
	res, err := NewPCA(athletesConfig()).Fit(testkit.Athletes())
	require.NoError(t, err)

	assertEigenOrdered(t, res.Eigen())
	assert.Equal(t, 4, res.Components())
	assert.InDelta(t, 4, res.Eigen().Total(), tol, "standardised PCA inertia is the column count")

	assertContributionsSum(t, res.Individuals())
	assertContributionsSum(t, res.Variables())
	assertCos2Complete(t, res.Individuals())
	assertCos2Complete(t, res.Variables())
	assert.Equal(t, 10, res.Individuals().Len())
}

func TestPCA_VariableCoordinatesAreCorrelations(t *testing.T) {
	tbl := testkit.Athletes()
	res, err := NewPCA(athletesConfig()).Fit(tbl)
	require.NoError(t, err)

	ind := res.Individuals()
	for j, name := range res.Variables().Labels {
		col := tbl.Columns[tbl.ColumnIndex(name)]
		x := pickFloat(col.Values, seq(10))
		r := axisCorrelations(x, ind.Weights, ind.Coord)
		for k := range r {
			assert.InDelta(t, r[k], res.Variables().Coord.At(j, k), tol)
		}
	}
}

func TestPCA_SupplementaryRowRoundTrip(t *testing.T) {
	base := testkit.Athletes()
	cols := make([]table.Column, 4)
	for j := range cols {
		values := append(append([]float64(nil), base.Columns[j].Values[:10]...), base.Columns[j].Values[3])
		cols[j] = table.Continuous(base.Columns[j].Name, values)
	}
	rows := append(append([]string(nil), base.RowNames[:10]...), "copy")
	tbl, err := table.New(rows, cols...)
	require.NoError(t, err)

	res, err := NewPCA(Config{RowSup: []int{10}}).Fit(tbl)
	require.NoError(t, err)
	sup, err := res.SupplementaryIndividuals()
	require.NoError(t, err)

	assertRowsEqual(t, res.Individuals().Coord, sup.Coord, 3, 0)
	assert.InDelta(t, res.Individuals().Dist2[3], sup.Dist2[0], tol)
}

func TestPCA_SupplementaryElementsDoNotMoveAxes(t *testing.T) {
	tbl := testkit.Athletes()
	plain, err := NewPCA(Config{RowSup: []int{10, 11}, QuantiSup: []int{4}, QualiSup: []int{5}}).Fit(tbl)
	require.NoError(t, err)

	// same active set, different supplementary declarations
	other, err := NewPCA(Config{RowSup: []int{10, 11}, QuantiSup: []int{4}, QualiSup: []int{5}, Components: 2}).Fit(tbl)
	require.NoError(t, err)

	assert.InDeltaSlice(t, plain.Eigen().Values, other.Eigen().Values, tol)
	assert.Equal(t, 2, other.Components())
	assert.Len(t, other.Eigen().Values, 4, "the eigen table keeps every non-trivial axis")
}

func TestPCA_SupplementarySections(t *testing.T) {
	res, err := NewPCA(athletesConfig()).Fit(testkit.Athletes())
	require.NoError(t, err)

	quanti, err := res.SupplementaryQuantitative()
	require.NoError(t, err)
	assert.Equal(t, []string{"points"}, quanti.Labels)
	for k := 0; k < res.Components(); k++ {
		c := quanti.Coord.At(0, k)
		assert.LessOrEqual(t, math.Abs(c), 1+tol)
		assert.InDelta(t, c*c, quanti.Cos2.At(0, k), tol)
	}

	cats, err := res.SupplementaryCategories()
	require.NoError(t, err)
	assert.Equal(t, []string{"competition_OG", "competition_Decastar"}, cats.Labels)
	require.NotNil(t, cats.VTest)
	// two levels of the same variable sit on opposite sides of the centre
	assert.InDelta(t, 0, cats.Weights[0]*cats.Coord.At(0, 0)+cats.Weights[1]*cats.Coord.At(1, 0), tol)

	eta, err := res.SupplementaryQualitative()
	require.NoError(t, err)
	for k := 0; k < res.Components(); k++ {
		v := eta.Eta2.At(0, k)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestPCA_ResultUnavailable(t *testing.T) {
	tbl := testkit.Athletes()
	res, err := NewPCA(Config{QuantiSup: []int{4}, QualiSup: []int{5}}).Fit(tbl)
	require.NoError(t, err)

	_, err = res.SupplementaryIndividuals()
	require.Error(t, err)
	assert.True(t, core.IsResultUnavailable(err))
	assert.ErrorIs(t, err, core.ErrResultUnavailable)

	_, err = res.SupplementaryQuantitative()
	assert.NoError(t, err)
}

func TestPCA_ConfigurationErrors(t *testing.T) {
	tbl := testkit.Athletes()
	tests := []struct {
		name string
		cfg  Config
	}{
		{"supplementary column index equal to column count", Config{ColSup: []int{tbl.NumColumns()}, QuantiSup: []int{4}, QualiSup: []int{5}}},
		{"supplementary row out of range", Config{RowSup: []int{12}, QuantiSup: []int{4}, QualiSup: []int{5}}},
		{"duplicated supplementary row", Config{RowSup: []int{1, 1}, QuantiSup: []int{4}, QualiSup: []int{5}}},
		{"column in two classes", Config{QuantiSup: []int{4}, QualiSup: []int{5, 4}}},
		{"categorical active column", Config{QuantiSup: []int{4}}},
		{"negative components", Config{Components: -1, QuantiSup: []int{4}, QualiSup: []int{5}}},
		{"categorical as continuous supplementary", Config{QuantiSup: []int{4, 5}}},
		{"mis-sized row weights", Config{QuantiSup: []int{4}, QualiSup: []int{5}, RowWeights: []float64{1, 2}}},
		{"mis-sized column weights", Config{QuantiSup: []int{4}, QualiSup: []int{5}, ColWeights: []float64{1}}},
		{"too few active rows", Config{QuantiSup: []int{4}, QualiSup: []int{5}, RowSup: seq(11)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPCA(tt.cfg).Fit(tbl)
			require.Error(t, err)
			assert.True(t, core.IsConfigurationError(err), "got %v", err)
		})
	}
}

func TestPCA_ConstantTableIsDegenerate(t *testing.T) {
	_, err := NewPCA(Config{}).Fit(testkit.Constant())
	require.Error(t, err)
	assert.True(t, core.IsDegeneracyError(err))
	assert.False(t, core.IsConfigurationError(err))
}

func TestPCA_ZeroVarianceColumnCarriesNoInertia(t *testing.T) {
	tbl, err := table.New(nil,
		table.Continuous("x", []float64{1, 2, 3, 4, 5}),
		table.Continuous("y", []float64{2, 1, 4, 3, 6}),
		table.Continuous("flat", []float64{7, 7, 7, 7, 7}),
	)
	require.NoError(t, err)

	res, err := NewPCA(Config{}).Fit(tbl)
	require.NoError(t, err)
	assert.InDelta(t, 2, res.Eigen().Total(), tol)

	v := res.Variables()
	flat := labelIndex(v, "flat")
	for k := 0; k < res.Components(); k++ {
		assert.Equal(t, 0.0, v.Contrib.At(flat, k))
		assert.Equal(t, 0.0, v.Cos2.At(flat, k))
	}
}

func TestPCA_MissingValues(t *testing.T) {
	res, err := NewPCA(Config{RowSup: []int{11}}).Fit(testkit.WithMissing())
	require.NoError(t, err)
	assertContributionsSum(t, res.Individuals())

	sup, err := res.SupplementaryIndividuals()
	require.NoError(t, err)
	for k := 0; k < res.Components(); k++ {
		assert.False(t, math.IsNaN(sup.Coord.At(0, k)))
	}
}

func TestPCA_UnscaledAndWeighted(t *testing.T) {
	tbl := testkit.Athletes()
	cfg := athletesConfig()
	cfg.Unscaled = true
	cfg.ColWeights = []float64{1, 2, 1, 0.5}
	cfg.RowWeights = []float64{1, 1, 2, 1, 1, 1, 1, 1, 1, 3, 1, 1}

	res, err := NewPCA(cfg).Fit(tbl)
	require.NoError(t, err)
	assertEigenOrdered(t, res.Eigen())
	assertContributionsSum(t, res.Individuals())
	assertContributionsSum(t, res.Variables())
	assertCos2Complete(t, res.Individuals())
	assert.InDelta(t, 1, sum(res.Individuals().Weights), tol)
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}
