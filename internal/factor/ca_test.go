package factor

import (
	"testing"

	"gofacto/domain/core"
	"gofacto/domain/table"
	"gofacto/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCA_HairEyeReference(t *testing.T) {
	res, err := NewCA(Config{}).Fit(testkit.HairEye())
	require.NoError(t, err)

	eig := res.Eigen()
	require.Len(t, eig.Values, 3)
	assert.InDelta(t, 0.208773, eig.Values[0], 1e-5)
	assert.InDelta(t, 0.022227, eig.Values[1], 1e-5)
	assert.InDelta(t, 0.002598, eig.Values[2], 1e-5)
	assert.InDelta(t, 89.37, eig.Percent[0], 0.01)

	chi2 := res.ChiSquare()
	assert.InDelta(t, 138.29, chi2.Statistic, 0.01)
	assert.Equal(t, 9, chi2.DOF)
	assert.Less(t, chi2.PValue, 1e-20)
	assert.InDelta(t, chi2.Statistic/592, eig.Total(), 1e-9)
}

func TestCA_RetainsMinDimensions(t *testing.T) {
	res, err := NewCA(Config{}).Fit(testkit.HairEye())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Components(), "min(n-1, p-1) for a 4×4 table")

	cfg := testkit.DefaultGeneratorConfig()
	cfg.Continuous, cfg.Categorical, cfg.Frequency, cfg.Rows = 0, 0, 5, 12
	tbl, err := testkit.NewTableGenerator(cfg).Generate()
	require.NoError(t, err)
	res2, err := NewCA(Config{}).Fit(tbl)
	require.NoError(t, err)
	assert.Equal(t, 4, res2.Components())
	assert.Len(t, res2.Eigen().Values, 4)
}

func TestCA_AxisProperties(t *testing.T) {
	res, err := NewCA(Config{}).Fit(testkit.HairEye())
	require.NoError(t, err)

	assertEigenOrdered(t, res.Eigen())
	assertContributionsSum(t, res.Rows())
	assertContributionsSum(t, res.Columns())
	assertCos2Complete(t, res.Rows())
	assertCos2Complete(t, res.Columns())
	assert.InDelta(t, 1, sum(res.Rows().Weights), tol)
	assert.InDelta(t, 1, sum(res.Columns().Weights), tol)
}

func TestCA_UniformTableHasNoInertia(t *testing.T) {
	res, err := NewCA(Config{}).Fit(testkit.UniformCounts())
	require.NoError(t, err)

	eig := res.Eigen()
	require.Len(t, eig.Values, 1)
	assert.Equal(t, 0.0, eig.Values[0])
	assert.Equal(t, 0.0, eig.Percent[0])

	rows := res.Rows()
	for i := 0; i < rows.Len(); i++ {
		assert.Equal(t, 0.0, rows.Contrib.At(i, 0))
		assert.Equal(t, 0.0, rows.Cos2.At(i, 0))
	}
	assert.InDelta(t, 0, res.ChiSquare().Statistic, 1e-12)
}

func TestCA_SupplementaryColumnIndexEqualToColumnCount(t *testing.T) {
	tbl := testkit.HairEye()
	_, err := NewCA(Config{ColSup: []int{tbl.NumColumns()}}).Fit(tbl)
	require.Error(t, err)
	assert.True(t, core.IsConfigurationError(err))
	assert.ErrorIs(t, err, core.ErrIndexOutOfRange)
}

func TestCA_SupplementaryRoundTrip(t *testing.T) {
	base := testkit.HairEye()
	cols := make([]table.Column, base.NumColumns())
	for j := range cols {
		values := append(append([]float64(nil), base.Columns[j].Values...), 2*base.Columns[j].Values[1])
		cols[j] = table.Frequency(base.Columns[j].Name, values)
	}
	// a supplementary column proportional to "Blue" and a row proportional to "Brown"
	blue := base.Columns[1].Values
	cols = append(cols, table.Frequency("Blue2", []float64{3 * blue[0], 3 * blue[1], 3 * blue[2], 3 * blue[3], 0}))
	tbl, err := table.New(append(append([]string(nil), base.RowNames...), "Brown2"), cols...)
	require.NoError(t, err)

	res, err := NewCA(Config{RowSup: []int{4}, ColSup: []int{4}}).Fit(tbl)
	require.NoError(t, err)

	rowSup, err := res.SupplementaryRows()
	require.NoError(t, err)
	assertRowsEqual(t, res.Rows().Coord, rowSup.Coord, 1, 0)

	colSup, err := res.SupplementaryColumns()
	require.NoError(t, err)
	assertRowsEqual(t, res.Columns().Coord, colSup.Coord, 1, 0)

	_, err = res.SupplementaryQuantitative()
	assert.True(t, core.IsResultUnavailable(err))
}

func TestCA_SpecificAnalysis(t *testing.T) {
	tbl := testkit.HairEye()
	res, err := NewCA(Config{Excluded: map[string][]string{"Hazel": nil}}).Fit(tbl)
	require.NoError(t, err)

	assert.Equal(t, []string{"Brown", "Blue", "Green"}, res.Columns().Labels)
	assertEigenOrdered(t, res.Eigen())
	assertContributionsSum(t, res.Rows())
	assertContributionsSum(t, res.Columns())

	full, err := NewCA(Config{}).Fit(tbl)
	require.NoError(t, err)
	assert.InDeltaSlice(t, full.Rows().Weights, res.Rows().Weights, tol, "margins come from the full table")
	assert.Less(t, res.Eigen().Total(), full.Eigen().Total())

	_, err = NewCA(Config{Excluded: map[string][]string{"Purple": nil}}).Fit(tbl)
	assert.True(t, core.IsConfigurationError(err))
	_, err = NewCA(Config{Excluded: map[string][]string{"Blue": {"x"}}}).Fit(tbl)
	assert.True(t, core.IsConfigurationError(err))
}

func TestCA_Degeneracies(t *testing.T) {
	tbl, err := table.New(nil,
		table.Frequency("a", []float64{1, 0, 3}),
		table.Frequency("b", []float64{2, 0, 1}),
	)
	require.NoError(t, err)
	_, err = NewCA(Config{}).Fit(tbl)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmptyElement)
	assert.True(t, core.IsDegeneracyError(err))

	neg, err := table.New(nil,
		table.Frequency("a", []float64{1, -2, 3}),
		table.Frequency("b", []float64{2, 1, 1}),
	)
	require.NoError(t, err)
	_, err = NewCA(Config{}).Fit(neg)
	assert.True(t, core.IsConfigurationError(err))

	_, err = NewCA(Config{RowWeights: []float64{1, 1, 1, 1}}).Fit(testkit.HairEye())
	assert.ErrorIs(t, err, core.ErrUnsupportedVariant)
}

func TestCA_DimDescRanksRowsAndColumns(t *testing.T) {
	res, err := NewCA(Config{}).Fit(testkit.HairEye())
	require.NoError(t, err)

	desc, err := res.DimDesc(0, 0.05)
	require.NoError(t, err)
	require.Len(t, desc.Rows, 4)
	require.Len(t, desc.Columns, 4)
	for i := 1; i < len(desc.Rows); i++ {
		assert.GreaterOrEqual(t, desc.Rows[i-1].Coord, desc.Rows[i].Coord)
	}
	// hair colour opposes dark and blond along the first axis
	ends := []string{desc.Rows[0].Label, desc.Rows[3].Label}
	assert.ElementsMatch(t, []string{"Black", "Blond"}, ends)
	assert.Empty(t, desc.Quantitative)
	assert.False(t, desc.NoSignificantAssociation, "rankings describe the axis")
}
