package profiling

import (
	"math"
	"testing"

	"gofacto/domain/table"
	"gofacto/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeDistribution(t *testing.T) {
	d, err := NewDistributionAnalyzer().AnalyzeDistribution([]float64{1, 2, 3, 4, math.NaN(), 5, 6, 7, 8})
	require.NoError(t, err)

	assert.Equal(t, 8, d.Count)
	assert.Equal(t, 1, d.Missing)
	assert.Equal(t, 36.0, d.Sum)
	assert.Equal(t, 4.5, d.Mean)
	assert.InDelta(t, math.Sqrt(6), d.StdDev, 1e-12)
	assert.Equal(t, 1.0, d.Min)
	assert.Equal(t, 2.5, d.Q1)
	assert.Equal(t, 4.5, d.Median)
	assert.Equal(t, 6.5, d.Q3)
	assert.Equal(t, 8.0, d.Max)
	assert.InDelta(t, 0, d.Skewness, 1e-12, "symmetric sample")
	assert.Less(t, d.Kurtosis, 0.0, "uniform sample is platykurtic")
	assert.Equal(t, 0, d.Outliers)
	assert.Greater(t, d.NormalP, 0.05)
}

func TestAnalyzeDistribution_Edges(t *testing.T) {
	empty, err := NewDistributionAnalyzer().AnalyzeDistribution([]float64{math.NaN(), math.NaN()})
	require.NoError(t, err)
	assert.Equal(t, Distribution{Missing: 2}, empty)

	one, err := NewDistributionAnalyzer().AnalyzeDistribution([]float64{3})
	require.NoError(t, err)
	assert.Equal(t, 3.0, one.Median)
	assert.Equal(t, 0.0, one.StdDev)
	assert.Equal(t, 1.0, one.NormalP)

	outlier, err := NewDistributionAnalyzer().AnalyzeDistribution([]float64{1, 2, 2, 3, 3, 3, 4, 4, 50})
	require.NoError(t, err)
	assert.Equal(t, 1, outlier.Outliers)
	assert.Greater(t, outlier.Skewness, 1.0)
}

func TestProfileTable(t *testing.T) {
	tbl := testkit.Athletes()
	summary, err := NewDataProfiler().ProfileTable(tbl)
	require.NoError(t, err)

	assert.Equal(t, tbl.NumRows(), summary.Rows)
	require.Len(t, summary.Columns, tbl.NumColumns())
	for j, col := range summary.Columns {
		assert.Equal(t, tbl.Columns[j].Name, col.Name)
		if col.Kind == table.KindCategorical {
			assert.Nil(t, col.Distribution)
			var p float64
			for _, l := range col.Levels {
				p += l.Proportion
			}
			assert.InDelta(t, 1, p, 1e-12)
		} else {
			require.NotNil(t, col.Distribution)
			assert.Equal(t, tbl.NumRows(), col.Distribution.Count)
		}
	}
}

func TestProfileColumn_Levels(t *testing.T) {
	col := table.Categorical("colour", []string{"red", "white", "", "white", "rose", "white", "red"})
	s, err := NewDataProfiler().ProfileColumn(col)
	require.NoError(t, err)

	assert.Equal(t, 1, s.Missing)
	assert.Equal(t, []Level{
		{Label: "white", Count: 3, Proportion: 0.5},
		{Label: "red", Count: 2, Proportion: 2.0 / 6},
		{Label: "rose", Count: 1, Proportion: 1.0 / 6},
	}, s.Levels)
}

func TestProfileTable_Correlation(t *testing.T) {
	nan := math.NaN()
	tbl, err := table.New(nil,
		table.Continuous("x", []float64{1, 2, 3, 4, nan}),
		table.Continuous("v", []float64{1, 3, 2, 4, 7}),
		table.Categorical("c", []string{"a", "b", "a", "b", "a"}),
		table.Continuous("z", []float64{4, 3, 2, 1, 0}),
		table.Continuous("flat", []float64{5, 5, 5, 5, 2}),
	)
	require.NoError(t, err)

	summary, err := NewDataProfiler().ProfileTable(tbl)
	require.NoError(t, err)
	corr := summary.Correlation
	require.NotNil(t, corr)
	assert.Equal(t, []string{"x", "v", "z"}, corr.Labels, "constant over complete rows")
	assert.Equal(t, 4, corr.Complete)
	assert.InDelta(t, 1, corr.Values[0][0], 1e-12)
	assert.InDelta(t, 0.8, corr.Values[0][1], 1e-12)
	assert.InDelta(t, 0.8, corr.Values[1][0], 1e-12)
	assert.InDelta(t, -1, corr.Values[0][2], 1e-12)
	assert.InDelta(t, -0.8, corr.Values[1][2], 1e-12)

	only, err := NewDataProfiler().ProfileTable(tbl, 0, 2)
	require.NoError(t, err)
	assert.Nil(t, only.Correlation, "a single continuous column")
}
