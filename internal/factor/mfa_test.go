package factor

import (
	"math"
	"testing"

	"gofacto/domain/core"
	"gofacto/domain/table"
	"gofacto/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func winesConfig() Config {
	return Config{
		RowSup: []int{9},
		Groups: []Group{
			{Name: "olfaction", Size: 3, Kind: GroupContinuous},
			{Name: "visual", Size: 2, Kind: GroupContinuous},
			{Name: "origin", Size: 1, Kind: GroupCategorical, Supplementary: true},
		},
	}
}

func TestMFA_AxisProperties(t *testing.T) {
	res, err := NewMFA(winesConfig()).Fit(testkit.Wines())
	require.NoError(t, err)

	assertEigenOrdered(t, res.Eigen())
	assertContributionsSum(t, res.Individuals())
	assertCos2Complete(t, res.Individuals())

	quanti, err := res.Quantitative()
	require.NoError(t, err)
	assert.Equal(t, []string{"fruity", "floral", "spicy", "colour", "clarity"}, quanti.Labels)
	assertContributionsSum(t, quanti)

	groups := res.Groups()
	for k, total := range columnSums(groups.Contrib) {
		assert.InDelta(t, 100, total, tol, "axis %d", k)
	}
	// each balanced group has a first eigenvalue of 1, so λ₁ lies in [1, groups]
	assert.GreaterOrEqual(t, res.Eigen().Values[0], 1-tol)
	assert.LessOrEqual(t, res.Eigen().Values[0], 2+tol)

	_, err = res.Categories()
	assert.True(t, core.IsResultUnavailable(err))
}

func TestMFA_PartialReconstruction(t *testing.T) {
	res, err := NewMFA(winesConfig()).Fit(testkit.Wines())
	require.NoError(t, err)

	checkMean := func(global *mat.Dense, partial []*mat.Dense) {
		n, k := global.Dims()
		for i := 0; i < n; i++ {
			for c := 0; c < k; c++ {
				var mean float64
				for _, p := range partial {
					mean += p.At(i, c)
				}
				mean /= float64(len(partial))
				assert.InDelta(t, global.At(i, c), mean, tol)
			}
		}
	}

	ind := res.PartialIndividuals()
	assert.Equal(t, []string{"olfaction", "visual"}, ind.Groups)
	checkMean(res.Individuals().Coord, ind.Coord)

	sup, err := res.SupplementaryIndividuals()
	require.NoError(t, err)
	supPartial, err := res.SupplementaryPartialIndividuals()
	require.NoError(t, err)
	checkMean(sup.Coord, supPartial.Coord)
}

func TestMFA_WithinInertia(t *testing.T) {
	res, err := NewMFA(winesConfig()).Fit(testkit.Wines())
	require.NoError(t, err)

	ind := res.PartialIndividuals()
	for k, total := range columnSums(ind.WithinInertia) {
		assert.InDelta(t, 100, total, tol, "axis %d", k)
	}
	n, k := ind.WithinInertia.Dims()
	for i := 0; i < n; i++ {
		for c := 0; c < k; c++ {
			var share float64
			for _, m := range ind.WithinPartialInertia {
				share += m.At(i, c)
			}
			if ind.WithinInertia.At(i, c) > 0 {
				assert.InDelta(t, 100, share, tol)
			}
		}
	}
}

func TestMFA_Coefficients(t *testing.T) {
	res, err := NewMFA(winesConfig()).Fit(testkit.Wines())
	require.NoError(t, err)

	co := res.Coefficients()
	assert.Equal(t, []string{"olfaction", "visual", "origin", "MFA"}, co.Labels)
	n, _ := co.RV.Dims()
	for g := 0; g < n; g++ {
		assert.InDelta(t, 1, co.RV.At(g, g), tol)
		assert.GreaterOrEqual(t, co.Lg.At(g, g), 1-tol, "a balanced group has Lg(g,g) ≥ 1")
		for h := 0; h < n; h++ {
			assert.InDelta(t, co.Lg.At(g, h), co.Lg.At(h, g), 1e-9)
			assert.InDelta(t, co.RV.At(g, h), co.RV.At(h, g), 1e-9)
			assert.LessOrEqual(t, co.RV.At(g, h), 1+tol)
			assert.GreaterOrEqual(t, co.RV.At(g, h), -tol)
		}
	}

	// a group's coordinates on an axis add up to its eigenvalue
	groups := res.Groups()
	for k, total := range columnSums(groups.Coord) {
		assert.InDelta(t, res.Eigen().Values[k], total, tol)
	}
	assert.InDeltaSlice(t, []float64{co.Lg.At(0, 0), co.Lg.At(1, 1)}, groups.Dist2, tol)
}

func TestMFA_SingleGroupIsScaledPCA(t *testing.T) {
	tbl := testkit.Athletes()
	pca, err := NewPCA(Config{QuantiSup: []int{4}, QualiSup: []int{5}}).Fit(tbl)
	require.NoError(t, err)

	events, err := table.New(tbl.RowNames, tbl.Columns[:4]...)
	require.NoError(t, err)
	mfa, err := NewMFA(Config{Groups: []Group{{Name: "events", Size: 4, Kind: GroupContinuous}}}).Fit(events)
	require.NoError(t, err)

	lambda1 := pca.Eigen().Values[0]
	require.Equal(t, len(pca.Eigen().Values), len(mfa.Eigen().Values))
	for k, v := range pca.Eigen().Values {
		assert.InDelta(t, v/lambda1, mfa.Eigen().Values[k], tol)
	}
	assert.InDelta(t, 1, mfa.Eigen().Values[0], tol)
	// coordinates shrink by √λ₁
	assert.InDelta(t, math.Abs(pca.Individuals().Coord.At(0, 0))/math.Sqrt(lambda1), math.Abs(mfa.Individuals().Coord.At(0, 0)), tol)
}

func TestMFA_SupplementaryGroup(t *testing.T) {
	res, err := NewMFA(winesConfig()).Fit(testkit.Wines())
	require.NoError(t, err)

	sup, err := res.SupplementaryGroups()
	require.NoError(t, err)
	assert.Equal(t, []string{"origin"}, sup.Labels)
	for k := 0; k < res.Components(); k++ {
		assert.GreaterOrEqual(t, sup.Cos2.At(0, k), 0.0)
		assert.LessOrEqual(t, sup.Cos2.At(0, k), 1+tol)
	}

	cats, err := res.SupplementaryCategories()
	require.NoError(t, err)
	assert.Equal(t, []string{"origin_Saumur", "origin_Bourgueil", "origin_Chinon"}, cats.Labels)
	require.NotNil(t, cats.VTest)

	_, err = res.SupplementaryQuantitative()
	assert.True(t, core.IsResultUnavailable(err))
}

func TestMFA_PartialAxes(t *testing.T) {
	res, err := NewMFA(winesConfig()).Fit(testkit.Wines())
	require.NoError(t, err)

	pa := res.PartialAxes()
	require.NotEmpty(t, pa.Labels)
	assert.Equal(t, "olfaction.Dim1", pa.Labels[0])
	p, _ := pa.CorBetween.Dims()
	for s := 0; s < p; s++ {
		assert.InDelta(t, 1, pa.CorBetween.At(s, s), tol)
		for k := 0; k < res.Components(); k++ {
			assert.LessOrEqual(t, math.Abs(pa.Coord.At(s, k)), 1+tol)
		}
	}
	// with every separate axis kept, partial axis contributions add up to 100
	for k, total := range columnSums(pa.Contrib) {
		if len(pa.Labels) == 5 {
			assert.InDelta(t, 100, total, 1e-4, "axis %d", k)
		}
	}
}

func TestMFA_MixedAndCategoricalGroups(t *testing.T) {
	tbl := testkit.Mixed()
	cfg := Config{Groups: []Group{
		{Name: "money", Size: 2, Kind: GroupContinuous},
		{Name: "profile", Size: 2, Kind: GroupCategorical},
		{Name: "extra", Size: 2, Kind: GroupMixed},
	}}
	res, err := NewMFA(cfg).Fit(tbl)
	require.NoError(t, err)

	assertEigenOrdered(t, res.Eigen())
	assertContributionsSum(t, res.Individuals())

	cats, err := res.Categories()
	require.NoError(t, err)
	assert.Contains(t, cats.Labels, "gender_f")
	assert.Contains(t, cats.Labels, "region_north")

	quanti, err := res.Quantitative()
	require.NoError(t, err)
	assert.Equal(t, []string{"income", "age", "savings"}, quanti.Labels)

	pc, err := res.PartialCategories()
	require.NoError(t, err)
	assert.Len(t, pc.Coord, 3)

	for k, total := range columnSums(res.Groups().Contrib) {
		assert.InDelta(t, 100, total, tol, "axis %d", k)
	}
}

func TestMFA_FrequencyGroups(t *testing.T) {
	cfg := testkit.DefaultGeneratorConfig()
	cfg.Continuous, cfg.Categorical, cfg.Frequency, cfg.Rows = 0, 0, 6, 15
	tbl, err := testkit.NewTableGenerator(cfg).Generate()
	require.NoError(t, err)

	res, err := NewMFA(Config{Groups: []Group{
		{Name: "first", Size: 3, Kind: GroupFrequency},
		{Name: "second", Size: 3, Kind: GroupFrequency},
	}}).Fit(tbl)
	require.NoError(t, err)

	assertEigenOrdered(t, res.Eigen())
	assertContributionsSum(t, res.Individuals())
	freq, err := res.Frequencies()
	require.NoError(t, err)
	assertContributionsSum(t, freq)
	assert.InDelta(t, 1, sum(res.Individuals().Weights), tol)
}

func TestMFA_GroupErrors(t *testing.T) {
	tbl := testkit.Wines()
	tests := []struct {
		name   string
		groups []Group
	}{
		{"sizes short of the column count", []Group{{Size: 3, Kind: GroupContinuous}, {Size: 2, Kind: GroupContinuous}}},
		{"sizes past the column count", []Group{{Size: 5, Kind: GroupContinuous}, {Size: 2, Kind: GroupCategorical}}},
		{"empty group", []Group{{Size: 0, Kind: GroupContinuous}, {Size: 6, Kind: GroupMixed}}},
		{"kind mismatch", []Group{{Size: 3, Kind: GroupCategorical}, {Size: 3, Kind: GroupMixed}}},
		{"unknown kind", []Group{{Size: 3, Kind: "ordinal"}, {Size: 3, Kind: GroupMixed}}},
		{"frequency mixed with others", []Group{{Size: 5, Kind: GroupFrequency}, {Size: 1, Kind: GroupCategorical}}},
		{"no active group", []Group{{Size: 5, Kind: GroupContinuous, Supplementary: true}, {Size: 1, Kind: GroupCategorical, Supplementary: true}}},
		{"one active column", []Group{{Size: 1, Kind: GroupContinuous}, {Size: 4, Kind: GroupContinuous, Supplementary: true}, {Size: 1, Kind: GroupCategorical, Supplementary: true}}},
		{"duplicate names", []Group{{Name: "a", Size: 5, Kind: GroupContinuous}, {Name: "a", Size: 1, Kind: GroupCategorical}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMFA(Config{Groups: tt.groups}).Fit(tbl)
			require.Error(t, err)
			assert.True(t, core.IsConfigurationError(err), "got %v", err)
		})
	}

	_, err := NewMFA(Config{}).Fit(tbl)
	assert.True(t, core.IsConfigurationError(err))

	_, err = NewMFA(Config{Groups: winesConfig().Groups, QuantiSup: []int{0}}).Fit(tbl)
	assert.ErrorIs(t, err, core.ErrUnsupportedVariant)
}
