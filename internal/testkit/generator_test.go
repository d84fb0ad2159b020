package testkit

import (
	"testing"

	"gofacto/domain/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableGenerator_Reproducible(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.Frequency = 2

	a, err := NewTableGenerator(cfg).Generate()
	require.NoError(t, err)
	b, err := NewTableGenerator(cfg).Generate()
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Equal(t, cfg.Rows, a.NumRows())
	assert.Equal(t, cfg.Continuous+cfg.Categorical+cfg.Frequency, a.NumColumns())

	cfg.Seed++
	c, err := NewTableGenerator(cfg).Generate()
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestTableGenerator_ColumnKinds(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	cfg.Frequency = 1
	tbl, err := NewTableGenerator(cfg).Generate()
	require.NoError(t, err)

	for j := 0; j < cfg.Continuous; j++ {
		assert.Equal(t, table.KindContinuous, tbl.Columns[j].Kind)
	}
	for j := cfg.Continuous; j < cfg.Continuous+cfg.Categorical; j++ {
		col := tbl.Columns[j]
		assert.Equal(t, table.KindCategorical, col.Kind)
		seen := map[string]bool{}
		for _, l := range col.Labels {
			seen[l] = true
		}
		assert.Len(t, seen, cfg.Levels, "every level should be observed in %s", col.Name)
	}
	freq := tbl.Columns[tbl.NumColumns()-1]
	assert.Equal(t, table.KindFrequency, freq.Kind)
	for _, v := range freq.Values {
		assert.GreaterOrEqual(t, v, 1.0)
	}
}

func TestDatasets_Build(t *testing.T) {
	for name, tbl := range map[string]*table.Table{
		"hair-eye": HairEye(),
		"uniform":  UniformCounts(),
		"athletes": Athletes(),
		"survey":   Survey(),
		"mixed":    Mixed(),
		"wines":    Wines(),
		"constant": Constant(),
		"missing":  WithMissing(),
	} {
		assert.Greater(t, tbl.NumRows(), 0, name)
		assert.Greater(t, tbl.NumColumns(), 0, name)
	}
}
