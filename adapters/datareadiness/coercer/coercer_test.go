package coercer

import (
	"fmt"
	"math"
	"testing"

	"gofacto/domain/table"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())
	cases := map[string]float64{
		"42":        42,
		" -3.5 ":    -3.5,
		"1e3":       1000,
		"(12)":      -12,
		"$1,000.50": 1000.5,
		"1.234,56":  1234.56,
		"1 234,5":   1234.5,
		"3,5":       3.5,
		"12%":       12,
	}
	for in, want := range cases {
		got, ok := c.ParseNumber(in)
		assert.True(t, ok, in)
		assert.InDelta(t, want, got, 1e-9, in)
	}
	for _, in := range []string{"", "abc", "Inf", "1.2.3x"} {
		_, ok := c.ParseNumber(in)
		assert.False(t, ok, in)
	}
}

func TestAnalyzeTypeDistribution(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())

	cont := c.AnalyzeTypeDistribution([]string{"1.5", "2.25", "NA", "3", "-1"})
	assert.Equal(t, table.KindContinuous, cont.RecommendedKind)
	assert.Equal(t, 4, cont.ValidCount)
	assert.Equal(t, 1, cont.NegativeCount)
	assert.Equal(t, 1.0, cont.NumericRatio)

	cat := c.AnalyzeTypeDistribution([]string{"red", "blue", "red", "", "green"})
	assert.Equal(t, table.KindCategorical, cat.RecommendedKind)
	assert.Equal(t, 3, cat.DistinctCount)
	assert.False(t, cat.Identifier)

	// 200 integer cells over 3 codes read as categorical codes
	codes := make([]string, 200)
	for i := range codes {
		codes[i] = fmt.Sprint(i % 3)
	}
	assert.Equal(t, table.KindCategorical, c.AnalyzeTypeDistribution(codes).RecommendedKind)

	ids := make([]string, 150)
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%d", i)
	}
	assert.True(t, c.AnalyzeTypeDistribution(ids).Identifier)

	empty := c.AnalyzeTypeDistribution([]string{"", "NA"})
	assert.Equal(t, 0, empty.ValidCount)
	assert.Equal(t, table.KindCategorical, empty.RecommendedKind)
}

func TestCoerce(t *testing.T) {
	c := NewTypeCoercer(DefaultCoercionConfig())

	values, unparsed := c.CoerceNumeric([]string{"1", "?", "x", "2,5"})
	assert.Equal(t, 1, unparsed)
	assert.Equal(t, 1.0, values[0])
	assert.True(t, math.IsNaN(values[1]))
	assert.True(t, math.IsNaN(values[2]))
	assert.Equal(t, 2.5, values[3])

	labels := c.CoerceLabels([]string{"  New   York ", "null", "Paris"})
	assert.Equal(t, []string{"New York", "", "Paris"}, labels)

	accents := c.CoerceLabels([]string{"caf\u00e9", "cafe\u0301"})
	assert.Equal(t, accents[0], accents[1])

	assert.True(t, IsMissing(" N/A "))
	assert.False(t, IsMissing("0"))
}
