package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"gofacto/domain/table"
)

// GeneratorConfig shapes a random table. Continuous columns load on a small
// number of latent factors so that the first axes carry real structure;
// categorical columns cut the first latent factor into levels.
type GeneratorConfig struct {
	Rows        int     `json:"rows"`
	Continuous  int     `json:"continuous"`
	Categorical int     `json:"categorical"`
	Levels      int     `json:"levels"`
	Frequency   int     `json:"frequency"`
	Factors     int     `json:"factors"`
	Noise       float64 `json:"noise"`
	Seed        int64   `json:"seed"`
}

// DefaultGeneratorConfig returns a 40-row table with every column kind
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Rows:        40,
		Continuous:  6,
		Categorical: 3,
		Levels:      3,
		Frequency:   0,
		Factors:     2,
		Noise:       0.5,
		Seed:        42,
	}
}

// TableGenerator produces reproducible random tables
type TableGenerator struct {
	config GeneratorConfig
	rng    *rand.Rand
}

// NewTableGenerator creates a generator seeded from config
func NewTableGenerator(config GeneratorConfig) *TableGenerator {
	if config.Factors <= 0 {
		config.Factors = 1
	}
	if config.Levels < 2 {
		config.Levels = 2
	}
	return &TableGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate builds the table: continuous columns first, then categorical,
// then frequency columns
func (g *TableGenerator) Generate() (*table.Table, error) {
	cfg := g.config
	latent := make([][]float64, cfg.Factors)
	for f := range latent {
		latent[f] = make([]float64, cfg.Rows)
		for i := range latent[f] {
			latent[f][i] = g.rng.NormFloat64()
		}
	}

	var cols []table.Column
	for j := 0; j < cfg.Continuous; j++ {
		values := make([]float64, cfg.Rows)
		f := j % cfg.Factors
		loading := 1 + g.rng.Float64()
		for i := range values {
			values[i] = loading*latent[f][i] + cfg.Noise*g.rng.NormFloat64()
		}
		cols = append(cols, table.Continuous(fmt.Sprintf("x%d", j+1), values))
	}

	for j := 0; j < cfg.Categorical; j++ {
		labels := make([]string, cfg.Rows)
		for i := range labels {
			v := latent[0][i] + cfg.Noise*g.rng.NormFloat64()
			level := int(math.Floor((math.Tanh(v) + 1) / 2 * float64(cfg.Levels)))
			if level >= cfg.Levels {
				level = cfg.Levels - 1
			}
			labels[i] = fmt.Sprintf("L%d", level+1)
		}
		// every level appears at least once
		for l := 0; l < cfg.Levels && l < cfg.Rows; l++ {
			labels[(l*7+j)%cfg.Rows] = fmt.Sprintf("L%d", l+1)
		}
		cols = append(cols, table.Categorical(fmt.Sprintf("c%d", j+1), labels))
	}

	for j := 0; j < cfg.Frequency; j++ {
		counts := make([]float64, cfg.Rows)
		for i := range counts {
			rate := 5 * math.Exp(0.5*latent[0][i]*float64(j%2*2-1))
			counts[i] = float64(poisson(g.rng, rate)) + 1
		}
		cols = append(cols, table.Frequency(fmt.Sprintf("n%d", j+1), counts))
	}

	return table.New(nil, cols...)
}

// poisson draws with Knuth's multiplication method
func poisson(rng *rand.Rand, lambda float64) int {
	limit := math.Exp(-lambda)
	k, p := 0, 1.0
	for {
		p *= rng.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}
