package factor

import "math"

// Association is the chi-square test of independence between two
// categorical variables over the active rows, with the strength measures
// derived from the statistic
type Association struct {
	Variable1     string  `json:"variable1" yaml:"variable1"`
	Variable2     string  `json:"variable2" yaml:"variable2"`
	ChiSquareTest `yaml:",inline"`
	CramerV       float64 `json:"cramer_v" yaml:"cramer_v"`
	TschuprowT    float64 `json:"tschuprow_t" yaml:"tschuprow_t"`
	Contingency   float64 `json:"contingency" yaml:"contingency"` // Pearson's C
}

// associations crosses every pair of vars, in declaration order. Rows where
// either variable is missing are left out of the pair's table.
func associations(vars []*categorical, active []int, parallel bool) ([]Association, error) {
	type pair struct{ a, b int }
	var pairs []pair
	for a := 0; a < len(vars); a++ {
		for b := a + 1; b < len(vars); b++ {
			pairs = append(pairs, pair{a, b})
		}
	}
	out := make([]Association, len(pairs))
	err := forEach(len(pairs), parallel, func(p int) error {
		x, y := vars[pairs[p].a], vars[pairs[p].b]
		out[p] = associate(x, y, active)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func associate(x, y *categorical, active []int) Association {
	out := Association{Variable1: x.name, Variable2: y.name, ChiSquareTest: ChiSquareTest{PValue: 1}}

	counts := make([][]float64, len(x.levels))
	for l := range counts {
		counts[l] = make([]float64, len(y.levels))
	}
	rows := make([]float64, len(x.levels))
	cols := make([]float64, len(y.levels))
	var n float64
	for _, i := range active {
		a, b := x.codes[i], y.codes[i]
		if a < 0 || b < 0 {
			continue
		}
		counts[a][b]++
		rows[a]++
		cols[b]++
		n++
	}

	// levels unseen in the crossed rows do not count as table lines
	var r, c int
	for _, v := range rows {
		if v > 0 {
			r++
		}
	}
	for _, v := range cols {
		if v > 0 {
			c++
		}
	}
	if r < 2 || c < 2 {
		return out
	}

	var chi2 float64
	for a, rv := range rows {
		for b, cv := range cols {
			e := rv * cv / n
			if e == 0 {
				continue
			}
			d := counts[a][b] - e
			chi2 += d * d / e
		}
	}
	dof := (r - 1) * (c - 1)
	out.ChiSquareTest = ChiSquareTest{Statistic: chi2, DOF: dof, PValue: chiSquarePValue(chi2, dof)}
	out.CramerV = math.Sqrt(chi2 / (n * float64(min(r-1, c-1))))
	out.TschuprowT = math.Sqrt(chi2 / (n * math.Sqrt(float64(dof))))
	out.Contingency = math.Sqrt(chi2 / (chi2 + n))
	return out
}
