package factor

import (
	"math"
	"strconv"

	"gofacto/internal/linalg"

	"gonum.org/v1/gonum/mat"
)

// GroupSection holds the groups of an MFA. Coordinates of a group on an
// axis are Lg(axis, group); Dist2 is Lg(group, group).
type GroupSection struct {
	Labels      []string   `json:"labels"`
	Coord       *mat.Dense `json:"-"`
	Contrib     *mat.Dense `json:"-"`
	Cos2        *mat.Dense `json:"-"`
	Correlation *mat.Dense `json:"-"`
	Dist2       []float64  `json:"dist2"`
}

// Len is the number of groups in the section
func (s *GroupSection) Len() int { return len(s.Labels) }

// Coefficients are the Lg and RV matrices between groups. The last label
// is the whole analysis ("MFA").
type Coefficients struct {
	Labels []string   `json:"labels"`
	Lg     *mat.Dense `json:"-"`
	RV     *mat.Dense `json:"-"`
}

// PartialSection holds elements seen from each active group. The within
// inertia matrices are only set for active individuals.
type PartialSection struct {
	Labels []string     `json:"labels"`
	Groups []string     `json:"groups"`
	Coord  []*mat.Dense `json:"-"` // one element × axis matrix per group

	// WithinInertia is the share (%) of each axis' within-group inertia
	// carried by each individual
	WithinInertia *mat.Dense `json:"-"`
	// WithinPartialInertia splits each individual's within inertia (%)
	// over the groups, one matrix per group
	WithinPartialInertia []*mat.Dense `json:"-"`
}

// PartialAxes relates the axes of each group's separate analysis to the
// global axes
type PartialAxes struct {
	Labels     []string   `json:"labels"`
	Coord      *mat.Dense `json:"-"` // correlation with the global axes
	Contrib    *mat.Dense `json:"-"`
	CorBetween *mat.Dense `json:"-"`
}

// lg is Σ_{j∈g, l∈h} c_j c_l (Σ_i r_i x_ij x_il)²
func lg(xg, xh *mat.Dense, cg, ch, rowWeights []float64) float64 {
	var weighted mat.Dense
	weighted.Apply(func(i, _ int, v float64) float64 { return rowWeights[i] * v }, xh)
	var cross mat.Dense
	cross.Mul(xg.T(), &weighted)
	var sum float64
	for j := range cg {
		for l := range ch {
			m := cross.At(j, l)
			sum += cg[j] * ch[l] * m * m
		}
	}
	return sum
}

// coefficients computes Lg and RV between every pair of groups (the first
// active ones build the analysis) and against the whole, scaled by its
// first eigenvalue lambda1
func coefficients(labels []string, xs []*mat.Dense, ws [][]float64, active int, rowWeights []float64, lambda1 float64, parallel bool) (*Coefficients, error) {
	n := len(xs)
	lgm := mat.NewDense(n+1, n+1, nil)
	err := forEach(n, parallel, func(g int) error {
		for h := 0; h < n; h++ {
			lgm.Set(g, h, lg(xs[g], xs[h], ws[g], ws[h], rowWeights))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var whole float64
	for g := 0; g < n; g++ {
		var toWhole float64
		for h := 0; h < active; h++ {
			toWhole += lgm.At(g, h)
		}
		toWhole /= lambda1
		lgm.Set(g, n, toWhole)
		lgm.Set(n, g, toWhole)
		if g < active {
			whole += toWhole
		}
	}
	lgm.Set(n, n, whole/lambda1)

	rv := mat.NewDense(n+1, n+1, nil)
	for g := 0; g <= n; g++ {
		for h := 0; h <= n; h++ {
			den := math.Sqrt(lgm.At(g, g) * lgm.At(h, h))
			if den > 0 {
				rv.Set(g, h, lgm.At(g, h)/den)
			}
		}
	}

	return &Coefficients{
		Labels: append(append([]string(nil), labels...), "MFA"),
		Lg:     lgm,
		RV:     rv,
	}, nil
}

// partialRows returns F^g = |G| · X_g D_cg G_g S⁻¹ for every block of d
func partialRows(d *design, rows []int, a *axes) []*mat.Dense {
	groups := len(d.blocks)
	w := d.weights()
	out := make([]*mat.Dense, groups)
	for g := range out {
		out[g] = mat.NewDense(len(rows), a.k(), nil)
	}
	for r, i := range rows {
		x := d.row(i)
		for g := range out {
			from, to := d.span(g)
			out[g].SetRow(r, rowTransition(x, w, a, from, to, float64(groups)))
		}
	}
	return out
}

// withinInertia measures how far partial points sit from their individual:
// per axis, the share of Σ_i r_i Σ_g (F^g_ik − F_ik)² carried by each
// individual, and per individual the share carried by each group
func withinInertia(coord *mat.Dense, partial []*mat.Dense, rowWeights []float64) (*mat.Dense, []*mat.Dense) {
	n, k := coord.Dims()
	within := mat.NewDense(n, k, nil)
	shares := make([]*mat.Dense, len(partial))
	for g := range shares {
		shares[g] = mat.NewDense(n, k, nil)
	}
	for i := 0; i < n; i++ {
		for c := 0; c < k; c++ {
			var total float64
			for g, p := range partial {
				d := p.At(i, c) - coord.At(i, c)
				v := rowWeights[i] * d * d
				shares[g].Set(i, c, v)
				total += v
			}
			within.Set(i, c, total)
			for g := range shares {
				if total > 0 {
					shares[g].Set(i, c, 100*shares[g].At(i, c)/total)
				} else {
					shares[g].Set(i, c, 0)
				}
			}
		}
	}
	for c, total := range columnSums(within) {
		if total == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			within.Set(i, c, 100*within.At(i, c)/total)
		}
	}
	return within, shares
}

// groupCoordinates sums c_j G_jk² over the columns of each group
func groupCoordinates(colCoord *mat.Dense, colWeights []float64, spans [][2]int, k int) *mat.Dense {
	out := mat.NewDense(len(spans), k, nil)
	for g, span := range spans {
		for c := 0; c < k; c++ {
			var s float64
			for j := span[0]; j < span[1]; j++ {
				v := colCoord.At(j, c)
				s += colWeights[j] * v * v
			}
			out.Set(g, c, s)
		}
	}
	return out
}

// groupSection completes group coordinates with contributions, squared
// cosines against Lg(g,g) and the correlation of F_k with the partial F^g_k.
// partial may be nil for supplementary groups.
func groupSection(labels []string, coord *mat.Dense, lgSelf []float64, partial []*mat.Dense, a *axes) *GroupSection {
	n, k := coord.Dims()
	s := &GroupSection{
		Labels: labels,
		Coord:  coord,
		Cos2:   mat.NewDense(n, k, nil),
		Dist2:  lgSelf,
	}
	for g := 0; g < n; g++ {
		for c := 0; c < k; c++ {
			if lgSelf[g] > 0 {
				v := coord.At(g, c)
				s.Cos2.Set(g, c, v*v/lgSelf[g])
			}
		}
	}
	if partial == nil {
		return s
	}
	s.Contrib = mat.NewDense(n, k, nil)
	s.Correlation = mat.NewDense(n, k, nil)
	for c := 0; c < k; c++ {
		lambda := a.lambda(c)
		f := linalg.Column(a.rowCoord, c)
		for g := 0; g < n; g++ {
			if lambda > 0 {
				s.Contrib.Set(g, c, 100*coord.At(g, c)/lambda)
			}
			s.Correlation.Set(g, c, linalg.Correlation(f, linalg.Column(partial[g], c), a.rowWeights))
		}
	}
	return s
}

// partialAxes correlates the first axes of each separate analysis with the
// global axes
func partialAxes(groups []string, separate []*axes, a *axes) *PartialAxes {
	k := a.k()
	var labels []string
	var factors [][]float64
	var ratio []float64
	for g, sep := range separate {
		keep := min(k, sep.k())
		lambda1 := sep.lambda(0)
		for s := 0; s < keep; s++ {
			labels = append(labels, groups[g]+".Dim"+strconv.Itoa(s+1))
			factors = append(factors, linalg.Column(sep.rowCoord, s))
			if lambda1 > 0 {
				ratio = append(ratio, sep.lambda(s)/lambda1)
			} else {
				ratio = append(ratio, 0)
			}
		}
	}

	p := len(labels)
	out := &PartialAxes{
		Labels:     labels,
		Coord:      mat.NewDense(p, k, nil),
		Contrib:    mat.NewDense(p, k, nil),
		CorBetween: mat.NewDense(p, p, nil),
	}
	for c := 0; c < k; c++ {
		f := linalg.Column(a.rowCoord, c)
		lambda := a.lambda(c)
		for s := 0; s < p; s++ {
			r := linalg.Correlation(factors[s], f, a.rowWeights)
			out.Coord.Set(s, c, r)
			if lambda > 0 {
				out.Contrib.Set(s, c, 100*ratio[s]*r*r/lambda)
			}
		}
	}
	for s := 0; s < p; s++ {
		for t := 0; t < p; t++ {
			out.CorBetween.Set(s, t, linalg.Correlation(factors[s], factors[t], a.rowWeights))
		}
	}
	return out
}
