package factor

import (
	"math"
	"sort"

	"gofacto/domain/core"
	"gofacto/internal/linalg"

	"gonum.org/v1/gonum/mat"
)

// QuantitativeLink is a continuous variable correlated with an axis
type QuantitativeLink struct {
	Variable      string  `json:"variable" yaml:"variable"`
	Correlation   float64 `json:"correlation" yaml:"correlation"`
	PValue        float64 `json:"p_value" yaml:"p_value"`
	Supplementary bool    `json:"supplementary,omitempty" yaml:"supplementary,omitempty"`
}

// QualitativeLink is a categorical variable linked to an axis
type QualitativeLink struct {
	Variable      string  `json:"variable" yaml:"variable"`
	Eta2          float64 `json:"eta2" yaml:"eta2"`
	PValue        float64 `json:"p_value" yaml:"p_value"`
	Supplementary bool    `json:"supplementary,omitempty" yaml:"supplementary,omitempty"`
}

// CategoryLink is a category whose mean coordinate departs from 0 on an axis
type CategoryLink struct {
	Category string  `json:"category" yaml:"category"`
	Variable string  `json:"variable" yaml:"variable"`
	Mean     float64 `json:"mean" yaml:"mean"`
	VTest    float64 `json:"v_test" yaml:"v_test"`
	PValue   float64 `json:"p_value" yaml:"p_value"`
}

// Ranked is an element with its coordinate on the described axis
type Ranked struct {
	Label string  `json:"label" yaml:"label"`
	Coord float64 `json:"coord" yaml:"coord"`
}

// AxisDescription lists what is significantly associated with one axis.
// Rows and Columns are only filled for correspondence analysis; they are
// rankings, so a CA description is never empty.
type AxisDescription struct {
	Axis                     int                `json:"axis" yaml:"axis"`
	Significance             float64            `json:"significance" yaml:"significance"`
	Quantitative             []QuantitativeLink `json:"quantitative,omitempty" yaml:"quantitative,omitempty"`
	Qualitative              []QualitativeLink  `json:"qualitative,omitempty" yaml:"qualitative,omitempty"`
	Categories               []CategoryLink     `json:"categories,omitempty" yaml:"categories,omitempty"`
	Rows                     []Ranked           `json:"rows,omitempty" yaml:"rows,omitempty"`
	Columns                  []Ranked           `json:"columns,omitempty" yaml:"columns,omitempty"`
	NoSignificantAssociation bool               `json:"no_significant_association" yaml:"no_significant_association"`
}

type quantiVariable struct {
	name          string
	values        []float64 // over active rows
	supplementary bool
}

type qualiVariable struct {
	cat           *categorical
	supplementary bool
}

// descriptor keeps what a fit needs to answer DimDesc on demand
type descriptor struct {
	coord      *mat.Dense // active rows × axes
	rowWeights []float64
	active     []int
	quanti     []quantiVariable
	quali      []qualiVariable
	rows, cols *Section
	parallel   bool
}

func newDescriptor(part *partition, rowWeights []float64, a *axes, parallel bool) *descriptor {
	return &descriptor{
		coord:      a.rowCoord,
		rowWeights: rowWeights,
		active:     part.active,
		parallel:   parallel,
	}
}

// addContinuous registers continuous columns of the table for description
func (d *descriptor) addContinuous(part *partition, cols []int, sup bool) {
	for _, j := range cols {
		col := part.tbl.Columns[j]
		d.quanti = append(d.quanti, quantiVariable{
			name:          col.Name,
			values:        pickFloat(col.Values, d.active),
			supplementary: sup,
		})
	}
}

// addCategorical registers encoded categorical variables for description
func (d *descriptor) addCategorical(vars []*categorical, sup bool) {
	for _, v := range vars {
		d.quali = append(d.quali, qualiVariable{cat: v, supplementary: sup})
	}
}

func (d *descriptor) describe(axis int, significance float64) (*AxisDescription, error) {
	_, k := d.coord.Dims()
	if axis < 0 || axis >= k {
		return nil, core.NewIndexError("axis", axis, k)
	}
	if math.IsNaN(significance) || significance <= 0 {
		return nil, core.NewConfigurationError("significance must be positive, got %v", significance)
	}
	keep := func(p float64) bool { return significance >= 1 || p <= significance }

	f := linalg.Column(d.coord, axis)
	fm := mat.NewDense(len(f), 1, f)
	lambda := linalg.WeightedSquaredNorm(f, d.rowWeights)
	n := len(d.active)

	out := &AxisDescription{Axis: axis, Significance: significance}

	quanti := make([]*QuantitativeLink, len(d.quanti))
	err := forEach(len(d.quanti), d.parallel, func(v int) error {
		q := d.quanti[v]
		xs, ws, idx := observed(q.values, d.rowWeights)
		r := linalg.Correlation(xs, pickFloat(f, idx), ws)
		p := correlationPValue(r, len(xs))
		if keep(p) {
			quanti[v] = &QuantitativeLink{Variable: q.name, Correlation: r, PValue: p, Supplementary: q.supplementary}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, q := range quanti {
		if q != nil {
			out.Quantitative = append(out.Quantitative, *q)
		}
	}

	type qualiResult struct {
		link       *QualitativeLink
		categories []CategoryLink
	}
	quali := make([]qualiResult, len(d.quali))
	err = forEach(len(d.quali), d.parallel, func(v int) error {
		q := d.quali[v]
		g := barycenters(q.cat, d.active, d.rowWeights, fm)
		eta2 := correlationRatio(g, d.rowWeights, fm)[0]
		observedLevels := 0
		for _, c := range g.counts {
			if c > 0 {
				observedLevels++
			}
		}
		p := correlationRatioPValue(eta2, observedLevels, n)
		if keep(p) {
			quali[v].link = &QualitativeLink{Variable: q.cat.name, Eta2: eta2, PValue: p, Supplementary: q.supplementary}
		}
		vt := valueTests(g, n, []float64{lambda})
		labels := q.cat.categoryLabels()
		for l := range q.cat.levels {
			if g.counts[l] == 0 {
				continue
			}
			test := vt.At(l, 0)
			pv := valueTestPValue(test)
			if keep(pv) {
				quali[v].categories = append(quali[v].categories, CategoryLink{
					Category: labels[l],
					Variable: q.cat.name,
					Mean:     g.bary.At(l, 0),
					VTest:    test,
					PValue:   pv,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, q := range quali {
		if q.link != nil {
			out.Qualitative = append(out.Qualitative, *q.link)
		}
		out.Categories = append(out.Categories, q.categories...)
	}

	sort.SliceStable(out.Quantitative, func(a, b int) bool {
		return out.Quantitative[a].Correlation > out.Quantitative[b].Correlation
	})
	sort.SliceStable(out.Qualitative, func(a, b int) bool {
		return out.Qualitative[a].Eta2 > out.Qualitative[b].Eta2
	})
	sort.SliceStable(out.Categories, func(a, b int) bool {
		return out.Categories[a].VTest > out.Categories[b].VTest
	})

	if d.rows != nil {
		out.Rows = ranking(d.rows, axis)
	}
	if d.cols != nil {
		out.Columns = ranking(d.cols, axis)
	}

	out.NoSignificantAssociation = len(out.Quantitative) == 0 && len(out.Qualitative) == 0 && len(out.Categories) == 0 &&
		len(out.Rows) == 0 && len(out.Columns) == 0
	return out, nil
}

// ranking sorts the elements of a section by their coordinate on axis
func ranking(s *Section, axis int) []Ranked {
	out := make([]Ranked, s.Len())
	for i, l := range s.Labels {
		out[i] = Ranked{Label: l, Coord: s.Coord.At(i, axis)}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Coord > out[b].Coord })
	return out
}
