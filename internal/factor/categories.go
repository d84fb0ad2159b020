package factor

import (
	"gonum.org/v1/gonum/mat"
)

// rowSpaceCategories places the levels of categorical variables at the
// weighted barycentre of their active rows (PCA, CA, FAMD, MFA). x and
// colWeights are the active design, used for the level distances.
func rowSpaceCategories(vars []*categorical, part *partition, rowWeights []float64, a *axes, x *mat.Dense, colWeights []float64) (*Section, *LinkSection) {
	if len(vars) == 0 {
		return nil, nil
	}
	k := a.k()
	cats := &Section{}
	links := &LinkSection{Eta2: mat.NewDense(len(vars), k, nil)}
	var coords, tests []*mat.Dense
	for v, cat := range vars {
		g := barycenters(cat, part.active, rowWeights, a.rowCoord)
		cats.Labels = append(cats.Labels, cat.categoryLabels()...)
		cats.Weights = append(cats.Weights, g.weights...)
		cats.Dist2 = append(cats.Dist2, levelProfiles(cat, part.active, rowWeights, x, colWeights)...)
		coords = append(coords, g.bary)
		tests = append(tests, valueTests(g, part.numActive(), a.lambdas()))
		links.Labels = append(links.Labels, cat.name)
		links.Eta2.SetRow(v, correlationRatio(g, rowWeights, a.rowCoord))
	}
	cats.Coord = stackRows(coords, k)
	cats.VTest = stackRows(tests, k)
	cats.Cos2 = squaredCosines(cats.Coord, cats.Dist2)
	return cats, links
}

// columnSpaceCategories projects the indicator columns of categorical
// variables with the column transition formula (MCA)
func columnSpaceCategories(vars []*categorical, part *partition, rowWeights []float64, a *axes) (*Section, *LinkSection) {
	if len(vars) == 0 {
		return nil, nil
	}
	k := a.k()
	b := newIndicatorBlock(vars, part, rowWeights, 1)
	coord, dist2 := projectColumns(b, part.active, a)
	cats := supplementarySection(b.labels(), coord, dist2)
	cats.Weights = b.props

	links := &LinkSection{Eta2: mat.NewDense(len(vars), k, nil)}
	var tests []*mat.Dense
	for v, cat := range vars {
		g := barycenters(cat, part.active, rowWeights, a.rowCoord)
		tests = append(tests, valueTests(g, part.numActive(), a.lambdas()))
		links.Labels = append(links.Labels, cat.name)
		links.Eta2.SetRow(v, correlationRatio(g, rowWeights, a.rowCoord))
	}
	cats.VTest = stackRows(tests, k)
	return cats, links
}

// continuousLinks correlates continuous columns with every axis; the
// coordinate of a supplementary variable is its correlation
func continuousLinks(part *partition, cols []int, rowWeights []float64, a *axes, parallel bool) (*Section, error) {
	if len(cols) == 0 {
		return nil, nil
	}
	coord := mat.NewDense(len(cols), a.k(), nil)
	labels := make([]string, len(cols))
	err := forEach(len(cols), parallel, func(v int) error {
		col := part.tbl.Columns[cols[v]]
		labels[v] = col.Name
		coord.SetRow(v, axisCorrelations(pickFloat(col.Values, part.active), rowWeights, a.rowCoord))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Section{Labels: labels, Coord: coord, Cos2: squares(coord)}, nil
}

// stackRows concatenates matrices with k columns vertically
func stackRows(parts []*mat.Dense, k int) *mat.Dense {
	n := 0
	for _, p := range parts {
		r, _ := p.Dims()
		n += r
	}
	out := mat.NewDense(n, k, nil)
	at := 0
	for _, p := range parts {
		r, _ := p.Dims()
		for i := 0; i < r; i++ {
			out.SetRow(at+i, p.RawRowView(i))
		}
		at += r
	}
	return out
}
