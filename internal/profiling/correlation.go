package profiling

import (
	"math"

	"gofacto/domain/table"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// CorrelationMatrix holds Pearson correlations between continuous columns
type CorrelationMatrix struct {
	Labels   []string    `json:"labels" yaml:"labels"`
	Values   [][]float64 `json:"values" yaml:"values"`
	Complete int         `json:"complete_rows" yaml:"complete_rows"` // rows without a missing cell
}

// correlationMatrix correlates the continuous columns among cols over the
// rows where all of them are observed. Constant columns are left out, and
// nil is returned when fewer than two columns or rows remain.
func correlationMatrix(tbl *table.Table, cols []int) *CorrelationMatrix {
	var cont []table.Column
	for _, j := range cols {
		if tbl.Columns[j].Kind == table.KindContinuous {
			cont = append(cont, tbl.Columns[j])
		}
	}
	if len(cont) < 2 {
		return nil
	}

	var rows []int
	for i := 0; i < tbl.NumRows(); i++ {
		complete := true
		for _, c := range cont {
			if math.IsNaN(c.Values[i]) {
				complete = false
				break
			}
		}
		if complete {
			rows = append(rows, i)
		}
	}
	if len(rows) < 2 {
		return nil
	}

	var kept []table.Column
	for _, c := range cont {
		first := c.Values[rows[0]]
		for _, i := range rows[1:] {
			if c.Values[i] != first {
				kept = append(kept, c)
				break
			}
		}
	}
	if len(kept) < 2 {
		return nil
	}

	data := mat.NewDense(len(rows), len(kept), nil)
	for r, i := range rows {
		for c, col := range kept {
			data.Set(r, c, col.Values[i])
		}
	}
	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, data, nil)

	out := &CorrelationMatrix{Labels: make([]string, len(kept)), Values: make([][]float64, len(kept)), Complete: len(rows)}
	for a, col := range kept {
		out.Labels[a] = col.Name
		out.Values[a] = make([]float64, len(kept))
		for b := range kept {
			out.Values[a][b] = corr.At(a, b)
		}
	}
	return out
}
