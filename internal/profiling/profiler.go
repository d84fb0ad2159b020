package profiling

import (
	"sort"
	"strings"

	"gofacto/domain/table"
	"gofacto/internal"
)

// Level is one category of a categorical column
type Level struct {
	Label      string  `json:"label" yaml:"label"`
	Count      int     `json:"count" yaml:"count"`
	Proportion float64 `json:"proportion" yaml:"proportion"` // among observed cells
}

// ColumnSummary describes one column. Numeric columns fill Distribution,
// categorical columns fill Levels.
type ColumnSummary struct {
	Name         string           `json:"name" yaml:"name"`
	Kind         table.ColumnKind `json:"kind" yaml:"kind"`
	Distribution *Distribution    `json:"distribution,omitempty" yaml:"distribution,omitempty"`
	Levels       []Level          `json:"levels,omitempty" yaml:"levels,omitempty"`
	Missing      int              `json:"missing" yaml:"missing"`
}

// TableSummary is the dataset overview shown before any analysis
type TableSummary struct {
	Rows        int                `json:"rows" yaml:"rows"`
	Columns     []ColumnSummary    `json:"columns" yaml:"columns"`
	Correlation *CorrelationMatrix `json:"correlation,omitempty" yaml:"correlation,omitempty"`
}

// DataProfiler summarises analysis tables
type DataProfiler struct {
	distributions *DistributionAnalyzer
}

// NewDataProfiler creates a new data profiler
func NewDataProfiler() *DataProfiler {
	return &DataProfiler{distributions: NewDistributionAnalyzer()}
}

// ProfileTable summarises every column of tbl, or only cols when given
func (dp *DataProfiler) ProfileTable(tbl *table.Table, cols ...int) (*TableSummary, error) {
	if len(cols) == 0 {
		cols = make([]int, tbl.NumColumns())
		for j := range cols {
			cols[j] = j
		}
	}

	summary := &TableSummary{Rows: tbl.NumRows(), Columns: make([]ColumnSummary, 0, len(cols))}
	for _, j := range cols {
		col, err := dp.ProfileColumn(tbl.Columns[j])
		if err != nil {
			return nil, err
		}
		summary.Columns = append(summary.Columns, col)
	}
	summary.Correlation = correlationMatrix(tbl, cols)
	internal.DefaultLogger.Debug("[profiling] summarised %d columns over %d rows", len(cols), summary.Rows)
	return summary, nil
}

// ProfileColumn summarises a single column
func (dp *DataProfiler) ProfileColumn(col table.Column) (ColumnSummary, error) {
	out := ColumnSummary{Name: col.Name, Kind: col.Kind}
	if col.Kind != table.KindCategorical {
		d, err := dp.distributions.AnalyzeDistribution(col.Values)
		if err != nil {
			return out, err
		}
		out.Distribution = &d
		out.Missing = d.Missing
		return out, nil
	}

	index := make(map[string]int)
	for _, raw := range col.Labels {
		label := strings.TrimSpace(raw)
		if label == "" {
			out.Missing++
			continue
		}
		k, ok := index[label]
		if !ok {
			k = len(out.Levels)
			index[label] = k
			out.Levels = append(out.Levels, Level{Label: label})
		}
		out.Levels[k].Count++
	}
	observed := float64(len(col.Labels) - out.Missing)
	for k := range out.Levels {
		out.Levels[k].Proportion = float64(out.Levels[k].Count) / observed
	}
	// most frequent first, ties in order of appearance
	sort.SliceStable(out.Levels, func(a, b int) bool { return out.Levels[a].Count > out.Levels[b].Count })
	return out, nil
}
