package table

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"gofacto/domain/core"
)

// ColumnKind defines how a column participates in an analysis
type ColumnKind string

const (
	KindContinuous  ColumnKind = "continuous"
	KindCategorical ColumnKind = "categorical"
	KindFrequency   ColumnKind = "frequency"
)

// IsNumeric reports whether values of this kind are stored as float64
func (k ColumnKind) IsNumeric() bool {
	return k == KindContinuous || k == KindFrequency
}

// Column is a named, typed column of an analysis table.
// Numeric columns use NaN for missing cells, categorical columns use "".
type Column struct {
	Name   string     `json:"name"`
	Kind   ColumnKind `json:"kind"`
	Values []float64  `json:"values,omitempty"`
	Labels []string   `json:"labels,omitempty"`
}

// Len returns the number of cells in the column
func (c Column) Len() int {
	if c.Kind == KindCategorical {
		return len(c.Labels)
	}
	return len(c.Values)
}

// IsMissing reports whether cell i is missing
func (c Column) IsMissing(i int) bool {
	if c.Kind == KindCategorical {
		return strings.TrimSpace(c.Labels[i]) == ""
	}
	return math.IsNaN(c.Values[i])
}

// Continuous builds a continuous column
func Continuous(name string, values []float64) Column {
	return Column{Name: name, Kind: KindContinuous, Values: values}
}

// Frequency builds a frequency-count column
func Frequency(name string, counts []float64) Column {
	return Column{Name: name, Kind: KindFrequency, Values: counts}
}

// Categorical builds a categorical column
func Categorical(name string, labels []string) Column {
	return Column{Name: name, Kind: KindCategorical, Labels: labels}
}

// Table is the input dataset of an analysis: ordered named rows and ordered typed columns
type Table struct {
	RowNames []string `json:"row_names"`
	Columns  []Column `json:"columns"`
}

// New builds a table and checks that every column has one cell per row.
// Empty row names are replaced by their 1-based position.
func New(rowNames []string, columns ...Column) (*Table, error) {
	n := len(rowNames)
	if n == 0 && len(columns) > 0 {
		n = columns[0].Len()
		rowNames = make([]string, n)
	}

	names := make([]string, n)
	for i := range names {
		if i < len(rowNames) && rowNames[i] != "" {
			names[i] = rowNames[i]
		} else {
			names[i] = fmt.Sprintf("%d", i+1)
		}
	}

	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		if col.Name == "" {
			return nil, fmt.Errorf("column name cannot be empty")
		}
		if seen[col.Name] {
			return nil, fmt.Errorf("duplicate column name %q", col.Name)
		}
		seen[col.Name] = true
		if col.Len() != n {
			return nil, fmt.Errorf("column %q has %d cells, table has %d rows", col.Name, col.Len(), n)
		}
	}

	return &Table{RowNames: names, Columns: columns}, nil
}

// NumRows returns the number of rows
func (t *Table) NumRows() int {
	return len(t.RowNames)
}

// NumColumns returns the number of columns
func (t *Table) NumColumns() int {
	return len(t.Columns)
}

// ColumnIndex resolves a column name to its position, or -1
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// RowIndex resolves a row name to its position, or -1
func (t *Table) RowIndex(name string) int {
	for i, row := range t.RowNames {
		if row == name {
			return i
		}
	}
	return -1
}

// ColumnIndices resolves several column names, failing on the first unknown one
func (t *Table) ColumnIndices(names ...string) ([]int, error) {
	out := make([]int, 0, len(names))
	for _, name := range names {
		idx := t.ColumnIndex(name)
		if idx < 0 {
			return nil, core.NewConfigurationError("unknown column %q", name)
		}
		out = append(out, idx)
	}
	return out, nil
}

// RowIndices resolves several row names, failing on the first unknown one
func (t *Table) RowIndices(names ...string) ([]int, error) {
	out := make([]int, 0, len(names))
	for _, name := range names {
		idx := t.RowIndex(name)
		if idx < 0 {
			return nil, core.NewConfigurationError("unknown row %q", name)
		}
		out = append(out, idx)
	}
	return out, nil
}

// Fingerprint hashes row names, column names, kinds and cells, so two fits of the
// same data can be matched without comparing the tables
func (t *Table) Fingerprint() core.Hash {
	var buf []byte
	for _, name := range t.RowNames {
		buf = append(buf, name...)
		buf = append(buf, 0)
	}
	for _, col := range t.Columns {
		buf = append(buf, col.Name...)
		buf = append(buf, 0)
		buf = append(buf, col.Kind...)
		buf = append(buf, 0)
		for _, v := range col.Values {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
		}
		for _, l := range col.Labels {
			buf = append(buf, l...)
			buf = append(buf, 0)
		}
	}
	return core.NewHash(buf)
}
