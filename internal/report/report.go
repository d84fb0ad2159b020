package report

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"gofacto/domain/run"
	"gofacto/internal/factor"
	"gofacto/internal/profiling"

	"gonum.org/v1/gonum/mat"
)

// Value is a float that serialises NaN and infinities as JSON null
type Value float64

func (v Value) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// EigenRow is one line of the eigenvalue table
type EigenRow struct {
	Axis       string  `json:"axis" yaml:"axis"`
	Eigenvalue float64 `json:"eigenvalue" yaml:"eigenvalue"`
	Difference float64 `json:"difference" yaml:"difference"`
	Percent    float64 `json:"percent" yaml:"percent"`
	Cumulative float64 `json:"cumulative" yaml:"cumulative"`
}

// Table is a labelled element × axis block of one statistic
type Table struct {
	Name    string    `json:"name" yaml:"name"`
	Labels  []string  `json:"labels" yaml:"labels"`
	Columns []string  `json:"columns" yaml:"columns"`
	Values  [][]Value `json:"values" yaml:"values"`
}

// SectionReport holds the statistics of one role
type SectionReport struct {
	Name   string  `json:"name" yaml:"name"`
	Tables []Table `json:"tables" yaml:"tables"`
}

// Report is everything written for one fit
type Report struct {
	Title        string                    `json:"title" yaml:"title"`
	Variant      string                    `json:"variant" yaml:"variant"`
	Manifest     *run.Manifest             `json:"manifest" yaml:"manifest"`
	Components   int                       `json:"components" yaml:"components"`
	Eigen        []EigenRow                `json:"eigen" yaml:"eigen"`
	ChiSquare    *factor.ChiSquareTest     `json:"chi_square,omitempty" yaml:"chi_square,omitempty"`
	Associations []factor.Association      `json:"associations,omitempty" yaml:"associations,omitempty"` // MCA, MFA
	Summary      *profiling.TableSummary   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Sections     []SectionReport           `json:"sections" yaml:"sections"`
	Axes         []*factor.AxisDescription `json:"axes,omitempty" yaml:"axes,omitempty"`
}

// Options selects what Build puts in a report
type Options struct {
	Title        string
	DescribeAxes int     // axes passed to DimDesc, capped at the retained count
	Significance float64 // DimDesc threshold
	Summary      *profiling.TableSummary
	CodeVersion  string // recorded in the manifest, "dev" when empty
}

// Build collects the eigenvalues, every available section and the axis
// descriptions of res
func Build(res factor.Result, opts Options) (*Report, error) {
	r := &Report{
		Title:      opts.Title,
		Variant:    res.Variant(),
		Components: res.Components(),
		Summary:    opts.Summary,
	}
	if r.Title == "" {
		r.Title = r.Variant
	}
	version := opts.CodeVersion
	if version == "" {
		version = "dev"
	}
	manifest, err := run.NewManifest(res.RunID(), res.Variant(), res.TableHash(), res.Config(), res.Components(), version)
	if err != nil {
		return nil, err
	}
	r.Manifest = manifest

	eig := res.Eigen()
	for k, v := range eig.Values {
		r.Eigen = append(r.Eigen, EigenRow{
			Axis:       axisName(k),
			Eigenvalue: v,
			Difference: eig.Difference[k],
			Percent:    eig.Percent[k],
			Cumulative: eig.Cumulative[k],
		})
	}

	for _, ns := range res.Sections() {
		r.Sections = append(r.Sections, sectionReport(ns.Name, ns.Section))
	}

	switch fit := res.(type) {
	case *factor.CAResult:
		chi2 := fit.ChiSquare()
		r.ChiSquare = &chi2
	case *factor.MCAResult:
		r.Associations = fit.Associations()
	case *factor.MFAResult:
		r.Sections = append(r.Sections, mfaSections(fit)...)
		if assoc, err := fit.Associations(); err == nil {
			r.Associations = assoc
		}
	}

	n := opts.DescribeAxes
	if n > r.Components {
		n = r.Components
	}
	for axis := 0; axis < n; axis++ {
		desc, err := res.DimDesc(axis, opts.Significance)
		if err != nil {
			return nil, fmt.Errorf("describe %s: %w", axisName(axis), err)
		}
		r.Axes = append(r.Axes, desc)
	}
	return r, nil
}

func sectionReport(name string, s *factor.Section) SectionReport {
	out := SectionReport{Name: name}
	out.Tables = appendTable(out.Tables, "coord", s.Labels, s.Coord)
	out.Tables = appendTable(out.Tables, "contrib", s.Labels, s.Contrib)
	out.Tables = appendTable(out.Tables, "cos2", s.Labels, s.Cos2)
	out.Tables = appendTable(out.Tables, "v.test", s.Labels, s.VTest)
	return out
}

func mfaSections(fit *factor.MFAResult) []SectionReport {
	var out []SectionReport
	if g := fit.Groups(); g != nil {
		s := SectionReport{Name: "groups"}
		s.Tables = appendTable(s.Tables, "coord", g.Labels, g.Coord)
		s.Tables = appendTable(s.Tables, "contrib", g.Labels, g.Contrib)
		s.Tables = appendTable(s.Tables, "cos2", g.Labels, g.Cos2)
		s.Tables = appendTable(s.Tables, "correlation", g.Labels, g.Correlation)
		out = append(out, s)
	}
	if c := fit.Coefficients(); c != nil {
		s := SectionReport{Name: "group coefficients"}
		s.Tables = appendSquare(s.Tables, "Lg", c.Labels, c.Lg)
		s.Tables = appendSquare(s.Tables, "RV", c.Labels, c.RV)
		out = append(out, s)
	}
	if p := fit.PartialAxes(); p != nil {
		s := SectionReport{Name: "partial axes"}
		s.Tables = appendTable(s.Tables, "coord", p.Labels, p.Coord)
		s.Tables = appendTable(s.Tables, "contrib", p.Labels, p.Contrib)
		out = append(out, s)
	}
	return out
}

func appendTable(tables []Table, name string, labels []string, m *mat.Dense) []Table {
	if m == nil {
		return tables
	}
	_, k := m.Dims()
	cols := make([]string, k)
	for j := range cols {
		cols[j] = axisName(j)
	}
	return append(tables, Table{Name: name, Labels: labels, Columns: cols, Values: values(m)})
}

func appendSquare(tables []Table, name string, labels []string, m *mat.Dense) []Table {
	if m == nil {
		return tables
	}
	return append(tables, Table{Name: name, Labels: labels, Columns: labels, Values: values(m)})
}

func values(m *mat.Dense) [][]Value {
	r, c := m.Dims()
	out := make([][]Value, r)
	for i := range out {
		out[i] = make([]Value, c)
		for j := range out[i] {
			out[i][j] = Value(m.At(i, j))
		}
	}
	return out
}

func axisName(k int) string {
	return "Dim." + strconv.Itoa(k+1)
}
