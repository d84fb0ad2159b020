package report

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/template"

	"gofacto/internal/profiling"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

//go:embed templates/*.tmpl
var templateFiles embed.FS

// Formats lists the output formats Render accepts
var Formats = []string{"markdown", "html", "yaml", "json", "xlsx"}

// Renderer writes reports
type Renderer struct {
	digits   int
	maxRows  int
	markdown *template.Template
}

// NewRenderer formats numbers with digits decimals and cuts markdown and
// HTML tables after maxRows elements (0 keeps all)
func NewRenderer(digits, maxRows int) (*Renderer, error) {
	r := &Renderer{digits: digits, maxRows: maxRows}
	funcs := template.FuncMap{
		"num":          r.num,
		"pct":          func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) },
		"pval":         pval,
		"axis":         func(k int) string { return axisName(k) },
		"title":        title,
		"grid":         r.grid,
		"summaryTable": r.summaryTable,
	}
	t, err := template.New("report").Funcs(funcs).ParseFS(templateFiles, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	r.markdown = t
	return r, nil
}

// Render writes rep to w in format
func (r *Renderer) Render(w io.Writer, rep *Report, format string) error {
	switch format {
	case "markdown", "md":
		return r.markdown.ExecuteTemplate(w, "report.md.tmpl", rep)
	case "html":
		return r.renderHTML(w, rep)
	case "yaml", "json":
		return encode(w, rep, format)
	case "xlsx":
		return r.renderXLSX(w, rep)
	}
	return unknownFormat(format)
}

// RenderSummary writes a dataset summary on its own
func (r *Renderer) RenderSummary(w io.Writer, title string, s *profiling.TableSummary, format string) error {
	md := "# " + title + "\n\n" + r.summaryTable(s) + "\n"
	switch format {
	case "markdown", "md":
		_, err := io.WriteString(w, md)
		return err
	case "html":
		return writeHTML(w, title, []byte(md))
	case "yaml", "json":
		return encode(w, s, format)
	case "xlsx":
		return r.summaryXLSX(w, s)
	}
	return unknownFormat(format)
}

func unknownFormat(format string) error {
	return fmt.Errorf("unknown report format %q, want one of %v", format, Formats)
}

func encode(w io.Writer, v interface{}, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func (r *Renderer) renderHTML(w io.Writer, rep *Report) error {
	var md bytes.Buffer
	if err := r.markdown.ExecuteTemplate(&md, "report.md.tmpl", rep); err != nil {
		return err
	}
	return writeHTML(w, rep.Title, md.Bytes())
}

func writeHTML(w io.Writer, title string, md []byte) error {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: title,
		Flags: html.CommonFlags | html.CompletePage,
	})
	_, err := w.Write(markdown.ToHTML(md, p, renderer))
	return err
}

// renderXLSX writes one sheet for eigenvalues and one per section table
func (r *Renderer) renderXLSX(w io.Writer, rep *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	const eigenSheet = "eigenvalues"
	if err := f.SetSheetName("Sheet1", eigenSheet); err != nil {
		return err
	}
	rows := [][]interface{}{{"axis", "eigenvalue", "difference", "percent", "cumulative"}}
	for _, e := range rep.Eigen {
		rows = append(rows, []interface{}{e.Axis, e.Eigenvalue, e.Difference, e.Percent, e.Cumulative})
	}
	if err := writeRows(f, eigenSheet, rows); err != nil {
		return err
	}

	used := map[string]bool{eigenSheet: true}
	if len(rep.Associations) > 0 {
		const assocSheet = "associations"
		if _, err := f.NewSheet(assocSheet); err != nil {
			return err
		}
		rows := [][]interface{}{{"variable1", "variable2", "chi2", "dof", "p_value", "cramer_v", "tschuprow_t", "contingency"}}
		for _, a := range rep.Associations {
			rows = append(rows, []interface{}{a.Variable1, a.Variable2, a.Statistic, a.DOF, a.PValue, a.CramerV, a.TschuprowT, a.Contingency})
		}
		if err := writeRows(f, assocSheet, rows); err != nil {
			return err
		}
		used[assocSheet] = true
	}
	for _, s := range rep.Sections {
		for _, t := range s.Tables {
			name := sheetName(s.Name+" "+t.Name, used)
			if _, err := f.NewSheet(name); err != nil {
				return err
			}
			header := append([]interface{}{""}, toAny(t.Columns)...)
			rows := [][]interface{}{header}
			for i, label := range t.Labels {
				row := []interface{}{label}
				for _, v := range t.Values[i] {
					if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
						row = append(row, "")
					} else {
						row = append(row, float64(v))
					}
				}
				rows = append(rows, row)
			}
			if err := writeRows(f, name, rows); err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}

// summaryXLSX writes one row per column of the dataset summary
func (r *Renderer) summaryXLSX(w io.Writer, s *profiling.TableSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	rows := [][]interface{}{{"column", "kind", "missing", "mean", "sd", "min", "q1", "median", "q3", "max", "levels"}}
	for _, c := range s.Columns {
		row := []interface{}{c.Name, string(c.Kind), c.Missing}
		if d := c.Distribution; d != nil {
			row = append(row, d.Mean, d.StdDev, d.Min, d.Q1, d.Median, d.Q3, d.Max)
		} else {
			levels := make([]string, len(c.Levels))
			for k, l := range c.Levels {
				levels[k] = fmt.Sprintf("%s (%d)", l.Label, l.Count)
			}
			row = append(row, "", "", "", "", "", "", "", strings.Join(levels, ", "))
		}
		rows = append(rows, row)
	}
	if err := writeRows(f, sheet, rows); err != nil {
		return err
	}
	if c := s.Correlation; c != nil {
		const corrSheet = "correlation"
		if _, err := f.NewSheet(corrSheet); err != nil {
			return err
		}
		rows := [][]interface{}{append([]interface{}{""}, toAny(c.Labels)...)}
		for a, label := range c.Labels {
			row := []interface{}{label}
			for _, v := range c.Values[a] {
				row = append(row, v)
			}
			rows = append(rows, row)
		}
		if err := writeRows(f, corrSheet, rows); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// sheetName shortens to the 31 characters Excel allows and keeps names unique
func sheetName(name string, used map[string]bool) string {
	name = strings.NewReplacer("/", "-", "\\", "-", "?", "", "*", "", "[", "(", "]", ")", ":", "").Replace(name)
	base := []rune(name)
	if len(base) > 31 {
		base = base[:31]
	}
	out := string(base)
	for k := 2; used[out]; k++ {
		suffix := "~" + strconv.Itoa(k)
		cut := base
		if len(cut)+len(suffix) > 31 {
			cut = cut[:31-len(suffix)]
		}
		out = string(cut) + suffix
	}
	used[out] = true
	return out
}

func toAny(xs []string) []interface{} {
	out := make([]interface{}, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

func (r *Renderer) num(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return strconv.FormatFloat(v, 'f', r.digits, 64)
}

func pval(p float64) string {
	if p < 1e-4 {
		return strconv.FormatFloat(p, 'e', 2, 64)
	}
	return strconv.FormatFloat(p, 'f', 4, 64)
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// grid renders a Table as a markdown table
func (r *Renderer) grid(t Table) string {
	var b strings.Builder
	b.WriteString("| |")
	for _, c := range t.Columns {
		b.WriteString(" " + escape(c) + " |")
	}
	b.WriteString("\n|---|")
	b.WriteString(strings.Repeat("---:|", len(t.Columns)))
	for i, label := range t.Labels {
		if r.maxRows > 0 && i == r.maxRows {
			fmt.Fprintf(&b, "\n| … %d more | |", len(t.Labels)-i)
			break
		}
		b.WriteString("\n| " + escape(label) + " |")
		for _, v := range t.Values[i] {
			b.WriteString(" " + r.num(float64(v)) + " |")
		}
	}
	return b.String()
}

func (r *Renderer) summaryTable(s *profiling.TableSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d rows\n\n", s.Rows)
	b.WriteString("| column | kind | missing | mean | sd | min | q1 | median | q3 | max | levels |\n")
	b.WriteString("|---|---|---:|---:|---:|---:|---:|---:|---:|---:|---|")
	for _, c := range s.Columns {
		fmt.Fprintf(&b, "\n| %s | %s | %d |", escape(c.Name), c.Kind, c.Missing)
		if d := c.Distribution; d != nil {
			for _, v := range []float64{d.Mean, d.StdDev, d.Min, d.Q1, d.Median, d.Q3, d.Max} {
				b.WriteString(" " + r.num(v) + " |")
			}
			b.WriteString(" |")
			continue
		}
		b.WriteString(strings.Repeat(" |", 7))
		levels := make([]string, len(c.Levels))
		for k, l := range c.Levels {
			levels[k] = fmt.Sprintf("%s (%d)", escape(l.Label), l.Count)
		}
		b.WriteString(" " + strings.Join(levels, ", ") + " |")
	}
	if c := s.Correlation; c != nil {
		fmt.Fprintf(&b, "\n\nCorrelations over %d complete rows\n\n", c.Complete)
		values := make([][]Value, len(c.Values))
		for a, row := range c.Values {
			values[a] = make([]Value, len(row))
			for k, v := range row {
				values[a][k] = Value(v)
			}
		}
		b.WriteString(r.grid(Table{Labels: c.Labels, Columns: c.Labels, Values: values}))
	}
	return b.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
