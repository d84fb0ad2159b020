package main

import (
	"fmt"
	"strconv"
	"strings"

	"gofacto/domain/table"
	"gofacto/internal/errors"
	"gofacto/internal/factor"
)

// variants maps command arguments to analyses
var variants = []string{"pca", "ca", "mca", "famd", "mfa"}

func checkVariant(v string) (string, error) {
	v = strings.ToLower(v)
	for _, known := range variants {
		if v == known {
			return v, nil
		}
	}
	return "", errors.InvalidInput(fmt.Sprintf("unknown analysis %q, want one of %v", v, variants))
}

// fitVariant runs the analysis named by variant
func fitVariant(variant string, cfg factor.Config, tbl *table.Table) (factor.Result, error) {
	var (
		res factor.Result
		err error
	)
	switch variant {
	case "pca":
		var r *factor.PCAResult
		r, err = factor.NewPCA(cfg).Fit(tbl)
		res = r
	case "ca":
		var r *factor.CAResult
		r, err = factor.NewCA(cfg).Fit(tbl)
		res = r
	case "mca":
		var r *factor.MCAResult
		r, err = factor.NewMCA(cfg).Fit(tbl)
		res = r
	case "famd":
		var r *factor.FAMDResult
		r, err = factor.NewFAMD(cfg).Fit(tbl)
		res = r
	case "mfa":
		var r *factor.MFAResult
		r, err = factor.NewMFA(cfg).Fit(tbl)
		res = r
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unknown analysis %q", variant))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "%s fit failed", strings.ToUpper(variant))
	}
	return res, nil
}

// parseGroups reads MFA groups written "name:size:kind[:sup][:unscaled]",
// comma separated, e.g. "olfaction:3:continuous,origin:1:categorical:sup"
func parseGroups(list string) ([]factor.Group, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	var groups []factor.Group
	for _, item := range strings.Split(list, ",") {
		parts := strings.Split(strings.TrimSpace(item), ":")
		if len(parts) < 3 {
			return nil, errors.InvalidInput(fmt.Sprintf("group %q: want name:size:kind[:sup][:unscaled]", item))
		}
		size, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("group %q: size %q is not an integer", item, parts[1]))
		}
		g := factor.Group{Name: parts[0], Size: size, Kind: factor.GroupKind(strings.ToLower(parts[2]))}
		for _, flag := range parts[3:] {
			switch strings.ToLower(flag) {
			case "sup", "supplementary":
				g.Supplementary = true
			case "unscaled":
				g.Unscaled = true
			default:
				return nil, errors.InvalidInput(fmt.Sprintf("group %q: unknown option %q", item, flag))
			}
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// parseExcluded reads "variable=level" items; a bare column name excludes a
// whole CA column
func parseExcluded(items []string) (map[string][]string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make(map[string][]string)
	for _, item := range items {
		name, level, found := strings.Cut(item, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, errors.InvalidInput(fmt.Sprintf("exclusion %q has no variable", item))
		}
		if !found {
			if _, ok := out[name]; !ok {
				out[name] = nil
			}
			continue
		}
		out[name] = append(out[name], strings.TrimSpace(level))
	}
	return out, nil
}

// fitFlags are the analysis flags shared by fit and dimdesc
type fitFlags struct {
	// input
	sheet       string
	rowNames    string
	noRowNames  bool
	frequency   []string
	categorical []string
	counts      bool

	// analysis
	components int
	parallel   bool
	rowSup     []string
	colSup     []string
	quantiSup  []string
	qualiSup   []string
	groups     string
	exclude    []string
	unscaled   bool
	rowWeights string
}

// factorConfig resolves names against tbl. The row-weight column, when set,
// must be continuous and is taken out of the table.
func (f *fitFlags) factorConfig(tbl *table.Table) (factor.Config, *table.Table, error) {
	cfg := factor.Config{
		Components:  f.components,
		Parallelize: f.parallel,
		Unscaled:    f.unscaled,
	}

	if f.rowWeights != "" {
		j := tbl.ColumnIndex(f.rowWeights)
		if j < 0 || tbl.Columns[j].Kind != table.KindContinuous {
			return cfg, nil, errors.InvalidInput(fmt.Sprintf("row-weight column %q must be a continuous column", f.rowWeights))
		}
		cfg.RowWeights = append([]float64(nil), tbl.Columns[j].Values...)
		cols := append(append([]table.Column(nil), tbl.Columns[:j]...), tbl.Columns[j+1:]...)
		var err error
		if tbl, err = table.New(tbl.RowNames, cols...); err != nil {
			return cfg, nil, err
		}
	}

	var err error
	if cfg.RowSup, err = tbl.RowIndices(f.rowSup...); err != nil {
		return cfg, nil, err
	}
	if cfg.ColSup, err = tbl.ColumnIndices(f.colSup...); err != nil {
		return cfg, nil, err
	}
	if cfg.QuantiSup, err = tbl.ColumnIndices(f.quantiSup...); err != nil {
		return cfg, nil, err
	}
	if cfg.QualiSup, err = tbl.ColumnIndices(f.qualiSup...); err != nil {
		return cfg, nil, err
	}
	if cfg.Groups, err = parseGroups(f.groups); err != nil {
		return cfg, nil, err
	}
	if cfg.Excluded, err = parseExcluded(f.exclude); err != nil {
		return cfg, nil, err
	}
	return cfg, tbl, nil
}
