package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"gofacto/adapters/excel"
	"gofacto/domain/table"
	"gofacto/internal"
	"gofacto/internal/config"
	"gofacto/internal/errors"
	"gofacto/internal/factor"
	"gofacto/internal/profiling"
	"gofacto/internal/report"

	"github.com/spf13/cobra"
)

func addInputFlags(cmd *cobra.Command, f *fitFlags) {
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "XLSX sheet (default from FACTO_SHEET, else the first sheet)")
	cmd.Flags().StringVar(&f.rowNames, "row-names", "", "Column holding row names (auto-detected when empty)")
	cmd.Flags().BoolVar(&f.noRowNames, "no-row-names", false, "Number rows instead of reading names")
	cmd.Flags().StringSliceVar(&f.frequency, "frequency", nil, "Columns read as frequency counts")
	cmd.Flags().StringSliceVar(&f.categorical, "categorical", nil, "Columns forced categorical")
	cmd.Flags().BoolVar(&f.counts, "counts", false, "Read every numeric column as counts (implied by ca)")
}

func addFitFlags(cmd *cobra.Command, f *fitFlags) {
	addInputFlags(cmd, f)
	cmd.Flags().IntVarP(&f.components, "components", "k", 0, "Axes to retain (default from FACTO_COMPONENTS)")
	cmd.Flags().BoolVar(&f.parallel, "parallel", false, "Spread per-group and per-variable work over all CPUs")
	cmd.Flags().StringSliceVar(&f.rowSup, "row-sup", nil, "Supplementary rows, by name")
	cmd.Flags().StringSliceVar(&f.colSup, "col-sup", nil, "Supplementary frequency columns (ca)")
	cmd.Flags().StringSliceVar(&f.quantiSup, "quanti-sup", nil, "Supplementary continuous variables")
	cmd.Flags().StringSliceVar(&f.qualiSup, "quali-sup", nil, "Supplementary categorical variables")
	cmd.Flags().StringVar(&f.groups, "groups", "", `MFA groups "name:size:kind[:sup][:unscaled],..." in column order`)
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, `Excluded categories "variable=level" (mca) or columns "name" (ca)`)
	cmd.Flags().BoolVar(&f.unscaled, "unscaled", false, "Centre PCA variables without reducing them")
	cmd.Flags().StringVar(&f.rowWeights, "row-weights", "", "Continuous column holding row weights")
}

// applyDefaults fills flags the user left unset from the configuration
func (f *fitFlags) applyDefaults(cmd *cobra.Command, cfg *config.Config) {
	if !cmd.Flags().Changed("components") {
		f.components = cfg.Analysis.Components
	}
	if !cmd.Flags().Changed("parallel") {
		f.parallel = cfg.Analysis.Parallelize
	}
	if f.sheet == "" {
		f.sheet = cfg.Input.Sheet
	}
}

// readTable loads path; contingency tables read numbers as counts
func readTable(path, variant string, f *fitFlags, cfg *config.Config) (*table.Table, error) {
	rc := excel.DefaultReaderConfig()
	rc.Sheet = f.sheet
	rc.RowNames = f.rowNames
	rc.NoRowNames = f.noRowNames
	rc.Frequency = f.frequency
	rc.Categorical = f.categorical
	rc.AllFrequencies = f.counts || variant == "ca"
	rc.CoercionConfig.NumericThreshold = cfg.Input.NumericThreshold
	rc.CoercionConfig.MaxCategories = cfg.Input.MaxCategories

	tbl, err := excel.NewDataReader(path, rc).ReadTable()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return tbl, nil
}

type fitCommand struct {
	global       *globalOptions
	flags        fitFlags
	describe     int
	significance float64
	digits       int
	maxRows      int
	summary      bool
	title        string
}

func newFitCmd(global *globalOptions) *cobra.Command {
	fc := &fitCommand{global: global}
	cmd := &cobra.Command{
		Use:   "fit [pca|ca|mca|famd|mfa] [file]",
		Short: "Fit an analysis and write its report",
		Long: `Fit a factor analysis on a CSV or XLSX table and write the eigenvalues, every
available section and the description of the first axes.

Examples:
  facto fit pca decathlon.csv --row-sup KARPOV,WARNERS --quanti-sup Points --quali-sup Competition
  facto fit ca haireye.csv --col-sup Blond -f html -o haireye.html
  facto fit mca survey.xlsx --exclude smoker=NA --describe 2
  facto fit mfa wines.csv --groups "olfaction:3:continuous,visual:2:continuous,origin:1:categorical:sup"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			variant, err := checkVariant(args[0])
			if err != nil {
				return err
			}
			fc.flags.applyDefaults(cmd, global.cfg)
			if !cmd.Flags().Changed("significance") {
				fc.significance = global.cfg.Analysis.Significance
			}
			rep, err := fc.run(variant, args[1])
			if err != nil {
				return err
			}
			return fc.write(cmd, rep)
		},
	}

	addFitFlags(cmd, &fc.flags)
	cmd.Flags().IntVar(&fc.describe, "describe", 3, "Axes to describe")
	cmd.Flags().Float64Var(&fc.significance, "significance", 0.05, "Description threshold; >= 1 lists everything (default from FACTO_SIGNIFICANCE)")
	cmd.Flags().IntVar(&fc.digits, "digits", 3, "Decimals in markdown and HTML tables")
	cmd.Flags().IntVar(&fc.maxRows, "max-rows", 0, "Rows per markdown table, 0 for all")
	cmd.Flags().BoolVar(&fc.summary, "summary", false, "Include the dataset summary")
	cmd.Flags().StringVar(&fc.title, "title", "", "Report title (default: analysis and file name)")
	return cmd
}

// run reads the file, fits the analysis and builds the report
func (fc *fitCommand) run(variant, path string) (*report.Report, error) {
	cfg := fc.global.cfg
	tbl, err := readTable(path, variant, &fc.flags, cfg)
	if err != nil {
		return nil, err
	}
	fcfg, tbl, err := fc.flags.factorConfig(tbl)
	if err != nil {
		return nil, errors.Wrap(err, "invalid analysis options")
	}

	internal.DefaultLogger.Info("[facto] fitting %s on %s (%d rows, %d columns)",
		strings.ToUpper(variant), path, tbl.NumRows(), tbl.NumColumns())
	res, err := fitVariant(variant, fcfg, tbl)
	if err != nil {
		return nil, err
	}

	opts := report.Options{
		Title:        fc.title,
		DescribeAxes: fc.describe,
		Significance: fc.significance,
		CodeVersion:  version,
	}
	if opts.Title == "" {
		opts.Title = fmt.Sprintf("%s of %s", res.Variant(), filepath.Base(path))
	}
	if fc.summary {
		if opts.Summary, err = profiling.NewDataProfiler().ProfileTable(tbl); err != nil {
			return nil, errors.Wrap(err, "dataset summary failed")
		}
	}
	rep, err := report.Build(res, opts)
	if err != nil {
		return nil, errors.Wrap(err, "report failed")
	}
	return rep, nil
}

func (fc *fitCommand) write(cmd *cobra.Command, rep *report.Report) error {
	renderer, err := report.NewRenderer(fc.digits, fc.maxRows)
	if err != nil {
		return err
	}
	w, err := fc.global.writer(cmd)
	if err != nil {
		return err
	}
	if err := renderer.Render(w, rep, fc.global.cfg.Output.Format); err != nil {
		w.Close()
		return errors.IOError(fc.global.target(), err)
	}
	return w.Close()
}

func newDimDescCmd(global *globalOptions) *cobra.Command {
	fc := &fitCommand{global: global}
	var axes []int
	cmd := &cobra.Command{
		Use:   "dimdesc [pca|ca|mca|famd|mfa] [file]",
		Short: "Describe axes by their significantly linked variables and categories",
		Long: `Fit an analysis and write only the description of the requested axes (1-based).

Example:
  facto dimdesc famd customers.csv --axes 1,2 --significance 0.01 -f yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			variant, err := checkVariant(args[0])
			if err != nil {
				return err
			}
			fc.flags.applyDefaults(cmd, global.cfg)
			if !cmd.Flags().Changed("significance") {
				fc.significance = global.cfg.Analysis.Significance
			}
			for _, a := range axes {
				if a < 1 {
					return errors.InvalidInput(fmt.Sprintf("axes are numbered from 1, got %d", a))
				}
				if a > fc.describe {
					fc.describe = a
				}
			}
			rep, err := fc.run(variant, args[1])
			if err != nil {
				return err
			}
			if err := keepAxes(rep, axes); err != nil {
				return err
			}
			return fc.write(cmd, rep)
		},
	}

	addFitFlags(cmd, &fc.flags)
	cmd.Flags().IntSliceVar(&axes, "axes", []int{1}, "Axes to describe, 1-based")
	cmd.Flags().Float64Var(&fc.significance, "significance", 0.05, "Description threshold; >= 1 lists everything (default from FACTO_SIGNIFICANCE)")
	cmd.Flags().IntVar(&fc.digits, "digits", 3, "Decimals in markdown and HTML tables")
	return cmd
}

// keepAxes drops the element sections and every description not asked for
func keepAxes(rep *report.Report, axes []int) error {
	var kept []*factor.AxisDescription
	for _, a := range axes {
		if a > len(rep.Axes) {
			return errors.WithCode(errors.CodeInvalidInput,
				fmt.Errorf("axis %d requested, the fit retained %d", a, rep.Components))
		}
		kept = append(kept, rep.Axes[a-1])
	}
	rep.Axes = kept
	rep.Sections = nil
	return nil
}

func newSummaryCmd(global *globalOptions) *cobra.Command {
	var flags fitFlags
	var digits int
	cmd := &cobra.Command{
		Use:   "summary [file]",
		Short: "Summarise every column of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.applyDefaults(cmd, global.cfg)
			tbl, err := readTable(args[0], "", &flags, global.cfg)
			if err != nil {
				return err
			}
			summary, err := profiling.NewDataProfiler().ProfileTable(tbl)
			if err != nil {
				return errors.Wrap(err, "dataset summary failed")
			}
			renderer, err := report.NewRenderer(digits, 0)
			if err != nil {
				return err
			}
			w, err := global.writer(cmd)
			if err != nil {
				return err
			}
			if err := renderer.RenderSummary(w, "Summary of "+filepath.Base(args[0]), summary, global.cfg.Output.Format); err != nil {
				w.Close()
				return errors.IOError(global.target(), err)
			}
			return w.Close()
		},
	}
	addInputFlags(cmd, &flags)
	cmd.Flags().IntVar(&digits, "digits", 3, "Decimals in markdown and HTML tables")
	return cmd
}
