package main

import (
	"fmt"
	"io"
	"os"

	"gofacto/internal"
	"gofacto/internal/config"
	"gofacto/internal/errors"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(errors.ExitCode(err))
	}
}

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	envFile  string
	logLevel string
	format   string
	output   string
	cfg      *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:     "facto",
		Short:   "Factor analysis of tables: PCA, CA, MCA, FAMD and MFA",
		Version: version,
		Long: `Factor analysis of CSV and XLSX tables.

Defaults are read from the environment (and an optional .env file):
  LOG_LEVEL, FACTO_COMPONENTS, FACTO_PARALLELIZE, FACTO_SIGNIFICANCE, FACTO_SHEET,
  FACTO_OUTPUT_FORMAT, FACTO_COERCION_NUMERIC_THRESHOLD, FACTO_MAX_CATEGORIES
Flags override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env", ".env", "Optional .env file with FACTO_* defaults")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "ERROR|WARN|INFO|DEBUG|TRACE (default from LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVarP(&opts.format, "format", "f", "", "Output format: markdown|html|yaml|json|xlsx (default from FACTO_OUTPUT_FORMAT)")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "", "Output file (default stdout)")

	rootCmd.AddCommand(
		newFitCmd(opts),
		newDimDescCmd(opts),
		newSummaryCmd(opts),
	)
	return rootCmd
}

// load reads the configuration and applies the persistent flags on top
func (o *globalOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		level, ok := internal.ParseLogLevel(o.logLevel)
		if !ok {
			return errors.InvalidInput(fmt.Sprintf("unknown log level %q", o.logLevel))
		}
		cfg.LogLevel = level
	}
	if o.format != "" {
		cfg.Output.Format = o.format
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	internal.DefaultLogger.SetLevel(cfg.LogLevel)
	o.cfg = cfg
	return nil
}

// writer opens the output file, or wraps stdout
func (o *globalOptions) writer(cmd *cobra.Command) (io.WriteCloser, error) {
	if o.output == "" {
		return nopCloser{cmd.OutOrStdout()}, nil
	}
	f, err := os.Create(o.output)
	if err != nil {
		return nil, errors.IOError(o.output, err)
	}
	internal.DefaultLogger.Info("[facto] writing %s report to %s", o.cfg.Output.Format, o.output)
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// target names where output goes, for messages
func (o *globalOptions) target() string {
	if o.output == "" {
		return "stdout"
	}
	return o.output
}
