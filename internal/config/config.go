package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"gofacto/internal"
	"gofacto/internal/errors"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	LogLevel internal.LogLevel
	Analysis AnalysisConfig
	Input    InputConfig
	Output   OutputConfig
}

// AnalysisConfig holds defaults applied to every fit
type AnalysisConfig struct {
	Components   int     // 0 keeps every non-trivial axis
	Parallelize  bool    // spread per-group and per-variable work over GOMAXPROCS
	Significance float64 // axis description threshold, >= 1 disables filtering
}

// InputConfig holds table ingestion settings
type InputConfig struct {
	Sheet            string
	NumericThreshold float64
	MaxCategories    int
}

// OutputConfig holds report settings
type OutputConfig struct {
	Format string
}

// Supported report formats
var OutputFormats = []string{"markdown", "html", "yaml", "json", "xlsx"}

// Default returns the configuration used when no variable is set
func Default() *Config {
	return &Config{
		LogLevel: internal.LogLevelInfo,
		Analysis: AnalysisConfig{Components: 5, Significance: 0.05},
		Input:    InputConfig{NumericThreshold: 0.8, MaxCategories: 100},
		Output:   OutputConfig{Format: "markdown"},
	}
}

// Load reads an optional .env file from each of envFiles (variables already
// set in the environment win), then the environment, and validates the result
func Load(envFiles ...string) (*Config, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(errors.IOError(file, err), "failed to load %s", file)
		}
	}

	config := Default()
	var err error

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, ok := internal.ParseLogLevel(v)
		if !ok {
			return nil, errors.ConfigInvalid(fmt.Sprintf("LOG_LEVEL: unknown level %q", v))
		}
		config.LogLevel = level
	}

	if config.Analysis.Components, err = getEnvIntOrDefault("FACTO_COMPONENTS", config.Analysis.Components); err != nil {
		return nil, err
	}
	if config.Analysis.Parallelize, err = getEnvBoolOrDefault("FACTO_PARALLELIZE", config.Analysis.Parallelize); err != nil {
		return nil, err
	}
	if config.Analysis.Significance, err = getEnvFloatOrDefault("FACTO_SIGNIFICANCE", config.Analysis.Significance); err != nil {
		return nil, err
	}
	config.Input.Sheet = getEnvOrDefault("FACTO_SHEET", config.Input.Sheet)
	if config.Input.NumericThreshold, err = getEnvFloatOrDefault("FACTO_COERCION_NUMERIC_THRESHOLD", config.Input.NumericThreshold); err != nil {
		return nil, err
	}
	if config.Input.MaxCategories, err = getEnvIntOrDefault("FACTO_MAX_CATEGORIES", config.Input.MaxCategories); err != nil {
		return nil, err
	}
	config.Output.Format = strings.ToLower(getEnvOrDefault("FACTO_OUTPUT_FORMAT", config.Output.Format))

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// Validate checks ranges; flags that override values should call it again
func (c *Config) Validate() error {
	if c.Analysis.Components < 0 {
		return errors.ConfigInvalid(fmt.Sprintf("components must be >= 0, got %d", c.Analysis.Components))
	}
	if !(c.Analysis.Significance > 0) || math.IsInf(c.Analysis.Significance, 0) {
		return errors.ConfigInvalid(fmt.Sprintf("significance must be positive, got %v", c.Analysis.Significance))
	}
	if !(c.Input.NumericThreshold > 0 && c.Input.NumericThreshold <= 1) {
		return errors.ConfigInvalid(fmt.Sprintf("numeric threshold must be in (0, 1], got %v", c.Input.NumericThreshold))
	}
	if c.Input.MaxCategories < 2 {
		return errors.ConfigInvalid(fmt.Sprintf("max categories must be >= 2, got %d", c.Input.MaxCategories))
	}
	for _, f := range OutputFormats {
		if c.Output.Format == f {
			return nil
		}
	}
	return errors.ConfigInvalid(fmt.Sprintf("output format %q not in %v", c.Output.Format, OutputFormats))
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s: %q is not an integer", key, value))
	}
	return intValue, nil
}

func getEnvFloatOrDefault(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s: %q is not a number", key, value))
	}
	return floatValue, nil
}

func getEnvBoolOrDefault(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	boolValue, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, errors.ConfigInvalid(fmt.Sprintf("%s: %q is not a boolean", key, value))
	}
	return boolValue, nil
}
