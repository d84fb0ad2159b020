package coercer

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"gofacto/domain/table"

	"golang.org/x/text/unicode/norm"
)

// TypeCoercer decides the analysis kind of raw text columns and converts
// their cells
type TypeCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion thresholds and rules
type CoercionConfig struct {
	NumericThreshold float64 `json:"numeric_threshold" yaml:"numeric_threshold"` // share of present cells that must parse as numbers
	MaxCategories    int     `json:"max_categories" yaml:"max_categories"`       // more distinct labels than this is an identifier, not a variable
	CodeCardinality  int     `json:"code_cardinality" yaml:"code_cardinality"`   // integer columns with at most this many codes...
	CodeRatio        float64 `json:"code_ratio" yaml:"code_ratio"`               // ...and distinct/present below this are categorical
	NormalizeStrings bool    `json:"normalize_strings" yaml:"normalize_strings"` // collapse whitespace in labels
}

// DefaultCoercionConfig returns sensible defaults
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold: 0.8,
		MaxCategories:    100,
		CodeCardinality:  20,
		CodeRatio:        0.1,
		NormalizeStrings: true,
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	return &TypeCoercer{config: config}
}

// Config returns the thresholds in use
func (c *TypeCoercer) Config() CoercionConfig {
	return c.config
}

var missingTokens = map[string]bool{
	"": true, "na": true, "n/a": true, "nan": true, "null": true, "none": true, "?": true, ".": true,
}

// IsMissing reports whether a raw cell denotes a missing value
func IsMissing(raw string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(raw))]
}

// TypeAnalysis contains the results of type distribution analysis
type TypeAnalysis struct {
	TotalCount      int              `json:"total_count"`
	ValidCount      int              `json:"valid_count"`
	NumericCount    int              `json:"numeric_count"`
	IntegerCount    int              `json:"integer_count"`
	NegativeCount   int              `json:"negative_count"`
	DistinctCount   int              `json:"distinct_count"`
	NumericRatio    float64          `json:"numeric_ratio"`
	RecommendedKind table.ColumnKind `json:"recommended_kind"`
	Identifier      bool             `json:"identifier"` // too many distinct labels to be categorical
}

// AnalyzeTypeDistribution analyzes a column sample to determine its kind.
// Numeric columns become continuous unless they look like integer codes;
// everything else is categorical. Frequency is never inferred.
func (c *TypeCoercer) AnalyzeTypeDistribution(values []string) TypeAnalysis {
	analysis := TypeAnalysis{TotalCount: len(values)}
	distinct := make(map[string]bool)

	for _, raw := range values {
		if IsMissing(raw) {
			continue
		}
		analysis.ValidCount++
		distinct[c.normalizeString(raw)] = true
		if v, ok := c.ParseNumber(raw); ok {
			analysis.NumericCount++
			if v == math.Trunc(v) {
				analysis.IntegerCount++
			}
			if v < 0 {
				analysis.NegativeCount++
			}
		}
	}
	analysis.DistinctCount = len(distinct)

	if analysis.ValidCount == 0 {
		analysis.RecommendedKind = table.KindCategorical
		return analysis
	}
	analysis.NumericRatio = float64(analysis.NumericCount) / float64(analysis.ValidCount)
	analysis.RecommendedKind = c.determineRecommendedKind(analysis)
	analysis.Identifier = analysis.RecommendedKind == table.KindCategorical &&
		analysis.DistinctCount > c.config.MaxCategories
	return analysis
}

func (c *TypeCoercer) determineRecommendedKind(analysis TypeAnalysis) table.ColumnKind {
	if analysis.NumericRatio < c.config.NumericThreshold {
		return table.KindCategorical
	}
	if analysis.IntegerCount == analysis.NumericCount {
		uniqueRatio := float64(analysis.DistinctCount) / float64(analysis.ValidCount)
		if uniqueRatio < c.config.CodeRatio && analysis.DistinctCount <= c.config.CodeCardinality {
			return table.KindCategorical
		}
	}
	return table.KindContinuous
}

// ParseNumber parses a numeric cell. It accepts parentheses for negatives,
// currency symbols, percent signs, and European or French decimal commas.
func (c *TypeCoercer) ParseNumber(raw string) (float64, bool) {
	cleanVal := strings.TrimSpace(raw)
	if cleanVal == "" {
		return 0, false
	}

	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	for _, symbol := range []string{"$", "€", "£", "¥", "USD", "EUR", "GBP", "JPY", "%"} {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.TrimSpace(cleanVal)

	hasComma := strings.Contains(cleanVal, ",")
	hasPeriod := strings.Contains(cleanVal, ".")
	hasSpace := strings.Contains(cleanVal, " ")

	switch {
	case hasComma && (hasPeriod || hasSpace):
		commaIdx := strings.LastIndex(cleanVal, ",")
		if after := cleanVal[commaIdx+1:]; len(after) <= 3 && isDigits(after) && commaIdx > strings.LastIndex(cleanVal, ".") {
			// 1.234,56 or 1 234,56
			cleanVal = strings.NewReplacer(".", "", " ", "", ",", ".").Replace(cleanVal)
		} else {
			cleanVal = strings.NewReplacer(",", "", " ", "").Replace(cleanVal)
		}
	case hasComma:
		cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
	default:
		cleanVal = strings.ReplaceAll(cleanVal, " ", "")
	}

	if isNegative {
		cleanVal = "-" + cleanVal
	}

	val, err := strconv.ParseFloat(cleanVal, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	return val, true
}

// CoerceNumeric converts cells of a continuous or frequency column, NaN for
// missing or unparsable cells
func (c *TypeCoercer) CoerceNumeric(values []string) (out []float64, unparsed int) {
	out = make([]float64, len(values))
	for i, raw := range values {
		if IsMissing(raw) {
			out[i] = math.NaN()
			continue
		}
		v, ok := c.ParseNumber(raw)
		if !ok {
			v = math.NaN()
			unparsed++
		}
		out[i] = v
	}
	return out, unparsed
}

// CoerceLabels converts cells of a categorical column, "" for missing
func (c *TypeCoercer) CoerceLabels(values []string) []string {
	out := make([]string, len(values))
	for i, raw := range values {
		if IsMissing(raw) {
			continue
		}
		out[i] = c.normalizeString(raw)
	}
	return out
}

var whitespace = regexp.MustCompile(`\s+`)

// normalizeString trims, collapses whitespace, drops control characters and
// composes accents (NFC) so "é" typed two ways is one level.
// Case is kept: category labels are reported back to the user.
func (c *TypeCoercer) normalizeString(s string) string {
	s = strings.TrimSpace(s)
	if !c.config.NormalizeStrings {
		return s
	}
	s = norm.NFC.String(whitespace.ReplaceAllString(s, " "))
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
