package profiling

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution summarises the observed values of a numeric column
type Distribution struct {
	Count    int     `json:"count" yaml:"count"`
	Missing  int     `json:"missing" yaml:"missing"`
	Sum      float64 `json:"sum" yaml:"sum"`
	Mean     float64 `json:"mean" yaml:"mean"`
	StdDev   float64 `json:"sd" yaml:"sd"` // sample standard deviation
	Min      float64 `json:"min" yaml:"min"`
	Q1       float64 `json:"q1" yaml:"q1"`
	Median   float64 `json:"median" yaml:"median"`
	Q3       float64 `json:"q3" yaml:"q3"`
	Max      float64 `json:"max" yaml:"max"`
	Skewness float64 `json:"skewness" yaml:"skewness"`
	Kurtosis float64 `json:"kurtosis" yaml:"kurtosis"` // excess
	Outliers int     `json:"outliers" yaml:"outliers"` // outside 1.5 IQR of the quartiles
	NormalP  float64 `json:"normal_p" yaml:"normal_p"` // Jarque-Bera p-value
}

// DistributionAnalyzer handles distribution shape analysis
type DistributionAnalyzer struct{}

// NewDistributionAnalyzer creates a new distribution analyzer
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{}
}

// AnalyzeDistribution summarises the non-missing cells of data. A column
// without observed values only reports its missing count.
func (da *DistributionAnalyzer) AnalyzeDistribution(data []float64) (Distribution, error) {
	observed := make(stats.Float64Data, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			observed = append(observed, v)
		}
	}
	d := Distribution{Count: len(observed), Missing: len(data) - len(observed)}
	if d.Count == 0 {
		return d, nil
	}

	var err error
	if d.Sum, err = stats.Sum(observed); err != nil {
		return d, err
	}
	if d.Mean, err = stats.Mean(observed); err != nil {
		return d, err
	}
	if d.Min, err = stats.Min(observed); err != nil {
		return d, err
	}
	if d.Max, err = stats.Max(observed); err != nil {
		return d, err
	}
	if d.Median, err = stats.Median(observed); err != nil {
		return d, err
	}
	d.Q1, d.Q3 = d.Median, d.Median
	if d.Count > 1 {
		if d.StdDev, err = stats.StandardDeviationSample(observed); err != nil {
			return d, err
		}
		q, err := stats.Quartile(observed)
		if err != nil {
			return d, err
		}
		d.Q1, d.Q3 = q.Q1, q.Q3
	}

	d.Skewness = calculateSkewness(observed, d.Mean)
	d.Kurtosis = calculateKurtosis(observed, d.Mean)
	d.Outliers = detectOutliers(observed, d.Q1, d.Q3)
	d.NormalP = jarqueBera(len(observed), d.Skewness, d.Kurtosis)
	return d, nil
}

// moments returns the biased second central moment and the k-th one
func moments(data []float64, mean float64, k int) (m2, mk float64) {
	for _, x := range data {
		dev := x - mean
		m2 += dev * dev
		mk += math.Pow(dev, float64(k))
	}
	n := float64(len(data))
	return m2 / n, mk / n
}

// calculateSkewness computes sample skewness using the adjusted Fisher-Pearson coefficient
func calculateSkewness(data []float64, mean float64) float64 {
	if len(data) < 3 {
		return 0
	}
	m2, m3 := moments(data, mean, 3)
	if m2 == 0 {
		return 0
	}
	n := float64(len(data))
	g1 := m3 / math.Pow(m2, 1.5)
	return g1 * math.Sqrt(n*(n-1)) / (n - 2)
}

// calculateKurtosis computes the bias-corrected sample excess kurtosis
func calculateKurtosis(data []float64, mean float64) float64 {
	if len(data) < 4 {
		return 0
	}
	m2, m4 := moments(data, mean, 4)
	if m2 == 0 {
		return 0
	}
	n := float64(len(data))
	g2 := m4/(m2*m2) - 3
	return (n - 1) / ((n - 2) * (n - 3)) * ((n+1)*g2 + 6)
}

// jarqueBera tests normality from skewness and excess kurtosis
func jarqueBera(n int, skewness, kurtosis float64) float64 {
	if n < 3 {
		return 1
	}
	jb := float64(n) / 6 * (skewness*skewness + kurtosis*kurtosis/4)
	return distuv.ChiSquared{K: 2}.Survival(jb)
}

// detectOutliers identifies outliers using IQR method
func detectOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lowerBound := q25 - 1.5*iqr
	upperBound := q75 + 1.5*iqr

	outlierCount := 0
	for _, x := range data {
		if x < lowerBound || x > upperBound {
			outlierCount++
		}
	}
	return outlierCount
}
