package linalg

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Uniform returns n weights of 1/n
func Uniform(n int) []float64 {
	w := make([]float64, n)
	if n == 0 {
		return w
	}
	for i := range w {
		w[i] = 1 / float64(n)
	}
	return w
}

// Normalize rescales weights to sum to 1. A zero total returns a copy unchanged.
func Normalize(w []float64) []float64 {
	out := append([]float64(nil), w...)
	total := floats.Sum(out)
	if total == 0 {
		return out
	}
	floats.Scale(1/total, out)
	return out
}

// MeanStd returns the weighted mean and population standard deviation of x
func MeanStd(x, weights []float64) (mean, std float64) {
	return stat.PopMeanStdDev(x, weights)
}

// Correlation is the weighted Pearson correlation; a constant input yields 0
func Correlation(x, y, weights []float64) float64 {
	r := stat.Correlation(x, y, weights)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// Column copies column j of m
func Column(m mat.Matrix, j int) []float64 {
	return mat.Col(nil, j, m)
}

// WeightedSquaredNorm returns Σ_j w_j x_j², skipping NaN cells
func WeightedSquaredNorm(x, weights []float64) float64 {
	var s float64
	for j, v := range x {
		if math.IsNaN(v) {
			continue
		}
		s += weights[j] * v * v
	}
	return s
}
