package factor

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// correlationPValue tests a correlation coefficient with Student's t on n−2
// degrees of freedom (two-tailed)
func correlationPValue(r float64, n int) float64 {
	if n < 3 {
		return 1
	}
	df := float64(n - 2)
	if math.Abs(r) >= 1 {
		return 0
	}
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * dist.Survival(math.Abs(t))
}

// correlationRatioPValue is the one-way ANOVA F test of eta² for a variable
// with levels categories over n individuals
func correlationRatioPValue(eta2 float64, levels, n int) float64 {
	df1, df2 := levels-1, n-levels
	if df1 <= 0 || df2 <= 0 {
		return 1
	}
	if eta2 >= 1 {
		return 0
	}
	f := (eta2 / float64(df1)) / ((1 - eta2) / float64(df2))
	dist := distuv.F{D1: float64(df1), D2: float64(df2)}
	return dist.Survival(f)
}

// valueTestPValue is the two-sided normal p-value of a value-test
func valueTestPValue(v float64) float64 {
	return 2 * distuv.UnitNormal.Survival(math.Abs(v))
}

// chiSquarePValue is the upper tail of a chi-square statistic
func chiSquarePValue(chi2 float64, dof int) float64 {
	if dof <= 0 {
		return 1
	}
	dist := distuv.ChiSquared{K: float64(dof)}
	return dist.Survival(chi2)
}
