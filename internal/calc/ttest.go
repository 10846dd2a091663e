// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package calc

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Significance is the confidence threshold for TTest.
const Significance = 0.05

// TTestResult holds a two-sample t-test outcome.
type TTestResult struct {
	T           float64
	P           float64
	Significant bool
}

// TTest is the two-sample independent t-test with pooled variance. NaN
// values are omitted. Each sample needs at least two finite values,
// otherwise T and P are NaN.
func TTest(x, y []float64) TTestResult {
	xs, ys := finite(x), finite(y)
	nx, ny := float64(len(xs)), float64(len(ys))
	if len(xs) < 2 || len(ys) < 2 {
		return TTestResult{T: math.NaN(), P: math.NaN()}
	}
	mx, vx := stat.MeanVariance(xs, nil)
	my, vy := stat.MeanVariance(ys, nil)

	df := nx + ny - 2
	pooled := ((nx-1)*vx + (ny-1)*vy) / df
	se := math.Sqrt(pooled * (1/nx + 1/ny))
	if se == 0 {
		return TTestResult{T: math.NaN(), P: math.NaN()}
	}
	t := (mx - my) / se

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.Survival(math.Abs(t))
	return TTestResult{T: t, P: p, Significant: p < Significance}
}
