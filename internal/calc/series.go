// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package calc holds the numeric routines the figure recipes share: NaN-aware
// reductions, climatologies, anomalies, records, ranks, area weighting and
// significance tests. All functions are pure.
package calc

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrLength is returned when paired inputs have different lengths.
var ErrLength = errors.New("length mismatch")

func lengthErr(what string, a, b int) error {
	return fmt.Errorf("%w: %s (%d vs %d)", ErrLength, what, a, b)
}

// finite returns the non-NaN, non-Inf values of xs.
func finite(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}

// NaNMean is the mean of the finite values, or NaN if there are none.
func NaNMean(xs []float64) float64 {
	var sum float64
	var n int
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		sum += x
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// NaNMin returns the smallest finite value and its index, or (NaN, -1).
func NaNMin(xs []float64) (float64, int) {
	best, at := math.NaN(), -1
	for i, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		if at < 0 || x < best {
			best, at = x, i
		}
	}
	return best, at
}

// NaNMax returns the largest finite value and its index, or (NaN, -1).
func NaNMax(xs []float64) (float64, int) {
	best, at := math.NaN(), -1
	for i, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		if at < 0 || x > best {
			best, at = x, i
		}
	}
	return best, at
}

// Percentile returns the p-th percentile (0-100) of the finite values using
// linear interpolation between closest ranks.
func Percentile(xs []float64, p float64) float64 {
	vals := finite(xs)
	if len(vals) == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)
	if p <= 0 {
		return vals[0]
	}
	if p >= 100 {
		return vals[len(vals)-1]
	}
	pos := p / 100 * float64(len(vals)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return vals[lo] + frac*(vals[hi]-vals[lo])
}

// CumulativeChange returns xs[i] - xs[0] for every i.
func CumulativeChange(xs []float64) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	for i, x := range xs {
		out[i] = x - xs[0]
	}
	return out
}

// GroupedMean averages non-overlapping blocks of n values. A trailing
// partial block is dropped. NaN is skipped within a block, and a block
// with no finite value averages to NaN.
func GroupedMean(xs []float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, 0, len(xs)/n)
	for i := 0; i+n <= len(xs); i += n {
		out = append(out, NaNMean(xs[i:i+n]))
	}
	return out
}

// MovingAverage is the trailing n-point mean. The first n-1 entries are NaN.
func MovingAverage(xs []float64, n int) []float64 {
	out := make([]float64, len(xs))
	for i := range out {
		if n <= 0 || i < n-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = NaNMean(xs[i-n+1 : i+1])
	}
	return out
}

// Rank ranks xs with 1 for the largest value. Tied values share the
// position of the lowest of them, so two equal maxima of five values are
// both ranked 2. NaN and ±Inf get rank 0 and are excluded from the count.
func Rank(xs []float64) []int {
	vals := finite(xs)
	n := len(vals)
	out := make([]int, len(xs))
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		below := 0
		for _, y := range vals {
			if y < x {
				below++
			}
		}
		// ascending "min" rank is below+1; flip so the largest is near 1.
		out[i] = n + 1 - (below + 1)
	}
	return out
}

// FillGaps replaces each NaN that has finite neighbours on both sides with
// the previous value. Leading and trailing NaN runs are left alone, as are
// gaps longer than one day.
func FillGaps(xs []float64) []float64 {
	out := append([]float64(nil), xs...)
	for i := 1; i < len(out)-1; i++ {
		if math.IsNaN(out[i]) && !math.IsNaN(out[i-1]) && !math.IsNaN(out[i+1]) {
			out[i] = out[i-1]
		}
	}
	return out
}

// Scale multiplies every value by f.
func Scale(xs []float64, f float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = x * f
	}
	return out
}

// Sub returns a - b elementwise.
func Sub(a, b []float64) ([]float64, error) {
	if len(a) != len(b) {
		return nil, lengthErr("difference", len(a), len(b))
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out, nil
}

// LastFinite returns the index of the last finite value, or -1.
func LastFinite(xs []float64) int {
	for i := len(xs) - 1; i >= 0; i-- {
		if !math.IsNaN(xs[i]) {
			return i
		}
	}
	return -1
}
