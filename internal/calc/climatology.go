// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package calc

import (
	"math"

	"github.com/pdiddy/icevarfigs/pkg/types"
)

// Climatology is the NaN-aware mean of each day column over the years
// from..to inclusive.
func Climatology(t types.YearTable, from, to int) []float64 {
	out := make([]float64, types.DaysPerYear)
	col := make([]float64, 0, len(t.Years))
	for d := range out {
		col = col[:0]
		for i, y := range t.Years {
			if y < from || y > to || d >= len(t.Values[i]) {
				continue
			}
			col = append(col, t.Values[i][d])
		}
		out[d] = NaNMean(col)
	}
	return out
}

// MonthlyClimatology is the NaN-aware mean of each month over from..to.
func MonthlyClimatology(t types.MonthlyTable, from, to int) [12]float64 {
	var out [12]float64
	for m := 0; m < 12; m++ {
		var col []float64
		for i, y := range t.Years {
			if y >= from && y <= to {
				col = append(col, t.Values[i][m])
			}
		}
		out[m] = NaNMean(col)
	}
	return out
}

// GridClimatology is the cell-wise NaN mean of the fields whose year lies in
// from..to. fields and years are parallel.
func GridClimatology(fields [][]float64, years []int, from, to int) ([]float64, error) {
	if len(fields) != len(years) {
		return nil, lengthErr("fields and years", len(fields), len(years))
	}
	var cells int
	for _, f := range fields {
		if cells == 0 {
			cells = len(f)
		} else if len(f) != cells {
			return nil, lengthErr("field size", len(f), cells)
		}
	}
	sum := make([]float64, cells)
	n := make([]int, cells)
	for i, f := range fields {
		if years[i] < from || years[i] > to {
			continue
		}
		for c, v := range f {
			if math.IsNaN(v) {
				continue
			}
			sum[c] += v
			n[c]++
		}
	}
	out := make([]float64, cells)
	for c := range out {
		if n[c] == 0 {
			out[c] = math.NaN()
			continue
		}
		out[c] = sum[c] / float64(n[c])
	}
	return out, nil
}

// DayOfYearAnomaly subtracts the climatology from a day-of-year series. clim
// must cover every day of series.
func DayOfYearAnomaly(series, clim []float64) ([]float64, error) {
	if len(clim) < len(series) {
		return nil, lengthErr("climatology shorter than series", len(clim), len(series))
	}
	out := make([]float64, len(series))
	for i, v := range series {
		out[i] = v - clim[i]
	}
	return out, nil
}

// AnomalyAt is value minus the climatology on zero-based day doy. It is NaN
// when doy is out of range.
func AnomalyAt(value float64, clim []float64, doy int) float64 {
	if doy < 0 || doy >= len(clim) {
		return math.NaN()
	}
	return value - clim[doy]
}

// SigmaBand returns mean + k*std per day, e.g. k = -2 for the lower 2σ line.
func SigmaBand(c types.Climatology, k float64) []float64 {
	out := make([]float64, c.Len())
	for i := range out {
		out[i] = c.Mean[i] + k*c.Std[i]
	}
	return out
}

// DaysBelow counts days where xs is strictly below threshold. threshold
// must be at least as long as xs. NaN days never count.
func DaysBelow(xs, threshold []float64) (int, error) {
	if len(threshold) < len(xs) {
		return 0, lengthErr("threshold shorter than series", len(threshold), len(xs))
	}
	n := 0
	for i, x := range xs {
		if x-threshold[i] < 0 {
			n++
		}
	}
	return n, nil
}

// Record is the extreme value for one day of year and the year it was set.
type Record struct {
	Year  int
	Value float64
}

// RecordLows returns the all-time lowest value for each day of year.
func RecordLows(t types.YearTable) []Record {
	return records(t, func(a, b float64) bool { return a < b })
}

// RecordHighs returns the all-time highest value for each day of year.
func RecordHighs(t types.YearTable) []Record {
	return records(t, func(a, b float64) bool { return a > b })
}

func records(t types.YearTable, better func(a, b float64) bool) []Record {
	out := make([]Record, types.DaysPerYear)
	for d := range out {
		out[d] = Record{Value: math.NaN()}
		for i, y := range t.Years {
			if d >= len(t.Values[i]) {
				continue
			}
			v := t.Values[i][d]
			if math.IsNaN(v) {
				continue
			}
			if math.IsNaN(out[d].Value) || better(v, out[d].Value) {
				out[d] = Record{Year: y, Value: v}
			}
		}
	}
	return out
}

// RecordLowDays flags, per year and day, whether the value was a record low
// when it was observed: no earlier year had a lower value on that day.
func RecordLowDays(t types.YearTable) [][]bool {
	out := make([][]bool, len(t.Years))
	low := make([]float64, types.DaysPerYear)
	for d := range low {
		low[d] = math.NaN()
	}
	for i, row := range t.Values {
		out[i] = make([]bool, types.DaysPerYear)
		for d := 0; d < types.DaysPerYear && d < len(row); d++ {
			v := row[d]
			if math.IsNaN(v) {
				continue
			}
			if math.IsNaN(low[d]) || v <= low[d] {
				low[d] = v
				out[i][d] = true
			}
		}
	}
	return out
}

// CountTrue is the number of set flags.
func CountTrue(flags []bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

// CumulativeCount is the running count of set flags.
func CumulativeCount(flags []bool) []int {
	out := make([]int, len(flags))
	n := 0
	for i, f := range flags {
		if f {
			n++
		}
		out[i] = n
	}
	return out
}

// YearExtreme is one year's minimum or maximum and the day it occurred.
type YearExtreme struct {
	Year  int
	Day   int
	Value float64
}

// AnnualMinima returns each year's lowest value and its zero-based day.
// Years with no data are omitted.
func AnnualMinima(t types.YearTable) []YearExtreme {
	return annual(t, NaNMin)
}

// AnnualMaxima returns each year's highest value and its zero-based day.
func AnnualMaxima(t types.YearTable) []YearExtreme {
	return annual(t, NaNMax)
}

func annual(t types.YearTable, pick func([]float64) (float64, int)) []YearExtreme {
	var out []YearExtreme
	for i, y := range t.Years {
		v, d := pick(t.Values[i])
		if d < 0 {
			continue
		}
		out = append(out, YearExtreme{Year: y, Day: d, Value: v})
	}
	return out
}
