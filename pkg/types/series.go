// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"math"
	"time"
)

// DaysPerYear is the length of every day-of-year table. February 29 is
// dropped when a table is built from calendar dates.
const DaysPerYear = 365

// DailyValue is one dated observation. A missing observation has Value NaN.
type DailyValue struct {
	Date  time.Time `json:"date" yaml:"date"`
	Value float64   `json:"value" yaml:"value"`
}

// YearTable is a day-of-year matrix: one row per year, DaysPerYear columns.
// Days with no data are NaN. The last row is usually a partial current year.
type YearTable struct {
	Years  []int       `json:"years" yaml:"years"`
	Values [][]float64 `json:"values" yaml:"values"`
}

// Row returns the values for year, or nil if the year is not present.
func (t YearTable) Row(year int) []float64 {
	for i, y := range t.Years {
		if y == year {
			return t.Values[i]
		}
	}
	return nil
}

// LastYear returns the most recent year in the table, or 0 when empty.
func (t YearTable) LastYear() int {
	if len(t.Years) == 0 {
		return 0
	}
	return t.Years[len(t.Years)-1]
}

// LastDay returns the zero-based index of the last finite value in the
// final row, or -1 if that row is empty.
func (t YearTable) LastDay() int {
	if len(t.Values) == 0 {
		return -1
	}
	row := t.Values[len(t.Values)-1]
	for d := len(row) - 1; d >= 0; d-- {
		if !math.IsNaN(row[d]) {
			return d
		}
	}
	return -1
}

// NewYearTable builds a YearTable from dated values. Values on February 29
// are dropped so every year has DaysPerYear slots.
func NewYearTable(values []DailyValue) YearTable {
	var t YearTable
	index := map[int]int{}
	for _, v := range values {
		y := v.Date.Year()
		i, ok := index[y]
		if !ok {
			row := make([]float64, DaysPerYear)
			for d := range row {
				row[d] = math.NaN()
			}
			i = len(t.Years)
			index[y] = i
			t.Years = append(t.Years, y)
			t.Values = append(t.Values, row)
		}
		doy, ok := NoLeapDayOfYear(v.Date)
		if !ok {
			continue
		}
		t.Values[i][doy] = v.Value
	}
	return t
}

// NoLeapDayOfYear returns the zero-based day of year on a 365-day calendar.
// ok is false for February 29.
func NoLeapDayOfYear(t time.Time) (int, bool) {
	if t.Month() == time.February && t.Day() == 29 {
		return 0, false
	}
	doy := t.YearDay() - 1
	if isLeap(t.Year()) && t.Month() > time.February {
		doy--
	}
	return doy, true
}

// NoLeapDate is the inverse of NoLeapDayOfYear: the calendar date of a
// zero-based 365-day index in year.
func NoLeapDate(year, day int) time.Time {
	return time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day).AddDate(year-2001, 0, 0)
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

// Climatology holds per-day-of-year statistics over a reference period
// (NSIDC 1981-2010). All slices are indexed by DOY-1.
type Climatology struct {
	DOY  []int     `json:"doy" yaml:"doy"`
	Mean []float64 `json:"mean" yaml:"mean"`
	Std  []float64 `json:"std" yaml:"std"`
	P10  []float64 `json:"p10" yaml:"p10"`
	P25  []float64 `json:"p25" yaml:"p25"`
	P50  []float64 `json:"p50" yaml:"p50"`
	P75  []float64 `json:"p75" yaml:"p75"`
	P90  []float64 `json:"p90" yaml:"p90"`
}

// Len returns the number of days in the climatology.
func (c Climatology) Len() int { return len(c.Mean) }

// MonthlyTable holds one row of twelve monthly values per year.
type MonthlyTable struct {
	Years  []int        `json:"years" yaml:"years"`
	Values [][12]float64 `json:"values" yaml:"values"`
}

// Grid is a row-major two-dimensional field with per-cell coordinates.
// Lat and Lon have Rows*Cols entries, as do Values. Missing cells are NaN.
type Grid struct {
	Rows   int       `json:"rows" yaml:"rows"`
	Cols   int       `json:"cols" yaml:"cols"`
	Lat    []float64 `json:"-" yaml:"-"`
	Lon    []float64 `json:"-" yaml:"-"`
	Values []float64 `json:"-" yaml:"-"`

	// Time is the valid time of the field when known.
	Time time.Time `json:"time,omitempty" yaml:"time,omitempty"`
}

// Len returns the number of cells.
func (g Grid) Len() int { return g.Rows * g.Cols }

// At returns the value at row r, column c.
func (g Grid) At(r, c int) float64 { return g.Values[r*g.Cols+c] }

// WithValues returns a copy of g's geometry holding values.
func (g Grid) WithValues(values []float64) Grid {
	return Grid{Rows: g.Rows, Cols: g.Cols, Lat: g.Lat, Lon: g.Lon, Values: values, Time: g.Time}
}

// MassPoint is one land-ice mass observation from GRACE.
type MassPoint struct {
	// Year is the decimal year of the observation (e.g. 2002.29).
	Year float64 `json:"year" yaml:"year"`

	// Mass is the cumulative mass change in gigatonnes.
	Mass float64 `json:"mass" yaml:"mass"`

	// Sigma is the 1-sigma uncertainty in gigatonnes.
	Sigma float64 `json:"sigma" yaml:"sigma"`
}
