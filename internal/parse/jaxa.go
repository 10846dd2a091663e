// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pdiddy/icevarfigs/pkg/types"
)

// jaxaFirstYear is the first year column when the header does not name it.
const jaxaFirstYear = 2002

// JAXATable is the JAXA/ADS daily extent file: one row per calendar day,
// decadal means, then one column per year. Values are in km².
type JAXATable struct {
	Month     []int
	Day       []int
	Mean1980s []float64
	Mean1990s []float64
	Mean2000s []float64
	Years     []int

	// Extent is indexed [year][day].
	Extent [][]float64
}

// Len returns the number of days in the table.
func (t JAXATable) Len() int { return len(t.Month) }

// Year returns the column for year, or nil.
func (t JAXATable) Year(year int) []float64 {
	for i, y := range t.Years {
		if y == year {
			return t.Extent[i]
		}
	}
	return nil
}

// YearTable returns the yearly columns as a day-of-year table.
func (t JAXATable) YearTable() types.YearTable {
	return types.YearTable{Years: t.Years, Values: t.Extent}
}

// JAXAExtent reads the JAXA extent CSV. Rows for February 29 are dropped.
// Year columns are taken from the header when it names them.
func JAXAExtent(r io.Reader) (JAXATable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return JAXATable{}, fmt.Errorf("reading JAXA csv: %w", err)
	}
	if len(records) < 2 || len(records[0]) < 6 {
		return JAXATable{}, fmt.Errorf("%w: JAXA csv needs a header and at least one year column", ErrFormat)
	}

	header := records[0]
	nYears := len(header) - 5
	t := JAXATable{
		Years:  make([]int, nYears),
		Extent: make([][]float64, nYears),
	}
	for i := range t.Years {
		y, err := strconv.Atoi(strings.TrimSpace(header[5+i]))
		if err != nil {
			y = jaxaFirstYear + i
		}
		t.Years[i] = y
	}

	for n, rec := range records[1:] {
		if len(rec) == 0 || strings.TrimSpace(strings.Join(rec, "")) == "" {
			continue
		}
		vals := make([]float64, len(header))
		for i := range vals {
			vals[i] = math.NaN()
			if i >= len(rec) {
				continue
			}
			s := strings.TrimSpace(rec[i])
			if s == "" {
				continue
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return JAXATable{}, fmt.Errorf("%w: JAXA row %d column %d: %v", ErrFormat, n+2, i+1, err)
			}
			vals[i] = nanIfMissing(v, Missing)
		}
		month, day := int(vals[0]), int(vals[1])
		if month == 2 && day == 29 {
			continue
		}
		t.Month = append(t.Month, month)
		t.Day = append(t.Day, day)
		t.Mean1980s = append(t.Mean1980s, vals[2])
		t.Mean1990s = append(t.Mean1990s, vals[3])
		t.Mean2000s = append(t.Mean2000s, vals[4])
		for i := range t.Years {
			t.Extent[i] = append(t.Extent[i], vals[5+i])
		}
	}
	return t, nil
}
