// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/icevarfigs/pkg/types"
)

// RegionalSheetSuffix ends the name of every extent sheet in the NSIDC
// regional workbook, e.g. "Barents-Extent-km^2".
const RegionalSheetSuffix = "-Extent-km^2"

// regionalCalendar is a leap year: the workbook has a row for 29 February.
var regionalCalendar = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// NSIDCRegional reads the Sea Ice Index regional daily workbook into one
// table per region, keyed by the sheet name without RegionalSheetSuffix.
// Each sheet has a header row of years and one row per calendar day from
// 1 January to 31 December, 29 February included. Extents are converted
// from km² to millions of km²; blank cells are NaN.
func NSIDCRegional(r io.Reader) (map[string]types.YearTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: NSIDC regional workbook: %v", ErrFormat, err)
	}
	defer f.Close()

	out := map[string]types.YearTable{}
	for _, sheet := range f.GetSheetList() {
		region, ok := strings.CutSuffix(sheet, RegionalSheetSuffix)
		if !ok {
			continue
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
		}
		tbl, err := regionalSheet(rows)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
		out[region] = tbl
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no *%s sheets in NSIDC regional workbook", ErrFormat, RegionalSheetSuffix)
	}
	return out, nil
}

// regionalSheet finds the header row by its year cells and reads the day
// rows below it.
func regionalSheet(rows [][]string) (types.YearTable, error) {
	header := -1
	cols := map[int]int{}
	for i, row := range rows {
		for c, cell := range row {
			if y, err := strconv.Atoi(strings.TrimSpace(cell)); err == nil && y >= 1970 && y <= 2100 {
				cols[c] = y
			}
		}
		if len(cols) > 0 {
			header = i
			break
		}
	}
	if header < 0 {
		return types.YearTable{}, fmt.Errorf("%w: no year header", ErrFormat)
	}

	var tbl types.YearTable
	index := map[int]int{}
	for c := 0; c < len(rows[header]); c++ {
		y, ok := cols[c]
		if !ok {
			continue
		}
		row := make([]float64, types.DaysPerYear)
		for d := range row {
			row[d] = math.NaN()
		}
		index[c] = len(tbl.Years)
		tbl.Years = append(tbl.Years, y)
		tbl.Values = append(tbl.Values, row)
	}

	for k, row := range rows[header+1:] {
		if k >= 366 {
			break
		}
		doy, ok := types.NoLeapDayOfYear(regionalCalendar.AddDate(0, 0, k))
		if !ok {
			continue
		}
		for c, i := range index {
			if c >= len(row) {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(row[c]), 64)
			if err != nil {
				continue
			}
			tbl.Values[i][doy] = v * 1e-6
		}
	}
	return tbl, nil
}
