// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pdiddy/icevarfigs/pkg/types"
)

// PIOMAS model grid dimensions.
const (
	PIOMASRows  = 120
	PIOMASCols  = 360
	PIOMASCells = PIOMASRows * PIOMASCols

	griddataBlocks = 7
)

// PIOMASThickness is one year of monthly mean thickness (m). Months past
// Available are all NaN.
type PIOMASThickness struct {
	Available int
	Months    [12][]float64
}

// PIOMASGrid reads the grid coordinate file: all longitudes followed by all
// latitudes. The returned grid has geometry only.
func PIOMASGrid(r io.Reader) (types.Grid, error) {
	vals, err := readFloats(r)
	if err != nil {
		return types.Grid{}, fmt.Errorf("reading PIOMAS grid: %w", err)
	}
	if len(vals) != 2*PIOMASCells {
		return types.Grid{}, fmt.Errorf("%w: PIOMAS grid has %d values, want %d", ErrShape, len(vals), 2*PIOMASCells)
	}
	half := len(vals) / 2
	return types.Grid{
		Rows: PIOMASRows,
		Cols: PIOMASCols,
		Lon:  vals[:half],
		Lat:  vals[half:],
	}, nil
}

// PIOMASCellArea reads griddata (lon, lat, htn, hte, hts, htw, ex blocks)
// and returns the cell areas htn*hte in km².
func PIOMASCellArea(r io.Reader) ([]float64, error) {
	vals, err := readFloats(r)
	if err != nil {
		return nil, fmt.Errorf("reading PIOMAS griddata: %w", err)
	}
	if len(vals) != griddataBlocks*PIOMASCells {
		return nil, fmt.Errorf("%w: PIOMAS griddata has %d values, want %d", ErrShape, len(vals), griddataBlocks*PIOMASCells)
	}
	htn := vals[2*PIOMASCells : 3*PIOMASCells]
	hte := vals[3*PIOMASCells : 4*PIOMASCells]
	area := make([]float64, PIOMASCells)
	for i := range area {
		area[i] = htn[i] * hte[i]
	}
	return area, nil
}

// PIOMASThicknessYear reads a heff binary: little-endian float32, one
// 120x360 field per month. A partial year is padded with NaN months.
// Values below threshold become NaN.
func PIOMASThicknessYear(r io.Reader, threshold float64) (PIOMASThickness, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return PIOMASThickness{}, fmt.Errorf("reading PIOMAS thickness: %w", err)
	}
	const monthBytes = PIOMASCells * 4
	if len(data) == 0 || len(data)%monthBytes != 0 {
		return PIOMASThickness{}, fmt.Errorf("%w: %d bytes is not a whole number of months", ErrShape, len(data))
	}
	months := len(data) / monthBytes
	if months > 12 {
		return PIOMASThickness{}, fmt.Errorf("%w: %d months in one year", ErrShape, months)
	}

	out := PIOMASThickness{Available: months}
	for m := 0; m < 12; m++ {
		grid := make([]float64, PIOMASCells)
		if m >= months {
			for i := range grid {
				grid[i] = math.NaN()
			}
			out.Months[m] = grid
			continue
		}
		chunk := data[m*monthBytes : (m+1)*monthBytes]
		for i := range grid {
			v := float64(math.Float32frombits(binary.LittleEndian.Uint32(chunk[i*4:])))
			if v < threshold {
				v = math.NaN()
			}
			grid[i] = v
		}
		out.Months[m] = grid
	}
	return out, nil
}

// PIOMASDailyVolume reads the daily volume table (header line, then
// year, day, volume rows) into a year table of 10³ km³. Day 366 is dropped.
func PIOMASDailyVolume(r io.Reader) (types.YearTable, error) {
	sc := bufio.NewScanner(r)
	var t types.YearTable
	index := map[int]int{}
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		parts := strings.Fields(text)
		if len(parts) < 3 {
			return t, fmt.Errorf("%w: volume line %d has %d fields", ErrFormat, line, len(parts))
		}
		year, yerr := strconv.Atoi(parts[0])
		day, derr := strconv.Atoi(parts[1])
		vol, verr := strconv.ParseFloat(parts[2], 64)
		if yerr != nil || derr != nil || verr != nil {
			if line == 1 {
				continue
			}
			return t, fmt.Errorf("%w: volume line %d: %q", ErrFormat, line, text)
		}
		if day < 1 || day > types.DaysPerYear {
			continue
		}
		i, ok := index[year]
		if !ok {
			row := make([]float64, types.DaysPerYear)
			for d := range row {
				row[d] = math.NaN()
			}
			i = len(t.Years)
			index[year] = i
			t.Years = append(t.Years, year)
			t.Values = append(t.Values, row)
		}
		t.Values[i][day-1] = vol
	}
	if err := sc.Err(); err != nil {
		return t, err
	}
	if len(t.Years) == 0 {
		return t, fmt.Errorf("%w: volume file has no rows", ErrFormat)
	}
	return t, nil
}
