// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pdiddy/icevarfigs/pkg/types"
)

// GRACEMass reads a GRACE mascon mass series: decimal year, mass (Gt),
// 1-sigma. Header lines start with HDR or #.
func GRACEMass(r io.Reader) ([]types.MassPoint, error) {
	sc := bufio.NewScanner(r)
	var out []types.MassPoint
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "HDR") || strings.HasPrefix(text, "#") {
			continue
		}
		parts := strings.Fields(text)
		if len(parts) < 3 {
			return nil, fmt.Errorf("%w: GRACE line %d has %d fields", ErrFormat, line, len(parts))
		}
		vals, err := parseFloats(parts[:3])
		if err != nil {
			return nil, fmt.Errorf("%w: GRACE line %d: %v", ErrFormat, line, err)
		}
		out = append(out, types.MassPoint{Year: vals[0], Mass: vals[1], Sigma: vals[2]})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: GRACE file has no observations", ErrFormat)
	}
	return out, nil
}

// PSLMonthly reads a NOAA PSL monthly timeseries export: a "first last"
// year line, one row of year plus twelve values per year, then the
// missing-value line. Anything after that is ignored.
func PSLMonthly(r io.Reader) (types.MonthlyTable, error) {
	sc := bufio.NewScanner(r)
	var lines []string
	for sc.Scan() {
		if text := strings.TrimSpace(sc.Text()); text != "" {
			lines = append(lines, text)
		}
	}
	if err := sc.Err(); err != nil {
		return types.MonthlyTable{}, err
	}
	if len(lines) == 0 {
		return types.MonthlyTable{}, fmt.Errorf("%w: empty PSL file", ErrFormat)
	}

	span := strings.Fields(lines[0])
	if len(span) < 2 {
		return types.MonthlyTable{}, fmt.Errorf("%w: PSL year range line %q", ErrFormat, lines[0])
	}
	first, err1 := strconv.Atoi(span[0])
	last, err2 := strconv.Atoi(span[1])
	if err1 != nil || err2 != nil || last < first {
		return types.MonthlyTable{}, fmt.Errorf("%w: PSL year range line %q", ErrFormat, lines[0])
	}
	n := last - first + 1
	if len(lines) < n+1 {
		return types.MonthlyTable{}, fmt.Errorf("%w: PSL file has %d year rows, want %d", ErrFormat, len(lines)-1, n)
	}

	missing := math.NaN()
	if len(lines) > n+1 {
		if f := strings.Fields(lines[n+1]); len(f) > 0 {
			if v, err := strconv.ParseFloat(f[0], 64); err == nil {
				missing = v
			}
		}
	}

	t := types.MonthlyTable{
		Years:  make([]int, n),
		Values: make([][12]float64, n),
	}
	for i := 0; i < n; i++ {
		parts := strings.Fields(lines[1+i])
		if len(parts) < 13 {
			return types.MonthlyTable{}, fmt.Errorf("%w: PSL row %q has %d fields", ErrFormat, lines[1+i], len(parts))
		}
		vals, err := parseFloats(parts[:13])
		if err != nil {
			return types.MonthlyTable{}, fmt.Errorf("%w: PSL row %q: %v", ErrFormat, lines[1+i], err)
		}
		t.Years[i] = int(vals[0])
		for m := 0; m < 12; m++ {
			t.Values[i][m] = nanIfMissing(vals[1+m], missing)
		}
	}
	return t, nil
}
