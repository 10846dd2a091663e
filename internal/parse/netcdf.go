// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fhs/go-netcdf/netcdf"

	"github.com/pdiddy/icevarfigs/pkg/types"
)

// NetCDFGrids reads variable from a NetCDF file as time-major 2-D grids.
// The last two dimensions are taken as (lat, lon); all leading dimensions
// are flattened, so a singleton level dimension drops out. Fill and
// missing values become NaN and scale_factor/add_offset are applied.
func NetCDFGrids(path, variable string) ([]types.Grid, error) {
	ds, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer ds.Close()

	v, err := ds.Var(variable)
	if err != nil {
		return nil, fmt.Errorf("variable %q in %s: %w", variable, path, err)
	}
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("dimensions of %q: %w", variable, err)
	}
	if len(dims) < 2 {
		return nil, fmt.Errorf("%w: %q has %d dimensions, want at least 2", ErrShape, variable, len(dims))
	}

	rows, latName, err := dimInfo(dims[len(dims)-2])
	if err != nil {
		return nil, err
	}
	cols, lonName, err := dimInfo(dims[len(dims)-1])
	if err != nil {
		return nil, err
	}

	values, err := readVar(v)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", variable, err)
	}
	cells := rows * cols
	if cells == 0 || len(values)%cells != 0 {
		return nil, fmt.Errorf("%w: %q has %d values for a %dx%d grid", ErrShape, variable, len(values), rows, cols)
	}
	unpack(v, values)

	lat1d := coordinate(ds, latName, rows)
	lon1d := coordinate(ds, lonName, cols)
	lat := make([]float64, cells)
	lon := make([]float64, cells)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			lat[r*cols+c] = lat1d[r]
			lon[r*cols+c] = lon1d[c]
		}
	}

	frames := len(values) / cells
	times := frameTimes(ds, frames)
	out := make([]types.Grid, frames)
	for f := range out {
		out[f] = types.Grid{
			Rows:   rows,
			Cols:   cols,
			Lat:    lat,
			Lon:    lon,
			Values: values[f*cells : (f+1)*cells],
			Time:   times[f],
		}
	}
	return out, nil
}

func dimInfo(d netcdf.Dim) (int, string, error) {
	n, err := d.Len()
	if err != nil {
		return 0, "", fmt.Errorf("dimension length: %w", err)
	}
	name, err := d.Name()
	if err != nil {
		return 0, "", fmt.Errorf("dimension name: %w", err)
	}
	return int(n), name, nil
}

// readVar reads a numeric variable of any common type as float64.
func readVar(v netcdf.Var) ([]float64, error) {
	n, err := v.Len()
	if err != nil {
		return nil, err
	}
	t, err := v.Type()
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	switch t {
	case netcdf.DOUBLE:
		if err := v.ReadFloat64s(out); err != nil {
			return nil, err
		}
	case netcdf.FLOAT:
		buf := make([]float32, n)
		if err := v.ReadFloat32s(buf); err != nil {
			return nil, err
		}
		for i, x := range buf {
			out[i] = float64(x)
		}
	case netcdf.SHORT:
		buf := make([]int16, n)
		if err := v.ReadInt16s(buf); err != nil {
			return nil, err
		}
		for i, x := range buf {
			out[i] = float64(x)
		}
	case netcdf.INT:
		buf := make([]int32, n)
		if err := v.ReadInt32s(buf); err != nil {
			return nil, err
		}
		for i, x := range buf {
			out[i] = float64(x)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported NetCDF type %v", ErrFormat, t)
	}
	return out, nil
}

// attrFloat returns the first value of a numeric attribute.
func attrFloat(v netcdf.Var, name string) (float64, bool) {
	a := v.Attr(name)
	t, err := a.Type()
	if err != nil {
		return 0, false
	}
	n, err := a.Len()
	if err != nil || n == 0 {
		return 0, false
	}
	switch t {
	case netcdf.DOUBLE:
		buf := make([]float64, n)
		if a.ReadFloat64s(buf) != nil {
			return 0, false
		}
		return buf[0], true
	case netcdf.FLOAT:
		buf := make([]float32, n)
		if a.ReadFloat32s(buf) != nil {
			return 0, false
		}
		return float64(buf[0]), true
	case netcdf.SHORT:
		buf := make([]int16, n)
		if a.ReadInt16s(buf) != nil {
			return 0, false
		}
		return float64(buf[0]), true
	}
	return 0, false
}

func attrString(v netcdf.Var, name string) string {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return ""
	}
	buf := make([]byte, n)
	if a.ReadBytes(buf) != nil {
		return ""
	}
	return strings.TrimRight(string(buf), "\x00")
}

// unpack masks fill values and applies scale and offset in place.
func unpack(v netcdf.Var, values []float64) {
	fill, hasFill := attrFloat(v, "_FillValue")
	miss, hasMiss := attrFloat(v, "missing_value")
	scale, hasScale := attrFloat(v, "scale_factor")
	offset, _ := attrFloat(v, "add_offset")
	if !hasScale {
		scale = 1
	}
	for i, x := range values {
		if (hasFill && x == fill) || (hasMiss && x == miss) {
			values[i] = math.NaN()
			continue
		}
		values[i] = x*scale + offset
	}
}

// coordinate reads a 1-D coordinate variable, falling back to indices.
func coordinate(ds netcdf.Dataset, name string, n int) []float64 {
	out := make([]float64, n)
	if v, err := ds.Var(name); err == nil {
		if vals, err := readVar(v); err == nil && len(vals) == n {
			return vals
		}
	}
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

// frameTimes decodes the CF time coordinate. Frames without a decodable
// time get the zero time.
func frameTimes(ds netcdf.Dataset, frames int) []time.Time {
	out := make([]time.Time, frames)
	v, err := ds.Var("time")
	if err != nil {
		return out
	}
	vals, err := readVar(v)
	if err != nil || len(vals) != frames {
		return out
	}
	unit, epoch, ok := parseTimeUnits(attrString(v, "units"))
	if !ok {
		return out
	}
	for i, x := range vals {
		out[i] = epoch.Add(time.Duration(x * float64(unit)))
	}
	return out
}

// parseTimeUnits parses CF units such as "days since 1800-01-01 00:00:00".
func parseTimeUnits(units string) (time.Duration, time.Time, bool) {
	parts := strings.SplitN(strings.TrimSpace(units), " since ", 2)
	if len(parts) != 2 {
		return 0, time.Time{}, false
	}
	var unit time.Duration
	switch strings.ToLower(parts[0]) {
	case "days", "day":
		unit = 24 * time.Hour
	case "hours", "hour":
		unit = time.Hour
	case "minutes", "minute":
		unit = time.Minute
	case "seconds", "second":
		unit = time.Second
	default:
		return 0, time.Time{}, false
	}
	ref := strings.TrimSpace(parts[1])
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		"2006-1-2 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02T15:04:05Z",
		"2006-01-02",
		"2006-1-2",
	} {
		if t, err := time.Parse(layout, ref); err == nil {
			return unit, t, true
		}
	}
	return 0, time.Time{}, false
}
