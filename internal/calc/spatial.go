// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package calc

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pdiddy/icevarfigs/pkg/types"
)

// correlationMinLat is the latitude above which the weighted spatial
// statistics are computed.
const correlationMinLat = 30.0

func cosWeight(lat float64) float64 {
	return math.Cos(lat * math.Pi / 180)
}

// WeightedAverage is the cos(latitude)-weighted mean over cells where both
// the value and the latitude are finite. It is NaN if no cell qualifies.
func WeightedAverage(values, lats []float64) (float64, error) {
	if len(values) != len(lats) {
		return 0, lengthErr("values and latitudes", len(values), len(lats))
	}
	var xs, ws []float64
	for i, v := range values {
		if math.IsNaN(v) || math.IsNaN(lats[i]) {
			continue
		}
		xs = append(xs, v)
		ws = append(ws, cosWeight(lats[i]))
	}
	if len(xs) == 0 {
		return math.NaN(), nil
	}
	return stat.Mean(xs, ws), nil
}

// WeightedAverageSeries maps WeightedAverage over grids.
func WeightedAverageSeries(grids []types.Grid) ([]float64, error) {
	out := make([]float64, len(grids))
	for i, g := range grids {
		v, err := WeightedAverage(g.Values, g.Lat)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// BoxAverage is the weighted average over cells inside a lat/lon box.
// Longitudes are compared in 0..360.
func BoxAverage(g types.Grid, latMin, latMax, lonMin, lonMax float64) (float64, error) {
	vals := make([]float64, len(g.Values))
	for i := range vals {
		lon := math.Mod(g.Lon[i]+360, 360)
		if g.Lat[i] < latMin || g.Lat[i] > latMax || lon < lonMin || lon > lonMax {
			vals[i] = math.NaN()
			continue
		}
		vals[i] = g.Values[i]
	}
	return WeightedAverage(vals, g.Lat)
}

// maskedPairs keeps cells poleward of 30°N where both fields are finite.
func maskedPairs(a, b, lats []float64) (xs, ys, ws []float64, err error) {
	if len(a) != len(b) || len(a) != len(lats) {
		return nil, nil, nil, lengthErr("fields and latitudes", len(a), len(lats))
	}
	for i := range a {
		if lats[i] <= correlationMinLat || math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		xs = append(xs, a[i])
		ys = append(ys, b[i])
		ws = append(ws, cosWeight(lats[i]))
	}
	return xs, ys, ws, nil
}

// WeightedCorrelation is the cos(latitude)-weighted Pearson correlation of
// two fields north of 30°N.
func WeightedCorrelation(a, b, lats []float64) (float64, error) {
	xs, ys, ws, err := maskedPairs(a, b, lats)
	if err != nil {
		return 0, err
	}
	if len(xs) < 2 {
		return math.NaN(), nil
	}
	return stat.Correlation(xs, ys, ws), nil
}

// Correlation is the unweighted Pearson correlation over cells where both
// fields are finite.
func Correlation(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, lengthErr("fields", len(a), len(b))
	}
	var xs, ys []float64
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		xs = append(xs, a[i])
		ys = append(ys, b[i])
	}
	if len(xs) < 2 {
		return math.NaN(), nil
	}
	return stat.Correlation(xs, ys, nil), nil
}

// WeightedRMSE is the cos(latitude)-weighted root mean square difference
// north of 30°N.
func WeightedRMSE(a, b, lats []float64) (float64, error) {
	xs, ys, ws, err := maskedPairs(a, b, lats)
	if err != nil {
		return 0, err
	}
	if len(xs) == 0 {
		return math.NaN(), nil
	}
	sq := make([]float64, len(xs))
	for i := range xs {
		d := xs[i] - ys[i]
		sq[i] = d * d * ws[i]
	}
	return math.Sqrt(floats.Sum(sq) / floats.Sum(ws)), nil
}

// RMSE is the unweighted root mean square difference over finite pairs.
func RMSE(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, lengthErr("fields", len(a), len(b))
	}
	var sum float64
	var n int
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		d := a[i] - b[i]
		sum += d * d
		n++
	}
	if n == 0 {
		return math.NaN(), nil
	}
	return math.Sqrt(sum / float64(n)), nil
}

// SeasonalMean averages runs of consecutive monthly fields that may cross
// the year boundary. fields is year-major with twelve entries per year.
// startMonth is 1-based: (12, 2) gives December-January and (12, 3)
// December-February. Only seasons fully inside the data are returned, so
// a cross-year season yields one fewer result than there are years.
func SeasonalMean(fields [][]float64, startMonth, length int) ([][]float64, error) {
	if len(fields)%12 != 0 {
		return nil, fmt.Errorf("%w: %d monthly fields is not a whole number of years", ErrLength, len(fields))
	}
	var out [][]float64
	for start := startMonth - 1; start+length <= len(fields); start += 12 {
		cells := len(fields[start])
		mean := make([]float64, cells)
		for c := 0; c < cells; c++ {
			col := make([]float64, 0, length)
			for k := 0; k < length; k++ {
				f := fields[start+k]
				if len(f) != cells {
					return nil, lengthErr("field size", len(f), cells)
				}
				col = append(col, f[c])
			}
			mean[c] = NaNMean(col)
		}
		out = append(out, mean)
	}
	return out, nil
}

// TotalVolume sums thickness*area over finite cells. With thickness in m
// and area in km² the result is in km³.
func TotalVolume(thickness, area []float64) (float64, error) {
	if len(thickness) != len(area) {
		return 0, lengthErr("thickness and area", len(thickness), len(area))
	}
	var sum float64
	for i, h := range thickness {
		if math.IsNaN(h) || math.IsNaN(area[i]) {
			continue
		}
		sum += h / 1000 * area[i]
	}
	return sum, nil
}

// AreaWeightedMean is the area-weighted mean thickness over finite cells.
func AreaWeightedMean(values, area []float64) (float64, error) {
	if len(values) != len(area) {
		return 0, lengthErr("values and area", len(values), len(area))
	}
	var xs, ws []float64
	for i, v := range values {
		if math.IsNaN(v) || math.IsNaN(area[i]) || area[i] <= 0 {
			continue
		}
		xs = append(xs, v)
		ws = append(ws, area[i])
	}
	if len(xs) == 0 {
		return math.NaN(), nil
	}
	return stat.Mean(xs, ws), nil
}
