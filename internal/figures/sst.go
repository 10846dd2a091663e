// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package figures

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pdiddy/icevarfigs/internal/calc"
	"github.com/pdiddy/icevarfigs/internal/parse"
	"github.com/pdiddy/icevarfigs/internal/render"
	"github.com/pdiddy/icevarfigs/pkg/types"
)

const (
	oisstSource = "NOAA OISST v2.1 (PSL)"
	ersstSource = "NOAA ERSST v5 (NCEI)"

	// ensoWindow is the number of days averaged per point.
	ensoWindow = 10

	// ersstLag is how many months ERSST trails the calendar.
	ersstLag = 2

	// sicThreshold masks open water in concentration maps, as a fraction.
	sicThreshold = 0.15

	// sicMinLat is the southern edge of the concentration map.
	sicMinLat = 66.0

	// sicTrendDays is the span of the concentration change metric.
	sicTrendDays = 30
)

// Niño-3.4 box.
const (
	nino34LatMin = -5.0
	nino34LatMax = 5.0
	nino34LonMin = 190.0
	nino34LonMax = 240.0
)

func oisst(year int) string { return fmt.Sprintf("oisst-anom-%d", year) }

func oisstIce(year int) string { return fmt.Sprintf("oisst-icec-%d", year) }

func ersst(t time.Time) string { return "ersst-v5-" + t.Format("200601") }

// ersstMonths returns the months from January two years back through the
// latest published month.
func ersstMonths(now time.Time) []time.Time {
	last := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -ersstLag, 0)
	var out []time.Time
	for m := time.Date(last.Year()-2, 1, 1, 0, 0, 0, 0, time.UTC); !m.After(last); m = m.AddDate(0, 1, 0) {
		out = append(out, m)
	}
	return out
}

func init() {
	register(recipe{
		name: "oisst-enso",
		desc: "10-day Niño-3.4 SST anomaly for the year with a map of the latest window",
		datasets: func(now time.Time) []string {
			return []string{oisst(now.Year())}
		},
		render: oisstENSO,
	})
	register(recipe{
		name: "oisst-sic-map",
		desc: "Polar map of the latest daily OISST sea ice concentration north of 66°N",
		datasets: func(now time.Time) []string {
			return []string{oisstIce(now.Year())}
		},
		render: oisstSICMap,
	})
	register(recipe{
		name: "ersst-weighted-mean",
		desc: "Monthly 60°S-60°N area-weighted sea surface temperature",
		datasets: func(now time.Time) []string {
			var names []string
			for _, m := range ersstMonths(now) {
				names = append(names, ersst(m))
			}
			return names
		},
		render: ersstWeightedMean,
	})
}

// loadOISST reads every daily field of variable from the named dataset and
// fails with ErrNoData when there are fewer than minDays.
func loadOISST(in Inputs, name, variable string, minDays int) ([]types.Grid, error) {
	path, err := in.Path(name)
	if err != nil {
		return nil, err
	}
	grids, err := parse.NetCDFGrids(path, variable)
	if err != nil {
		return nil, err
	}
	if len(grids) < minDays {
		return nil, fmt.Errorf("%w: %d days in %s, need %d", ErrNoData, len(grids), name, minDays)
	}
	return grids, nil
}

func oisstENSO(_ context.Context, in Inputs) (types.FigureRecord, error) {
	grids, _, err := fallBack(in.Today.Year(), func(y int) ([]types.Grid, error) {
		return loadOISST(in, oisst(y), "anom", ensoWindow)
	})
	if err != nil {
		return types.FigureRecord{}, err
	}

	daily := make([]float64, len(grids))
	for i, g := range grids {
		if daily[i], err = calc.BoxAverage(g, nino34LatMin, nino34LatMax, nino34LonMin, nino34LonMax); err != nil {
			return types.FigureRecord{}, err
		}
	}
	windows := calc.GroupedMean(daily, ensoWindow)
	xs := make([]float64, len(windows))
	for i := range xs {
		xs[i] = decimalYear(grids[i*ensoWindow].Time)
	}

	st := in.Style
	c := render.NewChart(fmt.Sprintf("Niño-3.4 SST anomaly, %d-day means", ensoWindow), "", "°C", st)
	if err := c.Line("", []float64{xs[0], xs[len(xs)-1]}, []float64{0, 0}, render.LineOpts{Color: st.Axis, Width: 0.5}); err != nil {
		return types.FigureRecord{}, err
	}
	if err := c.Line("", xs, windows, render.LineOpts{Color: st.Highlight, Width: 2}); err != nil {
		return types.FigureRecord{}, err
	}
	if err := c.Scatter(xs, windows, 3, nil); err != nil {
		return types.FigureRecord{}, err
	}
	latest := windows[len(windows)-1]
	c.Headline(fmt.Sprintf("Latest %d days: %+.2f °C", ensoWindow, latest))
	c.Source(oisstSource)

	out, err := in.Save(c, "oisst-enso")
	if err != nil {
		return types.FigureRecord{}, err
	}

	// Map of the latest complete window.
	n := len(windows) * ensoWindow
	fields := make([][]float64, n)
	index := make([]int, n)
	for i := 0; i < n; i++ {
		fields[i] = grids[i].Values
		index[i] = i
	}
	mean, err := calc.GridClimatology(fields, index, n-ensoWindow, n-1)
	if err != nil {
		return types.FigureRecord{}, err
	}
	last := grids[n-1]
	m, err := render.LatLonMap(fmt.Sprintf("SST anomaly, %d days to %s", ensoWindow, last.Time.Format("2 Jan 2006")),
		last.WithValues(mean), render.MapOpts{Min: -3, Max: 3, Diverging: true}, st)
	if err != nil {
		return types.FigureRecord{}, err
	}
	m.Source(oisstSource)
	mapOut, err := in.Save(m, "oisst-enso-map")
	if err != nil {
		return types.FigureRecord{}, err
	}

	// Compare the latest window against the first.
	tt := calc.TTest(daily[n-ensoWindow:n], daily[:ensoWindow])
	fig := types.FigureRecord{
		Output:   out,
		DataDate: last.Time,
		Metrics: map[string]float64{
			"nino34_anomaly_c": latest,
			"ttest_p":          tt.P,
		},
		Notes: []string{"map: " + mapOut},
	}
	if tt.Significant {
		fig.Notes = append(fig.Notes, "latest window differs from the first at p < 0.05")
	}
	return fig, nil
}

func oisstSICMap(_ context.Context, in Inputs) (types.FigureRecord, error) {
	grids, _, err := fallBack(in.Today.Year(), func(y int) ([]types.Grid, error) {
		return loadOISST(in, oisstIce(y), "icec", 1)
	})
	if err != nil {
		return types.FigureRecord{}, err
	}

	// Concentration below the threshold is open water. Cells south of the
	// map edge are dropped so the daily means cover the same region.
	masked := make([]types.Grid, len(grids))
	for i, g := range grids {
		vals := make([]float64, len(g.Values))
		for k, v := range g.Values {
			if math.IsNaN(v) || v <= sicThreshold || g.Lat[k] < sicMinLat {
				vals[k] = math.NaN()
				continue
			}
			vals[k] = math.Min(v, 1)
		}
		masked[i] = g.WithValues(vals)
	}
	series, err := calc.WeightedAverageSeries(masked)
	if err != nil {
		return types.FigureRecord{}, err
	}
	last := calc.LastFinite(series)
	if last < 0 {
		return types.FigureRecord{}, fmt.Errorf("%w: no ice north of %.0f°N", ErrNoData, sicMinLat)
	}
	day := masked[last]

	title := fmt.Sprintf("Sea ice concentration, %s", day.Time.Format("2 Jan 2006"))
	c, err := render.PolarMap(title, day, sicMinLat, render.MapOpts{Min: sicThreshold, Max: 1, Radius: 2}, in.Style)
	if err != nil {
		return types.FigureRecord{}, err
	}
	var cells int
	for _, v := range day.Values {
		if !math.IsNaN(v) {
			cells++
		}
	}
	c.Headline(fmt.Sprintf("Mean concentration %.0f%% where above %.0f%%", series[last]*100, sicThreshold*100))
	c.Source(oisstSource)

	out, err := in.SaveSquare(c, "oisst-sic-map")
	if err != nil {
		return types.FigureRecord{}, err
	}
	fig := types.FigureRecord{
		Output:   out,
		DataDate: day.Time,
		Metrics: map[string]float64{
			"mean_concentration": series[last],
			"ice_cells":          float64(cells),
		},
	}
	if from := last - sicTrendDays; from >= 0 && !math.IsNaN(series[from]) {
		fig.Metrics["concentration_change_30d"] = series[last] - series[from]
	}
	return fig, nil
}

func ersstWeightedMean(_ context.Context, in Inputs) (types.FigureRecord, error) {
	months := ersstMonths(in.Today)
	xs := make([]float64, len(months))
	means := make([]float64, len(months))
	fields := make([][]float64, len(months))
	var lats []float64
	for i, m := range months {
		path, err := in.Path(ersst(m))
		if err != nil {
			return types.FigureRecord{}, err
		}
		grids, err := parse.NetCDFGrids(path, "sst")
		if err != nil {
			return types.FigureRecord{}, err
		}
		if len(grids) == 0 {
			return types.FigureRecord{}, fmt.Errorf("%w: %s has no fields", ErrNoData, ersst(m))
		}
		g := grids[0]
		if means[i], err = calc.BoxAverage(g, -60, 60, 0, 360); err != nil {
			return types.FigureRecord{}, err
		}
		xs[i] = decimalYear(m)
		fields[i] = g.Values
		lats = g.Lat
	}

	st := in.Style
	c := render.NewChart("Sea surface temperature, 60°S-60°N", "", "°C", st)
	if err := c.Line("", xs, means, render.LineOpts{Color: st.Highlight, Width: 2}); err != nil {
		return types.FigureRecord{}, err
	}
	if err := c.Scatter(xs, means, 2.5, nil); err != nil {
		return types.FigureRecord{}, err
	}
	last := len(months) - 1
	c.Headline(fmt.Sprintf("%s: %.2f °C", months[last].Format("Jan 2006"), means[last]))
	c.Source(ersstSource)

	out, err := in.Save(c, "ersst-weighted-mean")
	if err != nil {
		return types.FigureRecord{}, err
	}
	fig := types.FigureRecord{
		Output:   out,
		DataDate: months[last],
		Metrics:  map[string]float64{"sst_60s60n_c": means[last]},
	}

	// December-February means from the complete years at the start.
	whole := len(fields) / 12 * 12
	if whole >= 24 {
		djf, err := calc.SeasonalMean(fields[:whole], 12, 3)
		if err != nil {
			return types.FigureRecord{}, err
		}
		for k, f := range djf {
			v, err := calc.WeightedAverage(f, lats)
			if err != nil {
				return types.FigureRecord{}, err
			}
			fig.Notes = append(fig.Notes, fmt.Sprintf("DJF %d/%d global mean %.2f °C", months[0].Year()+k, months[0].Year()+k+1, v))
		}
	}
	return fig, nil
}
