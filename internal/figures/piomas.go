// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package figures

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/pdiddy/icevarfigs/internal/calc"
	"github.com/pdiddy/icevarfigs/internal/parse"
	"github.com/pdiddy/icevarfigs/internal/render"
	"github.com/pdiddy/icevarfigs/pkg/types"
)

const (
	piomasSource = "PIOMAS v2.1 (Zhang and Rothrock, 2003)"

	// thicknessThreshold masks open water and numerical noise, in metres.
	thicknessThreshold = 0.1

	// polarMinLat is the southern edge of polar maps.
	polarMinLat = 50.0

	// meanThicknessYears is how many years piomas-mean-thickness reads.
	meanThicknessYears = 10

	// sitsivYears is how many years piomas-sitsiv-anim animates.
	sitsivYears = 15

	sitsivHold = 2 * time.Second
)

func heff(year int) string   { return fmt.Sprintf("piomas-heff-%d", year) }
func volume(year int) string { return fmt.Sprintf("piomas-volume-%d", year) }

func init() {
	register(recipe{
		name: "piomas-volume",
		desc: "PIOMAS daily Arctic sea ice volume: current year against the record, mean and decades",
		datasets: func(now time.Time) []string {
			return []string{volume(now.Year())}
		},
		render: piomasVolume,
	})
	register(recipe{
		name: "piomas-thickness-map",
		desc: "Polar map of the latest PIOMAS monthly mean thickness",
		datasets: func(now time.Time) []string {
			return []string{"piomas-grid", heff(now.Year())}
		},
		render: piomasThicknessMap,
	})
	register(recipe{
		name: "piomas-thickness-diff",
		desc: "Polar map of PIOMAS thickness change from the previous year, same month",
		datasets: func(now time.Time) []string {
			return []string{"piomas-grid", heff(now.Year()), heff(now.Year() - 1)}
		},
		render: piomasThicknessDiff,
	})
	register(recipe{
		name: "piomas-mean-thickness",
		desc: "Area-weighted mean PIOMAS thickness per month for recent years, with total volume",
		datasets: func(now time.Time) []string {
			names := []string{"piomas-griddata"}
			for y := now.Year() - meanThicknessYears + 1; y <= now.Year(); y++ {
				names = append(names, heff(y))
			}
			return names
		},
		render: piomasMeanThickness,
	})
	register(recipe{
		name: "piomas-sitsiv-anim",
		desc: "Animation of PIOMAS monthly mean thickness and volume, one frame per year",
		datasets: func(now time.Time) []string {
			names := []string{"piomas-griddata"}
			for y := now.Year() - sitsivYears + 1; y <= now.Year(); y++ {
				names = append(names, heff(y))
			}
			return names
		},
		render: piomasSITSIVAnimation,
	})
}

func loadVolume(in Inputs, year int) (types.YearTable, error) {
	rc, err := in.Open(volume(year))
	if err != nil {
		return types.YearTable{}, err
	}
	defer rc.Close()
	return parse.PIOMASDailyVolume(rc)
}

func piomasVolume(_ context.Context, in Inputs) (types.FigureRecord, error) {
	tbl, _, err := fallBack(in.Today.Year(), func(y int) (types.YearTable, error) {
		return loadVolume(in, y)
	})
	if err != nil {
		return types.FigureRecord{}, err
	}
	if len(tbl.Years) < 2 {
		return types.FigureRecord{}, fmt.Errorf("%w: PIOMAS volume has %d years", ErrNoData, len(tbl.Years))
	}
	year, day := tbl.LastYear(), tbl.LastDay()
	if day < 0 {
		return types.FigureRecord{}, fmt.Errorf("%w: PIOMAS %d has no days", ErrNoData, year)
	}

	// Records are over the years before the current one.
	past := types.YearTable{Years: tbl.Years[:len(tbl.Years)-1], Values: tbl.Values[:len(tbl.Values)-1]}
	lows := calc.RecordLows(past)
	first := tbl.Years[0]
	mean := calc.Climatology(tbl, first, 2010)
	xs := days(types.DaysPerYear)
	st := in.Style

	c := render.NewChart("Arctic sea ice volume", "", "thousand km³", st)
	if err := c.Line(fmt.Sprintf("%d-2010 mean", first), xs, mean, render.LineOpts{Color: st.Foreground, Dashed: true}); err != nil {
		return types.FigureRecord{}, err
	}
	decades := []struct {
		from  int
		color color.Color
	}{
		{2000, render.MustColor("lightskyblue")},
		{2010, render.MustColor("mediumseagreen")},
		{2020, render.MustColor("gold")},
	}
	for _, dec := range decades {
		if dec.from+9 >= year || dec.from < first {
			continue
		}
		clim := calc.Climatology(past, dec.from, dec.from+9)
		if err := c.Line(fmt.Sprintf("%ds", dec.from), xs, clim, render.LineOpts{Color: dec.color, Width: 1}); err != nil {
			return types.FigureRecord{}, err
		}
	}
	recordLine := make([]float64, len(lows))
	for i, r := range lows {
		recordLine[i] = r.Value
	}
	if err := c.Line("record low", xs, recordLine, render.LineOpts{Color: st.Muted, Width: 1}); err != nil {
		return types.FigureRecord{}, err
	}
	cur := tbl.Values[len(tbl.Values)-1]
	if err := c.Line(fmt.Sprint(year), xs, cur, render.LineOpts{Color: st.Highlight, Width: 2.5}); err != nil {
		return types.FigureRecord{}, err
	}

	vol := cur[day]
	rec := lows[day]
	c.Headline(fmt.Sprintf("%s: %.2f thousand km³ (previous record low %.2f in %d)",
		dateOf(year, day).Format("2 Jan 2006"), vol, rec.Value, rec.Year))
	c.Source(piomasSource)
	c.MonthTicks()
	c.XRange(0, types.DaysPerYear-1)

	out, err := in.Save(c, "piomas-volume")
	if err != nil {
		return types.FigureRecord{}, err
	}
	fig := types.FigureRecord{
		Output:   out,
		DataDate: dateOf(year, day),
		Metrics: map[string]float64{
			"volume_1000km3":       vol,
			"record_low_1000km3":   rec.Value,
			"record_low_year":      float64(rec.Year),
			"anomaly_mean_1000km3": calc.AnomalyAt(vol, mean, day),
		},
	}
	if vol < rec.Value {
		fig.Notes = append(fig.Notes, "record low for the date")
	}
	return fig, nil
}

func loadPIOMASGrid(in Inputs) (types.Grid, error) {
	rc, err := in.Open("piomas-grid")
	if err != nil {
		return types.Grid{}, err
	}
	defer rc.Close()
	return parse.PIOMASGrid(rc)
}

func loadThickness(in Inputs, year int) (parse.PIOMASThickness, error) {
	rc, err := in.Open(heff(year))
	if err != nil {
		return parse.PIOMASThickness{}, err
	}
	defer rc.Close()
	return parse.PIOMASThicknessYear(rc, thicknessThreshold)
}

// latestThickness loads the newest thickness year that has at least one
// month, trying year and then the year before. It returns the year used
// and the zero-based index of its last month.
func latestThickness(in Inputs, year int) (parse.PIOMASThickness, int, int, error) {
	th, used, err := fallBack(year, func(y int) (parse.PIOMASThickness, error) {
		th, err := loadThickness(in, y)
		if err != nil {
			return th, err
		}
		if th.Available == 0 {
			return th, fmt.Errorf("%w: no PIOMAS months for %d", ErrNoData, y)
		}
		return th, nil
	})
	if err != nil {
		return th, year, 0, err
	}
	return th, used, th.Available - 1, nil
}

func monthDate(year, month int) time.Time {
	return time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
}

func piomasThicknessMap(_ context.Context, in Inputs) (types.FigureRecord, error) {
	grid, err := loadPIOMASGrid(in)
	if err != nil {
		return types.FigureRecord{}, err
	}
	th, year, m, err := latestThickness(in, in.Today.Year())
	if err != nil {
		return types.FigureRecord{}, err
	}
	field := grid.WithValues(th.Months[m])

	title := fmt.Sprintf("Sea ice thickness, %s %d", monthNames[m], year)
	c, err := render.PolarMap(title, field, polarMinLat, render.MapOpts{Min: 0, Max: 5}, in.Style)
	if err != nil {
		return types.FigureRecord{}, err
	}
	mean := calc.NaNMean(field.Values)
	c.Headline(fmt.Sprintf("Mean %.2f m where thicker than %.1f m", mean, thicknessThreshold))
	c.Source(piomasSource)

	out, err := in.SaveSquare(c, "piomas-thickness-map")
	if err != nil {
		return types.FigureRecord{}, err
	}
	return types.FigureRecord{
		Output:   out,
		DataDate: monthDate(year, m),
		Metrics:  map[string]float64{"mean_thickness_m": mean},
	}, nil
}

func piomasThicknessDiff(_ context.Context, in Inputs) (types.FigureRecord, error) {
	grid, err := loadPIOMASGrid(in)
	if err != nil {
		return types.FigureRecord{}, err
	}
	cur, year, m, err := latestThickness(in, in.Today.Year())
	if err != nil {
		return types.FigureRecord{}, err
	}
	prev, err := loadThickness(in, year-1)
	if err != nil {
		return types.FigureRecord{}, err
	}

	// Open water in one year and ice in the other counts as zero thickness.
	zero := func(v float64) float64 {
		if math.IsNaN(v) {
			return 0
		}
		return v
	}
	diff := make([]float64, parse.PIOMASCells)
	for i := range diff {
		a, b := cur.Months[m][i], prev.Months[m][i]
		if math.IsNaN(a) && math.IsNaN(b) {
			diff[i] = math.NaN()
			continue
		}
		diff[i] = zero(a) - zero(b)
	}

	r, err := calc.WeightedCorrelation(cur.Months[m], prev.Months[m], grid.Lat)
	if err != nil {
		return types.FigureRecord{}, err
	}
	rmse, err := calc.WeightedRMSE(cur.Months[m], prev.Months[m], grid.Lat)
	if err != nil {
		return types.FigureRecord{}, err
	}
	// Unweighted scores over the whole grid, for comparison with the
	// published PIOMAS statistics.
	rAll, err := calc.Correlation(cur.Months[m], prev.Months[m])
	if err != nil {
		return types.FigureRecord{}, err
	}
	rmseAll, err := calc.RMSE(cur.Months[m], prev.Months[m])
	if err != nil {
		return types.FigureRecord{}, err
	}

	title := fmt.Sprintf("Thickness change, %s %d minus %d", monthNames[m], year, year-1)
	c, err := render.PolarMap(title, grid.WithValues(diff), polarMinLat,
		render.MapOpts{Min: -2, Max: 2, Diverging: true}, in.Style)
	if err != nil {
		return types.FigureRecord{}, err
	}
	mean := calc.NaNMean(diff)
	c.Headline(fmt.Sprintf("Mean change %+.2f m, pattern r = %.2f", mean, r))
	c.Source(piomasSource)

	out, err := in.SaveSquare(c, "piomas-thickness-diff")
	if err != nil {
		return types.FigureRecord{}, err
	}
	return types.FigureRecord{
		Output:   out,
		DataDate: monthDate(year, m),
		Metrics: map[string]float64{
			"mean_change_m":          mean,
			"correlation":            r,
			"rmse_m":                 rmse,
			"correlation_unweighted": rAll,
			"rmse_unweighted_m":      rmseAll,
		},
	}, nil
}

func loadCellArea(in Inputs) ([]float64, error) {
	rc, err := in.Open("piomas-griddata")
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return parse.PIOMASCellArea(rc)
}

func piomasMeanThickness(_ context.Context, in Inputs) (types.FigureRecord, error) {
	area, err := loadCellArea(in)
	if err != nil {
		return types.FigureRecord{}, err
	}

	st := in.Style
	c := render.NewChart("Mean Arctic sea ice thickness", "", "m", st)
	months := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	latest, last, lastMonth, err := latestThickness(in, in.Today.Year())
	if err != nil {
		return types.FigureRecord{}, err
	}
	first := last - meanThicknessYears + 1
	scale := render.NewColorScale(float64(first), float64(last), false)

	var latestMean, latestVolume float64
	for y := first; y <= last; y++ {
		th := latest
		if y != last {
			if th, err = loadThickness(in, y); err != nil {
				return types.FigureRecord{}, err
			}
		}
		means := make([]float64, 12)
		for m := 0; m < 12; m++ {
			if means[m], err = calc.AreaWeightedMean(th.Months[m], area); err != nil {
				return types.FigureRecord{}, err
			}
		}
		opts := render.LineOpts{Color: scale.At(float64(y)), Width: 1}
		if y == last {
			opts = render.LineOpts{Color: st.Highlight, Width: 2.5}
			latestMean = means[lastMonth]
			if latestVolume, err = calc.TotalVolume(th.Months[lastMonth], area); err != nil {
				return types.FigureRecord{}, err
			}
		}
		if err := c.Line(fmt.Sprint(y), months, means, opts); err != nil {
			return types.FigureRecord{}, err
		}
	}
	c.XTicks(months, monthNames)
	c.XRange(1, 12)
	c.Headline(fmt.Sprintf("%s %d: %.2f m mean, %.1f thousand km³",
		monthNames[lastMonth], last, latestMean, latestVolume/1000))
	c.Source(piomasSource)

	out, err := in.Save(c, "piomas-mean-thickness")
	if err != nil {
		return types.FigureRecord{}, err
	}
	return types.FigureRecord{
		Output:   out,
		DataDate: monthDate(last, lastMonth),
		Metrics: map[string]float64{
			"mean_thickness_m": latestMean,
			"volume_km3":       latestVolume,
		},
	}, nil
}

// monthlyThicknessVolume reduces each month of a thickness year to its
// area-weighted mean (m) and total volume (thousand km³). Months not yet
// published are NaN.
func monthlyThicknessVolume(th parse.PIOMASThickness, area []float64) (sit, siv [12]float64, err error) {
	for m := 0; m < 12; m++ {
		if m >= th.Available {
			sit[m], siv[m] = math.NaN(), math.NaN()
			continue
		}
		if sit[m], err = calc.AreaWeightedMean(th.Months[m], area); err != nil {
			return sit, siv, err
		}
		if siv[m], err = calc.TotalVolume(th.Months[m], area); err != nil {
			return sit, siv, err
		}
		siv[m] /= 1000
	}
	return sit, siv, nil
}

func piomasSITSIVAnimation(ctx context.Context, in Inputs) (types.FigureRecord, error) {
	area, err := loadCellArea(in)
	if err != nil {
		return types.FigureRecord{}, err
	}
	latest, last, lastMonth, err := latestThickness(in, in.Today.Year())
	if err != nil {
		return types.FigureRecord{}, err
	}
	first := last - sitsivYears + 1

	var sit, siv types.MonthlyTable
	for y := first; y <= last; y++ {
		if err := ctx.Err(); err != nil {
			return types.FigureRecord{}, err
		}
		th := latest
		if y != last {
			if th, err = loadThickness(in, y); err != nil {
				return types.FigureRecord{}, err
			}
		}
		t, v, err := monthlyThicknessVolume(th, area)
		if err != nil {
			return types.FigureRecord{}, err
		}
		sit.Years = append(sit.Years, y)
		sit.Values = append(sit.Values, t)
		siv.Years = append(siv.Years, y)
		siv.Values = append(siv.Values, v)
	}

	// Volume anomalies are against the mean of the animated years before
	// the latest one.
	clim := calc.MonthlyClimatology(siv, first, last-1)
	latestVol := siv.Values[len(siv.Values)-1]
	anom, err := calc.Sub(latestVol[:], clim[:])
	if err != nil {
		return types.FigureRecord{}, err
	}

	st := in.Style
	months := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	scale := render.NewColorScale(float64(first), float64(last), false)
	anim := in.Animation()
	for i, y := range sit.Years {
		if err := ctx.Err(); err != nil {
			return types.FigureRecord{}, err
		}
		c := render.NewChart(fmt.Sprintf("Sea ice thickness, %d", y), "", "m", st)
		for j := 0; j <= i; j++ {
			opts := render.LineOpts{Color: scale.At(float64(sit.Years[j])), Width: 1}
			if j == i {
				opts = render.LineOpts{Color: st.Highlight, Width: 2.5}
			}
			if err := c.Line("", months, sit.Values[j][:], opts); err != nil {
				return types.FigureRecord{}, err
			}
		}
		// Earlier years are labelled at the September minimum.
		m := lastMonth
		if y != last {
			m = 8
			if math.IsNaN(siv.Values[i][m]) {
				if k := calc.LastFinite(siv.Values[i][:]); k >= 0 {
					m = k
				}
			}
		}
		c.Headline(fmt.Sprintf("%s %d volume %.1f thousand km³, %d-%d mean %.1f",
			monthNames[m], y, siv.Values[i][m], first, last-1, clim[m]))
		c.Source(piomasSource)
		c.XTicks(months, monthNames)
		c.XRange(1, 12)
		c.YRange(0, 4)
		anim.AddChart(c)
	}
	anim.Hold(sitsivHold)

	out := in.Output("piomas-sitsiv-anim", "gif")
	if err := anim.Save(out); err != nil {
		return types.FigureRecord{}, err
	}
	return types.FigureRecord{
		Output:   out,
		DataDate: monthDate(last, lastMonth),
		Metrics: map[string]float64{
			"mean_thickness_m":       sit.Values[len(sit.Values)-1][lastMonth],
			"volume_1000km3":         latestVol[lastMonth],
			"volume_anomaly_1000km3": anom[lastMonth],
			"frames":                 float64(anim.Len()),
		},
	}, nil
}
