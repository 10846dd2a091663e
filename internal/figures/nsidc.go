// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package figures

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/icevarfigs/internal/calc"
	"github.com/pdiddy/icevarfigs/internal/parse"
	"github.com/pdiddy/icevarfigs/internal/render"
	"github.com/pdiddy/icevarfigs/pkg/types"
)

const nsidcSource = "NSIDC Sea Ice Index v3 (G02135)"

func init() {
	register(recipe{
		name:     "nsidc-days-below-sigma",
		desc:     "Days per year with Arctic extent below the 1981-2010 mean minus 2σ",
		datasets: fixed("nsidc-daily-n", "nsidc-clim-n"),
		render:   nsidcDaysBelowSigma,
	})
	register(recipe{
		name:     "nsidc-arctic-median",
		desc:     "Current Arctic extent against the 1981-2010 median, IQR and 10-90% range",
		datasets: fixed("nsidc-daily-n", "nsidc-clim-n"),
		render: func(ctx context.Context, in Inputs) (types.FigureRecord, error) {
			return nsidcPercentiles(in, "nsidc-arctic-median", "n", "Arctic")
		},
	})
	register(recipe{
		name:     "nsidc-antarctic-quartiles",
		desc:     "Current Antarctic extent against the 1981-2010 median, IQR and 10-90% range",
		datasets: fixed("nsidc-daily-s", "nsidc-clim-s"),
		render: func(ctx context.Context, in Inputs) (types.FigureRecord, error) {
			return nsidcPercentiles(in, "nsidc-antarctic-quartiles", "s", "Antarctic")
		},
	})
	register(recipe{
		name:     "nsidc-regional",
		desc:     "Arctic extent by regional sea, current year against the range of past years",
		datasets: fixed("nsidc-regional-n"),
		render:   nsidcRegional,
	})
	register(recipe{
		name:     "nsidc-global-anomaly",
		desc:     "Arctic, Antarctic and global daily extent anomalies from 1981-2010",
		datasets: fixed("nsidc-daily-n", "nsidc-daily-s", "nsidc-clim-n", "nsidc-clim-s"),
		render:   nsidcGlobalAnomaly,
	})
}

// nsidcHemisphere is one hemisphere's daily record and climatology. The
// current day is the last finite row of the daily file.
type nsidcHemisphere struct {
	daily []types.DailyValue
	table types.YearTable
	clim  types.Climatology
	last  types.DailyValue
}

func loadNSIDC(in Inputs, hemi string) (nsidcHemisphere, error) {
	rc, err := in.Open("nsidc-daily-" + hemi)
	if err != nil {
		return nsidcHemisphere{}, err
	}
	daily, err := parse.NSIDCDaily(rc)
	rc.Close()
	if err != nil {
		return nsidcHemisphere{}, err
	}
	if len(daily) == 0 {
		return nsidcHemisphere{}, fmt.Errorf("%w: NSIDC %s daily file is empty", ErrNoData, hemi)
	}

	rc, err = in.Open("nsidc-clim-" + hemi)
	if err != nil {
		return nsidcHemisphere{}, err
	}
	clim, err := parse.NSIDCClimatology(rc)
	rc.Close()
	if err != nil {
		return nsidcHemisphere{}, err
	}
	if clim.Len() < types.DaysPerYear {
		return nsidcHemisphere{}, fmt.Errorf("%w: climatology has %d days", parse.ErrShape, clim.Len())
	}

	last := -1
	for i := len(daily) - 1; i >= 0; i-- {
		if !math.IsNaN(daily[i].Value) {
			last = i
			break
		}
	}
	if last < 0 {
		return nsidcHemisphere{}, fmt.Errorf("%w: NSIDC %s daily file has no extents", ErrNoData, hemi)
	}

	return nsidcHemisphere{
		daily: daily,
		table: types.NewYearTable(daily),
		clim:  clim,
		last:  daily[last],
	}, nil
}

func nsidcDaysBelowSigma(_ context.Context, in Inputs) (types.FigureRecord, error) {
	h, err := loadNSIDC(in, "n")
	if err != nil {
		return types.FigureRecord{}, err
	}
	band := calc.SigmaBand(h.clim, -2)[:types.DaysPerYear]

	counts := make([]float64, len(h.table.Years))
	var current int
	for i, row := range h.table.Values {
		n, err := calc.DaysBelow(row, band)
		if err != nil {
			return types.FigureRecord{}, err
		}
		counts[i] = float64(n)
		if h.table.Years[i] == h.last.Date.Year() {
			current = n
		}
	}

	st := in.Style
	c := render.NewChart("Days with Arctic extent below 1981-2010 mean − 2σ", "", "days", st)
	if err := c.Bars("", counts, float64(h.table.Years[0]), st.Highlight); err != nil {
		return types.FigureRecord{}, err
	}
	c.Headline(fmt.Sprintf("%d so far: %d days", h.last.Date.Year(), current))
	c.Source(nsidcSource)

	out, err := in.Save(c, "nsidc-days-below-sigma")
	if err != nil {
		return types.FigureRecord{}, err
	}
	return types.FigureRecord{
		Output:   out,
		DataDate: h.last.Date,
		Metrics:  map[string]float64{"days_below_2sigma": float64(current)},
	}, nil
}

func nsidcPercentiles(in Inputs, name, hemi, label string) (types.FigureRecord, error) {
	h, err := loadNSIDC(in, hemi)
	if err != nil {
		return types.FigureRecord{}, err
	}
	c0 := h.clim
	n := types.DaysPerYear
	xs := days(n)
	st := in.Style

	c := render.NewChart(label+" sea ice extent", "", "million km²", st)
	if err := c.Band("10-90%", xs, c0.P10[:n], c0.P90[:n], render.MustColor("#2b2b2b")); err != nil {
		return types.FigureRecord{}, err
	}
	if err := c.Band("25-75%", xs, c0.P25[:n], c0.P75[:n], render.MustColor("#4a4a4a")); err != nil {
		return types.FigureRecord{}, err
	}
	if err := c.Line("1981-2010 median", xs, c0.P50[:n], render.LineOpts{Color: st.Foreground, Dashed: true}); err != nil {
		return types.FigureRecord{}, err
	}

	year := h.last.Date.Year()
	if prev := h.table.Row(year - 1); prev != nil {
		if err := c.Line(fmt.Sprint(year-1), xs, prev, render.LineOpts{Color: render.MustColor("lightskyblue"), Width: 1}); err != nil {
			return types.FigureRecord{}, err
		}
	}
	cur := h.table.Row(year)
	if cur == nil {
		return types.FigureRecord{}, fmt.Errorf("%w: NSIDC %s has no %d row", ErrNoData, hemi, year)
	}
	if err := c.Line(fmt.Sprint(year), xs, cur, render.LineOpts{Color: st.Highlight, Width: 2.5}); err != nil {
		return types.FigureRecord{}, err
	}

	day := dayIndex(h.last.Date)
	anomaly := calc.AnomalyAt(h.last.Value, c0.P50, day)
	c.Headline(fmt.Sprintf("%s: %.2f million km², %+.2f vs median",
		h.last.Date.Format("2 Jan 2006"), h.last.Value, anomaly))
	c.Source(nsidcSource)
	c.MonthTicks()
	c.XRange(0, float64(n-1))

	out, err := in.Save(c, name)
	if err != nil {
		return types.FigureRecord{}, err
	}
	fig := types.FigureRecord{
		Output:   out,
		DataDate: h.last.Date,
		Metrics:  map[string]float64{"extent_mkm2": h.last.Value, "anomaly_median_mkm2": anomaly},
	}
	switch {
	case h.last.Value < c0.P10[day]:
		fig.Notes = append(fig.Notes, "below the 10th percentile")
	case h.last.Value > c0.P90[day]:
		fig.Notes = append(fig.Notes, "above the 90th percentile")
	}
	return fig, nil
}

// dailyAnomalies maps each observation date to its anomaly from the
// climatological mean.
func dailyAnomalies(h nsidcHemisphere) map[time.Time]float64 {
	out := make(map[time.Time]float64, len(h.daily))
	for _, v := range h.daily {
		if math.IsNaN(v.Value) {
			continue
		}
		out[v.Date] = calc.AnomalyAt(v.Value, h.clim.Mean, dayIndex(v.Date))
	}
	return out
}

func nsidcGlobalAnomaly(_ context.Context, in Inputs) (types.FigureRecord, error) {
	north, err := loadNSIDC(in, "n")
	if err != nil {
		return types.FigureRecord{}, err
	}
	south, err := loadNSIDC(in, "s")
	if err != nil {
		return types.FigureRecord{}, err
	}
	an, as := dailyAnomalies(north), dailyAnomalies(south)

	var dates []time.Time
	for d := range an {
		if _, ok := as[d]; ok {
			dates = append(dates, d)
		}
	}
	if len(dates) == 0 {
		return types.FigureRecord{}, fmt.Errorf("%w: no common dates in NSIDC north and south", ErrNoData)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	xs := make([]float64, len(dates))
	ns := make([]float64, len(dates))
	ss := make([]float64, len(dates))
	gs := make([]float64, len(dates))
	for i, d := range dates {
		xs[i] = decimalYear(d)
		ns[i], ss[i] = an[d], as[d]
		gs[i] = ns[i] + ss[i]
	}

	st := in.Style
	c := render.NewChart("Sea ice extent anomaly from 1981-2010", "", "million km²", st)
	series := []struct {
		label string
		ys    []float64
		opts  render.LineOpts
	}{
		{"Arctic", ns, render.LineOpts{Color: render.MustColor("lightskyblue"), Width: 0.8}},
		{"Antarctic", ss, render.LineOpts{Color: render.MustColor("mediumseagreen"), Width: 0.8}},
		{"Global", gs, render.LineOpts{Color: st.Highlight, Width: 1.2}},
	}
	for _, s := range series {
		if err := c.Line(s.label, xs, s.ys, s.opts); err != nil {
			return types.FigureRecord{}, err
		}
	}
	if err := c.Line("", []float64{xs[0], xs[len(xs)-1]}, []float64{0, 0}, render.LineOpts{Color: st.Axis, Width: 0.5}); err != nil {
		return types.FigureRecord{}, err
	}

	last := len(dates) - 1
	c.Headline(fmt.Sprintf("%s global anomaly: %+.2f million km²", dates[last].Format("2 Jan 2006"), gs[last]))
	c.Source(nsidcSource)

	out, err := in.Save(c, "nsidc-global-anomaly")
	if err != nil {
		return types.FigureRecord{}, err
	}
	return types.FigureRecord{
		Output:   out,
		DataDate: dates[last],
		Metrics: map[string]float64{
			"arctic_anomaly_mkm2":    ns[last],
			"antarctic_anomaly_mkm2": ss[last],
			"global_anomaly_mkm2":    gs[last],
		},
	}, nil
}

// nsidcRegions are the regional workbook sheets drawn, in panel order.
var nsidcRegions = []struct {
	sheet, label string
}{
	{"Barents", "Barents Sea"},
	{"Beaufort", "Beaufort Sea"},
	{"Bering", "Bering Sea"},
	{"CanadianArchipelago", "Canadian Archipelago"},
	{"Chukchi", "Chukchi Sea"},
	{"East-Siberian", "East Siberian Sea"},
	{"Greenland", "Greenland Sea"},
	{"Hudson", "Hudson Bay"},
	{"Kara", "Kara Sea"},
	{"Laptev", "Laptev Sea"},
}

// regionalSmooth is the trailing window, in days, of the current year line.
const regionalSmooth = 5

// regionMetric turns a sheet name into a metric key: East-Siberian becomes
// east_siberian_mkm2.
func regionMetric(sheet string) string {
	return strings.ToLower(strings.ReplaceAll(sheet, "-", "_")) + "_mkm2"
}

func nsidcRegional(_ context.Context, in Inputs) (types.FigureRecord, error) {
	rc, err := in.Open("nsidc-regional-n")
	if err != nil {
		return types.FigureRecord{}, err
	}
	tables, err := parse.NSIDCRegional(rc)
	rc.Close()
	if err != nil {
		return types.FigureRecord{}, err
	}

	st := in.Style
	xs := days(types.DaysPerYear)
	band := render.MustColor("#4a4a4a")
	fig := types.FigureRecord{Metrics: map[string]float64{}}
	var charts []*render.Chart
	for _, r := range nsidcRegions {
		tbl, ok := tables[r.sheet]
		if !ok {
			continue
		}
		// A current-year column with no days yet is dropped.
		if tbl.LastDay() < 0 && len(tbl.Years) > 1 {
			n := len(tbl.Years) - 1
			tbl = types.YearTable{Years: tbl.Years[:n], Values: tbl.Values[:n]}
		}
		year, day := tbl.LastYear(), tbl.LastDay()
		if day < 0 {
			continue
		}
		cur := tbl.Values[len(tbl.Values)-1]

		// Spread of the years before the current one.
		lo := make([]float64, types.DaysPerYear)
		hi := make([]float64, types.DaysPerYear)
		col := make([]float64, 0, len(tbl.Years))
		for d := range lo {
			col = col[:0]
			for i := range tbl.Years[:len(tbl.Years)-1] {
				col = append(col, tbl.Values[i][d])
			}
			lo[d], hi[d] = calc.Percentile(col, 10), calc.Percentile(col, 90)
		}

		c := render.NewChart(r.label, "", "", st)
		if len(tbl.Years) > 1 {
			label := fmt.Sprintf("%d-%d 10-90%%", tbl.Years[0], year-1)
			if err := c.Band(label, xs, lo, hi, band); err != nil {
				return types.FigureRecord{}, err
			}
		}
		if err := c.Line("", xs, cur, render.LineOpts{Color: st.Muted, Width: 0.6}); err != nil {
			return types.FigureRecord{}, err
		}
		smooth := calc.MovingAverage(cur, regionalSmooth)
		if err := c.Line(fmt.Sprint(year), xs, smooth, render.LineOpts{Color: st.Highlight, Width: 2}); err != nil {
			return types.FigureRecord{}, err
		}
		c.Headline(fmt.Sprintf("%.2f million km²", cur[day]))
		c.MonthTicks()
		c.XRange(0, types.DaysPerYear-1)
		charts = append(charts, c)

		fig.Metrics[regionMetric(r.sheet)] = cur[day]
		if cur[day] < lo[day] {
			fig.Notes = append(fig.Notes, r.label+" below the 10th percentile")
		}
		if d := dateOf(year, day); d.After(fig.DataDate) {
			fig.DataDate = d
		}
	}
	if len(charts) == 0 {
		return types.FigureRecord{}, fmt.Errorf("%w: no regional extents", ErrNoData)
	}
	charts[0].Source(nsidcSource)

	out, err := in.SaveTiled(charts, "nsidc-regional", 2)
	if err != nil {
		return types.FigureRecord{}, err
	}
	fig.Output = out
	return fig, nil
}
