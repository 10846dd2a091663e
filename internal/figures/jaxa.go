// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package figures

import (
	"context"
	"fmt"
	"image/color"
	"math"

	"github.com/pdiddy/icevarfigs/internal/calc"
	"github.com/pdiddy/icevarfigs/internal/parse"
	"github.com/pdiddy/icevarfigs/internal/render"
	"github.com/pdiddy/icevarfigs/pkg/types"
)

const (
	jaxaDataset = "jaxa-extent-n"
	jaxaSource  = "JAXA/ADS (ads.nipr.ac.jp)"

	// million converts km² to million km².
	million = 1e-6
)

func init() {
	register(recipe{
		name:     "jaxa-moving-lines",
		desc:     "Every year's JAXA Arctic extent with the current year and decadal means",
		datasets: fixed(jaxaDataset),
		render:   jaxaMovingLines,
	})
	register(recipe{
		name:     "jaxa-record-min",
		desc:     "Annual JAXA extent minimum of every year by day of occurrence",
		datasets: fixed(jaxaDataset),
		render: func(ctx context.Context, in Inputs) (types.FigureRecord, error) {
			return jaxaAnnualExtreme(in, "jaxa-record-min", false)
		},
	})
	register(recipe{
		name:     "jaxa-record-max",
		desc:     "Annual JAXA extent maximum of every year by day of occurrence",
		datasets: fixed(jaxaDataset),
		render: func(ctx context.Context, in Inputs) (types.FigureRecord, error) {
			return jaxaAnnualExtreme(in, "jaxa-record-max", true)
		},
	})
	register(recipe{
		name:     "jaxa-cumulative-change",
		desc:     "JAXA extent change since the first of a month, every year",
		datasets: fixed(jaxaDataset),
		render:   jaxaCumulativeChange,
	})
	register(recipe{
		name:     "jaxa-extent-bars",
		desc:     "JAXA extent on the current day of every year as bars, with the 10th percentile",
		datasets: fixed(jaxaDataset),
		render:   jaxaExtentBars,
	})
	register(recipe{
		name:     "jaxa-record-low-days",
		desc:     "Days per year that set a JAXA record low at the time",
		datasets: fixed(jaxaDataset),
		render:   jaxaRecordLowDays,
	})
}

// jaxaData is the parsed table with the current year's single-day gaps
// filled. JAXA lags a day, so the current day is yesterday.
type jaxaData struct {
	table   parse.JAXATable
	year    int
	current []float64
	day     int
}

func loadJAXA(in Inputs) (jaxaData, error) {
	rc, err := in.Open(jaxaDataset)
	if err != nil {
		return jaxaData{}, err
	}
	defer rc.Close()

	tbl, err := parse.JAXAExtent(rc)
	if err != nil {
		return jaxaData{}, err
	}
	// In the first days of January the new column can be missing or
	// empty, so the previous year is drawn instead.
	yesterday := in.Today.AddDate(0, 0, -1)
	type column struct {
		filled []float64
		day    int
	}
	col, year, err := fallBack(yesterday.Year(), func(y int) (column, error) {
		raw := tbl.Year(y)
		if raw == nil {
			return column{}, fmt.Errorf("%w: JAXA has no %d column", ErrNoData, y)
		}
		filled := calc.FillGaps(raw)
		day := calc.LastFinite(filled)
		if d := dayIndex(yesterday); y == yesterday.Year() && d < len(filled) && !math.IsNaN(filled[d]) {
			day = d
		}
		if day < 0 {
			return column{}, fmt.Errorf("%w: JAXA %d column is empty", ErrNoData, y)
		}
		return column{filled: filled, day: day}, nil
	})
	if err != nil {
		return jaxaData{}, err
	}
	for i, y := range tbl.Years {
		if y == year {
			tbl.Extent[i] = col.filled
		}
	}
	return jaxaData{table: tbl, year: year, current: col.filled, day: col.day}, nil
}

func (d jaxaData) dataDate() types.FigureRecord {
	return types.FigureRecord{DataDate: dateOf(d.year, d.day)}
}

func jaxaMovingLines(_ context.Context, in Inputs) (types.FigureRecord, error) {
	d, err := loadJAXA(in)
	if err != nil {
		return types.FigureRecord{}, err
	}
	st := in.Style
	c := render.NewChart("Arctic sea ice extent", "", "million km²", st)
	xs := days(d.table.Len())

	for i, y := range d.table.Years {
		if y == d.year {
			continue
		}
		if err := c.Line("", xs, calc.Scale(d.table.Extent[i], million), render.LineOpts{Color: st.Muted, Width: 0.6}); err != nil {
			return types.FigureRecord{}, err
		}
	}
	decades := []struct {
		label string
		mean  []float64
		color color.Color
	}{
		{"1980s", d.table.Mean1980s, render.MustColor("lightskyblue")},
		{"1990s", d.table.Mean1990s, render.MustColor("mediumseagreen")},
		{"2000s", d.table.Mean2000s, render.MustColor("gold")},
	}
	for _, dec := range decades {
		if err := c.Line(dec.label, xs, calc.Scale(dec.mean, million), render.LineOpts{Color: dec.color, Dashed: true}); err != nil {
			return types.FigureRecord{}, err
		}
	}
	cur := calc.Scale(d.current, million)
	if err := c.Line(fmt.Sprint(d.year), xs, cur, render.LineOpts{Color: st.Highlight, Width: 2.5}); err != nil {
		return types.FigureRecord{}, err
	}

	extent := d.current[d.day]
	anomaly := calc.AnomalyAt(extent, d.table.Mean1980s, d.day)
	if err := c.Annotate(float64(d.day), cur[d.day], fmt.Sprintf(" %.2f", cur[d.day]), st.Highlight); err != nil {
		return types.FigureRecord{}, err
	}
	c.Headline(fmt.Sprintf("%s: %.2f million km², %+.2f vs 1980s mean",
		dateOf(d.year, d.day).Format("2 Jan 2006"), extent*million, anomaly*million))
	c.Source(jaxaSource)
	c.MonthTicks()
	c.XRange(0, types.DaysPerYear-1)

	out, err := in.Save(c, "jaxa-moving-lines")
	if err != nil {
		return types.FigureRecord{}, err
	}
	fig := d.dataDate()
	fig.Output = out
	fig.Metrics = map[string]float64{"extent_km2": extent, "anomaly_1980s_km2": anomaly}
	return fig, nil
}

// jaxaAnnualExtreme draws every complete year's minimum (or maximum) at
// its day of occurrence, colored by year, with the current year's value
// so far as a horizontal line.
func jaxaAnnualExtreme(in Inputs, name string, maxima bool) (types.FigureRecord, error) {
	d, err := loadJAXA(in)
	if err != nil {
		return types.FigureRecord{}, err
	}
	tbl := d.table.YearTable()
	ext := calc.AnnualMinima(tbl)
	what := "minimum"
	if maxima {
		ext = calc.AnnualMaxima(tbl)
		what = "maximum"
	}

	var xs, ys, values []float64
	var years []int
	current := math.NaN()
	for _, e := range ext {
		values = append(values, e.Value)
		if e.Year == d.year {
			current = e.Value
			continue
		}
		xs = append(xs, float64(e.Day))
		ys = append(ys, e.Value*million)
		years = append(years, e.Year)
	}
	if len(xs) == 0 {
		return types.FigureRecord{}, fmt.Errorf("%w: no complete years", ErrNoData)
	}

	// Rank 1 is the record: lowest for minima, highest for maxima.
	ranked := values
	if !maxima {
		ranked = calc.Scale(values, -1)
	}
	ranks := calc.Rank(ranked)
	rank := 0
	for i, e := range ext {
		if e.Year == d.year {
			rank = ranks[i]
		}
	}

	st := in.Style
	c := render.NewChart(fmt.Sprintf("Annual Arctic sea ice extent %s", what), "", "million km²", st)
	yearScale := render.NewColorScale(float64(years[0]), float64(years[len(years)-1]), false)
	if err := c.Scatter(xs, ys, 4, func(i int) color.Color { return yearScale.At(float64(years[i])) }); err != nil {
		return types.FigureRecord{}, err
	}
	for i := range xs {
		if i == 0 || i == len(xs)-1 || years[i]%10 == 0 {
			if err := c.Annotate(xs[i], ys[i], fmt.Sprintf(" %d", years[i]), st.Foreground); err != nil {
				return types.FigureRecord{}, err
			}
		}
	}
	if !math.IsNaN(current) {
		lo, hi := xs[0], xs[0]
		for _, x := range xs {
			lo, hi = math.Min(lo, x), math.Max(hi, x)
		}
		line := []float64{current * million, current * million}
		if err := c.Line(fmt.Sprintf("%d so far", d.year), []float64{lo - 5, hi + 5}, line, render.LineOpts{Color: st.Highlight, Width: 2}); err != nil {
			return types.FigureRecord{}, err
		}
		c.Headline(fmt.Sprintf("%d %s so far: %.2f million km² (rank %d of %d)", d.year, what, current*million, rank, len(ext)))
	}
	c.Source(jaxaSource)
	c.MonthTicks()

	out, err := in.Save(c, name)
	if err != nil {
		return types.FigureRecord{}, err
	}
	fig := d.dataDate()
	fig.Output = out
	fig.Metrics = map[string]float64{what + "_km2": current, "rank": float64(rank)}
	return fig, nil
}

func jaxaCumulativeChange(_ context.Context, in Inputs) (types.FigureRecord, error) {
	d, err := loadJAXA(in)
	if err != nil {
		return types.FigureRecord{}, err
	}
	month := in.month()
	start := dayIndex(dateOf(d.year, 0).AddDate(0, int(month)-1, 0))
	end := dayIndex(dateOf(d.year, 0).AddDate(0, int(month), -1))
	if start > d.day {
		return types.FigureRecord{}, fmt.Errorf("%w: %s %d has not started", ErrNoData, month, d.year)
	}

	st := in.Style
	c := render.NewChart(fmt.Sprintf("Arctic extent change since 1 %s", month), "", "thousand km²", st)
	xs := days(end - start + 1)
	for i := range xs {
		xs[i]++
	}

	// A past month is compared at its last day.
	k := d.day - start
	if d.day > end {
		k = end - start
	}
	var latest []float64
	currentIdx := -1
	for i, y := range d.table.Years {
		row := d.table.Extent[i][start : end+1]
		change := calc.Scale(calc.CumulativeChange(row), 1e-3)
		opts := render.LineOpts{Color: st.Muted, Width: 0.7}
		label := ""
		if y == d.year {
			opts = render.LineOpts{Color: st.Highlight, Width: 2.5}
			label = fmt.Sprint(y)
		}
		if err := c.Line(label, xs, change, opts); err != nil {
			return types.FigureRecord{}, err
		}
		if y == d.year {
			currentIdx = len(latest)
		}
		latest = append(latest, change[k])
	}
	current := latest[currentIdx]
	rank := calc.Rank(calc.Scale(latest, -1))[currentIdx]

	c.Headline(fmt.Sprintf("%d: %+.0f thousand km² since 1 %s (rank %d, most loss = 1)", d.year, current, month, rank))
	c.Source(jaxaSource)
	c.XRange(1, float64(len(xs)))

	out, err := in.Save(c, "jaxa-cumulative-change")
	if err != nil {
		return types.FigureRecord{}, err
	}
	fig := d.dataDate()
	fig.Output = out
	fig.Metrics = map[string]float64{"change_km2": current * 1e3, "rank": float64(rank)}
	return fig, nil
}

func jaxaRecordLowDays(_ context.Context, in Inputs) (types.FigureRecord, error) {
	d, err := loadJAXA(in)
	if err != nil {
		return types.FigureRecord{}, err
	}
	tbl := d.table.YearTable()
	flags := calc.RecordLowDays(tbl)

	counts := make([]float64, len(flags))
	var current int
	var cumulative []int
	for i, f := range flags {
		counts[i] = float64(calc.CountTrue(f))
		if tbl.Years[i] == d.year {
			current = calc.CountTrue(f)
			cumulative = calc.CumulativeCount(f[:d.day+1])
		}
	}

	st := in.Style
	c := render.NewChart("Days setting a record low extent at the time", "", "days", st)
	if err := c.Bars("", counts, float64(tbl.Years[0]), st.Muted); err != nil {
		return types.FigureRecord{}, err
	}
	if err := c.Annotate(float64(d.year), float64(current), fmt.Sprintf(" %d", current), st.Highlight); err != nil {
		return types.FigureRecord{}, err
	}
	c.Headline(fmt.Sprintf("%d: %d record low days so far", d.year, current))
	c.Source(jaxaSource + ". First year sets every record")

	out, err := in.Save(c, "jaxa-record-low-days")
	if err != nil {
		return types.FigureRecord{}, err
	}
	fig := d.dataDate()
	fig.Output = out
	fig.Metrics = map[string]float64{"record_low_days": float64(current)}
	if n := len(cumulative); n > 30 {
		fig.Notes = append(fig.Notes, fmt.Sprintf("%d record low days in the last 30", cumulative[n-1]-cumulative[n-31]))
	}
	return fig, nil
}

func jaxaExtentBars(_ context.Context, in Inputs) (types.FigureRecord, error) {
	d, err := loadJAXA(in)
	if err != nil {
		return types.FigureRecord{}, err
	}
	values := make([]float64, len(d.table.Years))
	var past []float64
	for i, y := range d.table.Years {
		values[i] = d.table.Extent[i][d.day] * million
		if y != d.year {
			past = append(past, values[i])
		}
	}
	current := d.current[d.day] * million
	p10 := calc.Percentile(past, 10)
	rank := calc.Rank(calc.Scale(values, -1))

	var currentRank int
	for i, y := range d.table.Years {
		if y == d.year {
			currentRank = rank[i]
		}
	}

	st := in.Style
	date := dateOf(d.year, d.day)
	c := render.NewChart(fmt.Sprintf("Arctic sea ice extent on %s", date.Format("2 January")), "", "million km²", st)
	first := float64(d.table.Years[0])
	if err := c.Bars("", values, first, st.Muted); err != nil {
		return types.FigureRecord{}, err
	}
	highlight := make([]float64, len(values))
	for i, y := range d.table.Years {
		highlight[i] = math.NaN()
		if y == d.year {
			highlight[i] = current
		}
	}
	if err := c.Bars(fmt.Sprint(d.year), highlight, first, st.Highlight); err != nil {
		return types.FigureRecord{}, err
	}
	last := float64(d.table.Years[len(d.table.Years)-1])
	if err := c.Line("10th percentile", []float64{first - 0.5, last + 0.5}, []float64{p10, p10},
		render.LineOpts{Color: st.Foreground, Dashed: true, Width: 1}); err != nil {
		return types.FigureRecord{}, err
	}
	c.Headline(fmt.Sprintf("%s: %.2f million km² (rank %d of %d, lowest = 1)",
		date.Format("2 Jan 2006"), current, currentRank, len(values)))
	c.Source(jaxaSource)

	out, err := in.Save(c, "jaxa-extent-bars")
	if err != nil {
		return types.FigureRecord{}, err
	}
	fig := d.dataDate()
	fig.Output = out
	fig.Metrics = map[string]float64{
		"extent_km2":     current / million,
		"rank":           float64(currentRank),
		"p10_extent_km2": p10 / million,
	}
	if current < p10 {
		fig.Notes = append(fig.Notes, "below the 10th percentile of past years")
	}
	return fig, nil
}
