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
	graceSource = "NASA GRACE and GRACE-FO mascons (JPL RL06.1)"

	// graceHold keeps the final frame on screen.
	graceHold = 3 * time.Second
)

func init() {
	register(recipe{
		name:     "grace-land-ice",
		desc:     "Animated cumulative Greenland and Antarctic ice mass loss",
		datasets: fixed("grace-greenland", "grace-antarctica"),
		render:   graceLandIce,
	})
}

type massSeries struct {
	label  string
	years  []float64
	change []float64
}

func loadMass(in Inputs, name, label string) (massSeries, error) {
	rc, err := in.Open(name)
	if err != nil {
		return massSeries{}, err
	}
	defer rc.Close()
	pts, err := parse.GRACEMass(rc)
	if err != nil {
		return massSeries{}, err
	}
	s := massSeries{label: label}
	mass := make([]float64, len(pts))
	for i, p := range pts {
		s.years = append(s.years, p.Year)
		mass[i] = p.Mass
	}
	s.change = calc.CumulativeChange(mass)
	return s, nil
}

// upTo returns the prefix of s observed no later than year.
func (s massSeries) upTo(year float64) ([]float64, []float64) {
	n := 0
	for n < len(s.years) && s.years[n] <= year {
		n++
	}
	return s.years[:n], s.change[:n]
}

func graceLandIce(ctx context.Context, in Inputs) (types.FigureRecord, error) {
	green, err := loadMass(in, "grace-greenland", "Greenland")
	if err != nil {
		return types.FigureRecord{}, err
	}
	ant, err := loadMass(in, "grace-antarctica", "Antarctica")
	if err != nil {
		return types.FigureRecord{}, err
	}

	// Frames step through the union of observation times so both series
	// advance together.
	var steps []float64
	i, j := 0, 0
	for i < len(green.years) || j < len(ant.years) {
		switch {
		case j >= len(ant.years) || (i < len(green.years) && green.years[i] < ant.years[j]):
			steps = append(steps, green.years[i])
			i++
		case i >= len(green.years) || ant.years[j] < green.years[i]:
			steps = append(steps, ant.years[j])
			j++
		default:
			steps = append(steps, green.years[i])
			i++
			j++
		}
	}

	lo, hi := 0.0, 0.0
	for _, s := range []massSeries{green, ant} {
		v, _ := calc.NaNMin(s.change)
		w, _ := calc.NaNMax(s.change)
		lo, hi = math.Min(lo, v), math.Max(hi, w)
	}
	first, last := steps[0], steps[len(steps)-1]

	st := in.Style
	colors := map[string]render.LineOpts{
		green.label: {Color: render.MustColor("lightskyblue"), Width: 2},
		ant.label:   {Color: st.Highlight, Width: 2},
	}
	anim := in.Animation()
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return types.FigureRecord{}, err
		}
		c := render.NewChart("Land ice mass change since 2002", "", "gigatonnes", st)
		var total float64
		for _, s := range []massSeries{green, ant} {
			xs, ys := s.upTo(step)
			if len(ys) == 0 {
				continue
			}
			if err := c.Line(s.label, xs, ys, colors[s.label]); err != nil {
				return types.FigureRecord{}, err
			}
			total += ys[len(ys)-1]
		}
		c.XRange(math.Floor(first), math.Ceil(last))
		c.YRange(lo*1.05, hi+0.05*(hi-lo)+1)
		c.Headline(fmt.Sprintf("%.1f: %+.0f Gt combined", step, total))
		c.Source(graceSource)
		anim.AddChart(c)
	}
	anim.Hold(graceHold)

	out := in.Output("grace-land-ice", "gif")
	if err := anim.Save(out); err != nil {
		return types.FigureRecord{}, err
	}

	gLast, aLast := green.change[len(green.change)-1], ant.change[len(ant.change)-1]
	return types.FigureRecord{
		Output:   out,
		DataDate: fromDecimalYear(last),
		Metrics: map[string]float64{
			"greenland_change_gt":  gLast,
			"antarctica_change_gt": aLast,
			"frames":               float64(anim.Len()),
		},
	}, nil
}

// fromDecimalYear is the inverse of decimalYear, to the day.
func fromDecimalYear(y float64) time.Time {
	year := int(math.Floor(y))
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	d := time.Duration((y - float64(year)) * float64(end.Sub(start)))
	return midnight(start.Add(d))
}
