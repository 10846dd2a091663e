// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package figures

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"gonum.org/v1/plot/vg"

	"github.com/pdiddy/icevarfigs/internal/fetch"
	"github.com/pdiddy/icevarfigs/internal/render"
	"github.com/pdiddy/icevarfigs/pkg/types"
)

// Inputs is everything a recipe needs: local dataset paths, the day it
// renders for, and where and how to write.
type Inputs struct {
	// Paths maps dataset names to local files.
	Paths map[string]string

	// Today is the UTC date the figure is rendered for.
	Today time.Time

	OutDir string
	Format string

	// Width and Height are in inches.
	Width, Height float64

	FrameDelay time.Duration

	// Month is the 1-based start month for recipes that take one. Zero
	// means the month of Today.
	Month int

	Style render.Style

	// fetch resolves datasets missing from Paths. Nil means Paths is all
	// there is.
	fetch func(name string) (string, error)
}

// Path returns the local file for a dataset, fetching it on first use when
// the Inputs came from a Renderer.
func (in Inputs) Path(name string) (string, error) {
	if p, ok := in.Paths[name]; ok {
		return p, nil
	}
	if in.fetch == nil {
		return "", fmt.Errorf("dataset %s was not fetched", name)
	}
	p, err := in.fetch(name)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", name, err)
	}
	if in.Paths != nil {
		in.Paths[name] = p
	}
	return p, nil
}

// fallBack runs load for year and, when that fails, for the year before.
// Early in January the files for the new year are often not published
// yet. The first error is returned when both fail.
func fallBack[T any](year int, load func(year int) (T, error)) (T, int, error) {
	v, err := load(year)
	if err == nil {
		return v, year, nil
	}
	if prev, perr := load(year - 1); perr == nil {
		return prev, year - 1, nil
	}
	var zero T
	return zero, year, err
}

// Open opens a dataset file, decompressing .gz files.
func (in Inputs) Open(name string) (io.ReadCloser, error) {
	p, err := in.Path(name)
	if err != nil {
		return nil, err
	}
	rc, err := fetch.OpenData(p)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	return rc, nil
}

// Output returns the dated output path for a recipe with the given
// extension. An empty ext uses the configured format.
func (in Inputs) Output(recipe, ext string) string {
	if ext == "" {
		ext = in.Format
	}
	if ext == "" {
		ext = "png"
	}
	return filepath.Join(in.OutDir, fmt.Sprintf("%s_%s.%s", recipe, in.Today.Format("20060102"), ext))
}

func (in Inputs) size() (vg.Length, vg.Length) {
	w, h := in.Width, in.Height
	if w <= 0 {
		w = 8
	}
	if h <= 0 {
		h = 6
	}
	return vg.Length(w) * vg.Inch, vg.Length(h) * vg.Inch
}

// Save writes c to the recipe's output path and returns it.
func (in Inputs) Save(c *render.Chart, recipe string) (string, error) {
	out := in.Output(recipe, "")
	w, h := in.size()
	if err := c.Save(out, w, h); err != nil {
		return "", err
	}
	return out, nil
}

// SaveSquare is Save with a square canvas, for polar maps.
func (in Inputs) SaveSquare(c *render.Chart, recipe string) (string, error) {
	out := in.Output(recipe, "")
	_, h := in.size()
	if err := c.Save(out, h, h); err != nil {
		return "", err
	}
	return out, nil
}

// SaveTiled writes charts as panels cols wide. Each row of panels gets
// half the configured height.
func (in Inputs) SaveTiled(charts []*render.Chart, recipe string, cols int) (string, error) {
	out := in.Output(recipe, "")
	w, h := in.size()
	if cols <= 0 {
		cols = 1
	}
	rows := (len(charts) + cols - 1) / cols
	if rows > 2 {
		h = h * vg.Length(rows) / 2
	}
	if err := render.SaveTiled(out, charts, cols, w, h); err != nil {
		return "", err
	}
	return out, nil
}

// Animation returns an empty animation sized from Width and Height at 96
// pixels per inch.
func (in Inputs) Animation() *render.Animation {
	w, h := in.size()
	delay := in.FrameDelay
	if delay <= 0 {
		delay = 120 * time.Millisecond
	}
	return render.NewAnimation(int(w/vg.Inch*96), int(h/vg.Inch*96), delay)
}

// month returns the effective start month.
func (in Inputs) month() time.Month {
	if in.Month >= 1 && in.Month <= 12 {
		return time.Month(in.Month)
	}
	return in.Today.Month()
}

// dayIndex is the zero-based day of year of t on the 365-day calendar.
// February 29 maps to February 28.
func dayIndex(t time.Time) int {
	if d, ok := types.NoLeapDayOfYear(t); ok {
		return d
	}
	return 58
}

// dateOf returns the calendar date of a 365-day index in year.
func dateOf(year, day int) time.Time {
	return types.NoLeapDate(year, day)
}

// decimalYear converts a date to a fractional year for time axes.
func decimalYear(t time.Time) float64 {
	start := time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	return float64(t.Year()) + t.Sub(start).Hours()/end.Sub(start).Hours()
}

// days returns 0..n-1 as x values.
func days(n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	return xs
}

var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
