// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Chart is one figure under construction.
type Chart struct {
	p     *plot.Plot
	style Style
}

// NewChart creates a chart with the house style applied.
func NewChart(title, xlabel, ylabel string, style Style) *Chart {
	p := plot.New()
	p.BackgroundColor = style.Background

	p.Title.Text = title
	p.Title.TextStyle.Color = style.Foreground
	p.Title.TextStyle.Font.Size = style.FontSize * 1.3

	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.LineStyle.Color = style.Axis
		ax.LineStyle.Width = vg.Points(1.5)
		ax.Padding = vg.Points(5)
		ax.Label.TextStyle.Color = style.Foreground
		ax.Label.TextStyle.Font.Size = style.FontSize
		ax.Tick.Label.Color = style.Foreground
		ax.Tick.Label.Font.Size = style.FontSize * 0.8
		ax.Tick.LineStyle.Color = style.Axis
		ax.Tick.Length = vg.Points(3)
	}
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel

	p.Legend.TextStyle.Color = style.Foreground
	p.Legend.TextStyle.Font.Size = style.FontSize * 0.75
	p.Legend.Top = true
	p.Legend.Left = true

	return &Chart{p: p, style: style}
}

// Plot exposes the underlying gonum plot.
func (c *Chart) Plot() *plot.Plot { return c.p }

// Style returns the chart style.
func (c *Chart) Style() Style { return c.style }

// segments splits paired series into runs without NaN.
func segments(xs, ys []float64) []plotter.XYs {
	var out []plotter.XYs
	var cur plotter.XYs
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	for i := 0; i < n; i++ {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: xs[i], Y: ys[i]})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// LineOpts controls a series' appearance.
type LineOpts struct {
	Color  color.Color
	Width  float64
	Dashed bool
}

// Line draws ys against xs, breaking the line at NaN values. A non-empty
// label adds a legend entry.
func (c *Chart) Line(label string, xs, ys []float64, opts LineOpts) error {
	var first *plotter.Line
	for _, seg := range segments(xs, ys) {
		if len(seg) < 2 {
			continue
		}
		l, err := plotter.NewLine(seg)
		if err != nil {
			return fmt.Errorf("line %q: %w", label, err)
		}
		l.Color = opts.Color
		l.Width = c.style.LineWidth
		if opts.Width > 0 {
			l.Width = vg.Points(opts.Width)
		}
		if opts.Dashed {
			l.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		}
		c.p.Add(l)
		if first == nil {
			first = l
		}
	}
	if label != "" && first != nil {
		c.p.Legend.Add(label, first)
	}
	return nil
}

// Band fills the area between lo and hi.
func (c *Chart) Band(label string, xs, lo, hi []float64, fill color.Color) error {
	var added *plotter.Polygon
	n := len(xs)
	var upper, lower plotter.XYs
	flush := func() error {
		if len(upper) < 2 {
			upper, lower = nil, nil
			return nil
		}
		ring := append(plotter.XYs{}, upper...)
		for i := len(lower) - 1; i >= 0; i-- {
			ring = append(ring, lower[i])
		}
		poly, err := plotter.NewPolygon(ring)
		if err != nil {
			return fmt.Errorf("band %q: %w", label, err)
		}
		poly.Color = fill
		poly.LineStyle.Width = 0
		c.p.Add(poly)
		if added == nil {
			added = poly
		}
		upper, lower = nil, nil
		return nil
	}
	for i := 0; i < n && i < len(lo) && i < len(hi); i++ {
		if math.IsNaN(lo[i]) || math.IsNaN(hi[i]) {
			if err := flush(); err != nil {
				return err
			}
			continue
		}
		upper = append(upper, plotter.XY{X: xs[i], Y: hi[i]})
		lower = append(lower, plotter.XY{X: xs[i], Y: lo[i]})
	}
	if err := flush(); err != nil {
		return err
	}
	if label != "" && added != nil {
		c.p.Legend.Add(label, added)
	}
	return nil
}

// Scatter draws points. colorAt picks each point's color; nil uses the
// highlight color. NaN points are skipped.
func (c *Chart) Scatter(xs, ys []float64, radius float64, colorAt func(i int) color.Color) error {
	var pts plotter.XYs
	var idx []int
	for i := 0; i < len(xs) && i < len(ys); i++ {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[i], Y: ys[i]})
		idx = append(idx, i)
	}
	if len(pts) == 0 {
		return nil
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("scatter: %w", err)
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(radius)
	s.GlyphStyle.Color = c.style.Highlight
	if colorAt != nil {
		s.GlyphStyleFunc = func(k int) draw.GlyphStyle {
			gs := s.GlyphStyle
			gs.Color = colorAt(idx[k])
			return gs
		}
	}
	c.p.Add(s)
	return nil
}

// Bars draws a bar per value at x = offset, offset+1, ... NaN draws nothing.
func (c *Chart) Bars(label string, values []float64, offset float64, fill color.Color) error {
	vals := make(plotter.Values, len(values))
	for i, v := range values {
		if !math.IsNaN(v) {
			vals[i] = v
		}
	}
	bc, err := plotter.NewBarChart(vals, vg.Points(6))
	if err != nil {
		return fmt.Errorf("bars %q: %w", label, err)
	}
	bc.Color = fill
	bc.LineStyle.Width = 0
	bc.XMin = offset
	c.p.Add(bc)
	if label != "" {
		c.p.Legend.Add(label, bc)
	}
	return nil
}

// Annotate writes text at a data coordinate.
func (c *Chart) Annotate(x, y float64, txt string, col color.Color) error {
	l, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: x, Y: y}},
		Labels: []string{txt},
	})
	if err != nil {
		return fmt.Errorf("annotation: %w", err)
	}
	for i := range l.TextStyle {
		l.TextStyle[i].Color = col
		l.TextStyle[i].Font.Size = c.style.FontSize * 0.8
	}
	c.p.Add(l)
	return nil
}

// Headline writes text in the top-left of the plotting area.
func (c *Chart) Headline(txt string) {
	c.caption(txt, 0.02, 0.92, c.style.Foreground, 0.9)
}

// Source writes the data attribution in the bottom-left corner.
func (c *Chart) Source(txt string) {
	c.caption("SOURCE: "+txt, 0.01, 0.01, c.style.Muted, 0.55)
}

func (c *Chart) caption(txt string, fx, fy float64, col color.Color, scale float64) {
	sty := c.p.Title.TextStyle
	sty.Color = col
	sty.Font.Size = c.style.FontSize * vg.Length(scale)
	sty.XAlign = text.XLeft
	sty.YAlign = text.YBottom
	c.p.Add(captionPlotter{text: txt, fx: fx, fy: fy, sty: sty})
}

// captionPlotter draws text at a fraction of the data canvas, independent
// of the axis ranges.
type captionPlotter struct {
	text   string
	fx, fy float64
	sty    text.Style
}

// Plot implements plot.Plotter.
func (cp captionPlotter) Plot(c draw.Canvas, _ *plot.Plot) {
	pt := vg.Point{
		X: c.Min.X + vg.Length(cp.fx)*(c.Max.X-c.Min.X),
		Y: c.Min.Y + vg.Length(cp.fy)*(c.Max.Y-c.Min.Y),
	}
	c.FillText(cp.sty, pt, cp.text)
}

// XRange fixes the x axis.
func (c *Chart) XRange(min, max float64) { c.p.X.Min, c.p.X.Max = min, max }

// YRange fixes the y axis.
func (c *Chart) YRange(min, max float64) { c.p.Y.Min, c.p.Y.Max = min, max }

// XTicks replaces the x ticks with labelled positions.
func (c *Chart) XTicks(values []float64, labels []string) {
	c.p.X.Tick.Marker = fixedTicks(values, labels)
}

// YTicks replaces the y ticks with labelled positions.
func (c *Chart) YTicks(values []float64, labels []string) {
	c.p.Y.Tick.Marker = fixedTicks(values, labels)
}

func fixedTicks(values []float64, labels []string) plot.Ticker {
	ticks := make([]plot.Tick, len(values))
	for i, v := range values {
		ticks[i] = plot.Tick{Value: v}
		if i < len(labels) {
			ticks[i].Label = labels[i]
		}
	}
	return plot.ConstantTicks(ticks)
}

// MonthTicks labels a 0-based day-of-year axis at the first of each month.
func (c *Chart) MonthTicks() {
	starts := []float64{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}
	c.XTicks(starts, []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"})
}

// HideAxes removes both axes, for maps.
func (c *Chart) HideAxes() { c.p.HideAxes() }

// Save writes the chart to path. The format follows the extension.
func (c *Chart) Save(path string, width, height vg.Length) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := c.p.Save(width, height, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// Image rasterizes the chart.
func (c *Chart) Image(width, height vg.Length) image.Image {
	canvas := vgimg.New(width, height)
	c.p.Draw(draw.New(canvas))
	return canvas.Image()
}
