// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/twpayne/go-proj/v10"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"

	"github.com/pdiddy/icevarfigs/pkg/types"
)

// ErrEmptyGrid is returned when a map has no finite cells to draw.
var ErrEmptyGrid = errors.New("grid has no finite values")

// PolarStereographic is the NSIDC sea ice polar stereographic north CRS.
const PolarStereographic = "epsg:3413"

// Projector transforms geographic coordinates to a projected CRS.
type Projector struct {
	pj *proj.PJ
}

// NewProjector creates a transform from WGS84 to target.
func NewProjector(target string) (*Projector, error) {
	pj, err := proj.NewCRSToCRS("epsg:4326", target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating projection to %s: %w", target, err)
	}
	return &Projector{pj: pj}, nil
}

// Close releases the PROJ object.
func (p *Projector) Close() { p.pj.Destroy() }

// Project returns projected x and y in metres. EPSG:4326 takes latitude
// first.
func (p *Projector) Project(lats, lons []float64) (xs, ys []float64, err error) {
	if len(lats) != len(lons) {
		return nil, nil, fmt.Errorf("projecting: %d latitudes, %d longitudes", len(lats), len(lons))
	}
	flat := make([]float64, 2*len(lats))
	coords := make([][]float64, len(lats))
	for i := range lats {
		flat[2*i], flat[2*i+1] = lats[i], lons[i]
		coords[i] = flat[2*i : 2*i+2]
	}
	if err := p.pj.ForwardFloat64Slices(coords); err != nil {
		return nil, nil, fmt.Errorf("projecting: %w", err)
	}
	xs = make([]float64, len(coords))
	ys = make([]float64, len(coords))
	for i, c := range coords {
		xs[i], ys[i] = c[0], c[1]
	}
	return xs, ys, nil
}

// MapOpts controls the color scale of a map.
type MapOpts struct {
	// Min and Max bound the color scale. Values outside are clamped. When
	// both are zero the finite range of the data is used.
	Min, Max float64

	// Diverging selects a blue-white-red scale for anomalies. Otherwise a
	// black-body scale is used.
	Diverging bool

	// Radius is the point radius of polar maps, in points.
	Radius float64
}

// ColorScale maps values to colors.
type ColorScale struct {
	cm palette.ColorMap
}

// NewColorScale creates a scale over [min, max].
func NewColorScale(min, max float64, diverging bool) *ColorScale {
	var cm palette.ColorMap
	if diverging {
		cm = moreland.SmoothBlueRed()
	} else {
		cm = moreland.ExtendedBlackBody()
	}
	if max <= min {
		max = min + 1
	}
	cm.SetMin(min)
	cm.SetMax(max)
	return &ColorScale{cm: cm}
}

// At returns the color for v, clamped to the scale. NaN is transparent.
func (s *ColorScale) At(v float64) color.Color {
	if math.IsNaN(v) {
		return color.Transparent
	}
	v = math.Max(s.cm.Min(), math.Min(s.cm.Max(), v))
	c, err := s.cm.At(v)
	if err != nil {
		return color.Transparent
	}
	return c
}

func (o MapOpts) scale(values []float64) (*ColorScale, error) {
	lo, hi := o.Min, o.Max
	if lo == 0 && hi == 0 {
		lo, hi = math.Inf(1), math.Inf(-1)
		for _, v := range values {
			if math.IsNaN(v) {
				continue
			}
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
		if math.IsInf(lo, 1) {
			return nil, ErrEmptyGrid
		}
		if o.Diverging {
			m := math.Max(math.Abs(lo), math.Abs(hi))
			lo, hi = -m, m
		}
	}
	return NewColorScale(lo, hi, o.Diverging), nil
}

// PolarMap draws a grid north of minLat as colored points on the polar
// stereographic projection.
func PolarMap(title string, g types.Grid, minLat float64, opts MapOpts, style Style) (*Chart, error) {
	var lats, lons, vals []float64
	for i, v := range g.Values {
		if math.IsNaN(v) || g.Lat[i] < minLat {
			continue
		}
		lats = append(lats, g.Lat[i])
		lons = append(lons, g.Lon[i])
		vals = append(vals, v)
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("polar map %q: %w", title, ErrEmptyGrid)
	}
	scale, err := opts.scale(vals)
	if err != nil {
		return nil, fmt.Errorf("polar map %q: %w", title, err)
	}

	pr, err := NewProjector(PolarStereographic)
	if err != nil {
		return nil, err
	}
	defer pr.Close()
	xs, ys, err := pr.Project(lats, lons)
	if err != nil {
		return nil, err
	}

	c := NewChart(title, "", "", style)
	c.HideAxes()
	radius := opts.Radius
	if radius <= 0 {
		radius = 1.2
	}
	if err := c.Scatter(xs, ys, radius, func(i int) color.Color { return scale.At(vals[i]) }); err != nil {
		return nil, err
	}

	// Square extent centered on the pole.
	var r float64
	for i := range xs {
		r = math.Max(r, math.Max(math.Abs(xs[i]), math.Abs(ys[i])))
	}
	c.XRange(-r, r)
	c.YRange(-r, r)
	return c, nil
}

// latLonGrid adapts a regular types.Grid to plotter.GridXYZ with latitude
// increasing upward.
type latLonGrid struct {
	g       types.Grid
	flipped bool
}

func (l latLonGrid) Dims() (c, r int) { return l.g.Cols, l.g.Rows }
func (l latLonGrid) X(c int) float64  { return l.g.Lon[c] }

func (l latLonGrid) row(r int) int {
	if l.flipped {
		return l.g.Rows - 1 - r
	}
	return r
}

func (l latLonGrid) Y(r int) float64    { return l.g.Lat[l.row(r)*l.g.Cols] }
func (l latLonGrid) Z(c, r int) float64 { return l.g.At(l.row(r), c) }

// LatLonMap draws a regular latitude-longitude grid as a heat map.
func LatLonMap(title string, g types.Grid, opts MapOpts, style Style) (*Chart, error) {
	if g.Rows < 2 || g.Cols < 2 {
		return nil, fmt.Errorf("lat/lon map %q: need at least 2x2 cells, got %dx%d", title, g.Rows, g.Cols)
	}
	scale, err := opts.scale(g.Values)
	if err != nil {
		return nil, fmt.Errorf("lat/lon map %q: %w", title, err)
	}
	grid := latLonGrid{g: g, flipped: g.Lat[0] > g.Lat[(g.Rows-1)*g.Cols]}

	n := 64
	colors := make([]color.Color, n)
	lo, hi := scale.cm.Min(), scale.cm.Max()
	for i := range colors {
		colors[i] = scale.At(lo + (hi-lo)*float64(i)/float64(n-1))
	}

	c := NewChart(title, "Longitude", "Latitude", style)
	hm := plotter.NewHeatMap(grid, staticPalette(colors))
	hm.Min, hm.Max = lo, hi
	hm.Underflow, hm.Overflow = colors[0], colors[n-1]
	hm.NaN = color.Transparent
	c.p.Add(hm)
	return c, nil
}

type staticPalette []color.Color

func (p staticPalette) Colors() []color.Color { return p }
