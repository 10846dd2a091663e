// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"github.com/pdiddy/icevarfigs/pkg/types"
)

var nan = math.NaN()

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.Color
	}{
		{"#ff0000", color.NRGBA{R: 0xff, A: 0xff}},
		{"#00ff0080", color.NRGBA{G: 0xff, A: 0x80}},
		{" White ", color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "notacolor", "#12", "#gggggg"} {
		_, err := ParseColor(bad)
		assert.True(t, errors.Is(err, ErrColor), "input %q", bad)
	}
}

func TestStyleFrom(t *testing.T) {
	cfg := types.DefaultStyle()
	cfg.FontSize = 0
	s, err := StyleFrom(cfg)
	require.NoError(t, err)
	assert.Equal(t, vg.Points(11), s.FontSize)

	cfg.Highlight = "bogus"
	_, err = StyleFrom(cfg)
	assert.True(t, errors.Is(err, ErrColor))
}

func TestSegments(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4, 5}
	ys := []float64{1, 2, nan, 4, 5, 6}
	segs := segments(xs, ys)
	require.Len(t, segs, 2)
	assert.Len(t, segs[0], 2)
	assert.Len(t, segs[1], 3)

	assert.Empty(t, segments(xs, []float64{nan, nan}))
}

func testChart(t *testing.T) *Chart {
	t.Helper()
	style := DefaultStyle()
	c := NewChart("Arctic sea ice extent", "Day of year", "million km²", style)
	days := make([]float64, types.DaysPerYear)
	vals := make([]float64, types.DaysPerYear)
	lo := make([]float64, types.DaysPerYear)
	hi := make([]float64, types.DaysPerYear)
	for i := range days {
		days[i] = float64(i)
		vals[i] = 10 + 4*math.Cos(2*math.Pi*float64(i)/365)
		lo[i], hi[i] = vals[i]-1, vals[i]+1
	}
	vals[100] = nan
	require.NoError(t, c.Band("±2σ", days, lo, hi, style.Muted))
	require.NoError(t, c.Line("2025", days, vals, LineOpts{Color: style.Highlight}))
	require.NoError(t, c.Line("mean", days, vals, LineOpts{Color: style.Foreground, Dashed: true, Width: 1}))
	require.NoError(t, c.Scatter([]float64{10, nan}, []float64{12, 3}, 3, nil))
	require.NoError(t, c.Annotate(200, 8, "record low", style.Highlight))
	c.Headline("9.87 million km²")
	c.Source("NSIDC Sea Ice Index v3")
	c.MonthTicks()
	c.XRange(0, 365)
	return c
}

func TestChartSave(t *testing.T) {
	c := testChart(t)
	dir := t.TempDir()
	for _, name := range []string{"fig.png", "nested/fig.svg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, c.Save(path, 8*vg.Inch, 6*vg.Inch))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestBars(t *testing.T) {
	c := NewChart("Days below -2σ", "Year", "Days", DefaultStyle())
	require.NoError(t, c.Bars("days", []float64{3, nan, 10}, 1979, DefaultStyle().Highlight))
	require.NoError(t, c.Save(filepath.Join(t.TempDir(), "bars.png"), 4*vg.Inch, 3*vg.Inch))
}

func TestRankMesh(t *testing.T) {
	ranks := [][]int{{3, 1, 2}, {1, 0, 3}}
	c, err := RankMesh("Monthly rank", ranks, []string{"Jan", "Feb"}, []string{"2001", "2002", "2003"}, DefaultStyle())
	require.NoError(t, err)
	require.NoError(t, c.Save(filepath.Join(t.TempDir(), "mesh.png"), 6*vg.Inch, 4*vg.Inch))

	_, err = RankMesh("empty", nil, nil, nil, DefaultStyle())
	assert.Error(t, err)

	g := rankGrid{ranks: ranks, cols: 3}
	assert.Equal(t, 2.0, g.Z(2, 0))
	assert.True(t, math.IsNaN(g.Z(1, 1)))
}

func TestColorScale(t *testing.T) {
	s := NewColorScale(-1, 1, true)
	assert.Equal(t, s.At(-5), s.At(-1), "below range clamps")
	assert.Equal(t, s.At(5), s.At(1), "above range clamps")
	assert.Equal(t, color.Transparent, s.At(nan))
	assert.NotEqual(t, s.At(-1), s.At(1))
}

func TestMapOptsScale(t *testing.T) {
	s, err := MapOpts{Diverging: true}.scale([]float64{-2, nan, 1})
	require.NoError(t, err)
	assert.Equal(t, -2.0, s.cm.Min())
	assert.Equal(t, 2.0, s.cm.Max())

	_, err = MapOpts{}.scale([]float64{nan})
	assert.True(t, errors.Is(err, ErrEmptyGrid))
}

func regularGrid(lats, lons []float64) types.Grid {
	g := types.Grid{Rows: len(lats), Cols: len(lons)}
	for _, lat := range lats {
		for c, lon := range lons {
			g.Lat = append(g.Lat, lat)
			g.Lon = append(g.Lon, lon)
			g.Values = append(g.Values, lat/10+float64(c))
		}
	}
	return g
}

func TestLatLonMap(t *testing.T) {
	// Descending latitudes are drawn south to north.
	g := regularGrid([]float64{80, 70, 60}, []float64{0, 10, 20, 30})
	c, err := LatLonMap("Temperature anomaly", g, MapOpts{Min: -1, Max: 1, Diverging: true}, DefaultStyle())
	require.NoError(t, err)
	require.NoError(t, c.Save(filepath.Join(t.TempDir(), "map.png"), 6*vg.Inch, 4*vg.Inch))

	grid := latLonGrid{g: g, flipped: true}
	assert.Equal(t, 60.0, grid.Y(0))
	assert.Equal(t, g.At(2, 1), grid.Z(1, 0))

	_, err = LatLonMap("tiny", types.Grid{Rows: 1, Cols: 1}, MapOpts{}, DefaultStyle())
	assert.Error(t, err)
}

func TestProjectorPole(t *testing.T) {
	p, err := NewProjector(PolarStereographic)
	require.NoError(t, err)
	defer p.Close()

	xs, ys, err := p.Project([]float64{90, 70}, []float64{0, -45})
	require.NoError(t, err)
	assert.InDelta(t, 0, xs[0], 1e-3)
	assert.InDelta(t, 0, ys[0], 1e-3)
	assert.Greater(t, math.Hypot(xs[1], ys[1]), 1e6)

	_, _, err = p.Project([]float64{1}, nil)
	assert.Error(t, err)
}

func TestPolarMap(t *testing.T) {
	g := regularGrid([]float64{85, 75, 65, 40}, []float64{0, 90, 180, 270})
	c, err := PolarMap("Sea ice thickness", g, 50, MapOpts{Min: 0, Max: 5}, DefaultStyle())
	require.NoError(t, err)
	require.NoError(t, c.Save(filepath.Join(t.TempDir(), "polar.png"), 6*vg.Inch, 6*vg.Inch))

	_, err = PolarMap("south only", g, 89, MapOpts{}, DefaultStyle())
	assert.True(t, errors.Is(err, ErrEmptyGrid))
}

func TestAnimation(t *testing.T) {
	a := NewAnimation(64, 48, 120*time.Millisecond)
	var buf bytes.Buffer
	assert.True(t, errors.Is(a.WriteGIF(&buf), ErrNoFrames))

	src := image.NewRGBA(image.Rect(0, 0, 128, 96))
	a.AddImage(src)
	a.AddChart(testChart(t))
	a.Hold(2 * time.Second)
	require.Equal(t, 2, a.Len())

	path := filepath.Join(t.TempDir(), "anim", "spiral.gif")
	require.NoError(t, a.Save(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := gif.DecodeAll(f)
	require.NoError(t, err)
	assert.Len(t, decoded.Image, 2)
	assert.Equal(t, []int{12, 200}, decoded.Delay)
	assert.Equal(t, image.Rect(0, 0, 64, 48), decoded.Image[0].Bounds())
}

func TestSaveTiled(t *testing.T) {
	dir := t.TempDir()
	assert.ErrorIs(t, SaveTiled(filepath.Join(dir, "none.png"), nil, 2, 4*vg.Inch, 3*vg.Inch), ErrNoPanels)

	charts := []*Chart{testChart(t), testChart(t), testChart(t)}
	for _, name := range []string{"tiles.png", "nested/tiles.svg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, SaveTiled(path, charts, 2, 6*vg.Inch, 6*vg.Inch))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	f, err := os.Open(filepath.Join(dir, "tiles.png"))
	require.NoError(t, err)
	defer f.Close()
	img, _, err := image.Decode(f)
	require.NoError(t, err)
	assert.Positive(t, img.Bounds().Dx())

	assert.Error(t, SaveTiled(filepath.Join(dir, "tiles.bogus"), charts, 2, 4*vg.Inch, 3*vg.Inch))
}
