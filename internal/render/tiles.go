// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ErrNoPanels is returned when saving a tiled figure with no charts.
var ErrNoPanels = errors.New("tiled figure has no panels")

// SaveTiled writes charts as a grid of panels, cols wide, filled row by
// row. Unused cells in the last row are left blank. The format follows the
// extension of path.
func SaveTiled(path string, charts []*Chart, cols int, width, height vg.Length) (err error) {
	if len(charts) == 0 {
		return ErrNoPanels
	}
	if cols <= 0 || cols > len(charts) {
		cols = len(charts)
	}
	rows := (len(charts) + cols - 1) / cols
	style := charts[0].style

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	canvas, err := draw.NewFormattedCanvas(width, height, format)
	if err != nil {
		return fmt.Errorf("tiled canvas for %s: %w", path, err)
	}
	dc := draw.New(canvas)
	dc.SetColor(style.Background)
	dc.Fill(dc.Rectangle.Path())

	plots := make([][]*plot.Plot, rows)
	for j := range plots {
		plots[j] = make([]*plot.Plot, cols)
		for i := range plots[j] {
			if k := j*cols + i; k < len(charts) {
				plots[j][i] = charts[k].p
				continue
			}
			blank := plot.New()
			blank.BackgroundColor = style.Background
			blank.HideAxes()
			plots[j][i] = blank
		}
	}
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter * 2,
		PadY:      vg.Millimeter * 2,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, dc)
	for j := range plots {
		for i := range plots[j] {
			plots[j][i].Draw(canvases[j][i])
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if _, err := canvas.WriteTo(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
