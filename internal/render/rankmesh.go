// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"image/color"
	"math"
	"strconv"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
)

// rankGrid adapts a rows-by-columns rank table to plotter.GridXYZ. Rank 0
// means unranked and is drawn with the NaN color.
type rankGrid struct {
	ranks [][]int
	cols  int
}

func (g rankGrid) Dims() (c, r int) { return g.cols, len(g.ranks) }
func (g rankGrid) X(c int) float64  { return float64(c) }
func (g rankGrid) Y(r int) float64  { return float64(r) }

func (g rankGrid) Z(c, r int) float64 {
	if c >= len(g.ranks[r]) || g.ranks[r][c] == 0 {
		return math.NaN()
	}
	return float64(g.ranks[r][c])
}

// RankMesh draws a table of ranks as colored cells, warmest (rank 1) in
// red, with the rank printed in each cell. rows are labelled bottom to top
// by rowLabels and columns by colLabels.
func RankMesh(title string, ranks [][]int, rowLabels, colLabels []string, style Style) (*Chart, error) {
	if len(ranks) == 0 {
		return nil, fmt.Errorf("rank mesh %q: no rows", title)
	}
	cols, maxRank := 0, 1
	for _, row := range ranks {
		if len(row) > cols {
			cols = len(row)
		}
		for _, r := range row {
			if r > maxRank {
				maxRank = r
			}
		}
	}
	if cols < 2 || len(ranks) < 2 {
		return nil, fmt.Errorf("rank mesh %q: need at least 2x2 cells, got %dx%d", title, len(ranks), cols)
	}

	c := NewChart(title, "", "", style)
	hm := plotter.NewHeatMap(rankGrid{ranks: ranks, cols: cols},
		palette.Reverse(moreland.SmoothBlueRed().Palette(maxRank)))
	hm.Min, hm.Max = 1, float64(maxRank)
	hm.NaN = color.Transparent
	c.p.Add(hm)

	var xys plotter.XYs
	var labels []string
	for r, row := range ranks {
		for col, rank := range row {
			if rank == 0 {
				continue
			}
			xys = append(xys, plotter.XY{X: float64(col), Y: float64(r)})
			labels = append(labels, strconv.Itoa(rank))
		}
	}
	if len(xys) > 0 {
		l, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
		if err != nil {
			return nil, fmt.Errorf("rank labels: %w", err)
		}
		for i := range l.TextStyle {
			l.TextStyle[i].Color = style.Background
			l.TextStyle[i].Font.Size = style.FontSize * 0.45
			l.TextStyle[i].XAlign = text.XCenter
			l.TextStyle[i].YAlign = text.YCenter
		}
		c.p.Add(l)
	}

	c.YTicks(positions(len(rowLabels)), rowLabels)
	c.XTicks(positions(len(colLabels)), colLabels)
	return c, nil
}

func positions(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}
