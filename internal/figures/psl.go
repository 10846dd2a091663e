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
	pslSource = "NCEP/NCAR Reanalysis via NOAA PSL"

	// rankYears is the width of the rank mesh.
	rankYears = 39
)

func init() {
	register(recipe{
		name:     "psl-rank-mesh",
		desc:     "Month by year rank of Arctic 925 hPa air temperature, warmest = 1",
		datasets: fixed("psl-arctic-t925"),
		render:   pslRankMesh,
	})
}

func pslRankMesh(_ context.Context, in Inputs) (types.FigureRecord, error) {
	rc, err := in.Open("psl-arctic-t925")
	if err != nil {
		return types.FigureRecord{}, err
	}
	tbl, err := parse.PSLMonthly(rc)
	rc.Close()
	if err != nil {
		return types.FigureRecord{}, err
	}
	if len(tbl.Years) < 2 {
		return types.FigureRecord{}, fmt.Errorf("%w: PSL series has %d years", ErrNoData, len(tbl.Years))
	}

	start := 0
	if len(tbl.Years) > rankYears {
		start = len(tbl.Years) - rankYears
	}
	years := tbl.Years[start:]
	values := tbl.Values[start:]

	ranks := make([][]int, 12)
	for m := 0; m < 12; m++ {
		col := make([]float64, len(years))
		for i := range years {
			col[i] = values[i][m]
		}
		ranks[m] = calc.Rank(col)
	}

	colLabels := make([]string, len(years))
	for i, y := range years {
		if y%5 == 0 || i == len(years)-1 {
			colLabels[i] = fmt.Sprint(y)
		}
	}

	// The latest observed month is the last finite value of the final year.
	lastYear := len(years) - 1
	lastMonth := -1
	for m := 11; m >= 0; m-- {
		if !math.IsNaN(values[lastYear][m]) {
			lastMonth = m
			break
		}
	}
	if lastMonth < 0 {
		lastYear--
		lastMonth = 11
	}

	title := fmt.Sprintf("Arctic 925 hPa temperature rank, %d-%d", years[0], years[len(years)-1])
	c, err := render.RankMesh(title, ranks, monthNames, colLabels, in.Style)
	if err != nil {
		return types.FigureRecord{}, err
	}
	rank := ranks[lastMonth][lastYear]
	c.Headline(fmt.Sprintf("%s %d ranked %d of %d", monthNames[lastMonth], years[lastYear], rank, len(years)))
	c.Source(pslSource)

	out, err := in.Save(c, "psl-rank-mesh")
	if err != nil {
		return types.FigureRecord{}, err
	}
	return types.FigureRecord{
		Output:   out,
		DataDate: time.Date(years[lastYear], time.Month(lastMonth+1), 1, 0, 0, 0, 0, time.UTC),
		Metrics: map[string]float64{
			"rank":        float64(rank),
			"temperature": values[lastYear][lastMonth],
		},
	}, nil
}
