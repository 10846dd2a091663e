// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/fhs/go-netcdf/netcdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeAnomFile writes a two-day, 2x3 OISST-style anomaly file.
func writeAnomFile(t *testing.T, path string) {
	t.Helper()
	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	require.NoError(t, err)
	defer ds.Close()

	timeDim, err := ds.AddDim("time", 2)
	require.NoError(t, err)
	latDim, err := ds.AddDim("lat", 2)
	require.NoError(t, err)
	lonDim, err := ds.AddDim("lon", 3)
	require.NoError(t, err)

	timeVar, err := ds.AddVar("time", netcdf.DOUBLE, []netcdf.Dim{timeDim})
	require.NoError(t, err)
	require.NoError(t, timeVar.Attr("units").WriteBytes([]byte("days since 1800-01-01 00:00:00")))
	require.NoError(t, timeVar.WriteFloat64s([]float64{79254, 79255}))

	latVar, err := ds.AddVar("lat", netcdf.FLOAT, []netcdf.Dim{latDim})
	require.NoError(t, err)
	require.NoError(t, latVar.WriteFloat32s([]float32{-0.125, 0.125}))

	lonVar, err := ds.AddVar("lon", netcdf.FLOAT, []netcdf.Dim{lonDim})
	require.NoError(t, err)
	require.NoError(t, lonVar.WriteFloat32s([]float32{190.125, 190.375, 190.625}))

	anom, err := ds.AddVar("anom", netcdf.FLOAT, []netcdf.Dim{timeDim, latDim, lonDim})
	require.NoError(t, err)
	require.NoError(t, anom.Attr("_FillValue").WriteFloat32s([]float32{-9.96921e+36}))
	require.NoError(t, anom.WriteFloat32s([]float32{
		1, 2, 3,
		4, 5, -9.96921e+36,
		0.5, 0.5, 0.5,
		-1, -1, -1,
	}))
}

func TestNetCDFGrids(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sst.day.anom.2017.nc")
	writeAnomFile(t, path)

	grids, err := NetCDFGrids(path, "anom")
	require.NoError(t, err)
	require.Len(t, grids, 2)

	g := grids[0]
	assert.Equal(t, 2, g.Rows)
	assert.Equal(t, 3, g.Cols)
	assert.Equal(t, 5.0, g.At(1, 1))
	assert.True(t, math.IsNaN(g.At(1, 2)))
	assert.InDelta(t, 0.125, g.Lat[3], 1e-6)
	assert.InDelta(t, 190.375, g.Lon[4], 1e-6)
	assert.Equal(t, -1.0, grids[1].At(1, 0))

	want := time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 79254)
	assert.Equal(t, want, g.Time)
	assert.Equal(t, want.AddDate(0, 0, 1), grids[1].Time)
}

func TestNetCDFGridsErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anom.nc")
	writeAnomFile(t, path)

	_, err := NetCDFGrids(path, "sst")
	assert.Error(t, err)

	_, err = NetCDFGrids(path, "time")
	assert.True(t, errors.Is(err, ErrShape))

	_, err = NetCDFGrids(filepath.Join(t.TempDir(), "missing.nc"), "anom")
	assert.Error(t, err)
}
