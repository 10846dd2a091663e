// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/icevarfigs/pkg/types"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantFormat types.DataFormat
		wantFile   string
		wantURLEnd string
	}{
		{"static jaxa", "jaxa-extent-n", types.FormatJAXACSV, "plot_extent_n_v2.csv", "plot_extent_n_v2.csv"},
		{"static nsidc clim", "nsidc-clim-s", types.FormatNSIDCClim, "S_seaice_extent_climatology_1981-2010_v3.0.csv", "south/daily/data/S_seaice_extent_climatology_1981-2010_v3.0.csv"},
		{"heff template", "piomas-heff-2018", types.FormatPIOMASBinary, "heff.H2018.gz", "heff/heff.H2018.gz"},
		{"volume template", "piomas-volume-2024", types.FormatPIOMASVolume, "PIOMAS.vol.daily.1979.2024.Current.v2.1.dat.gz", "PIOMAS.vol.daily.1979.2024.Current.v2.1.dat.gz"},
		{"ersst template", "ersst-v5-201801", types.FormatNetCDF, "ersst.v5.201801.nc", "ersst.v5.201801.nc"},
		{"whitespace trimmed", "  oisst-anom-2016 ", types.FormatNetCDF, "sst.day.anom.2016.nc", "sst.day.anom.2016.nc"},
		{"sea ice concentration template", "oisst-icec-2025", types.FormatNetCDF, "icec.day.mean.2025.nc", "noaa.oisst.v2.highres/icec.day.mean.2025.nc"},
		{"regional workbook", "nsidc-regional-n", types.FormatNSIDCRegional, "Sea_Ice_Index_Regional_Daily_Data_G02135_v3.0.xlsx", "seaice_analysis/Sea_Ice_Index_Regional_Daily_Data_G02135_v3.0.xlsx"},
		{"grace default release", "grace-greenland", types.FormatGRACE, "greenland_mass.txt", "greenland_mass_200204_202311.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := Lookup(tt.input)
			require.NoError(t, err)
			assert.Equal(t, strings.TrimSpace(tt.input), ds.Name)
			assert.Equal(t, tt.wantFormat, ds.Format)
			assert.Equal(t, tt.wantFile, ds.FileName)
			assert.True(t, strings.HasSuffix(ds.URL, tt.wantURLEnd), "url %s", ds.URL)
		})
	}
}

func TestLookupRejectsBadTemplates(t *testing.T) {
	for _, name := range []string{"piomas-heff-18", "piomas-heff-abcd", "ersst-v5-2018", "nope", ""} {
		_, err := Lookup(name)
		assert.True(t, errors.Is(err, ErrUnknown), "name %q", name)
	}
}

func TestLookupPSLHasNoRemote(t *testing.T) {
	ds, err := Lookup("psl-arctic-t925")
	require.NoError(t, err)
	assert.Empty(t, ds.URL)
	assert.Equal(t, types.FormatPSLMonthly, ds.Format)
}

func TestList(t *testing.T) {
	entries := List()
	require.NotEmpty(t, entries)
	for i := 1; i < len(entries); i++ {
		assert.LessOrEqual(t, entries[i-1].Name, entries[i].Name)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "piomas-heff-YYYY")
	assert.Contains(t, names, "ersst-v5-YYYYMM")
	assert.Contains(t, names, "nsidc-daily-n")
}

func TestSetGRACERelease(t *testing.T) {
	prev := GRACERelease()
	t.Cleanup(func() { graceRelease = prev })

	require.NoError(t, SetGRACERelease("202502"))
	for _, name := range []string{"grace-greenland", "grace-antarctica"} {
		ds, err := Lookup(name)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(ds.URL, "_200204_202502.txt"), "url %s", ds.URL)
	}

	for _, bad := range []string{"", "2025", "202513", "2025-02"} {
		assert.Error(t, SetGRACERelease(bad), bad)
	}
	assert.Equal(t, "202502", GRACERelease())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantKind   SourceKind
		wantName   string
		wantFormat types.DataFormat
	}{
		{"registry", "nsidc-daily-n", KindRegistry, "nsidc-daily-n", types.FormatNSIDCDaily},
		{"https csv", "https://example.com/data/plot_extent_s_v2.csv", KindURL, "plot-extent-s-v2", types.FormatJAXACSV},
		{"ftp nsidc", "ftp://example.org/N_seaice_extent_daily_v3.0.csv", KindURL, "n-seaice-extent-daily-v3-0", types.FormatNSIDCDaily},
		{"file url", "file:///tmp/sst.day.anom.2018.nc", KindFile, "sst-day-anom-2018", types.FormatNetCDF},
		{"bare path", "./local/heff_2017.H", KindFile, "heff-2017", types.FormatPIOMASBinary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ds, err := Classify(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantName, ds.Name)
			assert.Equal(t, tt.wantFormat, ds.Format)
		})
	}
}

func TestClassifyUnknown(t *testing.T) {
	for _, in := range []string{"", "not-a-dataset", "mailto:someone@example.com"} {
		kind, _, err := Classify(in)
		assert.Equal(t, KindUnknown, kind)
		assert.ErrorIs(t, err, ErrUnknown)
	}
}

func TestFormatFromName(t *testing.T) {
	assert.Equal(t, types.FormatPIOMASGridData, FormatFromName("piomas_griddata.dat"))
	assert.Equal(t, types.FormatPIOMASGrid, FormatFromName("grid.txt"))
	assert.Equal(t, types.FormatGRACE, FormatFromName("greenland_mass.txt"))
	assert.Equal(t, types.FormatNSIDCRegional, FormatFromName("Sea_Ice_Index_Regional_Daily_Data_G02135_v3.0.xlsx"))
	assert.Equal(t, types.FormatPIOMASVolume, FormatFromName("PIOMAS.vol.daily.1979.2018.Current.v2.1.dat.gz"))
	assert.Equal(t, types.DataFormat(""), FormatFromName("readme.md"))
}

func TestByFileName(t *testing.T) {
	ds, ok := ByFileName("S_seaice_extent_daily_v3.0.csv")
	require.True(t, ok)
	assert.Equal(t, "nsidc-daily-s", ds.Name)

	_, ok = ByFileName("heff.H2018.gz")
	assert.False(t, ok)
}

func TestNames(t *testing.T) {
	names := Names()
	require.NotEmpty(t, names)
	assert.IsNonDecreasing(t, names)
	for _, name := range names {
		_, err := Lookup(name)
		assert.NoError(t, err, name)
	}
	assert.Contains(t, names, "jaxa-extent-n")
	assert.NotContains(t, names, "piomas-heff-YYYY")
}
