// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package figures

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fhs/go-netcdf/netcdf"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/icevarfigs/internal/parse"
	"github.com/pdiddy/icevarfigs/internal/render"
	"github.com/pdiddy/icevarfigs/pkg/types"
)

// today is the fixed render date: JAXA's current day is 14 June 2025,
// day index 164.
var today = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

const currentDay = 164

func seasonal(d int) float64 {
	return 4 * math.Cos(2*math.Pi*float64(d)/types.DaysPerYear)
}

func testInputs(t *testing.T) Inputs {
	t.Helper()
	return Inputs{
		Paths:      map[string]string{},
		Today:      today,
		OutDir:     filepath.Join(t.TempDir(), "figures"),
		Format:     "png",
		Width:      4,
		Height:     3,
		FrameDelay: 100 * time.Millisecond,
		Style:      render.DefaultStyle(),
	}
}

func writeFile(t *testing.T, in Inputs, name, content string) {
	t.Helper()
	writeBytes(t, in, name, []byte(content))
}

func writeBytes(t *testing.T, in Inputs, name string, data []byte) {
	t.Helper()
	path := filepath.Join(filepath.Dir(in.OutDir), "raw", name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	in.Paths[name] = path
}

// jaxaCSV has one column per year 2002..2025, each 100,000 km² below the
// last, with 2025 ending at currentDay.
func jaxaCSV() string {
	var b strings.Builder
	b.WriteString("month,day,1980's Average,1990's Average,2000's Average")
	for y := 2002; y <= 2025; y++ {
		fmt.Fprintf(&b, ",%d", y)
	}
	b.WriteByte('\n')
	for d := 0; d < types.DaysPerYear; d++ {
		date := dateOf(2001, d)
		base := 10e6 + seasonal(d)*1e6
		fmt.Fprintf(&b, "%d,%d,%.0f,%.0f,%.0f", int(date.Month()), date.Day(), base+1e6, base+5e5, base+2e5)
		for y := 2002; y <= 2025; y++ {
			v := base - float64(y-2002)*1e5
			if y == 2025 && d > currentDay {
				v = parse.Missing
			}
			fmt.Fprintf(&b, ",%.0f", v)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// nsidcDailyCSV covers 2020 through 13 June 2025 (day index 163). Each
// year is 0.1 million km² below the last.
func nsidcDailyCSV(offset float64) string {
	var b strings.Builder
	b.WriteString(" Year, Month, Day,     Extent,    Missing, Source Data\n")
	b.WriteString(" YYYY,    MM,  DD, 10^6 sq km, 10^6 sq km, Source data product web sites: http://nsidc.org\n")
	last := today.AddDate(0, 0, -2)
	for d := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC); !d.After(last); d = d.AddDate(0, 0, 1) {
		v := offset + 10 + seasonal(dayIndex(d)) - 0.1*float64(d.Year()-2020)
		fmt.Fprintf(&b, " %d, %5d, %3d, %10.3f,      0.000, ['ftp://sidads.colorado.edu/x.bin']\n",
			d.Year(), int(d.Month()), d.Day(), v)
	}
	return b.String()
}

// nsidcClimCSV has mean 0.5 above 2020 and a 0.1 standard deviation.
func nsidcClimCSV(offset float64) string {
	var b strings.Builder
	b.WriteString("DOY, Average Extent, Std Deviation,   10th,   25th,   50th,   75th,   90th\n")
	b.WriteString("   , 10^6 sq km, 10^6 sq km, 10^6 sq km, 10^6 sq km, 10^6 sq km, 10^6 sq km, 10^6 sq km\n")
	for doy := 1; doy <= 366; doy++ {
		m := offset + 10.5 + seasonal(doy-1)
		fmt.Fprintf(&b, "%3d, %.3f, 0.100, %.3f, %.3f, %.3f, %.3f, %.3f\n",
			doy, m, m-0.3, m-0.15, m, m+0.15, m+0.3)
	}
	return b.String()
}

// volumeText is a PIOMAS daily volume table for 2000..2025, each year 0.2
// thousand km³ below the last, with 2025 ending at currentDay.
func volumeText() string {
	var b strings.Builder
	b.WriteString("Year  #day   Vol\n")
	for y := 2000; y <= 2025; y++ {
		for d := 1; d <= 365; d++ {
			if y == 2025 && d > currentDay+1 {
				break
			}
			fmt.Fprintf(&b, "%d %4d %8.3f\n", y, d, 20+seasonal(d-1)*2-0.2*float64(y-2000))
		}
	}
	return b.String()
}

func numberBlock(b *strings.Builder, n int, f func(i int) float64) {
	for i := 0; i < n; i++ {
		fmt.Fprintf(b, "%g", f(i))
		if (i+1)%10 == 0 {
			b.WriteByte('\n')
		} else {
			b.WriteByte(' ')
		}
	}
}

// gridText places PIOMAS rows from 45°N to 89.625°N.
func gridText() string {
	var b strings.Builder
	numberBlock(&b, parse.PIOMASCells, func(i int) float64 { return float64(i % parse.PIOMASCols) })
	numberBlock(&b, parse.PIOMASCells, func(i int) float64 { return 45 + float64(i/parse.PIOMASCols)*0.375 })
	return b.String()
}

// griddataText gives every cell edge 10 km, so every area is 100 km².
func griddataText() string {
	var b strings.Builder
	for block := 0; block < 7; block++ {
		numberBlock(&b, parse.PIOMASCells, func(int) float64 { return 10 })
	}
	return b.String()
}

func heffBytes(months int, value float32) []byte {
	buf := make([]byte, months*parse.PIOMASCells*4)
	for i := 0; i < months*parse.PIOMASCells; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(value))
	}
	return buf
}

func graceText(step float64) string {
	var b strings.Builder
	b.WriteString("HDR Greenland Mass Trend\nHDR column 1 = decimal date\n")
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&b, "%.2f %8.2f %8.2f\n", 2002.3+float64(i)*0.5, float64(i)*step, 50.0)
	}
	return b.String()
}

// pslText has 1980..2025 with each year 0.1° warmer than the last and 2025
// ending in May.
func pslText() string {
	var b strings.Builder
	b.WriteString("  1980  2025\n")
	for y := 1980; y <= 2025; y++ {
		fmt.Fprintf(&b, "  %d", y)
		for m := 0; m < 12; m++ {
			v := -20 + float64(m) + 0.1*float64(y-1980)
			if y == 2025 && m > 4 {
				v = -999.9
			}
			fmt.Fprintf(&b, " %.2f", v)
		}
		b.WriteByte('\n')
	}
	b.WriteString("  -999.9\n  NCEP/NCAR Reanalysis 925mb air temperature\n")
	return b.String()
}

// writeNetCDF writes variable over (time, lat, lon) with one field per
// day since epoch in days.
func writeNetCDF(t *testing.T, in Inputs, name, variable string, days []float64, lats, lons []float32, value func(k, r, c int) float32) {
	t.Helper()
	path := filepath.Join(filepath.Dir(in.OutDir), "raw", name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	require.NoError(t, err)
	defer ds.Close()

	timeDim, err := ds.AddDim("time", uint64(len(days)))
	require.NoError(t, err)
	latDim, err := ds.AddDim("lat", uint64(len(lats)))
	require.NoError(t, err)
	lonDim, err := ds.AddDim("lon", uint64(len(lons)))
	require.NoError(t, err)

	timeVar, err := ds.AddVar("time", netcdf.DOUBLE, []netcdf.Dim{timeDim})
	require.NoError(t, err)
	require.NoError(t, timeVar.Attr("units").WriteBytes([]byte("days since 1800-01-01 00:00:00")))
	latVar, err := ds.AddVar("lat", netcdf.FLOAT, []netcdf.Dim{latDim})
	require.NoError(t, err)
	lonVar, err := ds.AddVar("lon", netcdf.FLOAT, []netcdf.Dim{lonDim})
	require.NoError(t, err)
	v, err := ds.AddVar(variable, netcdf.FLOAT, []netcdf.Dim{timeDim, latDim, lonDim})
	require.NoError(t, err)

	require.NoError(t, timeVar.WriteFloat64s(days))
	require.NoError(t, latVar.WriteFloat32s(lats))
	require.NoError(t, lonVar.WriteFloat32s(lons))
	var vals []float32
	for k := range days {
		for r := range lats {
			for c := range lons {
				vals = append(vals, value(k, r, c))
			}
		}
	}
	require.NoError(t, v.WriteFloat32s(vals))
	in.Paths[name] = path
}

func daysSince1800(t time.Time) float64 {
	return t.Sub(time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC)).Hours() / 24
}

// regionalWorkbook has Kara and Laptev sheets with one column per year.
// Extents are 1 million km² less 0.1 million per year after the first,
// plus 100 km² per day; the last year stops after lastDays days.
func regionalWorkbook(t *testing.T, years []int, lastDays int) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for _, region := range []string{"Kara", "Laptev"} {
		sheet := region + parse.RegionalSheetSuffix
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
		header := []any{"month", "day", ""}
		for _, y := range years {
			header = append(header, y)
		}
		require.NoError(t, f.SetSheetRow(sheet, "A2", &header))
		for k := 0; k < 366; k++ {
			row := []any{"", k + 1, ""}
			for i, y := range years {
				if i == len(years)-1 && k >= lastDays {
					row = append(row, "")
					continue
				}
				row = append(row, regionalExtent(years[0], y, k))
			}
			cell, err := excelize.CoordinatesToCellName(1, k+3)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(sheet, cell, &row))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// regionalExtent is the workbook value in km² for row k, which before
// 29 February is also the day index.
func regionalExtent(first, year, k int) float64 {
	return 1e6 - float64(year-first)*1e5 + float64(k)*100
}

// iceLats and iceLons place concentration cells at 60, 70 and 80°N.
var (
	iceLats = []float32{60, 70, 80}
	iceLons = []float32{0, 90, 180, 270}
)

// iceConcentration is 0.9 at 60°N, alternately 0.1 and 0.5 at 70°N, and
// 0.8 rising 0.001 a day at 80°N.
func iceConcentration(k, r, c int) float32 {
	switch r {
	case 0:
		return 0.9
	case 1:
		if c%2 == 0 {
			return 0.1
		}
		return 0.5
	default:
		return 0.8 + float32(k)*0.001
	}
}

// writeIce writes n days of concentration from 1 January of year.
func writeIce(t *testing.T, in Inputs, year, n int) {
	t.Helper()
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	days := make([]float64, n)
	for k := range days {
		days[k] = daysSince1800(start.AddDate(0, 0, k))
	}
	writeNetCDF(t, in, oisstIce(year), "icec", days, iceLats, iceLons, iceConcentration)
}

// writeENSO writes n days of Niño-3.4 anomalies rising 0.1 °C a day from
// 1 January of year.
func writeENSO(t *testing.T, in Inputs, year, n int) {
	t.Helper()
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	days := make([]float64, n)
	for k := range days {
		days[k] = daysSince1800(start.AddDate(0, 0, k))
	}
	writeNetCDF(t, in, oisst(year), "anom", days,
		[]float32{-2.5, 2.5}, []float32{200, 210, 220},
		func(k, _, _ int) float32 { return float32(k) / 10 })
}
