// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJAXAExtent(t *testing.T) {
	csv := "month,day,1980's Average,1990's Average,2000's Average,2002,2003\n" +
		"1,1,14000000,13800000,13500000,13300000,-9999\n" +
		"2,29,15000000,14800000,14500000,14300000,14200000\n" +
		"1,2,14010000,13810000,13510000,13310000,13200000\n"

	tbl, err := JAXAExtent(strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []int{2002, 2003}, tbl.Years)
	assert.Equal(t, []int{1, 1}, tbl.Month)
	assert.Equal(t, []int{1, 2}, tbl.Day)
	assert.Equal(t, 14000000.0, tbl.Mean1980s[0])
	assert.True(t, math.IsNaN(tbl.Year(2003)[0]))
	assert.Equal(t, 13200000.0, tbl.Year(2003)[1])
	assert.Nil(t, tbl.Year(1999))
	assert.Equal(t, 2003, tbl.YearTable().LastYear())
}

func TestJAXAExtentDefaultYears(t *testing.T) {
	csv := "month,day,a,b,c,x,y,z\n1,1,1,2,3,4,5,6\n"
	tbl, err := JAXAExtent(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, []int{2002, 2003, 2004}, tbl.Years)
}

func TestJAXAExtentErrors(t *testing.T) {
	_, err := JAXAExtent(strings.NewReader("month,day\n"))
	assert.True(t, errors.Is(err, ErrFormat))

	_, err = JAXAExtent(strings.NewReader("month,day,a,b,c,2002\n1,1,1,2,3,oops\n"))
	assert.True(t, errors.Is(err, ErrFormat))
}

const nsidcDaily = ` Year, Month, Day,     Extent,    Missing, Source Data
 YYYY,    MM,  DD, 10^6 sq km, 10^6 sq km, Source data product web sites: http://nsidc.org/data/nsidc-0051.html
 1978,    10,  26,     10.231,      0.000, ['ftp://sidads.colorado.edu/pub/DATASETS/nsidc0051_gsfc_nasateam_seaice/final-gsfc/north/daily/1978/nt_19781026_n07_v1.1_n.bin']
 2018,     3,   5,     14.406,      0.000, ['ftp://a/nt_20180305_f18_nrt_n.bin', 'ftp://b/x.bin']
`

func TestNSIDCDaily(t *testing.T) {
	vals, err := NSIDCDaily(strings.NewReader(nsidcDaily))
	require.NoError(t, err)
	require.Len(t, vals, 2)

	assert.Equal(t, time.Date(1978, 10, 26, 0, 0, 0, 0, time.UTC), vals[0].Date)
	assert.InDelta(t, 10.231, vals[0].Value, 1e-9)
	assert.Equal(t, time.Date(2018, 3, 5, 0, 0, 0, 0, time.UTC), vals[1].Date)
	assert.InDelta(t, 14.406, vals[1].Value, 1e-9)
}

func TestNSIDCClimatology(t *testing.T) {
	csv := "DOY, Average Extent, Std Deviation,   10th,   25th,   50th,   75th,   90th\n" +
		"   , 10^6 sq km, 10^6 sq km, 10^6 sq km, 10^6 sq km, 10^6 sq km, 10^6 sq km, 10^6 sq km\n" +
		"  1,     13.764,         0.505, 13.080, 13.406, 13.788, 14.135, 14.397\n" +
		"  2,     13.801,         0.501, 13.131, 13.443, 13.821, 14.161, 14.421\n" +
		"366,     13.700,         0.500, 13.000, 13.400, 13.700, 14.000, 14.300\n"

	c, err := NSIDCClimatology(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []int{1, 2}, c.DOY)
	assert.InDelta(t, 13.801, c.Mean[1], 1e-9)
	assert.InDelta(t, 0.505, c.Std[0], 1e-9)
	assert.InDelta(t, 13.080, c.P10[0], 1e-9)
	assert.InDelta(t, 14.421, c.P90[1], 1e-9)
	assert.InDelta(t, 13.821, c.P50[1], 1e-9)
}

func TestNSIDCClimatologyEmpty(t *testing.T) {
	_, err := NSIDCClimatology(strings.NewReader("DOY, Average Extent\n"))
	assert.True(t, errors.Is(err, ErrFormat))
}

func numberBlock(n int, f func(i int) float64) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%g", f(i))
		if (i+1)%10 == 0 {
			b.WriteByte('\n')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func TestPIOMASGrid(t *testing.T) {
	text := numberBlock(PIOMASCells, func(i int) float64 { return float64(i % 360) }) +
		numberBlock(PIOMASCells, func(i int) float64 { return 45 + float64(i/360)*0.375 })

	g, err := PIOMASGrid(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, PIOMASRows, g.Rows)
	assert.Equal(t, PIOMASCols, g.Cols)
	assert.Equal(t, 5.0, g.Lon[5])
	assert.Equal(t, 45.0, g.Lat[0])
	assert.InDelta(t, 45.375, g.Lat[360], 1e-9)

	_, err = PIOMASGrid(strings.NewReader("1 2 3"))
	assert.True(t, errors.Is(err, ErrShape))
}

func TestPIOMASCellArea(t *testing.T) {
	var b strings.Builder
	for block := 0; block < griddataBlocks; block++ {
		v := float64(block + 1)
		b.WriteString(numberBlock(PIOMASCells, func(int) float64 { return v }))
	}
	area, err := PIOMASCellArea(strings.NewReader(b.String()))
	require.NoError(t, err)
	require.Len(t, area, PIOMASCells)
	assert.Equal(t, 12.0, area[0])
	assert.Equal(t, 12.0, area[PIOMASCells-1])
}

func heffBytes(months int, value func(m, i int) float32) []byte {
	buf := make([]byte, months*PIOMASCells*4)
	for m := 0; m < months; m++ {
		for i := 0; i < PIOMASCells; i++ {
			off := (m*PIOMASCells + i) * 4
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(value(m, i)))
		}
	}
	return buf
}

func TestPIOMASThicknessYear(t *testing.T) {
	data := heffBytes(2, func(m, i int) float32 {
		if i == 0 {
			return 0.05
		}
		return float32(m+1) * 1.5
	})

	th, err := PIOMASThicknessYear(bytes.NewReader(data), 0.1)
	require.NoError(t, err)
	assert.Equal(t, 2, th.Available)
	assert.True(t, math.IsNaN(th.Months[0][0]), "below threshold masked")
	assert.InDelta(t, 1.5, th.Months[0][1], 1e-6)
	assert.InDelta(t, 3.0, th.Months[1][1], 1e-6)
	for m := 2; m < 12; m++ {
		require.Len(t, th.Months[m], PIOMASCells)
		assert.True(t, math.IsNaN(th.Months[m][100]))
	}
}

func TestPIOMASThicknessYearShape(t *testing.T) {
	_, err := PIOMASThicknessYear(bytes.NewReader(make([]byte, 100)), 0)
	assert.True(t, errors.Is(err, ErrShape))

	_, err = PIOMASThicknessYear(bytes.NewReader(heffBytes(13, func(int, int) float32 { return 1 })), 0)
	assert.True(t, errors.Is(err, ErrShape))
}

func TestPIOMASDailyVolume(t *testing.T) {
	text := "Year  #day   Vol\n" +
		"1979    1   26.405\n" +
		"1979    2   26.496\n" +
		"1980  366   20.000\n" +
		"1980    1   25.000\n"

	tbl, err := PIOMASDailyVolume(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, []int{1979, 1980}, tbl.Years)
	assert.InDelta(t, 26.496, tbl.Row(1979)[1], 1e-9)
	assert.Equal(t, 25.0, tbl.Row(1980)[0])
	assert.Equal(t, 0, tbl.LastDay())
	assert.True(t, math.IsNaN(tbl.Row(1979)[364]))

	_, err = PIOMASDailyVolume(strings.NewReader("Year day Vol\n1979 x 1\n"))
	assert.True(t, errors.Is(err, ErrFormat))
}

func TestGRACEMass(t *testing.T) {
	text := "HDR Greenland Mass Trend (04/2002 - 06/2017): -286.0 +/-21 Gt/yr\n" +
		"HDR column 1 = decimal date\n" +
		"# comment\n" +
		"2002.29    0.00   164.16\n" +
		"2002.35   92.68    97.09\n"

	pts, err := GRACEMass(strings.NewReader(text))
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.InDelta(t, 2002.35, pts[1].Year, 1e-9)
	assert.InDelta(t, 92.68, pts[1].Mass, 1e-9)
	assert.InDelta(t, 97.09, pts[1].Sigma, 1e-9)

	_, err = GRACEMass(strings.NewReader("HDR only\n"))
	assert.True(t, errors.Is(err, ErrFormat))
}

func TestPSLMonthly(t *testing.T) {
	text := "  2016  2017\n" +
		"  2016  -20.1 -19.5 -18.0 -12.2 -3.1 1.5 3.2 2.0 -2.5 -10.1 -15.3 -18.8\n" +
		"  2017  -21.0 -20.2 -17.5 -11.9 -3.0 1.2 3.4 2.1 -2.8 -10.4 -999.9 -999.9\n" +
		"  -999.9\n" +
		"  NCEP/NCAR Reanalysis 925mb air temperature\n"

	tbl, err := PSLMonthly(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, []int{2016, 2017}, tbl.Years)
	assert.Equal(t, -20.1, tbl.Values[0][0])
	assert.Equal(t, -18.8, tbl.Values[0][11])
	assert.True(t, math.IsNaN(tbl.Values[1][10]))
	assert.True(t, math.IsNaN(tbl.Values[1][11]))

	_, err = PSLMonthly(strings.NewReader("2016 2018\n2016 1 2 3 4 5 6 7 8 9 10 11 12\n"))
	assert.True(t, errors.Is(err, ErrFormat))
}

func TestParseTimeUnits(t *testing.T) {
	unit, epoch, ok := parseTimeUnits("days since 1800-01-01 00:00:00")
	require.True(t, ok)
	assert.Equal(t, 24*time.Hour, unit)
	assert.Equal(t, time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC), epoch)

	unit, _, ok = parseTimeUnits("minutes since 1854-01-01 00:00")
	require.True(t, ok)
	assert.Equal(t, time.Minute, unit)

	_, _, ok = parseTimeUnits("fortnights since never")
	assert.False(t, ok)
}
