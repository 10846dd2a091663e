// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"bytes"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/icevarfigs/pkg/types"
)

// regionalWorkbook builds a workbook with a title row, a header of years
// and 366 day rows. Sea extents are region*1e5 + year offset km²; the last
// year stops after 10 days.
func regionalWorkbook(t *testing.T, regions []string, years []int) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for r, region := range regions {
		sheet := region + RegionalSheetSuffix
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{region + " sea ice extent (km^2)"}))

		header := []any{"month", "day", ""}
		for _, y := range years {
			header = append(header, y)
		}
		require.NoError(t, f.SetSheetRow(sheet, "A2", &header))

		for k := 0; k < 366; k++ {
			row := []any{"", k + 1, ""}
			for i, y := range years {
				if i == len(years)-1 && k >= 10 {
					row = append(row, "")
					continue
				}
				row = append(row, float64((r+1)*100000+(y-years[0])*1000+k))
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

func TestNSIDCRegional(t *testing.T) {
	data := regionalWorkbook(t, []string{"Barents", "Kara"}, []int{2023, 2024, 2025})

	tables, err := NSIDCRegional(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, tables, 2)

	kara, ok := tables["Kara"]
	require.True(t, ok)
	assert.Equal(t, []int{2023, 2024, 2025}, kara.Years)
	for _, row := range kara.Values {
		assert.Len(t, row, types.DaysPerYear)
	}

	// Row k is day k of a leap year; 29 February (k = 59) is dropped, so
	// 1 March is day index 59 and holds the value from row 60.
	assert.InDelta(t, 0.2, kara.Values[0][0], 1e-9)
	assert.InDelta(t, (200000+58)*1e-6, kara.Values[0][58], 1e-9)
	assert.InDelta(t, (200000+60)*1e-6, kara.Values[0][59], 1e-9)
	assert.InDelta(t, (200000+365)*1e-6, kara.Values[0][364], 1e-9)

	cur := kara.Row(2025)
	assert.InDelta(t, (200000+2000+9)*1e-6, cur[9], 1e-9)
	assert.True(t, math.IsNaN(cur[10]))
	assert.Equal(t, 9, kara.LastDay())
}

func TestNSIDCRegionalErrors(t *testing.T) {
	_, err := NSIDCRegional(bytes.NewReader([]byte("not a workbook")))
	assert.ErrorIs(t, err, ErrFormat)

	f := excelize.NewFile()
	defer f.Close()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	_, err = NSIDCRegional(bytes.NewReader(buf.Bytes()))
	assert.ErrorIs(t, err, ErrFormat, "no extent sheets")

	f2 := excelize.NewFile()
	defer f2.Close()
	sheet := "Laptev" + RegionalSheetSuffix
	_, err = f2.NewSheet(sheet)
	require.NoError(t, err)
	require.NoError(t, f2.SetSheetRow(sheet, "A1", &[]any{"no", "years", "here"}))
	buf, err = f2.WriteToBuffer()
	require.NoError(t, err)
	_, err = NSIDCRegional(bytes.NewReader(buf.Bytes()))
	assert.ErrorIs(t, err, ErrFormat)
	assert.Contains(t, err.Error(), fmt.Sprintf("sheet %s", sheet))
}
