// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/pdiddy/icevarfigs/pkg/types"
)

type nsidcDailyRow struct {
	Year    int     `csv:"Year"`
	Month   int     `csv:"Month"`
	Day     int     `csv:"Day"`
	Extent  float64 `csv:"Extent"`
	Missing float64 `csv:"Missing"`
	Source  string  `csv:"Source Data"`
}

type nsidcClimRow struct {
	DOY  int     `csv:"DOY"`
	Mean float64 `csv:"Average Extent"`
	Std  float64 `csv:"Std Deviation"`
	P10  float64 `csv:"10th"`
	P25  float64 `csv:"25th"`
	P50  float64 `csv:"50th"`
	P75  float64 `csv:"75th"`
	P90  float64 `csv:"90th"`
}

// recordReader serves pre-cleaned records to gocsv.
type recordReader struct {
	records [][]string
	pos     int
}

func (r *recordReader) Read() ([]string, error) {
	if r.pos >= len(r.records) {
		return nil, io.EOF
	}
	rec := r.records[r.pos]
	r.pos++
	return rec, nil
}

func (r *recordReader) ReadAll() ([][]string, error) {
	rest := r.records[r.pos:]
	r.pos = len(r.records)
	return rest, nil
}

// nsidcRecords reads an NSIDC Sea Ice Index csv. It drops the units row
// and any other row whose first field is not numeric, trims every field,
// and truncates rows to the header width (the source column may contain
// unquoted commas).
func nsidcRecords(r io.Reader) (*recordReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	raw, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading NSIDC csv: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty NSIDC csv", ErrFormat)
	}

	header := trimAll(raw[0])
	out := [][]string{header}
	for _, rec := range raw[1:] {
		rec = trimAll(rec)
		if len(rec) == 0 {
			continue
		}
		if _, err := strconv.ParseFloat(rec[0], 64); err != nil {
			continue
		}
		if len(rec) > len(header) {
			rec = rec[:len(header)]
		}
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		out = append(out, rec)
	}
	return &recordReader{records: out}, nil
}

func trimAll(rec []string) []string {
	out := make([]string, len(rec))
	for i, s := range rec {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

// NSIDCDaily reads the Sea Ice Index v3 daily extent file. Extents are in
// millions of km².
func NSIDCDaily(r io.Reader) ([]types.DailyValue, error) {
	rr, err := nsidcRecords(r)
	if err != nil {
		return nil, err
	}
	var rows []nsidcDailyRow
	if err := gocsv.UnmarshalCSV(rr, &rows); err != nil {
		return nil, fmt.Errorf("%w: NSIDC daily: %v", ErrFormat, err)
	}

	out := make([]types.DailyValue, 0, len(rows))
	for _, row := range rows {
		out = append(out, types.DailyValue{
			Date:  time.Date(row.Year, time.Month(row.Month), row.Day, 0, 0, 0, 0, time.UTC),
			Value: nanIfMissing(row.Extent, Missing),
		})
	}
	return out, nil
}

// NSIDCClimatology reads the 1981-2010 daily climatology file. Rows are
// returned in DOY order; DOY 366 is dropped to match 365-day tables.
func NSIDCClimatology(r io.Reader) (types.Climatology, error) {
	rr, err := nsidcRecords(r)
	if err != nil {
		return types.Climatology{}, err
	}
	var rows []nsidcClimRow
	if err := gocsv.UnmarshalCSV(rr, &rows); err != nil {
		return types.Climatology{}, fmt.Errorf("%w: NSIDC climatology: %v", ErrFormat, err)
	}

	var c types.Climatology
	for _, row := range rows {
		if row.DOY < 1 || row.DOY > types.DaysPerYear {
			continue
		}
		c.DOY = append(c.DOY, row.DOY)
		c.Mean = append(c.Mean, nanIfMissing(row.Mean, Missing))
		c.Std = append(c.Std, nanIfMissing(row.Std, Missing))
		c.P10 = append(c.P10, nanIfMissing(row.P10, Missing))
		c.P25 = append(c.P25, nanIfMissing(row.P25, Missing))
		c.P50 = append(c.P50, nanIfMissing(row.P50, Missing))
		c.P75 = append(c.P75, nanIfMissing(row.P75, Missing))
		c.P90 = append(c.P90, nanIfMissing(row.P90, Missing))
	}
	if c.Len() == 0 {
		return c, fmt.Errorf("%w: NSIDC climatology has no rows", ErrFormat)
	}
	return c, nil
}
