// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse reads the on-disk formats of the climate data sources into
// the series and grid types in pkg/types. Readers take an io.Reader and map
// each source's missing-value sentinel to NaN.
package parse

import (
	"bufio"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrShape is returned when a file holds the wrong number of values for
	// the grid it claims to describe.
	ErrShape = errors.New("unexpected data shape")

	// ErrFormat is returned when a file does not follow its expected layout.
	ErrFormat = errors.New("unexpected file format")
)

// Missing is the sentinel JAXA and NSIDC files use for absent values.
const Missing = -9999

func nanIfMissing(v, missing float64) float64 {
	if v == missing {
		return math.NaN()
	}
	return v
}

// readFloats reads every whitespace-separated number in r.
func readFloats(r io.Reader) ([]float64, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	sc.Split(bufio.ScanWords)

	var out []float64
	for sc.Scan() {
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, errors.Join(ErrFormat, err)
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseFloats(parts []string) ([]float64, error) {
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
