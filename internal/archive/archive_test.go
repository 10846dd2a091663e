// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/icevarfigs/pkg/types"
)

const (
	jaxaFile   = "plot_extent_n_v2.csv"
	nsidcFile  = "N_seaice_extent_daily_v3.0.csv"
	volumeFile = "PIOMAS.vol.daily.1979.2025.Current.v2.1.dat.gz"

	jaxaCSV = `month,day,1980's Average,1990's Average,2000's Average,2024,2025
1,1,14000000,13800000,13500000,13200000,13100000
1,2,14010000,13810000,13510000,13210000,-9999
1,3,14020000,13820000,13520000,13220000,13120000
`

	nsidcCSV = ` Year, Month, Day,     Extent,    Missing, Source Data
 YYYY,    MM,  DD, 10^6 sq km, 10^6 sq km, Source data product web sites
 2024,    02,  28,     14.500,      0.000, ['x.bin']
 2024,    02,  29,     14.520,      0.000, ['x.bin']
 2024,    03,  01,     14.540,      0.000, ['x.bin']
`

	volumeText = `Year  #day   Vol
2025    1  18.100
2025    2  18.200
`
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewStore(types.ArchiveConfig{ArchiveDir: filepath.Join(dir, "archive"), MaxResults: 20})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, dir
}

func writeRaw(t *testing.T, dataDir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dataDir, rawDir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestNewStoreCreatesDatabase(t *testing.T) {
	_, dir := testStore(t)
	assert.FileExists(t, filepath.Join(dir, "archive", indexDir, dbFile))
}

func TestRecordRunAndRuns(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	first := types.FigureRecord{
		Recipe:     "jaxa-moving-lines",
		Output:     "figures/jaxa-moving-lines_20250614.png",
		DataDate:   date(2025, 6, 13),
		RenderedAt: time.Date(2025, 6, 14, 7, 0, 0, 0, time.UTC),
		Datasets:   []string{"jaxa-extent-n"},
		Metrics:    map[string]float64{"extent_km2": 10.5e6, "bad": math.NaN()},
		Notes:      []string{"record low for the date"},
	}
	second := first
	second.Output = "figures/jaxa-moving-lines_20250615.png"
	second.RenderedAt = first.RenderedAt.Add(24 * time.Hour)
	other := types.FigureRecord{Recipe: "psl-rank-mesh", Output: "figures/psl.png", RenderedAt: second.RenderedAt}

	id1, err := s.RecordRun(ctx, first)
	require.NoError(t, err)
	id2, err := s.RecordRun(ctx, second)
	require.NoError(t, err)
	_, err = s.RecordRun(ctx, other)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	runs, err := s.Runs(ctx, "jaxa-moving-lines", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, id2, runs[0].RunID)
	assert.Equal(t, id1, runs[1].RunID)

	got := runs[1]
	assert.Equal(t, first.Output, got.Output)
	assert.Equal(t, first.DataDate, got.DataDate)
	assert.True(t, first.RenderedAt.Equal(got.RenderedAt))
	assert.Equal(t, first.Datasets, got.Datasets)
	assert.Equal(t, first.Notes, got.Notes)
	assert.Equal(t, map[string]float64{"extent_km2": 10.5e6}, got.Metrics)

	all, err := s.Runs(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := s.Runs(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestIngest(t *testing.T) {
	s, dir := testStore(t)
	ctx := context.Background()
	dataDir := filepath.Join(dir, "data")
	writeRaw(t, dataDir, jaxaFile, []byte(jaxaCSV))
	writeRaw(t, dataDir, nsidcFile, []byte(nsidcCSV))
	writeRaw(t, dataDir, volumeFile, gzipped(t, volumeText))
	writeRaw(t, dataDir, "heff.H2025.gz", []byte("not a series"))

	var buf bytes.Buffer
	summary, err := s.Ingest(ctx, dataDir, &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Indexed)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 3, summary.Total())
	assert.Contains(t, buf.String(), "indexing "+nsidcFile+" -> nsidc-daily-n (3 observations)")

	series, err := s.Series(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"jaxa-extent-n", "nsidc-daily-n", "piomas-volume"}, series)

	// The JAXA gap on 2 January 2025 is not stored.
	jaxa, err := s.Query(ctx, QueryOptions{Series: "jaxa-extent-n", From: date(2025, 1, 1)})
	require.NoError(t, err)
	require.Len(t, jaxa, 2)
	assert.Equal(t, date(2025, 1, 1), jaxa[0].Date)
	assert.Equal(t, 13.1e6, jaxa[0].Value)
	assert.Equal(t, date(2025, 1, 3), jaxa[1].Date)

	nsidc, err := s.Query(ctx, QueryOptions{Series: "nsidc-daily-n"})
	require.NoError(t, err)
	require.Len(t, nsidc, 3)
	assert.Equal(t, date(2024, 2, 29), nsidc[1].Date)

	vol, err := s.Query(ctx, QueryOptions{Series: "piomas-volume", To: date(2025, 1, 1)})
	require.NoError(t, err)
	require.Len(t, vol, 1)
	assert.Equal(t, 18.1, vol[0].Value)

	// Unchanged files are skipped on the next run.
	buf.Reset()
	summary, err = s.Ingest(ctx, dataDir, &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Skipped)
	assert.Equal(t, 0, summary.Indexed)

	// A changed file is re-read and its values replaced.
	path := writeRaw(t, dataDir, volumeFile, gzipped(t, "Year #day Vol\n2025 1 17.900\n"))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))
	summary, err = s.Ingest(ctx, dataDir, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)
	vol, err = s.Query(ctx, QueryOptions{Series: "piomas-volume"})
	require.NoError(t, err)
	require.Len(t, vol, 2)
	assert.Equal(t, 17.9, vol[0].Value)
}

func TestIngestCountsFailures(t *testing.T) {
	s, dir := testStore(t)
	dataDir := filepath.Join(dir, "data")
	writeRaw(t, dataDir, jaxaFile, []byte("month,day\n1,1\n"))

	var buf bytes.Buffer
	summary, err := s.Ingest(context.Background(), dataDir, &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, buf.String(), "failed  "+jaxaFile)
}

func TestIngestMissingDir(t *testing.T) {
	s, dir := testStore(t)
	_, err := s.Ingest(context.Background(), filepath.Join(dir, "nope"), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestQueryLimit(t *testing.T) {
	s, dir := testStore(t)
	dataDir := filepath.Join(dir, "data")
	writeRaw(t, dataDir, nsidcFile, []byte(nsidcCSV))
	_, err := s.Ingest(context.Background(), dataDir, &bytes.Buffer{})
	require.NoError(t, err)

	obs, err := s.Query(context.Background(), QueryOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, obs, 2)
}

func TestExport(t *testing.T) {
	s, dir := testStore(t)
	ctx := context.Background()
	dataDir := filepath.Join(dir, "data")
	writeRaw(t, dataDir, nsidcFile, []byte(nsidcCSV))
	_, err := s.Ingest(ctx, dataDir, &bytes.Buffer{})
	require.NoError(t, err)
	_, err = s.RecordRun(ctx, types.FigureRecord{
		Recipe:  "nsidc-arctic-median",
		Output:  "figures/nsidc.png",
		Metrics: map[string]float64{"anomaly_median_mkm2": -1.2, "correlation": math.NaN()},
	})
	require.NoError(t, err)

	jsonPath, err := s.ExportJSON(ctx, QueryOptions{})
	require.NoError(t, err)
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var fromJSON Export
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	assert.Len(t, fromJSON.Observations, 3)
	require.Len(t, fromJSON.Runs, 1)
	assert.Equal(t, -1.2, fromJSON.Runs[0].Metrics["anomaly_median_mkm2"])

	yamlPath, err := s.ExportYAML(ctx, QueryOptions{From: date(2024, 3, 1)})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "archive", indexDir, "export.yaml"), yamlPath)
	data, err = os.ReadFile(yamlPath)
	require.NoError(t, err)
	var fromYAML Export
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	require.Len(t, fromYAML.Observations, 1)
	assert.Equal(t, date(2024, 3, 1), fromYAML.Observations[0].Date)
}
