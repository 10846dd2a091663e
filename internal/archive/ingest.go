// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pdiddy/icevarfigs/internal/dataset"
	"github.com/pdiddy/icevarfigs/internal/fetch"
	"github.com/pdiddy/icevarfigs/internal/parse"
	"github.com/pdiddy/icevarfigs/pkg/types"
)

const rawDir = "raw"

// IngestSummary holds counts from an ingest run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// seriesLoader reads one raw file into a named daily series.
type seriesLoader func(r io.Reader) ([]types.Observation, error)

// loaderFor picks the series name and reader for a raw file. ok is false
// for files that do not hold a daily series.
func loaderFor(file string) (name string, load seriesLoader, ok bool) {
	switch dataset.FormatFromName(file) {
	case types.FormatJAXACSV:
		name = "jaxa-extent-n"
		if ds, found := dataset.ByFileName(file); found {
			name = ds.Name
		}
		return name, func(r io.Reader) ([]types.Observation, error) { return loadJAXA(r, name) }, true
	case types.FormatNSIDCDaily:
		ds, found := dataset.ByFileName(file)
		if !found {
			return "", nil, false
		}
		return ds.Name, func(r io.Reader) ([]types.Observation, error) { return loadNSIDC(r, ds.Name) }, true
	case types.FormatPIOMASVolume:
		return "piomas-volume", loadVolume, true
	}
	return "", nil, false
}

// Ingest loads the daily series found in dataDir/raw into the
// observations table. A file whose modification time matches the last
// ingest is skipped. Later files overwrite earlier values for the same
// series and date.
func (s *Store) Ingest(ctx context.Context, dataDir string, w io.Writer) (IngestSummary, error) {
	dir := filepath.Join(dataDir, rawDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading raw directory %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var summary IngestSummary
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, load, ok := loaderFor(entry.Name())
		if !ok {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", entry.Name(), err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var stored string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM ingest_status WHERE file = ?`, entry.Name(),
		).Scan(&stored)
		if err == nil && stored == modTime {
			fmt.Fprintf(w, "skipped %s\n", entry.Name())
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		obs, err := readSeries(filepath.Join(dir, entry.Name()), load)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", entry.Name(), err)
			summary.Failed++
			continue
		}
		if err := s.storeSeries(ctx, entry.Name(), modTime, obs); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", entry.Name(), err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s -> %s (%d observations)\n", entry.Name(), name, len(obs))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s -> %s (%d observations)\n", entry.Name(), name, len(obs))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)
	return summary, nil
}

func readSeries(path string, load seriesLoader) ([]types.Observation, error) {
	rc, err := fetch.OpenData(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return load(rc)
}

func (s *Store) storeSeries(ctx context.Context, file, modTime string, obs []types.Observation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO observations (series, date, value) VALUES (?, ?, ?)
		 ON CONFLICT(series, date) DO UPDATE SET value=excluded.value`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range obs {
		if _, err := stmt.ExecContext(ctx, o.Series, o.Date.Format(dateLayout), o.Value); err != nil {
			return fmt.Errorf("inserting %s %s: %w", o.Series, o.Date.Format(dateLayout), err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ingest_status (file, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(file) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		file, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating ingest status: %w", err)
	}
	return tx.Commit()
}

func loadJAXA(r io.Reader, name string) ([]types.Observation, error) {
	tbl, err := parse.JAXAExtent(r)
	if err != nil {
		return nil, err
	}
	return fromTable(name, tbl.YearTable()), nil
}

func loadNSIDC(r io.Reader, name string) ([]types.Observation, error) {
	daily, err := parse.NSIDCDaily(r)
	if err != nil {
		return nil, err
	}
	out := make([]types.Observation, 0, len(daily))
	for _, v := range daily {
		if math.IsNaN(v.Value) {
			continue
		}
		out = append(out, types.Observation{Series: name, Date: v.Date, Value: v.Value})
	}
	return out, nil
}

func loadVolume(r io.Reader) ([]types.Observation, error) {
	tbl, err := parse.PIOMASDailyVolume(r)
	if err != nil {
		return nil, err
	}
	return fromTable("piomas-volume", tbl), nil
}

// fromTable flattens the finite cells of a 365-day table.
func fromTable(name string, t types.YearTable) []types.Observation {
	var out []types.Observation
	for i, y := range t.Years {
		for d, v := range t.Values[i] {
			if math.IsNaN(v) {
				continue
			}
			out = append(out, types.Observation{Series: name, Date: types.NoLeapDate(y, d), Value: v})
		}
	}
	return out
}
