// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/icevarfigs/internal/dataset"
	"github.com/pdiddy/icevarfigs/pkg/types"
)

const (
	rawDir      = "raw"
	metadataDir = "metadata"
)

// BatchResult holds the outcome of a batch fetch.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
	Records    []*types.DatasetRecord
}

// Total returns the total number of datasets processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any dataset failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// RawPath is where ds lives on disk under dataDir.
func RawPath(dataDir string, ds types.Dataset) string {
	return filepath.Join(dataDir, rawDir, ds.FileName)
}

// MetadataPath is where the DatasetRecord for ds is written.
func MetadataPath(dataDir string, ds types.Dataset) string {
	return filepath.Join(dataDir, metadataDir, ds.Name+".yaml")
}

// FetchDataset downloads ds into the raw directory and writes its metadata
// record. A file younger than MaxAge is kept unless Refresh is set. A
// dataset without a URL must already be on disk.
func (f *Fetcher) FetchDataset(ctx context.Context, ds types.Dataset, w io.Writer) (rec *types.DatasetRecord, skipped bool, err error) {
	rawPath := RawPath(f.cfg.DataDir, ds)
	metaPath := MetadataPath(f.cfg.DataDir, ds)

	if ds.URL == "" {
		if _, statErr := os.Stat(rawPath); statErr != nil {
			f.count(ds.Name, "failed")
			return nil, false, fmt.Errorf("%w: place %s at %s", ErrNoSource, ds.Name, rawPath)
		}
		fmt.Fprintf(w, "skipped: %s (local only)\n", ds.Name)
		f.count(ds.Name, "skipped")
		return f.recordFor(ds, rawPath, metaPath), true, nil
	}

	if !f.cfg.Refresh {
		ok, statErr := f.fresh(rawPath)
		if statErr != nil {
			f.count(ds.Name, "failed")
			return nil, false, fmt.Errorf("checking %s: %w", rawPath, statErr)
		}
		if ok {
			fmt.Fprintf(w, "skipped: %s (fresh)\n", ds.Name)
			f.count(ds.Name, "skipped")
			return f.recordFor(ds, rawPath, metaPath), true, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(metaPath), 0o755); err != nil {
		f.count(ds.Name, "failed")
		return nil, false, fmt.Errorf("creating directory: %w", err)
	}

	fmt.Fprintf(w, "downloading: %s (%s)\n", ds.Name, ds.Format)
	f.logger.Debug("fetching dataset", zap.String("dataset", ds.Name), zap.String("url", ds.URL))

	n, err := f.Download(ctx, ds.URL, rawPath)
	if err != nil {
		f.count(ds.Name, "failed")
		f.logger.Warn("fetch failed", zap.String("dataset", ds.Name), zap.Error(err))
		return nil, false, fmt.Errorf("downloading %s: %w", ds.Name, err)
	}

	rec = &types.DatasetRecord{
		Name:      ds.Name,
		SourceURL: ds.URL,
		Path:      rawPath,
		Format:    ds.Format,
		Bytes:     n,
		FetchedAt: f.now().UTC(),
	}
	if err := writeMetadata(rec, metaPath); err != nil {
		f.count(ds.Name, "failed")
		return nil, false, fmt.Errorf("writing metadata for %s: %w", ds.Name, err)
	}

	f.count(ds.Name, "downloaded")
	if f.metrics != nil {
		f.metrics.FetchBytes.WithLabelValues(ds.Name).Add(float64(n))
	}
	f.logger.Info("fetched dataset", zap.String("dataset", ds.Name), zap.Int64("bytes", n))
	return rec, false, nil
}

// recordFor returns the stored metadata record or a minimal one built
// from the file on disk.
func (f *Fetcher) recordFor(ds types.Dataset, rawPath, metaPath string) *types.DatasetRecord {
	if rec, err := readMetadata(metaPath); err == nil {
		return rec
	}
	rec := &types.DatasetRecord{
		Name:      ds.Name,
		SourceURL: ds.URL,
		Path:      rawPath,
		Format:    ds.Format,
	}
	if info, err := os.Stat(rawPath); err == nil {
		rec.Bytes = info.Size()
		rec.FetchedAt = info.ModTime().UTC()
	}
	return rec
}

// FetchBatch resolves and fetches each identifier, printing per-item status
// and a summary. It continues after individual failures.
func (f *Fetcher) FetchBatch(ctx context.Context, identifiers []string, w io.Writer) BatchResult {
	var result BatchResult
	for _, id := range identifiers {
		if ctx.Err() != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", id, ctx.Err())
			result.Failed++
			continue
		}
		_, ds, err := dataset.Classify(id)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", id, err)
			result.Failed++
			continue
		}
		rec, wasSkipped, err := f.FetchDataset(ctx, ds, w)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", id, err)
			result.Failed++
			continue
		}
		if wasSkipped {
			result.Skipped++
		} else {
			result.Downloaded++
		}
		result.Records = append(result.Records, rec)
	}
	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}

// Ensure returns the local path of the named dataset, fetching it first
// when it is missing or stale. Progress lines go to w.
func (f *Fetcher) Ensure(ctx context.Context, name string, w io.Writer) (string, error) {
	ds, err := dataset.Lookup(name)
	if err != nil {
		return "", err
	}
	rec, _, err := f.FetchDataset(ctx, ds, w)
	if err != nil {
		return "", err
	}
	return rec.Path, nil
}

// Decompress wraps r in a gzip reader when name ends in .gz and returns r
// unchanged otherwise.
func Decompress(r io.Reader, name string) (io.Reader, error) {
	if !strings.HasSuffix(strings.ToLower(name), ".gz") {
		return r, nil
	}
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening gzip %s: %w", name, err)
	}
	return zr, nil
}

// OpenData opens a fetched file, transparently decompressing .gz files.
func OpenData(path string) (io.ReadCloser, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := Decompress(fh, path)
	if err != nil {
		fh.Close()
		return nil, err
	}
	if r == io.Reader(fh) {
		return fh, nil
	}
	return &decompressed{Reader: r, file: fh}, nil
}

type decompressed struct {
	io.Reader
	file *os.File
}

func (d *decompressed) Close() error {
	if c, ok := d.Reader.(io.Closer); ok {
		c.Close()
	}
	return d.file.Close()
}

func writeMetadata(rec *types.DatasetRecord, path string) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadMetadata reads a DatasetRecord YAML file.
func ReadMetadata(path string) (*types.DatasetRecord, error) {
	return readMetadata(path)
}

func readMetadata(path string) (*types.DatasetRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec types.DatasetRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
