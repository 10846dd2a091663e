// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads registry datasets over HTTP(S), FTP, or from
// local files into the data directory and records their metadata.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/pdiddy/icevarfigs/internal/observability"
	"github.com/pdiddy/icevarfigs/pkg/types"
)

var (
	// ErrUnsupportedScheme is returned for URLs other than http, https, ftp and file.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")

	// ErrNoSource is returned when a dataset has no remote URL and no local copy.
	ErrNoSource = errors.New("dataset has no remote source")
)

// Fetcher opens and downloads dataset files.
type Fetcher struct {
	client  *http.Client
	cfg     types.FetchConfig
	logger  *zap.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithMetrics records fetch counters.
func WithMetrics(m *observability.Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// WithClock sets the time source used for freshness checks and FetchedAt.
func WithClock(c clockwork.Clock) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.clock = c
		}
	}
}

// New creates a Fetcher. A nil client gets one with cfg.Timeout.
func New(client *http.Client, cfg types.FetchConfig, opts ...Option) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	f := &Fetcher{
		client: client,
		cfg:    cfg,
		logger: zap.NewNop(),
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Config returns the fetch configuration.
func (f *Fetcher) Config() types.FetchConfig { return f.cfg }

// Open returns a reader for rawURL. Supported schemes are http, https, ftp
// and file; a URL without a scheme is treated as a local path. The caller
// closes the reader.
func (f *Fetcher) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing URL %q: %w", rawURL, err)
	}
	switch u.Scheme {
	case "http", "https":
		return f.openHTTP(ctx, u)
	case "ftp":
		return f.openFTP(ctx, u)
	case "file":
		return openFile(filepath.FromSlash(u.Host + u.Path))
	case "":
		return openFile(rawURL)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

func openFile(path string) (io.ReadCloser, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return fh, nil
}

func (f *Fetcher) openHTTP(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	if f.cfg.BearerToken != "" && u.Scheme == "https" {
		req.Header.Set("Authorization", "Bearer "+f.cfg.BearerToken)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, u.Redacted())
	}
	return resp.Body, nil
}

// Download fetches rawURL to destPath through a temporary file in the same
// directory, renamed into place on success. It returns the byte count.
func (f *Fetcher) Download(ctx context.Context, rawURL, destPath string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return 0, fmt.Errorf("creating directory: %w", err)
	}

	body, err := f.Open(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	n, copyErr := io.Copy(tmpFile, body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}
	return n, nil
}

// fresh reports whether path exists and is younger than MaxAge.
func (f *Fetcher) fresh(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if f.cfg.MaxAge <= 0 {
		return true, nil
	}
	return f.clock.Since(info.ModTime()) < f.cfg.MaxAge, nil
}

func (f *Fetcher) count(dataset, outcome string) {
	if f.metrics != nil {
		f.metrics.FetchTotal.WithLabelValues(dataset, outcome).Inc()
	}
}

func (f *Fetcher) now() time.Time { return f.clock.Now() }
