// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package figures holds the recipes: one linear fetch, parse, compute,
// plot and save path per figure. A recipe reads local dataset files,
// renders one image or animation, and describes it in a FigureRecord that
// is written as a YAML manifest next to the output.
package figures

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/icevarfigs/internal/fetch"
	"github.com/pdiddy/icevarfigs/internal/observability"
	"github.com/pdiddy/icevarfigs/internal/render"
	"github.com/pdiddy/icevarfigs/pkg/types"
)

var (
	// ErrUnknownRecipe is returned for names not in the registry.
	ErrUnknownRecipe = errors.New("unknown recipe")

	// ErrNoData is returned when an input has nothing for the requested
	// period (no column for the current year, no available month).
	ErrNoData = errors.New("no data for period")
)

// Recipe renders one figure from local dataset files.
type Recipe interface {
	// Name is the registry key, also used in output file names.
	Name() string

	// Description is a one-line summary for listings.
	Description() string

	// Datasets returns the registry names the recipe reads on the given day.
	// Templated names (piomas-heff-2025) depend on it. A recipe may read the
	// previous year's files instead when the current year's are missing.
	Datasets(now time.Time) []string

	// Render draws the figure and returns its record. Recipe, Datasets and
	// RenderedAt are filled in by the caller.
	Render(ctx context.Context, in Inputs) (types.FigureRecord, error)
}

// recipe is the function-backed Recipe every registered figure uses.
type recipe struct {
	name     string
	desc     string
	datasets func(now time.Time) []string
	render   func(ctx context.Context, in Inputs) (types.FigureRecord, error)
}

func (r recipe) Name() string                    { return r.name }
func (r recipe) Description() string             { return r.desc }
func (r recipe) Datasets(now time.Time) []string { return r.datasets(now) }

func (r recipe) Render(ctx context.Context, in Inputs) (types.FigureRecord, error) {
	return r.render(ctx, in)
}

// fixed returns a Datasets func that ignores the date.
func fixed(names ...string) func(time.Time) []string {
	return func(time.Time) []string { return names }
}

var registry = map[string]Recipe{}

func register(r Recipe) {
	if _, dup := registry[r.Name()]; dup {
		panic("figures: duplicate recipe " + r.Name())
	}
	registry[r.Name()] = r
}

// Lookup returns the named recipe.
func Lookup(name string) (Recipe, error) {
	r, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRecipe, name)
	}
	return r, nil
}

// List returns every recipe sorted by name.
func List() []Recipe {
	out := make([]Recipe, 0, len(registry))
	for _, r := range registry {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Names returns every recipe name, sorted.
func Names() []string {
	var names []string
	for _, r := range List() {
		names = append(names, r.Name())
	}
	return names
}

var clock = clockwork.NewRealClock()

// SetClock replaces the package clock, returning a func that restores it.
func SetClock(c clockwork.Clock) (restore func()) {
	prev := clock
	clock = c
	return func() { clock = prev }
}

// Today returns the current UTC date at midnight.
func Today() time.Time {
	return midnight(clock.Now())
}

func midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// BatchResult holds the outcome of a batch render.
type BatchResult struct {
	Rendered int
	Failed   int
	Records  []types.FigureRecord
}

// Total returns the number of recipes attempted.
func (r BatchResult) Total() int {
	return r.Rendered + r.Failed
}

// HasFailures reports whether any recipe failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Renderer fetches recipe inputs and renders figures.
type Renderer struct {
	fetcher *fetch.Fetcher
	cfg     types.RenderConfig
	style   render.Style
	logger  *zap.Logger
	metrics *observability.Metrics
	date    time.Time
	month   int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics records render counters and durations.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Renderer) { r.metrics = m }
}

// WithDate overrides "today". The zero time uses the package clock.
func WithDate(d time.Time) Option {
	return func(r *Renderer) { r.date = d }
}

// WithMonth sets the start month for recipes that take one. Zero means
// the current month.
func WithMonth(m int) Option {
	return func(r *Renderer) { r.month = m }
}

// NewRenderer creates a Renderer. The style colors in cfg are resolved
// here so a bad color fails before anything is fetched.
func NewRenderer(f *fetch.Fetcher, cfg types.RenderConfig, opts ...Option) (*Renderer, error) {
	style, err := render.StyleFrom(cfg.Style)
	if err != nil {
		return nil, fmt.Errorf("figure style: %w", err)
	}
	r := &Renderer{fetcher: f, cfg: cfg, style: style, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Renderer) today() time.Time {
	if !r.date.IsZero() {
		return midnight(r.date)
	}
	return Today()
}

// RenderRecipe renders a recipe, fetching each dataset the first time the
// recipe opens it, and writes the manifest. Progress lines go to w.
func (r *Renderer) RenderRecipe(ctx context.Context, rec Recipe, w io.Writer) (fig types.FigureRecord, err error) {
	now := r.today()
	in := Inputs{
		Paths:      map[string]string{},
		Today:      now,
		OutDir:     r.cfg.FiguresDir,
		Format:     r.cfg.Format,
		Width:      r.cfg.Width,
		Height:     r.cfg.Height,
		FrameDelay: r.cfg.FrameDelay,
		Month:      r.month,
		Style:      r.style,
		fetch: func(name string) (string, error) {
			return r.fetcher.Ensure(ctx, name, w)
		},
	}

	start := clock.Now()
	defer func() {
		if r.metrics == nil {
			return
		}
		outcome := "rendered"
		if err != nil {
			outcome = "failed"
		}
		r.metrics.RenderDuration.WithLabelValues(rec.Name(), outcome).Observe(clock.Since(start).Seconds())
	}()

	fig, err = rec.Render(ctx, in)
	if err != nil {
		return types.FigureRecord{}, err
	}
	fig.Recipe = rec.Name()
	fig.Datasets = make([]string, 0, len(in.Paths))
	for name := range in.Paths {
		fig.Datasets = append(fig.Datasets, name)
	}
	sort.Strings(fig.Datasets)
	fig.RenderedAt = clock.Now().UTC()

	if err := writeManifest(fig); err != nil {
		return types.FigureRecord{}, err
	}

	if r.metrics != nil {
		r.metrics.LastRender.WithLabelValues(rec.Name()).Set(float64(fig.RenderedAt.Unix()))
	}
	r.logger.Info("rendered figure",
		zap.String("recipe", rec.Name()),
		zap.String("output", fig.Output),
		zap.Strings("datasets", fig.Datasets),
		zap.Duration("elapsed", clock.Since(start)),
	)
	return fig, nil
}

// RenderBatch renders the named recipes, printing per-recipe status to w
// and a summary. It continues after individual failures.
func (r *Renderer) RenderBatch(ctx context.Context, names []string, w io.Writer) BatchResult {
	var result BatchResult
	for _, name := range names {
		if ctx.Err() != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", name, ctx.Err())
			r.count(name, "failed")
			result.Failed++
			continue
		}
		rec, err := Lookup(name)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
			result.Failed++
			continue
		}
		fig, err := r.RenderRecipe(ctx, rec, w)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
			r.logger.Warn("render failed", zap.String("recipe", name), zap.Error(err))
			r.count(name, "failed")
			result.Failed++
			continue
		}
		fmt.Fprintf(w, "rendered: %s -> %s\n", name, fig.Output)
		r.count(name, "rendered")
		result.Rendered++
		result.Records = append(result.Records, fig)
	}
	fmt.Fprintf(w, "\nBatch summary: %d rendered, %d failed (total: %d)\n",
		result.Rendered, result.Failed, result.Total())
	return result
}

func (r *Renderer) count(recipe, outcome string) {
	if r.metrics != nil {
		r.metrics.RenderTotal.WithLabelValues(recipe, outcome).Inc()
	}
}

// ManifestPath returns the manifest location for a figure output.
func ManifestPath(output string) string {
	return output + ".yaml"
}

func writeManifest(fig types.FigureRecord) error {
	data, err := yaml.Marshal(fig)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(ManifestPath(fig.Output), data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a figure manifest.
func ReadManifest(path string) (types.FigureRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.FigureRecord{}, err
	}
	var fig types.FigureRecord
	if err := yaml.Unmarshal(data, &fig); err != nil {
		return types.FigureRecord{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return fig, nil
}
