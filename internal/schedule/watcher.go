// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schedule re-renders figures on a cron schedule.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/pdiddy/icevarfigs/internal/observability"
)

// ErrStarted is returned by Add once the watcher is running.
var ErrStarted = errors.New("watcher already started")

// RenderFunc renders the named recipes. An empty list means all recipes.
type RenderFunc func(ctx context.Context, recipes []string) error

// Watcher runs a RenderFunc on one or more cron schedules. A tick that
// fires while the previous run of the same entry is still going is
// skipped.
type Watcher struct {
	cron    *cron.Cron
	render  RenderFunc
	logger  *zap.Logger
	metrics *observability.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
	runs    int
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithMetrics reports the watch_running gauge.
func WithMetrics(m *observability.Metrics) Option {
	return func(w *Watcher) { w.metrics = m }
}

// New creates a stopped Watcher.
func New(render RenderFunc, opts ...Option) *Watcher {
	w := &Watcher{render: render, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(w)
	}
	w.ctx, w.cancel = context.WithCancel(context.Background())
	log := cronLogger{w.logger.Sugar()}
	w.cron = cron.New(
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)
	return w
}

// Add registers recipes to render on spec, a five-field cron expression
// or a descriptor such as "@daily" or "@every 6h".
func (w *Watcher) Add(spec string, recipes []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return ErrStarted
	}
	names := append([]string(nil), recipes...)
	if _, err := w.cron.AddFunc(spec, func() { w.run(w.ctx, spec, names) }); err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	w.logger.Info("scheduled render", zap.String("schedule", spec), zap.Strings("recipes", names))
	return nil
}

// RunNow renders recipes immediately on the calling goroutine.
func (w *Watcher) RunNow(ctx context.Context, recipes []string) error {
	return w.run(ctx, "now", recipes)
}

func (w *Watcher) run(ctx context.Context, spec string, recipes []string) error {
	start := time.Now()
	w.logger.Info("render started", zap.String("schedule", spec), zap.Strings("recipes", recipes))
	err := w.render(ctx, recipes)

	w.mu.Lock()
	w.runs++
	w.mu.Unlock()

	if err != nil {
		w.logger.Warn("render finished with errors",
			zap.String("schedule", spec),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return err
	}
	w.logger.Info("render finished", zap.String("schedule", spec), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Runs returns how many renders have completed.
func (w *Watcher) Runs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

// Next returns the earliest upcoming tick, or the zero time when nothing
// is scheduled or the watcher has not started.
func (w *Watcher) Next() time.Time {
	var next time.Time
	for _, e := range w.cron.Entries() {
		if !e.Next.IsZero() && (next.IsZero() || e.Next.Before(next)) {
			next = e.Next
		}
	}
	return next
}

// Start begins running scheduled renders in the background.
func (w *Watcher) Start() {
	w.mu.Lock()
	w.started = true
	w.mu.Unlock()

	w.cron.Start()
	if w.metrics != nil {
		w.metrics.WatchRunning.Set(1)
	}
	w.logger.Info("watch started", zap.Int("entries", len(w.cron.Entries())))
}

// Stop stops scheduling and waits for running renders to return. If ctx
// ends first the running renders are cancelled and ctx's error returned.
func (w *Watcher) Stop(ctx context.Context) error {
	done := w.cron.Stop()
	if w.metrics != nil {
		w.metrics.WatchRunning.Set(0)
	}
	defer w.cancel()

	select {
	case <-done.Done():
		w.logger.Info("watch stopped")
		return nil
	case <-ctx.Done():
		w.logger.Warn("watch stop timed out, cancelling renders")
		return ctx.Err()
	}
}

// cronLogger routes cron's own messages through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
