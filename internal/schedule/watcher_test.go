// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/icevarfigs/internal/observability"
)

func gauge(t *testing.T, m *observability.Metrics) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.WatchRunning.Write(&out))
	return out.GetGauge().GetValue()
}

func TestAddRejectsBadSchedule(t *testing.T) {
	w := New(func(context.Context, []string) error { return nil })
	assert.Error(t, w.Add("every tuesday", nil))
	assert.NoError(t, w.Add("0 7 * * *", nil))
	assert.NoError(t, w.Add("@daily", []string{"jaxa-moving-lines"}))
}

func TestAddAfterStart(t *testing.T) {
	w := New(func(context.Context, []string) error { return nil })
	w.Start()
	defer w.Stop(context.Background())
	assert.ErrorIs(t, w.Add("@daily", nil), ErrStarted)
}

func TestRunNow(t *testing.T) {
	var got []string
	boom := errors.New("boom")
	w := New(func(_ context.Context, recipes []string) error {
		got = recipes
		if len(recipes) == 0 {
			return boom
		}
		return nil
	})

	require.NoError(t, w.RunNow(context.Background(), []string{"psl-rank-mesh"}))
	assert.Equal(t, []string{"psl-rank-mesh"}, got)
	assert.ErrorIs(t, w.RunNow(context.Background(), nil), boom)
	assert.Equal(t, 2, w.Runs())
}

func TestScheduledRun(t *testing.T) {
	var calls atomic.Int32
	metrics := observability.NewMetricsForTesting()
	w := New(func(_ context.Context, recipes []string) error {
		assert.Equal(t, []string{"grace-land-ice"}, recipes)
		calls.Add(1)
		return nil
	}, WithMetrics(metrics))
	require.NoError(t, w.Add("@every 1s", []string{"grace-land-ice"}))
	assert.True(t, w.Next().IsZero())

	w.Start()
	assert.Equal(t, 1.0, gauge(t, metrics))
	assert.False(t, w.Next().IsZero())

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	require.NoError(t, w.Stop(context.Background()))
	assert.Equal(t, 0.0, gauge(t, metrics))
	assert.GreaterOrEqual(t, w.Runs(), 1)
}

func TestOverlappingTicksAreSkipped(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	w := New(func(ctx context.Context, _ []string) error {
		calls.Add(1)
		<-release
		return nil
	})
	require.NoError(t, w.Add("@every 1s", nil))
	w.Start()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 3*time.Second, 20*time.Millisecond)
	// At least one more tick fires while the first render is blocked.
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	close(release)
	require.NoError(t, w.Stop(context.Background()))
}

func TestStopCancelsRendersAfterDeadline(t *testing.T) {
	started := make(chan struct{})
	finished := make(chan error, 1)
	w := New(func(ctx context.Context, _ []string) error {
		close(started)
		<-ctx.Done()
		finished <- ctx.Err()
		return ctx.Err()
	})
	require.NoError(t, w.Add("@every 1s", nil))
	w.Start()

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("render never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Stop(ctx), context.DeadlineExceeded)

	select {
	case err := <-finished:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("render was not cancelled")
	}
}
