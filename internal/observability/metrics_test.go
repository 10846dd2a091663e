// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	switch {
	case out.Counter != nil:
		return out.GetCounter().GetValue()
	case out.Gauge != nil:
		return out.GetGauge().GetValue()
	case out.Histogram != nil:
		return float64(out.GetHistogram().GetSampleCount())
	}
	t.Fatalf("unexpected metric type")
	return 0
}

func TestNewMetricsForTesting(t *testing.T) {
	m := NewMetricsForTesting()

	m.FetchTotal.WithLabelValues("jaxa-extent-n", "downloaded").Inc()
	m.FetchBytes.WithLabelValues("jaxa-extent-n").Add(2048)
	m.RenderTotal.WithLabelValues("psl-rank-mesh", "rendered").Inc()
	m.RenderTotal.WithLabelValues("psl-rank-mesh", "rendered").Inc()
	m.WatchRunning.Set(1)

	assert.Equal(t, 1.0, value(t, m.FetchTotal.WithLabelValues("jaxa-extent-n", "downloaded")))
	assert.Equal(t, 2048.0, value(t, m.FetchBytes.WithLabelValues("jaxa-extent-n")))
	assert.Equal(t, 2.0, value(t, m.RenderTotal.WithLabelValues("psl-rank-mesh", "rendered")))
	assert.Equal(t, 1.0, value(t, m.WatchRunning))
}

func TestNewMetricsForTestingIsolated(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()
	a.WatchRunning.Set(1)
	assert.Equal(t, 0.0, value(t, b.WatchRunning))
}

func TestRenderDurationByOutcome(t *testing.T) {
	m := NewMetricsForTesting()
	m.RenderDuration.WithLabelValues("oisst-enso", "failed").Observe(0.2)
	m.RenderDuration.WithLabelValues("oisst-enso", "rendered").Observe(1.5)
	m.RenderDuration.WithLabelValues("oisst-enso", "rendered").Observe(2.5)

	failed := m.RenderDuration.WithLabelValues("oisst-enso", "failed").(prometheus.Histogram)
	rendered := m.RenderDuration.WithLabelValues("oisst-enso", "rendered").(prometheus.Histogram)
	assert.Equal(t, 1.0, value(t, failed))
	assert.Equal(t, 2.0, value(t, rendered))
}
