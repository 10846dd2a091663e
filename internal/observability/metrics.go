// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package observability defines the Prometheus collectors shared by the
// fetch, figures and schedule packages.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "icevarfigs"

// Metrics holds the Prometheus counters, histograms, and gauges for fetch and render.
type Metrics struct {
	FetchTotal *prometheus.CounterVec // labels: dataset, outcome={downloaded,skipped,failed}
	FetchBytes *prometheus.CounterVec // labels: dataset

	RenderTotal    *prometheus.CounterVec   // labels: recipe, outcome={rendered,failed}
	RenderDuration *prometheus.HistogramVec // labels: recipe, outcome={rendered,failed}
	LastRender     *prometheus.GaugeVec     // labels: recipe

	WatchRunning prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Dataset fetches by dataset and outcome.",
		}, []string{"dataset", "outcome"}),
		FetchBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_bytes_total",
			Help:      "Bytes downloaded per dataset.",
		}, []string{"dataset"}),
		RenderTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_total",
			Help:      "Figure renders by recipe and outcome.",
		}, []string{"recipe", "outcome"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of a recipe render including fetching, parsing and plotting, by outcome.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"recipe", "outcome"}),
		LastRender: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_render_timestamp_seconds",
			Help:      "Unix time of the last successful render per recipe.",
		}, []string{"recipe"}),
		WatchRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watch_running",
			Help:      "1 while the watch scheduler is active, 0 otherwise.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchTotal,
		m.FetchBytes,
		m.RenderTotal,
		m.RenderDuration,
		m.LastRender,
		m.WatchRunning,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests
// can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
