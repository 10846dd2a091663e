// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// FigureRecord describes one rendered figure. It is written as a YAML
// manifest next to the image and recorded in the archive ledger.
type FigureRecord struct {
	// RunID is assigned by the archive when the run is recorded.
	RunID string `json:"run_id,omitempty" yaml:"run_id,omitempty"`

	// Recipe is the recipe name that produced the figure.
	Recipe string `json:"recipe" yaml:"recipe"`

	// Output is the path of the image or animation.
	Output string `json:"output" yaml:"output"`

	// DataDate is the date of the most recent observation shown.
	DataDate time.Time `json:"data_date" yaml:"data_date"`

	// RenderedAt is when the figure was written.
	RenderedAt time.Time `json:"rendered_at" yaml:"rendered_at"`

	// Datasets lists the dataset names read by the recipe.
	Datasets []string `json:"datasets" yaml:"datasets"`

	// Metrics holds headline numbers (e.g. "extent_km2", "anomaly_km2").
	Metrics map[string]float64 `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// Notes carries short human-readable findings ("record low for the date").
	Notes []string `json:"notes,omitempty" yaml:"notes,omitempty"`
}
