// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Observation is one dated value of a daily series held in the archive.
type Observation struct {
	// Series names the daily series ("jaxa-extent-n", "nsidc-daily-s",
	// "piomas-volume").
	Series string `json:"series" yaml:"series"`

	// Date is the observation day, UTC midnight.
	Date time.Time `json:"date" yaml:"date"`

	// Value is in the series' native unit: km² for JAXA, million km² for
	// NSIDC, thousand km³ for PIOMAS volume.
	Value float64 `json:"value" yaml:"value"`
}
