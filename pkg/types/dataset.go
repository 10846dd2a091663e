// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DataFormat names the on-disk format of a dataset so the right reader is chosen.
type DataFormat string

const (
	FormatJAXACSV        DataFormat = "jaxa-csv"
	FormatNSIDCDaily     DataFormat = "nsidc-daily-csv"
	FormatNSIDCClim      DataFormat = "nsidc-climatology-csv"
	FormatPIOMASGrid     DataFormat = "piomas-grid"
	FormatPIOMASGridData DataFormat = "piomas-griddata"
	FormatPIOMASBinary   DataFormat = "piomas-binary"
	FormatPIOMASVolume   DataFormat = "piomas-volume"
	FormatGRACE          DataFormat = "grace-text"
	FormatPSLMonthly     DataFormat = "psl-monthly"
	FormatNetCDF         DataFormat = "netcdf"
	FormatNSIDCRegional  DataFormat = "nsidc-regional-xlsx"
)

// Dataset describes a remote source in the registry.
type Dataset struct {
	// Name is the registry key (e.g. "nsidc-daily-n", "piomas-heff-2018").
	Name string `json:"name" yaml:"name"`

	// URL is the remote location: http, https, ftp, or file.
	URL string `json:"url" yaml:"url"`

	// Format selects the parser.
	Format DataFormat `json:"format" yaml:"format"`

	// FileName is the local file name under data/raw/.
	FileName string `json:"file_name" yaml:"file_name"`

	// Description is a one-line human summary.
	Description string `json:"description" yaml:"description"`

	// Homepage is credited in figure source lines.
	Homepage string `json:"homepage,omitempty" yaml:"homepage,omitempty"`
}

// DatasetRecord holds metadata for a fetched dataset, written as YAML
// alongside the raw file.
type DatasetRecord struct {
	Name      string     `json:"name" yaml:"name"`
	SourceURL string     `json:"source_url" yaml:"source_url"`
	Path      string     `json:"path" yaml:"path"`
	Format    DataFormat `json:"format" yaml:"format"`
	Bytes     int64      `json:"bytes" yaml:"bytes"`
	FetchedAt time.Time  `json:"fetched_at" yaml:"fetched_at"`
}
