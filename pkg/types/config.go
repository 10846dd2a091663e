package types

import "time"

// FetchConfig holds settings for the fetch stage.
type FetchConfig struct {
	// Timeout bounds each HTTP request. FTP transfers use it as the dial
	// timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is sent on HTTP requests. Some data portals reject the Go
	// default.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// DataDir is the base directory for datasets (contains raw/, metadata/).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxAge is how old a raw file may be before it is downloaded again.
	// Zero means any existing file is reused.
	MaxAge time.Duration `json:"max_age" yaml:"max_age"`

	// Refresh forces a download even if the raw file is fresh.
	Refresh bool `json:"refresh" yaml:"refresh"`

	// FTPUser and FTPPassword are used for ftp:// sources. Empty means
	// anonymous login.
	FTPUser     string `json:"ftp_user,omitempty" yaml:"ftp_user,omitempty"`
	FTPPassword string `json:"-" yaml:"-"`

	// BearerToken is sent on HTTPS requests when set (NASA Earthdata).
	BearerToken string `json:"-" yaml:"-"`

	// GRACERelease is the YYYYMM end month in the GRACE mass file names.
	// JPL renames the files with every data release.
	GRACERelease string `json:"grace_release" yaml:"grace_release"`
}

// StyleConfig controls the fixed figure style. Colors are names understood
// by render.ParseColor ("black", "white", "darkgrey", "#rrggbb").
type StyleConfig struct {
	Background string  `json:"background" yaml:"background"`
	Foreground string  `json:"foreground" yaml:"foreground"`
	Axis       string  `json:"axis" yaml:"axis"`
	Highlight  string  `json:"highlight" yaml:"highlight"`
	Muted      string  `json:"muted" yaml:"muted"`
	FontSize   float64 `json:"font_size" yaml:"font_size"`
	LineWidth  float64 `json:"line_width" yaml:"line_width"`
}

// RenderConfig holds settings for the render stage.
type RenderConfig struct {
	// FiguresDir is where rendered figures and their manifests are written.
	FiguresDir string `json:"figures_dir" yaml:"figures_dir"`

	// Width and Height are the figure size in inches.
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`

	// Format is the output extension: png, svg, or pdf. Animations are always gif.
	Format string `json:"format" yaml:"format"`

	// FrameDelay is the delay between animation frames.
	FrameDelay time.Duration `json:"frame_delay" yaml:"frame_delay"`

	Style StyleConfig `json:"style" yaml:"style"`
}

// ArchiveConfig holds settings for the run ledger.
type ArchiveConfig struct {
	// ArchiveDir is the base directory for the ledger (contains index/).
	ArchiveDir string `json:"archive_dir" yaml:"archive_dir"`

	// MaxResults is the default maximum number of query results (default 50).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// WatchConfig holds settings for scheduled rendering.
type WatchConfig struct {
	// Schedule is a cron expression (five fields, or a descriptor like "@daily").
	Schedule string `json:"schedule" yaml:"schedule"`

	// Recipes lists the recipe names rendered on each tick. Empty means all.
	Recipes []string `json:"recipes" yaml:"recipes"`

	// MetricsAddr, when set, serves Prometheus metrics at /metrics.
	MetricsAddr string `json:"metrics_addr" yaml:"metrics_addr"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Fetch   FetchConfig   `json:"fetch" yaml:"fetch"`
	Render  RenderConfig  `json:"render" yaml:"render"`
	Archive ArchiveConfig `json:"archive" yaml:"archive"`
	Watch   WatchConfig   `json:"watch" yaml:"watch"`
}

// DefaultPipelineConfig returns the built-in defaults. Config files and flags
// override individual fields.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Fetch: FetchConfig{
			Timeout:      2 * time.Minute,
			UserAgent:    "icevarfigs/0.1",
			DataDir:      "data",
			MaxAge:       6 * time.Hour,
			GRACERelease: "202311",
		},
		Render: RenderConfig{
			FiguresDir: "figures",
			Width:      8,
			Height:     6,
			Format:     "png",
			FrameDelay: 120 * time.Millisecond,
			Style:      DefaultStyle(),
		},
		Archive: ArchiveConfig{
			ArchiveDir: "archive",
			MaxResults: 50,
		},
		Watch: WatchConfig{
			Schedule: "0 7 * * *",
		},
	}
}

// DefaultStyle is the dark social-media style.
func DefaultStyle() StyleConfig {
	return StyleConfig{
		Background: "black",
		Foreground: "white",
		Axis:       "darkgrey",
		Highlight:  "#ff4d4d",
		Muted:      "dimgrey",
		FontSize:   11,
		LineWidth:  1.5,
	}
}
