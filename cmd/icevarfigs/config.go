// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/icevarfigs/internal/fetch"
	"github.com/pdiddy/icevarfigs/pkg/types"
)

// envKeyReplacer maps nested keys such as fetch.data_dir to
// ICEVARFIGS_FETCH_DATA_DIR.
var envKeyReplacer = strings.NewReplacer(".", "_")

// pipelineConfig layers the config file and environment over the built-in
// defaults and applies loaded secrets. Subcommand flags are applied on top
// by the caller.
func pipelineConfig() types.PipelineConfig {
	cfg := types.DefaultPipelineConfig()

	configString(&cfg.Fetch.UserAgent, "fetch.user_agent")
	configDuration(&cfg.Fetch.Timeout, "fetch.timeout")
	configString(&cfg.Fetch.DataDir, "fetch.data_dir")
	configDuration(&cfg.Fetch.MaxAge, "fetch.max_age")
	configString(&cfg.Fetch.FTPUser, "fetch.ftp_user")
	configString(&cfg.Fetch.GRACERelease, "fetch.grace_release")

	configString(&cfg.Render.FiguresDir, "render.figures_dir")
	configFloat(&cfg.Render.Width, "render.width")
	configFloat(&cfg.Render.Height, "render.height")
	configString(&cfg.Render.Format, "render.format")
	configDuration(&cfg.Render.FrameDelay, "render.frame_delay")
	configString(&cfg.Render.Style.Background, "render.style.background")
	configString(&cfg.Render.Style.Foreground, "render.style.foreground")
	configString(&cfg.Render.Style.Axis, "render.style.axis")
	configString(&cfg.Render.Style.Highlight, "render.style.highlight")
	configString(&cfg.Render.Style.Muted, "render.style.muted")
	configFloat(&cfg.Render.Style.FontSize, "render.style.font_size")
	configFloat(&cfg.Render.Style.LineWidth, "render.style.line_width")

	configString(&cfg.Archive.ArchiveDir, "archive.archive_dir")
	if viper.IsSet("archive.max_results") {
		cfg.Archive.MaxResults = viper.GetInt("archive.max_results")
	}

	configString(&cfg.Watch.Schedule, "watch.schedule")
	configString(&cfg.Watch.MetricsAddr, "watch.metrics_addr")
	if viper.IsSet("watch.recipes") {
		cfg.Watch.Recipes = viper.GetStringSlice("watch.recipes")
	}

	loadedSecrets.Apply(&cfg.Fetch)
	return cfg
}

func configString(dst *string, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetString(key)
	}
}

func configDuration(dst *time.Duration, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetDuration(key)
	}
}

func configFloat(dst *float64, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetFloat64(key)
	}
}

// addFetchFlags registers the flags shared by every command that
// downloads datasets.
func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().String("data-dir", "data", "base directory for datasets")
	cmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 2m)")
	cmd.Flags().Duration("max-age", 0, "re-download raw files older than this (default 6h)")
	cmd.Flags().Bool("refresh", false, "download datasets even if the local copy is fresh")
}

// applyFetchFlags overrides cfg with the fetch flags the user set.
func applyFetchFlags(cmd *cobra.Command, cfg *types.FetchConfig) {
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.Timeout = timeout
	}
	if maxAge, _ := cmd.Flags().GetDuration("max-age"); maxAge > 0 {
		cfg.MaxAge = maxAge
	}
	if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
		cfg.Refresh = true
	}
}

// newFetcher builds a Fetcher whose HTTP client honors cfg.Timeout.
func newFetcher(cfg types.FetchConfig, logger *zap.Logger, opts ...fetch.Option) *fetch.Fetcher {
	client := &http.Client{
		Timeout: cfg.Timeout,
	}
	return fetch.New(client, cfg, append([]fetch.Option{fetch.WithLogger(logger)}, opts...)...)
}

// newLogger builds the structured logger from --log-level and
// --log-format. Logs go to stderr so progress lines on stdout stay clean.
func newLogger() (*zap.Logger, error) {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	format, _ := rootCmd.PersistentFlags().GetString("log-format")

	var zc zap.Config
	switch format {
	case "json":
		zc = zap.NewProductionConfig()
	case "console", "":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q (want console or json)", format)
	}

	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	zc.Level = lvl
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

// parseDate parses a YYYY-MM-DD flag value. An empty value yields the
// zero time.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q (want YYYY-MM-DD): %w", value, err)
	}
	return t, nil
}
