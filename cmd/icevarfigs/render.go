// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/icevarfigs/internal/archive"
	"github.com/pdiddy/icevarfigs/internal/fetch"
	"github.com/pdiddy/icevarfigs/internal/figures"
	"github.com/pdiddy/icevarfigs/internal/observability"
	"github.com/pdiddy/icevarfigs/pkg/types"
)

var renderCmd = &cobra.Command{
	Use:   "render [recipes...]",
	Short: "Render figures from fresh datasets",
	Long: `Render fetches the datasets each recipe needs and draws the figure or
animation into the figures directory, with a YAML manifest next to it.
Each rendered figure is recorded in the archive ledger unless
--archive=false is given.`,
	RunE: runRender,
}

func init() {
	addFetchFlags(renderCmd)
	addRenderFlags(renderCmd)
	renderCmd.Flags().Bool("all", false, "render every recipe")
	renderCmd.Flags().String("date", "", "override today's date (YYYY-MM-DD)")
	renderCmd.Flags().Int("month", 0, "start month (1-12) for recipes that take one (default current)")

	rootCmd.AddCommand(renderCmd)
}

// addRenderFlags registers the flags shared by render and watch.
func addRenderFlags(cmd *cobra.Command) {
	cmd.Flags().String("figures-dir", "figures", "output directory for figures")
	cmd.Flags().String("format", "", "image format: png, svg or pdf (default png)")
	cmd.Flags().Bool("archive", true, "record rendered figures in the archive ledger")
	cmd.Flags().String("archive-dir", "archive", "base directory for the archive ledger")
}

// applyRenderFlags overrides cfg with the render flags the user set.
func applyRenderFlags(cmd *cobra.Command, cfg *types.PipelineConfig) {
	if cmd.Flags().Changed("figures-dir") {
		cfg.Render.FiguresDir, _ = cmd.Flags().GetString("figures-dir")
	}
	if format, _ := cmd.Flags().GetString("format"); format != "" {
		cfg.Render.Format = format
	}
	if cmd.Flags().Changed("archive-dir") {
		cfg.Archive.ArchiveDir, _ = cmd.Flags().GetString("archive-dir")
	}
}

func runRender(cmd *cobra.Command, args []string) error {
	names := args
	if all, _ := cmd.Flags().GetBool("all"); all {
		names = figures.Names()
	}
	if len(names) == 0 {
		return fmt.Errorf("provide one or more recipe names, or --all")
	}

	dateFlag, _ := cmd.Flags().GetString("date")
	date, err := parseDate(dateFlag)
	if err != nil {
		return err
	}
	month, _ := cmd.Flags().GetInt("month")
	if month < 0 || month > 12 {
		return fmt.Errorf("--month must be between 1 and 12, got %d", month)
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg := pipelineConfig()
	applyFetchFlags(cmd, &cfg.Fetch)
	applyRenderFlags(cmd, &cfg)
	record, _ := cmd.Flags().GetBool("archive")

	job := renderJob{
		cfg:     cfg,
		logger:  logger,
		date:    date,
		month:   month,
		archive: record,
	}
	return job.run(cmd.Context(), names, os.Stdout)
}

// renderJob is one render pass, shared by the render and watch commands.
type renderJob struct {
	cfg     types.PipelineConfig
	logger  *zap.Logger
	metrics *observability.Metrics
	date    time.Time
	month   int
	archive bool
}

// run renders names (all recipes when empty) and records each rendered
// figure in the ledger. It returns an error when any recipe failed.
func (j renderJob) run(ctx context.Context, names []string, w io.Writer) error {
	if len(names) == 0 {
		names = figures.Names()
	}

	f := newFetcher(j.cfg.Fetch, j.logger, fetch.WithMetrics(j.metrics))
	r, err := figures.NewRenderer(f, j.cfg.Render,
		figures.WithLogger(j.logger),
		figures.WithMetrics(j.metrics),
		figures.WithDate(j.date),
		figures.WithMonth(j.month),
	)
	if err != nil {
		return err
	}

	result := r.RenderBatch(ctx, names, w)
	if j.archive && len(result.Records) > 0 {
		if err := recordRuns(ctx, j.cfg.Archive, result.Records, w); err != nil {
			return err
		}
	}
	if result.HasFailures() {
		return fmt.Errorf("%d figure(s) failed to render", result.Failed)
	}
	return nil
}

// recordRuns writes each rendered figure to the archive ledger.
func recordRuns(ctx context.Context, cfg types.ArchiveConfig, records []types.FigureRecord, w io.Writer) error {
	store, err := archive.NewStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, rec := range records {
		id, err := store.RecordRun(ctx, rec)
		if err != nil {
			return fmt.Errorf("recording %s: %w", rec.Recipe, err)
		}
		fmt.Fprintf(w, "archived: %s (run %s)\n", rec.Recipe, id)
	}
	return nil
}
