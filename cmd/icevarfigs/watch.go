// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/icevarfigs/internal/figures"
	"github.com/pdiddy/icevarfigs/internal/observability"
	"github.com/pdiddy/icevarfigs/internal/schedule"
)

const defaultShutdownTimeout = 30 * time.Second

var watchCmd = &cobra.Command{
	Use:   "watch [recipes...]",
	Short: "Render figures on a cron schedule",
	Long: `Watch renders the named recipes (or watch.recipes from the config file,
or every recipe) each time the cron schedule fires, until interrupted.
A tick that fires while the previous render is still running is skipped.

With --metrics-addr, Prometheus metrics are served at /metrics.`,
	RunE: runWatch,
}

func init() {
	addFetchFlags(watchCmd)
	addRenderFlags(watchCmd)
	watchCmd.Flags().String("schedule", "", `cron expression or descriptor such as "@every 6h" (default "0 7 * * *")`)
	watchCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	watchCmd.Flags().Bool("now", false, "render once immediately before waiting for the schedule")
	watchCmd.Flags().Duration("shutdown-timeout", defaultShutdownTimeout, "how long to wait for a running render on shutdown")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg := pipelineConfig()
	applyFetchFlags(cmd, &cfg.Fetch)
	applyRenderFlags(cmd, &cfg)
	if spec, _ := cmd.Flags().GetString("schedule"); spec != "" {
		cfg.Watch.Schedule = spec
	}
	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		cfg.Watch.MetricsAddr = addr
	}
	recipes := cfg.Watch.Recipes
	if len(args) > 0 {
		recipes = args
	}
	for _, name := range recipes {
		if _, err := figures.Lookup(name); err != nil {
			return err
		}
	}
	record, _ := cmd.Flags().GetBool("archive")
	shutdownTimeout, _ := cmd.Flags().GetDuration("shutdown-timeout")

	metrics := observability.NewMetrics()
	job := renderJob{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		archive: record,
	}
	w := schedule.New(
		func(ctx context.Context, names []string) error { return job.run(ctx, names, os.Stdout) },
		schedule.WithLogger(logger),
		schedule.WithMetrics(metrics),
	)
	if err := w.Add(cfg.Watch.Schedule, recipes); err != nil {
		return err
	}

	ctx := cmd.Context()

	var srv *observability.Server
	if cfg.Watch.MetricsAddr != "" {
		srv = observability.NewServer(cfg.Watch.MetricsAddr, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	if now, _ := cmd.Flags().GetBool("now"); now {
		if err := w.RunNow(ctx, recipes); err != nil {
			fmt.Fprintf(os.Stderr, "initial render: %v\n", err)
		}
	}

	w.Start()
	fmt.Fprintf(os.Stdout, "watching: %s (next run %s)\n", cfg.Watch.Schedule, w.Next().Local().Format(time.RFC3339))

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", zap.Error(err))
		}
	}
	return w.Stop(shutdownCtx)
}
