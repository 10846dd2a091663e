// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/icevarfigs/internal/dataset"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [datasets...]",
	Short: "Download datasets into the data directory",
	Long: `Fetch downloads the named datasets (see "icevarfigs datasets") into
data/raw/ and writes a metadata record for each to data/metadata/. A raw
file younger than --max-age is reused unless --refresh is given.`,
	RunE: runFetch,
}

func init() {
	addFetchFlags(fetchCmd)
	fetchCmd.Flags().Bool("all", false, "fetch every non-templated dataset")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	names := args
	if all, _ := cmd.Flags().GetBool("all"); all {
		names = dataset.Names()
	}
	if len(names) == 0 {
		return fmt.Errorf("provide one or more dataset names, or --all")
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg := pipelineConfig()
	applyFetchFlags(cmd, &cfg.Fetch)

	f := newFetcher(cfg.Fetch, logger)
	result := f.FetchBatch(cmd.Context(), names, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d dataset(s) failed to download", result.Failed)
	}
	return nil
}

