// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/icevarfigs/internal/archive"
	"github.com/pdiddy/icevarfigs/pkg/types"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage the archive ledger (ingest, query, runs, export)",
	Long: `Archive manages a local SQLite ledger of rendered figures and the daily
observations behind them. Use subcommands to load series, query them,
list past runs, or export.`,
}

// --- ingest subcommand ---

var archiveIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load daily series from downloaded datasets into the ledger",
	Long: `Ingest reads the daily extent and volume files found in data/raw/ and
stores each observation in the ledger. Files unchanged since the last
ingest are skipped.`,
	Args: cobra.NoArgs,
	RunE: runArchiveIngest,
}

func runArchiveIngest(cmd *cobra.Command, args []string) error {
	cfg := archiveConfig(cmd)
	store, err := archive.NewStore(cfg.Archive)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(cmd.Context(), cfg.Fetch.DataDir, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d file(s) failed indexing", summary.Failed)
	}
	return nil
}

// --- query subcommand ---

var archiveQueryCmd = &cobra.Command{
	Use:   "query [series]",
	Short: "Print stored observations",
	Long: `Query prints observations from the ledger, optionally restricted to one
series and a date range. "archive series" lists the stored series names.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runArchiveQuery,
}

func runArchiveQuery(cmd *cobra.Command, args []string) error {
	cfg := archiveConfig(cmd)
	store, err := archive.NewStore(cfg.Archive)
	if err != nil {
		return err
	}
	defer store.Close()

	opts, err := queryOptsFromFlags(cmd, args)
	if err != nil {
		return err
	}
	obs, err := store.Query(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return encodeJSON(obs)
	}
	if len(obs) == 0 {
		fmt.Println("No observations found.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%-20s  %-10s  %s\n", "Series", "Date", "Value")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 50))
	for _, o := range obs {
		fmt.Fprintf(os.Stdout, "%-20s  %-10s  %g\n", o.Series, o.Date.Format("2006-01-02"), o.Value)
	}
	fmt.Fprintf(os.Stdout, "\n%d observations\n", len(obs))
	return nil
}

// --- series subcommand ---

var archiveSeriesCmd = &cobra.Command{
	Use:   "series",
	Short: "List the series stored in the ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := archiveConfig(cmd)
		store, err := archive.NewStore(cfg.Archive)
		if err != nil {
			return err
		}
		defer store.Close()

		names, err := store.Series(cmd.Context())
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

// --- runs subcommand ---

var archiveRunsCmd = &cobra.Command{
	Use:   "runs [recipe]",
	Short: "List recorded figure runs, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runArchiveRuns,
}

func runArchiveRuns(cmd *cobra.Command, args []string) error {
	cfg := archiveConfig(cmd)
	store, err := archive.NewStore(cfg.Archive)
	if err != nil {
		return err
	}
	defer store.Close()

	var recipe string
	if len(args) > 0 {
		recipe = args[0]
	}
	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.Runs(cmd.Context(), recipe, limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return encodeJSON(runs)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}
	fmt.Fprintf(os.Stdout, "%-20s  %-24s  %-10s  %s\n", "Rendered", "Recipe", "Data date", "Output")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, r := range runs {
		dataDate := "-"
		if !r.DataDate.IsZero() {
			dataDate = r.DataDate.Format("2006-01-02")
		}
		fmt.Fprintf(os.Stdout, "%-20s  %-24s  %-10s  %s\n",
			r.RenderedAt.Local().Format("2006-01-02 15:04:05"), r.Recipe, dataDate, r.Output)
		for _, note := range r.Notes {
			fmt.Fprintf(os.Stdout, "%-20s  %s\n", "", note)
		}
	}
	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(runs))
	return nil
}

// --- export subcommand ---

var archiveExportCmd = &cobra.Command{
	Use:   "export [series]",
	Short: "Export the ledger to YAML or JSON",
	Long: `Export writes every recorded run and the observations (optionally
filtered by series and date range) to archive/index/export.yaml or
export.json.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runArchiveExport,
}

func runArchiveExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	cfg := archiveConfig(cmd)
	store, err := archive.NewStore(cfg.Archive)
	if err != nil {
		return err
	}
	defer store.Close()

	opts, err := queryOptsFromFlags(cmd, args)
	if err != nil {
		return err
	}

	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(cmd.Context(), opts)
	case "json":
		path, err = store.ExportJSON(cmd.Context(), opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)
	return nil
}

// --- shared helpers ---

func archiveConfig(cmd *cobra.Command) types.PipelineConfig {
	cfg := pipelineConfig()
	if cmd.Flags().Changed("archive-dir") {
		cfg.Archive.ArchiveDir, _ = cmd.Flags().GetString("archive-dir")
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.Fetch.DataDir, _ = cmd.Flags().GetString("data-dir")
	}
	if cmd.Flags().Changed("max-results") {
		cfg.Archive.MaxResults, _ = cmd.Flags().GetInt("max-results")
	}
	return cfg
}

func queryOptsFromFlags(cmd *cobra.Command, args []string) (archive.QueryOptions, error) {
	series, _ := cmd.Flags().GetString("series")
	if series == "" && len(args) > 0 {
		series = args[0]
	}
	fromFlag, _ := cmd.Flags().GetString("from")
	from, err := parseDate(fromFlag)
	if err != nil {
		return archive.QueryOptions{}, err
	}
	toFlag, _ := cmd.Flags().GetString("to")
	to, err := parseDate(toFlag)
	if err != nil {
		return archive.QueryOptions{}, err
	}
	limit, _ := cmd.Flags().GetInt("limit")

	return archive.QueryOptions{
		Series: series,
		From:   from,
		To:     to,
		Limit:  limit,
	}, nil
}

func encodeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	archiveCmd.PersistentFlags().String("archive-dir", "archive", "base directory for the ledger (contains index/)")
	archiveCmd.PersistentFlags().String("data-dir", "data", "base directory for datasets (contains raw/)")
	archiveCmd.PersistentFlags().Int("max-results", 50, "default maximum number of query results")

	// Query flags.
	archiveQueryCmd.Flags().String("series", "", "filter by series name")
	archiveQueryCmd.Flags().String("from", "", "first date (YYYY-MM-DD)")
	archiveQueryCmd.Flags().String("to", "", "last date (YYYY-MM-DD)")
	archiveQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	archiveQueryCmd.Flags().Bool("json", false, "output results as JSON")

	// Runs flags.
	archiveRunsCmd.Flags().Int("limit", 0, "maximum runs (0 = use default)")
	archiveRunsCmd.Flags().Bool("json", false, "output results as JSON")

	// Export flags.
	archiveExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	archiveExportCmd.Flags().String("series", "", "filter observations by series name")
	archiveExportCmd.Flags().String("from", "", "first date (YYYY-MM-DD)")
	archiveExportCmd.Flags().String("to", "", "last date (YYYY-MM-DD)")

	// Wire subcommands.
	archiveCmd.AddCommand(archiveIngestCmd)
	archiveCmd.AddCommand(archiveQueryCmd)
	archiveCmd.AddCommand(archiveSeriesCmd)
	archiveCmd.AddCommand(archiveRunsCmd)
	archiveCmd.AddCommand(archiveExportCmd)

	rootCmd.AddCommand(archiveCmd)
}
