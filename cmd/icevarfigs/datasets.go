// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/icevarfigs/internal/dataset"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the datasets icevarfigs can download",
	Long: `Datasets prints the registry of known datasets with their on-disk format
and source URL. Templated names (YYYY or YYYYMM) stand for one file per year
or month.`,
	Args: cobra.NoArgs,
	RunE: runDatasets,
}

func init() {
	datasetsCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(datasetsCmd)
}

func runDatasets(cmd *cobra.Command, args []string) error {
	entries := dataset.List()

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	fmt.Fprintf(os.Stdout, "%-24s  %-16s  %s\n", "Name", "Format", "URL")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, e := range entries {
		url := e.URL
		if url == "" {
			url = "(local file)"
		}
		fmt.Fprintf(os.Stdout, "%-24s  %-16s  %s\n", e.Name, e.Format, url)
	}
	fmt.Fprintf(os.Stdout, "\n%d datasets\n", len(entries))
	return nil
}
