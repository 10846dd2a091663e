// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/icevarfigs/internal/figures"
)

var recipesCmd = &cobra.Command{
	Use:   "recipes",
	Short: "List the figure recipes",
	Long: `Recipes prints every figure recipe with a short description and the
datasets it reads as of today.`,
	Args: cobra.NoArgs,
	RunE: runRecipes,
}

func init() {
	rootCmd.AddCommand(recipesCmd)
}

func runRecipes(cmd *cobra.Command, args []string) error {
	now := figures.Today()
	for _, r := range figures.List() {
		fmt.Fprintf(os.Stdout, "%s\n  %s\n", r.Name(), r.Description())
		names := r.Datasets(now)
		if len(names) > 4 {
			names = append(names[:2:2], fmt.Sprintf("... %d more", len(names)-3), names[len(names)-1])
		}
		fmt.Fprintf(os.Stdout, "  datasets: %s\n", strings.Join(names, ", "))
	}
	return nil
}
