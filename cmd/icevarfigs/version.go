// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/pdiddy/icevarfigs/internal/dataset"
	"github.com/pdiddy/icevarfigs/internal/figures"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the icevarfigs version and build details",
	Long: `Print the icevarfigs version. Without --short it also prints the Go
toolchain, the VCS revision the binary was built from, and how many recipes
and datasets are registered.`,
	RunE: runVersion,
}

func init() {
	versionCmd.Flags().Bool("short", false, "print only the version")
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	short, _ := cmd.Flags().GetBool("short")
	return writeVersion(cmd.OutOrStdout(), short)
}

func writeVersion(w io.Writer, short bool) error {
	if short {
		_, err := fmt.Fprintln(w, version)
		return err
	}
	fmt.Fprintf(w, "icevarfigs %s\n", version)
	fmt.Fprintf(w, "  go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if rev, dirty := vcsRevision(); rev != "" {
		if dirty {
			rev += " (modified)"
		}
		fmt.Fprintf(w, "  revision: %s\n", rev)
	}
	fmt.Fprintf(w, "  recipes:  %d\n", len(figures.Names()))
	_, err := fmt.Fprintf(w, "  datasets: %d static, %d templated\n", len(dataset.Names()), len(dataset.List())-len(dataset.Names()))
	return err
}

// vcsRevision reads the commit stamped into the binary by the go tool.
func vcsRevision() (rev string, dirty bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	return rev, dirty
}
