// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the icevarfigs CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/icevarfigs/internal/dataset"
	"github.com/pdiddy/icevarfigs/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Set

// rootCmd is the base command for the icevarfigs CLI.
var rootCmd = &cobra.Command{
	Use:   "icevarfigs",
	Short: "Download climate datasets and draw sea-ice and temperature figures",
	Long: `icevarfigs downloads public climate datasets (sea-ice extent and volume,
ice thickness grids, land-ice mass, surface temperature and SST), computes
anomalies and ranks against a climatology, and renders figures and
animations with a fixed dark style.

Each stage is a subcommand: fetch downloads datasets, render draws figures,
archive keeps a SQLite ledger of runs and observations, and watch renders
on a cron schedule.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/", os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if keys := s.Keys(); len(keys) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return dataset.SetGRACERelease(pipelineConfig().Fetch.GRACERelease)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./icevarfigs.yaml or ~/.config/icevarfigs/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "console", "log format: console or json")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("icevarfigs")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "icevarfigs"))
		}
	}

	viper.SetEnvPrefix("ICEVARFIGS")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
