// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-metadata CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is built in PersistentPreRunE once flags are parsed.
var logger = slog.Default()

// rootCmd is the base command for the paper-metadata CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-metadata",
	Short: "Extract bibliographic metadata from a directory of PDF papers",
	Long: `paper-metadata reads the first pages of every PDF under a directory, asks a
language model for the title, authors, year, journal, DOI, keywords and
abstract, and appends the result to metadata.json in the working directory.

Processed files are recorded in processed_files.json so an interrupted run
picks up where it stopped. Use reset to start over, status to see progress,
and export to convert the results to CSL-YAML, BibTeX or SQLite.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if viper.GetBool("verbose") {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./paper-metadata.yaml or ~/.config/paper-metadata/paper-metadata.yaml)")
	pf.Bool("verbose", false, "log debug detail to stderr")
	pf.String("work-dir", "", "directory holding processed_files.json and metadata.json (default: current directory)")
	pf.String("provider", "", "completion provider: gemini or claude (default gemini)")
	pf.String("model", "", "model identifier (default depends on provider)")

	_ = viper.BindPFlag("verbose", pf.Lookup("verbose"))
	_ = viper.BindPFlag("work_dir", pf.Lookup("work-dir"))
	_ = viper.BindPFlag("provider", pf.Lookup("provider"))
	_ = viper.BindPFlag("model", pf.Lookup("model"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-metadata")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-metadata"))
		}
	}

	viper.SetEnvPrefix("PAPER_METADATA")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
