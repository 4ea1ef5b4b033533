// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-metadata/internal/llm"
	"github.com/pdiddy/paper-metadata/internal/pdftext"
	"github.com/pdiddy/paper-metadata/internal/pipeline"
	"github.com/pdiddy/paper-metadata/internal/state"
	"github.com/pdiddy/paper-metadata/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run <papers-dir>",
	Short: "Extract metadata for every unprocessed PDF under a directory",
	Long: `Run walks papers-dir recursively, sends the first pages of each PDF not yet
listed in processed_files.json to the configured model, and appends the
normalized record to metadata.json. Each file is recorded as processed only
after its record is saved, so an interrupted run can simply be repeated.

Papers whose text cannot be read or whose model answer cannot be parsed are
saved with "unknown" fields rather than retried forever.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().Bool("reset", false, "delete processed_files.json and back up metadata.json before running")
	runCmd.Flags().Int("max-pages", 0, "leading pages sent to the model (default 3)")
	runCmd.Flags().Int("max-attempts", 0, "completion attempts per paper, including the first (default 3)")
	runCmd.Flags().Duration("timeout", 0, "HTTP timeout per completion call (default 120s)")

	_ = viper.BindPFlag("max_pages", runCmd.Flags().Lookup("max-pages"))
	_ = viper.BindPFlag("max_attempts", runCmd.Flags().Lookup("max-attempts"))
	_ = viper.BindPFlag("timeout", runCmd.Flags().Lookup("timeout"))

	rootCmd.AddCommand(runCmd)
}

// newBackend is replaced in tests.
var newBackend = llm.NewBackend

func runRun(cmd *cobra.Command, args []string) error {
	root := args[0]
	if err := checkRootDir(root); err != nil {
		return err
	}

	cfg, err := configFromViper(viper.GetViper())
	if err != nil {
		return err
	}
	if err := resolveCredential(&cfg); err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if reset, _ := cmd.Flags().GetBool("reset"); reset {
		if err := resetState(cfg.StateConfig, out); err != nil {
			return err
		}
	}

	backend, err := newBackend(cfg.AIConfig, &http.Client{Timeout: cfg.Timeout}, logger)
	if err != nil {
		return err
	}
	client := llm.NewClient(backend, pdftext.New(logger), cfg, logger)
	runner := pipeline.NewRunner(client, cfg.StateConfig, out, logger)

	fmt.Fprintf(out, "Extracting metadata from %s with %s (%s)\n", root, cfg.Provider, cfg.Model)

	summary, err := runner.Run(cmd.Context(), root)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(out, "\nProcessing interrupted. Progress has been saved.")
		printTotals(out, cfg.StateConfig)
		return nil
	}
	if err != nil {
		return err
	}

	printTotals(out, cfg.StateConfig)
	if summary.HasFailures() {
		fmt.Fprintf(os.Stderr, "%d file(s) failed and will be retried on the next run\n", summary.Failed)
	}
	return nil
}

// printTotals reports the cumulative ledger and store sizes.
func printTotals(out io.Writer, cfg types.StateConfig) {
	processed := len(state.NewLedger(cfg.WorkDir, logger).Load())
	store, err := state.OpenStore(cfg.WorkDir)
	if err != nil {
		logger.Error("status.store_failed", "error", err)
		return
	}
	fmt.Fprintf(out, "Total files processed: %d\n", processed)
	fmt.Fprintf(out, "Total records in %s: %d\n", store.Path(), store.Len())
}
