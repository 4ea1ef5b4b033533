// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-metadata/internal/pipeline"
	"github.com/pdiddy/paper-metadata/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status [papers-dir]",
	Short: "Show how many papers have been processed",
	Long: `Status prints the number of processed files and stored records. With a
papers-dir it also counts the PDFs still waiting to be processed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromViper(viper.GetViper())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		done := state.NewLedger(cfg.WorkDir, logger).Load()
		store, err := state.OpenStore(cfg.WorkDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Total files processed: %d\n", len(done))
		fmt.Fprintf(out, "Total records in %s: %d\n", store.Path(), store.Len())

		if len(args) == 0 {
			return nil
		}
		if err := checkRootDir(args[0]); err != nil {
			return err
		}
		pdfs, err := pipeline.FindPDFs(args[0], logger)
		if err != nil {
			return err
		}
		pending := 0
		for _, p := range pdfs {
			if !done[p.RelPath] {
				pending++
			}
		}
		fmt.Fprintf(out, "PDF files under %s: %d (%d pending)\n", args[0], len(pdfs), pending)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
