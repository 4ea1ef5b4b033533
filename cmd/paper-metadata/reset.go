// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-metadata/internal/state"
	"github.com/pdiddy/paper-metadata/pkg/types"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget processed files and back up the metadata store",
	Long: `Reset deletes processed_files.json and renames metadata.json to
metadata_backup_<unix-seconds>.json so the next run starts from scratch.
Nothing is deleted from the store; the backup keeps every record.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromViper(viper.GetViper())
		if err != nil {
			return err
		}
		return resetState(cfg.StateConfig, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func resetState(cfg types.StateConfig, out io.Writer) error {
	ledger := state.NewLedger(cfg.WorkDir, logger)
	res, err := ledger.Reset(filepath.Join(cfg.WorkDir, state.StoreFile))
	if err != nil {
		return fmt.Errorf("resetting state: %w", err)
	}
	if res.LedgerRemoved {
		fmt.Fprintf(out, "Removed %s\n", ledger.Path())
	}
	if res.BackupPath != "" {
		fmt.Fprintf(out, "Backed up metadata to %s\n", res.BackupPath)
	}
	if !res.LedgerRemoved && res.BackupPath == "" {
		fmt.Fprintln(out, "Nothing to reset.")
	}
	return nil
}
