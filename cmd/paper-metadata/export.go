// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-metadata/internal/export"
	"github.com/pdiddy/paper-metadata/internal/state"
	"github.com/pdiddy/paper-metadata/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Convert metadata.json to CSL-YAML, BibTeX or SQLite",
	Long: `Export reads metadata.json from the working directory and writes it in
another format. csl and bibtex write to stdout unless --output is given;
sqlite writes a papers table to --output (default papers.db).

Fields that were not found ("unknown") are left out of CSL and BibTeX.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromViper(viper.GetViper())
		if err != nil {
			return err
		}
		formatName, _ := cmd.Flags().GetString("format")
		format, err := export.ParseFormat(formatName)
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")

		recs, err := state.ReadRecords(filepath.Join(cfg.WorkDir, state.StoreFile))
		if err != nil {
			return err
		}

		if format == export.FormatSQLite {
			if output == "" {
				output = "papers.db"
			}
			n, err := export.WriteSQLite(cmd.Context(), recs, output)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Wrote %d records to %s\n", n, output)
			return nil
		}

		if output == "" {
			return writeRecords(format, recs, cmd.OutOrStdout())
		}

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		if err := writeRecords(format, recs, f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", output, err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %d records to %s\n", len(recs), output)
		return nil
	},
}

// writeRecords writes recs to w in a text format.
func writeRecords(format export.Format, recs []types.MetadataRecord, w io.Writer) error {
	var err error
	switch format {
	case export.FormatBibTeX:
		err = export.WriteBibTeX(recs, w)
	default:
		err = export.WriteCSL(recs, w)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", format, err)
	}
	return nil
}

func init() {
	exportCmd.Flags().String("format", "csl", "output format: csl, bibtex or sqlite")
	exportCmd.Flags().StringP("output", "o", "", "output file (default stdout; papers.db for sqlite)")

	rootCmd.AddCommand(exportCmd)
}
