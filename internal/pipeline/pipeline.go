// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline walks a directory of PDFs and runs each unprocessed file
// through extraction, normalization, the store and the ledger, in that
// order. A file enters the ledger only after its record is on disk, so an
// interrupted run can simply be repeated.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pdiddy/paper-metadata/internal/metadata"
	"github.com/pdiddy/paper-metadata/internal/state"
	"github.com/pdiddy/paper-metadata/pkg/types"
)

// MetadataExtractor produces the raw metadata for one PDF. It returns an
// error only when the run should stop (context cancellation) or the file
// could not be attempted at all.
type MetadataExtractor interface {
	ExtractMetadata(ctx context.Context, path string) (metadata.Raw, error)
}

// Summary holds counts from one run.
type Summary struct {
	Found     int // PDFs under the root
	Skipped   int // already in the ledger
	Processed int
	Failed    int
}

// Pending returns how many PDFs this run attempted.
func (s Summary) Pending() int {
	return s.Found - s.Skipped
}

// HasFailures reports whether any file was left unprocessed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// Runner drives a run over one working directory.
type Runner struct {
	extractor MetadataExtractor
	ledger    *state.Ledger
	workDir   string
	log       *slog.Logger
	out       io.Writer
}

// NewRunner returns a Runner that keeps its ledger and store in
// cfg.WorkDir, writes progress to out and logs to log.
func NewRunner(extractor MetadataExtractor, cfg types.StateConfig, out io.Writer, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	if out == nil {
		out = io.Discard
	}
	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = "."
	}
	return &Runner{
		extractor: extractor,
		ledger:    state.NewLedger(workDir, log),
		workDir:   workDir,
		log:       log,
		out:       out,
	}
}

// PDF is a file found under the root directory.
type PDF struct {
	FullPath string
	RelPath  string // slash-separated, relative to the root
}

// Run processes every PDF under root that is not yet in the ledger. It
// returns ctx.Err() when cancelled; all files completed before that remain
// committed.
func (r *Runner) Run(ctx context.Context, root string) (Summary, error) {
	var summary Summary

	done := r.ledger.Load()
	store, err := state.OpenStore(r.workDir)
	if err != nil {
		return summary, fmt.Errorf("loading store: %w", err)
	}

	pdfs, err := FindPDFs(root, r.log)
	if err != nil {
		return summary, err
	}
	summary.Found = len(pdfs)

	var pending []PDF
	for _, c := range pdfs {
		if done[c.RelPath] {
			summary.Skipped++
			continue
		}
		pending = append(pending, c)
	}

	if summary.Found == 0 {
		fmt.Fprintf(r.out, "No PDF files found under %s.\n", root)
		return summary, nil
	}
	if len(pending) == 0 {
		fmt.Fprintf(r.out, "All %d PDF files have already been processed, nothing to do.\n", summary.Found)
		return summary, nil
	}

	fmt.Fprintf(r.out, "Found %d PDF files: %d already processed, %d to process.\n",
		summary.Found, summary.Skipped, len(pending))

	for i, c := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		fmt.Fprintf(r.out, "\n[%d/%d] Processing %s...\n", i+1, len(pending), c.RelPath)

		rec, err := r.processFile(ctx, store, c)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			r.log.Error("pipeline.file_failed", "path", c.RelPath, "error", err)
			fmt.Fprintf(r.out, "failed:  %s (%v), will retry on the next run\n", c.RelPath, err)
			summary.Failed++
			continue
		}

		printRecord(r.out, rec)
		fmt.Fprintf(r.out, "saved:   %s\n", c.RelPath)
		summary.Processed++
	}

	fmt.Fprintf(r.out, "\nRun summary: %d processed, %d failed, %d skipped (total: %d)\n",
		summary.Processed, summary.Failed, summary.Skipped, summary.Found)
	return summary, nil
}

// processFile runs one PDF through the pipeline. Panics are converted to
// errors so one bad file cannot end the run.
func (r *Runner) processFile(ctx context.Context, store *state.Store, c PDF) (rec types.MetadataRecord, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	raw, err := r.extractor.ExtractMetadata(ctx, c.FullPath)
	if err != nil {
		return rec, fmt.Errorf("extracting metadata: %w", err)
	}
	if raw == nil {
		raw = metadata.Default()
	}

	raw[metadata.FieldFilename] = filepath.Base(c.FullPath)
	raw[metadata.FieldRelativePath] = c.RelPath
	raw[metadata.FieldFullPath] = c.FullPath

	rec = metadata.Normalize(raw)

	if err := store.Append(rec); err != nil {
		return rec, fmt.Errorf("saving metadata: %w", err)
	}
	if err := r.ledger.Record(c.RelPath); err != nil {
		return rec, fmt.Errorf("marking processed: %w", err)
	}
	return rec, nil
}

// walkDir is replaced in tests to inject unreadable entries.
var walkDir = filepath.WalkDir

// FindPDFs lists files with a .pdf extension (any case) under root in
// lexical walk order, with slash-separated paths relative to root. Entries
// below root that cannot be read are logged and skipped.
func FindPDFs(root string, log *slog.Logger) ([]PDF, error) {
	if log == nil {
		log = slog.Default()
	}
	var out []PDF
	err := walkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			log.Warn("pipeline.walk_skipped", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out = append(out, PDF{FullPath: path, RelPath: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("directory %s does not exist", root)
		}
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return out, nil
}

const abstractPreview = 200

// printRecord writes the extracted fields for operator review.
func printRecord(w io.Writer, rec types.MetadataRecord) {
	abstract := rec.Abstract
	if len(abstract) > abstractPreview {
		abstract = abstract[:abstractPreview] + "..."
	}
	rule := strings.Repeat("-", 50)

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Filename: %s\n", rec.Filename)
	fmt.Fprintf(w, "Path:     %s\n", rec.RelativePath)
	fmt.Fprintf(w, "Title:    %s\n", rec.Title)
	fmt.Fprintf(w, "Authors:  %s\n", strings.Join(rec.Authors, ", "))
	fmt.Fprintf(w, "Year:     %s\n", rec.Year)
	fmt.Fprintf(w, "Journal:  %s\n", rec.Journal)
	fmt.Fprintf(w, "DOI:      %s\n", rec.DOI)
	fmt.Fprintf(w, "Keywords: %s\n", strings.Join(rec.Keywords, ", "))
	fmt.Fprintf(w, "Abstract: %s\n", abstract)
	fmt.Fprintln(w, rule)
}
