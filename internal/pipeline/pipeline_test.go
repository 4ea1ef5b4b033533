// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-metadata/internal/metadata"
	"github.com/pdiddy/paper-metadata/internal/state"
	"github.com/pdiddy/paper-metadata/pkg/types"
)

// stubExtractor answers from a per-filename script and records every call.
type stubExtractor struct {
	calls   []string
	answers map[string]metadata.Raw
	errs    map[string]error
	panics  map[string]bool
	onCall  func(name string)
}

func (s *stubExtractor) ExtractMetadata(ctx context.Context, path string) (metadata.Raw, error) {
	name := filepath.Base(path)
	s.calls = append(s.calls, name)
	if s.onCall != nil {
		s.onCall(name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.panics[name] {
		panic("malformed xref table")
	}
	if err, ok := s.errs[name]; ok {
		return nil, err
	}
	if raw, ok := s.answers[name]; ok {
		return raw.FillMissing(), nil
	}
	raw := metadata.Default()
	raw[metadata.FieldTitle] = "Title of " + name
	return raw, nil
}

func touch(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n"), 0o644))
}

type fixture struct {
	root    string
	workDir string
	out     *bytes.Buffer
}

func newFixture(t *testing.T, files ...string) fixture {
	t.Helper()
	f := fixture{root: t.TempDir(), workDir: t.TempDir(), out: &bytes.Buffer{}}
	for _, rel := range files {
		touch(t, f.root, rel)
	}
	return f
}

func (f fixture) runner(ex MetadataExtractor) *Runner {
	return NewRunner(ex, types.StateConfig{WorkDir: f.workDir}, f.out, nil)
}

func (f fixture) records(t *testing.T) []types.MetadataRecord {
	t.Helper()
	recs, err := state.ReadRecords(filepath.Join(f.workDir, state.StoreFile))
	require.NoError(t, err)
	return recs
}

func (f fixture) ledger() map[string]bool {
	return state.NewLedger(f.workDir, nil).Load()
}

func TestFindPDFs(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"b.pdf", "a/Paper.PDF", "a/notes.txt", "c/d/e.Pdf", "readme.md"} {
		touch(t, root, rel)
	}

	pdfs, err := FindPDFs(root, nil)
	require.NoError(t, err)

	var rels []string
	for _, p := range pdfs {
		rels = append(rels, p.RelPath)
		assert.Equal(t, filepath.Join(root, filepath.FromSlash(p.RelPath)), p.FullPath)
	}
	assert.Equal(t, []string{"a/Paper.PDF", "b.pdf", "c/d/e.Pdf"}, rels)
}

func TestFindPDFs_UnreadableDirIsLoggedAndSkipped(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"a.pdf", "locked/hidden.pdf", "z.pdf"} {
		touch(t, root, rel)
	}

	old := walkDir
	walkDir = func(root string, fn fs.WalkDirFunc) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err == nil && d.IsDir() && d.Name() == "locked" {
				if err := fn(path, d, nil); err != nil {
					return err
				}
				if err := fn(path, d, fs.ErrPermission); err != nil {
					return err
				}
				return filepath.SkipDir
			}
			return fn(path, d, err)
		})
	}
	defer func() { walkDir = old }()

	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, nil))

	pdfs, err := FindPDFs(root, log)
	require.NoError(t, err)

	var rels []string
	for _, p := range pdfs {
		rels = append(rels, p.RelPath)
	}
	assert.Equal(t, []string{"a.pdf", "z.pdf"}, rels)
	assert.Contains(t, logs.String(), "pipeline.walk_skipped")
	assert.Contains(t, logs.String(), filepath.Join(root, "locked"))
	assert.Contains(t, logs.String(), "permission denied")
}

func TestFindPDFs_MissingRoot(t *testing.T) {
	_, err := FindPDFs(filepath.Join(t.TempDir(), "absent"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestRun_ProcessesEveryPDF(t *testing.T) {
	f := newFixture(t, "x.pdf", "sub/y.pdf")
	ex := &stubExtractor{}

	summary, err := f.runner(ex).Run(context.Background(), f.root)
	require.NoError(t, err)

	assert.Equal(t, Summary{Found: 2, Processed: 2}, summary)
	assert.False(t, summary.HasFailures())

	recs := f.records(t)
	require.Len(t, recs, 2)
	assert.Equal(t, "Title of y.pdf", recs[0].Title)
	assert.Equal(t, "y.pdf", recs[0].Filename)
	assert.Equal(t, "sub/y.pdf", recs[0].RelativePath)
	assert.Equal(t, filepath.Join(f.root, "sub", "y.pdf"), recs[0].FullPath)
	assert.Equal(t, "x.pdf", recs[1].RelativePath)

	assert.Equal(t, map[string]bool{"x.pdf": true, "sub/y.pdf": true}, f.ledger())
	assert.Contains(t, f.out.String(), "[1/2] Processing sub/y.pdf")
	assert.Contains(t, f.out.String(), "Title:    Title of x.pdf")
}

func TestRun_Idempotent(t *testing.T) {
	f := newFixture(t, "x.pdf", "y.pdf")

	_, err := f.runner(&stubExtractor{}).Run(context.Background(), f.root)
	require.NoError(t, err)
	first := f.records(t)

	second := &stubExtractor{}
	f.out.Reset()
	summary, err := f.runner(second).Run(context.Background(), f.root)
	require.NoError(t, err)

	assert.Empty(t, second.calls)
	assert.Equal(t, Summary{Found: 2, Skipped: 2}, summary)
	assert.Equal(t, first, f.records(t))
	assert.Contains(t, f.out.String(), "nothing to do")
}

func TestRun_ResumesAfterNewFiles(t *testing.T) {
	f := newFixture(t, "x.pdf")
	_, err := f.runner(&stubExtractor{}).Run(context.Background(), f.root)
	require.NoError(t, err)

	touch(t, f.root, "z.pdf")
	ex := &stubExtractor{}
	summary, err := f.runner(ex).Run(context.Background(), f.root)
	require.NoError(t, err)

	assert.Equal(t, []string{"z.pdf"}, ex.calls)
	assert.Equal(t, 1, summary.Pending())
	recs := f.records(t)
	require.Len(t, recs, 2)
	assert.Equal(t, "x.pdf", recs[0].RelativePath)
	assert.Equal(t, "z.pdf", recs[1].RelativePath)
}

func TestRun_DefaultRecordForUnreadablePaper(t *testing.T) {
	f := newFixture(t, "scan.pdf")
	ex := &stubExtractor{answers: map[string]metadata.Raw{"scan.pdf": metadata.Default()}}

	_, err := f.runner(ex).Run(context.Background(), f.root)
	require.NoError(t, err)

	recs := f.records(t)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, types.Unknown, rec.Title)
	assert.Equal(t, []string{types.Unknown}, rec.Authors)
	assert.Equal(t, types.Unknown, rec.Year)
	assert.Equal(t, types.Unknown, rec.DOI)
	assert.Empty(t, rec.Keywords)
	assert.Equal(t, "scan.pdf", rec.Filename)
	assert.True(t, f.ledger()["scan.pdf"])
}

func TestRun_NormalizesModelOutput(t *testing.T) {
	f := newFixture(t, "p.pdf")
	ex := &stubExtractor{answers: map[string]metadata.Raw{"p.pdf": {
		"title":    "Deep Nets",
		"authors":  "Doe, J.; Smith, A.",
		"year":     float64(2021),
		"keywords": []any{"vision", "nets"},
	}}}

	_, err := f.runner(ex).Run(context.Background(), f.root)
	require.NoError(t, err)

	rec := f.records(t)[0]
	assert.Equal(t, []string{"Doe, J.", "Smith, A."}, rec.Authors)
	assert.Equal(t, "2021", rec.Year)
	assert.Equal(t, []string{"vision", "nets"}, rec.Keywords)
	assert.Equal(t, types.Unknown, rec.Journal)
}

func TestRun_FailedFileIsNotMarked(t *testing.T) {
	f := newFixture(t, "a.pdf", "b.pdf", "c.pdf")
	ex := &stubExtractor{
		errs:   map[string]error{"a.pdf": errors.New("permission denied")},
		panics: map[string]bool{"b.pdf": true},
	}

	summary, err := f.runner(ex).Run(context.Background(), f.root)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 2, summary.Failed)
	assert.True(t, summary.HasFailures())
	assert.Equal(t, map[string]bool{"c.pdf": true}, f.ledger())
	require.Len(t, f.records(t), 1)
	assert.Contains(t, f.out.String(), "failed:  b.pdf (panic: malformed xref table)")

	retry := &stubExtractor{}
	_, err = f.runner(retry).Run(context.Background(), f.root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, retry.calls)
}

func TestRun_StoreWriteFailureLeavesFileUnmarked(t *testing.T) {
	f := newFixture(t, "a.pdf")
	storePath := filepath.Join(f.workDir, state.StoreFile)
	// A non-empty directory where the store file belongs makes the rename fail.
	ex := &stubExtractor{onCall: func(string) {
		require.NoError(t, os.MkdirAll(filepath.Join(storePath, "blocker"), 0o755))
	}}

	summary, err := f.runner(ex).Run(context.Background(), f.root)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	assert.Zero(t, summary.Processed)
	assert.Empty(t, f.ledger())
	assert.Contains(t, f.out.String(), "saving metadata")
}

func TestRun_CorruptStoreStopsBeforeProcessing(t *testing.T) {
	f := newFixture(t, "a.pdf")
	require.NoError(t, os.WriteFile(filepath.Join(f.workDir, state.StoreFile), []byte("[{"), 0o644))
	ex := &stubExtractor{}

	_, err := f.runner(ex).Run(context.Background(), f.root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading store")
	assert.Empty(t, ex.calls)
}

func TestRun_CancelKeepsCompletedWork(t *testing.T) {
	f := newFixture(t, "a.pdf", "b.pdf", "c.pdf")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ex := &stubExtractor{onCall: func(name string) {
		if name == "b.pdf" {
			cancel()
		}
	}}

	summary, err := f.runner(ex).Run(ctx, f.root)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 1, summary.Processed)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, ex.calls)
	assert.Equal(t, map[string]bool{"a.pdf": true}, f.ledger())
	require.Len(t, f.records(t), 1)
}

func TestRun_EmptyRoot(t *testing.T) {
	f := newFixture(t)
	ex := &stubExtractor{}

	summary, err := f.runner(ex).Run(context.Background(), f.root)
	require.NoError(t, err)

	assert.Equal(t, Summary{}, summary)
	assert.Empty(t, ex.calls)
	assert.Contains(t, f.out.String(), "No PDF files found under "+f.root)
	assert.NotContains(t, f.out.String(), "already been processed")
}

func TestRun_MissingRoot(t *testing.T) {
	f := newFixture(t)
	_, err := f.runner(&stubExtractor{}).Run(context.Background(), filepath.Join(f.root, "absent"))
	require.Error(t, err)
}
