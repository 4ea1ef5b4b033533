// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Ledger records which relative PDF paths have been processed. Record is a
// read-modify-write of the whole file; only one process may use a ledger at
// a time.
type Ledger struct {
	path string
	log  *slog.Logger
}

// NewLedger returns the ledger stored in dir.
func NewLedger(dir string, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{path: filepath.Join(dir, LedgerFile), log: log}
}

// Path returns the ledger file location.
func (l *Ledger) Path() string { return l.path }

// Load returns the set of processed paths. A missing file is an empty set.
// An unreadable or corrupt file is logged and also treated as empty: the
// worst outcome is reprocessing, never lost records.
func (l *Ledger) Load() map[string]bool {
	done := make(map[string]bool)

	data, err := os.ReadFile(l.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			l.log.Warn("ledger.load_failed", "path", l.path, "error", err)
		}
		return done
	}

	var paths []string
	if err := json.Unmarshal(data, &paths); err != nil {
		l.log.Warn("ledger.load_failed", "path", l.path, "error", err)
		return done
	}
	for _, p := range paths {
		done[p] = true
	}
	return done
}

// Record adds relPath to the persisted set.
func (l *Ledger) Record(relPath string) error {
	done := l.Load()
	done[relPath] = true

	paths := make([]string, 0, len(done))
	for p := range done {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	if err := writeJSON(l.path, paths); err != nil {
		return fmt.Errorf("recording %s: %w", relPath, err)
	}
	return nil
}

// ResetResult describes what Reset changed.
type ResetResult struct {
	LedgerRemoved bool
	// BackupPath is the new name of the store file, empty when there was
	// no store to back up.
	BackupPath string
}

// now is replaced in tests.
var now = time.Now

// Reset deletes the ledger file and renames the store file at storePath to
// metadata_backup_<unix-seconds>.json in the same directory. Neither file
// needs to exist.
func (l *Ledger) Reset(storePath string) (ResetResult, error) {
	var res ResetResult

	err := os.Remove(l.path)
	switch {
	case err == nil:
		res.LedgerRemoved = true
		l.log.Info("ledger.removed", "path", l.path)
	case !errors.Is(err, os.ErrNotExist):
		return res, fmt.Errorf("removing %s: %w", l.path, err)
	}

	if _, err := os.Stat(storePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return res, nil
		}
		return res, fmt.Errorf("checking %s: %w", storePath, err)
	}

	backup, err := freeBackupPath(storePath, now())
	if err != nil {
		return res, err
	}
	if err := os.Rename(storePath, backup); err != nil {
		return res, fmt.Errorf("backing up %s: %w", storePath, err)
	}
	res.BackupPath = backup
	l.log.Info("store.backed_up", "from", storePath, "to", backup)
	return res, nil
}

// freeBackupPath returns BackupPath for t, or the first of
// metadata_backup_<ts>_1.json, _2, ... that does not exist yet. An existing
// backup is never overwritten.
func freeBackupPath(storePath string, t time.Time) (string, error) {
	base := BackupPath(storePath, t)
	candidate := base
	for n := 1; ; n++ {
		_, err := os.Stat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking %s: %w", candidate, err)
		}
		candidate = strings.TrimSuffix(base, ".json") + fmt.Sprintf("_%d.json", n)
	}
}

// BackupPath names the reset backup of storePath taken at t.
func BackupPath(storePath string, t time.Time) string {
	return filepath.Join(filepath.Dir(storePath), fmt.Sprintf("metadata_backup_%d.json", t.Unix()))
}
