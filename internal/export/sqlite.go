// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-metadata/pkg/types"
)

const papersSchema = `CREATE TABLE IF NOT EXISTS papers (
	relative_path TEXT PRIMARY KEY,
	citation_key TEXT NOT NULL,
	filename TEXT,
	full_path TEXT,
	title TEXT,
	authors TEXT,
	year TEXT,
	journal TEXT,
	doi TEXT,
	keywords TEXT,
	abstract TEXT
)`

// WriteSQLite writes recs into the papers table of the database at dbPath,
// replacing rows with the same relative path. Authors and keywords are
// stored as JSON arrays. It returns the number of rows written.
func WriteSQLite(ctx context.Context, recs []types.MetadataRecord, dbPath string) (int, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return 0, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, papersSchema); err != nil {
		return 0, fmt.Errorf("creating schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO papers
			(relative_path, citation_key, filename, full_path, title, authors, year, journal, doi, keywords, abstract)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	keys := citationKeys(recs)
	for i, r := range recs {
		authors, err := json.Marshal(r.Authors)
		if err != nil {
			return 0, fmt.Errorf("encoding authors for %s: %w", r.RelativePath, err)
		}
		keywords, err := json.Marshal(r.Keywords)
		if err != nil {
			return 0, fmt.Errorf("encoding keywords for %s: %w", r.RelativePath, err)
		}
		if _, err := stmt.ExecContext(ctx,
			r.RelativePath, keys[i], r.Filename, r.FullPath, r.Title,
			string(authors), r.Year, r.Journal, r.DOI, string(keywords), r.Abstract,
		); err != nil {
			return 0, fmt.Errorf("inserting %s: %w", r.RelativePath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return len(recs), nil
}
