// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/paper-metadata/pkg/types"
)

// Store is the ordered collection of extracted records, persisted as one
// JSON array.
type Store struct {
	path    string
	records []types.MetadataRecord
}

// OpenStore loads the store in dir. A missing file is an empty store; a file
// that cannot be read or decoded is an error, so that a later write never
// replaces records it failed to load.
func OpenStore(dir string) (*Store, error) {
	path := filepath.Join(dir, StoreFile)
	records, err := ReadRecords(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Store{path: path}, nil
		}
		return nil, err
	}
	return &Store{path: path, records: records}, nil
}

// ReadRecords decodes a store file.
func ReadRecords(path string) ([]types.MetadataRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []types.MetadataRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return records, nil
}

// Path returns the store file location.
func (s *Store) Path() string { return s.path }

// Len returns the number of records.
func (s *Store) Len() int { return len(s.records) }

// Records returns a copy of the records in insertion order.
func (s *Store) Records() []types.MetadataRecord {
	out := make([]types.MetadataRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Append writes a snapshot containing every record plus rec. The record is
// kept in memory only once the snapshot is on disk.
func (s *Store) Append(rec types.MetadataRecord) error {
	next := make([]types.MetadataRecord, len(s.records), len(s.records)+1)
	copy(next, s.records)
	next = append(next, rec)

	if err := writeJSON(s.path, next); err != nil {
		return err
	}
	s.records = next
	return nil
}
