// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Unknown is the placeholder for any field the model could not read.
const Unknown = "unknown"

// MetadataRecord is the canonical bibliographic record for one PDF.
// Every field is always present; unreadable values are Unknown, except
// Keywords which is empty rather than ["unknown"].
type MetadataRecord struct {
	Title    string   `json:"title" yaml:"title"`
	Authors  []string `json:"authors" yaml:"authors"`
	Year     string   `json:"year" yaml:"year"`
	Journal  string   `json:"journal" yaml:"journal"`
	DOI      string   `json:"doi" yaml:"doi"`
	Keywords []string `json:"keywords" yaml:"keywords"`
	Abstract string   `json:"abstract" yaml:"abstract"`

	// Provenance, attached by the pipeline.
	Filename     string `json:"filename" yaml:"filename"`
	RelativePath string `json:"relative_path" yaml:"relative_path"`
	FullPath     string `json:"full_path" yaml:"full_path"`
}

// DefaultRecord returns the record used whenever extraction cannot produce
// real data.
func DefaultRecord() MetadataRecord {
	return MetadataRecord{
		Title:    Unknown,
		Authors:  []string{Unknown},
		Year:     Unknown,
		Journal:  Unknown,
		DOI:      Unknown,
		Keywords: []string{},
		Abstract: Unknown,
	}
}

// HasDOI reports whether the record carries a usable DOI.
func (r MetadataRecord) HasDOI() bool {
	return r.DOI != "" && r.DOI != Unknown
}
