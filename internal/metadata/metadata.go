// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metadata maps the loosely typed object returned by the model onto
// types.MetadataRecord.
package metadata

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pdiddy/paper-metadata/pkg/types"
)

// Target field names the model is asked to return.
const (
	FieldTitle    = "title"
	FieldAuthors  = "authors"
	FieldYear     = "year"
	FieldJournal  = "journal"
	FieldDOI      = "doi"
	FieldKeywords = "keywords"
	FieldAbstract = "abstract"
)

// Provenance fields attached by the pipeline before normalization.
const (
	FieldFilename     = "filename"
	FieldRelativePath = "relative_path"
	FieldFullPath     = "full_path"
)

// Fields lists the seven target fields in prompt order.
var Fields = []string{FieldTitle, FieldAuthors, FieldYear, FieldJournal, FieldDOI, FieldKeywords, FieldAbstract}

// Raw is a metadata object as decoded from JSON: values are string,
// float64, bool, nil, []any or map[string]any.
type Raw map[string]any

// Default returns the raw form of types.DefaultRecord.
func Default() Raw {
	return Raw{
		FieldTitle:    types.Unknown,
		FieldAuthors:  []any{types.Unknown},
		FieldYear:     types.Unknown,
		FieldJournal:  types.Unknown,
		FieldDOI:      types.Unknown,
		FieldKeywords: []any{},
		FieldAbstract: types.Unknown,
	}
}

// FillMissing sets every absent target field from Default. Present values
// are kept as they are, whatever their type.
func (r Raw) FillMissing() Raw {
	def := Default()
	for _, k := range Fields {
		if _, ok := r[k]; !ok {
			r[k] = def[k]
		}
	}
	return r
}

// kind tags the shape of a decoded JSON value.
type kind int

const (
	kindOther kind = iota
	kindString
	kindList
)

func classify(v any) kind {
	switch v.(type) {
	case string:
		return kindString
	case []any, []string:
		return kindList
	default:
		return kindOther
	}
}

// Normalize builds a record from raw. It never fails: authors always has at
// least one entry and keywords is never nil.
func Normalize(raw Raw) types.MetadataRecord {
	return types.MetadataRecord{
		Title:    scalar(raw[FieldTitle]),
		Authors:  authors(raw[FieldAuthors]),
		Year:     scalar(raw[FieldYear]),
		Journal:  scalar(raw[FieldJournal]),
		DOI:      scalar(raw[FieldDOI]),
		Keywords: keywords(raw[FieldKeywords]),
		Abstract: scalar(raw[FieldAbstract]),

		Filename:     stringField(raw, FieldFilename),
		RelativePath: stringField(raw, FieldRelativePath),
		FullPath:     stringField(raw, FieldFullPath),
	}
}

func authors(v any) []string {
	var out []string
	switch classify(v) {
	case kindList:
		for _, el := range listOf(v) {
			if obj, ok := el.(map[string]any); ok {
				if name := displayName(obj); name != "" {
					out = append(out, name)
				}
				continue
			}
			if s, ok := stringify(el); ok {
				out = append(out, s)
			}
		}
	case kindString:
		out = splitList(v.(string))
	}
	if len(out) == 0 {
		return []string{types.Unknown}
	}
	return out
}

func keywords(v any) []string {
	out := []string{}
	switch classify(v) {
	case kindList:
		for _, el := range listOf(v) {
			if s, ok := stringify(el); ok {
				out = append(out, s)
			}
		}
	case kindString:
		out = append(out, splitList(v.(string))...)
	}
	return out
}

// displayName derives an author name from a structured entry: name, then
// first_name + last_name, then full_name.
func displayName(obj map[string]any) string {
	if name := stringField(obj, "name"); name != "" {
		return name
	}
	if name := strings.TrimSpace(stringField(obj, "first_name") + " " + stringField(obj, "last_name")); name != "" {
		return name
	}
	return stringField(obj, "full_name")
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

// splitList splits a delimited string. Semicolons take precedence so that
// "Doe, J.; Smith, A." keeps each "Family, Given" pair intact; otherwise
// commas separate entries. A string without separators is one entry.
func splitList(s string) []string {
	sep := ""
	switch {
	case strings.Contains(s, ";"):
		sep = ";"
	case strings.Contains(s, ","):
		sep = ","
	default:
		if s == "" {
			return nil
		}
		return []string{s}
	}

	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func listOf(v any) []any {
	switch l := v.(type) {
	case []any:
		return l
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out
	}
	return nil
}

// stringify renders a list element. nil elements are dropped.
func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}

// scalar renders a single-valued field; null or missing becomes Unknown.
func scalar(v any) string {
	s, ok := stringify(v)
	if !ok {
		return types.Unknown
	}
	return s
}
