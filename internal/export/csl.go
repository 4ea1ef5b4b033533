// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-metadata/pkg/types"
)

// CSLItem is one bibliographic entry in CSL-YAML form, readable by Pandoc
// and reference managers.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title,omitempty"`
	Author         []CSLName `yaml:"author,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
	Keyword        string    `yaml:"keyword,omitempty"`
	Abstract       string    `yaml:"abstract,omitempty"`
	Source         string    `yaml:"source,omitempty"`
}

// CSLName is a person's name in CSL form.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

func (n CSLName) familyOrLiteral() string {
	if n.Family != "" {
		return n.Family
	}
	return n.Literal
}

// CSLDate holds date-parts; only the year is known here.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// WriteCSL writes recs as a CSL-YAML list to w.
func WriteCSL(recs []types.MetadataRecord, w io.Writer) error {
	keys := citationKeys(recs)
	items := make([]CSLItem, len(recs))
	for i, r := range recs {
		items[i] = toCSLItem(keys[i], r)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

func toCSLItem(id string, r types.MetadataRecord) CSLItem {
	item := CSLItem{
		ID:             id,
		Type:           "article-journal",
		Title:          known(r.Title),
		ContainerTitle: known(r.Journal),
		Keyword:        strings.Join(r.Keywords, ", "),
		Abstract:       known(r.Abstract),
		Source:         r.RelativePath,
	}
	if r.HasDOI() {
		item.DOI = strings.TrimSpace(r.DOI)
	}
	if item.ContainerTitle == "" {
		item.Type = "article"
	}
	for _, a := range knownAuthors(r.Authors) {
		item.Author = append(item.Author, parseAuthorName(a))
	}
	if y := parseYear(r.Year); y > 0 {
		item.Issued = &CSLDate{DateParts: [][]int{{y}}}
	}
	return item
}

// parseAuthorName splits a name into CSL family and given parts. "Family,
// Given" is split on the comma; otherwise the last space separates given
// from family. Single-token names use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	if family, given, ok := strings.Cut(name, ","); ok {
		family, given = strings.TrimSpace(family), strings.TrimSpace(given)
		if family != "" && given != "" {
			return CSLName{Family: family, Given: given}
		}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  strings.TrimSpace(name[:idx]),
		Family: name[idx+1:],
	}
}
