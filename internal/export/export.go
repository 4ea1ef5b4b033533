// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export converts the metadata store into formats other tools read:
// CSL-YAML for Pandoc and reference managers, BibTeX for LaTeX, and a SQLite
// table for ad hoc inspection.
package export

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdiddy/paper-metadata/pkg/types"
)

// Format names an export format.
type Format string

const (
	FormatCSL    Format = "csl"
	FormatBibTeX Format = "bibtex"
	FormatSQLite Format = "sqlite"
)

// ParseFormat validates a format name given on the command line.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSL, FormatBibTeX, FormatSQLite:
		return f, nil
	case "yaml":
		return FormatCSL, nil
	case "bib":
		return FormatBibTeX, nil
	case "db":
		return FormatSQLite, nil
	}
	return "", fmt.Errorf("unknown export format %q (want csl, bibtex or sqlite)", s)
}

var yearPattern = regexp.MustCompile(`\b(1[5-9]|20)\d{2}\b`)

// parseYear returns the first plausible four-digit year in s, or 0.
func parseYear(s string) int {
	m := yearPattern.FindString(s)
	if m == "" {
		return 0
	}
	y, _ := strconv.Atoi(m)
	return y
}

// known returns s unless it is the unknown placeholder or blank.
func known(s string) string {
	s = strings.TrimSpace(s)
	if s == types.Unknown {
		return ""
	}
	return s
}

// knownAuthors drops placeholder entries.
func knownAuthors(authors []string) []string {
	var out []string
	for _, a := range authors {
		if a = known(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// citationKeys assigns a unique key per record of the form
// family + year + first title word, lower-case ASCII, with a letter suffix
// on collisions.
func citationKeys(recs []types.MetadataRecord) []string {
	keys := make([]string, len(recs))
	seen := make(map[string]int)
	for i, r := range recs {
		base := baseKey(r)
		n := seen[base]
		seen[base] = n + 1
		if n == 0 {
			keys[i] = base
			continue
		}
		keys[i] = base + suffix(n)
	}
	return keys
}

func suffix(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('a' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

func baseKey(r types.MetadataRecord) string {
	var b strings.Builder
	if authors := knownAuthors(r.Authors); len(authors) > 0 {
		b.WriteString(keyPart(parseAuthorName(authors[0]).familyOrLiteral()))
	}
	if y := parseYear(r.Year); y > 0 {
		b.WriteString(strconv.Itoa(y))
	}
	for _, w := range strings.Fields(known(r.Title)) {
		if p := keyPart(w); len(p) > 3 {
			b.WriteString(p)
			break
		}
	}
	if b.Len() == 0 {
		name := strings.TrimSuffix(r.Filename, ".pdf")
		b.WriteString(keyPart(name))
	}
	if b.Len() == 0 {
		return "paper"
	}
	return b.String()
}

// keyPart keeps lower-cased ASCII letters and digits.
func keyPart(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
