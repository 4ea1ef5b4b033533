// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/paper-metadata/pkg/types"
)

var bibEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	"{", `\{`,
	"}", `\}`,
	"&", `\&`,
	"%", `\%`,
	"$", `\$`,
	"#", `\#`,
	"_", `\_`,
)

// WriteBibTeX writes recs as BibTeX entries to w. Unknown fields are left out.
func WriteBibTeX(recs []types.MetadataRecord, w io.Writer) error {
	keys := citationKeys(recs)
	var b strings.Builder
	for i, r := range recs {
		entryType := "article"
		if known(r.Journal) == "" {
			entryType = "misc"
		}
		fmt.Fprintf(&b, "@%s{%s,\n", entryType, keys[i])
		if t := known(r.Title); t != "" {
			fmt.Fprintf(&b, "  title = {%s},\n", bibEscaper.Replace(t))
		}
		if authors := knownAuthors(r.Authors); len(authors) > 0 {
			fmt.Fprintf(&b, "  author = {%s},\n", bibEscaper.Replace(strings.Join(authors, " and ")))
		}
		if y := parseYear(r.Year); y > 0 {
			fmt.Fprintf(&b, "  year = {%d},\n", y)
		}
		if j := known(r.Journal); j != "" {
			fmt.Fprintf(&b, "  journal = {%s},\n", bibEscaper.Replace(j))
		}
		if r.HasDOI() {
			fmt.Fprintf(&b, "  doi = {%s},\n", strings.TrimSpace(r.DOI))
		}
		if len(r.Keywords) > 0 {
			fmt.Fprintf(&b, "  keywords = {%s},\n", bibEscaper.Replace(strings.Join(r.Keywords, ", ")))
		}
		if r.RelativePath != "" {
			fmt.Fprintf(&b, "  file = {%s},\n", bibEscaper.Replace(r.RelativePath))
		}
		fmt.Fprintf(&b, "}\n\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
