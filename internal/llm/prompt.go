// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/paper-metadata/internal/metadata"
)

// metadataPromptTmpl is sent once per paper. It names exactly the seven
// target fields and asks for a bare JSON object.
var metadataPromptTmpl = template.Must(template.New("metadata").Parse(`You are a research paper metadata extractor. Given text from the first pages of an academic paper, extract:
- title
- authors (as a list of names)
- year (publication year)
- journal (journal or conference name)
- doi (if present)
- keywords (as a list, if present)
- abstract (the full abstract text, if found)

If a field is unreadable or not present, use the string "unknown" for it.

Respond with ONLY a raw JSON object using exactly these field names: title, authors, year, journal, doi, keywords, abstract. Do not add any other text or markdown formatting.

Extract bibliographic information from this text:

{{.Text}}
`))

// RenderPrompt builds the extraction prompt for the given page text.
func RenderPrompt(text string) (string, error) {
	var buf bytes.Buffer
	if err := metadataPromptTmpl.Execute(&buf, struct{ Text string }{Text: text}); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return buf.String(), nil
}

// ParseError reports a completion that is not a JSON object. It is not
// retried; the paper degrades to the default record instead.
type ParseError struct {
	Content string
	Err     error
}

func (e *ParseError) Error() string {
	preview := e.Content
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	return fmt.Sprintf("parsing model response: %v (content: %q)", e.Err, preview)
}

func (e *ParseError) Unwrap() error { return e.Err }

// stripFence removes a surrounding ```json or ``` code fence.
func stripFence(content string) string {
	content = strings.TrimSpace(content)
	switch {
	case strings.HasPrefix(content, "```json"):
		content = strings.TrimPrefix(content, "```json")
	case strings.HasPrefix(content, "```"):
		content = strings.TrimPrefix(content, "```")
	default:
		return content
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

// ParseResponse decodes a completion into a raw metadata object.
func ParseResponse(content string) (metadata.Raw, error) {
	cleaned := stripFence(content)

	var v any
	if err := json.Unmarshal([]byte(cleaned), &v); err != nil {
		return nil, &ParseError{Content: cleaned, Err: err}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &ParseError{Content: cleaned, Err: fmt.Errorf("expected a JSON object, got %T", v)}
	}
	return metadata.Raw(obj), nil
}
