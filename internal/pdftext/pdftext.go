// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftext pulls plain text from the leading pages of a PDF.
// Extraction is best effort: failures are logged and produce less text,
// never an error.
package pdftext

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor reads text with github.com/ledongthuc/pdf, a pure Go parser.
type Extractor struct {
	Log *slog.Logger
}

// New returns an Extractor that logs to log (slog.Default when nil).
func New(log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{Log: log}
}

// Extract returns the text of up to maxPages leading pages of the PDF at
// path, pages separated by a blank line and the result trimmed. A page that
// fails contributes nothing; a file that cannot be opened yields "".
func (e *Extractor) Extract(path string, maxPages int) (text string) {
	log := e.logger()

	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			log.Error("pdftext.open_failed", "path", path, "error", fmt.Sprint(r))
			text = ""
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		log.Error("pdftext.open_failed", "path", path, "error", err)
		return ""
	}
	defer f.Close()

	numPages := r.NumPage()
	if maxPages > 0 && numPages > maxPages {
		numPages = maxPages
	}

	var b strings.Builder
	for i := 1; i <= numPages; i++ {
		pageText, err := pageText(r, i)
		if err != nil {
			log.Warn("pdftext.page_failed", "path", path, "page", i, "error", err)
			continue
		}
		b.WriteString(pageText)
		b.WriteString("\n\n")
	}

	text = strings.TrimSpace(b.String())
	log.Debug("pdftext.extracted", "path", path, "pages", numPages, "chars", len(text))
	return text
}

func (e *Extractor) logger() *slog.Logger {
	if e == nil || e.Log == nil {
		return slog.Default()
	}
	return e.Log
}

// pageText extracts one page, converting a parser panic into an error.
func pageText(r *pdf.Reader, n int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page %d: %v", n, rec)
		}
	}()

	page := r.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
