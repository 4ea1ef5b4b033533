// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm turns the leading pages of a paper into a raw metadata object
// by prompting a text-completion service. Transport failures are retried
// with exponential backoff; unusable answers degrade to the default record.
package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/pdiddy/paper-metadata/internal/metadata"
	"github.com/pdiddy/paper-metadata/pkg/types"
)

// TextExtractor returns the text of the leading pages of a PDF, or "" when
// nothing could be read.
type TextExtractor interface {
	Extract(path string, maxPages int) string
}

// sleep waits for d or until ctx ends. Tests replace it to record delays.
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Client extracts metadata for one paper at a time.
type Client struct {
	backend     Completer
	text        TextExtractor
	maxPages    int
	maxAttempts int
	baseDelay   time.Duration
	log         *slog.Logger
}

// NewClient wires a completion backend and a text extractor using the
// limits in cfg.
func NewClient(backend Completer, text TextExtractor, cfg types.ExtractionConfig, log *slog.Logger) *Client {
	cfg = cfg.WithDefaults()
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		backend:     backend,
		text:        text,
		maxPages:    cfg.MaxPages,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.RetryBaseDelay,
		log:         log,
	}
}

// ExtractMetadata returns the raw metadata for the PDF at path with every
// target field present. Empty page text, a malformed answer, and exhausted
// retries all yield the default record. The only error returned is the
// context's, when the run is cancelled mid-call or mid-backoff.
func (c *Client) ExtractMetadata(ctx context.Context, path string) (metadata.Raw, error) {
	text := c.text.Extract(path, c.maxPages)
	if text == "" {
		c.log.Warn("llm.extract.no_text", "path", path)
		return metadata.Default(), nil
	}

	prompt, err := RenderPrompt(text)
	if err != nil {
		return nil, err
	}

	delay := c.baseDelay
	for attempt := 1; ; attempt++ {
		c.log.Debug("llm.complete.start", "path", path, "attempt", attempt, "prompt_chars", len(prompt))

		res := c.backend.Complete(ctx, prompt)
		switch {
		case res.OK():
			raw, err := ParseResponse(res.Text)
			if err != nil {
				c.log.Warn("llm.extract.parse_failed", "path", path, "error", err)
				return metadata.Default(), nil
			}
			return raw.FillMissing(), nil

		case !res.Retryable():
			return nil, res.Err
		}

		if attempt >= c.maxAttempts {
			c.log.Error("llm.extract.retries_exhausted", "path", path, "attempts", attempt, "error", res.Err)
			return metadata.Default(), nil
		}

		c.log.Warn("llm.complete.retry", "path", path, "attempt", attempt, "max_attempts", c.maxAttempts, "delay", delay, "error", res.Err)
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
		delay *= 2
	}
}
