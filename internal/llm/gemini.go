// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pdiddy/paper-metadata/internal/httputil"
)

// geminiAPIBase is the Generative Language API model root. Package-level var
// for test substitution.
var geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta/models/"

// GeminiBackend calls the Gemini generateContent endpoint.
type GeminiBackend struct {
	APIKey string
	Model  string
	Client *http.Client
	Log    *slog.Logger
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}

// Complete sends prompt as a single user turn and joins the text parts of
// the first candidate.
func (g *GeminiBackend) Complete(ctx context.Context, prompt string) Completion {
	body := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}
	url := geminiAPIBase + g.Model + ":generateContent"
	headers := map[string]string{"x-goog-api-key": g.APIKey}

	raw, err := httputil.PostJSON(ctx, g.Client, url, body, headers, g.Log)
	if err != nil {
		return failed(ctx, fmt.Errorf("calling Gemini API: %w", err))
	}

	var resp geminiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return failed(ctx, fmt.Errorf("decoding Gemini response: %w", err))
	}
	if len(resp.Candidates) == 0 {
		return failed(ctx, fmt.Errorf("Gemini API returned no candidates"))
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return failed(ctx, fmt.Errorf("Gemini API returned empty text (finish reason %q)", resp.Candidates[0].FinishReason))
	}
	return succeeded(text)
}
