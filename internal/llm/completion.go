// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pdiddy/paper-metadata/pkg/types"
)

// Failure classifies an unsuccessful completion attempt.
type Failure int

const (
	// FailureNone marks a successful completion.
	FailureNone Failure = iota
	// FailureTransport covers network errors, non-2xx responses and
	// unusable response envelopes. It is retryable.
	FailureTransport
	// FailureCanceled means the caller's context ended. It is never retried.
	FailureCanceled
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureTransport:
		return "transport"
	case FailureCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("failure(%d)", int(f))
	}
}

// Completion is the outcome of one call to a completion service: either the
// response text, or a classified failure with its cause.
type Completion struct {
	Text    string
	Failure Failure
	Err     error
}

// OK reports whether the call produced text.
func (c Completion) OK() bool { return c.Failure == FailureNone }

// Retryable reports whether another attempt may succeed.
func (c Completion) Retryable() bool { return c.Failure == FailureTransport }

// succeeded wraps response text.
func succeeded(text string) Completion {
	return Completion{Text: text}
}

// failed classifies err. Cancellation of ctx wins over any transport cause;
// a per-request timeout while ctx is still live is a transport failure.
func failed(ctx context.Context, err error) Completion {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Completion{Failure: FailureCanceled, Err: ctxErr}
	}
	return Completion{Failure: FailureTransport, Err: err}
}

// Completer sends a prompt to a text-completion service.
type Completer interface {
	Complete(ctx context.Context, prompt string) Completion
}

// NewBackend returns the Completer for cfg.Provider.
func NewBackend(cfg types.AIConfig, client *http.Client, log *slog.Logger) (Completer, error) {
	switch cfg.Provider {
	case types.ProviderGemini, "":
		return &GeminiBackend{APIKey: cfg.APIKey, Model: cfg.Model, Client: client, Log: log}, nil
	case types.ProviderClaude:
		return &ClaudeBackend{APIKey: cfg.APIKey, Model: cfg.Model, Client: client, Log: log}, nil
	default:
		return nil, fmt.Errorf("unsupported provider %q: use gemini or claude", cfg.Provider)
	}
}
