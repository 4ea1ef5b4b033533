// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Provider identifies the text-completion service used for extraction.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderClaude Provider = "claude"
)

// AIConfig holds settings for the completion backend.
type AIConfig struct {
	// Provider selects the completion service: gemini or claude.
	Provider Provider `json:"provider" yaml:"provider"`

	// Model is the model identifier (e.g. "gemini-2.5-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the completion service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Timeout is the HTTP request timeout for one completion call.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxAttempts is the total number of completion attempts per paper,
	// including the first (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// RetryBaseDelay is the wait before the first retry; each later retry
	// doubles it (default 2s).
	RetryBaseDelay time.Duration `json:"retry_base_delay" yaml:"retry_base_delay"`
}

// StateConfig locates the ledger and store files.
type StateConfig struct {
	// WorkDir holds processed_files.json, metadata.json and reset backups.
	WorkDir string `json:"work_dir" yaml:"work_dir"`
}

// ExtractionConfig groups every setting a run needs. It is built once by the
// CLI and passed to each component.
type ExtractionConfig struct {
	AIConfig    `yaml:",inline"`
	StateConfig `yaml:",inline"`

	// MaxPages is the number of leading PDF pages sent to the model (default 3).
	MaxPages int `json:"max_pages" yaml:"max_pages"`
}

// Defaults for ExtractionConfig fields left at their zero value.
const (
	DefaultMaxPages       = 3
	DefaultMaxAttempts    = 3
	DefaultRetryBaseDelay = 2 * time.Second
	DefaultTimeout        = 120 * time.Second
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultClaudeModel    = "claude-sonnet-4-5-20250929"
)

// WithDefaults returns a copy of cfg with zero-valued fields filled in.
func (cfg ExtractionConfig) WithDefaults() ExtractionConfig {
	if cfg.Provider == "" {
		cfg.Provider = ProviderGemini
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
		if cfg.Provider == ProviderClaude {
			cfg.Model = DefaultClaudeModel
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = "."
	}
	return cfg
}
