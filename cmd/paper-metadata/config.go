// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/paper-metadata/internal/secrets"
	"github.com/pdiddy/paper-metadata/pkg/types"
)

// ConfigError is a problem found before any paper is processed. Remedy
// tells the operator how to fix it.
type ConfigError struct {
	Problem string
	Remedy  string
}

func (e *ConfigError) Error() string {
	if e.Remedy == "" {
		return e.Problem
	}
	return e.Problem + "\n" + e.Remedy
}

// configFromViper reads an ExtractionConfig from v and fills defaults. The
// API key is not resolved here.
func configFromViper(v *viper.Viper) (types.ExtractionConfig, error) {
	cfg := types.ExtractionConfig{
		AIConfig: types.AIConfig{
			Provider:       types.Provider(strings.ToLower(strings.TrimSpace(v.GetString("provider")))),
			Model:          v.GetString("model"),
			APIKey:         v.GetString("api_key"),
			Timeout:        v.GetDuration("timeout"),
			MaxAttempts:    v.GetInt("max_attempts"),
			RetryBaseDelay: v.GetDuration("retry_base_delay"),
		},
		StateConfig: types.StateConfig{
			WorkDir: v.GetString("work_dir"),
		},
		MaxPages: v.GetInt("max_pages"),
	}
	cfg = cfg.WithDefaults()

	switch cfg.Provider {
	case types.ProviderGemini, types.ProviderClaude:
	default:
		return cfg, &ConfigError{
			Problem: fmt.Sprintf("unsupported provider %q", cfg.Provider),
			Remedy:  "Set provider to gemini or claude with --provider or in paper-metadata.yaml.",
		}
	}
	return cfg, nil
}

// resolveCredential fills cfg.APIKey from the first source that has one.
func resolveCredential(cfg *types.ExtractionConfig) error {
	cred, err := secrets.Resolve(cfg.Provider, secrets.Sources{
		DotEnv:     secrets.DefaultDotEnv,
		SecretsDir: secrets.DefaultDir,
		ConfigKey:  cfg.APIKey,
	}, logger)
	if errors.Is(err, secrets.ErrNoCredential) {
		return &ConfigError{
			Problem: fmt.Sprintf("no API key found for provider %s", cfg.Provider),
			Remedy: fmt.Sprintf(`Provide one of:
  - %s=<key> in a .env file in the current directory
  - a file %s/%s containing the key
  - api_key: <key> in paper-metadata.yaml
  - export %s=<key>`,
				secrets.EnvVar(cfg.Provider), secrets.DefaultDir, secrets.KeyFile(cfg.Provider), secrets.EnvVar(cfg.Provider)),
		}
	}
	if err != nil {
		return err
	}
	logger.Debug("config.credential", "provider", cfg.Provider, "source", cred.Source)
	cfg.APIKey = cred.Value
	return nil
}

// checkRootDir verifies that dir exists and is a directory.
func checkRootDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ConfigError{
				Problem: fmt.Sprintf("directory %s does not exist", dir),
				Remedy:  "Pass the directory that contains your PDF papers, e.g. paper-metadata run ~/papers.",
			}
		}
		return fmt.Errorf("checking %s: %w", dir, err)
	}
	if !info.IsDir() {
		return &ConfigError{
			Problem: fmt.Sprintf("%s is not a directory", dir),
			Remedy:  "Pass the directory that contains your PDF papers, not a single file.",
		}
	}
	return nil
}
