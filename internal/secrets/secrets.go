// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets finds the API key for a completion provider. Keys come
// from a .env file, a directory of plain-text key files, the config file,
// or the process environment, checked in that order.
//
// Key files are named after the provider: gemini-api-key, anthropic-api-key.
package secrets

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/subosito/gotenv"

	"github.com/pdiddy/paper-metadata/pkg/types"
)

// Default locations relative to the working directory.
const (
	DefaultDir    = ".secrets"
	DefaultDotEnv = ".env"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string, log *slog.Logger) (map[string]string, error) {
	if log == nil {
		log = slog.Default()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("secrets.read_failed", "name", name, "error", err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadDotEnv parses a .env file without exporting its values into the
// process environment. A missing file yields an empty map.
func LoadDotEnv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	env, err := gotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return env, nil
}

// EnvVar returns the environment variable that holds the key for p.
func EnvVar(p types.Provider) string {
	if p == types.ProviderClaude {
		return "ANTHROPIC_API_KEY"
	}
	return "GEMINI_API_KEY"
}

// KeyFile returns the name of the key file for p inside the secrets dir.
func KeyFile(p types.Provider) string {
	if p == types.ProviderClaude {
		return "anthropic-api-key"
	}
	return "gemini-api-key"
}

// Sources lists where Resolve looks for a key.
type Sources struct {
	DotEnv     string // path to a .env file
	SecretsDir string // directory of key files
	ConfigKey  string // api_key from the config file
	Getenv     func(string) string
}

// Credential is a resolved API key and where it came from.
type Credential struct {
	Value  string
	Source string
}

// ErrNoCredential is returned when no source holds a key.
var ErrNoCredential = errors.New("no API key found")

// Resolve returns the first key found for p. Files are checked before the
// environment so a project-local key wins over a shell-wide one.
func Resolve(p types.Provider, src Sources, log *slog.Logger) (Credential, error) {
	if src.DotEnv != "" {
		env, err := LoadDotEnv(src.DotEnv)
		if err != nil {
			return Credential{}, err
		}
		if v := strings.TrimSpace(env[EnvVar(p)]); v != "" {
			return Credential{Value: v, Source: src.DotEnv}, nil
		}
	}

	if src.SecretsDir != "" {
		keys, err := Load(src.SecretsDir, log)
		if err != nil {
			return Credential{}, err
		}
		if v, ok := keys[KeyFile(p)]; ok {
			return Credential{Value: v, Source: filepath.Join(src.SecretsDir, KeyFile(p))}, nil
		}
	}

	if v := strings.TrimSpace(src.ConfigKey); v != "" {
		return Credential{Value: v, Source: "config file"}, nil
	}

	getenv := src.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(EnvVar(p))); v != "" {
		return Credential{Value: v, Source: "$" + EnvVar(p)}, nil
	}

	return Credential{}, fmt.Errorf("%w for provider %s", ErrNoCredential, p)
}
