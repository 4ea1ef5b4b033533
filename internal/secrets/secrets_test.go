// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-metadata/pkg/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T) string
		want   map[string]string
		errMsg string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "gemini-api-key", "  gk_abc123  \n")
				writeFile(t, dir, "anthropic-api-key", "sk-ant-xyz789")
				return dir
			},
			want: map[string]string{
				"gemini-api-key":    "gk_abc123",
				"anthropic-api-key": "sk-ant-xyz789",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "anthropic-api-key", "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: map[string]string{
				"anthropic-api-key": "valid-key",
			},
		},
		{
			name: "skips dotfiles",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, "gemini-api-key", "gk_real")
				return dir
			},
			want: map[string]string{
				"gemini-api-key": "gk_real",
			},
		},
		{
			name: "skips subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "anthropic-api-key", "ak_123")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{
				"anthropic-api-key": "ak_123",
			},
		},
		{
			name: "returns empty map for empty directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.setup(t)
			got, err := Load(dir, nil)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	dir := t.TempDir()
	writeFile(t, dir, "good-key", "value123")

	// Create a file then remove read permission.
	badPath := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	got, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "value123", got["good-key"])
	_, hasBad := got["bad-key"]
	assert.False(t, hasBad, "unreadable file should not appear in result")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "# local keys\nGEMINI_API_KEY=gk_dotenv\nexport ANTHROPIC_API_KEY=\"sk-ant-dotenv\"\n")

	got, err := LoadDotEnv(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, "gk_dotenv", got["GEMINI_API_KEY"])
	assert.Equal(t, "sk-ant-dotenv", got["ANTHROPIC_API_KEY"])

	missing, err := LoadDotEnv(filepath.Join(dir, "absent.env"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestResolve(t *testing.T) {
	noEnv := func(string) string { return "" }
	env := func(vals map[string]string) func(string) string {
		return func(k string) string { return vals[k] }
	}

	tests := []struct {
		name       string
		provider   types.Provider
		dotEnv     string
		keyFiles   map[string]string
		configKey  string
		getenv     func(string) string
		wantValue  string
		wantSource string
		wantErr    bool
	}{
		{
			name:       "dotenv wins over everything",
			provider:   types.ProviderGemini,
			dotEnv:     "GEMINI_API_KEY=from-dotenv\n",
			keyFiles:   map[string]string{"gemini-api-key": "from-file"},
			configKey:  "from-config",
			getenv:     env(map[string]string{"GEMINI_API_KEY": "from-env"}),
			wantValue:  "from-dotenv",
			wantSource: ".env",
		},
		{
			name:       "key file before config and environment",
			provider:   types.ProviderClaude,
			dotEnv:     "GEMINI_API_KEY=other-provider\n",
			keyFiles:   map[string]string{"anthropic-api-key": "from-file"},
			configKey:  "from-config",
			getenv:     env(map[string]string{"ANTHROPIC_API_KEY": "from-env"}),
			wantValue:  "from-file",
			wantSource: "anthropic-api-key",
		},
		{
			name:       "config key before environment",
			provider:   types.ProviderGemini,
			configKey:  "from-config",
			getenv:     env(map[string]string{"GEMINI_API_KEY": "from-env"}),
			wantValue:  "from-config",
			wantSource: "config file",
		},
		{
			name:       "environment last",
			provider:   types.ProviderClaude,
			getenv:     env(map[string]string{"ANTHROPIC_API_KEY": " from-env "}),
			wantValue:  "from-env",
			wantSource: "$ANTHROPIC_API_KEY",
		},
		{
			name:     "nothing found",
			provider: types.ProviderGemini,
			keyFiles: map[string]string{"anthropic-api-key": "wrong-provider"},
			getenv:   noEnv,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			secretsDir := filepath.Join(dir, ".secrets")
			require.NoError(t, os.Mkdir(secretsDir, 0o755))
			for name, v := range tt.keyFiles {
				writeFile(t, secretsDir, name, v)
			}
			if tt.dotEnv != "" {
				writeFile(t, dir, ".env", tt.dotEnv)
			}

			cred, err := Resolve(tt.provider, Sources{
				DotEnv:     filepath.Join(dir, ".env"),
				SecretsDir: secretsDir,
				ConfigKey:  tt.configKey,
				Getenv:     tt.getenv,
			}, nil)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrNoCredential)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValue, cred.Value)
			assert.Contains(t, cred.Source, tt.wantSource)
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
