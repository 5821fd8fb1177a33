// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  Set
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, PerplexityAPIKey, "  pplx-abc123  \n")
				writeFile(t, dir, OpenAIAPIKey, "sk-xyz789")
				writeFile(t, dir, GeminiAPIKey, "gm-key\n")
				return dir
			},
			want: Set{
				PerplexityAPIKey: "pplx-abc123",
				OpenAIAPIKey:     "sk-xyz789",
				GeminiAPIKey:     "gm-key",
			},
		},
		{
			name: "returns empty set for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: Set{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, OpenAIAPIKey, "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: Set{OpenAIAPIKey: "valid-key"},
		},
		{
			name: "skips dotfiles and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, PerplexityAPIKey, "pplx-real")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: Set{PerplexityAPIKey: "pplx-real"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read files without permission bits")
	}
	dir := t.TempDir()
	writeFile(t, dir, OpenAIAPIKey, "value123")

	badPath := filepath.Join(dir, GeminiAPIKey)
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	got, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, Set{OpenAIAPIKey: "value123"}, got)
}

func TestSetOr(t *testing.T) {
	s := Set{OpenAIAPIKey: "from-file"}
	assert.Equal(t, "explicit", s.Or(OpenAIAPIKey, "explicit"))
	assert.Equal(t, "from-file", s.Or(OpenAIAPIKey, ""))
	assert.Equal(t, "", s.Or(GeminiAPIKey, ""))
}

func TestSetNames(t *testing.T) {
	s := Set{PerplexityAPIKey: "a", GeminiAPIKey: "b", OpenAIAPIKey: "c"}
	assert.Equal(t, []string{GeminiAPIKey, OpenAIAPIKey, PerplexityAPIKey}, s.Names())
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
