// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/icevarfigs/pkg/types"
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
				writeFile(t, dir, KeyEarthdataToken, "  eyJhbGciOi  \n")
				writeFile(t, dir, KeyFTPUser, "anonymous")
				writeFile(t, dir, KeyFTPPassword, "me@example.com\n")
				return dir
			},
			want: Set{
				KeyEarthdataToken: "eyJhbGciOi",
				KeyFTPUser:        "anonymous",
				KeyFTPPassword:    "me@example.com",
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
			name: "skips empty files, dotfiles and directories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, KeyEarthdataToken, "tok")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				writeFile(t, dir, ".gitkeep", "")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: Set{KeyEarthdataToken: "tok"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), &bytes.Buffer{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeysSorted(t *testing.T) {
	s := Set{KeyFTPUser: "u", KeyEarthdataToken: "t", KeyFTPPassword: "p"}
	assert.Equal(t, []string{KeyEarthdataToken, KeyFTPPassword, KeyFTPUser}, s.Keys())
}

func TestApply(t *testing.T) {
	s := Set{KeyEarthdataToken: "tok", KeyFTPUser: "user", KeyFTPPassword: "pw"}

	var cfg types.FetchConfig
	s.Apply(&cfg)
	assert.Equal(t, "tok", cfg.BearerToken)
	assert.Equal(t, "user", cfg.FTPUser)
	assert.Equal(t, "pw", cfg.FTPPassword)

	preset := types.FetchConfig{FTPUser: "configured"}
	s.Apply(&preset)
	assert.Equal(t, "configured", preset.FTPUser)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}
