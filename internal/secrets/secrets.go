// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads data-portal credentials from a directory of plain-text
// files. Each file is one secret: the filename is the key and the trimmed
// contents are the value.
//
// Recognized keys: earthdata-token, ftp-user, ftp-password.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/icevarfigs/pkg/types"
)

const (
	KeyEarthdataToken = "earthdata-token"
	KeyFTPUser        = "ftp-user"
	KeyFTPPassword    = "ftp-password"
)

// Set is the loaded secrets keyed by file name.
type Set map[string]string

// Load reads all files in dir. A missing directory is not an error and
// yields an empty Set. Unreadable files are reported to warn and skipped.
func Load(dir string, warn io.Writer) (Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	set := Set{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if warn != nil {
				fmt.Fprintf(warn, "warning: could not read secret %s: %v\n", name, err)
			}
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			set[name] = value
		}
	}
	return set, nil
}

// Keys returns the loaded key names, sorted. Values are never listed.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Apply copies credentials into cfg. Values already set in cfg win.
func (s Set) Apply(cfg *types.FetchConfig) {
	if cfg.BearerToken == "" {
		cfg.BearerToken = s[KeyEarthdataToken]
	}
	if cfg.FTPUser == "" {
		cfg.FTPUser = s[KeyFTPUser]
	}
	if cfg.FTPPassword == "" {
		cfg.FTPPassword = s[KeyFTPPassword]
	}
}
