// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/pdiddy/icevarfigs/pkg/types"
)

// SourceKind classifies an identifier given on the command line.
type SourceKind int

const (
	KindUnknown SourceKind = iota
	KindRegistry
	KindURL
	KindFile
)

func (k SourceKind) String() string {
	switch k {
	case KindRegistry:
		return "registry"
	case KindURL:
		return "url"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// Classify determines what an identifier refers to and returns a Dataset
// for it. Registry names resolve through Lookup. http, https and ftp URLs
// become ad-hoc datasets named after the file. file:// URLs and paths
// ending in a known extension are local files.
func Classify(identifier string) (SourceKind, types.Dataset, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return KindUnknown, types.Dataset{}, fmt.Errorf("%w: empty identifier", ErrUnknown)
	}

	if ds, err := Lookup(identifier); err == nil {
		return KindRegistry, ds, nil
	}

	if u, err := url.Parse(identifier); err == nil && u.Scheme != "" {
		switch u.Scheme {
		case "http", "https", "ftp":
			file := path.Base(u.Path)
			if file == "" || file == "." || file == "/" {
				file = urlHashSlug(identifier)
			}
			return KindURL, types.Dataset{
				Name:     Slug(file),
				URL:      identifier,
				Format:   FormatFromName(file),
				FileName: file,
			}, nil
		case "file":
			file := filepath.Base(u.Path)
			return KindFile, types.Dataset{
				Name:     Slug(file),
				URL:      identifier,
				Format:   FormatFromName(file),
				FileName: file,
			}, nil
		}
	}

	if f := FormatFromName(identifier); f != "" {
		file := filepath.Base(identifier)
		return KindFile, types.Dataset{
			Name:     Slug(file),
			URL:      "file://" + filepath.ToSlash(identifier),
			Format:   f,
			FileName: file,
		}, nil
	}

	return KindUnknown, types.Dataset{}, fmt.Errorf("%w: %q", ErrUnknown, identifier)
}

// Slug returns a registry-style name for a file: lower case, extensions
// stripped, separators collapsed to dashes.
func Slug(file string) string {
	base := strings.ToLower(file)
	for _, ext := range []string{".gz", ".csv", ".txt", ".dat", ".nc", ".h"} {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.NewReplacer("_", "-", ".", "-", " ", "-").Replace(base)
	return strings.Trim(base, "-")
}

// FormatFromName guesses a format from a file name. It returns "" when the
// name is not recognized.
func FormatFromName(name string) types.DataFormat {
	lower := strings.ToLower(filepath.Base(name))
	switch {
	case strings.HasSuffix(lower, ".nc"):
		return types.FormatNetCDF
	case strings.Contains(lower, "regional") && strings.HasSuffix(lower, ".xlsx"):
		return types.FormatNSIDCRegional
	case strings.HasPrefix(lower, "plot_extent_"):
		return types.FormatJAXACSV
	case strings.Contains(lower, "seaice_extent_climatology"):
		return types.FormatNSIDCClim
	case strings.Contains(lower, "seaice_extent_daily"):
		return types.FormatNSIDCDaily
	case strings.HasPrefix(lower, "heff"):
		return types.FormatPIOMASBinary
	case strings.HasPrefix(lower, "piomas.vol.daily"):
		return types.FormatPIOMASVolume
	case strings.Contains(lower, "griddata"):
		return types.FormatPIOMASGridData
	case strings.HasPrefix(lower, "grid") || strings.HasPrefix(lower, "piomas_grid"):
		return types.FormatPIOMASGrid
	case strings.Contains(lower, "_mass"):
		return types.FormatGRACE
	default:
		return ""
	}
}

func urlHashSlug(rawURL string) string {
	h := sha256.Sum256([]byte(rawURL))
	return fmt.Sprintf("url-%x", h[:8])
}
