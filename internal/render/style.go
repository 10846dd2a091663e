// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render draws the house-style figures: dark background, light
// axes pushed outward, a headline in the top-left and the data source in
// the bottom-left. It wraps gonum/plot and writes PNG, SVG, PDF or GIF.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot/vg"

	"github.com/pdiddy/icevarfigs/pkg/types"
)

// ErrColor is returned for color strings that are neither a known name nor
// a #rrggbb value.
var ErrColor = errors.New("invalid color")

// Style is the resolved visual style of a figure.
type Style struct {
	Background color.Color
	Foreground color.Color
	Axis       color.Color
	Highlight  color.Color
	Muted      color.Color
	FontSize   vg.Length
	LineWidth  vg.Length
}

// DefaultStyle is the dark style every recipe uses unless configured.
func DefaultStyle() Style {
	s, _ := StyleFrom(types.DefaultStyle())
	return s
}

// StyleFrom resolves the color names and sizes in cfg.
func StyleFrom(cfg types.StyleConfig) (Style, error) {
	var s Style
	for _, c := range []struct {
		dst *color.Color
		src string
	}{
		{&s.Background, cfg.Background},
		{&s.Foreground, cfg.Foreground},
		{&s.Axis, cfg.Axis},
		{&s.Highlight, cfg.Highlight},
		{&s.Muted, cfg.Muted},
	} {
		col, err := ParseColor(c.src)
		if err != nil {
			return Style{}, err
		}
		*c.dst = col
	}
	s.FontSize = vg.Points(cfg.FontSize)
	s.LineWidth = vg.Points(cfg.LineWidth)
	if s.FontSize <= 0 {
		s.FontSize = vg.Points(11)
	}
	if s.LineWidth <= 0 {
		s.LineWidth = vg.Points(1.5)
	}
	return s, nil
}

// ParseColor accepts SVG color names ("darkorange", "dimgrey") and
// "#rrggbb" or "#rrggbbaa" hex values.
func ParseColor(s string) (color.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	if !strings.HasPrefix(s, "#") || (len(s) != 7 && len(s) != 9) {
		return nil, fmt.Errorf("%w: %q", ErrColor, s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrColor, s)
	}
	if len(s) == 7 {
		return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// MustColor is ParseColor for compile-time constant names.
func MustColor(s string) color.Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}
