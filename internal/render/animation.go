// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"errors"
	"fmt"
	"image"
	colorpalette "image/color/palette"
	"image/gif"
	"io"
	"os"
	"path/filepath"
	"time"

	xdraw "golang.org/x/image/draw"
	"gonum.org/v1/plot/vg"
)

// ErrNoFrames is returned when writing an animation with no frames.
var ErrNoFrames = errors.New("animation has no frames")

// supersample is the factor charts are rasterized above the output size
// before being scaled down.
const supersample = 2

// Animation accumulates frames for an animated GIF.
type Animation struct {
	width, height int
	delay         time.Duration
	frames        []*image.Paletted
	delays        []int
}

// NewAnimation creates an animation of width x height pixels with delay
// between frames.
func NewAnimation(width, height int, delay time.Duration) *Animation {
	return &Animation{width: width, height: height, delay: delay}
}

// Len returns the number of frames.
func (a *Animation) Len() int { return len(a.frames) }

// AddChart rasterizes c as the next frame.
func (a *Animation) AddChart(c *Chart) {
	w := vg.Length(a.width*supersample) * vg.Inch / 96
	h := vg.Length(a.height*supersample) * vg.Inch / 96
	a.AddImage(c.Image(w, h))
}

// AddImage appends img, scaled to the animation size and dithered to the
// GIF palette.
func (a *Animation) AddImage(img image.Image) {
	bounds := image.Rect(0, 0, a.width, a.height)
	scaled := image.NewRGBA(bounds)
	xdraw.CatmullRom.Scale(scaled, bounds, img, img.Bounds(), xdraw.Src, nil)

	frame := image.NewPaletted(bounds, colorpalette.Plan9)
	xdraw.FloydSteinberg.Draw(frame, bounds, scaled, image.Point{})
	a.frames = append(a.frames, frame)
	a.delays = append(a.delays, centiseconds(a.delay))
}

// Hold keeps the last frame on screen for d.
func (a *Animation) Hold(d time.Duration) {
	if len(a.delays) > 0 {
		a.delays[len(a.delays)-1] = centiseconds(d)
	}
}

func centiseconds(d time.Duration) int {
	cs := int(d / (10 * time.Millisecond))
	if cs < 1 {
		cs = 1
	}
	return cs
}

// WriteGIF encodes the animation, looping forever.
func (a *Animation) WriteGIF(w io.Writer) error {
	if len(a.frames) == 0 {
		return ErrNoFrames
	}
	return gif.EncodeAll(w, &gif.GIF{Image: a.frames, Delay: a.delays})
}

// Save writes the animation to path.
func (a *Animation) Save(path string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := a.WriteGIF(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
