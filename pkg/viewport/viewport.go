// Package viewport holds the active image and its zoomed rendering.
package viewport

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/image-labeler/pkg/processing"
	"github.com/menta2k/image-labeler/pkg/types"
)

var (
	// ErrImageDecode is returned when the selected file cannot be decoded
	ErrImageDecode = errors.New("cannot decode image")
	// ErrNoImage is returned when zooming before an image is loaded
	ErrNoImage = errors.New("no image loaded")
)

// Config holds display box and zoom step settings.
// MinZoom and MaxZoom bound the factor relative to the fitted size.
type Config struct {
	MaxWidth  int
	MaxHeight int
	ZoomIn    float64
	ZoomOut   float64
	MinZoom   float64
	MaxZoom   float64
}

// DefaultConfig returns an 800x600 box with 1.1/0.9 zoom steps, bounded
// to 0.01..8 times the fitted size
func DefaultConfig() Config {
	return Config{MaxWidth: 800, MaxHeight: 600, ZoomIn: 1.1, ZoomOut: 0.9, MinZoom: 0.01, MaxZoom: 8}
}

// Viewport is the visible, possibly zoomed, rendering of the active image.
//
// The fitted size is the original size scaled down into the display box.
// The displayed size is the fitted size times the zoom factor and is always
// resampled from the original so interpolation loss does not compound.
type Viewport struct {
	config    Config
	processor *processing.Processor

	path      string
	original  image.Image
	fitted    types.Size
	zoom      float64
	displayed image.Image
}

// New creates an empty viewport
func New(config Config, processor *processing.Processor) *Viewport {
	return &Viewport{
		config:    config,
		processor: processor,
		zoom:      1.0,
	}
}

// Load decodes path, resets the zoom factor and returns the fitted bitmap.
// On failure the previously loaded image stays active.
func (v *Viewport) Load(path string) (image.Image, error) {
	img, err := v.processor.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageDecode, err)
	}

	b := img.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 {
		return nil, fmt.Errorf("%w: %s has no pixels", ErrImageDecode, path)
	}

	// imaging.Fit never upscales, like a thumbnail
	fitted := imaging.Fit(img, v.config.MaxWidth, v.config.MaxHeight, imaging.Lanczos)

	v.path = path
	v.original = img
	v.zoom = 1.0
	v.fitted = types.Size{Width: fitted.Bounds().Dx(), Height: fitted.Bounds().Dy()}
	v.displayed = fitted

	return fitted, nil
}

// Zoom scales the displayed bitmap. A positive delta zooms in, a negative
// delta zooms out and zero leaves the view unchanged. The factor is clamped
// to [MinZoom, MaxZoom]; a step at a bound keeps the current bitmap.
func (v *Viewport) Zoom(delta float64) (image.Image, error) {
	if v.original == nil {
		return nil, ErrNoImage
	}

	zoom := v.zoom
	switch {
	case delta > 0:
		zoom *= v.config.ZoomIn
	case delta < 0:
		zoom *= v.config.ZoomOut
	default:
		return v.displayed, nil
	}
	zoom = v.clampZoom(zoom)
	if zoom == v.zoom {
		return v.displayed, nil
	}
	v.zoom = zoom

	size := v.targetSize()
	v.displayed = imaging.Resize(v.original, size.Width, size.Height, imaging.Lanczos)

	return v.displayed, nil
}

func (v *Viewport) clampZoom(zoom float64) float64 {
	if v.config.MaxZoom > 0 && zoom > v.config.MaxZoom {
		zoom = v.config.MaxZoom
	}
	if v.config.MinZoom > 0 && zoom < v.config.MinZoom {
		zoom = v.config.MinZoom
	}
	return zoom
}

// targetSize is the fitted size times the zoom factor, at least 1x1
func (v *Viewport) targetSize() types.Size {
	w := int(math.Round(float64(v.fitted.Width) * v.zoom))
	h := int(math.Round(float64(v.fitted.Height) * v.zoom))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return types.Size{Width: w, Height: h}
}

// Path returns the path of the loaded image
func (v *Viewport) Path() string {
	return v.path
}

// Loaded reports whether an image is loaded
func (v *Viewport) Loaded() bool {
	return v.original != nil
}

// Displayed returns the current bitmap, or nil
func (v *Viewport) Displayed() image.Image {
	return v.displayed
}

// ZoomFactor returns the current zoom factor
func (v *Viewport) ZoomFactor() float64 {
	return v.zoom
}

// Size returns the displayed bitmap size
func (v *Viewport) Size() types.Size {
	if v.displayed == nil {
		return types.Size{}
	}
	b := v.displayed.Bounds()
	return types.Size{Width: b.Dx(), Height: b.Dy()}
}

// FittedSize returns the size of the bitmap at zoom 1
func (v *Viewport) FittedSize() types.Size {
	return v.fitted
}

// OriginalSize returns the size of the decoded image
func (v *Viewport) OriginalSize() types.Size {
	if v.original == nil {
		return types.Size{}
	}
	b := v.original.Bounds()
	return types.Size{Width: b.Dx(), Height: b.Dy()}
}

// Scale returns displayed pixels per original pixel on each axis
func (v *Viewport) Scale() (float64, float64) {
	disp, orig := v.Size(), v.OriginalSize()
	if orig.Width == 0 || orig.Height == 0 {
		return 1, 1
	}
	return float64(disp.Width) / float64(orig.Width), float64(disp.Height) / float64(orig.Height)
}

// ToImageSpace maps display coordinates back to original image pixels
func (v *Viewport) ToImageSpace(c types.Coordinates) types.Coordinates {
	sx, sy := v.Scale()
	return types.Coordinates{
		round2(c[0] / sx), round2(c[1] / sy),
		round2(c[2] / sx), round2(c[3] / sy),
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
