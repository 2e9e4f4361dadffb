package processing

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/image-labeler/pkg/types"
)

// Overlay colors
const (
	committedColor   = "#00ff00"
	provisionalColor = "#ff0000"
)

// Processor handles image processing operations
type Processor struct{}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{}
}

// LoadImage loads an image from a file path with WebP support
func (p *Processor) LoadImage(path string) (image.Image, error) {
	// Try imaging.Open (registered decoders)
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := p.decodeImageFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// decodeImageFromBytes decodes an image from byte data with WebP support
func (p *Processor) decodeImageFromBytes(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}

	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// DecodeConfig reads the dimensions of an image file without decoding pixels
func (p *Processor) DecodeConfig(path string) (types.Size, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Size{}, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return types.Size{}, err
	}
	return types.Size{Width: cfg.Width, Height: cfg.Height}, nil
}

// ContentType returns the MIME type for an encode format
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case "webp":
		return "image/webp"
	case "png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}

// Encode writes an image in the given format (png, jpg or webp)
func (p *Processor) Encode(w io.Writer, img image.Image, format string, quality int, lossless bool) error {
	switch strings.ToLower(format) {
	case "webp":
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		return webp.Encode(w, img, opts)
	case "png":
		return imaging.Encode(w, img, imaging.PNG)
	default: // jpg/jpeg
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	}
}

// PrepareImageForModel converts an image to base64 for sending to vision models
func (p *Processor) PrepareImageForModel(img image.Image, format string, maxDim int, quality int) (string, error) {
	if maxDim > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > maxDim || h > maxDim {
			if w >= h {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return "", err
		}
	default: // jpg
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", err
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// CropRegion crops the pixel region spanned by two corners.
// The corners may be given in any order; the region is clipped to the image.
func (p *Processor) CropRegion(img image.Image, c types.Coordinates) (image.Image, error) {
	x0, y0, x1, y1 := normalizedRect(c)
	rect := image.Rect(
		int(math.Floor(x0)), int(math.Floor(y0)),
		int(math.Ceil(x1)), int(math.Ceil(y1)),
	).Add(img.Bounds().Min).Intersect(img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("empty crop rectangle")
	}
	return imaging.Crop(img, rect), nil
}

// DrawAnnotations renders committed annotations and an optional provisional
// shape on top of a copy of img
func (p *Processor) DrawAnnotations(img image.Image, committed []types.Annotation, provisional *types.Annotation) image.Image {
	dc := gg.NewContextForImage(img)
	w, h := dc.Width(), dc.Height()
	stroke := math.Max(1, 0.003*float64(minInt(w, h)))

	dc.SetHexColor(committedColor)
	for _, a := range committed {
		drawShape(dc, a, stroke)
		if a.Label != "" {
			x0, y0, _, _ := normalizedRect(a.Coordinates)
			dc.DrawString(a.Label, x0+2, math.Max(12, y0-3))
		}
	}

	if provisional != nil {
		dc.SetHexColor(provisionalColor)
		drawShape(dc, *provisional, stroke)
	}

	return dc.Image()
}

// drawShape strokes a single annotation. Rectangle and Polygon are drawn as
// the two-corner box, Circle as the ellipse inscribed in it and Point as a
// dot at the end position.
func drawShape(dc *gg.Context, a types.Annotation, stroke float64) {
	x0, y0, x1, y1 := normalizedRect(a.Coordinates)
	dc.SetLineWidth(stroke)
	switch a.Type {
	case types.ToolPoint:
		dc.DrawPoint(a.Coordinates[2], a.Coordinates[3], 2*stroke+1)
		dc.Fill()
	case types.ToolCircle:
		dc.DrawEllipse((x0+x1)/2, (y0+y1)/2, (x1-x0)/2, (y1-y0)/2)
		dc.Stroke()
	default:
		dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
		dc.Stroke()
	}
}

// Helper functions
func normalizedRect(c types.Coordinates) (x0, y0, x1, y1 float64) {
	x0, x1 = math.Min(c[0], c[2]), math.Max(c[0], c[2])
	y0, y1 = math.Min(c[1], c[3]), math.Max(c[1], c[3])
	return
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
