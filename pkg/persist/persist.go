// Package persist writes and reads per-image annotation files.
//
// A file holds the annotations of exactly one image as a JSON array,
// indented with four spaces and without a trailing newline:
//
//	[
//	    {
//	        "label": "cat",
//	        "type": "Rectangle",
//	        "coordinates": [
//	            10,
//	            20,
//	            110,
//	            220
//	        ]
//	    }
//	]
package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/menta2k/image-labeler/internal/utils"
	"github.com/menta2k/image-labeler/pkg/types"
)

// ErrNoActiveImage is returned when saving with nothing selected
var ErrNoActiveImage = errors.New("no image selected")

const indent = "    "

// Writer decides where annotation files go and writes them
type Writer struct {
	dir         string
	besideImage bool
}

// NewWriter creates a Writer. An empty dir means the working directory.
// With besideImage set, files are written next to their source image.
func NewWriter(dir string, besideImage bool) *Writer {
	return &Writer{dir: dir, besideImage: besideImage}
}

// Path returns the file an image's annotations are written to
func (w *Writer) Path(imagePath string) string {
	name := utils.AnnotationFilename(imagePath)
	if w.besideImage {
		return filepath.Join(filepath.Dir(imagePath), name)
	}
	if w.dir == "" {
		return name
	}
	return filepath.Join(w.dir, name)
}

// Save writes the annotations of imagePath, replacing any existing file
func (w *Writer) Save(imagePath string, annotations []types.Annotation) (string, error) {
	if imagePath == "" {
		return "", ErrNoActiveImage
	}

	data, err := Encode(annotations)
	if err != nil {
		return "", err
	}

	out := w.Path(imagePath)
	if err := utils.EnsureDir(filepath.Dir(out)); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write annotations: %w", err)
	}

	return out, nil
}

// Encode renders annotations in the file format
func Encode(annotations []types.Annotation) ([]byte, error) {
	if annotations == nil {
		annotations = []types.Annotation{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(annotations); err != nil {
		return nil, fmt.Errorf("failed to marshal annotations: %w", err)
	}
	// Encoder always appends a newline
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Load reads an annotation file
func Load(path string) ([]types.Annotation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotations: %w", err)
	}
	var annotations []types.Annotation
	if err := json.Unmarshal(data, &annotations); err != nil {
		return nil, fmt.Errorf("failed to parse annotations %s: %w", path, err)
	}
	if annotations == nil {
		annotations = []types.Annotation{}
	}
	return annotations, nil
}
