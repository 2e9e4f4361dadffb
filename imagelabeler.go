// Package imagelabeler reads and writes the per-image annotation files
// produced by the image-labeler tool.
//
// The interactive tool lives in cmd/image-labeler. It serves a page on a
// loopback address where the user opens a folder, picks an image, draws
// point, rectangle, circle or polygon shapes on it and saves the shapes of
// that image to <image base name>.json.
//
// Basic usage:
//
//	anns, err := imagelabeler.ReadAnnotations("photos/cat.png", "labels")
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, a := range anns {
//		fmt.Println(a.Describe())
//	}
//
// The package consists of these main components:
//
//  1. Image set (pkg/imageset): folder listing and the active image
//  2. Store (pkg/store): annotations per image path
//  3. Surface (pkg/surface): the press, drag, release gesture
//  4. Viewport (pkg/viewport): fit-to-bounds and zoom of the displayed bitmap
//  5. Persist (pkg/persist): the JSON annotation file format
//  6. Suggest (pkg/suggest): optional label suggestion by a vision model
package imagelabeler

import (
	"github.com/menta2k/image-labeler/pkg/persist"
	"github.com/menta2k/image-labeler/pkg/types"
)

// Version of the image labeler
const Version = "1.0.0"

// GetVersion returns the version
func GetVersion() string {
	return Version
}

// AnnotationPath returns the file the annotations of imagePath are saved to.
// An empty outDir means the working directory.
func AnnotationPath(imagePath, outDir string) string {
	return persist.NewWriter(outDir, false).Path(imagePath)
}

// ReadAnnotations loads the saved annotations of imagePath from outDir
func ReadAnnotations(imagePath, outDir string) ([]types.Annotation, error) {
	return persist.Load(AnnotationPath(imagePath, outDir))
}

// WriteAnnotations saves annotations for imagePath into outDir and returns
// the file written
func WriteAnnotations(imagePath, outDir string, annotations []types.Annotation) (string, error) {
	return persist.NewWriter(outDir, false).Save(imagePath, annotations)
}
