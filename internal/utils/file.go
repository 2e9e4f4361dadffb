package utils

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// GetFileExtension returns the lower-cased file extension including the dot
func GetFileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// IsImageFile checks if a file has one of the allowed extensions.
// Extensions are compared case-insensitively and include the leading dot.
func IsImageFile(filename string, extensions []string) bool {
	ext := GetFileExtension(filename)
	if ext == "" {
		return false
	}
	for _, allowed := range extensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// ListImageFiles lists the image files directly inside dir, sorted by name.
// Symlinks are kept when they point to a regular file.
func ListImageFiles(dir string, extensions []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !IsImageFile(e.Name(), extensions) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if e.Type()&os.ModeSymlink != 0 {
			// follow links; broken ones and links to directories are skipped
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		} else if !e.Type().IsRegular() {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)

	return files, nil
}

// AnnotationFilename returns "<base name without extension>.json" for an image path
func AnnotationFilename(imagePath string) string {
	baseName := filepath.Base(imagePath)
	nameWithoutExt := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	return nameWithoutExt + ".json"
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists checks if a directory exists
func DirExists(dirname string) bool {
	info, err := os.Stat(dirname)
	if err != nil {
		return false
	}
	return info.IsDir()
}
