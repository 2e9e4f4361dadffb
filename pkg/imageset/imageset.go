// Package imageset holds the ordered list of images discovered in a folder
// and tracks which one is active.
package imageset

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/menta2k/image-labeler/internal/utils"
)

var (
	// ErrFolderNotSelected is returned when the folder picker was cancelled
	ErrFolderNotSelected = errors.New("no folder selected")
	// ErrOutOfRange is returned for an index outside the current list
	ErrOutOfRange = errors.New("image index out of range")
)

// Entry is one image of the loaded folder
type Entry struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// Manager maps list positions to image paths
type Manager struct {
	extensions []string
	folder     string
	entries    []Entry
	active     int
}

// New creates a Manager accepting the given extensions (".jpg", ".png", ...)
func New(extensions []string) *Manager {
	return &Manager{
		extensions: extensions,
		active:     -1,
	}
}

// SelectFolder replaces the current list with the images found in dir.
// Entries are sorted by file name and the active selection is cleared.
func (m *Manager) SelectFolder(dir string) ([]Entry, error) {
	if dir == "" {
		return nil, ErrFolderNotSelected
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve folder %s: %w", dir, err)
	}

	files, err := utils.ListImageFiles(abs, m.extensions)
	if err != nil {
		return nil, fmt.Errorf("failed to list folder %s: %w", abs, err)
	}

	entries := make([]Entry, len(files))
	for i, f := range files {
		entries[i] = Entry{Path: f, Name: filepath.Base(f)}
	}

	m.folder = abs
	m.entries = entries
	m.active = -1

	return m.Entries(), nil
}

// Path returns the path at index without changing the active image
func (m *Manager) Path(index int) (string, error) {
	if index < 0 || index >= len(m.entries) {
		return "", fmt.Errorf("%w: %d (have %d)", ErrOutOfRange, index, len(m.entries))
	}
	return m.entries[index].Path, nil
}

// SelectImage marks the entry at index as active and returns its path
func (m *Manager) SelectImage(index int) (string, error) {
	path, err := m.Path(index)
	if err != nil {
		return "", err
	}
	m.active = index
	return path, nil
}

// Active returns the path of the active image
func (m *Manager) Active() (string, bool) {
	if m.active < 0 {
		return "", false
	}
	return m.entries[m.active].Path, true
}

// ActiveIndex returns the list position of the active image, or -1
func (m *Manager) ActiveIndex() int {
	return m.active
}

// Entries returns a copy of the current list
func (m *Manager) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Folder returns the folder the list was built from
func (m *Manager) Folder() string {
	return m.folder
}

// Len returns the number of images in the list
func (m *Manager) Len() int {
	return len(m.entries)
}
