// Package store keeps the annotations drawn on each image for the lifetime
// of the process.
package store

import (
	"errors"
	"fmt"
	"sort"

	"github.com/menta2k/image-labeler/pkg/types"
)

// ErrOutOfRange is returned when removing a position that does not exist
var ErrOutOfRange = errors.New("annotation index out of range")

// Entry is a stored annotation plus the size of the bitmap it was drawn on.
// A zero Drawn means the size is unknown, as for imported files.
// Drawn is never written to annotation files.
type Entry struct {
	Annotation types.Annotation
	Drawn      types.Size
}

// Store maps an image path to its ordered annotations
type Store struct {
	entries map[string][]Entry
}

// New creates an empty store
func New() *Store {
	return &Store{entries: map[string][]Entry{}}
}

// Append adds an annotation to the end of the list for path
func (s *Store) Append(path string, a types.Annotation) {
	s.AppendDrawn(path, a, types.Size{})
}

// AppendDrawn adds an annotation drawn on a bitmap of the given size
func (s *Store) AppendDrawn(path string, a types.Annotation, drawn types.Size) {
	s.entries[path] = append(s.entries[path], Entry{Annotation: a, Drawn: drawn})
}

// List returns a copy of the annotations for path. The result is never nil.
func (s *Store) List(path string) []types.Annotation {
	src := s.entries[path]
	out := make([]types.Annotation, len(src))
	for i, e := range src {
		out[i] = e.Annotation
	}
	return out
}

// Entries returns a copy of the entries for path. The result is never nil.
func (s *Store) Entries(path string) []Entry {
	src := s.entries[path]
	out := make([]Entry, len(src))
	copy(out, src)
	return out
}

// Len returns the number of annotations stored for path
func (s *Store) Len(path string) int {
	return len(s.entries[path])
}

// Remove deletes the annotation at index for path and returns it
func (s *Store) Remove(path string, index int) (types.Annotation, error) {
	list := s.entries[path]
	if index < 0 || index >= len(list) {
		return types.Annotation{}, fmt.Errorf("%w: %d (have %d)", ErrOutOfRange, index, len(list))
	}
	removed := list[index]
	s.entries[path] = append(list[:index:index], list[index+1:]...)
	return removed.Annotation, nil
}

// Replace sets the whole list for path
func (s *Store) Replace(path string, list []types.Annotation) {
	cp := make([]Entry, len(list))
	for i, a := range list {
		cp[i] = Entry{Annotation: a}
	}
	s.entries[path] = cp
}

// Has reports whether path has ever been given a list, even an empty one
func (s *Store) Has(path string) bool {
	_, ok := s.entries[path]
	return ok
}

// Paths returns the image paths with a list, sorted
func (s *Store) Paths() []string {
	paths := make([]string, 0, len(s.entries))
	for p := range s.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
