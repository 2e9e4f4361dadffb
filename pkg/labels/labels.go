// Package labels is the user-maintained, append-only list of label names.
package labels

import (
	"errors"
	"fmt"

	"github.com/menta2k/image-labeler/pkg/types"
)

var (
	// ErrEmptyLabel is returned for an empty or cancelled add-label prompt
	ErrEmptyLabel = errors.New("empty label")
	// ErrOutOfRange is returned when selecting a position that does not exist
	ErrOutOfRange = errors.New("label index out of range")
)

// Registry holds the labels in insertion order and the current selection
type Registry struct {
	labels   []string
	selected int
}

// New creates an empty registry with nothing selected
func New() *Registry {
	return &Registry{selected: -1}
}

// Add appends a label. Duplicates are kept.
func (r *Registry) Add(label string) error {
	if label == "" {
		return ErrEmptyLabel
	}
	r.labels = append(r.labels, label)
	return nil
}

// Select makes the label at index the current one
func (r *Registry) Select(index int) error {
	if index < 0 || index >= len(r.labels) {
		return fmt.Errorf("%w: %d (have %d)", ErrOutOfRange, index, len(r.labels))
	}
	r.selected = index
	return nil
}

// ClearSelection deselects the current label
func (r *Registry) ClearSelection() {
	r.selected = -1
}

// Selected returns the selected label, if any
func (r *Registry) Selected() (string, bool) {
	if r.selected < 0 {
		return "", false
	}
	return r.labels[r.selected], true
}

// SelectedIndex returns the selected position, or -1
func (r *Registry) SelectedIndex() int {
	return r.selected
}

// Current returns the label new annotations get
func (r *Registry) Current() string {
	if l, ok := r.Selected(); ok {
		return l
	}
	return types.UnknownLabel
}

// List returns a copy of all labels
func (r *Registry) List() []string {
	out := make([]string, len(r.labels))
	copy(out, r.labels)
	return out
}
