package app

import (
	"errors"
	"fmt"

	"github.com/menta2k/image-labeler/pkg/imageset"
	"github.com/menta2k/image-labeler/pkg/labels"
	"github.com/menta2k/image-labeler/pkg/persist"
	"github.com/menta2k/image-labeler/pkg/viewport"
)

// Dialog kinds
const (
	DialogInfo    = "info"
	DialogWarning = "warning"
	DialogError   = "error"
)

// Dialog is a message box shown to the user
type Dialog struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// DialogFor turns an action error into the dialog the user sees.
// Cancelled interactions (no folder picked, empty label) return nil.
func DialogFor(err error) *Dialog {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, imageset.ErrFolderNotSelected), errors.Is(err, labels.ErrEmptyLabel):
		return nil
	case errors.Is(err, persist.ErrNoActiveImage):
		return &Dialog{Kind: DialogWarning, Title: "Warning", Message: "No image selected!"}
	case errors.Is(err, viewport.ErrImageDecode):
		return &Dialog{Kind: DialogError, Title: "Cannot open image", Message: err.Error()}
	case errors.Is(err, ErrSuggestDisabled):
		return &Dialog{Kind: DialogWarning, Title: "Warning", Message: err.Error()}
	default:
		return &Dialog{Kind: DialogError, Title: "Error", Message: err.Error()}
	}
}

// SavedDialog is shown after a successful save
func SavedDialog(file string) *Dialog {
	return &Dialog{Kind: DialogInfo, Title: "Success", Message: fmt.Sprintf("Annotations saved to %s", file)}
}
