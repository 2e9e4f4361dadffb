package app

import (
	"github.com/menta2k/image-labeler/pkg/imageset"
	"github.com/menta2k/image-labeler/pkg/surface"
	"github.com/menta2k/image-labeler/pkg/types"
)

// State is a snapshot of everything the UI shows
type State struct {
	Folder        string           `json:"folder"`
	Images        []imageset.Entry `json:"images"`
	ActiveImage   int              `json:"activeImage"`
	ActivePath    string           `json:"activePath"`
	Labels        []string         `json:"labels"`
	SelectedLabel int              `json:"selectedLabel"`
	CurrentLabel  string           `json:"currentLabel"`
	Tools         []types.Tool     `json:"tools"`
	Tool          types.Tool       `json:"tool"`

	// Annotations of the active image, and their list rendering
	Annotations    []types.Annotation `json:"annotations"`
	AnnotationList []string           `json:"annotationList"`

	Zoom            float64        `json:"zoom"`
	Display         types.Size     `json:"display"`
	Original        types.Size     `json:"original"`
	CoordinateSpace string         `json:"coordinateSpace"`
	Gesture         string         `json:"gesture"`
	Provisional     *surface.Shape `json:"provisional,omitempty"`
	SuggestEnabled  bool           `json:"suggestEnabled"`
	Version         uint64         `json:"version"`
}

// State returns a snapshot of the current state
func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	path, _ := a.images.Active()
	annotations := a.store.List(path)
	list := make([]string, len(annotations))
	for i, ann := range annotations {
		list[i] = ann.Describe()
	}

	s := State{
		Folder:          a.images.Folder(),
		Images:          a.images.Entries(),
		ActiveImage:     a.images.ActiveIndex(),
		ActivePath:      path,
		Labels:          a.labels.List(),
		SelectedLabel:   a.labels.SelectedIndex(),
		CurrentLabel:    a.labels.Current(),
		Tools:           types.Tools(),
		Tool:            a.surface.Tool(),
		Annotations:     annotations,
		AnnotationList:  list,
		Zoom:            a.view.ZoomFactor(),
		Display:         a.view.Size(),
		Original:        a.view.OriginalSize(),
		CoordinateSpace: a.cfg.Viewport.CoordinateSpace,
		Gesture:         a.surface.State().String(),
		SuggestEnabled:  a.suggester != nil,
		Version:         a.version,
	}
	if shape, ok := a.surface.Provisional(); ok {
		s.Provisional = &shape
	}
	return s
}
