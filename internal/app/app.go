// Package app is the controller that owns all labeling state and applies
// user actions to it.
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/cyclopcam/logs"

	"github.com/menta2k/image-labeler/internal/config"
	"github.com/menta2k/image-labeler/internal/utils"
	"github.com/menta2k/image-labeler/pkg/imageset"
	"github.com/menta2k/image-labeler/pkg/labels"
	"github.com/menta2k/image-labeler/pkg/persist"
	"github.com/menta2k/image-labeler/pkg/processing"
	"github.com/menta2k/image-labeler/pkg/store"
	"github.com/menta2k/image-labeler/pkg/suggest"
	"github.com/menta2k/image-labeler/pkg/surface"
	"github.com/menta2k/image-labeler/pkg/types"
	"github.com/menta2k/image-labeler/pkg/viewport"
)

// ErrSuggestDisabled is returned by Suggest when no model is configured
var ErrSuggestDisabled = errors.New("label suggestion is not enabled")

// App owns the image set, the annotation store, the label registry, the
// drawing surface and the viewport. Every method holds the same lock, so
// actions are applied one at a time in arrival order.
type App struct {
	mu sync.Mutex

	cfg       *config.Config
	log       logs.Log
	processor *processing.Processor
	images    *imageset.Manager
	store     *store.Store
	labels    *labels.Registry
	surface   *surface.Surface
	view      *viewport.Viewport
	writer    *persist.Writer
	suggester *suggest.Suggester

	// bumped whenever the rendered frame changes
	version uint64
}

// New creates an App from a validated configuration
func New(cfg *config.Config, log logs.Log) *App {
	processor := processing.NewProcessor()
	return &App{
		cfg:       cfg,
		log:       log,
		processor: processor,
		images:    imageset.New(cfg.ImageSet.Extensions),
		store:     store.New(),
		labels:    labels.New(),
		surface:   surface.New(),
		view:      viewport.New(viewportConfig(cfg), processor),
		writer:    persist.NewWriter(cfg.Output.Dir, cfg.Output.BesideImage),
	}
}

func viewportConfig(cfg *config.Config) viewport.Config {
	return viewport.Config{
		MaxWidth:  cfg.Viewport.MaxWidth,
		MaxHeight: cfg.Viewport.MaxHeight,
		ZoomIn:    cfg.Viewport.ZoomIn,
		ZoomOut:   cfg.Viewport.ZoomOut,
		MinZoom:   cfg.Viewport.MinZoom,
		MaxZoom:   cfg.Viewport.MaxZoom,
	}
}

// SetSuggester enables label suggestion
func (a *App) SetSuggester(s *suggest.Suggester) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.suggester = s
}

// OpenFolder replaces the image list with the images in dir.
// The store keeps annotations of previously loaded folders.
func (a *App) OpenFolder(dir string) ([]imageset.Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries, err := a.images.SelectFolder(dir)
	if err != nil {
		return nil, err
	}
	a.surface.Cancel()
	a.view = viewport.New(viewportConfig(a.cfg), a.processor)
	a.version++
	a.log.Infof("Opened folder %v with %v images", a.images.Folder(), len(entries))

	return entries, nil
}

// SelectImage loads the image at index and makes it active.
// If it cannot be decoded the previous image stays active.
func (a *App) SelectImage(index int) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	path, err := a.images.Path(index)
	if err != nil {
		return "", err
	}
	if _, err := a.view.Load(path); err != nil {
		a.log.Warnf("Failed to load %v: %v", path, err)
		return "", err
	}
	if _, err := a.images.SelectImage(index); err != nil {
		return "", err
	}
	a.surface.Cancel()
	a.version++

	if a.cfg.Output.LoadExisting && !a.store.Has(path) {
		a.importExisting(path)
	}
	a.log.Infof("Selected %v (%v annotations)", path, a.store.Len(path))

	return path, nil
}

// importExisting loads a previously saved file for path, once
func (a *App) importExisting(path string) {
	file := a.writer.Path(path)
	if !utils.FileExists(file) {
		a.store.Replace(path, nil)
		return
	}
	list, err := persist.Load(file)
	if err != nil {
		a.log.Warnf("Ignoring existing annotations %v: %v", file, err)
		a.store.Replace(path, nil)
		return
	}
	a.store.Replace(path, list)
	a.log.Infof("Imported %v annotations from %v", len(list), file)
}

// AddLabel appends a label to the registry. An empty label is ignored.
func (a *App) AddLabel(label string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.labels.Add(label)
}

// SelectLabel makes the label at index current for new annotations
func (a *App) SelectLabel(index int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.labels.Select(index)
}

// ClearLabel deselects the current label so new annotations get "Unknown"
func (a *App) ClearLabel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.labels.ClearSelection()
}

// SetTool selects the palette tool by name
func (a *App) SetTool(name string) error {
	tool, err := types.ParseTool(name)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.surface.SetTool(tool)
	return nil
}

// PointerDown starts a gesture and returns its initial provisional shape.
// It reports false when no image is active.
func (a *App) PointerDown(p types.Point) (surface.Shape, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.images.Active(); !ok {
		return surface.Shape{}, false
	}
	a.surface.Down(p)
	a.version++
	return a.surface.Provisional()
}

// PointerMove updates the provisional shape of the current gesture
func (a *App) PointerMove(p types.Point) (surface.Shape, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	shape, ok := a.surface.Move(p)
	if ok {
		a.version++
	}
	return shape, ok
}

// PointerUp finishes the gesture and appends the new annotation to the
// active image. It reports false for a release without a gesture.
func (a *App) PointerUp(p types.Point) (types.Annotation, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	shape, ok := a.surface.Up(p)
	if !ok {
		return types.Annotation{}, false
	}
	path, active := a.images.Active()
	if !active {
		return types.Annotation{}, false
	}

	label, _ := a.labels.Selected()
	ann := surface.Commit(shape.Anchor, shape.End, label, shape.Tool)
	if a.cfg.Viewport.CoordinateSpace == config.SpaceImage {
		ann.Coordinates = a.view.ToImageSpace(ann.Coordinates)
	}
	a.store.AppendDrawn(path, ann, a.view.Size())
	a.version++

	return ann, true
}

// Zoom rescales the view. Positive delta zooms in, negative zooms out.
func (a *App) Zoom(delta float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.view.Zoom(delta); err != nil {
		return err
	}
	a.version++
	return nil
}

// DeleteAnnotation removes the annotation at the given position of the
// active image's list. The visible list is derived from the store, so it
// follows.
func (a *App) DeleteAnnotation(index int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	path, ok := a.images.Active()
	if !ok {
		return persist.ErrNoActiveImage
	}
	removed, err := a.store.Remove(path, index)
	if err != nil {
		return err
	}
	a.version++
	a.log.Infof("Deleted annotation %q from %v", removed.Describe(), path)
	return nil
}

// Save writes the annotations of the active image and returns the file written
func (a *App) Save() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	path, _ := a.images.Active()
	file, err := a.writer.Save(path, a.store.List(path))
	if err != nil {
		return "", err
	}
	a.log.Infof("Saved %v annotations of %v to %v", a.store.Len(path), path, file)
	return file, nil
}

// Suggest asks the configured model for a label of the annotation at index.
// The lock is released while the model runs.
func (a *App) Suggest(ctx context.Context, index int) (*suggest.Suggestion, error) {
	a.mu.Lock()
	if a.suggester == nil {
		a.mu.Unlock()
		return nil, ErrSuggestDisabled
	}
	path, ok := a.images.Active()
	if !ok {
		a.mu.Unlock()
		return nil, persist.ErrNoActiveImage
	}
	entries := a.store.Entries(path)
	if index < 0 || index >= len(entries) {
		a.mu.Unlock()
		return nil, fmt.Errorf("%w: %d (have %d)", store.ErrOutOfRange, index, len(entries))
	}
	img := a.view.Displayed()
	coords := a.displayCoordinates(entries[index])
	known := a.labels.List()
	suggester := a.suggester
	a.mu.Unlock()

	s, err := suggester.Suggest(ctx, img, coords, known)
	if err != nil {
		a.log.Warnf("Label suggestion failed: %v", err)
		return nil, err
	}
	return s, nil
}

// displayCoordinates maps stored coordinates into the current displayed
// bitmap. Display-space coordinates are rescaled from the bitmap they were
// drawn on; without a recorded size that is the fitted bitmap.
func (a *App) displayCoordinates(e store.Entry) types.Coordinates {
	c := e.Annotation.Coordinates
	var sx, sy float64
	if a.cfg.Viewport.CoordinateSpace == config.SpaceImage {
		sx, sy = a.view.Scale()
	} else {
		drawn := e.Drawn
		if drawn.Width == 0 || drawn.Height == 0 {
			drawn = a.view.FittedSize()
		}
		cur := a.view.Size()
		if drawn == cur || drawn.Width == 0 || drawn.Height == 0 {
			return c
		}
		sx = float64(cur.Width) / float64(drawn.Width)
		sy = float64(cur.Height) / float64(drawn.Height)
	}
	return types.Coordinates{c[0] * sx, c[1] * sy, c[2] * sx, c[3] * sy}
}

// Frame renders the displayed bitmap with the annotations of the active
// image and the provisional shape drawn on top
func (a *App) Frame() ([]byte, string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	img := a.view.Displayed()
	if img == nil {
		return nil, "", viewport.ErrNoImage
	}
	rendered := a.render(img)

	format := a.cfg.Viewport.FrameFormat
	var buf bytes.Buffer
	if err := a.processor.Encode(&buf, rendered, format, a.cfg.Viewport.FrameQuality, false); err != nil {
		return nil, "", fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), processing.ContentType(format), nil
}

func (a *App) render(img image.Image) image.Image {
	path, _ := a.images.Active()
	stored := a.store.Entries(path)
	committed := make([]types.Annotation, len(stored))
	for i, e := range stored {
		ann := e.Annotation
		ann.Coordinates = a.displayCoordinates(e)
		committed[i] = ann
	}

	var provisional *types.Annotation
	if shape, ok := a.surface.Provisional(); ok {
		provisional = &types.Annotation{Type: shape.Tool, Coordinates: shape.Coordinates()}
	}
	return a.processor.DrawAnnotations(img, committed, provisional)
}
