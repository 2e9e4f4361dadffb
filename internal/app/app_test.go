package app

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-labeler/internal/config"
	"github.com/menta2k/image-labeler/pkg/imageset"
	"github.com/menta2k/image-labeler/pkg/labels"
	"github.com/menta2k/image-labeler/pkg/persist"
	"github.com/menta2k/image-labeler/pkg/processing"
	"github.com/menta2k/image-labeler/pkg/store"
	"github.com/menta2k/image-labeler/pkg/suggest"
	"github.com/menta2k/image-labeler/pkg/types"
	"github.com/menta2k/image-labeler/pkg/viewport"
)

func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	return img
}

func writePNG(t *testing.T, path string, width, height int) {
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, createTestImage(width, height)))
}

// newTestApp creates a folder with a.png (200x100), b.png (1600x1200),
// broken.jpg and notes.txt, and an App writing into its own output dir
func newTestApp(t *testing.T, mutate func(*config.Config)) (*App, string, string) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 200, 100)
	writePNG(t, filepath.Join(dir, "b.png"), 1600, 1200)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("nope"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	out := t.TempDir()
	cfg := config.Default()
	cfg.Output.Dir = out
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())
	return New(cfg, logs.NewTestingLog(t)), dir, out
}

func drag(a *App, x0, y0, x1, y1 float64) (types.Annotation, bool) {
	a.PointerDown(types.Point{X: x0, Y: y0})
	a.PointerMove(types.Point{X: (x0 + x1) / 2, Y: (y0 + y1) / 2})
	a.PointerMove(types.Point{X: x1 + 5, Y: y1 + 5})
	return a.PointerUp(types.Point{X: x1, Y: y1})
}

func TestOpenFolderAndSelect(t *testing.T) {
	a, dir, _ := newTestApp(t, nil)

	_, err := a.OpenFolder("")
	require.True(t, errors.Is(err, imageset.ErrFolderNotSelected))
	require.Nil(t, DialogFor(err))

	entries, err := a.OpenFolder(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, []string{"a.png", "b.png", "broken.jpg"}, []string{entries[0].Name, entries[1].Name, entries[2].Name})

	_, err = a.SelectImage(7)
	require.True(t, errors.Is(err, imageset.ErrOutOfRange))

	path, err := a.SelectImage(1)
	require.NoError(t, err)
	require.Equal(t, "b.png", filepath.Base(path))
	st := a.State()
	require.Equal(t, 1, st.ActiveImage)
	require.Equal(t, types.Size{Width: 800, Height: 600}, st.Display)
	require.Equal(t, types.Size{Width: 1600, Height: 1200}, st.Original)

	// a broken file reports a decode error and keeps the previous image
	_, err = a.SelectImage(2)
	require.True(t, errors.Is(err, viewport.ErrImageDecode))
	require.Equal(t, DialogError, DialogFor(err).Kind)
	require.Equal(t, 1, a.State().ActiveImage)
}

func TestDragCommitsAnnotation(t *testing.T) {
	a, dir, _ := newTestApp(t, nil)
	_, err := a.OpenFolder(dir)
	require.NoError(t, err)

	// no active image: gestures are ignored
	_, ok := a.PointerDown(types.Point{X: 1, Y: 1})
	require.False(t, ok)
	_, ok = a.PointerUp(types.Point{X: 2, Y: 2})
	require.False(t, ok)

	_, err = a.SelectImage(0)
	require.NoError(t, err)

	ann, ok := drag(a, 10, 20, 110, 80)
	require.True(t, ok)
	require.Equal(t, types.Annotation{Label: "Unknown", Type: types.ToolRectangle, Coordinates: types.Coordinates{10, 20, 110, 80}}, ann)

	require.NoError(t, a.AddLabel("cat"))
	require.NoError(t, a.AddLabel("dog"))
	require.NoError(t, a.SelectLabel(1))
	require.NoError(t, a.SetTool("Circle"))
	ann, ok = drag(a, 5, 5, 5, 5)
	require.True(t, ok)
	require.Equal(t, "dog", ann.Label)
	require.Equal(t, types.ToolCircle, ann.Type)

	st := a.State()
	require.Len(t, st.Annotations, 2)
	require.Equal(t, []string{"Unknown - Rectangle: 10, 20, 110, 80", "dog - Circle: 5, 5, 5, 5"}, st.AnnotationList)
	require.Equal(t, "idle", st.Gesture)
	require.Nil(t, st.Provisional)

	a.ClearLabel()
	ann, _ = drag(a, 1, 1, 2, 2)
	require.Equal(t, "Unknown", ann.Label)

	require.Error(t, a.SetTool("Lasso"))
}

func TestProvisionalShapeInState(t *testing.T) {
	a, dir, _ := newTestApp(t, nil)
	_, err := a.OpenFolder(dir)
	require.NoError(t, err)
	_, err = a.SelectImage(0)
	require.NoError(t, err)

	shape, ok := a.PointerDown(types.Point{X: 1, Y: 2})
	require.True(t, ok)
	require.Equal(t, types.Coordinates{1, 2, 1, 2}, shape.Coordinates())
	shape, ok = a.PointerMove(types.Point{X: 30, Y: 40})
	require.True(t, ok)
	require.Equal(t, types.Coordinates{1, 2, 30, 40}, shape.Coordinates())
	st := a.State()
	require.Equal(t, "dragging", st.Gesture)
	require.NotNil(t, st.Provisional)
	require.Empty(t, st.Annotations, "nothing committed before release")
}

func TestAnnotationsArePerImage(t *testing.T) {
	a, dir, _ := newTestApp(t, nil)
	_, err := a.OpenFolder(dir)
	require.NoError(t, err)

	_, err = a.SelectImage(0)
	require.NoError(t, err)
	drag(a, 1, 1, 10, 10)

	_, err = a.SelectImage(1)
	require.NoError(t, err)
	require.Empty(t, a.State().Annotations)
	drag(a, 2, 2, 20, 20)
	drag(a, 3, 3, 30, 30)

	_, err = a.SelectImage(0)
	require.NoError(t, err)
	require.Len(t, a.State().Annotations, 1)

	// reopening the folder keeps the store
	_, err = a.OpenFolder(dir)
	require.NoError(t, err)
	_, err = a.SelectImage(1)
	require.NoError(t, err)
	require.Len(t, a.State().Annotations, 2)
}

func TestDeleteUpdatesStore(t *testing.T) {
	a, dir, out := newTestApp(t, nil)
	_, err := a.OpenFolder(dir)
	require.NoError(t, err)

	require.True(t, errors.Is(a.DeleteAnnotation(0), persist.ErrNoActiveImage))

	_, err = a.SelectImage(0)
	require.NoError(t, err)
	drag(a, 1, 1, 10, 10)

	require.True(t, errors.Is(a.DeleteAnnotation(3), store.ErrOutOfRange))
	require.NoError(t, a.DeleteAnnotation(0))
	st := a.State()
	require.Empty(t, st.AnnotationList)
	require.Empty(t, st.Annotations)

	// the deletion is reflected in what gets saved
	file, err := a.Save()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(out, "a.json"), file)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Equal(t, "[]", string(data))
}

func TestSave(t *testing.T) {
	a, dir, out := newTestApp(t, nil)

	_, err := a.Save()
	require.True(t, errors.Is(err, persist.ErrNoActiveImage))
	d := DialogFor(err)
	require.Equal(t, DialogWarning, d.Kind)
	require.Equal(t, "No image selected!", d.Message)
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Empty(t, entries)

	_, err = a.OpenFolder(dir)
	require.NoError(t, err)
	_, err = a.SelectImage(1)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		drag(a, float64(i), 0, 50, 50)
	}
	_, err = a.SelectImage(0)
	require.NoError(t, err)
	drag(a, 0, 0, 5, 5)

	file, err := a.Save()
	require.NoError(t, err)
	loaded, err := persist.Load(file)
	require.NoError(t, err)
	require.Len(t, loaded, 1, "only the active image is written")
	require.Equal(t, "Annotations saved to "+file, SavedDialog(file).Message)
}

func TestImageCoordinateSpace(t *testing.T) {
	a, dir, _ := newTestApp(t, func(c *config.Config) { c.Viewport.CoordinateSpace = config.SpaceImage })
	_, err := a.OpenFolder(dir)
	require.NoError(t, err)
	_, err = a.SelectImage(1) // 1600x1200 shown at 800x600

	require.NoError(t, err)
	ann, ok := drag(a, 10, 20, 100, 200)
	require.True(t, ok)
	require.Equal(t, types.Coordinates{20, 40, 200, 400}, ann.Coordinates)
}

func TestZoom(t *testing.T) {
	a, dir, _ := newTestApp(t, nil)
	require.True(t, errors.Is(a.Zoom(1), viewport.ErrNoImage))

	_, err := a.OpenFolder(dir)
	require.NoError(t, err)
	_, err = a.SelectImage(0)
	require.NoError(t, err)

	v := a.State().Version
	require.NoError(t, a.Zoom(120))
	st := a.State()
	require.Equal(t, types.Size{Width: 220, Height: 110}, st.Display)
	require.Greater(t, st.Version, v)

	// selecting again resets the zoom
	_, err = a.SelectImage(0)
	require.NoError(t, err)
	require.Equal(t, 1.0, a.State().Zoom)
}

func TestFrame(t *testing.T) {
	a, dir, _ := newTestApp(t, nil)
	_, _, err := a.Frame()
	require.True(t, errors.Is(err, viewport.ErrNoImage))

	_, err = a.OpenFolder(dir)
	require.NoError(t, err)
	_, err = a.SelectImage(0)
	require.NoError(t, err)
	drag(a, 10, 10, 50, 50)
	a.PointerDown(types.Point{X: 60, Y: 60})
	a.PointerMove(types.Point{X: 90, Y: 90})

	data, contentType, err := a.Frame()
	require.NoError(t, err)
	require.Equal(t, "image/png", contentType)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 200, img.Bounds().Dx())
}

func TestLoadExisting(t *testing.T) {
	a, dir, out := newTestApp(t, func(c *config.Config) { c.Output.LoadExisting = true })
	saved := []types.Annotation{{Label: "old", Type: types.ToolPolygon, Coordinates: types.Coordinates{1, 2, 3, 4}}}
	_, err := persist.NewWriter(out, false).Save(filepath.Join(dir, "a.png"), saved)
	require.NoError(t, err)

	_, err = a.OpenFolder(dir)
	require.NoError(t, err)
	_, err = a.SelectImage(0)
	require.NoError(t, err)
	require.Equal(t, saved, a.State().Annotations)

	// imported once; later selections keep in-memory edits
	require.NoError(t, a.DeleteAnnotation(0))
	_, err = a.SelectImage(1)
	require.NoError(t, err)
	_, err = a.SelectImage(0)
	require.NoError(t, err)
	require.Empty(t, a.State().Annotations)
}

type fakeVision struct {
	answer string
	image  string // last image sent
}

func (f *fakeVision) SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	f.image = imgB64
	return f.answer, nil
}

func TestSuggest(t *testing.T) {
	a, dir, _ := newTestApp(t, nil)
	_, err := a.Suggest(context.Background(), 0)
	require.True(t, errors.Is(err, ErrSuggestDisabled))

	a.SetSuggester(suggest.New(&fakeVision{answer: `{"label":"CAT","confidence":0.8}`}, processing.NewProcessor(), suggest.Options{Model: "m", SendSize: 64, SendQ: 80}))
	_, err = a.Suggest(context.Background(), 0)
	require.True(t, errors.Is(err, persist.ErrNoActiveImage))

	_, err = a.OpenFolder(dir)
	require.NoError(t, err)
	_, err = a.SelectImage(0)
	require.NoError(t, err)
	_, err = a.Suggest(context.Background(), 0)
	require.True(t, errors.Is(err, store.ErrOutOfRange))

	require.NoError(t, a.AddLabel("cat"))
	drag(a, 10, 10, 60, 60)
	s, err := a.Suggest(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, "cat", s.Label)
	require.True(t, s.Known)
	require.True(t, a.State().SuggestEnabled)
}

func TestZoomedAnnotationsFollowTheView(t *testing.T) {
	a, dir, _ := newTestApp(t, nil)
	_, err := a.OpenFolder(dir)
	require.NoError(t, err)
	_, err = a.SelectImage(0) // 200x100, shown unscaled
	require.NoError(t, err)

	vision := &fakeVision{answer: `{"label":"cat"}`}
	a.SetSuggester(suggest.New(vision, processing.NewProcessor(), suggest.Options{Model: "m", SendQ: 90}))

	drag(a, 100, 50, 200, 100)
	for i := 0; i < 8; i++ {
		require.NoError(t, a.Zoom(1))
	}
	st := a.State()
	require.Equal(t, types.Size{Width: 429, Height: 214}, st.Display)
	// stored coordinates keep the space they were drawn in
	require.Equal(t, types.Coordinates{100, 50, 200, 100}, st.Annotations[0].Coordinates)

	// the region sent to the model is the labeled region at the current zoom
	_, err = a.Suggest(context.Background(), 0)
	require.NoError(t, err)
	sent, err := jpeg.DecodeConfig(base64.NewDecoder(base64.StdEncoding, strings.NewReader(vision.image)))
	require.NoError(t, err)
	require.InDelta(t, 214, sent.Width, 1)
	require.InDelta(t, 107, sent.Height, 1)

	// the overlay is drawn where the shape now is: left edge at x=214.5
	frame := a.render(a.view.Displayed())
	edge := color.RGBAModel.Convert(frame.At(214, 160)).(color.RGBA)
	require.Greater(t, edge.G, uint8(200))
	require.Less(t, edge.R, uint8(80))
	stale := color.RGBAModel.Convert(frame.At(100, 75)).(color.RGBA)
	require.Less(t, stale.G, uint8(200))
}

func TestNewSuggester(t *testing.T) {
	s, err := NewSuggester(config.SuggestConfig{})
	require.NoError(t, err)
	require.Nil(t, s)

	for _, backend := range []string{"ollama", "llamacpp"} {
		s, err = NewSuggester(config.SuggestConfig{Enabled: true, Backend: backend, Model: "m", SendQ: 80})
		require.NoError(t, err)
		require.NotNil(t, s)
	}

	_, err = NewSuggester(config.SuggestConfig{Enabled: true, Backend: "other"})
	require.Error(t, err)
}

func TestDialogFor(t *testing.T) {
	require.Nil(t, DialogFor(nil))
	require.Nil(t, DialogFor(labels.ErrEmptyLabel))
	require.Equal(t, DialogError, DialogFor(errors.New("disk full")).Kind)
}
