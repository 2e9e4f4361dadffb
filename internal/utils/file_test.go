package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsImageFile(t *testing.T) {
	exts := []string{".jpg", ".png"}
	require.True(t, IsImageFile("a.jpg", exts))
	require.True(t, IsImageFile("A.PNG", exts))
	require.False(t, IsImageFile("a.jpeg", exts))
	require.False(t, IsImageFile("a.txt", exts))
	require.False(t, IsImageFile("jpg", exts))
}

func TestListImageFilesSortedAndFlat(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c.png", "a.jpg", "b.txt", "B.JPG"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.jpg"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub.jpg", "d.jpg"), []byte("x"), 0644))

	files, err := ListImageFiles(dir, []string{".jpg", ".png"})
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "B.JPG"),
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "c.png"),
	}, files)
}

func TestListImageFilesFollowsSymlinks(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "real.png"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(src, "folder"), 0755))

	dir := t.TempDir()
	if err := os.Symlink(filepath.Join(src, "real.png"), filepath.Join(dir, "link.png")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(src, "folder"), filepath.Join(dir, "dirlink.png")))
	require.NoError(t, os.Symlink(filepath.Join(src, "gone.png"), filepath.Join(dir, "broken.png")))

	files, err := ListImageFiles(dir, []string{".png"})
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "link.png")}, files)
}

func TestAnnotationFilename(t *testing.T) {
	require.Equal(t, "cat.json", AnnotationFilename("/photos/cat.jpg"))
	require.Equal(t, "my.photo.json", AnnotationFilename("my.photo.png"))
	require.Equal(t, "noext.json", AnnotationFilename("noext"))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))
	require.True(t, DirExists(dir))
	require.False(t, FileExists(dir))
	require.NoError(t, EnsureDir(""))
}
