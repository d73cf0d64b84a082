package media

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Run("accepts supported type", func(t *testing.T) {
		assert.NoError(t, Validate("clip.mp4", "video/mp4", 1024, DefaultMaxBytes))
	})

	t.Run("rejects unsupported type", func(t *testing.T) {
		err := Validate("setup.exe", "application/x-msdownload", 10, DefaultMaxBytes)
		require.ErrorIs(t, err, ErrUnsupportedType)

		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, UnsupportedDismiss, vErr.Dismiss())
		assert.Contains(t, err.Error(), "setup.exe")
	})

	t.Run("rejects oversized file", func(t *testing.T) {
		err := Validate("big.pdf", "application/pdf", DefaultMaxBytes+1, DefaultMaxBytes)
		require.ErrorIs(t, err, ErrTooLarge)

		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, TooLargeDismiss, vErr.Dismiss())
		assert.Contains(t, err.Error(), "10.0 MB")
	})
}

func TestDetectMIME(t *testing.T) {
	assert.Equal(t, "video/quicktime", DetectMIME("/tmp/Movie.MOV"))
	assert.Equal(t, "text/markdown", DetectMIME("notes.md"))
	assert.Equal(t, "audio/wav", DetectMIME("a.wav"))
	assert.Equal(t, "", DetectMIME("noext"))
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	st, err := Inspect(path, DefaultMaxBytes)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", st.Name)
	assert.Equal(t, "text/plain", st.MIMEType)
	assert.EqualValues(t, 5, st.Size)

	_, err = Inspect(path, 2)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = Inspect(filepath.Join(dir, "missing.txt"), DefaultMaxBytes)
	assert.Error(t, err)
}

func TestContextFiles(t *testing.T) {
	var files ContextFiles
	a := NewPendingContextFile("a.pdf", "application/pdf")
	b := NewPendingContextFile("b.txt", "text/plain")
	files.Add(a)
	files.Add(b)
	assert.Empty(t, files.Ready())

	ok := files.Replace(a.ID, ContextFile{ID: "files/abc", DisplayName: "a.pdf", URI: "https://x/files/abc", State: StateReady})
	require.True(t, ok)

	ready := files.Ready()
	require.Len(t, ready, 1)
	assert.Equal(t, "files/abc", ready[0].ID)
	assert.Equal(t, "files/abc", files.All()[0].ID, "replacement keeps position")

	assert.False(t, files.Replace("unknown", ContextFile{}))
	assert.True(t, files.Remove(b.ID))
	assert.Len(t, files.All(), 1)
}

func testImage(w, h int) image.Image {
	return imaging.New(w, h, color.NRGBA{R: 200, G: 20, B: 20, A: 255})
}

func TestCaptures(t *testing.T) {
	c1, err := NewScreenCapture(testImage(2560, 1440), DefaultCaptureWidth)
	require.NoError(t, err)
	assert.Equal(t, 1280, c1.Width)
	assert.Equal(t, 720, c1.Height)
	assert.Equal(t, "image/jpeg", c1.MIMEType)
	assert.NotEmpty(t, c1.Data)

	c2, err := NewScreenCapture(testImage(100, 50), DefaultCaptureWidth)
	require.NoError(t, err)
	assert.Equal(t, 100, c2.Width)

	var caps Captures
	caps.Add(c1)
	caps.Add(c2)
	snapshot := caps.Snapshot()

	c3, err := NewScreenCapture(testImage(10, 10), 0)
	require.NoError(t, err)
	caps.Add(c3)

	ids := make([]string, 0, len(snapshot))
	for _, c := range snapshot {
		ids = append(ids, c.ID)
	}
	caps.RemoveAll(ids)

	remaining := caps.Snapshot()
	require.Len(t, remaining, 1)
	assert.Equal(t, c3.ID, remaining[0].ID)

	assert.True(t, caps.Remove(c3.ID))
	assert.Equal(t, 0, caps.Len())
}

func TestCommandScreenUnavailable(t *testing.T) {
	src := &CommandScreen{}
	assert.False(t, src.Available())
	_, err := src.Grab(t.Context())
	assert.ErrorIs(t, err, ErrNoScreenSource)
}

func TestPreviews(t *testing.T) {
	dir := t.TempDir()
	ps, err := NewPreviews(filepath.Join(dir, "previews"))
	require.NoError(t, err)

	imgPath := filepath.Join(dir, "photo.png")
	require.NoError(t, imaging.Save(testImage(800, 600), imgPath))

	p, err := ps.Create(imgPath, "photo.png", "image/png")
	require.NoError(t, err)
	require.NotEmpty(t, p.Path)
	assert.FileExists(t, p.Path)

	doc, err := ps.Create(imgPath, "doc.pdf", "application/pdf")
	require.NoError(t, err)
	assert.Empty(t, doc.Path)
	assert.Equal(t, 2, ps.Live())

	p.Release()
	p.Release()
	assert.NoFileExists(t, p.Path)
	assert.Equal(t, 1, ps.Live())

	ps.ReleaseAll()
	assert.Equal(t, 0, ps.Live())
}
