package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os/exec"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// ErrNoScreenSource is returned when screen capture is not available
var ErrNoScreenSource = errors.New("screen capture is not available")

// DefaultCaptureWidth bounds the width of captured frames
const DefaultCaptureWidth = 1280

// ScreenCapture is one still frame
type ScreenCapture struct {
	ID       string
	Data     []byte
	MIMEType string
	Width    int
	Height   int
}

// NewScreenCapture downscales img to maxWidth and encodes it as JPEG
func NewScreenCapture(img image.Image, maxWidth int) (ScreenCapture, error) {
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return ScreenCapture{}, fmt.Errorf("encode capture: %w", err)
	}
	b := img.Bounds()
	return ScreenCapture{
		ID:       uuid.NewString(),
		Data:     buf.Bytes(),
		MIMEType: "image/jpeg",
		Width:    b.Dx(),
		Height:   b.Dy(),
	}, nil
}

// Captures is the ordered set of frames waiting to be sent
type Captures struct {
	mu     sync.RWMutex
	frames []ScreenCapture
}

// Add appends c
func (s *Captures) Add(c ScreenCapture) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, c)
}

// Remove drops the frame with id
func (s *Captures) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.frames {
		if s.frames[i].ID == id {
			s.frames = append(s.frames[:i], s.frames[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAll drops every frame whose id is listed, leaving frames captured
// after a snapshot in place.
func (s *Captures) RemoveAll(ids []string) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.frames[:0]
	for _, f := range s.frames {
		if !drop[f.ID] {
			kept = append(kept, f)
		}
	}
	s.frames = kept
}

// Clear drops every frame
func (s *Captures) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = nil
}

// Snapshot returns a copy of the frames in order
func (s *Captures) Snapshot() []ScreenCapture {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ScreenCapture, len(s.frames))
	copy(out, s.frames)
	return out
}

// Len returns the number of frames
func (s *Captures) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.frames)
}

// ScreenSource grabs the current screen contents
type ScreenSource interface {
	Available() bool
	Grab(ctx context.Context) (image.Image, error)
}

// CommandScreen runs an external screenshot tool that writes an image to
// stdout, e.g. `grim -` or `import -window root png:-`.
type CommandScreen struct {
	Command []string
}

func (c *CommandScreen) Available() bool {
	if len(c.Command) == 0 {
		return false
	}
	_, err := exec.LookPath(c.Command[0])
	return err == nil
}

func (c *CommandScreen) Grab(ctx context.Context) (image.Image, error) {
	if !c.Available() {
		return nil, ErrNoScreenSource
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Command[0], c.Command[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("screen capture: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	img, err := imaging.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode screen capture: %w", err)
	}
	return img, nil
}
