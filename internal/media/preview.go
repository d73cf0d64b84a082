package media

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// Preview is a temporary thumbnail for an attached file. It must be
// released on every path that supersedes or clears the attachment.
type Preview struct {
	Path     string
	Name     string
	MIMEType string

	owner *Previews
	id    string
	once  sync.Once
}

// Release deletes the thumbnail. Calling it more than once is harmless.
func (p *Preview) Release() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		if p.Path != "" {
			if err := os.Remove(p.Path); err != nil && !os.IsNotExist(err) {
				log.Debug("remove preview", "path", p.Path, "err", err)
			}
		}
		p.owner.forget(p.id)
	})
}

// Previews creates and tracks preview thumbnails under a temp directory
type Previews struct {
	dir  string
	size int

	mu   sync.Mutex
	live map[string]*Preview
}

// NewPreviews stores thumbnails in dir, creating it if needed
func NewPreviews(dir string) (*Previews, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create preview directory: %w", err)
	}
	return &Previews{dir: dir, size: 256, live: make(map[string]*Preview)}, nil
}

// Create makes a preview for the file at path. Non-image files get a
// preview without a thumbnail.
func (ps *Previews) Create(path, name, mimeType string) (*Preview, error) {
	p := &Preview{Name: name, MIMEType: mimeType, owner: ps, id: uuid.NewString()}

	if IsImage(mimeType) {
		img, err := imaging.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open image %s: %w", name, err)
		}
		thumb := imaging.Fit(img, ps.size, ps.size, imaging.Box)
		p.Path = filepath.Join(ps.dir, "preview-"+p.id+".png")
		if err := imaging.Save(thumb, p.Path); err != nil {
			return nil, fmt.Errorf("save preview: %w", err)
		}
	}

	ps.mu.Lock()
	ps.live[p.id] = p
	ps.mu.Unlock()
	return p, nil
}

func (ps *Previews) forget(id string) {
	ps.mu.Lock()
	delete(ps.live, id)
	ps.mu.Unlock()
}

// Live returns how many previews have not been released
func (ps *Previews) Live() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.live)
}

// ReleaseAll releases every outstanding preview
func (ps *Previews) ReleaseAll() {
	ps.mu.Lock()
	live := make([]*Preview, 0, len(ps.live))
	for _, p := range ps.live {
		live = append(live, p)
	}
	ps.mu.Unlock()
	for _, p := range live {
		p.Release()
	}
}
