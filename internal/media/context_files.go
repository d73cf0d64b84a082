package media

import (
	"sync"

	"github.com/google/uuid"
)

// ProcessingState tracks a context file through upload
type ProcessingState string

const (
	StatePending ProcessingState = "pending"
	StateReady   ProcessingState = "ready"
	StateFailed  ProcessingState = "failed"
)

// ContextFile is an auxiliary document uploaded to ground later answers
type ContextFile struct {
	// ID is a local placeholder until the upload completes, then the upstream name
	ID          string
	DisplayName string
	MIMEType    string
	URI         string
	State       ProcessingState
}

// NewPendingContextFile creates a placeholder entry for a file being uploaded
func NewPendingContextFile(displayName, mimeType string) ContextFile {
	return ContextFile{
		ID:          "pending-" + uuid.NewString(),
		DisplayName: displayName,
		MIMEType:    mimeType,
		State:       StatePending,
	}
}

// ContextFiles is the ordered set of context documents
type ContextFiles struct {
	mu    sync.RWMutex
	files []ContextFile
}

// Add appends f
func (c *ContextFiles) Add(f ContextFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = append(c.files, f)
}

// Replace swaps the entry with id tempID for f, keeping its position
func (c *ContextFiles) Replace(tempID string, f ContextFile) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.files {
		if c.files[i].ID == tempID {
			c.files[i] = f
			return true
		}
	}
	return false
}

// Remove drops the entry with id
func (c *ContextFiles) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.files {
		if c.files[i].ID == id {
			c.files = append(c.files[:i], c.files[i+1:]...)
			return true
		}
	}
	return false
}

// Ready returns the uploaded files in order
func (c *ContextFiles) Ready() []ContextFile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []ContextFile
	for _, f := range c.files {
		if f.State == StateReady {
			out = append(out, f)
		}
	}
	return out
}

// All returns every entry in order
func (c *ContextFiles) All() []ContextFile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ContextFile, len(c.files))
	copy(out, c.files)
	return out
}
