package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a turn
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModel
}

// FileRef describes a file attached directly to a turn
type FileRef struct {
	Name     string
	MIMEType string
}

// GroundingSource is a web citation returned with a search-augmented reply
type GroundingSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// ContextFileRef records which context documents grounded a turn
type ContextFileRef struct {
	DisplayName string
}

// Message is one turn in the conversation. Messages are treated as values:
// once appended to a Store they are never changed in place.
type Message struct {
	ID               string
	Role             Role
	Text             string
	AttachedFile     *FileRef
	GroundingSources []GroundingSource
	YouTubeVideoID   string
	ScreenCaptures   []string
	ContextFilesUsed []ContextFileRef
	CreatedAt        time.Time
}

// NewMessage creates a message with a fresh id
func NewMessage(role Role, text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
	}
}
