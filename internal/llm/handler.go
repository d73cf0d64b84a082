package llm

import (
	"context"
	"time"

	"github.com/entrepeneur4lyf/mediaforge/internal/chat"
)

// PartKind identifies what a Part carries
type PartKind int

const (
	PartText PartKind = iota
	PartImage
	PartInlineData
	PartFileRef
)

func (k PartKind) String() string {
	switch k {
	case PartText:
		return "text"
	case PartImage:
		return "image"
	case PartInlineData:
		return "inline-data"
	case PartFileRef:
		return "file-ref"
	default:
		return "unknown"
	}
}

// Part is one typed piece of an outbound request
type Part struct {
	Kind        PartKind
	Text        string
	Data        []byte
	MIMEType    string
	URI         string
	DisplayName string
}

// TextPart creates a text part
func TextPart(text string) Part {
	return Part{Kind: PartText, Text: text}
}

// ImagePart creates an inline image part
func ImagePart(data []byte, mimeType string) Part {
	return Part{Kind: PartImage, Data: data, MIMEType: mimeType}
}

// InlineDataPart creates an inline binary part
func InlineDataPart(data []byte, mimeType, name string) Part {
	return Part{Kind: PartInlineData, Data: data, MIMEType: mimeType, DisplayName: name}
}

// FileRefPart references a file already uploaded to the backend
func FileRefPart(uri, mimeType, name string) Part {
	return Part{Kind: PartFileRef, URI: uri, MIMEType: mimeType, DisplayName: name}
}

// Request is a fully assembled outbound message
type Request struct {
	Prompt            string
	Parts             []Part
	UseSearch         bool
	YouTubeURL        string
	SystemInstruction string
	// Conversational routes the request through the backend's multi-turn
	// session instead of a one-shot generation.
	Conversational bool
}

// Response is the backend's answer to a Request
type Response struct {
	Text      string
	Grounding []chat.GroundingSource
}

// FileState is the upstream processing state of an uploaded file
type FileState string

const (
	FileStateProcessing FileState = "PROCESSING"
	FileStateActive     FileState = "ACTIVE"
	FileStateFailed     FileState = "FAILED"
)

// FileHandle describes a file uploaded to the backend
type FileHandle struct {
	Name        string
	DisplayName string
	MIMEType    string
	URI         string
	State       FileState
}

// YouTubeVideo is one search result
type YouTubeVideo struct {
	VideoID      string `json:"videoId"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// Generator produces a reply for a request
type Generator interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// Backend is the generative-AI service the client talks to
type Backend interface {
	Generator

	// UploadFile uploads path and waits until the backend finished processing it
	UploadFile(ctx context.Context, path, mimeType, displayName string) (*FileHandle, error)

	// SearchYouTube asks the model for videos matching query
	SearchYouTube(ctx context.Context, query string) ([]YouTubeVideo, error)

	// ResetSession rebuilds the multi-turn session from history
	ResetSession(ctx context.Context, history []chat.Message) error
}

// RetryOptions represents configuration for retry behavior
type RetryOptions struct {
	MaxRetries int           `mapstructure:"maxRetries" toml:"maxRetries"`
	BaseDelay  time.Duration `mapstructure:"baseDelay" toml:"baseDelay"`
	MaxDelay   time.Duration `mapstructure:"maxDelay" toml:"maxDelay"`
}

// DefaultRetryOptions: three attempts, 1s then 2s between them
var DefaultRetryOptions = RetryOptions{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
	MaxDelay:   10 * time.Second,
}
