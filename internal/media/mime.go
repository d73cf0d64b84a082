package media

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultMaxBytes is the largest file accepted as an attachment
const DefaultMaxBytes int64 = 10 * 1024 * 1024

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
)

// How long validation messages stay in the error banner
const (
	UnsupportedDismiss = 5 * time.Second
	TooLargeDismiss    = 3 * time.Second
)

// ValidationError explains why a file was rejected
type ValidationError struct {
	Name     string
	MIMEType string
	Size     int64
	Limit    int64
	Err      error
}

func (e *ValidationError) Error() string {
	switch {
	case errors.Is(e.Err, ErrTooLarge):
		return fmt.Sprintf("%s is too large (%s, max %s)", e.Name, humanSize(e.Size), humanSize(e.Limit))
	case e.MIMEType != "":
		return fmt.Sprintf("%s: unsupported file type %s", e.Name, e.MIMEType)
	default:
		return fmt.Sprintf("%s: unsupported file type", e.Name)
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Dismiss is how long the message should stay visible
func (e *ValidationError) Dismiss() time.Duration {
	if errors.Is(e.Err, ErrTooLarge) {
		return TooLargeDismiss
	}
	return UnsupportedDismiss
}

// Supported MIME types accepted by the Gemini API
var allowed = map[string]bool{
	// images
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
	"image/heic": true,
	"image/heif": true,
	// video
	"video/mp4":       true,
	"video/mpeg":      true,
	"video/quicktime": true,
	"video/x-msvideo": true,
	"video/x-flv":     true,
	"video/webm":      true,
	"video/x-ms-wmv":  true,
	"video/3gpp":      true,
	// audio
	"audio/wav":  true,
	"audio/mpeg": true,
	"audio/aiff": true,
	"audio/aac":  true,
	"audio/ogg":  true,
	"audio/flac": true,
	// documents and code
	"application/pdf":          true,
	"application/json":         true,
	"application/rtf":          true,
	"application/x-javascript": true,
	"application/x-typescript": true,
	"application/x-python":     true,
	"text/plain":               true,
	"text/html":                true,
	"text/css":                 true,
	"text/javascript":          true,
	"text/x-typescript":        true,
	"text/csv":                 true,
	"text/markdown":            true,
	"text/x-python":            true,
	"text/xml":                 true,
	"text/rtf":                 true,
}

var byExtension = map[string]string{
	".png": "image/png", ".jpg": "image/jpeg", ".jpeg": "image/jpeg", ".webp": "image/webp",
	".heic": "image/heic", ".heif": "image/heif",
	".mp4": "video/mp4", ".mpeg": "video/mpeg", ".mpg": "video/mpeg", ".mov": "video/quicktime",
	".avi": "video/x-msvideo", ".flv": "video/x-flv", ".webm": "video/webm", ".wmv": "video/x-ms-wmv",
	".3gp": "video/3gpp",
	".wav": "audio/wav", ".mp3": "audio/mpeg", ".aiff": "audio/aiff", ".aif": "audio/aiff",
	".aac": "audio/aac", ".ogg": "audio/ogg", ".flac": "audio/flac",
	".pdf": "application/pdf", ".json": "application/json", ".rtf": "application/rtf",
	".txt": "text/plain", ".log": "text/plain", ".html": "text/html", ".htm": "text/html",
	".css": "text/css", ".js": "text/javascript", ".mjs": "text/javascript", ".ts": "text/x-typescript",
	".csv": "text/csv", ".md": "text/markdown", ".py": "text/x-python", ".xml": "text/xml",
	".go": "text/plain",
}

// DetectMIME guesses the MIME type of path from its extension
func DetectMIME(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := byExtension[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		mediaType, _, err := mime.ParseMediaType(t)
		if err == nil {
			return mediaType
		}
	}
	return ""
}

// Supported reports whether mimeType is on the allow-list
func Supported(mimeType string) bool {
	return allowed[mimeType]
}

// IsImage reports whether mimeType is an image type
func IsImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// IsVideo reports whether mimeType is a video type
func IsVideo(mimeType string) bool {
	return strings.HasPrefix(mimeType, "video/")
}

// Validate checks a candidate file against the allow-list and size limit
func Validate(name, mimeType string, size, limit int64) error {
	if !Supported(mimeType) {
		return &ValidationError{Name: name, MIMEType: mimeType, Err: ErrUnsupportedType}
	}
	if limit > 0 && size > limit {
		return &ValidationError{Name: name, MIMEType: mimeType, Size: size, Limit: limit, Err: ErrTooLarge}
	}
	return nil
}

// Stat describes a local file chosen by the user
type Stat struct {
	Path     string
	Name     string
	MIMEType string
	Size     int64
}

// Inspect stats path and validates it
func Inspect(path string, limit int64) (Stat, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Stat{}, fmt.Errorf("open %s: %w", path, err)
	}
	if info.IsDir() {
		return Stat{}, fmt.Errorf("%s is a directory", path)
	}
	st := Stat{
		Path:     path,
		Name:     filepath.Base(path),
		MIMEType: DetectMIME(path),
		Size:     info.Size(),
	}
	return st, Validate(st.Name, st.MIMEType, st.Size, limit)
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
