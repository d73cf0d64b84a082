package app

import (
	"time"

	"github.com/entrepeneur4lyf/mediaforge/internal/audio"
	"github.com/entrepeneur4lyf/mediaforge/internal/chat"
	"github.com/entrepeneur4lyf/mediaforge/internal/events"
	"github.com/entrepeneur4lyf/mediaforge/internal/llm/prompt"
	"github.com/entrepeneur4lyf/mediaforge/internal/media"
)

// Change is the payload of every published event
type Change struct {
	Message chat.Message
	Text    string
	On      bool
}

// AttachmentInfo describes the pending attachment
type AttachmentInfo struct {
	Name        string
	MIMEType    string
	Size        int
	PreviewPath string
}

// CaptureInfo describes one pending screen capture
type CaptureInfo struct {
	ID     string
	Width  int
	Height int
}

// VideoInfo describes the loaded video context
type VideoInfo struct {
	DisplayName string
	MIMEType    string
	Sent        bool
	Playable    bool
	Playing     bool
	Position    time.Duration
	Duration    time.Duration
}

// State is a point-in-time copy of the session for rendering
type State struct {
	Input        string
	Interim      string
	Attachment   *AttachmentInfo
	ContextFiles []media.ContextFile
	Captures     []CaptureInfo
	Video        *VideoInfo
	Mode         prompt.Mode
	Status       string
	Error        string
	Processing   bool
	Sharing      bool
	Recording    bool
	Speaking     bool
	AutoSpeak    bool
}

// State returns a snapshot of the session
func (a *App) State() State {
	a.mu.Lock()
	s := State{
		Input:      a.input,
		Interim:    a.interim,
		Mode:       a.mode,
		Status:     a.status,
		Error:      a.errMsg,
		Processing: a.processing,
		Sharing:    a.sharing,
		Recording:  a.recording,
		Speaking:   a.speaking,
		AutoSpeak:  a.autoSpeak,
	}
	if att := a.attachment; att != nil {
		s.Attachment = &AttachmentInfo{Name: att.Name, MIMEType: att.MIMEType, Size: len(att.Data), PreviewPath: att.preview.Path}
	}
	var element *audio.WAVElement
	if v := a.video; v != nil {
		s.Video = &VideoInfo{DisplayName: v.DisplayName, MIMEType: v.MIMEType, Sent: v.Sent}
		element = v.element
	}
	a.mu.Unlock()

	if element != nil {
		s.Video.Playable = true
		s.Video.Playing = element.Playing()
		s.Video.Position = element.Position()
		s.Video.Duration = element.Duration()
	}
	s.ContextFiles = a.files.All()
	for _, c := range a.captures.Snapshot() {
		s.Captures = append(s.Captures, CaptureInfo{ID: c.ID, Width: c.Width, Height: c.Height})
	}
	return s
}

// SetInput replaces the pending text
func (a *App) SetInput(text string) {
	a.mu.Lock()
	a.input = text
	a.mu.Unlock()
	a.publish(events.InputChanged, Change{Text: text})
}

// Input returns the pending text
func (a *App) Input() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.input
}

func (a *App) setStatus(text string) {
	a.mu.Lock()
	a.status = text
	a.mu.Unlock()
	a.publish(events.StatusChanged, Change{Text: text})
}

func (a *App) setProcessing(on bool) {
	a.mu.Lock()
	a.processing = on
	a.mu.Unlock()
	a.publish(events.ProcessingChanged, Change{On: on})
}

// SetError shows msg in the error banner until replaced or cleared
func (a *App) SetError(msg string) {
	a.mu.Lock()
	a.errGen++
	a.errMsg = msg
	a.mu.Unlock()
	a.publish(events.ErrorChanged, Change{Text: msg})
}

// ClearError hides the banner
func (a *App) ClearError() {
	a.SetError("")
}

// flashError shows msg for d unless another message replaces it first
func (a *App) flashError(msg string, d time.Duration) {
	a.mu.Lock()
	a.errGen++
	gen := a.errGen
	a.errMsg = msg
	a.mu.Unlock()
	a.publish(events.ErrorChanged, Change{Text: msg})

	time.AfterFunc(d, func() {
		a.mu.Lock()
		if a.errGen != gen {
			a.mu.Unlock()
			return
		}
		a.errMsg = ""
		a.mu.Unlock()
		a.publish(events.ErrorChanged, Change{})
	})
}
