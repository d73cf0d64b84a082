package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/entrepeneur4lyf/mediaforge/internal/chat"
	"github.com/entrepeneur4lyf/mediaforge/internal/llm"
	"github.com/entrepeneur4lyf/mediaforge/internal/media"
	"github.com/entrepeneur4lyf/mediaforge/internal/youtube"
)

// ErrEmpty is returned when there is nothing to send
var ErrEmpty = errors.New("nothing to send")

const (
	defaultFilePrompt    = "Describe the provided file(s)."
	defaultYouTubePrompt = "Describe the video in detail."
)

// Attachment is a file attached directly to the message, sent inline
type Attachment struct {
	Name     string
	MIMEType string
	Data     []byte
}

// VideoContext is a local video uploaded once per conversation
type VideoContext struct {
	URI         string
	MIMEType    string
	DisplayName string
	Sent        bool
}

// Input is a snapshot of everything the user has queued for the next message.
// Assemble never modifies it.
type Input struct {
	Text         string
	Attachment   *Attachment
	ContextFiles []media.ContextFile
	Captures     []media.ScreenCapture
	Video        *VideoContext
	Mode         Mode
}

// Intent says what kind of request was assembled
type Intent int

const (
	// IntentSearch is plain Q&A, optionally grounded by context documents,
	// answered with web search augmentation.
	IntentSearch Intent = iota
	// IntentMedia carries captures, an attachment or the video context.
	IntentMedia
	// IntentYouTube asks about a remote YouTube video.
	IntentYouTube
)

func (i Intent) String() string {
	switch i {
	case IntentSearch:
		return "search"
	case IntentMedia:
		return "media"
	case IntentYouTube:
		return "youtube"
	default:
		return "unknown"
	}
}

// Output is the assembled request plus what the caller must commit after a
// successful send.
type Output struct {
	Request          llm.Request
	Intent           Intent
	YouTubeVideoID   string
	MarkVideoSent    bool
	ContextFilesUsed []chat.ContextFileRef
	CaptureIDs       []string
}

// Assemble builds the outbound request from in
func Assemble(in Input) (Output, error) {
	var (
		out   Output
		parts []llm.Part
		text  = strings.TrimSpace(in.Text)
	)

	link, hasYouTube := youtube.Find(text)
	if hasYouTube {
		out.Intent = IntentYouTube
		out.YouTubeVideoID = link.VideoID
		out.Request.YouTubeURL = youtube.WatchURL(link.VideoID)
		text = youtube.StripLink(text, link)
	}

	for _, c := range in.Captures {
		parts = append(parts, llm.ImagePart(c.Data, c.MIMEType))
		out.CaptureIDs = append(out.CaptureIDs, c.ID)
	}

	var names []string
	for _, f := range in.ContextFiles {
		if f.State != media.StateReady {
			continue
		}
		parts = append(parts, llm.FileRefPart(f.URI, f.MIMEType, f.DisplayName))
		names = append(names, f.DisplayName)
		out.ContextFilesUsed = append(out.ContextFilesUsed, chat.ContextFileRef{DisplayName: f.DisplayName})
	}
	contextParts := len(names)

	sendVideo := !hasYouTube && in.Video != nil && !in.Video.Sent && in.Video.URI != ""
	if sendVideo {
		parts = append(parts, llm.FileRefPart(in.Video.URI, in.Video.MIMEType, in.Video.DisplayName))
		out.MarkVideoSent = true
	}

	if in.Attachment != nil {
		parts = append(parts, llm.InlineDataPart(in.Attachment.Data, in.Attachment.MIMEType, in.Attachment.Name))
	}

	if text == "" {
		switch {
		case hasYouTube:
			text = defaultYouTubePrompt
		case len(parts) > 0:
			text = defaultFilePrompt
		default:
			return Output{}, ErrEmpty
		}
	}

	prompt := text
	if contextParts > 0 {
		prompt = fmt.Sprintf("Using the context from the following file(s): %s.\n\n%s", strings.Join(names, ", "), prompt)
	}
	if sendVideo {
		prompt = fmt.Sprintf("The attached video %q is the subject of this conversation. "+
			"Answer with reference to its content.\n\n%s", in.Video.DisplayName, prompt)
	}
	if hasYouTube {
		prompt = fmt.Sprintf("Analyze the YouTube video at %s.\n\n%s", out.Request.YouTubeURL, prompt)
	}

	if !hasYouTube {
		mediaParts := len(parts) - contextParts
		if mediaParts == 0 {
			out.Intent = IntentSearch
		} else {
			out.Intent = IntentMedia
		}
	}

	out.Request.Prompt = prompt
	out.Request.Parts = parts
	out.Request.UseSearch = out.Intent == IntentSearch
	out.Request.Conversational = out.Intent == IntentSearch && len(parts) == 0
	out.Request.SystemInstruction = in.Mode.SystemInstruction()
	return out, nil
}
