package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrepeneur4lyf/mediaforge/internal/llm"
	"github.com/entrepeneur4lyf/mediaforge/internal/media"
)

func readyFile(name string) media.ContextFile {
	return media.ContextFile{
		ID:          "files/" + name,
		DisplayName: name,
		MIMEType:    "text/plain",
		URI:         "https://generativelanguage.googleapis.com/v1beta/files/" + name,
		State:       media.StateReady,
	}
}

func TestAssemble(t *testing.T) {
	t.Run("plain text uses search", func(t *testing.T) {
		out, err := Assemble(Input{Text: "what's new in Go?"})
		require.NoError(t, err)
		assert.Equal(t, IntentSearch, out.Intent)
		assert.True(t, out.Request.UseSearch)
		assert.True(t, out.Request.Conversational)
		assert.Equal(t, "what's new in Go?", out.Request.Prompt)
		assert.Empty(t, out.Request.Parts)
	})

	t.Run("context file prefixes prompt and keeps search", func(t *testing.T) {
		out, err := Assemble(Input{Text: "hi", ContextFiles: []media.ContextFile{readyFile("notes.txt")}})
		require.NoError(t, err)
		assert.Contains(t, out.Request.Prompt, "Using the context from the following file(s): notes.txt.")
		assert.True(t, out.Request.UseSearch)
		assert.False(t, out.Request.Conversational)
		require.Len(t, out.Request.Parts, 1)
		assert.Equal(t, llm.PartFileRef, out.Request.Parts[0].Kind)
		assert.Equal(t, "notes.txt", out.ContextFilesUsed[0].DisplayName)
	})

	t.Run("pending context files are ignored", func(t *testing.T) {
		pending := media.NewPendingContextFile("draft.pdf", "application/pdf")
		out, err := Assemble(Input{Text: "hi", ContextFiles: []media.ContextFile{pending}})
		require.NoError(t, err)
		assert.Empty(t, out.Request.Parts)
		assert.Equal(t, "hi", out.Request.Prompt)
	})

	t.Run("youtube bypasses video context and search", func(t *testing.T) {
		video := &VideoContext{URI: "https://x/files/v", MIMEType: "video/mp4", DisplayName: "talk.mp4"}
		out, err := Assemble(Input{
			Text:         "summarize https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			ContextFiles: []media.ContextFile{readyFile("notes.txt")},
			Video:        video,
		})
		require.NoError(t, err)
		assert.Equal(t, IntentYouTube, out.Intent)
		assert.Equal(t, "dQw4w9WgXcQ", out.YouTubeVideoID)
		assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", out.Request.YouTubeURL)
		assert.False(t, out.Request.UseSearch)
		assert.False(t, out.MarkVideoSent)
		assert.Contains(t, out.Request.Prompt, "Analyze the YouTube video at")
		assert.Contains(t, out.Request.Prompt, "summarize")
		for _, p := range out.Request.Parts {
			assert.NotEqual(t, video.URI, p.URI)
		}
	})

	t.Run("youtube link alone gets default prompt", func(t *testing.T) {
		out, err := Assemble(Input{Text: "https://youtu.be/dQw4w9WgXcQ"})
		require.NoError(t, err)
		assert.Contains(t, out.Request.Prompt, defaultYouTubePrompt)
	})

	t.Run("captures come first and disable search", func(t *testing.T) {
		capture := media.ScreenCapture{ID: "c1", Data: []byte{1}, MIMEType: "image/jpeg"}
		attachment := &Attachment{Name: "a.png", MIMEType: "image/png", Data: []byte{2}}
		out, err := Assemble(Input{
			Captures:     []media.ScreenCapture{capture},
			ContextFiles: []media.ContextFile{readyFile("notes.txt")},
			Attachment:   attachment,
		})
		require.NoError(t, err)
		assert.Equal(t, IntentMedia, out.Intent)
		assert.False(t, out.Request.UseSearch)
		require.Len(t, out.Request.Parts, 3)
		assert.Equal(t, llm.PartImage, out.Request.Parts[0].Kind)
		assert.Equal(t, llm.PartFileRef, out.Request.Parts[1].Kind)
		assert.Equal(t, llm.PartInlineData, out.Request.Parts[2].Kind)
		assert.Contains(t, out.Request.Prompt, defaultFilePrompt)
		assert.Equal(t, []string{"c1"}, out.CaptureIDs)
	})

	t.Run("unsent video is attached and flagged", func(t *testing.T) {
		video := &VideoContext{URI: "https://x/files/v", MIMEType: "video/mp4", DisplayName: "talk.mp4"}
		out, err := Assemble(Input{Text: "who is speaking?", Video: video})
		require.NoError(t, err)
		assert.True(t, out.MarkVideoSent)
		assert.False(t, video.Sent, "input must not be mutated")
		assert.Contains(t, out.Request.Prompt, `"talk.mp4"`)
		assert.False(t, out.Request.UseSearch)
	})

	t.Run("sent video is not attached again", func(t *testing.T) {
		video := &VideoContext{URI: "https://x/files/v", MIMEType: "video/mp4", DisplayName: "talk.mp4", Sent: true}
		out, err := Assemble(Input{Text: "and then?", Video: video})
		require.NoError(t, err)
		assert.False(t, out.MarkVideoSent)
		assert.Empty(t, out.Request.Parts)
		assert.True(t, out.Request.UseSearch)
	})

	t.Run("mode sets system instruction", func(t *testing.T) {
		out, err := Assemble(Input{Text: "x", Mode: ModeSummarize})
		require.NoError(t, err)
		assert.Equal(t, ModeSummarize.SystemInstruction(), out.Request.SystemInstruction)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := Assemble(Input{Text: "   "})
		assert.ErrorIs(t, err, ErrEmpty)
	})

	t.Run("input collections are not mutated", func(t *testing.T) {
		files := []media.ContextFile{readyFile("a.txt"), readyFile("b.txt")}
		captures := []media.ScreenCapture{{ID: "c1", Data: []byte{1}, MIMEType: "image/jpeg"}}
		_, err := Assemble(Input{Text: "x", ContextFiles: files, Captures: captures})
		require.NoError(t, err)
		assert.Len(t, files, 2)
		assert.Equal(t, "a.txt", files[0].DisplayName)
		assert.Len(t, captures, 1)
	})
}

func TestLookupMode(t *testing.T) {
	m, ok := LookupMode("Summarize")
	require.True(t, ok)
	assert.Equal(t, ModeSummarize, m)

	m, ok = LookupMode("key")
	require.True(t, ok)
	assert.Equal(t, ModeKeyMoments, m)

	m, ok = LookupMode("trans")
	require.True(t, ok)
	assert.Equal(t, ModeTranscribe, m)

	_, ok = LookupMode("zzzz")
	assert.False(t, ok)

	_, ok = LookupMode("")
	assert.False(t, ok)
}
