package app

import (
	"context"
	"errors"
	"strings"

	"github.com/entrepeneur4lyf/mediaforge/internal/chat"
	"github.com/entrepeneur4lyf/mediaforge/internal/events"
	"github.com/entrepeneur4lyf/mediaforge/internal/llm"
	"github.com/entrepeneur4lyf/mediaforge/internal/llm/prompt"
	"github.com/entrepeneur4lyf/mediaforge/internal/speech"
)

// snapshot copies everything queued for the next message. Later edits to
// the session do not affect a send already in flight.
func (a *App) snapshot() (prompt.Input, *attachment, *video) {
	a.mu.Lock()
	defer a.mu.Unlock()
	in := prompt.Input{
		Text:         a.input,
		ContextFiles: a.files.All(),
		Captures:     a.captures.Snapshot(),
		Mode:         a.mode,
	}
	if a.attachment != nil {
		att := a.attachment.Attachment
		in.Attachment = &att
	}
	if a.video != nil {
		vc := a.video.VideoContext
		in.Video = &vc
	}
	return in, a.attachment, a.video
}

// Send assembles the pending input, sends it and records the exchange. On
// failure the conversation is left as it was and the input is kept.
func (a *App) Send(ctx context.Context) error {
	a.mu.Lock()
	if a.processing {
		a.mu.Unlock()
		return ErrBusy
	}
	a.processing = true
	a.mu.Unlock()
	a.publish(events.ProcessingChanged, Change{On: true})
	defer a.setProcessing(false)

	in, att, vid := a.snapshot()
	out, err := prompt.Assemble(in)
	if err != nil {
		return err
	}

	a.ClearError()
	a.setStatus("Thinking...")
	defer a.setStatus("")

	userMsg := chat.NewMessage(chat.RoleUser, strings.TrimSpace(in.Text))
	if in.Attachment != nil {
		userMsg.AttachedFile = &chat.FileRef{Name: in.Attachment.Name, MIMEType: in.Attachment.MIMEType}
	}
	userMsg.YouTubeVideoID = out.YouTubeVideoID
	userMsg.ScreenCaptures = out.CaptureIDs
	userMsg.ContextFilesUsed = out.ContextFilesUsed

	tx := a.store.Begin(userMsg)
	a.logger.Debug("sending", "intent", out.Intent, "parts", len(out.Request.Parts), "mode", in.Mode)

	resp, err := a.dispatcher.Send(ctx, &out.Request)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, context.Canceled) {
			a.logger.Info("send canceled")
			return err
		}
		a.logger.Error("send failed", "kind", llm.KindOf(err), "err", err)
		a.SetError(llm.UserMessage(err))
		return err
	}

	reply := chat.NewMessage(chat.RoleModel, resp.Text)
	reply.GroundingSources = resp.Grounding
	if err := tx.Commit(reply); err != nil {
		return err
	}

	a.settle(in.Text, out, att, vid)

	if a.AutoSpeak() {
		a.speak(reply.Text)
	}
	return nil
}

// settle clears what a successful send consumed. Items the user replaced
// while the send was in flight are left alone.
func (a *App) settle(text string, out prompt.Output, att *attachment, vid *video) {
	a.mu.Lock()
	if out.MarkVideoSent && vid != nil && a.video == vid {
		a.video.Sent = true
	}
	clearAttachment := att != nil && a.attachment == att
	if clearAttachment {
		a.attachment = nil
	}
	clearInput := a.input == text
	if clearInput {
		a.input = ""
	}
	a.mu.Unlock()

	if clearAttachment {
		att.preview.Release()
		a.publish(events.AttachmentChanged, Change{})
	}
	if out.MarkVideoSent {
		a.publish(events.VideoChanged, Change{On: true})
	}
	if len(out.CaptureIDs) > 0 {
		a.captures.RemoveAll(out.CaptureIDs)
		a.publish(events.CaptureChanged, Change{})
	}
	if clearInput {
		a.publish(events.InputChanged, Change{})
	}
}

// AutoSpeak reports whether replies are read aloud
func (a *App) AutoSpeak() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.autoSpeak
}

// SetAutoSpeak turns reading replies aloud on or off
func (a *App) SetAutoSpeak(on bool) {
	a.mu.Lock()
	a.autoSpeak = on
	a.mu.Unlock()
	if !on {
		a.speech.Cancel()
	}
	a.publish(events.SpeakingChanged, Change{On: a.Speaking()})
}

// Speaking reports whether a reply is being read aloud
func (a *App) Speaking() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.speaking
}

func (a *App) setSpeaking(on bool) {
	a.mu.Lock()
	a.speaking = on
	a.mu.Unlock()
	a.publish(events.SpeakingChanged, Change{On: on})
}

func (a *App) speak(text string) {
	if err := a.speech.Speak(context.Background(), text); err != nil {
		if errors.Is(err, speech.ErrUnsupported) {
			a.logger.Debug("speech synthesis unavailable")
			return
		}
		a.SetError("Speech error: " + err.Error())
	}
}

// SpeakLastReply reads the most recent reply aloud
func (a *App) SpeakLastReply() error {
	last, ok := a.store.Last(chat.RoleModel)
	if !ok {
		return ErrNoReply
	}
	if !a.speech.CanSpeak() {
		a.flashError("Speech synthesis is not available on this system", speechDismiss)
		return speech.ErrUnsupported
	}
	a.speak(last.Text)
	return nil
}

// StopSpeaking cancels the reply being read aloud
func (a *App) StopSpeaking() {
	a.speech.Cancel()
}
