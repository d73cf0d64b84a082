package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/entrepeneur4lyf/mediaforge/internal/audio"
	"github.com/entrepeneur4lyf/mediaforge/internal/events"
	"github.com/entrepeneur4lyf/mediaforge/internal/llm/prompt"
	"github.com/entrepeneur4lyf/mediaforge/internal/media"
	"github.com/entrepeneur4lyf/mediaforge/internal/speech"
)

// SetVideo uploads the file at path as the conversation's video context.
// WAV files also become the playable media element feeding the visualizer.
// The upload blocks until the backend has processed the file.
func (a *App) SetVideo(ctx context.Context, path string) error {
	st, err := media.Inspect(path, 0)
	if err != nil {
		a.rejectFile(err)
		return err
	}
	if !media.IsVideo(st.MIMEType) && !strings.HasPrefix(st.MIMEType, "audio/") {
		err := &media.ValidationError{Name: st.Name, MIMEType: st.MIMEType, Err: media.ErrUnsupportedType}
		a.rejectFile(err)
		return err
	}

	a.setStatus(fmt.Sprintf("Uploading %s...", st.Name))
	defer a.setStatus("")
	handle, err := a.backend.UploadFile(ctx, st.Path, st.MIMEType, st.Name)
	if err != nil {
		a.logger.Error("video upload failed", "file", st.Name, "err", err)
		a.SetError(fmt.Sprintf("Failed to process %s: %v", st.Name, err))
		return err
	}

	next := &video{VideoContext: prompt.VideoContext{
		URI:         handle.URI,
		MIMEType:    st.MIMEType,
		DisplayName: st.Name,
	}}
	if st.MIMEType == "audio/wav" {
		element, err := audio.OpenWAV(st.Path, a.opts.PlayerCommand, a.logger.WithPrefix("player"))
		if err != nil {
			a.logger.Warn("media element unavailable", "file", st.Name, "err", err)
		} else {
			next.element = element
		}
	}

	a.mu.Lock()
	old := a.video
	a.video = next
	a.mu.Unlock()
	if old != nil && old.element != nil {
		_ = old.element.Close()
	}

	a.refreshVisualizer()
	a.logger.Info("video context ready", "file", st.Name, "uri", handle.URI)
	a.publish(events.VideoChanged, Change{Text: st.Name})
	return nil
}

// ClearVideo drops the video context
func (a *App) ClearVideo() {
	a.mu.Lock()
	old := a.video
	a.video = nil
	a.mu.Unlock()
	if old == nil {
		return
	}
	if old.element != nil {
		_ = old.element.Close()
	}
	a.refreshVisualizer()
	a.publish(events.VideoChanged, Change{})
}

// TogglePlayback plays or pauses the loaded media element
func (a *App) TogglePlayback(ctx context.Context) error {
	a.mu.Lock()
	var element *audio.WAVElement
	if a.video != nil {
		element = a.video.element
	}
	a.mu.Unlock()
	if element == nil {
		return ErrNoVideo
	}
	if err := element.Toggle(ctx); err != nil {
		a.SetError(fmt.Sprintf("Playback failed: %v", err))
		return err
	}
	a.publish(events.PlaybackChanged, Change{On: element.Playing()})
	return nil
}

// refreshVisualizer attaches whichever source is live. Media wins.
func (a *App) refreshVisualizer() {
	a.mu.Lock()
	var (
		mic     *audio.Borrowed[audio.MicTap]
		element audio.MediaElement
	)
	if a.recording && a.opts.Mic != nil {
		mic = audio.Borrow[audio.MicTap](a.opts.Mic)
	}
	if a.video != nil && a.video.element != nil {
		element = a.video.element
	}
	a.mu.Unlock()

	if err := a.visualizer.Update(mic, element); err != nil {
		a.logger.Warn("visualizer update failed", "err", err)
	}
}

// Recording reports whether the microphone is on
func (a *App) Recording() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recording
}

// ToggleMic starts or stops the microphone together with speech
// recognition. ctx bounds the recording.
func (a *App) ToggleMic(ctx context.Context) error {
	if a.Recording() {
		return a.stopMic()
	}

	mic := a.opts.Mic
	if mic == nil || !mic.Available() {
		a.SetError("Microphone is not available: configure audio.captureCommand")
		return ErrMicUnavailable
	}
	if err := mic.Start(ctx); err != nil {
		a.SetError(fmt.Sprintf("Could not access the microphone: %v", err))
		return err
	}

	a.mu.Lock()
	a.recording = true
	a.interim = ""
	a.mu.Unlock()
	a.refreshVisualizer()
	a.publish(events.MicChanged, Change{On: true})

	if err := a.speech.StartListening(ctx); err != nil {
		if errors.Is(err, speech.ErrUnsupported) {
			a.flashError("Speech recognition is not available; the microphone only drives the visualizer", speechDismiss)
			return nil
		}
		a.SetError(fmt.Sprintf("Speech error: %v", err))
	}
	return nil
}

func (a *App) stopMic() error {
	a.mu.Lock()
	a.recording = false
	a.interim = ""
	a.mu.Unlock()

	err := a.speech.StopListening()
	if a.opts.Mic != nil {
		err = errors.Join(err, a.opts.Mic.Stop())
	}
	a.refreshVisualizer()
	a.publish(events.MicChanged, Change{On: false})
	return err
}

func (a *App) appendTranscript(fragment string) {
	a.mu.Lock()
	a.input = speech.AppendTranscript(a.input, fragment)
	a.interim = ""
	text := a.input
	a.mu.Unlock()
	a.publish(events.InputChanged, Change{Text: text})
}

func (a *App) setInterim(text string) {
	a.mu.Lock()
	a.interim = text
	a.mu.Unlock()
	a.publish(events.InputChanged, Change{Text: text})
}

// listeningChanged keeps the microphone in step with recognition: an engine
// failure that stops recognition also turns recording off.
func (a *App) listeningChanged(on bool) {
	if !on && a.Recording() {
		if err := a.stopMic(); err != nil {
			a.logger.Debug("stop microphone", "err", err)
		}
	}
}
