package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/entrepeneur4lyf/mediaforge/internal/events"
	"github.com/entrepeneur4lyf/mediaforge/internal/media"
)

// Sharing reports whether screen sharing is on
func (a *App) Sharing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sharing
}

// StartSharing enables frame capture from the screen source
func (a *App) StartSharing() error {
	if a.opts.Screen == nil || !a.opts.Screen.Available() {
		a.SetError("Screen sharing is not available: configure screen.command")
		return media.ErrNoScreenSource
	}
	a.mu.Lock()
	a.sharing = true
	a.mu.Unlock()
	a.publish(events.SharingChanged, Change{On: true})
	return nil
}

// StopSharing disables frame capture and drops the frames still queued
func (a *App) StopSharing() {
	a.mu.Lock()
	was := a.sharing
	a.sharing = false
	a.mu.Unlock()
	if !was {
		return
	}
	dropped := a.captures.Len()
	a.captures.Clear()
	a.publish(events.SharingChanged, Change{On: false})
	if dropped > 0 {
		a.logger.Debug("queued captures dropped", "count", dropped)
		a.publish(events.CaptureChanged, Change{})
	}
}

// CaptureFrame grabs the screen and queues the frame for the next message
func (a *App) CaptureFrame(ctx context.Context) (media.ScreenCapture, error) {
	if !a.Sharing() {
		return media.ScreenCapture{}, ErrNotSharing
	}
	img, err := a.opts.Screen.Grab(ctx)
	if err != nil {
		a.SetError(fmt.Sprintf("Screen capture failed: %v", err))
		return media.ScreenCapture{}, err
	}
	capture, err := media.NewScreenCapture(img, a.opts.ScreenMaxWidth)
	if err != nil {
		a.SetError(fmt.Sprintf("Screen capture failed: %v", err))
		return media.ScreenCapture{}, err
	}
	a.captures.Add(capture)
	a.logger.Debug("frame captured", "id", capture.ID, "width", capture.Width, "height", capture.Height)
	a.publish(events.CaptureChanged, Change{Text: capture.ID, On: true})
	return capture, nil
}

// RemoveCapture drops a queued frame. An id prefix is accepted.
func (a *App) RemoveCapture(id string) bool {
	for _, c := range a.captures.Snapshot() {
		if c.ID == id || (len(id) >= 4 && strings.HasPrefix(c.ID, id)) {
			if a.captures.Remove(c.ID) {
				a.publish(events.CaptureChanged, Change{Text: c.ID})
				return true
			}
		}
	}
	return false
}
