package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/entrepeneur4lyf/mediaforge/internal/chat"
	"github.com/entrepeneur4lyf/mediaforge/internal/events"
	"github.com/entrepeneur4lyf/mediaforge/internal/llm"
	"github.com/entrepeneur4lyf/mediaforge/internal/llm/prompt"
)

// Mode returns the active mode
func (a *App) Mode() prompt.Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// SetMode switches the system instruction used for later messages. name
// may be abbreviated.
func (a *App) SetMode(name string) (prompt.Mode, error) {
	m, ok := prompt.LookupMode(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownMode, name)
	}
	a.mu.Lock()
	a.mode = m
	a.mu.Unlock()
	a.setStatus(fmt.Sprintf("Mode: %s", m))
	return m, nil
}

// ExportHistory writes the conversation to a dated JSON file in dir
func (a *App) ExportHistory(dir string) (string, error) {
	msgs := a.store.Messages()
	if len(msgs) == 0 {
		a.flashError(ErrEmptyHistory.Error(), uploadDismiss)
		return "", ErrEmptyHistory
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(dir, chat.ExportFileName(a.opts.Now()))
	f, err := os.Create(path)
	if err != nil {
		a.SetError(fmt.Sprintf("Export failed: %v", err))
		return "", err
	}
	defer f.Close()

	if err := chat.ExportHistory(f, msgs); err != nil {
		a.SetError(fmt.Sprintf("Export failed: %v", err))
		return "", err
	}
	a.logger.Info("history exported", "path", path, "messages", len(msgs))
	a.setStatus(fmt.Sprintf("Exported %d messages to %s", len(msgs), path))
	return path, nil
}

// ImportHistory replaces the conversation with the one in the file at path
// and rebuilds the backend session from it. Malformed entries are skipped;
// a malformed file leaves the conversation untouched.
func (a *App) ImportHistory(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		a.SetError(fmt.Sprintf("Import failed: %v", err))
		return 0, err
	}
	defer f.Close()

	msgs, err := chat.ImportHistory(f)
	if err != nil {
		a.SetError(fmt.Sprintf("Import failed: %v", err))
		return 0, err
	}
	n := a.store.ReplaceAll(msgs)
	a.resetVideoSent()
	if err := a.backend.ResetSession(ctx, a.store.Messages()); err != nil {
		a.logger.Warn("session reset failed", "err", err)
		a.SetError(llm.UserMessage(err))
		return n, err
	}
	a.logger.Info("history imported", "path", path, "messages", n)
	a.setStatus(fmt.Sprintf("Imported %d messages", n))
	return n, nil
}

// ClearChat empties the conversation and starts a fresh backend session
func (a *App) ClearChat(ctx context.Context) error {
	a.store.ReplaceAll(nil)
	a.resetVideoSent()
	a.ClearError()
	if err := a.backend.ResetSession(ctx, nil); err != nil {
		a.SetError(llm.UserMessage(err))
		return err
	}
	return nil
}

// resetVideoSent makes the video context go out again with the next
// message of a new conversation
func (a *App) resetVideoSent() {
	a.mu.Lock()
	changed := a.video != nil && a.video.Sent
	if changed {
		a.video.Sent = false
	}
	a.mu.Unlock()
	if changed {
		a.publish(events.VideoChanged, Change{})
	}
}

// CopyLastReply puts the latest reply on the system clipboard
func (a *App) CopyLastReply() error {
	last, ok := a.store.Last(chat.RoleModel)
	if !ok {
		return ErrNoReply
	}
	if err := a.opts.Clipboard(last.Text); err != nil {
		a.SetError(fmt.Sprintf("Copy failed: %v", err))
		return err
	}
	a.setStatus("Copied reply to clipboard")
	return nil
}

// SearchYouTube asks the backend for videos about query
func (a *App) SearchYouTube(ctx context.Context, query string) ([]llm.YouTubeVideo, error) {
	a.setStatus(fmt.Sprintf("Searching YouTube for %q...", query))
	defer a.setStatus("")
	videos, err := a.backend.SearchYouTube(ctx, query)
	if err != nil {
		a.logger.Error("youtube search failed", "query", query, "err", err)
		a.SetError(llm.UserMessage(err))
		return nil, err
	}
	return videos, nil
}
