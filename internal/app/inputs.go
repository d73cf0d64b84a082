package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/entrepeneur4lyf/mediaforge/internal/events"
	"github.com/entrepeneur4lyf/mediaforge/internal/llm/prompt"
	"github.com/entrepeneur4lyf/mediaforge/internal/media"
)

const (
	speechDismiss = 5 * time.Second
	uploadDismiss = 5 * time.Second
)

// rejectFile shows a validation error for as long as its kind warrants
func (a *App) rejectFile(err error) {
	var ve *media.ValidationError
	if errors.As(err, &ve) {
		a.flashError(ve.Error(), ve.Dismiss())
		return
	}
	a.flashError(err.Error(), media.UnsupportedDismiss)
}

// Attach validates the file at path and makes it the pending attachment,
// replacing any previous one.
func (a *App) Attach(path string) error {
	st, err := media.Inspect(path, a.opts.MaxUploadBytes)
	if err != nil {
		a.rejectFile(err)
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		a.rejectFile(err)
		return fmt.Errorf("read %s: %w", st.Name, err)
	}
	preview, err := a.previews.Create(path, st.Name, st.MIMEType)
	if err != nil {
		a.logger.Warn("preview failed", "file", st.Name, "err", err)
		preview, _ = a.previews.Create(path, st.Name, "")
	}

	a.mu.Lock()
	old := a.attachment
	a.attachment = &attachment{
		Attachment: prompt.Attachment{Name: st.Name, MIMEType: st.MIMEType, Data: data},
		preview:    preview,
	}
	a.mu.Unlock()
	if old != nil {
		old.preview.Release()
	}

	a.logger.Info("attached file", "name", st.Name, "type", st.MIMEType, "size", st.Size)
	a.publish(events.AttachmentChanged, Change{Text: st.Name})
	return nil
}

// ClearAttachment drops the pending attachment
func (a *App) ClearAttachment() {
	a.mu.Lock()
	old := a.attachment
	a.attachment = nil
	a.mu.Unlock()
	if old == nil {
		return
	}
	old.preview.Release()
	a.publish(events.AttachmentChanged, Change{})
}

// expand resolves patterns to files. Glob matches skip paths ignored by the
// working directory's ignore rules; explicitly named files are always kept.
func (a *App) expand(patterns []string) ([]string, error) {
	var filter *media.IgnoreFilter
	if a.opts.RespectGitignore {
		filter = media.NewIgnoreFilter(a.opts.WorkDir)
	}

	var paths []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(a.opts.WorkDir, pattern)
		}
		isGlob := strings.ContainsAny(pattern, "*?[{")
		if !isGlob {
			if !seen[pattern] {
				seen[pattern] = true
				paths = append(paths, pattern)
			}
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if filter.Ignored(m) {
				continue
			}
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	return paths, nil
}

// AddContextFiles uploads every file matching patterns as a context
// document. Each file shows as pending until its upload finishes; uploads
// run in the background. The returned ids are the pending placeholders.
func (a *App) AddContextFiles(patterns ...string) ([]string, error) {
	paths, err := a.expand(patterns)
	if err != nil {
		a.flashError(err.Error(), uploadDismiss)
		return nil, err
	}
	if len(paths) == 0 {
		err := fmt.Errorf("no files match %s", strings.Join(patterns, " "))
		a.flashError(err.Error(), uploadDismiss)
		return nil, err
	}

	var ids []string
	for _, path := range paths {
		st, err := media.Inspect(path, a.opts.MaxUploadBytes)
		if err != nil {
			a.rejectFile(err)
			continue
		}
		pending := media.NewPendingContextFile(st.Name, st.MIMEType)
		a.files.Add(pending)
		ids = append(ids, pending.ID)
		a.publish(events.ContextFileChanged, Change{Text: st.Name})

		a.uploads.Add(1)
		go a.uploadContextFile(pending, st)
	}
	return ids, nil
}

func (a *App) uploadContextFile(pending media.ContextFile, st media.Stat) {
	defer a.uploads.Done()

	handle, err := a.backend.UploadFile(a.uploadCtx, st.Path, st.MIMEType, st.Name)
	if err != nil {
		a.files.Remove(pending.ID)
		a.publish(events.ContextFileChanged, Change{Text: st.Name})
		if errors.Is(err, context.Canceled) {
			return
		}
		a.logger.Error("context file upload failed", "file", st.Name, "err", err)
		a.SetError(fmt.Sprintf("Failed to upload %s: %v", st.Name, err))
		return
	}

	ready := media.ContextFile{
		ID:          handle.Name,
		DisplayName: st.Name,
		MIMEType:    st.MIMEType,
		URI:         handle.URI,
		State:       media.StateReady,
	}
	if !a.files.Replace(pending.ID, ready) {
		// removed by the user while uploading
		return
	}
	a.logger.Info("context file ready", "file", st.Name, "name", handle.Name)
	a.publish(events.ContextFileChanged, Change{Text: st.Name, On: true})
}

// WaitUploads blocks until every background upload has finished
func (a *App) WaitUploads() {
	a.uploads.Wait()
}

// RemoveContextFile drops a context document by id or display name
func (a *App) RemoveContextFile(idOrName string) bool {
	for _, f := range a.files.All() {
		if f.ID == idOrName || f.DisplayName == idOrName {
			if a.files.Remove(f.ID) {
				a.publish(events.ContextFileChanged, Change{Text: f.DisplayName})
				return true
			}
		}
	}
	return false
}
