package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/entrepeneur4lyf/mediaforge/internal/app"
	"github.com/entrepeneur4lyf/mediaforge/internal/chat"
	"github.com/entrepeneur4lyf/mediaforge/internal/llm"
	"github.com/entrepeneur4lyf/mediaforge/internal/tui/components/dialogs"
	"github.com/entrepeneur4lyf/mediaforge/internal/tui/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopBackend struct{}

func (nopBackend) Generate(context.Context, *llm.Request) (*llm.Response, error) {
	return &llm.Response{Text: "ok"}, nil
}

func (nopBackend) UploadFile(context.Context, string, string, string) (*llm.FileHandle, error) {
	return nil, llm.ErrProcessingFailed
}

func (nopBackend) SearchYouTube(context.Context, string) ([]llm.YouTubeVideo, error) {
	return nil, nil
}

func (nopBackend) ResetSession(context.Context, []chat.Message) error { return nil }

func newTestModel(t *testing.T) (*Model, *app.App) {
	t.Helper()
	a, err := app.New(app.Options{
		Backend:    nopBackend{},
		Retry:      llm.DefaultRetryOptions,
		PreviewDir: t.TempDir(),
		WorkDir:    t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	m := New(context.Background(), a, Options{Theme: "mocha"})
	m.Update(tea.WindowSizeMsg{Width: 90, Height: 30})
	return m, a
}

func TestQuitCancelsContext(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.ErrorIs(t, m.Context().Err(), context.Canceled)
}

func TestHelpOverlay(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(page.OpenHelpMsg{})
	assert.Contains(t, ansi.Strip(m.View()), "MediaForge Help")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.IsType(t, dialogs.DialogCloseMsg{}, cmd())
	assert.NotContains(t, ansi.Strip(m.View()), "MediaForge Help")
}

func TestEventsReachThePage(t *testing.T) {
	m, a := newTestModel(t)
	cmd := m.waitForEvent()

	a.SetInput("from the microphone")
	msg := make(chan tea.Msg, 1)
	go func() { msg <- cmd() }()

	select {
	case got := <-msg:
		m.Update(got)
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}
	assert.Contains(t, ansi.Strip(m.View()), "from the microphone")
}
