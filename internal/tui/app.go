// Package tui is the terminal front end: a bubbletea program driven by the
// app controller's events and the audio visualizer's frames.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/entrepeneur4lyf/mediaforge/internal/app"
	"github.com/entrepeneur4lyf/mediaforge/internal/audio"
	"github.com/entrepeneur4lyf/mediaforge/internal/events"
	"github.com/entrepeneur4lyf/mediaforge/internal/tui/components/dialogs"
	"github.com/entrepeneur4lyf/mediaforge/internal/tui/layout"
	"github.com/entrepeneur4lyf/mediaforge/internal/tui/page"
	"github.com/entrepeneur4lyf/mediaforge/internal/tui/theme"
)

// Options configures the program
type Options struct {
	Theme     string
	FrameRate int
	ExportDir string
	Logger    *log.Logger
}

type Model struct {
	app    *app.App
	theme  theme.Theme
	ctx    context.Context
	cancel context.CancelFunc
	events <-chan events.Event[app.Change]

	chat     *page.ChatPage
	help     *dialogs.HelpDialog
	showHelp bool

	width  int
	height int
}

// New creates the root model. The returned model owns a context that is
// cancelled when the program quits.
func New(parent context.Context, a *app.App, opts Options) *Model {
	ctx, cancel := context.WithCancel(parent)
	th := theme.Lookup(opts.Theme)
	return &Model{
		app:    a,
		theme:  th,
		ctx:    ctx,
		cancel: cancel,
		events: a.Events().Subscribe(ctx),
		chat:   page.NewChatPage(ctx, a, th, page.Options{ExportDir: opts.ExportDir}),
		help:   dialogs.NewHelpDialog(th, page.HelpSections()),
	}
}

// Context is cancelled when the program quits
func (m *Model) Context() context.Context {
	return m.ctx
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.chat.Init(), m.waitForEvent())
}

// waitForEvent blocks until the next app event and hands it to Update
func (m *Model) waitForEvent() tea.Cmd {
	ch := m.events
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return page.EventMsg(e)
	}
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.cancel()
	return m, tea.Quit
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Update(msg)
		_, cmd := m.chat.Update(msg)
		return m, cmd

	case page.EventMsg:
		_, cmd := m.chat.Update(msg)
		return m, tea.Batch(cmd, m.waitForEvent())

	case page.OpenHelpMsg:
		m.showHelp = true
		return m, nil

	case dialogs.DialogCloseMsg:
		m.showHelp = false
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m.quit()
		}
		if m.showHelp {
			_, cmd := m.help.Update(msg)
			return m, cmd
		}
		if key.Matches(msg, keys.Help) && !m.chatFocused() {
			m.showHelp = true
			return m, nil
		}
	}

	_, cmd := m.chat.Update(msg)
	return m, cmd
}

func (m *Model) chatFocused() bool {
	return m.chat.Focused()
}

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	content := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		MaxHeight(m.height).
		Render(m.chat.View())
	if m.showHelp {
		return layout.PlaceOverlay(m.width, m.height, m.help.View(), content, layout.Center)
	}
	return content
}

// Run starts the program and the visualizer loop, and blocks until the
// user quits.
func Run(ctx context.Context, a *app.App, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	model := New(ctx, a, opts)
	defer model.cancel()

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	loop := audio.NewLoop(a.Visualizer(), opts.FrameRate)
	go func() {
		_ = loop.Run(model.Context(), func(f audio.Frame) {
			p.Send(page.FrameMsg(f))
		})
		opts.Logger.Debug("visualizer loop stopped")
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

type keyMap struct {
	Quit key.Binding
	Help key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help (input unfocused)"),
	),
}
