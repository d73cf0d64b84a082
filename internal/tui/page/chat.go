package page

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/entrepeneur4lyf/mediaforge/internal/app"
	"github.com/entrepeneur4lyf/mediaforge/internal/audio"
	"github.com/entrepeneur4lyf/mediaforge/internal/events"
	"github.com/entrepeneur4lyf/mediaforge/internal/llm"
	"github.com/entrepeneur4lyf/mediaforge/internal/media"
	"github.com/entrepeneur4lyf/mediaforge/internal/tui/components/spectrum"
	"github.com/entrepeneur4lyf/mediaforge/internal/tui/components/status"
	"github.com/entrepeneur4lyf/mediaforge/internal/tui/components/transcript"
	"github.com/entrepeneur4lyf/mediaforge/internal/tui/theme"
)

const (
	editorHeight   = 3
	spectrumHeight = 4
	maxNoticeLines = 8
)

// EventMsg carries an application event into the update loop
type EventMsg events.Event[app.Change]

// FrameMsg carries a visualizer frame into the update loop
type FrameMsg audio.Frame

// OpenHelpMsg asks the parent to show the help dialog
type OpenHelpMsg struct{}

type sendDoneMsg struct{ err error }

const busyNotice = "Still waiting for the previous reply."

type commandDoneMsg struct {
	notice string
	err    error
	// results replaces the remembered YouTube search when non-nil
	results []llm.YouTubeVideo
}

// Options configures the chat page
type Options struct {
	// ExportDir is where /export writes when no directory is given
	ExportDir string
}

// ChatPage is the main screen: transcript, pending inputs, spectrum,
// editor and status bar.
type ChatPage struct {
	app   *app.App
	ctx   context.Context
	theme theme.Theme
	opts  Options

	width  int
	height int

	transcript *transcript.Model
	editor     textarea.Model
	spinner    spinner.Model
	status     *status.Model
	spectrum   *spectrum.Model

	state app.State
	// pushed is the last editor text handed to the app; a different app
	// input means someone else (speech, send) changed it.
	pushed  string
	notice  string
	results []llm.YouTubeVideo
}

type chatKeyMap struct {
	Send         key.Binding
	Newline      key.Binding
	ToggleFocus  key.Binding
	TogglePlayer key.Binding
}

var chatKeys = chatKeyMap{
	Send: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "send message"),
	),
	Newline: key.NewBinding(
		key.WithKeys("alt+enter", "shift+enter", "ctrl+j"),
		key.WithHelp("alt+enter", "new line"),
	),
	ToggleFocus: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "focus/unfocus input"),
	),
	TogglePlayer: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "play/pause (input unfocused)"),
	),
}

// NewChatPage creates a new chat page. ctx bounds every operation the page
// starts and should be cancelled on quit.
func NewChatPage(ctx context.Context, a *app.App, th theme.Theme, opts Options) *ChatPage {
	ta := textarea.New()
	ta.Placeholder = "Message... (Enter to send, Alt+Enter for new line, /help for commands)"
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(editorHeight)
	ta.KeyMap.InsertNewline = chatKeys.Newline
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(th.Text)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle().Background(th.BackgroundSecondary)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(th.TextMuted)
	ta.BlurredStyle.Base = lipgloss.NewStyle().Foreground(th.TextMuted)
	ta.BlurredStyle.Placeholder = lipgloss.NewStyle().Foreground(th.TextMuted)
	ta.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(th.Primary)

	p := &ChatPage{
		app:        a,
		ctx:        ctx,
		theme:      th,
		opts:       opts,
		transcript: transcript.New(th),
		editor:     ta,
		spinner:    sp,
		status:     status.NewStatusBar(th),
		spectrum:   spectrum.New(th),
	}
	p.syncState()
	p.transcript.SetMessages(a.Messages())
	p.editor.SetValue(p.state.Input)
	p.pushed = p.state.Input
	return p
}

func (p *ChatPage) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, p.spinner.Tick)
}

func (p *ChatPage) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		p.updateLayout()
		return p, nil

	case EventMsg:
		p.applyEvent(events.Event[app.Change](msg))
		return p, nil

	case FrameMsg:
		p.spectrum.SetFrame(audio.Frame(msg))
		if v := p.state.Video; v != nil && v.Playing {
			p.syncState()
		}
		return p, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		p.status.SetSpinner(p.spinner.View())
		return p, cmd

	case sendDoneMsg:
		// The app already shows its own banner for failures
		if errors.Is(msg.err, app.ErrBusy) {
			p.notice = busyNotice
		}
		return p, nil

	case commandDoneMsg:
		if msg.notice != "" {
			p.notice = msg.notice
		}
		if msg.results != nil {
			p.results = msg.results
		}
		if msg.err != nil && p.app.State().Error == "" {
			p.app.SetError(msg.err.Error())
		}
		p.updateLayout()
		return p, nil

	case tea.MouseMsg:
		var cmd tea.Cmd
		p.transcript, cmd = p.transcript.Update(msg)
		return p, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, chatKeys.ToggleFocus):
			if p.editor.Focused() {
				p.editor.Blur()
				return p, nil
			}
			return p, p.editor.Focus()

		case !p.editor.Focused() && key.Matches(msg, chatKeys.TogglePlayer):
			return p, p.run(func(ctx context.Context) (string, error) {
				return "", p.app.TogglePlayback(ctx)
			})

		case !p.editor.Focused():
			var cmd tea.Cmd
			p.transcript, cmd = p.transcript.Update(msg)
			return p, cmd

		case key.Matches(msg, chatKeys.Send):
			return p, p.submit()
		}
	}

	if p.editor.Focused() {
		var cmd tea.Cmd
		p.editor, cmd = p.editor.Update(msg)
		cmds = append(cmds, cmd)
		p.pushInput()
	}
	return p, tea.Batch(cmds...)
}

// Focused reports whether the editor takes key input
func (p *ChatPage) Focused() bool {
	return p.editor.Focused()
}

// pushInput mirrors the editor text into the app
func (p *ChatPage) pushInput() {
	value := p.editor.Value()
	if value == p.pushed {
		return
	}
	p.pushed = value
	p.app.SetInput(value)
}

func (p *ChatPage) applyEvent(e events.Event[app.Change]) {
	switch e.Type {
	case events.ConversationAppended, events.ConversationRemoved, events.ConversationReplaced:
		p.transcript.SetMessages(p.app.Messages())
	case events.InputChanged:
		if current := p.app.Input(); current != p.pushed {
			p.editor.SetValue(current)
			p.editor.CursorEnd()
			p.pushed = current
		}
	}
	p.syncState()
}

func (p *ChatPage) syncState() {
	p.state = p.app.State()
	p.status.SetState(p.state)
	p.updateLayout()
}

// submit sends the editor text or runs it as a slash command
func (p *ChatPage) submit() tea.Cmd {
	value := strings.TrimSpace(p.editor.Value())
	if name, arg, ok := ParseCommand(value); ok {
		p.editor.Reset()
		p.pushInput()
		return p.runCommand(name, arg)
	}
	p.pushInput()
	if p.state.Processing {
		p.notice = busyNotice
		return nil
	}
	p.notice = ""
	p.app.ClearError()
	ctx := p.ctx
	return func() tea.Msg {
		return sendDoneMsg{err: p.app.Send(ctx)}
	}
}

// run executes fn off the update loop and reports its outcome
func (p *ChatPage) run(fn func(ctx context.Context) (string, error)) tea.Cmd {
	ctx := p.ctx
	return func() tea.Msg {
		notice, err := fn(ctx)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		return commandDoneMsg{notice: notice, err: err}
	}
}

func (p *ChatPage) updateLayout() {
	if p.width == 0 || p.height == 0 {
		return
	}
	p.editor.SetWidth(p.width - 2)
	p.status.SetWidth(p.width)

	pane := 0
	if p.state.Recording || (p.state.Video != nil && p.state.Video.Playable) {
		pane = spectrumHeight
	}
	p.spectrum.SetSize(p.width, pane)

	used := editorHeight + 2 + 1 + pane
	used += lineCount(p.noticeView()) + lineCount(p.pendingView()) + lineCount(p.bannerView())
	p.transcript.SetSize(p.width, max(1, p.height-used))
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

func (p *ChatPage) noticeView() string {
	if p.notice == "" || p.width == 0 {
		return ""
	}
	lines := strings.Split(p.notice, "\n")
	if len(lines) > maxNoticeLines {
		lines = append(lines[:maxNoticeLines-1], "…")
	}
	style := lipgloss.NewStyle().Foreground(p.theme.Info)
	for i, l := range lines {
		lines[i] = style.Render(ansi.Truncate(l, p.width, "…"))
	}
	return strings.Join(lines, "\n")
}

// PendingItems describes what the next send will carry
func PendingItems(s app.State) []string {
	var items []string
	if a := s.Attachment; a != nil {
		items = append(items, fmt.Sprintf("file: %s", a.Name))
	}
	for _, f := range s.ContextFiles {
		label := f.DisplayName
		switch f.State {
		case media.StatePending:
			label += " (uploading)"
		case media.StateFailed:
			label += " (failed)"
		}
		items = append(items, "ctx: "+label)
	}
	for _, c := range s.Captures {
		items = append(items, fmt.Sprintf("cap: %s %dx%d", shortID(c.ID), c.Width, c.Height))
	}
	if v := s.Video; v != nil {
		label := "video: " + v.DisplayName
		if v.Sent {
			label += " (sent)"
		}
		items = append(items, label)
	}
	return items
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (p *ChatPage) pendingView() string {
	if p.width == 0 {
		return ""
	}
	var parts []string
	chip := lipgloss.NewStyle().Foreground(p.theme.Accent)
	for _, item := range PendingItems(p.state) {
		parts = append(parts, chip.Render("["+item+"]"))
	}
	if p.state.Interim != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(p.theme.TextMuted).Italic(true).Render(p.state.Interim+"…"))
	}
	if len(parts) == 0 {
		return ""
	}
	return ansi.Truncate(strings.Join(parts, " "), p.width, "…")
}

func (p *ChatPage) bannerView() string {
	if p.state.Error == "" || p.width == 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(p.theme.Background).
		Background(p.theme.Error).
		Bold(true).
		Width(p.width).
		Padding(0, 1).
		Render(ansi.Truncate(p.state.Error, max(p.width-2, 1), "…"))
}

func (p *ChatPage) editorView() string {
	border := p.theme.Border
	if p.editor.Focused() {
		border = p.theme.BorderActive
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Render(p.editor.View())
}

func (p *ChatPage) View() string {
	if p.width == 0 || p.height == 0 {
		return ""
	}
	sections := []string{p.transcript.View()}
	for _, s := range []string{p.noticeView(), p.pendingView(), p.bannerView(), p.spectrum.View()} {
		if s != "" {
			sections = append(sections, s)
		}
	}
	sections = append(sections, p.editorView(), p.status.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
