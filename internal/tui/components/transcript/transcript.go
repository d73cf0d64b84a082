// Package transcript renders the conversation log inside a scrollable viewport.
package transcript

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/entrepeneur4lyf/mediaforge/internal/chat"
	"github.com/entrepeneur4lyf/mediaforge/internal/tui/theme"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const emptyHint = "Start a conversation: type a message, /attach a file, or /help for commands."

// Model is the transcript pane
type Model struct {
	theme    theme.Theme
	viewport viewport.Model
	renderer *glamour.TermRenderer
	title    cases.Caser

	width  int
	height int

	messages []chat.Message
	// rendered caches message bodies by ID for the current width
	rendered map[string]string
}

// New creates an empty transcript
func New(th theme.Theme) *Model {
	return &Model{
		theme:    th,
		viewport: viewport.New(0, 0),
		title:    cases.Title(language.English),
		rendered: make(map[string]string),
	}
}

// SetSize resizes the pane; cached renders are dropped when the width changes
func (m *Model) SetSize(width, height int) {
	if width != m.width {
		m.renderer = nil
		clear(m.rendered)
	}
	m.width, m.height = width, height
	m.viewport.Width = width
	m.viewport.Height = height
	m.refresh()
}

// SetMessages replaces the displayed log. The view follows the tail unless
// the user scrolled up.
func (m *Model) SetMessages(msgs []chat.Message) {
	m.messages = msgs
	m.refresh()
}

// Messages returns the displayed log
func (m *Model) Messages() []chat.Message {
	return m.messages
}

func (m *Model) refresh() {
	follow := m.viewport.AtBottom() || m.viewport.TotalLineCount() == 0
	m.viewport.SetContent(m.Render())
	if follow {
		m.viewport.GotoBottom()
	}
}

// Update handles scrolling keys and mouse wheel events
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the viewport
func (m *Model) View() string {
	return m.viewport.View()
}

// Render produces the full transcript text
func (m *Model) Render() string {
	if len(m.messages) == 0 {
		return lipgloss.NewStyle().Foreground(m.theme.TextMuted).Italic(true).Padding(1, 2).Render(emptyHint)
	}
	blocks := make([]string, 0, len(m.messages))
	for _, msg := range m.messages {
		blocks = append(blocks, m.renderMessage(msg))
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderMessage(msg chat.Message) string {
	labelColor := m.theme.Secondary
	if msg.Role == chat.RoleModel {
		labelColor = m.theme.Primary
	}
	header := lipgloss.NewStyle().Foreground(labelColor).Bold(true).Render(m.title.String(string(msg.Role)))
	if !msg.CreatedAt.IsZero() {
		header += " " + lipgloss.NewStyle().Foreground(m.theme.TextMuted).Render(msg.CreatedAt.Format("15:04"))
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(m.body(msg))
	if notes := m.annotations(msg); notes != "" {
		b.WriteString("\n")
		b.WriteString(notes)
	}
	return b.String()
}

func (m *Model) body(msg chat.Message) string {
	if cached, ok := m.rendered[msg.ID]; ok && msg.ID != "" {
		return cached
	}
	var out string
	if msg.Role == chat.RoleModel {
		out = m.markdown(msg.Text)
	} else {
		out = lipgloss.NewStyle().Foreground(m.theme.Text).Width(max(m.width-2, 10)).Render(msg.Text)
	}
	if msg.ID != "" {
		m.rendered[msg.ID] = out
	}
	return out
}

func (m *Model) markdown(text string) string {
	if m.renderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.theme.Glamour),
			glamour.WithWordWrap(max(m.width-4, 20)),
		)
		if err != nil {
			return text
		}
		m.renderer = r
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

func (m *Model) annotations(msg chat.Message) string {
	muted := lipgloss.NewStyle().Foreground(m.theme.TextMuted)
	var lines []string
	if f := msg.AttachedFile; f != nil {
		lines = append(lines, muted.Render(fmt.Sprintf("attached: %s (%s)", f.Name, f.MIMEType)))
	}
	if n := len(msg.ScreenCaptures); n > 0 {
		noun := "capture"
		if n > 1 {
			noun = "captures"
		}
		lines = append(lines, muted.Render(fmt.Sprintf("screen: %d %s", n, noun)))
	}
	if msg.YouTubeVideoID != "" {
		lines = append(lines, muted.Render("youtube: "+msg.YouTubeVideoID))
	}
	if len(msg.ContextFilesUsed) > 0 {
		names := make([]string, len(msg.ContextFilesUsed))
		for i, f := range msg.ContextFilesUsed {
			names[i] = f.DisplayName
		}
		lines = append(lines, muted.Render("context: "+strings.Join(names, ", ")))
	}
	if len(msg.GroundingSources) > 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(m.theme.Info).Render("Sources:"))
		for i, s := range msg.GroundingSources {
			title := s.Title
			if title == "" {
				title = s.URI
			}
			lines = append(lines, muted.Render(fmt.Sprintf("  %d. %s <%s>", i+1, title, s.URI)))
		}
	}
	return strings.Join(lines, "\n")
}
