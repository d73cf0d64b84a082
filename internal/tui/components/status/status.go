package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/entrepeneur4lyf/mediaforge/internal/app"
	"github.com/entrepeneur4lyf/mediaforge/internal/tui/theme"
)

// Model represents the status bar component
type Model struct {
	theme   theme.Theme
	width   int
	state   app.State
	spinner string
}

// NewStatusBar creates a new status bar component
func NewStatusBar(th theme.Theme) *Model {
	return &Model{theme: th}
}

// SetWidth sets the width of the status bar
func (m *Model) SetWidth(width int) {
	m.width = width
}

// SetState updates the session snapshot shown in the bar
func (m *Model) SetState(s app.State) {
	m.state = s
}

// SetSpinner sets the frame drawn in front of the status text while busy
func (m *Model) SetSpinner(frame string) {
	m.spinner = frame
}

func (m *Model) logo() string {
	base := lipgloss.NewStyle().
		Foreground(m.theme.TextMuted).
		Background(m.theme.BackgroundSecondary)
	emphasis := base.Foreground(m.theme.Text).Bold(true)
	return lipgloss.NewStyle().
		Background(m.theme.BackgroundSecondary).
		Padding(0, 1).
		Render(base.Render("Media") + emphasis.Render("Forge"))
}

// Flags lists the active media indicators
func Flags(s app.State) []string {
	var flags []string
	if s.Recording {
		flags = append(flags, "REC")
	}
	if s.Sharing {
		flags = append(flags, "SHARE")
	}
	if s.Speaking {
		flags = append(flags, "SPEAK")
	}
	if s.AutoSpeak {
		flags = append(flags, "AUTO")
	}
	if v := s.Video; v != nil {
		switch {
		case v.Playing:
			flags = append(flags, fmt.Sprintf("PLAY %s/%s", clock(v.Position.Seconds()), clock(v.Duration.Seconds())))
		case v.Playable:
			flags = append(flags, "PAUSED")
		}
	}
	return flags
}

func clock(sec float64) string {
	s := int(sec)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// View renders the status line
func (m *Model) View() string {
	if m.width == 0 {
		return ""
	}
	logo := m.logo()

	mode := lipgloss.NewStyle().
		Foreground(m.theme.Background).
		Background(m.theme.Primary).
		Padding(0, 1).
		Render(string(m.state.Mode))

	right := ""
	if flags := Flags(m.state); len(flags) > 0 {
		right = lipgloss.NewStyle().
			Foreground(m.theme.Accent).
			Background(m.theme.BackgroundSecondary).
			Padding(0, 1).
			Render(strings.Join(flags, " "))
	}

	text := m.state.Status
	if m.state.Processing && m.spinner != "" {
		text = strings.TrimSpace(m.spinner + " " + text)
	}
	room := max(0, m.width-lipgloss.Width(logo)-lipgloss.Width(mode)-lipgloss.Width(right)-2)
	middle := lipgloss.NewStyle().
		Foreground(m.theme.TextMuted).
		Background(m.theme.Background).
		Padding(0, 1).
		Width(room + 2).
		Render(ansi.Truncate(text, room, "…"))

	return ansi.Truncate(logo+mode+middle+right, m.width, "")
}
