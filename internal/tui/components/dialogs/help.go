package dialogs

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/entrepeneur4lyf/mediaforge/internal/tui/theme"
)

// DialogCloseMsg asks the parent to close the open dialog
type DialogCloseMsg struct{}

// Entry is one line of the help dialog
type Entry struct {
	Key  string
	Desc string
}

// Section groups help entries under a title
type Section struct {
	Title   string
	Entries []Entry
}

// HelpDialog displays keyboard shortcuts and slash commands
type HelpDialog struct {
	theme    theme.Theme
	sections []Section
	width    int
	height   int
}

// NewHelpDialog creates a new help dialog
func NewHelpDialog(th theme.Theme, sections []Section) *HelpDialog {
	return &HelpDialog{theme: th, sections: sections}
}

func (h *HelpDialog) Init() tea.Cmd {
	return nil
}

func (h *HelpDialog) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h.width = msg.Width
		h.height = msg.Height
	case tea.KeyMsg:
		// Any key closes the help dialog
		return h, func() tea.Msg { return DialogCloseMsg{} }
	}
	return h, nil
}

func (h *HelpDialog) View() string {
	if h.width == 0 || h.height == 0 {
		return ""
	}
	dialogWidth := min(h.width-4, 72)

	keyWidth := 0
	for _, s := range h.sections {
		for _, e := range s.Entries {
			keyWidth = max(keyWidth, lipgloss.Width(e.Key))
		}
	}

	titleStyle := lipgloss.NewStyle().Foreground(h.theme.Primary).Bold(true).Width(dialogWidth - 4).Align(lipgloss.Center)
	sectionStyle := lipgloss.NewStyle().Foreground(h.theme.Secondary).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(h.theme.Accent).Width(keyWidth + 2)
	descStyle := lipgloss.NewStyle().Foreground(h.theme.Text)

	var content strings.Builder
	content.WriteString(titleStyle.Render("MediaForge Help"))
	content.WriteString("\n")
	for _, s := range h.sections {
		content.WriteString("\n")
		content.WriteString(sectionStyle.Render(s.Title))
		content.WriteString("\n")
		for _, e := range s.Entries {
			content.WriteString(keyStyle.Render(e.Key))
			content.WriteString(descStyle.Render(e.Desc))
			content.WriteString("\n")
		}
	}
	content.WriteString("\n")
	content.WriteString(lipgloss.NewStyle().Foreground(h.theme.TextMuted).Render("Press any key to close"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(h.theme.BorderActive).
		Background(h.theme.Background).
		Padding(1, 2).
		Width(dialogWidth).
		MaxHeight(h.height - 2).
		Render(content.String())
}
