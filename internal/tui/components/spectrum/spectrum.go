// Package spectrum draws frequency frames as a bar chart of block characters.
package spectrum

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/entrepeneur4lyf/mediaforge/internal/audio"
	"github.com/entrepeneur4lyf/mediaforge/internal/tui/theme"
)

// eighths are the partial blocks for the top cell of a column
var eighths = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Model is the spectrum pane
type Model struct {
	theme  theme.Theme
	width  int
	height int
	frame  audio.Frame
}

// New creates a spectrum pane
func New(th theme.Theme) *Model {
	return &Model{theme: th}
}

// SetSize resizes the pane
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
}

// SetFrame stores the frame to draw next
func (m *Model) SetFrame(f audio.Frame) {
	m.frame = f
}

// Height returns the number of rows the pane occupies
func (m *Model) Height() int {
	return m.height
}

// View renders the current frame; a flat frame draws the empty background
func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	bg := lipgloss.NewStyle().Background(m.theme.BackgroundSecondary)
	if m.frame.Flat() {
		row := bg.Render(strings.Repeat(" ", m.width))
		return strings.TrimSuffix(strings.Repeat(row+"\n", m.height), "\n")
	}

	cols := audio.Columns(m.frame, m.width, m.height)
	styles := make([]lipgloss.Style, len(cols))
	for i, c := range cols {
		styles[i] = bg.Foreground(lipgloss.Color(c.Color.Hex()))
	}

	rows := make([]string, m.height)
	for r := 0; r < m.height; r++ {
		// r counts from the top; level is the row's distance from the bottom
		level := float64(m.height - 1 - r)
		var b strings.Builder
		for i, c := range cols {
			b.WriteString(styles[i].Render(string(cell(c.Height, level))))
		}
		rows[r] = b.String()
	}
	return strings.Join(rows, "\n")
}

// cell picks the glyph for a column of the given height at a row level
func cell(height, level float64) rune {
	fill := height - level
	switch {
	case fill >= 1:
		return eighths[8]
	case fill <= 0:
		return eighths[0]
	default:
		return eighths[int(math.Round(fill*8))]
	}
}
