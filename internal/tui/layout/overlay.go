package layout

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Position represents where to place an overlay
type Position int

const (
	Center Position = iota
	Top
	Bottom
)

// PlaceOverlay draws overlay on top of background, keeping the styling of
// the background cells to the left and right of it.
func PlaceOverlay(width, height int, overlay, background string, pos Position) string {
	overlayLines := strings.Split(overlay, "\n")
	backgroundLines := strings.Split(background, "\n")
	for len(backgroundLines) < height {
		backgroundLines = append(backgroundLines, "")
	}

	overlayHeight := len(overlayLines)
	overlayWidth := 0
	for _, line := range overlayLines {
		overlayWidth = max(overlayWidth, lipgloss.Width(line))
	}

	startX := (width - overlayWidth) / 2
	var startY int
	switch pos {
	case Center:
		startY = (height - overlayHeight) / 2
	case Top:
		startY = 0
	case Bottom:
		startY = height - overlayHeight
	}
	startX = max(0, min(startX, width-overlayWidth))
	startY = max(0, min(startY, height-overlayHeight))

	result := make([]string, height)
	copy(result, backgroundLines[:height])
	for i, line := range overlayLines {
		y := startY + i
		if y < 0 || y >= height {
			continue
		}
		bg := result[y]
		if pad := width - lipgloss.Width(bg); pad > 0 {
			bg += strings.Repeat(" ", pad)
		}
		left := ansi.Truncate(bg, startX, "")
		right := ansi.TruncateLeft(bg, startX+lipgloss.Width(line), "")
		result[y] = left + line + right
	}
	return strings.Join(result, "\n")
}
