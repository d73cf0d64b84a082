package theme

import (
	"strings"

	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
)

// DefaultFlavor is used when the configured flavour is unknown
const DefaultFlavor = "mocha"

// Theme holds the colours every component draws with
type Theme struct {
	Name string

	Background          lipgloss.Color
	BackgroundSecondary lipgloss.Color
	Border              lipgloss.Color
	BorderActive        lipgloss.Color

	Text      lipgloss.Color
	TextMuted lipgloss.Color

	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	Error   lipgloss.Color
	Warning lipgloss.Color
	Success lipgloss.Color
	Info    lipgloss.Color

	// Glamour is the glamour standard style matching the palette
	Glamour string
}

// FromFlavor maps a catppuccin flavour onto the theme slots
func FromFlavor(f catppuccin.Flavor) Theme {
	c := func(col catppuccin.Color) lipgloss.Color { return lipgloss.Color(col.Hex) }
	glamour := "dark"
	if f.Name() == catppuccin.Latte.Name() {
		glamour = "light"
	}
	return Theme{
		Name:                strings.ToLower(f.Name()),
		Background:          c(f.Base()),
		BackgroundSecondary: c(f.Mantle()),
		Border:              c(f.Surface1()),
		BorderActive:        c(f.Lavender()),
		Text:                c(f.Text()),
		TextMuted:           c(f.Overlay1()),
		Primary:             c(f.Mauve()),
		Secondary:           c(f.Blue()),
		Accent:              c(f.Peach()),
		Error:               c(f.Red()),
		Warning:             c(f.Yellow()),
		Success:             c(f.Green()),
		Info:                c(f.Sky()),
		Glamour:             glamour,
	}
}

// Lookup returns the theme for a flavour name, falling back to Mocha
func Lookup(name string) Theme {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "latte":
		return FromFlavor(catppuccin.Latte)
	case "frappe", "frappé":
		return FromFlavor(catppuccin.Frappe)
	case "macchiato":
		return FromFlavor(catppuccin.Macchiato)
	default:
		return FromFlavor(catppuccin.Mocha)
	}
}
