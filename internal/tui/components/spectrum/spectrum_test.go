package spectrum

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/entrepeneur4lyf/mediaforge/internal/audio"
	"github.com/entrepeneur4lyf/mediaforge/internal/tui/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatFrameDrawsBackground(t *testing.T) {
	m := New(theme.Lookup("mocha"))
	m.SetSize(20, 3)
	m.SetFrame(audio.Frame{})

	rows := strings.Split(m.View(), "\n")
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Equal(t, strings.Repeat(" ", 20), ansi.Strip(r))
	}
}

func TestLoudFrameFillsBottomRow(t *testing.T) {
	m := New(theme.Lookup("mocha"))
	m.SetSize(16, 4)
	bins := make([]byte, 32)
	for i := range bins {
		bins[i] = 255
	}
	m.SetFrame(audio.Frame{Bins: bins})

	rows := strings.Split(m.View(), "\n")
	require.Len(t, rows, 4)
	assert.Contains(t, ansi.Strip(rows[3]), "█")
	for _, r := range rows {
		assert.Equal(t, 16, ansi.StringWidth(r))
	}
}

func TestCell(t *testing.T) {
	assert.Equal(t, '█', cell(3, 1))
	assert.Equal(t, ' ', cell(1, 2))
	assert.Equal(t, '▄', cell(2.5, 2))
}

func TestZeroSize(t *testing.T) {
	m := New(theme.Lookup("mocha"))
	assert.Empty(t, m.View())
}
