package layout

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceOverlayCenter(t *testing.T) {
	bg := strings.TrimSuffix(strings.Repeat(strings.Repeat(".", 10)+"\n", 5), "\n")
	out := PlaceOverlay(10, 5, "ab\ncd", bg, Center)

	rows := strings.Split(out, "\n")
	require.Len(t, rows, 5)
	assert.Equal(t, "..........", rows[0])
	assert.Equal(t, "....ab....", rows[1])
	assert.Equal(t, "....cd....", rows[2])
	assert.Equal(t, "..........", rows[4])
}

func TestPlaceOverlayBottomPadsShortBackground(t *testing.T) {
	out := PlaceOverlay(6, 3, "xx", "..", Bottom)
	rows := strings.Split(out, "\n")
	require.Len(t, rows, 3)
	assert.Equal(t, "  xx  ", ansi.Strip(rows[2]))
	assert.Equal(t, "..", rows[0])
}
