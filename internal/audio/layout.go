package audio

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

var (
	quietColor = colorful.Color{R: 0.118, G: 0.4, B: 0.961}  // #1e66f5
	loudColor  = colorful.Color{R: 0.953, G: 0.545, B: 0.659} // #f38ba8
)

// Bar is one vertical bar of the spectrum, in canvas units
type Bar struct {
	X      float64
	Width  float64
	Height float64
	Level  float64
	Color  colorful.Color
}

// Layout turns a frame into one bar per bin on a width x height canvas
func Layout(f Frame, width, height int) []Bar {
	if f.Flat() || width <= 0 || height <= 0 {
		return nil
	}
	barWidth := float64(width) / float64(len(f.Bins))
	bars := make([]Bar, len(f.Bins))
	for i, v := range f.Bins {
		level := float64(v) / 255
		bars[i] = Bar{
			X:      float64(i) * barWidth,
			Width:  barWidth,
			Height: level * float64(height),
			Level:  level,
			Color:  Shade(level),
		}
	}
	return bars
}

// Shade interpolates the bar colour for a level in [0, 1]
func Shade(level float64) colorful.Color {
	level = math.Max(0, math.Min(1, level))
	return quietColor.BlendHcl(loudColor, level).Clamped()
}

// Column is a bar rasterised onto a character grid
type Column struct {
	Height float64
	Color  colorful.Color
}

// Columns rasterises a frame onto cols character cells, each cell taking the
// tallest bar that overlaps it. Heights are in rows.
func Columns(f Frame, cols, rows int) []Column {
	bars := Layout(f, cols, rows)
	out := make([]Column, cols)
	for _, b := range bars {
		start := int(math.Floor(b.X))
		end := int(math.Ceil(b.X+b.Width)) - 1
		if end < start {
			end = start
		}
		for c := start; c <= end && c < cols; c++ {
			if b.Height >= out[c].Height {
				out[c] = Column{Height: b.Height, Color: b.Color}
			}
		}
	}
	return out
}
