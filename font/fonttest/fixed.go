// Package fonttest provides deterministic fonts for layout and rendering
// tests.
package fonttest

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

// Fixed is a monospace font where every rune advances by Advance pixels and
// every line is Height pixels tall. Non-space glyphs draw as solid blocks
// sitting on the baseline.
type Fixed struct {
	Advance uint8
	Height  uint8

	g glyph
}

// New returns a Fixed font whose glyphs are advance pixels wide on a line of
// height pixels.
func New(advance, height uint8) *Fixed {
	return &Fixed{Advance: advance, Height: height}
}

type glyph struct {
	f *Fixed
	r rune
}

func (f *Fixed) GetYAdvance() uint8 { return f.Height }

func (f *Fixed) GetGlyph(r rune) tinyfont.Glypher {
	f.g = glyph{f: f, r: r}
	return &f.g
}

func (f *Fixed) ascent() int8 { return int8(f.Height * 3 / 4) }

func (g *glyph) Info() tinyfont.GlyphInfo {
	return tinyfont.GlyphInfo{
		Rune:     g.r,
		Width:    g.f.Advance,
		Height:   uint8(g.f.ascent()),
		XAdvance: g.f.Advance,
		XOffset:  0,
		YOffset:  -g.f.ascent(),
	}
}

func (g *glyph) Draw(display drivers.Displayer, x, y int16, c color.RGBA) {
	if g.r == ' ' {
		return
	}
	top := y - int16(g.f.ascent())
	for row := top; row < y; row++ {
		for col := x; col < x+int16(g.f.Advance)-1; col++ {
			display.SetPixel(col, row, c)
		}
	}
}
