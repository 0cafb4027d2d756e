package font

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

// Scaled magnifies f by an integer factor, drawing each source pixel as an
// n×n block.
func Scaled(f tinyfont.Fonter, n int) tinyfont.Fonter {
	if n <= 1 {
		return f
	}
	return &scaledFonter{base: f, n: n}
}

type scaledFonter struct {
	base tinyfont.Fonter
	n    int
}

type scaledGlyph struct {
	base tinyfont.Glypher
	n    int
}

// blockDisplay forwards SetPixel as an n×n block relative to an origin.
type blockDisplay struct {
	drivers.Displayer
	ox, oy int16
	n      int16
}

func (f *scaledFonter) GetYAdvance() uint8 {
	return clamp8(int(f.base.GetYAdvance()) * f.n)
}

func (f *scaledFonter) GetGlyph(r rune) tinyfont.Glypher {
	return &scaledGlyph{base: f.base.GetGlyph(r), n: f.n}
}

func (g *scaledGlyph) Info() tinyfont.GlyphInfo {
	info := g.base.Info()
	info.Width = clamp8(int(info.Width) * g.n)
	info.Height = clamp8(int(info.Height) * g.n)
	info.XAdvance = clamp8(int(info.XAdvance) * g.n)
	info.XOffset *= int8(g.n)
	info.YOffset *= int8(g.n)
	return info
}

func (g *scaledGlyph) Draw(display drivers.Displayer, x, y int16, c color.RGBA) {
	g.base.Draw(&blockDisplay{Displayer: display, ox: x, oy: y, n: int16(g.n)}, 0, 0, c)
}

func (b *blockDisplay) SetPixel(x, y int16, c color.RGBA) {
	for dy := int16(0); dy < b.n; dy++ {
		for dx := int16(0); dx < b.n; dx++ {
			b.Displayer.SetPixel(b.ox+x*b.n+dx, b.oy+y*b.n+dy, c)
		}
	}
}
