package font

import (
	"image/color"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

// FromFace adapts a golang.org/x/image font face (BDF faces, basicfont) to
// tinyfont so it can be measured and drawn like a compiled-in font.
func FromFace(face xfont.Face) tinyfont.Fonter {
	return &faceFonter{
		face:     face,
		yAdvance: clamp8(face.Metrics().Height.Ceil()),
	}
}

type faceFonter struct {
	face     xfont.Face
	yAdvance uint8
}

type faceGlyph struct {
	f *faceFonter
	r rune
}

func (f *faceFonter) GetYAdvance() uint8 { return f.yAdvance }

func (f *faceFonter) GetGlyph(r rune) tinyfont.Glypher {
	if _, _, ok := f.face.GlyphBounds(r); !ok {
		r = '?'
	}
	return &faceGlyph{f: f, r: r}
}

func (g *faceGlyph) Info() tinyfont.GlyphInfo {
	bounds, advance, _ := g.f.face.GlyphBounds(g.r)
	return tinyfont.GlyphInfo{
		Rune:     g.r,
		Width:    clamp8((bounds.Max.X - bounds.Min.X).Ceil()),
		Height:   clamp8((bounds.Max.Y - bounds.Min.Y).Ceil()),
		XAdvance: clamp8(advance.Round()),
		XOffset:  int8(bounds.Min.X.Floor()),
		YOffset:  int8(bounds.Min.Y.Floor()),
	}
}

// Draw plots every sufficiently opaque mask pixel with the pen at (x, y) on
// the baseline.
func (g *faceGlyph) Draw(display drivers.Displayer, x, y int16, c color.RGBA) {
	dr, mask, mp, _, ok := g.f.face.Glyph(fixed.P(int(x), int(y)), g.r)
	if !ok {
		return
	}
	for py := dr.Min.Y; py < dr.Max.Y; py++ {
		for px := dr.Min.X; px < dr.Max.X; px++ {
			_, _, _, a := mask.At(mp.X+px-dr.Min.X, mp.Y+py-dr.Min.Y).RGBA()
			if a >= 0x8000 {
				display.SetPixel(int16(px), int16(py), c)
			}
		}
	}
}

func clamp8(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 0xFF:
		return 0xFF
	}
	return uint8(v)
}
