package display

import (
	"image"
	"image/color"
	"strings"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"

	"github.com/ardnew/statusboard/layout"
)

// Region is one independently redrawn block of text. Position is the point
// on screen that Anchor, a fraction of Box, is pinned to.
type Region struct {
	Lines    []string
	Font     tinyfont.Fonter
	Color    color.RGBA
	Anchor   [2]float64
	Position image.Point
	Box      image.Point
}

// Text returns the region's lines joined by newlines.
func (r Region) Text() string { return strings.Join(r.Lines, "\n") }

// Origin returns the top-left corner of the region's bounding box.
func (r Region) Origin() image.Point {
	return image.Pt(
		r.Position.X-int(r.Anchor[0]*float64(r.Box.X)),
		r.Position.Y-int(r.Anchor[1]*float64(r.Box.Y)),
	)
}

// Bounds returns the region's bounding box on screen.
func (r Region) Bounds() image.Rectangle {
	o := r.Origin()
	return image.Rectangle{Min: o, Max: o.Add(r.Box)}
}

func (r Region) draw(d drivers.Displayer, spacing float64) {
	if r.Font == nil {
		return
	}
	o := r.Origin()
	step, asc := layout.LineHeight(r.Font, spacing), ascent(r.Font)
	for i, line := range r.Lines {
		if line == "" {
			continue
		}
		tinyfont.WriteLine(d, r.Font, int16(o.X), int16(o.Y+i*step+asc), line, r.Color)
	}
}

const ascentProbe = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// ascent is the tallest probe glyph's rise above the baseline, which places
// the first baseline so glyph tops meet the region's top edge.
func ascent(f tinyfont.Fonter) int {
	asc := 0
	for _, r := range ascentProbe {
		if rise := -int(f.GetGlyph(r).Info().YOffset); rise > asc {
			asc = rise
		}
	}
	if adv := int(f.GetYAdvance()); asc == 0 || asc > adv {
		asc = adv * 3 / 4
	}
	return asc
}
