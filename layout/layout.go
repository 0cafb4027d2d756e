// Package layout wraps and measures text against bitmap font metrics.
//
// Every function here is pure: the same text, width, and font always yield
// the same lines and dimensions.
package layout

import (
	"math"
	"strings"

	"tinygo.org/x/tinyfont"
)

// DefaultSpacing is the line spacing multiplier used by the display.
const DefaultSpacing = 1.0

// LineWidth returns the advance width of s in pixels.
func LineWidth(f tinyfont.Fonter, s string) int {
	if s == "" {
		return 0 // tinyfont indexes the first rune
	}
	_, outbox := tinyfont.LineWidth(f, s)
	return int(outbox)
}

// LineHeight returns the pixel distance between consecutive baselines.
func LineHeight(f tinyfont.Fonter, spacing float64) int {
	return int(math.Round(float64(f.GetYAdvance()) * spacing))
}

// Wrap greedily breaks text into lines no wider than maxWidth pixels.
//
// Breaks happen only at whitespace; a newline always breaks. A word wider
// than maxWidth is kept whole on its own line. Empty text yields one empty
// line.
func Wrap(text string, maxWidth int, f tinyfont.Fonter) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, word := range words[1:] {
			if next := line + " " + word; LineWidth(f, next) <= maxWidth {
				line = next
				continue
			}
			lines = append(lines, line)
			line = word
		}
		lines = append(lines, line)
	}
	return lines
}

// Measure returns the bounding box of lines: the widest line's width, and
// the line count times the spaced line height.
func Measure(lines []string, f tinyfont.Fonter, spacing float64) (width, height int) {
	for _, line := range lines {
		if w := LineWidth(f, line); w > width {
			width = w
		}
	}
	return width, len(lines) * LineHeight(f, spacing)
}
