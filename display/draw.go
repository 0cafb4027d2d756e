package display

import (
	"image/color"

	"tinygo.org/x/drivers"
)

func clipRect(d drivers.Displayer, x, y, w, h int16) (bool, int16, int16, int16, int16) {
	// normalize width/height to be positive
	if w < 0 {
		x, w = x+w, -w
	}
	if h < 0 {
		y, h = y+h, -h
	}
	// ensure origin is within bounds
	sx, sy := d.Size()
	if x < 0 {
		x, w = 0, w+x
	} else if x >= sx {
		return false, 0, 0, 0, 0
	}
	if y < 0 {
		y, h = 0, h+y
	} else if y >= sy {
		return false, 0, 0, 0, 0
	}
	// ensure rect bounds is within screen bounds
	if x+w >= sx {
		w = sx - x
	}
	if y+h >= sy {
		h = sy - y
	}
	return w > 0 && h > 0, x, y, w, h
}

func fillRect(d drivers.Displayer, x, y, w, h int16, c color.RGBA) {
	var ok bool
	if ok, x, y, w, h = clipRect(d, x, y, w, h); ok {
		for row := y; row < y+h; row++ {
			for col := x; col < x+w; col++ {
				d.SetPixel(col, row, c)
			}
		}
	}
}
