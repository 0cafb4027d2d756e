package display

import (
	"image"
	"image/color"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Panel is a physical monochrome display that accepts whole frames, such as
// a periph.io Waveshare e-paper HAT.
type Panel interface {
	Draw(dstRect image.Rectangle, src image.Image, srcPts image.Point) error
	Bounds() image.Rectangle
}

// Framebuffer is a landscape 1-bit canvas implementing drivers.Displayer.
// Display pushes the canvas to the panel, rotating it a quarter turn when the
// panel is mounted in portrait.
type Framebuffer struct {
	canvas *image1bit.VerticalLSB
	panel  Panel
}

// NewFramebuffer returns a white width×height canvas flushed to panel. A nil
// panel discards flushes.
func NewFramebuffer(width, height int, panel Panel) *Framebuffer {
	canvas := image1bit.NewVerticalLSB(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			canvas.Set(x, y, image1bit.On)
		}
	}
	return &Framebuffer{canvas: canvas, panel: panel}
}

func (f *Framebuffer) Size() (x, y int16) {
	b := f.canvas.Bounds()
	return int16(b.Dx()), int16(b.Dy())
}

// SetPixel thresholds c by luminance: light colors leave the pixel white,
// anything darker (including red) inks it.
func (f *Framebuffer) SetPixel(x, y int16, c color.RGBA) {
	if !image.Pt(int(x), int(y)).In(f.canvas.Bounds()) {
		return // overflowing text is clipped
	}
	bit := image1bit.Off
	if color.GrayModel.Convert(c).(color.Gray).Y >= 0x80 {
		bit = image1bit.On
	}
	f.canvas.Set(int(x), int(y), bit)
}

// Display sends the canvas to the panel.
func (f *Framebuffer) Display() error {
	if f.panel == nil {
		return nil
	}
	dst := f.panel.Bounds()
	src := f.canvas.Bounds()
	if dst.Dx() == src.Dy() && dst.Dy() == src.Dx() && dst.Dx() != dst.Dy() {
		return f.panel.Draw(dst, portrait(f.canvas, dst), image.Point{})
	}
	return f.panel.Draw(dst, f.canvas, image.Point{})
}

// Inked reports whether the pixel at (x, y) is dark.
func (f *Framebuffer) Inked(x, y int) bool {
	return f.canvas.At(x, y) == image1bit.Off
}

// portrait rotates a landscape canvas 90° clockwise into r.
func portrait(src *image1bit.VerticalLSB, r image.Rectangle) *image1bit.VerticalLSB {
	dst := image1bit.NewVerticalLSB(r)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.Set(r.Min.X+y, r.Min.Y+w-1-x, src.At(x, y))
		}
	}
	return dst
}
