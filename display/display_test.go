package display

import (
	"errors"
	"image"
	"io"
	"log/slog"
	"testing"
	"time"

	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/ardnew/statusboard/battery"
	"github.com/ardnew/statusboard/font"
	"github.com/ardnew/statusboard/font/fonttest"
	"github.com/ardnew/statusboard/layout"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type countingSurface struct {
	*Framebuffer
	displays int
	err      error
}

func (s *countingSurface) Display() error {
	s.displays++
	if nil != s.err {
		return s.err
	}
	return s.Framebuffer.Display()
}

func newComposer(t *testing.T, config Config) (*Composer, *countingSurface) {
	t.Helper()
	surface := &countingSurface{Framebuffer: NewFramebuffer(296, 128, nil)}
	config.LabelFont = fonttest.New(6, 16)
	config.Logger = quiet
	return New(surface, config), surface
}

func fitOf(text string, advance, height uint8) font.Fit {
	f := fonttest.New(advance, height)
	lines := []string{text}
	w, h := layout.Measure(lines, f, layout.DefaultSpacing)
	return font.Fit{Font: f, Lines: lines, Width: w, Height: h, Fits: true}
}

func TestBatteryText(t *testing.T) {
	tests := []struct {
		percent float64
		show    bool
		want    string
	}{
		{5, false, " Battery Low"},
		{5, true, "5.0 % Battery Low"},
		{73.4, true, "73.4 %"},
		{73.4, false, ""},
		{10, false, ""},
	}
	for _, tt := range tests {
		r := battery.NewReading(tt.percent, battery.LowThreshold)
		if got := BatteryText(r, tt.show); got != tt.want {
			t.Errorf("BatteryText(%v, %v): expected %q, got %q", tt.percent, tt.show, tt.want, got)
		}
	}
}

func TestClockText(t *testing.T) {
	at := time.Date(2024, 5, 1, 14, 3, 9, 0, time.UTC)
	if got, want := ClockText(at), "05/01/2024 02:03:09 PM"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestComposerLayout(t *testing.T) {
	c, _ := newComposer(t, Config{})

	if c.ClockHeight() != 16 {
		t.Fatalf("expected clock height 16, got %d", c.ClockHeight())
	}
	at := time.Date(2024, 5, 1, 14, 3, 9, 0, time.UTC)
	if err := c.SetClock(at); nil != err {
		t.Fatalf("SetClock failed: %v", err)
	}
	clock := c.Clock()
	if clock.Text() != ClockText(at) {
		t.Errorf("unexpected clock text %q", clock.Text())
	}
	if b := clock.Bounds(); b.Max.Y != 128 || b.Min.X+b.Max.X != 296 {
		t.Errorf("clock not bottom-centred: %v", b)
	}

	if err := c.SetBattery(battery.NewReading(5, battery.LowThreshold)); nil != err {
		t.Fatalf("SetBattery failed: %v", err)
	}
	if b := c.Battery().Bounds(); b.Min != (image.Point{}) {
		t.Errorf("battery not anchored top-left: %v", b)
	}
	if c.Battery().Text() != " Battery Low" {
		t.Errorf("unexpected battery text %q", c.Battery().Text())
	}

	if err := c.SetStatus(fitOf("AAAAAAAAAA", 10, 20)); nil != err {
		t.Fatalf("SetStatus failed: %v", err)
	}
	want := image.Rect(98, 46, 198, 66)
	if got := c.Status().Bounds(); got != want {
		t.Errorf("status bounds: expected %v, got %v", want, got)
	}
}

func TestComposerSwapsStatus(t *testing.T) {
	c, surface := newComposer(t, Config{})

	if err := c.SetStatus(fitOf("AAAAAAAAAA", 10, 20)); nil != err {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if !surface.Inked(100, 50) {
		t.Fatal("expected first status to be drawn")
	}

	if err := c.SetStatus(fitOf("A", 10, 20)); nil != err {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if surface.Inked(100, 50) {
		t.Error("previous status left stale pixels")
	}
	if !surface.Inked(145, 50) {
		t.Error("expected new status to be drawn")
	}
	if c.Status().Text() != "A" {
		t.Errorf("unexpected status %q", c.Status().Text())
	}
	if surface.displays != 2 {
		t.Errorf("expected 2 refreshes, got %d", surface.displays)
	}
}

func TestComposerRefreshLimit(t *testing.T) {
	c, surface := newComposer(t, Config{MinRefresh: time.Hour})

	if err := c.SetStatus(fitOf("A", 10, 20)); nil != err {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if err := c.SetClock(time.Now()); nil != err {
		t.Fatalf("SetClock failed: %v", err)
	}
	if surface.displays != 1 {
		t.Errorf("expected 1 refresh, got %d", surface.displays)
	}
	if !c.Pending() {
		t.Error("expected a deferred refresh")
	}
	if err := c.Flush(); nil != err {
		t.Fatalf("Flush failed: %v", err)
	}
	if surface.displays != 1 || !c.Pending() {
		t.Error("Flush refreshed before the limit allowed it")
	}
}

func TestComposerShowError(t *testing.T) {
	c, surface := newComposer(t, Config{MinRefresh: time.Hour})

	if err := c.SetStatus(fitOf("AAAAAAAAAA", 10, 20)); nil != err {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if !surface.Inked(190, 50) {
		t.Fatal("expected status to be drawn")
	}
	if err := c.ShowError("Boom"); nil != err {
		t.Fatalf("ShowError failed: %v", err)
	}
	if surface.displays != 2 {
		t.Errorf("error screen must bypass the refresh limit, got %d refreshes", surface.displays)
	}
	if !c.Halted() {
		t.Error("expected composer to halt")
	}
	if !surface.Inked(2, 2) {
		t.Error("expected error text at the top-left")
	}
	if surface.Inked(190, 50) {
		t.Error("error screen must replace the status region")
	}

	if err := c.SetStatus(fitOf("A", 10, 20)); nil != err {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if surface.displays != 2 {
		t.Error("composer drew after the error screen")
	}
}

func TestComposerDisplayError(t *testing.T) {
	c, surface := newComposer(t, Config{})
	surface.err = errors.New("busy")
	if err := c.SetClock(time.Now()); !errors.Is(err, surface.err) {
		t.Errorf("expected display error, got %v", err)
	}
}

type capturePanel struct {
	bounds image.Rectangle
	frame  image.Image
}

func (p *capturePanel) Bounds() image.Rectangle { return p.bounds }

func (p *capturePanel) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	p.frame = src
	return nil
}

func TestFramebufferPortraitPanel(t *testing.T) {
	panel := &capturePanel{bounds: image.Rect(0, 0, 122, 250)}
	fb := NewFramebuffer(250, 122, panel)
	fb.SetPixel(0, 0, Foreground)
	fb.SetPixel(300, 300, Foreground) // clipped

	if err := fb.Display(); nil != err {
		t.Fatalf("Display failed: %v", err)
	}
	if got := panel.frame.Bounds(); got != panel.bounds {
		t.Fatalf("expected frame %v, got %v", panel.bounds, got)
	}
	if panel.frame.At(0, 249) != image1bit.Off {
		t.Error("expected landscape origin at portrait bottom-left")
	}
	if panel.frame.At(0, 0) != image1bit.On {
		t.Error("expected untouched pixels to stay white")
	}
}

func TestFramebufferThreshold(t *testing.T) {
	fb := NewFramebuffer(4, 4, nil)
	fb.SetPixel(0, 0, ErrorColor)
	fb.SetPixel(1, 0, Background)
	if !fb.Inked(0, 0) {
		t.Error("red must ink a monochrome panel")
	}
	if fb.Inked(1, 0) {
		t.Error("background must stay white")
	}
}
