// Package display composes the clock, battery, and status regions onto the
// appliance's screen.
package display

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"time"

	"golang.org/x/image/font/basicfont"
	"golang.org/x/time/rate"
	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"

	"github.com/ardnew/statusboard/battery"
	"github.com/ardnew/statusboard/font"
	"github.com/ardnew/statusboard/layout"
)

// Colors used on screen.
var (
	Background = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	Foreground = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xFF}
	ErrorColor = color.RGBA{R: 0xFF, G: 0x00, B: 0x00, A: 0xFF}
)

// RebootSuffix is appended to every diagnostic message.
const RebootSuffix = "Rebooting..."

// DefaultErrorScale magnifies the label font on the diagnostic screen.
const DefaultErrorScale = 2

// Config controls what the Composer draws and how often it refreshes.
type Config struct {
	// ShowBattery displays the charge percentage; the low-battery warning
	// is shown regardless.
	ShowBattery bool
	// MinRefresh is the minimum time between panel refreshes. Zero refreshes
	// on every change.
	MinRefresh time.Duration
	Spacing    float64
	// LabelFont draws the clock and battery regions. Defaults to a 7x13
	// fixed font.
	LabelFont  tinyfont.Fonter
	ErrorScale int
	Logger     *slog.Logger
}

// Composer owns the draw surface and the three regions on it. Updates build
// the replacement region completely before swapping it in and redrawing, so
// only one status is ever live.
type Composer struct {
	surface drivers.Displayer
	width   int
	height  int
	config  Config
	errFont tinyfont.Fonter

	clock   Region
	battery Region
	status  Region

	limiter *rate.Limiter
	dirty   bool
	halted  bool
	log     *slog.Logger
}

// New returns a Composer drawing on surface. The clock and battery regions
// start empty but sized, so ClockHeight is valid immediately.
func New(surface drivers.Displayer, config Config) *Composer {
	if config.LabelFont == nil {
		config.LabelFont = font.FromFace(basicfont.Face7x13)
	}
	if config.ErrorScale <= 0 {
		config.ErrorScale = DefaultErrorScale
	}
	if config.Spacing <= 0 {
		config.Spacing = layout.DefaultSpacing
	}
	limit := rate.Inf
	if config.MinRefresh > 0 {
		limit = rate.Every(config.MinRefresh)
	}
	w, h := surface.Size()
	c := &Composer{
		surface: surface,
		width:   int(w),
		height:  int(h),
		config:  config,
		errFont: font.Scaled(config.LabelFont, config.ErrorScale),
		limiter: rate.NewLimiter(limit, 1),
		log:     config.Logger,
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	c.clock = c.label("", [2]float64{0.5, 1.0}, image.Pt(c.width/2, c.height))
	c.battery = c.label("", [2]float64{0, 0}, image.Pt(0, 0))
	return c
}

// Size returns the surface dimensions in pixels.
func (c *Composer) Size() (width, height int) { return c.width, c.height }

// ClockHeight returns the height of the clock region along the bottom edge.
func (c *Composer) ClockHeight() int { return c.clock.Box.Y }

// Clock returns the clock region.
func (c *Composer) Clock() Region { return c.clock }

// Battery returns the battery region.
func (c *Composer) Battery() Region { return c.battery }

// Status returns the status region.
func (c *Composer) Status() Region { return c.status }

// Halted reports whether the diagnostic screen has been shown.
func (c *Composer) Halted() bool { return c.halted }

// SetStatus replaces the status region with fit, centred horizontally and
// vertically within the area above the clock.
func (c *Composer) SetStatus(fit font.Fit) error {
	if c.halted {
		return nil
	}
	next := Region{
		Lines:    fit.Lines,
		Font:     fit.Font,
		Color:    Foreground,
		Anchor:   [2]float64{0.5, 0.5},
		Position: image.Pt(c.width/2, (c.height-c.ClockHeight())/2),
		Box:      image.Pt(fit.Width, fit.Height),
	}
	c.status = next
	return c.redraw()
}

// SetClock shows t in the clock region.
func (c *Composer) SetClock(t time.Time) error {
	if c.halted {
		return nil
	}
	c.clock = c.label(ClockText(t), c.clock.Anchor, c.clock.Position)
	return c.redraw()
}

// SetBattery shows r in the battery region.
func (c *Composer) SetBattery(r battery.Reading) error {
	if c.halted {
		return nil
	}
	c.battery = c.label(BatteryText(r, c.config.ShowBattery), c.battery.Anchor, c.battery.Position)
	return c.redraw()
}

// ShowError replaces the whole screen with msg and the reboot notice in
// large red text. No further updates are drawn afterwards.
func (c *Composer) ShowError(msg string) error {
	c.halted = true
	lines := layout.Wrap(msg+"\n"+RebootSuffix, c.width, c.errFont)
	w, h := layout.Measure(lines, c.errFont, c.config.Spacing)
	screen := Region{
		Lines: lines,
		Font:  c.errFont,
		Color: ErrorColor,
		Box:   image.Pt(w, h),
	}
	fillRect(c.surface, 0, 0, int16(c.width), int16(c.height), Background)
	screen.draw(c.surface, c.config.Spacing)
	c.dirty = false
	if err := c.surface.Display(); nil != err {
		return fmt.Errorf("display: %w", err)
	}
	return nil
}

// Flush pushes a refresh that was deferred by the refresh limit, once the
// limit allows it.
func (c *Composer) Flush() error {
	if !c.dirty || c.halted || !c.limiter.Allow() {
		return nil
	}
	return c.display()
}

// Pending reports whether a deferred refresh is waiting for Flush.
func (c *Composer) Pending() bool { return c.dirty }

func (c *Composer) label(text string, anchor [2]float64, pos image.Point) Region {
	lines := []string{text}
	w, h := layout.Measure(lines, c.config.LabelFont, c.config.Spacing)
	return Region{
		Lines:    lines,
		Font:     c.config.LabelFont,
		Color:    Foreground,
		Anchor:   anchor,
		Position: pos,
		Box:      image.Pt(w, h),
	}
}

// redraw repaints every region from a blank screen so no stale pixels from
// a previous status survive.
func (c *Composer) redraw() error {
	fillRect(c.surface, 0, 0, int16(c.width), int16(c.height), Background)
	c.battery.draw(c.surface, c.config.Spacing)
	c.clock.draw(c.surface, c.config.Spacing)
	c.status.draw(c.surface, c.config.Spacing)
	if !c.limiter.Allow() {
		c.dirty = true
		c.log.Debug("display:deferred")
		return nil
	}
	return c.display()
}

func (c *Composer) display() error {
	c.dirty = false
	if err := c.surface.Display(); nil != err {
		return fmt.Errorf("display: %w", err)
	}
	return nil
}
