// Package indicator drives the RGB status LED.
package indicator

import "periph.io/x/conn/v3/gpio"

// Color is one of the LED states used during boot and on failure.
type Color uint8

const (
	Off Color = iota
	Red
	Green
	Blue
	Yellow
)

var names = [...]string{"off", "red", "green", "blue", "yellow"}

func (c Color) String() string {
	if int(c) < len(names) {
		return names[c]
	}
	return "unknown"
}

func (c Color) channels() (r, g, b gpio.Level) {
	switch c {
	case Red:
		return gpio.High, gpio.Low, gpio.Low
	case Green:
		return gpio.Low, gpio.High, gpio.Low
	case Blue:
		return gpio.Low, gpio.Low, gpio.High
	case Yellow:
		return gpio.High, gpio.High, gpio.Low
	}
	return gpio.Low, gpio.Low, gpio.Low
}

// LED is a common-cathode RGB LED on three GPIO lines. A nil *LED ignores
// every call, for boards without one.
type LED struct {
	r, g, b gpio.PinOut
}

// New returns an LED on the given pins, or nil if any pin is missing.
func New(r, g, b gpio.PinOut) *LED {
	if r == nil || g == nil || b == nil {
		return nil
	}
	return &LED{r: r, g: g, b: b}
}

// Set lights the LED in c.
func (l *LED) Set(c Color) error {
	if l == nil {
		return nil
	}
	r, g, b := c.channels()
	if err := l.r.Out(r); nil != err {
		return err
	}
	if err := l.g.Out(g); nil != err {
		return err
	}
	return l.b.Out(b)
}
