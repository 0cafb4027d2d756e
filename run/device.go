package run

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ardnew/statusboard/battery"
	"github.com/ardnew/statusboard/clock"
	"github.com/ardnew/statusboard/feed"
	"github.com/ardnew/statusboard/font"
	"github.com/ardnew/statusboard/indicator"
	"github.com/ardnew/statusboard/system"
	"github.com/ardnew/statusboard/wifi/network"
)

// Diagnostic messages shown before a restart.
const (
	MsgScan    = "Error scanning for wifi networks"
	MsgJoin    = "Can't connect to Wifi %s"
	MsgTime    = "Failed to set time from NTP"
	MsgBattery = "Failed to read battery"
	MsgFeed    = "Failed to get data from Adafruit IO"
)

// Placeholder is the status shown until the feed delivers its first value.
const Placeholder = "Connecting..."

// Display is the screen the loop draws on.
type Display interface {
	ClockHeight() int
	SetStatus(fit font.Fit) error
	SetClock(t time.Time) error
	SetBattery(r battery.Reading) error
	ShowError(msg string) error
	Flush() error
}

// Resolver fits status text to the area above the clock.
type Resolver interface {
	Resolve(text string, timeHeight int) (font.Fit, error)
}

// Network joins and reports on the Wi-Fi link.
type Network interface {
	Select(profiles []network.Profile) (network.Profile, error)
	Connect(p network.Profile) error
	Online() bool
}

// Feed is one broker session on the status feed.
type Feed interface {
	Open() error
	Poll(timeout time.Duration, handle func(feed.Message) error) error
	Close()
}

// Dialer builds the feed session for the joined profile.
type Dialer func(p network.Profile) Feed

// TimeSource sets the wall clock once at boot.
type TimeSource interface {
	Sync() error
	Clock() (clock.Clock, error)
}

// TimeFor returns the time source for the joined profile, whose time zone it
// reports in.
type TimeFor func(p network.Profile) TimeSource

// Indicator is the status LED.
type Indicator interface {
	Set(c indicator.Color) error
}

// Timing holds the loop's fixed intervals.
type Timing struct {
	Sleep           time.Duration
	PollTimeout     time.Duration
	BatteryInterval time.Duration
	Grace           time.Duration
	LowBattery      float64 // percent
}

// Device gathers the appliance's collaborators. Every field but Time is
// required; Clock is replaced by the synchronized clock during Boot.
type Device struct {
	Display   Display
	Resolver  Resolver
	Network   Network
	Dial      Dialer
	Time      TimeFor
	Gauge     battery.Gauge
	LED       Indicator
	Restarter system.Restarter
	Clock     clock.Clock
	Timing    Timing
	Log       *slog.Logger
}

func (d *Device) logger() *slog.Logger {
	if d.Log == nil {
		return slog.Default()
	}
	return d.Log
}

func (d *Device) led(c indicator.Color) {
	if d.LED == nil {
		return
	}
	if err := d.LED.Set(c); nil != err {
		d.logger().Warn("led:set", slog.String("color", c.String()), slog.Any("error", err))
	}
}

// Fatal is the single recovery path: it shows msg, waits the grace period,
// and restarts the appliance. The cause is returned so the caller can stop;
// if the restart itself fails its error is joined to the cause.
func (d *Device) Fatal(msg string, cause error) error {
	log := d.logger()
	log.Error("run:fatal", slog.String("message", msg), slog.Any("error", cause))
	d.led(indicator.Red)
	if err := d.Display.ShowError(msg); nil != err {
		log.Error("display:error_screen", slog.Any("error", err))
	}
	d.Clock.Sleep(d.Timing.Grace)
	log.Info("run:restart")
	if err := d.Restarter.Restart(); nil != err {
		return fmt.Errorf("%w (restart failed: %v)", cause, err)
	}
	return cause
}
