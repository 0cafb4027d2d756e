// Package run boots the appliance and drives its single event loop.
package run

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ardnew/statusboard/battery"
	"github.com/ardnew/statusboard/feed"
	"github.com/ardnew/statusboard/indicator"
	"github.com/ardnew/statusboard/model"
	"github.com/ardnew/statusboard/wifi/network"
)

// Loop is the appliance's only control loop.
type Loop struct {
	dev         *Device
	sup         *Supervisor
	log         *slog.Logger
	lastBattery time.Time
}

// NewLoop returns a loop over dev and sup. The battery region counts as
// refreshed at construction.
func NewLoop(dev *Device, sup *Supervisor) *Loop {
	return &Loop{
		dev:         dev,
		sup:         sup,
		log:         dev.logger(),
		lastBattery: dev.Clock.Now(),
	}
}

// Boot joins the network, sets the clock, and draws the first screen. Any
// failure goes through Fatal and is returned; the caller must not continue.
func Boot(dev *Device, profiles []network.Profile) (*Loop, error) {
	log := dev.logger()

	dev.led(indicator.Blue)
	p, err := dev.Network.Select(profiles)
	if nil != err {
		return nil, dev.Fatal(MsgScan, err)
	}
	log.Info("wifi:selected", slog.String("ssid", p.SSID))
	if err := dev.Network.Connect(p); nil != err {
		return nil, dev.Fatal(fmt.Sprintf(MsgJoin, p.SSID), err)
	}

	dev.led(indicator.Yellow)
	if dev.Time != nil {
		ts := dev.Time(p)
		if err := ts.Sync(); nil != err {
			return nil, dev.Fatal(MsgTime, err)
		}
		clk, err := ts.Clock()
		if nil != err {
			return nil, dev.Fatal(MsgTime, err)
		}
		dev.Clock = clk
	}
	log.Info("run:time", slog.Time("now", dev.Clock.Now()))

	if err := dev.Display.SetClock(dev.Clock.Now()); nil != err {
		return nil, dev.Fatal(MsgFeed, err)
	}
	reading, err := battery.Read(dev.Gauge, dev.Timing.LowBattery)
	if nil != err {
		return nil, dev.Fatal(MsgBattery, err)
	}
	if err := dev.Display.SetBattery(reading); nil != err {
		return nil, dev.Fatal(MsgBattery, err)
	}
	fit, err := dev.Resolver.Resolve(Placeholder, dev.Display.ClockHeight())
	if nil == err {
		err = dev.Display.SetStatus(fit)
	}
	if nil != err {
		return nil, dev.Fatal(MsgFeed, err)
	}

	dev.led(indicator.Green)
	dev.led(indicator.Off)
	return NewLoop(dev, NewSupervisor(dev.Network, dev.Dial, p, log)), nil
}

// Run repeats the loop until a step fails, then takes the restart path and
// returns. It never returns nil.
func (l *Loop) Run() error {
	for {
		if err := l.Step(); nil != err {
			return l.dev.Fatal(MsgFeed, err)
		}
		l.dev.Clock.Sleep(l.dev.Timing.Sleep)
	}
}

// Step performs one iteration: reconnect if needed, poll the feed, refresh
// the battery when due, and push any deferred screen refresh.
func (l *Loop) Step() error {
	session := l.sup.Session()
	if session.Status != model.StatusConnected {
		if err := l.sup.EnsureConnected(); nil != err {
			return err
		}
	}
	if err := l.sup.Poll(l.dev.Timing.PollTimeout, l.onMessage); nil != err {
		return err
	}
	if changed, data := session.Get(); changed {
		l.log.Debug("run:session", slog.String("status", data.Status.String()), slog.Time("updated", data.LastUpdate))
	}
	if now := l.dev.Clock.Now(); now.Sub(l.lastBattery) >= l.dev.Timing.BatteryInterval {
		if err := l.refreshBattery(); nil != err {
			return err
		}
		l.lastBattery = now
	}
	return l.dev.Display.Flush()
}

func (l *Loop) refreshBattery() error {
	reading, err := battery.Read(l.dev.Gauge, l.dev.Timing.LowBattery)
	if nil != err {
		return err
	}
	l.log.Debug("battery:reading", slog.Float64("percent", reading.Percent), slog.Bool("low", reading.Low))
	return l.dev.Display.SetBattery(reading)
}

// onMessage fits a new status, swaps it in, and stamps the clock.
func (l *Loop) onMessage(m feed.Message) error {
	l.log.Info("feed:message", slog.String("topic", m.Topic), slog.String("payload", m.Payload))
	fit, err := l.dev.Resolver.Resolve(m.Payload, l.dev.Display.ClockHeight())
	if nil != err {
		return err
	}
	if err := l.dev.Display.SetStatus(fit); nil != err {
		return err
	}
	now := l.dev.Clock.Now()
	if err := l.dev.Display.SetClock(now); nil != err {
		return err
	}
	l.sup.Session().Record(m.Payload, now)
	return nil
}
