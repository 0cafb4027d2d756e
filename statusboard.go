package main

import (
	"fmt"
	"image"
	"log/slog"
	"os"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/waveshare2in13v2"
	"periph.io/x/host/v3"

	"github.com/ardnew/statusboard/battery"
	"github.com/ardnew/statusboard/clock"
	"github.com/ardnew/statusboard/config"
	"github.com/ardnew/statusboard/display"
	"github.com/ardnew/statusboard/feed"
	"github.com/ardnew/statusboard/font"
	"github.com/ardnew/statusboard/indicator"
	"github.com/ardnew/statusboard/run"
	"github.com/ardnew/statusboard/system"
	"github.com/ardnew/statusboard/wifi"
	"github.com/ardnew/statusboard/wifi/network"
	"github.com/ardnew/statusboard/wifi/ntp"
)

func main() {
	cfg, err := config.Load(config.DefaultPath)
	if nil != err {
		halt(slog.Default(), err)
	}
	level, _ := cfg.LogLevel()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	// initialize the board's buses
	if _, err := host.Init(); nil != err {
		halt(log, err)
	}
	// initialize the e-paper display
	panel, err := openPanel(cfg.Hardware.SPI)
	if nil != err {
		halt(log, err)
	}
	width, height := cfg.Display.Width, cfg.Display.Height
	if width == 0 || height == 0 {
		width, height = landscape(panel.Bounds())
	}
	disp := display.New(display.NewFramebuffer(width, height, panel), display.Config{
		ShowBattery: cfg.Display.ShowBattery,
		MinRefresh:  cfg.Display.MinRefresh,
		Spacing:     cfg.Display.Spacing,
		Logger:      log,
	})
	// initialize the fuel gauge
	gauge, err := openGauge(cfg.Hardware.I2C, cfg.BatteryPack(), log)
	if nil != err {
		halt(log, err)
	}
	ladder, err := cfg.FontLadder()
	if nil != err {
		halt(log, err)
	}
	resolver, err := font.NewResolver(ladder, font.Config{
		Width:     width,
		Height:    height,
		Spacing:   cfg.Display.Spacing,
		CacheSize: cfg.Fonts.Cache,
		Logger:    log,
	})
	if nil != err {
		halt(log, err)
	}
	restarter, err := system.New(cfg.Restart.Mode)
	if nil != err {
		halt(log, err)
	}
	// initialize the network interface
	radio, err := wifi.NewNetworkManager()
	if nil != err {
		halt(log, err)
	}

	dev := &run.Device{
		Display:  disp,
		Resolver: resolver,
		Network:  wifi.New(radio, log),
		Dial: func(p network.Profile) run.Feed {
			t := feed.NewPaho(feed.PahoConfig{
				Broker:         cfg.Feed.Broker,
				ClientID:       cfg.Feed.ClientID,
				Username:       p.BrokerUsername,
				Password:       p.BrokerKey,
				ConnectTimeout: cfg.Feed.ConnectTimeout,
			})
			return feed.NewSession(t, p.BrokerUsername, cfg.Feed.Name, log)
		},
		Time: func(p network.Profile) run.TimeSource {
			return ntp.New(ntp.Config{
				Server:    cfg.NTP.Servers,
				TZOffset:  p.TZOffset,
				Timeout:   cfg.NTP.Timeout,
				LeapSmear: cfg.NTP.LeapSmear,
			}, log)
		},
		Gauge:     gauge,
		LED:       openLED(cfg.Hardware.LED, log),
		Restarter: restarter,
		Clock:     clock.Real{},
		Timing: run.Timing{
			Sleep:           cfg.Loop.Sleep,
			PollTimeout:     cfg.Loop.PollTimeout,
			BatteryInterval: cfg.Loop.BatteryInterval,
			Grace:           cfg.Restart.Grace,
			LowBattery:      cfg.Display.LowBattery,
		},
		Log: log,
	}

	// enter event loop
	loop, err := run.Boot(dev, cfg.NetworkProfiles())
	if nil == err {
		err = loop.Run()
	}
	// only reached when the restart itself failed
	halt(log, err)
}

func openPanel(name string) (*waveshare2in13v2.Dev, error) {
	port, err := spireg.Open(name)
	if nil != err {
		return nil, fmt.Errorf("spi: %w", err)
	}
	dev, err := waveshare2in13v2.NewHat(port, &waveshare2in13v2.EPD2in13v2)
	if nil != err {
		port.Close()
		return nil, fmt.Errorf("epd: %w", err)
	}
	if err := dev.Init(); nil != err {
		port.Close()
		return nil, fmt.Errorf("epd: %w", err)
	}
	return dev, nil
}

func openGauge(name string, pack battery.PackSize, log *slog.Logger) (*battery.LC709203F, error) {
	bus, err := i2creg.Open(name)
	if nil != err {
		return nil, fmt.Errorf("i2c: %w", err)
	}
	gauge, err := battery.NewLC709203F(bus, pack)
	if nil != err {
		bus.Close()
		return nil, err
	}
	if v, err := gauge.ICVersion(); nil == err {
		log.Info("battery:gauge", slog.String("ic_version", fmt.Sprintf("%#04x", v)))
	}
	return gauge, nil
}

// openLED returns nil, a valid no-op LED, unless all three lines exist.
func openLED(pins config.LEDConfig, log *slog.Logger) *indicator.LED {
	if pins.Red == "" || pins.Green == "" || pins.Blue == "" {
		return nil
	}
	r, g, b := gpioreg.ByName(pins.Red), gpioreg.ByName(pins.Green), gpioreg.ByName(pins.Blue)
	if r == nil || g == nil || b == nil {
		log.Warn("led:missing", slog.String("red", pins.Red), slog.String("green", pins.Green), slog.String("blue", pins.Blue))
		return nil
	}
	return indicator.New(r, g, b)
}

// landscape returns the panel size with the long side horizontal.
func landscape(b image.Rectangle) (width, height int) {
	if b.Dx() < b.Dy() {
		return b.Dy(), b.Dx()
	}
	return b.Dx(), b.Dy()
}

func halt(log *slog.Logger, err error) {
	log.Error("statusboard:halt", slog.Any("error", err))
	os.Exit(1)
}
