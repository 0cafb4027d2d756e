package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ardnew/statusboard/battery"
	"github.com/ardnew/statusboard/font"
)

const sample = `
profiles:
  - ssid: office
    identity: anon
    username: jdoe
    password: pw
    broker_username: aio-user
    broker_key: aio-key
    timezone_offset: -5
  - ssid: home
    password: secret
    broker_username: aio-user
    broker_key: aio-key
    timezone_offset: -4
display:
  show_battery: true
  min_refresh: 0s
loop:
  sleep: 2s
fonts:
  dir: /fonts
  cache: 3
  ladder:
    - {file: FreeSans-96.bdf, size: 96}
    - {file: FreeSans-48.bdf, size: 48}
restart:
  mode: exec
log:
  level: debug
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "statusboard.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); nil != err {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	if nil != err {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Profiles) != 2 || cfg.Profiles[1].SSID != "home" {
		t.Fatalf("profiles = %+v", cfg.Profiles)
	}
	if !cfg.Display.ShowBattery || cfg.Display.MinRefresh != 0 {
		t.Errorf("display = %+v", cfg.Display)
	}
	// unset values keep their defaults
	if cfg.Loop.Sleep != 2*time.Second || cfg.Loop.BatteryInterval != time.Minute {
		t.Errorf("loop = %+v", cfg.Loop)
	}
	if cfg.Feed.Name != "status" || cfg.Display.LowBattery != battery.LowThreshold {
		t.Errorf("defaults lost: feed %+v, display %+v", cfg.Feed, cfg.Display)
	}
	if cfg.Restart.Mode != "exec" || cfg.Restart.Grace != 5*time.Second {
		t.Errorf("restart = %+v", cfg.Restart)
	}
	if level, _ := cfg.LogLevel(); level != slog.LevelDebug {
		t.Errorf("level = %v", level)
	}
}

func TestNetworkProfiles(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	if nil != err {
		t.Fatalf("Load: %v", err)
	}
	ps := cfg.NetworkProfiles()
	if !ps[0].Enterprise() || ps[1].Enterprise() {
		t.Errorf("enterprise flags wrong: %+v", ps)
	}
	if ps[1].TZOffset != -4 || ps[1].BrokerKey != "aio-key" {
		t.Errorf("home profile = %+v", ps[1])
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("got %v, want ErrNotExist", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := Default()
		c.Profiles = []Profile{{SSID: "home", Password: "p", BrokerUsername: "u", BrokerKey: "k"}}
		return c
	}
	if err := valid().Validate(); nil != err {
		t.Fatalf("valid config: %v", err)
	}
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"no profiles", func(c *Config) { c.Profiles = nil }, ErrNoProfiles},
		{"no ssid", func(c *Config) { c.Profiles[0].SSID = "" }, ErrProfile},
		{"no broker key", func(c *Config) { c.Profiles[0].BrokerKey = "" }, ErrProfile},
		{"half enterprise", func(c *Config) { c.Profiles[0].Username = "jdoe" }, ErrProfile},
		{"ladder order", func(c *Config) {
			c.Fonts.Ladder = []FontFile{{"a.bdf", 24}, {"b.bdf", 24}}
		}, ErrInvalid},
		{"restart mode", func(c *Config) { c.Restart.Mode = "halt" }, ErrInvalid},
		{"log level", func(c *Config) { c.Log.Level = "chatty" }, ErrInvalid},
		{"zero sleep", func(c *Config) { c.Loop.Sleep = 0 }, ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFontLadder(t *testing.T) {
	c := Default()
	ladder, err := c.FontLadder()
	if nil != err {
		t.Fatalf("builtin ladder: %v", err)
	}
	if ladder[0].Name != "FreeSansBold24pt" {
		t.Errorf("builtin ladder starts with %s", ladder[0].Name)
	}

	c.Fonts.Dir = t.TempDir()
	c.Fonts.Ladder = []FontFile{{"big.bdf", 96}, {"small.bdf", 12}}
	ladder, err = c.FontLadder()
	if nil != err {
		t.Fatalf("file ladder: %v", err)
	}
	if len(ladder) != 2 || ladder[1].Rank != 1 || ladder[1].PixelHeight != 12 {
		t.Errorf("ladder = %+v", ladder)
	}
	if _, err := ladder[0].Load(); !errors.Is(err, font.ErrFontLoad) {
		t.Errorf("missing font file: %v", err)
	}
}

func TestBatteryPack(t *testing.T) {
	c := Default()
	for _, tt := range []struct {
		mah  int
		want battery.PackSize
	}{{100, battery.Pack100mAh}, {900, battery.Pack500mAh}, {1000, battery.Pack1000mAh}, {5000, battery.Pack3000mAh}} {
		c.Hardware.BatteryMAh = tt.mah
		if got := c.BatteryPack(); got != tt.want {
			t.Errorf("BatteryPack(%d) = %#x, want %#x", tt.mah, got, tt.want)
		}
	}
}
