// Package config loads the appliance configuration.
//
// Configuration comes from a single YAML file at DefaultPath. There are no
// flags, no environment overrides, and no discovery: what is in the file is
// what runs.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ardnew/statusboard/battery"
	"github.com/ardnew/statusboard/font"
	"github.com/ardnew/statusboard/wifi/network"
)

// DefaultPath is where the appliance reads its configuration.
const DefaultPath = "/etc/statusboard/statusboard.yaml"

var (
	ErrNoProfiles = errors.New("config: no network profiles")
	ErrProfile    = errors.New("config: invalid network profile")
	ErrInvalid    = errors.New("config: invalid value")
)

// Config is the complete appliance configuration.
type Config struct {
	// Profiles are tried in order; the first one in range is joined.
	Profiles []Profile      `yaml:"profiles"`
	Feed     FeedConfig     `yaml:"feed"`
	Display  DisplayConfig  `yaml:"display"`
	Fonts    FontsConfig    `yaml:"fonts"`
	Loop     LoopConfig     `yaml:"loop"`
	NTP      NTPConfig      `yaml:"ntp"`
	Restart  RestartConfig  `yaml:"restart"`
	Hardware HardwareConfig `yaml:"hardware"`
	Log      LogConfig      `yaml:"log"`
}

// Profile is one Wi-Fi network with the broker account used on it.
type Profile struct {
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`
	// Identity and Username select 802.1X; Password is then the account
	// password.
	Identity       string `yaml:"identity"`
	Username       string `yaml:"username"`
	BrokerUsername string `yaml:"broker_username"`
	BrokerKey      string `yaml:"broker_key"`
	TimezoneOffset int    `yaml:"timezone_offset"` // hours
}

// FeedConfig names the broker and the status feed.
type FeedConfig struct {
	Broker         string        `yaml:"broker"`
	Name           string        `yaml:"name"`
	ClientID       string        `yaml:"client_id"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// DisplayConfig sizes and paces the screen.
type DisplayConfig struct {
	// Width and Height are the landscape drawing size. Zero takes the
	// panel's own size.
	Width       int           `yaml:"width"`
	Height      int           `yaml:"height"`
	ShowBattery bool          `yaml:"show_battery"`
	LowBattery  float64       `yaml:"low_battery"` // percent
	MinRefresh  time.Duration `yaml:"min_refresh"`
	Spacing     float64       `yaml:"spacing"`
}

// FontsConfig lists the status font ladder, largest first.
type FontsConfig struct {
	Dir    string     `yaml:"dir"`
	Cache  int        `yaml:"cache"`
	Ladder []FontFile `yaml:"ladder"`
}

// FontFile is a BDF font on disk and its pixel size.
type FontFile struct {
	File string `yaml:"file"`
	Size int    `yaml:"size"`
}

type LoopConfig struct {
	Sleep           time.Duration `yaml:"sleep"`
	PollTimeout     time.Duration `yaml:"poll_timeout"`
	BatteryInterval time.Duration `yaml:"battery_interval"`
}

type NTPConfig struct {
	Servers   []string      `yaml:"servers"`
	Timeout   time.Duration `yaml:"timeout"`
	LeapSmear bool          `yaml:"leap_smear"`
}

// RestartConfig controls the recovery path.
type RestartConfig struct {
	Grace time.Duration `yaml:"grace"`
	Mode  string        `yaml:"mode"` // reboot | exec
}

// HardwareConfig names the buses and pins. Empty bus names open the first
// bus found.
type HardwareConfig struct {
	SPI        string    `yaml:"spi"`
	I2C        string    `yaml:"i2c"`
	BatteryMAh int       `yaml:"battery_mah"`
	LED        LEDConfig `yaml:"led"`
}

// LEDConfig names the GPIO lines of the status LED. Any empty name disables
// the LED.
type LEDConfig struct {
	Red   string `yaml:"red"`
	Green string `yaml:"green"`
	Blue  string `yaml:"blue"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the base configuration the file is merged into. It has no
// profiles, so it does not validate on its own.
func Default() *Config {
	return &Config{
		Feed: FeedConfig{
			Broker:         "ssl://io.adafruit.com:8883",
			Name:           "status",
			ClientID:       "statusboard",
			ConnectTimeout: 10 * time.Second,
		},
		Display: DisplayConfig{
			LowBattery: battery.LowThreshold,
			MinRefresh: 5 * time.Second,
			Spacing:    1.0,
		},
		Fonts: FontsConfig{
			Dir: "/usr/share/statusboard/fonts",
		},
		Loop: LoopConfig{
			Sleep:           10 * time.Second,
			PollTimeout:     time.Second,
			BatteryInterval: 60 * time.Second,
		},
		NTP: NTPConfig{
			Servers: []string{"pool.ntp.org"},
			Timeout: 2 * time.Second,
		},
		Restart: RestartConfig{
			Grace: 5 * time.Second,
			Mode:  "reboot",
		},
		Hardware: HardwareConfig{
			BatteryMAh: 1000,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads and validates the file at path over Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if nil != err {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); nil != err {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Validate(); nil != err {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the appliance cannot run
// with.
func (c *Config) Validate() error {
	if len(c.Profiles) == 0 {
		return ErrNoProfiles
	}
	for i, p := range c.Profiles {
		if err := p.validate(); nil != err {
			return fmt.Errorf("%w %d (%q): %v", ErrProfile, i, p.SSID, err)
		}
	}
	if c.Feed.Broker == "" || c.Feed.Name == "" {
		return fmt.Errorf("%w: feed broker and name are required", ErrInvalid)
	}
	if c.Display.Width < 0 || c.Display.Height < 0 {
		return fmt.Errorf("%w: display size %dx%d", ErrInvalid, c.Display.Width, c.Display.Height)
	}
	if c.Fonts.Cache < 0 {
		return fmt.Errorf("%w: fonts.cache %d", ErrInvalid, c.Fonts.Cache)
	}
	for i, f := range c.Fonts.Ladder {
		if f.File == "" || f.Size <= 0 {
			return fmt.Errorf("%w: fonts.ladder[%d]", ErrInvalid, i)
		}
		if i > 0 && f.Size >= c.Fonts.Ladder[i-1].Size {
			return fmt.Errorf("%w: fonts.ladder[%d]: %v", ErrInvalid, i, font.ErrLadderOrder)
		}
	}
	if c.Loop.Sleep <= 0 || c.Loop.PollTimeout <= 0 || c.Loop.BatteryInterval <= 0 {
		return fmt.Errorf("%w: loop durations must be positive", ErrInvalid)
	}
	if c.Restart.Mode != "reboot" && c.Restart.Mode != "exec" {
		return fmt.Errorf("%w: restart.mode %q", ErrInvalid, c.Restart.Mode)
	}
	if _, err := c.LogLevel(); nil != err {
		return err
	}
	return nil
}

func (p Profile) validate() error {
	switch {
	case p.SSID == "":
		return errors.New("missing ssid")
	case p.BrokerUsername == "" || p.BrokerKey == "":
		return errors.New("missing broker credentials")
	case p.Password == "":
		return errors.New("missing password")
	case (p.Identity == "") != (p.Username == ""):
		return errors.New("enterprise profiles need both identity and username")
	}
	return nil
}

// NetworkProfiles returns the profiles in the form the Wi-Fi layer selects
// from.
func (c *Config) NetworkProfiles() []network.Profile {
	out := make([]network.Profile, len(c.Profiles))
	for i, p := range c.Profiles {
		out[i] = network.Profile{
			SSID:           p.SSID,
			Password:       p.Password,
			Identity:       p.Identity,
			Username:       p.Username,
			BrokerUsername: p.BrokerUsername,
			BrokerKey:      p.BrokerKey,
			TZOffset:       p.TimezoneOffset,
		}
	}
	return out
}

// FontLadder returns the configured BDF ladder read from Fonts.Dir, or the
// built-in ladder when none is configured.
func (c *Config) FontLadder() (font.Ladder, error) {
	if len(c.Fonts.Ladder) == 0 {
		return font.DefaultLadder()
	}
	fsys := os.DirFS(c.Fonts.Dir)
	cands := make([]font.Candidate, len(c.Fonts.Ladder))
	for i, f := range c.Fonts.Ladder {
		cands[i] = font.BDF(fsys, f.File, f.Size)
	}
	return font.NewLadder(cands...)
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); nil != err {
		return 0, fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level)
	}
	return level, nil
}

// BatteryPack maps Hardware.BatteryMAh to the nearest gauge pack setting at
// or below it.
func (c *Config) BatteryPack() battery.PackSize {
	switch mah := c.Hardware.BatteryMAh; {
	case mah >= 3000:
		return battery.Pack3000mAh
	case mah >= 2000:
		return battery.Pack2000mAh
	case mah >= 1000:
		return battery.Pack1000mAh
	case mah >= 500:
		return battery.Pack500mAh
	}
	return battery.Pack100mAh
}
