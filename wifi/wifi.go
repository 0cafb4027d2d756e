// Package wifi joins the appliance to the first configured access point in
// range.
package wifi

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ardnew/statusboard/wifi/network"
)

var (
	ErrScan         = errors.New("failed to scan for access points")
	ErrConnectToAP  = errors.New("failed to connect to access point")
	ErrNoIPAddress  = errors.New("could not obtain IP address from access point")
	ErrNotConnected = errors.New("not connected to access point")
)

// Radio is the Wi-Fi interface driver.
type Radio interface {
	// Scan returns the SSIDs currently in range.
	Scan() ([]string, error)
	// Join starts associating with the profile's access point.
	Join(p network.Profile) error
	Connected() bool
	HasIP() bool
}

// WiFi selects and joins networks through a Radio.
type WiFi struct {
	radio Radio
	log   *slog.Logger
	sleep func(time.Duration)
}

// New returns a WiFi using radio.
func New(radio Radio, log *slog.Logger) *WiFi {
	if log == nil {
		log = slog.Default()
	}
	return &WiFi{radio: radio, log: log, sleep: time.Sleep}
}

// Select scans and returns the first profile in range.
func (w *WiFi) Select(profiles []network.Profile) (network.Profile, error) {
	visible, err := w.radio.Scan()
	if nil != err {
		return network.Profile{}, fmt.Errorf("%w: %v", ErrScan, err)
	}
	w.log.Debug("wifi:scan", slog.Int("visible", len(visible)))
	return network.Select(profiles, visible)
}

// Connect joins p and waits for association and a DHCP lease.
// An error is returned if the AP could not be reached or an IP not obtained.
func (w *WiFi) Connect(p network.Profile) error {
	w.log.Info("wifi:connecting", slog.String("ssid", p.SSID), slog.Bool("enterprise", p.Enterprise()))
	if err := w.radio.Join(p); nil != err {
		return fmt.Errorf("%w %s: %v", ErrConnectToAP, p.SSID, err)
	}
	// wait for connection established
	if !w.waitWithTimeout(w.radio.Connected) {
		return fmt.Errorf("%w %s", ErrConnectToAP, p.SSID)
	}
	// wait for DHCP IP lease
	if !w.waitWithTimeout(w.radio.HasIP) {
		return fmt.Errorf("%w %s", ErrNoIPAddress, p.SSID)
	}
	w.log.Info("wifi:connected", slog.String("ssid", p.SSID))
	return nil
}

// waitWithTimeout polls ready with exponential backoff, giving up after about
// a minute.
func (w *WiFi) waitWithTimeout(ready func() bool) (ok bool) {
	const (
		maxAttempts = 9
		baseTimeout = 125 * time.Millisecond
	)
	timeout := baseTimeout
	for attempt := 0; !ok && attempt < maxAttempts; attempt++ {
		if ok = ready(); !ok {
			w.sleep(timeout)
			timeout <<= 1
		}
	}
	return
}

// Online reports whether the radio is associated and holds a lease.
func (w *WiFi) Online() bool {
	return w.radio.Connected() && w.radio.HasIP()
}
