// Package network defines the ordered list of known Wi-Fi profiles and picks
// the one to join.
package network

import (
	"errors"
	"strings"
)

var ErrNoNetwork = errors.New("no configured network is in range")

// Profile is one credential record: the access point to join plus the broker
// account and local time offset to use while on it.
type Profile struct {
	SSID     string
	Password string
	// Identity and Username select WPA2-Enterprise (PEAP/MSCHAPv2).
	Identity string
	Username string

	BrokerUsername string
	BrokerKey      string
	TZOffset       int // hours east of UTC
}

// Enterprise reports whether p joins with 802.1X credentials.
func (p Profile) Enterprise() bool { return p.Username != "" }

// Select returns the first profile whose SSID is among visible.
func Select(profiles []Profile, visible []string) (Profile, error) {
	seen := make(map[string]bool, len(visible))
	for _, ssid := range visible {
		seen[strings.TrimSpace(ssid)] = true
	}
	for _, p := range profiles {
		if seen[p.SSID] {
			return p, nil
		}
	}
	return Profile{}, ErrNoNetwork
}
