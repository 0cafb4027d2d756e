package wifi

import (
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/ardnew/statusboard/wifi/network"
)

const (
	nmDest           = "org.freedesktop.NetworkManager"
	nmPath           = dbus.ObjectPath("/org/freedesktop/NetworkManager")
	nmDevice         = nmDest + ".Device"
	nmWireless       = nmDest + ".Device.Wireless"
	nmAccessPoint    = nmDest + ".AccessPoint"
	nmActive         = nmDest + ".Connection.Active"
	nmSettings       = nmDest + ".Settings"
	nmSettingsPath   = dbus.ObjectPath("/org/freedesktop/NetworkManager/Settings")
	nmConnection     = nmSettings + ".Connection"
	nmDeviceTypeWifi = 2
	nmActivated      = 2
)

var ErrNoWifiDevice = errors.New("networkmanager: no wifi device")

// NetworkManager is a Radio backed by NetworkManager over the system D-Bus.
type NetworkManager struct {
	conn   *dbus.Conn
	device dbus.ObjectPath
	store  connectionStore
	active dbus.ObjectPath
	// ScanWait is how long Scan waits for a requested scan to populate.
	ScanWait time.Duration
}

// NewNetworkManager connects to the system bus and finds the first Wi-Fi
// device.
func NewNetworkManager() (*NetworkManager, error) {
	conn, err := dbus.SystemBus()
	if nil != err {
		return nil, fmt.Errorf("networkmanager: %w", err)
	}
	var devices []dbus.ObjectPath
	if err := conn.Object(nmDest, nmPath).Call(nmDest+".GetDevices", 0).Store(&devices); nil != err {
		return nil, fmt.Errorf("networkmanager: list devices: %w", err)
	}
	for _, dev := range devices {
		v, err := conn.Object(nmDest, dev).GetProperty(nmDevice + ".DeviceType")
		if nil != err {
			continue
		}
		if t, ok := v.Value().(uint32); ok && t == nmDeviceTypeWifi {
			return &NetworkManager{
				conn:     conn,
				device:   dev,
				store:    &savedConnections{conn: conn, device: dev},
				ScanWait: 3 * time.Second,
			}, nil
		}
	}
	return nil, ErrNoWifiDevice
}

// Scan requests a fresh scan and returns the visible SSIDs.
func (n *NetworkManager) Scan() ([]string, error) {
	dev := n.conn.Object(nmDest, n.device)
	// A scan already in progress is reported as an error; the cached list
	// is still usable.
	if call := dev.Call(nmWireless+".RequestScan", 0, map[string]dbus.Variant{}); nil == call.Err {
		time.Sleep(n.ScanWait)
	}
	var aps []dbus.ObjectPath
	if err := dev.Call(nmWireless+".GetAllAccessPoints", 0).Store(&aps); nil != err {
		return nil, err
	}
	ssids := make([]string, 0, len(aps))
	for _, ap := range aps {
		v, err := n.conn.Object(nmDest, ap).GetProperty(nmAccessPoint + ".Ssid")
		if nil != err {
			continue
		}
		if raw, ok := v.Value().([]byte); ok && len(raw) > 0 {
			ssids = append(ssids, string(raw))
		}
	}
	return ssids, nil
}

// Join activates the saved connection for p on the Wi-Fi device, adding it
// the first time p is joined.
func (n *NetworkManager) Join(p network.Profile) error {
	active, err := join(n.store, p)
	if nil != err {
		return err
	}
	n.active = active
	return nil
}

// connectionStore is NetworkManager's set of saved connections.
type connectionStore interface {
	List() ([]dbus.ObjectPath, error)
	ID(conn dbus.ObjectPath) (string, error)
	Update(conn dbus.ObjectPath, s connectionSettings) error
	Activate(conn dbus.ObjectPath) (dbus.ObjectPath, error)
	AddAndActivate(s connectionSettings) (dbus.ObjectPath, error)
}

type connectionSettings = map[string]map[string]dbus.Variant

// join reuses the saved connection named for p, refreshing its credentials,
// so repeated boots never pile up duplicates.
func join(store connectionStore, p network.Profile) (dbus.ObjectPath, error) {
	id := connectionID(p)
	saved, err := store.List()
	if nil != err {
		return "", fmt.Errorf("networkmanager: list connections: %w", err)
	}
	for _, conn := range saved {
		if got, err := store.ID(conn); nil != err || got != id {
			continue
		}
		if err := store.Update(conn, settings(p)); nil != err {
			return "", fmt.Errorf("networkmanager: update %s: %w", id, err)
		}
		return store.Activate(conn)
	}
	return store.AddAndActivate(settings(p))
}

func connectionID(p network.Profile) string { return "statusboard-" + p.SSID }

// savedConnections is the connectionStore on the system bus.
type savedConnections struct {
	conn   *dbus.Conn
	device dbus.ObjectPath
}

func (s *savedConnections) List() ([]dbus.ObjectPath, error) {
	var paths []dbus.ObjectPath
	err := s.conn.Object(nmDest, nmSettingsPath).Call(nmSettings+".ListConnections", 0).Store(&paths)
	return paths, err
}

func (s *savedConnections) ID(conn dbus.ObjectPath) (string, error) {
	var cs connectionSettings
	if err := s.conn.Object(nmDest, conn).Call(nmConnection+".GetSettings", 0).Store(&cs); nil != err {
		return "", err
	}
	id, _ := cs["connection"]["id"].Value().(string)
	return id, nil
}

func (s *savedConnections) Update(conn dbus.ObjectPath, cs connectionSettings) error {
	return s.conn.Object(nmDest, conn).Call(nmConnection+".Update", 0, cs).Err
}

func (s *savedConnections) Activate(conn dbus.ObjectPath) (dbus.ObjectPath, error) {
	var active dbus.ObjectPath
	err := s.conn.Object(nmDest, nmPath).Call(nmDest+".ActivateConnection", 0,
		conn, s.device, dbus.ObjectPath("/")).Store(&active)
	return active, err
}

func (s *savedConnections) AddAndActivate(cs connectionSettings) (dbus.ObjectPath, error) {
	var path, active dbus.ObjectPath
	err := s.conn.Object(nmDest, nmPath).Call(nmDest+".AddAndActivateConnection", 0,
		cs, s.device, dbus.ObjectPath("/")).Store(&path, &active)
	return active, err
}

// Connected reports whether the activated connection is up.
func (n *NetworkManager) Connected() bool {
	if n.active == "" {
		return false
	}
	v, err := n.conn.Object(nmDest, n.active).GetProperty(nmActive + ".State")
	if nil != err {
		return false
	}
	state, ok := v.Value().(uint32)
	return ok && state == nmActivated
}

// HasIP reports whether the device holds an IPv4 configuration.
func (n *NetworkManager) HasIP() bool {
	v, err := n.conn.Object(nmDest, n.device).GetProperty(nmDevice + ".Ip4Config")
	if nil != err {
		return false
	}
	path, ok := v.Value().(dbus.ObjectPath)
	return ok && path.IsValid() && path != "/"
}

func settings(p network.Profile) connectionSettings {
	s := connectionSettings{
		"connection": {
			"id":   dbus.MakeVariant(connectionID(p)),
			"type": dbus.MakeVariant("802-11-wireless"),
		},
		"802-11-wireless": {
			"ssid": dbus.MakeVariant([]byte(p.SSID)),
			"mode": dbus.MakeVariant("infrastructure"),
		},
	}
	switch {
	case p.Enterprise():
		s["802-11-wireless-security"] = map[string]dbus.Variant{
			"key-mgmt": dbus.MakeVariant("wpa-eap"),
		}
		s["802-1x"] = map[string]dbus.Variant{
			"eap":                dbus.MakeVariant([]string{"peap"}),
			"identity":           dbus.MakeVariant(p.Username),
			"anonymous-identity": dbus.MakeVariant(p.Identity),
			"password":           dbus.MakeVariant(p.Password),
			"phase2-auth":        dbus.MakeVariant("mschapv2"),
		}
	case p.Password != "":
		s["802-11-wireless-security"] = map[string]dbus.Variant{
			"key-mgmt": dbus.MakeVariant("wpa-psk"),
			"psk":      dbus.MakeVariant(p.Password),
		}
	}
	return s
}
