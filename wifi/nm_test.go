package wifi

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"

	"github.com/ardnew/statusboard/wifi/network"
)

type fakeStore struct {
	ids       map[dbus.ObjectPath]string
	listErr   error
	updated   []dbus.ObjectPath
	activated []dbus.ObjectPath
	added     []connectionSettings
}

func (s *fakeStore) List() ([]dbus.ObjectPath, error) {
	var paths []dbus.ObjectPath
	for p := range s.ids {
		paths = append(paths, p)
	}
	return paths, s.listErr
}

func (s *fakeStore) ID(conn dbus.ObjectPath) (string, error) { return s.ids[conn], nil }

func (s *fakeStore) Update(conn dbus.ObjectPath, _ connectionSettings) error {
	s.updated = append(s.updated, conn)
	return nil
}

func (s *fakeStore) Activate(conn dbus.ObjectPath) (dbus.ObjectPath, error) {
	s.activated = append(s.activated, conn)
	return "/active/1", nil
}

func (s *fakeStore) AddAndActivate(cs connectionSettings) (dbus.ObjectPath, error) {
	s.added = append(s.added, cs)
	path := dbus.ObjectPath("/settings/new")
	s.ids[path], _ = cs["connection"]["id"].Value().(string)
	return "/active/2", nil
}

func TestJoinAddsOnceThenReuses(t *testing.T) {
	store := &fakeStore{ids: map[dbus.ObjectPath]string{"/settings/0": "cafe"}}
	nm := &NetworkManager{store: store}
	home := network.Profile{SSID: "home", Password: "secret"}

	if err := nm.Join(home); nil != err {
		t.Fatalf("first Join: %v", err)
	}
	if len(store.added) != 1 || len(store.activated) != 0 {
		t.Fatalf("first join added %d, activated %v", len(store.added), store.activated)
	}
	if nm.active != "/active/2" {
		t.Errorf("active %q", nm.active)
	}

	// the next boot finds the saved connection
	for i := 0; i < 3; i++ {
		if err := nm.Join(home); nil != err {
			t.Fatalf("Join %d: %v", i, err)
		}
	}
	if len(store.added) != 1 {
		t.Errorf("added %d connections, want 1", len(store.added))
	}
	if len(store.activated) != 3 || store.activated[0] != "/settings/new" {
		t.Errorf("activated %v", store.activated)
	}
	if len(store.updated) != 3 {
		t.Errorf("credentials refreshed %d times, want 3", len(store.updated))
	}
	if nm.active != "/active/1" {
		t.Errorf("active %q", nm.active)
	}
}

func TestJoinListError(t *testing.T) {
	boom := errors.New("no bus")
	store := &fakeStore{ids: map[dbus.ObjectPath]string{}, listErr: boom}
	nm := &NetworkManager{store: store}
	if err := nm.Join(network.Profile{SSID: "home"}); !errors.Is(err, boom) {
		t.Fatalf("Join = %v, want list error", err)
	}
	if len(store.added) != 0 || nm.active != "" {
		t.Errorf("joined despite list failure")
	}
}

func TestSettings(t *testing.T) {
	str := func(cs connectionSettings, section, key string) string {
		v, _ := cs[section][key].Value().(string)
		return v
	}
	tests := []struct {
		name     string
		profile  network.Profile
		keyMgmt  string
		security map[string]string // 802-11-wireless-security values
		eap      map[string]string // 802-1x values
	}{
		{
			name:     "psk",
			profile:  network.Profile{SSID: "home", Password: "secret"},
			keyMgmt:  "wpa-psk",
			security: map[string]string{"psk": "secret"},
		},
		{
			name:    "enterprise",
			profile: network.Profile{SSID: "office", Identity: "anon", Username: "jdoe", Password: "pw"},
			keyMgmt: "wpa-eap",
			eap: map[string]string{
				"identity":           "jdoe",
				"anonymous-identity": "anon",
				"password":           "pw",
				"phase2-auth":        "mschapv2",
			},
		},
		{
			name:    "open",
			profile: network.Profile{SSID: "cafe"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := settings(tt.profile)
			if got := str(cs, "connection", "id"); got != "statusboard-"+tt.profile.SSID {
				t.Errorf("id %q", got)
			}
			if ssid, _ := cs["802-11-wireless"]["ssid"].Value().([]byte); string(ssid) != tt.profile.SSID {
				t.Errorf("ssid %q", ssid)
			}
			sec, hasSec := cs["802-11-wireless-security"]
			if tt.keyMgmt == "" {
				if hasSec {
					t.Errorf("open network has a security section: %v", sec)
				}
				if _, ok := cs["802-1x"]; ok {
					t.Errorf("open network has an 802-1x section")
				}
				return
			}
			if got := str(cs, "802-11-wireless-security", "key-mgmt"); got != tt.keyMgmt {
				t.Errorf("key-mgmt %q, want %q", got, tt.keyMgmt)
			}
			for k, want := range tt.security {
				if got := str(cs, "802-11-wireless-security", k); got != want {
					t.Errorf("%s = %q, want %q", k, got, want)
				}
			}
			for k, want := range tt.eap {
				if got := str(cs, "802-1x", k); got != want {
					t.Errorf("802-1x %s = %q, want %q", k, got, want)
				}
			}
			if tt.eap != nil {
				methods, _ := cs["802-1x"]["eap"].Value().([]string)
				if len(methods) != 1 || methods[0] != "peap" {
					t.Errorf("eap methods %v, want [peap]", methods)
				}
			} else if _, ok := cs["802-1x"]; ok {
				t.Errorf("psk network has an 802-1x section")
			}
		})
	}
}
