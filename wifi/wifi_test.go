package wifi

import (
	"errors"
	"testing"
	"time"

	"github.com/ardnew/statusboard/wifi/network"
)

type fakeRadio struct {
	visible  []string
	scanErr  error
	joinErr  error
	joined   []string
	upAfter  int // Connected polls before association
	ipAfter  int // HasIP polls before a lease
	connPoll int
	ipPoll   int
}

func (r *fakeRadio) Scan() ([]string, error) { return r.visible, r.scanErr }

func (r *fakeRadio) Join(p network.Profile) error {
	r.joined = append(r.joined, p.SSID)
	return r.joinErr
}

func (r *fakeRadio) Connected() bool {
	r.connPoll++
	return r.upAfter >= 0 && r.connPoll > r.upAfter
}

func (r *fakeRadio) HasIP() bool {
	r.ipPoll++
	return r.ipAfter >= 0 && r.ipPoll > r.ipAfter
}

func newTestWiFi(r Radio) (*WiFi, *[]time.Duration) {
	var slept []time.Duration
	w := New(r, nil)
	w.sleep = func(d time.Duration) { slept = append(slept, d) }
	return w, &slept
}

var profiles = []network.Profile{
	{SSID: "office", Password: "a"},
	{SSID: "home", Password: "b"},
}

func TestSelect(t *testing.T) {
	w, _ := newTestWiFi(&fakeRadio{visible: []string{"cafe", "home"}})
	p, err := w.Select(profiles)
	if nil != err {
		t.Fatalf("Select: %v", err)
	}
	if p.SSID != "home" {
		t.Errorf("selected %q, want home", p.SSID)
	}
}

func TestSelectScanError(t *testing.T) {
	w, _ := newTestWiFi(&fakeRadio{scanErr: errors.New("radio busy")})
	if _, err := w.Select(profiles); !errors.Is(err, ErrScan) {
		t.Fatalf("got %v, want ErrScan", err)
	}
}

func TestSelectNoneInRange(t *testing.T) {
	w, _ := newTestWiFi(&fakeRadio{visible: []string{"cafe"}})
	if _, err := w.Select(profiles); !errors.Is(err, network.ErrNoNetwork) {
		t.Fatalf("got %v, want ErrNoNetwork", err)
	}
}

func TestConnect(t *testing.T) {
	r := &fakeRadio{upAfter: 2, ipAfter: 1}
	w, slept := newTestWiFi(r)
	if err := w.Connect(profiles[1]); nil != err {
		t.Fatalf("Connect: %v", err)
	}
	if len(r.joined) != 1 || r.joined[0] != "home" {
		t.Errorf("joined %v", r.joined)
	}
	want := []time.Duration{125 * time.Millisecond, 250 * time.Millisecond, 125 * time.Millisecond}
	if len(*slept) != len(want) {
		t.Fatalf("slept %v, want %v", *slept, want)
	}
	for i := range want {
		if (*slept)[i] != want[i] {
			t.Errorf("sleep %d = %v, want %v", i, (*slept)[i], want[i])
		}
	}
}

func TestConnectJoinError(t *testing.T) {
	w, _ := newTestWiFi(&fakeRadio{joinErr: errors.New("bad psk")})
	if err := w.Connect(profiles[0]); !errors.Is(err, ErrConnectToAP) {
		t.Fatalf("got %v, want ErrConnectToAP", err)
	}
}

func TestConnectTimeout(t *testing.T) {
	r := &fakeRadio{upAfter: -1}
	w, slept := newTestWiFi(r)
	if err := w.Connect(profiles[0]); !errors.Is(err, ErrConnectToAP) {
		t.Fatalf("got %v, want ErrConnectToAP", err)
	}
	if r.connPoll != 9 {
		t.Errorf("polled %d times, want 9", r.connPoll)
	}
	var total time.Duration
	for _, d := range *slept {
		total += d
	}
	if total < 30*time.Second || total > 2*time.Minute {
		t.Errorf("total wait %v", total)
	}
}

func TestConnectNoIP(t *testing.T) {
	w, _ := newTestWiFi(&fakeRadio{ipAfter: -1})
	if err := w.Connect(profiles[0]); !errors.Is(err, ErrNoIPAddress) {
		t.Fatalf("got %v, want ErrNoIPAddress", err)
	}
}

func TestOnline(t *testing.T) {
	w, _ := newTestWiFi(&fakeRadio{upAfter: 0, ipAfter: -1})
	if w.Online() {
		t.Error("online without a lease")
	}
	w, _ = newTestWiFi(&fakeRadio{})
	if !w.Online() {
		t.Error("offline with association and lease")
	}
}
