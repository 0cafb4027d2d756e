package clock

import "time"

// Fake is a manually advanced Clock. Sleep advances the fake time instantly
// and records the requested duration.
type Fake struct {
	now    time.Time
	Sleeps []time.Duration
}

// NewFake returns a Fake starting at t.
func NewFake(t time.Time) *Fake {
	return &Fake{now: t}
}

// Now returns the fake time.
func (f *Fake) Now() time.Time { return f.now }

// Sleep advances the fake time by d.
func (f *Fake) Sleep(d time.Duration) {
	f.Sleeps = append(f.Sleeps, d)
	f.now = f.now.Add(d)
}

// Advance moves the fake time forward by d without recording a sleep.
func (f *Fake) Advance(d time.Duration) { f.now = f.now.Add(d) }
