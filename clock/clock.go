// Package clock abstracts wall time and sleeping so the run loop can be
// driven deterministically in tests.
package clock

import "time"

// Clock is the time source consumed by the run loop and its collaborators.
type Clock interface {
	// Now returns the current local time.
	Now() time.Time
	// Sleep pauses the caller for at least d.
	Sleep(d time.Duration)
}

// Real is the system clock, shifted by a fixed offset and reported in a
// fixed location. The zero value is the unmodified system clock.
//
// The offset is how a one-shot network time sync is applied without
// touching the system clock itself.
type Real struct {
	Offset   time.Duration
	Location *time.Location
}

// Now returns the system time adjusted by Offset, in Location if set.
func (r Real) Now() time.Time {
	t := time.Now().Add(r.Offset)
	if r.Location != nil {
		t = t.In(r.Location)
	}
	return t
}

// Sleep calls time.Sleep.
func (Real) Sleep(d time.Duration) { time.Sleep(d) }
