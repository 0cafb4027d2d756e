// Package model holds the broker session state shared by the connectivity
// supervisor and the run loop.
package model

import "time"

// Status represents the current position of the session state machine.
type Status uint8

// Constants defining each possible session Status.
const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	}
	return "unknown"
}

// Session is the logical connection to the status feed.
//
// There is exactly one Session per process, owned by the run loop. It is not
// safe for concurrent use; the loop is the only goroutine that touches it.
type Session struct {
	Status      Status
	LastMessage *string // nil until the first status arrives
	LastUpdate  time.Time

	changed bool
}

// New returns a disconnected Session.
func New() *Session {
	return &Session{Status: StatusDisconnected}
}

// Get returns the session's changed flag and a copy of its data. The changed
// flag is cleared by the read.
func (s *Session) Get() (changed bool, data Session) {
	changed, data = s.changed, *s
	s.changed = false
	data.changed = false
	return
}

// Set modifies the session through the given closure and marks it changed.
func (s *Session) Set(set func(*Session)) {
	set(s)
	s.changed = true
}

// Transition moves the session to status, marking it changed only if the
// status differs.
func (s *Session) Transition(status Status) {
	if s.Status != status {
		s.Set(func(m *Session) { m.Status = status })
	}
}

// Record stores msg as the most recent status received at t.
func (s *Session) Record(msg string, at time.Time) {
	s.Set(func(m *Session) {
		m.LastMessage, m.LastUpdate = &msg, at
	})
}
