package run

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ardnew/statusboard/feed"
	"github.com/ardnew/statusboard/model"
	"github.com/ardnew/statusboard/wifi"
	"github.com/ardnew/statusboard/wifi/network"
)

// Supervisor keeps the broker session of the joined profile alive. It never
// retries on its own: every failure it returns is fatal.
type Supervisor struct {
	session *model.Session
	network Network
	dial    Dialer
	profile network.Profile
	feed    Feed
	log     *slog.Logger
}

// NewSupervisor returns a disconnected Supervisor for profile p.
func NewSupervisor(net Network, dial Dialer, p network.Profile, log *slog.Logger) *Supervisor {
	if log == nil {
		log = slog.Default()
	}
	return &Supervisor{
		session: model.New(),
		network: net,
		dial:    dial,
		profile: p,
		log:     log,
	}
}

// Session returns the supervised session.
func (s *Supervisor) Session() *model.Session { return s.session }

// EnsureConnected opens the broker session unless it is already connected.
// The session subscribes to the status feed and requests its current value.
func (s *Supervisor) EnsureConnected() error {
	if s.session.Status == model.StatusConnected {
		return nil
	}
	s.session.Transition(model.StatusConnecting)
	s.log.Info("feed:connecting", slog.String("user", s.profile.BrokerUsername))
	if !s.network.Online() {
		s.session.Transition(model.StatusDisconnected)
		return wifi.ErrNotConnected
	}
	if s.feed == nil {
		s.feed = s.dial(s.profile)
	}
	if err := s.feed.Open(); nil != err {
		s.session.Transition(model.StatusDisconnected)
		return fmt.Errorf("broker: %w", err)
	}
	s.session.Transition(model.StatusConnected)
	s.log.Info("feed:connected")
	return nil
}

// Poll runs one bounded pass over pending feed events, handing each message
// to handle in arrival order. A dropped connection moves the session to
// disconnected and is not an error; the next EnsureConnected reopens it.
func (s *Supervisor) Poll(timeout time.Duration, handle func(feed.Message) error) error {
	if s.session.Status != model.StatusConnected {
		return nil
	}
	err := s.feed.Poll(timeout, handle)
	if errors.Is(err, feed.ErrConnectionLost) || errors.Is(err, feed.ErrNotConnected) {
		s.log.Warn("feed:disconnected", slog.Any("error", err))
		s.session.Transition(model.StatusDisconnected)
		return nil
	}
	return err
}

// Close ends the broker session, if any.
func (s *Supervisor) Close() {
	if s.feed != nil {
		s.feed.Close()
	}
	s.session.Transition(model.StatusDisconnected)
}
