// Package feed keeps the broker session for the single status feed.
//
// Transport callbacks run on the client library's goroutines; they only
// enqueue into the Session inbox, which Poll drains on the caller's goroutine.
package feed

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	ErrConnectionLost = errors.New("broker connection lost")
	ErrNotConnected   = errors.New("not connected to broker")
)

// InboxSize bounds the messages buffered between two polls.
const InboxSize = 16

// Message is one value delivered on a subscribed topic.
type Message struct {
	Topic   string
	Payload string
}

// Transport is a publish/subscribe broker client.
type Transport interface {
	Connect() error
	Subscribe(topic string, handle func(Message)) error
	Publish(topic, payload string) error
	IsConnected() bool
	Disconnect()
	// OnConnectionLost registers the callback run when the link drops.
	OnConnectionLost(func(error))
}

// Topic returns the Adafruit IO topic of feed name owned by user.
func Topic(user, name string) string { return user + "/feeds/" + name }

// GetTopic returns the topic that asks the broker to resend the feed's
// current value.
func GetTopic(user, name string) string { return Topic(user, name) + "/get" }

// Session subscribes to one feed and queues its messages for Poll.
type Session struct {
	transport Transport
	topic     string
	get       string
	log       *slog.Logger

	inbox chan Message
	lost  chan error
}

// NewSession returns a closed session for user's feed name.
func NewSession(t Transport, user, name string, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	s := &Session{
		transport: t,
		topic:     Topic(user, name),
		get:       GetTopic(user, name),
		log:       log,
		inbox:     make(chan Message, InboxSize),
		lost:      make(chan error, 1),
	}
	t.OnConnectionLost(s.connectionLost)
	return s
}

// Topic returns the subscribed topic.
func (s *Session) Topic() string { return s.topic }

// Open connects, subscribes to the feed, and requests its current value.
// Messages left over from a previous connection are discarded; the broker
// resends the current value in reply to the request.
func (s *Session) Open() error {
	s.drain()
	if err := s.transport.Connect(); nil != err {
		return fmt.Errorf("connect: %w", err)
	}
	if err := s.transport.Subscribe(s.topic, s.enqueue); nil != err {
		return fmt.Errorf("subscribe %s: %w", s.topic, err)
	}
	if err := s.transport.Publish(s.get, ""); nil != err {
		return fmt.Errorf("request %s: %w", s.topic, err)
	}
	s.log.Info("feed:subscribed", slog.String("topic", s.topic))
	return nil
}

// Poll waits up to timeout for pending events and hands every queued message
// to handle in arrival order. It returns ErrConnectionLost, wrapping the
// cause, once the link drops, and the first error from handle otherwise.
func (s *Session) Poll(timeout time.Duration, handle func(Message) error) error {
	if !s.transport.IsConnected() {
		select {
		case err := <-s.lost:
			return err
		default:
			return ErrNotConnected
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case m := <-s.inbox:
		if err := handle(m); nil != err {
			return err
		}
	case err := <-s.lost:
		return err
	case <-timer.C:
		return nil
	}
	for {
		select {
		case m := <-s.inbox:
			if err := handle(m); nil != err {
				return err
			}
		case err := <-s.lost:
			return err
		default:
			return nil
		}
	}
}

// Close disconnects from the broker.
func (s *Session) Close() {
	s.transport.Disconnect()
	s.log.Info("feed:closed", slog.String("topic", s.topic))
}

// enqueue drops the oldest queued message when the inbox is full; only the
// latest status matters.
func (s *Session) enqueue(m Message) {
	for {
		select {
		case s.inbox <- m:
			s.log.Debug("feed:message", slog.String("topic", m.Topic), slog.Int("bytes", len(m.Payload)))
			return
		default:
		}
		select {
		case old := <-s.inbox:
			s.log.Warn("feed:dropped", slog.String("topic", old.Topic))
		default:
		}
	}
}

func (s *Session) connectionLost(cause error) {
	s.log.Warn("feed:connection_lost", slog.Any("error", cause))
	select {
	case s.lost <- fmt.Errorf("%w: %v", ErrConnectionLost, cause):
	default:
	}
}

func (s *Session) drain() {
	for {
		select {
		case <-s.lost:
		case m := <-s.inbox:
			s.log.Debug("feed:stale", slog.String("topic", m.Topic))
		default:
			return
		}
	}
}
