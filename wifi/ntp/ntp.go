// Package ntp sets the appliance's wall clock from a one-shot SNTP query.
package ntp

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/ardnew/statusboard/clock"
)

var DefaultServer = []string{"us.pool.ntp.org", "time.google.com"}

const (
	DefaultRemotePort = 123
	DefaultTimeout    = 2 * time.Second
	DefaultLeapSmear  = false // ** only if using Google NTP (time.google.com) **
)

var (
	ErrReadDatagramSize = errors.New("received unexpected NTP datagram size")
	ErrReadNoResponse   = errors.New("timeout waiting for NTP datagram reply")
	ErrNotSynchronized  = errors.New("clock not synchronized")
	ErrReplyMode        = errors.New("NTP reply is not from a server")
	ErrKissOfDeath      = errors.New("NTP server sent kiss-of-death")
	ErrReplyStratum     = errors.New("NTP server is unsynchronized")
	ErrZeroTimestamp    = errors.New("NTP reply has no transmit timestamp")
)

type Config struct {
	Server     []string
	RemotePort int
	TZOffset   int           // hours east of UTC
	Timeout    time.Duration // per-server reply deadline
	LeapSmear  bool          // https://developers.google.com/time/faq#libit
}

type NTP struct {
	config   Config
	locale   *time.Location
	log      *slog.Logger
	offset   time.Duration
	synced   bool
	datagram datagram
}

const datagramSize = 48

type datagram []uint8

func New(config Config, log *slog.Logger) *NTP {
	if len(config.Server) == 0 {
		config.Server = DefaultServer
		config.LeapSmear = DefaultLeapSmear
	}
	if config.RemotePort == 0 {
		config.RemotePort = DefaultRemotePort
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &NTP{
		config:   config,
		locale:   time.FixedZone("localtime", config.TZOffset*60*60),
		log:      log,
		datagram: make(datagram, datagramSize),
	}
}

// Sync queries each server in turn and keeps the first reply. It is run once
// at boot; the system clock itself is left untouched.
func (n *NTP) Sync() error {
	var errs []error
	for _, server := range n.config.Server {
		addr := net.JoinHostPort(server, strconv.Itoa(n.config.RemotePort))
		curr, err := n.query(addr)
		if nil != err {
			n.log.Warn("ntp:server", slog.String("server", server), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("%s: %w", server, err))
			continue
		}
		n.offset = time.Until(curr)
		n.synced = true
		n.log.Info("ntp:synchronized",
			slog.String("server", server),
			slog.Duration("offset", n.offset))
		return nil
	}
	return errors.Join(errs...)
}

// Clock returns the synchronized clock in the configured time zone.
func (n *NTP) Clock() (clock.Clock, error) {
	if !n.synced {
		return nil, ErrNotSynchronized
	}
	return clock.Real{Offset: n.offset, Location: n.locale}, nil
}

func (n *NTP) query(addr string) (time.Time, error) {
	conn, err := net.DialTimeout("udp", addr, n.config.Timeout)
	if nil != err {
		return time.Time{}, err
	}
	defer conn.Close()
	return n.request(conn)
}

func (n *NTP) request(conn net.Conn) (time.Time, error) {
	if err := n.write(conn); nil != err {
		return time.Time{}, err
	}
	if err := n.read(conn); nil != err {
		return time.Time{}, err
	}
	return n.datagram.parse(), nil
}

func (n *NTP) write(conn net.Conn) error {
	// clear the datagram buffer
	n.datagram.reset()
	// populate datagram buffer with an NTP request
	n.datagram[0] = 0b11100011 // LI, Version, Mode
	if !n.config.LeapSmear {
		// set LI to alarm (clock not sync'd) if server does not leap smear:
		n.datagram[0] |= 0b00000011
	}
	n.datagram[1] = 0    // Stratum, or type of clock
	n.datagram[2] = 6    // Polling Interval
	n.datagram[3] = 0xEC // Peer Clock Precision
	// 8 bytes of zero for Root Delay & Root Dispersion
	n.datagram[12] = 49
	n.datagram[13] = 0x4E
	n.datagram[14] = 49
	n.datagram[15] = 52
	_, err := conn.Write(n.datagram)
	return err
}

func (n *NTP) read(conn net.Conn) error {
	n.datagram.reset()
	if err := conn.SetReadDeadline(time.Now().Add(n.config.Timeout)); nil != err {
		return err
	}
	// a reply larger than the buffer is truncated to it, so read one extra
	// byte to tell it apart from a well-formed reply
	buf := make([]byte, datagramSize+1)
	size, err := conn.Read(buf)
	switch {
	case errors.Is(err, os.ErrDeadlineExceeded):
		return ErrReadNoResponse
	case nil != err:
		return err
	case size != datagramSize:
		return ErrReadDatagramSize
	}
	copy(n.datagram, buf)
	return n.datagram.validate()
}

func (d *datagram) reset() {
	for i := range *d {
		(*d)[i] = 0 // zeroize the buffer
	}
}

// validate rejects replies that carry no usable time.
func (d *datagram) validate() error {
	const (
		modeServer    = 4
		modeBroadcast = 5
		maxStratum    = 15
	)
	if mode := (*d)[0] & 0b111; mode != modeServer && mode != modeBroadcast {
		return fmt.Errorf("%w: mode %d", ErrReplyMode, mode)
	}
	switch stratum := (*d)[1]; {
	case stratum == 0:
		// the reference ID holds the four-letter kiss code
		return fmt.Errorf("%w: %s", ErrKissOfDeath, string((*d)[12:16]))
	case stratum > maxStratum:
		return fmt.Errorf("%w: stratum %d", ErrReplyStratum, stratum)
	}
	for _, b := range (*d)[40:48] {
		if b != 0 {
			return nil
		}
	}
	return ErrZeroTimestamp
}

// parse returns the transmit timestamp, to the second.
func (d *datagram) parse() time.Time {
	const seventyYears = 2208988800
	t := uint32((*d)[40])<<24 | uint32((*d)[41])<<16 |
		uint32((*d)[42])<<8 | uint32((*d)[43])
	return time.Unix(int64(t-seventyYears), 0)
}
