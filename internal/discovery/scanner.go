// Package discovery implements the multicast half of the LocalSend
// protocol: periodic self-announcement plus a live table of observed peers.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/landrop/landrop/internal/protocol"
)

const (
	// DefaultGroup and DefaultPort are fixed by the LocalSend v1 protocol.
	DefaultGroup = "224.0.0.167"
	DefaultPort  = 53317

	// DefaultInterval is the self-announcement cadence.
	DefaultInterval = 5 * time.Second

	// DefaultRepeat is the announcement burst size. Multiple identical
	// packets hedge against UDP loss.
	DefaultRepeat = 2

	// readBufferSize bounds one datagram; announcements are well under 2 KiB.
	readBufferSize = 2048
)

// Options configures a Scanner.
type Options struct {
	Self        protocol.DeviceInfo
	Fingerprint string
	Group       string
	Port        int
	Interval    time.Duration
	Repeat      int
}

func (o *Options) fillDefaults() {
	if o.Group == "" {
		o.Group = DefaultGroup
	}
	if o.Port == 0 {
		o.Port = DefaultPort
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.Repeat <= 0 {
		o.Repeat = DefaultRepeat
	}
}

// Scanner joins the multicast group, announces this device, answers foreign
// announcements, and keeps the peer table. One UDP socket serves both send
// and receive; loopback of our own packets is the normal case and is
// filtered by fingerprint.
type Scanner struct {
	conn   net.PacketConn
	group  *net.UDPAddr
	self   protocol.DeviceResponse
	repeat int
	tick   time.Duration
	logger *slog.Logger

	mu      sync.RWMutex
	devices map[string]protocol.DeviceInfo // keyed by source ip
}

// New binds UDP 0.0.0.0:<port> and joins the multicast group on the
// default interface. Bind or join failure is fatal to discovery.
func New(opts Options, logger *slog.Logger) (*Scanner, error) {
	opts.fillDefaults()

	groupIP := net.ParseIP(opts.Group)
	if groupIP == nil || !groupIP.IsMulticast() {
		return nil, fmt.Errorf("invalid multicast group %q", opts.Group)
	}

	conn, err := net.ListenPacket("udp4", fmt.Sprintf("0.0.0.0:%d", opts.Port))
	if err != nil {
		return nil, fmt.Errorf("bind udp %d: %w", opts.Port, err)
	}

	pc := ipv4.NewPacketConn(conn)
	if err := pc.JoinGroup(nil, &net.UDPAddr{IP: groupIP}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("join multicast group %s: %w", opts.Group, err)
	}
	// Own announcements must loop back so a second instance on this host
	// can be told apart from silence.
	_ = pc.SetMulticastLoopback(true)

	return newScanner(conn, groupIP, opts, logger), nil
}

// newScanner wires a Scanner onto an existing socket. Split out so tests
// can inject a capturing conn.
func newScanner(conn net.PacketConn, groupIP net.IP, opts Options, logger *slog.Logger) *Scanner {
	opts.fillDefaults()
	return &Scanner{
		conn:   conn,
		group:  &net.UDPAddr{IP: groupIP, Port: opts.Port},
		repeat: opts.Repeat,
		tick:   opts.Interval,
		logger: logger,
		self: protocol.DeviceResponse{
			DeviceInfo:  opts.Self,
			Fingerprint: opts.Fingerprint,
		},
		devices: make(map[string]protocol.DeviceInfo),
	}
}

// Run announces and listens until ctx is cancelled. The announcer and the
// receive loop share the socket; send and recv touch disjoint kernel
// structures, so no locking is needed between them.
func (s *Scanner) Run(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.receiveLoop(ctx)
	}()

	s.announceBurst()
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.announceBurst()
		case <-ctx.Done():
			s.conn.Close()
			<-done
			return ctx.Err()
		}
	}
}

// announceBurst emits Repeat identical announcements soliciting replies.
func (s *Scanner) announceBurst() {
	for range s.repeat {
		s.announce(true)
	}
	s.logger.Debug("announced", "group", s.group.String(), "repeat", s.repeat)
}

// announce sends one DeviceResponse to the multicast group. Single-packet
// send failures are non-fatal.
func (s *Scanner) announce(announcement bool) {
	msg := s.self
	msg.Announcement = announcement
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Debug("encode announcement", "err", err)
		return
	}
	if _, err := s.conn.WriteTo(data, s.group); err != nil {
		s.logger.Debug("send announcement", "err", err)
	}
}

func (s *Scanner) receiveLoop(ctx context.Context) {
	buf := make([]byte, readBufferSize)
	for {
		n, src, err := s.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Debug("recv", "err", err)
			continue
		}
		udpSrc, ok := src.(*net.UDPAddr)
		if !ok {
			continue
		}
		s.handleDatagram(buf[:n], udpSrc)
	}
}

// handleDatagram processes one received packet: decode, stamp the source
// address, drop our own traffic, answer announcements, update the table.
func (s *Scanner) handleDatagram(data []byte, src *net.UDPAddr) {
	resp, err := protocol.DecodeDeviceResponse(data)
	if err != nil {
		s.logger.Debug("malformed datagram", "src", src.String(), "err", err)
		return
	}
	resp.IP = src.IP.String()
	resp.Port = src.Port

	if resp.SameDevice(s.self) {
		return
	}

	// Replies carry announcement=false and are never re-answered, so the
	// exchange cannot ping-pong.
	if resp.Announcement {
		s.announce(false)
	}

	s.mu.Lock()
	before := len(s.devices)
	s.devices[resp.IP] = resp.DeviceInfo
	after := len(s.devices)
	s.mu.Unlock()

	if after != before {
		s.logger.Debug("peer table grew", "alias", resp.Alias, "ip", resp.IP, "peers", after)
	}
}

// Devices returns a snapshot of the peer table.
func (s *Scanner) Devices() []protocol.DeviceInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]protocol.DeviceInfo, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, d)
	}
	return out
}
