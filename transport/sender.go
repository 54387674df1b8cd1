package transport

import (
	"fmt"
	"net"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/ipv4"
)

// SenderConfig describes the sending socket.
type SenderConfig struct {
	// Address is the remote host:port.
	Address string

	// MulticastTTL applies when Address is a multicast group, 0 for the
	// system default.
	MulticastTTL int

	// Interface names the outgoing interface for multicast.
	Interface string
}

// Sender writes datagrams to one remote address.
type Sender struct {
	conn   *net.UDPConn
	closed atomic.Bool
	sent   atomic.Uint64
	bytes  atomic.Uint64
}

// NewSender connects a UDP socket to cfg.Address.
func NewSender(cfg SenderConfig) (*Sender, error) {
	raddr, err := net.ResolveUDPAddr("udp4", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid destination %q: %w", cfg.Address, err)
	}
	conn, err := net.DialUDP("udp4", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", raddr, err)
	}

	if raddr.IP.IsMulticast() {
		if err := configureMulticast(ipv4.NewPacketConn(conn), cfg); err != nil {
			conn.Close()
			return nil, err
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":    "transport.NewSender",
		"remote_addr": raddr.String(),
		"local_addr":  conn.LocalAddr().String(),
	}).Info("UDP sender ready")

	return &Sender{conn: conn}, nil
}

func configureMulticast(pc *ipv4.PacketConn, cfg SenderConfig) error {
	if cfg.MulticastTTL > 0 {
		if err := pc.SetMulticastTTL(cfg.MulticastTTL); err != nil {
			return fmt.Errorf("failed to set multicast TTL: %w", err)
		}
	}
	if err := pc.SetMulticastLoopback(true); err != nil {
		return fmt.Errorf("failed to enable multicast loopback: %w", err)
	}
	if cfg.Interface != "" {
		iface, err := net.InterfaceByName(cfg.Interface)
		if err != nil {
			return fmt.Errorf("multicast interface %q: %w", cfg.Interface, err)
		}
		if err := pc.SetMulticastInterface(iface); err != nil {
			return fmt.Errorf("failed to set multicast interface: %w", err)
		}
	}
	// TOS 0x10: low delay
	return pc.SetTOS(0x10)
}

// Send writes one datagram.
func (s *Sender) Send(datagram []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	n, err := s.conn.Write(datagram)
	if err != nil {
		return fmt.Errorf("udp write: %w", err)
	}
	s.sent.Add(1)
	s.bytes.Add(uint64(n))
	return nil
}

// Sent returns the number of datagrams and bytes written.
func (s *Sender) Sent() (datagrams, bytes uint64) {
	return s.sent.Load(), s.bytes.Load()
}

// LocalAddr returns the local socket address.
func (s *Sender) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// Close shuts the socket.
func (s *Sender) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.conn.Close()
}
