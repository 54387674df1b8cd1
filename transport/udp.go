package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/opd-ai/remoteiq/limits"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/ipv4"
)

// ListenConfig describes the receiving socket.
type ListenConfig struct {
	// Address is the local host:port to bind.
	Address string

	// MulticastGroup, when set, is joined and bound instead of the host part
	// of Address.
	MulticastGroup string

	// Interface names the interface used for the multicast join. Empty lets
	// the system choose.
	Interface string

	// DatagramSize is the expected datagram length. Longer datagrams are
	// truncated to DatagramSize+1 bytes so that they still fail the size
	// check downstream.
	DatagramSize int

	// ReadBuffer is the requested socket receive buffer, 0 for the default.
	ReadBuffer int

	// BatchSize is the number of datagrams read per call, 0 for the default.
	BatchSize int
}

func (c *ListenConfig) applyDefaults() {
	if c.ReadBuffer == 0 {
		c.ReadBuffer = DefaultReadBuffer
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
}

// Stats are the listener counters.
type Stats struct {
	Reads     uint64
	Datagrams uint64
	Truncated uint64
}

// Listener receives datagrams on a UDP socket.
type Listener struct {
	cfg    ListenConfig
	conn   *net.UDPConn
	pc     *ipv4.PacketConn
	msgs   []ipv4.Message
	closed atomic.Bool

	reads     atomic.Uint64
	datagrams atomic.Uint64
	truncated atomic.Uint64
}

// Listen opens the socket described by cfg.
func Listen(ctx context.Context, cfg ListenConfig) (*Listener, error) {
	cfg.applyDefaults()
	if cfg.DatagramSize <= 0 || cfg.DatagramSize > limits.MaxUDPPayload {
		return nil, fmt.Errorf("%w: datagram size %d", limits.ErrOutOfRange, cfg.DatagramSize)
	}
	if cfg.BatchSize < 1 {
		return nil, fmt.Errorf("%w: batch size %d", limits.ErrOutOfRange, cfg.BatchSize)
	}

	bindAddr, group, err := resolveBind(cfg)
	if err != nil {
		return nil, err
	}

	lc := net.ListenConfig{}
	if group != nil {
		lc.Control = reuseAddr
	}
	pconn, err := lc.ListenPacket(ctx, "udp4", bindAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", bindAddr, err)
	}
	conn := pconn.(*net.UDPConn)

	if err := conn.SetReadBuffer(cfg.ReadBuffer); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "transport.Listen",
			"read_buffer": cfg.ReadBuffer,
			"error":       err.Error(),
		}).Warn("Failed to set socket read buffer")
	}

	pc := ipv4.NewPacketConn(conn)
	if group != nil {
		if err := joinGroup(pc, cfg.Interface, group); err != nil {
			conn.Close()
			return nil, err
		}
	}

	msgs := make([]ipv4.Message, cfg.BatchSize)
	for i := range msgs {
		msgs[i].Buffers = [][]byte{make([]byte, cfg.DatagramSize+1)}
	}

	logrus.WithFields(logrus.Fields{
		"function":   "transport.Listen",
		"local_addr": conn.LocalAddr().String(),
		"multicast":  cfg.MulticastGroup,
		"interface":  cfg.Interface,
		"batch_size": cfg.BatchSize,
	}).Info("UDP listener started")

	return &Listener{
		cfg:  cfg,
		conn: conn,
		pc:   pc,
		msgs: msgs,
	}, nil
}

// resolveBind returns the address to bind and the multicast group, if any.
func resolveBind(cfg ListenConfig) (string, net.IP, error) {
	host, port, err := net.SplitHostPort(cfg.Address)
	if err != nil {
		return "", nil, fmt.Errorf("invalid listen address %q: %w", cfg.Address, err)
	}
	if cfg.MulticastGroup == "" {
		return net.JoinHostPort(host, port), nil, nil
	}

	group := net.ParseIP(cfg.MulticastGroup).To4()
	if group == nil || !group.IsMulticast() {
		return "", nil, fmt.Errorf("%w: %q", ErrNotMulticast, cfg.MulticastGroup)
	}
	return net.JoinHostPort(group.String(), port), group, nil
}

func joinGroup(pc *ipv4.PacketConn, ifName string, group net.IP) error {
	var iface *net.Interface
	if ifName != "" {
		i, err := net.InterfaceByName(ifName)
		if err != nil {
			return fmt.Errorf("multicast interface %q: %w", ifName, err)
		}
		iface = i
	}

	if err := pc.JoinGroup(iface, &net.UDPAddr{IP: group}); err != nil {
		return fmt.Errorf("failed to join multicast group %s: %w", group, err)
	}

	logrus.WithFields(logrus.Fields{
		"function":  "transport.joinGroup",
		"group":     group.String(),
		"interface": ifName,
	}).Info("Joined multicast group")
	return nil
}

// Serve reads datagrams until ctx is done or the listener is closed, calling
// handler for each one. It returns nil on a regular shutdown, including a
// Close that happens before Serve is entered.
func (l *Listener) Serve(ctx context.Context, handler DatagramHandler) error {
	if handler == nil {
		return fmt.Errorf("datagram handler cannot be nil")
	}

	for {
		if l.closed.Load() || ctx.Err() != nil {
			return nil
		}

		_ = l.conn.SetReadDeadline(time.Now().Add(pollInterval))
		n, err := l.pc.ReadBatch(l.msgs, 0)
		if err != nil {
			if l.closed.Load() || ctx.Err() != nil {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			logrus.WithFields(logrus.Fields{
				"function":   "Listener.Serve",
				"local_addr": l.conn.LocalAddr().String(),
				"error":      err.Error(),
			}).Error("UDP read failed")
			return fmt.Errorf("udp read: %w", err)
		}

		l.reads.Add(1)
		l.datagrams.Add(uint64(n))
		for i := 0; i < n; i++ {
			m := &l.msgs[i]
			if m.N > l.cfg.DatagramSize {
				l.truncated.Add(1)
			}
			handler(m.Buffers[0][:m.N])
		}
	}
}

// LocalAddr returns the bound address.
func (l *Listener) LocalAddr() net.Addr {
	return l.conn.LocalAddr()
}

// Stats returns a snapshot of the counters.
func (l *Listener) Stats() Stats {
	return Stats{
		Reads:     l.reads.Load(),
		Datagrams: l.datagrams.Load(),
		Truncated: l.truncated.Load(),
	}
}

// Close shuts the socket. A blocked Serve returns nil.
func (l *Listener) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	logrus.WithFields(logrus.Fields{
		"function":   "Listener.Close",
		"local_addr": l.conn.LocalAddr().String(),
	}).Info("Closing UDP listener")
	return l.conn.Close()
}
