package transport

import (
	"errors"
	"time"
)

// DatagramHandler processes one received datagram. The slice is only valid
// during the call.
type DatagramHandler func(datagram []byte)

const (
	// DefaultBatchSize is the number of datagrams read per system call.
	DefaultBatchSize = 64

	// DefaultReadBuffer is the requested socket receive buffer in bytes.
	DefaultReadBuffer = 4 << 20

	// pollInterval bounds how long a read blocks before the context is checked.
	pollInterval = 250 * time.Millisecond
)

var (
	// ErrClosed is returned when sending on a closed Sender.
	ErrClosed = errors.New("transport closed")

	// ErrNotMulticast is returned when MulticastGroup is not an IPv4 multicast
	// address.
	ErrNotMulticast = errors.New("not an IPv4 multicast group")
)
