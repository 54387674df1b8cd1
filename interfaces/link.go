package interfaces

import (
	"errors"
	"fmt"

	"github.com/opd-ai/remoteiq/sample"
)

// IDatagramSender sends link datagrams.
type IDatagramSender interface {
	// Send transmits one datagram. The slice may be reused after the call.
	Send(datagram []byte) error

	// Close releases the underlying resources.
	Close() error
}

// IDatagramSink consumes received datagrams.
type IDatagramSink interface {
	// Ingest processes one datagram. The slice is only valid during the call.
	Ingest(datagram []byte)
}

// ISampleSource serves reconstructed samples to a consumer.
type ISampleSource interface {
	// ReadSample returns the next sample, zero when none is buffered.
	ReadSample(isTx bool) sample.Sample

	// ReadSamples fills dst and returns the number of buffered samples used.
	ReadSamples(dst []sample.Sample, isTx bool) int
}

// SinkSender delivers sent datagrams straight to a sink.
type SinkSender struct {
	Sink IDatagramSink
}

// Send hands a copy of datagram to the sink.
func (s SinkSender) Send(datagram []byte) error {
	if s.Sink == nil {
		return errors.New("sink sender has no sink")
	}
	s.Sink.Ingest(append([]byte(nil), datagram...))
	return nil
}

// Close does nothing.
func (s SinkSender) Close() error {
	return nil
}

var (
	// ErrInvalidRate indicates a probability outside [0, 1].
	ErrInvalidRate = errors.New("rate must be between 0 and 1")

	// ErrInvalidReorderWindow indicates a negative reorder window.
	ErrInvalidReorderWindow = errors.New("reorder window cannot be negative")
)

// LinkConfig holds the impairments of a simulated link.
type LinkConfig struct {
	// UseSimulation routes datagrams through the simulator.
	UseSimulation bool

	// DropRate is the probability of losing a datagram.
	DropRate float64

	// DuplicateRate is the probability of delivering a datagram twice.
	DuplicateRate float64

	// ReorderWindow holds up to this many datagrams back and releases them
	// in shuffled order; 0 keeps the order.
	ReorderWindow int

	// Seed makes impairments reproducible.
	Seed int64
}

// Validate checks the configuration fields.
func (c *LinkConfig) Validate() error {
	if c.DropRate < 0 || c.DropRate > 1 {
		return fmt.Errorf("%w: drop rate %v", ErrInvalidRate, c.DropRate)
	}
	if c.DuplicateRate < 0 || c.DuplicateRate > 1 {
		return fmt.Errorf("%w: duplicate rate %v", ErrInvalidRate, c.DuplicateRate)
	}
	if c.ReorderWindow < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidReorderWindow, c.ReorderWindow)
	}
	return nil
}

// Impaired reports whether the configuration changes anything.
func (c *LinkConfig) Impaired() bool {
	return c.DropRate > 0 || c.DuplicateRate > 0 || c.ReorderWindow > 0
}
