// Package reassembly groups datagrams into frames.
//
// Frames are kept in a small ring of slots indexed by frameIndex mod ringSize.
// A frame is considered complete when a datagram with a different frame index
// lands in its slot; it is then pushed to the sink and the slot starts over.
// There is no sequence check across slots: a late datagram for an older frame
// index completes the newer frame held in that slot. Such backward transitions
// are counted in Stats.StaleTransitions but otherwise accepted.
package reassembly

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/opd-ai/remoteiq/frame"
	"github.com/opd-ai/remoteiq/limits"
	"github.com/opd-ai/remoteiq/wire"
	"github.com/sirupsen/logrus"
)

// Sink receives completed frames. Ownership passes with the call.
type Sink interface {
	Push(f *frame.Frame)
}

// Config describes the link geometry seen by the reassembler.
type Config struct {
	RingSize       int
	BlockBytes     int
	OriginalBlocks int
}

// Stats are the reassembler counters.
type Stats struct {
	Datagrams        uint64
	Malformed        uint64
	Duplicates       uint64
	FramesCompleted  uint64
	StaleTransitions uint64
}

// Reassembler owns the slot ring. Ingest, Flush and Reset must be called from
// a single goroutine; Stats may be read from any goroutine.
type Reassembler struct {
	cfg   Config
	mask  uint32
	slots []*frame.Frame
	pool  *frame.Pool
	sink  Sink

	datagrams        atomic.Uint64
	malformed        atomic.Uint64
	duplicates       atomic.Uint64
	framesCompleted  atomic.Uint64
	staleTransitions atomic.Uint64
}

// New creates a reassembler pushing completed frames to sink.
func New(cfg Config, pool *frame.Pool, sink Sink) (*Reassembler, error) {
	if err := limits.ValidateRingSize(cfg.RingSize); err != nil {
		return nil, fmt.Errorf("invalid reassembly config: %w", err)
	}
	if err := limits.ValidateBlockBytes(cfg.BlockBytes); err != nil {
		return nil, fmt.Errorf("invalid reassembly config: %w", err)
	}
	if err := limits.ValidateOriginalCount(cfg.OriginalBlocks); err != nil {
		return nil, fmt.Errorf("invalid reassembly config: %w", err)
	}
	if pool == nil {
		return nil, fmt.Errorf("frame pool cannot be nil")
	}
	if sink == nil {
		return nil, fmt.Errorf("sink cannot be nil")
	}

	logrus.WithFields(logrus.Fields{
		"function":        "reassembly.New",
		"ring_size":       cfg.RingSize,
		"block_bytes":     cfg.BlockBytes,
		"original_blocks": cfg.OriginalBlocks,
	}).Info("Creating frame reassembler")

	return &Reassembler{
		cfg:   cfg,
		mask:  uint32(cfg.RingSize - 1),
		slots: make([]*frame.Frame, cfg.RingSize),
		pool:  pool,
		sink:  sink,
	}, nil
}

// Ingest processes one datagram. Datagrams of the wrong size are counted and
// dropped.
func (r *Reassembler) Ingest(datagram []byte) {
	sb, err := wire.ParseSuperBlock(datagram, r.cfg.BlockBytes)
	if err != nil {
		r.malformed.Add(1)
		logrus.WithFields(logrus.Fields{
			"function": "Reassembler.Ingest",
			"size":     len(datagram),
			"error":    err.Error(),
		}).Debug("Dropping malformed datagram")
		return
	}
	r.datagrams.Add(1)

	frameIndex := sb.Header.FrameIndex
	slot := frameIndex & r.mask
	current := r.slots[slot]

	switch {
	case current == nil:
		current = r.pool.Get(frameIndex)
		r.slots[slot] = current
	case current.Index != frameIndex:
		if serialBefore(frameIndex, current.Index) {
			r.staleTransitions.Add(1)
			logrus.WithFields(logrus.Fields{
				"function":       "Reassembler.Ingest",
				"slot":           slot,
				"slot_frame":     current.Index,
				"datagram_frame": frameIndex,
			}).Debug("Late datagram completes a newer frame")
		}
		r.complete(slot)
		current = r.pool.Get(frameIndex)
		r.slots[slot] = current
	}

	if !current.Store(sb.Header, sb.Protected) {
		r.duplicates.Add(1)
	}
}

// complete hands the frame of a slot to the sink and empties the slot.
func (r *Reassembler) complete(slot uint32) {
	f := r.slots[slot]
	r.slots[slot] = nil
	if f == nil {
		return
	}

	r.framesCompleted.Add(1)
	logrus.WithFields(logrus.Fields{
		"function":       "Reassembler.complete",
		"frame_index":    f.Index,
		"block_count":    f.BlockCount,
		"original_count": f.OriginalCount,
		"recovery_count": f.RecoveryCount,
	}).Debug("Frame complete")

	r.sink.Push(f)
}

// Flush completes every pending frame in frame index order.
func (r *Reassembler) Flush() int {
	pending := make([]uint32, 0, len(r.slots))
	for slot, f := range r.slots {
		if f != nil {
			pending = append(pending, uint32(slot))
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return serialBefore(r.slots[pending[i]].Index, r.slots[pending[j]].Index)
	})

	for _, slot := range pending {
		r.complete(slot)
	}
	return len(pending)
}

// Reset recycles pending frames without completing them.
func (r *Reassembler) Reset() {
	for slot, f := range r.slots {
		if f != nil {
			r.pool.Put(f)
			r.slots[slot] = nil
		}
	}
}

// Pending returns the number of occupied slots.
func (r *Reassembler) Pending() int {
	n := 0
	for _, f := range r.slots {
		if f != nil {
			n++
		}
	}
	return n
}

// Stats returns a snapshot of the counters.
func (r *Reassembler) Stats() Stats {
	return Stats{
		Datagrams:        r.datagrams.Load(),
		Malformed:        r.malformed.Load(),
		Duplicates:       r.duplicates.Load(),
		FramesCompleted:  r.framesCompleted.Load(),
		StaleTransitions: r.staleTransitions.Load(),
	}
}

// serialBefore compares frame indices modulo 2^32 (RFC 1982 style).
func serialBefore(a, b uint32) bool {
	return a != b && int32(a-b) < 0
}
