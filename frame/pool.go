package frame

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Pool recycles frames of one geometry. Get and Put never block: an empty
// pool allocates and a full pool lets the frame go to the garbage collector.
type Pool struct {
	free           chan *Frame
	blockBytes     int
	originalBlocks int
	allocated      atomic.Uint64
	recycled       atomic.Uint64
	doubleReleases atomic.Uint64
}

// NewPool creates a pool keeping at most capacity idle frames.
func NewPool(capacity, blockBytes, originalBlocks int) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	return &Pool{
		free:           make(chan *Frame, capacity),
		blockBytes:     blockBytes,
		originalBlocks: originalBlocks,
	}
}

// Get returns an empty frame for the given frame index.
func (p *Pool) Get(index uint32) *Frame {
	var f *Frame
	select {
	case f = <-p.free:
		p.recycled.Add(1)
	default:
		f = New(p.blockBytes, p.originalBlocks)
		p.allocated.Add(1)
	}
	f.Reset(index)
	return f
}

// Put hands a frame back. The caller must not touch f afterwards. A frame put
// twice in the same generation is refused, so it can never be handed out to
// two owners.
func (p *Pool) Put(f *Frame) {
	if f == nil || f.blockBytes != p.blockBytes || f.originalBlocks != p.originalBlocks {
		return
	}
	if f.releasedAt == f.generation {
		p.doubleReleases.Add(1)
		logrus.WithFields(logrus.Fields{
			"function":    "Pool.Put",
			"frame_index": f.Index,
			"generation":  f.generation,
		}).Warn("Frame released twice")
		return
	}
	f.releasedAt = f.generation

	select {
	case p.free <- f:
	default:
	}
}

// Allocated returns the number of frames created by the pool.
func (p *Pool) Allocated() uint64 {
	return p.allocated.Load()
}

// Recycled returns the number of Get calls served from idle frames.
func (p *Pool) Recycled() uint64 {
	return p.recycled.Load()
}

// Idle returns the number of frames waiting for reuse.
func (p *Pool) Idle() int {
	return len(p.free)
}

// DoubleReleases returns the number of refused repeated Put calls.
func (p *Pool) DoubleReleases() uint64 {
	return p.doubleReleases.Load()
}
