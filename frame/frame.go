package frame

import (
	"github.com/opd-ai/remoteiq/wire"
)

// notReleased marks a frame not handed back to a Pool in its current
// generation.
const notReleased = ^uint64(0)

// Frame collects the blocks of one frame index.
type Frame struct {
	// Index is the frame index all stored blocks share.
	Index uint32

	// OriginalCount is the number of distinct original blocks received.
	OriginalCount int

	// RecoveryCount is the number of distinct recovery blocks received.
	RecoveryCount int

	// BlockCount is OriginalCount + RecoveryCount.
	BlockCount int

	// MetaRetrieved is set once block 0 is held, received or recovered.
	MetaRetrieved bool

	// SampleBytes and SampleBits describe the sample payload. They come from
	// the first header seen and are overridden by validated meta data.
	SampleBytes uint8
	SampleBits  uint8

	// MaxBlockIndex is the highest block index held, -1 when empty.
	MaxBlockIndex int

	generation     uint64
	releasedAt     uint64
	blockBytes     int
	originalBlocks int
	blocks         [wire.MaxBlocks][]byte
	present        [wire.MaxBlocks]bool
}

// New creates an empty frame for the given geometry.
func New(blockBytes, originalBlocks int) *Frame {
	return &Frame{
		MaxBlockIndex:  -1,
		releasedAt:     notReleased,
		blockBytes:     blockBytes,
		originalBlocks: originalBlocks,
	}
}

// Reset empties the frame for reuse under a new frame index. Block buffers
// are kept for reuse.
func (f *Frame) Reset(index uint32) {
	f.Index = index
	f.OriginalCount = 0
	f.RecoveryCount = 0
	f.BlockCount = 0
	f.MetaRetrieved = false
	f.SampleBytes = 0
	f.SampleBits = 0
	f.MaxBlockIndex = -1
	f.present = [wire.MaxBlocks]bool{}
	f.generation++
}

// Generation counts how many times the frame has been reset.
func (f *Frame) Generation() uint64 {
	return f.generation
}

// BlockBytes returns the protected block size.
func (f *Frame) BlockBytes() int {
	return f.blockBytes
}

// OriginalBlocks returns K, the number of original blocks per frame.
func (f *Frame) OriginalBlocks() int {
	return f.originalBlocks
}

// Store copies a received block into the frame, replacing any previous block
// at the same index. Counters only move for an index not held before; the
// return value reports whether the index was new.
func (f *Frame) Store(h wire.Header, payload []byte) bool {
	i := int(h.BlockIndex)
	if f.BlockCount == 0 {
		f.SampleBytes = h.SampleBytes
		f.SampleBits = h.SampleBits
	}

	f.copyIn(i, payload)
	if f.present[i] {
		return false
	}

	f.present[i] = true
	if i == 0 {
		f.MetaRetrieved = true
	}
	if i < f.originalBlocks {
		f.OriginalCount++
	} else {
		f.RecoveryCount++
	}
	f.BlockCount++
	if i > f.MaxBlockIndex {
		f.MaxBlockIndex = i
	}

	return true
}

// Restore writes a block rebuilt by erasure decoding. Reception counters are
// left untouched so that loss accounting still reflects what arrived.
func (f *Frame) Restore(i int, payload []byte) {
	f.copyIn(i, payload)
	f.present[i] = true
	if i == 0 {
		f.MetaRetrieved = true
	}
}

func (f *Frame) copyIn(i int, payload []byte) {
	if f.blocks[i] == nil {
		f.blocks[i] = make([]byte, f.blockBytes)
	}
	n := copy(f.blocks[i], payload)
	clear(f.blocks[i][n:])
}

// Has reports whether block i is held.
func (f *Frame) Has(i int) bool {
	return i >= 0 && i < wire.MaxBlocks && f.present[i]
}

// Block returns block i, or nil when it is missing.
func (f *Frame) Block(i int) []byte {
	if !f.Has(i) {
		return nil
	}
	return f.blocks[i]
}

// OriginalsComplete reports whether every original block is held.
func (f *Frame) OriginalsComplete() bool {
	for i := 0; i < f.originalBlocks; i++ {
		if !f.present[i] {
			return false
		}
	}
	return true
}

// Shards returns a shard slice of length total for erasure decoding. Held
// blocks alias frame storage, missing ones are nil. Blocks at or beyond total
// are left out and counted in the second return value.
func (f *Frame) Shards(total int) ([][]byte, int) {
	shards := make([][]byte, total)
	ignored := 0
	for i := 0; i <= f.MaxBlockIndex; i++ {
		if !f.present[i] {
			continue
		}
		if i >= total {
			ignored++
			continue
		}
		shards[i] = f.blocks[i]
	}
	return shards, ignored
}
