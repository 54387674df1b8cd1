package fec

import (
	"sync"

	"github.com/opd-ai/remoteiq/frame"
	"github.com/opd-ai/remoteiq/limits"
)

// statsAlpha weights the newest frame in the running averages.
const statsAlpha = 0.25

// BlockStats summarizes block reception per frame.
type BlockStats struct {
	Frames uint64

	CurBlocks int
	MinBlocks int
	AvgBlocks float64

	CurOriginal int
	MinOriginal int
	AvgOriginal float64

	CurRecovery int
	MaxRecovery int
	AvgRecovery float64
}

type blockStats struct {
	mu             sync.Mutex
	originalBlocks int
	s              BlockStats
}

func newBlockStats(originalBlocks int) *blockStats {
	return &blockStats{
		originalBlocks: originalBlocks,
		s:              initialStats(originalBlocks),
	}
}

func initialStats(originalBlocks int) BlockStats {
	return BlockStats{
		MinBlocks:   limits.MaxBlocks,
		MinOriginal: originalBlocks,
	}
}

func (bs *blockStats) record(f *frame.Frame) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	s := &bs.s
	s.CurBlocks = f.BlockCount
	s.CurOriginal = f.OriginalCount
	s.CurRecovery = f.RecoveryCount

	if f.BlockCount < s.MinBlocks {
		s.MinBlocks = f.BlockCount
	}
	if f.OriginalCount < s.MinOriginal {
		s.MinOriginal = f.OriginalCount
	}
	if f.RecoveryCount > s.MaxRecovery {
		s.MaxRecovery = f.RecoveryCount
	}

	if s.Frames == 0 {
		s.AvgBlocks = float64(f.BlockCount)
		s.AvgOriginal = float64(f.OriginalCount)
		s.AvgRecovery = float64(f.RecoveryCount)
	} else {
		s.AvgBlocks += statsAlpha * (float64(f.BlockCount) - s.AvgBlocks)
		s.AvgOriginal += statsAlpha * (float64(f.OriginalCount) - s.AvgOriginal)
		s.AvgRecovery += statsAlpha * (float64(f.RecoveryCount) - s.AvgRecovery)
	}
	s.Frames++
}

func (bs *blockStats) snapshot() BlockStats {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return bs.s
}

func (bs *blockStats) reset() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.s = initialStats(bs.originalBlocks)
}
