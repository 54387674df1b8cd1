package fec

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/klauspost/reedsolomon"
	"github.com/opd-ai/remoteiq/frame"
	"github.com/opd-ai/remoteiq/limits"
	"github.com/sirupsen/logrus"
)

// Result describes what Recover did with one frame.
type Result struct {
	// Recovered lists the original block indices rebuilt by decoding.
	Recovered []int

	// Skipped is set when fewer than K blocks were held and no decode was
	// attempted.
	Skipped bool

	// Correctable is set when every original block is available afterwards.
	Correctable bool

	// Lost is the number of original blocks still missing.
	Lost int

	// RecoveryCount is the M used for decoding, 0 when no decode ran.
	RecoveryCount int

	// Err is the decoder error, if any.
	Err error
}

// Engine performs erasure decoding and loss accounting.
type Engine struct {
	blockBytes     int
	originalBlocks int

	mu     sync.Mutex
	codecs map[int]reedsolomon.Encoder
	stats  *blockStats

	correctable    atomic.Uint64
	uncorrectable  atomic.Uint64
	decodes        atomic.Uint64
	decodeFailures atomic.Uint64
}

// NewEngine creates an engine for frames of originalBlocks blocks of
// blockBytes bytes.
func NewEngine(blockBytes, originalBlocks int) (*Engine, error) {
	if err := limits.ValidateBlockBytes(blockBytes); err != nil {
		return nil, fmt.Errorf("invalid FEC engine config: %w", err)
	}
	if err := limits.ValidateOriginalCount(originalBlocks); err != nil {
		return nil, fmt.Errorf("invalid FEC engine config: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":        "fec.NewEngine",
		"block_bytes":     blockBytes,
		"original_blocks": originalBlocks,
	}).Info("Creating FEC recovery engine")

	return &Engine{
		blockBytes:     blockBytes,
		originalBlocks: originalBlocks,
		codecs:         make(map[int]reedsolomon.Encoder),
		stats:          newBlockStats(originalBlocks),
	}, nil
}

// OriginalBlocks returns K.
func (e *Engine) OriginalBlocks() int {
	return e.originalBlocks
}

// codec returns a cached codec for M recovery blocks.
func (e *Engine) codec(recoveryBlocks int) (reedsolomon.Encoder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := e.codecs[recoveryBlocks]; ok {
		return c, nil
	}
	c, err := newCodec(e.originalBlocks, recoveryBlocks)
	if err != nil {
		return nil, err
	}
	e.codecs[recoveryBlocks] = c
	return c, nil
}

// Recover rebuilds the missing original blocks of f in place. recoveryCount
// is the stream's M; it is raised when f holds a recovery block beyond it.
func (e *Engine) Recover(f *frame.Frame, recoveryCount int) Result {
	e.stats.record(f)

	k := e.originalBlocks
	missing := k - f.OriginalCount
	if missing <= 0 {
		return Result{Correctable: true}
	}

	if f.BlockCount < k {
		shortfall := k - f.BlockCount
		e.uncorrectable.Add(uint64(shortfall))
		logrus.WithFields(logrus.Fields{
			"function":       "Engine.Recover",
			"frame_index":    f.Index,
			"block_count":    f.BlockCount,
			"original_count": f.OriginalCount,
			"shortfall":      shortfall,
		}).Debug("Not enough blocks to decode frame")
		return Result{Skipped: true, Lost: missing}
	}

	if seen := f.MaxBlockIndex + 1 - k; seen > recoveryCount {
		recoveryCount = seen
	}

	result := Result{RecoveryCount: recoveryCount, Lost: missing}
	codec, err := e.codec(recoveryCount)
	if err != nil {
		return e.fail(f, result, err)
	}

	shards, _ := f.Shards(k + recoveryCount)
	e.decodes.Add(1)
	if err := codec.ReconstructData(shards); err != nil {
		return e.fail(f, result, err)
	}

	result.Recovered = make([]int, 0, missing)
	for i := 0; i < k; i++ {
		if !f.Has(i) {
			f.Restore(i, shards[i])
			result.Recovered = append(result.Recovered, i)
		}
	}
	result.Correctable = true
	result.Lost = 0
	e.correctable.Add(uint64(len(result.Recovered)))

	logrus.WithFields(logrus.Fields{
		"function":       "Engine.Recover",
		"frame_index":    f.Index,
		"block_count":    f.BlockCount,
		"original_count": f.OriginalCount,
		"recovery_count": f.RecoveryCount,
		"recovered":      len(result.Recovered),
	}).Debug("Frame decoded")

	return result
}

func (e *Engine) fail(f *frame.Frame, result Result, err error) Result {
	e.decodeFailures.Add(1)
	e.uncorrectable.Add(uint64(result.Lost))
	result.Err = err

	logrus.WithFields(logrus.Fields{
		"function":       "Engine.Recover",
		"frame_index":    f.Index,
		"block_count":    f.BlockCount,
		"original_count": f.OriginalCount,
		"recovery_count": result.RecoveryCount,
		"error":          err.Error(),
	}).Warn("FEC decode failed")

	return result
}

// CorrectableErrors returns the number of original blocks rebuilt so far.
func (e *Engine) CorrectableErrors() uint64 {
	return e.correctable.Load()
}

// UncorrectableErrors returns the number of original blocks lost so far.
func (e *Engine) UncorrectableErrors() uint64 {
	return e.uncorrectable.Load()
}

// Decodes returns the number of decode attempts.
func (e *Engine) Decodes() uint64 {
	return e.decodes.Load()
}

// DecodeFailures returns the number of failed decode attempts.
func (e *Engine) DecodeFailures() uint64 {
	return e.decodeFailures.Load()
}

// ResetErrorCounters zeroes the error counters.
func (e *Engine) ResetErrorCounters() {
	e.correctable.Store(0)
	e.uncorrectable.Store(0)
	e.decodeFailures.Store(0)
}

// BlockStats returns the per-frame block statistics.
func (e *Engine) BlockStats() BlockStats {
	return e.stats.snapshot()
}

// ResetBlockStats restarts the per-frame block statistics.
func (e *Engine) ResetBlockStats() {
	e.stats.reset()
}
