package fec

import (
	"errors"
	"fmt"

	"github.com/klauspost/reedsolomon"
	"github.com/opd-ai/remoteiq/limits"
)

// ErrNoRecoveryBlocks is returned when decoding is requested for a stream
// without recovery blocks.
var ErrNoRecoveryBlocks = errors.New("no recovery blocks in stream")

func newCodec(originalBlocks, recoveryBlocks int) (reedsolomon.Encoder, error) {
	if err := limits.ValidateOriginalCount(originalBlocks); err != nil {
		return nil, err
	}
	if err := limits.ValidateRecoveryCount(originalBlocks, recoveryBlocks); err != nil {
		return nil, err
	}
	if recoveryBlocks == 0 {
		return nil, ErrNoRecoveryBlocks
	}

	codec, err := reedsolomon.New(originalBlocks, recoveryBlocks, reedsolomon.WithCauchyMatrix())
	if err != nil {
		return nil, fmt.Errorf("failed to create erasure codec K=%d M=%d: %w", originalBlocks, recoveryBlocks, err)
	}
	return codec, nil
}

// Encoder computes recovery blocks for the sending side.
type Encoder struct {
	codec          reedsolomon.Encoder
	blockBytes     int
	originalBlocks int
	recoveryBlocks int
}

// NewEncoder creates an encoder producing recoveryBlocks recovery blocks for
// originalBlocks original blocks of blockBytes bytes. With zero recovery
// blocks Encode only checks its input.
func NewEncoder(blockBytes, originalBlocks, recoveryBlocks int) (*Encoder, error) {
	if err := limits.ValidateBlockBytes(blockBytes); err != nil {
		return nil, err
	}

	e := &Encoder{
		blockBytes:     blockBytes,
		originalBlocks: originalBlocks,
		recoveryBlocks: recoveryBlocks,
	}
	if recoveryBlocks == 0 {
		if err := limits.ValidateOriginalCount(originalBlocks); err != nil {
			return nil, err
		}
		return e, nil
	}

	codec, err := newCodec(originalBlocks, recoveryBlocks)
	if err != nil {
		return nil, err
	}
	e.codec = codec
	return e, nil
}

// RecoveryBlocks returns M.
func (e *Encoder) RecoveryBlocks() int {
	return e.recoveryBlocks
}

// Encode fills shards[K:K+M] from shards[:K]. Every shard must be blockBytes
// long.
func (e *Encoder) Encode(shards [][]byte) error {
	total := e.originalBlocks + e.recoveryBlocks
	if len(shards) != total {
		return fmt.Errorf("%w: got %d shards, want %d", limits.ErrOutOfRange, len(shards), total)
	}
	for i, s := range shards {
		if len(s) != e.blockBytes {
			return fmt.Errorf("%w: shard %d is %d bytes, want %d", limits.ErrOutOfRange, i, len(s), e.blockBytes)
		}
	}
	if e.codec == nil {
		return nil
	}
	return e.codec.Encode(shards)
}
