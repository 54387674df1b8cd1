package limits

import (
	"errors"
	"fmt"

	"github.com/opd-ai/remoteiq/wire"
)

const (
	// MaxUDPPayload is the largest payload of an IPv4 UDP datagram.
	MaxUDPPayload = 65507

	// MinBlockBytes is the smallest protected block able to carry meta data.
	MinBlockBytes = wire.MetaDataSize

	// MaxBlockBytes keeps HeaderSize + BlockBytes within one UDP datagram.
	MaxBlockBytes = MaxUDPPayload - wire.HeaderSize

	// MaxBlocks bounds original + recovery blocks per frame.
	MaxBlocks = wire.MaxBlocks

	// MinOriginalBlocks is block 0 (meta) plus one sample block.
	MinOriginalBlocks = 2

	// MaxRingSize bounds the number of reassembly slots.
	MaxRingSize = 64

	// MaxJitterDepth bounds the number of processed frames held for reading.
	MaxJitterDepth = 1024
)

var (
	// ErrOutOfRange indicates a parameter outside its allowed range.
	ErrOutOfRange = errors.New("value out of range")

	// ErrNotPowerOfTwo indicates a ring depth that is not a power of two.
	ErrNotPowerOfTwo = errors.New("value is not a power of two")

	// ErrSampleSize indicates an unsupported bytes-per-component value.
	ErrSampleSize = errors.New("unsupported sample size")
)

// ValidateBlockBytes checks a protected block size.
func ValidateBlockBytes(blockBytes int) error {
	if blockBytes < MinBlockBytes || blockBytes > MaxBlockBytes {
		return fmt.Errorf("%w: block bytes %d not in [%d, %d]", ErrOutOfRange, blockBytes, MinBlockBytes, MaxBlockBytes)
	}
	return nil
}

// ValidateOriginalCount checks the number of original blocks per frame.
func ValidateOriginalCount(originalCount int) error {
	if originalCount < MinOriginalBlocks || originalCount >= MaxBlocks {
		return fmt.Errorf("%w: original count %d not in [%d, %d]", ErrOutOfRange, originalCount, MinOriginalBlocks, MaxBlocks-1)
	}
	return nil
}

// ValidateRecoveryCount checks that original + recovery blocks fit a frame.
func ValidateRecoveryCount(originalCount, recoveryCount int) error {
	if recoveryCount < 0 || originalCount+recoveryCount > MaxBlocks {
		return fmt.Errorf("%w: recovery count %d with %d original blocks exceeds %d blocks", ErrOutOfRange, recoveryCount, originalCount, MaxBlocks)
	}
	return nil
}

// ValidateRingSize checks the number of reassembly slots.
func ValidateRingSize(ringSize int) error {
	if ringSize < 1 || ringSize > MaxRingSize {
		return fmt.Errorf("%w: ring size %d not in [1, %d]", ErrOutOfRange, ringSize, MaxRingSize)
	}
	if ringSize&(ringSize-1) != 0 {
		return fmt.Errorf("%w: ring size %d", ErrNotPowerOfTwo, ringSize)
	}
	return nil
}

// ValidateJitterDepth checks the read buffer capacity.
func ValidateJitterDepth(depth int) error {
	if depth < 1 || depth > MaxJitterDepth {
		return fmt.Errorf("%w: jitter depth %d not in [1, %d]", ErrOutOfRange, depth, MaxJitterDepth)
	}
	return nil
}

// ValidateSampleBytes checks bytes per I or Q component.
func ValidateSampleBytes(sampleBytes int) error {
	switch sampleBytes {
	case 1, 2, 4:
		return nil
	default:
		return fmt.Errorf("%w: %d bytes per component", ErrSampleSize, sampleBytes)
	}
}
