package limits

import (
	"errors"
	"testing"

	"github.com/opd-ai/remoteiq/wire"
)

// TestMaxBlockBytesFitsDatagram verifies that the largest block still fits a UDP payload
func TestMaxBlockBytesFitsDatagram(t *testing.T) {
	if wire.DatagramSize(MaxBlockBytes) != MaxUDPPayload {
		t.Errorf("DatagramSize(MaxBlockBytes) = %d, want %d", wire.DatagramSize(MaxBlockBytes), MaxUDPPayload)
	}
}

// TestValidateBlockBytes tests the block size validation function
func TestValidateBlockBytes(t *testing.T) {
	tests := []struct {
		name       string
		blockBytes int
		wantErr    error
	}{
		{name: "default", blockBytes: wire.DefaultBlockBytes, wantErr: nil},
		{name: "minimum", blockBytes: MinBlockBytes, wantErr: nil},
		{name: "maximum", blockBytes: MaxBlockBytes, wantErr: nil},
		{name: "too small for meta", blockBytes: MinBlockBytes - 1, wantErr: ErrOutOfRange},
		{name: "too large", blockBytes: MaxBlockBytes + 1, wantErr: ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBlockBytes(tt.blockBytes)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateBlockBytes(%d) error = %v, wantErr %v", tt.blockBytes, err, tt.wantErr)
			}
		})
	}
}

// TestValidateCounts tests original and recovery count validation
func TestValidateCounts(t *testing.T) {
	if err := ValidateOriginalCount(wire.DefaultOriginalBlocks); err != nil {
		t.Errorf("default original count rejected: %v", err)
	}
	if err := ValidateOriginalCount(1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("original count 1 accepted")
	}
	if err := ValidateOriginalCount(MaxBlocks); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("original count %d accepted", MaxBlocks)
	}
	if err := ValidateRecoveryCount(128, 128); err != nil {
		t.Errorf("128+128 rejected: %v", err)
	}
	if err := ValidateRecoveryCount(128, 129); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("128+129 accepted")
	}
	if err := ValidateRecoveryCount(16, -1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("negative recovery count accepted")
	}
}

// TestValidateRingSize tests the power of two rule
func TestValidateRingSize(t *testing.T) {
	tests := []struct {
		size    int
		wantErr error
	}{
		{1, nil},
		{4, nil},
		{64, nil},
		{0, ErrOutOfRange},
		{3, ErrNotPowerOfTwo},
		{12, ErrNotPowerOfTwo},
		{128, ErrOutOfRange},
	}

	for _, tt := range tests {
		if err := ValidateRingSize(tt.size); !errors.Is(err, tt.wantErr) {
			t.Errorf("ValidateRingSize(%d) error = %v, wantErr %v", tt.size, err, tt.wantErr)
		}
	}
}

// TestValidateSampleBytes tests the supported component sizes
func TestValidateSampleBytes(t *testing.T) {
	for _, n := range []int{1, 2, 4} {
		if err := ValidateSampleBytes(n); err != nil {
			t.Errorf("ValidateSampleBytes(%d) = %v", n, err)
		}
	}
	for _, n := range []int{0, 3, 8} {
		if err := ValidateSampleBytes(n); !errors.Is(err, ErrSampleSize) {
			t.Errorf("ValidateSampleBytes(%d) accepted", n)
		}
	}
}

// TestValidateJitterDepth tests the read buffer bounds
func TestValidateJitterDepth(t *testing.T) {
	if err := ValidateJitterDepth(20); err != nil {
		t.Errorf("jitter depth 20 rejected: %v", err)
	}
	if err := ValidateJitterDepth(0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("jitter depth 0 accepted")
	}
}
