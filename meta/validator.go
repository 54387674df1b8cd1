package meta

import (
	"sync"
	"sync/atomic"

	"github.com/opd-ai/remoteiq/frame"
	"github.com/opd-ai/remoteiq/wire"
	"github.com/sirupsen/logrus"
)

// SampleRateFunc is called with the previous and the new sample rate.
type SampleRateFunc func(oldRate, newRate uint32)

// Validator holds the running stream state.
type Validator struct {
	mu        sync.RWMutex
	current   wire.MetaData
	hasMeta   bool
	listeners []SampleRateFunc

	validated atomic.Uint64
	crcErrors atomic.Uint64
	changes   atomic.Uint64
}

// NewValidator creates a validator without any descriptor.
func NewValidator() *Validator {
	return &Validator{}
}

// OnSampleRateChange registers fn. Listeners run on the recovery goroutine
// before the new descriptor is adopted and must not block.
func (v *Validator) OnSampleRateChange(fn SampleRateFunc) {
	if fn == nil {
		return
	}
	v.mu.Lock()
	v.listeners = append(v.listeners, fn)
	v.mu.Unlock()
}

// Validate checks the descriptor in block 0 of f. It returns the descriptor
// and true when it is present and its CRC matches, in which case the frame's
// sample format is taken from it.
func (v *Validator) Validate(f *frame.Frame) (wire.MetaData, bool) {
	if f == nil || !f.MetaRetrieved {
		return wire.MetaData{}, false
	}

	m, err := wire.VerifyMetaData(f.Block(0))
	if err != nil {
		v.crcErrors.Add(1)
		logrus.WithFields(logrus.Fields{
			"function":    "Validator.Validate",
			"frame_index": f.Index,
			"error":       err.Error(),
		}).Warn("Discarding meta data")
		return wire.MetaData{}, false
	}
	v.validated.Add(1)

	f.SampleBytes = uint8(m.BytesPerComponent())
	f.SampleBits = m.SampleBits

	v.mu.Lock()
	previous, had := v.current, v.hasMeta
	changed := !had || !previous.Equal(m)
	var listeners []SampleRateFunc
	if had && m.SampleRate != 0 && m.SampleRate != previous.SampleRate {
		listeners = append(listeners, v.listeners...)
	}
	v.mu.Unlock()

	if changed {
		v.changes.Add(1)
		logrus.WithFields(logrus.Fields{
			"function":    "Validator.Validate",
			"frame_index": f.Index,
			"meta":        m.String(),
		}).Info("New stream meta data")
	}
	for _, fn := range listeners {
		fn(previous.SampleRate, m.SampleRate)
	}

	v.mu.Lock()
	v.current = m
	v.hasMeta = true
	v.mu.Unlock()

	return m, true
}

// Current returns the last valid descriptor.
func (v *Validator) Current() (wire.MetaData, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current, v.hasMeta
}

// HasMeta reports whether a valid descriptor has been seen.
func (v *Validator) HasMeta() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.hasMeta
}

// RecoveryCount picks the number of recovery blocks to decode f with: its
// own descriptor when valid, else the last valid descriptor, else what the
// highest block index seen implies. own is the result of Validate for f.
func (v *Validator) RecoveryCount(f *frame.Frame, own wire.MetaData, ownValid bool) int {
	k := f.OriginalBlocks()
	m := 0
	switch {
	case ownValid && int(own.NbOriginalBlocks) == k:
		m = int(own.NbFECBlocks)
	default:
		if cur, ok := v.Current(); ok && int(cur.NbOriginalBlocks) == k {
			m = int(cur.NbFECBlocks)
		}
	}
	if seen := f.MaxBlockIndex + 1 - k; seen > m {
		m = seen
	}
	return m
}

// Validated returns the number of descriptors that passed the CRC check.
func (v *Validator) Validated() uint64 {
	return v.validated.Load()
}

// CRCErrors returns the number of descriptors rejected by the CRC check.
func (v *Validator) CRCErrors() uint64 {
	return v.crcErrors.Load()
}

// Changes returns how many times the stream parameters changed.
func (v *Validator) Changes() uint64 {
	return v.changes.Load()
}

// Reset forgets the current descriptor. Listeners stay registered.
func (v *Validator) Reset() {
	v.mu.Lock()
	v.current = wire.MetaData{}
	v.hasMeta = false
	v.mu.Unlock()
}
