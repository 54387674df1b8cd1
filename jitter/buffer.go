package jitter

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gammazero/deque"
	"github.com/opd-ai/remoteiq/frame"
	"github.com/opd-ai/remoteiq/limits"
	"github.com/opd-ai/remoteiq/sample"
	"github.com/sirupsen/logrus"
)

// DefaultDepth is the default number of buffered frames.
const DefaultDepth = 20

// ReadBuffer is a bounded FIFO of frames with a sample read cursor.
type ReadBuffer struct {
	depth   int
	conv    *sample.Converter
	recycle func(*frame.Frame)

	mu     sync.Mutex
	frames deque.Deque[*frame.Frame]
	block  int
	offset int

	pushed     atomic.Uint64
	dropped    atomic.Uint64
	unreadable atomic.Uint64
	underruns  atomic.Uint64
	readCount  atomic.Uint64
}

// NewReadBuffer creates a buffer of depth frames. Consumed and dropped frames
// are handed to recycle when it is not nil.
func NewReadBuffer(depth int, conv *sample.Converter, recycle func(*frame.Frame)) (*ReadBuffer, error) {
	if err := limits.ValidateJitterDepth(depth); err != nil {
		return nil, fmt.Errorf("invalid read buffer depth: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("sample converter cannot be nil")
	}

	logrus.WithFields(logrus.Fields{
		"function": "jitter.NewReadBuffer",
		"depth":    depth,
		"rx_bits":  conv.RxBits(),
	}).Info("Creating read buffer")

	return &ReadBuffer{
		depth:   depth,
		conv:    conv,
		recycle: recycle,
		block:   1,
	}, nil
}

// Push appends a recovered frame, dropping the oldest one when full.
func (b *ReadBuffer) Push(f *frame.Frame) {
	if f == nil {
		return
	}

	var dropped *frame.Frame
	b.mu.Lock()
	if b.frames.Len() >= b.depth {
		dropped = b.frames.PopFront()
		b.rewind()
	}
	b.frames.PushBack(f)
	b.mu.Unlock()

	b.pushed.Add(1)
	if dropped != nil {
		b.dropped.Add(1)
		logrus.WithFields(logrus.Fields{
			"function":    "ReadBuffer.Push",
			"frame_index": dropped.Index,
			"depth":       b.depth,
		}).Debug("Read buffer full, dropping oldest frame")
		b.release(dropped)
	}
}

// ReadSample returns the next sample, or a zero sample when the buffer is
// empty. isTx selects the transmit path width.
func (b *ReadBuffer) ReadSample(isTx bool) sample.Sample {
	b.mu.Lock()
	s, ok, done := b.next(isTx)
	b.mu.Unlock()

	b.release(done...)
	if !ok {
		b.underruns.Add(1)
		return sample.Sample{}
	}
	b.readCount.Add(1)
	return s
}

// ReadSamples fills dst and returns how many samples came from the buffer.
// The remaining entries are zero.
func (b *ReadBuffer) ReadSamples(dst []sample.Sample, isTx bool) int {
	var done []*frame.Frame
	n := 0

	b.mu.Lock()
	for i := range dst {
		s, ok, consumed := b.next(isTx)
		done = append(done, consumed...)
		if !ok {
			clear(dst[i:])
			break
		}
		dst[i] = s
		n++
	}
	b.mu.Unlock()

	b.release(done...)
	if n < len(dst) {
		b.underruns.Add(uint64(len(dst) - n))
	}
	b.readCount.Add(uint64(n))
	return n
}

// next reads one sample under the lock. It returns false when the buffer ran
// empty, plus the frames that were consumed on the way.
func (b *ReadBuffer) next(isTx bool) (sample.Sample, bool, []*frame.Frame) {
	var done []*frame.Frame

	for b.frames.Len() > 0 {
		f := b.frames.Front()
		stride := 2 * int(f.SampleBytes)
		perBlock := samplesPerBlock(f)
		if perBlock == 0 {
			b.frames.PopFront()
			b.rewind()
			b.unreadable.Add(1)
			done = append(done, f)
			continue
		}

		var s sample.Sample
		if blk := f.Block(b.block); blk != nil {
			s = b.conv.Decode(blk[b.offset*stride:], int(f.SampleBytes), isTx)
		}

		b.offset++
		if b.offset == perBlock {
			b.offset = 0
			b.block++
		}
		if b.block >= f.OriginalBlocks() {
			b.frames.PopFront()
			b.rewind()
			done = append(done, f)
		}
		return s, true, done
	}

	return sample.Sample{}, false, done
}

func (b *ReadBuffer) rewind() {
	b.block = 1
	b.offset = 0
}

func (b *ReadBuffer) release(frames ...*frame.Frame) {
	if b.recycle == nil {
		return
	}
	for _, f := range frames {
		b.recycle(f)
	}
}

// samplesPerBlock returns how many I/Q pairs fit in one block of f, 0 when
// the sample size is not supported.
func samplesPerBlock(f *frame.Frame) int {
	if sample.WireBits(int(f.SampleBytes)) == 0 {
		return 0
	}
	return f.BlockBytes() / (2 * int(f.SampleBytes))
}

// Size returns the capacity in frames.
func (b *ReadBuffer) Size() int {
	return b.depth
}

// Length returns the number of buffered frames.
func (b *ReadBuffer) Length() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames.Len()
}

// BufferedSamples returns the number of samples not read yet.
func (b *ReadBuffer) BufferedSamples() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := 0
	for i := 0; i < b.frames.Len(); i++ {
		f := b.frames.At(i)
		total += samplesPerBlock(f) * (f.OriginalBlocks() - 1)
	}
	if b.frames.Len() > 0 {
		total -= samplesPerBlock(b.frames.Front())*(b.block-1) + b.offset
	}
	return total
}

// ReadSampleCount returns the number of samples served from frames.
func (b *ReadBuffer) ReadSampleCount() uint64 {
	return b.readCount.Load()
}

// Underruns returns the number of zero samples returned for lack of data.
func (b *ReadBuffer) Underruns() uint64 {
	return b.underruns.Load()
}

// Dropped returns the number of frames dropped because the buffer was full.
func (b *ReadBuffer) Dropped() uint64 {
	return b.dropped.Load()
}

// Unreadable returns the number of frames skipped for an unsupported sample
// size.
func (b *ReadBuffer) Unreadable() uint64 {
	return b.unreadable.Load()
}

// Pushed returns the number of frames pushed.
func (b *ReadBuffer) Pushed() uint64 {
	return b.pushed.Load()
}

// Clear drops every buffered frame and returns how many there were.
func (b *ReadBuffer) Clear() int {
	b.mu.Lock()
	frames := make([]*frame.Frame, 0, b.frames.Len())
	for b.frames.Len() > 0 {
		frames = append(frames, b.frames.PopFront())
	}
	b.rewind()
	b.mu.Unlock()

	b.release(frames...)
	return len(frames)
}
