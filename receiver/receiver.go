package receiver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/opd-ai/remoteiq/fec"
	"github.com/opd-ai/remoteiq/frame"
	"github.com/opd-ai/remoteiq/jitter"
	"github.com/opd-ai/remoteiq/meta"
	"github.com/opd-ai/remoteiq/queue"
	"github.com/opd-ai/remoteiq/reassembly"
	"github.com/opd-ai/remoteiq/sample"
	"github.com/opd-ai/remoteiq/transport"
	"github.com/opd-ai/remoteiq/wire"
	"github.com/sirupsen/logrus"
)

// ErrRunning is returned by Start on a started receiver.
var ErrRunning = errors.New("receiver already running")

// Receiver reconstructs a sample stream from link datagrams.
type Receiver struct {
	id  uuid.UUID
	cfg Config
	log *logrus.Entry

	pool      *frame.Pool
	reasm     *reassembly.Reassembler
	transfer  *queue.TransferQueue
	engine    *fec.Engine
	validator *meta.Validator
	buffer    *jitter.ReadBuffer

	// lifecycle serializes Start and Stop only; telemetry and reads never
	// take it, so sample rate listeners may call them during Stop.
	lifecycle sync.Mutex
	listener  atomic.Pointer[transport.Listener]
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	running   atomic.Bool
	netErr    atomic.Pointer[error]

	framesProcessed     atomic.Uint64
	framesUncorrectable atomic.Uint64
}

// New wires the pipeline without opening the socket.
func New(cfg Config) (*Receiver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid receiver config: %w", err)
	}
	cfg.Listen.DatagramSize = wire.DatagramSize(cfg.BlockBytes)

	id := uuid.New()
	log := logrus.WithField("receiver_id", id.String())

	pool := frame.NewPool(cfg.poolSize(), cfg.BlockBytes, cfg.OriginalBlocks)
	transfer := queue.NewTransferQueue()

	reasm, err := reassembly.New(reassembly.Config{
		RingSize:       cfg.RingSize,
		BlockBytes:     cfg.BlockBytes,
		OriginalBlocks: cfg.OriginalBlocks,
	}, pool, transfer)
	if err != nil {
		return nil, err
	}

	engine, err := fec.NewEngine(cfg.BlockBytes, cfg.OriginalBlocks)
	if err != nil {
		return nil, err
	}

	conv, err := sample.NewConverter(cfg.RxBits)
	if err != nil {
		return nil, err
	}
	buffer, err := jitter.NewReadBuffer(cfg.JitterDepth, conv, pool.Put)
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"function":        "receiver.New",
		"address":         cfg.Listen.Address,
		"multicast":       cfg.Listen.MulticastGroup,
		"block_bytes":     cfg.BlockBytes,
		"original_blocks": cfg.OriginalBlocks,
		"ring_size":       cfg.RingSize,
		"jitter_depth":    cfg.JitterDepth,
		"rx_bits":         cfg.RxBits,
	}).Info("Creating remote I/Q receiver")

	return &Receiver{
		id:        id,
		cfg:       cfg,
		log:       log,
		pool:      pool,
		reasm:     reasm,
		transfer:  transfer,
		engine:    engine,
		validator: meta.NewValidator(),
		buffer:    buffer,
	}, nil
}

// ID returns the instance identifier used in logs and telemetry.
func (r *Receiver) ID() uuid.UUID {
	return r.id
}

// OnSampleRateChange registers fn to run on the recovery goroutine whenever
// a validated descriptor changes the sample rate.
func (r *Receiver) OnSampleRateChange(fn meta.SampleRateFunc) {
	r.validator.OnSampleRateChange(fn)
}

// Start opens the socket and starts the network and recovery goroutines.
func (r *Receiver) Start(ctx context.Context) error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	if r.running.Load() {
		return ErrRunning
	}

	listener, err := transport.Listen(ctx, r.cfg.Listen)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"function": "Receiver.Start",
			"address":  r.cfg.Listen.Address,
			"error":    err.Error(),
		}).Error("Failed to open socket")
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.listener.Store(listener)
	r.cancel = cancel
	r.netErr.Store(nil)
	r.running.Store(true)

	r.wg.Add(2)
	go r.networkLoop(runCtx, listener)
	go r.recoveryLoop(runCtx)

	r.log.WithFields(logrus.Fields{
		"function":   "Receiver.Start",
		"local_addr": listener.LocalAddr().String(),
	}).Info("Receiver started")
	return nil
}

// Stop halts both goroutines, closes the socket and clears all buffers.
// Sample rate listeners must not call Start or Stop.
func (r *Receiver) Stop() error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	if !r.running.Load() {
		return nil
	}

	r.cancel()
	closeErr := r.listener.Load().Close()
	r.wg.Wait()

	r.reasm.Reset()
	queued := r.transfer.Clear(r.pool.Put)
	buffered := r.buffer.Clear()
	r.running.Store(false)

	r.log.WithFields(logrus.Fields{
		"function":        "Receiver.Stop",
		"queued_frames":   queued,
		"buffered_frames": buffered,
	}).Info("Receiver stopped")
	return closeErr
}

// Running reports whether the receiver is started.
func (r *Receiver) Running() bool {
	return r.running.Load()
}

// LocalAddr returns the socket address, empty when stopped.
func (r *Receiver) LocalAddr() string {
	l := r.listener.Load()
	if l == nil || !r.running.Load() {
		return ""
	}
	return l.LocalAddr().String()
}

// Err returns the error that ended the network goroutine, if any.
func (r *Receiver) Err() error {
	if p := r.netErr.Load(); p != nil {
		return *p
	}
	return nil
}

func (r *Receiver) networkLoop(ctx context.Context, listener *transport.Listener) {
	defer r.wg.Done()

	if err := listener.Serve(ctx, r.reasm.Ingest); err != nil && !errors.Is(err, transport.ErrClosed) {
		r.netErr.Store(&err)
		r.log.WithFields(logrus.Fields{
			"function": "Receiver.networkLoop",
			"error":    err.Error(),
		}).Error("Network goroutine stopped")
	}
}

func (r *Receiver) recoveryLoop(ctx context.Context) {
	defer r.wg.Done()

	for {
		f, err := r.transfer.Wait(ctx)
		if err != nil {
			return
		}
		r.processFrame(f)
	}
}

// processFrame validates, repairs and buffers one completed frame.
func (r *Receiver) processFrame(f *frame.Frame) {
	k := r.cfg.OriginalBlocks

	var own wire.MetaData
	valid := false
	if f.OriginalCount == k || f.BlockCount >= k {
		own, valid = r.validator.Validate(f)
	}

	res := r.engine.Recover(f, r.validator.RecoveryCount(f, own, valid))
	if !valid && slices.Contains(res.Recovered, 0) {
		r.validator.Validate(f)
	}

	r.framesProcessed.Add(1)
	if res.Lost > 0 {
		r.framesUncorrectable.Add(1)
	}

	r.buffer.Push(f)
}

// ReadSample returns the next sample, zero when nothing is buffered.
func (r *Receiver) ReadSample(isTx bool) sample.Sample {
	return r.buffer.ReadSample(isTx)
}

// ReadSamples fills dst and returns how many samples came from the stream.
func (r *Receiver) ReadSamples(dst []sample.Sample, isTx bool) int {
	return r.buffer.ReadSamples(dst, isTx)
}

// ResetErrorCounters zeroes the correctable and uncorrectable counters.
func (r *Receiver) ResetErrorCounters() {
	r.engine.ResetErrorCounters()
	r.framesUncorrectable.Store(0)
	r.log.WithField("function", "Receiver.ResetErrorCounters").Info("Error counters reset")
}

// ResetBlockStats restarts the per-frame block statistics.
func (r *Receiver) ResetBlockStats() {
	r.engine.ResetBlockStats()
}

// Meta returns the last validated stream descriptor.
func (r *Receiver) Meta() (wire.MetaData, bool) {
	return r.validator.Current()
}

// BufferedDuration estimates how much signal the read buffer holds.
func (r *Receiver) BufferedDuration() time.Duration {
	m, ok := r.validator.Current()
	if !ok || m.SampleRate == 0 {
		return 0
	}
	n := r.buffer.BufferedSamples()
	return time.Duration(float64(n) / float64(m.SampleRate) * float64(time.Second))
}

// OutputTimestamp estimates the capture time of the next sample read: the
// last descriptor's timestamp minus the buffered duration.
func (r *Receiver) OutputTimestamp() time.Time {
	m, ok := r.validator.Current()
	if !ok {
		return time.Time{}
	}
	return m.Timestamp().Add(-r.BufferedDuration())
}
