package testing

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/opd-ai/remoteiq/interfaces"
	"github.com/opd-ai/remoteiq/wire"
	"github.com/sirupsen/logrus"
)

// DropFunc decides whether datagram number seq is lost.
type DropFunc func(seq uint64, datagram []byte) bool

// DeliveryRecord is one datagram handed to the link.
type DeliveryRecord struct {
	Seq        uint64
	Size       int
	Timestamp  int64
	Dropped    bool
	Duplicated bool
}

// LinkStats are the link counters.
type LinkStats struct {
	Sent       uint64
	Delivered  uint64
	Dropped    uint64
	Duplicated uint64
	Held       int
}

// SimulatedLink impairs datagrams on their way to the next sender.
type SimulatedLink struct {
	mu       sync.Mutex
	config   interfaces.LinkConfig
	next     interfaces.IDatagramSender
	rng      *rand.Rand
	dropFunc DropFunc
	held     [][]byte
	log      []DeliveryRecord
	stats    LinkStats
}

// NewSimulatedLink creates a link forwarding surviving datagrams to next.
func NewSimulatedLink(config *interfaces.LinkConfig, next interfaces.IDatagramSender) (*SimulatedLink, error) {
	if config == nil {
		return nil, fmt.Errorf("link config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if next == nil {
		return nil, fmt.Errorf("next sender cannot be nil")
	}

	logrus.WithFields(logrus.Fields{
		"function":       "NewSimulatedLink",
		"drop_rate":      config.DropRate,
		"duplicate_rate": config.DuplicateRate,
		"reorder_window": config.ReorderWindow,
		"seed":           config.Seed,
	}).Info("Creating simulated link")

	return &SimulatedLink{
		config: *config,
		next:   next,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}, nil
}

// SetDropFunc replaces random drops with fn. A nil fn restores them.
func (l *SimulatedLink) SetDropFunc(fn DropFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dropFunc = fn
}

// Send passes datagram through the impairments.
func (l *SimulatedLink) Send(datagram []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	seq := l.stats.Sent
	l.stats.Sent++

	rec := DeliveryRecord{Seq: seq, Size: len(datagram), Timestamp: time.Now().UnixNano()}
	if l.dropFunc != nil {
		rec.Dropped = l.dropFunc(seq, datagram)
	} else {
		rec.Dropped = l.config.DropRate > 0 && l.rng.Float64() < l.config.DropRate
	}
	if !rec.Dropped {
		rec.Duplicated = l.config.DuplicateRate > 0 && l.rng.Float64() < l.config.DuplicateRate
	}
	l.log = append(l.log, rec)

	if rec.Dropped {
		l.stats.Dropped++
		logrus.WithFields(logrus.Fields{
			"function": "SimulatedLink.Send",
			"seq":      seq,
			"size":     len(datagram),
		}).Debug("Simulated datagram loss")
		return nil
	}

	data := append([]byte(nil), datagram...)
	if err := l.deliver(data); err != nil {
		return err
	}
	if rec.Duplicated {
		l.stats.Duplicated++
		return l.deliver(data)
	}
	return nil
}

// deliver forwards data, holding it back first when reordering.
func (l *SimulatedLink) deliver(data []byte) error {
	if l.config.ReorderWindow == 0 {
		return l.forward(data)
	}

	l.held = append(l.held, data)
	if len(l.held) <= l.config.ReorderWindow {
		return nil
	}
	i := l.rng.Intn(len(l.held))
	out := l.held[i]
	l.held = append(l.held[:i], l.held[i+1:]...)
	return l.forward(out)
}

func (l *SimulatedLink) forward(data []byte) error {
	if err := l.next.Send(data); err != nil {
		return fmt.Errorf("simulated link forward: %w", err)
	}
	l.stats.Delivered++
	return nil
}

// Flush releases every held datagram in shuffled order.
func (l *SimulatedLink) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	held := l.held
	l.held = nil
	l.rng.Shuffle(len(held), func(i, j int) { held[i], held[j] = held[j], held[i] })
	for _, d := range held {
		if err := l.forward(d); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes held datagrams and closes the next sender.
func (l *SimulatedLink) Close() error {
	if err := l.Flush(); err != nil {
		return err
	}
	return l.next.Close()
}

// IsSimulation returns true.
func (l *SimulatedLink) IsSimulation() bool {
	return true
}

// GetDeliveryLog returns a copy of the delivery log.
func (l *SimulatedLink) GetDeliveryLog() []DeliveryRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]DeliveryRecord(nil), l.log...)
}

// ClearDeliveryLog empties the delivery log.
func (l *SimulatedLink) ClearDeliveryLog() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log = nil
}

// GetStats returns the link counters.
func (l *SimulatedLink) GetStats() LinkStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.stats
	s.Held = len(l.held)
	return s
}

// DropBlocks returns a DropFunc losing the listed block indices of the listed
// frame indices.
func DropBlocks(drops map[uint32][]uint8) DropFunc {
	set := make(map[uint32]map[uint8]bool, len(drops))
	for frameIndex, blocks := range drops {
		set[frameIndex] = make(map[uint8]bool, len(blocks))
		for _, b := range blocks {
			set[frameIndex][b] = true
		}
	}

	return func(_ uint64, datagram []byte) bool {
		h, err := wire.ParseHeader(datagram)
		if err != nil {
			return false
		}
		return set[h.FrameIndex][h.BlockIndex]
	}
}
