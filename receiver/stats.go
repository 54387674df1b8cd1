package receiver

import (
	"time"

	"github.com/opd-ai/remoteiq/fec"
)

// Stats is a snapshot of the receiver telemetry.
type Stats struct {
	ReceiverID string `json:"receiverId"`
	Running    bool   `json:"running"`

	// Read buffer.
	QueueSize        int     `json:"queueSize"`
	QueueLength      int     `json:"queueLength"`
	ReadSamplesCount uint64  `json:"readSamplesCount"`
	BufferedSamples  int     `json:"bufferedSamples"`
	BufferedSeconds  float64 `json:"bufferedSeconds"`
	Underruns        uint64  `json:"underruns"`
	DroppedFrames    uint64  `json:"droppedFrames"`
	UnreadableFrames uint64  `json:"unreadableFrames"`

	// Erasure coding.
	CorrectableErrors   uint64 `json:"correctableErrors"`
	UncorrectableErrors uint64 `json:"uncorrectableErrors"`
	Decodes             uint64 `json:"decodes"`
	DecodeFailures      uint64 `json:"decodeFailures"`

	// Stream descriptor.
	HasMeta          bool      `json:"hasMeta"`
	CenterFrequency  uint64    `json:"centerFrequency"`
	SampleRate       uint32    `json:"sampleRate"`
	SampleBytes      int       `json:"sampleBytes"`
	SampleBits       int       `json:"sampleBits"`
	NbOriginalBlocks int       `json:"nbOriginalBlocks"`
	NbFECBlocks      int       `json:"nbFECBlocks"`
	MetaTimestamp    time.Time `json:"metaTimestamp"`
	OutputTimestamp  time.Time `json:"outputTimestamp"`
	CRCErrors        uint64    `json:"crcErrors"`
	MetaChanges      uint64    `json:"metaChanges"`

	// Socket.
	SocketReads        uint64 `json:"socketReads"`
	TruncatedDatagrams uint64 `json:"truncatedDatagrams"`

	// Reassembly.
	Datagrams           uint64 `json:"datagrams"`
	MalformedDatagrams  uint64 `json:"malformedDatagrams"`
	DuplicateDatagrams  uint64 `json:"duplicateDatagrams"`
	FramesCompleted     uint64 `json:"framesCompleted"`
	StaleTransitions    uint64 `json:"staleTransitions"`
	TransferQueueLength int    `json:"transferQueueLength"`
	FramesProcessed     uint64 `json:"framesProcessed"`
	FramesUncorrectable uint64 `json:"framesUncorrectable"`

	// Frame arena.
	FramesAllocated uint64 `json:"framesAllocated"`
	FramesRecycled  uint64 `json:"framesRecycled"`
	DoubleReleases  uint64 `json:"doubleReleases"`

	Blocks fec.BlockStats `json:"blocks"`
}

// Stats returns a snapshot of the pipeline counters.
func (r *Receiver) Stats() Stats {
	rs := r.reasm.Stats()
	m, hasMeta := r.validator.Current()
	buffered := r.buffer.BufferedSamples()

	s := Stats{
		ReceiverID: r.id.String(),
		Running:    r.running.Load(),

		QueueSize:        r.buffer.Size(),
		QueueLength:      r.buffer.Length(),
		ReadSamplesCount: r.buffer.ReadSampleCount(),
		BufferedSamples:  buffered,
		Underruns:        r.buffer.Underruns(),
		DroppedFrames:    r.buffer.Dropped(),
		UnreadableFrames: r.buffer.Unreadable(),

		CorrectableErrors:   r.engine.CorrectableErrors(),
		UncorrectableErrors: r.engine.UncorrectableErrors(),
		Decodes:             r.engine.Decodes(),
		DecodeFailures:      r.engine.DecodeFailures(),

		HasMeta:     hasMeta,
		CRCErrors:   r.validator.CRCErrors(),
		MetaChanges: r.validator.Changes(),

		Datagrams:           rs.Datagrams,
		MalformedDatagrams:  rs.Malformed,
		DuplicateDatagrams:  rs.Duplicates,
		FramesCompleted:     rs.FramesCompleted,
		StaleTransitions:    rs.StaleTransitions,
		TransferQueueLength: r.transfer.Len(),
		FramesProcessed:     r.framesProcessed.Load(),
		FramesUncorrectable: r.framesUncorrectable.Load(),

		FramesAllocated: r.pool.Allocated(),
		FramesRecycled:  r.pool.Recycled(),
		DoubleReleases:  r.pool.DoubleReleases(),

		Blocks: r.engine.BlockStats(),
	}

	if l := r.listener.Load(); l != nil {
		ls := l.Stats()
		s.SocketReads = ls.Reads
		s.TruncatedDatagrams = ls.Truncated
	}

	if hasMeta {
		s.CenterFrequency = m.CenterFrequency
		s.SampleRate = m.SampleRate
		s.SampleBytes = m.BytesPerComponent()
		s.SampleBits = int(m.SampleBits)
		s.NbOriginalBlocks = int(m.NbOriginalBlocks)
		s.NbFECBlocks = int(m.NbFECBlocks)
		s.MetaTimestamp = m.Timestamp()
		if m.SampleRate > 0 {
			s.BufferedSeconds = float64(buffered) / float64(m.SampleRate)
		}
		s.OutputTimestamp = s.MetaTimestamp.Add(-time.Duration(s.BufferedSeconds * float64(time.Second)))
	}

	return s
}
