package metrics

import (
	"github.com/opd-ai/remoteiq/receiver"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "remoteiq"

// StatsSource provides telemetry snapshots.
type StatsSource interface {
	Stats() receiver.Stats
}

type metric struct {
	desc  *prometheus.Desc
	kind  prometheus.ValueType
	value func(s *receiver.Stats) float64
}

// Collector is a prometheus.Collector over a StatsSource.
type Collector struct {
	source  StatsSource
	metrics []metric
}

// NewCollector creates a collector for source.
func NewCollector(source StatsSource) *Collector {
	c := &Collector{source: source}

	counter := func(name, help string, value func(s *receiver.Stats) float64) {
		c.add(name, help, prometheus.CounterValue, value)
	}
	gauge := func(name, help string, value func(s *receiver.Stats) float64) {
		c.add(name, help, prometheus.GaugeValue, value)
	}

	counter("socket_reads_total", "Batched socket reads.",
		func(s *receiver.Stats) float64 { return float64(s.SocketReads) })
	counter("truncated_datagrams_total", "Datagrams longer than the configured size.",
		func(s *receiver.Stats) float64 { return float64(s.TruncatedDatagrams) })
	counter("datagrams_total", "Datagrams accepted by the reassembler.",
		func(s *receiver.Stats) float64 { return float64(s.Datagrams) })
	counter("malformed_datagrams_total", "Datagrams dropped for a wrong size.",
		func(s *receiver.Stats) float64 { return float64(s.MalformedDatagrams) })
	counter("duplicate_datagrams_total", "Datagrams repeating a block already held.",
		func(s *receiver.Stats) float64 { return float64(s.DuplicateDatagrams) })
	counter("frames_completed_total", "Frames handed to the recovery stage.",
		func(s *receiver.Stats) float64 { return float64(s.FramesCompleted) })
	counter("stale_transitions_total", "Reassembly slots completed by an older frame index.",
		func(s *receiver.Stats) float64 { return float64(s.StaleTransitions) })
	counter("frames_processed_total", "Frames through erasure decoding.",
		func(s *receiver.Stats) float64 { return float64(s.FramesProcessed) })
	counter("frames_uncorrectable_total", "Frames forwarded with original blocks missing.",
		func(s *receiver.Stats) float64 { return float64(s.FramesUncorrectable) })
	counter("correctable_errors_total", "Original blocks rebuilt by erasure decoding.",
		func(s *receiver.Stats) float64 { return float64(s.CorrectableErrors) })
	counter("uncorrectable_errors_total", "Original blocks lost beyond recovery.",
		func(s *receiver.Stats) float64 { return float64(s.UncorrectableErrors) })
	counter("decodes_total", "Erasure decode attempts.",
		func(s *receiver.Stats) float64 { return float64(s.Decodes) })
	counter("decode_failures_total", "Failed erasure decode attempts.",
		func(s *receiver.Stats) float64 { return float64(s.DecodeFailures) })
	counter("meta_crc_errors_total", "Stream descriptors rejected by the CRC check.",
		func(s *receiver.Stats) float64 { return float64(s.CRCErrors) })
	counter("meta_changes_total", "Changes of the stream parameters.",
		func(s *receiver.Stats) float64 { return float64(s.MetaChanges) })
	counter("samples_read_total", "Samples served to the consumer.",
		func(s *receiver.Stats) float64 { return float64(s.ReadSamplesCount) })
	counter("underruns_total", "Zero samples served for lack of data.",
		func(s *receiver.Stats) float64 { return float64(s.Underruns) })
	counter("dropped_frames_total", "Frames dropped by a full read buffer.",
		func(s *receiver.Stats) float64 { return float64(s.DroppedFrames) })

	gauge("read_buffer_size_frames", "Read buffer capacity.",
		func(s *receiver.Stats) float64 { return float64(s.QueueSize) })
	gauge("read_buffer_frames", "Frames in the read buffer.",
		func(s *receiver.Stats) float64 { return float64(s.QueueLength) })
	gauge("buffered_seconds", "Signal held in the read buffer.",
		func(s *receiver.Stats) float64 { return s.BufferedSeconds })
	gauge("transfer_queue_frames", "Frames waiting for recovery.",
		func(s *receiver.Stats) float64 { return float64(s.TransferQueueLength) })
	gauge("center_frequency_hz", "Center frequency of the stream.",
		func(s *receiver.Stats) float64 { return float64(s.CenterFrequency) })
	gauge("sample_rate", "Sample rate of the stream.",
		func(s *receiver.Stats) float64 { return float64(s.SampleRate) })
	gauge("original_blocks", "Original blocks per frame announced by the sender.",
		func(s *receiver.Stats) float64 { return float64(s.NbOriginalBlocks) })
	gauge("fec_blocks", "Recovery blocks per frame announced by the sender.",
		func(s *receiver.Stats) float64 { return float64(s.NbFECBlocks) })
	gauge("frame_blocks_avg", "Running average of blocks received per frame.",
		func(s *receiver.Stats) float64 { return s.Blocks.AvgBlocks })
	gauge("frame_blocks_min", "Fewest blocks received for a frame.",
		func(s *receiver.Stats) float64 { return float64(s.Blocks.MinBlocks) })
	gauge("running", "1 while the receiver is started.",
		func(s *receiver.Stats) float64 {
			if s.Running {
				return 1
			}
			return 0
		})

	return c
}

func (c *Collector) add(name, help string, kind prometheus.ValueType, value func(s *receiver.Stats) float64) {
	c.metrics = append(c.metrics, metric{
		desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, nil),
		kind:  kind,
		value: value,
	})
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()
	for _, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.kind, m.value(&s))
	}
}
