// Package remoteiq documents the remote I/Q streaming link.
//
// A sender slices complex baseband samples into frames of K original blocks,
// protects every frame with M Cauchy Reed-Solomon recovery blocks and sends
// each block as one UDP datagram. A receiver reassembles datagrams into
// frames, recovers lost blocks, validates the stream descriptor carried in
// block 0 and exposes the samples through a jitter buffer read at the
// consumer's pace.
//
// # Getting Started
//
// Receive on the default port and read samples:
//
//	cfg := receiver.DefaultConfig()
//	rx, err := receiver.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := rx.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer rx.Stop()
//
//	buf := make([]sample.Sample, 4096)
//	n := rx.ReadSamples(buf, false)
//
// Send samples:
//
//	udp, _ := transport.NewSender(transport.SenderConfig{Address: "127.0.0.1:9090"})
//	tx, err := sender.New(sender.Config{
//	    BlockBytes:     wire.DefaultBlockBytes,
//	    OriginalBlocks: 128,
//	    RecoveryBlocks: 8,
//	    SampleBytes:    2,
//	    InputBits:      16,
//	    SampleRate:     48000,
//	}, udp)
//	tx.WriteSamples(samples)
//
// # Package Layout
//
//	wire        datagram and stream descriptor layout
//	limits      shared bounds checks
//	sample      sample width conversion
//	frame       frame buffers and their pool
//	reassembly  datagrams to frames
//	queue       unbounded frame hand-off between goroutines
//	fec         erasure recovery and error statistics
//	meta        stream descriptor validation
//	jitter      sample read buffer
//	receiver    the receiving pipeline
//	sender      the sending pipeline
//	transport   UDP unicast and multicast sockets
//	interfaces  datagram path abstractions
//	testing     lossy link simulator
//	factory     simulated or direct link selection
//	metrics     Prometheus and JSON telemetry
//	config      YAML configuration
//
// The cmd directory holds the iqreceiver and iqsender programs.
package remoteiq
