// Package interfaces defines the contracts between the stages of the remote
// I/Q link so that real sockets and simulated links can be swapped.
//
// # Core Interfaces
//
// [IDatagramSender] is the sending end of a link. The UDP sender in the
// transport package and the lossy link simulator in the testing package both
// implement it, and they can be chained:
//
//	udp, err := transport.NewSender(transport.SenderConfig{Address: "239.1.2.3:9090"})
//	if err != nil {
//	    return err
//	}
//	link := testing.NewSimulatedLink(&interfaces.LinkConfig{DropRate: 0.05}, udp)
//	s, err := sender.New(sender.Config{...}, link)
//
// [IDatagramSink] is the receiving end; the frame reassembler implements it.
// [SinkSender] turns a sink into a sender for in-memory pipelines.
//
// [ISampleSource] is what a downstream consumer pulls samples from; the
// receiver implements it and never blocks in ReadSample.
//
// # Configuration
//
// [LinkConfig] selects simulation and its impairments. Validate reports the
// first invalid field with a sentinel error:
//
//	cfg := &interfaces.LinkConfig{UseSimulation: true, DropRate: 0.1, Seed: 1}
//	if err := cfg.Validate(); errors.Is(err, interfaces.ErrInvalidRate) {
//	    // rates must lie in [0, 1]
//	}
package interfaces
