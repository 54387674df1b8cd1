// Package receiver assembles the remote I/Q receive pipeline.
//
// A Receiver owns two goroutines while started. The network goroutine reads
// datagrams and feeds the frame reassembler, which is the only writer of the
// reassembly ring. Completed frames travel through the transfer queue to the
// recovery goroutine, which validates the stream descriptor, runs erasure
// decoding and pushes the frame into the read buffer. Consumers call
// ReadSample or ReadSamples from any goroutine; those calls never block on
// the network.
//
// # Lifecycle
//
//	r, err := receiver.New(receiver.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	r.OnSampleRateChange(func(oldRate, newRate uint32) {
//	    // reconfigure the consumer
//	})
//	if err := r.Start(ctx); err != nil {
//	    return err
//	}
//	defer r.Stop()
//
// Stop cancels both goroutines, closes the socket, waits for them and clears
// every buffer. A stopped receiver can be started again.
//
// # Telemetry
//
// Stats returns a snapshot of every counter in the pipeline. Counters are
// read atomically without stopping the pipeline, so a snapshot is not
// guaranteed to be mutually consistent.
package receiver
