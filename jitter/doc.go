// Package jitter buffers recovered frames between the recovery goroutine and
// the sample consumer.
//
// The buffer holds a bounded number of frames. Pushing into a full buffer
// drops the oldest frame, and reading from an empty buffer yields silence,
// so neither side ever waits for the other. Samples are read from block 1
// onwards since block 0 of every frame holds the stream descriptor.
//
// Example:
//
//	buf, err := jitter.NewReadBuffer(20, conv, pool.Put)
//	if err != nil {
//	    return err
//	}
//	s := buf.ReadSample(false)
package jitter
