// Package fec rebuilds missing original blocks of a frame with a Cauchy
// Reed-Solomon erasure code and keeps the loss accounting of the stream.
//
// A frame has K original blocks and M recovery blocks. Any K distinct blocks
// are enough to rebuild all K originals, so a frame tolerates the loss of up
// to M blocks. The Engine is used by a single recovery goroutine; its error
// counters are atomics that any goroutine may read.
//
// Loss accounting:
//
//   - all originals received: nothing is counted
//   - at least K blocks and decoding succeeds: CorrectableErrors grows by the
//     number of originals that were rebuilt
//   - fewer than K blocks: no decode is attempted and UncorrectableErrors
//     grows by K - BlockCount, the number of blocks still missing for a
//     decode. With all M recovery blocks present this equals
//     (K - M) - OriginalCount.
//   - at least K blocks but decoding fails: UncorrectableErrors grows by the
//     number of originals that stay missing
//
// The Encoder is the sending side of the same code.
package fec
