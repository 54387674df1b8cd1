// Package limits centralizes the size and count limits of the remote I/Q link
// and the validation functions used by configuration and constructors.
//
// # Limits
//
//   - MaxUDPPayload (65507 bytes): the largest IPv4 UDP payload. A datagram is
//     HeaderSize + BlockBytes and must fit.
//   - MinBlockBytes: block 0 has to hold a complete meta data descriptor.
//   - MaxBlocks (256): original plus recovery blocks, the block index is a byte.
//   - MinOriginalBlocks (2): block 0 carries meta data, at least one more block
//     carries samples.
//
// # Validation Functions
//
//	if err := limits.ValidateBlockBytes(cfg.BlockBytes); err != nil {
//	    // ErrOutOfRange with context
//	}
//
// Ring depths must be powers of two so that the reassembly slot of a frame
// index stays stable across the uint32 wrap.
package limits
