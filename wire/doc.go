// Package wire defines the datagram layout of the remote I/Q link.
//
// Every UDP datagram carries exactly one SuperBlock: an 8 byte header followed
// by a fixed size protected block, which is one shard of a Cauchy Reed-Solomon
// erasure code. A frame is the set of SuperBlocks sharing a frame index. The
// first K blocks of a frame are original data, the remaining ones are recovery
// blocks. Block 0 carries a MetaData stream descriptor instead of samples.
//
// # SuperBlock Layout
//
//	offset size field
//	0      4    frame index (uint32, wraps)
//	4      1    block index
//	5      1    sample bytes per I or Q component (1, 2 or 4)
//	6      1    significant bits per component
//	7      1    filler
//	8      N    protected block (N = BlockBytes)
//
// # MetaData Layout
//
//	offset size field
//	0      8    center frequency (Hz)
//	8      4    sample rate (S/s)
//	12     1    sample bytes (low nibble)
//	13     1    sample bits
//	14     1    number of original blocks
//	15     1    number of FEC blocks
//	16     2    device index
//	18     2    channel index
//	20     4    capture time, seconds
//	24     4    capture time, microseconds
//	28     4    CRC-32 of bytes 0..27
//
// All multi-byte integers are little-endian, matching the packed C structures
// emitted by existing senders.
//
// Parsing functions in this package never validate stream semantics; they only
// check sizes. The CRC of a MetaData is checked by VerifyMetaData.
package wire
