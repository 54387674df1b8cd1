// Package sender produces the datagrams of the remote I/Q link.
//
// Samples written to a Sender fill blocks 1 to K-1 of the current frame.
// When the frame is full, block 0 receives a sealed meta data descriptor,
// the recovery blocks are computed and all K+M blocks are sent as one
// datagram each, after which the frame index advances.
package sender
