// Package frame holds the reassembly unit of the link: all blocks sharing one
// frame index.
//
// Frames are recycled through a Pool instead of being allocated per frame
// index. A Frame is owned by exactly one stage at a time: the reassembler
// while blocks arrive, the transfer queue and recovery stage once pushed, and
// the read buffer until its samples are consumed, after which it goes back to
// the Pool. Reset bumps Generation so that a stale reference can be told apart
// from the current use of the same object; Pool.Put uses it to refuse a frame
// released twice.
package frame
