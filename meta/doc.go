// Package meta tracks the stream descriptor carried in block 0 of every frame.
//
// A Validator checks the CRC of each retrieved descriptor, keeps the last
// valid one and tells registered listeners when the sample rate changes. A
// descriptor failing its CRC is counted and ignored; the samples of its frame
// are still delivered.
package meta
