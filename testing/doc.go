// Package testing provides a simulated lossy link for deterministic tests of
// the remote I/Q link.
//
// # Overview
//
// A SimulatedLink sits in front of any interfaces.IDatagramSender and drops,
// duplicates or reorders datagrams before passing them on. Impairments are
// drawn from a seeded generator, so a given configuration always produces
// the same delivery pattern. Tests that need exact losses install a drop
// function instead, for example DropBlocks to remove chosen blocks of chosen
// frames.
//
// # Usage
//
//	sink := interfaces.SinkSender{Sink: reassembler}
//	link, err := testing.NewSimulatedLink(&interfaces.LinkConfig{
//	    UseSimulation: true,
//	    DropRate:      0.02,
//	    Seed:          42,
//	}, sink)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	link.SetDropFunc(testing.DropBlocks(map[uint32][]uint8{3: {1, 2}}))
//
// # Delivery Logs
//
// Every datagram passed to Send is recorded with its sequence number, size,
// and whether it was dropped or duplicated. Use GetDeliveryLog to inspect
// the log and ClearDeliveryLog to reset it between cases.
//
// # Thread Safety
//
// All methods on SimulatedLink are safe for concurrent use. The downstream
// sender is called with the link's lock held, so datagrams reach it one at
// a time.
package testing
