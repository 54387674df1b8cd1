// Package factory builds the datagram path used by a sender.
//
// A LinkFactory starts from a configured interfaces.LinkConfig, applies
// REMOTEIQ_LINK_* environment overrides and then decides, per created link,
// whether datagrams go straight to the transport or through a
// testing.SimulatedLink that drops, duplicates or reorders them.
//
// # Environment Variables
//
//	REMOTEIQ_LINK_SIMULATION  force the simulator on or off (bool)
//	REMOTEIQ_LINK_DROP        drop probability in [0, 1]
//	REMOTEIQ_LINK_DUPLICATE   duplicate probability in [0, 1]
//	REMOTEIQ_LINK_REORDER     reorder window in datagrams
//	REMOTEIQ_LINK_SEED        seed of the impairment generator
//
// Invalid values are logged and ignored.
//
// # Example
//
//	f := factory.NewLinkFactory(cfg.LinkSettings())
//	link, err := f.CreateLink(udpSender)
package factory
