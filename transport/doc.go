// Package transport moves link datagrams over UDP.
//
// A Listener binds a unicast or multicast address and drains every pending
// datagram on each wakeup with batched reads, handing each one to a
// DatagramHandler on the reading goroutine. A Sender writes datagrams to one
// remote address.
//
// Example:
//
//	l, err := transport.Listen(ctx, transport.ListenConfig{
//	    Address:      ":9090",
//	    DatagramSize: wire.DatagramSize(wire.DefaultBlockBytes),
//	})
//	if err != nil {
//	    return err
//	}
//	defer l.Close()
//	err = l.Serve(ctx, reassembler.Ingest)
//
// Multicast listeners set MulticastGroup and optionally Interface; the socket
// is bound to the group address with address reuse enabled so that several
// receivers on one host can share a stream.
//
// Read errors other than a closed socket are logged and returned from Serve.
// The handler is never called concurrently.
package transport
