// Package config loads the YAML configuration shared by the receiver and
// sender binaries.
//
// Load starts from Default and overlays the file, so a file only needs the
// keys it changes. Command line flags are applied on top by the binaries,
// after which Validate must pass.
//
//	receiver:
//	  address: 0.0.0.0:9090
//	  multicast_group: 239.255.10.1
//	  ring_size: 4
//	  jitter_depth: 20
//	metrics:
//	  enabled: true
//	  listen: 127.0.0.1:9091
//	logging:
//	  level: debug
//	  format: json
package config
