// Package config provides user configuration management for framecast.
//
// This package manages a YAML-based configuration file that stores stream
// defaults for the sender and receiver commands, plus metadata about
// receivers seen via mDNS discovery. The configuration follows OS-specific
// conventions for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/framecast/config.yaml or $HOME/.config/framecast/config.yaml
//   - macOS: $HOME/.config/framecast/config.yaml
//   - Windows: %LOCALAPPDATA%\framecast\config.yaml
//
// # Usage Example
//
//	// Load the global registry
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Remember a receiver found via discovery
//	registry.UpdateReceiverLastSeen("living-room", "192.168.4.16:6543")
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
