package discovery

import (
	"fmt"
	"time"
)

// Endpoint represents a discovered framecast receiver on the network.
type Endpoint struct {
	// Name is the mDNS instance name (e.g., "living-room")
	Name string

	// Hostname is the mDNS hostname (e.g., "nuc.local.")
	Hostname string

	// IP is the address, IPv4 preferred (e.g., "192.168.4.16")
	IP string

	// Port is the stream TCP port (typically 6543)
	Port int

	// Metadata contains additional mDNS TXT record data
	// Common fields: "geometry=240x320", "version=0.1.0"
	Metadata map[string]string

	// DiscoveredAt is when the endpoint was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the endpoint
func (e *Endpoint) String() string {
	return fmt.Sprintf("Receiver %s (%s) at %s:%d", e.Name, e.Hostname, e.IP, e.Port)
}

// Addr returns the "host:port" stream target for the endpoint
func (e *Endpoint) Addr() string {
	return fmt.Sprintf("%s:%d", e.IP, e.Port)
}

// Geometry returns the advertised "WxH" geometry, or empty string if the
// receiver did not announce one
func (e *Endpoint) Geometry() string {
	return e.GetMetadata("geometry")
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (e *Endpoint) GetMetadata(key string) string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[key]
}
