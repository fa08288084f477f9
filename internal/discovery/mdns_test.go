package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantName string
		wantIP   string
		wantPort int
	}{
		{
			name: "valid receiver with IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "living-room"},
				HostName:      "nuc.local.",
				Port:          6543,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.4.16")},
				Text:          []string{"geometry=240x320", "version=0.1.0"},
			},
			wantNil:  false,
			wantName: "living-room",
			wantIP:   "192.168.4.16",
			wantPort: 6543,
		},
		{
			name: "receiver on custom port",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "bench"},
				HostName:      "bench.local",
				Port:          7000,
				AddrIPv4:      []net.IP{net.ParseIP("10.0.0.5")},
			},
			wantNil:  false,
			wantName: "bench",
			wantIP:   "10.0.0.5",
			wantPort: 7000,
		},
		{
			name: "missing instance name",
			entry: &zeroconf.ServiceEntry{
				HostName: "nuc.local.",
				Port:     6543,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "no IP address",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "ghost"},
				HostName:      "ghost.local",
				Port:          6543,
				AddrIPv4:      []net.IP{},
				AddrIPv6:      []net.IP{},
			},
			wantNil: true,
		},
		{
			name: "IPv6 only receiver",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "v6-only"},
				HostName:      "v6.local",
				Port:          6543,
				AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
			},
			wantNil:  false,
			wantName: "v6-only",
			wantIP:   "fe80::1",
			wantPort: 6543,
		},
		{
			name: "both IPv4 and IPv6 prefers IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "dual"},
				HostName:      "dual.local",
				Port:          6543,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6:      []net.IP{net.ParseIP("fe80::2")},
			},
			wantNil:  false,
			wantName: "dual",
			wantIP:   "192.168.1.50",
			wantPort: 6543,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endpoint := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if endpoint != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", endpoint)
				}
				return
			}

			if endpoint == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil endpoint")
			}

			if endpoint.Name != tt.wantName {
				t.Errorf("endpoint.Name = %v, want %v", endpoint.Name, tt.wantName)
			}

			if endpoint.IP != tt.wantIP {
				t.Errorf("endpoint.IP = %v, want %v", endpoint.IP, tt.wantIP)
			}

			if endpoint.Port != tt.wantPort {
				t.Errorf("endpoint.Port = %v, want %v", endpoint.Port, tt.wantPort)
			}

			if endpoint.Hostname != tt.entry.HostName {
				t.Errorf("endpoint.Hostname = %v, want %v", endpoint.Hostname, tt.entry.HostName)
			}

			// Check that DiscoveredAt is recent (within last second)
			if time.Since(endpoint.DiscoveredAt) > time.Second {
				t.Errorf("endpoint.DiscoveredAt is not recent: %v", endpoint.DiscoveredAt)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Metadata(t *testing.T) {
	scanner := NewScanner()

	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "living-room"},
		HostName:      "nuc.local",
		Port:          6543,
		AddrIPv4:      []net.IP{net.ParseIP("192.168.4.16")},
		Text:          []string{"geometry=240x320", "version=0.1.0", "flag"},
	}

	endpoint := scanner.parseServiceEntry(entry)
	if endpoint == nil {
		t.Fatal("parseServiceEntry() = nil, want endpoint")
	}

	expectedMetadata := map[string]string{
		"geometry": "240x320",
		"version":  "0.1.0",
		"flag":     "", // Key without value
	}

	if len(endpoint.Metadata) != len(expectedMetadata) {
		t.Errorf("endpoint.Metadata has %d entries, want %d", len(endpoint.Metadata), len(expectedMetadata))
	}

	for key, expectedValue := range expectedMetadata {
		if actualValue, ok := endpoint.Metadata[key]; !ok {
			t.Errorf("endpoint.Metadata missing key %q", key)
		} else if actualValue != expectedValue {
			t.Errorf("endpoint.Metadata[%q] = %q, want %q", key, actualValue, expectedValue)
		}
	}

	if endpoint.Geometry() != "240x320" {
		t.Errorf("endpoint.Geometry() = %q, want %q", endpoint.Geometry(), "240x320")
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner == nil {
		t.Fatal("NewScanner() = nil, want scanner")
	}

	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

// Note: Integration tests with live mDNS discovery require network access
// and should be run manually.
