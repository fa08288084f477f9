package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type framecast receivers register
	ServiceType = "_framecast._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for endpoint discovery
	DefaultScanTimeout = 5 * time.Second
)

// Scanner handles mDNS endpoint discovery
type Scanner struct {
	// Timeout is the maximum time to wait for endpoint discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForEndpoints discovers all framecast receivers on the local network
// Returns a list of discovered endpoints or an error
func (s *Scanner) ScanForEndpoints() ([]*Endpoint, error) {
	return s.ScanForEndpointsWithContext(context.Background())
}

// ScanForEndpointsWithContext discovers endpoints with a custom context
func (s *Scanner) ScanForEndpointsWithContext(ctx context.Context) ([]*Endpoint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	endpoints := make([]*Endpoint, 0)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// Collect service entries as they arrive
	go func() {
		for entry := range entries {
			endpoint := s.parseServiceEntry(entry)
			if endpoint != nil {
				endpoints = append(endpoints, endpoint)
			}
		}
	}()

	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// Wait for context to complete (timeout or cancellation)
	<-ctx.Done()

	return endpoints, nil
}

// WaitForEndpoint waits for a specific receiver by instance name
// Returns the endpoint or an error if not found within timeout
func (s *Scanner) WaitForEndpoint(name string) (*Endpoint, error) {
	return s.WaitForEndpointWithContext(context.Background(), name)
}

// WaitForEndpointWithContext waits for a specific endpoint with a custom context
func (s *Scanner) WaitForEndpointWithContext(ctx context.Context, name string) (*Endpoint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	endpointChan := make(chan *Endpoint, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			endpoint := s.parseServiceEntry(entry)
			if endpoint != nil && endpoint.Name == name {
				endpointChan <- endpoint
				cancel() // Found the receiver, cancel context
				return
			}
		}
	}()

	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case endpoint := <-endpointChan:
		return endpoint, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("receiver %q not found within timeout", name)
	}
}

// parseServiceEntry converts a zeroconf service entry to an Endpoint
// Returns nil if the entry is unusable (no name or no address)
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Endpoint {
	if entry.Instance == "" {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	// Parse TXT records ("key=value" or bare keys) into metadata
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	return &Endpoint{
		Name:         entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// ScanForEndpoints is a convenience function to scan with a custom timeout
func ScanForEndpoints(timeout time.Duration) ([]*Endpoint, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForEndpoints()
}

// Announcement is a live mDNS registration of a receiver. Shutdown withdraws it.
type Announcement struct {
	server *zeroconf.Server
}

// Shutdown withdraws the announcement from the network
func (a *Announcement) Shutdown() {
	if a.server != nil {
		a.server.Shutdown()
	}
}

// Advertise registers a receiver on the local network. The geometry is
// announced as a "WxH" TXT record so senders can validate before connecting.
func Advertise(name string, port int, geometry string, version string) (*Announcement, error) {
	txt := []string{
		fmt.Sprintf("geometry=%s", geometry),
		fmt.Sprintf("version=%s", version),
	}
	server, err := zeroconf.Register(name, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	return &Announcement{server: server}, nil
}
