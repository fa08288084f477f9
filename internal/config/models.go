package config

import "time"

// Registry represents the entire user configuration file.
// This stores stream defaults and metadata about known receivers.
type Registry struct {
	Version   int                  `yaml:"version"`
	Sender    *SenderConfig        `yaml:"sender,omitempty"`
	Receiver  *ReceiverConfig      `yaml:"receiver,omitempty"`
	Receivers map[string]*Receiver `yaml:"receivers,omitempty"` // Keyed by mDNS instance name
}

// SenderConfig holds the defaults for the sending side of a stream.
type SenderConfig struct {
	Target  string `yaml:"target,omitempty"` // Receiver "host:port"; empty means discover
	Width   int    `yaml:"width"`            // Frame width in pixels, multiple of 8
	Height  int    `yaml:"height"`           // Frame height in pixels, multiple of 8
	Quality int    `yaml:"quality"`          // JPEG quality 1-100
	FPS     int    `yaml:"fps"`              // Frame production rate
}

// ReceiverConfig holds the defaults for the receiving side.
type ReceiverConfig struct {
	Name       string `yaml:"name,omitempty"` // mDNS instance name; empty means hostname
	ListenPort int    `yaml:"listen_port"`    // Stream TCP port
	ViewerPort int    `yaml:"viewer_port"`    // HTTP viewer/metrics port
	Width      int    `yaml:"width"`          // Expected frame width
	Height     int    `yaml:"height"`         // Expected frame height
	Advertise  bool   `yaml:"advertise"`      // Announce over mDNS
}

// Receiver represents metadata for a receiver seen on the network.
// This is keyed by the receiver's mDNS instance name in the Registry.
type Receiver struct {
	LastAddr string    `yaml:"last_addr,omitempty"` // Last known "host:port"
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last discovery time
	Geometry string    `yaml:"geometry,omitempty"`  // Last advertised "WxH"
}

// Defaults shared by new configurations and zero-value fills.
const (
	DefaultWidth      = 240
	DefaultHeight     = 320
	DefaultQuality    = 70
	DefaultFPS        = 30
	DefaultListenPort = 6543
	DefaultViewerPort = 8080
)

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:   1,
		Receivers: make(map[string]*Receiver),
		Sender: &SenderConfig{
			Width:   DefaultWidth,
			Height:  DefaultHeight,
			Quality: DefaultQuality,
			FPS:     DefaultFPS,
		},
		Receiver: &ReceiverConfig{
			ListenPort: DefaultListenPort,
			ViewerPort: DefaultViewerPort,
			Width:      DefaultWidth,
			Height:     DefaultHeight,
			Advertise:  true,
		},
	}
}

// GetReceiver retrieves receiver metadata by instance name.
// Returns nil if the receiver doesn't exist in the registry.
func (r *Registry) GetReceiver(name string) *Receiver {
	return r.Receivers[name]
}

// EnsureReceiver ensures a receiver entry exists in the registry.
// If the receiver doesn't exist, creates a new entry.
// Returns the entry (existing or newly created).
func (r *Registry) EnsureReceiver(name string) *Receiver {
	if r.Receivers == nil {
		r.Receivers = make(map[string]*Receiver)
	}

	if receiver, exists := r.Receivers[name]; exists {
		return receiver
	}

	receiver := &Receiver{}
	r.Receivers[name] = receiver
	return receiver
}

// UpdateReceiverLastSeen updates the last seen timestamp and address for a
// receiver.
func (r *Registry) UpdateReceiverLastSeen(name, addr string) {
	receiver := r.EnsureReceiver(name)
	receiver.LastSeen = time.Now()
	receiver.LastAddr = addr
}

// SetReceiverGeometry records the geometry a receiver last advertised.
func (r *Registry) SetReceiverGeometry(name, geometry string) {
	receiver := r.EnsureReceiver(name)
	receiver.Geometry = geometry
}
