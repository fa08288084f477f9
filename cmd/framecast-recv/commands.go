package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/framecast-dev/framecast/internal/config"
	"github.com/framecast-dev/framecast/internal/discovery"
	"github.com/framecast-dev/framecast/internal/logging"
	"github.com/framecast-dev/framecast/internal/metrics"
	"github.com/framecast-dev/framecast/internal/receiver"
	"github.com/framecast-dev/framecast/internal/version"
)

// Serve command and flags
var (
	host        string
	port        int
	viewerPort  int
	width       int
	height      int
	name        string
	noAdvertise bool
	logLevel    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stream receiver",
	Long: `Start the framecast receiver.

The receiver listens for one sender at a time on the stream port and
serves the reconstructed canvas on the viewer port. Unless disabled, it
announces itself over mDNS as a "_framecast._tcp" service so senders
can discover it.

Flags left at zero fall back to the values in the configuration file.`,
	Example: `  # Start with config-file (or built-in) defaults
  framecast-recv serve

  # Custom geometry and ports
  framecast-recv serve --width 480 --height 640 --port 7000 --viewer-port 8090

  # Run without announcing over mDNS
  framecast-recv serve --no-advertise --log-level info`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&host, "host", "", "Listen hostname (empty = all interfaces)")
	serveCmd.Flags().IntVar(&port, "port", 0, "Stream TCP port (0 = config default)")
	serveCmd.Flags().IntVar(&viewerPort, "viewer-port", 0, "HTTP viewer/metrics port (0 = config default)")
	serveCmd.Flags().IntVar(&width, "width", 0, "Expected frame width, multiple of 8 (0 = config default)")
	serveCmd.Flags().IntVar(&height, "height", 0, "Expected frame height, multiple of 8 (0 = config default)")
	serveCmd.Flags().StringVar(&name, "name", "", "mDNS instance name (empty = hostname)")
	serveCmd.Flags().BoolVar(&noAdvertise, "no-advertise", false, "Do not announce the receiver over mDNS")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error; empty = silent)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	registry, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyReceiverDefaults(registry.Receiver)

	m := metrics.NewReceiver(nil)

	recv, err := receiver.New(&receiver.Config{
		Host:    host,
		Port:    port,
		Width:   width,
		Height:  height,
		Metrics: m,
	})
	if err != nil {
		return fmt.Errorf("failed to create receiver: %w", err)
	}

	// Viewer HTTP server: websocket snapshots, metrics, health.
	viewer := receiver.NewViewer(recv.Canvas(), m)
	viewerAddr := fmt.Sprintf("%s:%d", host, viewerPort)
	go func() {
		if err := http.ListenAndServe(viewerAddr, viewer.Handler()); err != nil {
			fmt.Fprintf(os.Stderr, "viewer server: %v\n", err)
		}
	}()

	if !noAdvertise {
		geometry := fmt.Sprintf("%dx%d", width, height)
		announcement, err := discovery.Advertise(instanceName(), port, geometry, version.Version)
		if err != nil {
			// mDNS is a convenience; a receiver that cannot announce is
			// still reachable by address.
			fmt.Fprintf(os.Stderr, "warning: mDNS announce failed: %v\n", err)
		} else {
			defer announcement.Shutdown()
		}
	}

	fmt.Printf("framecast-recv %s listening on %s:%d (viewer on %s)\n",
		version.Version, host, port, viewerAddr)

	return recv.Start()
}

// applyReceiverDefaults fills zero-valued flags from the configuration file.
func applyReceiverDefaults(defaults *config.ReceiverConfig) {
	if port == 0 {
		port = defaults.ListenPort
	}
	if viewerPort == 0 {
		viewerPort = defaults.ViewerPort
	}
	if width == 0 {
		width = defaults.Width
	}
	if height == 0 {
		height = defaults.Height
	}
	if name == "" {
		name = defaults.Name
	}
	if !noAdvertise {
		noAdvertise = !defaults.Advertise
	}
}

// instanceName returns the configured mDNS name, falling back to the host's
// name.
func instanceName() string {
	if name != "" {
		return name
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		return hostname
	}
	return "framecast"
}
