package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/framecast-dev/framecast/internal/config"
	"github.com/framecast-dev/framecast/internal/discovery"
	"github.com/framecast-dev/framecast/internal/encoder"
	"github.com/framecast-dev/framecast/internal/logging"
	"github.com/framecast-dev/framecast/internal/metrics"
	"github.com/framecast-dev/framecast/internal/stream"
	"github.com/framecast-dev/framecast/internal/ui"
)

// Stream command and flags
var (
	target      string
	width       int
	height      int
	quality     int
	fps         int
	frameLimit  int
	inputFile   string
	metricsAddr string
	logLevel    string
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Stream frames to a receiver",
	Long: `Stream frames to a framecast receiver.

By default an animated test pattern is streamed; use --input to loop a
raw RGB24 frame file instead. When no --target is given, the first
receiver discovered over mDNS is used.

Flags left at zero fall back to the values in the configuration file.`,
	Example: `  # Stream the test pattern to a discovered receiver
  framecast-send stream

  # Stream to a fixed receiver at 15 fps
  framecast-send stream --target 192.168.4.16:6543 --fps 15

  # Loop a raw 240x320 RGB24 frame file
  framecast-send stream --input frame.rgb --width 240 --height 320

  # Expose sender metrics while streaming
  framecast-send stream --metrics-addr :9090`,
	RunE: runStream,
}

func init() {
	streamCmd.Flags().StringVar(&target, "target", "", "Receiver host:port (empty = discover via mDNS)")
	streamCmd.Flags().IntVar(&width, "width", 0, "Frame width in pixels, multiple of 8 (0 = config default)")
	streamCmd.Flags().IntVar(&height, "height", 0, "Frame height in pixels, multiple of 8 (0 = config default)")
	streamCmd.Flags().IntVar(&quality, "quality", 0, "JPEG quality 1-100 (0 = config default)")
	streamCmd.Flags().IntVar(&fps, "fps", 0, "Frames per second (0 = config default)")
	streamCmd.Flags().IntVar(&frameLimit, "frames", 0, "Stop after this many frames (0 = stream until interrupted)")
	streamCmd.Flags().StringVar(&inputFile, "input", "", "Raw RGB24 frame file to loop instead of the test pattern")
	streamCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address (disabled if not specified)")
	streamCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error; empty = silent)")
}

func runStream(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	registry, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applySenderDefaults(registry.Sender)

	if target == "" {
		target, err = discoverTarget(registry)
		if err != nil {
			fmt.Println(ui.RenderFailure("No receiver available", err, []string{
				"Check that a receiver is running: framecast-recv serve",
				"Check that mDNS traffic is allowed on the local network",
				"Pass --target host:port to skip discovery",
			}))
			return err
		}
	}

	var m *metrics.Sender
	if metricsAddr != "" {
		m = metrics.NewSender(nil)
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
			}
		}()
	}

	session, err := stream.NewSession(stream.Config{
		Target:  target,
		Width:   width,
		Height:  height,
		Quality: quality,
		Metrics: m,
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer func() { _ = session.Close() }()

	geo := session.Geometry()
	source, sourceName, err := frameSource(geo)
	if err != nil {
		return err
	}

	fmt.Println(ui.RenderCommandHeader(ui.HeaderConfig{
		Title:   "Stream",
		Command: "framecast-send stream",
		Params: map[string]string{
			"Target":   target,
			"Geometry": geo.String(),
			"Source":   sourceName,
			"Rate":     fmt.Sprintf("%d fps", fps),
		},
	}))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	sent := 0
	for frameLimit == 0 || sent < frameLimit {
		select {
		case <-sigChan:
			fmt.Println()
			fmt.Println(ui.RenderSuccess("Stream stopped", streamDetails(session, sent)))
			return nil
		case <-ticker.C:
		}

		if _, err := session.EncodeFrame(source(sent)); err != nil {
			fmt.Println(ui.RenderFailure("Stream aborted", err, []string{
				"The frame size must match the session geometry",
			}))
			return err
		}
		sent++
	}

	fmt.Println(ui.RenderSuccess("Stream finished", streamDetails(session, sent)))
	return nil
}

// applySenderDefaults fills zero-valued flags from the configuration file.
func applySenderDefaults(defaults *config.SenderConfig) {
	if target == "" {
		target = defaults.Target
	}
	if width == 0 {
		width = defaults.Width
	}
	if height == 0 {
		height = defaults.Height
	}
	if quality == 0 {
		quality = defaults.Quality
	}
	if fps <= 0 {
		fps = defaults.FPS
	}
	if fps <= 0 {
		fps = config.DefaultFPS
	}
}

// discoverTarget browses mDNS for the first receiver and remembers it in the
// configuration file.
func discoverTarget(registry *config.Registry) (string, error) {
	fmt.Println("No target configured, discovering receivers...")

	endpoints, err := discovery.NewScanner().ScanForEndpoints()
	if err != nil {
		return "", fmt.Errorf("discovery failed: %w", err)
	}
	if len(endpoints) == 0 {
		return "", fmt.Errorf("no receivers found on the local network")
	}

	endpoint := endpoints[0]
	fmt.Printf("Using %s\n", endpoint)

	registry.UpdateReceiverLastSeen(endpoint.Name, endpoint.Addr())
	if geometry := endpoint.Geometry(); geometry != "" {
		registry.SetReceiverGeometry(endpoint.Name, geometry)
	}
	if err := registry.Save(); err != nil {
		// Remembering the receiver is best-effort.
		fmt.Fprintf(os.Stderr, "warning: could not save configuration: %v\n", err)
	}

	return endpoint.Addr(), nil
}

// frameSource returns the per-tick frame producer: either the looped raw
// input file or the animated test pattern.
func frameSource(geo encoder.Geometry) (func(tick int) []byte, string, error) {
	if inputFile == "" {
		return func(tick int) []byte {
			return testPattern(geo, tick)
		}, "test pattern", nil
	}

	data, err := os.ReadFile(inputFile)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read input file: %w", err)
	}
	if len(data) != geo.FrameBytes() {
		return nil, "", fmt.Errorf("input file is %d bytes, want %d for %s RGB24",
			len(data), geo.FrameBytes(), geo)
	}
	return func(tick int) []byte {
		return data
	}, inputFile, nil
}

func streamDetails(session *stream.Session, sent int) map[string]string {
	return map[string]string{
		"Frames":     fmt.Sprintf("%d", sent),
		"Connection": session.ConnectionState().String(),
	}
}

// Discover command

var discoverTimeout time.Duration

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find receivers on the local network",
	Long: `Browse mDNS for framecast receivers and list them.

Discovered receivers are remembered in the configuration file so later
stream commands can reuse their addresses.`,
	Example: `  # Scan with the default timeout
  framecast-send discover

  # Scan longer on a slow network
  framecast-send discover --timeout 15s`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", discovery.DefaultScanTimeout, "How long to browse for receivers")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	fmt.Printf("Scanning for receivers (%s)...\n\n", discoverTimeout)

	endpoints, err := discovery.ScanForEndpoints(discoverTimeout)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	fmt.Println(ui.RenderEndpointList(endpoints))

	if len(endpoints) == 0 {
		return nil
	}

	registry, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	for _, endpoint := range endpoints {
		registry.UpdateReceiverLastSeen(endpoint.Name, endpoint.Addr())
		if geometry := endpoint.Geometry(); geometry != "" {
			registry.SetReceiverGeometry(endpoint.Name, geometry)
		}
	}
	if err := registry.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	return nil
}
