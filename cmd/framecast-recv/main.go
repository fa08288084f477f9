// Framecast-recv receives a framecast display stream.
//
// It accepts one sender over TCP, reassembles the bandwidth-adaptive frames
// onto a canvas, and serves the canvas to browsers as JPEG snapshots over a
// websocket. The receiver announces itself over mDNS so senders can find it
// without configuration.
//
// Usage:
//
//	framecast-recv serve [flags]
//
// See 'framecast-recv serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/framecast-dev/framecast/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "framecast-recv",
	Short: "Framecast Stream Receiver",
	Long: `A receiver for framecast display streams.

Accepts frames from one sender at a time, reconstructs the remote
display on a canvas, and serves it over HTTP: websocket JPEG snapshots
on /ws, Prometheus metrics on /metrics, and a liveness probe on
/healthz.`,
	Version: version.Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("framecast-recv %s (commit: %s)\n", version.Version, version.Commit)
	},
}
