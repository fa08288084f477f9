// Framecast-send streams frames to a framecast receiver.
//
// It encodes produced frames with bandwidth-adaptive modes (full, block
// delta, checkerboard subsampling) and sends them over a lazy TCP connection
// that survives receiver restarts. Receivers can be discovered over mDNS.
//
// Usage:
//
//	framecast-send [command] [flags]
//
// See 'framecast-send --help' for available commands.
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
	Use:   "framecast-send",
	Short: "Framecast Stream Sender",
	Long: `A sender for framecast display streams.

Encodes frames with bandwidth-adaptive modes and streams them to a
receiver over TCP. The connection is lazy and best-effort: frames
produced while the receiver is unreachable are dropped, and the sender
reconnects on its own schedule.

Use 'discover' to find receivers on the local network.`,
	Version: version.Version,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("framecast-send %s (commit: %s)\n", version.Version, version.Commit)
	},
}
