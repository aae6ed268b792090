// Moded-watch is a live terminal viewer for a collector's telegram feed.
//
// It subscribes to the websocket feed served by moded-server and renders
// decoded telegrams as they arrive. Without a --url flag it browses the
// local network for an announced collector via mDNS.
//
// Usage:
//
//	moded-watch [flags]
//
// See 'moded-watch --help' for available options.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/metergrid/moded/internal/version"
	"github.com/metergrid/moded/internal/watch"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var (
	feedURL     string
	scanTimeout int
)

var rootCmd = &cobra.Command{
	Use:   "moded-watch",
	Short: "Live view of a collector's telegram feed",
	Long: `Watch decoded telegrams arrive at a moded collector in real time.

Connects to the collector's websocket feed. When no --url is given the
local network is browsed for a collector announced via mDNS.`,
	Example: `  # Find a collector on the local network and watch its feed
  moded-watch

  # Watch a specific collector
  moded-watch --url ws://192.168.1.20:8475/stream

  # Allow more time for discovery on slow networks
  moded-watch --scan-timeout 15`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return watch.Run(feedURL, time.Duration(scanTimeout)*time.Second)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().StringVar(&feedURL, "url", "", "Websocket feed URL (skips discovery)")
	rootCmd.Flags().IntVar(&scanTimeout, "scan-timeout", 5, "mDNS discovery timeout in seconds")
}
