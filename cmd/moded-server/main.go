// Moded-server is the Mode D telegram collector daemon.
//
// It accepts raw telegram byte streams from utility meters over plain TCP,
// verifies each frame's checksum, and fans decoded telegrams out to
// structured logs, an optional JSONL capture directory, and an optional
// websocket feed for live consumers.
//
// Usage:
//
//	moded-server serve [flags]
//
// See 'moded-server serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/metergrid/moded/internal/config"
	"github.com/metergrid/moded/internal/server"
	"github.com/metergrid/moded/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "moded-server",
	Short: "Mode D telegram collector",
	Long: `A collector daemon for Mode D utility meter telegrams.

Meters push line-oriented, checksum-protected telegram frames over plain
TCP. The collector decodes and verifies each frame, logs it, optionally
appends it to a JSONL capture directory, and optionally serves a live
websocket feed for consumers such as moded-watch.

Note: For decoding captured streams offline, use the separate
'moded-analyze' utility. For a live terminal view, use 'moded-watch'.`,
	Version: version.Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command and flags
var (
	configPath string
	listenPort int
	feedPort   int
	noFeed     bool
	captureDir string
	logLevel   string
	announce   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the collector",
	Long: `Start the collector and block until SIGINT or SIGTERM.

Configuration is read from the YAML config file (default location per OS,
see --config). Flags override the file. A missing file is not an error;
built-in defaults apply.`,
	Example: `  # Start with defaults (ingest on :4059, feed on :8475)
  moded-server serve

  # Custom ingest port with debug logging
  moded-server serve --listen-port 7000 --log-level debug

  # Capture decoded telegrams to a directory
  moded-server serve --capture-dir ./captures

  # Announce the collector on the local network via mDNS
  moded-server serve --announce

  # Ingest only, no websocket feed
  moded-server serve --no-feed`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default: OS config dir)")
	serveCmd.Flags().IntVar(&listenPort, "listen-port", 0, "TCP ingest port (overrides config)")
	serveCmd.Flags().IntVar(&feedPort, "feed-port", 0, "Websocket feed port (overrides config)")
	serveCmd.Flags().BoolVar(&noFeed, "no-feed", false, "Disable the websocket feed")
	serveCmd.Flags().StringVar(&captureDir, "capture-dir", "", "Directory for JSONL telegram capture (overrides config)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error; overrides config)")
	serveCmd.Flags().BoolVar(&announce, "announce", false, "Announce the collector via mDNS")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if listenPort != 0 {
		cfg.Listen.Port = listenPort
	}
	if noFeed {
		cfg.Feed.Enabled = false
	}
	if feedPort != 0 {
		if cfg.Feed == nil {
			cfg.Feed = &config.Feed{Enabled: true}
		}
		cfg.Feed.Port = feedPort
		cfg.Feed.Enabled = !noFeed
	}
	if captureDir != "" {
		info, err := os.Stat(captureDir)
		if os.IsNotExist(err) {
			return fmt.Errorf("capture directory does not exist: %s", captureDir)
		}
		if err != nil {
			return fmt.Errorf("cannot access capture directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("capture path is not a directory: %s", captureDir)
		}
		cfg.Capture = &config.Capture{Dir: captureDir}
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if announce {
		if cfg.Discovery == nil {
			cfg.Discovery = &config.Discovery{}
		}
		cfg.Discovery.Announce = true
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create collector: %w", err)
	}

	return srv.Start()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("moded-server %s (commit: %s)\n", version.Version, version.Commit)
	},
}
