package watch

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/metergrid/moded/internal/discovery"
)

// Run resolves the feed URL and drives the TUI until the user quits.
// When url is empty the local network is browsed for an announced
// collector first.
func Run(url string, scanTimeout time.Duration) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("moded-watch requires an interactive terminal (use moded-analyze for pipelines)")
	}

	if url == "" {
		resolved, err := resolveFeed(scanTimeout)
		if err != nil {
			return err
		}
		url = resolved
	}

	p := tea.NewProgram(NewModel(url), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	return nil
}

// resolveFeed browses mDNS for a collector announcing a feed.
func resolveFeed(timeout time.Duration) (string, error) {
	fmt.Fprintf(os.Stderr, "No feed URL given, browsing the local network (%s)...\n", timeout)

	scanner := discovery.NewScanner()
	scanner.Timeout = timeout

	collector, err := scanner.FindFirst(context.Background())
	if err != nil {
		return "", fmt.Errorf("no collector found: %w (pass --url to skip discovery)", err)
	}

	url := collector.FeedURL()
	if url == "" {
		return "", fmt.Errorf("collector %q announces no websocket feed", collector.Instance)
	}

	fmt.Fprintf(os.Stderr, "Found %s\n", collector)
	return url, nil
}
