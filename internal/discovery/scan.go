package discovery

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

// DefaultScanTimeout is the default timeout for collector discovery
const DefaultScanTimeout = 5 * time.Second

// Collector represents a moded collector announced on the network.
type Collector struct {
	// Instance is the announced service instance name
	Instance string

	// Hostname is the mDNS hostname
	Hostname string

	// IP is the collector address (IPv4 preferred)
	IP string

	// Port is the TCP ingest port
	Port int

	// FeedPort is the websocket feed port, 0 when the feed is disabled
	FeedPort int

	// Version is the collector version from the TXT records
	Version string

	// DiscoveredAt is when the collector was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the collector.
func (c *Collector) String() string {
	return fmt.Sprintf("moded collector %q at %s:%d", c.Instance, c.IP, c.Port)
}

// FeedURL returns the websocket feed URL, or empty when the collector
// announces no feed.
func (c *Collector) FeedURL() string {
	if c.FeedPort == 0 {
		return ""
	}
	return fmt.Sprintf("ws://%s:%d/stream", c.IP, c.FeedPort)
}

// Scanner browses the local network for announced collectors.
type Scanner struct {
	// Timeout is the maximum time to wait for announcements
	Timeout time.Duration
}

// NewScanner creates a scanner with default settings.
func NewScanner() *Scanner {
	return &Scanner{Timeout: DefaultScanTimeout}
}

// Scan discovers all collectors announced on the local network.
func (s *Scanner) Scan(ctx context.Context) ([]*Collector, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	collectors := make([]*Collector, 0)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			if c := parseServiceEntry(entry); c != nil {
				collectors = append(collectors, c)
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	<-done

	return collectors, nil
}

// FindFirst returns the first collector announced on the network, or an
// error when none shows up within the scanner timeout.
func (s *Scanner) FindFirst(ctx context.Context) (*Collector, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Collector, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			if c := parseServiceEntry(entry); c != nil {
				select {
				case found <- c:
				default:
				}
				cancel()
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case c := <-found:
		return c, nil
	case <-ctx.Done():
		select {
		case c := <-found:
			return c, nil
		default:
		}
		return nil, fmt.Errorf("no collector found within %s", s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Collector.
// Returns nil when the entry carries no usable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Collector {
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

	c := &Collector{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		DiscoveredAt: time.Now(),
	}

	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) != 2 {
			continue
		}
		switch parts[0] {
		case "version":
			c.Version = parts[1]
		case "feed_port":
			if port, err := strconv.Atoi(parts[1]); err == nil {
				c.FeedPort = port
			}
		}
	}

	return c
}
