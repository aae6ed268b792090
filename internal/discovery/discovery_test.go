package discovery

import (
	"fmt"
	"net"
	"testing"

	"github.com/grandcat/zeroconf"

	"github.com/metergrid/moded/internal/config"
	"github.com/metergrid/moded/internal/version"
)

func TestTXTRecords(t *testing.T) {
	versionRecord := fmt.Sprintf("version=%s", version.Version)

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   []string
	}{
		{
			name:   "feed enabled",
			mutate: func(c *config.Config) {},
			want:   []string{versionRecord, "feed_port=8475"},
		},
		{
			name:   "feed disabled",
			mutate: func(c *config.Config) { c.Feed.Enabled = false },
			want:   []string{versionRecord},
		},
		{
			name:   "no feed section",
			mutate: func(c *config.Config) { c.Feed = nil },
			want:   []string{versionRecord},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)

			got := TXTRecords(cfg)
			if len(got) != len(tt.want) {
				t.Fatalf("TXTRecords() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("TXTRecords()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseServiceEntry(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		HostName: "collector.local.",
		Port:     4059,
		AddrIPv4: []net.IP{net.ParseIP("192.168.1.20")},
		Text:     []string{"version=1.2.0", "feed_port=8475"},
	}
	entry.Instance = "basement-collector"

	c := parseServiceEntry(entry)
	if c == nil {
		t.Fatal("parseServiceEntry() = nil")
	}
	if c.Instance != "basement-collector" {
		t.Errorf("Instance = %q", c.Instance)
	}
	if c.IP != "192.168.1.20" {
		t.Errorf("IP = %q", c.IP)
	}
	if c.Port != 4059 {
		t.Errorf("Port = %d", c.Port)
	}
	if c.Version != "1.2.0" {
		t.Errorf("Version = %q", c.Version)
	}
	if c.FeedPort != 8475 {
		t.Errorf("FeedPort = %d", c.FeedPort)
	}
}

func TestParseServiceEntry_NoAddress(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		HostName: "collector.local.",
		Port:     4059,
	}

	if c := parseServiceEntry(entry); c != nil {
		t.Errorf("parseServiceEntry() with no address = %+v, want nil", c)
	}
}

func TestCollector_FeedURL(t *testing.T) {
	tests := []struct {
		name      string
		collector *Collector
		expected  string
	}{
		{
			name:      "feed announced",
			collector: &Collector{IP: "192.168.1.20", FeedPort: 8475},
			expected:  "ws://192.168.1.20:8475/stream",
		},
		{
			name:      "no feed",
			collector: &Collector{IP: "192.168.1.20"},
			expected:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.collector.FeedURL(); got != tt.expected {
				t.Errorf("Collector.FeedURL() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCollector_String(t *testing.T) {
	c := &Collector{Instance: "lab", IP: "10.0.0.7", Port: 4059}
	expected := `moded collector "lab" at 10.0.0.7:4059`
	if c.String() != expected {
		t.Errorf("Collector.String() = %v, want %v", c.String(), expected)
	}
}
