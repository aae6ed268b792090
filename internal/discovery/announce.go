package discovery

import (
	"fmt"
	"os"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/metergrid/moded/internal/config"
	"github.com/metergrid/moded/internal/logging"
	"github.com/metergrid/moded/internal/version"
)

const (
	// ServiceType is the mDNS service type announced by moded collectors
	ServiceType = "_moded._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."
)

// Announcer keeps a collector's mDNS registration alive until Shutdown.
type Announcer struct {
	server   *zeroconf.Server
	instance string
}

// Announce registers the collector described by cfg on the local network.
// The instance name defaults to the host name when the configuration does
// not set one.
func Announce(cfg *config.Config) (*Announcer, error) {
	instance := cfg.Discovery.Instance
	if instance == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("failed to determine host name: %w", err)
		}
		instance = hostname
	}

	server, err := zeroconf.Register(
		instance,
		ServiceType,
		ServiceDomain,
		cfg.Listen.Port,
		TXTRecords(cfg),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Announced collector on local network",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", cfg.Listen.Port),
	)

	return &Announcer{server: server, instance: instance}, nil
}

// TXTRecords builds the key=value TXT records for a collector announcement.
func TXTRecords(cfg *config.Config) []string {
	records := []string{
		fmt.Sprintf("version=%s", version.Version),
	}
	if cfg.Feed != nil && cfg.Feed.Enabled {
		records = append(records, fmt.Sprintf("feed_port=%d", cfg.Feed.Port))
	}
	return records
}

// Instance returns the announced service instance name.
func (a *Announcer) Instance() string {
	return a.instance
}

// Shutdown withdraws the announcement.
func (a *Announcer) Shutdown() {
	a.server.Shutdown()
	logging.Info("Withdrew collector announcement",
		zap.String("instance", a.instance),
	)
}
