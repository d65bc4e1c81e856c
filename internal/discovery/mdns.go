// internal/discovery/mdns.go
package discovery

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

const ServiceType = "_flipbook._tcp"

// Advertiser publishes the viewer server on the local network
type Advertiser struct {
	server *mdns.Server
}

// Advertise announces instance on port. An empty instance uses the hostname.
func Advertise(instance string, port int, info ...string) (*Advertiser, error) {
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("could not get hostname: %w", err)
		}
		instance = host
	}
	if len(info) == 0 {
		info = []string{"flipbook"}
	}

	service, err := mdns.NewMDNSService(instance, ServiceType, "", "", port, nil, info)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}

	log.Printf("[Discovery] advertising %s.%s on port %d", instance, ServiceType, port)
	return &Advertiser{server: server}, nil
}

// Shutdown stops answering queries
func (a *Advertiser) Shutdown() error {
	if a == nil || a.server == nil {
		return nil
	}
	return a.server.Shutdown()
}

// Browse looks for other flipbook servers for up to timeout and calls found
// with host:port of each one
func Browse(timeout time.Duration, found func(addr string)) error {
	entries := make(chan *mdns.ServiceEntry, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		collect(entries, found)
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	err := mdns.Query(params)
	close(entries)
	<-done
	return err
}

// collect reports each distinct IPv4 service address until entries is closed
func collect(entries <-chan *mdns.ServiceEntry, found func(addr string)) {
	seen := make(map[string]bool)
	for e := range entries {
		if e.AddrV4 == nil || e.Port == 0 {
			continue
		}
		addr := fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port)
		if seen[addr] {
			continue
		}
		seen[addr] = true
		found(addr)
	}
}
