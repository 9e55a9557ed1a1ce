package transport

import (
	"fmt"
	"time"

	"github.com/hashicorp/mdns"
)

const serviceType = "_cocanvas._tcp"

// Discover browses the LAN for an advertised board server and returns
// the websocket URL of the first answer. Used when no server URL is
// configured.
func Discover(timeout time.Duration) (string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	found := make(chan string, 1)
	go func() {
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			select {
			case found <- fmt.Sprintf("ws://%s:%d/ws", e.AddrV4, e.Port):
			default:
			}
		}
	}()

	err := mdns.Query(&mdns.QueryParam{
		Service:     serviceType,
		Timeout:     timeout,
		Entries:     entries,
		DisableIPv6: true,
	})
	close(entries)
	if err != nil {
		return "", fmt.Errorf("transport: mdns lookup: %w", err)
	}

	select {
	case url := <-found:
		return url, nil
	default:
		return "", fmt.Errorf("transport: no %s service found on the LAN", serviceType)
	}
}
