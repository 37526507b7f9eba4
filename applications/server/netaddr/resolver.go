// Package netaddr finds the LAN address the server is reachable at.
package netaddr

import (
	"fmt"
	"net"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/jackpal/gateway"
)

// Fallback is returned when no external IPv4 address is found.
const Fallback = "localhost"

// Interface is the subset of a network interface the resolver looks at.
type Interface struct {
	Name     string
	Up       bool
	Loopback bool
	Addrs    []net.Addr
}

type Resolver struct {
	PreferGateway bool

	interfaces func() ([]Interface, error)
	gateway    func() (net.IP, error)
	logger     log.Logger
}

func NewResolver(preferGateway bool, logger log.Logger) *Resolver {
	return &Resolver{
		PreferGateway: preferGateway,
		interfaces:    systemInterfaces,
		gateway:       gateway.DiscoverGateway,
		logger:        logger,
	}
}

// LocalIP returns the address to advertise, or Fallback.
func (r *Resolver) LocalIP() string {
	ifaces, err := r.interfaces()
	if err != nil {
		level.Warn(r.logger).Log("msg", "can't list network interfaces", "err", err)
		return Fallback
	}

	if r.PreferGateway {
		gw, err := r.gateway()
		if err != nil {
			level.Warn(r.logger).Log("msg", "can't discover gateway", "err", err)
		} else if ip := GatewayIPv4(ifaces, gw); ip != nil {
			return ip.String()
		}
	}

	if ip := FirstIPv4(ifaces); ip != nil {
		return ip.String()
	}

	return Fallback
}

// FirstIPv4 returns the first IPv4 address of an interface that is up and not loopback.
func FirstIPv4(ifaces []Interface) net.IP {
	for _, iface := range ifaces {
		if ips := externalIPv4(iface); len(ips) > 0 {
			return ips[0].IP.To4()
		}
	}

	return nil
}

// GatewayIPv4 returns the IPv4 address whose subnet contains gw.
func GatewayIPv4(ifaces []Interface, gw net.IP) net.IP {
	if gw == nil {
		return nil
	}

	for _, iface := range ifaces {
		for _, ipnet := range externalIPv4(iface) {
			if ipnet.Contains(gw) {
				return ipnet.IP.To4()
			}
		}
	}

	return nil
}

func externalIPv4(iface Interface) []*net.IPNet {
	if !iface.Up || iface.Loopback {
		return nil
	}

	var result []*net.IPNet
	for _, addr := range iface.Addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}

		ip := ipnet.IP.To4()
		if ip == nil || ip.IsLoopback() {
			continue
		}
		result = append(result, ipnet)
	}

	return result
}

func systemInterfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("can't list interfaces: %w", err)
	}

	result := make([]Interface, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		result = append(result, Interface{
			Name:     iface.Name,
			Up:       iface.Flags&net.FlagUp != 0,
			Loopback: iface.Flags&net.FlagLoopback != 0,
			Addrs:    addrs,
		})
	}

	return result, nil
}
