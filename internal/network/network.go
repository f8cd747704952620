// Package network probes connectivity of the device: link state, default
// route, DNS resolution and reachability of the download hosts.
package network

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/miekg/dns"
	"github.com/vishvananda/netlink"

	"github.com/HenryPDT/edgeprov/internal/check"
)

type Checker struct {
	// Resolver is host:port of the nameserver for the DNS probe; empty
	// means use the system resolver configuration.
	Resolver string
	// ProbeHost is resolved to prove DNS works.
	ProbeHost string
	// ProbeURL is fetched (HEAD) to prove the package mirrors are reachable.
	ProbeURL string

	Timeout time.Duration
}

func NewChecker() *Checker {
	return &Checker{
		ProbeHost: "ports.ubuntu.com",
		ProbeURL:  "https://ports.ubuntu.com",
		Timeout:   5 * time.Second,
	}
}

// LinkUp looks for a non-loopback interface in operational state up and
// returns its name.
func (c *Checker) LinkUp() (string, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return "", fmt.Errorf("list links: %w", err)
	}
	for _, l := range links {
		attrs := l.Attrs()
		if attrs.Flags&net.FlagLoopback != 0 {
			continue
		}
		if attrs.OperState == netlink.OperUp {
			return attrs.Name, nil
		}
	}
	return "", fmt.Errorf("no interface is up")
}

// HasDefaultRoute reports whether an IPv4 default route is installed.
func (c *Checker) HasDefaultRoute() (bool, error) {
	routes, err := netlink.RouteList(nil, netlink.FAMILY_V4)
	if err != nil {
		return false, fmt.Errorf("list routes: %w", err)
	}
	for _, r := range routes {
		if r.Dst == nil {
			return true, nil
		}
	}
	return false, nil
}

// ResolveDNS sends an A query for the probe host to the resolver.
func (c *Checker) ResolveDNS() error {
	resolver := c.Resolver
	if resolver == "" {
		conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
		if err != nil || len(conf.Servers) == 0 {
			return fmt.Errorf("no nameserver configured: %v", err)
		}
		resolver = conf.Servers[0] + ":" + conf.Port
	}

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(c.ProbeHost), dns.TypeA)
	client := &dns.Client{Timeout: c.Timeout}
	resp, _, err := client.Exchange(m, resolver)
	if err != nil {
		return fmt.Errorf("query %s via %s: %w", c.ProbeHost, resolver, err)
	}
	if resp.Rcode != dns.RcodeSuccess || len(resp.Answer) == 0 {
		return fmt.Errorf("%s did not resolve (rcode %s)", c.ProbeHost, dns.RcodeToString[resp.Rcode])
	}
	return nil
}

// Reachable issues a HEAD request against the probe URL.
func (c *Checker) Reachable() error {
	client := &http.Client{Timeout: c.Timeout}
	resp, err := client.Head(c.ProbeURL)
	if err != nil {
		return fmt.Errorf("reach %s: %w", c.ProbeURL, err)
	}
	resp.Body.Close()
	return nil
}

// Check runs the three probes in order and reports the first failure. There
// is no remediation for connectivity, only guidance.
func (c *Checker) Check() check.Result {
	iface, err := c.LinkUp()
	if err != nil {
		return check.FailWithRemedy(fmt.Sprintf("no network link: %v", err), "nmcli device status")
	}
	if ok, err := c.HasDefaultRoute(); err != nil || !ok {
		return check.FailWithRemedy("no IPv4 default route", "ip route show")
	}
	if err := c.ResolveDNS(); err != nil {
		return check.FailWithRemedy(fmt.Sprintf("DNS failure: %v", err), "resolvectl status")
	}
	if err := c.Reachable(); err != nil {
		return check.Warn("link %s up but %s unreachable: %v", iface, c.ProbeURL, err)
	}
	return check.Pass("link %s up, DNS and mirror reachable", iface)
}
