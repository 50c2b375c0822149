// Package auth turns ambient configuration (environment variables or
// per-request headers) into a validated Daktela connection, and gates every
// candidate destination URL behind SSRF policy.
package auth

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"
)

// DestinationError is a rejected destination validation. Never retried;
// surfaced to the caller as a configuration error.
type DestinationError struct {
	URL    string
	Reason string
}

func (e *DestinationError) Error() string {
	return fmt.Sprintf("invalid destination %q: %s", e.URL, e.Reason)
}

// blockedHosts are known cloud-metadata hostnames and addresses that must
// never be reachable through a configured destination.
var blockedHosts = []string{
	"metadata.google.internal",
	"metadata.google.com",
	"169.254.169.254",
}

var loopbackHosts = []string{"127.0.0.1", "localhost", "::1"}

// ValidateDestination enforces transport and network-location policy on a
// candidate base URL before any request is made. HTTPS is required except
// for loopback hosts; literal IPs and hosts resolving into private ranges
// are rejected. Performs a blocking, uncached DNS resolution.
func ValidateDestination(raw string) error {
	return validateDestination(raw, net.LookupIP)
}

func validateDestination(raw string, lookup func(string) ([]net.IP, error)) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return &DestinationError{URL: raw, Reason: "invalid URL format"}
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())

	loopback := slices.Contains(loopbackHosts, host)
	if scheme != "https" && !(scheme == "http" && loopback) {
		return &DestinationError{URL: raw, Reason: "only HTTPS URLs are allowed (HTTP permitted for localhost only)"}
	}

	if slices.Contains(blockedHosts, host) {
		return &DestinationError{URL: raw, Reason: "blocked host: " + host}
	}

	if loopback {
		return nil
	}

	if net.ParseIP(host) != nil {
		return &DestinationError{URL: raw, Reason: "IP addresses are not allowed; use a hostname instead"}
	}

	// An unresolvable hostname passes here: the subsequent request fails on
	// its own, and DNS policy only exists to catch names that do resolve
	// into private space.
	ips, err := lookup(host)
	if err != nil {
		return nil
	}
	for _, ip := range ips {
		if privateIP(ip) {
			return &DestinationError{URL: raw, Reason: fmt.Sprintf("hostname %q resolves to a private IP address", host)}
		}
	}

	return nil
}

// privateIP covers 10/8, 172.16/12, 192.168/16 (IsPrivate), 127/8
// (IsLoopback) and 169.254/16 (link-local).
func privateIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast()
}
