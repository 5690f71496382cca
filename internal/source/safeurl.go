// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// lookupIP and permitIP are replaced in tests so that httptest servers on
// loopback can be reached.
var (
	lookupIP = func(ctx context.Context, host string) ([]net.IPAddr, error) {
		return net.DefaultResolver.LookupIPAddr(ctx, host)
	}
	permitIP = isPublicIP
)

func isPublicIP(ip net.IP) bool {
	return !(ip.IsPrivate() ||
		ip.IsLoopback() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		ip.IsMulticast() ||
		ip.IsUnspecified())
}

// Guard decides whether a URL may be fetched.
type Guard struct {
	// Allowed holds domains; a host matches a domain exactly or as a
	// subdomain.
	Allowed []string
}

// AllowedHost reports whether host is on the allowlist.
func (g Guard) AllowedHost(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, d := range g.Allowed {
		d = strings.ToLower(d)
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Check validates scheme and host, then resolves the host and requires
// every address to be public.
func (g Guard) Check(ctx context.Context, raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("scheme %q not allowed", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("url %q has no host", raw)
	}
	if !g.AllowedHost(host) {
		return nil, fmt.Errorf("host %s is not an allowed deck host", host)
	}

	if ip := net.ParseIP(host); ip != nil {
		if !permitIP(ip) {
			return nil, fmt.Errorf("address %s is not public", ip)
		}
		return u, nil
	}
	addrs, err := lookupIP(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", host, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("resolving %s: no addresses", host)
	}
	for _, a := range addrs {
		if !permitIP(a.IP) {
			return nil, fmt.Errorf("host %s resolves to non-public address %s", host, a.IP)
		}
	}
	return u, nil
}

// dialControl rejects connections to non-public addresses at connect time,
// which closes the window between Check's lookup and the dial.
func dialControl(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip := net.ParseIP(host)
	if ip == nil || !permitIP(ip) {
		return fmt.Errorf("refusing to connect to %s", address)
	}
	return nil
}
