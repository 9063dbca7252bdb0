package util

import (
	"net"
	"net/url"
	"strconv"
)

// FormatAddr returns "host:port", bracketing IPv6 literals.
func FormatAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// DialTarget returns the host:port a WebSocket URL connects to,
// filling in 80 for ws and 443 for wss when the URL carries no port.
func DialTarget(u *url.URL) string {
	if p := u.Port(); p != "" {
		return net.JoinHostPort(u.Hostname(), p)
	}
	port := 80
	if u.Scheme == "wss" || u.Scheme == "https" {
		port = 443
	}
	return FormatAddr(u.Hostname(), port)
}
