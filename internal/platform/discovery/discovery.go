// Package discovery knows where sunpi services listen when nothing else is
// configured: every service runs on localhost at a fixed port.
package discovery

import (
	"net"
	"strconv"
	"strings"
)

// Service names.
const (
	ServicePi  = "pi"
	ServiceMCP = "mcp"
)

const host = "localhost"

// endpoint lists a service's ports; zero means the service has no listener
// of that kind.
type endpoint struct {
	grpcPort int
	httpPort int
}

var endpoints = map[string]endpoint{
	ServicePi:  {grpcPort: 8090, httpPort: 8080},
	ServiceMCP: {httpPort: 8081},
}

// GRPCAddr returns addr, or the service's local gRPC address when addr is
// blank.
func GRPCAddr(addr, service string) string {
	if addr = strings.TrimSpace(addr); addr != "" {
		return addr
	}
	return hostPort(endpoints[service].grpcPort)
}

// HTTPAddr returns addr, or the service's local HTTP address when addr is
// blank.
func HTTPAddr(addr, service string) string {
	if addr = strings.TrimSpace(addr); addr != "" {
		return addr
	}
	return hostPort(endpoints[service].httpPort)
}

// HTTPBaseURL returns baseURL, or http:// plus the service's local HTTP
// address when baseURL is blank.
func HTTPBaseURL(baseURL, service string) string {
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		return baseURL
	}
	if addr := HTTPAddr("", service); addr != "" {
		return "http://" + addr
	}
	return ""
}

func hostPort(port int) string {
	if port <= 0 {
		return ""
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
