// Package timeouts holds the deadlines sunpi services agree on.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing a gRPC peer.
const GRPCDial = 2 * time.Second

// GRPCRequest caps the time allowed for a single gRPC call from the MCP
// bridge to the pi service.
const GRPCRequest = 15 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// WriteResponse bounds how long an HTTP handler may take to write a
// response, including digit computation.
const WriteResponse = 30 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// HTTPClient caps a single HTTP call made by the pi client.
const HTTPClient = 20 * time.Second
