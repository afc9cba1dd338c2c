// Package domain translates MCP tool calls into pi service requests.
//
// Digits come from the pi gRPC service; circumferences are derived locally
// with the measure package so every digit returned takes part in the result.
package domain
