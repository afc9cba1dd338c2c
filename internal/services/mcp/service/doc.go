// Package service wires MCP transports to the pi tool handlers.
//
// It knows how to reach the pi gRPC service and how to run MCP over stdio or
// streamable HTTP; tool semantics live in the domain package.
package service
