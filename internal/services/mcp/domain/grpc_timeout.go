package domain

import "github.com/louisbranch/sunpi/internal/platform/timeouts"

// grpcCallTimeout caps the time for a single GetPi call from a tool handler.
// Large expansions may be computed on demand, so it matches the server's
// request budget rather than a short RPC deadline.
const grpcCallTimeout = timeouts.GRPCRequest
