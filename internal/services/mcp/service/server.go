package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/sunpi/internal/core/measure"
	"github.com/louisbranch/sunpi/internal/platform/branding"
	"github.com/louisbranch/sunpi/internal/platform/discovery"
	platformgrpc "github.com/louisbranch/sunpi/internal/platform/grpc"
	"github.com/louisbranch/sunpi/internal/platform/timeouts"
	piservice "github.com/louisbranch/sunpi/internal/services/pi/api/grpc/pi"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	serverVersion = "0.1.0"

	// healthCheckInterval is how often the HTTP transport checks pi health.
	healthCheckInterval = 30 * time.Second
)

var serverName = branding.AppName + " MCP"

// TransportKind names an MCP transport.
type TransportKind string

const (
	// TransportStdio serves one session over stdin and stdout.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP serves streamable HTTP sessions.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP adapter.
type Config struct {
	GRPCAddr  string
	Transport TransportKind
	// HTTPAddr is the listen address for TransportHTTP.
	HTTPAddr string
	Radius   measure.Radius
}

// serveFunc serves MCP with server until the transport ends. conn is the
// pi connection behind the tools.
type serveFunc func(ctx context.Context, server *mcp.Server, conn *grpc.ClientConn) error

// Run dials the pi service and serves the pi tools over cfg.Transport. Stdio
// returns when the session closes; HTTP returns when ctx ends.
func Run(ctx context.Context, cfg Config) error {
	var serve serveFunc
	switch cfg.Transport {
	case "", TransportStdio:
		serve = func(ctx context.Context, server *mcp.Server, _ *grpc.ClientConn) error {
			return runSession(ctx, server, &mcp.StdioTransport{})
		}
	case TransportHTTP:
		addr := discovery.HTTPAddr(cfg.HTTPAddr, discovery.ServiceMCP)
		serve = func(ctx context.Context, server *mcp.Server, conn *grpc.ClientConn) error {
			lis, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", addr, err)
			}
			return serveHTTP(ctx, server, conn, lis)
		}
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
	return withPiServer(ctx, cfg, serve)
}

// withPiServer connects to the pi service, builds the MCP server and hands
// both to serve. The connection is closed once serve returns.
func withPiServer(ctx context.Context, cfg Config, serve serveFunc) (err error) {
	conn, err := dialPi(ctx, cfg.GRPCAddr)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close pi connection: %w", closeErr)
		}
	}()

	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	if err := registerPiTools(server, piservice.NewClient(conn), cfg.Radius); err != nil {
		return fmt.Errorf("register pi tools: %w", err)
	}
	return serve(ctx, server, conn)
}

// runSession serves one session. Cancellation is a normal way for it to end.
func runSession(ctx context.Context, server *mcp.Server, transport mcp.Transport) error {
	err := server.Run(ctx, transport)
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return fmt.Errorf("serve MCP: %w", err)
}

// serveHTTP serves streamable HTTP sessions on lis and watches pi health
// until ctx ends or the listener fails.
func serveHTTP(ctx context.Context, server *mcp.Server, conn *grpc.ClientConn, lis net.Listener) error {
	httpServer := &http.Server{
		Handler:           mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("MCP HTTP server listening at %s", lis.Addr())
		if err := httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve MCP HTTP: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Shutdown)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown MCP HTTP: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		watchPiHealth(gctx, conn, healthCheckInterval)
		return nil
	})
	return g.Wait()
}

// watchPiHealth logs whenever the pi service is not SERVING. Tool calls
// report their own failures, so nothing else reacts to it.
func watchPiHealth(ctx context.Context, conn *grpc.ClientConn, interval time.Duration) {
	if conn == nil {
		return
	}
	client := grpc_health_v1.NewHealthClient(conn)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		callCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCDial)
		response, err := client.Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: piservice.ServiceName})
		cancel()
		switch {
		case ctx.Err() != nil:
			return
		case err != nil:
			log.Printf("pi health check failed: %v", err)
		case response.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING:
			log.Printf("pi health check status: %s", response.GetStatus())
		}
	}
}

func dialPi(ctx context.Context, addr string) (*grpc.ClientConn, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("pi gRPC address is required")
	}
	logf := func(format string, args ...any) {
		log.Printf("pi %s", fmt.Sprintf(format, args...))
	}
	conn, err := platformgrpc.DialHealthy(ctx, addr, piservice.ServiceName, timeouts.GRPCDial, logf)
	var dialErr *platformgrpc.DialError
	switch {
	case err == nil:
		return conn, nil
	case errors.As(err, &dialErr) && dialErr.Stage == platformgrpc.DialStageConnect:
		return nil, fmt.Errorf("connect to pi server at %s: %w", addr, dialErr.Err)
	case errors.As(err, &dialErr):
		return nil, fmt.Errorf("pi server at %s is not healthy: %w", addr, dialErr.Err)
	default:
		return nil, err
	}
}
