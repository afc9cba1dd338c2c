// Package server wires the pi runtime: storage, the digit provider, the
// background warmer, and the HTTP and gRPC lifecycles.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/louisbranch/sunpi/internal/core/measure"
	"github.com/louisbranch/sunpi/internal/core/pi"
	"github.com/louisbranch/sunpi/internal/platform/timeouts"
	piservice "github.com/louisbranch/sunpi/internal/services/pi/api/grpc/pi"
	httpapi "github.com/louisbranch/sunpi/internal/services/pi/api/http"
	pisqlite "github.com/louisbranch/sunpi/internal/services/pi/storage/sqlite"
	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// Config holds the runtime settings for a pi server.
type Config struct {
	HTTPAddr       string
	GRPCAddr       string
	DBPath         string
	MaxDigits      int
	DefaultDigits  int
	WarmDigits     int
	WarmStep       int
	ComputeTimeout time.Duration
	RateLimit      float64
	RateBurst      int
	MaxConns       int
	Workers        int
	Radius         measure.Radius
}

// Server hosts the pi HTTP and gRPC APIs and the background warmer.
type Server struct {
	httpListener net.Listener
	grpcListener net.Listener
	httpServer   *http.Server
	grpcServer   *grpc.Server
	health       *health.Server
	store        *pisqlite.Store
	pool         *ants.Pool
	provider     *pi.Provider
	warmer       *Warmer
}

// New opens storage and listeners and assembles a server from cfg.
func New(cfg Config) (_ *Server, err error) {
	s := &Server{}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	if s.store, err = openStore(cfg.DBPath); err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if s.pool, err = ants.NewPool(workers, ants.WithNonblocking(true)); err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	s.provider, err = pi.NewProvider(
		pi.WithMaxDigits(cfg.MaxDigits),
		pi.WithComputeTimeout(cfg.ComputeTimeout),
		pi.WithStore(s.store),
		pi.WithPool(s.pool),
	)
	if err != nil {
		return nil, fmt.Errorf("create pi provider: %w", err)
	}
	if s.warmer, err = NewWarmer(s.provider, cfg.WarmDigits, cfg.WarmStep); err != nil {
		return nil, fmt.Errorf("create warmer: %w", err)
	}

	handlerOpts := []httpapi.Option{
		httpapi.WithDefaultDigits(cfg.DefaultDigits),
		httpapi.WithRadius(cfg.Radius),
	}
	if cfg.RateLimit > 0 {
		handlerOpts = append(handlerOpts, httpapi.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateBurst, 1))))
	}
	handler, err := httpapi.NewHandler(s.provider, handlerOpts...)
	if err != nil {
		return nil, fmt.Errorf("create http handler: %w", err)
	}
	s.httpServer = &http.Server{
		Handler:           handler.Routes(),
		ReadHeaderTimeout: timeouts.ReadHeader,
		WriteTimeout:      timeouts.WriteResponse,
	}

	s.grpcServer = grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	s.health = health.NewServer()
	piservice.RegisterPiServiceServer(s.grpcServer, piservice.NewService(s.provider))
	grpc_health_v1.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(piservice.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	if s.httpListener, err = net.Listen("tcp", cfg.HTTPAddr); err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}
	if cfg.MaxConns > 0 {
		s.httpListener = netutil.LimitListener(s.httpListener, cfg.MaxConns)
	}
	if s.grpcListener, err = net.Listen("tcp", cfg.GRPCAddr); err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.GRPCAddr, err)
	}
	return s, nil
}

// HTTPAddr returns the HTTP listener address.
func (s *Server) HTTPAddr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// GRPCAddr returns the gRPC listener address.
func (s *Server) GRPCAddr() string {
	if s == nil || s.grpcListener == nil {
		return ""
	}
	return s.grpcListener.Addr().String()
}

// Run creates and serves a pi server until context cancellation.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve runs both APIs and the warmer until ctx ends or a listener fails,
// then shuts everything down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	if at, ok, err := s.store.ComputedAt(ctx); err != nil {
		log.Printf("read stored pi timestamp: %v", err)
	} else if ok {
		log.Printf("stored pi value computed at %s", at.Format(time.RFC3339))
	}

	log.Printf("pi HTTP server listening at %v", s.httpListener.Addr())
	log.Printf("pi gRPC server listening at %v", s.grpcListener.Addr())

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := s.httpServer.Serve(s.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		if err := s.grpcServer.Serve(s.grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		if err := s.warmer.Run(groupCtx); err != nil {
			log.Printf("warmer: %v", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		s.shutdown()
		return nil
	})
	return group.Wait()
}

func (s *Server) shutdown() {
	s.health.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown HTTP server: %v", err)
	}
	s.grpcServer.GracefulStop()
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.httpListener != nil {
		_ = s.httpListener.Close()
	}
	if s.grpcListener != nil {
		_ = s.grpcListener.Close()
	}
	if s.pool != nil {
		s.pool.Release()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close pi store: %v", err)
		}
	}
}

func openStore(path string) (*pisqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := pisqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pi sqlite store: %w", err)
	}
	return store, nil
}
