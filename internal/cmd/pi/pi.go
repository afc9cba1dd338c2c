// Package pi parses pi service flags and launches the HTTP and gRPC runtime.
package pi

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/louisbranch/sunpi/internal/core/measure"
	entrypoint "github.com/louisbranch/sunpi/internal/platform/cmd"
	server "github.com/louisbranch/sunpi/internal/services/pi/app"
)

// HardMaxDigits bounds the configurable precision ceiling.
const HardMaxDigits = 1_000_000

// Config holds pi command configuration.
type Config struct {
	HTTPAddr       string        `env:"SUNPI_PI_HTTP_ADDR" envDefault:":8080"`
	GRPCPort       int           `env:"SUNPI_PI_GRPC_PORT" envDefault:"8090"`
	GRPCAddr       string        `env:"SUNPI_PI_GRPC_LISTEN_ADDR"`
	DBPath         string        `env:"SUNPI_PI_DB_PATH" envDefault:"data/pi.db"`
	MaxDigits      int           `env:"SUNPI_PI_MAX_DIGITS" envDefault:"10000"`
	DefaultDigits  int           `env:"SUNPI_PI_DEFAULT_DIGITS" envDefault:"100"`
	WarmDigits     int           `env:"SUNPI_PI_WARM_DIGITS" envDefault:"10000"`
	WarmStep       int           `env:"SUNPI_PI_WARM_STEP" envDefault:"500"`
	ComputeTimeout time.Duration `env:"SUNPI_PI_COMPUTE_TIMEOUT" envDefault:"10s"`
	RateLimit      float64       `env:"SUNPI_PI_RATE_LIMIT" envDefault:"10"`
	RateBurst      int           `env:"SUNPI_PI_RATE_BURST" envDefault:"20"`
	MaxConns       int           `env:"SUNPI_PI_MAX_CONNS" envDefault:"256"`
	Workers        int           `env:"SUNPI_PI_WORKERS"`
	RadiusKM       string        `env:"SUNPI_RADIUS_KM" envDefault:"695700"`
}

// ParseConfig parses environment and flags into a Config and validates it.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The HTTP API listen address")
	fs.IntVar(&cfg.GRPCPort, "port", cfg.GRPCPort, "The gRPC server port")
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "The gRPC listen address (overrides -port)")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The SQLite database path")
	fs.IntVar(&cfg.MaxDigits, "max-digits", cfg.MaxDigits, "The largest precision served")
	fs.IntVar(&cfg.DefaultDigits, "default-digits", cfg.DefaultDigits, "The precision served when a request omits digits")
	fs.IntVar(&cfg.WarmDigits, "warm-digits", cfg.WarmDigits, "The precision the background warmer climbs to (0 disables it)")
	fs.IntVar(&cfg.WarmStep, "warm-step", cfg.WarmStep, "The digits added by each warmer step")
	fs.DurationVar(&cfg.ComputeTimeout, "compute-timeout", cfg.ComputeTimeout, "The time limit for a single computation")
	fs.StringVar(&cfg.RadiusKM, "radius-km", cfg.RadiusKM, "The radius in kilometers used for circumferences")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if err := cfg.check(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c Config) check() error {
	switch {
	case c.MaxDigits < 0 || c.MaxDigits > HardMaxDigits:
		return fmt.Errorf("max digits must be within [0, %d], got %d", HardMaxDigits, c.MaxDigits)
	case c.DefaultDigits < 0 || c.DefaultDigits > c.MaxDigits:
		return fmt.Errorf("default digits must be within [0, %d], got %d", c.MaxDigits, c.DefaultDigits)
	case c.WarmDigits < 0 || c.WarmDigits > c.MaxDigits:
		return fmt.Errorf("warm digits must be within [0, %d], got %d", c.MaxDigits, c.WarmDigits)
	case c.WarmStep <= 0:
		return fmt.Errorf("warm step must be positive, got %d", c.WarmStep)
	case c.ComputeTimeout <= 0:
		return errors.New("compute timeout must be positive")
	case c.RateLimit < 0 || c.RateBurst < 0:
		return errors.New("rate limit and burst must not be negative")
	case c.MaxConns < 0 || c.Workers < 0:
		return errors.New("max conns and workers must not be negative")
	case c.DBPath == "":
		return errors.New("db path is required")
	}
	if _, err := measure.NewRadius(c.RadiusKM); err != nil {
		return err
	}
	return nil
}

// ServerConfig converts c into the runtime settings.
func (c Config) ServerConfig() (server.Config, error) {
	radius, err := measure.NewRadius(c.RadiusKM)
	if err != nil {
		return server.Config{}, err
	}
	grpcAddr := c.GRPCAddr
	if grpcAddr == "" {
		grpcAddr = net.JoinHostPort("", strconv.Itoa(c.GRPCPort))
	}
	return server.Config{
		HTTPAddr:       c.HTTPAddr,
		GRPCAddr:       grpcAddr,
		DBPath:         c.DBPath,
		MaxDigits:      c.MaxDigits,
		DefaultDigits:  c.DefaultDigits,
		WarmDigits:     c.WarmDigits,
		WarmStep:       c.WarmStep,
		ComputeTimeout: c.ComputeTimeout,
		RateLimit:      c.RateLimit,
		RateBurst:      c.RateBurst,
		MaxConns:       c.MaxConns,
		Workers:        c.Workers,
		Radius:         radius,
	}, nil
}

// Run starts the pi service.
func Run(ctx context.Context, cfg Config) error {
	serverCfg, err := cfg.ServerConfig()
	if err != nil {
		return err
	}
	closeLog, err := entrypoint.SetupLogging(entrypoint.ServicePi)
	if err != nil {
		return err
	}
	defer closeLog()
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServicePi, func(ctx context.Context) error {
		return server.Run(ctx, serverCfg)
	})
}
