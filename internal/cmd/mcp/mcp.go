// Package mcp parses MCP command flags and selects stdio or HTTP transport.
package mcp

import (
	"context"
	"flag"
	"fmt"

	"github.com/louisbranch/sunpi/internal/core/measure"
	entrypoint "github.com/louisbranch/sunpi/internal/platform/cmd"
	"github.com/louisbranch/sunpi/internal/platform/discovery"
	mcpservice "github.com/louisbranch/sunpi/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	Addr      string `env:"SUNPI_PI_GRPC_ADDR"`
	HTTPAddr  string `env:"SUNPI_MCP_HTTP_ADDR"`
	Transport string `env:"SUNPI_MCP_TRANSPORT" envDefault:"stdio"`
	RadiusKM  string `env:"SUNPI_RADIUS_KM"     envDefault:"695700"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Addr = discovery.GRPCAddr(cfg.Addr, discovery.ServicePi)
	cfg.HTTPAddr = discovery.HTTPAddr(cfg.HTTPAddr, discovery.ServiceMCP)

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "pi gRPC server address")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.RadiusKM, "radius-km", cfg.RadiusKM, "Radius in kilometers used by sun_circumference")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if _, err := measure.NewRadius(cfg.RadiusKM); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter.
func Run(ctx context.Context, cfg Config) error {
	radius, err := measure.NewRadius(cfg.RadiusKM)
	if err != nil {
		return err
	}
	closeLog, err := entrypoint.SetupLogging(entrypoint.ServiceMCP)
	if err != nil {
		return err
	}
	defer closeLog()
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		return mcpservice.Run(ctx, mcpservice.Config{
			GRPCAddr:  cfg.Addr,
			Transport: mcpservice.TransportKind(cfg.Transport),
			HTTPAddr:  cfg.HTTPAddr,
			Radius:    radius,
		})
	})
}
