// Package cmd holds the startup plumbing shared by every sunpi command.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/sunpi/internal/platform/config"
	"github.com/louisbranch/sunpi/internal/platform/logging"
	"github.com/louisbranch/sunpi/internal/platform/otel"
)

// telemetryFlushTimeout bounds the span flush after a command returns.
const telemetryFlushTimeout = 5 * time.Second

// Service names, used for log prefixes and the telemetry resource.
const (
	ServicePi    = "pi"
	ServiceMCP   = "mcp"
	ServicePictl = "pictl"
)

// ParseConfig fills cfg from the environment. Commands register flags
// defaulting to the parsed values and then call ParseArgs, so flags win.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses args into fs. Nil args parse as none.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag set is required")
	}
	return fs.Parse(append([]string{}, args...))
}

// SetupLogging prefixes the standard logger with "[SERVICE] " and attaches
// the rotating log file when SUNPI_LOG_FILE is set. The returned func closes
// the file.
func SetupLogging(service string) (func(), error) {
	prefix, err := servicePrefix(service)
	if err != nil {
		return nil, err
	}
	var cfg logging.Config
	if err := config.ParseEnv(&cfg); err != nil {
		return nil, err
	}
	closeLog, err := logging.Setup(cfg, prefix, nil)
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}
	return func() {
		if err := closeLog(); err != nil {
			log.Printf("close log: %v", err)
		}
	}, nil
}

// RunWithTelemetry installs the tracer provider for service, calls run and
// flushes pending spans once run returns, even when ctx is already done.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	if _, err := servicePrefix(service); err != nil {
		return err
	}
	if run == nil {
		return errors.New("run function is required")
	}
	shutdown, err := otel.Setup(ctx, strings.TrimSpace(service))
	if err != nil {
		return err
	}

	runErr := run(ctx)

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), telemetryFlushTimeout)
	defer cancel()
	if err := shutdown(flushCtx); err != nil {
		log.Printf("flush telemetry: %v", err)
	}
	return runErr
}

func servicePrefix(service string) (string, error) {
	service = strings.TrimSpace(service)
	if service == "" {
		return "", errors.New("service name is required")
	}
	return "[" + strings.ToUpper(service) + "] ", nil
}
