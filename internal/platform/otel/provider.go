// Package otel configures OpenTelemetry tracing for sunpi processes.
package otel

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/sunpi/internal/platform/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config selects the span exporter. Tracing stays off until Endpoint is set.
type Config struct {
	Endpoint string `env:"SUNPI_OTEL_ENDPOINT"`
	Enabled  bool   `env:"SUNPI_OTEL_ENABLED" envDefault:"true"`
	// SampleRatio below 1 samples that fraction of root spans; large digit
	// computations produce deep span trees.
	SampleRatio float64 `env:"SUNPI_OTEL_SAMPLE_RATIO" envDefault:"1"`
}

// Validate rejects sample ratios outside (0, 1].
func (c Config) Validate() error {
	if c.SampleRatio <= 0 || c.SampleRatio > 1 {
		return fmt.Errorf("SUNPI_OTEL_SAMPLE_RATIO must be in (0, 1], got %v", c.SampleRatio)
	}
	return nil
}

func (c Config) active() bool {
	return c.Enabled && strings.TrimSpace(c.Endpoint) != ""
}

// Setup reads Config from the environment and installs a global tracer
// provider for service. The returned func flushes pending spans; it is a
// no-op when tracing is off.
func Setup(ctx context.Context, service string) (func(context.Context) error, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return nil, err
	}
	return Start(ctx, service, cfg)
}

// Start is Setup with an explicit Config.
func Start(ctx context.Context, service string, cfg Config) (func(context.Context) error, error) {
	if !cfg.active() {
		return func(context.Context) error { return nil }, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(strings.TrimSpace(cfg.Endpoint)))
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName("sunpi-"+service)))
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRatio)),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return provider.Shutdown, nil
}

func sampler(ratio float64) sdktrace.Sampler {
	if ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}
