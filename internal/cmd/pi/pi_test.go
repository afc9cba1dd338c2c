package pi

import (
	"flag"
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("pi", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected default http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.GRPCPort != 8090 {
		t.Fatalf("expected default port 8090, got %d", cfg.GRPCPort)
	}
	if cfg.MaxDigits != 10000 || cfg.DefaultDigits != 100 {
		t.Fatalf("unexpected digit defaults: max=%d default=%d", cfg.MaxDigits, cfg.DefaultDigits)
	}
	if cfg.ComputeTimeout != 10*time.Second {
		t.Fatalf("expected 10s compute timeout, got %v", cfg.ComputeTimeout)
	}
	if cfg.RateLimit != 10 || cfg.RateBurst != 20 {
		t.Fatalf("unexpected rate defaults: %v/%d", cfg.RateLimit, cfg.RateBurst)
	}
	if cfg.RadiusKM != "695700" {
		t.Fatalf("expected sun radius, got %q", cfg.RadiusKM)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	t.Setenv("SUNPI_PI_MAX_DIGITS", "2000")
	t.Setenv("SUNPI_PI_DB_PATH", "/tmp/env.db")

	fs := flag.NewFlagSet("pi", flag.ContinueOnError)
	args := []string{"-http-addr", "127.0.0.1:9000", "-warm-digits", "1500", "-db-path", "/tmp/flag.db"}
	cfg, err := ParseConfig(fs, args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9000" {
		t.Fatalf("expected flag http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.MaxDigits != 2000 {
		t.Fatalf("expected env max digits, got %d", cfg.MaxDigits)
	}
	if cfg.WarmDigits != 1500 {
		t.Fatalf("expected flag warm digits, got %d", cfg.WarmDigits)
	}
	if cfg.DBPath != "/tmp/flag.db" {
		t.Fatalf("expected flag db path, got %q", cfg.DBPath)
	}
}

func TestParseConfigRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "max above hard limit", args: []string{"-max-digits", "1000001"}},
		{name: "default above max", args: []string{"-max-digits", "50", "-default-digits", "100", "-warm-digits", "0"}},
		{name: "warm above max", args: []string{"-max-digits", "500", "-default-digits", "10", "-warm-digits", "501"}},
		{name: "zero warm step", args: []string{"-warm-step", "0"}},
		{name: "zero timeout", args: []string{"-compute-timeout", "0s"}},
		{name: "zero radius", args: []string{"-radius-km", "0"}},
		{name: "negative radius", args: []string{"-radius-km", "-5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("pi", flag.ContinueOnError)
			if _, err := ParseConfig(fs, tt.args); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestServerConfigDerivesGRPCAddr(t *testing.T) {
	fs := flag.NewFlagSet("pi", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-port", "9191"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	serverCfg, err := cfg.ServerConfig()
	if err != nil {
		t.Fatalf("server config: %v", err)
	}
	if serverCfg.GRPCAddr != ":9191" {
		t.Fatalf("expected :9191, got %q", serverCfg.GRPCAddr)
	}
	if serverCfg.Radius.String() != "695700" {
		t.Fatalf("expected sun radius, got %q", serverCfg.Radius.String())
	}

	cfg.GRPCAddr = "127.0.0.1:7000"
	serverCfg, err = cfg.ServerConfig()
	if err != nil {
		t.Fatalf("server config: %v", err)
	}
	if serverCfg.GRPCAddr != "127.0.0.1:7000" {
		t.Fatalf("expected explicit grpc addr, got %q", serverCfg.GRPCAddr)
	}
}
