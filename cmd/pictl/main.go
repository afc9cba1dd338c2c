// Package main runs the pi service command-line client.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	pictlcmd "github.com/louisbranch/sunpi/internal/cmd/pictl"
	"github.com/louisbranch/sunpi/internal/platform/config"
)

func main() {
	cfg, err := pictlcmd.ParseConfig()
	if err != nil {
		config.Exitf("parse config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pictlcmd.Run(ctx, cfg, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		stop()
		config.Exitf("pictl: %v", err)
	}
}
