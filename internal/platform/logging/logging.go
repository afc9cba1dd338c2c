// Package logging configures the process-wide standard logger.
//
// Services log through the standard library logger. When a log file is
// configured, output is duplicated to a size-rotated file.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls log file output.
type Config struct {
	File       string `env:"SUNPI_LOG_FILE"`
	MaxSizeMB  int    `env:"SUNPI_LOG_MAX_SIZE_MB" envDefault:"50"`
	MaxBackups int    `env:"SUNPI_LOG_MAX_BACKUPS" envDefault:"3"`
	MaxAgeDays int    `env:"SUNPI_LOG_MAX_AGE_DAYS" envDefault:"28"`
	Compress   bool   `env:"SUNPI_LOG_COMPRESS" envDefault:"true"`
}

// Validate checks rotation limits.
func (c *Config) Validate() error {
	if c.MaxSizeMB <= 0 {
		return fmt.Errorf("log max size must be positive, got %d", c.MaxSizeMB)
	}
	if c.MaxBackups < 0 {
		return fmt.Errorf("log max backups must be non-negative, got %d", c.MaxBackups)
	}
	if c.MaxAgeDays < 0 {
		return fmt.Errorf("log max age must be non-negative, got %d", c.MaxAgeDays)
	}
	return nil
}

// Setup sets the standard logger prefix and output. The returned close
// function flushes and closes the log file, if any.
func Setup(cfg Config, prefix string, stderr io.Writer) (func() error, error) {
	if stderr == nil {
		stderr = os.Stderr
	}
	log.SetPrefix(prefix)

	path := strings.TrimSpace(cfg.File)
	if path == "" {
		log.SetOutput(stderr)
		return func() error { return nil }, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}

	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	log.SetOutput(io.MultiWriter(stderr, file))
	return func() error {
		log.SetOutput(stderr)
		if err := file.Close(); err != nil {
			return errors.Join(errors.New("close log file"), err)
		}
		return nil
	}, nil
}
