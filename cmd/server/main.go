// Package main is the entry point for the cryptpass server.
//
// main stays minimal: load configuration, build the logger, hand both to
// internal/server. All real logic lives in the internal packages.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/sakif/cryptpass/internal/config"
	"github.com/sakif/cryptpass/internal/crypt"
	"github.com/sakif/cryptpass/internal/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("CRYPTPASS_CONFIG"), "path to a YAML/JSON/TOML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// No configured logger yet; fall back to the default one.
		slog.Error("loading configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	srv, err := server.New(cfg, crypt.DefaultPrimitive(), logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
