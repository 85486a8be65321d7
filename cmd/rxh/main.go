package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/rxh/internal/admin"
	"github.com/tomtom215/rxh/internal/config"
	"github.com/tomtom215/rxh/internal/logging"
	"github.com/tomtom215/rxh/internal/master"
	"github.com/tomtom215/rxh/internal/shaping"
)

// version is stamped into the Server response header; overridden at build
// time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.DefaultConfig())
	shaping.SetVersion(version)

	logging.Info().Int("servers", len(cfg.Server)).Msg("Starting rxh")

	m := master.New(master.Spec{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	})

	var adminHandler = admin.Mux(m)
	if err := master.Build(m, cfg, adminHandler); err != nil {
		logging.Fatal().Err(err).Msg("Failed to build listeners")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	if err := m.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Master exited with error")
		os.Exit(1)
	}

	logging.Info().Msg("rxh stopped gracefully")
}
