package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"asset-ledger/config"
	"asset-ledger/internal/app"
	"asset-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise dependencies")
	}
	defer a.Close()

	log.Info().
		Int("settlement", cfg.Queue.SettlementConcurrency).
		Int("exchange", cfg.Queue.ExchangeConcurrency).
		Int("maintenance", cfg.Queue.MaintenanceConcurrency).
		Msg("Starting asset ledger worker")

	// Run returns once every consumer has drained its in-flight job.
	if err := a.Worker().Run(ctx); err != nil {
		log.Error().Err(err).Msg("Worker stopped with errors")
	}

	log.Info().Msg("Worker exited")
}
