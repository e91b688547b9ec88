package main

import (
	"fmt"
	"os"
	"time"

	"expenses/internal/cli"
	apphttp "expenses/internal/http"
	"expenses/internal/log"
	"expenses/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, logger := cli.Bootstrap(log.ComponentApp)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		return err
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	store, err := cli.OpenBackend(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		return err
	}
	defer func() {
		if err := store.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	publisher, closePublisher, err := cli.NewPublisher(logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize AMQP publisher", log.FieldError, err)
		return err
	}
	defer closePublisher()

	svc := services.NewExpenseService(store.Store, store.Policy(cfg.Categories), store.Type.String(), publisher)

	srv, err := apphttp.NewServer(":"+cfg.Port, svc, logger)
	if err != nil {
		logger.Error("Failed to create HTTP server", log.FieldError, err)
		return err
	}

	logger.Info("Starting expenses server", "port", cfg.Port, log.FieldBackend, store.Type.String())
	if err := cli.RunServer(ctx, logger, srv, shutdownTimeout); err != nil {
		logger.Error("Server error", log.FieldError, err)
		return err
	}

	logger.Info("Server stopped gracefully")
	return nil
}
