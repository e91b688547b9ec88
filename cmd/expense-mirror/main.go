package main

import (
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"expenses/internal/amqp"
	"expenses/internal/cli"
	"expenses/internal/log"
	"expenses/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		return err
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	mirror, err := cli.OpenBackend(ctx, logger, cfg.Mirror())
	if err != nil {
		logger.Error("Failed to initialize mirror backend", log.FieldError, err, log.FieldBackend, cfg.MirrorBackend)
		return err
	}
	defer func() {
		if err := mirror.Cleanup(); err != nil {
			logger.Error("Mirror backend cleanup failed", log.FieldError, err)
		}
	}()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		return err
	}

	w := worker.NewMirrorWorker(mirror.Store, mirror.Type.String())
	logger.Info("Starting expense mirror", log.FieldBackend, mirror.Type.String(), "queue", cfg.AMQPQueue)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeExpenseRecorded(gctx, w.HandleExpenseRecorded)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Closing AMQP connection", log.FieldOperation, log.OpShutdown)
		return client.Close()
	})

	// Closing the connection on shutdown may surface as a closed channel.
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Error("Mirror stopped with error", log.FieldError, err)
		return err
	}

	logger.Info("Mirror stopped gracefully")
	return nil
}
