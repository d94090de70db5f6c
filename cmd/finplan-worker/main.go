package main

import (
	"context"
	"errors"
	"os"
	"time"

	"finplan/internal/amqp"
	"finplan/internal/backend"
	"finplan/internal/cli"
	applog "finplan/internal/log"
	"finplan/internal/services"
	"finplan/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(applog.ComponentWorker)
	logger.Info("Starting finplan-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	snapshots := cli.InitSnapshots(logger, cfg.SQLiteDBPath)
	defer snapshots.Close()

	// The worker only reads records; change events come from the queue.
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	backendCfg.AMQPURL = ""
	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer result.Cleanup()

	planner := services.NewPlanningService(result.Store,
		services.WithLogger(logger.WithComponent(applog.ComponentPlanning).Logger))
	snapshotWorker := worker.NewSnapshotWorker(planner, snapshots, cfg.ProjectionYear, cfg.SnapshotKeep)

	var consumer *amqp.Client
	if cfg.AMQPEnabled() {
		consumer, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer consumer.Close()
	} else {
		logger.Info("AMQP disabled - relying on periodic refresh only")
	}

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)

	logger.Info("Performing startup snapshot check...")
	if err := snapshotWorker.StartupCheck(ctx); err != nil {
		logger.Error("Failed startup snapshot check", "error", err)
		// keep running; the periodic refresh retries
	}

	g, gctx := errgroup.WithContext(ctx)
	if consumer != nil {
		g.Go(func() error {
			err := consumer.ConsumeRecordsChanged(gctx, snapshotWorker.HandleRecordsChanged)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		return snapshotWorker.Run(gctx, cfg.RefreshInterval)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	<-done
	logger.Info("Worker stopped gracefully",
		"year", cfg.ProjectionYear)
}
