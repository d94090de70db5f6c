package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finplan/internal/backend"
	"finplan/internal/cache"
	"finplan/internal/cli"
	"finplan/internal/core"
	apphttp "finplan/internal/http"
	applog "finplan/internal/log"
	"finplan/internal/services"

	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	backendLogger := logger.WithComponent(applog.ComponentBackend)
	result, err := backend.NewFactory(backendLogger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	plCache := cache.NewLRUCache[core.ProfitAndLoss](64, 10*time.Minute)
	cacheManager := cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
	cacheManager.Register(plCache)

	opts := []services.Option{
		services.WithProfitCache(plCache),
		services.WithLogger(logger.WithComponent(applog.ComponentPlanning).Logger),
	}
	if result.Publisher != nil {
		opts = append(opts, services.WithPublisher(result.Publisher))
	}
	planner := services.NewPlanningService(result.Store, opts...)

	srv := apphttp.NewServer(":"+cfg.Port, planner,
		apphttp.WithDefaultYear(cfg.ProjectionYear),
		apphttp.WithLogger(logger.WithComponent(applog.ComponentHTTP)))

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting finplan server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"year", cfg.ProjectionYear,
			"events", result.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return cacheManager.Run(gctx, 5*time.Minute)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	<-done
	logger.Info("Server stopped gracefully")
}
