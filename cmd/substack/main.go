package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"substack/internal/auth"
	"substack/internal/cache"
	"substack/internal/cli"
	apphttp "substack/internal/http"
	applog "substack/internal/log"
	"substack/internal/metrics"
	"substack/internal/middleware/ratelimit"
	"substack/internal/services"
	"substack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting substack", "port", cfg.Port, "backend", cfg.DataBackend, "scheduler", cfg.EnableScheduler)

	result := cli.OpenStore(context.Background(), logger, cfg)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	}()
	store := result.Store

	m := metrics.New()

	categoryCache, err := cache.NewRistrettoCache[services.CategoryList](cache.Config{
		MaxItems: cache.DefaultConfig().MaxItems,
		TTL:      cfg.CategoryCacheTTL,
	})
	if err != nil {
		logger.Error("Failed to create category cache", "error", err)
		os.Exit(1)
	}
	defer categoryCache.Close()

	categories := services.NewCategoryService(store, services.SystemClock, categoryCache)
	subscriptions := services.NewSubscriptionService(store, services.SystemClock, logger.WithComponent(applog.ComponentSubscription))
	subscriptions.SetCategoryCache(categories)

	svc := apphttp.Services{
		Accounts:      services.NewAccountService(store, auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL), services.SystemClock),
		Subscriptions: subscriptions,
		Analytics:     services.NewAnalyticsService(store, services.SystemClock, m),
		Categories:    categories,
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr: net.JoinHostPort("", cfg.Port),
		RateLimit: ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitRPM,
			Burst:             cfg.RateLimitBurst,
		},
	}, svc, store, m, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.EnableScheduler {
		processor, closeAMQP := cli.NewReminderProcessor(logger.WithComponent(applog.ComponentReminder), cfg, store, m)
		defer closeAMQP()

		scheduler := worker.NewScheduler(processor, cfg.ReminderInterval, services.SystemClock)
		g.Go(func() error {
			return scheduler.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
