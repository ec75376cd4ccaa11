package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"subway/internal/cache"
	"subway/internal/config"
	"subway/internal/handler"
	"subway/internal/hub"
	"subway/internal/ingestor"
	"subway/internal/middleware"
	"subway/internal/service"
	"subway/internal/store"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := config.LoadEnvFile(envFile); err != nil {
		slog.Error("failed to load env file", "path", envFile, "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("starting subway server",
		"log_level", cfg.LogLevel.String(),
		"http_addr", cfg.HTTPAddr,
		"sqlite_database", cfg.SQLiteDatabase,
		"seed_dir", cfg.SeedDir,
		"redis_enabled", cfg.RedisEnabled,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.OpenSQLite(ctx, cfg.SQLiteDatabase, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	deps := map[string]handler.Pinger{"sqlite": db}

	var pathCache service.PathCache
	if cfg.RedisEnabled {
		redisCache, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL, logger)
		if err != nil {
			logger.Warn("redis unavailable, path cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer redisCache.Close()
			pathCache = redisCache
			deps["redis"] = redisCache
			logger.Info("redis cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
		}
	}

	wsHub := hub.NewHub(logger)

	stationService := service.NewStationService(db, pathCache, wsHub, logger)
	lineService := service.NewLineService(db, pathCache, wsHub, logger)
	pathService := service.NewPathService(db, pathCache, logger)

	seedIng := ingestor.NewSeedIngestor(cfg.SeedDir, lineService, logger)
	if pathCache != nil && cfg.CacheWarmOnStart {
		warmer := cache.NewCacheWarmer(pathService, db, logger)
		seedIng.SetOnUpdate(func(ctx context.Context) {
			if err := warmer.WarmAll(ctx); err != nil {
				logger.Error("cache warming failed", "error", err)
			}
		})
	}

	limiter := middleware.NewRateLimiter(ctx, cfg.RateLimitPerWindow, cfg.RateLimitWindow, cfg.RateLimitWhitelist, logger)
	limiter.OnBlocked(handler.ServerStats.IncRateLimitBlocked)

	router := handler.NewRouter(handler.Handlers{
		Stations: handler.NewStationHandler(stationService, logger),
		Lines:    handler.NewLineHandler(lineService, logger),
		Paths:    handler.NewPathHandler(pathService, logger),
		WS:       handler.NewWSHandler(wsHub, lineService, logger),
		Health:   handler.NewHealthHandler(seedIng, deps),
		Stats:    handler.NewStatsHandler(stationService, lineService, pathService, wsHub, limiter),
	},
		handler.CORSMiddleware,
		handler.RequestLogger(logger),
		limiter.Middleware,
		handler.GzipMiddleware,
	)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go wsHub.Run(ctx)

	go seedIng.Start(ctx)

	go func() {
		logger.Info("starting HTTP server", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	start := time.Now()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("shutdown complete", "duration_ms", time.Since(start).Milliseconds())
}
