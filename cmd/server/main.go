package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"route-optimizer-service/internal/adapters/cache"
	"route-optimizer-service/internal/adapters/distance"
	"route-optimizer-service/internal/api"
	"route-optimizer-service/internal/config"
	"route-optimizer-service/internal/platform/db"
	"route-optimizer-service/internal/platform/logger"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"
	"route-optimizer-service/internal/services"

	"go.uber.org/zap"
)

// main is the application composition root.
// It wires concrete adapters (OSRM, optional distance cache) behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	obs.RegisterDefault()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	osrm := distance.NewOSRMProvider(distance.OSRMConfig{
		BaseURL:          cfg.OSRM.BaseURL,
		Profile:          cfg.OSRM.Profile,
		Timeout:          cfg.OSRM.Timeout,
		Cooldown:         cfg.OSRM.Cooldown,
		PairwiseMaxStops: cfg.Engine.PairwiseMaxStops,
		PairwiseDelay:    cfg.Engine.PairwiseDelay,
		GeometryMaxStops: cfg.Engine.GeometryMaxStops,
	})

	// Road matrices are cached persistently when a backend is configured.
	var road ports.MatrixProvider = osrm
	distanceCache, closeCache, err := openCache(ctx, cfg)
	if err != nil {
		logger.L().Fatal("open distance cache", zap.String("backend", cfg.CacheBackend), zap.Error(err))
	}
	defer closeCache()
	if distanceCache != nil {
		road = distance.NewCachedMatrixProvider(osrm, distanceCache)
	}

	optimizer := services.NewOptimizer(cfg.Engine, road, osrm)
	router := api.NewRouter(optimizer, osrm)

	// WriteTimeout covers a cold pairwise fallback (up to 45 paced requests) plus geometry.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("osrm", cfg.OSRM.BaseURL),
			zap.String("cache_backend", cfg.CacheBackend),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}

// openCache returns the configured distance cache, or nil when caching is off.
func openCache(ctx context.Context, cfg config.Config) (ports.DistanceCache, func(), error) {
	noop := func() {}

	switch strings.ToLower(cfg.CacheBackend) {
	case "", "none":
		return nil, noop, nil

	case "redis":
		if strings.TrimSpace(cfg.RedisURL) == "" {
			return nil, noop, errors.New("REDIS_URL is required for the redis cache backend")
		}
		c, err := cache.NewRedisDistanceCache(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			return nil, noop, err
		}
		return c, func() { _ = c.Close() }, nil

	case "postgres":
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, noop, errors.New("DATABASE_URL is required for the postgres cache backend")
		}
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		if err := cache.InitSchema(ctx, conn, cache.DialectPostgres); err != nil {
			_ = conn.Close()
			return nil, noop, err
		}
		return cache.NewSQLDistanceCache(conn), func() { _ = conn.Close() }, nil

	case "sqlite":
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, noop, fmt.Errorf("create sqlite directory %q: %w", dir, err)
			}
		}
		conn, err := db.OpenSqlite(cfg.DBPath)
		if err != nil {
			return nil, noop, err
		}
		if err := cache.InitSchema(ctx, conn, cache.DialectSqlite); err != nil {
			_ = conn.Close()
			return nil, noop, err
		}
		return cache.NewSqliteDistanceCache(conn), func() { _ = conn.Close() }, nil
	}

	return nil, noop, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
}
