package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cafepos/backend/internal/cache"
	"cafepos/backend/internal/config"
	"cafepos/backend/internal/httpapi"
	"cafepos/backend/internal/logging"
	"cafepos/backend/internal/menu"
	"cafepos/backend/internal/service"
	"cafepos/backend/internal/store"
	"cafepos/backend/internal/store/memory"
	"cafepos/backend/internal/store/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New("cafepos", "info")
		fallback.Fatal().Err(err).Msg("config load failed")
	}

	logger := logging.New("cafepos", cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("config rejected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo store.Repository
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connect failed")
		}
		defer func() { _ = pg.Close() }()

		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("schema bootstrap failed")
		}
		repo = pg
		logger.Info().Msg("using postgres store")
	} else {
		mem := memory.New()
		mem.Seed(menu.Default())
		repo = mem
		logger.Warn().Msg("CAFEPOS_DATABASE_URL unset; using in-memory store")
	}

	var analyticsCache cache.AnalyticsCache = cache.NoopAnalyticsCache{}
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisAnalyticsCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable; analytics cache disabled")
		} else {
			defer func() { _ = redisCache.Close() }()
			analyticsCache = redisCache
			logger.Info().Str("addr", cfg.RedisAddr).Msg("analytics cache enabled")
		}
	}

	svc := service.New(repo, logger, service.WithAnalyticsCache(analyticsCache, cfg.AnalyticsCacheTTL))

	if err := svc.EnsureBootstrapAdmin(ctx, cfg.BootstrapAdminUsername, cfg.BootstrapAdminPassword); err != nil {
		logger.Fatal().Err(err).Msg("bootstrap admin failed")
	}

	auth := httpapi.NewAuthManager(cfg.AuthSecret, cfg.TokenTTL)
	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           httpapi.NewServer(svc, auth, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown incomplete")
	}
}
