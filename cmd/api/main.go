package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/qr-contact-links/internal/api/router"
	"github.com/wolfman30/qr-contact-links/internal/app/bootstrap"
	appconfig "github.com/wolfman30/qr-contact-links/internal/config"
	httpmiddleware "github.com/wolfman30/qr-contact-links/internal/http/middleware"
	"github.com/wolfman30/qr-contact-links/internal/pages"
	"github.com/wolfman30/qr-contact-links/pkg/logging"
)

func main() {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting qr-contact-links server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		logger.Info("qr render cache backed by redis", "addr", cfg.RedisAddr)
	}

	handler, limiter := newHandler(cfg, redisClient, logger)
	defer limiter.Stop()

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close failed", "error", err)
		}
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// newHandler wires the render cache, metrics, pages and router. The caller
// owns the returned rate limiter and must stop it.
func newHandler(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) (http.Handler, *httpmiddleware.RateLimiter) {
	metricsHandler, contactMetrics := bootstrap.BuildMetrics()
	cache := bootstrap.BuildRenderCache(redisClient, cfg)
	renderer := bootstrap.BuildRenderer(cfg, cache, contactMetrics, logger)
	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	return router.New(&router.Config{
		Logger:             logger,
		Pages:              pages.NewHandler(renderer, contactMetrics, cfg.PublicBaseURL, logger),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		PNGRateLimiter:     limiter,
	}), limiter
}
