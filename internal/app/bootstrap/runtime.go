package bootstrap

import (
	"context"
	"crypto/tls"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/qr-contact-links/internal/config"
	"github.com/wolfman30/qr-contact-links/internal/observability/metrics"
	"github.com/wolfman30/qr-contact-links/internal/qrcode"
	"github.com/wolfman30/qr-contact-links/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, using in-memory qr cache", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildRenderCache picks the Redis cache when a client is available and the
// in-memory cache otherwise.
func BuildRenderCache(redisClient *redis.Client, cfg *appconfig.Config) qrcode.Cache {
	if redisClient != nil {
		return qrcode.NewRedisCache(redisClient, cfg.QRCacheTTL)
	}
	return qrcode.NewMemoryCache(cfg.QRCacheTTL, cfg.QRCacheMaxEntries)
}

// BuildMetrics registers the contact metrics and the Go runtime collectors on
// a dedicated registry and returns the /metrics handler for it.
func BuildMetrics() (http.Handler, *metrics.ContactMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewContactMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}

// BuildRenderer wires the QR renderer with its cache and metrics.
func BuildRenderer(cfg *appconfig.Config, cache qrcode.Cache, m *metrics.ContactMetrics, logger *logging.Logger) *qrcode.Renderer {
	return qrcode.NewRenderer(qrcode.Options{
		Size:    cfg.QRSize,
		Cache:   cache,
		Metrics: m,
		Logger:  logger,
	})
}
