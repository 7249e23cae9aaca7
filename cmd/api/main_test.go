package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/qr-contact-links/internal/config"
	"github.com/wolfman30/qr-contact-links/pkg/logging"
)

const johnQuery = "firstName=John&lastName=Doe&email0=j%40x.com&phone0=%2B1+555-0100"

func testConfig() *appconfig.Config {
	return &appconfig.Config{
		QRSize:            300,
		QRCacheTTL:        time.Hour,
		QRCacheMaxEntries: 16,
		RateLimitRPS:      5,
		RateLimitBurst:    20,
	}
}

func TestNewHandlerServesPagesAndMetrics(t *testing.T) {
	handler, limiter := newHandler(testConfig(), nil, logging.NewWithWriter("error", &bytes.Buffer{}))
	defer limiter.Stop()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected form page, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/generate/qr.png?"+johnQuery, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected png, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `qrlinks_qr_cache_total{result="miss"} 1`) {
		t.Fatalf("expected cache miss to be exported, got:\n%s", rr.Body.String())
	}
}

func TestNewHandlerUsesRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	handler, limiter := newHandler(testConfig(), client, logging.NewWithWriter("error", &bytes.Buffer{}))
	defer limiter.Stop()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/generate?"+johnQuery, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected generate page, got %d", rr.Code)
	}

	keys := mr.Keys()
	if len(keys) != 1 || !strings.HasPrefix(keys[0], "qr:png:") {
		t.Fatalf("expected one cached png, got %v", keys)
	}
	if mr.TTL(keys[0]) != time.Hour {
		t.Fatalf("expected cache ttl of one hour, got %s", mr.TTL(keys[0]))
	}
	if !strings.HasSuffix(keys[0], ":300") {
		t.Fatalf("expected default size in key, got %s", keys[0])
	}
}
