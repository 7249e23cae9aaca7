// Package qrcode renders contact payloads as PNG QR codes and caches the
// resulting images.
package qrcode

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/color"
	"time"

	goqr "github.com/skip2/go-qrcode"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/qr-contact-links/internal/observability/metrics"
	"github.com/wolfman30/qr-contact-links/pkg/logging"
)

var qrTracer = otel.Tracer("qrlinks/qrcode")

const (
	DefaultSize = 300
	MinSize     = 128
	MaxSize     = 1024
)

var (
	// ErrEmptyPayload is returned when there is nothing to encode.
	ErrEmptyPayload = errors.New("qrcode: empty payload")
	// ErrPayloadTooLarge is returned when the payload exceeds the capacity of
	// the largest symbol at error-correction level Medium.
	ErrPayloadTooLarge = errors.New("payload exceeds qr code capacity")
)

var (
	foreground = color.RGBA{R: 0x1f, G: 0x29, B: 0x37, A: 0xff}
	background = color.White
)

// Options configures a Renderer. Zero values fall back to defaults.
type Options struct {
	Size    int
	Cache   Cache
	Metrics *metrics.ContactMetrics
	Logger  *logging.Logger
}

// Renderer encodes payloads at error-correction level Medium.
type Renderer struct {
	size    int
	cache   Cache
	metrics *metrics.ContactMetrics
	logger  *logging.Logger
}

func NewRenderer(opts Options) *Renderer {
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return &Renderer{
		size:    ClampSize(opts.Size),
		cache:   opts.Cache,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
}

// Size is the default edge length used when PNG is called with size <= 0.
func (r *Renderer) Size() int {
	return r.size
}

// ClampSize bounds a requested edge length to [MinSize, MaxSize].
func ClampSize(size int) int {
	switch {
	case size < MinSize:
		return MinSize
	case size > MaxSize:
		return MaxSize
	default:
		return size
	}
}

// PNG returns the QR image for payload. Cache failures are logged and
// bypassed; only encoding failures are returned.
func (r *Renderer) PNG(ctx context.Context, payload string, size int) ([]byte, error) {
	if size <= 0 {
		size = r.size
	}
	size = ClampSize(size)

	ctx, span := qrTracer.Start(ctx, "qrcode.render", trace.WithAttributes(
		attribute.Int("qr.payload_bytes", len(payload)),
		attribute.Int("qr.size", size),
	))
	defer span.End()

	if payload == "" {
		span.SetStatus(codes.Error, ErrEmptyPayload.Error())
		return nil, ErrEmptyPayload
	}

	key := CacheKey(payload, size)
	if png, ok := r.lookup(ctx, key); ok {
		span.SetAttributes(attribute.Bool("qr.cache_hit", true))
		return png, nil
	}
	span.SetAttributes(attribute.Bool("qr.cache_hit", false))

	start := time.Now()
	png, err := encode(payload, size)
	r.metrics.ObserveQRRender(time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode failed")
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, png); err != nil {
			r.logger.Warn("qr cache store failed", "error", err)
		}
	}
	return png, nil
}

func (r *Renderer) lookup(ctx context.Context, key string) ([]byte, bool) {
	if r.cache == nil {
		return nil, false
	}
	png, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.metrics.ObserveQRCache("error")
		r.logger.Warn("qr cache lookup failed", "error", err)
		return nil, false
	}
	if !ok {
		r.metrics.ObserveQRCache("miss")
		return nil, false
	}
	r.metrics.ObserveQRCache("hit")
	return png, true
}

func encode(payload string, size int) ([]byte, error) {
	q, err := goqr.New(payload, goqr.Medium)
	if err != nil {
		// go-qrcode only rejects byte-mode content for being too long.
		return nil, fmt.Errorf("qrcode: encode: %w: %v", ErrPayloadTooLarge, err)
	}
	q.ForegroundColor = foreground
	q.BackgroundColor = background

	png, err := q.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("qrcode: png: %w", err)
	}
	return png, nil
}

// DataURI embeds png in a data URI for inline <img> sources.
func DataURI(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
