package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpmiddleware "github.com/wolfman30/qr-contact-links/internal/http/middleware"
	"github.com/wolfman30/qr-contact-links/internal/pages"
	"github.com/wolfman30/qr-contact-links/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Pages              *pages.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// PNGRateLimiter throttles QR image downloads per client IP (optional).
	PNGRateLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.NotFound(cfg.Pages.NotFound)

	// Public endpoints (health checks, metrics)
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Contact form and QR pages
	r.Get("/", cfg.Pages.FormPage)
	r.Post("/", cfg.Pages.SubmitForm)
	r.Get(pages.GeneratePath, cfg.Pages.GeneratePage)

	r.Group(func(png chi.Router) {
		if cfg.PNGRateLimiter != nil {
			png.Use(httpmiddleware.RateLimit(cfg.PNGRateLimiter))
		}
		png.Get(pages.PNGPath, cfg.Pages.DownloadPNG)
	})

	r.Group(func(vcf chi.Router) {
		vcf.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
		vcf.Get(pages.VCardPath, cfg.Pages.DownloadVCard)
		vcf.Options(pages.VCardPath, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
