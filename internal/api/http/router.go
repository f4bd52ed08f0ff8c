// Package http provides the HTTP delivery layer for the URL shortener
// service: request decoding, input validation and response formatting around
// the core URL service.
package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/adilkhash/url-shortener/internal/config"
	"github.com/adilkhash/url-shortener/internal/models"
)

// URLService defines the interface for the core URL shortening business logic.
type URLService interface {
	// CreateURL allocates a short code (customCode when non-empty) and
	// persists a new URL record with an optional expiry.
	CreateURL(ctx context.Context, originalURL, customCode string, expiresAt *time.Time) (*models.URL, error)

	// ResolveShortCode retrieves the original URL for a given short code,
	// applying expiry checks and counting the visit.
	ResolveShortCode(ctx context.Context, shortCode string) (*models.URL, error)

	// GetURLStats retrieves the record associated with the short code
	// without mutating it.
	GetURLStats(ctx context.Context, shortCode string) (*models.URL, error)

	// DeactivateURL disables the URL, making it no longer functional.
	// It reports whether a record was flipped; repeated calls report false.
	DeactivateURL(ctx context.Context, id int64) (bool, error)

	// CleanupExpiredURLs bulk-deactivates expired records and returns the
	// number affected.
	CleanupExpiredURLs(ctx context.Context) (int64, error)
}

// getValidate initializes a new validator instance for validating incoming request payloads.
// It customizes tag name extraction from struct fields to match JSON tags.
func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes and returns a new HTTP router with all routes and middleware configured.
func NewRouter(logger *httplog.Logger, urlSvc URLService, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"POST", "GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	h := newURLHandler(urlSvc, getValidate(), cfg.BaseURL, cfg.MaxURLLength)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger.yml")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", handlePing)

		r.Route("/urls", func(r chi.Router) {
			r.Post("/", h.createURL)
			r.Post("/cleanup", h.cleanupExpiredURLs)
			r.Delete("/{id}", h.deactivateURL)
			r.Get("/{shortCode}/stats", h.getURLStats)
		})
	})

	r.Get("/{shortCode}", h.redirect)

	return r
}
