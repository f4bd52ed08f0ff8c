package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/adilkhash/url-shortener/internal/database"
	"github.com/adilkhash/url-shortener/internal/models"
	"github.com/adilkhash/url-shortener/internal/service"
	"github.com/adilkhash/url-shortener/internal/validation"
	"github.com/adilkhash/url-shortener/pkg/response"
)

// handlePing handles health check requests to ensure the server is running.
func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

// createURLRequest represents the request payload for shortening a URL.
type createURLRequest struct {
	OriginalURL string     `json:"original_url" validate:"required"`
	CustomCode  string     `json:"custom_code,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// urlResponse represents the response payload for a shortened URL operation.
type urlResponse struct {
	ID          int64      `json:"id"`
	OriginalURL string     `json:"original_url"`
	ShortCode   string     `json:"short_code"`
	ShortURL    string     `json:"short_url"`
	CreatedAt   time.Time  `json:"created_at"`
	ClickCount  int64      `json:"click_count"`
	ExpiresAt   *time.Time `json:"expires_at"`
	IsActive    bool       `json:"is_active"`
}

type urlHandler struct {
	svc          URLService
	validate     *validator.Validate
	baseURL      string
	maxURLLength int
}

func newURLHandler(svc URLService, validate *validator.Validate, baseURL string, maxURLLength int) *urlHandler {
	return &urlHandler{
		svc:          svc,
		validate:     validate,
		baseURL:      baseURL,
		maxURLLength: maxURLLength,
	}
}

// toURLResponse converts a URL model from the business layer into a response payload.
func (h *urlHandler) toURLResponse(url *models.URL) urlResponse {
	return urlResponse{
		ID:          url.ID,
		OriginalURL: url.OriginalURL,
		ShortCode:   url.ShortCode,
		ShortURL:    strings.TrimSuffix(h.baseURL, "/") + "/" + url.ShortCode,
		CreatedAt:   url.CreatedAt,
		ClickCount:  url.ClickCount,
		ExpiresAt:   url.ExpiresAt,
		IsActive:    url.IsActive,
	}
}

// createURL handles POST requests to shorten a URL.
//
// All input validation happens here, before any store interaction: the URL
// must be a well-formed http(s) URL within the configured length limit, and
// a custom code, when present, must match the short code syntax.
func (h *urlHandler) createURL(w http.ResponseWriter, r *http.Request) {
	const op = "api.http.urlHandler.createURL"

	var req createURLRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.EmptyRequestBodyResponse)
			return
		}

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.BadRequestResponse)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationErrorResponse(err))
		return
	}

	if !validation.IsValidURL(req.OriginalURL) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.InvalidURLResponse)
		return
	}

	if !validation.ValidateURLLength(req.OriginalURL, h.maxURLLength) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.URLTooLongResponse)
		return
	}

	if req.CustomCode != "" && !validation.IsValidShortCode(req.CustomCode) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.InvalidShortCodeResponse)
		return
	}

	url, err := h.svc.CreateURL(r.Context(), req.OriginalURL, req.CustomCode, req.ExpiresAt)
	if err != nil {
		if errors.Is(err, database.ErrShortCodeExists) {
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.DuplicateShortCodeResponse)
			return
		}

		httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerErrorResponse)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, h.toURLResponse(url))
}

// redirect handles GET requests on a short code and issues a permanent
// redirect to the original URL. Unknown, inactive, malformed and expired
// codes all answer 404 so the path leaks nothing about retained records.
func (h *urlHandler) redirect(w http.ResponseWriter, r *http.Request) {
	const op = "api.http.urlHandler.redirect"

	shortCode := chi.URLParam(r, "shortCode")

	if !validation.IsValidShortCode(shortCode) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.ResourceNotFoundResponse)
		return
	}

	url, err := h.svc.ResolveShortCode(r.Context(), shortCode)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrURLNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.ResourceNotFoundResponse)
		case errors.Is(err, service.ErrURLExpired):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.URLExpiredResponse)
		default:
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
		}

		return
	}

	http.Redirect(w, r, url.OriginalURL, http.StatusMovedPermanently)
}

// getURLStats handles GET requests to retrieve usage statistics for a
// shortened URL. Expired records are still reported; deactivated ones 404.
func (h *urlHandler) getURLStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.http.urlHandler.getURLStats"

	shortCode := chi.URLParam(r, "shortCode")

	if !validation.IsValidShortCode(shortCode) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.InvalidShortCodeResponse)
		return
	}

	url, err := h.svc.GetURLStats(r.Context(), shortCode)
	if err != nil {
		if errors.Is(err, database.ErrURLNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.ResourceNotFoundResponse)
			return
		}

		httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerErrorResponse)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, h.toURLResponse(url))
}

// deactivateURL handles DELETE requests to permanently deactivate a URL by
// id. The operation is idempotent: deactivating a missing or already
// inactive record is not an error, the response just reports no change.
func (h *urlHandler) deactivateURL(w http.ResponseWriter, r *http.Request) {
	const op = "api.http.urlHandler.deactivateURL"

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.BadRequestResponse)
		return
	}

	deactivated, err := h.svc.DeactivateURL(r.Context(), id)
	if err != nil {
		httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerErrorResponse)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]bool{"deactivated": deactivated})
}

// cleanupExpiredURLs handles POST requests to bulk-deactivate all expired
// records. The periodic trigger lives outside the service.
func (h *urlHandler) cleanupExpiredURLs(w http.ResponseWriter, r *http.Request) {
	const op = "api.http.urlHandler.cleanupExpiredURLs"

	count, err := h.svc.CleanupExpiredURLs(r.Context())
	if err != nil {
		httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ServerErrorResponse)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]int64{"deactivated": count})
}
