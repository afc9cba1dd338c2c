// Package httpapi serves π digits and the Sun's circumference as JSON.
package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/louisbranch/sunpi/internal/core/measure"
	"github.com/louisbranch/sunpi/internal/core/pi"
	apperrors "github.com/louisbranch/sunpi/internal/platform/errors"
	"github.com/louisbranch/sunpi/internal/platform/httpx"
	"github.com/louisbranch/sunpi/internal/services/pi/api"
	"golang.org/x/time/rate"
)

const (
	// DefaultDigits is served when a request omits the digits parameter.
	DefaultDigits = 100
	// SunRadiusKM is the Sun's mean radius in kilometers.
	SunRadiusKM = "695700"

	tracerName = "github.com/louisbranch/sunpi/internal/services/pi/api/http"
	langParam  = "lang"
)

// Provider produces π expansions.
type Provider interface {
	Get(ctx context.Context, digits int) (pi.Value, error)
	Latest(ctx context.Context) (pi.Value, bool, error)
	MaxDigits() int
}

// Option configures a Handler.
type Option func(*Handler)

// WithDefaultDigits sets the precision served when digits is omitted.
func WithDefaultDigits(digits int) Option {
	return func(h *Handler) { h.defaultDigits = digits }
}

// WithRadius sets the radius used for circumference requests.
func WithRadius(radius measure.Radius) Option {
	return func(h *Handler) { h.radius = radius }
}

// WithRateLimiter shares limiter across every /api request.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(h *Handler) { h.limiter = limiter }
}

// Handler serves the pi HTTP API.
type Handler struct {
	provider      Provider
	defaultDigits int
	radius        measure.Radius
	limiter       *rate.Limiter
}

// PiResponse is the body of /api/pi and /api/pi/latest.
type PiResponse struct {
	Pi string `json:"pi"`
	// DP is the number of fractional digits served, as a decimal string.
	DP string `json:"dp"`
}

// CircumferenceResponse is the body of /api/circumference.
type CircumferenceResponse struct {
	Circumference string `json:"circumference"`
	Unit          string `json:"unit"`
	Radius        string `json:"radius"`
	PiDigits      int    `json:"pi_digits"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries a machine-readable code and a localized message.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewHandler creates a handler backed by provider.
func NewHandler(provider Provider, opts ...Option) (*Handler, error) {
	if provider == nil {
		return nil, errors.New("pi provider is required")
	}
	h := &Handler{
		provider:      provider,
		defaultDigits: DefaultDigits,
		radius:        measure.MustRadius(SunRadiusKM),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.defaultDigits < 0 {
		return nil, errors.New("default digits must not be negative")
	}
	if !h.radius.Valid() {
		return nil, measure.ErrInvalidRadius
	}
	return h, nil
}

// Routes returns the HTTP routes with middleware applied.
func (h *Handler) Routes() http.Handler {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/pi", h.handlePi)
	apiMux.HandleFunc("GET /api/pi/latest", h.handleLatest)
	apiMux.HandleFunc("GET /api/circumference", h.handleCircumference)

	mux := http.NewServeMux()
	mux.Handle("/api/", httpx.Chain(apiMux, httpx.RateLimit(h.limiter, h.rateLimited)))
	mux.HandleFunc("GET /health", h.handleHealth)

	return httpx.Chain(mux,
		httpx.RecoverPanic(h.panicked),
		httpx.RequestID("pi"),
		httpx.Trace(tracerName),
		httpx.LogRequests(),
	)
}

func (h *Handler) handlePi(w http.ResponseWriter, r *http.Request) {
	digits, err := pi.ParsePrecision(r.URL.Query().Get("digits"), h.defaultDigits)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	value, err := h.provider.Get(r.Context(), digits)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, piResponse(value))
}

func (h *Handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	value, ok, err := h.provider.Latest(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !ok {
		h.writeError(w, r, apperrors.New(apperrors.CodeUnavailable, "no pi value has been computed yet"))
		return
	}
	h.writeJSON(w, http.StatusOK, piResponse(value))
}

func (h *Handler) handleCircumference(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	unit, err := measure.ParseUnit(query.Get("unit"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	digits, err := pi.ParsePrecision(query.Get("digits"), h.defaultDigits)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	value, err := h.provider.Get(r.Context(), digits)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := measure.Circumference(value.String(), h.radius, unit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, CircumferenceResponse{
		Circumference: result.Display,
		Unit:          unit.Symbol(),
		Radius:        h.radius.String(),
		PiDigits:      result.PiDigits,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) rateLimited(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, apperrors.New(apperrors.CodeRateLimited, "rate limit exceeded"))
}

func (h *Handler) panicked(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, apperrors.New(apperrors.CodeUnknown, "handler panicked"))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	mapped := api.DomainError(err, h.provider.MaxDigits())
	localized := apperrors.Localize(mapped, requestLocale(r))
	status := localized.Code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.Printf("http %s %s: %v", r.Method, r.URL.Path, err)
	}
	w.Header().Set("Content-Language", localized.Locale)
	h.writeJSON(w, status, ErrorResponse{Error: ErrorBody{
		Code:    string(localized.Code),
		Message: localized.Message,
	}})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	if err := httpx.WriteJSON(w, status, payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func piResponse(value pi.Value) PiResponse {
	return PiResponse{Pi: value.String(), DP: strconv.Itoa(value.Digits())}
}

// requestLocale prefers the lang query parameter over Accept-Language.
func requestLocale(r *http.Request) string {
	if lang := strings.TrimSpace(r.URL.Query().Get(langParam)); lang != "" {
		return lang
	}
	return r.Header.Get("Accept-Language")
}
