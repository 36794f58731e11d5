// Package http serves the local kiosk surface: health, status, the setup
// pairing endpoint and the frame websocket.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/wrale/wrale-painel/api/types/v1alpha1"
	perrors "github.com/wrale/wrale-painel/internal/painel/errors"
	"github.com/wrale/wrale-painel/internal/painel/identity"
)

// Pairer pairs the device with an operator-typed code
type Pairer interface {
	Pair(ctx context.Context, code string) (identity.DeviceID, error)
}

// StatusProvider reports the player status
type StatusProvider interface {
	Status(ctx context.Context) v1alpha1.PlayerStatus
}

// StatusFunc adapts a function to StatusProvider
type StatusFunc func(ctx context.Context) v1alpha1.PlayerStatus

// Status implements StatusProvider
func (f StatusFunc) Status(ctx context.Context) v1alpha1.PlayerStatus {
	return f(ctx)
}

// Handler serves the kiosk endpoints
type Handler struct {
	pairer  Pairer
	status  StatusProvider
	ws      http.Handler
	limiter *limiter
	logger  zerolog.Logger
}

// Option configures a Handler
type Option func(*Handler)

// WithPairLimit overrides DefaultPairLimit
func WithPairLimit(l Limit) Option {
	return func(h *Handler) {
		if l.Attempts > 0 && l.Period > 0 {
			h.limiter = newLimiter(l)
		}
	}
}

// NewHandler creates a handler. ws may be nil when no page is served.
func NewHandler(pairer Pairer, status StatusProvider, ws http.Handler, logger zerolog.Logger, opts ...Option) *Handler {
	h := &Handler{
		pairer:  pairer,
		status:  status,
		ws:      ws,
		limiter: newLimiter(DefaultPairLimit),
		logger:  logger.With().Str("component", "http").Logger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router returns a router with every endpoint mounted
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the endpoints on r
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Route("/api/v1alpha1", func(r chi.Router) {
		r.Get("/status", h.handleStatus)
		r.With(h.limitPairing).Post("/pair", h.handlePair)
	})
	if h.ws != nil {
		r.Handle("/ws", h.ws)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.status.Status(r.Context()))
}

func (h *Handler) handlePair(w http.ResponseWriter, r *http.Request) {
	var req v1alpha1.PairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.pairer.Pair(r.Context(), req.Code)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case perrors.IsValidation(err):
			status = http.StatusBadRequest
		case perrors.IsPairing(err):
			status = http.StatusBadGateway
		}
		h.logger.Warn().Err(err).Int("status", status).Msg("pairing failed")
		h.respondError(w, status, message(err))
		return
	}

	h.respondJSON(w, http.StatusOK, v1alpha1.PairResponse{UUID: id.String()})
}

// message returns the operator-facing text of err
func message(err error) string {
	var perr *perrors.Error
	if errors.As(err, &perr) {
		return perr.Message
	}
	return err.Error()
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.logger.Error().Err(err).Msg("failed to encode response")
		}
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, msg string) {
	h.respondJSON(w, status, v1alpha1.ErrorResponse{Message: msg})
}
