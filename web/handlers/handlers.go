// Package handlers provides the HTTP API.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ascendlabs/ascendancy/internal/auth"
	"github.com/ascendlabs/ascendancy/internal/council"
	"github.com/ascendlabs/ascendancy/internal/credentials"
	"github.com/ascendlabs/ascendancy/internal/orchestrator"
	"github.com/ascendlabs/ascendancy/internal/storage"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	engine   *orchestrator.Engine
	store    storage.Store
	sessions *auth.Manager
	identity auth.Identity
	council  *council.Loader
	limiter  *RateLimiter
}

// New creates a new Handler. identity may be nil when no hosted
// identity provider is configured; signup and login then return 503.
func New(engine *orchestrator.Engine, store storage.Store, sessions *auth.Manager, identity auth.Identity, loader *council.Loader, limiter *RateLimiter) *Handler {
	return &Handler{
		engine:   engine,
		store:    store,
		sessions: sessions,
		identity: identity,
		council:  loader,
		limiter:  limiter,
	}
}

// Routes builds the router with middleware applied.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.sessions.Middleware)
	if h.limiter != nil {
		r.Use(h.limiter.middleware)
	}

	r.Get("/api/ping", h.handlePing)

	r.Post("/api/auth/signup", h.handleSignup)
	r.Post("/api/auth/login", h.handleLogin)
	r.Post("/api/auth/anonymous", h.handleAnonymous)
	r.Get("/api/auth/session", h.handleSession)

	r.Post("/api/chat", h.handleChat)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser)

		r.Get("/api/secrets", h.handleListSecrets)
		r.Put("/api/secrets/{name}", h.handlePutSecret)
		r.Delete("/api/secrets/{name}", h.handleDeleteSecret)

		r.Get("/api/council", h.handleGetCouncil)
		r.Put("/api/council", h.handlePutCouncil)

		r.Get("/api/history", h.handleHistory)
		r.Get("/api/debates", h.handleListDebates)
		r.Get("/api/debates/{id}", h.handleGetDebate)
		r.Get("/api/debates/{id}/export/{format}", h.handleExportDebate)
	})

	return r
}

func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	h.json(w, map[string]string{"status": "ok"})
}

func (h *Handler) json(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"message": message},
	})
}

// writeDomainError maps engine errors to status codes. Credential
// misses are the caller's problem: guests get 401 (sign in and add a
// key), signed-in users get 400 (add the key in settings).
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var missing *credentials.MissingCredentialError
	if errors.As(err, &missing) {
		code := http.StatusBadRequest
		if session := auth.FromContext(r.Context()); session == nil || session.Guest {
			code = http.StatusUnauthorized
		}
		h.jsonError(w, missing.Error(), code)
		return
	}

	slog.Error("Request failed", "path", r.URL.Path, "error", err)
	h.jsonError(w, "the model request failed, please try again", http.StatusInternalServerError)
}
