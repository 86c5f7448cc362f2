package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ascendlabs/ascendancy/internal/auth"
	"github.com/ascendlabs/ascendancy/internal/core"
)

type putSecretRequest struct {
	Value string `json:"value"`
}

// handleListSecrets returns which secret names the user has set.
// Values are never echoed back.
func (h *Handler) handleListSecrets(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())

	secrets, err := h.store.GetSecrets(r.Context(), session.UserID)
	if err != nil {
		slog.Error("Failed to list secrets", "user_id", session.UserID, "error", err)
		h.jsonError(w, "failed to load secrets", http.StatusInternalServerError)
		return
	}

	names := make([]string, 0, len(secrets))
	for _, s := range secrets {
		names = append(names, s.Name)
	}
	h.json(w, map[string]any{"names": names})
}

func (h *Handler) handlePutSecret(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !core.ValidSecretName(name) {
		h.jsonError(w, "unknown secret name", http.StatusBadRequest)
		return
	}

	var req putSecretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Value == "" {
		h.jsonError(w, "value is required", http.StatusBadRequest)
		return
	}

	session := auth.FromContext(r.Context())
	secret := &core.Secret{UserID: session.UserID, Name: name, Value: req.Value}
	if err := h.store.PutSecret(r.Context(), secret); err != nil {
		slog.Error("Failed to store secret", "user_id", session.UserID, "name", name, "error", err)
		h.jsonError(w, "failed to store secret", http.StatusInternalServerError)
		return
	}

	h.json(w, map[string]string{"name": name, "status": "stored"})
}

func (h *Handler) handleDeleteSecret(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !core.ValidSecretName(name) {
		h.jsonError(w, "unknown secret name", http.StatusBadRequest)
		return
	}

	session := auth.FromContext(r.Context())
	if err := h.store.DeleteSecret(r.Context(), session.UserID, name); err != nil {
		slog.Error("Failed to delete secret", "user_id", session.UserID, "name", name, "error", err)
		h.jsonError(w, "failed to delete secret", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
