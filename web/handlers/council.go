package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ascendlabs/ascendancy/internal/core"
)

// handleGetCouncil returns the effective bindings, defaults included.
func (h *Handler) handleGetCouncil(w http.ResponseWriter, r *http.Request) {
	h.json(w, h.council.Load(r.Context()))
}

// handlePutCouncil replaces the stored council wholesale. All three
// roles must be supplied; partial updates are not a thing.
func (h *Handler) handlePutCouncil(w http.ResponseWriter, r *http.Request) {
	var bindings core.CouncilBindings
	if err := json.NewDecoder(r.Body).Decode(&bindings); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if bindings.Moderator == "" || bindings.Skeptic == "" || bindings.Visionary == "" {
		h.jsonError(w, "moderator, skeptic and visionary models are all required", http.StatusBadRequest)
		return
	}

	if err := h.council.Save(r.Context(), &bindings); err != nil {
		slog.Error("Failed to save council config", "error", err)
		h.jsonError(w, "failed to save council configuration", http.StatusInternalServerError)
		return
	}

	h.json(w, bindings)
}
