package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ascendlabs/ascendancy/internal/auth"
	"github.com/ascendlabs/ascendancy/internal/core"
	"github.com/ascendlabs/ascendancy/internal/export"
)

const defaultPageSize = 50

func pagination(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())
	limit, offset := pagination(r)

	messages, err := h.store.ListChatMessages(r.Context(), session.UserID, limit, offset)
	if err != nil {
		slog.Error("Failed to list chat history", "user_id", session.UserID, "error", err)
		h.jsonError(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	h.json(w, map[string]any{"messages": messages})
}

func (h *Handler) handleListDebates(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())
	limit, offset := pagination(r)

	debates, err := h.store.ListDebateResults(r.Context(), session.UserID, limit, offset)
	if err != nil {
		slog.Error("Failed to list debates", "user_id", session.UserID, "error", err)
		h.jsonError(w, "failed to load debates", http.StatusInternalServerError)
		return
	}
	h.json(w, map[string]any{"debates": debates})
}

func (h *Handler) handleGetDebate(w http.ResponseWriter, r *http.Request) {
	debate, ok := h.loadOwnedDebate(w, r)
	if !ok {
		return
	}
	h.json(w, debate)
}

func (h *Handler) handleExportDebate(w http.ResponseWriter, r *http.Request) {
	debate, ok := h.loadOwnedDebate(w, r)
	if !ok {
		return
	}

	exporter, err := export.GetExporter(export.Format(chi.URLParam(r, "format")))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	filename := export.GenerateFilename(debate, exporter.FileExtension())
	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := exporter.Export(debate, w); err != nil {
		slog.Error("Failed to export debate", "id", debate.ID, "error", err)
	}
}

// loadOwnedDebate fetches the debate and enforces ownership. Another
// user's debate reads as not found rather than forbidden.
func (h *Handler) loadOwnedDebate(w http.ResponseWriter, r *http.Request) (*core.DebateResult, bool) {
	session := auth.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	debate, err := h.store.GetDebateResult(r.Context(), id)
	if err != nil {
		slog.Error("Failed to load debate", "id", id, "error", err)
		h.jsonError(w, "failed to load debate", http.StatusInternalServerError)
		return nil, false
	}
	if debate == nil || debate.UserID != session.UserID {
		h.jsonError(w, "debate not found", http.StatusNotFound)
		return nil, false
	}
	return debate, true
}
