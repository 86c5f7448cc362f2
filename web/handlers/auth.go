package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ascendlabs/ascendancy/internal/auth"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Guest  bool   `json:"guest"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	if h.identity == nil {
		h.jsonError(w, "account registration is not available", http.StatusServiceUnavailable)
		return
	}

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		h.jsonError(w, "email and password are required", http.StatusBadRequest)
		return
	}

	account, err := h.identity.Signup(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.writeIdentityError(w, err)
		return
	}

	h.issueSession(w, account.UserID, account.Name)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if h.identity == nil {
		h.jsonError(w, "sign in is not available", http.StatusServiceUnavailable)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		h.jsonError(w, "email and password are required", http.StatusBadRequest)
		return
	}

	account, err := h.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeIdentityError(w, err)
		return
	}

	h.issueSession(w, account.UserID, account.Name)
}

// handleAnonymous mints a guest session. Guests can chat using the
// server's credentials but own no secrets and no history.
func (h *Handler) handleAnonymous(w http.ResponseWriter, r *http.Request) {
	token, session, err := h.sessions.IssueGuest()
	if err != nil {
		slog.Error("Failed to issue guest session", "error", err)
		h.jsonError(w, "failed to create session", http.StatusInternalServerError)
		return
	}
	h.json(w, sessionResponse{Token: token, UserID: session.UserID, Name: session.Name, Guest: true})
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())
	h.json(w, sessionResponse{UserID: session.UserID, Name: session.Name, Guest: session.Guest})
}

func (h *Handler) issueSession(w http.ResponseWriter, userID, name string) {
	token, err := h.sessions.Issue(userID, name)
	if err != nil {
		slog.Error("Failed to issue session", "error", err)
		h.jsonError(w, "failed to create session", http.StatusInternalServerError)
		return
	}
	h.json(w, sessionResponse{Token: token, UserID: userID, Name: name})
}

func (h *Handler) writeIdentityError(w http.ResponseWriter, err error) {
	var idErr *auth.IdentityError
	if errors.As(err, &idErr) && idErr.Status >= 400 && idErr.Status < 500 {
		h.jsonError(w, idErr.Message, idErr.Status)
		return
	}
	slog.Error("Identity provider request failed", "error", err)
	h.jsonError(w, "identity provider is unavailable", http.StatusBadGateway)
}
