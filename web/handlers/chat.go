package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ascendlabs/ascendancy/internal/auth"
	"github.com/ascendlabs/ascendancy/internal/core"
	"github.com/ascendlabs/ascendancy/internal/orchestrator"
)

type chatRequest struct {
	Prompt         string         `json:"prompt"`
	Model          string         `json:"model,omitempty"`
	Mode           string         `json:"mode,omitempty"`
	Role           string         `json:"role,omitempty"`
	Messages       []core.Message `json:"messages,omitempty"`
	SearchProvider string         `json:"searchProvider,omitempty"`
	Debug          bool           `json:"debug,omitempty"`
}

// debugInfo echoes where the credential came from, never its value.
type debugInfo struct {
	Provider         string `json:"provider"`
	CredentialSource string `json:"credential_source"`
}

type soloResponse struct {
	Content   string     `json:"content"`
	Reasoning string     `json:"reasoning,omitempty"`
	Model     string     `json:"model"`
	Debug     *debugInfo `json:"debug,omitempty"`
}

type debateResponse struct {
	Content string               `json:"content"`
	Debate  *core.DebateResult   `json:"debate"`
	Models  core.CouncilBindings `json:"models"`
}

// handleChat serves both modes. A model id means a solo chat against
// that model; no model means a full council debate. An explicit mode
// field overrides the inference.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		h.jsonError(w, "prompt is required", http.StatusBadRequest)
		return
	}

	session := auth.FromContext(r.Context())
	engineReq := &orchestrator.Request{
		UserID:         session.UserID,
		Guest:          session.Guest,
		Prompt:         req.Prompt,
		Model:          req.Model,
		Role:           req.Role,
		Messages:       req.Messages,
		SearchProvider: req.SearchProvider,
	}

	mode := req.Mode
	if mode == "" {
		if req.Model != "" {
			mode = "solo"
		} else {
			mode = "debate"
		}
	}

	switch mode {
	case "solo":
		if req.Model == "" {
			h.jsonError(w, "model is required for solo mode", http.StatusBadRequest)
			return
		}
		result, err := h.engine.Solo(r.Context(), engineReq)
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		resp := soloResponse{Content: result.Content, Reasoning: result.Reasoning, Model: result.Model}
		if req.Debug {
			resp.Debug = &debugInfo{Provider: string(result.Provider), CredentialSource: result.CredentialSource}
		}
		h.json(w, resp)

	case "debate":
		outcome, err := h.engine.Debate(r.Context(), engineReq)
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		h.json(w, debateResponse{Content: outcome.Content, Debate: outcome.Debate, Models: outcome.Models})

	default:
		h.jsonError(w, "mode must be solo or debate", http.StatusBadRequest)
	}
}
