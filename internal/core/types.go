// Package core contains the core domain types for ascendancy.
package core

import (
	"time"
)

// Message roles as the completion providers expect them.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatReply is the provider-agnostic result of one completion call.
// Reasoning carries secondary chain-of-thought text when the upstream
// exposes it; it is display-only and never fed back into prompts.
type ChatReply struct {
	Content   string `json:"content"`
	Reasoning string `json:"reasoning,omitempty"`
}

// ToolDecision is the outcome of one tool-routing classification call.
// It lives only for the duration of a single request.
type ToolDecision string

const (
	ToolWeb     ToolDecision = "WEB"
	ToolLibrary ToolDecision = "LIBRARY"
	ToolNone    ToolDecision = "NONE"
)

// Council roles.
const (
	CouncilModerator = "moderator"
	CouncilSkeptic   = "skeptic"
	CouncilVisionary = "visionary"
)

// CouncilBindings maps the three council roles to model identifiers.
// Bindings are loaded once per request and never mutated; a settings
// update replaces the persisted record wholesale.
type CouncilBindings struct {
	Moderator string `json:"moderator"`
	Skeptic   string `json:"skeptic"`
	Visionary string `json:"visionary"`
}

// RoleOutput is one council member's contribution to a debate.
type RoleOutput struct {
	Model   string `json:"model"`
	Content string `json:"content"`
}

// DebateResult is the immutable record of one completed debate.
type DebateResult struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id,omitempty"`
	Topic     string     `json:"topic"`
	Moderator RoleOutput `json:"moderator"`
	Skeptic   RoleOutput `json:"skeptic"`
	Visionary RoleOutput `json:"visionary"`
	CreatedAt time.Time  `json:"created_at"`
}

// DebateSummary is a lightweight representation for listing debates.
type DebateSummary struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessage is one persisted chat-history entry.
type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LibraryChunk is one excerpt returned by a library full-text search.
type LibraryChunk struct {
	FileName string `json:"file_name"`
	Content  string `json:"content"`
}

// Secret is a per-user stored credential. Values are write-only from the
// client's perspective; the API never echoes them back.
type Secret struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Value  string `json:"-"`
}

// The fixed enumeration of secret key names.
const (
	SecretLightningAPIKey        = "lightning_api_key"
	SecretOpenAIAPIKey           = "openai_api_key"
	SecretLightningUsername      = "lightning_username"
	SecretLightningTeamspace     = "lightning_teamspace"
	SecretGoogleAntigravityToken = "google_antigravity_refresh"
	SecretGoogleCLIToken         = "google_cli_refresh"
)

// ValidSecretName reports whether name belongs to the fixed enumeration.
func ValidSecretName(name string) bool {
	switch name {
	case SecretLightningAPIKey, SecretOpenAIAPIKey,
		SecretLightningUsername, SecretLightningTeamspace,
		SecretGoogleAntigravityToken, SecretGoogleCLIToken:
		return true
	}
	return false
}

// SecretValue returns the value of the named secret from a user's secret
// list, or "" when absent.
func SecretValue(secrets []Secret, name string) string {
	for _, s := range secrets {
		if s.Name == name {
			return s.Value
		}
	}
	return ""
}
