// Package storage provides persistence for secrets, council configuration,
// chat and debate history, and library search.
package storage

import (
	"context"

	"github.com/ascendlabs/ascendancy/internal/core"
)

// Store defines the document-store contract consumed by the core. Both the
// local SQLite backend and the hosted Appwrite backend implement it.
type Store interface {
	// Initialize sets up the storage (creates tables, etc.)
	Initialize() error

	// Close closes the storage connection.
	Close() error

	// Secret operations
	GetSecrets(ctx context.Context, userID string) ([]core.Secret, error)
	PutSecret(ctx context.Context, secret *core.Secret) error
	DeleteSecret(ctx context.Context, userID, name string) error

	// Council configuration. GetCouncilConfig returns (nil, nil) when no
	// record exists for the config id.
	GetCouncilConfig(ctx context.Context, configID string) (*core.CouncilBindings, error)
	PutCouncilConfig(ctx context.Context, configID string, bindings *core.CouncilBindings) error

	// Chat history
	AddChatMessage(ctx context.Context, msg *core.ChatMessage) error
	ListChatMessages(ctx context.Context, userID string, limit, offset int) ([]*core.ChatMessage, error)

	// Debate history
	AddDebateResult(ctx context.Context, result *core.DebateResult) error
	GetDebateResult(ctx context.Context, id string) (*core.DebateResult, error)
	ListDebateResults(ctx context.Context, userID string, limit, offset int) ([]*core.DebateSummary, error)

	// SearchLibrary runs a full-text search over the user's library chunks.
	// An empty userID searches across all documents (guest access).
	SearchLibrary(ctx context.Context, userID, query string, limit int) ([]core.LibraryChunk, error)
}
