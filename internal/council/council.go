// Package council resolves which model serves each debate role.
package council

import (
	"context"
	"log/slog"

	"github.com/ascendlabs/ascendancy/internal/core"
	"github.com/ascendlabs/ascendancy/internal/storage"
)

// DefaultConfigID is the single shared configuration record.
const DefaultConfigID = "default"

// DefaultBindings returns the built-in council. It is the fallback for
// every role that storage cannot supply.
func DefaultBindings() core.CouncilBindings {
	return core.CouncilBindings{
		Moderator: "lightning-ai/llama-3.3-70b",
		Skeptic:   "lightning-ai/deepseek-v3",
		Visionary: "lightning-ai/qwen3-32b",
	}
}

// Loader fetches council bindings with per-role fallback. Load never
// fails: a missing record, a storage error, or a blank field all
// resolve to the built-in model for that role.
type Loader struct {
	store storage.Store
}

func NewLoader(store storage.Store) *Loader {
	return &Loader{store: store}
}

func (l *Loader) Load(ctx context.Context) core.CouncilBindings {
	bindings := DefaultBindings()
	if l.store == nil {
		return bindings
	}

	stored, err := l.store.GetCouncilConfig(ctx, DefaultConfigID)
	if err != nil {
		slog.Warn("Failed to load council config, using defaults", "error", err)
		return bindings
	}
	if stored == nil {
		return bindings
	}

	if stored.Moderator != "" {
		bindings.Moderator = stored.Moderator
	}
	if stored.Skeptic != "" {
		bindings.Skeptic = stored.Skeptic
	}
	if stored.Visionary != "" {
		bindings.Visionary = stored.Visionary
	}
	return bindings
}

// Save replaces the stored council configuration wholesale.
func (l *Loader) Save(ctx context.Context, bindings *core.CouncilBindings) error {
	return l.store.PutCouncilConfig(ctx, DefaultConfigID, bindings)
}
