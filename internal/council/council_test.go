package council

import (
	"context"
	"errors"
	"testing"

	"github.com/ascendlabs/ascendancy/internal/core"
	"github.com/ascendlabs/ascendancy/internal/storage"
)

type stubStore struct {
	storage.Store
	bindings *core.CouncilBindings
	err      error
	saved    *core.CouncilBindings
}

func (s *stubStore) GetCouncilConfig(_ context.Context, _ string) (*core.CouncilBindings, error) {
	return s.bindings, s.err
}

func (s *stubStore) PutCouncilConfig(_ context.Context, _ string, bindings *core.CouncilBindings) error {
	s.saved = bindings
	return nil
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	l := NewLoader(&stubStore{})

	got := l.Load(context.Background())
	if got != DefaultBindings() {
		t.Errorf("bindings = %+v, want defaults", got)
	}
}

func TestLoadDefaultsOnStorageError(t *testing.T) {
	l := NewLoader(&stubStore{err: errors.New("connection refused")})

	got := l.Load(context.Background())
	if got != DefaultBindings() {
		t.Errorf("bindings = %+v, want defaults on error", got)
	}
}

func TestLoadPerRoleFallback(t *testing.T) {
	l := NewLoader(&stubStore{bindings: &core.CouncilBindings{
		Moderator: "gpt-4o",
		// Skeptic unset in storage.
		Visionary: "gemini-1.5-pro",
	}})

	got := l.Load(context.Background())
	if got.Moderator != "gpt-4o" {
		t.Errorf("moderator = %q", got.Moderator)
	}
	if got.Skeptic != DefaultBindings().Skeptic {
		t.Errorf("skeptic = %q, want default", got.Skeptic)
	}
	if got.Visionary != "gemini-1.5-pro" {
		t.Errorf("visionary = %q", got.Visionary)
	}
}

func TestDefaultBindingsAreDistinct(t *testing.T) {
	d := DefaultBindings()
	models := []string{d.Moderator, d.Skeptic, d.Visionary}
	seen := map[string]bool{}
	for _, m := range models {
		if m == "" {
			t.Error("default binding is empty")
		}
		if seen[m] {
			t.Errorf("duplicate default model %q", m)
		}
		seen[m] = true
	}
}

func TestSave(t *testing.T) {
	store := &stubStore{}
	l := NewLoader(store)

	want := &core.CouncilBindings{Moderator: "a", Skeptic: "b", Visionary: "c"}
	if err := l.Save(context.Background(), want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if store.saved != want {
		t.Errorf("saved = %+v", store.saved)
	}
}
