package persona

import (
	"strings"
	"testing"
)

func TestSkepticFactCheckMode(t *testing.T) {
	generic := Skeptic(false)
	factCheck := Skeptic(true)

	if generic.SystemPrompt == factCheck.SystemPrompt {
		t.Error("fact-check mode should change the skeptic prompt")
	}
	if !strings.Contains(factCheck.SystemPrompt, "fact-checking") {
		t.Errorf("fact-check prompt = %q", factCheck.SystemPrompt)
	}
	if strings.Contains(generic.SystemPrompt, "fact-checking") {
		t.Error("generic prompt should not carry fact-check framing")
	}
}

func TestPersonasAreDistinct(t *testing.T) {
	prompts := map[string]string{
		"moderator": Moderator().SystemPrompt,
		"skeptic":   Skeptic(false).SystemPrompt,
		"visionary": Visionary().SystemPrompt,
	}
	seen := map[string]string{}
	for role, prompt := range prompts {
		if prompt == "" {
			t.Errorf("%s prompt is empty", role)
		}
		if prev, ok := seen[prompt]; ok {
			t.Errorf("%s and %s share a prompt", role, prev)
		}
		seen[prompt] = role
	}
}

func TestSolo(t *testing.T) {
	if got := Solo(""); got != "You are a helpful assistant." {
		t.Errorf("Solo(\"\") = %q", got)
	}
	if got := Solo("a pirate"); got != "You are a pirate." {
		t.Errorf("Solo(custom) = %q", got)
	}
}
