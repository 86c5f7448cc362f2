package core

import "testing"

func TestParseModelRef(t *testing.T) {
	tests := []struct {
		id       string
		provider Provider
		name     string
	}{
		{"antigravity/gemini-2.0-flash", ProviderGoogleAntigravity, "gemini-2.0-flash"},
		{"cli/gemini-1.5-pro", ProviderGoogleCLI, "gemini-1.5-pro"},
		{"gpt-4o-mini", ProviderOpenAI, "gpt-4o-mini"},
		{"o1-preview", ProviderOpenAI, "o1-preview"},
		{"openai/gpt-4.1", ProviderOpenAI, "gpt-4.1"},
		{"gemini-1.5-flash", ProviderGoogleCLI, "gemini-1.5-flash"},
		{"gemini-antigravity-exp", ProviderGoogleAntigravity, "gemini-antigravity-exp"},
		{"google-gemma-2", ProviderGoogleCLI, "google-gemma-2"},
		{"lightning-ai/llama-3.3-70b", ProviderLightning, "lightning-ai/llama-3.3-70b"},
		{"llama-3.3-70b", ProviderLightning, "llama-3.3-70b"},
		{"mistral-large", ProviderLightning, "mistral-large"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			ref := ParseModelRef(tt.id)
			if ref.Provider != tt.provider {
				t.Errorf("provider mismatch: got %s, want %s", ref.Provider, tt.provider)
			}
			if ref.Name != tt.name {
				t.Errorf("name mismatch: got %s, want %s", ref.Name, tt.name)
			}
			if ref.Raw != tt.id {
				t.Errorf("raw mismatch: got %s, want %s", ref.Raw, tt.id)
			}
		})
	}
}

func TestValidSecretName(t *testing.T) {
	for _, name := range []string{
		SecretLightningAPIKey, SecretOpenAIAPIKey,
		SecretLightningUsername, SecretLightningTeamspace,
		SecretGoogleAntigravityToken, SecretGoogleCLIToken,
	} {
		if !ValidSecretName(name) {
			t.Errorf("expected %s to be valid", name)
		}
	}

	if ValidSecretName("stripe_api_key") {
		t.Error("unknown name should be invalid")
	}
}
