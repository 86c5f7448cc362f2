package core

import "strings"

// Provider identifies an upstream model-serving backend.
type Provider string

const (
	ProviderLightning         Provider = "lightning"
	ProviderOpenAI            Provider = "openai"
	ProviderGoogleAntigravity Provider = "google-antigravity"
	ProviderGoogleCLI         Provider = "google-cli"
)

// ModelRef is a parsed model identifier. It is constructed once at the API
// boundary so that downstream code dispatches on Provider instead of
// re-inspecting raw strings.
type ModelRef struct {
	Provider Provider
	// Name is the model name as the provider expects it, with any routing
	// prefix (antigravity/, cli/, openai/) already stripped.
	Name string
	// Raw is the identifier as the client sent it, kept for display and
	// persistence.
	Raw string
}

// ParseModelRef classifies a raw model identifier into a provider family.
// Rules are checked in priority order; the first match wins. Anything that
// matches no rule belongs to the Lightning family.
func ParseModelRef(id string) ModelRef {
	switch {
	case strings.HasPrefix(id, "antigravity/"):
		return ModelRef{Provider: ProviderGoogleAntigravity, Name: strings.TrimPrefix(id, "antigravity/"), Raw: id}
	case strings.HasPrefix(id, "cli/"):
		return ModelRef{Provider: ProviderGoogleCLI, Name: strings.TrimPrefix(id, "cli/"), Raw: id}
	case strings.HasPrefix(id, "gpt-"), strings.HasPrefix(id, "o1-"):
		return ModelRef{Provider: ProviderOpenAI, Name: id, Raw: id}
	case strings.HasPrefix(id, "openai/"):
		return ModelRef{Provider: ProviderOpenAI, Name: strings.TrimPrefix(id, "openai/"), Raw: id}
	case strings.HasPrefix(id, "gemini-"), strings.HasPrefix(id, "google-"):
		if strings.Contains(id, "antigravity") {
			return ModelRef{Provider: ProviderGoogleAntigravity, Name: id, Raw: id}
		}
		return ModelRef{Provider: ProviderGoogleCLI, Name: id, Raw: id}
	default:
		return ModelRef{Provider: ProviderLightning, Name: id, Raw: id}
	}
}

// String returns the raw identifier.
func (r ModelRef) String() string {
	return r.Raw
}
