// Package credentials resolves the upstream credential for a model
// reference. User-stored secrets win over server-level environment
// secrets; when neither tier yields a usable credential the caller gets
// a MissingCredentialError naming the provider.
package credentials

import (
	"context"
	"fmt"

	"github.com/ascendlabs/ascendancy/internal/config"
	"github.com/ascendlabs/ascendancy/internal/core"
)

// Credential is a resolved, ready-to-send upstream credential.
type Credential struct {
	Provider core.Provider
	Token    string
	// Source records which tier supplied the token: "user" or "server".
	Source string
}

// MissingCredentialError reports that no tier could produce a
// credential for the provider. Its message is safe to show users.
type MissingCredentialError struct {
	Provider core.Provider
}

func (e *MissingCredentialError) Error() string {
	switch e.Provider {
	case core.ProviderOpenAI:
		return "no OpenAI API key configured. Add one in settings or set OPENAI_API_KEY on the server"
	case core.ProviderGoogleAntigravity, core.ProviderGoogleCLI:
		return "no Google account connected. Connect a Google account in settings"
	default:
		return "no Lightning API key configured. Add one in settings or set LIGHTNING_API_KEY on the server"
	}
}

// Exchanger turns a stored Google refresh token into a short-lived
// access token.
type Exchanger interface {
	Exchange(ctx context.Context, provider core.Provider, refreshToken string) (string, error)
}

// Resolver walks the user-then-server fallback chain.
type Resolver struct {
	env       *config.EnvSecrets
	exchanger Exchanger
}

func NewResolver(env *config.EnvSecrets, exchanger Exchanger) *Resolver {
	return &Resolver{env: env, exchanger: exchanger}
}

// Resolve produces the credential for ref. secrets are the caller's
// stored secrets; guests pass nil and fall straight through to the
// server tier. Google access tokens are exchanged fresh on every call
// and never cached.
func (r *Resolver) Resolve(ctx context.Context, ref core.ModelRef, secrets []core.Secret) (*Credential, error) {
	switch ref.Provider {
	case core.ProviderOpenAI:
		return r.resolveOpenAI(secrets)
	case core.ProviderGoogleAntigravity, core.ProviderGoogleCLI:
		return r.resolveGoogle(ctx, ref.Provider, secrets)
	default:
		return r.resolveLightning(secrets)
	}
}

func (r *Resolver) resolveOpenAI(secrets []core.Secret) (*Credential, error) {
	if key := core.SecretValue(secrets, core.SecretOpenAIAPIKey); key != "" {
		return &Credential{Provider: core.ProviderOpenAI, Token: key, Source: "user"}, nil
	}
	if r.env.OpenAIAPIKey != "" {
		return &Credential{Provider: core.ProviderOpenAI, Token: r.env.OpenAIAPIKey, Source: "server"}, nil
	}
	return nil, &MissingCredentialError{Provider: core.ProviderOpenAI}
}

// resolveLightning picks the key (user tier wins) and, when the user
// also has a username and teamspace stored, assembles the composite
// "{key}/{username}/{teamspace}" form the backend expects. A partial
// pair leaves the key unmodified.
func (r *Resolver) resolveLightning(secrets []core.Secret) (*Credential, error) {
	key := core.SecretValue(secrets, core.SecretLightningAPIKey)
	source := "user"
	if key == "" {
		key = r.env.LightningAPIKey
		source = "server"
	}
	if key == "" {
		return nil, &MissingCredentialError{Provider: core.ProviderLightning}
	}

	username := core.SecretValue(secrets, core.SecretLightningUsername)
	teamspace := core.SecretValue(secrets, core.SecretLightningTeamspace)
	if username != "" && teamspace != "" {
		key = fmt.Sprintf("%s/%s/%s", key, username, teamspace)
	}
	return &Credential{Provider: core.ProviderLightning, Token: key, Source: source}, nil
}

// resolveGoogle has no server tier: a refresh token belongs to one
// user's Google account, so only the caller's stored token counts.
func (r *Resolver) resolveGoogle(ctx context.Context, provider core.Provider, secrets []core.Secret) (*Credential, error) {
	name := core.SecretGoogleAntigravityToken
	if provider == core.ProviderGoogleCLI {
		name = core.SecretGoogleCLIToken
	}

	refresh := core.SecretValue(secrets, name)
	if refresh == "" {
		return nil, &MissingCredentialError{Provider: provider}
	}

	access, err := r.exchanger.Exchange(ctx, provider, refresh)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange Google token: %w", err)
	}
	return &Credential{Provider: provider, Token: access, Source: "user"}, nil
}
