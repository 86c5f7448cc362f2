// Package gateway sends chat requests to the upstream model backends.
// It normalizes the three wire dialects (OpenAI-compatible, Lightning,
// Google generateContent) behind a single Client interface.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/ascendlabs/ascendancy/internal/core"
	"github.com/ascendlabs/ascendancy/internal/credentials"
)

// Client issues one chat completion against the backend named by ref.
type Client interface {
	Chat(ctx context.Context, cred *credentials.Credential, ref core.ModelRef, messages []core.Message) (*core.ChatReply, error)
}

// HTTPClient is the production Client. It retries transient upstream
// failures with exponential backoff.
type HTTPClient struct {
	httpClient *http.Client
	maxRetries int

	// Endpoints are fields so tests can point them at local servers.
	lightningURL string
	openaiURL    string
	googleURL    string
}

func NewHTTPClient(timeout time.Duration, maxRetries int) *HTTPClient {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 2
	}
	return &HTTPClient{
		httpClient:   &http.Client{Timeout: timeout},
		maxRetries:   maxRetries,
		lightningURL: "https://lightning.ai/api/v1/chat/completions",
		openaiURL:    "https://api.openai.com/v1/chat/completions",
		googleURL:    "https://generativelanguage.googleapis.com",
	}
}

func (c *HTTPClient) Chat(ctx context.Context, cred *credentials.Credential, ref core.ModelRef, messages []core.Message) (*core.ChatReply, error) {
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Jitter spreads out retries from requests that failed together.
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			backoff += time.Duration(rand.Int63n(int64(500 * time.Millisecond)))
			slog.Info("Retrying upstream call after backoff",
				"provider", ref.Provider,
				"model", ref.Name,
				"attempt", attempt+1,
				"backoff", backoff,
			)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		reply, err := c.chatOnce(ctx, cred, ref, messages)
		if err == nil {
			if attempt > 0 {
				slog.Info("Upstream call succeeded after retry",
					"provider", ref.Provider,
					"attempt", attempt+1,
				)
			}
			return reply, nil
		}

		if !retriable(err) {
			return nil, err
		}

		if attempt == c.maxRetries {
			slog.Error("Upstream call failed after all retries",
				"provider", ref.Provider,
				"attempts", attempt+1,
				"error", err,
			)
			return nil, fmt.Errorf("failed after %d attempts: %w", attempt+1, err)
		}

		slog.Warn("Upstream call failed, will retry",
			"provider", ref.Provider,
			"attempt", attempt+1,
			"error", err,
		)
	}

	return nil, fmt.Errorf("unexpected retry loop exit")
}

func (c *HTTPClient) chatOnce(ctx context.Context, cred *credentials.Credential, ref core.ModelRef, messages []core.Message) (*core.ChatReply, error) {
	switch ref.Provider {
	case core.ProviderGoogleAntigravity, core.ProviderGoogleCLI:
		return c.googleChat(ctx, cred, ref, messages)
	case core.ProviderOpenAI:
		return c.openAIChat(ctx, cred, c.openaiURL, ref.Name, messages)
	default:
		return c.lightningChat(ctx, cred, ref, messages)
	}
}
