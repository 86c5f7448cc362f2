package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ascendlabs/ascendancy/internal/core"
	"github.com/ascendlabs/ascendancy/internal/credentials"
)

const chatTemperature = 0.7

type chatCompletionRequest struct {
	Model       string         `json:"model"`
	Messages    []core.Message `json:"messages"`
	Temperature float64        `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content          string `json:"content"`
			Reasoning        string `json:"reasoning,omitempty"`
			ReasoningContent string `json:"reasoning_content,omitempty"`
		} `json:"message"`
	} `json:"choices"`
}

// lightningChat speaks the OpenAI-compatible dialect to the Lightning
// endpoint. Model names sent there are always namespaced.
func (c *HTTPClient) lightningChat(ctx context.Context, cred *credentials.Credential, ref core.ModelRef, messages []core.Message) (*core.ChatReply, error) {
	model := ref.Name
	if !strings.HasPrefix(model, "lightning-ai/") {
		model = "lightning-ai/" + model
	}
	return c.openAIChat(ctx, cred, c.lightningURL, model, messages)
}

func (c *HTTPClient) openAIChat(ctx context.Context, cred *credentials.Credential, endpoint, model string, messages []core.Message) (*core.ChatReply, error) {
	payload, err := json.Marshal(chatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: chatTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cred.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Provider: cred.Provider, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Provider: cred.Provider, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{
			Provider: cred.Provider,
			Status:   resp.StatusCode,
			Body:     truncate(string(body), 500),
		}
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, &UpstreamError{Provider: cred.Provider, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if len(completion.Choices) == 0 {
		return nil, &UpstreamError{Provider: cred.Provider, Err: fmt.Errorf("response contained no choices")}
	}

	msg := completion.Choices[0].Message
	reasoning := msg.Reasoning
	if reasoning == "" {
		reasoning = msg.ReasoningContent
	}
	return &core.ChatReply{Content: msg.Content, Reasoning: reasoning}, nil
}
