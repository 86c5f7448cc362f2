package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ascendlabs/ascendancy/internal/core"
	"github.com/ascendlabs/ascendancy/internal/credentials"
)

type googlePart struct {
	Text string `json:"text"`
}

type googleContent struct {
	Role  string       `json:"role"`
	Parts []googlePart `json:"parts"`
}

type googleRequest struct {
	Contents []googleContent `json:"contents"`
}

type googleResponse struct {
	Candidates []struct {
		Content struct {
			Parts []googlePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// googleChat translates the conversation into generateContent form.
// The API has no system role, so system text is folded into the first
// user turn, and assistant turns become "model".
func (c *HTTPClient) googleChat(ctx context.Context, cred *credentials.Credential, ref core.ModelRef, messages []core.Message) (*core.ChatReply, error) {
	payload, err := json.Marshal(googleRequest{Contents: toGoogleContents(messages)})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.googleURL, ref.Name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
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

	var decoded googleResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &UpstreamError{Provider: cred.Provider, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return nil, &UpstreamError{Provider: cred.Provider, Err: fmt.Errorf("response contained no candidates")}
	}

	return &core.ChatReply{Content: decoded.Candidates[0].Content.Parts[0].Text}, nil
}

func toGoogleContents(messages []core.Message) []googleContent {
	var system string
	var contents []googleContent

	for _, msg := range messages {
		switch msg.Role {
		case core.RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
		case core.RoleAssistant:
			contents = append(contents, googleContent{Role: "model", Parts: []googlePart{{Text: msg.Content}}})
		default:
			contents = append(contents, googleContent{Role: "user", Parts: []googlePart{{Text: msg.Content}}})
		}
	}

	if system != "" {
		merged := false
		for i := range contents {
			if contents[i].Role == "user" {
				contents[i].Parts[0].Text = system + "\n\n" + contents[i].Parts[0].Text
				merged = true
				break
			}
		}
		if !merged {
			contents = append([]googleContent{{Role: "user", Parts: []googlePart{{Text: system}}}}, contents...)
		}
	}

	return contents
}
