package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Account is a user account at the identity provider.
type Account struct {
	UserID string
	Name   string
	Email  string
}

// Identity verifies user credentials against an external provider.
type Identity interface {
	Signup(ctx context.Context, email, password, name string) (*Account, error)
	Login(ctx context.Context, email, password string) (*Account, error)
}

// AppwriteIdentity implements Identity against the Appwrite account API.
type AppwriteIdentity struct {
	endpoint string
	project  string
	client   *http.Client
}

func NewAppwriteIdentity(endpoint, project string) *AppwriteIdentity {
	return &AppwriteIdentity{
		endpoint: endpoint,
		project:  project,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// IdentityError carries the provider's rejection so handlers can relay
// a useful message without exposing the raw upstream response.
type IdentityError struct {
	Status  int
	Message string
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("identity provider error (status %d): %s", e.Status, e.Message)
}

func (a *AppwriteIdentity) Signup(ctx context.Context, email, password, name string) (*Account, error) {
	body := map[string]string{
		"userId":   "unique()",
		"email":    email,
		"password": password,
		"name":     name,
	}
	var resp struct {
		ID    string `json:"$id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := a.post(ctx, "/account", body, &resp); err != nil {
		return nil, err
	}
	return &Account{UserID: resp.ID, Name: resp.Name, Email: resp.Email}, nil
}

func (a *AppwriteIdentity) Login(ctx context.Context, email, password string) (*Account, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	var resp struct {
		UserID string `json:"userId"`
	}
	if err := a.post(ctx, "/account/sessions/email", body, &resp); err != nil {
		return nil, err
	}
	return &Account{UserID: resp.UserID, Email: email}, nil
}

func (a *AppwriteIdentity) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Appwrite-Project", a.project)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("identity request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &apiErr)
		if apiErr.Message == "" {
			apiErr.Message = "request rejected"
		}
		return &IdentityError{Status: resp.StatusCode, Message: apiErr.Message}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
