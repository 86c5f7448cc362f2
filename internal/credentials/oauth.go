package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ascendlabs/ascendancy/internal/core"
)

// Published desktop-app client ids for the two Google integrations. The
// matching client secrets are server configuration.
const (
	antigravityClientID = "1071006060591-tmhssin2h21lcre235vtolojh4g403ep.apps.googleusercontent.com"
	cliClientID         = "681255809395-oo8ft2oprdrnp9e3aqf6av3hmdib135j.apps.googleusercontent.com"

	googleTokenURL = "https://oauth2.googleapis.com/token"
)

// GoogleExchanger exchanges refresh tokens for access tokens at the
// Google OAuth endpoint. Access tokens are returned to the caller and
// deliberately not cached.
type GoogleExchanger struct {
	tokenURL          string
	antigravitySecret string
	cliSecret         string
	client            *http.Client
}

func NewGoogleExchanger(antigravitySecret, cliSecret string) *GoogleExchanger {
	return &GoogleExchanger{
		tokenURL:          googleTokenURL,
		antigravitySecret: antigravitySecret,
		cliSecret:         cliSecret,
		client:            &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *GoogleExchanger) Exchange(ctx context.Context, provider core.Provider, refreshToken string) (string, error) {
	clientID, clientSecret := antigravityClientID, g.antigravitySecret
	if provider == core.ProviderGoogleCLI {
		clientID, clientSecret = cliClientID, g.cliSecret
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access token")
	}
	return tokenResp.AccessToken, nil
}
