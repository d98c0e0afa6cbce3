package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/GeonSoon1/moonshot-myself/internal/config"
	"github.com/GeonSoon1/moonshot-myself/internal/domain"
)

const (
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// GoogleClient exchanges Google authorization codes for a resolved identity.
// It implements service.FederatedResolver.
type GoogleClient struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	redirectURI  string
}

// NewGoogleClient constructs the default Google resolver.
func NewGoogleClient(cfg config.Config, client *http.Client) *GoogleClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleClient{
		httpClient:   client,
		clientID:     cfg.GoogleClientID,
		clientSecret: cfg.GoogleClientSecret,
		redirectURI:  cfg.GoogleRedirectURI,
	}
}

// Exchange performs the code-for-token exchange and loads the userinfo
// profile behind it.
func (c *GoogleClient) Exchange(ctx context.Context, code string) (domain.FederatedIdentity, error) {
	accessToken, err := c.exchangeCode(ctx, code)
	if err != nil {
		return domain.FederatedIdentity{}, err
	}
	return c.fetchUserInfo(ctx, accessToken)
}

func (c *GoogleClient) exchangeCode(ctx context.Context, code string) (string, error) {
	if strings.TrimSpace(c.clientID) == "" {
		return "", fmt.Errorf("google client id missing")
	}
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", c.redirectURI)
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, googleTokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("token exchange failed: status=%d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}
	return payload.AccessToken, nil
}

func (c *GoogleClient) fetchUserInfo(ctx context.Context, accessToken string) (domain.FederatedIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserInfoURL, nil)
	if err != nil {
		return domain.FederatedIdentity{}, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.FederatedIdentity{}, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.FederatedIdentity{}, fmt.Errorf("read userinfo: %w", err)
	}
	if resp.StatusCode >= 300 {
		return domain.FederatedIdentity{}, fmt.Errorf("userinfo failed: status=%d", resp.StatusCode)
	}

	var profile struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		return domain.FederatedIdentity{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if profile.Email == "" {
		return domain.FederatedIdentity{}, fmt.Errorf("userinfo missing email")
	}

	return domain.FederatedIdentity{
		Email:             profile.Email,
		Name:              profile.Name,
		ProfileImage:      profile.Picture,
		Provider:          "google",
		ProviderAccountID: profile.ID,
	}, nil
}
