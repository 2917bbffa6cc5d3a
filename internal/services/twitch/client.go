package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"clipflow/internal/config"
	"clipflow/internal/services"
)

// Clip is one candidate clip returned by the Helix clips endpoint.
type Clip struct {
	ID              string  `json:"id"`
	URL             string  `json:"url"`
	Title           string  `json:"title"`
	BroadcasterName string  `json:"broadcaster_name"`
	ViewCount       int     `json:"view_count"`
	CreatedAt       string  `json:"created_at"`
	Duration        float64 `json:"duration"`
}

// Client talks to the Twitch Helix API using the client-credentials grant.
//
// The app token is cached for the lifetime of the client with no expiry
// handling; a long-running process will eventually see 401s and the run that
// hits one fails like any other network error.
type Client struct {
	clientID     string
	clientSecret string
	tokenURL     string
	apiBaseURL   string
	httpClient   *http.Client

	token string
}

// NewClient builds a Helix client from configuration.
func NewClient(cfg config.Twitch) *Client {
	return &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tokenURL:     cfg.TokenURL,
		apiBaseURL:   strings.TrimRight(cfg.APIBaseURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Authenticate exchanges app credentials for a bearer token and caches it.
// Subsequent calls return the cached token without network I/O.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	if c.token != "" {
		return c.token, nil
	}
	if c.clientID == "" || c.clientSecret == "" {
		return "", services.Wrap(services.ErrConfiguration, "twitch", "authenticate", "client id and secret required", nil)
	}

	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"grant_type":    {"client_credentials"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.doJSON(req, "authenticate", &payload); err != nil {
		return "", err
	}
	if payload.AccessToken == "" {
		return "", services.Wrap(services.ErrNetwork, "twitch", "authenticate", "token response missing access_token", nil)
	}

	c.token = payload.AccessToken
	return c.token, nil
}

// ResolveChannel maps a channel login name to its broadcaster id.
func (c *Client) ResolveChannel(ctx context.Context, login string) (string, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return "", err
	}

	endpoint := c.apiBaseURL + "/users?login=" + url.QueryEscape(login)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build users request: %w", err)
	}
	c.setAuthHeaders(req, token)

	var payload struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.doJSON(req, "resolve channel", &payload); err != nil {
		return "", err
	}
	if len(payload.Data) == 0 {
		return "", services.Wrap(services.ErrNotFound, "twitch", "resolve channel", fmt.Sprintf("user %s not found", login), nil)
	}
	return payload.Data[0].ID, nil
}

// ListTopClips fetches up to limit recent clips for a broadcaster, sorted by
// view count descending. Ties keep the platform-returned order. A broadcaster
// with zero clips yields ErrNotFound, which callers treat as nothing to do.
func (c *Client) ListTopClips(ctx context.Context, broadcasterID string, limit int) ([]Clip, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.apiBaseURL + "/clips?broadcaster_id=" + url.QueryEscape(broadcasterID) + "&first=" + strconv.Itoa(limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build clips request: %w", err)
	}
	c.setAuthHeaders(req, token)

	var payload struct {
		Data []Clip `json:"data"`
	}
	if err := c.doJSON(req, "list clips", &payload); err != nil {
		return nil, err
	}
	if len(payload.Data) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "twitch", "list clips", fmt.Sprintf("no clips for broadcaster %s", broadcasterID), nil)
	}

	clips := payload.Data
	sort.SliceStable(clips, func(i, j int) bool {
		return clips[i].ViewCount > clips[j].ViewCount
	})
	return clips, nil
}

func (c *Client) setAuthHeaders(req *http.Request, token string) {
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+token)
}

func (c *Client) doJSON(req *http.Request, operation string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrNetwork, "twitch", operation, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return services.Wrap(services.ErrNetwork, "twitch", operation, "read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return services.Wrap(services.ErrNetwork, "twitch", operation,
			fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return services.Wrap(services.ErrNetwork, "twitch", operation, "decode response", err)
	}
	return nil
}
