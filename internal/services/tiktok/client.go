package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"clipflow/internal/config"
	"clipflow/internal/services"
)

// Result is the outcome of an upload attempt.
type Result struct {
	// Status is "simulated", or "uploaded" for live results.
	Status string
	// VideoID is the destination media id when one could be determined.
	VideoID string
	// URL is the destination video URL when the platform reported one.
	URL string
	// Raw holds the final platform response for live uploads.
	Raw map[string]any
}

// Options configures a publish client.
type Options struct {
	AccessToken string
	UploadURL   string
	PublishURL  string
	// Simulate performs no network I/O and fabricates upload results.
	Simulate bool
}

// Client uploads finished videos to the destination platform.
//
// The upload and publish endpoints are deployment-supplied. When a publish
// endpoint is configured and the upload response carries a media id, a second
// call publishes the uploaded media; otherwise the upload response is final.
type Client struct {
	opts       Options
	httpClient *http.Client
	simulated  atomic.Int64
}

// NewClient builds a publish client. Simulate mode needs no credentials.
func NewClient(opts Options) *Client {
	return &Client{
		opts:       opts,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// NewClientFromConfig builds a publish client from configuration.
func NewClientFromConfig(cfg config.TikTok, simulate bool) *Client {
	return NewClient(Options{
		AccessToken: cfg.AccessToken,
		UploadURL:   cfg.UploadURL,
		PublishURL:  cfg.PublishURL,
		Simulate:    simulate,
	})
}

// Simulated reports whether the client fakes uploads.
func (c *Client) Simulated() bool {
	return c.opts.Simulate
}

// UploadVideo sends a finished video to the destination platform.
//
// In simulate mode no network I/O happens and a placeholder destination id is
// returned immediately. Live mode requires a configured upload endpoint and
// fails fast otherwise. HTTP failures are fatal for the attempt; there is no
// retry.
func (c *Client) UploadVideo(ctx context.Context, path, title, description string) (Result, error) {
	if c.opts.Simulate {
		n := c.simulated.Add(1)
		return Result{
			Status:  "simulated",
			VideoID: fmt.Sprintf("dryrun-%04d", n),
		}, nil
	}

	if c.opts.UploadURL == "" {
		return Result{}, services.Wrap(services.ErrConfiguration, "tiktok", "upload", "upload url not configured", nil)
	}

	uploadResp, err := c.upload(ctx, path, title, description)
	if err != nil {
		return Result{}, err
	}

	mediaID := extractMediaID(uploadResp)
	if mediaID == "" {
		// Upload endpoints that hand back a follow-up URL instead of a media
		// id terminate here; the raw response is the result.
		return Result{Status: "uploaded", Raw: uploadResp}, nil
	}

	if c.opts.PublishURL == "" {
		return Result{
			Status:  "uploaded",
			VideoID: mediaID,
			URL:     extractVideoURL(uploadResp),
			Raw:     uploadResp,
		}, nil
	}

	publishResp, err := c.publish(ctx, mediaID, title, description)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Status:  "uploaded",
		VideoID: mediaID,
		URL:     extractVideoURL(publishResp),
		Raw:     publishResp,
	}, nil
}

func (c *Client) upload(ctx context.Context, path, title, description string) (map[string]any, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("video", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrUnclassified, "tiktok", "upload", "open video", err)
	}
	defer file.Close()
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy video into form: %w", err)
	}

	fields := map[string]string{}
	if c.opts.AccessToken != "" {
		fields["access_token"] = c.opts.AccessToken
	}
	if title != "" {
		fields["title"] = title
	}
	if description != "" {
		fields["description"] = description
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("write form field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.UploadURL, &body)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return c.doJSON(req, "upload")
}

func (c *Client) publish(ctx context.Context, mediaID, title, description string) (map[string]any, error) {
	payload := map[string]string{"media_id": mediaID}
	if c.opts.AccessToken != "" {
		payload["access_token"] = c.opts.AccessToken
	}
	if title != "" {
		payload["title"] = title
	}
	if description != "" {
		payload["description"] = description
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal publish payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.PublishURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build publish request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doJSON(req, "publish")
}

func (c *Client) doJSON(req *http.Request, operation string) (map[string]any, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "tiktok", operation, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "tiktok", operation, "read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, services.Wrap(services.ErrNetwork, "tiktok", operation,
			fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	parsed := map[string]any{}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, services.Wrap(services.ErrNetwork, "tiktok", operation, "decode response", err)
		}
	}
	return parsed, nil
}

// extractMediaID handles the two known response shapes: a top-level media_id
// or one nested under data.
func extractMediaID(resp map[string]any) string {
	if id := stringField(resp, "media_id"); id != "" {
		return id
	}
	if data, ok := resp["data"].(map[string]any); ok {
		return stringField(data, "media_id")
	}
	return ""
}

func extractVideoURL(resp map[string]any) string {
	for _, key := range []string{"share_url", "url"} {
		if url := stringField(resp, key); url != "" {
			return url
		}
	}
	if data, ok := resp["data"].(map[string]any); ok {
		for _, key := range []string{"share_url", "url"} {
			if url := stringField(data, key); url != "" {
				return url
			}
		}
	}
	return ""
}

func stringField(m map[string]any, key string) string {
	if value, ok := m[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}
