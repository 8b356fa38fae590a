package emby

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"embyscan/internal/config"
)

const userAgent = "embyscan/0.1.0"

// ItemUpdate is one entry in a Library/Media/Updated request.
type ItemUpdate struct {
	Path       string `json:"Path"`
	UpdateType string `json:"UpdateType"`
}

// StatusError reports a non-2xx response from the Emby API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("emby returned %d", e.Code)
	}
	return fmt.Sprintf("emby returned %d: %s", e.Code, e.Body)
}

// Client talks to an Emby server.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient builds a client from configuration.
func NewClient(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.Emby.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.Emby.URL, "/"),
		apiKey:  cfg.Emby.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// ItemsUpdated notifies Emby that the given paths changed so it re-indexes
// exactly those items.
func (c *Client) ItemsUpdated(ctx context.Context, updates []ItemUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	payload := struct {
		Updates []ItemUpdate `json:"Updates"`
	}{Updates: updates}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal updates: %w", err)
	}

	url := c.baseURL + "/emby/Library/Media/Updated"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build media updated request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Emby-Token", c.apiKey)
	req.Header.Set("User-Agent", userAgent)

	return c.do(req, "notify media updated")
}

// RefreshLibrary asks Emby to rescan every library. Used when per-path
// updates are disabled.
func (c *Client) RefreshLibrary(ctx context.Context) error {
	url := fmt.Sprintf("%s/emby/Library/Refresh?api_key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("build library refresh request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	return c.do(req, "refresh library")
}

// Ping probes server reachability without authentication.
func (c *Client) Ping(ctx context.Context) error {
	url := c.baseURL + "/emby/System/Info/Public"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	return c.do(req, "ping emby")
}

func (c *Client) do(req *http.Request, action string) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%s: %w", action, &StatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(body)),
		})
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
