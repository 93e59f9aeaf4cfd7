// Package client is the typed HTTP client for the R2FM catalog service. It
// implements the remote-collaborator interfaces consumed by the player core
// (catalog.Lister and player.URLIssuer).
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"R2FM/model"
)

// Client talks to one catalog service instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SetTimeout sets the request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

type songsResponse struct {
	Songs []model.Song `json:"songs"`
	Error string       `json:"error"`
}

type playResponse struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// ListSongs fetches one catalog page, ordered newest-first by the server.
func (c *Client) ListSongs(ctx context.Context, offset, limit int) ([]model.Song, error) {
	endpoint := fmt.Sprintf("%s/api/songs?offset=%d&limit=%d", c.baseURL, offset, limit)

	var body songsResponse
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return nil, err
	}
	return body.Songs, nil
}

// PlaybackURL requests a time-limited signed retrieval reference for the
// content key.
func (c *Client) PlaybackURL(ctx context.Context, contentKey string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/songs/play/%s", c.baseURL, url.PathEscape(contentKey))

	var body playResponse
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return "", err
	}
	if body.URL == "" {
		return "", fmt.Errorf("playback response missing url")
	}
	return body.URL, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&errBody) == nil && errBody.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, errBody.Error)
		}
		return fmt.Errorf("server returned %d for %s", resp.StatusCode, endpoint)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	return nil
}
