package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Feed names accepted by the feed-scoped commands, mapped to their API
// route prefixes.
var feedRoutes = map[string]string{
	"action-items":  "/api/action-items",
	"flight-deals":  "/api/flight-deals",
	"weekend-ideas": "/api/weekend-ideas",
	"btc-signals":   "/api/btc-signals",
	"polymarket":    "/api/polymarket",
	"daycare":       "/api/daycare",
}

func feedRoute(feed string) (string, error) {
	route, ok := feedRoutes[feed]
	if !ok {
		return "", fmt.Errorf("unknown feed %q (one of: action-items, flight-deals, weekend-ideas, btc-signals, polymarket, daycare)", feed)
	}
	return route, nil
}

type apiClient struct {
	baseURL    string
	httpClient *http.Client
}

var newAPIClient = func() *apiClient {
	baseURL := os.Getenv("HOMEBASE_URL")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8090"
	}

	return &apiClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshalling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("server not reachable, is homebase running? (%w)", err)
	}
	return resp, nil
}

func (c *apiClient) get(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, "GET", path, nil)
}

func (c *apiClient) post(ctx context.Context, path string, body any) (*http.Response, error) {
	return c.do(ctx, "POST", path, body)
}

func decodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("server returned %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
