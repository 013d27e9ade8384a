package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	}))

	t.Cleanup(server.Close)
	return server
}

func TestFeedRoute(t *testing.T) {
	route, err := feedRoute("action-items")
	require.NoError(t, err)
	assert.Equal(t, "/api/action-items", route)

	_, err = feedRoute("stocks")
	assert.Error(t, err)
}

func TestCurrentBatchDecoding(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"GET /api/action-items/current": `{
			"period_key": "2026-08-29",
			"records": [
				{"id": "3f2a", "status": "proposed", "rank": 3, "payload": {"title": "renew passport"}}
			]
		}`,
	})

	client := &apiClient{baseURL: server.URL, httpClient: server.Client()}
	resp, err := client.get(context.Background(), "/api/action-items/current")
	require.NoError(t, err)

	var b batch
	require.NoError(t, decodeJSON(resp, &b))
	assert.Equal(t, "2026-08-29", b.PeriodKey)
	require.Len(t, b.Records, 1)
	assert.Equal(t, "proposed", b.Records[0].Status)
	assert.JSONEq(t, `{"title": "renew passport"}`, string(b.Records[0].Payload))
}

func TestUnreachableServerGetsFriendlyError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client := &apiClient{baseURL: server.URL, httpClient: &http.Client{}}
	_, err := client.get(context.Background(), "/api/system/status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is homebase running?")
}

func TestDecodeJSONSurfacesServerErrors(t *testing.T) {
	server := newTestServer(t, nil)

	client := &apiClient{baseURL: server.URL, httpClient: server.Client()}
	resp, err := client.get(context.Background(), "/api/action-items/missing")
	require.NoError(t, err)

	var out map[string]any
	err = decodeJSON(resp, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
