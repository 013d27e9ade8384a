package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stavrou/homebase/internal/config"
	"github.com/stavrou/homebase/internal/events"
	"github.com/stavrou/homebase/internal/feeds/actionitems"
	"github.com/stavrou/homebase/internal/feeds/btcsignals"
	"github.com/stavrou/homebase/internal/feeds/daycare"
	"github.com/stavrou/homebase/internal/feeds/flightdeals"
	"github.com/stavrou/homebase/internal/feeds/polymarket"
	"github.com/stavrou/homebase/internal/feeds/weekendideas"
	hometesting "github.com/stavrou/homebase/internal/testing"
)

func newTestServer(t *testing.T) (*Server, func()) {
	t.Helper()

	feedsDB, cleanupFeeds := hometesting.NewTestDB(t, "feeds")
	cacheDB, cleanupCache := hometesting.NewTestDB(t, "cache")

	log := zerolog.Nop()
	bus := events.NewBus(log)

	actionItems, err := actionitems.NewService(feedsDB.Conn(), bus, log)
	require.NoError(t, err)
	flightDeals, err := flightdeals.NewService(feedsDB.Conn(), bus, log)
	require.NoError(t, err)
	weekendIdeas, err := weekendideas.NewService(feedsDB.Conn(), bus, log)
	require.NoError(t, err)
	btcSignals, err := btcsignals.NewService(feedsDB.Conn(), bus, log)
	require.NoError(t, err)
	polymarketSvc, err := polymarket.NewService(feedsDB.Conn(), bus, log)
	require.NoError(t, err)
	daycareSvc, err := daycare.NewService(feedsDB.Conn(), bus, log)
	require.NoError(t, err)

	srv := New(Config{
		Log:          log,
		Config:       &config.Config{DataDir: t.TempDir(), Port: 0, DevMode: true},
		FeedsDB:      feedsDB,
		CacheDB:      cacheDB,
		Bus:          bus,
		ActionItems:  actionItems,
		FlightDeals:  flightDeals,
		WeekendIdeas: weekendIdeas,
		BTCSignals:   btcSignals,
		Polymarket:   polymarketSvc,
		Daycare:      daycareSvc,
	})

	return srv, func() {
		cleanupFeeds()
		cleanupCache()
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestFeedRoutesAreMounted(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	paths := []string{
		"/api/action-items/current",
		"/api/flight-deals/current",
		"/api/weekend-ideas/current",
		"/api/btc-signals/current",
		"/api/polymarket/current",
		"/api/daycare/current",
	}

	for _, path := range paths {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRefreshThenCurrentRoundTrip(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	payload := map[string]interface{}{
		"period_key": "2025-03-10",
		"candidates": []map[string]interface{}{
			{"title": "renew passport", "priority": 3},
		},
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/action-items/refresh", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/action-items/current", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var current struct {
		PeriodKey string `json:"period_key"`
		Records   []struct {
			Status string `json:"status"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &current))
	assert.Equal(t, "2025-03-10", current.PeriodKey)
	require.Len(t, current.Records, 1)
	assert.Equal(t, "proposed", current.Records[0].Status)
}

func TestBackupEndpointUnavailableWithoutR2(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/system/backup", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
