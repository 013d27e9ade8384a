package clientdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hometesting "github.com/stavrou/homebase/internal/testing"
)

type forecast struct {
	TempC  float64 `msgpack:"temp_c"`
	Precip float64 `msgpack:"precip"`
}

func newTestRepo(t *testing.T) (*Repository, func()) {
	t.Helper()

	db, cleanup := hometesting.NewTestDB(t, "cache")
	return NewRepository(db.Conn()), cleanup
}

func TestStoreAndGetIfFresh(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	stored := forecast{TempC: 21.5, Precip: 0.2}
	require.NoError(t, repo.Store(CategoryWeather, "athens", stored, TTLWeather))

	var got forecast
	found, err := repo.GetIfFresh(CategoryWeather, "athens", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, stored, got)
}

func TestGetIfFresh_MissingKey(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	var got forecast
	found, err := repo.GetIfFresh(CategoryWeather, "nowhere", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetIfFresh_ExpiredEntry(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	require.NoError(t, repo.Store(CategoryWeather, "athens", forecast{TempC: 20}, -time.Minute))

	var got forecast
	found, err := repo.GetIfFresh(CategoryWeather, "athens", &got)
	require.NoError(t, err)
	assert.False(t, found)

	// Stale data is still reachable through Get
	found, err = repo.Get(CategoryWeather, "athens", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 20.0, got.TempC)
}

func TestStore_Upserts(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	require.NoError(t, repo.Store(CategoryFlightPrices, "ATH-BCN", []float64{400, 410}, TTLFlightPrices))
	require.NoError(t, repo.Store(CategoryFlightPrices, "ATH-BCN", []float64{380}, TTLFlightPrices))

	var prices []float64
	found, err := repo.GetIfFresh(CategoryFlightPrices, "ATH-BCN", &prices)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []float64{380}, prices)
}

func TestStore_RejectsUnknownCategory(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	err := repo.Store("stocks", "key", 1, time.Hour)
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	require.NoError(t, repo.Store(CategoryCandles, "BTCUSDT:1h", []float64{81000}, TTLCandles))
	require.NoError(t, repo.Delete(CategoryCandles, "BTCUSDT:1h"))

	var got []float64
	found, err := repo.Get(CategoryCandles, "BTCUSDT:1h", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteExpired(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	require.NoError(t, repo.Store(CategoryWeather, "stale", forecast{}, -time.Minute))
	require.NoError(t, repo.Store(CategoryWeather, "fresh", forecast{}, time.Hour))

	deleted, err := repo.DeleteExpired(CategoryWeather)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var got forecast
	found, err := repo.Get(CategoryWeather, "fresh", &got)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestDeleteAllExpired(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	require.NoError(t, repo.Store(CategoryWeather, "stale", forecast{}, -time.Minute))
	require.NoError(t, repo.Store(CategoryMarketOdds, "stale", 0.31, -time.Minute))
	require.NoError(t, repo.Store(CategoryCandles, "fresh", []float64{1}, time.Hour))

	results, err := repo.DeleteAllExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), results[CategoryWeather])
	assert.Equal(t, int64(1), results[CategoryMarketOdds])
	assert.Equal(t, int64(0), results[CategoryCandles])
}
