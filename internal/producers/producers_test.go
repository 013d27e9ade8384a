package producers

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stavrou/homebase/internal/clientdata"
	"github.com/stavrou/homebase/internal/events"
	"github.com/stavrou/homebase/internal/feeds/actionitems"
	"github.com/stavrou/homebase/internal/feeds/btcsignals"
	"github.com/stavrou/homebase/internal/feedstore"
	hometesting "github.com/stavrou/homebase/internal/testing"
)

func TestActionRollover_CarriesOnlyProposedItems(t *testing.T) {
	db, cleanup := hometesting.NewTestDB(t, "feeds")
	defer cleanup()

	service, err := actionitems.NewService(db.Conn(), events.NewBus(zerolog.Nop()), zerolog.Nop())
	require.NoError(t, err)

	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	ids, err := service.Refresh(yesterday, []actionitems.Item{
		{Title: "renew passport", Priority: 3},
		{Title: "book dentist", Priority: 2},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	// The approved item is a made decision; it must not roll forward.
	require.NoError(t, service.Promote(ids[0], feedstore.StatusApproved))

	rollover := NewActionRollover(service, zerolog.Nop())
	items, err := rollover.Collect(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "book dentist", items[0].Title)
}

func TestActionRollover_NoEarlierDay(t *testing.T) {
	db, cleanup := hometesting.NewTestDB(t, "feeds")
	defer cleanup()

	service, err := actionitems.NewService(db.Conn(), events.NewBus(zerolog.Nop()), zerolog.Nop())
	require.NoError(t, err)

	rollover := NewActionRollover(service, zerolog.Nop())
	items, err := rollover.Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCandleSignals_NoFreshCacheCollectsNothing(t *testing.T) {
	db, cleanup := hometesting.NewTestDB(t, "cache")
	defer cleanup()

	repo := clientdata.NewRepository(db.Conn())
	producer := NewCandleSignals(repo, btcsignals.DefaultAnalyzerConfig("BTCUSDT", "1h"), zerolog.Nop())

	signals, err := producer.Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, signals)
}

func TestCandleSignals_DetectsSignalFromCachedCandles(t *testing.T) {
	db, cleanup := hometesting.NewTestDB(t, "cache")
	defer cleanup()

	repo := clientdata.NewRepository(db.Conn())

	// Decline for 29 candles then a strong reversal above the moving average.
	// A relaxed oversold threshold lets the mid-range RSI qualify.
	candles := make([]btcsignals.Candle, 0, 30)
	price := 100.0
	openTime := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC).UnixMilli()
	for i := 0; i < 29; i++ {
		candles = append(candles, btcsignals.Candle{OpenTime: openTime, Close: price})
		price--
		openTime += 3_600_000
	}
	candles = append(candles, btcsignals.Candle{OpenTime: openTime, Close: 85})

	require.NoError(t, repo.Store(clientdata.CategoryCandles, "BTCUSDT:1h", candles, clientdata.TTLCandles))

	cfg := btcsignals.DefaultAnalyzerConfig("BTCUSDT", "1h")
	cfg.RSIOversold = 60
	producer := NewCandleSignals(repo, cfg, zerolog.Nop())

	signals, err := producer.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, btcsignals.DirectionUp, signals[0].Direction)
	assert.Equal(t, "BTCUSDT", signals[0].Symbol)
}
