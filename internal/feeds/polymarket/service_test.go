package polymarket

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stavrou/homebase/internal/events"
	"github.com/stavrou/homebase/internal/feedstore"
	hometesting "github.com/stavrou/homebase/internal/testing"
)

func newTestService(t *testing.T) (*Service, func()) {
	t.Helper()

	db, cleanup := hometesting.NewTestDB(t, "feeds")

	service, err := NewService(db.Conn(), events.NewBus(zerolog.Nop()), zerolog.Nop())
	require.NoError(t, err)

	return service, cleanup
}

func TestResolve_WinPayout(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	ids, err := service.Refresh("2025-03-10", []Trade{
		{Market: "Fed cuts rates in March", Position: PositionYes, Stake: 25, EntryPriceCents: 31},
	})
	require.NoError(t, err)
	require.Len(t, ids, 1)

	res, err := service.Resolve(ids[0], true)
	require.NoError(t, err)

	// 25 * (100/31 - 1) = 55.645...
	require.NotNil(t, res.ProfitLoss)
	assert.InDelta(t, 55.645, *res.ProfitLoss, 0.01)
	require.NotNil(t, res.Correct)
	assert.True(t, *res.Correct)
}

func TestResolve_LossForfeitsStake(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	ids, err := service.Refresh("2025-03-10", []Trade{
		{Market: "Fed cuts rates in March", Position: PositionYes, Stake: 25, EntryPriceCents: 31},
	})
	require.NoError(t, err)

	res, err := service.Resolve(ids[0], false)
	require.NoError(t, err)

	require.NotNil(t, res.ProfitLoss)
	assert.Equal(t, -25.0, *res.ProfitLoss)
	require.NotNil(t, res.Correct)
	assert.False(t, *res.Correct)
}

func TestResolve_SecondCallRejected(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	ids, err := service.Refresh("2025-03-10", []Trade{
		{Market: "ETH above 5k by June", Position: PositionNo, Stake: 10, EntryPriceCents: 60},
	})
	require.NoError(t, err)

	_, err = service.Resolve(ids[0], true)
	require.NoError(t, err)

	// The first resolution sticks, win or lose
	_, err = service.Resolve(ids[0], false)
	assert.ErrorIs(t, err, feedstore.ErrAlreadyResolved)

	rec, err := service.Get(ids[0])
	require.NoError(t, err)
	require.NotNil(t, rec.Correct)
	assert.True(t, *rec.Correct)
}

func TestRefresh_RejectsInvalidTrades(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	cases := []Trade{
		{Position: PositionYes, Stake: 10, EntryPriceCents: 50},                           // no market
		{Market: "m", Position: "Maybe", Stake: 10, EntryPriceCents: 50},                  // bad position
		{Market: "m", Position: PositionYes, Stake: 0, EntryPriceCents: 50},               // zero stake
		{Market: "m", Position: PositionYes, Stake: 10, EntryPriceCents: 100},             // price out of range
	}

	for _, trade := range cases {
		_, err := service.Refresh("2025-03-10", []Trade{trade})
		assert.ErrorIs(t, err, feedstore.ErrInvalidArgument)
	}
}

func TestRefresh_PreservesResolvedTrades(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	ids, err := service.Refresh("2025-03-10", []Trade{
		{Market: "keep", Position: PositionYes, Stake: 5, EntryPriceCents: 40},
		{Market: "swap", Position: PositionNo, Stake: 5, EntryPriceCents: 40},
	})
	require.NoError(t, err)

	_, err = service.Resolve(ids[0], true)
	require.NoError(t, err)

	_, err = service.Refresh("2025-03-10", []Trade{
		{Market: "fresh", Position: PositionYes, Stake: 5, EntryPriceCents: 40},
	})
	require.NoError(t, err)

	records, err := service.Day("2025-03-10")
	require.NoError(t, err)
	require.Len(t, records, 2)

	markets := []string{records[0].Payload.Market, records[1].Payload.Market}
	assert.Contains(t, markets, "keep")
	assert.Contains(t, markets, "fresh")
	assert.NotContains(t, markets, "swap")
}
