package btcsignals

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

func testSignal(direction string) Signal {
	return Signal{
		Symbol:     "BTCUSDT",
		Interval:   "1h",
		OpenTime:   1741600800000, // 2025-03-10T10:00:00Z
		Direction:  direction,
		Price:      81250.5,
		Confidence: 0.6,
	}
}

func TestAdd_DeduplicatesByCandle(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	id1, created, err := service.Add(testSignal(DirectionUp))
	require.NoError(t, err)
	assert.True(t, created)

	// Same interval and open time, different direction: still the same candle
	id2, created, err := service.Add(testSignal(DirectionDown))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, id1, id2)

	rec, err := service.Get(id1)
	require.NoError(t, err)
	assert.Equal(t, DirectionUp, rec.Payload.Direction)
}

func TestAdd_DifferentIntervalIsNewSignal(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	id1, _, err := service.Add(testSignal(DirectionUp))
	require.NoError(t, err)

	other := testSignal(DirectionUp)
	other.Interval = "4h"
	id2, created, err := service.Add(other)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, id1, id2)
}

func TestAdd_GroupsByCandleDay(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	_, _, err := service.Add(testSignal(DirectionUp))
	require.NoError(t, err)

	batch, err := service.Current()
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", batch.PeriodKey)
	assert.Len(t, batch.Records, 1)
}

func TestResolve_CorrectWhenDirectionsMatch(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	id, _, err := service.Add(testSignal(DirectionUp))
	require.NoError(t, err)

	res, err := service.Resolve(id, "up")
	require.NoError(t, err)
	require.NotNil(t, res.Correct)
	assert.True(t, *res.Correct)
	assert.True(t, res.Matched)
	assert.Nil(t, res.ProfitLoss)
}

func TestResolve_IncorrectWhenDirectionsDiffer(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	id, _, err := service.Add(testSignal(DirectionDown))
	require.NoError(t, err)

	res, err := service.Resolve(id, DirectionUp)
	require.NoError(t, err)
	require.NotNil(t, res.Correct)
	assert.False(t, *res.Correct)
	assert.False(t, res.Matched)
}

func TestResolve_RejectsUnknownDirection(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	id, _, err := service.Add(testSignal(DirectionUp))
	require.NoError(t, err)

	_, err = service.Resolve(id, "SIDEWAYS")
	assert.ErrorIs(t, err, feedstore.ErrInvalidArgument)
}

func TestResolve_SecondCallRejected(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	id, _, err := service.Add(testSignal(DirectionUp))
	require.NoError(t, err)

	_, err = service.Resolve(id, DirectionUp)
	require.NoError(t, err)

	_, err = service.Resolve(id, DirectionDown)
	assert.ErrorIs(t, err, feedstore.ErrAlreadyResolved)
}

func TestAdd_RejectsInvalidSignals(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	missing := testSignal(DirectionUp)
	missing.Interval = ""
	_, _, err := service.Add(missing)
	assert.ErrorIs(t, err, feedstore.ErrInvalidArgument)

	sideways := testSignal("SIDEWAYS")
	_, _, err = service.Add(sideways)
	assert.ErrorIs(t, err, feedstore.ErrInvalidArgument)
}
