package actionitems

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stavrou/homebase/internal/events"
	"github.com/stavrou/homebase/internal/feedstore"
	hometesting "github.com/stavrou/homebase/internal/testing"
)

func newTestService(t *testing.T) (*Service, *events.Bus, func()) {
	t.Helper()

	db, cleanup := hometesting.NewTestDB(t, "feeds")

	bus := events.NewBus(zerolog.Nop())
	service, err := NewService(db.Conn(), bus, zerolog.Nop())
	require.NoError(t, err)

	return service, bus, cleanup
}

func TestRefresh_PreservesDecidedItems(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	ids, err := service.Refresh("2025-03-10", []Item{
		{Title: "renew passport", Priority: 3},
		{Title: "file taxes", Priority: 2},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	require.NoError(t, service.Promote(ids[0], feedstore.StatusApproved))

	_, err = service.Refresh("2025-03-10", []Item{
		{Title: "book dentist", Priority: 1},
	})
	require.NoError(t, err)

	records, err := service.Day("2025-03-10")
	require.NoError(t, err)
	require.Len(t, records, 2)

	titles := []string{records[0].Payload.Title, records[1].Payload.Title}
	assert.Contains(t, titles, "renew passport")
	assert.Contains(t, titles, "book dentist")
	assert.NotContains(t, titles, "file taxes")
}

func TestPromote_WalksTheFullLifecycle(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	ids, err := service.Refresh("2025-03-10", []Item{
		{Title: "renew passport", Priority: 3},
	})
	require.NoError(t, err)

	require.NoError(t, service.Promote(ids[0], feedstore.StatusApproved))
	require.NoError(t, service.Promote(ids[0], feedstore.StatusImplementing))
	require.NoError(t, service.Promote(ids[0], feedstore.StatusDone))

	rec, err := service.Get(ids[0])
	require.NoError(t, err)
	assert.Equal(t, feedstore.StatusDone, rec.Status)
	assert.NotNil(t, rec.ApprovedAt)
	assert.NotNil(t, rec.CompletedAt)
}

func TestPromote_CannotSkipApproval(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	ids, err := service.Refresh("2025-03-10", []Item{
		{Title: "renew passport", Priority: 3},
	})
	require.NoError(t, err)

	err = service.Promote(ids[0], feedstore.StatusDone)
	assert.ErrorIs(t, err, feedstore.ErrInvalidTransition)
}

func TestRefresh_PublishesBatchRefreshedEvent(t *testing.T) {
	service, bus, cleanup := newTestService(t)
	defer cleanup()

	ch, unsubscribe := bus.Subscribe(4)
	defer unsubscribe()

	_, err := service.Refresh("2025-03-10", []Item{
		{Title: "renew passport", Priority: 3},
	})
	require.NoError(t, err)

	select {
	case event := <-ch:
		assert.Equal(t, events.BatchRefreshed, event.Type)
		data, ok := event.Data.(*events.BatchRefreshedData)
		require.True(t, ok)
		assert.Equal(t, FeedName, data.Feed)
		assert.Equal(t, "2025-03-10", data.PeriodKey)
		assert.Equal(t, 1, data.Inserted)
	case <-time.After(time.Second):
		t.Fatal("expected a batch refreshed event")
	}
}

func TestRefresh_RequiresTitle(t *testing.T) {
	service, _, cleanup := newTestService(t)
	defer cleanup()

	_, err := service.Refresh("2025-03-10", []Item{{Priority: 1}})
	assert.ErrorIs(t, err, feedstore.ErrInvalidArgument)
}
