package weekendideas

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

func TestRefresh_OrdersByRankAscending(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	_, err := service.Refresh("2025-03-08", []Idea{
		{Title: "hike", Mode: ModeFamily, Rank: 3},
		{Title: "museum", Mode: ModeFamily, Rank: 1},
		{Title: "market", Mode: ModeWork, Rank: 2},
	})
	require.NoError(t, err)

	batch, err := service.Current()
	require.NoError(t, err)
	require.Len(t, batch.Records, 3)

	assert.Equal(t, "museum", batch.Records[0].Payload.Title)
	assert.Equal(t, "market", batch.Records[1].Payload.Title)
	assert.Equal(t, "hike", batch.Records[2].Payload.Title)
}

func TestRefresh_RejectsUnknownMode(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	_, err := service.Refresh("2025-03-08", []Idea{
		{Title: "hike", Mode: "holiday", Rank: 1},
	})
	assert.ErrorIs(t, err, feedstore.ErrInvalidArgument)
}

func TestPromote_ApprovedIdeaSurvivesRefresh(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	ids, err := service.Refresh("2025-03-08", []Idea{
		{Title: "hike", Mode: ModeFamily, Rank: 1},
		{Title: "museum", Mode: ModeFamily, Rank: 2},
	})
	require.NoError(t, err)

	require.NoError(t, service.Promote(ids[0], feedstore.StatusApproved))

	_, err = service.Refresh("2025-03-08", []Idea{
		{Title: "picnic", Mode: ModeFamily, Rank: 1},
	})
	require.NoError(t, err)

	records, err := service.Week("2025-03-08")
	require.NoError(t, err)
	require.Len(t, records, 2)

	titles := []string{records[0].Payload.Title, records[1].Payload.Title}
	assert.Contains(t, titles, "hike")
	assert.Contains(t, titles, "picnic")
}

func TestPromote_DoneIsTerminal(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	ids, err := service.Refresh("2025-03-08", []Idea{
		{Title: "hike", Mode: ModeFamily, Rank: 1},
	})
	require.NoError(t, err)

	require.NoError(t, service.Promote(ids[0], feedstore.StatusApproved))
	require.NoError(t, service.Promote(ids[0], feedstore.StatusDone))

	err = service.Promote(ids[0], feedstore.StatusApproved)
	assert.ErrorIs(t, err, feedstore.ErrInvalidTransition)
}
