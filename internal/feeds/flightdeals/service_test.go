package flightdeals

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

func testDeal(dest string, score float64) Deal {
	return Deal{
		Origin:      "ATH",
		Destination: dest,
		DepartDate:  "2025-03-14",
		ReturnDate:  "2025-03-17",
		PriceUSD:    220,
		Airline:     "A3",
		Score:       score,
	}
}

func TestRefresh_OrdersByScoreDescending(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	_, err := service.Refresh("2025-03-10", []Deal{
		testDeal("LIS", 40),
		testDeal("BCN", 90),
		testDeal("PRG", 65),
	})
	require.NoError(t, err)

	batch, err := service.Current()
	require.NoError(t, err)
	require.Len(t, batch.Records, 3)

	assert.Equal(t, "BCN", batch.Records[0].Payload.Destination)
	assert.Equal(t, "PRG", batch.Records[1].Payload.Destination)
	assert.Equal(t, "LIS", batch.Records[2].Payload.Destination)
}

func TestCurrent_ReturnsLatestWeekOnly(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	_, err := service.Refresh("2025-03-03", []Deal{testDeal("LIS", 40)})
	require.NoError(t, err)
	_, err = service.Refresh("2025-03-10", []Deal{testDeal("BCN", 90)})
	require.NoError(t, err)

	batch, err := service.Current()
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", batch.PeriodKey)
	require.Len(t, batch.Records, 1)
	assert.Equal(t, "BCN", batch.Records[0].Payload.Destination)
}

func TestRefresh_RejectsInvalidDeals(t *testing.T) {
	service, cleanup := newTestService(t)
	defer cleanup()

	bad := testDeal("LIS", 40)
	bad.Destination = ""
	_, err := service.Refresh("2025-03-10", []Deal{bad})
	assert.ErrorIs(t, err, feedstore.ErrInvalidArgument)
}
