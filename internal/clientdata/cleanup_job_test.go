package clientdata

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupJob_RemovesOnlyExpiredEntries(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	require.NoError(t, repo.Store(CategoryWeather, "stale", forecast{}, -time.Minute))
	require.NoError(t, repo.Store(CategoryWeather, "fresh", forecast{TempC: 18}, time.Hour))

	job := NewCleanupJob(repo, zerolog.Nop())
	assert.Equal(t, "client_data_cleanup", job.Name())
	require.NoError(t, job.Run())

	var got forecast
	found, err := repo.Get(CategoryWeather, "stale", &got)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = repo.Get(CategoryWeather, "fresh", &got)
	require.NoError(t, err)
	assert.True(t, found)
}
