package reliability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stavrou/homebase/internal/database"
	hometesting "github.com/stavrou/homebase/internal/testing"
)

func TestBackupDatabase_CreatesReadableSnapshot(t *testing.T) {
	db, cleanup := hometesting.NewTestDB(t, "feeds")
	defer cleanup()

	_, err := db.Exec(
		"INSERT INTO action_items (id, period_key, payload, status, created_at) VALUES (?, ?, ?, ?, ?)",
		"rec-1", "2025-03-10", `{"title":"snapshot me"}`, "proposed", 1741600800000,
	)
	require.NoError(t, err)

	service := NewBackupService(map[string]*database.DB{"feeds": db}, zerolog.Nop())

	destPath := filepath.Join(t.TempDir(), "feeds.db")
	require.NoError(t, service.BackupDatabase("feeds", destPath))

	snapshot, err := database.New(database.Config{
		Path:    destPath,
		Profile: database.ProfileStandard,
		Name:    "feeds-snapshot",
	})
	require.NoError(t, err)
	defer snapshot.Close()

	var count int
	require.NoError(t, snapshot.QueryRow("SELECT COUNT(*) FROM action_items").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestBackupDatabase_UnknownDatabase(t *testing.T) {
	service := NewBackupService(map[string]*database.DB{}, zerolog.Nop())

	err := service.BackupDatabase("ledger", filepath.Join(t.TempDir(), "out.db"))
	assert.Error(t, err)
}

func TestGetDatabaseNames_ExcludesCacheWhenAsked(t *testing.T) {
	feeds, cleanupFeeds := hometesting.NewTestDB(t, "feeds")
	defer cleanupFeeds()
	cache, cleanupCache := hometesting.NewTestDB(t, "cache")
	defer cleanupCache()

	service := NewBackupService(map[string]*database.DB{
		"feeds": feeds,
		"cache": cache,
	}, zerolog.Nop())

	assert.Equal(t, []string{"cache", "feeds"}, service.GetDatabaseNames(true))
	assert.Equal(t, []string{"feeds"}, service.GetDatabaseNames(false))
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")

	require.NoError(t, os.WriteFile(src, []byte("payload"), 0644))
	require.NoError(t, CopyFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestDailyMaintenanceJob_Run(t *testing.T) {
	db, cleanup := hometesting.NewTestDB(t, "feeds")
	defer cleanup()

	job := NewDailyMaintenanceJob(map[string]*database.DB{"feeds": db}, t.TempDir(), zerolog.Nop())
	assert.Equal(t, "daily_maintenance", job.Name())
	assert.NoError(t, job.Run())
}

func TestWeeklyMaintenanceJob_Run(t *testing.T) {
	db, cleanup := hometesting.NewTestDB(t, "cache")
	defer cleanup()

	job := NewWeeklyMaintenanceJob(map[string]*database.DB{"cache": db}, zerolog.Nop())
	assert.Equal(t, "weekly_maintenance", job.Name())
	assert.NoError(t, job.Run())
}
