// Package testing provides testing utilities and helpers for the homebase project.
package testing

import (
	"fmt"
	"os"
	"testing"

	"github.com/stavrou/homebase/internal/database"
)

// NewTestDB creates a temporary SQLite database for testing with automatic
// schema migration. Returns the database instance and a cleanup function that
// closes the connection. The cleanup function is idempotent and can be called
// multiple times safely.
//
// Supported schema names:
//   - "feeds" - applies feeds_schema.sql (all feed tables)
//   - "cache" - applies cache_schema.sql (client data cache)
//   - Unknown names - creates empty database (no schema applied)
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	// Temporary file per test for isolation
	tmpFile, err := os.CreateTemp("", fmt.Sprintf("test_%s_*.db", name))
	if err != nil {
		t.Fatalf("Failed to create temporary database file: %v", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	db, err := database.New(database.Config{
		Path:    tmpPath,
		Profile: database.ProfileStandard,
		Name:    name,
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	return db, func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
		if err := os.Remove(tmpPath); err != nil {
			t.Logf("Warning: Failed to remove temporary database file %s: %v", tmpPath, err)
		}
	}
}
