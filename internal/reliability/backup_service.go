package reliability

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/rs/zerolog"

	"github.com/stavrou/homebase/internal/database"
)

// BackupService snapshots the live SQLite databases to files. Snapshots use
// VACUUM INTO so they are consistent without blocking writers.
type BackupService struct {
	databases map[string]*database.DB
	log       zerolog.Logger
}

// NewBackupService creates a backup service over the named databases
func NewBackupService(databases map[string]*database.DB, log zerolog.Logger) *BackupService {
	return &BackupService{
		databases: databases,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// GetDatabaseNames returns the database names in stable order. The cache
// database holds re-fetchable collateral and can be excluded.
func (s *BackupService) GetDatabaseNames(includeCache bool) []string {
	names := make([]string, 0, len(s.databases))
	for name := range s.databases {
		if name == "cache" && !includeCache {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BackupDatabase snapshots one database to destPath
func (s *BackupService) BackupDatabase(name, destPath string) error {
	db, ok := s.databases[name]
	if !ok {
		return fmt.Errorf("unknown database: %s", name)
	}

	// VACUUM INTO refuses to overwrite
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear destination: %w", err)
	}

	if _, err := db.Conn().Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("failed to snapshot %s: %w", name, err)
	}

	s.log.Debug().Str("database", name).Str("dest", destPath).Msg("Database snapshot created")
	return nil
}

// CopyFile copies a file, used to stage backups for verification
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
