package reliability

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stavrou/homebase/internal/database"
)

// DailyMaintenanceJob performs daily database maintenance
type DailyMaintenanceJob struct {
	databases map[string]*database.DB
	dataDir   string
	log       zerolog.Logger
}

// NewDailyMaintenanceJob creates a new daily maintenance job
func NewDailyMaintenanceJob(databases map[string]*database.DB, dataDir string, log zerolog.Logger) *DailyMaintenanceJob {
	return &DailyMaintenanceJob{
		databases: databases,
		dataDir:   dataDir,
		log:       log.With().Str("job", "daily_maintenance").Logger(),
	}
}

// Run executes the daily maintenance job
func (j *DailyMaintenanceJob) Run() error {
	j.log.Info().Msg("Starting daily maintenance")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Step 1: Integrity check for all databases
	for name, db := range j.databases {
		j.log.Debug().Str("database", name).Msg("Running integrity check")

		if err := db.QuickCheck(ctx); err != nil {
			j.log.Error().
				Str("database", name).
				Err(err).
				Msg("Database integrity check failed")
			return fmt.Errorf("integrity check failed for %s: %w", name, err)
		}
	}

	// Step 2: WAL checkpoint for all databases (prevent bloat)
	for name, db := range j.databases {
		j.log.Debug().Str("database", name).Msg("Running WAL checkpoint")

		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			// Not critical, the next checkpoint will catch up
			j.log.Warn().
				Str("database", name).
				Err(err).
				Msg("WAL checkpoint failed")
		}
	}

	// Step 3: Check disk space
	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	// Step 4: Log database sizes
	j.logDatabaseStats()

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Daily maintenance completed successfully")

	return nil
}

// Name returns the job name for scheduler
func (j *DailyMaintenanceJob) Name() string {
	return "daily_maintenance"
}

// checkDiskSpace verifies sufficient disk space is available
func (j *DailyMaintenanceJob) checkDiskSpace() error {
	stat := syscall.Statfs_t{}
	if err := syscall.Statfs(j.dataDir, &stat); err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	availableBytes := stat.Bavail * uint64(stat.Bsize)
	availableGB := float64(availableBytes) / 1e9

	j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")

	if availableGB < 0.5 {
		j.log.Error().
			Float64("available_gb", availableGB).
			Msg("CRITICAL: Insufficient disk space")
		return fmt.Errorf("only %.2f GB free on data directory", availableGB)
	}

	if availableGB < 5.0 {
		j.log.Warn().
			Float64("available_gb", availableGB).
			Msg("Disk space running low")
	}

	return nil
}

// logDatabaseStats records size metrics for growth tracking
func (j *DailyMaintenanceJob) logDatabaseStats() {
	for name, db := range j.databases {
		stats, err := db.GetStats()
		if err != nil {
			j.log.Error().
				Str("database", name).
				Err(err).
				Msg("Failed to get database stats")
			continue
		}

		j.log.Info().
			Str("database", name).
			Float64("size_mb", float64(stats.SizeBytes)/1024/1024).
			Float64("wal_size_mb", float64(stats.WALSizeBytes)/1024/1024).
			Msg("Database metrics")
	}
}

// WeeklyMaintenanceJob reclaims space from the churn-heavy cache database
type WeeklyMaintenanceJob struct {
	databases map[string]*database.DB
	log       zerolog.Logger
}

// NewWeeklyMaintenanceJob creates a new weekly maintenance job
func NewWeeklyMaintenanceJob(databases map[string]*database.DB, log zerolog.Logger) *WeeklyMaintenanceJob {
	return &WeeklyMaintenanceJob{
		databases: databases,
		log:       log.With().Str("job", "weekly_maintenance").Logger(),
	}
}

// Run executes the weekly maintenance job
func (j *WeeklyMaintenanceJob) Run() error {
	j.log.Info().Msg("Starting weekly maintenance")
	startTime := time.Now()

	// Only the cache database churns enough to fragment; feed records are
	// small and mostly append-only.
	if db, ok := j.databases["cache"]; ok {
		j.log.Info().Str("database", "cache").Msg("Running VACUUM")

		if err := db.Vacuum(); err != nil {
			j.log.Error().
				Str("database", "cache").
				Err(err).
				Msg("VACUUM failed")
			return err
		}
	}

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Weekly maintenance completed successfully")

	return nil
}

// Name returns the job name for scheduler
func (j *WeeklyMaintenanceJob) Name() string {
	return "weekly_maintenance"
}

// CloudBackupJob creates and uploads an R2 backup, then rotates old ones
type CloudBackupJob struct {
	service       *R2BackupService
	retentionDays int
	log           zerolog.Logger
}

// NewCloudBackupJob creates a new cloud backup job
func NewCloudBackupJob(service *R2BackupService, retentionDays int, log zerolog.Logger) *CloudBackupJob {
	return &CloudBackupJob{
		service:       service,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "cloud_backup").Logger(),
	}
}

// Run creates, uploads and rotates backups
func (j *CloudBackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	if err := j.service.CreateAndUploadBackup(ctx); err != nil {
		return err
	}

	return j.service.RotateOldBackups(ctx, j.retentionDays)
}

// Name returns the job name for scheduler
func (j *CloudBackupJob) Name() string {
	return "cloud_backup"
}
