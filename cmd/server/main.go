// Package main is the entry point for the homebase feed service. It wires
// the two SQLite databases, the six feed services, the background scheduler
// and the HTTP server, then runs until interrupted.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/stavrou/homebase/internal/clientdata"
	"github.com/stavrou/homebase/internal/config"
	"github.com/stavrou/homebase/internal/database"
	"github.com/stavrou/homebase/internal/events"
	"github.com/stavrou/homebase/internal/feeds/actionitems"
	"github.com/stavrou/homebase/internal/feeds/btcsignals"
	"github.com/stavrou/homebase/internal/feeds/daycare"
	"github.com/stavrou/homebase/internal/feeds/flightdeals"
	"github.com/stavrou/homebase/internal/feeds/polymarket"
	"github.com/stavrou/homebase/internal/feeds/weekendideas"
	"github.com/stavrou/homebase/internal/producers"
	"github.com/stavrou/homebase/internal/reliability"
	"github.com/stavrou/homebase/internal/scheduler"
	"github.com/stavrou/homebase/internal/server"
	"github.com/stavrou/homebase/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting homebase")

	// Two-database layout: feeds.db holds the durable feed records,
	// cache.db holds disposable fetched collateral.
	feedsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "feeds.db"),
		Profile: database.ProfileStandard,
		Name:    "feeds",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open feeds database")
	}
	defer feedsDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	if err := feedsDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate feeds database")
	}
	if err := cacheDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate cache database")
	}

	bus := events.NewBus(log)

	actionItemsSvc, err := actionitems.NewService(feedsDB.Conn(), bus, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create action items service")
	}
	flightDealsSvc, err := flightdeals.NewService(feedsDB.Conn(), bus, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create flight deals service")
	}
	weekendIdeasSvc, err := weekendideas.NewService(feedsDB.Conn(), bus, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create weekend ideas service")
	}
	btcSignalsSvc, err := btcsignals.NewService(feedsDB.Conn(), bus, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create btc signals service")
	}
	polymarketSvc, err := polymarket.NewService(feedsDB.Conn(), bus, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create polymarket service")
	}
	daycareSvc, err := daycare.NewService(feedsDB.Conn(), bus, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create daycare service")
	}

	clientDataRepo := clientdata.NewRepository(cacheDB.Conn())

	databases := map[string]*database.DB{
		"feeds": feedsDB,
		"cache": cacheDB,
	}

	// Cloud backups run only when R2 credentials are configured.
	var r2BackupSvc *reliability.R2BackupService
	if cfg.R2Configured() {
		r2Client, err := reliability.NewR2Client(context.Background(), reliability.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create R2 client")
		}
		backupSvc := reliability.NewBackupService(databases, log)
		r2BackupSvc = reliability.NewR2BackupService(r2Client, backupSvc, cfg.DataDir, bus, log)
		log.Info().Str("bucket", cfg.R2BucketName).Msg("Cloud backups enabled")
	} else {
		log.Warn().Msg("R2 credentials not configured, cloud backups disabled")
	}

	sched := scheduler.New(log)

	registerJob := func(schedule string, job scheduler.Job) {
		if schedule == "" {
			log.Info().Str("job", job.Name()).Msg("Job disabled by empty schedule")
			return
		}
		if err := sched.AddJob(schedule, job); err != nil {
			log.Fatal().Err(err).Str("job", job.Name()).Msg("Failed to register job")
		}
	}

	rollover := producers.NewActionRollover(actionItemsSvc, log)
	registerJob(cfg.Schedules.ActionItems, scheduler.NewRefreshJob(rollover, actionItemsSvc.Refresh, log))

	candleSignals := producers.NewCandleSignals(
		clientDataRepo,
		btcsignals.DefaultAnalyzerConfig("BTCUSDT", "1h"),
		log,
	)
	registerJob(cfg.Schedules.BTCSignals, scheduler.NewIngestJob(candleSignals, btcSignalsSvc.Add, log))

	registerJob(cfg.Schedules.Maintenance, reliability.NewDailyMaintenanceJob(databases, cfg.DataDir, log))
	registerJob(cfg.Schedules.Maintenance, clientdata.NewCleanupJob(clientDataRepo, log))
	registerJob("0 0 3 * * SUN", reliability.NewWeeklyMaintenanceJob(databases, log))
	if r2BackupSvc != nil {
		registerJob(cfg.Schedules.CloudBackup, reliability.NewCloudBackupJob(r2BackupSvc, cfg.BackupRetention, log))
	}

	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:           log,
		Config:        cfg,
		FeedsDB:       feedsDB,
		CacheDB:       cacheDB,
		Bus:           bus,
		ActionItems:   actionItemsSvc,
		FlightDeals:   flightDealsSvc,
		WeekendIdeas:  weekendIdeasSvc,
		BTCSignals:    btcSignalsSvc,
		Polymarket:    polymarketSvc,
		Daycare:       daycareSvc,
		BackupService: r2BackupSvc,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
