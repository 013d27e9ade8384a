package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/stavrou/homebase/internal/database"
	"github.com/stavrou/homebase/internal/reliability"
	"github.com/stavrou/homebase/internal/version"
)

// SystemHandlers serves system status, health and backup endpoints
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	databases map[string]*database.DB
	backupSvc *reliability.R2BackupService
	startTime time.Time
}

// NewSystemHandlers creates system handlers. backupSvc may be nil when R2 is
// not configured; the backup endpoints then return 503.
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	databases map[string]*database.DB,
	backupSvc *reliability.R2BackupService,
) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		databases: databases,
		backupSvc: backupSvc,
		startTime: time.Now(),
	}
}

type databaseStatus struct {
	SizeMB    float64 `json:"size_mb"`
	WALSizeMB float64 `json:"wal_size_mb"`
	PageCount int64   `json:"page_count"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	databases := make(map[string]databaseStatus, len(h.databases))
	for name, db := range h.databases {
		stats, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", name).Msg("Failed to get database stats")
			continue
		}
		databases[name] = databaseStatus{
			SizeMB:    float64(stats.SizeBytes) / 1024 / 1024,
			WALSizeMB: float64(stats.WALSizeBytes) / 1024 / 1024,
			PageCount: stats.PageCount,
		}
	}

	h.writeJSON(w, map[string]interface{}{
		"version":        version.Version,
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"cpu_percent":    cpuPercent,
		"memory_percent": memPercent,
		"databases":      databases,
	})
}

// HandleHealth handles GET /health and GET /api/system/health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	for name, db := range h.databases {
		if err := db.HealthCheck(r.Context()); err != nil {
			h.log.Error().Err(err).Str("database", name).Msg("Health check failed")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status":   "unhealthy",
				"database": name,
			})
			return
		}
	}

	h.writeJSON(w, map[string]string{"status": "ok"})
}

// HandleDatabaseStats handles GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]*database.Stats, len(h.databases))
	for name, db := range h.databases {
		s, err := db.GetStats()
		if err != nil {
			h.log.Error().Err(err).Str("database", name).Msg("Failed to get database stats")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		stats[name] = s
	}

	h.writeJSON(w, stats)
}

// HandleTriggerBackup handles POST /api/system/backup
func (h *SystemHandlers) HandleTriggerBackup(w http.ResponseWriter, r *http.Request) {
	if h.backupSvc == nil {
		http.Error(w, "cloud backups not configured", http.StatusServiceUnavailable)
		return
	}

	h.log.Info().Msg("Manual backup triggered")

	if err := h.backupSvc.CreateAndUploadBackup(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("Manual backup failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]string{"status": "success"})
}

// HandleListBackups handles GET /api/system/backups
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.backupSvc == nil {
		http.Error(w, "cloud backups not configured", http.StatusServiceUnavailable)
		return
	}

	backups, err := h.backupSvc.ListBackups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]interface{}{"backups": backups})
}

// getSystemStats calculates CPU and RAM usage percentages.
// Uses a 100ms sampling interval to keep the status endpoint responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
