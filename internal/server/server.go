// Package server provides the HTTP server and routing for homebase.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/stavrou/homebase/internal/config"
	"github.com/stavrou/homebase/internal/database"
	"github.com/stavrou/homebase/internal/events"
	"github.com/stavrou/homebase/internal/feeds/actionitems"
	actionitemhandlers "github.com/stavrou/homebase/internal/feeds/actionitems/handlers"
	"github.com/stavrou/homebase/internal/feeds/btcsignals"
	btcsignalhandlers "github.com/stavrou/homebase/internal/feeds/btcsignals/handlers"
	"github.com/stavrou/homebase/internal/feeds/daycare"
	daycarehandlers "github.com/stavrou/homebase/internal/feeds/daycare/handlers"
	"github.com/stavrou/homebase/internal/feeds/flightdeals"
	flightdealhandlers "github.com/stavrou/homebase/internal/feeds/flightdeals/handlers"
	"github.com/stavrou/homebase/internal/feeds/polymarket"
	polymarkethandlers "github.com/stavrou/homebase/internal/feeds/polymarket/handlers"
	"github.com/stavrou/homebase/internal/feeds/weekendideas"
	weekendideahandlers "github.com/stavrou/homebase/internal/feeds/weekendideas/handlers"
	"github.com/stavrou/homebase/internal/reliability"
)

// Config holds server configuration
type Config struct {
	Log     zerolog.Logger
	Config  *config.Config
	FeedsDB *database.DB
	CacheDB *database.DB
	Bus     *events.Bus

	ActionItems  *actionitems.Service
	FlightDeals  *flightdeals.Service
	WeekendIdeas *weekendideas.Service
	BTCSignals   *btcsignals.Service
	Polymarket   *polymarket.Service
	Daycare      *daycare.Service

	// BackupService is nil when R2 is not configured
	BackupService *reliability.R2BackupService
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            Config
	systemHandlers *SystemHandlers
	eventsHandler  *EventsHandler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg,
		systemHandlers: NewSystemHandlers(
			cfg.Log,
			cfg.Config.DataDir,
			map[string]*database.DB{"feeds": cfg.FeedsDB, "cache": cfg.CacheDB},
			cfg.BackupService,
		),
		eventsHandler: NewEventsHandler(cfg.Bus, cfg.Log),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.systemHandlers.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// The events websocket carries no timeout; it is registered before the
		// timeout middleware wraps the API sub-router.
		r.Get("/events/ws", s.eventsHandler.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Route("/system", func(r chi.Router) {
				r.Get("/status", s.systemHandlers.HandleSystemStatus)
				r.Get("/health", s.systemHandlers.HandleHealth)
				r.Get("/database/stats", s.systemHandlers.HandleDatabaseStats)
				r.Post("/backup", s.systemHandlers.HandleTriggerBackup)
				r.Get("/backups", s.systemHandlers.HandleListBackups)
			})

			actionitemhandlers.NewHandler(s.cfg.ActionItems, s.log).RegisterRoutes(r)
			flightdealhandlers.NewHandler(s.cfg.FlightDeals, s.log).RegisterRoutes(r)
			weekendideahandlers.NewHandler(s.cfg.WeekendIdeas, s.log).RegisterRoutes(r)
			btcsignalhandlers.NewHandler(s.cfg.BTCSignals, s.log).RegisterRoutes(r)
			polymarkethandlers.NewHandler(s.cfg.Polymarket, s.log).RegisterRoutes(r)
			daycarehandlers.NewHandler(s.cfg.Daycare, s.log).RegisterRoutes(r)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Config.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the router for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
