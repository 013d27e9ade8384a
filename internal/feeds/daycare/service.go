// Package daycare hosts the daily daycare report ingestion feed.
package daycare

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stavrou/homebase/internal/events"
	"github.com/stavrou/homebase/internal/feedstore"
)

// FeedName identifies this feed in routes, logs and events
const FeedName = "daycare"

// Report is the payload of one daily daycare report for one child. Child plus
// date is the dedup key: re-ingesting the same report is a no-op.
type Report struct {
	Child      string   `json:"child"`
	Date       string   `json:"date"` // 2006-01-02
	Summary    string   `json:"summary,omitempty"`
	Meals      []string `json:"meals,omitempty"`
	NapMinutes int      `json:"nap_minutes,omitempty"`
	Mood       string   `json:"mood,omitempty"`
	Photos     []string `json:"photos,omitempty"`
}

// Validate checks required payload fields
func (r Report) Validate() error {
	if r.Child == "" {
		return fmt.Errorf("%w: report child is required", feedstore.ErrInvalidArgument)
	}
	if r.Date == "" {
		return fmt.Errorf("%w: report date is required", feedstore.ErrInvalidArgument)
	}
	return nil
}

// dedupKey is the natural key stored alongside the report
func (r Report) dedupKey() string {
	return r.Child + "|" + r.Date
}

// Service owns the daycare report feed. Reports arrive one at a time from the
// inbox scraper, deduplicated by child and date. There is no resolution stage;
// read reports are archived.
type Service struct {
	store *feedstore.Store[Report]
	bus   *events.Bus
	log   zerolog.Logger
}

// NewService creates the daycare service
func NewService(db *sql.DB, bus *events.Bus, log zerolog.Logger) (*Service, error) {
	store, err := feedstore.New(db, feedstore.Config[Report]{
		Feed:            FeedName,
		Table:           "daycare_reports",
		InitialStatus:   feedstore.StatusProposed,
		PendingStatuses: []feedstore.Status{feedstore.StatusProposed},
		Transitions: map[feedstore.Status][]feedstore.Status{
			feedstore.StatusProposed: {feedstore.StatusArchived},
		},
		PeriodKey:  func(r Report) string { return r.Date },
		NaturalKey: func(r Report) string { return r.dedupKey() },
	}, log)
	if err != nil {
		return nil, err
	}

	return &Service{
		store: store,
		bus:   bus,
		log:   log.With().Str("service", FeedName).Logger(),
	}, nil
}

// Add stores a report, or returns the existing record when the same child and
// date were already ingested. The boolean reports whether a new record was
// created.
func (s *Service) Add(report Report) (string, bool, error) {
	if err := report.Validate(); err != nil {
		return "", false, err
	}

	return s.store.AddOrGet(report)
}

// Current returns the latest day's reports
func (s *Service) Current() (feedstore.CurrentBatch[Report], error) {
	return s.store.GetCurrent()
}

// Get returns one report by id
func (s *Service) Get(id string) (*feedstore.Record[Report], error) {
	return s.store.Get(id)
}

// Day returns all reports of one day
func (s *Service) Day(day string) ([]feedstore.Record[Report], error) {
	return s.store.ListPeriod(day)
}

// Days returns the most recent days with reports, newest first
func (s *Service) Days(limit int) ([]string, error) {
	return s.store.ListPeriods(limit)
}

// Archive marks a report as read
func (s *Service) Archive(id string) error {
	previous, err := s.store.PromoteStatus(id, feedstore.StatusArchived)
	if err != nil {
		return err
	}

	s.bus.Publish(&events.StatusChangedData{
		Feed:     FeedName,
		RecordID: id,
		From:     string(previous),
		To:       string(feedstore.StatusArchived),
	})

	return nil
}

// ClearDay removes all reports of one day regardless of status
func (s *Service) ClearDay(day string) (int, error) {
	return s.store.ClearPeriod(day)
}

// ClearAll removes every report
func (s *Service) ClearAll() (int, error) {
	return s.store.ClearAll()
}
