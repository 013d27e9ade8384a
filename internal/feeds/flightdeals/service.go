// Package flightdeals hosts the weekly flight deal feed.
package flightdeals

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stavrou/homebase/internal/events"
	"github.com/stavrou/homebase/internal/feedstore"
)

// FeedName identifies this feed in routes, logs and events
const FeedName = "flight-deals"

// Deal is the payload of one flight deal
type Deal struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	DepartDate  string  `json:"depart_date"`
	ReturnDate  string  `json:"return_date,omitempty"`
	PriceUSD    float64 `json:"price_usd"`
	Airline     string  `json:"airline,omitempty"`
	BookingURL  string  `json:"booking_url,omitempty"`
	// Score is how far below the route's typical price this deal sits,
	// computed by ScoreDeal before refresh. Higher is better.
	Score float64 `json:"score"`
}

// Validate checks required payload fields
func (d Deal) Validate() error {
	if d.Origin == "" || d.Destination == "" {
		return fmt.Errorf("%w: flight deal origin and destination are required", feedstore.ErrInvalidArgument)
	}
	if d.PriceUSD <= 0 {
		return fmt.Errorf("%w: flight deal price must be positive", feedstore.ErrInvalidArgument)
	}
	return nil
}

// Service owns the flight deal feed: a weekly batch of scored fare drops,
// ordered by deal score descending. Saved (approved) deals survive the next
// weekly refresh.
type Service struct {
	store *feedstore.Store[Deal]
	bus   *events.Bus
	log   zerolog.Logger
}

// NewService creates the flight deals service
func NewService(db *sql.DB, bus *events.Bus, log zerolog.Logger) (*Service, error) {
	store, err := feedstore.New(db, feedstore.Config[Deal]{
		Feed:            FeedName,
		Table:           "flight_deals",
		InitialStatus:   feedstore.StatusProposed,
		PendingStatuses: []feedstore.Status{feedstore.StatusProposed},
		ApprovedStatus:  feedstore.StatusApproved,
		CompletedStatus: feedstore.StatusDone,
		Transitions: map[feedstore.Status][]feedstore.Status{
			feedstore.StatusProposed: {feedstore.StatusApproved, feedstore.StatusSkipped},
			feedstore.StatusApproved: {feedstore.StatusDone, feedstore.StatusSkipped},
		},
		Rank: func(d Deal) float64 { return d.Score },
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

// Refresh swaps the still-proposed deals of a week for a new candidate batch
func (s *Service) Refresh(weekStart string, deals []Deal) ([]string, error) {
	for _, deal := range deals {
		if err := deal.Validate(); err != nil {
			return nil, err
		}
	}

	ids, removed, err := s.store.RefreshBatch(weekStart, deals)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(&events.BatchRefreshedData{
		Feed:      FeedName,
		PeriodKey: weekStart,
		Inserted:  len(ids),
		Removed:   removed,
	})

	return ids, nil
}

// Current returns the latest week's deals, best score first
func (s *Service) Current() (feedstore.CurrentBatch[Deal], error) {
	return s.store.GetCurrent()
}

// Get returns one deal by id
func (s *Service) Get(id string) (*feedstore.Record[Deal], error) {
	return s.store.Get(id)
}

// Week returns all deals of one week
func (s *Service) Week(weekStart string) ([]feedstore.Record[Deal], error) {
	return s.store.ListPeriod(weekStart)
}

// Weeks returns the most recent weeks with deals, newest first
func (s *Service) Weeks(limit int) ([]string, error) {
	return s.store.ListPeriods(limit)
}

// Promote transitions a deal's status (save it, book it, skip it)
func (s *Service) Promote(id string, status feedstore.Status) error {
	previous, err := s.store.PromoteStatus(id, status)
	if err != nil {
		return err
	}

	s.bus.Publish(&events.StatusChangedData{
		Feed:     FeedName,
		RecordID: id,
		From:     string(previous),
		To:       string(status),
	})

	return nil
}

// ClearWeek removes all deals of one week regardless of status
func (s *Service) ClearWeek(weekStart string) (int, error) {
	return s.store.ClearPeriod(weekStart)
}

// ClearAll removes every deal
func (s *Service) ClearAll() (int, error) {
	return s.store.ClearAll()
}
