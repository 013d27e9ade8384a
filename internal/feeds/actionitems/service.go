// Package actionitems hosts the daily AI-proposed action item feed.
package actionitems

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stavrou/homebase/internal/events"
	"github.com/stavrou/homebase/internal/feedstore"
)

// FeedName identifies this feed in routes, logs and events
const FeedName = "action-items"

// Item is the payload of one proposed action item
type Item struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	Priority    float64 `json:"priority"`
}

// Validate checks required payload fields
func (i Item) Validate() error {
	if i.Title == "" {
		return fmt.Errorf("%w: action item title is required", feedstore.ErrInvalidArgument)
	}
	return nil
}

// Service owns the action item feed: a daily batch of proposed items that an
// operator promotes through approved / implementing / done, with skipped
// reachable from any non-terminal state.
type Service struct {
	store *feedstore.Store[Item]
	bus   *events.Bus
	log   zerolog.Logger
}

// NewService creates the action items service
func NewService(db *sql.DB, bus *events.Bus, log zerolog.Logger) (*Service, error) {
	store, err := feedstore.New(db, feedstore.Config[Item]{
		Feed:            FeedName,
		Table:           "action_items",
		InitialStatus:   feedstore.StatusProposed,
		PendingStatuses: []feedstore.Status{feedstore.StatusProposed},
		ApprovedStatus:  feedstore.StatusApproved,
		CompletedStatus: feedstore.StatusDone,
		Transitions: map[feedstore.Status][]feedstore.Status{
			feedstore.StatusProposed:     {feedstore.StatusApproved, feedstore.StatusSkipped},
			feedstore.StatusApproved:     {feedstore.StatusImplementing, feedstore.StatusSkipped},
			feedstore.StatusImplementing: {feedstore.StatusDone, feedstore.StatusSkipped},
		},
		Rank: func(i Item) float64 { return i.Priority },
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

// Refresh swaps the still-proposed items of a day for a new candidate batch.
// Items already approved or further along are preserved.
func (s *Service) Refresh(day string, items []Item) ([]string, error) {
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
	}

	ids, removed, err := s.store.RefreshBatch(day, items)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(&events.BatchRefreshedData{
		Feed:      FeedName,
		PeriodKey: day,
		Inserted:  len(ids),
		Removed:   removed,
	})

	return ids, nil
}

// Current returns the latest day's items, highest priority first
func (s *Service) Current() (feedstore.CurrentBatch[Item], error) {
	return s.store.GetCurrent()
}

// Get returns one item by id
func (s *Service) Get(id string) (*feedstore.Record[Item], error) {
	return s.store.Get(id)
}

// Day returns all items of one day
func (s *Service) Day(day string) ([]feedstore.Record[Item], error) {
	return s.store.ListPeriod(day)
}

// Days returns the most recent days with items, newest first
func (s *Service) Days(limit int) ([]string, error) {
	return s.store.ListPeriods(limit)
}

// Promote transitions an item's status under the feed's transition table
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

// ClearDay removes all items of one day regardless of status
func (s *Service) ClearDay(day string) (int, error) {
	return s.store.ClearPeriod(day)
}

// ClearAll removes every item
func (s *Service) ClearAll() (int, error) {
	return s.store.ClearAll()
}
