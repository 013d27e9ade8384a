// Package weekendideas hosts the weekly weekend activity suggestion feed.
package weekendideas

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stavrou/homebase/internal/events"
	"github.com/stavrou/homebase/internal/feedstore"
)

// FeedName identifies this feed in routes, logs and events
const FeedName = "weekend-ideas"

// Modes an idea can be suggested for
const (
	ModeWork   = "work"
	ModeFamily = "family"
)

// Idea is the payload of one weekend activity suggestion
type Idea struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Mode        string  `json:"mode"`
	Location    string  `json:"location,omitempty"`
	Rank        float64 `json:"rank"`
}

// Validate checks required payload fields
func (i Idea) Validate() error {
	if i.Title == "" {
		return fmt.Errorf("%w: idea title is required", feedstore.ErrInvalidArgument)
	}
	if i.Mode != ModeWork && i.Mode != ModeFamily {
		return fmt.Errorf("%w: idea mode must be %q or %q", feedstore.ErrInvalidArgument, ModeWork, ModeFamily)
	}
	return nil
}

// Service owns the weekend ideas feed: a weekly batch of suggestions per mode,
// ordered best-first by ascending rank.
type Service struct {
	store *feedstore.Store[Idea]
	bus   *events.Bus
	log   zerolog.Logger
}

// NewService creates the weekend ideas service
func NewService(db *sql.DB, bus *events.Bus, log zerolog.Logger) (*Service, error) {
	store, err := feedstore.New(db, feedstore.Config[Idea]{
		Feed:            FeedName,
		Table:           "weekend_ideas",
		InitialStatus:   feedstore.StatusProposed,
		PendingStatuses: []feedstore.Status{feedstore.StatusProposed},
		ApprovedStatus:  feedstore.StatusApproved,
		CompletedStatus: feedstore.StatusDone,
		Transitions: map[feedstore.Status][]feedstore.Status{
			feedstore.StatusProposed: {feedstore.StatusApproved, feedstore.StatusSkipped},
			feedstore.StatusApproved: {feedstore.StatusDone, feedstore.StatusSkipped},
		},
		Rank:      func(i Idea) float64 { return i.Rank },
		Ascending: true,
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

// Refresh swaps the still-proposed ideas of a week for a new candidate batch
func (s *Service) Refresh(weekStart string, ideas []Idea) ([]string, error) {
	for _, idea := range ideas {
		if err := idea.Validate(); err != nil {
			return nil, err
		}
	}

	ids, removed, err := s.store.RefreshBatch(weekStart, ideas)
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

// Current returns the latest week's ideas, best rank first
func (s *Service) Current() (feedstore.CurrentBatch[Idea], error) {
	return s.store.GetCurrent()
}

// Get returns one idea by id
func (s *Service) Get(id string) (*feedstore.Record[Idea], error) {
	return s.store.Get(id)
}

// Week returns all ideas of one week
func (s *Service) Week(weekStart string) ([]feedstore.Record[Idea], error) {
	return s.store.ListPeriod(weekStart)
}

// Weeks returns the most recent weeks with ideas, newest first
func (s *Service) Weeks(limit int) ([]string, error) {
	return s.store.ListPeriods(limit)
}

// Promote transitions an idea's status under the feed's transition table
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

// ClearWeek removes all ideas of one week regardless of status
func (s *Service) ClearWeek(weekStart string) (int, error) {
	return s.store.ClearPeriod(weekStart)
}

// ClearAll removes every idea
func (s *Service) ClearAll() (int, error) {
	return s.store.ClearAll()
}
