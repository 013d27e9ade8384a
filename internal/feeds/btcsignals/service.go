// Package btcsignals hosts the BTC candle trading signal feed.
package btcsignals

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stavrou/homebase/internal/events"
	"github.com/stavrou/homebase/internal/feedstore"
)

// FeedName identifies this feed in routes, logs and events
const FeedName = "btc-signals"

// Signal directions
const (
	DirectionUp   = "UP"
	DirectionDown = "DOWN"
)

// Signal is the payload of one directional trading signal, keyed by the candle
// it was derived from. Interval plus candle open time is the dedup key: the
// same candle can never produce two stored signals.
type Signal struct {
	Symbol     string  `json:"symbol"`
	Interval   string  `json:"interval"`
	OpenTime   int64   `json:"open_time"` // candle open, epoch ms UTC
	Direction  string  `json:"direction"`
	Price      float64 `json:"price"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// Validate checks required payload fields
func (s Signal) Validate() error {
	if s.Interval == "" {
		return fmt.Errorf("%w: signal interval is required", feedstore.ErrInvalidArgument)
	}
	if s.OpenTime <= 0 {
		return fmt.Errorf("%w: signal candle open time is required", feedstore.ErrInvalidArgument)
	}
	if s.Direction != DirectionUp && s.Direction != DirectionDown {
		return fmt.Errorf("%w: signal direction must be %s or %s", feedstore.ErrInvalidArgument, DirectionUp, DirectionDown)
	}
	return nil
}

// dedupKey is the natural key stored alongside the signal
func (s Signal) dedupKey() string {
	return fmt.Sprintf("%s:%d", s.Interval, s.OpenTime)
}

// Service owns the BTC signal feed. Signals arrive one at a time from the
// analyzer (deduplicated by candle), group by the candle's UTC date, and are
// resolved against the observed direction of the following candle.
type Service struct {
	store *feedstore.Store[Signal]
	bus   *events.Bus
	log   zerolog.Logger
}

// NewService creates the BTC signals service
func NewService(db *sql.DB, bus *events.Bus, log zerolog.Logger) (*Service, error) {
	store, err := feedstore.New(db, feedstore.Config[Signal]{
		Feed:            FeedName,
		Table:           "btc_signals",
		InitialStatus:   feedstore.StatusProposed,
		PendingStatuses: []feedstore.Status{feedstore.StatusProposed},
		Transitions: map[feedstore.Status][]feedstore.Status{
			feedstore.StatusProposed: {feedstore.StatusSkipped},
		},
		PeriodKey: func(s Signal) string {
			return time.UnixMilli(s.OpenTime).UTC().Format("2006-01-02")
		},
		NaturalKey: func(s Signal) string { return s.dedupKey() },
		Rank:       func(s Signal) float64 { return s.Confidence },
		Derive:     deriveOutcome,
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

// deriveOutcome marks the signal correct when the observed candle direction
// matches the predicted one
func deriveOutcome(rec feedstore.Record[Signal], outcome string) (feedstore.Derived, error) {
	observed := strings.ToUpper(strings.TrimSpace(outcome))
	if observed != DirectionUp && observed != DirectionDown {
		return feedstore.Derived{}, fmt.Errorf("%w: observed direction must be %s or %s", feedstore.ErrInvalidArgument, DirectionUp, DirectionDown)
	}

	correct := observed == rec.Payload.Direction
	return feedstore.Derived{
		Correct: &correct,
		Matched: correct,
	}, nil
}

// Add stores a signal, or returns the existing record when the same candle
// already produced one. The boolean reports whether a new record was created.
func (s *Service) Add(sig Signal) (string, bool, error) {
	if err := sig.Validate(); err != nil {
		return "", false, err
	}

	id, created, err := s.store.AddOrGet(sig)
	if err != nil {
		return "", false, err
	}

	if created {
		s.bus.Publish(&events.SignalDetectedData{
			Feed:      FeedName,
			RecordID:  id,
			Direction: sig.Direction,
			Interval:  sig.Interval,
		})
	}

	return id, created, nil
}

// Resolve records the observed direction for a signal and derives correctness.
// A signal resolves exactly once.
func (s *Service) Resolve(id, observedDirection string) (*feedstore.Resolution, error) {
	res, err := s.store.Resolve(id, strings.ToUpper(strings.TrimSpace(observedDirection)))
	if err != nil {
		return nil, err
	}

	s.bus.Publish(&events.RecordResolvedData{
		Feed:     FeedName,
		RecordID: id,
		Outcome:  strings.ToUpper(strings.TrimSpace(observedDirection)),
		Correct:  res.Correct,
	})

	return res, nil
}

// Current returns the latest day's signals, highest confidence first
func (s *Service) Current() (feedstore.CurrentBatch[Signal], error) {
	return s.store.GetCurrent()
}

// Get returns one signal by id
func (s *Service) Get(id string) (*feedstore.Record[Signal], error) {
	return s.store.Get(id)
}

// Day returns all signals of one UTC day
func (s *Service) Day(day string) ([]feedstore.Record[Signal], error) {
	return s.store.ListPeriod(day)
}

// Days returns the most recent days with signals, newest first
func (s *Service) Days(limit int) ([]string, error) {
	return s.store.ListPeriods(limit)
}

// Promote transitions a signal's status under the feed's transition table
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

// ClearDay removes all signals of one day regardless of status
func (s *Service) ClearDay(day string) (int, error) {
	return s.store.ClearPeriod(day)
}

// ClearAll removes every signal
func (s *Service) ClearAll() (int, error) {
	return s.store.ClearAll()
}
