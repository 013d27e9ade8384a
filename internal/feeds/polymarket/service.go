// Package polymarket hosts the prediction-market trade feed.
package polymarket

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stavrou/homebase/internal/events"
	"github.com/stavrou/homebase/internal/feedstore"
)

// FeedName identifies this feed in routes, logs and events
const FeedName = "polymarket"

// Trade positions
const (
	PositionYes = "Yes"
	PositionNo  = "No"
)

// Outcomes accepted by Resolve
const (
	OutcomeWon  = "won"
	OutcomeLost = "lost"
)

// Trade is the payload of one prediction-market trade: a stake on a Yes/No
// position entered at a price quoted in cents.
type Trade struct {
	Market          string  `json:"market"`
	Position        string  `json:"position"`
	Stake           float64 `json:"stake"`
	EntryPriceCents float64 `json:"entry_price_cents"`
	EnteredAt       int64   `json:"entered_at,omitempty"` // epoch ms UTC
}

// Validate checks required payload fields
func (t Trade) Validate() error {
	if t.Market == "" {
		return fmt.Errorf("%w: trade market is required", feedstore.ErrInvalidArgument)
	}
	if t.Position != PositionYes && t.Position != PositionNo {
		return fmt.Errorf("%w: trade position must be %q or %q", feedstore.ErrInvalidArgument, PositionYes, PositionNo)
	}
	if t.Stake <= 0 {
		return fmt.Errorf("%w: trade stake must be positive", feedstore.ErrInvalidArgument)
	}
	if t.EntryPriceCents <= 0 || t.EntryPriceCents >= 100 {
		return fmt.Errorf("%w: entry price must be between 0 and 100 cents", feedstore.ErrInvalidArgument)
	}
	return nil
}

// Service owns the polymarket trade feed. Trades group by entry date and are
// resolved won or lost, deriving the trade's signed P&L exactly once.
type Service struct {
	store *feedstore.Store[Trade]
	bus   *events.Bus
	log   zerolog.Logger
}

// NewService creates the polymarket service
func NewService(db *sql.DB, bus *events.Bus, log zerolog.Logger) (*Service, error) {
	store, err := feedstore.New(db, feedstore.Config[Trade]{
		Feed:            FeedName,
		Table:           "polymarket_trades",
		InitialStatus:   feedstore.StatusProposed,
		PendingStatuses: []feedstore.Status{feedstore.StatusProposed},
		Transitions: map[feedstore.Status][]feedstore.Status{
			feedstore.StatusProposed: {feedstore.StatusApproved, feedstore.StatusSkipped},
		},
		ApprovedStatus: feedstore.StatusApproved,
		Rank:           func(t Trade) float64 { return t.Stake },
		Derive:         deriveProfitLoss,
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

// deriveProfitLoss computes the signed P&L of a resolved trade. A winning
// share bought at p cents pays out 100 cents, so a stake s returns
// s * (100/p - 1) profit; a losing trade forfeits the stake.
func deriveProfitLoss(rec feedstore.Record[Trade], outcome string) (feedstore.Derived, error) {
	var won bool
	switch outcome {
	case OutcomeWon:
		won = true
	case OutcomeLost:
		won = false
	default:
		return feedstore.Derived{}, fmt.Errorf("%w: outcome must be %q or %q", feedstore.ErrInvalidArgument, OutcomeWon, OutcomeLost)
	}

	var pnl float64
	if won {
		pnl = rec.Payload.Stake * (100/rec.Payload.EntryPriceCents - 1)
	} else {
		pnl = -rec.Payload.Stake
	}

	return feedstore.Derived{
		Correct:    &won,
		ProfitLoss: &pnl,
		Matched:    won,
	}, nil
}

// Refresh swaps the still-proposed trades of a day for a new candidate batch
func (s *Service) Refresh(day string, trades []Trade) ([]string, error) {
	for _, trade := range trades {
		if err := trade.Validate(); err != nil {
			return nil, err
		}
	}

	ids, removed, err := s.store.RefreshBatch(day, trades)
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

// Resolve marks a trade won or lost and derives its P&L. Resolution is
// one-way: a second call fails.
func (s *Service) Resolve(id string, won bool) (*feedstore.Resolution, error) {
	outcome := OutcomeLost
	if won {
		outcome = OutcomeWon
	}

	res, err := s.store.Resolve(id, outcome)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(&events.RecordResolvedData{
		Feed:       FeedName,
		RecordID:   id,
		Outcome:    outcome,
		Correct:    res.Correct,
		ProfitLoss: res.ProfitLoss,
	})

	return res, nil
}

// Current returns the latest day's trades, biggest stake first
func (s *Service) Current() (feedstore.CurrentBatch[Trade], error) {
	return s.store.GetCurrent()
}

// Get returns one trade by id
func (s *Service) Get(id string) (*feedstore.Record[Trade], error) {
	return s.store.Get(id)
}

// Day returns all trades of one entry day
func (s *Service) Day(day string) ([]feedstore.Record[Trade], error) {
	return s.store.ListPeriod(day)
}

// Days returns the most recent days with trades, newest first
func (s *Service) Days(limit int) ([]string, error) {
	return s.store.ListPeriods(limit)
}

// Promote transitions a trade's status under the feed's transition table
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

// ClearDay removes all trades of one day regardless of status
func (s *Service) ClearDay(day string) (int, error) {
	return s.store.ClearPeriod(day)
}

// ClearAll removes every trade
func (s *Service) ClearAll() (int, error) {
	return s.store.ClearAll()
}

// EntryDay returns the UTC day key for a trade's entry time, defaulting to
// today when the producer did not stamp one
func EntryDay(t Trade, now time.Time) string {
	if t.EnteredAt > 0 {
		return time.UnixMilli(t.EnteredAt).UTC().Format("2006-01-02")
	}
	return now.UTC().Format("2006-01-02")
}
