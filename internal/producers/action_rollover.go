// Package producers holds the scheduled feed producers. Each producer
// collects a candidate batch for one feed; the scheduler wires it to the
// feed service's refresh or ingest path.
package producers

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/stavrou/homebase/internal/feeds/actionitems"
	"github.com/stavrou/homebase/internal/feedstore"
)

// ActionRollover proposes today's action item batch by carrying forward the
// items from the most recent earlier day that were never acted on. Approved
// and completed items stay in their own day; only still-proposed items roll.
type ActionRollover struct {
	service *actionitems.Service
	log     zerolog.Logger
}

// NewActionRollover creates the daily action item rollover producer
func NewActionRollover(service *actionitems.Service, log zerolog.Logger) *ActionRollover {
	return &ActionRollover{
		service: service,
		log:     log.With().Str("producer", "action_rollover").Logger(),
	}
}

// Feed returns the feed this producer serves
func (p *ActionRollover) Feed() string {
	return actionitems.FeedName
}

// PeriodKey returns today's day key
func (p *ActionRollover) PeriodKey(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

// Collect gathers the still-proposed items from the latest day before today
func (p *ActionRollover) Collect(ctx context.Context) ([]actionitems.Item, error) {
	today := p.PeriodKey(time.Now())

	days, err := p.service.Days(8)
	if err != nil {
		return nil, err
	}

	var source string
	for _, day := range days {
		if day < today {
			source = day
			break
		}
	}
	if source == "" {
		return nil, nil
	}

	records, err := p.service.Day(source)
	if err != nil {
		return nil, err
	}

	var items []actionitems.Item
	for _, rec := range records {
		if rec.Status == feedstore.StatusProposed {
			items = append(items, rec.Payload)
		}
	}

	p.log.Debug().
		Str("source_day", source).
		Int("carried", len(items)).
		Msg("Collected rollover batch")

	return items, nil
}
