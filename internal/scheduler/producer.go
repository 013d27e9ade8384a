package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Producer collects candidate payloads for a batch-refreshed feed. Fetching
// (and any retry or backoff) is the producer's concern; the job only wires the
// collected batch into the feed's refresh.
type Producer[P any] interface {
	// Feed returns the feed name, used as the job name
	Feed() string
	// PeriodKey returns the period the batch belongs to
	PeriodKey(now time.Time) string
	// Collect fetches the candidate batch
	Collect(ctx context.Context) ([]P, error)
}

// Refresher is the feed service method the job feeds into
type Refresher[P any] func(periodKey string, candidates []P) ([]string, error)

// RefreshJob runs a producer and hands the batch to its feed service
type RefreshJob[P any] struct {
	producer Producer[P]
	refresh  Refresher[P]
	timeout  time.Duration
	log      zerolog.Logger
}

// NewRefreshJob creates a scheduled refresh job for one feed
func NewRefreshJob[P any](producer Producer[P], refresh Refresher[P], log zerolog.Logger) *RefreshJob[P] {
	return &RefreshJob[P]{
		producer: producer,
		refresh:  refresh,
		timeout:  5 * time.Minute,
		log:      log.With().Str("job", producer.Feed()+"_refresh").Logger(),
	}
}

// Run collects candidates and refreshes the current period's batch. An empty
// collection still refreshes: it clears stale pending records.
func (j *RefreshJob[P]) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	candidates, err := j.producer.Collect(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("Producer collection failed")
		return err
	}

	periodKey := j.producer.PeriodKey(time.Now())
	ids, err := j.refresh(periodKey, candidates)
	if err != nil {
		j.log.Error().Err(err).Str("period", periodKey).Msg("Batch refresh failed")
		return err
	}

	j.log.Info().
		Str("period", periodKey).
		Int("inserted", len(ids)).
		Msg("Feed refreshed")

	return nil
}

// Name returns the job name for scheduling and logging
func (j *RefreshJob[P]) Name() string {
	return j.producer.Feed() + "_refresh"
}

// Ingester is the feed service method a collect job feeds single payloads into
type Ingester[P any] func(payload P) (string, bool, error)

// IngestJob runs a producer and hands each collected payload to a
// deduplicating feed service. Re-collected payloads are no-ops.
type IngestJob[P any] struct {
	producer Producer[P]
	ingest   Ingester[P]
	timeout  time.Duration
	log      zerolog.Logger
}

// NewIngestJob creates a scheduled ingest job for one dedup feed
func NewIngestJob[P any](producer Producer[P], ingest Ingester[P], log zerolog.Logger) *IngestJob[P] {
	return &IngestJob[P]{
		producer: producer,
		ingest:   ingest,
		timeout:  5 * time.Minute,
		log:      log.With().Str("job", producer.Feed()+"_ingest").Logger(),
	}
}

// Run collects payloads and ingests each one, counting how many were new
func (j *IngestJob[P]) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	payloads, err := j.producer.Collect(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("Producer collection failed")
		return err
	}

	var created int
	for _, payload := range payloads {
		_, isNew, err := j.ingest(payload)
		if err != nil {
			j.log.Error().Err(err).Msg("Ingest failed")
			return err
		}
		if isNew {
			created++
		}
	}

	j.log.Info().
		Int("collected", len(payloads)).
		Int("created", created).
		Msg("Feed ingested")

	return nil
}

// Name returns the job name for scheduling and logging
func (j *IngestJob[P]) Name() string {
	return j.producer.Feed() + "_ingest"
}
