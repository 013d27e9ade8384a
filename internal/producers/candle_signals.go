package producers

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/stavrou/homebase/internal/clientdata"
	"github.com/stavrou/homebase/internal/feeds/btcsignals"
)

// CandleSignals derives trading signals from the candle history an external
// fetcher keeps in the client data cache (category "candles", keyed by
// "SYMBOL:INTERVAL"). A stale or missing cache entry collects nothing; signal
// detection only runs on fresh data.
type CandleSignals struct {
	repo     *clientdata.Repository
	analyzer *btcsignals.Analyzer
	symbol   string
	interval string
	log      zerolog.Logger
}

// NewCandleSignals creates the scheduled signal detection producer
func NewCandleSignals(repo *clientdata.Repository, cfg btcsignals.AnalyzerConfig, log zerolog.Logger) *CandleSignals {
	return &CandleSignals{
		repo:     repo,
		analyzer: btcsignals.NewAnalyzer(cfg),
		symbol:   cfg.Symbol,
		interval: cfg.Interval,
		log:      log.With().Str("producer", "candle_signals").Logger(),
	}
}

// Feed returns the feed this producer serves
func (p *CandleSignals) Feed() string {
	return btcsignals.FeedName
}

// PeriodKey returns today's day key. The store re-derives the period from
// each signal's candle open time, so this is only used for logging.
func (p *CandleSignals) PeriodKey(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

// Collect loads the cached candle history and runs the analyzer over it.
// Returns at most one signal; dedup on interval + open time makes re-running
// against the same closed candle a no-op downstream.
func (p *CandleSignals) Collect(ctx context.Context) ([]btcsignals.Signal, error) {
	cacheKey := fmt.Sprintf("%s:%s", p.symbol, p.interval)

	var candles []btcsignals.Candle
	found, err := p.repo.GetIfFresh(clientdata.CategoryCandles, cacheKey, &candles)
	if err != nil {
		return nil, fmt.Errorf("failed to load cached candles: %w", err)
	}
	if !found {
		p.log.Debug().Str("key", cacheKey).Msg("No fresh candle data, skipping")
		return nil, nil
	}

	signal, err := p.analyzer.Analyze(candles)
	if err != nil {
		return nil, err
	}
	if signal == nil {
		return nil, nil
	}

	p.log.Info().
		Str("direction", signal.Direction).
		Float64("price", signal.Price).
		Msg("Signal detected")

	return []btcsignals.Signal{*signal}, nil
}
