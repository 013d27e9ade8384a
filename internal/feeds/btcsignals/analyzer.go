package btcsignals

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"github.com/stavrou/homebase/internal/feedstore"
)

// Candle is one fully-formed OHLCV candle. The analyzer never fetches data
// itself; the producer hands in a complete slice, oldest first.
type Candle struct {
	OpenTime int64   `json:"open_time"` // epoch ms UTC
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
}

// AnalyzerConfig tunes the indicator thresholds
type AnalyzerConfig struct {
	Symbol     string
	Interval   string
	SMAPeriod     int // trend baseline
	RSIPeriod     int // momentum
	RSIOversold   float64
	RSIOverbought float64
}

// DefaultAnalyzerConfig returns the thresholds used by the scheduled producer
func DefaultAnalyzerConfig(symbol, interval string) AnalyzerConfig {
	return AnalyzerConfig{
		Symbol:        symbol,
		Interval:      interval,
		SMAPeriod:     20,
		RSIPeriod:     14,
		RSIOversold:   30,
		RSIOverbought: 70,
	}
}

// Analyzer derives directional signals from candle history using SMA trend
// and RSI momentum.
type Analyzer struct {
	cfg AnalyzerConfig
}

// NewAnalyzer creates an analyzer for one symbol and interval
func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze inspects the latest candle against the indicator state built from
// the full history. It returns nil when no signal fires. Candles must be
// oldest-first and the last candle must be closed.
func (a *Analyzer) Analyze(candles []Candle) (*Signal, error) {
	minLen := a.cfg.SMAPeriod
	if a.cfg.RSIPeriod+1 > minLen {
		minLen = a.cfg.RSIPeriod + 1
	}
	if len(candles) < minLen {
		return nil, fmt.Errorf("%w: need at least %d candles, got %d", feedstore.ErrInvalidArgument, minLen, len(candles))
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	sma := talib.Sma(closes, a.cfg.SMAPeriod)
	rsi := talib.Rsi(closes, a.cfg.RSIPeriod)

	last := candles[len(candles)-1]
	lastSMA := sma[len(sma)-1]
	lastRSI := rsi[len(rsi)-1]
	if math.IsNaN(lastSMA) || math.IsNaN(lastRSI) {
		return nil, nil
	}

	var direction, reason string
	switch {
	case last.Close > lastSMA && lastRSI <= a.cfg.RSIOversold:
		direction = DirectionUp
		reason = fmt.Sprintf("close %.2f above SMA%d %.2f with RSI %.1f oversold", last.Close, a.cfg.SMAPeriod, lastSMA, lastRSI)
	case last.Close < lastSMA && lastRSI >= a.cfg.RSIOverbought:
		direction = DirectionDown
		reason = fmt.Sprintf("close %.2f below SMA%d %.2f with RSI %.1f overbought", last.Close, a.cfg.SMAPeriod, lastSMA, lastRSI)
	default:
		return nil, nil
	}

	// Confidence grows with RSI distance from the neutral midline
	confidence := (lastRSI - 50) / 50
	if confidence < 0 {
		confidence = -confidence
	}

	return &Signal{
		Symbol:     a.cfg.Symbol,
		Interval:   a.cfg.Interval,
		OpenTime:   last.OpenTime,
		Direction:  direction,
		Price:      last.Close,
		Confidence: confidence,
		Reason:     reason,
	}, nil
}
