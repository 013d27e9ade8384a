package btcsignals

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stavrou/homebase/internal/feedstore"
)

// candlesFromCloses builds hourly candles from a close series, oldest first
func candlesFromCloses(closes []float64) []Candle {
	candles := make([]Candle, len(closes))
	for i, c := range closes {
		candles[i] = Candle{
			OpenTime: 1741600800000 + int64(i)*3600_000,
			Open:     c,
			High:     c,
			Low:      c,
			Close:    c,
			Volume:   1,
		}
	}
	return candles
}

func TestAnalyze_RequiresEnoughHistory(t *testing.T) {
	analyzer := NewAnalyzer(DefaultAnalyzerConfig("BTCUSDT", "1h"))

	_, err := analyzer.Analyze(candlesFromCloses([]float64{1, 2, 3}))
	assert.ErrorIs(t, err, feedstore.ErrInvalidArgument)
}

func TestAnalyze_NaNCloseProducesNoSignal(t *testing.T) {
	cfg := DefaultAnalyzerConfig("BTCUSDT", "1h")
	cfg.RSIOversold = 60
	analyzer := NewAnalyzer(cfg)

	// Same series that fires UP below, poisoned with one NaN close inside
	// the indicator window. The NaN propagates into SMA and RSI and the
	// analyzer must stay silent rather than emit a bogus signal.
	closes := make([]float64, 0, 31)
	for i := 0; i < 30; i++ {
		closes = append(closes, 100-float64(i))
	}
	closes = append(closes, 85)
	closes[25] = math.NaN()

	sig, err := analyzer.Analyze(candlesFromCloses(closes))
	require.NoError(t, err)
	assert.Nil(t, sig)
}

func TestAnalyze_SteadyTrendProducesNoSignal(t *testing.T) {
	analyzer := NewAnalyzer(DefaultAnalyzerConfig("BTCUSDT", "1h"))

	// A steady climb keeps RSI pinned high while the close rides above the
	// SMA: neither an oversold bounce nor an overbought breakdown.
	rising := make([]float64, 40)
	for i := range rising {
		rising[i] = 100 + float64(i)
	}
	sig, err := analyzer.Analyze(candlesFromCloses(rising))
	require.NoError(t, err)
	assert.Nil(t, sig)

	falling := make([]float64, 40)
	for i := range falling {
		falling[i] = 140 - float64(i)
	}
	sig, err = analyzer.Analyze(candlesFromCloses(falling))
	require.NoError(t, err)
	assert.Nil(t, sig)
}

func TestAnalyze_BounceAboveSMAFiresUp(t *testing.T) {
	cfg := DefaultAnalyzerConfig("BTCUSDT", "1h")
	cfg.RSIOversold = 60
	analyzer := NewAnalyzer(cfg)

	// A long 1-point-per-candle decline keeps RSI depressed; the final bounce
	// lifts the close well above the 20-candle SMA while RSI is still near 50.
	closes := make([]float64, 0, 31)
	for i := 0; i < 30; i++ {
		closes = append(closes, 100-float64(i))
	}
	closes = append(closes, 85)

	sig, err := analyzer.Analyze(candlesFromCloses(closes))
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, DirectionUp, sig.Direction)
	assert.Equal(t, "1h", sig.Interval)
	assert.Equal(t, 85.0, sig.Price)
	assert.Equal(t, candlesFromCloses(closes)[30].OpenTime, sig.OpenTime)
	assert.NotEmpty(t, sig.Reason)
}

func TestAnalyze_BreakdownBelowSMAFiresDown(t *testing.T) {
	cfg := DefaultAnalyzerConfig("BTCUSDT", "1h")
	cfg.RSIOverbought = 40
	analyzer := NewAnalyzer(cfg)

	// Mirror image: a long climb keeps RSI elevated; the final dump drops the
	// close well below the 20-candle SMA while RSI is still near 50.
	closes := make([]float64, 0, 31)
	for i := 0; i < 30; i++ {
		closes = append(closes, 100+float64(i))
	}
	closes = append(closes, 115)

	sig, err := analyzer.Analyze(candlesFromCloses(closes))
	require.NoError(t, err)
	require.NotNil(t, sig)
	assert.Equal(t, DirectionDown, sig.Direction)
}
