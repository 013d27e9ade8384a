package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Weather forecasts go stale within the hour
	TTLWeather = time.Hour

	// Route price histories move slowly; a day of staleness is fine
	TTLFlightPrices = 24 * time.Hour

	// Candle snapshots feed the signal analyzer between scheduled runs
	TTLCandles = 10 * time.Minute

	// Prediction-market odds shift intraday
	TTLMarketOdds = 30 * time.Minute
)
