package flightdeals

import (
	"gonum.org/v1/gonum/stat"
)

// ScoreDeal rates a fare against the route's recent price history. The score
// is the number of standard deviations the price sits below the historical
// mean, scaled to 0-100 and clamped. A price at or above the mean scores 0;
// three standard deviations below the mean (or more) scores 100.
//
// History shorter than two samples carries no signal, so the score falls back
// to 0 and the deal sorts last.
func ScoreDeal(priceUSD float64, historyUSD []float64) float64 {
	if len(historyUSD) < 2 || priceUSD <= 0 {
		return 0
	}

	mean, std := stat.MeanStdDev(historyUSD, nil)
	if std == 0 {
		if priceUSD < mean {
			return 100
		}
		return 0
	}

	zBelow := (mean - priceUSD) / std
	if zBelow <= 0 {
		return 0
	}

	score := zBelow / 3 * 100
	if score > 100 {
		score = 100
	}
	return score
}
