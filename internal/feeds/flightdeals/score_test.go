package flightdeals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreDeal_PriceBelowMeanScoresPositive(t *testing.T) {
	history := []float64{400, 420, 380, 410, 390}

	score := ScoreDeal(300, history)
	assert.Greater(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
}

func TestScoreDeal_PriceAtOrAboveMeanScoresZero(t *testing.T) {
	history := []float64{400, 420, 380, 410, 390}

	assert.Equal(t, 0.0, ScoreDeal(400, history))
	assert.Equal(t, 0.0, ScoreDeal(500, history))
}

func TestScoreDeal_DeeperDiscountScoresHigher(t *testing.T) {
	history := []float64{400, 420, 380, 410, 390}

	// Both prices sit within three standard deviations of the mean, where
	// the score is strictly monotone in the discount depth.
	assert.Greater(t, ScoreDeal(380, history), ScoreDeal(390, history))
	assert.Less(t, ScoreDeal(380, history), 100.0)
}

func TestScoreDeal_ClampsAtHundred(t *testing.T) {
	history := []float64{400, 402, 398, 401, 399}

	// Far more than three standard deviations below the mean
	assert.Equal(t, 100.0, ScoreDeal(100, history))
}

func TestScoreDeal_ShortHistoryScoresZero(t *testing.T) {
	assert.Equal(t, 0.0, ScoreDeal(300, nil))
	assert.Equal(t, 0.0, ScoreDeal(300, []float64{400}))
}

func TestScoreDeal_FlatHistory(t *testing.T) {
	flat := []float64{400, 400, 400}

	assert.Equal(t, 100.0, ScoreDeal(300, flat))
	assert.Equal(t, 0.0, ScoreDeal(400, flat))
}

func TestScoreDeal_NonPositivePriceScoresZero(t *testing.T) {
	assert.Equal(t, 0.0, ScoreDeal(0, []float64{400, 410}))
	assert.Equal(t, 0.0, ScoreDeal(-10, []float64{400, 410}))
}
