package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPredictionsBandsAndOrders(t *testing.T) {
	priceCtx := &Context{Market: "alberta", StdDev: 10}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	scores := []HorizonScore{
		{HorizonHours: 24, PredictedPrice: 60, Confidence: 50},
		{HorizonHours: 1, PredictedPrice: 55, Confidence: 80},
	}
	predictions := BuildPredictions(priceCtx, scores, []int{1, 24}, now)
	require.Len(t, predictions, 2)

	assert.Equal(t, 1, predictions[0].HorizonHours, "output ordered by horizon")
	assert.Equal(t, now.Add(time.Hour), predictions[0].TargetTs)
	assert.Equal(t, 24, predictions[1].HorizonHours)
	assert.Equal(t, now.Add(24*time.Hour), predictions[1].TargetTs)

	assert.InDelta(t, 60-33.75, predictions[1].Lower, 1e-9)
	assert.InDelta(t, 60+33.75, predictions[1].Upper, 1e-9)
	assert.Equal(t, "alberta", predictions[1].Market)
}

func TestBuildPredictionsDropsUnrequestedHorizons(t *testing.T) {
	priceCtx := &Context{Market: "alberta", StdDev: 10}
	scores := []HorizonScore{
		{HorizonHours: 6, PredictedPrice: 58, Confidence: 70},
		{HorizonHours: 48, PredictedPrice: 62, Confidence: 30},
	}
	predictions := BuildPredictions(priceCtx, scores, []int{6}, time.Now())
	require.Len(t, predictions, 1)
	assert.Equal(t, 6, predictions[0].HorizonHours)
}

func TestBuildPredictionsLowerNeverNegative(t *testing.T) {
	priceCtx := &Context{Market: "alberta", StdDev: 40}
	scores := []HorizonScore{{HorizonHours: 24, PredictedPrice: 10, Confidence: 0}}
	predictions := BuildPredictions(priceCtx, scores, []int{24}, time.Now())
	require.Len(t, predictions, 1)
	assert.GreaterOrEqual(t, predictions[0].Lower, 0.0)
}

func TestRenderScorerPromptMentionsHorizons(t *testing.T) {
	priceCtx := BuildContext("alberta", hourlyPrices(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 40, 60, 50), time.UTC)
	prompt := renderScorerPrompt(priceCtx, []int{1, 6, 12, 24})
	assert.Contains(t, prompt, "Market: alberta")
	assert.Contains(t, prompt, "1h, 6h, 12h, 24h")
	assert.Contains(t, prompt, "StdDev")
}
