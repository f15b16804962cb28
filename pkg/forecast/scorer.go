package forecast

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gridpulse-api/pkg/llm"
)

// HorizonScore is the external scoring capability's output for one horizon:
// a point prediction plus a 0-100 confidence.
type HorizonScore struct {
	HorizonHours   int     `json:"horizon_hours"`
	PredictedPrice float64 `json:"predicted_price"`
	Confidence     float64 `json:"confidence"`
	Rationale      string  `json:"rationale,omitempty"`
}

// Scorer produces per-horizon point predictions from a price context.
// Implementations own the reasoning; this package only validates and bands
// their numeric output.
type Scorer interface {
	Score(ctx context.Context, priceCtx *Context, horizons []int) ([]HorizonScore, error)
}

// Prediction is one banded forecast ready for persistence.
type Prediction struct {
	Market         string
	PredictionTs   time.Time
	TargetTs       time.Time
	HorizonHours   int
	PredictedPrice float64
	Confidence     float64
	Lower          float64
	Upper          float64
}

// BuildPredictions bands each score against the context's volatility. Scores
// for horizons the caller did not request are dropped, and output is ordered
// by horizon.
func BuildPredictions(priceCtx *Context, scores []HorizonScore, horizons []int, now time.Time) []Prediction {
	wanted := make(map[int]bool, len(horizons))
	for _, h := range horizons {
		wanted[h] = true
	}

	var out []Prediction
	for _, s := range scores {
		if !wanted[s.HorizonHours] {
			continue
		}
		interval := ConfidenceInterval(s.PredictedPrice, priceCtx.StdDev, s.HorizonHours, s.Confidence)
		out = append(out, Prediction{
			Market:         priceCtx.Market,
			PredictionTs:   now,
			TargetTs:       now.Add(time.Duration(s.HorizonHours) * time.Hour),
			HorizonHours:   s.HorizonHours,
			PredictedPrice: s.PredictedPrice,
			Confidence:     s.Confidence,
			Lower:          interval.Lower,
			Upper:          interval.Upper,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HorizonHours < out[j].HorizonHours })
	return out
}

// llmScorer delegates scoring to an OpenAI-compatible chat endpoint with a
// structured-output schema.
type llmScorer struct {
	client llm.LLMClient
	model  string
}

// NewLLMScorer wraps an LLM client as a Scorer. Model may be empty to use the
// client's default.
func NewLLMScorer(client llm.LLMClient, model string) Scorer {
	return &llmScorer{client: client, model: model}
}

type scoreEnvelope struct {
	Forecasts []HorizonScore `json:"forecasts"`
}

func (s *llmScorer) Score(ctx context.Context, priceCtx *Context, horizons []int) ([]HorizonScore, error) {
	if priceCtx == nil {
		return nil, fmt.Errorf("forecast: price context is required")
	}
	if len(horizons) == 0 {
		return nil, fmt.Errorf("forecast: at least one horizon is required")
	}

	req := &llm.ChatRequest{
		Model: s.model,
		Messages: []llm.Message{
			{Role: "system", Content: scorerSystemPrompt},
			{Role: "user", Content: renderScorerPrompt(priceCtx, horizons)},
		},
	}

	var envelope scoreEnvelope
	if err := s.client.ChatStructured(ctx, req, &envelope); err != nil {
		return nil, fmt.Errorf("forecast: score request: %w", err)
	}
	if len(envelope.Forecasts) == 0 {
		return nil, fmt.Errorf("forecast: scorer returned no forecasts")
	}
	return envelope.Forecasts, nil
}

const scorerSystemPrompt = "You are a wholesale electricity price analyst. " +
	"Given recent pool price statistics for a single market, produce a point " +
	"price forecast in $/MWh and a confidence score from 0 to 100 for each " +
	"requested horizon. Respond only with the structured schema."

func renderScorerPrompt(priceCtx *Context, horizons []int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Market: %s\n", priceCtx.Market)
	fmt.Fprintf(&b, "Current price: %.2f $/MWh\n", priceCtx.Current)
	fmt.Fprintf(&b, "Trailing window: %d hourly prices (%s to %s)\n",
		priceCtx.SampleCount,
		priceCtx.WindowStart.UTC().Format(time.RFC3339),
		priceCtx.WindowEnd.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Mean: %.2f  Min: %.2f  Max: %.2f  StdDev: %.2f\n",
		priceCtx.Mean, priceCtx.Min, priceCtx.Max, priceCtx.StdDev)
	fmt.Fprintf(&b, "24h-over-24h trend: %+.2f%%\n", priceCtx.TrendPct)

	b.WriteString("Hour-of-day averages ($/MWh):\n")
	for h, avg := range priceCtx.HourlyAvg {
		fmt.Fprintf(&b, "  %02d:00 %.2f\n", h, avg)
	}

	parts := make([]string, 0, len(horizons))
	for _, h := range horizons {
		parts = append(parts, fmt.Sprintf("%dh", h))
	}
	fmt.Fprintf(&b, "Forecast horizons: %s\n", strings.Join(parts, ", "))
	return b.String()
}
