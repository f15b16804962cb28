package logic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridpulse-api/internal/config"
	"gridpulse-api/internal/model"
	"gridpulse-api/internal/svc"
	"gridpulse-api/internal/types"
	"gridpulse-api/pkg/forecast"
)

type fakeObservations struct {
	prices []model.PriceRow
	err    error
}

func (f *fakeObservations) Insert(context.Context, *model.GridObservations) error { return nil }

func (f *fakeObservations) FindOne(context.Context, int64) (*model.GridObservations, error) {
	return nil, model.ErrNotFound
}

func (f *fakeObservations) FindMissingGeneration(context.Context, int, int, int) ([]model.GridObservations, error) {
	return nil, nil
}

func (f *fakeObservations) CountMissingGeneration(context.Context, int, int) (int64, error) {
	return 0, nil
}

func (f *fakeObservations) UpdateGeneration(context.Context, int64, float64, float64, float64, float64, float64, float64) error {
	return nil
}

func (f *fakeObservations) RecentPrices(context.Context, int) ([]model.PriceRow, error) {
	return f.prices, f.err
}

type fakePredictions struct {
	inserted []model.PricePredictions
	err      error
}

func (f *fakePredictions) Insert(_ context.Context, row *model.PricePredictions) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, *row)
	return nil
}

func (f *fakePredictions) RecentByMarket(context.Context, string, int) ([]model.PricePredictions, error) {
	return f.inserted, nil
}

type stubScorer struct {
	scores []forecast.HorizonScore
	err    error
}

func (s *stubScorer) Score(context.Context, *forecast.Context, []int) ([]forecast.HorizonScore, error) {
	return s.scores, s.err
}

// recentPrices builds a newest-first window the way RecentPrices returns it.
func recentPrices(n int, base float64) []model.PriceRow {
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	rows := make([]model.PriceRow, 0, n)
	for i := n - 1; i >= 0; i-- {
		rows = append(rows, model.PriceRow{Ts: start.Add(time.Duration(i) * time.Hour), Price: base})
	}
	return rows
}

// varyingPrices follows a daily cycle so the window has non-zero spread.
func varyingPrices(n int) []model.PriceRow {
	rows := recentPrices(n, 0)
	for i := range rows {
		rows[i].Price = 40 + float64(rows[i].Ts.Hour())
	}
	return rows
}

func forecastTestContext(obs *fakeObservations, preds *fakePredictions, scorer forecast.Scorer) *svc.ServiceContext {
	return &svc.ServiceContext{
		Config: config.Config{
			Market:   "alberta",
			Forecast: config.ForecastConf{ContextHours: 168},
		},
		ObservationsModel: obs,
		PredictionsModel:  preds,
		Scorer:            scorer,
		ScorerModel:       "gpt-4o-mini",
	}
}

func TestForecastBandsAndPersists(t *testing.T) {
	obs := &fakeObservations{prices: varyingPrices(72)}
	preds := &fakePredictions{}
	scorer := &stubScorer{scores: []forecast.HorizonScore{
		{HorizonHours: 1, PredictedPrice: 52, Confidence: 80},
		{HorizonHours: 24, PredictedPrice: 60, Confidence: 55},
	}}

	l := NewForecastLogic(context.Background(), forecastTestContext(obs, preds, scorer))
	resp, err := l.Forecast(&types.ForecastRequest{Horizons: []int{1, 24}})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "alberta", resp.Market)
	require.Len(t, resp.Forecasts, 2)
	assert.Equal(t, 1, resp.Forecasts[0].HorizonHours)
	assert.Equal(t, 24, resp.Forecasts[1].HorizonHours)
	for _, item := range resp.Forecasts {
		assert.GreaterOrEqual(t, item.LowerBound, 0.0)
		assert.Greater(t, item.UpperBound, item.LowerBound)
	}

	assert.Equal(t, "gpt-4o-mini", resp.Model)
	assert.Contains(t, resp.FeaturesUsed, "mean")
	assert.Contains(t, resp.FeaturesUsed, "trend_24h_pct")

	require.Len(t, preds.inserted, 2)
	assert.Equal(t, "gpt-4o-mini", preds.inserted[0].Model.String)
	assert.True(t, preds.inserted[0].Model.Valid)
	require.True(t, preds.inserted[0].FeaturesUsed.Valid)
	assert.Contains(t, preds.inserted[0].FeaturesUsed.String, "std_dev")
}

func TestForecastDefaultsMarketAndHorizons(t *testing.T) {
	obs := &fakeObservations{prices: varyingPrices(48)}
	scorer := &stubScorer{scores: []forecast.HorizonScore{
		{HorizonHours: 1, PredictedPrice: 41, Confidence: 70},
		{HorizonHours: 6, PredictedPrice: 42, Confidence: 65},
		{HorizonHours: 12, PredictedPrice: 43, Confidence: 60},
		{HorizonHours: 24, PredictedPrice: 44, Confidence: 55},
	}}

	l := NewForecastLogic(context.Background(), forecastTestContext(obs, &fakePredictions{}, scorer))
	resp, err := l.Forecast(&types.ForecastRequest{})
	require.NoError(t, err)
	assert.Equal(t, "alberta", resp.Market)
	assert.Len(t, resp.Forecasts, 4)
}

func TestForecastRejectsInvalidHorizon(t *testing.T) {
	l := NewForecastLogic(context.Background(),
		forecastTestContext(&fakeObservations{}, &fakePredictions{}, &stubScorer{}))

	_, err := l.Forecast(&types.ForecastRequest{Horizons: []int{0}})
	assert.Error(t, err)
}

func TestForecastFailsOnEmptyHistory(t *testing.T) {
	l := NewForecastLogic(context.Background(),
		forecastTestContext(&fakeObservations{}, &fakePredictions{}, &stubScorer{}))

	_, err := l.Forecast(&types.ForecastRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no price history")
}

func TestForecastPropagatesScorerError(t *testing.T) {
	obs := &fakeObservations{prices: recentPrices(24, 30)}
	scorer := &stubScorer{err: errors.New("upstream timeout")}

	l := NewForecastLogic(context.Background(), forecastTestContext(obs, &fakePredictions{}, scorer))
	_, err := l.Forecast(&types.ForecastRequest{})
	assert.ErrorContains(t, err, "upstream timeout")
}

func TestForecastUnavailableWithoutScorer(t *testing.T) {
	l := NewForecastLogic(context.Background(), &svc.ServiceContext{})
	_, err := l.Forecast(&types.ForecastRequest{})
	assert.ErrorIs(t, err, ErrScorerUnavailable)
}

func TestMarketContextAggregatesWindow(t *testing.T) {
	obs := &fakeObservations{prices: recentPrices(72, 50)}
	svcCtx := forecastTestContext(obs, nil, nil)

	l := NewMarketContextLogic(context.Background(), svcCtx)
	resp, err := l.MarketContext(&types.MarketContextRequest{})
	require.NoError(t, err)

	assert.Equal(t, "alberta", resp.Market)
	assert.Equal(t, 72, resp.SampleCount)
	assert.InDelta(t, 50, resp.Mean, 1e-9)
	assert.InDelta(t, 0, resp.StdDev, 1e-9)
	assert.NotEmpty(t, resp.WindowStart)
	assert.NotEmpty(t, resp.WindowEnd)
}

func TestMarketContextUnavailableWithoutDatabase(t *testing.T) {
	l := NewMarketContextLogic(context.Background(), &svc.ServiceContext{})
	_, err := l.MarketContext(&types.MarketContextRequest{})
	assert.ErrorIs(t, err, ErrPricesUnavailable)
}
