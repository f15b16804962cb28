package logic

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	cachekeys "gridpulse-api/internal/cache"
	"gridpulse-api/internal/model"
	"gridpulse-api/internal/svc"
	"gridpulse-api/internal/types"
	"gridpulse-api/pkg/forecast"
)

// ErrScorerUnavailable is returned when no LLM scoring config is present.
var ErrScorerUnavailable = errors.New("forecast unavailable: llm config is required")

type ForecastLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewForecastLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ForecastLogic {
	return &ForecastLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Forecast aggregates the market's price context, delegates point scoring to
// the external capability, bands the scores into confidence intervals, and
// persists the result.
func (l *ForecastLogic) Forecast(req *types.ForecastRequest) (*types.ForecastResponse, error) {
	if l.svcCtx.Scorer == nil {
		return nil, ErrScorerUnavailable
	}

	market := req.Market
	if market == "" {
		market = l.svcCtx.Config.Market
	}
	horizons := req.Horizons
	if len(horizons) == 0 {
		horizons = l.svcCtx.Config.ForecastHorizons()
	}
	for _, h := range horizons {
		if h <= 0 {
			return nil, fmt.Errorf("invalid horizon %d", h)
		}
	}

	priceCtx, err := buildMarketContext(l.ctx, l.svcCtx, market)
	if err != nil {
		return nil, err
	}
	if priceCtx.SampleCount == 0 {
		return nil, fmt.Errorf("no price history for market %s", market)
	}

	scores, err := l.svcCtx.Scorer.Score(l.ctx, priceCtx, horizons)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Hour)
	predictions := forecast.BuildPredictions(priceCtx, scores, horizons, now)
	if len(predictions) == 0 {
		return nil, fmt.Errorf("scorer returned no usable horizons")
	}

	features := priceCtx.FeatureNames()
	featuresJSON, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("encode feature list: %w", err)
	}

	resp := &types.ForecastResponse{
		Success:      true,
		Market:       market,
		PredictionTs: now.Format(time.RFC3339),
		Model:        l.svcCtx.ScorerModel,
		FeaturesUsed: features,
	}
	for _, p := range predictions {
		l.persist(p, string(featuresJSON))
		resp.Forecasts = append(resp.Forecasts, types.ForecastItem{
			HorizonHours:   p.HorizonHours,
			TargetTs:       p.TargetTs.Format(time.RFC3339),
			PredictedPrice: p.PredictedPrice,
			Confidence:     p.Confidence,
			LowerBound:     p.Lower,
			UpperBound:     p.Upper,
		})
	}

	l.invalidateRecent(market)
	return resp, nil
}

func (l *ForecastLogic) persist(p forecast.Prediction, featuresJSON string) {
	if l.svcCtx.PredictionsModel == nil {
		return
	}
	row := &model.PricePredictions{
		Market:         p.Market,
		PredictionTs:   p.PredictionTs,
		TargetTs:       p.TargetTs,
		HorizonHours:   int64(p.HorizonHours),
		PredictedPrice: p.PredictedPrice,
		Confidence:     p.Confidence,
		LowerBound:     p.Lower,
		UpperBound:     p.Upper,
		FeaturesUsed:   sql.NullString{String: featuresJSON, Valid: featuresJSON != ""},
	}
	if l.svcCtx.ScorerModel != "" {
		row.Model = sql.NullString{String: l.svcCtx.ScorerModel, Valid: true}
	}
	if err := l.svcCtx.PredictionsModel.Insert(l.ctx, row); err != nil {
		if model.IsUniqueViolation(err) {
			l.Infof("forecast: prediction %s h=%d already recorded", p.Market, p.HorizonHours)
			return
		}
		l.Errorf("forecast: persist prediction %s h=%d: %v", p.Market, p.HorizonHours, err)
	}
}

func (l *ForecastLogic) invalidateRecent(market string) {
	if l.svcCtx.Redis == nil {
		return
	}
	key := cachekeys.PredictionsRecentKey(market)
	if _, err := l.svcCtx.Redis.DelCtx(l.ctx, key); err != nil {
		l.Errorf("forecast: invalidate key=%s err=%v", key, err)
	}
}
