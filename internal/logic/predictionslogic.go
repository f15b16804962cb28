package logic

import (
	"context"
	"encoding/json"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	cachekeys "gridpulse-api/internal/cache"
	"gridpulse-api/internal/svc"
	"gridpulse-api/internal/types"
)

type PredictionsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewPredictionsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *PredictionsLogic {
	return &PredictionsLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Predictions lists recently persisted forecasts for one market, newest
// prediction run first.
func (l *PredictionsLogic) Predictions(req *types.PredictionsRequest) (*types.PredictionsResponse, error) {
	if l.svcCtx.PredictionsModel == nil {
		return nil, ErrPricesUnavailable
	}

	market := req.Market
	if market == "" {
		market = l.svcCtx.Config.Market
	}

	if cached, ok := l.cachedRecent(market, req.Limit); ok {
		return cached, nil
	}

	rows, err := l.svcCtx.PredictionsModel.RecentByMarket(l.ctx, market, req.Limit)
	if err != nil {
		return nil, err
	}

	resp := &types.PredictionsResponse{Market: market}
	for _, row := range rows {
		rec := types.PredictionRecord{
			Market:         row.Market,
			PredictionTs:   row.PredictionTs.UTC().Format(time.RFC3339),
			TargetTs:       row.TargetTs.UTC().Format(time.RFC3339),
			HorizonHours:   int(row.HorizonHours),
			PredictedPrice: row.PredictedPrice,
			Confidence:     row.Confidence,
			LowerBound:     row.LowerBound,
			UpperBound:     row.UpperBound,
		}
		if row.Model.Valid {
			rec.Model = row.Model.String
		}
		if row.FeaturesUsed.Valid && row.FeaturesUsed.String != "" {
			if err := json.Unmarshal([]byte(row.FeaturesUsed.String), &rec.FeaturesUsed); err != nil {
				l.Errorf("predictions: decode features id=%d err=%v", row.Id, err)
			}
		}
		resp.Predictions = append(resp.Predictions, rec)
	}

	l.cacheRecent(market, req.Limit, resp)
	return resp, nil
}

// Only the default-limit listing is cached; bespoke limits go to Postgres.
func (l *PredictionsLogic) cachedRecent(market string, limit int) (*types.PredictionsResponse, bool) {
	if l.svcCtx.Redis == nil || limit > 0 {
		return nil, false
	}
	key := cachekeys.PredictionsRecentKey(market)
	raw, err := l.svcCtx.Redis.GetCtx(l.ctx, key)
	if err != nil || raw == "" {
		return nil, false
	}
	var resp types.PredictionsResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		l.Errorf("predictions: decode cache key=%s err=%v", key, err)
		return nil, false
	}
	return &resp, true
}

func (l *PredictionsLogic) cacheRecent(market string, limit int, resp *types.PredictionsResponse) {
	if l.svcCtx.Redis == nil || limit > 0 {
		return
	}
	ttl := cachekeys.PredictionsRecentTTL(l.svcCtx.TTL)
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	key := cachekeys.PredictionsRecentKey(market)
	if err := l.svcCtx.Redis.SetexCtx(l.ctx, key, string(raw), int(ttl.Seconds())); err != nil {
		l.Errorf("predictions: cache key=%s err=%v", key, err)
	}
}
