package logic

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	cachekeys "gridpulse-api/internal/cache"
	"gridpulse-api/internal/svc"
	"gridpulse-api/internal/types"
	"gridpulse-api/pkg/forecast"
)

// ErrPricesUnavailable is returned when no price history can be read.
var ErrPricesUnavailable = errors.New("market context unavailable: postgres config is required")

type MarketContextLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewMarketContextLogic(ctx context.Context, svcCtx *svc.ServiceContext) *MarketContextLogic {
	return &MarketContextLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// MarketContext returns the aggregated price statistics for one market,
// served from Redis when a fresh snapshot exists.
func (l *MarketContextLogic) MarketContext(req *types.MarketContextRequest) (*types.MarketContextResponse, error) {
	market := req.Market
	if market == "" {
		market = l.svcCtx.Config.Market
	}

	if cached, ok := l.cachedContext(market); ok {
		return cached, nil
	}

	priceCtx, err := buildMarketContext(l.ctx, l.svcCtx, market)
	if err != nil {
		return nil, err
	}

	resp := contextResponse(priceCtx)
	l.cacheContext(market, resp)
	return resp, nil
}

func (l *MarketContextLogic) cachedContext(market string) (*types.MarketContextResponse, bool) {
	if l.svcCtx.Redis == nil {
		return nil, false
	}
	key := cachekeys.MarketContextKey(market)
	raw, err := l.svcCtx.Redis.GetCtx(l.ctx, key)
	if err != nil || raw == "" {
		return nil, false
	}
	var resp types.MarketContextResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		l.Errorf("market context: decode cache key=%s err=%v", key, err)
		return nil, false
	}
	return &resp, true
}

func (l *MarketContextLogic) cacheContext(market string, resp *types.MarketContextResponse) {
	if l.svcCtx.Redis == nil {
		return
	}
	ttl := cachekeys.MarketContextTTL(l.svcCtx.TTL)
	if ttl <= 0 {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	key := cachekeys.MarketContextKey(market)
	if err := l.svcCtx.Redis.SetexCtx(l.ctx, key, string(raw), int(ttl.Seconds())); err != nil {
		l.Errorf("market context: cache key=%s err=%v", key, err)
	}
}

// buildMarketContext reads the trailing price window and aggregates it.
// Shared by the market-context and forecast operations.
func buildMarketContext(ctx context.Context, svcCtx *svc.ServiceContext, market string) (*forecast.Context, error) {
	if svcCtx.ObservationsModel == nil {
		return nil, ErrPricesUnavailable
	}

	rows, err := svcCtx.ObservationsModel.RecentPrices(ctx, svcCtx.Config.Forecast.ContextHours)
	if err != nil {
		return nil, err
	}

	// Rows arrive newest first; the aggregator wants chronological order.
	points := make([]forecast.PricePoint, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		points = append(points, forecast.PricePoint{Ts: rows[i].Ts, Price: rows[i].Price})
	}
	return forecast.BuildContext(market, points, svcCtx.Location), nil
}

func contextResponse(priceCtx *forecast.Context) *types.MarketContextResponse {
	resp := &types.MarketContextResponse{
		Market:      priceCtx.Market,
		Current:     priceCtx.Current,
		Mean:        priceCtx.Mean,
		Min:         priceCtx.Min,
		Max:         priceCtx.Max,
		StdDev:      priceCtx.StdDev,
		TrendPct:    priceCtx.TrendPct,
		HourlyAvg:   priceCtx.HourlyAvg,
		SampleCount: priceCtx.SampleCount,
	}
	if priceCtx.SampleCount > 0 {
		resp.WindowStart = priceCtx.WindowStart.UTC().Format(time.RFC3339)
		resp.WindowEnd = priceCtx.WindowEnd.UTC().Format(time.RFC3339)
	}
	return resp
}
