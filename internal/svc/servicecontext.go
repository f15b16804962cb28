package svc

import (
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	cachekeys "gridpulse-api/internal/cache"
	"gridpulse-api/internal/config"
	"gridpulse-api/internal/model"
	"gridpulse-api/internal/persistence/gridstore"
	"gridpulse-api/internal/persistence/weathercache"
	"gridpulse-api/pkg/backfill"
	estimatorpkg "gridpulse-api/pkg/estimator"
	"gridpulse-api/pkg/forecast"
	llmpkg "gridpulse-api/pkg/llm"
	weatherpkg "gridpulse-api/pkg/weather"
)

type ServiceContext struct {
	Config   config.Config
	TTL      cachekeys.TTLSet
	Location *time.Location

	DBConn            sqlx.SqlConn
	ObservationsModel model.GridObservationsModel
	PredictionsModel  model.PricePredictionsModel
	Redis             *redis.Redis

	WeatherClient *weatherpkg.Client
	Estimator     *estimatorpkg.Estimator
	Orchestrator  *backfill.Orchestrator
	Scorer        forecast.Scorer
	ScorerModel   string
}

func NewServiceContext(c config.Config) *ServiceContext {
	svc := &ServiceContext{
		Config:   c,
		TTL:      cachekeys.NewTTLSet(c.TTL),
		Location: c.Location(),
	}

	if c.Postgres.DSN != "" {
		conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
		svc.DBConn = conn
		svc.ObservationsModel = model.NewGridObservationsModel(conn)
		svc.PredictionsModel = model.NewPricePredictionsModel(conn)
	}

	if c.Redis.Host != "" {
		rds, err := redis.NewRedis(c.Redis)
		if err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		svc.Redis = rds
	}

	if c.Weather.Value != nil {
		svc.WeatherClient = weatherpkg.NewClientFromConfig(c.Weather.Value)
	}

	if c.Estimator.Value != nil {
		// nil rng seeds from the clock; tests inject their own source.
		svc.Estimator = estimatorpkg.New(c.Estimator.Value, nil)
	}

	// The orchestrator needs the full chain: observations, weather, estimator.
	store := gridstore.New(svc.ObservationsModel)
	if store != nil && svc.WeatherClient != nil && svc.Estimator != nil {
		opts := []backfill.Option{
			backfill.WithWindowDays(c.Backfill.WindowDays),
			backfill.WithSubBatchSize(c.Backfill.SubBatchSize),
			backfill.WithWindowPause(time.Duration(c.Backfill.PauseMs) * time.Millisecond),
			backfill.WithLocation(svc.Location),
		}
		if svc.Redis != nil && c.Weather.Value != nil {
			lat, lon := c.Weather.Value.Centroid()
			if cache := weathercache.New(svc.Redis, svc.TTL, lat, lon); cache != nil {
				opts = append(opts, backfill.WithWindowCache(cache))
			}
		}
		svc.Orchestrator = backfill.New(store, svc.WeatherClient, svc.Estimator, opts...)
	}

	// A broken LLM config only disables forecasts; backfill keeps working.
	if c.LLM.Value != nil {
		client, err := llmpkg.NewClient(c.LLM.Value)
		if err != nil {
			logx.Errorf("llm client unavailable, forecasts disabled: %v", err)
		} else {
			svc.Scorer = forecast.NewLLMScorer(client, "")
			svc.ScorerModel = c.LLM.Value.DefaultModel
		}
	}

	return svc
}
