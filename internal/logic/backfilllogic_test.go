package logic

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridpulse-api/internal/config"
	"gridpulse-api/internal/svc"
	"gridpulse-api/internal/types"
	"gridpulse-api/pkg/backfill"
	"gridpulse-api/pkg/estimator"
	"gridpulse-api/pkg/weather"
)

type memStore struct {
	records []backfill.Record
	applied map[int64]bool
}

func (s *memStore) MissingGeneration(_ context.Context, _ backfill.Filter, limit int) ([]backfill.Record, error) {
	var out []backfill.Record
	for _, rec := range s.records {
		if s.applied[rec.ID] {
			continue
		}
		out = append(out, rec)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *memStore) CountMissingGeneration(_ context.Context, _ backfill.Filter) (int64, error) {
	var n int64
	for _, rec := range s.records {
		if !s.applied[rec.ID] {
			n++
		}
	}
	return n, nil
}

func (s *memStore) ApplyGeneration(_ context.Context, id int64, _ estimator.Generation) error {
	s.applied[id] = true
	return nil
}

type memWeather struct {
	calls int32
}

func (f *memWeather) Window(_ context.Context, start, end time.Time) (*weather.Window, error) {
	atomic.AddInt32(&f.calls, 1)
	return weather.NewWindow(start, end, nil), nil
}

func backfillTestContext(t *testing.T, store backfill.Store, source backfill.WeatherSource) *svc.ServiceContext {
	t.Helper()
	cfg := &estimator.Config{
		CapacityByYear: map[int]estimator.Capacity{
			2024: {Wind: 4000, Solar: 1500, Coal: 0, Hydro: 900},
		},
	}
	require.NoError(t, cfg.Validate())

	est := estimator.New(cfg, nil)
	return &svc.ServiceContext{
		Config: config.Config{
			Backfill: config.BackfillConf{
				WindowDays:       7,
				SubBatchSize:     50,
				DefaultBatchSize: 500,
			},
		},
		Orchestrator: backfill.New(store, source, est, backfill.WithWindowPause(0)),
	}
}

func TestBackfillUsesConfiguredDefaultBatchSize(t *testing.T) {
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	store := &memStore{applied: map[int64]bool{}}
	for i := 0; i < 5; i++ {
		store.records = append(store.records, backfill.Record{
			ID: int64(i + 1), Ts: day.Add(time.Duration(i) * time.Hour),
			Demand: 10000, DemandValid: true,
		})
	}

	svcCtx := backfillTestContext(t, store, &memWeather{})
	l := NewBackfillLogic(context.Background(), svcCtx)

	resp, err := l.Backfill(&types.BackfillRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 5, resp.RecordsUpdated)
	assert.True(t, resp.IsComplete)
}

func TestBackfillExplicitZeroBatchIsNoOp(t *testing.T) {
	store := &memStore{applied: map[int64]bool{}}
	store.records = append(store.records, backfill.Record{
		ID: 1, Ts: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	source := &memWeather{}

	svcCtx := backfillTestContext(t, store, source)
	l := NewBackfillLogic(context.Background(), svcCtx)

	zero := 0
	resp, err := l.Backfill(&types.BackfillRequest{BatchSize: &zero})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.RecordsUpdated)
	assert.True(t, resp.IsComplete)
	assert.Equal(t, int32(0), atomic.LoadInt32(&source.calls))
}

func TestBackfillRejectsInvalidMonth(t *testing.T) {
	svcCtx := backfillTestContext(t, &memStore{applied: map[int64]bool{}}, &memWeather{})
	l := NewBackfillLogic(context.Background(), svcCtx)

	_, err := l.Backfill(&types.BackfillRequest{Month: 13})
	assert.Error(t, err)
}

func TestBackfillUnavailableWithoutOrchestrator(t *testing.T) {
	l := NewBackfillLogic(context.Background(), &svc.ServiceContext{})
	_, err := l.Backfill(&types.BackfillRequest{})
	assert.ErrorIs(t, err, ErrBackfillUnavailable)
}
