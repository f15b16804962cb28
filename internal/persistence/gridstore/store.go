// Package gridstore adapts the grid observations model to the backfill
// orchestrator's Store contract.
package gridstore

import (
	"context"

	"gridpulse-api/internal/model"
	"gridpulse-api/pkg/backfill"
	"gridpulse-api/pkg/estimator"
)

// Store bridges backfill record handling onto the observations table.
type Store struct {
	observations model.GridObservationsModel
}

// New wires a Store. Returns nil when the model is absent so callers can
// treat a missing database as "backfill unavailable".
func New(observations model.GridObservationsModel) *Store {
	if observations == nil {
		return nil
	}
	return &Store{observations: observations}
}

func (s *Store) MissingGeneration(ctx context.Context, f backfill.Filter, limit int) ([]backfill.Record, error) {
	rows, err := s.observations.FindMissingGeneration(ctx, f.Year, f.Month, limit)
	if err != nil {
		return nil, err
	}

	records := make([]backfill.Record, 0, len(rows))
	for _, row := range rows {
		rec := backfill.Record{ID: row.Id, Ts: row.Ts}
		if row.Ail.Valid {
			rec.Demand = row.Ail.Float64
			rec.DemandValid = true
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Store) CountMissingGeneration(ctx context.Context, f backfill.Filter) (int64, error) {
	return s.observations.CountMissingGeneration(ctx, f.Year, f.Month)
}

func (s *Store) ApplyGeneration(ctx context.Context, id int64, gen estimator.Generation) error {
	return s.observations.UpdateGeneration(ctx, id,
		gen.Gas, gen.Wind, gen.Solar, gen.Hydro, gen.Coal, gen.Other)
}
