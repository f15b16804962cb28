package model

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ PricePredictionsModel = (*customPricePredictionsModel)(nil)

// PricePredictions mirrors one row of public.price_predictions: a banded
// point forecast for one market and horizon, unique per
// (market, prediction_ts, horizon_hours).
type PricePredictions struct {
	Id             int64          `db:"id"`
	Market         string         `db:"market"`
	PredictionTs   time.Time      `db:"prediction_ts"`
	TargetTs       time.Time      `db:"target_ts"`
	HorizonHours   int64          `db:"horizon_hours"`
	PredictedPrice float64        `db:"predicted_price"`
	Confidence     float64        `db:"confidence"`
	LowerBound     float64        `db:"lower_bound"`
	UpperBound     float64        `db:"upper_bound"`
	Model          sql.NullString `db:"model"`
	FeaturesUsed   sql.NullString `db:"features_used"` // JSON array of feature names
	CreatedAt      time.Time      `db:"created_at"`
}

type (
	// PricePredictionsModel persists banded price forecasts.
	PricePredictionsModel interface {
		Insert(ctx context.Context, row *PricePredictions) error
		RecentByMarket(ctx context.Context, market string, limit int) ([]PricePredictions, error)
	}

	customPricePredictionsModel struct {
		conn sqlx.SqlConn
	}
)

// NewPricePredictionsModel returns a model for the database table.
func NewPricePredictionsModel(conn sqlx.SqlConn) PricePredictionsModel {
	return &customPricePredictionsModel{conn: conn}
}

// Insert writes one forecast row. The (market, prediction_ts, horizon_hours)
// unique index rejects duplicates; callers detect that with
// IsUniqueViolation and treat it as already-recorded work.
func (m *customPricePredictionsModel) Insert(ctx context.Context, row *PricePredictions) error {
	const stmt = `
INSERT INTO public.price_predictions (
    market, prediction_ts, target_ts, horizon_hours, predicted_price, confidence, lower_bound, upper_bound, model, features_used, created_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW()
);`
	if _, err := m.conn.ExecCtx(ctx, stmt,
		row.Market, row.PredictionTs.UTC(), row.TargetTs.UTC(), row.HorizonHours,
		row.PredictedPrice, row.Confidence, row.LowerBound, row.UpperBound, row.Model, row.FeaturesUsed,
	); err != nil {
		return fmt.Errorf("price_predictions.Insert: %w", err)
	}
	return nil
}

// RecentByMarket returns the latest predictions for a market, newest
// prediction first then ascending horizon.
func (m *customPricePredictionsModel) RecentByMarket(ctx context.Context, market string, limit int) ([]PricePredictions, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
SELECT
    id,
    market,
    prediction_ts,
    target_ts,
    horizon_hours,
    predicted_price,
    confidence,
    lower_bound,
    upper_bound,
    model,
    features_used,
    created_at
FROM public.price_predictions
WHERE market = $1
ORDER BY prediction_ts DESC, horizon_hours ASC
LIMIT $2`

	var rows []PricePredictions
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, market, limit); err != nil {
		return nil, fmt.Errorf("price_predictions.RecentByMarket: %w", err)
	}
	return rows, nil
}
