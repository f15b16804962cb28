package model

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ GridObservationsModel = (*customGridObservationsModel)(nil)

// GridObservations mirrors one row of public.grid_observations: an hourly
// snapshot of demand, settled pool price, and generation by fuel. Generation
// columns are nullable; NULL means never backfilled.
type GridObservations struct {
	Id        int64           `db:"id"`
	Ts        time.Time       `db:"ts"`
	Ail       sql.NullFloat64 `db:"ail"`
	PoolPrice sql.NullFloat64 `db:"pool_price"`
	GenGas    sql.NullFloat64 `db:"gen_gas"`
	GenWind   sql.NullFloat64 `db:"gen_wind"`
	GenSolar  sql.NullFloat64 `db:"gen_solar"`
	GenHydro  sql.NullFloat64 `db:"gen_hydro"`
	GenCoal   sql.NullFloat64 `db:"gen_coal"`
	GenOther  sql.NullFloat64 `db:"gen_other"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// GenerationComplete reports whether every fuel column carries a value.
func (o *GridObservations) GenerationComplete() bool {
	return o.GenGas.Valid && o.GenWind.Valid && o.GenSolar.Valid &&
		o.GenHydro.Valid && o.GenCoal.Valid && o.GenOther.Valid
}

// PriceRow is a settled pool price at one hour.
type PriceRow struct {
	Ts    time.Time `db:"ts"`
	Price float64   `db:"pool_price"`
}

type (
	// GridObservationsModel is the persistence surface for hourly grid rows.
	GridObservationsModel interface {
		Insert(ctx context.Context, row *GridObservations) error
		FindOne(ctx context.Context, id int64) (*GridObservations, error)
		FindMissingGeneration(ctx context.Context, year, month, limit int) ([]GridObservations, error)
		CountMissingGeneration(ctx context.Context, year, month int) (int64, error)
		UpdateGeneration(ctx context.Context, id int64, gas, wind, solar, hydro, coal, other float64) error
		RecentPrices(ctx context.Context, limit int) ([]PriceRow, error)
	}

	customGridObservationsModel struct {
		conn sqlx.SqlConn
	}
)

// NewGridObservationsModel returns a model for the database table.
func NewGridObservationsModel(conn sqlx.SqlConn) GridObservationsModel {
	return &customGridObservationsModel{conn: conn}
}

const gridObservationColumns = `
    id,
    ts,
    ail,
    pool_price,
    gen_gas,
    gen_wind,
    gen_solar,
    gen_hydro,
    gen_coal,
    gen_other,
    created_at,
    updated_at`

// missingGenerationWhere matches rows with at least one unfilled fuel column,
// optionally narrowed by calendar year/month (0 means no constraint).
const missingGenerationWhere = `
    (gen_gas IS NULL OR gen_wind IS NULL OR gen_solar IS NULL
     OR gen_hydro IS NULL OR gen_coal IS NULL OR gen_other IS NULL)
    AND ($1 = 0 OR EXTRACT(YEAR FROM ts) = $1)
    AND ($2 = 0 OR EXTRACT(MONTH FROM ts) = $2)`

func (m *customGridObservationsModel) Insert(ctx context.Context, row *GridObservations) error {
	const stmt = `
INSERT INTO public.grid_observations (
    ts, ail, pool_price, gen_gas, gen_wind, gen_solar, gen_hydro, gen_coal, gen_other, created_at, updated_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()
)
ON CONFLICT (ts) DO NOTHING;`
	if _, err := m.conn.ExecCtx(ctx, stmt,
		row.Ts.UTC(), row.Ail, row.PoolPrice,
		row.GenGas, row.GenWind, row.GenSolar, row.GenHydro, row.GenCoal, row.GenOther,
	); err != nil {
		return fmt.Errorf("grid_observations.Insert: %w", err)
	}
	return nil
}

func (m *customGridObservationsModel) FindOne(ctx context.Context, id int64) (*GridObservations, error) {
	query := `SELECT` + gridObservationColumns + ` FROM public.grid_observations WHERE id = $1 LIMIT 1`
	var row GridObservations
	err := m.conn.QueryRowCtx(ctx, &row, query, id)
	switch err {
	case nil:
		return &row, nil
	case sqlx.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("grid_observations.FindOne: %w", err)
	}
}

// FindMissingGeneration returns incomplete rows in chronological order.
func (m *customGridObservationsModel) FindMissingGeneration(ctx context.Context, year, month, limit int) ([]GridObservations, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := `SELECT` + gridObservationColumns + `
FROM public.grid_observations
WHERE` + missingGenerationWhere + `
ORDER BY ts ASC
LIMIT $3`

	var rows []GridObservations
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, year, month, limit); err != nil {
		return nil, fmt.Errorf("grid_observations.FindMissingGeneration: %w", err)
	}
	return rows, nil
}

func (m *customGridObservationsModel) CountMissingGeneration(ctx context.Context, year, month int) (int64, error) {
	query := `SELECT COUNT(*) FROM public.grid_observations WHERE` + missingGenerationWhere

	var count int64
	if err := m.conn.QueryRowCtx(ctx, &count, query, year, month); err != nil {
		return 0, fmt.Errorf("grid_observations.CountMissingGeneration: %w", err)
	}
	return count, nil
}

// UpdateGeneration fills the fuel columns for one row. COALESCE keeps any
// value another run already wrote, so overlapping runs stay redundant rather
// than destructive.
func (m *customGridObservationsModel) UpdateGeneration(ctx context.Context, id int64, gas, wind, solar, hydro, coal, other float64) error {
	const stmt = `
UPDATE public.grid_observations SET
    gen_gas = COALESCE(gen_gas, $2),
    gen_wind = COALESCE(gen_wind, $3),
    gen_solar = COALESCE(gen_solar, $4),
    gen_hydro = COALESCE(gen_hydro, $5),
    gen_coal = COALESCE(gen_coal, $6),
    gen_other = COALESCE(gen_other, $7),
    updated_at = NOW()
WHERE id = $1;`
	if _, err := m.conn.ExecCtx(ctx, stmt, id, gas, wind, solar, hydro, coal, other); err != nil {
		return fmt.Errorf("grid_observations.UpdateGeneration: %w", err)
	}
	return nil
}

// RecentPrices returns the latest settled pool prices, newest first.
func (m *customGridObservationsModel) RecentPrices(ctx context.Context, limit int) ([]PriceRow, error) {
	if limit <= 0 {
		limit = 168
	}
	const query = `
SELECT ts, pool_price
FROM public.grid_observations
WHERE pool_price IS NOT NULL
ORDER BY ts DESC
LIMIT $1`

	var rows []PriceRow
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("grid_observations.RecentPrices: %w", err)
	}
	return rows, nil
}
