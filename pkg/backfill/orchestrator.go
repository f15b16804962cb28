// Package backfill retroactively fills missing generation-by-fuel values on
// historical grid observations. A run walks the missing records in
// chronological order, fetches weather once per multi-day window, estimates
// each record independently, and persists updates in bounded sub-batches.
// Runs are idempotent and safely resumable: re-invoking with the same filter
// only touches records still missing data.
package backfill

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"gridpulse-api/pkg/estimator"
	"gridpulse-api/pkg/weather"
)

const (
	defaultBatchSize    = 500
	defaultWindowDays   = 7
	defaultSubBatchSize = 50
	defaultWindowPause  = 500 * time.Millisecond
)

// Filter narrows a run to a calendar year and/or month. Zero means no
// constraint.
type Filter struct {
	Year  int
	Month int
}

// Store is the persistence surface the orchestrator drives. The orchestrator
// exclusively owns the read-modify-write cycle of the generation columns; no
// other component updates them.
type Store interface {
	// MissingGeneration returns records with incomplete generation data in
	// chronological order, capped at limit.
	MissingGeneration(ctx context.Context, f Filter, limit int) ([]Record, error)
	// CountMissingGeneration reports how many records still match the filter.
	CountMissingGeneration(ctx context.Context, f Filter) (int64, error)
	// ApplyGeneration persists an estimate for one record. Implementations
	// must be last-write-wins so concurrent runs do redundant, not
	// corrupting, work.
	ApplyGeneration(ctx context.Context, id int64, gen estimator.Generation) error
}

// WeatherSource provides one hour-indexed window per fetch.
type WeatherSource interface {
	Window(ctx context.Context, start, end time.Time) (*weather.Window, error)
}

// WindowCache is an optional read-through cache for fetched windows.
type WindowCache interface {
	Get(ctx context.Context, start, end time.Time) (*weather.Window, bool)
	Put(ctx context.Context, start, end time.Time, w *weather.Window)
}

// Request bounds one orchestrator run.
type Request struct {
	Filter    Filter
	BatchSize int // records per run; <= 0 is an explicit no-op
}

// Result reports what a run accomplished. Errors holds window-recoverable
// failures; their records remain incomplete for a future run.
type Result struct {
	RecordsUpdated   int
	DatesProcessed   int
	RemainingRecords int64
	IsComplete       bool
	Errors           []string
}

// Option tunes orchestrator behaviour.
type Option func(*Orchestrator)

// WithWindowDays caps the calendar span of one weather fetch.
func WithWindowDays(days int) Option {
	return func(o *Orchestrator) {
		if days > 0 {
			o.windowDays = days
		}
	}
}

// WithSubBatchSize caps how many persistence updates are in flight at once.
func WithSubBatchSize(size int) Option {
	return func(o *Orchestrator) {
		if size > 0 {
			o.subBatchSize = size
		}
	}
}

// WithWindowPause sets the rate-limiting pause between weather windows.
func WithWindowPause(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.windowPause = d
		}
	}
}

// WithWindowCache attaches a read-through weather window cache.
func WithWindowCache(cache WindowCache) Option {
	return func(o *Orchestrator) {
		o.cache = cache
	}
}

// WithLocation sets the market timezone used to derive the hour of day and
// season for estimates. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(o *Orchestrator) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// Orchestrator coordinates one backfill run at a time. Work is sequential at
// the window level to respect upstream rate limits; only persistence updates
// within a sub-batch fan out concurrently.
type Orchestrator struct {
	store  Store
	source WeatherSource
	est    *estimator.Estimator
	cache  WindowCache
	loc    *time.Location

	windowDays   int
	subBatchSize int
	windowPause  time.Duration
}

// New constructs an Orchestrator.
func New(store Store, source WeatherSource, est *estimator.Estimator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:        store,
		source:       source,
		est:          est,
		loc:          time.UTC,
		windowDays:   defaultWindowDays,
		subBatchSize: defaultSubBatchSize,
		windowPause:  defaultWindowPause,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// DefaultBatchSize is applied by callers when the request leaves the batch
// size unspecified.
const DefaultBatchSize = defaultBatchSize

// Run executes one bounded backfill pass. It never aborts on a
// window-recoverable failure; the response carries counts plus an error list
// so a driving scheduler can keep re-invoking until IsComplete.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	result := &Result{}

	// An explicit zero batch size is a no-op probe, not a default request.
	if req.BatchSize <= 0 {
		result.IsComplete = true
		return result, nil
	}

	records, err := o.store.MissingGeneration(ctx, req.Filter, req.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("backfill: query missing records: %w", err)
	}
	if len(records) == 0 {
		result.IsComplete = true
		return result, nil
	}

	windows := batchWindows(groupByDate(records), o.windowDays)
	logx.WithContext(ctx).Infof("backfill: %d records across %d windows (filter year=%d month=%d)",
		len(records), len(windows), req.Filter.Year, req.Filter.Month)

	for i, win := range windows {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("run interrupted: %v", ctx.Err()))
			break
		}
		if i > 0 && o.windowPause > 0 {
			select {
			case <-time.After(o.windowPause):
			case <-ctx.Done():
			}
		}

		obs, err := o.fetchWindow(ctx, win)
		if err != nil {
			// One failed fetch costs one window, never the run.
			msg := fmt.Sprintf("weather fetch %s to %s: %v",
				win.start.Format("2006-01-02"), win.end.Format("2006-01-02"), err)
			logx.WithContext(ctx).Errorf("backfill: %s", msg)
			result.Errors = append(result.Errors, msg)
			continue
		}

		updated, errs := o.processWindow(ctx, win, obs)
		result.RecordsUpdated += updated
		result.Errors = append(result.Errors, errs...)
		result.DatesProcessed += len(win.buckets)
	}

	remaining, err := o.store.CountMissingGeneration(ctx, req.Filter)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("count remaining: %v", err))
		return result, nil
	}
	result.RemainingRecords = remaining
	result.IsComplete = remaining == 0
	return result, nil
}

func (o *Orchestrator) fetchWindow(ctx context.Context, win window) (*weather.Window, error) {
	if o.cache != nil {
		if cached, ok := o.cache.Get(ctx, win.start, win.end); ok {
			return cached, nil
		}
	}
	obs, err := o.source.Window(ctx, win.start, win.end)
	if err != nil {
		return nil, err
	}
	if o.cache != nil {
		o.cache.Put(ctx, win.start, win.end, obs)
	}
	return obs, nil
}

// processWindow estimates every record against the fetched weather and
// persists updates in sub-batches. Estimation runs up front on one goroutine
// because the estimator's rand source is not safe for concurrent use; only
// the store writes fan out, awaited per sub-batch to bound in-flight work.
func (o *Orchestrator) processWindow(ctx context.Context, win window, obs *weather.Window) (int, []string) {
	var staged []Record
	for _, bucket := range win.buckets {
		staged = append(staged, bucket.records...)
	}

	gens := make([]estimator.Generation, len(staged))
	for i, rec := range staged {
		local := rec.Ts.In(o.loc)
		hour := obs.At(rec.Ts)
		gens[i] = o.est.Estimate(estimator.Inputs{
			Year:           local.Year(),
			Month:          local.Month(),
			Hour:           local.Hour(),
			WindSpeed:      hour.WindSpeed100m,
			SolarRadiation: hour.ShortwaveRadiation,
			CloudCover:     hour.CloudCover,
			Demand:         rec.Demand,
			DemandValid:    rec.DemandValid,
		})
	}

	var (
		updated int
		errs    []string
	)
	for offset := 0; offset < len(staged); offset += o.subBatchSize {
		end := offset + o.subBatchSize
		if end > len(staged) {
			end = len(staged)
		}
		batch := staged[offset:end]
		batchGens := gens[offset:end]
		batchErrs := make([]error, len(batch))

		var wg sync.WaitGroup
		for i := range batch {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				batchErrs[i] = o.store.ApplyGeneration(ctx, batch[i].ID, batchGens[i])
			}(i)
		}
		wg.Wait()

		for i, err := range batchErrs {
			if err != nil {
				errs = append(errs, fmt.Sprintf("update record %d: %v", batch[i].ID, err))
				continue
			}
			updated++
		}
	}
	return updated, errs
}
