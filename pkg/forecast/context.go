// Package forecast produces short-horizon wholesale price forecasts. The
// point prediction and confidence score per horizon come from an external
// scoring capability; this package aggregates the price context fed to it and
// converts its output into bounded confidence intervals.
package forecast

import (
	"math"
	"time"
)

// MaxContextPoints caps the trailing history consumed by BuildContext:
// 7 days of hourly prices.
const MaxContextPoints = 168

const trendWindowHours = 24

// PricePoint is one hourly settled price.
type PricePoint struct {
	Ts    time.Time
	Price float64
}

// Context is a read-only statistical snapshot of recent prices. It feeds both
// the confidence calculator and the external scoring capability.
type Context struct {
	Market      string
	Current     float64
	Mean        float64
	Min         float64
	Max         float64
	StdDev      float64
	TrendPct    float64
	HourlyAvg   [24]float64
	SampleCount int
	WindowStart time.Time
	WindowEnd   time.Time
}

// BuildContext aggregates a trailing price window into a Context. Points are
// expected oldest first; anything beyond MaxContextPoints is truncated to the
// most recent points. The trend compares the latest 24 prices against the
// prior 24 and reports zero when no full prior window exists. Hour-of-day
// averages are bucketed in the market's local zone; a nil loc means UTC.
func BuildContext(market string, points []PricePoint, loc *time.Location) *Context {
	if loc == nil {
		loc = time.UTC
	}
	if len(points) > MaxContextPoints {
		points = points[len(points)-MaxContextPoints:]
	}

	ctx := &Context{Market: market, SampleCount: len(points)}
	if len(points) == 0 {
		return ctx
	}

	ctx.WindowStart = points[0].Ts
	ctx.WindowEnd = points[len(points)-1].Ts
	ctx.Current = points[len(points)-1].Price
	ctx.Min = points[0].Price
	ctx.Max = points[0].Price

	var sum float64
	var hourSums [24]float64
	var hourCounts [24]int
	for _, p := range points {
		sum += p.Price
		if p.Price < ctx.Min {
			ctx.Min = p.Price
		}
		if p.Price > ctx.Max {
			ctx.Max = p.Price
		}
		h := p.Ts.In(loc).Hour()
		hourSums[h] += p.Price
		hourCounts[h]++
	}
	ctx.Mean = sum / float64(len(points))

	var sqDiff float64
	for _, p := range points {
		d := p.Price - ctx.Mean
		sqDiff += d * d
	}
	ctx.StdDev = math.Sqrt(sqDiff / float64(len(points)))

	for h := range hourSums {
		if hourCounts[h] > 0 {
			ctx.HourlyAvg[h] = hourSums[h] / float64(hourCounts[h])
		} else {
			ctx.HourlyAvg[h] = ctx.Mean
		}
	}

	ctx.TrendPct = trendPct(points)
	return ctx
}

// FeatureNames lists the aggregated features this snapshot carries, recorded
// alongside each persisted prediction. The trend feature is only claimed when
// a full prior window backed it.
func (c *Context) FeatureNames() []string {
	names := []string{"current_price", "mean", "min", "max", "std_dev", "hourly_avg"}
	if c.SampleCount >= 2*trendWindowHours {
		names = append(names, "trend_24h_pct")
	}
	return names
}

// trendPct compares the mean of the most recent 24 prices to the mean of the
// 24 before them, as a percentage change.
func trendPct(points []PricePoint) float64 {
	if len(points) < 2*trendWindowHours {
		return 0
	}
	recent := points[len(points)-trendWindowHours:]
	prior := points[len(points)-2*trendWindowHours : len(points)-trendWindowHours]

	var recentSum, priorSum float64
	for _, p := range recent {
		recentSum += p.Price
	}
	for _, p := range prior {
		priorSum += p.Price
	}
	priorMean := priorSum / trendWindowHours
	if priorMean == 0 {
		return 0
	}
	recentMean := recentSum / trendWindowHours
	return (recentMean - priorMean) / priorMean * 100
}
