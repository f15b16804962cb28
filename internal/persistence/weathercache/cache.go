// Package weathercache is a Redis-backed cache for fetched weather windows.
// Archive data is immutable, so a cached window is valid for as long as the
// configured TTL allows. Payloads are msgpack-encoded to keep the hour maps
// compact.
package weathercache

import (
	"context"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"

	cachekeys "gridpulse-api/internal/cache"
	"gridpulse-api/pkg/weather"
)

// Cache implements the backfill orchestrator's WindowCache over Redis.
type Cache struct {
	rds *redis.Redis
	ttl time.Duration
	lat string
	lon string
}

// New wires a Cache for one geographic centroid. Returns nil when Redis is
// absent; the orchestrator treats a nil cache as a pass-through.
func New(rds *redis.Redis, ttl cachekeys.TTLSet, lat, lon float64) *Cache {
	if rds == nil {
		return nil
	}
	return &Cache{
		rds: rds,
		ttl: cachekeys.WeatherWindowTTL(ttl),
		lat: fmt.Sprintf("%.4f", lat),
		lon: fmt.Sprintf("%.4f", lon),
	}
}

type envelope struct {
	Start int64                         `msgpack:"s"`
	End   int64                         `msgpack:"e"`
	Hours map[int64]weather.Observation `msgpack:"h"`
}

func (c *Cache) key(start, end time.Time) string {
	return cachekeys.WeatherWindowKey(c.lat, c.lon, start, end)
}

// Get returns a previously cached window, or (nil, false) on miss or any
// decode problem. Cache failures never fail a backfill run.
func (c *Cache) Get(ctx context.Context, start, end time.Time) (*weather.Window, bool) {
	if c == nil {
		return nil, false
	}
	key := c.key(start, end)
	raw, err := c.rds.GetCtx(ctx, key)
	if err != nil || raw == "" {
		if err != nil {
			logx.WithContext(ctx).Errorf("weathercache: get key=%s err=%v", key, err)
		}
		return nil, false
	}

	var env envelope
	if err := msgpack.Unmarshal([]byte(raw), &env); err != nil {
		logx.WithContext(ctx).Errorf("weathercache: decode key=%s err=%v", key, err)
		return nil, false
	}
	return weather.NewWindow(time.Unix(env.Start, 0).UTC(), time.Unix(env.End, 0).UTC(), env.Hours), true
}

// Put stores a fetched window with the configured TTL. Failures are logged
// and swallowed.
func (c *Cache) Put(ctx context.Context, start, end time.Time, w *weather.Window) {
	if c == nil || w == nil || c.ttl <= 0 {
		return
	}

	env := envelope{
		Start: w.Start.UTC().Unix(),
		End:   w.End.UTC().Unix(),
		Hours: w.Hours,
	}
	raw, err := msgpack.Marshal(env)
	if err != nil {
		logx.WithContext(ctx).Errorf("weathercache: encode window: %v", err)
		return
	}

	key := c.key(start, end)
	if err := c.rds.SetexCtx(ctx, key, string(raw), int(c.ttl.Seconds())); err != nil {
		logx.WithContext(ctx).Errorf("weathercache: set key=%s err=%v", key, err)
	}
}
